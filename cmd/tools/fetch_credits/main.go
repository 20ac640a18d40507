package main

import (
	"context"
	"encoding/json"
	"flag"
	"os"
	"os/signal"
	"sort"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/kapu/portfolio-web-go/internal/domain"
	"github.com/kapu/portfolio-web-go/internal/imdb"
)

const (
	defaultProjectsFile = "internal/domain/data/projects.json"
	defaultImagesDir    = "public/images/projects"
	delayBetween        = 500 * time.Millisecond
	requestTimeout      = 10 * time.Second
)

func main() {
	var creditsFile string
	var projectsFile string
	var imagesDir string
	var skipPosters bool
	var dryRun bool

	flag.StringVar(&creditsFile, "credits", "credits.json", "exported IMDb credits (title, year, type, role, imdb_id)")
	flag.StringVar(&projectsFile, "projects", defaultProjectsFile, "projects JSON to merge into")
	flag.StringVar(&imagesDir, "images", defaultImagesDir, "directory for downloaded posters")
	flag.BoolVar(&skipPosters, "skip-posters", false, "do not download posters; use the placeholder image")
	flag.BoolVar(&dryRun, "dry-run", false, "print the merged summary without writing")
	flag.Parse()

	logger, _ := zap.NewDevelopment()
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	credits, err := loadCredits(creditsFile)
	if err != nil {
		logger.Fatal("failed to load credits", zap.String("file", creditsFile), zap.Error(err))
	}

	existing, err := domain.ReadProjectFile(projectsFile)
	if err != nil {
		logger.Fatal("failed to load projects", zap.String("file", projectsFile), zap.Error(err))
	}

	var posters imdb.PosterSource
	if !skipPosters {
		posters = imdb.NewScraper(imdb.ScraperConfig{
			Timeout:   requestTimeout,
			Interval:  delayBetween,
			ImagesDir: imagesDir,
		}, logger)
	}

	logger.Info("Processing IMDb credits",
		zap.Int("credits", len(credits)),
		zap.Int("existing", len(existing.Projects)),
	)

	imported, err := imdb.Import(ctx, credits, existing.Projects, posters, logger)
	if err != nil {
		logger.Fatal("import interrupted", zap.Int("imported", len(imported)), zap.Error(err))
	}

	merged := imdb.Merge(existing.Projects, imported)
	logSummary(logger, merged, len(imported))

	if dryRun {
		return
	}
	if err := domain.WriteProjectFile(projectsFile, domain.ProjectFile{Projects: merged}); err != nil {
		logger.Fatal("failed to write projects", zap.Error(err))
	}

	logger.Info("Credit import completed", zap.String("output", projectsFile))
}

func loadCredits(path string) ([]imdb.Credit, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var credits []imdb.Credit
	if err := json.Unmarshal(data, &credits); err != nil {
		return nil, err
	}
	return credits, nil
}

func logSummary(logger *zap.Logger, projects []domain.Project, added int) {
	counts := imdb.CountByCategory(projects)
	categories := make([]string, 0, len(counts))
	for c := range counts {
		categories = append(categories, c)
	}
	sort.Strings(categories)

	fields := []zap.Field{zap.Int("total", len(projects)), zap.Int("added", added)}
	for _, c := range categories {
		fields = append(fields, zap.Int("category_"+c, counts[c]))
	}
	if len(projects) > 0 {
		fields = append(fields,
			zap.Int("newest_year", projects[0].Year),
			zap.Int("oldest_year", projects[len(projects)-1].Year),
		)
	}
	logger.Info("Merged projects", fields...)
}
