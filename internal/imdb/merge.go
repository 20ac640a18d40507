package imdb

import (
	"context"
	"errors"
	"sort"

	"go.uber.org/zap"

	"github.com/kapu/portfolio-web-go/internal/domain"
)

// PosterSource resolves a public image path for a title.
type PosterSource interface {
	Download(ctx context.Context, imdbID, title string) (string, error)
}

// Import converts the credits that are not yet in existing into projects.
// Poster failures fall back to the placeholder image; unparsable credits are skipped.
func Import(ctx context.Context, credits []Credit, existing []domain.Project, posters PosterSource, logger *zap.Logger) ([]domain.Project, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	known := make(map[string]struct{}, len(existing))
	for _, p := range existing {
		if id := IDFromURL(p.IMDb); id != "" {
			known[id] = struct{}{}
		}
	}

	imported := make([]domain.Project, 0, len(credits))
	for idx, credit := range credits {
		if err := ctx.Err(); err != nil {
			return imported, err
		}
		if _, ok := known[credit.IMDbID]; ok || credit.IMDbID == "" {
			logger.Debug("skip (already in portfolio)", zap.String("title", credit.Title))
			continue
		}

		image := ""
		if posters != nil {
			path, err := posters.Download(ctx, credit.IMDbID, credit.Title)
			switch {
			case err == nil:
				image = path
			case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
				return imported, err
			default:
				logger.Warn("poster unavailable", zap.String("title", credit.Title), zap.Error(err))
			}
		}

		project, err := credit.ToProject(image)
		if err != nil {
			logger.Warn("skip credit", zap.Int("index", idx), zap.String("title", credit.Title), zap.Error(err))
			continue
		}

		known[credit.IMDbID] = struct{}{}
		imported = append(imported, project)
		logger.Info("imported", zap.Int("index", idx+1), zap.Int("total", len(credits)), zap.String("title", project.Title))
	}
	return imported, nil
}

// Merge keeps every existing project, appends the additions whose IMDb id is new,
// sorts by year (newest first) then title and renumbers ids from 1.
func Merge(existing, additions []domain.Project) []domain.Project {
	seen := make(map[string]struct{}, len(existing))
	merged := make([]domain.Project, 0, len(existing)+len(additions))
	for _, p := range existing {
		if id := IDFromURL(p.IMDb); id != "" {
			seen[id] = struct{}{}
		}
		merged = append(merged, p)
	}
	for _, p := range additions {
		id := IDFromURL(p.IMDb)
		if id != "" {
			if _, ok := seen[id]; ok {
				continue
			}
			seen[id] = struct{}{}
		}
		merged = append(merged, p)
	}

	sort.SliceStable(merged, func(i, j int) bool {
		if merged[i].Year != merged[j].Year {
			return merged[i].Year > merged[j].Year
		}
		return merged[i].Title < merged[j].Title
	})
	for i := range merged {
		merged[i].ID = i + 1
		if merged[i].Awards == nil {
			merged[i].Awards = []string{}
		}
	}
	return merged
}

// CountByCategory summarizes a project list for the import report.
func CountByCategory(projects []domain.Project) map[string]int {
	counts := make(map[string]int)
	for _, p := range projects {
		counts[p.Category]++
	}
	return counts
}
