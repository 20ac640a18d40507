package main

import (
	"bytes"
	"context"
	"flag"
	"fmt"
	"log"
	"time"

	"go.uber.org/zap"

	"github.com/kapu/portfolio-web-go/internal/app"
	"github.com/kapu/portfolio-web-go/internal/config"
	"github.com/kapu/portfolio-web-go/internal/constants"
	"github.com/kapu/portfolio-web-go/internal/domain"
	"github.com/kapu/portfolio-web-go/internal/service/cache"
	"github.com/kapu/portfolio-web-go/internal/service/content"
	"github.com/kapu/portfolio-web-go/internal/service/provider"
	"github.com/kapu/portfolio-web-go/internal/store"
	"github.com/kapu/portfolio-web-go/internal/util"
)

const probeKey = "fv_store_probe"

// CLI flags
var (
	dryRun       = flag.Bool("dry-run", false, "Check everything but write nothing to the store")
	projectsFile = flag.String("projects", "", "Seed the projects cache from this JSON file instead of the remote sheet")
	timeout      = flag.Duration("timeout", 60*time.Second, "Overall time limit")
	verbose      = flag.Bool("verbose", false, "Verbose output")
)

func main() {
	flag.Parse()

	log.Println("=========================")
	log.Println("Portfolio cache warm-up")
	log.Println("=========================")

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("❌ Failed to load config: %v", err)
	}

	level := "warn"
	if *verbose {
		level = "debug"
	}
	logger, err := util.NewLogger(level, "", "console")
	if err != nil {
		log.Fatalf("❌ Failed to create logger: %v", err)
	}
	defer logger.Sync()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	// Step 1: connect and probe the configured store
	kv, err := app.NewStore(cfg.Store, logger)
	if err != nil {
		log.Fatalf("❌ Failed to open %s store: %v", cfg.Store.Backend, err)
	}
	defer kv.Close()
	log.Printf("✓ %s store connected", cfg.Store.Backend)

	if err := probe(ctx, kv); err != nil {
		log.Fatalf("❌ Store probe failed: %v", err)
	}
	log.Println("✓ Store read/write/remove works")

	if *dryRun {
		log.Println("[DRY RUN MODE] Writes go to an in-memory store")
		kv = store.NewMemory()
	}

	// Step 2: fill the caches
	if *projectsFile != "" {
		if err := seedProjects(ctx, kv, cfg.Cache.TTL, *projectsFile, logger); err != nil {
			log.Fatalf("❌ Seeding failed: %v", err)
		}
		return
	}

	if err := refreshFromRemote(ctx, kv, cfg, logger); err != nil {
		log.Fatalf("❌ Refresh failed: %v", err)
	}
}

func probe(ctx context.Context, kv store.Store) error {
	want := []byte(time.Now().UTC().Format(time.RFC3339Nano))
	if err := kv.Set(ctx, probeKey, want); err != nil {
		return fmt.Errorf("set: %w", err)
	}
	got, err := kv.Get(ctx, probeKey)
	if err != nil {
		return fmt.Errorf("get: %w", err)
	}
	if !bytes.Equal(got, want) {
		return fmt.Errorf("read back %q, want %q", got, want)
	}
	if err := kv.Remove(ctx, probeKey); err != nil {
		return fmt.Errorf("remove: %w", err)
	}
	return nil
}

func seedProjects(ctx context.Context, kv store.Store, ttl time.Duration, path string, logger *zap.Logger) error {
	file, err := domain.ReadProjectFile(path)
	if err != nil {
		return err
	}
	if err := validateProjects(file.Projects); err != nil {
		return err
	}
	log.Printf("✓ Loaded %d projects from %s", len(file.Projects), path)

	projects := cache.New[[]domain.Project](kv, ttl, logger)
	projects.Set(ctx, constants.CacheKeys.Projects, file.Projects)

	if _, _, ok := projects.Get(ctx, constants.CacheKeys.Projects); !ok {
		return fmt.Errorf("projects cache entry missing after write")
	}
	log.Printf("✓ Cached under %s", constants.CacheKeys.Projects)
	return nil
}

func validateProjects(projects []domain.Project) error {
	if len(projects) == 0 {
		return fmt.Errorf("no projects in file")
	}
	seen := make(map[int]struct{}, len(projects))
	for i, p := range projects {
		if p.Title == "" {
			return fmt.Errorf("project #%d has no title", i+1)
		}
		if _, dup := seen[p.ID]; dup {
			return fmt.Errorf("duplicate project id %d", p.ID)
		}
		seen[p.ID] = struct{}{}
	}
	return nil
}

func refreshFromRemote(ctx context.Context, kv store.Store, cfg *config.Config, logger *zap.Logger) error {
	fetcher, err := app.NewFetcher(ctx, cfg.Sheet, logger)
	if err != nil {
		return err
	}
	if !fetcher.Configured() {
		return fmt.Errorf("remote sheet is not configured (SHEET_ENABLED/SHEET_ID)")
	}

	svc, err := content.NewService(ctx, content.Options{
		Store:   kv,
		Fetcher: fetcher,
		TTL:     cfg.Cache.TTL,
		Logger:  logger,
	})
	if err != nil {
		return err
	}
	if err := svc.WaitReady(ctx); err != nil {
		return err
	}
	svc.Wait()

	changes := svc.RefreshAll(ctx)

	failed := 0
	fmt.Println("Summary:")
	for _, c := range changes {
		mark := "✓"
		if c.Error != "" || c.Source != provider.SourceRemote {
			mark = "⚠"
			failed++
		}
		fmt.Printf("- %s %s: phase=%s source=%s %s\n", mark, c.Dataset, c.Phase, c.Source, c.Error)
	}
	if failed > 0 {
		return fmt.Errorf("%d dataset(s) not refreshed from the sheet", failed)
	}
	log.Println("=== ✅ ALL DATASETS CACHED ===")
	return nil
}
