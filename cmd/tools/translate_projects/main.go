package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/kapu/portfolio-web-go/internal/config"
	"github.com/kapu/portfolio-web-go/internal/domain"
	"github.com/kapu/portfolio-web-go/internal/translate"
)

const (
	defaultProjectsFile = "internal/domain/data/projects.json"
	requestDelay        = 750 * time.Millisecond
	maxAttempts         = 4
	backoffBase         = 2 * time.Second
)

func main() {
	var projectsFile string
	var idCSV string
	var useOpenAI bool
	var model string
	var dryRun bool

	flag.StringVar(&projectsFile, "projects", defaultProjectsFile, "projects JSON to fill")
	flag.StringVar(&idCSV, "ids", "", "comma-separated project ids to translate")
	flag.BoolVar(&useOpenAI, "use-openai", true, "enable OpenAI fallback when OPENAI_API_KEY is set")
	flag.StringVar(&model, "model", "", "Gemini model override")
	flag.BoolVar(&dryRun, "dry-run", false, "translate but do not write the file")
	flag.Parse()

	logger, _ := zap.NewDevelopment()
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("failed to load config", zap.Error(err))
	}
	if strings.TrimSpace(model) != "" {
		cfg.AI.GeminiModel = strings.TrimSpace(model)
	}
	if strings.TrimSpace(cfg.AI.GeminiAPIKey) == "" {
		logger.Fatal("GEMINI_API_KEY is not configured in environment or config")
	}

	ids, err := parseIDs(idCSV)
	if err != nil {
		logger.Fatal("invalid -ids", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	gemini, err := translate.NewGeminiProvider(ctx, cfg.AI.GeminiAPIKey, cfg.AI.GeminiModel, logger)
	if err != nil {
		logger.Fatal("failed to create Gemini provider", zap.Error(err))
	}

	var fallback translate.Provider
	if useOpenAI {
		if openai := translate.NewOpenAIProvider(cfg.AI.OpenAIAPIKey, cfg.AI.OpenAIModel, logger); openai != nil {
			fallback = openai
			logger.Info("OpenAI fallback enabled", zap.String("model", cfg.AI.OpenAIModel))
		} else {
			logger.Info("OpenAI fallback disabled (no API key)")
		}
	}

	file, err := domain.ReadProjectFile(projectsFile)
	if err != nil {
		logger.Fatal("failed to load projects", zap.String("file", projectsFile), zap.Error(err))
	}

	logger.Info("starting translation run",
		zap.Int("projects", len(file.Projects)),
		zap.Ints("ids", ids),
		zap.String("model", cfg.AI.GeminiModel),
	)

	report, runErr := translate.FillMissing(ctx, file.Projects, translate.NewManager(gemini, fallback, logger), translate.Options{
		IDs:         ids,
		Delay:       requestDelay,
		MaxAttempts: maxAttempts,
		Backoff:     backoffBase,
	}, logger)
	if runErr != nil {
		logger.Error("translation stopped early", zap.Error(runErr))
	}

	logger.Info("translation finished",
		zap.Int("filled", report.Filled),
		zap.Int("failed", report.Failed),
		zap.Int("skipped", report.Skipped),
	)

	// 부분 결과도 저장
	if dryRun || report.Filled == 0 {
		return
	}
	if err := domain.WriteProjectFile(projectsFile, file); err != nil {
		logger.Fatal("failed to write projects", zap.Error(err))
	}
	logger.Info("projects updated", zap.String("output", projectsFile))
}

func parseIDs(csv string) ([]int, error) {
	var ids []int
	for _, part := range strings.Split(csv, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.Atoi(part)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}
