package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/kapu/portfolio-web-go/internal/config"
	"github.com/kapu/portfolio-web-go/internal/service/content"
	"github.com/kapu/portfolio-web-go/internal/sheet"
	"github.com/kapu/portfolio-web-go/internal/store"
	"github.com/kapu/portfolio-web-go/internal/web"
)

// Container bundles the assembled services of the portfolio server.
type Container struct {
	Config  *config.Config
	Logger  *zap.Logger
	Store   store.Store
	Content *content.Service
	Server  *web.Server

	closers []func()
}

// Build assembles the store, the sheet fetcher, the content providers and the
// HTTP server. ctx bounds the lifetime of background refreshes; Build waits at
// most cfg.Sheet.StartupWait for the first data before returning.
func Build(ctx context.Context, cfg *config.Config, logger *zap.Logger) (container *Container, err error) {
	if cfg == nil {
		return nil, fmt.Errorf("config must not be nil")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger must not be nil")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	var closers []func()
	runCtx, cancel := context.WithCancel(ctx)
	defer func() {
		if err != nil {
			cancel()
			for i := len(closers) - 1; i >= 0; i-- {
				closers[i]()
			}
		}
	}()

	kv, err := NewStore(cfg.Store, logger)
	if err != nil {
		return nil, err
	}
	closers = append(closers, func() {
		_ = kv.Close()
	})

	fetcher, err := NewFetcher(runCtx, cfg.Sheet, logger)
	if err != nil {
		return nil, err
	}

	contentSvc, err := content.NewService(runCtx, content.Options{
		Store:   kv,
		Fetcher: fetcher,
		TTL:     cfg.Cache.TTL,
		Logger:  logger,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create content service: %w", err)
	}
	// 종료 시 역순: 갱신 취소 → 대기 → 스토어 닫기
	closers = append(closers, contentSvc.Wait, cancel)

	if cfg.Sheet.StartupWait > 0 {
		waitCtx, waitCancel := context.WithTimeout(ctx, cfg.Sheet.StartupWait)
		if waitErr := contentSvc.WaitReady(waitCtx); waitErr != nil {
			logger.Warn("Content not ready at startup; serving while loading", zap.Error(waitErr))
		}
		waitCancel()
	}

	server, err := web.NewServer(contentSvc, web.Options{
		DefaultLocale: cfg.Web.DefaultLocale,
		DefaultTheme:  cfg.Web.DefaultTheme,
		RateLimit:     cfg.Web.RateLimit,
		RateBurst:     cfg.Web.RateBurst,
		SecureCookies: cfg.Web.SecureCookies,
		ImagesDir:     cfg.Web.ImagesDir,
		PageWait:      cfg.Web.PageWait,
		ReadTimeout:   cfg.Server.ReadTimeout,
		WriteTimeout:  cfg.Server.WriteTimeout,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create web server: %w", err)
	}

	status := contentSvc.Status()
	logger.Info("Content service assembled",
		zap.String("store", cfg.Store.Backend),
		zap.Bool("remote_configured", status.RemoteConfigured),
		zap.Any("datasets", status.Datasets),
	)

	return &Container{
		Config:  cfg,
		Logger:  logger,
		Store:   kv,
		Content: contentSvc,
		Server:  server,
		closers: closers,
	}, nil
}

// NewStore opens the configured key/value backend.
func NewStore(cfg config.StoreConfig, logger *zap.Logger) (store.Store, error) {
	switch cfg.Backend {
	case store.BackendMemory, "":
		return store.NewMemory(), nil
	case store.BackendRedis:
		kv, err := store.NewRedis(store.RedisConfig{
			Host:     cfg.Redis.Host,
			Port:     cfg.Redis.Port,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			Prefix:   cfg.Redis.Prefix,
		}, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to create redis store: %w", err)
		}
		return kv, nil
	case store.BackendPostgres:
		kv, err := store.NewPostgres(store.PostgresConfig{
			Host:     cfg.Postgres.Host,
			Port:     cfg.Postgres.Port,
			User:     cfg.Postgres.User,
			Password: cfg.Postgres.Password,
			Database: cfg.Postgres.Database,
			SSLMode:  cfg.Postgres.SSLMode,
		}, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to create postgres store: %w", err)
		}
		return kv, nil
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.Backend)
	}
}

// NewFetcher picks the Sheets API when credentials are configured and the
// public CSV export otherwise.
func NewFetcher(ctx context.Context, cfg config.SheetConfig, logger *zap.Logger) (sheet.Fetcher, error) {
	sheetID := cfg.EffectiveID()
	if sheetID == "" {
		logger.Info("Remote sheet disabled; serving bundled content")
	}

	if sheetID != "" && cfg.UseSheetsAPI() {
		fetcher, err := sheet.NewSheetsAPIFetcher(ctx, sheet.SheetsAPIConfig{
			SheetID:         sheetID,
			APIKey:          cfg.APIKey,
			CredentialsFile: cfg.CredentialsFile,
		}, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to create sheets api fetcher: %w", err)
		}
		return fetcher, nil
	}

	return sheet.NewHTTPFetcher(sheet.HTTPFetcherConfig{
		BaseURL: cfg.BaseURL,
		SheetID: sheetID,
		Timeout: cfg.FetchTimeout,
	}, &http.Client{}, logger), nil
}

// Close stops background refreshes and releases the store.
func (c *Container) Close() error {
	if c == nil {
		return nil
	}
	for i := len(c.closers) - 1; i >= 0; i-- {
		c.closers[i]()
	}
	c.closers = nil
	return nil
}

// Run serves HTTP until ctx ends, then shuts down within cfg.Server.ShutdownTimeout.
func (c *Container) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- c.Server.Start(c.Config.Server.Addr())
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	c.Logger.Info("Shutting down HTTP server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), c.Config.Server.ShutdownTimeout)
	defer cancel()
	if err := c.Server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return <-errCh
}
