// Package web serves the portfolio pages, the content JSON API and live updates.
package web

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/kapu/portfolio-web-go/internal/service/content"
	apperrors "github.com/kapu/portfolio-web-go/pkg/errors"
	"go.uber.org/zap"
)

//go:embed static
var staticFiles embed.FS

type Options struct {
	DefaultLocale string
	DefaultTheme  string
	// RateLimit is requests per second per client on /api; 0 disables limiting.
	RateLimit     float64
	RateBurst     int
	SecureCookies bool
	// ImagesDir is served under /images/ when set.
	ImagesDir string
	// PageWait bounds how long a page waits for data that is still loading.
	PageWait     time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// Server is the portfolio HTTP server.
type Server struct {
	content *content.Service
	i18n    *Translator
	pages   *renderer
	hub     *Hub
	cfg     Options
	logger  *zap.Logger
	router  *chi.Mux

	mu     sync.Mutex
	server *http.Server
	closed bool
}

func NewServer(svc *content.Service, opts Options, logger *zap.Logger) (*Server, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.PageWait <= 0 {
		opts.PageWait = 3 * time.Second
	}

	translator, err := NewTranslator(opts.DefaultLocale)
	if err != nil {
		return nil, fmt.Errorf("failed to load locales: %w", err)
	}
	pages, err := newRenderer()
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}

	s := &Server{
		content: svc,
		i18n:    translator,
		pages:   pages,
		hub:     NewHub(logger),
		cfg:     opts,
		logger:  logger,
		router:  chi.NewRouter(),
	}
	svc.OnChange(s.hub.Publish)

	s.setupMiddleware()
	if err := s.setupRoutes(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(accessLog(s.logger))
	s.router.Use(middleware.Recoverer)
	s.router.Use(securityHeaders)
}

func (s *Server) setupRoutes() error {
	staticFS, err := fs.Sub(staticFiles, "static")
	if err != nil {
		return err
	}
	s.router.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.FS(staticFS))))
	if s.cfg.ImagesDir != "" {
		s.router.Handle("/images/*", http.StripPrefix("/images/", http.FileServer(http.Dir(s.cfg.ImagesDir))))
	}

	s.router.Get("/healthz", s.handleHealth)

	// Pages
	s.router.Group(func(r chi.Router) {
		r.Use(middleware.Compress(5))
		r.Get("/", s.handleHome)
		r.Get("/portfolio", s.handlePortfolio)
		r.Get("/bio", s.handleBio)
	})

	// Preferences
	s.router.Get("/locale/{lang}", s.handleSetLocale)
	s.router.Get("/theme/{name}", s.handleSetTheme)

	s.router.Get("/ws", s.handleWS)

	s.router.Route("/api", func(r chi.Router) {
		if s.cfg.RateLimit > 0 {
			limiter := newRateLimiter(s.cfg.RateLimit, s.cfg.RateBurst, func(w http.ResponseWriter, req *http.Request) {
				s.respondError(w, req, apperrors.NewAppError("too many requests", "RATE_LIMIT_EXCEEDED", http.StatusTooManyRequests, nil))
			})
			r.Use(limiter.middleware)
		}
		r.Get("/projects", s.handleProjects)
		r.Get("/author", s.handleAuthor)
		r.Get("/categories", s.handleCategories)
		r.Get("/status", s.handleStatus)
		r.Post("/refresh", s.handleRefreshAll)
		r.Post("/refresh/{dataset}", s.handleRefreshDataset)
		r.Post("/cache/clear", s.handleClearCaches)
	})

	s.router.NotFound(s.handleNotFound)
	return nil
}

// Router returns the underlying chi router for testing.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// Hub returns the live update hub.
func (s *Server) Hub() *Hub {
	return s.hub
}

// Start listens on addr until Shutdown is called.
func (s *Server) Start(addr string) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	srv := &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  s.cfg.ReadTimeout,
		WriteTimeout: s.cfg.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}
	s.server = srv
	s.mu.Unlock()

	s.logger.Info("HTTP server listening", zap.String("addr", addr))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown disconnects live clients and stops the server gracefully.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	s.closed = true
	srv := s.server
	s.mu.Unlock()

	s.hub.Close()
	if srv == nil {
		return nil
	}
	return srv.Shutdown(ctx)
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	s.hub.ServeWS(w, r, s.content.Status())
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":           "ok",
		"remoteConfigured": s.content.IsRemoteConfigured(),
		"liveClients":      s.hub.ClientCount(),
	})
}
