package sheet

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/kapu/portfolio-web-go/internal/constants"
	"github.com/kapu/portfolio-web-go/internal/util"
	"github.com/kapu/portfolio-web-go/pkg/errors"
	"go.uber.org/zap"
)

// Fetcher retrieves one named feed of the remote document as rows.
// An unconfigured fetcher returns (nil, nil) without any request.
type Fetcher interface {
	Fetch(ctx context.Context, feed string) ([]Row, error)
	Configured() bool
}

// HTTPFetcherConfig configures the published-CSV fetcher.
type HTTPFetcherConfig struct {
	BaseURL string
	SheetID string
	// Timeout bounds one request; zero means no timeout.
	Timeout   time.Duration
	UserAgent string
}

// HTTPFetcher downloads feeds through the public gviz CSV export.
type HTTPFetcher struct {
	cfg        HTTPFetcherConfig
	httpClient *http.Client
	breaker    *util.CircuitBreaker
	logger     *zap.Logger
}

func NewHTTPFetcher(cfg HTTPFetcherConfig, httpClient *http.Client, logger *zap.Logger) *HTTPFetcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = constants.SheetConfig.BaseURL
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = constants.SheetConfig.UserAgent
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")

	return &HTTPFetcher{
		cfg:        cfg,
		httpClient: httpClient,
		breaker: util.NewCircuitBreaker(
			"sheet",
			constants.CircuitBreakerConfig.FailureThreshold,
			constants.CircuitBreakerConfig.ResetTimeout,
			logger,
		),
		logger: logger,
	}
}

func (f *HTTPFetcher) Configured() bool {
	return strings.TrimSpace(f.cfg.SheetID) != ""
}

// Breaker exposes the circuit breaker for status reporting.
func (f *HTTPFetcher) Breaker() *util.CircuitBreaker {
	return f.breaker
}

// FeedURL builds the CSV export URL of feed.
func (f *HTTPFetcher) FeedURL(feed string) string {
	return fmt.Sprintf(constants.SheetConfig.URLTemplate, f.cfg.BaseURL, url.PathEscape(f.cfg.SheetID), escapeComponent(feed))
}

// escapeComponent percent-encodes a query value with spaces as %20.
func escapeComponent(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}

func (f *HTTPFetcher) Fetch(ctx context.Context, feed string) ([]Row, error) {
	if !f.Configured() {
		f.logger.Info("Sheet source not configured, skipping fetch", zap.String("feed", feed))
		return nil, nil
	}

	if !f.breaker.CanExecute() {
		f.logger.Warn("Circuit breaker is open, skipping fetch", zap.String("feed", feed))
		return nil, errors.NewFetchError("circuit breaker open", feed, http.StatusServiceUnavailable, nil)
	}

	if f.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.cfg.Timeout)
		defer cancel()
	}

	body, err := f.get(ctx, feed)
	if err != nil {
		f.breaker.RecordFailure()
		f.logger.Error("Failed to fetch sheet",
			zap.String("feed", feed),
			zap.Error(err),
		)
		return nil, err
	}
	f.breaker.RecordSuccess()

	rows := Parse(body)
	f.logger.Debug("Sheet fetched",
		zap.String("feed", feed),
		zap.Int("rows", len(rows)),
	)
	return rows, nil
}

func (f *HTTPFetcher) get(ctx context.Context, feed string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.FeedURL(feed), nil)
	if err != nil {
		return "", errors.NewFetchError("build request", feed, 0, err)
	}
	req.Header.Set("User-Agent", f.cfg.UserAgent)
	req.Header.Set("Accept", "text/csv")

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return "", errors.NewFetchError("request failed", feed, 0, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", errors.NewFetchError(fmt.Sprintf("HTTP %d", resp.StatusCode), feed, resp.StatusCode, nil)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", errors.NewFetchError("read body", feed, resp.StatusCode, err)
	}
	return string(body), nil
}
