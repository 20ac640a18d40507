package sheet

import (
	"context"
	stderrors "errors"
	"fmt"
	"os"
	"strings"

	"github.com/kapu/portfolio-web-go/internal/constants"
	"github.com/kapu/portfolio-web-go/internal/util"
	"github.com/kapu/portfolio-web-go/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

// SheetsAPIConfig configures the authenticated Sheets API fetcher. One of
// APIKey or CredentialsFile is required.
type SheetsAPIConfig struct {
	SheetID         string
	APIKey          string
	CredentialsFile string
	// Endpoint overrides the API base URL (tests).
	Endpoint string
}

// SheetsAPIFetcher reads feeds through the Google Sheets API v4, using the feed
// name as the range.
type SheetsAPIFetcher struct {
	sheetID string
	service *sheets.Service
	breaker *util.CircuitBreaker
	logger  *zap.Logger
}

func NewSheetsAPIFetcher(ctx context.Context, cfg SheetsAPIConfig, logger *zap.Logger) (*SheetsAPIFetcher, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	opts := []option.ClientOption{}
	switch {
	case cfg.CredentialsFile != "":
		credBytes, err := os.ReadFile(cfg.CredentialsFile)
		if err != nil {
			return nil, fmt.Errorf("unable to read credentials file: %w", err)
		}
		creds, err := google.CredentialsFromJSON(ctx, credBytes, sheets.SpreadsheetsReadonlyScope)
		if err != nil {
			return nil, fmt.Errorf("unable to parse credentials: %w", err)
		}
		opts = append(opts, option.WithCredentials(creds))
	case cfg.APIKey != "":
		opts = append(opts, option.WithAPIKey(cfg.APIKey))
	default:
		return nil, fmt.Errorf("sheets api requires an api key or a credentials file")
	}
	if cfg.Endpoint != "" {
		opts = append(opts, option.WithEndpoint(cfg.Endpoint))
	}

	service, err := sheets.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create Sheets service: %w", err)
	}

	logger.Info("Sheets API fetcher initialized",
		zap.Bool("service_account", cfg.CredentialsFile != ""))

	return &SheetsAPIFetcher{
		sheetID: cfg.SheetID,
		service: service,
		breaker: util.NewCircuitBreaker(
			"sheets-api",
			constants.CircuitBreakerConfig.FailureThreshold,
			constants.CircuitBreakerConfig.ResetTimeout,
			logger,
		),
		logger: logger,
	}, nil
}

func (f *SheetsAPIFetcher) Configured() bool {
	return strings.TrimSpace(f.sheetID) != ""
}

func (f *SheetsAPIFetcher) Breaker() *util.CircuitBreaker {
	return f.breaker
}

func (f *SheetsAPIFetcher) Fetch(ctx context.Context, feed string) ([]Row, error) {
	if !f.Configured() {
		f.logger.Info("Sheet source not configured, skipping fetch", zap.String("feed", feed))
		return nil, nil
	}
	if !f.breaker.CanExecute() {
		f.logger.Warn("Circuit breaker is open, skipping fetch", zap.String("feed", feed))
		return nil, errors.NewFetchError("circuit breaker open", feed, 503, nil)
	}

	resp, err := f.service.Spreadsheets.Values.Get(f.sheetID, feed).Context(ctx).Do()
	if err != nil {
		f.breaker.RecordFailure()
		status := 0
		var apiErr *googleapi.Error
		if stderrors.As(err, &apiErr) {
			status = apiErr.Code
		}
		f.logger.Error("Failed to fetch sheet",
			zap.String("feed", feed),
			zap.Int("status", status),
			zap.Error(err),
		)
		return nil, errors.NewFetchError("sheets api request failed", feed, status, err)
	}
	f.breaker.RecordSuccess()

	records := make([][]string, 0, len(resp.Values))
	for _, raw := range resp.Values {
		record := make([]string, len(raw))
		blank := true
		for i, cell := range raw {
			record[i] = fmt.Sprint(cell)
			if strings.TrimSpace(record[i]) != "" {
				blank = false
			}
		}
		if !blank {
			records = append(records, record)
		}
	}

	rows := RowsFromRecords(records)
	f.logger.Debug("Sheet fetched",
		zap.String("feed", feed),
		zap.Int("rows", len(rows)),
	)
	return rows, nil
}
