// Package translate fills missing English or Spanish project texts with an LLM.
package translate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/kapu/portfolio-web-go/internal/constants"
	"github.com/kapu/portfolio-web-go/internal/util"
)

// ErrCircuitOpen is returned while the providers are considered down.
var ErrCircuitOpen = errors.New("translation providers unavailable (circuit open)")

// Manager sends prompts to the primary provider and falls back to the secondary one.
type Manager struct {
	primary  Provider
	fallback Provider
	breaker  *util.CircuitBreaker
	logger   *zap.Logger
}

// NewManager builds a manager; fallback may be nil.
func NewManager(primary, fallback Provider, logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{
		primary:  primary,
		fallback: fallback,
		breaker: util.NewCircuitBreaker("translate",
			constants.CircuitBreakerConfig.FailureThreshold,
			constants.CircuitBreakerConfig.ResetTimeout,
			logger,
		),
		logger: logger,
	}
}

// WithClock replaces the breaker time source. Used by tests.
func (m *Manager) WithClock(now func() time.Time) *Manager {
	m.breaker.WithClock(now)
	return m
}

// GenerateJSON decodes the first successful provider answer into dest and
// returns the name of the provider that produced it.
func (m *Manager) GenerateJSON(ctx context.Context, prompt string, dest any) (string, error) {
	if !m.breaker.CanExecute() {
		status := m.breaker.Status()
		m.logger.Error("Translation unavailable (Circuit OPEN)",
			zap.Int("failure_count", status.FailureCount),
		)
		return "", ErrCircuitOpen
	}

	text, primaryErr := m.primary.Generate(ctx, prompt)
	if primaryErr == nil {
		if err := decodeJSON(text, dest); err != nil {
			m.logger.Warn("Invalid JSON from provider", zap.String("provider", m.primary.Name()), zap.Error(err))
			primaryErr = err
		} else {
			m.breaker.RecordSuccess()
			return m.primary.Name(), nil
		}
	}

	if m.fallback != nil {
		text, fallbackErr := m.fallback.Generate(ctx, prompt)
		if fallbackErr == nil {
			if fallbackErr = decodeJSON(text, dest); fallbackErr == nil {
				m.breaker.RecordSuccess()
				return m.fallback.Name(), nil
			}
		}
		m.breaker.RecordFailure()
		return "", fmt.Errorf("%s: %v; %s: %w", m.primary.Name(), primaryErr, m.fallback.Name(), fallbackErr)
	}

	m.breaker.RecordFailure()
	return "", fmt.Errorf("%s: %w", m.primary.Name(), primaryErr)
}

// decodeJSON strips an optional markdown fence before unmarshalling.
func decodeJSON(text string, dest any) error {
	cleaned := strings.TrimSpace(text)
	if cleaned == "" {
		return errors.New("empty response")
	}
	if strings.HasPrefix(cleaned, "```json") {
		cleaned = strings.TrimSpace(strings.TrimPrefix(cleaned, "```json"))
	} else if strings.HasPrefix(cleaned, "```") {
		cleaned = strings.TrimSpace(strings.TrimPrefix(cleaned, "```"))
	}
	cleaned = strings.TrimSpace(strings.TrimSuffix(cleaned, "```"))

	if err := json.Unmarshal([]byte(cleaned), dest); err != nil {
		return fmt.Errorf("invalid JSON (%s): %w", util.TruncateString(cleaned, 80), err)
	}
	return nil
}
