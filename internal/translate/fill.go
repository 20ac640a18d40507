package translate

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/kapu/portfolio-web-go/internal/domain"
)

const (
	FieldRoleEN        = "role.en"
	FieldRoleES        = "role.es"
	FieldDescriptionEN = "description.en"
	FieldDescriptionES = "description.es"
)

// JSONGenerator is satisfied by *Manager.
type JSONGenerator interface {
	GenerateJSON(ctx context.Context, prompt string, dest any) (string, error)
}

type Options struct {
	// IDs limits the run to these project ids; empty means all.
	IDs         []int
	Delay       time.Duration
	MaxAttempts int
	Backoff     time.Duration
	// Sleep replaces time.Sleep honoring ctx. Used by tests.
	Sleep func(ctx context.Context, d time.Duration) error
}

// Report summarizes a fill run.
type Report struct {
	Filled  int
	Failed  int
	Skipped int
}

type fillResponse struct {
	Role        domain.Localized `json:"role"`
	Description domain.Localized `json:"description"`
}

// MissingFields lists the empty sides that can be translated from the other side.
func MissingFields(p domain.Project) []string {
	var missing []string
	add := func(l domain.Localized, en, es string) {
		hasEN := strings.TrimSpace(l.EN) != ""
		hasES := strings.TrimSpace(l.ES) != ""
		switch {
		case hasEN && !hasES:
			missing = append(missing, es)
		case hasES && !hasEN:
			missing = append(missing, en)
		}
	}
	add(p.Role, FieldRoleEN, FieldRoleES)
	add(p.Description, FieldDescriptionEN, FieldDescriptionES)
	return missing
}

// FillMissing translates the missing sides of every selected project in place.
// Existing texts are never overwritten. A project that keeps failing is left as is.
func FillMissing(ctx context.Context, projects []domain.Project, gen JSONGenerator, opts Options, logger *zap.Logger) (Report, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = 3
	}
	if opts.Sleep == nil {
		opts.Sleep = sleepContext
	}

	selected := make(map[int]struct{}, len(opts.IDs))
	for _, id := range opts.IDs {
		selected[id] = struct{}{}
	}

	var report Report
	for i := range projects {
		p := &projects[i]
		if len(selected) > 0 {
			if _, ok := selected[p.ID]; !ok {
				continue
			}
		}

		missing := MissingFields(*p)
		if len(missing) == 0 {
			report.Skipped++
			continue
		}

		prompt, err := BuildPrompt(PromptVars{
			Title:       p.Title,
			Year:        p.Year,
			Category:    p.Category,
			Director:    p.Director,
			Role:        p.Role,
			Description: p.Description,
			Missing:     missing,
		})
		if err != nil {
			return report, err
		}

		resp, provider, err := generateWithRetry(ctx, gen, prompt, opts, logger, p.Title)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, ErrCircuitOpen) {
				return report, err
			}
			logger.Error("translation failed", zap.Int("id", p.ID), zap.String("title", p.Title), zap.Error(err))
			report.Failed++
			continue
		}

		applied := apply(p, resp, missing)
		logger.Info("translated",
			zap.Int("id", p.ID),
			zap.String("title", p.Title),
			zap.String("provider", provider),
			zap.Strings("fields", applied),
		)
		if len(applied) > 0 {
			report.Filled++
		} else {
			report.Failed++
		}

		if opts.Delay > 0 {
			if err := opts.Sleep(ctx, opts.Delay); err != nil {
				return report, err
			}
		}
	}
	return report, nil
}

func generateWithRetry(ctx context.Context, gen JSONGenerator, prompt string, opts Options, logger *zap.Logger, title string) (fillResponse, string, error) {
	var lastErr error
	for attempt := 1; attempt <= opts.MaxAttempts; attempt++ {
		var resp fillResponse
		provider, err := gen.GenerateJSON(ctx, prompt, &resp)
		if err == nil {
			return resp, provider, nil
		}
		lastErr = err
		if errors.Is(err, ErrCircuitOpen) || ctx.Err() != nil || attempt == opts.MaxAttempts {
			break
		}

		sleep := opts.Backoff * time.Duration(attempt)
		logger.Warn("retrying translation",
			zap.String("title", title),
			zap.Int("attempt", attempt),
			zap.Duration("sleep", sleep),
			zap.Error(err),
		)
		if err := opts.Sleep(ctx, sleep); err != nil {
			return fillResponse{}, "", err
		}
	}
	return fillResponse{}, "", lastErr
}

// apply copies only the requested, non-empty answers into p.
func apply(p *domain.Project, resp fillResponse, missing []string) []string {
	applied := make([]string, 0, len(missing))
	for _, field := range missing {
		var target *string
		var value string
		switch field {
		case FieldRoleEN:
			target, value = &p.Role.EN, resp.Role.EN
		case FieldRoleES:
			target, value = &p.Role.ES, resp.Role.ES
		case FieldDescriptionEN:
			target, value = &p.Description.EN, resp.Description.EN
		case FieldDescriptionES:
			target, value = &p.Description.ES, resp.Description.ES
		default:
			continue
		}
		if value = strings.TrimSpace(value); value != "" && strings.TrimSpace(*target) == "" {
			*target = value
			applied = append(applied, field)
		}
	}
	return applied
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
