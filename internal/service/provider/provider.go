package provider

import (
	"context"
	"sync"
	"time"

	"github.com/kapu/portfolio-web-go/internal/service/cache"
	"github.com/kapu/portfolio-web-go/internal/sheet"
	"github.com/kapu/portfolio-web-go/pkg/errors"
	"github.com/sourcegraph/conc"
	"github.com/sourcegraph/conc/panics"
	"go.uber.org/zap"
)

// Config describes one cached remote dataset.
type Config[T any] struct {
	Name      string
	CacheKey  string
	Feed      string
	Transform func(rows []sheet.Row) T
	Fallback  func() T
	IsEmpty   func(v T) bool
	// OnChange, when set, is subscribed before the first load so it also sees
	// the initial cache-hit transitions.
	OnChange func(State[T])
}

// Provider serves one dataset with stale-while-revalidate semantics:
// cached data is published immediately, stale data is refreshed in the
// background, and the bundled fallback fills in when nothing else is available.
type Provider[T any] struct {
	cfg     Config[T]
	cache   *cache.Cache[T]
	fetcher sheet.Fetcher
	logger  *zap.Logger
	now     func() time.Time

	// base context for background refreshes
	ctx context.Context

	mu    sync.RWMutex
	state State[T]

	// notifyMu orders state writes and their fan-out
	notifyMu sync.Mutex

	ready     chan struct{}
	readyOnce sync.Once

	subMu   sync.Mutex
	subs    map[int]func(State[T])
	nextSub int

	wg conc.WaitGroup
}

// New creates the provider and starts loading right away. When the cache holds
// data it is published before New returns; otherwise a background refresh is
// started. ctx bounds background refreshes.
func New[T any](ctx context.Context, cfg Config[T], c *cache.Cache[T], fetcher sheet.Fetcher, logger *zap.Logger) *Provider[T] {
	p := newProvider(ctx, cfg, c, fetcher, logger)
	if cfg.OnChange != nil {
		p.Subscribe(cfg.OnChange)
	}
	p.load()
	return p
}

func newProvider[T any](ctx context.Context, cfg Config[T], c *cache.Cache[T], fetcher sheet.Fetcher, logger *zap.Logger) *Provider[T] {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.IsEmpty == nil {
		cfg.IsEmpty = func(T) bool { return false }
	}
	return &Provider[T]{
		cfg:     cfg,
		cache:   c,
		fetcher: fetcher,
		logger:  logger.With(zap.String("dataset", cfg.Name)),
		now:     time.Now,
		ctx:     ctx,
		state: State[T]{
			Loading: true,
			Phase:   PhaseUninitialized,
			Source:  SourceNone,
		},
		ready: make(chan struct{}),
		subs:  make(map[int]func(State[T])),
	}
}

func (p *Provider[T]) Name() string {
	return p.cfg.Name
}

// State returns a snapshot of the current state.
func (p *Provider[T]) State() State[T] {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.state
}

// Ready is closed the first time Loading turns false.
func (p *Provider[T]) Ready() <-chan struct{} {
	return p.ready
}

// Subscribe registers fn for every state change. fn runs on the goroutine that
// changed the state and must not block or refresh the provider. Snapshots are
// delivered in the order the state was written.
func (p *Provider[T]) Subscribe(fn func(State[T])) (unsubscribe func()) {
	p.subMu.Lock()
	id := p.nextSub
	p.nextSub++
	p.subs[id] = fn
	p.subMu.Unlock()

	return func() {
		p.subMu.Lock()
		delete(p.subs, id)
		p.subMu.Unlock()
	}
}

// Wait blocks until all background refreshes have finished.
func (p *Provider[T]) Wait() {
	p.wg.Wait()
}

func (p *Provider[T]) load() {
	entry, expired, ok := p.cache.Get(p.ctx, p.cfg.CacheKey)
	if !ok {
		p.logger.Debug("Cache miss, fetching remote data")
		p.update(func(s *State[T]) {
			s.Phase = PhaseRefreshingNoCache
		})
		p.refreshInBackground()
		return
	}

	if !expired {
		p.logger.Debug("Cache hit (fresh)")
		p.update(func(s *State[T]) {
			s.Value = entry.Data
			s.Loading = false
			s.Phase = PhaseCacheHitFresh
			s.Source = SourceCache
			s.UpdatedAt = entry.WrittenAt()
		})
		p.update(func(s *State[T]) {
			s.Phase = PhaseReady
		})
		return
	}

	p.logger.Debug("Cache hit (stale), refreshing in background",
		zap.Time("written_at", entry.WrittenAt()))
	p.update(func(s *State[T]) {
		s.Value = entry.Data
		s.Loading = false
		s.Phase = PhaseCacheHitStaleRefreshing
		s.Source = SourceCache
		s.UpdatedAt = entry.WrittenAt()
	})
	p.refreshInBackground()
}

func (p *Provider[T]) refreshInBackground() {
	p.wg.Go(func() {
		p.Refresh(p.ctx)
	})
}

// Refresh fetches the feed and publishes the outcome, regardless of the cache
// state. It blocks until done and never panics; failures end up in State.Err.
// Concurrent refreshes are not deduplicated: the last one to finish wins.
func (p *Provider[T]) Refresh(ctx context.Context) State[T] {
	var (
		rows        []sheet.Row
		value       T
		transformed bool
		refreshErr  error
		catcher     panics.Catcher
	)

	catcher.Try(func() {
		rows, refreshErr = p.fetcher.Fetch(ctx, p.cfg.Feed)
		if refreshErr == nil && len(rows) > 0 {
			value = p.cfg.Transform(rows)
			transformed = true
		}
	})
	if recovered := catcher.Recovered(); recovered != nil {
		p.logger.Error("Refresh panicked", zap.String("panic", recovered.String()))
		refreshErr = errors.NewServiceError("refresh panicked", p.cfg.Name, "refresh", recovered.AsError())
		transformed = false
	}

	if transformed {
		p.cache.Set(ctx, p.cfg.CacheKey, value)
		p.logger.Info("Remote data loaded", zap.Int("rows", len(rows)))
	}

	return p.update(func(s *State[T]) {
		switch {
		case transformed:
			s.Value = value
			s.Source = SourceRemote
			s.UpdatedAt = p.now()
		case s.Source == SourceNone || p.cfg.IsEmpty(s.Value):
			p.logger.Info("Using fallback data")
			s.Value = p.cfg.Fallback()
			s.Source = SourceFallback
			s.UpdatedAt = p.now()
		default:
			p.logger.Debug("No remote data, keeping current value",
				zap.String("source", string(s.Source)))
		}

		s.Err = refreshErr
		if refreshErr != nil {
			s.Phase = PhaseReadyWithError
		} else {
			s.Phase = PhaseReady
		}
		s.Loading = false
	})
}

// update applies fn under the lock, then notifies subscribers with the result.
func (p *Provider[T]) update(fn func(s *State[T])) State[T] {
	p.notifyMu.Lock()
	defer p.notifyMu.Unlock()

	p.mu.Lock()
	fn(&p.state)
	snapshot := p.state
	p.mu.Unlock()

	if !snapshot.Loading {
		p.readyOnce.Do(func() { close(p.ready) })
	}

	p.subMu.Lock()
	subs := make([]func(State[T]), 0, len(p.subs))
	for _, fn := range p.subs {
		subs = append(subs, fn)
	}
	p.subMu.Unlock()

	for _, fn := range subs {
		fn(snapshot)
	}
	return snapshot
}
