package content

import (
	"context"
	"sync"
	"time"

	"github.com/kapu/portfolio-web-go/internal/constants"
	"github.com/kapu/portfolio-web-go/internal/domain"
	"github.com/kapu/portfolio-web-go/internal/service/cache"
	"github.com/kapu/portfolio-web-go/internal/service/provider"
	"github.com/kapu/portfolio-web-go/internal/sheet"
	"github.com/kapu/portfolio-web-go/internal/store"
	"github.com/sourcegraph/conc/pool"
	"go.uber.org/zap"
)

// Dataset names, also used in API paths and live updates.
const (
	DatasetProjects   = "projects"
	DatasetAuthor     = "author"
	DatasetCategories = "categories"
)

// Datasets lists every dataset in a stable order.
var Datasets = []string{DatasetProjects, DatasetAuthor, DatasetCategories}

// Change is published whenever a dataset's state changes.
type Change struct {
	Dataset   string          `json:"dataset"`
	Phase     provider.Phase  `json:"phase"`
	Source    provider.Source `json:"source"`
	Loading   bool            `json:"loading"`
	Error     string          `json:"error,omitempty"`
	UpdatedAt time.Time       `json:"updatedAt"`
}

// DatasetStatus is the status view of one provider.
type DatasetStatus = Change

// Status is the snapshot served by the status endpoint.
type Status struct {
	RemoteConfigured bool            `json:"remoteConfigured"`
	Datasets         []DatasetStatus `json:"datasets"`
}

type Options struct {
	Store       store.Store
	Fetcher     sheet.Fetcher
	TTL         time.Duration
	Logger      *zap.Logger
	RefreshPool int
	// Now returns the transform-time clock; defaults to time.Now.
	Now func() time.Time
	// OnChange is registered before the providers start loading, so it also
	// receives the initial cache-hit transitions.
	OnChange func(Change)
}

// Service owns the projects, author and categories providers.
type Service struct {
	projects   *provider.Provider[[]domain.Project]
	author     *provider.Provider[domain.AuthorInfo]
	categories *provider.Provider[[]domain.Category]

	store       store.Store
	fetcher     sheet.Fetcher
	refreshPool int
	logger      *zap.Logger

	changeMu sync.RWMutex
	onChange []func(Change)
}

// NewService builds the three providers; each starts loading immediately.
// ctx bounds their background refreshes.
func NewService(ctx context.Context, opts Options) (*Service, error) {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	ttl := opts.TTL
	if ttl <= 0 {
		ttl = constants.CacheTTL.Content
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	refreshPool := opts.RefreshPool
	if refreshPool <= 0 {
		refreshPool = constants.SheetConfig.RefreshLimit
	}

	bundled, err := domain.LoadBundledProjects()
	if err != nil {
		return nil, err
	}

	s := &Service{
		store:       opts.Store,
		fetcher:     opts.Fetcher,
		refreshPool: refreshPool,
		logger:      logger,
	}
	if opts.OnChange != nil {
		s.onChange = append(s.onChange, opts.OnChange)
	}

	s.projects = provider.New(ctx, provider.Config[[]domain.Project]{
		Name:     DatasetProjects,
		CacheKey: constants.CacheKeys.Projects,
		Feed:     constants.FeedNames.Projects,
		Transform: func(rows []sheet.Row) []domain.Project {
			return sheet.TransformProjects(rows, now().Year())
		},
		Fallback: func() []domain.Project {
			out := make([]domain.Project, len(bundled))
			copy(out, bundled)
			return out
		},
		IsEmpty:  func(v []domain.Project) bool { return len(v) == 0 },
		OnChange: func(st provider.State[[]domain.Project]) { s.emit(changeOf(DatasetProjects, st)) },
	}, cache.New[[]domain.Project](opts.Store, ttl, logger), opts.Fetcher, logger)

	s.author = provider.New(ctx, provider.Config[domain.AuthorInfo]{
		Name:      DatasetAuthor,
		CacheKey:  constants.CacheKeys.Author,
		Feed:      constants.FeedNames.Author,
		Transform: sheet.TransformAuthor,
		Fallback:  domain.DefaultAuthor,
		IsEmpty:   func(v domain.AuthorInfo) bool { return len(v) == 0 },
		OnChange:  func(st provider.State[domain.AuthorInfo]) { s.emit(changeOf(DatasetAuthor, st)) },
	}, cache.New[domain.AuthorInfo](opts.Store, ttl, logger), opts.Fetcher, logger)

	s.categories = provider.New(ctx, provider.Config[[]domain.Category]{
		Name:      DatasetCategories,
		CacheKey:  constants.CacheKeys.Categories,
		Feed:      constants.FeedNames.Categories,
		Transform: sheet.TransformCategories,
		Fallback:  domain.DefaultCategories,
		IsEmpty:   func(v []domain.Category) bool { return len(v) == 0 },
		OnChange:  func(st provider.State[[]domain.Category]) { s.emit(changeOf(DatasetCategories, st)) },
	}, cache.New[[]domain.Category](opts.Store, ttl, logger), opts.Fetcher, logger)

	return s, nil
}

func (s *Service) Projects() *provider.Provider[[]domain.Project] {
	return s.projects
}

func (s *Service) Author() *provider.Provider[domain.AuthorInfo] {
	return s.author
}

func (s *Service) Categories() *provider.Provider[[]domain.Category] {
	return s.categories
}

// IsRemoteConfigured reports whether a remote sheet is set up at all.
func (s *Service) IsRemoteConfigured() bool {
	return s.fetcher != nil && s.fetcher.Configured()
}

// ClearAllCaches removes every dataset's cache entry. Published state is untouched.
func (s *Service) ClearAllCaches(ctx context.Context) error {
	keys := []string{
		constants.CacheKeys.Projects,
		constants.CacheKeys.Author,
		constants.CacheKeys.Categories,
	}
	if err := s.store.Remove(ctx, keys...); err != nil {
		s.logger.Warn("Failed to clear caches", zap.Error(err))
		return err
	}
	s.logger.Info("All caches cleared", zap.Strings("keys", keys))
	return nil
}

// Refresh refreshes one dataset by name. It returns false for unknown names.
func (s *Service) Refresh(ctx context.Context, dataset string) (Change, bool) {
	switch dataset {
	case DatasetProjects:
		return changeOf(dataset, s.projects.Refresh(ctx)), true
	case DatasetAuthor:
		return changeOf(dataset, s.author.Refresh(ctx)), true
	case DatasetCategories:
		return changeOf(dataset, s.categories.Refresh(ctx)), true
	default:
		return Change{}, false
	}
}

// RefreshAll refreshes every dataset concurrently and returns the resulting statuses.
func (s *Service) RefreshAll(ctx context.Context) []Change {
	p := pool.NewWithResults[Change]().WithMaxGoroutines(s.refreshPool)
	for _, name := range Datasets {
		p.Go(func() Change {
			change, _ := s.Refresh(ctx, name)
			return change
		})
	}
	changes := p.Wait()

	byName := make(map[string]Change, len(changes))
	for _, c := range changes {
		byName[c.Dataset] = c
	}
	ordered := make([]Change, 0, len(Datasets))
	for _, name := range Datasets {
		ordered = append(ordered, byName[name])
	}
	return ordered
}

// WaitReady blocks until every dataset has published data or ctx ends.
func (s *Service) WaitReady(ctx context.Context) error {
	for _, ready := range []<-chan struct{}{s.projects.Ready(), s.author.Ready(), s.categories.Ready()} {
		select {
		case <-ready:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

// Wait blocks until background refreshes have finished.
func (s *Service) Wait() {
	s.projects.Wait()
	s.author.Wait()
	s.categories.Wait()
}

func (s *Service) Status() Status {
	return Status{
		RemoteConfigured: s.IsRemoteConfigured(),
		Datasets: []DatasetStatus{
			changeOf(DatasetProjects, s.projects.State()),
			changeOf(DatasetAuthor, s.author.State()),
			changeOf(DatasetCategories, s.categories.State()),
		},
	}
}

// OnChange registers fn for state changes of any dataset. fn must not block.
// Changes published before registration are not replayed; Status() is the
// starting snapshot (the /ws hello carries it).
func (s *Service) OnChange(fn func(Change)) {
	s.changeMu.Lock()
	defer s.changeMu.Unlock()
	s.onChange = append(s.onChange, fn)
}

func (s *Service) emit(c Change) {
	s.changeMu.RLock()
	listeners := s.onChange
	s.changeMu.RUnlock()

	for _, fn := range listeners {
		fn(c)
	}
}

func changeOf[T any](dataset string, st provider.State[T]) Change {
	return Change{
		Dataset:   dataset,
		Phase:     st.Phase,
		Source:    st.Source,
		Loading:   st.Loading,
		Error:     st.ErrMessage(),
		UpdatedAt: st.UpdatedAt,
	}
}
