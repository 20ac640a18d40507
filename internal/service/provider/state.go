package provider

import "time"

// Phase is the provider's position in its load cycle.
type Phase string

const (
	PhaseUninitialized           Phase = "uninitialized"
	PhaseCacheHitFresh           Phase = "cache_hit_fresh"
	PhaseCacheHitStaleRefreshing Phase = "cache_hit_stale_refreshing"
	PhaseRefreshingNoCache       Phase = "refreshing_no_cache"
	PhaseReady                   Phase = "ready"
	PhaseReadyWithError          Phase = "ready_with_error"
)

// Source tells where the current value came from.
type Source string

const (
	SourceNone     Source = "none"
	SourceCache    Source = "cache"
	SourceRemote   Source = "remote"
	SourceFallback Source = "fallback"
)

// State is a read-only snapshot of a provider.
type State[T any] struct {
	Value     T
	Loading   bool
	Err       error
	Phase     Phase
	Source    Source
	UpdatedAt time.Time
}

// ErrMessage returns the error text, or "" when there is none.
func (s State[T]) ErrMessage() string {
	if s.Err == nil {
		return ""
	}
	return s.Err.Error()
}
