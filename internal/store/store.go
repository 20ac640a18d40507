// Package store holds the key/value backends behind the content cache.
package store

import (
	"context"
	stderrors "errors"
)

// ErrNotFound is returned by Get when the key has no value.
var ErrNotFound = stderrors.New("store: key not found")

// Store is a minimal byte-oriented key/value store. Implementations are safe
// for concurrent use.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Remove(ctx context.Context, keys ...string) error
	Close() error
}

// Backend names accepted by configuration.
const (
	BackendMemory   = "memory"
	BackendRedis    = "redis"
	BackendPostgres = "postgres"
)
