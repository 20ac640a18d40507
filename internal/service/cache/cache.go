package cache

import (
	"bytes"
	"context"
	"encoding/json"
	stderrors "errors"
	"time"

	"github.com/kapu/portfolio-web-go/internal/store"
	"github.com/kapu/portfolio-web-go/pkg/errors"
	"go.uber.org/zap"
)

// Entry is the persisted envelope: the data plus its write time in unix milliseconds.
type Entry[T any] struct {
	Data      T     `json:"data"`
	Timestamp int64 `json:"timestamp"`
}

// WrittenAt returns the entry's write time.
func (e Entry[T]) WrittenAt() time.Time {
	return time.UnixMilli(e.Timestamp)
}

type rawEntry struct {
	Data      json.RawMessage `json:"data"`
	Timestamp int64           `json:"timestamp"`
}

// Cache stores JSON envelopes in a Store and reports staleness at read time.
// Store failures and undecodable values never reach the caller: reads degrade
// to a miss and writes are dropped, both with a warning.
type Cache[T any] struct {
	store  store.Store
	ttl    time.Duration
	now    func() time.Time
	logger *zap.Logger
}

func New[T any](s store.Store, ttl time.Duration, logger *zap.Logger) *Cache[T] {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Cache[T]{
		store:  s,
		ttl:    ttl,
		now:    time.Now,
		logger: logger,
	}
}

// WithClock replaces the time source. Used by tests.
func (c *Cache[T]) WithClock(now func() time.Time) *Cache[T] {
	c.now = now
	return c
}

// TTL returns the configured time-to-live.
func (c *Cache[T]) TTL() time.Duration {
	return c.ttl
}

// Get returns the entry under key, whether it is older than the TTL, and
// whether an entry was found at all. Expired entries are returned, not deleted.
// An envelope without data (missing or null) counts as not found.
func (c *Cache[T]) Get(ctx context.Context, key string) (entry Entry[T], expired bool, ok bool) {
	raw, err := c.store.Get(ctx, key)
	if err != nil {
		if !stderrors.Is(err, store.ErrNotFound) {
			c.logger.Warn("Cache read error",
				zap.Error(errors.NewCacheError("read failed", "get", key, err)))
		}
		return entry, false, false
	}

	var envelope rawEntry
	if err := json.Unmarshal(raw, &envelope); err != nil {
		c.logger.Warn("Cache read error",
			zap.Error(errors.NewCacheError("corrupted entry", "get", key, err)))
		return Entry[T]{}, false, false
	}
	// data 가 없거나 null 이면 miss ([] 와 {} 는 유효)
	if len(envelope.Data) == 0 || bytes.Equal(bytes.TrimSpace(envelope.Data), []byte("null")) {
		c.logger.Warn("Cache read error",
			zap.Error(errors.NewCacheError("entry has no data", "get", key, nil)))
		return Entry[T]{}, false, false
	}
	if err := json.Unmarshal(envelope.Data, &entry.Data); err != nil {
		c.logger.Warn("Cache read error",
			zap.Error(errors.NewCacheError("corrupted entry", "get", key, err)))
		return Entry[T]{}, false, false
	}
	entry.Timestamp = envelope.Timestamp

	age := c.now().UnixMilli() - entry.Timestamp
	return entry, age > c.ttl.Milliseconds(), true
}

// Set writes data under key stamped with the current time.
func (c *Cache[T]) Set(ctx context.Context, key string, data T) {
	raw, err := json.Marshal(Entry[T]{Data: data, Timestamp: c.now().UnixMilli()})
	if err != nil {
		c.logger.Warn("Cache write error",
			zap.Error(errors.NewCacheError("marshal failed", "set", key, err)))
		return
	}
	if err := c.store.Set(ctx, key, raw); err != nil {
		c.logger.Warn("Cache write error",
			zap.Error(errors.NewCacheError("write failed", "set", key, err)))
	}
}

// Remove deletes the given keys. Failures are logged.
func (c *Cache[T]) Remove(ctx context.Context, keys ...string) {
	if err := c.store.Remove(ctx, keys...); err != nil {
		c.logger.Warn("Cache remove error",
			zap.Strings("keys", keys),
			zap.Error(err))
	}
}
