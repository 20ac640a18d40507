package cache

import (
	"context"
	stderrors "errors"
	"testing"
	"time"

	"github.com/kapu/portfolio-web-go/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type failingStore struct {
	*store.Memory
	getErr error
	setErr error
}

func (f *failingStore) Get(ctx context.Context, key string) ([]byte, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	return f.Memory.Get(ctx, key)
}

func (f *failingStore) Set(ctx context.Context, key string, value []byte) error {
	if f.setErr != nil {
		return f.setErr
	}
	return f.Memory.Set(ctx, key, value)
}

func TestCacheTTLBoundary(t *testing.T) {
	ctx := context.Background()
	written := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	now := written

	c := New[[]string](store.NewMemory(), time.Hour, zap.NewNop()).WithClock(func() time.Time { return now })
	c.Set(ctx, "fv_projects_cache", []string{"a"})

	now = written.Add(time.Hour - time.Millisecond)
	entry, expired, ok := c.Get(ctx, "fv_projects_cache")
	require.True(t, ok)
	assert.False(t, expired)
	assert.Equal(t, []string{"a"}, entry.Data)

	now = written.Add(time.Hour)
	_, expired, _ = c.Get(ctx, "fv_projects_cache")
	assert.False(t, expired, "exactly TTL old is not expired")

	now = written.Add(time.Hour + time.Millisecond)
	entry, expired, ok = c.Get(ctx, "fv_projects_cache")
	require.True(t, ok, "expired entries are still returned")
	assert.True(t, expired)
	assert.Equal(t, written.UnixMilli(), entry.Timestamp)
}

func TestCacheMiss(t *testing.T) {
	c := New[int](store.NewMemory(), time.Hour, nil)
	_, expired, ok := c.Get(context.Background(), "nothing")
	assert.False(t, ok)
	assert.False(t, expired)
}

func TestCacheEnvelopeFormat(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemory()
	c := New[map[string]string](mem, time.Hour, nil).WithClock(func() time.Time { return time.UnixMilli(1700000000000) })

	c.Set(ctx, "k", map[string]string{"en": "x"})

	raw, err := mem.Get(ctx, "k")
	require.NoError(t, err)
	assert.JSONEq(t, `{"data":{"en":"x"},"timestamp":1700000000000}`, string(raw))
}

func TestCacheCorruptedEntryIsMiss(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemory()
	require.NoError(t, mem.Set(ctx, "k", []byte("{not json")))

	c := New[[]int](mem, time.Hour, zap.NewNop())
	_, _, ok := c.Get(ctx, "k")
	assert.False(t, ok)
}

func TestCacheEntryWithoutDataIsMiss(t *testing.T) {
	ctx := context.Background()
	now := time.UnixMilli(1700000000000)

	cases := map[string]string{
		"null data":    `{"data":null,"timestamp":1700000000000}`,
		"missing data": `{"timestamp":1700000000000}`,
		"null value":   `null`,
		"wrong type":   `{"data":"text","timestamp":1700000000000}`,
	}
	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			mem := store.NewMemory()
			require.NoError(t, mem.Set(ctx, "k", []byte(raw)))

			c := New[[]int](mem, time.Hour, zap.NewNop()).WithClock(func() time.Time { return now })
			_, expired, ok := c.Get(ctx, "k")
			assert.False(t, ok)
			assert.False(t, expired)
		})
	}
}

func TestCacheEmptyDataIsHit(t *testing.T) {
	ctx := context.Background()
	now := time.UnixMilli(1700000000000)
	mem := store.NewMemory()
	require.NoError(t, mem.Set(ctx, "list", []byte(`{"data":[],"timestamp":1700000000000}`)))
	require.NoError(t, mem.Set(ctx, "map", []byte(`{"data":{},"timestamp":1700000000000}`)))

	list, _, ok := New[[]int](mem, time.Hour, nil).WithClock(func() time.Time { return now }).Get(ctx, "list")
	require.True(t, ok)
	assert.Empty(t, list.Data)
	assert.Equal(t, int64(1700000000000), list.Timestamp)

	_, _, ok = New[map[string]string](mem, time.Hour, nil).WithClock(func() time.Time { return now }).Get(ctx, "map")
	assert.True(t, ok)
}

func TestCacheStoreFailuresAreSwallowed(t *testing.T) {
	ctx := context.Background()
	fs := &failingStore{Memory: store.NewMemory(), getErr: stderrors.New("boom"), setErr: stderrors.New("quota exceeded")}

	c := New[string](fs, time.Hour, zap.NewNop())
	c.Set(ctx, "k", "v")
	_, _, ok := c.Get(ctx, "k")
	assert.False(t, ok)
}

func TestCacheRemove(t *testing.T) {
	ctx := context.Background()
	c := New[string](store.NewMemory(), time.Hour, nil)
	c.Set(ctx, "a", "1")
	c.Set(ctx, "b", "2")

	c.Remove(ctx, "a", "b")

	_, _, okA := c.Get(ctx, "a")
	_, _, okB := c.Get(ctx, "b")
	assert.False(t, okA)
	assert.False(t, okB)
}
