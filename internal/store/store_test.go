package store

import (
	"context"
	"os"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func exerciseStore(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()

	_, err := s.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, s.Set(ctx, "a", []byte("1")))
	require.NoError(t, s.Set(ctx, "b", []byte("2")))
	require.NoError(t, s.Set(ctx, "a", []byte("3")))

	value, err := s.Get(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, []byte("3"), value)

	require.NoError(t, s.Remove(ctx, "a", "b", "never-set"))
	_, err = s.Get(ctx, "b")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, s.Remove(ctx))
}

func TestMemoryStore(t *testing.T) {
	exerciseStore(t, NewMemory())
}

func TestMemoryStoreCopiesValues(t *testing.T) {
	m := NewMemory()
	buf := []byte("abc")
	require.NoError(t, m.Set(context.Background(), "k", buf))
	buf[0] = 'z'

	got, err := m.Get(context.Background(), "k")
	require.NoError(t, err)
	assert.Equal(t, "abc", string(got))
	assert.Equal(t, []string{"k"}, m.Keys())
}

func TestRedisStoreIntegration(t *testing.T) {
	host := os.Getenv("TEST_REDIS_HOST")
	if host == "" {
		t.Skip("TEST_REDIS_HOST not set")
	}
	port, _ := strconv.Atoi(os.Getenv("TEST_REDIS_PORT"))
	if port == 0 {
		port = 6379
	}

	r, err := NewRedis(RedisConfig{Host: host, Port: port, Prefix: "portfolio:test:"}, zap.NewNop())
	require.NoError(t, err)
	defer r.Close()

	exerciseStore(t, r)
}

func TestPostgresStoreIntegration(t *testing.T) {
	host := os.Getenv("TEST_POSTGRES_HOST")
	if host == "" {
		t.Skip("TEST_POSTGRES_HOST not set")
	}

	p, err := NewPostgres(PostgresConfig{
		Host:     host,
		Port:     5432,
		User:     os.Getenv("TEST_POSTGRES_USER"),
		Password: os.Getenv("TEST_POSTGRES_PASSWORD"),
		Database: os.Getenv("TEST_POSTGRES_DB"),
	}, zap.NewNop())
	require.NoError(t, err)
	defer p.Close()

	exerciseStore(t, p)
}

func TestPostgresQueries(t *testing.T) {
	query, args, err := selectQuery("fv_author_cache")
	require.NoError(t, err)
	assert.Equal(t, "SELECT value FROM portfolio_kv WHERE key = $1", query)
	assert.Equal(t, []any{"fv_author_cache"}, args)

	query, args, err = upsertQuery("k", []byte("v"))
	require.NoError(t, err)
	assert.Equal(t, "INSERT INTO portfolio_kv (key,value,updated_at) VALUES ($1,$2,NOW()) "+
		"ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = EXCLUDED.updated_at", query)
	assert.Len(t, args, 2)

	query, args, err = deleteQuery([]string{"a", "b"})
	require.NoError(t, err)
	assert.Equal(t, "DELETE FROM portfolio_kv WHERE key IN ($1,$2)", query)
	assert.Equal(t, []any{"a", "b"}, args)
}

func TestPostgresDSN(t *testing.T) {
	dsn := PostgresConfig{Host: "db", Port: 5432, User: "u", Password: "p", Database: "portfolio"}.DSN()
	assert.Equal(t, "host=db port=5432 user=u password=p dbname=portfolio sslmode=disable", dsn)
}
