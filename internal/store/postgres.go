package store

import (
	"context"
	"database/sql"
	stderrors "errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/kapu/portfolio-web-go/pkg/errors"
	_ "github.com/lib/pq"
	"go.uber.org/zap"
)

const postgresTable = "portfolio_kv"

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

type PostgresConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
}

// DSN returns the lib/pq connection string.
func (c PostgresConfig) DSN() string {
	sslMode := c.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, sslMode)
}

// Postgres keeps entries in a single key/value table.
type Postgres struct {
	db     *sql.DB
	logger *zap.Logger
}

func NewPostgres(cfg PostgresConfig, logger *zap.Logger) (*Postgres, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	db, err := sql.Open("postgres", cfg.DSN())
	if err != nil {
		return nil, errors.NewStoreError("failed to open postgres", BackendPostgres, "open", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(5 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, errors.NewStoreError("failed to ping postgres", BackendPostgres, "ping", err)
	}

	p := &Postgres{db: db, logger: logger}
	if err := p.migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}

	logger.Info("PostgreSQL connected",
		zap.String("host", cfg.Host),
		zap.Int("port", cfg.Port),
		zap.String("database", cfg.Database),
	)
	return p, nil
}

// NewPostgresFromDB wraps an open database handle. The table must exist.
func NewPostgresFromDB(db *sql.DB, logger *zap.Logger) *Postgres {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Postgres{db: db, logger: logger}
}

func (p *Postgres) migrate(ctx context.Context) error {
	_, err := p.db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS `+postgresTable+` (
	key        TEXT PRIMARY KEY,
	value      BYTEA NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`)
	if err != nil {
		return errors.NewStoreError("failed to create table", BackendPostgres, "migrate", err)
	}
	return nil
}

func (p *Postgres) Get(ctx context.Context, key string) ([]byte, error) {
	query, args, err := selectQuery(key)
	if err != nil {
		return nil, errors.NewStoreError("build select", BackendPostgres, "get", err)
	}

	var value []byte
	if err := p.db.QueryRowContext(ctx, query, args...).Scan(&value); err != nil {
		if stderrors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, errors.NewStoreError("get failed", BackendPostgres, "get", err)
	}
	return value, nil
}

func (p *Postgres) Set(ctx context.Context, key string, value []byte) error {
	query, args, err := upsertQuery(key, value)
	if err != nil {
		return errors.NewStoreError("build upsert", BackendPostgres, "set", err)
	}
	if _, err := p.db.ExecContext(ctx, query, args...); err != nil {
		return errors.NewStoreError("set failed", BackendPostgres, "set", err)
	}
	return nil
}

func (p *Postgres) Remove(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	query, args, err := deleteQuery(keys)
	if err != nil {
		return errors.NewStoreError("build delete", BackendPostgres, "remove", err)
	}

	result, err := p.db.ExecContext(ctx, query, args...)
	if err != nil {
		return errors.NewStoreError("delete failed", BackendPostgres, "remove", err)
	}
	if n, err := result.RowsAffected(); err == nil {
		p.logger.Debug("Postgres keys removed", zap.Int64("deleted", n))
	}
	return nil
}

func (p *Postgres) Close() error {
	if p.db != nil {
		return p.db.Close()
	}
	return nil
}

func selectQuery(key string) (string, []any, error) {
	return psql.Select("value").
		From(postgresTable).
		Where(sq.Eq{"key": key}).
		ToSql()
}

func upsertQuery(key string, value []byte) (string, []any, error) {
	return psql.Insert(postgresTable).
		Columns("key", "value", "updated_at").
		Values(key, value, sq.Expr("NOW()")).
		Suffix("ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = EXCLUDED.updated_at").
		ToSql()
}

func deleteQuery(keys []string) (string, []any, error) {
	return psql.Delete(postgresTable).
		Where(sq.Eq{"key": keys}).
		ToSql()
}
