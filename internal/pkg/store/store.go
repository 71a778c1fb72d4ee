package store

import (
	"context"
	_ "embed"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/ougirez/ricech4/internal/pkg/logger"
	"github.com/ougirez/ricech4/internal/pkg/store/xpgx"
	"go.uber.org/zap"
)

//go:embed migrations/001_paddy_cells.sql
var schemaSQL string

type Pool = xpgx.Pool

var _ xpgx.DB = (*pgxpool.Pool)(nil)

type Store struct {
	pool *Pool
}

func NewStore(db xpgx.DB) *Store {
	return &Store{pool: xpgx.New(db)}
}

// Connect opens a pgx pool and pings it, retrying with exponential backoff
// up to retries extra attempts.
func Connect(ctx context.Context, dsn string, retries uint64) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}

	var pool *pgxpool.Pool
	operation := func() error {
		p, err := pgxpool.NewWithConfig(ctx, cfg)
		if err != nil {
			return err
		}
		if err = p.Ping(ctx); err != nil {
			p.Close()
			return err
		}
		pool = p
		return nil
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 500 * time.Millisecond
	b.MaxInterval = 10 * time.Second
	notify := func(err error, next time.Duration) {
		logger.Warn(ctx, "postgres not ready, retrying", zap.Error(err), zap.Duration("next", next))
	}

	err = backoff.RetryNotify(operation, backoff.WithContext(backoff.WithMaxRetries(b, retries), ctx), notify)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	return pool, nil
}

func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Migrate creates the tables if they do not exist.
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}
