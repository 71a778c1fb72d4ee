// Package xpgx adds squirrel-aware helpers on top of pgx.
package xpgx

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DB is the subset of *pgxpool.Pool the stores use.
type DB interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Ping(ctx context.Context) error
}

// Pool wraps a DB with query-builder helpers.
type Pool struct {
	DB
}

func New(db DB) *Pool {
	return &Pool{DB: db}
}

func (p *Pool) Execx(ctx context.Context, q squirrel.Sqlizer) (pgconn.CommandTag, error) {
	sql, args, err := q.ToSql()
	if err != nil {
		return pgconn.CommandTag{}, fmt.Errorf("build query: %w", err)
	}
	return p.Exec(ctx, sql, args...)
}

func (p *Pool) Queryx(ctx context.Context, q squirrel.Sqlizer) (pgx.Rows, error) {
	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}
	return p.Query(ctx, sql, args...)
}

// Selectx runs q and scans every row into T by db tag; missing columns are
// left zero.
func Selectx[T any](ctx context.Context, p *Pool, q squirrel.Sqlizer) ([]T, error) {
	rows, err := p.Queryx(ctx, q)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowToStructByNameLax[T])
}

// Getx is Selectx for a single row; it returns pgx.ErrNoRows when q matches
// nothing.
func Getx[T any](ctx context.Context, p *Pool, q squirrel.Sqlizer) (T, error) {
	rows, err := p.Queryx(ctx, q)
	if err != nil {
		var zero T
		return zero, err
	}
	return pgx.CollectOneRow(rows, pgx.RowToStructByNameLax[T])
}
