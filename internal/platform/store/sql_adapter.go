package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"crimedash/internal/platform/store/pg"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// pgxQuerier is the statement surface shared by *pgxpool.Pool and pgx.Tx
type pgxQuerier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// pgxPool is what the adapter needs from *pgxpool.Pool
type pgxPool interface {
	pgxQuerier
	Begin(ctx context.Context) (pgx.Tx, error)
	Ping(ctx context.Context) error
	Close()
}

// traced runs statements on q and reports each one to the pg tracer
type traced struct {
	q  pgxQuerier
	pg *pg.PG
}

func (t traced) Exec(ctx context.Context, sql string, args ...any) (CommandTag, error) {
	start := time.Now()
	ct, err := t.q.Exec(ctx, sql, args...)
	t.pg.Observe(ctx, sql, args, start, err)
	return ct, err
}

func (t traced) Query(ctx context.Context, sql string, args ...any) (Rows, error) {
	start := time.Now()
	rs, err := t.q.Query(ctx, sql, args...)
	t.pg.Observe(ctx, sql, args, start, err)
	if err != nil {
		return nil, err
	}
	return pgxRows{rs}, nil
}

// QueryRow reports once Scan has run so the scan error is the one traced
func (t traced) QueryRow(ctx context.Context, sql string, args ...any) Row {
	start := time.Now()
	return observedRow{
		Row:  t.q.QueryRow(ctx, sql, args...),
		done: func(err error) { t.pg.Observe(ctx, sql, args, start, err) },
	}
}

// pgAdapter is the TxRunner over a pool
type pgAdapter struct {
	traced
	pool pgxPool
}

func newPGAdapter(p *pg.PG) *pgAdapter { return newPoolAdapter(p.Pool, p) }

func newPoolAdapter(pool pgxPool, p *pg.PG) *pgAdapter {
	return &pgAdapter{traced: traced{q: pool, pg: p}, pool: pool}
}

func (a *pgAdapter) Ping(ctx context.Context) error {
	if a == nil || a.pool == nil {
		return errors.New("pg: nil adapter")
	}
	return a.pool.Ping(ctx)
}

func (a *pgAdapter) Close() error { a.pool.Close(); return nil }

// Tx commits when fn returns nil and rolls back otherwise
func (a *pgAdapter) Tx(ctx context.Context, fn func(q RowQuerier) error) error {
	tx, err := a.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("pg: begin: %w", err)
	}
	if err := fn(traced{q: tx, pg: a.pg}); err != nil {
		if rbErr := tx.Rollback(ctx); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
			return errors.Join(err, rbErr)
		}
		return err
	}
	return tx.Commit(ctx)
}

type observedRow struct {
	pgx.Row
	done func(error)
}

func (r observedRow) Scan(dst ...any) error {
	err := r.Row.Scan(dst...)
	r.done(err)
	return err
}

// pgxRows decodes values with the registered pgx codecs
type pgxRows struct{ pgx.Rows }

func (r pgxRows) Columns() []string {
	fds := r.FieldDescriptions()
	out := make([]string, len(fds))
	for i, fd := range fds {
		out[i] = fd.Name
	}
	return out
}
