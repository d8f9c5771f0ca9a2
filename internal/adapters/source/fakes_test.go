package source

import (
	"context"

	"crimedash/internal/platform/store"
)

type fakeRows struct {
	cols []string
	data [][]any
	i    int
	err  error
}

func (r *fakeRows) Next() bool {
	if r.i >= len(r.data) {
		return false
	}
	r.i++
	return true
}
func (r *fakeRows) Scan(...any) error      { return nil }
func (r *fakeRows) Values() ([]any, error) { return r.data[r.i-1], nil }
func (r *fakeRows) Err() error             { return r.err }
func (r *fakeRows) Close()                 {}
func (r *fakeRows) Columns() []string      { return r.cols }

// fakeTx records statements and answers every query with rows
type fakeTx struct {
	execs   []string
	queries []string
	rows    *fakeRows
	err     error
}

func (f *fakeTx) Exec(_ context.Context, sql string, _ ...any) (store.CommandTag, error) {
	f.execs = append(f.execs, sql)
	return nil, nil
}

func (f *fakeTx) Query(_ context.Context, sql string, _ ...any) (store.Rows, error) {
	f.queries = append(f.queries, sql)
	if f.err != nil {
		return nil, f.err
	}
	return f.rows, nil
}

func (f *fakeTx) QueryRow(context.Context, string, ...any) store.Row { return nil }

func (f *fakeTx) Tx(ctx context.Context, fn func(q store.RowQuerier) error) error { return fn(f) }

// fakeCH is a store.Clickhouse over fixed rows
type fakeCH struct {
	query string
	rows  *fakeRows
	err   error
}

func (c *fakeCH) Query(_ context.Context, sql string, _ ...any) (store.Rows, error) {
	c.query = sql
	if c.err != nil {
		return nil, c.err
	}
	return c.rows, nil
}
func (c *fakeCH) Ping(context.Context) error { return nil }
func (c *fakeCH) Close() error               { return nil }
