package store

import "context"

// Row scans a single result row
type Row interface {
	Scan(dest ...any) error
}

// Rows iterates a result set. Values decodes the current row into driver native values
type Rows interface {
	Next() bool
	Scan(dest ...any) error
	Values() ([]any, error)
	Columns() []string
	Err() error
	Close()
}

// CommandTag reports what a statement did
type CommandTag interface {
	String() string
	RowsAffected() int64
}

// RowQuerier runs statements against postgres, inside or outside a tx
type RowQuerier interface {
	Exec(ctx context.Context, sql string, args ...any) (CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) Row
}

// TxRunner commits when fn returns nil and rolls back otherwise
type TxRunner interface {
	RowQuerier
	Tx(ctx context.Context, fn func(q RowQuerier) error) error
}

// Clickhouse is the read only columnar seam
type Clickhouse interface {
	Query(ctx context.Context, sql string, args ...any) (Rows, error)
	Ping(ctx context.Context) error
	Close() error
}

// Pinger reports readiness
type Pinger interface{ Ping(context.Context) error }
