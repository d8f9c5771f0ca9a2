package repokit

import (
	"context"
	"strconv"
	"time"
)

// BeginHook runs first inside every transaction, on the tx bound Queryer
type BeginHook func(ctx context.Context, q Queryer) error

// hooked overrides Tx only, statements outside a tx reach the embedded runner untouched
type hooked struct {
	TxRunner
	hooks []BeginHook
}

// WithBeginHooks returns inner with hooks prepended to each Tx body
func WithBeginHooks(inner TxRunner, hooks ...BeginHook) TxRunner {
	return hooked{TxRunner: inner, hooks: hooks}
}

func (h hooked) Tx(ctx context.Context, fn func(q Queryer) error) error {
	return h.TxRunner.Tx(ctx, func(q Queryer) error {
		for _, run := range h.hooks {
			if err := run(ctx, q); err != nil {
				return err
			}
		}
		return fn(q)
	})
}

// ReadOnly pins the tx read only and, when timeout > 0, sets a local statement_timeout
func ReadOnly(timeout time.Duration) BeginHook {
	stmts := []string{"SET TRANSACTION READ ONLY"}
	if timeout > 0 {
		stmts = append(stmts, "SET LOCAL statement_timeout = "+strconv.FormatInt(timeout.Milliseconds(), 10))
	}
	return func(ctx context.Context, q Queryer) error {
		for _, s := range stmts {
			if _, err := q.Exec(ctx, s); err != nil {
				return err
			}
		}
		return nil
	}
}
