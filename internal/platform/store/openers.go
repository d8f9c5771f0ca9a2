package store

import (
	"cmp"
	"context"
	"fmt"
	"time"

	chx "crimedash/internal/platform/store/ch"
	"crimedash/internal/platform/store/pg"

	"github.com/cenkalti/backoff/v4"
)

// pgBoot bounds how long Open waits for postgres to accept connections
var pgBoot = struct {
	attempts uint64
	ping     time.Duration
	first    time.Duration
	ceiling  time.Duration
}{attempts: 20, ping: 3 * time.Second, first: 150 * time.Millisecond, ceiling: 2 * time.Second}

func openPG(ctx context.Context, cfg Config, s *Store) (TxRunner, error) {
	var tracer pg.QueryTracer
	if cfg.PG.LogSQL {
		tracer = pg.Tracer(s.Log)
	}
	p, err := pg.Open(ctx, pg.Config{
		URL:      cfg.PG.URL,
		AppName:  cfg.AppName,
		MaxConns: cfg.PG.MaxConns,
		Slow:     cfg.PG.SlowQuery,
	}, tracer)
	if err != nil {
		return nil, err
	}

	eb := backoff.NewExponentialBackOff()
	eb.InitialInterval = pgBoot.first
	eb.MaxInterval = pgBoot.ceiling
	eb.MaxElapsedTime = 0
	policy := backoff.WithContext(backoff.WithMaxRetries(eb, pgBoot.attempts-1), ctx)

	// ping the pool itself, boot retries stay out of the query tracer
	ping := func() error {
		pctx, cancel := context.WithTimeout(ctx, pgBoot.ping)
		defer cancel()
		return p.Pool.Ping(pctx)
	}
	retried := func(err error, wait time.Duration) {
		s.Log.Debug().Err(err).Dur("wait", wait).Msg("postgres not ready")
	}
	if err := backoff.RetryNotify(ping, policy, retried); err != nil {
		p.Close()
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("postgres ping failed after %d attempts: %w", pgBoot.attempts, err)
	}
	return newPGAdapter(p), nil
}

func openCH(ctx context.Context, cfg Config, s *Store) (Clickhouse, error) {
	role := cmp.Or(cfg.CH.Role, cfg.AppName)
	c, err := chx.Open(ctx, chx.Config{
		URL:         cfg.CH.URL,
		DialTimeout: cfg.CH.DialTimeout,
		Role:        role,
	})
	if err != nil {
		return nil, err
	}
	a := newCHAdapter(c)
	if err := a.Ping(ctx); err != nil {
		_ = a.Close()
		return nil, fmt.Errorf("clickhouse ping: %w", err)
	}
	s.Log.Debug().Str("role", role).Msg("clickhouse ready")
	return a, nil
}
