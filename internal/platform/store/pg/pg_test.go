package pg

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"crimedash/internal/platform/testkit"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

func TestOpen(t *testing.T) {
	testkit.Serial(t)

	if _, err := Open(context.Background(), Config{URL: "://bad"}, nil); err == nil || !strings.HasPrefix(err.Error(), "pg: parse url") {
		t.Fatalf("bad url err = %v", err)
	}

	testkit.Swap(t, &newPool, func(context.Context, *pgxpool.Config) (*pgxpool.Pool, error) {
		return nil, errors.New("refused")
	})
	if _, err := Open(context.Background(), Config{URL: "postgres://u:p@db:5432/crime"}, nil); err == nil || !strings.Contains(err.Error(), "refused") {
		t.Fatalf("pool err = %v", err)
	}

	var seen *pgxpool.Config
	testkit.Swap(t, &newPool, func(_ context.Context, pc *pgxpool.Config) (*pgxpool.Pool, error) {
		seen = pc
		return &pgxpool.Pool{}, nil
	})
	cfg := Config{
		URL:      "postgres://u:p@db:5432/crime?sslmode=disable",
		AppName:  "crimedash-api",
		MaxConns: 3,
		Slow:     250 * time.Millisecond,
		Tune:     func(pc *pgxpool.Config) { pc.MaxConnIdleTime = time.Minute },
	}
	p, err := Open(context.Background(), cfg, nil)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if seen.MaxConns != 3 || seen.MaxConnIdleTime != time.Minute {
		t.Fatalf("pool config = %d %v", seen.MaxConns, seen.MaxConnIdleTime)
	}
	if got := seen.ConnConfig.RuntimeParams["application_name"]; got != "crimedash-api" {
		t.Fatalf("application_name = %q", got)
	}
	if p.Slow != cfg.Slow {
		t.Fatalf("slow = %v, want %v", p.Slow, cfg.Slow)
	}
}

func TestObserve_SlowMarking(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name  string
		slow  time.Duration
		level string
	}{
		{"disabled", 0, `"level":"info"`},
		{"over threshold", time.Nanosecond, `"level":"warn"`},
		{"under threshold", time.Hour, `"level":"info"`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var buf bytes.Buffer
			p := &PG{Tracer: Tracer(zerolog.New(&buf)), Slow: tc.slow}
			p.Observe(context.Background(), "SELECT * FROM crimes", nil, time.Now().Add(-time.Millisecond), nil)
			testkit.MustContain(t, buf.String(), tc.level)
		})
	}
}

func TestObserve_NilSafe(t *testing.T) {
	t.Parallel()
	var p *PG
	testkit.MustNotPanic(t, func() {
		p.Observe(context.Background(), "SELECT 1", nil, time.Now(), nil)
		p.Close()
		(&PG{}).Close()
	})
}
