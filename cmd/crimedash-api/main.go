// @title         crimedash API
// @version       0.1.0
// @description   Load crime records, aggregate them into monthly series and forecast them

package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"crimedash/internal/modkit/repokit"
	"crimedash/internal/platform/config"
	"crimedash/internal/platform/logger"
	"crimedash/internal/platform/metrics"
	phttp "crimedash/internal/platform/net/http"
	"crimedash/internal/platform/store"

	"crimedash/internal/services/api"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// service-scoped config for HTTP etc (CORE_API_*)
	root := config.New()
	apiCfg := root.Prefix("CORE_API_")

	pgCfg := root.Prefix("SERVICE_PGSQL_")      // pgCfg lives under SERVICE_PGSQL_*
	chCfg := root.Prefix("SERVICE_CLICKHOUSE_") // chCfg lives under SERVICE_CLICKHOUSE_*
	// bring up logging early
	l := logger.Get()

	// both stores are optional record sources, a missing DBURL leaves them off
	st, err := store.Open(
		ctx,
		store.Config{
			AppName: "crimedash-api",
			PG: store.PGConfig{
				Enabled:   pgCfg.Has("DBURL"),
				URL:       pgCfg.MayString("DBURL", ""),
				MaxConns:  int32(pgCfg.MayInt("MAX_CONNS", 4)),
				SlowQuery: pgCfg.MayDuration("SLOW_QUERY", 500*time.Millisecond),
				LogSQL:    pgCfg.MayBool("LOG_SQL", false),
			},
			CH: store.CHConfig{
				Enabled:     chCfg.Has("DBURL"),
				URL:         chCfg.MayString("DBURL", ""),
				DialTimeout: chCfg.MayDuration("DIAL_TIMEOUT", 0),
				Role:        "api",
			},
		},
		store.WithLogger(*logger.Get()),
	)
	if err != nil {
		l.Panic().Err(err).Msg("store.Open failed")
	}
	defer func() {
		if err := st.Close(context.Background()); err != nil {
			l.Error().Err(err).Msg("failed to close store")
		}
	}()

	// a configured store must answer before we serve from it
	if st.PG != nil || st.CH != nil {
		repokit.MustGuard(ctx, st)
	}

	// http server (CORE_API_PORT, CORE_API_SHUTDOWN_GRACE)
	srv := phttp.NewServer(apiCfg)

	// mount our API
	api.Mount(
		srv.Router(),
		api.Options{
			Config:         apiCfg,
			Root:           root,
			Store:          st,
			Logger:         l,
			Metrics:        metrics.New(),
			Context:        ctx,
			EnableSwagger:  apiCfg.MayBool("SWAGGER", true),
			EnableProfiler: apiCfg.MayBool("PROFILER", false),
		},
	)

	// run until SIGINT or SIGTERM
	if err := srv.Run(ctx); err != nil {
		l.Panic().Err(err).Msg("http server stopped")
	}
}
