// Package module wires the crime dashboard into the API using modkit
package module

import (
	"context"

	"crimedash/internal/adapters/source"
	"crimedash/internal/core/forecast"
	"crimedash/internal/core/version"
	"crimedash/internal/modkit"
	"crimedash/internal/modkit/httpkit"
	"crimedash/internal/platform/logger"

	dashhttp "crimedash/internal/services/api/dashboard/http"
	"crimedash/internal/services/api/dashboard/repo"
	"crimedash/internal/services/api/dashboard/service"
)

// Module is the dashboard: dataset sessions, summaries and forecasts
type Module struct {
	modkit.Base
	ports Ports
}

// New constructs the dashboard module, an unreadable profile panics
func New(deps modkit.Deps, o Options, opts ...modkit.Option) modkit.Module {
	log := logger.Named("dashboard")

	prof, err := loadProfile(o.ProfilePath)
	if err != nil {
		log.Panic().Err(err).Str("path", o.ProfilePath).Msg("load dataset profile")
	}
	fc, err := forecast.New(prof.ForecastOptions()...)
	if err != nil {
		log.Panic().Err(err).Msg("build forecaster")
	}

	sessions := repo.NewMemory(repo.Options{
		MaxEntries: o.MaxDatasets,
		TTL:        o.TTL,
		Metrics:    deps.Metrics,
	})
	svc := service.New(service.Config{
		Sessions: sessions,
		Fetcher: source.NewHTTPFetcher(source.HTTPOptions{
			Timeout:   o.FetchTimeout,
			MaxBytes:  o.FetchMaxBytes,
			UserAgent: "crimedash/" + version.Short(),
			TripAfter: uint32(max(o.BreakerTripAfter, 0)),
			OpenFor:   o.BreakerOpenFor,
			Hosts:     o.URLHosts,
			Metrics:   deps.Metrics,
		}),
		PG:           deps.PG,
		CH:           deps.CH,
		FileRoot:     o.FileRoot,
		URLHosts:     o.URLHosts,
		PGTimeout:    o.PGTimeout,
		LoadDefaults: prof.LoadOptions(),
		Forecaster:   fc,
		Metrics:      deps.Metrics,
	})

	every := o.SweepEvery
	m := &Module{
		Base: modkit.Build("dashboard", "/dashboard", func(r httpkit.Router) { dashhttp.Register(r, svc) }, opts...),
		ports: Ports{
			Service: svc,
			Janitor: func(ctx context.Context) { sessions.Janitor(ctx, every) },
		},
	}
	log.Debug().
		Int("max_datasets", o.MaxDatasets).
		Dur("ttl", o.TTL).
		Bool("file_sources", o.FileRoot != "").
		Strs("url_hosts", o.URLHosts).
		Bool("database_sources", deps.HasDatabase()).
		Str("profile", o.ProfilePath).
		Msg("dashboard module ready")
	return m
}

// Ports returns the service and janitor ports
func (m *Module) Ports() any { return m.ports }
