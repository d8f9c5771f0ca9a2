// Package api provides the HTTP API for the application
package api

import (
	"context"

	"crimedash/internal/platform/config"
	"crimedash/internal/platform/logger"
	"crimedash/internal/platform/metrics"
	phttp "crimedash/internal/platform/net/http"
	"crimedash/internal/platform/net/middleware"
	"crimedash/internal/platform/store"

	"crimedash/internal/modkit"
	"crimedash/internal/modkit/httpkit"
	"crimedash/internal/modkit/module"
	"crimedash/internal/modkit/swaggerkit"

	dashmod "crimedash/internal/services/api/dashboard/module"
	metamod "crimedash/internal/services/api/meta/module"
)

// Options are the API options
type Options struct {
	// Config is the CORE_API_ scoped view, Root reaches CORE_DASHBOARD_ and CRIMEDASH_PROFILE
	Config config.Conf
	Root   config.Conf

	// Store is optional, database sources answer unavailable without it
	Store   *store.Store
	Logger  *logger.Logger
	Metrics *metrics.Metrics

	// Context bounds background work such as the session janitor
	Context context.Context

	EnableSwagger  bool
	EnableProfiler bool
}

// Mount mounts the API service onto the given router
func Mount(r phttp.Router, opt Options) {
	// shared deps for modules
	deps := modkit.Deps{
		Cfg:     opt.Config,
		Metrics: opt.Metrics,
	}
	if opt.Logger != nil {
		deps.Log = *opt.Logger
	}
	if opt.Store != nil {
		deps.PG = opt.Store.PG
		deps.CH = opt.Store.CH
	}

	dashboard := dashmod.New(deps, dashmod.FromConfig(opt.Root))
	mods := []module.Module{
		metamod.New(deps),
		dashboard,
	}

	ctx := opt.Context
	if ctx == nil {
		ctx = context.Background()
	}
	go module.MustPortsOf[dashmod.Ports](dashboard).Janitor(ctx)

	stack := httpkit.CommonStack(httpkit.StackOptions{
		CORSOrigins: opt.Config.MayCSV("CORS_ORIGINS", nil),
		RateLimit: middleware.RateLimitOptions{
			Requests: opt.Config.MayInt("RATE_LIMIT", 0),
			Window:   opt.Config.MayDuration("RATE_WINDOW", 0),
		},
		Metrics:     opt.Metrics,
		Slow:        opt.Config.MayDuration("SLOW_REQUEST", 0),
		Timeout:     opt.Config.MayDuration("REQUEST_TIMEOUT", 0),
		QuietPaths: []string{
			httpkit.APIPrefix("v1") + "/meta/health",
			httpkit.APIPrefix("v1") + "/meta/ready",
		},
	})

	// versioned API with a common middleware stack
	httpkit.MountAPIV1(r, stack, func(api httpkit.Router) {
		// swagger, profiler and scrape endpoint stay outside the versioned prefix
		swaggerkit.Mount(r, opt.EnableSwagger)
		phttp.MountProfiler(r, "/debug", opt.EnableProfiler)
		if opt.Metrics != nil {
			r.Handle("/metrics", opt.Metrics.Handler())
		}

		for _, m := range mods {
			// register each module's ports under its own name for cross module lookups
			module.Register(m.Name(), m.Ports())

			// mount module routes under its Prefix()
			m.MountRoutes(api)
		}
	})
}
