package httpkit

import (
	"compress/flate"
	"net/http"
	"time"

	"crimedash/internal/platform/metrics"
	phttp "crimedash/internal/platform/net/http"
	"crimedash/internal/platform/net/middleware"
)

// StackOptions tunes CommonStack, the zero value is usable
type StackOptions struct {
	CORSOrigins []string
	RateLimit   middleware.RateLimitOptions
	Metrics     *metrics.Metrics
	Slow        time.Duration // access log warn threshold, defaults to 500ms
	Timeout     time.Duration // per request deadline, defaults to 30s
	QuietPaths  []string      // kept out of the access log, eg readiness probes
}

// CommonStack returns the baseline per scope middleware slice
func CommonStack(o StackOptions) []func(http.Handler) http.Handler {
	if o.Slow <= 0 {
		o.Slow = 500 * time.Millisecond
	}
	if o.Timeout <= 0 {
		o.Timeout = 30 * time.Second
	}
	return []func(http.Handler) http.Handler{
		// tracing / correlation
		middleware.RequestID(),
		middleware.RealIP(),
		middleware.RequestContext,

		// observability
		middleware.Metrics(o.Metrics),
		middleware.AccessLogZerolog(middleware.AccessLogOptions{Slow: o.Slow, Skip: o.QuietPaths}),

		// safety
		middleware.RecoverJSON,
		middleware.RateLimit(o.RateLimit, phttp.JSON),

		// cache / freshness
		middleware.NoCache(),

		middleware.CORS(middleware.CORSOptions{AllowedOrigins: o.CORSOrigins}),
		middleware.Compress(flate.BestSpeed),
		middleware.Heartbeat("/health"),
		middleware.StripSlashes(),
		middleware.Timeout(o.Timeout),
	}
}
