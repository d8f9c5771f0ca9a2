package middleware

import (
	"net/http"
	"time"

	"crimedash/internal/platform/metrics"

	"github.com/go-chi/chi/v5"
)

// Metrics records request count and latency labelled by the chi route pattern
// the pattern is read after the handler runs so nested routers are resolved
func Metrics(m *metrics.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if m == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cw := &captureWriter{ResponseWriter: w, status: http.StatusOK}
			start := time.Now()

			next.ServeHTTP(cw, r)

			route := ""
			if rc := chi.RouteContext(r.Context()); rc != nil {
				route = rc.RoutePattern()
			}
			m.ObserveRequest(r.Method, route, cw.status, time.Since(start))
		})
	}
}
