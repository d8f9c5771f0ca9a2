package middleware

import (
	"net/http"
	"time"

	perr "crimedash/internal/platform/errors"
	pnet "crimedash/internal/platform/net"

	"github.com/go-chi/httprate"
)

// RateLimitOptions configures per client request limiting
type RateLimitOptions struct {
	Requests int           // requests allowed per window, <= 0 disables limiting
	Window   time.Duration // defaults to one minute
}

// RateLimit limits requests per real ip and answers with the JSON envelope
func RateLimit(o RateLimitOptions, write func(w http.ResponseWriter, status int, body any)) func(http.Handler) http.Handler {
	if o.Requests <= 0 {
		return func(next http.Handler) http.Handler { return next }
	}
	if o.Window <= 0 {
		o.Window = time.Minute
	}
	return httprate.Limit(o.Requests, o.Window,
		httprate.WithKeyFuncs(httprate.KeyByRealIP),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			status, body := pnet.Error(perr.Newf(perr.ErrorCodeTooManyRequests, "rate limit of %d per %s exceeded", o.Requests, o.Window), pnet.RequestID(r.Context()))
			write(w, status, body)
		}),
	)
}
