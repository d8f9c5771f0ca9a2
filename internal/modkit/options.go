package modkit

import (
	"net/http"

	"crimedash/internal/modkit/httpkit"
)

// Option adjusts a Base while Build runs
type Option func(*Base)

// WithName overrides the module name used for port lookups and logs
func WithName(name string) Option {
	return func(b *Base) { b.name = name }
}

// WithPrefix overrides the route prefix
func WithPrefix(prefix string) Option {
	return func(b *Base) { b.prefix = prefix }
}

// WithMiddlewares appends middleware that wraps only this module's routes
func WithMiddlewares(mw ...func(http.Handler) http.Handler) Option {
	return func(b *Base) { b.mw = append(b.mw, mw...) }
}

// WithRoutes mounts extra routes after the module's own
func WithRoutes(fn func(httpkit.Router)) Option {
	return func(b *Base) { b.routes = append(b.routes, fn) }
}
