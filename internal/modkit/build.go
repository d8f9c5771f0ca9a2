package modkit

import (
	"net/http"
	"slices"

	"crimedash/internal/modkit/httpkit"
	str "crimedash/internal/platform/strings"
)

// Base is the mountable half of a module, modules embed it and add Ports
type Base struct {
	name   string
	prefix string
	mw     []func(http.Handler) http.Handler
	routes []func(httpkit.Router)
}

// Build returns a Base mounting routes under prefix, opts apply after the defaults
func Build(name, prefix string, routes func(httpkit.Router), opts ...Option) Base {
	b := Base{name: name, prefix: prefix}
	if routes != nil {
		b.routes = append(b.routes, routes)
	}
	for _, o := range opts {
		o(&b)
	}
	return b
}

// MountRoutes mounts every route set under Prefix behind the module middleware
func (b Base) MountRoutes(r httpkit.Router) {
	r.Route(b.Prefix(), func(rr httpkit.Router) {
		if len(b.mw) > 0 {
			rr.Use(b.mw...)
		}
		for _, fn := range b.routes {
			fn(rr)
		}
	})
}

// Name panics when blank
func (b Base) Name() string { return str.MustString(b.name, "module name") }

// Prefix is normalized to a single leading slash and panics on the root
func (b Base) Prefix() string { return str.MustPrefix(b.prefix) }

// Middlewares returns a copy of the module middleware
func (b Base) Middlewares() []func(http.Handler) http.Handler { return slices.Clone(b.mw) }
