// Package module mounts the health, readiness and service endpoints
package module

import (
	"time"

	"crimedash/internal/modkit"
	"crimedash/internal/modkit/httpkit"

	metahttp "crimedash/internal/services/api/meta/http"
)

// Module serves process level endpoints, it exports no ports
type Module struct {
	modkit.Base
}

// New builds the meta module, readiness pings whichever stores deps carries
func New(deps modkit.Deps, opts ...modkit.Option) modkit.Module {
	d := metahttp.Deps{
		ServiceName: "crimedash-api",
		StartedAt:   time.Now(),
		PG:          deps.PG,
		CH:          deps.CH,
	}
	return &Module{
		Base: modkit.Build("meta", "/meta", func(r httpkit.Router) { metahttp.Register(r, d) }, opts...),
	}
}

// Ports implements module.Module
func (m *Module) Ports() any { return nil }
