// Package module holds the module contract and the port registry used for cross module wiring
package module

import phttp "crimedash/internal/platform/net/http"

// Module is what the API needs from a module to mount and wire it
type Module interface {
	Name() string
	MountRoutes(r phttp.Router)
	Ports() any
}
