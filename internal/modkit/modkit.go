// Package modkit wires API modules from shared deps, build options and an embeddable Base
package modkit

import "crimedash/internal/modkit/module"

// Module is a mountable unit with its own route prefix
type Module interface {
	module.Module
	Prefix() string
}
