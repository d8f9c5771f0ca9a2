package module

import (
	"maps"
	"slices"
	"sync"
)

// the registry is filled while the API mounts and read by modules that need a sibling's ports
var (
	mu  sync.RWMutex
	reg = map[string]any{}
)

// Register stores ports under name, a second call replaces the first
func Register(name string, ports any) {
	mu.Lock()
	defer mu.Unlock()
	reg[name] = ports
}

// PortsAs returns the ports registered under name when they are a T
func PortsAs[T any](name string) (T, bool) {
	mu.RLock()
	defer mu.RUnlock()
	v, ok := reg[name].(T)
	return v, ok
}

// Names lists registered module names in order
func Names() []string {
	mu.RLock()
	defer mu.RUnlock()
	return slices.Sorted(maps.Keys(reg))
}

// Reset empties the registry, tests call it around each mount
func Reset() {
	mu.Lock()
	defer mu.Unlock()
	clear(reg)
}
