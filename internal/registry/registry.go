package registry

import (
	"fmt"
	"log/slog"
)

// Module is the interface a backend package implements to be compiled into
// the binary. Register is called exactly once, at startup.
type Module interface {
	Register(r *Registry)
}

// Registry holds every registered backend descriptor for a single
// application instance, preserving registration order for usage text.
type Registry struct {
	backends map[string]*Descriptor
	order    []string
}

// New creates an empty Registry.
func New() *Registry {
	return &Registry{
		backends: make(map[string]*Descriptor),
	}
}

// Register adds a backend descriptor. A duplicate name is a fatal startup
// error: it panics, and the boundary in cmd/cli recovers it into a clean
// nonzero exit.
func (r *Registry) Register(d *Descriptor) {
	if d.Name == "" {
		panic("backend descriptor registered with an empty name")
	}
	if d.New == nil {
		panic(fmt.Sprintf("backend '%s' registered without a constructor", d.Name))
	}
	if _, exists := r.backends[d.Name]; exists {
		panic(fmt.Sprintf("backend with name '%s' already registered", d.Name))
	}
	slog.Debug("Registering backend.", "name", d.Name)
	r.backends[d.Name] = d
	r.order = append(r.order, d.Name)
}

// Lookup returns the descriptor for name. It is a pure read with no side
// effects; the second result reports whether the backend is installed.
func (r *Registry) Lookup(name string) (*Descriptor, bool) {
	d, ok := r.backends[name]
	return d, ok
}

// Names returns the registered backend names in registration order.
func (r *Registry) Names() []string {
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// Len returns the number of registered backends.
func (r *Registry) Len() int {
	return len(r.backends)
}
