// Package registry is the process-wide service registry plugins use to publish
// objects to each other.
package registry

import (
	"sort"
	"sync"
)

// Registry maps service names to shared objects. The registry holds a reference
// only; publishers keep ownership of what they register.
type Registry struct {
	mu       sync.Mutex
	services map[string]any
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{services: make(map[string]any)}
}

// Register stores svc under name, replacing any previous entry.
func (r *Registry) Register(name string, svc any) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.services == nil {
		r.services = make(map[string]any)
	}
	r.services[name] = svc
}

// Get returns the raw object stored under name.
func (r *Registry) Get(name string) (any, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	svc, ok := r.services[name]
	return svc, ok
}

// IsRegistered reports whether name has an entry.
func (r *Registry) IsRegistered(name string) bool {
	_, ok := r.Get(name)
	return ok
}

// Names lists registered names in sorted order.
func (r *Registry) Names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	names := make([]string, 0, len(r.services))
	for name := range r.services {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Clear drops every entry.
func (r *Registry) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()

	clear(r.services)
}

// Lookup returns the object registered under name as a T. The second result is
// false when nothing is registered or the object does not have that shape.
func Lookup[T any](r *Registry, name string) (T, bool) {
	var zero T
	if r == nil {
		return zero, false
	}
	svc, ok := r.Get(name)
	if !ok {
		return zero, false
	}
	typed, ok := svc.(T)
	if !ok {
		return zero, false
	}
	return typed, true
}
