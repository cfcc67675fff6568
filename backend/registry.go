package backend

import (
	"slices"
	"sync"

	"github.com/gogpu/overlay/gpucore"
)

// Default priorities. Lower values are tried first.
const (
	PriorityVulkan       = 10
	PriorityDX12         = 11
	PriorityMetal        = 12
	PriorityGL           = 20
	PriorityWGPUSoftware = 90
	PrioritySoftware     = 100
)

// Factory creates a new, uninitialized driver instance.
type Factory func() Driver

// Entry is one registered backend.
type Entry struct {
	Type     gpucore.BackendType
	Priority int
	Factory  Factory
}

// Registry holds backend factories ordered by priority.
// It is safe for concurrent use.
type Registry struct {
	mu      sync.RWMutex
	entries map[gpucore.BackendType]Entry
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{entries: make(map[gpucore.BackendType]Entry)}
}

// Register adds or replaces a backend factory.
func (r *Registry) Register(t gpucore.BackendType, priority int, factory Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[t] = Entry{Type: t, Priority: priority, Factory: factory}
}

// Unregister removes a backend.
func (r *Registry) Unregister(t gpucore.BackendType) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.entries, t)
}

// Lookup returns the entry registered for t.
func (r *Registry) Lookup(t gpucore.BackendType) (Entry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.entries[t]
	return e, ok
}

// Entries returns all entries sorted by ascending priority. Ties are
// broken by backend name so the order is deterministic.
func (r *Registry) Entries() []Entry {
	r.mu.RLock()
	out := make([]Entry, 0, len(r.entries))
	for _, e := range r.entries {
		out = append(out, e)
	}
	r.mu.RUnlock()

	slices.SortFunc(out, func(a, b Entry) int {
		if a.Priority != b.Priority {
			return a.Priority - b.Priority
		}
		switch {
		case a.Type < b.Type:
			return -1
		case a.Type > b.Type:
			return 1
		}
		return 0
	})
	return out
}

// Available returns the registered backend identifiers in priority order.
func (r *Registry) Available() []gpucore.BackendType {
	entries := r.Entries()
	out := make([]gpucore.BackendType, len(entries))
	for i, e := range entries {
		out[i] = e.Type
	}
	return out
}

// Get creates a driver for t, or returns nil when t is not registered.
func (r *Registry) Get(t gpucore.BackendType) Driver {
	e, ok := r.Lookup(t)
	if !ok || e.Factory == nil {
		return nil
	}
	return e.Factory()
}

var defaultRegistry = NewRegistry()

// DefaultRegistry returns the process-wide registry that backend packages
// add themselves to from init functions.
func DefaultRegistry() *Registry { return defaultRegistry }

// Register adds a backend to the default registry.
// This is typically called from init() functions in backend packages.
func Register(t gpucore.BackendType, priority int, factory Factory) {
	defaultRegistry.Register(t, priority, factory)
}

// Unregister removes a backend from the default registry.
func Unregister(t gpucore.BackendType) {
	defaultRegistry.Unregister(t)
}

// Available returns the default registry's backends in priority order.
func Available() []gpucore.BackendType {
	return defaultRegistry.Available()
}

// Get creates a driver from the default registry.
func Get(t gpucore.BackendType) Driver {
	return defaultRegistry.Get(t)
}
