package chain

import (
	"sort"
	"sync"
)

// Registry is the in-process catalog of chain descriptors keyed by chain ID.
// It is filled at startup and read concurrently afterwards.
type Registry struct {
	mu     sync.RWMutex
	chains map[uint64]Descriptor
}

// NewRegistry creates a registry pre-populated with the given descriptors.
func NewRegistry(descriptors ...Descriptor) *Registry {
	r := &Registry{chains: make(map[uint64]Descriptor, len(descriptors))}
	for _, d := range descriptors {
		r.Register(d)
	}
	return r
}

// Register inserts or overwrites the descriptor for d.ID. Last write wins.
func (r *Registry) Register(d Descriptor) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.chains[d.ID] = d
}

// Get returns the descriptor for id.
func (r *Registry) Get(id uint64) (Descriptor, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.chains[id]
	return d, ok
}

// Has reports whether id is registered.
func (r *Registry) Has(id uint64) bool {
	_, ok := r.Get(id)
	return ok
}

// List returns all descriptors ordered by chain ID.
func (r *Registry) List() []Descriptor {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Descriptor, 0, len(r.chains))
	for _, d := range r.chains {
		out = append(out, d)
	}
	sortByID(out)
	return out
}

// ListByFamily returns the descriptors of the given family ordered by chain ID.
func (r *Registry) ListByFamily(f Family) []Descriptor {
	all := r.List()
	out := make([]Descriptor, 0, len(all))
	for _, d := range all {
		if d.Family == f {
			out = append(out, d)
		}
	}
	return out
}

// Routes returns every other registered chain reachable from source.
// All chains are treated as mutually reachable; an unknown source has no routes.
func (r *Registry) Routes(source uint64) []uint64 {
	if !r.Has(source) {
		return []uint64{}
	}

	all := r.List()
	routes := make([]uint64, 0, len(all))
	for _, d := range all {
		if d.ID != source {
			routes = append(routes, d.ID)
		}
	}
	return routes
}

// Decimals returns the native currency precision for id, or fallback when unknown.
func (r *Registry) Decimals(id uint64, fallback int) int {
	if d, ok := r.Get(id); ok {
		return d.NativeCurrency.Decimals
	}
	return fallback
}

func sortByID(ds []Descriptor) {
	sort.Slice(ds, func(i, j int) bool { return ds[i].ID < ds[j].ID })
}
