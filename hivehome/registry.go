package hivehome

import (
	"sync"

	"github.com/google/uuid"

	"github.com/cloudkucooland/hivebridge/accessory"
)

// Registry tracks the accessories known to this bridge instance and the
// synchronizer bound to each. Nothing is ever removed.
type Registry struct {
	mu       sync.RWMutex
	cached   []*accessory.HiveAccessory
	handlers map[uuid.UUID]*Synchronizer
	order    []uuid.UUID
}

// NewRegistry starts from the accessories the host restored
func NewRegistry(cached []*accessory.HiveAccessory) *Registry {
	r := Registry{handlers: make(map[uuid.UUID]*Synchronizer)}
	r.cached = append(r.cached, cached...)
	return &r
}

// Cached returns every known accessory, restored or created since
func (r *Registry) Cached() []*accessory.HiveAccessory {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*accessory.HiveAccessory, len(r.cached))
	copy(out, r.cached)
	return out
}

// Find looks up an accessory by identity
func (r *Registry) Find(id uuid.UUID) *accessory.HiveAccessory {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, a := range r.cached {
		if a.UUID == id {
			return a
		}
	}
	return nil
}

// Remember appends a newly created accessory
func (r *Registry) Remember(a *accessory.HiveAccessory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cached = append(r.cached, a)
}

// Bind records the synchronizer for its accessory
func (r *Registry) Bind(s *Synchronizer) {
	r.mu.Lock()
	defer r.mu.Unlock()
	id := s.Accessory().UUID
	if _, ok := r.handlers[id]; !ok {
		r.order = append(r.order, id)
	}
	r.handlers[id] = s
}

// Handler returns the synchronizer bound to an identity, if any
func (r *Registry) Handler(id uuid.UUID) *Synchronizer {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.handlers[id]
}

// Handlers returns every bound synchronizer in the order they were bound
func (r *Registry) Handlers() []*Synchronizer {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Synchronizer, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.handlers[id])
	}
	return out
}
