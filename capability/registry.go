package capability

import (
	"fmt"
	"sync"
)

// Registry is a concurrency-safe, append-only store of capabilities. It
// maintains the id index and a derived parent→children index. Only the
// registry mutates its backing maps; callers interact exclusively through
// the exported operations.
type Registry struct {
	mu       sync.RWMutex
	caps     map[string]Capability
	children map[string][]string
}

// NewRegistry constructs an empty taxonomy registry.
func NewRegistry() *Registry {
	return &Registry{
		caps:     make(map[string]Capability),
		children: make(map[string][]string),
	}
}

// Register inserts a capability. It fails with ErrDuplicateCapability when
// the ID exists and ErrUnknownParent when the parent is not yet registered.
// Parents must pre-exist, which makes the forest cycle-free by construction.
func (r *Registry) Register(cap Capability) error {
	if cap.ID == "" {
		return ErrInvalidCapability
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.caps[cap.ID]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateCapability, cap.ID)
	}
	if cap.ParentID != "" {
		if _, ok := r.caps[cap.ParentID]; !ok {
			return fmt.Errorf("%w: %s (parent of %s)", ErrUnknownParent, cap.ParentID, cap.ID)
		}
	}

	r.caps[cap.ID] = cap
	if cap.ParentID != "" {
		r.children[cap.ParentID] = append(r.children[cap.ParentID], cap.ID)
	}

	return nil
}

// Get returns the capability with the given ID, if registered.
func (r *Registry) Get(id string) (Capability, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	cap, ok := r.caps[id]
	return cap, ok
}

// Has reports whether every given ID is registered.
func (r *Registry) Has(ids ...string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, id := range ids {
		if _, ok := r.caps[id]; !ok {
			return false
		}
	}
	return true
}

// Children returns the direct children of the given capability in
// registration order.
func (r *Registry) Children(id string) []Capability {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := r.children[id]
	children := make([]Capability, 0, len(ids))
	for _, childID := range ids {
		children = append(children, r.caps[childID])
	}
	return children
}

// IsDescendant reports whether id sits strictly below ancestorID in the
// taxonomy. The walk up is bounded by tree depth; parents always pre-exist
// so the chain terminates.
func (r *Registry) IsDescendant(id, ancestorID string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	cap, ok := r.caps[id]
	if !ok {
		return false
	}
	for cap.ParentID != "" {
		if cap.ParentID == ancestorID {
			return true
		}
		cap, ok = r.caps[cap.ParentID]
		if !ok {
			return false
		}
	}
	return false
}

// All returns every registered capability. Ordering is unspecified.
func (r *Registry) All() []Capability {
	r.mu.RLock()
	defer r.mu.RUnlock()

	all := make([]Capability, 0, len(r.caps))
	for _, cap := range r.caps {
		all = append(all, cap)
	}
	return all
}

// Len returns the number of registered capabilities.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.caps)
}
