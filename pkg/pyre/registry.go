package pyre

import (
	"fmt"
	"sync"
)

// Registry maps node-type identifiers to their NodeType. Registration is
// expected to finish before any compilation resolves against the
// registry; the first Resolve seals it and later Register calls fail
// with ErrRegistrySealed. All methods are safe for concurrent use.
type Registry struct {
	mu     sync.RWMutex
	types  map[string]NodeType
	sealed bool
}

// NewRegistry creates an empty node-type registry.
func NewRegistry() *Registry {
	return &Registry{
		types: make(map[string]NodeType),
	}
}

// Register adds a node type. Fails with ErrDuplicateNodeType if the
// identifier is already taken and ErrRegistrySealed once compilation has
// resolved against the registry.
func (r *Registry) Register(nt NodeType) error {
	if nt.id == "" {
		return fmt.Errorf("node type identifier cannot be empty")
	}
	if nt.invoke == nil {
		return fmt.Errorf("node type %s has no invocable", nt.id)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.sealed {
		return fmt.Errorf("%w: cannot register %s", ErrRegistrySealed, nt.id)
	}
	if _, exists := r.types[nt.id]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateNodeType, nt.id)
	}
	r.types[nt.id] = nt
	return nil
}

// MustRegister is Register that panics on error. Intended for
// registration at startup where a failure is a programming error.
func (r *Registry) MustRegister(nt NodeType) {
	if err := r.Register(nt); err != nil {
		panic(fmt.Sprintf("pyre: %v", err))
	}
}

// Resolve returns the node type for an identifier, sealing the registry
// against further registration. Fails with ErrUnknownNodeType if absent.
func (r *Registry) Resolve(typeID string) (NodeType, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.sealed = true
	nt, ok := r.types[typeID]
	if !ok {
		return NodeType{}, fmt.Errorf("%w: %s", ErrUnknownNodeType, typeID)
	}
	return nt, nil
}

// Has returns true if the identifier is registered. Has does not seal
// the registry.
func (r *Registry) Has(typeID string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.types[typeID]
	return ok
}

// TypeIDs returns all registered identifiers in no particular order.
func (r *Registry) TypeIDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]string, 0, len(r.types))
	for id := range r.types {
		ids = append(ids, id)
	}
	return ids
}

// Len returns the number of registered node types.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.types)
}
