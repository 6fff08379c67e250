// Package encoding provides the bidirectional mapping between external
// identifiers (user ids, product names) and dense zero-based matrix
// indices. Indices are append-only and stable: once an id is assigned an
// index, that assignment never changes.
package encoding

import (
	"fmt"
)

// Registry maps external string identifiers to dense integer indices
// 0..Len()-1 and back. The zero value is not usable; construct with
// NewRegistry.
type Registry struct {
	ids   []string
	index map[string]int
}

// NewRegistry creates a registry pre-populated with the given ids, in
// order. Duplicate ids are rejected so that no two ids share an index.
func NewRegistry(ids []string) (*Registry, error) {
	r := &Registry{
		ids:   make([]string, 0, len(ids)),
		index: make(map[string]int, len(ids)),
	}
	for _, id := range ids {
		if _, dup := r.index[id]; dup {
			return nil, fmt.Errorf("duplicate id %q", id)
		}
		r.index[id] = len(r.ids)
		r.ids = append(r.ids, id)
	}
	return r, nil
}

// Index returns the index assigned to id, and whether the id is known.
func (r *Registry) Index(id string) (int, bool) {
	idx, ok := r.index[id]
	return idx, ok
}

// Add appends a new id at the next integer index and returns that index.
// Adding an already-known id returns its existing index unchanged.
func (r *Registry) Add(id string) int {
	if idx, ok := r.index[id]; ok {
		return idx
	}
	idx := len(r.ids)
	r.index[id] = idx
	r.ids = append(r.ids, id)
	return idx
}

// ID returns the external identifier assigned to the given index.
func (r *Registry) ID(idx int) (string, error) {
	if idx < 0 || idx >= len(r.ids) {
		return "", fmt.Errorf("index %d out of range [0,%d)", idx, len(r.ids))
	}
	return r.ids[idx], nil
}

// IDs returns all known ids in index order. The returned slice is a copy.
func (r *Registry) IDs() []string {
	out := make([]string, len(r.ids))
	copy(out, r.ids)
	return out
}

// Len returns the number of registered ids.
func (r *Registry) Len() int {
	return len(r.ids)
}

// MarshalJSON serializes the registry as the ordered id list.
func (r *Registry) MarshalJSON() ([]byte, error) {
	return marshalIDs(r.ids)
}

// UnmarshalJSON restores a registry from an ordered id list.
func (r *Registry) UnmarshalJSON(data []byte) error {
	ids, err := unmarshalIDs(data)
	if err != nil {
		return err
	}
	restored, err := NewRegistry(ids)
	if err != nil {
		return fmt.Errorf("restore registry: %w", err)
	}
	*r = *restored
	return nil
}
