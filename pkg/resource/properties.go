package resource

import (
	"maps"
	"slices"
	"sync"
)

// PropertyStore is the field-name to value mapping backing every resource.
// It tracks whether any local mutation happened since the last Replace.
//
// Reads share the lock; Set and Replace are exclusive with each other and with reads.
type PropertyStore struct {
	mu    sync.RWMutex
	props map[string]any
	dirty bool
}

// NewPropertyStore creates a store seeded with a copy of snapshot.
// The store starts clean.
func NewPropertyStore(snapshot map[string]any) *PropertyStore {
	s := &PropertyStore{}
	s.Replace(snapshot)
	return s
}

// Get returns the stored value for name and whether it was present.
func (s *PropertyStore) Get(name string) (any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.props[name]
	return v, ok
}

// Set stores value under name and marks the store dirty.
// A nil value removes name instead; the store only becomes dirty if
// something was actually removed.
func (s *PropertyStore) Set(name string, value any) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if value == nil {
		if _, ok := s.props[name]; ok {
			delete(s.props, name)
			s.dirty = true
		}
		return
	}

	s.props[name] = value
	s.dirty = true
}

// Replace discards every entry, installs a copy of snapshot and resets the dirty flag.
func (s *PropertyStore) Replace(snapshot map[string]any) {
	next := make(map[string]any, len(snapshot))
	maps.Copy(next, snapshot)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.props = next
	s.dirty = false
}

// Keys returns the current field names in sorted order.
func (s *PropertyStore) Keys() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Sorted(maps.Keys(s.props))
}

// Snapshot returns a shallow copy of the current entries.
func (s *PropertyStore) Snapshot() map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return maps.Clone(s.props)
}

// Len returns the number of stored fields.
func (s *PropertyStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.props)
}

// Dirty reports whether the store was mutated since the last Replace.
func (s *PropertyStore) Dirty() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.dirty
}
