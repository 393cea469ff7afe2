// Package collection holds the in-memory Entity Store: the full collection of
// one entity kind as last fetched from a provider. The store is owned by a
// single controller; everything else receives copies.
package collection

import (
	"slices"
	"sync"

	"github.com/derickschaefer/workwatch/internal/entity"
)

// Store is a versioned, replace-only collection. Records are never mutated
// in place: a change is always a whole-record replace by id.
type Store[T any] struct {
	schema *entity.Schema[T]

	mu        sync.RWMutex
	items     []T
	index     map[int]int
	version   uint64
	loaded    bool
	listeners []func(uint64)
}

// New returns an empty, not-yet-loaded store.
func New[T any](schema *entity.Schema[T]) *Store[T] {
	return &Store[T]{schema: schema, index: make(map[int]int)}
}

// Replace swaps in a complete collection and marks the store loaded.
func (s *Store[T]) Replace(items []T) uint64 {
	s.mu.Lock()
	s.items = slices.Clone(items)
	s.index = make(map[int]int, len(items))
	for i, e := range s.items {
		s.index[s.schema.ID(e)] = i
	}
	s.loaded = true
	s.version++
	v := s.version
	listeners := slices.Clone(s.listeners)
	s.mu.Unlock()

	notify(listeners, v)
	return v
}

// ReplaceByID swaps the record with item's id for item. It returns false,
// leaving the store untouched, if no record has that id.
func (s *Store[T]) ReplaceByID(item T) bool {
	id := s.schema.ID(item)

	s.mu.Lock()
	i, ok := s.index[id]
	if !ok {
		s.mu.Unlock()
		return false
	}
	next := slices.Clone(s.items)
	next[i] = item
	s.items = next
	s.version++
	v := s.version
	listeners := slices.Clone(s.listeners)
	s.mu.Unlock()

	notify(listeners, v)
	return true
}

// Items returns a copy of the collection in fetch order.
func (s *Store[T]) Items() []T {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.items)
}

// Snapshot returns the items together with the version they belong to.
func (s *Store[T]) Snapshot() ([]T, uint64) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.items), s.version
}

// Get returns the record with id.
func (s *Store[T]) Get(id int) (T, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i, ok := s.index[id]
	if !ok {
		var zero T
		return zero, false
	}
	return s.items[i], true
}

// Len returns the number of records.
func (s *Store[T]) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

// Version increases on every change.
func (s *Store[T]) Version() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.version
}

// Loaded reports whether a full collection has been stored since creation
// or the last Reset.
func (s *Store[T]) Loaded() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loaded
}

// Subscribe registers fn to be called with the new version after each
// change. Callbacks run outside the store lock.
func (s *Store[T]) Subscribe(fn func(version uint64)) {
	s.mu.Lock()
	s.listeners = append(s.listeners, fn)
	s.mu.Unlock()
}

// Reset empties the store and marks it not loaded. Subscribers are kept.
// Intended for tests and explicit reloads.
func (s *Store[T]) Reset() {
	s.mu.Lock()
	s.items = nil
	s.index = make(map[int]int)
	s.loaded = false
	s.version++
	v := s.version
	listeners := slices.Clone(s.listeners)
	s.mu.Unlock()

	notify(listeners, v)
}

func notify(listeners []func(uint64), v uint64) {
	for _, fn := range listeners {
		fn(v)
	}
}
