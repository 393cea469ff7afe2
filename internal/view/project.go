package view

import (
	"slices"
	"sync"

	"github.com/derickschaefer/workwatch/internal/entity"
)

// Project filters items by state and sorts the survivors. The result is a
// fresh slice; items is never reordered. Callers must treat the result as
// read-only.
func Project[T any](schema *entity.Schema[T], items []T, state State) []T {
	p := Compile(schema, state)
	out := make([]T, 0, len(items))
	for _, e := range items {
		if p.Matches(e) {
			out = append(out, e)
		}
	}
	c := NewComparator(schema, state.SortKey, state.Direction)
	slices.SortFunc(out, c.Compare)
	return out
}

// Projector memoizes Project on the pair (store version, state key).
// Only the most recent projection is kept.
type Projector[T any] struct {
	schema *entity.Schema[T]

	mu      sync.Mutex
	version uint64
	key     string
	cached  []T
	valid   bool
	hits    int
	misses  int
}

// NewProjector returns an empty Projector for schema.
func NewProjector[T any](schema *entity.Schema[T]) *Projector[T] {
	return &Projector[T]{schema: schema}
}

// Project returns the projection of items under state, reusing the previous
// result when version and state are unchanged. Every call returns its own
// copy, so callers may reorder or edit it without touching the memo.
func (p *Projector[T]) Project(version uint64, items []T, state State) []T {
	key := state.Key()

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.valid && p.version == version && p.key == key {
		p.hits++
		return slices.Clone(p.cached)
	}
	p.misses++
	p.cached = Project(p.schema, items, state)
	p.version = version
	p.key = key
	p.valid = true
	return slices.Clone(p.cached)
}

// Invalidate drops the memoized projection.
func (p *Projector[T]) Invalidate() {
	p.mu.Lock()
	p.valid = false
	p.cached = nil
	p.mu.Unlock()
}

// Stats returns memo hit and miss counts.
func (p *Projector[T]) Stats() (hits, misses int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.hits, p.misses
}
