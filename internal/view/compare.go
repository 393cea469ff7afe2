package view

import (
	"cmp"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/derickschaefer/workwatch/internal/entity"
)

// Comparator orders entities by one sort key and direction, breaking ties
// by ascending id. String keys use Russian collation, which orders Cyrillic
// and Latin text correctly. A Comparator is not safe for concurrent use.
type Comparator[T any] struct {
	schema   *entity.Schema[T]
	accessor entity.Accessor[T]
	known    bool
	desc     bool
	coll     *collate.Collator
}

// NewComparator builds the comparator for key and dir. An unknown key
// compares every pair as equal, leaving the id tie-break in charge.
func NewComparator[T any](schema *entity.Schema[T], key entity.Key, dir Direction) *Comparator[T] {
	a, ok := schema.Lookup(key)
	return &Comparator[T]{
		schema:   schema,
		accessor: a,
		known:    ok,
		desc:     dir == Desc,
		coll:     collate.New(language.Russian),
	}
}

// Compare returns -1, 0 or 1. It returns 0 only when a and b share an id.
func (c *Comparator[T]) Compare(a, b T) int {
	if r := c.byKey(a, b); r != 0 {
		if c.desc {
			return -r
		}
		return r
	}
	return cmp.Compare(c.schema.ID(a), c.schema.ID(b))
}

func (c *Comparator[T]) byKey(a, b T) int {
	if !c.known {
		return 0
	}
	if c.accessor.Text != nil {
		return c.coll.CompareString(c.accessor.Text(a), c.accessor.Text(b))
	}
	return cmp.Compare(c.accessor.Number(a), c.accessor.Number(b))
}

// Compare is the one-shot form of NewComparator(schema, key, dir).Compare(a, b).
func Compare[T any](schema *entity.Schema[T], a, b T, key entity.Key, dir Direction) int {
	return NewComparator(schema, key, dir).Compare(a, b)
}
