package view

import (
	"slices"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/derickschaefer/workwatch/internal/entity"
)

// Predicate decides whether one entity passes every active constraint of a
// State. It is compiled once per State so the search query is lower-cased
// once. A Predicate is not safe for concurrent use.
type Predicate[T any] struct {
	schema *entity.Schema[T]
	state  State
	query  string
	lower  cases.Caser
}

// Compile builds the predicate for state.
func Compile[T any](schema *entity.Schema[T], state State) *Predicate[T] {
	p := &Predicate[T]{
		schema: schema,
		state:  state,
		lower:  cases.Lower(language.Russian),
	}
	if state.Search != "" {
		p.query = p.lower.String(state.Search)
	}
	return p
}

// Matches reports whether e passes the category, status, numeric range,
// search and date constraints. It never fails: unset constraints pass, and
// an inverted range matches nothing.
func (p *Predicate[T]) Matches(e T) bool {
	s := p.schema
	st := p.state

	if st.Category != "" && s.Category(e) != st.Category {
		return false
	}
	if len(st.Statuses) > 0 && !slices.Contains(st.Statuses, s.Status(e)) {
		return false
	}
	v := s.Numeric(e)
	if v < st.Range.Min || v > st.Range.Max {
		return false
	}
	if p.query != "" && !p.search(e) {
		return false
	}
	if !st.Dates.IsZero() {
		t := s.Time(e)
		if !st.Dates.From.IsZero() && t.Before(st.Dates.From) {
			return false
		}
		if !st.Dates.To.IsZero() && t.After(st.Dates.To) {
			return false
		}
	}
	return true
}

func (p *Predicate[T]) search(e T) bool {
	for _, field := range p.schema.Text(e) {
		if strings.Contains(p.lower.String(field), p.query) {
			return true
		}
	}
	return false
}

// Matches is the one-shot form of Compile(schema, state).Matches(e).
func Matches[T any](schema *entity.Schema[T], e T, state State) bool {
	return Compile(schema, state).Matches(e)
}
