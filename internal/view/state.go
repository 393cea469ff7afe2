// Package view implements the filter, sort and projection engine over an
// entity collection. Every function here is pure: State is a value, and the
// predicate, comparator and projector never mutate their inputs.
package view

import (
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/derickschaefer/workwatch/internal/entity"
)

// ErrInvalidFilterState is returned when a filter input cannot be applied,
// such as a numeric range with min > max or an unknown sort key.
var ErrInvalidFilterState = errors.New("view: invalid filter state")

// Direction is the sort direction.
type Direction string

const (
	Asc  Direction = "asc"
	Desc Direction = "desc"
)

// Range is an inclusive numeric interval.
type Range struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// Dates is an inclusive time interval. A zero bound is open.
type Dates struct {
	From time.Time `json:"from,omitempty"`
	To   time.Time `json:"to,omitempty"`
}

// IsZero reports whether neither bound is set.
func (d Dates) IsZero() bool {
	return d.From.IsZero() && d.To.IsZero()
}

// State is the complete set of filter and sort selections at a point in time.
type State struct {
	Search    string     `json:"search,omitempty"`
	Category  string     `json:"category,omitempty"`
	Statuses  []string   `json:"statuses,omitempty"`
	Range     Range      `json:"range"`
	Dates     Dates      `json:"dates,omitempty"`
	SortKey   entity.Key `json:"sort_key"`
	Direction Direction  `json:"direction"`
}

// NewState returns the default state for a schema: no constraints, the
// full numeric range, and the schema's default key ascending.
func NewState[T any](schema *entity.Schema[T]) State {
	return State{
		Range:     Range{Min: schema.Bounds.Min, Max: schema.Bounds.Max},
		SortKey:   schema.DefaultKey,
		Direction: Asc,
	}
}

// Clear resets every filter and the sort selection to the schema defaults.
func Clear[T any](schema *entity.Schema[T]) State {
	return NewState(schema)
}

// ─── Discrete actions ─────────────────────────────────────────────────────────

// WithSearch returns s with the search query replaced. The query is kept
// verbatim; a whitespace-only query is still a query.
func (s State) WithSearch(q string) State {
	s.Search = q
	return s
}

// WithCategory returns s with the category constraint replaced.
func (s State) WithCategory(c string) State {
	s.Category = c
	return s
}

// WithStatuses returns s with the status set replaced. Duplicates are dropped.
func (s State) WithStatuses(statuses ...string) State {
	out := make([]string, 0, len(statuses))
	for _, st := range statuses {
		if st == "" || slices.Contains(out, st) {
			continue
		}
		out = append(out, st)
	}
	s.Statuses = out
	return s
}

// ToggleStatus adds status to the set, or removes it if already present.
func (s State) ToggleStatus(status string) State {
	out := make([]string, 0, len(s.Statuses)+1)
	found := false
	for _, st := range s.Statuses {
		if st == status {
			found = true
			continue
		}
		out = append(out, st)
	}
	if !found {
		out = append(out, status)
	}
	s.Statuses = out
	return s
}

// ToggleSort selects key. Selecting the active key flips the direction;
// selecting a different key resets the direction to ascending.
func (s State) ToggleSort(key entity.Key) State {
	if key == s.SortKey && s.Direction == Asc {
		s.Direction = Desc
	} else {
		s.Direction = Asc
	}
	s.SortKey = key
	return s
}

// WithDates returns s with the date interval replaced.
func (s State) WithDates(d Dates) State {
	s.Dates = d
	return s
}

// ─── Input boundary ───────────────────────────────────────────────────────────

// SetRange clamps lo and hi into the schema bounds and returns the updated state.
// An inverted range is rejected rather than silently swapped.
func SetRange[T any](s State, schema *entity.Schema[T], lo, hi float64) (State, error) {
	lo = clamp(lo, schema.Bounds.Min, schema.Bounds.Max)
	hi = clamp(hi, schema.Bounds.Min, schema.Bounds.Max)
	if lo > hi {
		return s, fmt.Errorf("%w: range min %g > max %g", ErrInvalidFilterState, lo, hi)
	}
	s.Range = Range{Min: lo, Max: hi}
	return s, nil
}

// SetDates validates and applies a date interval.
func SetDates(s State, d Dates) (State, error) {
	if !d.From.IsZero() && !d.To.IsZero() && d.From.After(d.To) {
		return s, fmt.Errorf("%w: date range from %s is after to %s",
			ErrInvalidFilterState, d.From.Format(time.DateOnly), d.To.Format(time.DateOnly))
	}
	return s.WithDates(d), nil
}

// Validate checks s against schema: a known sort key and direction, valid
// statuses and an ordered range inside the schema bounds.
func Validate[T any](s State, schema *entity.Schema[T]) error {
	if _, ok := schema.Lookup(s.SortKey); !ok {
		return fmt.Errorf("%w: unknown sort key %q", ErrInvalidFilterState, s.SortKey)
	}
	if s.Direction != Asc && s.Direction != Desc {
		return fmt.Errorf("%w: unknown direction %q", ErrInvalidFilterState, s.Direction)
	}
	for _, st := range s.Statuses {
		if !schema.ValidStatus(st) {
			return fmt.Errorf("%w: unknown %s status %q", ErrInvalidFilterState, schema.Kind, st)
		}
	}
	if s.Range.Min > s.Range.Max {
		return fmt.Errorf("%w: range min %g > max %g", ErrInvalidFilterState, s.Range.Min, s.Range.Max)
	}
	if s.Range.Min < schema.Bounds.Min || s.Range.Max > schema.Bounds.Max {
		return fmt.Errorf("%w: range [%g, %g] outside [%g, %g]", ErrInvalidFilterState,
			s.Range.Min, s.Range.Max, schema.Bounds.Min, schema.Bounds.Max)
	}
	if !s.Dates.From.IsZero() && !s.Dates.To.IsZero() && s.Dates.From.After(s.Dates.To) {
		return fmt.Errorf("%w: date range is inverted", ErrInvalidFilterState)
	}
	return nil
}

// Key returns a canonical string for s. Two states that select the same
// view have the same key regardless of status order.
func (s State) Key() string {
	c := s
	c.Statuses = slices.Clone(s.Statuses)
	slices.Sort(c.Statuses)
	b, err := json.Marshal(c)
	if err != nil {
		// State holds only strings, floats and times.
		return fmt.Sprintf("%#v", c)
	}
	return string(b)
}

// String renders s as a short human-readable summary.
func (s State) String() string {
	var parts []string
	if s.Search != "" {
		parts = append(parts, fmt.Sprintf("search=%q", s.Search))
	}
	if s.Category != "" {
		parts = append(parts, "category="+s.Category)
	}
	if len(s.Statuses) > 0 {
		parts = append(parts, "status="+strings.Join(s.Statuses, ","))
	}
	parts = append(parts, fmt.Sprintf("range=[%g,%g]", s.Range.Min, s.Range.Max))
	if !s.Dates.From.IsZero() {
		parts = append(parts, "from="+s.Dates.From.Format(time.DateOnly))
	}
	if !s.Dates.To.IsZero() {
		parts = append(parts, "to="+s.Dates.To.Format(time.DateOnly))
	}
	parts = append(parts, fmt.Sprintf("sort=%s %s", s.SortKey, s.Direction))
	return strings.Join(parts, " ")
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
