// Package controller owns one Entity Store and one Filter State per page
// and coordinates them with a provider. Refreshes follow a last-request-wins
// rule, the derived view is only available once the store has loaded, and
// status updates reach the store only after the provider confirms them.
package controller

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"

	"github.com/derickschaefer/workwatch/internal/analyze"
	"github.com/derickschaefer/workwatch/internal/collection"
	"github.com/derickschaefer/workwatch/internal/entity"
	"github.com/derickschaefer/workwatch/internal/provider"
	"github.com/derickschaefer/workwatch/internal/view"
)

var (
	// ErrUpdateFailed is returned when the provider did not apply a status
	// update. The store is left untouched.
	ErrUpdateFailed = errors.New("controller: update failed")

	// ErrSuperseded is returned by a refresh whose response arrived after a
	// newer refresh was issued. Its data is discarded.
	ErrSuperseded = errors.New("controller: superseded by a newer refresh")
)

// Controller is the page-level owner of an entity collection.
type Controller[T any] struct {
	schema    *entity.Schema[T]
	provider  provider.Provider[T]
	store     *collection.Store[T]
	projector *view.Projector[T]
	threshold int
	log       zerolog.Logger

	seq atomic.Uint64

	mu     sync.Mutex
	state  view.State
	banner error
}

// Option configures a Controller.
type Option[T any] func(*Controller[T])

// WithStore injects the Entity Store instead of creating a fresh one.
func WithStore[T any](s *collection.Store[T]) Option[T] {
	return func(c *Controller[T]) { c.store = s }
}

// WithThreshold sets the violation threshold used by Summary.
func WithThreshold[T any](n int) Option[T] {
	return func(c *Controller[T]) { c.threshold = n }
}

// WithLogger sets the logger.
func WithLogger[T any](l zerolog.Logger) Option[T] {
	return func(c *Controller[T]) { c.log = l }
}

// New returns a controller with the schema's default filter state and an
// empty, not-yet-loaded store.
func New[T any](schema *entity.Schema[T], p provider.Provider[T], opts ...Option[T]) *Controller[T] {
	c := &Controller[T]{
		schema:    schema,
		provider:  p,
		projector: view.NewProjector(schema),
		threshold: analyze.DefaultViolationThreshold,
		log:       zerolog.Nop(),
		state:     view.NewState(schema),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.store == nil {
		c.store = collection.New(schema)
	}
	c.log = c.log.With().Str("component", "controller").Str("entity", schema.Kind).Logger()
	return c
}

// ─── Loading ──────────────────────────────────────────────────────────────────

// Refresh fetches the full collection. Only the most recently issued
// refresh may replace the store; an older one that completes later returns
// ErrSuperseded. A provider failure is recorded as the banner error and
// leaves previously loaded data in place.
func (c *Controller[T]) Refresh(ctx context.Context) error {
	seq := c.seq.Add(1)
	items, err := c.provider.FetchAll(ctx)

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.seq.Load() != seq {
		c.log.Debug().Uint64("seq", seq).Msg("discarding superseded response")
		return ErrSuperseded
	}
	if err != nil {
		if !errors.Is(err, provider.ErrUnavailable) {
			err = fmt.Errorf("%w: %w", provider.ErrUnavailable, err)
		}
		c.banner = err
		c.log.Warn().Err(err).Msg("refresh failed")
		return err
	}
	c.banner = nil
	v := c.store.Replace(items)
	c.log.Debug().Uint64("seq", seq).Uint64("version", v).Int("items", len(items)).Msg("store replaced")
	return nil
}

// Loaded reports whether the store holds a fetched collection.
func (c *Controller[T]) Loaded() bool {
	return c.store.Loaded()
}

// Banner returns the error of the last failed refresh, or nil.
func (c *Controller[T]) Banner() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.banner
}

// Store returns the controller's Entity Store.
func (c *Controller[T]) Store() *collection.Store[T] {
	return c.store
}

// ─── Derived View ─────────────────────────────────────────────────────────────

// View returns the filtered, sorted view of the store. It returns false
// until the store has loaded.
func (c *Controller[T]) View() ([]T, bool) {
	if !c.store.Loaded() {
		return nil, false
	}
	items, version := c.store.Snapshot()
	return c.projector.Project(version, items, c.State()), true
}

// Summary summarizes the current view. It returns false until the store has
// loaded.
func (c *Controller[T]) Summary() (analyze.Summary, bool) {
	items, ok := c.View()
	if !ok {
		return analyze.Summary{}, false
	}
	return analyze.Summarize(c.schema, items, c.threshold), true
}

// ─── Updates ──────────────────────────────────────────────────────────────────

// UpdateStatus asks the provider to change a record's status. When the
// provider confirms, the record is fetched again and replaced in the store
// by id. A rejected or failed update returns ErrUpdateFailed and leaves the
// store untouched.
func (c *Controller[T]) UpdateStatus(ctx context.Context, id int, status string) error {
	ok, err := c.provider.UpdateStatus(ctx, id, status)
	if err != nil {
		return fmt.Errorf("%w: %s %d: %w", ErrUpdateFailed, c.schema.Kind, id, err)
	}
	if !ok {
		return fmt.Errorf("%w: %s %d not found", ErrUpdateFailed, c.schema.Kind, id)
	}

	item, found, err := c.provider.FetchByID(ctx, id)
	if err != nil {
		return fmt.Errorf("reloading %s %d: %w", c.schema.Kind, id, err)
	}
	if !found {
		return fmt.Errorf("reloading %s %d: %w", c.schema.Kind, id, provider.ErrNotFound)
	}
	if !c.store.ReplaceByID(item) {
		c.log.Debug().Int("id", id).Msg("updated record not in store")
	}
	return nil
}

// ─── Filter Actions ───────────────────────────────────────────────────────────

// State returns the current filter state.
func (c *Controller[T]) State() view.State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// SetState replaces the whole filter state after validating it.
func (c *Controller[T]) SetState(s view.State) error {
	if err := view.Validate(s, c.schema); err != nil {
		return err
	}
	c.apply(func(view.State) view.State { return s })
	return nil
}

// SetSearch sets the free-text query.
func (c *Controller[T]) SetSearch(q string) {
	c.apply(func(s view.State) view.State { return s.WithSearch(q) })
}

// SetCategory sets the category constraint. Empty clears it.
func (c *Controller[T]) SetCategory(category string) {
	c.apply(func(s view.State) view.State { return s.WithCategory(category) })
}

// ToggleStatus adds status to the status set, or removes it if present.
func (c *Controller[T]) ToggleStatus(status string) error {
	if !c.schema.ValidStatus(status) {
		return fmt.Errorf("%w: unknown %s status %q", view.ErrInvalidFilterState, c.schema.Kind, status)
	}
	c.apply(func(s view.State) view.State { return s.ToggleStatus(status) })
	return nil
}

// SetStatuses replaces the status set. No statuses clears the constraint.
func (c *Controller[T]) SetStatuses(statuses ...string) error {
	for _, st := range statuses {
		if !c.schema.ValidStatus(st) {
			return fmt.Errorf("%w: unknown %s status %q", view.ErrInvalidFilterState, c.schema.Kind, st)
		}
	}
	c.apply(func(s view.State) view.State { return s.WithStatuses(statuses...) })
	return nil
}

// SetRange sets the numeric range, clamped to the schema bounds.
func (c *Controller[T]) SetRange(lo, hi float64) error {
	next, err := view.SetRange(c.State(), c.schema, lo, hi)
	if err != nil {
		return err
	}
	c.apply(func(s view.State) view.State {
		s.Range = next.Range
		return s
	})
	return nil
}

// SetDates sets the date range.
func (c *Controller[T]) SetDates(d view.Dates) error {
	if _, err := view.SetDates(c.State(), d); err != nil {
		return err
	}
	c.apply(func(s view.State) view.State { return s.WithDates(d) })
	return nil
}

// ToggleSort sorts by key, flipping the direction if key is already the
// sort key.
func (c *Controller[T]) ToggleSort(raw string) error {
	key, err := c.schema.ParseKey(raw)
	if err != nil {
		return fmt.Errorf("%w: %w", view.ErrInvalidFilterState, err)
	}
	c.apply(func(s view.State) view.State { return s.ToggleSort(key) })
	return nil
}

// ClearFilters restores the default state.
func (c *Controller[T]) ClearFilters() {
	c.apply(func(view.State) view.State { return view.Clear(c.schema) })
}

func (c *Controller[T]) apply(fn func(view.State) view.State) {
	c.mu.Lock()
	c.state = fn(c.state)
	c.mu.Unlock()
}
