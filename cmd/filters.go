package cmd

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/derickschaefer/workwatch/internal/analyze"
	"github.com/derickschaefer/workwatch/internal/app"
	"github.com/derickschaefer/workwatch/internal/controller"
	"github.com/derickschaefer/workwatch/internal/entity"
	"github.com/derickschaefer/workwatch/internal/provider"
	"github.com/derickschaefer/workwatch/internal/util"
	"github.com/derickschaefer/workwatch/internal/view"
)

// filterFlags are the filter and sort flags shared by every list command.
// category is bound under a per-entity flag name (department or type).
type filterFlags struct {
	categoryFlag string

	search   string
	category string
	statuses []string
	min      float64
	max      float64
	from     string
	to       string
	sort     string
	desc     bool
	view     string
}

// register binds the flags to c. withView adds --view.
func (f *filterFlags) register(c *cobra.Command, categoryHelp, sortHelp string, withView bool) {
	fs := c.Flags()
	fs.StringVar(&f.search, "search", "", "case-insensitive substring over name and text fields")
	fs.StringVar(&f.category, f.categoryFlag, "", categoryHelp)
	fs.StringSliceVar(&f.statuses, "status", nil, "keep only these statuses (repeatable)")
	fs.Float64Var(&f.min, "min", 0, "minimum productivity score (inclusive)")
	fs.Float64Var(&f.max, "max", 100, "maximum productivity score (inclusive)")
	fs.StringVar(&f.from, "from", "", "earliest date YYYY-MM-DD (inclusive)")
	fs.StringVar(&f.to, "to", "", "latest date YYYY-MM-DD (inclusive)")
	fs.StringVar(&f.sort, "sort", "", sortHelp)
	fs.BoolVar(&f.desc, "desc", false, "sort descending")
	if withView {
		fs.StringVar(&f.view, "view", "", "start from a saved view (name or id)")
	}
}

// buildState applies the flags that were set on the command line to base.
// Unset flags keep base's value, so a saved view can be narrowed further.
func buildState[T any](flags *pflag.FlagSet, f *filterFlags, schema *entity.Schema[T], base view.State) (view.State, error) {
	st := base
	var err error
	if flags.Changed("search") {
		st = st.WithSearch(f.search)
	}
	if flags.Changed(f.categoryFlag) {
		st = st.WithCategory(f.category)
	}
	if flags.Changed("status") {
		st = st.WithStatuses(f.statuses...)
	}
	if flags.Changed("min") || flags.Changed("max") {
		lo, hi := st.Range.Min, st.Range.Max
		if flags.Changed("min") {
			lo = f.min
		}
		if flags.Changed("max") {
			hi = f.max
		}
		if st, err = view.SetRange(st, schema, lo, hi); err != nil {
			return base, err
		}
	}
	if flags.Changed("from") || flags.Changed("to") {
		d := st.Dates
		if flags.Changed("from") {
			if d.From, err = parseDateFlag("from", f.from); err != nil {
				return base, err
			}
		}
		if flags.Changed("to") {
			if d.To, err = parseDateFlag("to", f.to); err != nil {
				return base, err
			}
			if !d.To.IsZero() {
				d.To = util.EndOfDay(d.To)
			}
		}
		if st, err = view.SetDates(st, d); err != nil {
			return base, err
		}
	}
	if flags.Changed("sort") {
		key, err := schema.ParseKey(f.sort)
		if err != nil {
			return base, fmt.Errorf("%w: %w", view.ErrInvalidFilterState, err)
		}
		st.SortKey = key
		st.Direction = view.Asc
	}
	if flags.Changed("desc") {
		st.Direction = view.Asc
		if f.desc {
			st.Direction = view.Desc
		}
	}
	if err := view.Validate(st, schema); err != nil {
		return base, err
	}
	return st, nil
}

// parseDateFlag parses a YYYY-MM-DD flag value. An empty value clears the
// bound.
func parseDateFlag(name, v string) (t time.Time, err error) {
	if v == "" {
		return t, nil
	}
	t, err = util.ParseDate(v)
	if err != nil {
		return t, fmt.Errorf("%w: --%s: %w", view.ErrInvalidFilterState, name, err)
	}
	return t, nil
}

// baseState returns the saved view named by f.view, or the schema default.
func baseState[T any](deps *app.Deps, f *filterFlags, schema *entity.Schema[T]) (view.State, error) {
	if f.view == "" {
		return view.NewState(schema), nil
	}
	v, ok, err := deps.Store.FindView(f.view)
	if err != nil {
		return view.State{}, fmt.Errorf("reading saved view: %w", err)
	}
	if !ok {
		return view.State{}, fmt.Errorf("saved view %q not found", f.view)
	}
	if v.Entity != schema.Kind {
		return view.State{}, fmt.Errorf("saved view %q filters %ss, not %ss", v.Name, v.Entity, schema.Kind)
	}
	return v.State, nil
}

// listing is the outcome of a filtered list command.
type listing[T any] struct {
	Items    []T
	Summary  analyze.Summary
	State    view.State
	Total    int
	Warnings []string
}

// runListing loads the collection through ctl, applies the command's
// filters and returns the derived view. An unavailable provider is not
// fatal: the listing is empty and carries the banner as a warning.
func runListing[T any](ctx context.Context, cmd *cobra.Command, deps *app.Deps, ctl *controller.Controller[T], schema *entity.Schema[T], f *filterFlags) (*listing[T], error) {
	base, err := baseState(deps, f, schema)
	if err != nil {
		return nil, err
	}
	st, err := buildState(cmd.Flags(), f, schema, base)
	if err != nil {
		return nil, err
	}
	if err := ctl.SetState(st); err != nil {
		return nil, err
	}
	if err := ctl.Refresh(ctx); err != nil && !errors.Is(err, provider.ErrUnavailable) {
		return nil, err
	}
	items, _ := ctl.View()
	sum, _ := ctl.Summary()
	l := &listing[T]{
		Items:   items,
		Summary: sum,
		State:   ctl.State(),
		Total:   ctl.Store().Len(),
	}
	if b := ctl.Banner(); b != nil {
		l.Warnings = append(l.Warnings, fmt.Sprintf("no data: %v", b))
	}
	return l, nil
}
