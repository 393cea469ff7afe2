package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/derickschaefer/workwatch/internal/app"
	"github.com/derickschaefer/workwatch/internal/model"
	"github.com/derickschaefer/workwatch/internal/render"
)

// resolveFormat returns the effective format string, falling back to "table".
func resolveFormat(cfgFormat string) string {
	if globalFlags.Format != "" {
		return globalFlags.Format
	}
	if cfgFormat != "" {
		return cfgFormat
	}
	return render.FormatTable
}

// commandContext derives a context bounded by the configured timeout.
func commandContext(cmd *cobra.Command, deps *app.Deps) (context.Context, context.CancelFunc) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	if deps.Config.Timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, deps.Config.Timeout)
}

// outputWriter returns the --out file if set, otherwise def. The returned
// close function is always non-nil.
func outputWriter(def io.Writer) (io.Writer, func() error, error) {
	if globalFlags.Out == "" {
		return def, func() error { return nil }, nil
	}
	f, err := os.Create(globalFlags.Out)
	if err != nil {
		return nil, nil, fmt.Errorf("creating output file: %w", err)
	}
	return f, f.Close, nil
}

// newResult wraps a payload in a Result envelope. started is when the
// command began work.
func newResult(kind, command string, data any, items, total int, started time.Time) *model.Result {
	return &model.Result{
		Kind:        kind,
		GeneratedAt: time.Now().UTC(),
		Command:     command,
		Data:        data,
		Stats: model.ResultStats{
			DurationMs: time.Since(started).Milliseconds(),
			Items:      items,
			Total:      total,
		},
	}
}

// emit renders result in the resolved format and prints the footer to
// stderr. --quiet suppresses table output but not machine formats.
func emit(cmd *cobra.Command, deps *app.Deps, result *model.Result) error {
	format := resolveFormat(deps.Config.Format)
	if deps.Config.Quiet && format == render.FormatTable && globalFlags.Out == "" {
		return nil
	}
	if err := render.RenderTo(globalFlags.Out, result, format); err != nil {
		return err
	}
	render.PrintFooter(cmd.ErrOrStderr(), result, deps.Config.Verbose)
	return nil
}

// done prints a confirmation line unless --quiet is set.
func done(cmd *cobra.Command, deps *app.Deps, format string, args ...any) {
	if deps != nil && deps.Config.Quiet {
		return
	}
	fmt.Fprintf(cmd.OutOrStdout(), "✓ "+format+"\n", args...)
}

// printSimpleTable renders a simple table with headers using tablewriter.
// The add callback is called with row values as variadic strings.
func printSimpleTable(w io.Writer, headers []string, fill func(add func(...string))) {
	t := &render.Table{Headers: headers}
	fill(func(cols ...string) {
		t.Rows = append(t.Rows, cols)
	})
	render.WriteTable(w, t)
}

// printKVTable renders a two-column key/value listing using aligned columns.
func printKVTable(w io.Writer, rows [][]string) {
	maxKey := 0
	for _, r := range rows {
		if len(r[0]) > maxKey {
			maxKey = len(r[0])
		}
	}
	for _, r := range rows {
		padding := strings.Repeat(" ", maxKey-len(r[0]))
		fmt.Fprintf(w, "  %s%s  %s\n", r[0], padding, r[1])
	}
}

// parseIntID parses a string as a positive integer ID, with a descriptive label for errors.
func parseIntID(s, label string) (int, error) {
	id, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid %s %q: expected a positive integer", label, s)
	}
	return id, nil
}

// humanBytes formats a byte count with a binary unit.
func humanBytes(b int64) string {
	switch {
	case b >= 1<<20:
		return fmt.Sprintf("%.1f MB", float64(b)/(1<<20))
	case b >= 1<<10:
		return fmt.Sprintf("%.1f KB", float64(b)/(1<<10))
	default:
		return fmt.Sprintf("%d B", b)
	}
}
