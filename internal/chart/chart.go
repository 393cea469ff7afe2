// Package chart provides ASCII terminal charts for productivity figures.
// Two renderers are available:
//
//   - Bar: horizontal bar chart, one bar per employee or department, on a
//     fixed 0..100 scale with a violation threshold marker
//   - Spark: a one-line sparkline of daily scores
package chart

import (
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
	"unicode/utf8"
)

// Point is one labelled value.
type Point struct {
	Label string
	Value float64
}

// ─── Bar ─────────────────────────────────────────────────────────────────────

// BarOptions controls horizontal bar chart rendering.
type BarOptions struct {
	// Width is the total character width available for the chart.
	// If 0, auto-detects from $COLUMNS, falls back to 80.
	Width int
	// Max is the value of a full-width bar. If 0, defaults to 100.
	Max float64
	// Threshold draws bars below it with a light shade and marks its column.
	// If 0, no threshold is drawn.
	Threshold float64
	// MaxBars is the maximum number of bars to render. If 0, no limit.
	MaxBars int
}

// Bar renders a horizontal bar chart of points to w.
//
// Output example:
//
//	Productivity by department
//	Дизайн       92.0  ████████████████████████████
//	Поддержка    45.0  ░░░░░░░░░░░░░│
func Bar(w io.Writer, title string, points []Point, opts BarOptions) error {
	if len(points) == 0 {
		return fmt.Errorf("chart bar: nothing to render")
	}
	totalWidth := opts.Width
	if totalWidth <= 0 {
		totalWidth = termWidth()
	}
	maxVal := opts.Max
	if maxVal <= 0 {
		maxVal = 100
	}
	if opts.MaxBars > 0 && len(points) > opts.MaxBars {
		points = points[:opts.MaxBars]
	}

	labelWidth, valWidth := 0, 0
	for _, p := range points {
		labelWidth = max(labelWidth, utf8.RuneCountInString(p.Label))
		valWidth = max(valWidth, len(formatFloat(p.Value)))
	}

	// Bar area width = totalWidth - labels - separators (4 chars)
	barAreaWidth := max(totalWidth-labelWidth-valWidth-4, 4)

	markPos := -1
	if opts.Threshold > 0 && opts.Threshold < maxVal {
		markPos = scale(opts.Threshold, maxVal, barAreaWidth)
	}

	if title != "" {
		fmt.Fprintln(w, title)
	}
	for _, p := range points {
		fmt.Fprintf(w, "%s  %*s  %s\n",
			padRight(p.Label, labelWidth),
			valWidth, formatFloat(p.Value),
			strings.TrimRight(buildBar(p.Value, maxVal, opts.Threshold, barAreaWidth, markPos), " "),
		)
	}
	return nil
}

// buildBar fills a field of width cells in proportion to val/maxVal. Values
// below threshold use a light shade; markPos, if non-negative, is the
// threshold column and is drawn where the bar does not reach it.
func buildBar(val, maxVal, threshold float64, width, markPos int) string {
	buf := []rune(strings.Repeat(" ", width))
	n := scale(val, maxVal, width)
	if val > 0 && n == 0 {
		n = 1 // minimum 1 block so every non-zero bar is visible
	}
	block := '█'
	if threshold > 0 && val < threshold {
		block = '░'
	}
	for i := 0; i < n; i++ {
		buf[i] = block
	}
	if markPos >= n && markPos < width {
		buf[markPos] = '│'
	}
	return string(buf)
}

func scale(v, maxVal float64, width int) int {
	n := int(math.Round(v / maxVal * float64(width)))
	return min(max(n, 0), width)
}

// ─── Spark ───────────────────────────────────────────────────────────────────

var sparkLevels = []rune("▁▂▃▄▅▆▇█")

// Spark renders values as a one-line sparkline on a 0..maxVal scale.
// NaN values are drawn as spaces. A maxVal <= 0 uses the largest value.
func Spark(values []float64, maxVal float64) string {
	if maxVal <= 0 {
		for _, v := range values {
			if !math.IsNaN(v) && v > maxVal {
				maxVal = v
			}
		}
	}
	var b strings.Builder
	for _, v := range values {
		if math.IsNaN(v) || maxVal <= 0 {
			b.WriteRune(' ')
			continue
		}
		i := int(math.Round(v / maxVal * float64(len(sparkLevels)-1)))
		b.WriteRune(sparkLevels[min(max(i, 0), len(sparkLevels)-1)])
	}
	return b.String()
}

// ─── Utilities ────────────────────────────────────────────────────────────────

// formatFloat formats a value label with one decimal place.
func formatFloat(v float64) string {
	if math.IsNaN(v) {
		return "."
	}
	return strconv.FormatFloat(v, 'f', 1, 64)
}

// padRight pads s with spaces to n runes.
func padRight(s string, n int) string {
	if c := utf8.RuneCountInString(s); c < n {
		return s + strings.Repeat(" ", n-c)
	}
	return s
}

// termWidth returns the terminal width from $COLUMNS, defaulting to 80.
func termWidth() int {
	if cols := os.Getenv("COLUMNS"); cols != "" {
		if n, err := strconv.Atoi(cols); err == nil && n > 20 {
			return n
		}
	}
	return 80
}
