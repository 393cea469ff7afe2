// Package render converts Result values into human-readable or machine-parseable
// output. Every kind is first tabulated into a Table; the table, CSV, TSV and
// Markdown writers all work from that Table, while JSON and JSONL encode the
// typed payload directly.
package render

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/olekukonko/tablewriter"

	"github.com/derickschaefer/workwatch/internal/model"
	"github.com/derickschaefer/workwatch/internal/store"
)

// Format constants matching --format flag values.
const (
	FormatTable = "table"
	FormatJSON  = "json"
	FormatJSONL = "jsonl"
	FormatCSV   = "csv"
	FormatTSV   = "tsv"
	FormatMD    = "md"
)

// Table is the tabular form of a result. Notes are printed after the rows
// by the table and Markdown writers only.
type Table struct {
	Title   string
	Headers []string
	Rows    [][]string
	Right   []bool // right-align column i
	Notes   []string
	Empty   string // shown instead of an empty table
}

// Render writes result to w in the specified format.
func Render(w io.Writer, result *model.Result, format string) error {
	switch format {
	case FormatJSON:
		return renderJSON(w, result)
	case FormatJSONL:
		return renderJSONL(w, result)
	case FormatCSV:
		return renderDelimited(w, result, ',')
	case FormatTSV:
		return renderDelimited(w, result, '\t')
	case FormatMD:
		return renderMarkdown(w, result)
	default:
		return renderTable(w, result)
	}
}

// RenderTo writes to stdout by default; if path is non-empty, writes to file.
func RenderTo(path string, result *model.Result, format string) error {
	if path == "" {
		return Render(os.Stdout, result, format)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating output file: %w", err)
	}
	defer f.Close()
	return Render(f, result, format)
}

// ─── JSON ─────────────────────────────────────────────────────────────────────

func renderJSON(w io.Writer, result *model.Result) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}

// ─── JSONL ────────────────────────────────────────────────────────────────────

// renderJSONL writes one record per line: each item of a list payload, or
// the payload itself otherwise.
func renderJSONL(w io.Writer, result *model.Result) error {
	enc := json.NewEncoder(w)
	items, ok := records(result.Data)
	if !ok {
		return enc.Encode(result.Data)
	}
	for _, it := range items {
		if err := enc.Encode(it); err != nil {
			return err
		}
	}
	return nil
}

func records(data any) ([]any, bool) {
	switch d := data.(type) {
	case *EmployeePage:
		return toAny(d.Employees), true
	case *ReportPage:
		return toAny(d.Reports), true
	case *ActivityLog:
		return toAny(d.Activities), true
	case []model.Employee:
		return toAny(d), true
	case []model.Department:
		return toAny(d), true
	case []model.EmployeeStats:
		return toAny(d), true
	case []model.Report:
		return toAny(d), true
	case []TemplateRow:
		return toAny(d), true
	case []store.View:
		return toAny(d), true
	default:
		return nil, false
	}
}

func toAny[T any](items []T) []any {
	out := make([]any, len(items))
	for i, it := range items {
		out[i] = it
	}
	return out
}

// ─── Table ────────────────────────────────────────────────────────────────────

func renderTable(w io.Writer, result *model.Result) error {
	t, err := Tabulate(result)
	if err != nil {
		return err
	}
	if t == nil {
		return renderJSON(w, result)
	}
	if t.Title != "" {
		fmt.Fprintf(w, "%s\n\n", t.Title)
	}
	if len(t.Rows) == 0 && t.Empty != "" {
		fmt.Fprintln(w, t.Empty)
	} else {
		WriteTable(w, t)
	}
	if len(t.Notes) > 0 {
		fmt.Fprintln(w)
		for _, n := range t.Notes {
			fmt.Fprintln(w, n)
		}
	}
	return nil
}

// WriteTable draws t's header and rows with tablewriter.
func WriteTable(w io.Writer, t *Table) {
	tw := tablewriter.NewWriter(w)
	tw.SetHeader(t.Headers)
	tw.SetBorder(true)
	tw.SetRowLine(false)
	tw.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	tw.SetAlignment(tablewriter.ALIGN_LEFT)
	tw.SetAutoWrapText(false)
	if len(t.Right) > 0 {
		align := make([]int, len(t.Headers))
		for i := range align {
			align[i] = tablewriter.ALIGN_LEFT
			if i < len(t.Right) && t.Right[i] {
				align[i] = tablewriter.ALIGN_RIGHT
			}
		}
		tw.SetColumnAlignment(align)
	}
	for _, r := range t.Rows {
		tw.Append(r)
	}
	tw.Render()
}

// ─── CSV / TSV ────────────────────────────────────────────────────────────────

func renderDelimited(w io.Writer, result *model.Result, sep rune) error {
	cw := csv.NewWriter(w)
	cw.Comma = sep

	t, err := Tabulate(result)
	if err != nil {
		return err
	}
	var records [][]string
	if t == nil {
		// Fallback: serialize as JSON on a single line
		b, err := json.Marshal(result.Data)
		if err != nil {
			return fmt.Errorf("encoding payload: %w", err)
		}
		records = [][]string{{string(b)}}
	} else {
		header := make([]string, len(t.Headers))
		for i, h := range t.Headers {
			header[i] = strings.ToLower(strings.ReplaceAll(h, " ", "_"))
		}
		records = append([][]string{header}, t.Rows...)
	}
	for _, r := range records {
		if err := cw.Write(r); err != nil {
			return fmt.Errorf("writing delimited output: %w", err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("writing delimited output: %w", err)
	}
	return nil
}

// ─── Markdown ─────────────────────────────────────────────────────────────────

func renderMarkdown(w io.Writer, result *model.Result) error {
	t, err := Tabulate(result)
	if err != nil {
		return err
	}
	if t == nil {
		return renderJSON(w, result)
	}
	if t.Title != "" {
		fmt.Fprintf(w, "### %s\n\n", mdEscape(t.Title))
	}
	fmt.Fprintf(w, "| %s |\n", strings.Join(t.Headers, " | "))
	seps := make([]string, len(t.Headers))
	for i := range seps {
		seps[i] = "---"
		if i < len(t.Right) && t.Right[i] {
			seps[i] = "---:"
		}
	}
	fmt.Fprintf(w, "|%s|\n", strings.Join(seps, "|"))
	for _, r := range t.Rows {
		cells := make([]string, len(r))
		for i, c := range r {
			cells[i] = mdEscape(c)
		}
		fmt.Fprintf(w, "| %s |\n", strings.Join(cells, " | "))
	}
	if len(t.Notes) > 0 {
		fmt.Fprintln(w)
		for _, n := range t.Notes {
			fmt.Fprintf(w, "%s  \n", mdEscape(n))
		}
	}
	return nil
}

// ─── Warnings / Stats Footer ─────────────────────────────────────────────────

// PrintFooter writes warnings, and stats when verbose mode is on, to w.
func PrintFooter(w io.Writer, result *model.Result, verbose bool) {
	for _, warn := range result.Warnings {
		fmt.Fprintf(w, "⚠  %s\n", warn)
	}
	if verbose {
		fmt.Fprintf(w, "\n[%s • %d of %d items • %dms]\n",
			result.GeneratedAt.Format(time.RFC3339),
			result.Stats.Items,
			result.Stats.Total,
			result.Stats.DurationMs,
		)
	}
}

// ─── Helpers ─────────────────────────────────────────────────────────────────

func mdEscape(s string) string {
	s = strings.ReplaceAll(s, "|", "\\|")
	s = strings.ReplaceAll(s, "\n", " ")
	return s
}
