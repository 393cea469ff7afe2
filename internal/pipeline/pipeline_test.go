package pipeline_test

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/derickschaefer/workwatch/internal/model"
	"github.com/derickschaefer/workwatch/internal/pipeline"
)

// ─── Helpers ──────────────────────────────────────────────────────────────────

// jsonl joins lines with newlines and appends a trailing newline.
func jsonl(lines ...string) string {
	return strings.Join(lines, "\n") + "\n"
}

func nonEmptyLines(s string) []string {
	var out []string
	for _, line := range strings.Split(s, "\n") {
		if strings.TrimSpace(line) != "" {
			out = append(out, line)
		}
	}
	return out
}

// ─── ReadEmployees ────────────────────────────────────────────────────────────

func TestReadEmployees(t *testing.T) {
	input := jsonl(
		`{"id":1,"name":"Иван Петров","department":"Разработка","productivity":85,"status":"online","is_active":true}`,
		``,
		`// comment`,
		`{"id":2,"name":"Мария Сидорова","department":"Дизайн","productivity":92,"status":"busy"}`,
	)
	emps, err := pipeline.ReadEmployees(strings.NewReader(input))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(emps) != 2 {
		t.Fatalf("expected 2 employees, got %d", len(emps))
	}
	if emps[1].Status != model.StatusBusy || emps[1].Department != "Дизайн" {
		t.Errorf("emps[1]: got %+v", emps[1])
	}
}

func TestReadEmployeesReportsEveryBadLine(t *testing.T) {
	input := jsonl(
		`{"id":1,"name":"Иван","productivity":85,"status":"online"}`,
		`{"id":2,"name":"Мария","productivity":120,"status":"online"}`,
		`not json`,
		`{"id":1,"name":"Дубль","productivity":50,"status":"away"}`,
		`{"id":4,"name":"Ольга","productivity":50,"status":"sleeping"}`,
	)
	_, err := pipeline.ReadEmployees(strings.NewReader(input))
	if err == nil {
		t.Fatal("expected error")
	}
	msg := err.Error()
	for _, want := range []string{"line 2:", "line 3:", "line 4: duplicate employee id 1", "line 5:"} {
		if !strings.Contains(msg, want) {
			t.Errorf("error %q: missing %q", msg, want)
		}
	}
	if strings.Contains(msg, "line 1:") {
		t.Errorf("line 1 is valid, got %q", msg)
	}
}

func TestReadEmptyInput(t *testing.T) {
	_, err := pipeline.ReadEmployees(strings.NewReader("\n\n"))
	if !errors.Is(err, pipeline.ErrEmptyInput) {
		t.Errorf("expected ErrEmptyInput, got %v", err)
	}
}

func TestCheckEmployee(t *testing.T) {
	cases := []model.Employee{
		{ID: 0, Name: "x", Status: model.StatusOnline},
		{ID: 1, Name: "  ", Status: model.StatusOnline},
		{ID: 1, Name: "x", Productivity: -1, Status: model.StatusOnline},
		{ID: 1, Name: "x", Status: "gone"},
	}
	for i, e := range cases {
		if err := pipeline.CheckEmployee(e); err == nil {
			t.Errorf("case %d: expected error for %+v", i, e)
		}
	}
	if err := pipeline.CheckEmployee(model.Employee{ID: 1, Name: "x", Productivity: 100, Status: model.StatusAway}); err != nil {
		t.Errorf("valid employee: unexpected error %v", err)
	}
}

// ─── Write ────────────────────────────────────────────────────────────────────

func TestWriteThenRead(t *testing.T) {
	at := time.Date(2024, 1, 15, 14, 30, 0, 0, time.UTC)
	in := []model.Employee{
		{ID: 1, Name: "Иван Петров", Productivity: 85, Status: model.StatusOnline, LastActivity: at},
		{ID: 7, Name: "Андрей Морозов", Productivity: 45, Status: model.StatusOffline, LastActivity: at},
	}
	var buf bytes.Buffer
	if err := pipeline.Write(&buf, in); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if n := len(nonEmptyLines(buf.String())); n != 2 {
		t.Fatalf("expected 2 lines, got %d", n)
	}
	out, err := pipeline.ReadEmployees(&buf)
	if err != nil {
		t.Fatalf("ReadEmployees: %v", err)
	}
	if !out[1].LastActivity.Equal(at) || out[1].Name != "Андрей Морозов" {
		t.Errorf("round trip: got %+v", out[1])
	}
}

func TestReadGenericReports(t *testing.T) {
	input := jsonl(`{"id":3,"title":"Месячный","type":"monthly","status":"pending"}`)
	reports, err := pipeline.Read[model.Report](strings.NewReader(input), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if reports[0].Type != model.ReportMonthly || reports[0].Status != model.ReportPending {
		t.Errorf("got %+v", reports[0])
	}
}
