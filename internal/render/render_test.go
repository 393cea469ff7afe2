package render_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/derickschaefer/workwatch/internal/analyze"
	"github.com/derickschaefer/workwatch/internal/entity"
	"github.com/derickschaefer/workwatch/internal/model"
	"github.com/derickschaefer/workwatch/internal/render"
	"github.com/derickschaefer/workwatch/internal/store"
	"github.com/derickschaefer/workwatch/internal/view"
)

var at = time.Date(2024, 1, 15, 14, 30, 0, 0, time.UTC)

func employeePage() *model.Result {
	emps := []model.Employee{
		{ID: 1, Name: "Иван Петров", Department: "Разработка", Position: "Senior Developer", Productivity: 85, Status: model.StatusOnline, IsActive: true, LastActivity: at},
		{ID: 7, Name: "Андрей Морозов", Department: "Поддержка", Position: "Support | L2", Productivity: 45, Status: model.StatusOffline, LastActivity: at},
	}
	return &model.Result{
		Kind:        model.KindEmployees,
		GeneratedAt: at,
		Command:     "employees list",
		Data: &render.EmployeePage{
			Employees: emps,
			Summary:   analyze.Summarize(entity.Employees, emps, analyze.DefaultViolationThreshold),
			Filter:    view.NewState(entity.Employees),
		},
		Stats: model.ResultStats{Items: 2, Total: 8},
	}
}

func TestTableIncludesRowsAndCards(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, render.Render(&buf, employeePage(), render.FormatTable))
	out := buf.String()
	assert.Contains(t, out, "Иван Петров")
	assert.Contains(t, out, "85%")
	assert.Contains(t, out, "2024-01-15 14:30")
	assert.Contains(t, out, "Total: 2 • Online: 1 • Avg productivity: 65% • Violations (<50): 1")
}

func TestTableEmptyMessage(t *testing.T) {
	res := &model.Result{Kind: model.KindEmployees, Data: &render.EmployeePage{}}
	var buf bytes.Buffer
	require.NoError(t, render.Render(&buf, res, render.FormatTable))
	assert.Contains(t, buf.String(), "No employees match the current filters.")
}

func TestCSVHeadersAreSnakeCase(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, render.Render(&buf, employeePage(), render.FormatCSV))
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "id,name,department,position,productivity,status,last_activity", lines[0])
	assert.True(t, strings.HasPrefix(lines[1], "1,Иван Петров,"))
}

var errDiskFull = errors.New("disk full")

// shortWriter accepts up to n bytes and then fails every write.
type shortWriter struct{ n int }

func (w *shortWriter) Write(p []byte) (int, error) {
	if len(p) > w.n {
		k := w.n
		w.n = 0
		return k, errDiskFull
	}
	w.n -= len(p)
	return len(p), nil
}

func TestDelimitedReportsWriteErrors(t *testing.T) {
	small := employeePage()

	large := employeePage()
	page := large.Data.(*render.EmployeePage)
	for i := 0; i < 500; i++ {
		e := page.Employees[0]
		e.ID = 100 + i
		e.Name = fmt.Sprintf("Сотрудник %d", i)
		page.Employees = append(page.Employees, e)
	}

	for _, format := range []string{render.FormatCSV, render.FormatTSV} {
		for name, result := range map[string]*model.Result{"small": small, "large": large} {
			err := render.Render(&shortWriter{n: 10}, result, format)
			assert.ErrorIs(t, err, errDiskFull, "%s %s", format, name)
		}
	}
}

func TestTSVUsesTabs(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, render.Render(&buf, employeePage(), render.FormatTSV))
	first := strings.SplitN(buf.String(), "\n", 2)[0]
	assert.Equal(t, 7, len(strings.Split(first, "\t")))
}

func TestMarkdownEscapesPipes(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, render.Render(&buf, employeePage(), render.FormatMD))
	out := buf.String()
	assert.Contains(t, out, "| ID | NAME |")
	assert.Contains(t, out, "|---:|---|")
	assert.Contains(t, out, `Support \| L2`)
}

func TestJSONEnvelope(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, render.Render(&buf, employeePage(), render.FormatJSON))

	var got struct {
		Kind string `json:"kind"`
		Data struct {
			Employees []model.Employee `json:"employees"`
			Summary   analyze.Summary  `json:"summary"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, model.KindEmployees, got.Kind)
	assert.Len(t, got.Data.Employees, 2)
	assert.Equal(t, 65, got.Data.Summary.AverageNumeric)
}

func TestJSONLOneRecordPerLine(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, render.Render(&buf, employeePage(), render.FormatJSONL))
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)

	var e model.Employee
	require.NoError(t, json.Unmarshal([]byte(lines[1]), &e))
	assert.Equal(t, 7, e.ID)
}

func TestReportDetail(t *testing.T) {
	r := &model.Report{
		ID:          1,
		Title:       "Еженедельный отчет",
		Type:        model.ReportWeekly,
		DateRange:   model.DateRange{Start: at.AddDate(0, 0, -7), End: at.AddDate(0, 0, -1)},
		GeneratedAt: at,
		Status:      model.ReportGenerated,
		DownloadURL: "/reports/download/1/report.pdf",
		Summary: model.ReportSummary{
			AverageProductivity: 78.5,
			TopDepartments:      []model.DepartmentStats{{Department: "Дизайн", EmployeeCount: 1, AverageProductivity: 92, TotalHours: 40}},
		},
	}
	tbl, err := render.Tabulate(&model.Result{Kind: model.KindReport, Data: r})
	require.NoError(t, err)
	assert.Equal(t, "Еженедельный отчет", tbl.Title)
	assert.Contains(t, tbl.Rows, []string{"Avg productivity", "78.5%"})
	assert.Contains(t, tbl.Rows, []string{"Period", "2024-01-08..2024-01-14"})
	assert.Contains(t, tbl.Rows, []string{"Download", "/reports/download/1/report.pdf"})
	assert.Equal(t, []string{"1. Дизайн: 1 employees, 92% avg, 40h"}, tbl.Notes)
}

func TestActivityBreakdownNotesSkipEmptyTypes(t *testing.T) {
	acts := []model.Activity{
		{Timestamp: at, Type: model.ActivityProductive, Application: "VS Code", Duration: 45},
		{Timestamp: at, Type: model.ActivityBreak, Application: "-", Duration: 15},
	}
	tbl, err := render.Tabulate(&model.Result{Data: &render.ActivityLog{
		EmployeeID: 1,
		Activities: acts,
		Breakdown:  analyze.ActivityBreakdown(acts),
	}})
	require.NoError(t, err)
	assert.Len(t, tbl.Rows, 2)
	require.Len(t, tbl.Notes, 2)
	assert.Contains(t, tbl.Notes[0], "productive")
	assert.Contains(t, tbl.Notes[0], "75.0%")
}

func TestTemplatesShowSchedule(t *testing.T) {
	next := at.Add(4 * time.Hour)
	rows := []render.TemplateRow{
		{Template: model.ReportTemplate{ID: 1, Name: "Ежедневный", Type: model.ReportDaily,
			Schedule: &model.Schedule{Enabled: true, Frequency: "daily", Time: "18:00", Recipients: []string{"a@example.com"}}},
			Cron: "0 18 * * *", NextRun: &next},
		{Template: model.ReportTemplate{ID: 3, Name: "Отдел", Type: model.ReportCustom}},
	}
	tbl, err := render.Tabulate(&model.Result{Data: rows})
	require.NoError(t, err)
	assert.Equal(t, []string{"1", "Ежедневный", "daily", "daily 18:00", "2024-01-15 18:30", "a@example.com"}, tbl.Rows[0])
	assert.Equal(t, "manual", tbl.Rows[1][3])
}

func TestViewsShortID(t *testing.T) {
	views := []store.View{{ID: "0f8c2b7e-1111-2222-3333-444455556666", Name: "slackers", Entity: "employees",
		State: view.NewState(entity.Employees), CreatedAt: at}}
	tbl, err := render.Tabulate(&model.Result{Data: views})
	require.NoError(t, err)
	assert.Equal(t, "0f8c2b7e", tbl.Rows[0][0])
}

func TestUnknownPayloadFallsBackToJSON(t *testing.T) {
	res := &model.Result{Kind: "other", Data: map[string]int{"x": 1}}
	tbl, err := render.Tabulate(res)
	require.NoError(t, err)
	assert.Nil(t, tbl)

	var buf bytes.Buffer
	require.NoError(t, render.Render(&buf, res, render.FormatTable))
	assert.Contains(t, buf.String(), `"x": 1`)
}

func TestPrintFooter(t *testing.T) {
	res := employeePage()
	res.Warnings = []string{"showing cached data"}
	res.Stats.DurationMs = 12

	var buf bytes.Buffer
	render.PrintFooter(&buf, res, false)
	assert.Equal(t, "⚠  showing cached data\n", buf.String())

	buf.Reset()
	render.PrintFooter(&buf, res, true)
	assert.Contains(t, buf.String(), "2 of 8 items • 12ms")
}
