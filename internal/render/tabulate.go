package render

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/derickschaefer/workwatch/internal/analyze"
	"github.com/derickschaefer/workwatch/internal/model"
	"github.com/derickschaefer/workwatch/internal/store"
	"github.com/derickschaefer/workwatch/internal/util"
	"github.com/derickschaefer/workwatch/internal/view"
)

// ─── Payloads ─────────────────────────────────────────────────────────────────

// EmployeePage is the filtered employee view with its summary cards.
type EmployeePage struct {
	Employees []model.Employee `json:"employees"`
	Summary   analyze.Summary  `json:"summary"`
	Filter    view.State       `json:"filter"`
}

// ReportPage is the filtered report view with its summary cards.
type ReportPage struct {
	Reports []model.Report  `json:"reports"`
	Summary analyze.Summary `json:"summary"`
	Filter  view.State      `json:"filter"`
}

// ActivityLog is one employee's activities with per-type totals.
type ActivityLog struct {
	EmployeeID int                     `json:"employee_id"`
	Day        string                  `json:"day,omitempty"`
	Activities []model.Activity        `json:"activities"`
	Breakdown  []analyze.ActivityTotal `json:"breakdown"`
}

// TemplateRow is a report template with its computed schedule.
type TemplateRow struct {
	Template model.ReportTemplate `json:"template"`
	Cron     string               `json:"cron,omitempty"`
	NextRun  *time.Time           `json:"next_run,omitempty"`
}

// Dashboard is the overview of every page.
type Dashboard struct {
	Employees   analyze.Summary    `json:"employees"`
	Reports     analyze.Summary    `json:"reports"`
	Departments []model.Department `json:"departments"`
	Recent      []model.Report     `json:"recent_reports"`
}

// ─── Tabulation ───────────────────────────────────────────────────────────────

// Tabulate converts a result payload into a Table. It returns nil for
// payloads with no tabular form; callers fall back to JSON for those.
func Tabulate(result *model.Result) (*Table, error) {
	switch d := result.Data.(type) {
	case *Table:
		return d, nil
	case *EmployeePage:
		t := employeesTable(d.Employees)
		t.Notes = []string{EmployeeCards(d.Summary)}
		return t, nil
	case []model.Employee:
		return employeesTable(d), nil
	case *model.Employee:
		return employeeDetail(d), nil
	case *ReportPage:
		t := reportsTable(d.Reports)
		t.Notes = []string{ReportCards(d.Summary)}
		return t, nil
	case []model.Report:
		return reportsTable(d), nil
	case *model.Report:
		return reportDetail(d), nil
	case []model.Department:
		return departmentsTable(d), nil
	case *ActivityLog:
		return activityTable(d), nil
	case []model.EmployeeStats:
		return statsTable(d), nil
	case []TemplateRow:
		return templatesTable(d), nil
	case []store.View:
		return viewsTable(d), nil
	case *Dashboard:
		return dashboardTable(d), nil
	case analyze.Summary:
		return summaryTable(d), nil
	case nil:
		return &Table{Empty: "No data."}, nil
	default:
		return nil, nil
	}
}

// EmployeeCards is the one-line form of the employee summary cards.
func EmployeeCards(s analyze.Summary) string {
	return fmt.Sprintf("Total: %d • Online: %d • Avg productivity: %d%% • Violations (<%d): %d",
		s.Total, s.ActiveCount, s.AverageNumeric, s.Threshold, s.ViolationCount)
}

// ReportCards is the one-line form of the report summary cards.
func ReportCards(s analyze.Summary) string {
	return fmt.Sprintf("Total: %d • Generated: %d • Pending: %d • Avg productivity: %d%%",
		s.Total, s.ActiveCount, s.ByStatus[string(model.ReportPending)], s.AverageNumeric)
}

func employeesTable(emps []model.Employee) *Table {
	t := &Table{
		Headers: []string{"ID", "NAME", "DEPARTMENT", "POSITION", "PRODUCTIVITY", "STATUS", "LAST ACTIVITY"},
		Right:   []bool{true, false, false, false, true},
		Empty:   "No employees match the current filters.",
	}
	for _, e := range emps {
		t.Rows = append(t.Rows, []string{
			strconv.Itoa(e.ID),
			e.Name,
			e.Department,
			e.Position,
			fmt.Sprintf("%d%%", e.Productivity),
			string(e.Status),
			util.FormatTime(e.LastActivity),
		})
	}
	return t
}

func employeeDetail(e *model.Employee) *Table {
	active := "no"
	if e.IsActive {
		active = "yes"
	}
	return &Table{
		Headers: []string{"FIELD", "VALUE"},
		Rows: [][]string{
			{"ID", strconv.Itoa(e.ID)},
			{"Name", e.Name},
			{"Email", e.Email},
			{"Department", e.Department},
			{"Position", e.Position},
			{"Productivity", fmt.Sprintf("%d%%", e.Productivity)},
			{"Status", string(e.Status)},
			{"Active", active},
			{"Last activity", util.FormatTime(e.LastActivity)},
			{"Hire date", util.FormatDate(e.HireDate)},
			{"Phone", e.Phone},
			{"Location", e.Location},
		},
	}
}

func reportsTable(reports []model.Report) *Table {
	t := &Table{
		Headers: []string{"ID", "TITLE", "TYPE", "PERIOD", "GENERATED", "BY", "STATUS", "AVG", "VIOLATIONS"},
		Right:   []bool{true, false, false, false, false, false, false, true, true},
		Empty:   "No reports match the current filters.",
	}
	for _, r := range reports {
		t.Rows = append(t.Rows, []string{
			strconv.Itoa(r.ID),
			r.Title,
			string(r.Type),
			period(r.DateRange),
			util.FormatTime(r.GeneratedAt),
			r.GeneratedBy,
			string(r.Status),
			formatScore(r.Summary.AverageProductivity),
			strconv.Itoa(r.Summary.ViolationsCount),
		})
	}
	return t
}

func reportDetail(r *model.Report) *Table {
	t := &Table{
		Title:   r.Title,
		Headers: []string{"FIELD", "VALUE"},
		Rows: [][]string{
			{"ID", strconv.Itoa(r.ID)},
			{"Type", string(r.Type)},
			{"Period", period(r.DateRange)},
			{"Status", string(r.Status)},
			{"Generated", util.FormatTime(r.GeneratedAt)},
			{"Generated by", r.GeneratedBy},
			{"Employees", strconv.Itoa(r.Summary.TotalEmployees)},
			{"Avg productivity", formatScore(r.Summary.AverageProductivity) + "%"},
			{"Hours tracked", strconv.FormatFloat(r.Summary.TotalHoursTracked, 'f', -1, 64)},
			{"Violations", strconv.Itoa(r.Summary.ViolationsCount)},
			{"Trend", string(r.Summary.Trend)},
		},
	}
	if r.DownloadURL != "" {
		t.Rows = append(t.Rows, []string{"Download", r.DownloadURL})
	}
	if f := r.Filters; f != nil {
		if len(f.Departments) > 0 {
			t.Rows = append(t.Rows, []string{"Departments", strings.Join(f.Departments, ", ")})
		}
		if f.ProductivityThreshold != nil {
			t.Rows = append(t.Rows, []string{"Threshold", strconv.Itoa(*f.ProductivityThreshold)})
		}
		if f.IncludeInactive {
			t.Rows = append(t.Rows, []string{"Includes inactive", "yes"})
		}
	}
	for i, d := range r.Summary.TopDepartments {
		t.Notes = append(t.Notes, fmt.Sprintf("%d. %s: %d employees, %s%% avg, %sh",
			i+1, d.Department, d.EmployeeCount, formatScore(d.AverageProductivity),
			strconv.FormatFloat(d.TotalHours, 'f', -1, 64)))
	}
	return t
}

func departmentsTable(depts []model.Department) *Table {
	t := &Table{
		Headers: []string{"ID", "DEPARTMENT", "EMPLOYEES", "AVG PRODUCTIVITY", "COLOR"},
		Right:   []bool{true, false, true, true},
		Empty:   "No departments.",
	}
	for _, d := range depts {
		t.Rows = append(t.Rows, []string{
			strconv.Itoa(d.ID),
			d.Name,
			strconv.Itoa(d.EmployeeCount),
			formatScore(d.AverageProductivity),
			d.Color,
		})
	}
	return t
}

func activityTable(log *ActivityLog) *Table {
	t := &Table{
		Headers: []string{"TIME", "TYPE", "APPLICATION", "DESCRIPTION", "MINUTES"},
		Right:   []bool{false, false, false, false, true},
		Empty:   "No activity recorded.",
	}
	for _, a := range log.Activities {
		t.Rows = append(t.Rows, []string{
			util.FormatTime(a.Timestamp),
			string(a.Type),
			a.Application,
			a.Description,
			strconv.Itoa(a.Duration),
		})
	}
	for _, b := range log.Breakdown {
		if b.Minutes == 0 {
			continue
		}
		t.Notes = append(t.Notes, fmt.Sprintf("%-12s %4d min  %5.1f%%", b.Type, b.Minutes, b.Share))
	}
	return t
}

func statsTable(stats []model.EmployeeStats) *Table {
	t := &Table{
		Headers: []string{"DATE", "TOTAL H", "PRODUCTIVE H", "DISTRACTIONS", "SCORE", "TOP APPS"},
		Right:   []bool{false, true, true, true, true},
		Empty:   "No daily statistics.",
	}
	for _, s := range stats {
		apps := make([]string, len(s.TopApplications))
		for i, a := range s.TopApplications {
			apps[i] = fmt.Sprintf("%s (%dm)", a.Name, a.Duration)
		}
		t.Rows = append(t.Rows, []string{
			util.FormatDate(s.Date),
			strconv.FormatFloat(s.TotalHours, 'f', -1, 64),
			strconv.FormatFloat(s.ProductiveHours, 'f', -1, 64),
			strconv.Itoa(s.Distractions),
			strconv.Itoa(s.ProductivityScore),
			strings.Join(apps, ", "),
		})
	}
	return t
}

func templatesTable(rows []TemplateRow) *Table {
	t := &Table{
		Headers: []string{"ID", "NAME", "TYPE", "SCHEDULE", "NEXT RUN", "RECIPIENTS"},
		Right:   []bool{true},
		Empty:   "No templates.",
	}
	for _, r := range rows {
		sched, next, recipients := "manual", "", ""
		if s := r.Template.Schedule; s != nil {
			sched = fmt.Sprintf("%s %s", s.Frequency, s.Time)
			if !s.Enabled {
				sched += " (off)"
			}
			recipients = strings.Join(s.Recipients, ", ")
		}
		if r.NextRun != nil {
			next = util.FormatTime(*r.NextRun)
		}
		t.Rows = append(t.Rows, []string{
			strconv.Itoa(r.Template.ID),
			r.Template.Name,
			string(r.Template.Type),
			sched,
			next,
			recipients,
		})
	}
	return t
}

func viewsTable(views []store.View) *Table {
	t := &Table{
		Headers: []string{"ID", "NAME", "ENTITY", "FILTER", "CREATED"},
		Empty:   "No saved views.",
	}
	for _, v := range views {
		t.Rows = append(t.Rows, []string{
			v.ID[:min(8, len(v.ID))],
			v.Name,
			v.Entity,
			v.State.String(),
			util.FormatTime(v.CreatedAt),
		})
	}
	return t
}

func dashboardTable(d *Dashboard) *Table {
	t := &Table{
		Title:   "Dashboard",
		Headers: []string{"DEPARTMENT", "EMPLOYEES", "AVG PRODUCTIVITY"},
		Right:   []bool{false, true, true},
		Notes:   []string{"Employees  " + EmployeeCards(d.Employees), "Reports    " + ReportCards(d.Reports)},
	}
	for _, dep := range d.Departments {
		t.Rows = append(t.Rows, []string{dep.Name, strconv.Itoa(dep.EmployeeCount), formatScore(dep.AverageProductivity)})
	}
	for _, r := range d.Recent {
		t.Notes = append(t.Notes, fmt.Sprintf("  #%d %s (%s, %s)", r.ID, r.Title, r.Status, util.FormatDate(r.GeneratedAt)))
	}
	return t
}

func summaryTable(s analyze.Summary) *Table {
	return &Table{
		Headers: []string{"METRIC", "VALUE"},
		Right:   []bool{false, true},
		Rows: [][]string{
			{"Total", strconv.Itoa(s.Total)},
			{"Active", strconv.Itoa(s.ActiveCount)},
			{"Average", strconv.Itoa(s.AverageNumeric)},
			{fmt.Sprintf("Violations (<%d)", s.Threshold), strconv.Itoa(s.ViolationCount)},
			{"Min", formatScore(s.Min)},
			{"Median", formatScore(s.Median)},
			{"Max", formatScore(s.Max)},
		},
	}
}

// ─── Helpers ─────────────────────────────────────────────────────────────────

// formatScore shows whole scores without decimals and others to one place.
func formatScore(v float64) string {
	if v == float64(int64(v)) {
		return strconv.FormatInt(int64(v), 10)
	}
	return strconv.FormatFloat(v, 'f', 1, 64)
}

func period(r model.DateRange) string {
	start, end := util.FormatDate(r.Start), util.FormatDate(r.End)
	if start == end {
		return start
	}
	return start + ".." + end
}
