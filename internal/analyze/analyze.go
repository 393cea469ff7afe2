// Package analyze computes summary statistics over filtered entity
// sequences and derives department and report figures from employees.
// All functions are pure; no I/O.
package analyze

import (
	"cmp"
	"math"
	"slices"
	"sort"
	"time"

	"github.com/derickschaefer/workwatch/internal/entity"
	"github.com/derickschaefer/workwatch/internal/model"
)

// DefaultViolationThreshold is the productivity score below which an entity
// counts as a violation.
const DefaultViolationThreshold = 50

// HoursPerDay is the tracked working time assumed per employee per day.
const HoursPerDay = 8

// ─── Summary ──────────────────────────────────────────────────────────────────

// Summary holds the summary cards for a filtered sequence.
type Summary struct {
	Total          int            `json:"total"`
	ActiveCount    int            `json:"active_count"`
	AverageNumeric int            `json:"average_numeric"`
	ViolationCount int            `json:"violation_count"`
	Threshold      int            `json:"threshold"`
	ByStatus       map[string]int `json:"by_status"`
	Min            float64        `json:"min"`
	Median         float64        `json:"median"`
	Max            float64        `json:"max"`
}

// Summarize computes the summary of items, which must be the filtered view
// rather than the raw store. A negative threshold means DefaultViolationThreshold.
// An empty sequence gives all-zero figures.
func Summarize[T any](schema *entity.Schema[T], items []T, threshold int) Summary {
	if threshold < 0 {
		threshold = DefaultViolationThreshold
	}
	s := Summary{Total: len(items), Threshold: threshold, ByStatus: make(map[string]int)}
	if len(items) == 0 {
		return s
	}

	vals := make([]float64, len(items))
	for i, e := range items {
		st := schema.Status(e)
		s.ByStatus[st]++
		if st == schema.ActiveStatus {
			s.ActiveCount++
		}
		v := schema.Numeric(e)
		vals[i] = v
		if v < float64(threshold) {
			s.ViolationCount++
		}
	}

	sorted := make([]float64, len(vals))
	copy(sorted, vals)
	sort.Float64s(sorted)

	s.AverageNumeric = int(math.Round(sumF(vals) / float64(len(vals))))
	s.Min = sorted[0]
	s.Max = sorted[len(sorted)-1]
	s.Median = percentile(sorted, 50)
	return s
}

// ─── Departments ──────────────────────────────────────────────────────────────

// Departments recomputes employee counts and average productivity for every
// department. Known departments keep their id and colour; departments that
// only appear on employees are appended with fresh ids. Departments with no
// employees are kept with zero figures.
func Departments(employees []model.Employee, known []model.Department) []model.Department {
	type acc struct {
		count int
		sum   float64
	}
	byName := make(map[string]*acc)
	var order []string
	for _, e := range employees {
		a, ok := byName[e.Department]
		if !ok {
			a = &acc{}
			byName[e.Department] = a
			order = append(order, e.Department)
		}
		a.count++
		a.sum += float64(e.Productivity)
	}

	out := make([]model.Department, 0, len(known)+len(order))
	seen := make(map[string]bool)
	nextID := 1
	for _, d := range known {
		if d.ID >= nextID {
			nextID = d.ID + 1
		}
	}
	fill := func(d model.Department) model.Department {
		d.EmployeeCount = 0
		d.AverageProductivity = 0
		if a, ok := byName[d.Name]; ok {
			d.EmployeeCount = a.count
			d.AverageProductivity = round1(a.sum / float64(a.count))
		}
		return d
	}
	for _, d := range known {
		out = append(out, fill(d))
		seen[d.Name] = true
	}
	for _, name := range order {
		if seen[name] {
			continue
		}
		out = append(out, fill(model.Department{ID: nextID, Name: name}))
		nextID++
	}
	return out
}

// ─── Reports ──────────────────────────────────────────────────────────────────

// ReportEmployees returns the employees a report with filters covers:
// restricted to the listed departments (if any) and to active employees
// unless IncludeInactive is set.
func ReportEmployees(employees []model.Employee, f model.ReportFilters) []model.Employee {
	out := make([]model.Employee, 0, len(employees))
	for _, e := range employees {
		if len(f.Departments) > 0 && !slices.Contains(f.Departments, e.Department) {
			continue
		}
		if !f.IncludeInactive && !e.IsActive {
			continue
		}
		out = append(out, e)
	}
	return out
}

// ReportSummary computes the headline figures of a report over employees.
// prevAverage is the average productivity of the previous generated report
// (NaN if none) and determines the trend.
func ReportSummary(employees []model.Employee, f model.ReportFilters, prevAverage float64) model.ReportSummary {
	covered := ReportEmployees(employees, f)
	threshold := DefaultViolationThreshold
	if f.ProductivityThreshold != nil {
		threshold = *f.ProductivityThreshold
	}
	days := Days(f.DateRange)

	s := Summarize(entity.Employees, covered, threshold)
	sum := model.ReportSummary{
		TotalEmployees:      s.Total,
		AverageProductivity: float64(s.AverageNumeric),
		TotalHoursTracked:   float64(s.Total * days * HoursPerDay),
		ViolationsCount:     s.ViolationCount,
		TopDepartments:      TopDepartments(covered, days, 3),
	}
	sum.Trend = TrendOf(prevAverage, sum.AverageProductivity)
	return sum
}

// TopDepartments ranks departments by average productivity (descending,
// then by name) and returns at most n rows.
func TopDepartments(employees []model.Employee, days, n int) []model.DepartmentStats {
	depts := Departments(employees, nil)
	rows := make([]model.DepartmentStats, 0, len(depts))
	for _, d := range depts {
		rows = append(rows, model.DepartmentStats{
			Department:          d.Name,
			EmployeeCount:       d.EmployeeCount,
			AverageProductivity: d.AverageProductivity,
			TotalHours:          float64(d.EmployeeCount * days * HoursPerDay),
		})
	}
	slices.SortFunc(rows, func(a, b model.DepartmentStats) int {
		if c := cmp.Compare(b.AverageProductivity, a.AverageProductivity); c != 0 {
			return c
		}
		return cmp.Compare(a.Department, b.Department)
	})
	if n > 0 && len(rows) > n {
		rows = rows[:n]
	}
	return rows
}

// TrendOf compares the current average with the previous one. A change of
// less than one point is stable. A NaN previous average is stable.
func TrendOf(prev, cur float64) model.Trend {
	if math.IsNaN(prev) {
		return model.TrendStable
	}
	switch d := cur - prev; {
	case d >= 1:
		return model.TrendUp
	case d <= -1:
		return model.TrendDown
	default:
		return model.TrendStable
	}
}

// Days returns the number of calendar days r covers, at least 1.
func Days(r model.DateRange) int {
	if r.Start.IsZero() || r.End.IsZero() || r.End.Before(r.Start) {
		return 1
	}
	start := time.Date(r.Start.Year(), r.Start.Month(), r.Start.Day(), 0, 0, 0, 0, time.UTC)
	end := time.Date(r.End.Year(), r.End.Month(), r.End.Day(), 0, 0, 0, 0, time.UTC)
	return int(end.Sub(start).Hours()/24) + 1
}

// ─── Activities ───────────────────────────────────────────────────────────────

// ActivityTotal is the time spent in one activity type.
type ActivityTotal struct {
	Type    model.ActivityType `json:"type"`
	Minutes int                `json:"minutes"`
	Share   float64            `json:"share"`
}

// ActivityBreakdown totals activity minutes by type in display order.
// Share is the percentage of all tracked minutes, rounded to one decimal.
func ActivityBreakdown(acts []model.Activity) []ActivityTotal {
	byType := make(map[model.ActivityType]int)
	total := 0
	for _, a := range acts {
		byType[a.Type] += a.Duration
		total += a.Duration
	}
	out := make([]ActivityTotal, 0, len(model.ActivityTypes))
	for _, t := range model.ActivityTypes {
		row := ActivityTotal{Type: t, Minutes: byType[t]}
		if total > 0 {
			row.Share = round1(float64(row.Minutes) / float64(total) * 100)
		}
		out = append(out, row)
	}
	return out
}

// ─── Helpers ──────────────────────────────────────────────────────────────────

func sumF(vals []float64) float64 {
	var s float64
	for _, v := range vals {
		s += v
	}
	return s
}

// percentile interpolates linearly between the closest ranks of sorted.
func percentile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	idx := p / 100 * float64(n-1)
	lo := int(idx)
	hi := lo + 1
	if hi >= n {
		return sorted[n-1]
	}
	frac := idx - float64(lo)
	return sorted[lo]*(1-frac) + sorted[hi]*frac
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
