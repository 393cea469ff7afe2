// Package seed loads the monitoring dataset the local store is populated
// with on first use. The dataset is YAML; relative fields (idle durations and
// template day ranges) are resolved against a caller-supplied time so the
// data looks current whenever it is loaded.
package seed

import (
	"bytes"
	_ "embed"
	"fmt"
	"io"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/derickschaefer/workwatch/internal/model"
	"github.com/derickschaefer/workwatch/internal/util"
)

//go:embed default.yaml
var defaultYAML []byte

// Dataset is a complete set of records for every store bucket.
type Dataset struct {
	Employees   []model.Employee
	Departments []model.Department
	Activities  []model.Activity
	Stats       []model.EmployeeStats
	Reports     []model.Report
	Templates   []model.ReportTemplate
}

// ─── File Format ──────────────────────────────────────────────────────────────

type fileEmployee struct {
	ID           int      `yaml:"id"`
	Name         string   `yaml:"name"`
	Email        string   `yaml:"email"`
	Department   string   `yaml:"department"`
	Position     string   `yaml:"position"`
	Productivity int      `yaml:"productivity"`
	Active       bool     `yaml:"active"`
	Idle         Duration `yaml:"idle"`
	AvatarColor  string   `yaml:"avatar_color"`
	HireDate     string   `yaml:"hire_date"`
	Phone        string   `yaml:"phone"`
	Location     string   `yaml:"location"`
	Status       string   `yaml:"status"`
}

type fileDepartment struct {
	ID    int    `yaml:"id"`
	Name  string `yaml:"name"`
	Color string `yaml:"color"`
}

type fileActivity struct {
	ID          int    `yaml:"id"`
	EmployeeID  int    `yaml:"employee_id"`
	Timestamp   string `yaml:"timestamp"`
	Type        string `yaml:"type"`
	Application string `yaml:"application"`
	Description string `yaml:"description"`
	Duration    int    `yaml:"duration"`
}

type fileStats struct {
	EmployeeID        int              `yaml:"employee_id"`
	Date              string           `yaml:"date"`
	TotalHours        float64          `yaml:"total_hours"`
	ProductiveHours   float64          `yaml:"productive_hours"`
	Distractions      int              `yaml:"distractions"`
	ProductivityScore int              `yaml:"productivity_score"`
	ApplicationsUsed  []string         `yaml:"applications_used"`
	TopApplications   []model.AppUsage `yaml:"top_applications"`
}

type fileDeptStats struct {
	Department          string  `yaml:"department"`
	EmployeeCount       int     `yaml:"employee_count"`
	AverageProductivity float64 `yaml:"average_productivity"`
	TotalHours          float64 `yaml:"total_hours"`
}

type fileSummary struct {
	TotalEmployees      int             `yaml:"total_employees"`
	AverageProductivity float64         `yaml:"average_productivity"`
	TotalHoursTracked   float64         `yaml:"total_hours_tracked"`
	ViolationsCount     int             `yaml:"violations_count"`
	Trend               string          `yaml:"trend"`
	TopDepartments      []fileDeptStats `yaml:"top_departments"`
}

type fileFilters struct {
	Departments           []string `yaml:"departments"`
	Start                 string   `yaml:"start"`
	End                   string   `yaml:"end"`
	ProductivityThreshold *int     `yaml:"productivity_threshold"`
	IncludeInactive       bool     `yaml:"include_inactive"`
}

type fileReport struct {
	ID          int          `yaml:"id"`
	Title       string       `yaml:"title"`
	Type        string       `yaml:"type"`
	Start       string       `yaml:"start"`
	End         string       `yaml:"end"`
	GeneratedAt string       `yaml:"generated_at"`
	GeneratedBy string       `yaml:"generated_by"`
	Status      string       `yaml:"status"`
	DownloadURL string       `yaml:"download_url"`
	Summary     fileSummary  `yaml:"summary"`
	Filters     *fileFilters `yaml:"filters"`
}

type fileSchedule struct {
	Enabled    bool     `yaml:"enabled"`
	Frequency  string   `yaml:"frequency"`
	Time       string   `yaml:"time"`
	Recipients []string `yaml:"recipients"`
}

type fileTemplate struct {
	ID                    int           `yaml:"id"`
	Name                  string        `yaml:"name"`
	Description           string        `yaml:"description"`
	Type                  string        `yaml:"type"`
	RangeDays             int           `yaml:"range_days"`
	Departments           []string      `yaml:"departments"`
	ProductivityThreshold *int          `yaml:"productivity_threshold"`
	IncludeInactive       bool          `yaml:"include_inactive"`
	Schedule              *fileSchedule `yaml:"schedule"`
}

type file struct {
	Employees   []fileEmployee   `yaml:"employees"`
	Departments []fileDepartment `yaml:"departments"`
	Activities  []fileActivity   `yaml:"activities"`
	Stats       []fileStats      `yaml:"stats"`
	Reports     []fileReport     `yaml:"reports"`
	Templates   []fileTemplate   `yaml:"templates"`
}

// Duration is a time.Duration written as a Go duration string ("1h", "10m").
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var s string
	if err := node.Decode(&s); err != nil {
		return err
	}
	if s == "" {
		*d = 0
		return nil
	}
	v, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("line %d: %w", node.Line, err)
	}
	if v < 0 {
		return fmt.Errorf("line %d: negative duration %q", node.Line, s)
	}
	*d = Duration(v)
	return nil
}

// ─── Loading ──────────────────────────────────────────────────────────────────

// Default returns the built-in dataset resolved against now.
func Default(now time.Time) (*Dataset, error) {
	return Load(bytes.NewReader(defaultYAML), now)
}

// LoadFile reads a dataset from a YAML file. An empty path means Default.
func LoadFile(path string, now time.Time) (*Dataset, error) {
	if path == "" {
		return Default(now)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening seed file: %w", err)
	}
	defer f.Close()
	return Load(f, now)
}

// Load decodes a YAML dataset and resolves relative fields against now.
func Load(r io.Reader, now time.Time) (*Dataset, error) {
	var f file
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		return nil, fmt.Errorf("decoding seed: %w", err)
	}
	now = now.UTC()

	ds := &Dataset{}
	seen := make(map[int]bool)
	for _, fe := range f.Employees {
		if seen[fe.ID] {
			return nil, fmt.Errorf("seed: duplicate employee id %d", fe.ID)
		}
		seen[fe.ID] = true
		e, err := fe.resolve(now)
		if err != nil {
			return nil, fmt.Errorf("seed: employee %d: %w", fe.ID, err)
		}
		ds.Employees = append(ds.Employees, e)
	}
	for _, fd := range f.Departments {
		ds.Departments = append(ds.Departments, model.Department{ID: fd.ID, Name: fd.Name, Color: fd.Color})
	}
	for _, fa := range f.Activities {
		ts, err := util.ParseTime(fa.Timestamp)
		if err != nil {
			return nil, fmt.Errorf("seed: activity %d: %w", fa.ID, err)
		}
		ds.Activities = append(ds.Activities, model.Activity{
			ID:          fa.ID,
			EmployeeID:  fa.EmployeeID,
			Timestamp:   ts,
			Type:        model.ActivityType(fa.Type),
			Application: fa.Application,
			Description: fa.Description,
			Duration:    fa.Duration,
		})
	}
	for _, fs := range f.Stats {
		d, err := util.ParseDate(fs.Date)
		if err != nil {
			return nil, fmt.Errorf("seed: stats for employee %d: %w", fs.EmployeeID, err)
		}
		ds.Stats = append(ds.Stats, model.EmployeeStats{
			EmployeeID:        fs.EmployeeID,
			Date:              d,
			TotalHours:        fs.TotalHours,
			ProductiveHours:   fs.ProductiveHours,
			Distractions:      fs.Distractions,
			ProductivityScore: fs.ProductivityScore,
			ApplicationsUsed:  fs.ApplicationsUsed,
			TopApplications:   fs.TopApplications,
		})
	}
	for _, fr := range f.Reports {
		r, err := fr.resolve()
		if err != nil {
			return nil, fmt.Errorf("seed: report %d: %w", fr.ID, err)
		}
		ds.Reports = append(ds.Reports, r)
	}
	for _, ft := range f.Templates {
		ds.Templates = append(ds.Templates, ft.resolve(now))
	}
	return ds, nil
}

func (fe fileEmployee) resolve(now time.Time) (model.Employee, error) {
	status := model.EmployeeStatus(fe.Status)
	if !status.Valid() {
		return model.Employee{}, fmt.Errorf("unknown status %q", fe.Status)
	}
	if fe.Productivity < 0 || fe.Productivity > 100 {
		return model.Employee{}, fmt.Errorf("productivity %d out of range 0-100", fe.Productivity)
	}
	hire, err := util.ParseDate(fe.HireDate)
	if err != nil {
		return model.Employee{}, err
	}
	return model.Employee{
		ID:           fe.ID,
		Name:         fe.Name,
		Email:        fe.Email,
		Department:   fe.Department,
		Position:     fe.Position,
		Productivity: fe.Productivity,
		IsActive:     fe.Active,
		LastActivity: now.Add(-time.Duration(fe.Idle)),
		AvatarColor:  fe.AvatarColor,
		HireDate:     hire,
		Phone:        fe.Phone,
		Location:     fe.Location,
		Status:       status,
	}, nil
}

func (fr fileReport) resolve() (model.Report, error) {
	rt := model.ReportType(fr.Type)
	if !rt.Valid() {
		return model.Report{}, fmt.Errorf("unknown type %q", fr.Type)
	}
	rs := model.ReportStatus(fr.Status)
	if !rs.Valid() {
		return model.Report{}, fmt.Errorf("unknown status %q", fr.Status)
	}
	dr, err := dateRange(fr.Start, fr.End)
	if err != nil {
		return model.Report{}, err
	}
	gen, err := util.ParseTime(fr.GeneratedAt)
	if err != nil {
		return model.Report{}, err
	}
	r := model.Report{
		ID:          fr.ID,
		Title:       fr.Title,
		Type:        rt,
		DateRange:   dr,
		GeneratedAt: gen,
		GeneratedBy: fr.GeneratedBy,
		Status:      rs,
		DownloadURL: fr.DownloadURL,
		UpdatedAt:   gen,
		Summary: model.ReportSummary{
			TotalEmployees:      fr.Summary.TotalEmployees,
			AverageProductivity: fr.Summary.AverageProductivity,
			TotalHoursTracked:   fr.Summary.TotalHoursTracked,
			ViolationsCount:     fr.Summary.ViolationsCount,
			Trend:               model.Trend(fr.Summary.Trend),
		},
	}
	for _, d := range fr.Summary.TopDepartments {
		r.Summary.TopDepartments = append(r.Summary.TopDepartments, model.DepartmentStats(d))
	}
	if fr.Filters != nil {
		fdr, err := dateRange(fr.Filters.Start, fr.Filters.End)
		if err != nil {
			return model.Report{}, err
		}
		r.Filters = &model.ReportFilters{
			Departments:           fr.Filters.Departments,
			DateRange:             fdr,
			ProductivityThreshold: fr.Filters.ProductivityThreshold,
			IncludeInactive:       fr.Filters.IncludeInactive,
		}
	}
	return r, nil
}

func (ft fileTemplate) resolve(now time.Time) model.ReportTemplate {
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	t := model.ReportTemplate{
		ID:          ft.ID,
		Name:        ft.Name,
		Description: ft.Description,
		Type:        model.ReportType(ft.Type),
		DefaultFilters: model.ReportFilters{
			Departments:           ft.Departments,
			DateRange:             model.DateRange{Start: today.AddDate(0, 0, -ft.RangeDays), End: today},
			ProductivityThreshold: ft.ProductivityThreshold,
			IncludeInactive:       ft.IncludeInactive,
		},
	}
	if ft.Schedule != nil {
		s := model.Schedule(*ft.Schedule)
		t.Schedule = &s
	}
	return t
}

func dateRange(start, end string) (model.DateRange, error) {
	var dr model.DateRange
	var err error
	if start != "" {
		if dr.Start, err = util.ParseTime(start); err != nil {
			return dr, err
		}
	}
	if end != "" {
		if dr.End, err = util.ParseTime(end); err != nil {
			return dr, err
		}
	}
	if !dr.Start.IsZero() && !dr.End.IsZero() && dr.End.Before(dr.Start) {
		return dr, fmt.Errorf("date range end %s before start %s", end, start)
	}
	return dr, nil
}
