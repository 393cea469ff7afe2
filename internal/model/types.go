// Package model defines the canonical data types used throughout workwatch.
// These types are the single source of truth for employees, reports and
// their supporting records, plus the result envelope every command returns.
package model

import "time"

// ─── Employees ────────────────────────────────────────────────────────────────

// EmployeeStatus is the presence state of an employee.
type EmployeeStatus string

const (
	StatusOnline  EmployeeStatus = "online"
	StatusAway    EmployeeStatus = "away"
	StatusBusy    EmployeeStatus = "busy"
	StatusOffline EmployeeStatus = "offline"
)

// EmployeeStatuses lists every valid employee status in display order.
var EmployeeStatuses = []EmployeeStatus{StatusOnline, StatusAway, StatusBusy, StatusOffline}

// Valid reports whether s is a known employee status.
func (s EmployeeStatus) Valid() bool {
	for _, v := range EmployeeStatuses {
		if s == v {
			return true
		}
	}
	return false
}

// Employee is a monitored employee record.
// Productivity is a score from 0 to 100 inclusive.
type Employee struct {
	ID           int            `json:"id"`
	Name         string         `json:"name"`
	Email        string         `json:"email"`
	Department   string         `json:"department"`
	Position     string         `json:"position"`
	Productivity int            `json:"productivity"`
	IsActive     bool           `json:"is_active"`
	LastActivity time.Time      `json:"last_activity"`
	AvatarColor  string         `json:"avatar_color,omitempty"`
	HireDate     time.Time      `json:"hire_date"`
	Phone        string         `json:"phone,omitempty"`
	Location     string         `json:"location,omitempty"`
	Status       EmployeeStatus `json:"status"`
}

// Department groups employees. EmployeeCount and AverageProductivity are
// derived from the current employee set when listed.
type Department struct {
	ID                  int     `json:"id"`
	Name                string  `json:"name"`
	EmployeeCount       int     `json:"employee_count"`
	AverageProductivity float64 `json:"average_productivity"`
	Color               string  `json:"color,omitempty"`
}

// ActivityType classifies a tracked activity interval.
type ActivityType string

const (
	ActivityProductive  ActivityType = "productive"
	ActivityNeutral     ActivityType = "neutral"
	ActivityDistracting ActivityType = "distracting"
	ActivityBreak       ActivityType = "break"
	ActivityMeeting     ActivityType = "meeting"
)

// ActivityTypes lists every activity type in display order.
var ActivityTypes = []ActivityType{ActivityProductive, ActivityNeutral, ActivityDistracting, ActivityBreak, ActivityMeeting}

// Activity is one tracked interval of application usage.
// Duration is in minutes.
type Activity struct {
	ID          int          `json:"id"`
	EmployeeID  int          `json:"employee_id"`
	Timestamp   time.Time    `json:"timestamp"`
	Type        ActivityType `json:"type"`
	Application string       `json:"application"`
	Description string       `json:"description"`
	Duration    int          `json:"duration"`
}

// AppUsage is total minutes spent in one application.
type AppUsage struct {
	Name     string `json:"name"`
	Duration int    `json:"duration"`
}

// EmployeeStats is the daily rollup for one employee.
type EmployeeStats struct {
	EmployeeID        int        `json:"employee_id"`
	Date              time.Time  `json:"date"`
	TotalHours        float64    `json:"total_hours"`
	ProductiveHours   float64    `json:"productive_hours"`
	Distractions      int        `json:"distractions"`
	ProductivityScore int        `json:"productivity_score"`
	ApplicationsUsed  []string   `json:"applications_used"`
	TopApplications   []AppUsage `json:"top_applications"`
}

// ─── Reports ──────────────────────────────────────────────────────────────────

// ReportType is the period a report covers.
type ReportType string

const (
	ReportDaily   ReportType = "daily"
	ReportWeekly  ReportType = "weekly"
	ReportMonthly ReportType = "monthly"
	ReportCustom  ReportType = "custom"
)

// ReportTypes lists every report type.
var ReportTypes = []ReportType{ReportDaily, ReportWeekly, ReportMonthly, ReportCustom}

// Valid reports whether t is a known report type.
func (t ReportType) Valid() bool {
	for _, v := range ReportTypes {
		if t == v {
			return true
		}
	}
	return false
}

// ReportStatus is the generation state of a report.
type ReportStatus string

const (
	ReportGenerated ReportStatus = "generated"
	ReportPending   ReportStatus = "pending"
	ReportFailed    ReportStatus = "failed"
)

// ReportStatuses lists every report status.
var ReportStatuses = []ReportStatus{ReportGenerated, ReportPending, ReportFailed}

// Valid reports whether s is a known report status.
func (s ReportStatus) Valid() bool {
	for _, v := range ReportStatuses {
		if s == v {
			return true
		}
	}
	return false
}

// Trend is the direction of average productivity relative to the previous report.
type Trend string

const (
	TrendUp     Trend = "up"
	TrendDown   Trend = "down"
	TrendStable Trend = "stable"
)

// DateRange is an inclusive interval of days.
type DateRange struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// DepartmentStats is one department row in a report summary.
type DepartmentStats struct {
	Department          string  `json:"department"`
	EmployeeCount       int     `json:"employee_count"`
	AverageProductivity float64 `json:"average_productivity"`
	TotalHours          float64 `json:"total_hours"`
}

// ReportSummary holds the headline figures of a report.
type ReportSummary struct {
	TotalEmployees      int               `json:"total_employees"`
	AverageProductivity float64           `json:"average_productivity"`
	TotalHoursTracked   float64           `json:"total_hours_tracked"`
	ViolationsCount     int               `json:"violations_count"`
	TopDepartments      []DepartmentStats `json:"top_departments"`
	Trend               Trend             `json:"trend"`
}

// ReportFilters restricts which employees a report covers.
// A nil ProductivityThreshold means the default violation threshold;
// zero is a real threshold under which nothing counts as a violation.
type ReportFilters struct {
	Departments           []string  `json:"departments,omitempty"`
	DateRange             DateRange `json:"date_range"`
	ProductivityThreshold *int      `json:"productivity_threshold,omitempty"`
	IncludeInactive       bool      `json:"include_inactive,omitempty"`
}

// Report is a generated (or pending) productivity report.
// UpdatedAt is refreshed on every mutation of the record.
type Report struct {
	ID          int            `json:"id"`
	Title       string         `json:"title"`
	Type        ReportType     `json:"type"`
	DateRange   DateRange      `json:"date_range"`
	GeneratedAt time.Time      `json:"generated_at"`
	GeneratedBy string         `json:"generated_by"`
	Status      ReportStatus   `json:"status"`
	DownloadURL string         `json:"download_url,omitempty"`
	Summary     ReportSummary  `json:"summary"`
	Filters     *ReportFilters `json:"filters,omitempty"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

// Schedule describes when a template would run. Time is HH:MM.
type Schedule struct {
	Enabled    bool     `json:"enabled"`
	Frequency  string   `json:"frequency"`
	Time       string   `json:"time"`
	Recipients []string `json:"recipients,omitempty"`
}

// ReportTemplate is a reusable report definition.
type ReportTemplate struct {
	ID             int           `json:"id"`
	Name           string        `json:"name"`
	Description    string        `json:"description"`
	Type           ReportType    `json:"type"`
	DefaultFilters ReportFilters `json:"default_filters"`
	Schedule       *Schedule     `json:"schedule,omitempty"`
}

// ReportRequest asks the provider to generate a new report.
type ReportRequest struct {
	TemplateID int           `json:"template_id,omitempty"`
	Title      string        `json:"title"`
	Type       ReportType    `json:"type"`
	Filters    ReportFilters `json:"filters"`
	Recipients []string      `json:"recipients,omitempty"`
}

// ─── Result Envelope ─────────────────────────────────────────────────────────

// ResultStats carries timing metadata for a command result.
type ResultStats struct {
	DurationMs int64 `json:"duration_ms"`
	Items      int   `json:"items"`
	Total      int   `json:"total"`
}

// Result is the uniform envelope returned by every command.
// The Data field holds the typed payload; Kind identifies what is in it.
// Renderers switch on Kind to format output appropriately.
type Result struct {
	Kind        string      `json:"kind"`
	GeneratedAt time.Time   `json:"generated_at"`
	Command     string      `json:"command"`
	Data        interface{} `json:"data"`
	Warnings    []string    `json:"warnings,omitempty"`
	Stats       ResultStats `json:"stats"`
}

// Kind constants for Result.Kind.
const (
	KindEmployees   = "employees"
	KindEmployee    = "employee"
	KindDepartments = "departments"
	KindActivities  = "activities"
	KindStats       = "employee_stats"
	KindReports     = "reports"
	KindReport      = "report"
	KindTemplates   = "templates"
	KindSummary     = "summary"
	KindDashboard   = "dashboard"
	KindViews       = "views"
	KindTable       = "table"
)
