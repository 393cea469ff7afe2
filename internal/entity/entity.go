// Package entity describes how the collection engine reads employee and
// report records. A Schema maps a closed set of sort-key tokens to typed
// accessors, so no field is ever looked up by an arbitrary string.
package entity

import (
	"fmt"
	"strings"
	"time"

	"github.com/derickschaefer/workwatch/internal/model"
)

// Key names one sortable field of an entity.
type Key string

// Employee sort keys.
const (
	KeyName         Key = "name"
	KeyProductivity Key = "productivity"
	KeyDepartment   Key = "department"
	KeyStatus       Key = "status"
	KeyLastActivity Key = "last_activity"
	KeyID           Key = "id"
)

// Report sort keys. KeyStatus and KeyID are shared with employees.
const (
	KeyTitle       Key = "title"
	KeyType        Key = "type"
	KeyGeneratedAt Key = "generated_at"
	KeyAverage     Key = "average"
	KeyViolations  Key = "violations"
)

// Accessor reads one sortable field. Exactly one of Text or Number is set.
type Accessor[T any] struct {
	Text   func(T) string
	Number func(T) float64
}

// Bounds is the full inclusive range of an entity's numeric field.
type Bounds struct {
	Min float64
	Max float64
}

// Schema binds an entity type to the fields the filter, sort and summary
// engines use.
type Schema[T any] struct {
	Kind         string
	ID           func(T) int
	Category     func(T) string
	Status       func(T) string
	Numeric      func(T) float64
	Text         func(T) []string
	Time         func(T) time.Time
	Touched      func(T) time.Time
	WithStatus   func(T, string, time.Time) T
	ValidStatus  func(string) bool
	ActiveStatus string
	Bounds       Bounds
	DefaultKey   Key
	Keys         map[Key]Accessor[T]
	KeyOrder     []Key
}

// Lookup returns the accessor for key, or false if key is not sortable.
func (s *Schema[T]) Lookup(key Key) (Accessor[T], bool) {
	a, ok := s.Keys[key]
	return a, ok
}

// ParseKey validates a user-supplied sort key.
func (s *Schema[T]) ParseKey(raw string) (Key, error) {
	k := Key(strings.ToLower(strings.TrimSpace(raw)))
	if k == "" {
		return s.DefaultKey, nil
	}
	if _, ok := s.Keys[k]; !ok {
		names := make([]string, len(s.KeyOrder))
		for i, k := range s.KeyOrder {
			names[i] = string(k)
		}
		return "", fmt.Errorf("unknown %s sort key %q (valid: %s)", s.Kind, raw, strings.Join(names, ", "))
	}
	return k, nil
}

// ─── Employees ────────────────────────────────────────────────────────────────

// Employees is the schema for employee records.
var Employees = &Schema[model.Employee]{
	Kind:     "employee",
	ID:       func(e model.Employee) int { return e.ID },
	Category: func(e model.Employee) string { return e.Department },
	Status:   func(e model.Employee) string { return string(e.Status) },
	Numeric:  func(e model.Employee) float64 { return float64(e.Productivity) },
	Text: func(e model.Employee) []string {
		return []string{e.Name, e.Email, e.Position, e.Department}
	},
	Time:    func(e model.Employee) time.Time { return e.LastActivity },
	Touched: func(e model.Employee) time.Time { return e.LastActivity },
	WithStatus: func(e model.Employee, status string, at time.Time) model.Employee {
		e.Status = model.EmployeeStatus(status)
		e.LastActivity = at
		return e
	},
	ValidStatus:  func(s string) bool { return model.EmployeeStatus(s).Valid() },
	ActiveStatus: string(model.StatusOnline),
	Bounds:       Bounds{Min: 0, Max: 100},
	DefaultKey:   KeyName,
	Keys: map[Key]Accessor[model.Employee]{
		KeyName:         {Text: func(e model.Employee) string { return e.Name }},
		KeyProductivity: {Number: func(e model.Employee) float64 { return float64(e.Productivity) }},
		KeyDepartment:   {Text: func(e model.Employee) string { return e.Department }},
		KeyStatus:       {Text: func(e model.Employee) string { return string(e.Status) }},
		KeyLastActivity: {Number: func(e model.Employee) float64 { return unix(e.LastActivity) }},
		KeyID:           {Number: func(e model.Employee) float64 { return float64(e.ID) }},
	},
	KeyOrder: []Key{KeyName, KeyProductivity, KeyDepartment, KeyStatus, KeyLastActivity, KeyID},
}

// ─── Reports ──────────────────────────────────────────────────────────────────

// Reports is the schema for report records. The numeric field is the
// report's average productivity.
var Reports = &Schema[model.Report]{
	Kind:     "report",
	ID:       func(r model.Report) int { return r.ID },
	Category: func(r model.Report) string { return string(r.Type) },
	Status:   func(r model.Report) string { return string(r.Status) },
	Numeric:  func(r model.Report) float64 { return r.Summary.AverageProductivity },
	Text: func(r model.Report) []string {
		return []string{r.Title, r.GeneratedBy, string(r.Type)}
	},
	Time:    func(r model.Report) time.Time { return r.GeneratedAt },
	Touched: func(r model.Report) time.Time { return r.UpdatedAt },
	WithStatus: func(r model.Report, status string, at time.Time) model.Report {
		r.Status = model.ReportStatus(status)
		r.UpdatedAt = at
		if r.Status == model.ReportGenerated && r.GeneratedAt.IsZero() {
			r.GeneratedAt = at
		}
		return r
	},
	ValidStatus:  func(s string) bool { return model.ReportStatus(s).Valid() },
	ActiveStatus: string(model.ReportGenerated),
	Bounds:       Bounds{Min: 0, Max: 100},
	DefaultKey:   KeyGeneratedAt,
	Keys: map[Key]Accessor[model.Report]{
		KeyTitle:       {Text: func(r model.Report) string { return r.Title }},
		KeyType:        {Text: func(r model.Report) string { return string(r.Type) }},
		KeyStatus:      {Text: func(r model.Report) string { return string(r.Status) }},
		KeyGeneratedAt: {Number: func(r model.Report) float64 { return unix(r.GeneratedAt) }},
		KeyAverage:     {Number: func(r model.Report) float64 { return r.Summary.AverageProductivity }},
		KeyViolations:  {Number: func(r model.Report) float64 { return float64(r.Summary.ViolationsCount) }},
		KeyID:          {Number: func(r model.Report) float64 { return float64(r.ID) }},
	},
	KeyOrder: []Key{KeyGeneratedAt, KeyTitle, KeyType, KeyStatus, KeyAverage, KeyViolations, KeyID},
}

func unix(t time.Time) float64 {
	if t.IsZero() {
		return 0
	}
	return float64(t.UnixNano()) / 1e9
}
