package seed_test

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/derickschaefer/workwatch/internal/model"
	"github.com/derickschaefer/workwatch/internal/seed"
)

var now = time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)

func TestDefaultDataset(t *testing.T) {
	ds, err := seed.Default(now)
	require.NoError(t, err)

	assert.Len(t, ds.Employees, 8)
	assert.Len(t, ds.Departments, 5)
	assert.Len(t, ds.Activities, 10)
	assert.Len(t, ds.Stats, 1)
	assert.Len(t, ds.Reports, 4)
	assert.Len(t, ds.Templates, 3)

	alexei := ds.Employees[2]
	assert.Equal(t, "Алексей Иванов", alexei.Name)
	assert.Equal(t, model.StatusAway, alexei.Status)
	assert.Equal(t, now.Add(-time.Hour), alexei.LastActivity)
	assert.Equal(t, now, ds.Employees[0].LastActivity)
	assert.Equal(t, time.Date(2023, 1, 10, 0, 0, 0, 0, time.UTC), alexei.HireDate)
}

func TestDefaultReports(t *testing.T) {
	ds, err := seed.Default(now)
	require.NoError(t, err)

	monthly := ds.Reports[2]
	assert.Equal(t, model.ReportMonthly, monthly.Type)
	assert.Equal(t, model.ReportPending, monthly.Status)
	assert.Empty(t, monthly.DownloadURL)
	assert.Equal(t, 31, monthly.DateRange.End.Day())

	custom := ds.Reports[3]
	require.NotNil(t, custom.Filters)
	assert.Equal(t, []string{"Разработка"}, custom.Filters.Departments)
	assert.Len(t, custom.Summary.TopDepartments, 3)
	assert.Equal(t, custom.GeneratedAt, custom.UpdatedAt)
}

func TestDefaultTemplates(t *testing.T) {
	ds, err := seed.Default(now)
	require.NoError(t, err)

	weekly := ds.Templates[1]
	require.NotNil(t, weekly.Schedule)
	assert.Equal(t, "weekly", weekly.Schedule.Frequency)
	assert.Equal(t, time.Date(2024, 3, 3, 0, 0, 0, 0, time.UTC), weekly.DefaultFilters.DateRange.Start)
	assert.Equal(t, time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC), weekly.DefaultFilters.DateRange.End)

	violations := ds.Templates[2]
	assert.Nil(t, violations.Schedule)
	require.NotNil(t, violations.DefaultFilters.ProductivityThreshold)
	assert.Equal(t, 60, *violations.DefaultFilters.ProductivityThreshold)
	assert.Nil(t, ds.Templates[1].DefaultFilters.ProductivityThreshold)
	assert.True(t, violations.DefaultFilters.IncludeInactive)
}

func TestLoadRejectsBadRecords(t *testing.T) {
	cases := map[string]string{
		"unknown status":  "employees:\n  - {id: 1, status: sleeping, hire_date: \"2020-01-01\"}\n",
		"score range":     "employees:\n  - {id: 1, status: online, productivity: 140, hire_date: \"2020-01-01\"}\n",
		"duplicate id":    "employees:\n  - {id: 1, status: online, hire_date: \"2020-01-01\"}\n  - {id: 1, status: away, hire_date: \"2020-01-01\"}\n",
		"bad idle":        "employees:\n  - {id: 1, status: online, idle: soon, hire_date: \"2020-01-01\"}\n",
		"unknown field":   "employees:\n  - {id: 1, status: online, salary: 10}\n",
		"inverted report": "reports:\n  - {id: 1, type: daily, status: generated, start: \"2024-01-15\", end: \"2024-01-01\", generated_at: \"2024-01-15\"}\n",
	}
	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := seed.Load(strings.NewReader(doc), now)
			assert.Error(t, err)
		})
	}
}

func TestLoadFileEmptyPathIsDefault(t *testing.T) {
	ds, err := seed.LoadFile("", now)
	require.NoError(t, err)
	assert.Len(t, ds.Employees, 8)
}
