package app_test

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/derickschaefer/workwatch/internal/app"
	"github.com/derickschaefer/workwatch/internal/config"
	"github.com/derickschaefer/workwatch/internal/model"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		Format:             config.DefaultFormat,
		Rate:               1000,
		ViolationThreshold: config.DefaultViolationThreshold,
		LogLevel:           "warn",
		DBPath:             filepath.Join(t.TempDir(), "nested", "workwatch.db"),
	}
}

func TestNewLoggerLevels(t *testing.T) {
	cases := []struct {
		name string
		cfg  config.Config
		want zerolog.Level
	}{
		{"configured", config.Config{LogLevel: "info"}, zerolog.InfoLevel},
		{"invalid falls back to warn", config.Config{LogLevel: "loud"}, zerolog.WarnLevel},
		{"quiet", config.Config{LogLevel: "info", Quiet: true}, zerolog.ErrorLevel},
		{"debug wins over quiet", config.Config{LogLevel: "info", Quiet: true, Debug: true}, zerolog.DebugLevel},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			log := app.NewLogger(&bytes.Buffer{}, &tc.cfg)
			assert.Equal(t, tc.want, log.GetLevel())
		})
	}
}

func TestNewLoggerWritesPlainText(t *testing.T) {
	var buf bytes.Buffer
	log := app.NewLogger(&buf, &config.Config{LogLevel: "info"})
	log.Info().Str("component", "test").Msg("hello")
	assert.Contains(t, buf.String(), "hello")
	assert.NotContains(t, buf.String(), "\x1b[", "no colour codes when not a terminal")
}

func TestRequireStoreSeedsOnce(t *testing.T) {
	cfg := testConfig(t)

	deps := app.New(cfg)
	require.NoError(t, deps.RequireStore())
	require.NotNil(t, deps.Employees)
	require.NoError(t, deps.RequireStore(), "second call is a no-op")

	emps, err := deps.Employees.FetchAll(context.Background())
	require.NoError(t, err)
	require.NotEmpty(t, emps)

	ok, err := deps.Store.UpdateEmployee(emps[0].ID, func(e model.Employee) model.Employee {
		e.Name = "Переименован"
		return e
	})
	require.NoError(t, err)
	require.True(t, ok)
	deps.Close()
	assert.Nil(t, deps.Store)

	// Reopening keeps the change rather than reseeding.
	deps = app.New(cfg)
	require.NoError(t, deps.RequireStore())
	defer deps.Close()
	e, ok, err := deps.Store.GetEmployee(emps[0].ID)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "Переименован", e.Name)
}

func TestControllersUseConfiguredThreshold(t *testing.T) {
	cfg := testConfig(t)
	cfg.ViolationThreshold = 101
	deps := app.New(cfg)
	require.NoError(t, deps.RequireStore())
	defer deps.Close()

	ctl := deps.EmployeeController()
	require.NoError(t, ctl.Refresh(context.Background()))
	sum, ok := ctl.Summary()
	require.True(t, ok)
	assert.Equal(t, 101, sum.Threshold)
	assert.Equal(t, sum.Total, sum.ViolationCount, "every score is below 101")
}
