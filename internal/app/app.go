// Package app wires together configuration, logging, the local store and the
// providers into a single Deps struct that commands receive at runtime.
package app

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"

	"github.com/derickschaefer/workwatch/internal/config"
	"github.com/derickschaefer/workwatch/internal/controller"
	"github.com/derickschaefer/workwatch/internal/entity"
	"github.com/derickschaefer/workwatch/internal/model"
	"github.com/derickschaefer/workwatch/internal/provider"
	"github.com/derickschaefer/workwatch/internal/seed"
	"github.com/derickschaefer/workwatch/internal/store"
)

// Deps holds all runtime dependencies injected into command Run functions.
// Store and the providers are nil until RequireStore succeeds.
type Deps struct {
	Config    *config.Config
	Log       zerolog.Logger
	Client    *provider.Client
	Store     *store.Store
	Employees *provider.Employees
	Reports   *provider.Reports
}

// New builds a Deps from resolved config. Logs go to stderr.
func New(cfg *config.Config) *Deps {
	log := NewLogger(os.Stderr, cfg)
	client := provider.NewClient(provider.Options{
		Rate:    cfg.Rate,
		Latency: cfg.Latency,
	}, log)
	return &Deps{
		Config: cfg,
		Log:    log,
		Client: client,
	}
}

// NewLogger returns a console logger writing to w. --debug wins over
// --quiet, which wins over the configured log level.
func NewLogger(w io.Writer, cfg *config.Config) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil || cfg.LogLevel == "" {
		level = zerolog.WarnLevel
	}
	switch {
	case cfg.Debug:
		level = zerolog.DebugLevel
	case cfg.Quiet:
		level = zerolog.ErrorLevel
	}
	out := zerolog.ConsoleWriter{Out: w, TimeFormat: time.TimeOnly, NoColor: !isTerminal(w)}
	return zerolog.New(out).Level(level).With().Timestamp().Logger()
}

// RequireStore opens the database at Config.DBPath, seeding it on first use,
// and builds the providers on top of it. Calling it twice is a no-op.
func (d *Deps) RequireStore() error {
	if d.Store != nil {
		return nil
	}
	s, err := store.Open(d.Config.DBPath)
	if err != nil {
		return fmt.Errorf("opening store: %w", err)
	}

	seeded, err := s.Seeded()
	if err != nil {
		s.Close()
		return err
	}
	if !seeded {
		ds, err := seed.LoadFile(d.Config.SeedPath, d.Client.Now())
		if err != nil {
			s.Close()
			return fmt.Errorf("loading seed data: %w", err)
		}
		if err := s.Seed(ds); err != nil {
			s.Close()
			return fmt.Errorf("seeding store: %w", err)
		}
		d.Log.Info().Str("path", d.Config.DBPath).Int("employees", len(ds.Employees)).Msg("seeded store")
	}

	d.Store = s
	d.Employees = provider.NewEmployees(d.Client, s)
	d.Reports = provider.NewReports(d.Client, s)
	return nil
}

// Close releases the store if it was opened.
func (d *Deps) Close() {
	if d.Store != nil {
		if err := d.Store.Close(); err != nil {
			d.Log.Warn().Err(err).Msg("closing store")
		}
		d.Store = nil
	}
}

// EmployeeController returns a controller over the employee provider.
func (d *Deps) EmployeeController() *controller.Controller[model.Employee] {
	return controller.New(entity.Employees, d.Employees,
		controller.WithThreshold[model.Employee](d.Config.ViolationThreshold),
		controller.WithLogger[model.Employee](d.Log))
}

// ReportController returns a controller over the report provider.
func (d *Deps) ReportController() *controller.Controller[model.Report] {
	return controller.New(entity.Reports, d.Reports,
		controller.WithThreshold[model.Report](d.Config.ViolationThreshold),
		controller.WithLogger[model.Report](d.Log))
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && isatty.IsTerminal(f.Fd())
}
