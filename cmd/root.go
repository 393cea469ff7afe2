// Package cmd implements the workwatch CLI command tree.
// This file defines the root command and registers all global persistent flags.
package cmd

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/derickschaefer/workwatch/internal/app"
	"github.com/derickschaefer/workwatch/internal/config"
	"github.com/derickschaefer/workwatch/internal/provider"
	"github.com/derickschaefer/workwatch/internal/view"
)

// globalFlags holds the parsed values of all persistent (global) flags.
// Commands read from this struct via the deps they receive.
var globalFlags struct {
	DB      string
	Format  string
	Out     string
	Timeout string
	Rate    float64
	Latency string
	Quiet   bool
	Verbose bool
	Debug   bool
}

// rootCmd is the base command. Running `workwatch` with no subcommand
// prints help.
var rootCmd = &cobra.Command{
	Use:   "workwatch",
	Short: "workwatch: employee monitoring dashboard for the terminal",
	Long: `workwatch filters, sorts and summarizes employee activity and productivity
reports from a local dataset.

The dataset lives in a bbolt database (default ~/.workwatch/workwatch.db) and is
seeded with demo data on first use.

Quick start:
  workwatch dashboard                          # summary cards for every page
  workwatch employees list --status online     # filter employees
  workwatch employees list --max 50 --sort productivity
  workwatch reports create --template 1        # generate a report`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute is the entry point called by main.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(exitCode(err))
	}
}

// exitCode maps domain errors to process exit codes.
func exitCode(err error) int {
	switch {
	case errors.Is(err, view.ErrInvalidFilterState), errors.Is(err, provider.ErrInvalidRequest),
		errors.Is(err, provider.ErrInvalidStatus), errors.Is(err, config.ErrUnknownKey):
		return 2
	case errors.Is(err, provider.ErrUnavailable):
		return 3
	default:
		return 1
	}
}

// buildDeps resolves config and constructs the dependency container.
// Called at the start of each command's RunE.
func buildDeps() (*app.Deps, error) {
	cfg, err := config.Load(globalFlags.DB)
	if err != nil {
		return nil, err
	}

	// Apply CLI flag overrides
	cfg.Quiet = globalFlags.Quiet
	cfg.Verbose = globalFlags.Verbose
	cfg.Debug = globalFlags.Debug

	if globalFlags.Format != "" {
		cfg.Format = globalFlags.Format
	}
	if globalFlags.Timeout != "" {
		d, err := time.ParseDuration(globalFlags.Timeout)
		if err != nil {
			return nil, fmt.Errorf("--timeout: %w", err)
		}
		cfg.Timeout = d
	}
	if globalFlags.Rate > 0 {
		cfg.Rate = globalFlags.Rate
	}
	if globalFlags.Latency != "" {
		d, err := time.ParseDuration(globalFlags.Latency)
		if err != nil {
			return nil, fmt.Errorf("--latency: %w", err)
		}
		cfg.Latency = d
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return app.New(cfg), nil
}

func init() {
	pf := rootCmd.PersistentFlags()

	pf.StringVar(&globalFlags.DB, "db", "",
		"database path (overrides env WORKWATCH_DB_PATH and config.json)")
	pf.StringVar(&globalFlags.Format, "format", "",
		"output format: table|json|jsonl|csv|tsv|md (default: table)")
	pf.StringVar(&globalFlags.Out, "out", "",
		"write output to file instead of stdout")
	pf.StringVar(&globalFlags.Timeout, "timeout", "",
		"per-command timeout (e.g. 30s, 2m)")
	pf.Float64Var(&globalFlags.Rate, "rate", 0,
		"max provider calls per second (default: 20)")
	pf.StringVar(&globalFlags.Latency, "latency", "",
		"simulated provider latency per call (e.g. 300ms)")
	pf.BoolVar(&globalFlags.Quiet, "quiet", false,
		"suppress all non-error output")
	pf.BoolVar(&globalFlags.Verbose, "verbose", false,
		"show timing stats after output")
	pf.BoolVar(&globalFlags.Debug, "debug", false,
		"log provider calls and store changes")
}
