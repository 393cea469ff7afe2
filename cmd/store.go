package cmd

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/derickschaefer/workwatch/internal/pipeline"
	"github.com/derickschaefer/workwatch/internal/seed"
	"github.com/derickschaefer/workwatch/internal/store"
	"github.com/derickschaefer/workwatch/internal/util"
)

var storeCmd = &cobra.Command{
	Use:   "store",
	Short: "Inspect and manage the local dataset",
	Long: `Commands for inspecting, resetting, exporting and importing the local bbolt
database that backs workwatch.

The database is seeded with the demo dataset on first use. Status changes and
generated reports persist until you reset or clear it.`,
}

// ─── store stats ──────────────────────────────────────────────────────────────

var storeStatsCmd = &cobra.Command{
	Use:     "stats",
	Short:   "Show row counts and sizes for each bucket",
	Example: `  workwatch store stats`,
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		deps, err := buildDeps()
		if err != nil {
			return err
		}
		if err := deps.RequireStore(); err != nil {
			return err
		}
		defer deps.Close()

		stats, err := deps.Store.Stats()
		if err != nil {
			return fmt.Errorf("reading store stats: %w", err)
		}
		seededAt, err := deps.Store.SeededAt()
		if err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Database: %s\n", deps.Store.Path())
		if !seededAt.IsZero() {
			fmt.Fprintf(cmd.OutOrStdout(), "Seeded:   %s\n", util.FormatTime(seededAt))
		}
		fmt.Fprintln(cmd.OutOrStdout())
		printSimpleTable(cmd.OutOrStdout(), []string{"BUCKET", "ROWS", "SIZE"}, func(add func(...string)) {
			for _, s := range stats {
				add(s.Name, fmt.Sprintf("%d", s.Count), humanBytes(s.Bytes))
			}
		})
		return nil
	},
}

// ─── store clear ──────────────────────────────────────────────────────────────

var (
	storeClearAll    bool
	storeClearBucket string
)

var storeClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete entries from the local store",
	Long: `Delete entries from one or all buckets.

Clearing all buckets also forgets that the database was seeded, so the next
command reseeds it with the demo dataset.`,
	Example: `  workwatch store clear --all
  workwatch store clear --bucket views`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if !storeClearAll && storeClearBucket == "" {
			return fmt.Errorf("specify --all or --bucket <n>\n\nBuckets: %s", strings.Join(store.AllBuckets, ", "))
		}

		deps, err := buildDeps()
		if err != nil {
			return err
		}
		if err := deps.RequireStore(); err != nil {
			return err
		}
		defer deps.Close()

		if storeClearAll {
			if err := deps.Store.ClearAll(); err != nil {
				return fmt.Errorf("clearing all buckets: %w", err)
			}
			done(cmd, deps, "Cleared all buckets")
			return nil
		}

		if err := deps.Store.ClearBucket(storeClearBucket); err != nil {
			return fmt.Errorf("clearing bucket %q: %w", storeClearBucket, err)
		}
		done(cmd, deps, "Cleared bucket %q", storeClearBucket)
		return nil
	},
}

// ─── store reset ──────────────────────────────────────────────────────────────

var storeResetSeed string

var storeResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Replace the dataset with the seed data (saved views are kept)",
	Example: `  workwatch store reset
  workwatch store reset --seed ./fixtures/team.yaml`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		deps, err := buildDeps()
		if err != nil {
			return err
		}
		if err := deps.RequireStore(); err != nil {
			return err
		}
		defer deps.Close()

		path := storeResetSeed
		if path == "" {
			path = deps.Config.SeedPath
		}
		ds, err := seed.LoadFile(path, deps.Client.Now())
		if err != nil {
			return fmt.Errorf("loading seed data: %w", err)
		}
		if err := deps.Store.Reset(ds); err != nil {
			return fmt.Errorf("resetting store: %w", err)
		}
		done(cmd, deps, "Reset dataset: %d employees, %d reports, %d templates",
			len(ds.Employees), len(ds.Reports), len(ds.Templates))
		return nil
	},
}

// ─── store export ─────────────────────────────────────────────────────────────

var storeExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write all employees as JSONL",
	Example: `  workwatch store export > employees.jsonl
  workwatch store export --out employees.jsonl`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		deps, err := buildDeps()
		if err != nil {
			return err
		}
		if err := deps.RequireStore(); err != nil {
			return err
		}
		defer deps.Close()

		ctx, cancel := commandContext(cmd, deps)
		defer cancel()

		emps, err := deps.Employees.FetchAll(ctx)
		if err != nil {
			return err
		}
		if globalFlags.Out == "" && pipeline.IsTTY() {
			deps.Log.Warn().Msg("writing JSONL to the terminal; redirect or pass --out to save it")
		}
		w, closeFn, err := outputWriter(cmd.OutOrStdout())
		if err != nil {
			return err
		}
		defer closeFn()
		return pipeline.Write(w, emps)
	},
}

// ─── store import ─────────────────────────────────────────────────────────────

var storeImportFile string

var storeImportCmd = &cobra.Command{
	Use:   "import",
	Short: "Insert or replace employees from JSONL",
	Long: `Read employee records as JSONL from stdin (or --file) and write them to
the store, replacing records with the same id. Every invalid line is
reported and nothing is written if any line is invalid.`,
	Example: `  workwatch store import < employees.jsonl
  workwatch store export | jq -c '.productivity = 90' | workwatch store import`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		var r io.Reader = cmd.InOrStdin()
		if storeImportFile != "" {
			f, err := os.Open(storeImportFile)
			if err != nil {
				return fmt.Errorf("opening import file: %w", err)
			}
			defer f.Close()
			r = f
		} else if !pipeline.IsPiped() {
			return fmt.Errorf("no input: pipe JSONL on stdin or pass --file")
		}

		emps, err := pipeline.ReadEmployees(r)
		if err != nil {
			return err
		}

		deps, err := buildDeps()
		if err != nil {
			return err
		}
		if err := deps.RequireStore(); err != nil {
			return err
		}
		defer deps.Close()

		for _, e := range emps {
			if err := deps.Store.PutEmployee(e); err != nil {
				return fmt.Errorf("writing employee %d: %w", e.ID, err)
			}
		}
		done(cmd, deps, "Imported %d employees", len(emps))
		return nil
	},
}

// ─── Registration ─────────────────────────────────────────────────────────────

func init() {
	rootCmd.AddCommand(storeCmd)
	storeCmd.AddCommand(storeStatsCmd)
	storeCmd.AddCommand(storeClearCmd)
	storeCmd.AddCommand(storeResetCmd)
	storeCmd.AddCommand(storeExportCmd)
	storeCmd.AddCommand(storeImportCmd)

	storeClearCmd.Flags().BoolVar(&storeClearAll, "all", false, "clear all buckets")
	storeClearCmd.Flags().StringVar(&storeClearBucket, "bucket", "", "clear one bucket: "+strings.Join(store.AllBuckets, "|"))
	storeResetCmd.Flags().StringVar(&storeResetSeed, "seed", "", "seed YAML file (default: seed_path or the built-in dataset)")
	storeImportCmd.Flags().StringVar(&storeImportFile, "file", "", "read JSONL from this file instead of stdin")
}
