package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/derickschaefer/workwatch/internal/analyze"
	"github.com/derickschaefer/workwatch/internal/chart"
	"github.com/derickschaefer/workwatch/internal/entity"
	"github.com/derickschaefer/workwatch/internal/model"
	"github.com/derickschaefer/workwatch/internal/provider"
	"github.com/derickschaefer/workwatch/internal/render"
	"github.com/derickschaefer/workwatch/internal/util"
)

var employeesCmd = &cobra.Command{
	Use:     "employees",
	Aliases: []string{"emp"},
	Short:   "List, filter and update monitored employees",
	Long: `Filter and sort employees by name, department, status, productivity and
last activity, and change an employee's status.

Statuses: online, away, busy, offline
Sort keys: name, productivity, department, status, last_activity, id`,
}

// ─── employees list ───────────────────────────────────────────────────────────

var (
	employeesFilter = filterFlags{categoryFlag: "department"}
	employeesChart  bool
)

var employeesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List employees matching the filters, with summary cards",
	Example: `  workwatch employees list
  workwatch employees list --status online --status busy
  workwatch employees list --department Разработка --sort productivity --desc
  workwatch employees list --max 49 --format csv
  workwatch employees list --view slackers --chart`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		started := time.Now()
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

		l, err := runListing(ctx, cmd, deps, deps.EmployeeController(), entity.Employees, &employeesFilter)
		if err != nil {
			return err
		}

		if employeesChart {
			points := make([]chart.Point, len(l.Items))
			for i, e := range l.Items {
				points[i] = chart.Point{Label: e.Name, Value: float64(e.Productivity)}
			}
			if len(points) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No employees match the current filters.")
				return nil
			}
			return chart.Bar(cmd.OutOrStdout(), "Productivity, %", points, chart.BarOptions{
				Threshold: float64(l.Summary.Threshold),
			})
		}

		page := &render.EmployeePage{Employees: l.Items, Summary: l.Summary, Filter: l.State}
		result := newResult(model.KindEmployees, "employees list", page, len(l.Items), l.Total, started)
		result.Warnings = l.Warnings
		return emit(cmd, deps, result)
	},
}

// ─── employees get ────────────────────────────────────────────────────────────

var employeesGetCmd = &cobra.Command{
	Use:     "get <ID>",
	Short:   "Show one employee",
	Example: `  workwatch employees get 1`,
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		started := time.Now()
		id, err := parseIntID(args[0], "employee ID")
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

		ctx, cancel := commandContext(cmd, deps)
		defer cancel()

		e, ok, err := deps.Employees.FetchByID(ctx, id)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("employee %d: %w", id, provider.ErrNotFound)
		}
		return emit(cmd, deps, newResult(model.KindEmployee, "employees get", &e, 1, 1, started))
	},
}

// ─── employees status ─────────────────────────────────────────────────────────

var employeesStatusCmd = &cobra.Command{
	Use:   "status <ID> <STATUS>",
	Short: "Change an employee's status",
	Example: `  workwatch employees status 3 busy
  workwatch employees status 7 online`,
	Args: cobra.ExactArgs(2),
	ValidArgsFunction: func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		if len(args) == 1 {
			return statusNames(model.EmployeeStatuses), cobra.ShellCompDirectiveNoFileComp
		}
		return nil, cobra.ShellCompDirectiveNoFileComp
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		started := time.Now()
		id, err := parseIntID(args[0], "employee ID")
		if err != nil {
			return err
		}
		status := strings.ToLower(args[1])

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

		ctl := deps.EmployeeController()
		if err := ctl.Refresh(ctx); err != nil {
			return err
		}
		if err := ctl.UpdateStatus(ctx, id, status); err != nil {
			return err
		}
		e, _ := ctl.Store().Get(id)
		deps.Log.Debug().Int("id", id).Str("status", status).Msg("employee status updated")
		return emit(cmd, deps, newResult(model.KindEmployee, "employees status", &e, 1, 1, started))
	},
}

// ─── employees activity ───────────────────────────────────────────────────────

var employeesActivityDate string

var employeesActivityCmd = &cobra.Command{
	Use:   "activity <ID>",
	Short: "Show an employee's activity log with time per activity type",
	Example: `  workwatch employees activity 1
  workwatch employees activity 1 --date 2024-01-15`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		started := time.Now()
		id, err := parseIntID(args[0], "employee ID")
		if err != nil {
			return err
		}
		var day time.Time
		if employeesActivityDate != "" {
			if day, err = util.ParseDate(employeesActivityDate); err != nil {
				return fmt.Errorf("--date: %w", err)
			}
		}

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

		if _, ok, err := deps.Employees.FetchByID(ctx, id); err != nil {
			return err
		} else if !ok {
			return fmt.Errorf("employee %d: %w", id, provider.ErrNotFound)
		}
		acts, err := deps.Employees.Activities(ctx, id, day)
		if err != nil {
			return err
		}
		activity := &render.ActivityLog{
			EmployeeID: id,
			Day:        util.FormatDate(day),
			Activities: acts,
			Breakdown:  analyze.ActivityBreakdown(acts),
		}
		return emit(cmd, deps, newResult(model.KindActivities, "employees activity", activity, len(acts), len(acts), started))
	},
}

// ─── employees stats ──────────────────────────────────────────────────────────

var employeesStatsCmd = &cobra.Command{
	Use:     "stats <ID>",
	Short:   "Show an employee's daily statistics",
	Example: `  workwatch employees stats 1`,
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		started := time.Now()
		id, err := parseIntID(args[0], "employee ID")
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

		ctx, cancel := commandContext(cmd, deps)
		defer cancel()

		stats, err := deps.Employees.Stats(ctx, id)
		if err != nil {
			return err
		}
		result := newResult(model.KindStats, "employees stats", stats, len(stats), len(stats), started)
		if err := emit(cmd, deps, result); err != nil {
			return err
		}
		if len(stats) > 1 && resolveFormat(deps.Config.Format) == render.FormatTable && !deps.Config.Quiet {
			scores := make([]float64, len(stats))
			for i, s := range stats {
				scores[i] = float64(s.ProductivityScore)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "\nScore trend  %s\n", chart.Spark(scores, 100))
		}
		return nil
	},
}

// ─── Registration ─────────────────────────────────────────────────────────────

func init() {
	rootCmd.AddCommand(employeesCmd)
	employeesCmd.AddCommand(employeesListCmd)
	employeesCmd.AddCommand(employeesGetCmd)
	employeesCmd.AddCommand(employeesStatusCmd)
	employeesCmd.AddCommand(employeesActivityCmd)
	employeesCmd.AddCommand(employeesStatsCmd)

	employeesFilter.register(employeesListCmd,
		"keep only this department (exact match)",
		"sort key: name|productivity|department|status|last_activity|id",
		true)
	employeesListCmd.Flags().BoolVar(&employeesChart, "chart", false, "draw a productivity bar chart instead of a table")

	employeesActivityCmd.Flags().StringVar(&employeesActivityDate, "date", "", "only this day YYYY-MM-DD")
}

// statusNames converts a typed status list for shell completion.
func statusNames[S ~string](statuses []S) []string {
	out := make([]string, len(statuses))
	for i, s := range statuses {
		out[i] = string(s)
	}
	return out
}
