package cmd

import (
	"cmp"
	"slices"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/derickschaefer/workwatch/internal/model"
	"github.com/derickschaefer/workwatch/internal/render"
)

var dashboardRecent int

var dashboardCmd = &cobra.Command{
	Use:   "dashboard",
	Short: "Summary cards for employees, reports and departments",
	Long: `Fetch employees, reports and departments concurrently and print the
summary cards of each page together with the most recent reports.`,
	Example: `  workwatch dashboard
  workwatch dashboard --format json | jq .data.employees`,
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

		emps := deps.EmployeeController()
		reports := deps.ReportController()
		var depts []model.Department

		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error { return emps.Refresh(gctx) })
		g.Go(func() error { return reports.Refresh(gctx) })
		g.Go(func() error {
			var err error
			depts, err = deps.Employees.Departments(gctx)
			return err
		})
		if err := g.Wait(); err != nil {
			return err
		}

		empSummary, _ := emps.Summary()
		repSummary, _ := reports.Summary()
		d := &render.Dashboard{
			Employees:   empSummary,
			Reports:     repSummary,
			Departments: depts,
			Recent:      recentReports(reports.Store().Items(), dashboardRecent),
		}
		total := emps.Store().Len() + reports.Store().Len()
		return emit(cmd, deps, newResult(model.KindDashboard, "dashboard", d, total, total, started))
	},
}

// recentReports returns up to n generated reports, newest first.
func recentReports(all []model.Report, n int) []model.Report {
	out := make([]model.Report, 0, len(all))
	for _, r := range all {
		if r.Status == model.ReportGenerated {
			out = append(out, r)
		}
	}
	slices.SortStableFunc(out, func(a, b model.Report) int {
		return cmp.Compare(b.GeneratedAt.UnixNano(), a.GeneratedAt.UnixNano())
	})
	if n >= 0 && len(out) > n {
		out = out[:n]
	}
	return out
}

func init() {
	rootCmd.AddCommand(dashboardCmd)

	dashboardCmd.Flags().IntVar(&dashboardRecent, "recent", 3, "number of recent reports to show")
}
