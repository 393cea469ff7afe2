package cmd

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/derickschaefer/workwatch/internal/chart"
	"github.com/derickschaefer/workwatch/internal/model"
)

var departmentsCmd = &cobra.Command{
	Use:     "departments",
	Aliases: []string{"dept"},
	Short:   "Inspect departments",
}

var departmentsChart bool

var departmentsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List departments with employee counts and average productivity",
	Long: `List departments. Employee counts and average productivity are recomputed
from the current employee records, so status or roster changes show up
immediately.`,
	Example: `  workwatch departments list
  workwatch departments list --chart`,
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

		depts, err := deps.Employees.Departments(ctx)
		if err != nil {
			return err
		}

		if departmentsChart {
			points := make([]chart.Point, 0, len(depts))
			for _, d := range depts {
				points = append(points, chart.Point{Label: d.Name, Value: d.AverageProductivity})
			}
			return chart.Bar(cmd.OutOrStdout(), "Average productivity by department, %", points, chart.BarOptions{
				Threshold: float64(deps.Config.ViolationThreshold),
			})
		}
		return emit(cmd, deps, newResult(model.KindDepartments, "departments list", depts, len(depts), len(depts), started))
	},
}

func init() {
	rootCmd.AddCommand(departmentsCmd)
	departmentsCmd.AddCommand(departmentsListCmd)

	departmentsListCmd.Flags().BoolVar(&departmentsChart, "chart", false, "draw a bar chart instead of a table")
}
