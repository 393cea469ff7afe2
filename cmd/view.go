package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/derickschaefer/workwatch/internal/app"
	"github.com/derickschaefer/workwatch/internal/entity"
	"github.com/derickschaefer/workwatch/internal/model"
	"github.com/derickschaefer/workwatch/internal/store"
	"github.com/derickschaefer/workwatch/internal/util"
	"github.com/derickschaefer/workwatch/internal/view"
)

var viewCmd = &cobra.Command{
	Use:   "view",
	Short: "Save and reuse named filter views",
	Long: `Saved views store a complete filter and sort selection for employees or
reports, so the same slice of data can be listed again later.

  workwatch view save employees slackers --max 49 --sort productivity
  workwatch view list
  workwatch employees list --view slackers`,
}

// ─── view save ────────────────────────────────────────────────────────────────

var viewSaveCmd = &cobra.Command{
	Use:   "save",
	Short: "Save a filter view",
}

var viewSaveEmployeesFilter = filterFlags{categoryFlag: "department"}

var viewSaveEmployeesCmd = &cobra.Command{
	Use:   "employees <NAME>",
	Short: "Save an employee filter view",
	Example: `  workwatch view save employees slackers --max 49
  workwatch view save employees dev-online --department Разработка --status online`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := buildState(cmd.Flags(), &viewSaveEmployeesFilter, entity.Employees, view.NewState(entity.Employees))
		if err != nil {
			return err
		}
		return saveView(cmd, args[0], entity.Employees.Kind, st)
	},
}

var viewSaveReportsFilter = filterFlags{categoryFlag: "type"}

var viewSaveReportsCmd = &cobra.Command{
	Use:     "reports <NAME>",
	Short:   "Save a report filter view",
	Example: `  workwatch view save reports weekly-ok --type weekly --status generated`,
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := buildState(cmd.Flags(), &viewSaveReportsFilter, entity.Reports, view.NewState(entity.Reports))
		if err != nil {
			return err
		}
		return saveView(cmd, args[0], entity.Reports.Kind, st)
	},
}

func saveView(cmd *cobra.Command, name, kind string, st view.State) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("view name must not be empty")
	}
	deps, err := buildDeps()
	if err != nil {
		return err
	}
	if err := deps.RequireStore(); err != nil {
		return err
	}
	defer deps.Close()

	if _, ok, err := deps.Store.FindView(name); err != nil {
		return fmt.Errorf("reading saved views: %w", err)
	} else if ok {
		return fmt.Errorf("a view named %q already exists (delete it first)", name)
	}

	v := store.View{
		ID:        uuid.NewString(),
		Name:      name,
		Entity:    kind,
		State:     st,
		CreatedAt: time.Now().UTC(),
	}
	if err := deps.Store.PutView(v); err != nil {
		return fmt.Errorf("saving view: %w", err)
	}
	done(cmd, deps, "Saved view %s  (%s: %s)", v.ID, v.Name, v.State)
	return nil
}

// ─── view list ────────────────────────────────────────────────────────────────

var viewListCmd = &cobra.Command{
	Use:     "list",
	Short:   "List all saved views",
	Example: `  workwatch view list`,
	Args:    cobra.NoArgs,
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

		views, err := deps.Store.ListViews()
		if err != nil {
			return fmt.Errorf("listing views: %w", err)
		}
		if len(views) == 0 && resolveFormat(deps.Config.Format) == "table" {
			fmt.Fprintln(cmd.OutOrStdout(), "No saved views.")
			fmt.Fprintln(cmd.OutOrStdout(), "  Use: workwatch view save employees <name> [filters]")
			return nil
		}
		return emit(cmd, deps, newResult(model.KindViews, "view list", views, len(views), len(views), started))
	},
}

// ─── view show ────────────────────────────────────────────────────────────────

var viewShowCmd = &cobra.Command{
	Use:     "show <NAME|ID>",
	Short:   "Show full details of a saved view",
	Example: `  workwatch view show slackers`,
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		deps, err := buildDeps()
		if err != nil {
			return err
		}
		if err := deps.RequireStore(); err != nil {
			return err
		}
		defer deps.Close()

		v, err := findView(deps, args[0])
		if err != nil {
			return err
		}

		st := v.State
		dates := func(t time.Time) string {
			if t.IsZero() {
				return "(open)"
			}
			return util.FormatDate(t)
		}
		printSimpleTable(cmd.OutOrStdout(), []string{"FIELD", "VALUE"}, func(add func(...string)) {
			add("ID", v.ID)
			add("Name", v.Name)
			add("Entity", v.Entity)
			add("Search", st.Search)
			add("Category", st.Category)
			add("Statuses", strings.Join(st.Statuses, ", "))
			add("Range", fmt.Sprintf("%g..%g", st.Range.Min, st.Range.Max))
			add("From", dates(st.Dates.From))
			add("To", dates(st.Dates.To))
			add("Sort", fmt.Sprintf("%s %s", st.SortKey, st.Direction))
			add("Created", v.CreatedAt.Format(time.RFC3339))
		})
		return nil
	},
}

// ─── view delete ──────────────────────────────────────────────────────────────

var viewDeleteCmd = &cobra.Command{
	Use:     "delete <NAME|ID>",
	Short:   "Delete a saved view",
	Example: `  workwatch view delete slackers`,
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		deps, err := buildDeps()
		if err != nil {
			return err
		}
		if err := deps.RequireStore(); err != nil {
			return err
		}
		defer deps.Close()

		v, err := findView(deps, args[0])
		if err != nil {
			return err
		}
		if err := deps.Store.DeleteView(v.ID); err != nil {
			return fmt.Errorf("deleting view: %w", err)
		}
		done(cmd, deps, "Deleted view %s  (%s)", v.ID, v.Name)
		return nil
	},
}

// findView resolves ref as an id, a name, or a unique id prefix.
func findView(deps *app.Deps, ref string) (store.View, error) {
	v, ok, err := deps.Store.FindView(ref)
	if err != nil {
		return v, fmt.Errorf("reading view: %w", err)
	}
	if ok {
		return v, nil
	}
	views, err := deps.Store.ListViews()
	if err != nil {
		return v, fmt.Errorf("reading views: %w", err)
	}
	var matches []store.View
	for _, c := range views {
		if strings.HasPrefix(c.ID, ref) {
			matches = append(matches, c)
		}
	}
	switch len(matches) {
	case 1:
		return matches[0], nil
	case 0:
		return v, fmt.Errorf("view %q not found", ref)
	default:
		return v, fmt.Errorf("view id prefix %q is ambiguous (%d matches)", ref, len(matches))
	}
}

// ─── Registration ─────────────────────────────────────────────────────────────

func init() {
	rootCmd.AddCommand(viewCmd)
	viewCmd.AddCommand(viewSaveCmd)
	viewCmd.AddCommand(viewListCmd)
	viewCmd.AddCommand(viewShowCmd)
	viewCmd.AddCommand(viewDeleteCmd)
	viewSaveCmd.AddCommand(viewSaveEmployeesCmd)
	viewSaveCmd.AddCommand(viewSaveReportsCmd)

	viewSaveEmployeesFilter.register(viewSaveEmployeesCmd,
		"keep only this department (exact match)",
		"sort key: name|productivity|department|status|last_activity|id",
		false)
	viewSaveReportsFilter.register(viewSaveReportsCmd,
		"keep only this report type: daily|weekly|monthly|custom",
		"sort key: generated_at|title|type|status|average|violations|id",
		false)
}
