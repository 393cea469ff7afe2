package cmd

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/derickschaefer/workwatch/internal/entity"
	"github.com/derickschaefer/workwatch/internal/model"
	"github.com/derickschaefer/workwatch/internal/provider"
	"github.com/derickschaefer/workwatch/internal/render"
	"github.com/derickschaefer/workwatch/internal/schedule"
	"github.com/derickschaefer/workwatch/internal/util"
)

var reportsCmd = &cobra.Command{
	Use:   "reports",
	Short: "List, generate and manage productivity reports",
	Long: `Filter and sort productivity reports, generate new ones from the current
employee data, and list report templates with their next scheduled run.

Types:    daily, weekly, monthly, custom
Statuses: generated, pending, failed
Sort keys: generated_at, title, type, status, average, violations, id`,
}

// ─── reports list ─────────────────────────────────────────────────────────────

var reportsFilter = filterFlags{categoryFlag: "type"}

var reportsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List reports matching the filters, with summary cards",
	Example: `  workwatch reports list
  workwatch reports list --type weekly --status generated
  workwatch reports list --from 2024-01-01 --to 2024-01-31 --sort average --desc`,
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

		l, err := runListing(ctx, cmd, deps, deps.ReportController(), entity.Reports, &reportsFilter)
		if err != nil {
			return err
		}
		page := &render.ReportPage{Reports: l.Items, Summary: l.Summary, Filter: l.State}
		result := newResult(model.KindReports, "reports list", page, len(l.Items), l.Total, started)
		result.Warnings = l.Warnings
		return emit(cmd, deps, result)
	},
}

// ─── reports get ──────────────────────────────────────────────────────────────

var reportsGetCmd = &cobra.Command{
	Use:     "get <ID>",
	Short:   "Show one report with its summary",
	Example: `  workwatch reports get 1`,
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		started := time.Now()
		id, err := parseIntID(args[0], "report ID")
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

		r, ok, err := deps.Reports.FetchByID(ctx, id)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("report %d: %w", id, provider.ErrNotFound)
		}
		return emit(cmd, deps, newResult(model.KindReport, "reports get", &r, 1, 1, started))
	},
}

// ─── reports create ───────────────────────────────────────────────────────────

var reportsCreate struct {
	template        int
	title           string
	typ             string
	from            string
	to              string
	departments     []string
	threshold       int
	includeInactive bool
	recipients      []string
}

var reportsCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Generate a report from the current employee data",
	Long: `Generate a report. The summary covers active employees (or all, with
--include-inactive), optionally restricted to some departments, and counts
violations below --threshold (default: the configured violation threshold).

With --template, unset options are taken from the template's defaults.`,
	Example: `  workwatch reports create --type weekly --from 2024-01-08 --to 2024-01-14
  workwatch reports create --template 3
  workwatch reports create --from 2024-01-01 --to 2024-01-31 --department Разработка --threshold 60`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		started := time.Now()
		req, err := reportRequest(cmd.Flags().Changed("threshold"))
		if err != nil {
			return err
		}
		deps, err := buildDeps()
		if err != nil {
			return err
		}
		if req.TemplateID == 0 && req.Filters.ProductivityThreshold == nil {
			threshold := deps.Config.ViolationThreshold
			req.Filters.ProductivityThreshold = &threshold
		}
		if err := deps.RequireStore(); err != nil {
			return err
		}
		defer deps.Close()

		ctx, cancel := commandContext(cmd, deps)
		defer cancel()

		r, err := deps.Reports.Create(ctx, req, deps.Config.Author)
		if err != nil {
			return err
		}
		deps.Log.Info().Int("id", r.ID).Str("type", string(r.Type)).Msg("report generated")
		return emit(cmd, deps, newResult(model.KindReport, "reports create", &r, 1, 1, started))
	},
}

// reportRequest builds a request from the create flags. The threshold is
// only carried when --threshold was given, so 0 stays distinct from unset.
func reportRequest(thresholdSet bool) (model.ReportRequest, error) {
	f := reportsCreate
	req := model.ReportRequest{
		TemplateID: f.template,
		Title:      strings.TrimSpace(f.title),
		Type:       model.ReportType(strings.ToLower(f.typ)),
		Recipients: f.recipients,
		Filters: model.ReportFilters{
			Departments:     f.departments,
			IncludeInactive: f.includeInactive,
		},
	}
	if thresholdSet {
		threshold := f.threshold
		req.Filters.ProductivityThreshold = &threshold
	}
	var err error
	if f.from != "" {
		if req.Filters.DateRange.Start, err = util.ParseDate(f.from); err != nil {
			return req, fmt.Errorf("%w: --from: %w", provider.ErrInvalidRequest, err)
		}
	}
	if f.to != "" {
		if req.Filters.DateRange.End, err = util.ParseDate(f.to); err != nil {
			return req, fmt.Errorf("%w: --to: %w", provider.ErrInvalidRequest, err)
		}
	}
	return req, nil
}

// ─── reports status ───────────────────────────────────────────────────────────

var reportsStatusCmd = &cobra.Command{
	Use:     "status <ID> <STATUS>",
	Short:   "Change a report's status",
	Example: `  workwatch reports status 3 generated`,
	Args:    cobra.ExactArgs(2),
	ValidArgsFunction: func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		if len(args) == 1 {
			return statusNames(model.ReportStatuses), cobra.ShellCompDirectiveNoFileComp
		}
		return nil, cobra.ShellCompDirectiveNoFileComp
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		started := time.Now()
		id, err := parseIntID(args[0], "report ID")
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

		ctl := deps.ReportController()
		if err := ctl.Refresh(ctx); err != nil {
			return err
		}
		if err := ctl.UpdateStatus(ctx, id, status); err != nil {
			return err
		}
		r, _ := ctl.Store().Get(id)
		return emit(cmd, deps, newResult(model.KindReport, "reports status", &r, 1, 1, started))
	},
}

// ─── reports delete ───────────────────────────────────────────────────────────

var reportsDeleteCmd = &cobra.Command{
	Use:     "delete <ID>",
	Short:   "Delete a report",
	Example: `  workwatch reports delete 4`,
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseIntID(args[0], "report ID")
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

		ok, err := deps.Reports.Delete(ctx, id)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("report %d: %w", id, provider.ErrNotFound)
		}
		done(cmd, deps, "Deleted report %d", id)
		return nil
	},
}

// ─── reports download ─────────────────────────────────────────────────────────

var reportsDownloadCmd = &cobra.Command{
	Use:   "download <ID>",
	Short: "Print the download link of a generated report",
	Example: `  workwatch reports download 1
  curl -O "https://dashboard.example.com$(workwatch reports download 1)"`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseIntID(args[0], "report ID")
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

		url, err := deps.Reports.Download(ctx, id)
		if errors.Is(err, provider.ErrNotDownloadable) {
			return fmt.Errorf("%w (generate it first: workwatch reports status %d generated)", err, id)
		}
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), url)
		return nil
	},
}

// ─── reports templates ────────────────────────────────────────────────────────

var reportsTemplatesCmd = &cobra.Command{
	Use:     "templates",
	Short:   "List report templates with their schedule and next run",
	Example: `  workwatch reports templates`,
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

		ctx, cancel := commandContext(cmd, deps)
		defer cancel()

		tpls, err := deps.Reports.Templates(ctx)
		if err != nil {
			return err
		}
		rows, warnings := templateRows(tpls, deps.Client.Now())
		result := newResult(model.KindTemplates, "reports templates", rows, len(rows), len(rows), started)
		result.Warnings = warnings
		return emit(cmd, deps, result)
	},
}

// templateRows pairs each template with its cron spec and next run after
// now. A malformed schedule becomes a warning; the template is still listed.
func templateRows(tpls []model.ReportTemplate, now time.Time) ([]render.TemplateRow, []string) {
	rows := make([]render.TemplateRow, 0, len(tpls))
	var warnings []string
	for _, t := range tpls {
		row := render.TemplateRow{Template: t}
		spec, err := schedule.Spec(t.Schedule)
		switch {
		case errors.Is(err, schedule.ErrDisabled):
		case err != nil:
			warnings = append(warnings, fmt.Sprintf("template %d: %v", t.ID, err))
		default:
			row.Cron = spec
			if next, err := schedule.NextRun(t.Schedule, now); err == nil {
				row.NextRun = &next
			}
		}
		rows = append(rows, row)
	}
	return rows, warnings
}

// ─── Registration ─────────────────────────────────────────────────────────────

func init() {
	rootCmd.AddCommand(reportsCmd)
	reportsCmd.AddCommand(reportsListCmd)
	reportsCmd.AddCommand(reportsGetCmd)
	reportsCmd.AddCommand(reportsCreateCmd)
	reportsCmd.AddCommand(reportsStatusCmd)
	reportsCmd.AddCommand(reportsDeleteCmd)
	reportsCmd.AddCommand(reportsDownloadCmd)
	reportsCmd.AddCommand(reportsTemplatesCmd)

	reportsFilter.register(reportsListCmd,
		"keep only this report type: daily|weekly|monthly|custom",
		"sort key: generated_at|title|type|status|average|violations|id",
		true)

	f := reportsCreateCmd.Flags()
	f.IntVar(&reportsCreate.template, "template", 0, "start from a report template (ID)")
	f.StringVar(&reportsCreate.title, "title", "", "report title (default: derived from the period)")
	f.StringVar(&reportsCreate.typ, "type", "", "report type: daily|weekly|monthly|custom (default: custom)")
	f.StringVar(&reportsCreate.from, "from", "", "period start YYYY-MM-DD")
	f.StringVar(&reportsCreate.to, "to", "", "period end YYYY-MM-DD")
	f.StringSliceVar(&reportsCreate.departments, "department", nil, "restrict to these departments (repeatable)")
	f.IntVar(&reportsCreate.threshold, "threshold", 0, "violation threshold 0-100")
	f.BoolVar(&reportsCreate.includeInactive, "include-inactive", false, "include inactive employees")
	f.StringSliceVar(&reportsCreate.recipients, "recipient", nil, "recipient email (repeatable, recorded only)")
}
