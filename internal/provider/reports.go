package provider

import (
	"context"
	"fmt"
	"math"
	"slices"
	"strings"

	"github.com/derickschaefer/workwatch/internal/analyze"
	"github.com/derickschaefer/workwatch/internal/entity"
	"github.com/derickschaefer/workwatch/internal/model"
	"github.com/derickschaefer/workwatch/internal/util"
)

// ReportBackend is the storage the report provider reads and writes.
// *store.Store implements it.
type ReportBackend interface {
	ListReports() ([]model.Report, error)
	GetReport(id int) (model.Report, bool, error)
	UpdateReport(id int, fn func(model.Report) model.Report) (bool, error)
	CreateReport(build func(id int) model.Report) (model.Report, error)
	DeleteReport(id int) (bool, error)
	ListTemplates() ([]model.ReportTemplate, error)
	GetTemplate(id int) (model.ReportTemplate, bool, error)
	ListEmployees() ([]model.Employee, error)
}

// Reports is the report provider.
type Reports struct {
	c *Client
	b ReportBackend
}

var _ Provider[model.Report] = (*Reports)(nil)

// NewReports returns a report provider over b.
func NewReports(c *Client, b ReportBackend) *Reports {
	return &Reports{c: c, b: b}
}

// FetchAll returns every report in id order.
func (p *Reports) FetchAll(ctx context.Context) ([]model.Report, error) {
	var out []model.Report
	err := p.c.do(ctx, "reports.fetch_all", func() error {
		var err error
		out, err = p.b.ListReports()
		return err
	})
	return out, err
}

// FetchByID returns one report.
func (p *Reports) FetchByID(ctx context.Context, id int) (model.Report, bool, error) {
	var r model.Report
	var found bool
	err := p.c.do(ctx, "reports.fetch_by_id", func() error {
		var err error
		r, found, err = p.b.GetReport(id)
		return err
	})
	return r, found, err
}

// UpdateStatus sets a report's generation status and stamps UpdatedAt.
func (p *Reports) UpdateStatus(ctx context.Context, id int, status string) (bool, error) {
	if !entity.Reports.ValidStatus(status) {
		return false, fmt.Errorf("%w: %q (want one of %v)", ErrInvalidStatus, status, model.ReportStatuses)
	}
	var ok bool
	err := p.c.do(ctx, "reports.update_status", func() error {
		now := p.c.Now()
		var err error
		ok, err = p.b.UpdateReport(id, func(r model.Report) model.Report {
			r = entity.Reports.WithStatus(r, status, now)
			if r.Status == model.ReportGenerated && r.DownloadURL == "" {
				r.DownloadURL = DownloadPath(r.ID)
			}
			return r
		})
		return err
	})
	return ok, err
}

// Templates returns every report template in id order.
func (p *Reports) Templates(ctx context.Context) ([]model.ReportTemplate, error) {
	var out []model.ReportTemplate
	err := p.c.do(ctx, "templates.fetch_all", func() error {
		var err error
		out, err = p.b.ListTemplates()
		return err
	})
	return out, err
}

// Create generates a report from req. Filters left unset in req are taken
// from the referenced template, if any. The summary is computed from the
// current employees; the trend compares against the most recently
// generated report.
func (p *Reports) Create(ctx context.Context, req model.ReportRequest, generatedBy string) (model.Report, error) {
	var created model.Report
	err := p.c.do(ctx, "reports.create", func() error {
		merged, err := p.resolve(req)
		if err != nil {
			return err
		}
		req = merged
		emps, err := p.b.ListEmployees()
		if err != nil {
			return err
		}
		existing, err := p.b.ListReports()
		if err != nil {
			return err
		}
		now := p.c.Now()
		prev := previousAverage(existing)
		created, err = p.b.CreateReport(func(id int) model.Report {
			f := req.Filters
			return model.Report{
				ID:          id,
				Title:       req.Title,
				Type:        req.Type,
				DateRange:   f.DateRange,
				GeneratedAt: now,
				GeneratedBy: generatedBy,
				Status:      model.ReportGenerated,
				DownloadURL: DownloadPath(id),
				Summary:     analyze.ReportSummary(emps, f, prev),
				Filters:     &f,
				UpdatedAt:   now,
			}
		})
		return err
	})
	if err != nil {
		return model.Report{}, err
	}
	return created, nil
}

// resolve merges template defaults into req and validates the result.
func (p *Reports) resolve(req model.ReportRequest) (model.ReportRequest, error) {
	if req.TemplateID > 0 {
		tpl, ok, err := p.b.GetTemplate(req.TemplateID)
		if err != nil {
			return req, err
		}
		if !ok {
			return req, permanent(fmt.Errorf("%w: template %d", ErrNotFound, req.TemplateID))
		}
		if req.Type == "" {
			req.Type = tpl.Type
		}
		if req.Title == "" {
			req.Title = tpl.Name
		}
		d := tpl.DefaultFilters
		if len(req.Filters.Departments) == 0 {
			req.Filters.Departments = d.Departments
		}
		if req.Filters.DateRange.Start.IsZero() && req.Filters.DateRange.End.IsZero() {
			req.Filters.DateRange = d.DateRange
		}
		if req.Filters.ProductivityThreshold == nil {
			req.Filters.ProductivityThreshold = d.ProductivityThreshold
		}
		req.Filters.IncludeInactive = req.Filters.IncludeInactive || d.IncludeInactive
	}
	if req.Type == "" {
		req.Type = model.ReportCustom
	}
	if !req.Type.Valid() {
		return req, permanent(fmt.Errorf("%w: unknown report type %q", ErrInvalidRequest, req.Type))
	}
	dr := req.Filters.DateRange
	if dr.Start.IsZero() || dr.End.IsZero() {
		return req, permanent(fmt.Errorf("%w: date range requires both start and end", ErrInvalidRequest))
	}
	if dr.End.Before(dr.Start) {
		return req, permanent(fmt.Errorf("%w: date range end %s before start %s",
			ErrInvalidRequest, util.FormatDate(dr.End), util.FormatDate(dr.Start)))
	}
	if t := req.Filters.ProductivityThreshold; t != nil && (*t < 0 || *t > 100) {
		return req, permanent(fmt.Errorf("%w: threshold %d out of range 0-100", ErrInvalidRequest, *t))
	}
	if strings.TrimSpace(req.Title) == "" {
		req.Title = fmt.Sprintf("Отчет за %s..%s", util.FormatDate(dr.Start), util.FormatDate(dr.End))
	}
	return req, nil
}

// Delete removes a report. It returns false if no report has id.
func (p *Reports) Delete(ctx context.Context, id int) (bool, error) {
	var ok bool
	err := p.c.do(ctx, "reports.delete", func() error {
		var err error
		ok, err = p.b.DeleteReport(id)
		return err
	})
	return ok, err
}

// Download returns the download URL of a generated report.
func (p *Reports) Download(ctx context.Context, id int) (string, error) {
	r, found, err := p.FetchByID(ctx, id)
	if err != nil {
		return "", err
	}
	if !found {
		return "", fmt.Errorf("%w: report %d", ErrNotFound, id)
	}
	if r.Status != model.ReportGenerated {
		return "", fmt.Errorf("%w: report %d is %s", ErrNotDownloadable, id, r.Status)
	}
	return DownloadPath(id), nil
}

// DownloadPath is the stub file location of a report.
func DownloadPath(id int) string {
	return fmt.Sprintf("/reports/download/%d/report.pdf", id)
}

// previousAverage returns the average productivity of the most recently
// generated report, or NaN if there is none.
func previousAverage(reports []model.Report) float64 {
	generated := slices.DeleteFunc(slices.Clone(reports), func(r model.Report) bool {
		return r.Status != model.ReportGenerated
	})
	if len(generated) == 0 {
		return math.NaN()
	}
	latest := slices.MaxFunc(generated, func(a, b model.Report) int {
		return a.GeneratedAt.Compare(b.GeneratedAt)
	})
	return latest.Summary.AverageProductivity
}
