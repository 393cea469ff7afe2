package provider

import (
	"context"
	"fmt"
	"time"

	"github.com/derickschaefer/workwatch/internal/analyze"
	"github.com/derickschaefer/workwatch/internal/entity"
	"github.com/derickschaefer/workwatch/internal/model"
	"github.com/derickschaefer/workwatch/internal/util"
)

// EmployeeBackend is the storage the employee provider reads and writes.
// *store.Store implements it.
type EmployeeBackend interface {
	ListEmployees() ([]model.Employee, error)
	GetEmployee(id int) (model.Employee, bool, error)
	UpdateEmployee(id int, fn func(model.Employee) model.Employee) (bool, error)
	ListDepartments() ([]model.Department, error)
	ListActivities(employeeID int) ([]model.Activity, error)
	ListStats(employeeID int) ([]model.EmployeeStats, error)
}

// Employees is the employee provider.
type Employees struct {
	c *Client
	b EmployeeBackend
}

var _ Provider[model.Employee] = (*Employees)(nil)

// NewEmployees returns an employee provider over b.
func NewEmployees(c *Client, b EmployeeBackend) *Employees {
	return &Employees{c: c, b: b}
}

// FetchAll returns every employee in id order.
func (p *Employees) FetchAll(ctx context.Context) ([]model.Employee, error) {
	var out []model.Employee
	err := p.c.do(ctx, "employees.fetch_all", func() error {
		var err error
		out, err = p.b.ListEmployees()
		return err
	})
	return out, err
}

// FetchByID returns one employee.
func (p *Employees) FetchByID(ctx context.Context, id int) (model.Employee, bool, error) {
	var e model.Employee
	var found bool
	err := p.c.do(ctx, "employees.fetch_by_id", func() error {
		var err error
		e, found, err = p.b.GetEmployee(id)
		return err
	})
	return e, found, err
}

// UpdateStatus sets an employee's presence status and stamps LastActivity.
func (p *Employees) UpdateStatus(ctx context.Context, id int, status string) (bool, error) {
	if !entity.Employees.ValidStatus(status) {
		return false, fmt.Errorf("%w: %q (want one of %v)", ErrInvalidStatus, status, model.EmployeeStatuses)
	}
	var ok bool
	err := p.c.do(ctx, "employees.update_status", func() error {
		now := p.c.Now()
		var err error
		ok, err = p.b.UpdateEmployee(id, func(e model.Employee) model.Employee {
			return entity.Employees.WithStatus(e, status, now)
		})
		return err
	})
	return ok, err
}

// Departments lists departments with employee counts and average
// productivity recomputed from the current employees.
func (p *Employees) Departments(ctx context.Context) ([]model.Department, error) {
	var emps []model.Employee
	var known []model.Department
	err := p.c.do(ctx, "departments.fetch_all", func() error {
		var err error
		if emps, err = p.b.ListEmployees(); err != nil {
			return err
		}
		known, err = p.b.ListDepartments()
		return err
	})
	if err != nil {
		return nil, err
	}
	return analyze.Departments(emps, known), nil
}

// Activities returns an employee's activity log. A non-zero day restricts
// it to that calendar day.
func (p *Employees) Activities(ctx context.Context, employeeID int, day time.Time) ([]model.Activity, error) {
	var acts []model.Activity
	err := p.c.do(ctx, "activities.fetch", func() error {
		var err error
		acts, err = p.b.ListActivities(employeeID)
		return err
	})
	if err != nil || day.IsZero() {
		return acts, err
	}
	from := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC)
	to := util.EndOfDay(from)
	out := acts[:0]
	for _, a := range acts {
		ts := a.Timestamp.UTC()
		if !ts.Before(from) && !ts.After(to) {
			out = append(out, a)
		}
	}
	return out, nil
}

// Stats returns an employee's daily rollups in date order.
func (p *Employees) Stats(ctx context.Context, employeeID int) ([]model.EmployeeStats, error) {
	var out []model.EmployeeStats
	err := p.c.do(ctx, "stats.fetch", func() error {
		var err error
		out, err = p.b.ListStats(employeeID)
		return err
	})
	return out, err
}
