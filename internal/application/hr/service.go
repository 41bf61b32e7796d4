// Package hr implements departments, employees, attendance, leave and payroll.
package hr

import (
	"context"
	"errors"
	"time"

	"github.com/drymix/erp/internal/domain/hr"
	"github.com/drymix/erp/internal/domain/shared"
	"github.com/drymix/erp/internal/infrastructure/logger"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Deps are the collaborators of the hr Service
type Deps struct {
	Departments hr.DepartmentRepository
	Employees   hr.EmployeeRepository
	Attendance  hr.AttendanceRepository
	Leaves      hr.LeaveRepository
	Components  hr.SalaryComponentRepository
	Payroll     hr.PayrollRepository
	Tx          shared.TxManager
}

// Service runs the hr use cases
type Service struct {
	Deps
	now func() time.Time
}

// NewService creates a new hr Service
func NewService(deps Deps) *Service {
	return &Service{Deps: deps, now: time.Now}
}

// CreateDepartment adds a department with a unique code
func (s *Service) CreateDepartment(ctx context.Context, orgID uuid.UUID, req DepartmentRequest) (*hr.Department, error) {
	d, err := hr.NewDepartment(orgID, req.Code, req.Name, req.Description)
	if err != nil {
		return nil, err
	}
	exists, err := s.Departments.CodeExists(ctx, orgID, d.Code)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, shared.Errorf(shared.ErrAlreadyExists, "department code %s is already in use", d.Code)
	}
	d.CreatedBy = shared.ActorFrom(ctx)
	if err := s.Departments.Create(ctx, d); err != nil {
		return nil, err
	}
	return d, nil
}

// GetDepartment returns one department
func (s *Service) GetDepartment(ctx context.Context, orgID, id uuid.UUID) (*hr.Department, error) {
	return s.Departments.FindByID(ctx, orgID, id)
}

// ListDepartments returns a page of departments
func (s *Service) ListDepartments(ctx context.Context, orgID uuid.UUID, filter shared.Filter) (shared.Paginated[hr.Department], error) {
	items, total, err := s.Departments.List(ctx, orgID, filter)
	if err != nil {
		return shared.Paginated[hr.Department]{}, err
	}
	return page(items, total, filter), nil
}

// UpdateDepartment renames a department
func (s *Service) UpdateDepartment(ctx context.Context, orgID, id uuid.UUID, req DepartmentRequest) (*hr.Department, error) {
	d, err := s.Departments.FindByID(ctx, orgID, id)
	if err != nil {
		return nil, err
	}
	if req.Version != 0 && d.Version != req.Version {
		return nil, shared.ErrConcurrencyConflict
	}
	if err := d.Rename(req.Name, req.Description); err != nil {
		return nil, err
	}
	if err := s.Departments.Update(ctx, d); err != nil {
		return nil, err
	}
	return d, nil
}

// DeleteDepartment removes a department nobody belongs to
func (s *Service) DeleteDepartment(ctx context.Context, orgID, id uuid.UUID) error {
	busy, err := s.Departments.HasEmployees(ctx, orgID, id)
	if err != nil {
		return err
	}
	if busy {
		return shared.Errorf(shared.ErrInvalidState, "department still has employees")
	}
	return s.Departments.Delete(ctx, orgID, id)
}

// CreateEmployee adds an active employee
func (s *Service) CreateEmployee(ctx context.Context, orgID uuid.UUID, req EmployeeRequest) (*hr.Employee, error) {
	d, err := req.details()
	if err != nil {
		return nil, err
	}
	e, err := hr.NewEmployee(orgID, req.EmployeeCode, d)
	if err != nil {
		return nil, err
	}
	if err := s.checkDepartment(ctx, orgID, e.DepartmentID); err != nil {
		return nil, err
	}
	exists, err := s.Employees.CodeExists(ctx, orgID, e.EmployeeCode)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, shared.Errorf(shared.ErrAlreadyExists, "employee code %s is already in use", e.EmployeeCode)
	}
	e.CreatedBy = shared.ActorFrom(ctx)
	if err := s.Employees.Create(ctx, e); err != nil {
		return nil, err
	}
	logger.L(ctx).Info("employee created",
		zap.String("employee_id", e.ID.String()),
		zap.String("employee_code", e.EmployeeCode))
	return e, nil
}

func (s *Service) checkDepartment(ctx context.Context, orgID uuid.UUID, id *uuid.UUID) error {
	if id == nil {
		return nil
	}
	_, err := s.Departments.FindByID(ctx, orgID, *id)
	return shared.AsReference(err, "department")
}

// GetEmployee returns one employee
func (s *Service) GetEmployee(ctx context.Context, orgID, id uuid.UUID) (*hr.Employee, error) {
	return s.Employees.FindByID(ctx, orgID, id)
}

// ListEmployees returns a page of employees
func (s *Service) ListEmployees(ctx context.Context, orgID uuid.UUID, filter shared.Filter) (shared.Paginated[hr.Employee], error) {
	items, total, err := s.Employees.List(ctx, orgID, filter)
	if err != nil {
		return shared.Paginated[hr.Employee]{}, err
	}
	return page(items, total, filter), nil
}

// UpdateEmployee replaces the editable attributes of an employee
func (s *Service) UpdateEmployee(ctx context.Context, orgID, id uuid.UUID, req EmployeeRequest) (*hr.Employee, error) {
	d, err := req.details()
	if err != nil {
		return nil, err
	}
	if err := s.checkDepartment(ctx, orgID, d.DepartmentID); err != nil {
		return nil, err
	}
	return s.employee(ctx, orgID, id, req.Version, func(e *hr.Employee) error { return e.Update(d) })
}

// SetEmployeeStatus moves an employee to on_leave, active or terminated
func (s *Service) SetEmployeeStatus(ctx context.Context, orgID, id uuid.UUID, req EmployeeStatusRequest) (*hr.Employee, error) {
	at := s.now()
	if req.Date != "" {
		d, err := shared.ParseDate("date", req.Date)
		if err != nil {
			return nil, err
		}
		at = d
	}
	return s.employee(ctx, orgID, id, 0, func(e *hr.Employee) error { return e.SetStatus(hr.EmployeeStatus(req.Status), at) })
}

func (s *Service) employee(ctx context.Context, orgID, id uuid.UUID, version int, fn func(*hr.Employee) error) (*hr.Employee, error) {
	var e *hr.Employee
	err := s.Tx.InTx(ctx, func(ctx context.Context) error {
		var err error
		if e, err = s.Employees.FindForUpdate(ctx, orgID, id); err != nil {
			return err
		}
		if version != 0 && e.Version != version {
			return shared.ErrConcurrencyConflict
		}
		if err := fn(e); err != nil {
			return err
		}
		return s.Employees.Update(ctx, e)
	})
	if err != nil {
		return nil, err
	}
	return e, nil
}

// DeleteEmployee soft-deletes an employee
func (s *Service) DeleteEmployee(ctx context.Context, orgID, id uuid.UUID) error {
	return s.Employees.Delete(ctx, orgID, id)
}

func (s *Service) currentEmployee(ctx context.Context, orgID, id uuid.UUID) (*hr.Employee, error) {
	e, err := s.Employees.FindByID(ctx, orgID, id)
	if err != nil {
		return nil, shared.AsReference(err, "employee")
	}
	if e.Status == hr.EmployeeTerminated {
		return nil, shared.Errorf(shared.ErrInvalidState, "employee %s is terminated", e.EmployeeCode)
	}
	return e, nil
}

// CheckIn opens today's attendance of an employee
func (s *Service) CheckIn(ctx context.Context, orgID uuid.UUID, req ClockRequest) (*hr.Attendance, error) {
	e, err := s.currentEmployee(ctx, orgID, req.EmployeeID)
	if err != nil {
		return nil, err
	}
	at := s.clock(req.At)
	if _, err := s.Attendance.FindDay(ctx, orgID, e.ID, at); err == nil {
		return nil, shared.Errorf(shared.ErrAlreadyExists, "%s already has attendance for %s", e.EmployeeCode, at.Format(time.DateOnly))
	} else if !errors.Is(err, shared.ErrNotFound) {
		return nil, err
	}
	a := hr.NewCheckIn(orgID, e.ID, at)
	if err := s.Attendance.Create(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

// CheckOut closes the attendance of the day and computes the hours worked
func (s *Service) CheckOut(ctx context.Context, orgID uuid.UUID, req ClockRequest) (*hr.Attendance, error) {
	at := s.clock(req.At)
	a, err := s.Attendance.FindDay(ctx, orgID, req.EmployeeID, at)
	if errors.Is(err, shared.ErrNotFound) {
		return nil, shared.Errorf(shared.ErrInvalidState, "no check-in recorded for %s", at.Format(time.DateOnly))
	}
	if err != nil {
		return nil, err
	}
	if err := a.CheckOutAt(at); err != nil {
		return nil, err
	}
	if err := s.Attendance.Update(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

func (s *Service) clock(at *time.Time) time.Time {
	if at != nil {
		return at.UTC()
	}
	return s.now().UTC()
}

// MarkAttendance records an absence or other status for a day
func (s *Service) MarkAttendance(ctx context.Context, orgID uuid.UUID, req MarkRequest) (*hr.Attendance, error) {
	day, err := shared.ParseDate("date", req.Date)
	if err != nil {
		return nil, err
	}
	e, err := s.currentEmployee(ctx, orgID, req.EmployeeID)
	if err != nil {
		return nil, err
	}
	a, err := hr.NewAttendanceMark(orgID, e.ID, day, hr.AttendanceStatus(req.Status), req.Notes)
	if err != nil {
		return nil, err
	}
	if err := s.Attendance.Create(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

// ListAttendance returns a page of attendance days
func (s *Service) ListAttendance(ctx context.Context, orgID uuid.UUID, filter shared.Filter) (shared.Paginated[hr.Attendance], error) {
	items, total, err := s.Attendance.List(ctx, orgID, filter)
	if err != nil {
		return shared.Paginated[hr.Attendance]{}, err
	}
	return page(items, total, filter), nil
}

// DeleteAttendance removes one attendance day
func (s *Service) DeleteAttendance(ctx context.Context, orgID, id uuid.UUID) error {
	return s.Attendance.Delete(ctx, orgID, id)
}

// SubmitLeave files a pending leave request that does not overlap approved leave
func (s *Service) SubmitLeave(ctx context.Context, orgID uuid.UUID, req LeaveRequest) (*hr.LeaveRequest, error) {
	start, err := shared.ParseDate("start_date", req.StartDate)
	if err != nil {
		return nil, err
	}
	end, err := shared.ParseDate("end_date", req.EndDate)
	if err != nil {
		return nil, err
	}
	e, err := s.currentEmployee(ctx, orgID, req.EmployeeID)
	if err != nil {
		return nil, err
	}
	l, err := hr.NewLeaveRequest(orgID, e.ID, hr.LeaveType(req.LeaveType), start, end, req.Reason)
	if err != nil {
		return nil, err
	}
	if err := s.checkOverlap(ctx, l); err != nil {
		return nil, err
	}
	l.CreatedBy = shared.ActorFrom(ctx)
	if err := s.Leaves.Create(ctx, l); err != nil {
		return nil, err
	}
	return l, nil
}

func (s *Service) checkOverlap(ctx context.Context, l *hr.LeaveRequest) error {
	others, err := s.Leaves.Overlapping(ctx, l.OrganizationID, l.EmployeeID, l.StartDate, l.EndDate)
	if err != nil {
		return err
	}
	for i := range others {
		if others[i].ID != l.ID && l.Overlaps(&others[i]) {
			return shared.Errorf(shared.ErrInvalidState, "leave overlaps approved leave from %s to %s",
				others[i].StartDate.Format(time.DateOnly), others[i].EndDate.Format(time.DateOnly))
		}
	}
	return nil
}

// DecideLeave approves, rejects or cancels a leave request. Approval
// re-checks the overlap because other requests may have been approved since.
func (s *Service) DecideLeave(ctx context.Context, orgID, id uuid.UUID, req LeaveDecisionRequest) (*hr.LeaveRequest, error) {
	to := hr.LeaveStatus(req.Status)
	var l *hr.LeaveRequest
	err := s.Tx.InTx(ctx, func(ctx context.Context) error {
		var err error
		if l, err = s.Leaves.FindForUpdate(ctx, orgID, id); err != nil {
			return err
		}
		if to == hr.LeaveApproved {
			if err := s.checkOverlap(ctx, l); err != nil {
				return err
			}
		}
		if err := l.Decide(to, shared.ActorFrom(ctx), s.now()); err != nil {
			return err
		}
		return s.Leaves.Update(ctx, l)
	})
	if err != nil {
		return nil, err
	}
	logger.L(ctx).Info("leave request decided",
		zap.String("leave_id", l.ID.String()),
		zap.String("status", string(l.Status)))
	return l, nil
}

// GetLeave returns one leave request
func (s *Service) GetLeave(ctx context.Context, orgID, id uuid.UUID) (*hr.LeaveRequest, error) {
	return s.Leaves.FindByID(ctx, orgID, id)
}

// ListLeaves returns a page of leave requests
func (s *Service) ListLeaves(ctx context.Context, orgID uuid.UUID, filter shared.Filter) (shared.Paginated[hr.LeaveRequest], error) {
	items, total, err := s.Leaves.List(ctx, orgID, filter)
	if err != nil {
		return shared.Paginated[hr.LeaveRequest]{}, err
	}
	return page(items, total, filter), nil
}

// CreateComponent adds a salary component with a unique code
func (s *Service) CreateComponent(ctx context.Context, orgID uuid.UUID, req ComponentRequest) (*hr.SalaryComponent, error) {
	c, err := hr.NewSalaryComponent(orgID, req.Code, req.details())
	if err != nil {
		return nil, err
	}
	exists, err := s.Components.CodeExists(ctx, orgID, c.Code)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, shared.Errorf(shared.ErrAlreadyExists, "salary component %s already exists", c.Code)
	}
	c.CreatedBy = shared.ActorFrom(ctx)
	if err := s.Components.Create(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// GetComponent returns one salary component
func (s *Service) GetComponent(ctx context.Context, orgID, id uuid.UUID) (*hr.SalaryComponent, error) {
	return s.Components.FindByID(ctx, orgID, id)
}

// ListComponents returns a page of salary components
func (s *Service) ListComponents(ctx context.Context, orgID uuid.UUID, filter shared.Filter) (shared.Paginated[hr.SalaryComponent], error) {
	items, total, err := s.Components.List(ctx, orgID, filter)
	if err != nil {
		return shared.Paginated[hr.SalaryComponent]{}, err
	}
	return page(items, total, filter), nil
}

// UpdateComponent replaces the attributes of a salary component
func (s *Service) UpdateComponent(ctx context.Context, orgID, id uuid.UUID, req ComponentRequest) (*hr.SalaryComponent, error) {
	c, err := s.Components.FindByID(ctx, orgID, id)
	if err != nil {
		return nil, err
	}
	if req.Version != 0 && c.Version != req.Version {
		return nil, shared.ErrConcurrencyConflict
	}
	if err := c.Update(req.details()); err != nil {
		return nil, err
	}
	if err := s.Components.Update(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// DeleteComponent soft-deletes a salary component
func (s *Service) DeleteComponent(ctx context.Context, orgID, id uuid.UUID) error {
	return s.Components.Delete(ctx, orgID, id)
}

// AssignComponent gives an employee a salary component
func (s *Service) AssignComponent(ctx context.Context, orgID, employeeID uuid.UUID, req AssignRequest) (*hr.EmployeeSalaryComponent, error) {
	if _, err := s.currentEmployee(ctx, orgID, employeeID); err != nil {
		return nil, err
	}
	c, err := s.Components.FindByID(ctx, orgID, req.SalaryComponentID)
	if err != nil {
		return nil, shared.AsReference(err, "salary component")
	}
	a, err := hr.NewAssignment(orgID, employeeID, c.ID, req.OverrideAmount)
	if err != nil {
		return nil, err
	}
	if err := s.Components.Assign(ctx, a); err != nil {
		return nil, err
	}
	a.SalaryComponent = c
	return a, nil
}

// UnassignComponent removes a salary component from an employee
func (s *Service) UnassignComponent(ctx context.Context, orgID, employeeID, componentID uuid.UUID) error {
	return s.Components.Unassign(ctx, orgID, employeeID, componentID)
}

// Assignments lists the salary components of an employee
func (s *Service) Assignments(ctx context.Context, orgID, employeeID uuid.UUID) ([]hr.EmployeeSalaryComponent, error) {
	return s.Components.Assignments(ctx, orgID, employeeID)
}

// CreatePeriod opens a payroll period
func (s *Service) CreatePeriod(ctx context.Context, orgID uuid.UUID, req PeriodRequest) (*hr.PayrollPeriod, error) {
	start, err := shared.ParseDate("start_date", req.StartDate)
	if err != nil {
		return nil, err
	}
	end, err := shared.ParseDate("end_date", req.EndDate)
	if err != nil {
		return nil, err
	}
	p, err := hr.NewPayrollPeriod(orgID, req.Name, start, end)
	if err != nil {
		return nil, err
	}
	p.CreatedBy = shared.ActorFrom(ctx)
	if err := s.Payroll.Create(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// ListPeriods returns a page of payroll periods
func (s *Service) ListPeriods(ctx context.Context, orgID uuid.UUID, filter shared.Filter) (shared.Paginated[hr.PayrollPeriod], error) {
	items, total, err := s.Payroll.List(ctx, orgID, filter)
	if err != nil {
		return shared.Paginated[hr.PayrollPeriod]{}, err
	}
	return page(items, total, filter), nil
}

// GetPeriod returns a period with its payslips
func (s *Service) GetPeriod(ctx context.Context, orgID, id uuid.UUID) (*PayrollRun, error) {
	p, err := s.Payroll.FindByID(ctx, orgID, id)
	if err != nil {
		return nil, err
	}
	slips, err := s.Payroll.Payslips(ctx, orgID, id)
	if err != nil {
		return nil, err
	}
	return &PayrollRun{Period: p, Payslips: slips}, nil
}

// DeletePeriod removes a period that was never generated
func (s *Service) DeletePeriod(ctx context.Context, orgID, id uuid.UUID) error {
	p, err := s.Payroll.FindByID(ctx, orgID, id)
	if err != nil {
		return err
	}
	if p.Status != hr.PeriodOpen {
		return shared.Errorf(shared.ErrInvalidState, "payroll period %s is %s", p.Name, p.Status)
	}
	return s.Payroll.Delete(ctx, orgID, id)
}

// GeneratePayroll computes a draft payslip for every payable employee,
// replacing earlier drafts of the period.
func (s *Service) GeneratePayroll(ctx context.Context, orgID, id uuid.UUID) (*PayrollRun, error) {
	run := &PayrollRun{}
	err := s.Tx.InTx(ctx, func(ctx context.Context) error {
		p, err := s.Payroll.FindForUpdate(ctx, orgID, id)
		if err != nil {
			return err
		}
		existing, err := s.Payroll.Payslips(ctx, orgID, id)
		if err != nil {
			return err
		}
		for _, slip := range existing {
			if slip.Status == hr.PayslipFinalized {
				return shared.Errorf(shared.ErrInvalidState, "payroll period %s has finalized payslips", p.Name)
			}
		}
		employees, err := s.Employees.Payable(ctx, orgID, p.StartDate, p.EndDate)
		if err != nil {
			return err
		}
		slips := make([]hr.Payslip, 0, len(employees))
		for i := range employees {
			in, err := s.payInput(ctx, p, &employees[i])
			if err != nil {
				return err
			}
			slips = append(slips, *p.Compute(in))
		}
		if err := p.Generated(slips); err != nil {
			return err
		}
		if err := s.Payroll.ReplacePayslips(ctx, orgID, id, slips); err != nil {
			return err
		}
		if err := s.Payroll.Update(ctx, p); err != nil {
			return err
		}
		run.Period, run.Payslips = p, slips
		return nil
	})
	if err != nil {
		return nil, err
	}
	logger.L(ctx).Info("payroll generated",
		zap.String("period", run.Period.Name),
		zap.Int("payslips", len(run.Payslips)),
		zap.String("total_net", run.Period.TotalNet.StringFixed(2)))
	return run, nil
}

func (s *Service) payInput(ctx context.Context, p *hr.PayrollPeriod, e *hr.Employee) (hr.PayInput, error) {
	in := hr.PayInput{Employee: e}
	var err error
	if in.Assignments, err = s.Components.Assignments(ctx, p.OrganizationID, e.ID); err != nil {
		return in, err
	}
	if in.Leaves, err = s.Leaves.Overlapping(ctx, p.OrganizationID, e.ID, p.StartDate, p.EndDate); err != nil {
		return in, err
	}
	if in.Attendance, err = s.Attendance.Between(ctx, p.OrganizationID, e.ID, p.StartDate, p.EndDate); err != nil {
		return in, err
	}
	return in, nil
}

// FinalizePayroll freezes every draft payslip of a generated period
func (s *Service) FinalizePayroll(ctx context.Context, orgID, id uuid.UUID) (*PayrollRun, error) {
	run := &PayrollRun{}
	err := s.Tx.InTx(ctx, func(ctx context.Context) error {
		p, err := s.Payroll.FindForUpdate(ctx, orgID, id)
		if err != nil {
			return err
		}
		if p.Status != hr.PeriodProcessing {
			return shared.Errorf(shared.ErrInvalidState, "payroll period %s is %s", p.Name, p.Status)
		}
		slips, err := s.Payroll.Payslips(ctx, orgID, id)
		if err != nil {
			return err
		}
		for i := range slips {
			if slips[i].Status == hr.PayslipFinalized {
				continue
			}
			if err := slips[i].Finalize(); err != nil {
				return err
			}
			if err := s.Payroll.SavePayslip(ctx, &slips[i]); err != nil {
				return err
			}
		}
		run.Period, run.Payslips = p, slips
		return nil
	})
	if err != nil {
		return nil, err
	}
	return run, nil
}

// ClosePayroll closes a period whose payslips are all finalized
func (s *Service) ClosePayroll(ctx context.Context, orgID, id uuid.UUID) (*hr.PayrollPeriod, error) {
	var p *hr.PayrollPeriod
	err := s.Tx.InTx(ctx, func(ctx context.Context) error {
		var err error
		if p, err = s.Payroll.FindForUpdate(ctx, orgID, id); err != nil {
			return err
		}
		slips, err := s.Payroll.Payslips(ctx, orgID, id)
		if err != nil {
			return err
		}
		if err := p.Close(slips, s.now()); err != nil {
			return err
		}
		return s.Payroll.Update(ctx, p)
	})
	if err != nil {
		return nil, err
	}
	logger.L(ctx).Info("payroll period closed", zap.String("period", p.Name))
	return p, nil
}

// GetPayslip returns one payslip with its components and employee
func (s *Service) GetPayslip(ctx context.Context, orgID, id uuid.UUID) (*hr.Payslip, error) {
	return s.Payroll.FindPayslip(ctx, orgID, id)
}

// PayslipView is a payslip with its period, split for printing
type PayslipView struct {
	*hr.Payslip
	Period     *hr.PayrollPeriod     `json:"period"`
	Earnings   []hr.PayslipComponent `json:"earnings"`
	Deductions []hr.PayslipComponent `json:"deductions"`
}

// PayslipForPrint loads a payslip with its period and employee
func (s *Service) PayslipForPrint(ctx context.Context, orgID, id uuid.UUID) (*PayslipView, error) {
	slip, err := s.Payroll.FindPayslip(ctx, orgID, id)
	if err != nil {
		return nil, err
	}
	period, err := s.Payroll.FindByID(ctx, orgID, slip.PayrollPeriodID)
	if err != nil {
		return nil, err
	}
	v := &PayslipView{Payslip: slip, Period: period}
	for _, c := range slip.Components {
		if c.ComponentType == hr.ComponentDeduction {
			v.Deductions = append(v.Deductions, c)
		} else {
			v.Earnings = append(v.Earnings, c)
		}
	}
	return v, nil
}

func page[T any](items []T, total int64, filter shared.Filter) shared.Paginated[T] {
	filter = filter.Normalize()
	return shared.NewPaginated(items, total, filter.Page, filter.PageSize)
}
