package hr

import (
	"context"
	"time"

	"github.com/drymix/erp/internal/domain/shared"
	"github.com/google/uuid"
)

// DepartmentRepository persists departments
type DepartmentRepository interface {
	shared.CRUDRepository[Department]
	CodeExists(ctx context.Context, orgID uuid.UUID, code string) (bool, error)
	HasEmployees(ctx context.Context, orgID, id uuid.UUID) (bool, error)
}

// EmployeeRepository persists employees
type EmployeeRepository interface {
	shared.CRUDRepository[Employee]
	FindForUpdate(ctx context.Context, orgID, id uuid.UUID) (*Employee, error)
	CodeExists(ctx context.Context, orgID uuid.UUID, code string) (bool, error)
	// Payable returns the employees paid for any day of [from, to], by code
	Payable(ctx context.Context, orgID uuid.UUID, from, to time.Time) ([]Employee, error)
}

// AttendanceRepository persists attendance days
type AttendanceRepository interface {
	shared.CRUDRepository[Attendance]
	FindDay(ctx context.Context, orgID, employeeID uuid.UUID, day time.Time) (*Attendance, error)
	Between(ctx context.Context, orgID, employeeID uuid.UUID, from, to time.Time) ([]Attendance, error)
}

// LeaveRepository persists leave requests
type LeaveRepository interface {
	shared.CRUDRepository[LeaveRequest]
	FindForUpdate(ctx context.Context, orgID, id uuid.UUID) (*LeaveRequest, error)
	// Overlapping returns the approved requests of employee sharing a day
	// with [from, to]
	Overlapping(ctx context.Context, orgID, employeeID uuid.UUID, from, to time.Time) ([]LeaveRequest, error)
}

// SalaryComponentRepository persists components and their assignments
type SalaryComponentRepository interface {
	shared.CRUDRepository[SalaryComponent]
	CodeExists(ctx context.Context, orgID uuid.UUID, code string) (bool, error)
	Assign(ctx context.Context, a *EmployeeSalaryComponent) error
	Unassign(ctx context.Context, orgID, employeeID, componentID uuid.UUID) error
	// Assignments returns the components of an employee with the component loaded
	Assignments(ctx context.Context, orgID, employeeID uuid.UUID) ([]EmployeeSalaryComponent, error)
}

// PayrollRepository persists periods and payslips
type PayrollRepository interface {
	shared.CRUDRepository[PayrollPeriod]
	FindForUpdate(ctx context.Context, orgID, id uuid.UUID) (*PayrollPeriod, error)
	Payslips(ctx context.Context, orgID, periodID uuid.UUID) ([]Payslip, error)
	FindPayslip(ctx context.Context, orgID, id uuid.UUID) (*Payslip, error)
	// ReplacePayslips deletes the payslips of the period and inserts slips
	ReplacePayslips(ctx context.Context, orgID, periodID uuid.UUID, slips []Payslip) error
	SavePayslip(ctx context.Context, s *Payslip) error
}
