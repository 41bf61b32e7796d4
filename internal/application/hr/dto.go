package hr

import (
	"time"

	"github.com/drymix/erp/internal/domain/hr"
	"github.com/drymix/erp/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DepartmentRequest creates or renames a department
type DepartmentRequest struct {
	Code        string `json:"code" binding:"omitempty,max=30"`
	Name        string `json:"name" binding:"required,max=200"`
	Description string `json:"description"`
	Version     int    `json:"version"`
}

// EmployeeRequest creates or updates an employee
type EmployeeRequest struct {
	EmployeeCode   string          `json:"employee_code" binding:"omitempty,max=30"`
	FirstName      string          `json:"first_name" binding:"required,max=100"`
	LastName       string          `json:"last_name" binding:"required,max=100"`
	Email          string          `json:"email" binding:"omitempty,email"`
	Phone          string          `json:"phone" binding:"max=50"`
	DepartmentID   *uuid.UUID      `json:"department_id"`
	Designation    string          `json:"designation" binding:"max=100"`
	DateOfJoining  string          `json:"date_of_joining" binding:"required,datetime=2006-01-02"`
	EmploymentType string          `json:"employment_type" binding:"omitempty,oneof=permanent contract daily_wage"`
	BasicSalary    decimal.Decimal `json:"basic_salary" binding:"decimal_gte0"`
	BankAccount    string          `json:"bank_account" binding:"max=50"`
	Version        int             `json:"version"`
}

func (r EmployeeRequest) details() (hr.EmployeeDetails, error) {
	joined, err := shared.ParseDate("date_of_joining", r.DateOfJoining)
	if err != nil {
		return hr.EmployeeDetails{}, err
	}
	return hr.EmployeeDetails{
		FirstName:      r.FirstName,
		LastName:       r.LastName,
		Email:          r.Email,
		Phone:          r.Phone,
		DepartmentID:   r.DepartmentID,
		Designation:    r.Designation,
		DateOfJoining:  joined,
		EmploymentType: hr.EmploymentType(r.EmploymentType),
		BasicSalary:    r.BasicSalary,
		BankAccount:    r.BankAccount,
	}, nil
}

// EmployeeStatusRequest moves an employee to another status
type EmployeeStatusRequest struct {
	Status string `json:"status" binding:"required,oneof=active on_leave terminated"`
	Date   string `json:"date" binding:"omitempty,datetime=2006-01-02"`
}

// ClockRequest records a check-in or check-out; an empty time means now
type ClockRequest struct {
	EmployeeID uuid.UUID  `json:"employee_id" binding:"required"`
	At         *time.Time `json:"at"`
}

// MarkRequest records a day without clock times
type MarkRequest struct {
	EmployeeID uuid.UUID `json:"employee_id" binding:"required"`
	Date       string    `json:"date" binding:"required,datetime=2006-01-02"`
	Status     string    `json:"status" binding:"required,oneof=present absent half_day on_leave"`
	Notes      string    `json:"notes"`
}

// LeaveRequest submits a leave request
type LeaveRequest struct {
	EmployeeID uuid.UUID `json:"employee_id" binding:"required"`
	LeaveType  string    `json:"leave_type" binding:"required,oneof=annual sick unpaid casual"`
	StartDate  string    `json:"start_date" binding:"required,datetime=2006-01-02"`
	EndDate    string    `json:"end_date" binding:"required,datetime=2006-01-02"`
	Reason     string    `json:"reason"`
}

// LeaveDecisionRequest approves, rejects or cancels a leave request
type LeaveDecisionRequest struct {
	Status string `json:"status" binding:"required,oneof=approved rejected cancelled"`
}

// ComponentRequest creates or updates a salary component
type ComponentRequest struct {
	Code            string          `json:"code" binding:"omitempty,max=30"`
	Name            string          `json:"name" binding:"required,max=100"`
	ComponentType   string          `json:"component_type" binding:"required,oneof=earning deduction"`
	CalculationType string          `json:"calculation_type" binding:"required,oneof=fixed percentage_of_basic"`
	Amount          decimal.Decimal `json:"amount" binding:"decimal_gte0"`
	Percentage      decimal.Decimal `json:"percentage" binding:"decimal_gte0"`
	IsTaxable       *bool           `json:"is_taxable"`
	Active          *bool           `json:"active"`
	Version         int             `json:"version"`
}

func (r ComponentRequest) details() hr.ComponentDetails {
	return hr.ComponentDetails{
		Name:            r.Name,
		ComponentType:   hr.ComponentType(r.ComponentType),
		CalculationType: hr.CalculationType(r.CalculationType),
		Amount:          r.Amount,
		Percentage:      r.Percentage,
		IsTaxable:       r.IsTaxable == nil || *r.IsTaxable,
		Active:          r.Active == nil || *r.Active,
	}
}

// AssignRequest assigns a component to an employee
type AssignRequest struct {
	SalaryComponentID uuid.UUID        `json:"salary_component_id" binding:"required"`
	OverrideAmount    *decimal.Decimal `json:"override_amount"`
}

// PeriodRequest opens a payroll period
type PeriodRequest struct {
	Name      string `json:"name" binding:"required,max=100"`
	StartDate string `json:"start_date" binding:"required,datetime=2006-01-02"`
	EndDate   string `json:"end_date" binding:"required,datetime=2006-01-02"`
}

// PayrollRun is a period with its payslips
type PayrollRun struct {
	Period   *hr.PayrollPeriod `json:"period"`
	Payslips []hr.Payslip      `json:"payslips"`
}
