// Package hr holds departments, employees, attendance, leave and payroll.
package hr

import (
	"time"

	"github.com/drymix/erp/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Department groups employees
type Department struct {
	shared.TenantAggregateRoot
	Code        string `gorm:"type:varchar(30);not null" json:"code"`
	Name        string `gorm:"type:varchar(200);not null" json:"name"`
	Description string `gorm:"type:text" json:"description"`
}

// TableName returns the table name for GORM
func (Department) TableName() string {
	return "departments"
}

// NewDepartment creates a department with a normalized code
func NewDepartment(orgID uuid.UUID, code, name, description string) (*Department, error) {
	var v shared.ValidationError
	v.CheckCode("code", code, 30)
	v.CheckText("name", name, 200)
	if err := v.Err(); err != nil {
		return nil, err
	}
	return &Department{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(orgID),
		Code:                shared.NormalizeCode(code),
		Name:                name,
		Description:         description,
	}, nil
}

// Rename changes the display attributes
func (d *Department) Rename(name, description string) error {
	var v shared.ValidationError
	v.CheckText("name", name, 200)
	if err := v.Err(); err != nil {
		return err
	}
	d.Name = name
	d.Description = description
	return nil
}

// EmploymentType classifies the contract of an employee
type EmploymentType string

const (
	EmploymentPermanent EmploymentType = "permanent"
	EmploymentContract  EmploymentType = "contract"
	EmploymentDailyWage EmploymentType = "daily_wage"
)

// Valid reports whether t is a known employment type
func (t EmploymentType) Valid() bool {
	switch t {
	case EmploymentPermanent, EmploymentContract, EmploymentDailyWage:
		return true
	}
	return false
}

// EmployeeStatus tracks whether an employee is on the payroll
type EmployeeStatus string

const (
	EmployeeActive     EmployeeStatus = "active"
	EmployeeOnLeave    EmployeeStatus = "on_leave"
	EmployeeTerminated EmployeeStatus = "terminated"
)

// EmployeeFlow makes termination final
var EmployeeFlow = shared.Transitions[EmployeeStatus]{
	EmployeeActive:  {EmployeeOnLeave, EmployeeTerminated},
	EmployeeOnLeave: {EmployeeActive, EmployeeTerminated},
}

// Employee is a person on the payroll
type Employee struct {
	shared.TenantAggregateRoot
	EmployeeCode   string          `gorm:"type:varchar(30);not null" json:"employee_code"`
	FirstName      string          `gorm:"type:varchar(100);not null" json:"first_name"`
	LastName       string          `gorm:"type:varchar(100);not null" json:"last_name"`
	Email          string          `gorm:"type:varchar(255)" json:"email"`
	Phone          string          `gorm:"type:varchar(50)" json:"phone"`
	DepartmentID   *uuid.UUID      `gorm:"type:uuid;index" json:"department_id,omitempty"`
	Designation    string          `gorm:"type:varchar(100)" json:"designation"`
	DateOfJoining  time.Time       `gorm:"type:date;not null" json:"date_of_joining"`
	EmploymentType EmploymentType  `gorm:"type:varchar(20);not null;default:'permanent'" json:"employment_type"`
	BasicSalary    decimal.Decimal `gorm:"type:numeric(18,2);not null;default:0" json:"basic_salary"`
	BankAccount    string          `gorm:"type:varchar(50)" json:"bank_account"`
	Status         EmployeeStatus  `gorm:"type:varchar(20);not null;default:'active'" json:"status"`
	TerminatedAt   *time.Time      `gorm:"type:date" json:"terminated_at,omitempty"`
}

// TableName returns the table name for GORM
func (Employee) TableName() string {
	return "employees"
}

// EmployeeDetails are the editable attributes of an employee
type EmployeeDetails struct {
	FirstName      string
	LastName       string
	Email          string
	Phone          string
	DepartmentID   *uuid.UUID
	Designation    string
	DateOfJoining  time.Time
	EmploymentType EmploymentType
	BasicSalary    decimal.Decimal
	BankAccount    string
}

func (d EmployeeDetails) validate(v *shared.ValidationError) {
	v.CheckText("first_name", d.FirstName, 100)
	v.CheckText("last_name", d.LastName, 100)
	v.Check(!d.DateOfJoining.IsZero(), "date_of_joining", "is required")
	v.Check(d.EmploymentType.Valid(), "employment_type", "unknown employment type %q", d.EmploymentType)
	v.CheckNonNegative("basic_salary", d.BasicSalary)
}

// NewEmployee creates an active employee
func NewEmployee(orgID uuid.UUID, code string, d EmployeeDetails) (*Employee, error) {
	if d.EmploymentType == "" {
		d.EmploymentType = EmploymentPermanent
	}
	var v shared.ValidationError
	v.CheckCode("employee_code", code, 30)
	d.validate(&v)
	if err := v.Err(); err != nil {
		return nil, err
	}
	e := &Employee{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(orgID),
		EmployeeCode:        shared.NormalizeCode(code),
		Status:              EmployeeActive,
	}
	e.apply(d)
	return e, nil
}

// Update replaces the editable attributes of a current employee
func (e *Employee) Update(d EmployeeDetails) error {
	if e.Status == EmployeeTerminated {
		return shared.Errorf(shared.ErrInvalidState, "employee %s is terminated", e.EmployeeCode)
	}
	if d.EmploymentType == "" {
		d.EmploymentType = e.EmploymentType
	}
	var v shared.ValidationError
	d.validate(&v)
	if err := v.Err(); err != nil {
		return err
	}
	e.apply(d)
	return nil
}

func (e *Employee) apply(d EmployeeDetails) {
	e.FirstName = d.FirstName
	e.LastName = d.LastName
	e.Email = d.Email
	e.Phone = d.Phone
	e.DepartmentID = d.DepartmentID
	e.Designation = d.Designation
	e.DateOfJoining = d.DateOfJoining
	e.EmploymentType = d.EmploymentType
	e.BasicSalary = shared.RoundMoney(d.BasicSalary)
	e.BankAccount = d.BankAccount
}

// FullName joins first and last name
func (e *Employee) FullName() string {
	return e.FirstName + " " + e.LastName
}

// SetStatus moves the employee along EmployeeFlow. Termination records the date.
func (e *Employee) SetStatus(to EmployeeStatus, at time.Time) error {
	if err := EmployeeFlow.Check("employee "+e.EmployeeCode, e.Status, to); err != nil {
		return err
	}
	e.Status = to
	if to == EmployeeTerminated {
		day := shared.Day(at)
		e.TerminatedAt = &day
	}
	return nil
}

// Payable reports whether the employee is paid for any day of [from, to]
func (e *Employee) Payable(from, to time.Time) bool {
	if e.DateOfJoining.After(to) {
		return false
	}
	if e.TerminatedAt != nil && e.TerminatedAt.Before(from) {
		return false
	}
	return true
}
