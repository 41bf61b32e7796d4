package hr

import (
	"time"

	"github.com/drymix/erp/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AttendanceStatus is the outcome of one working day
type AttendanceStatus string

const (
	AttendancePresent AttendanceStatus = "present"
	AttendanceAbsent  AttendanceStatus = "absent"
	AttendanceHalfDay AttendanceStatus = "half_day"
	AttendanceOnLeave AttendanceStatus = "on_leave"
)

// Valid reports whether s is a known attendance status
func (s AttendanceStatus) Valid() bool {
	switch s {
	case AttendancePresent, AttendanceAbsent, AttendanceHalfDay, AttendanceOnLeave:
		return true
	}
	return false
}

// HalfDayHours is the shortest shift that still counts as a full day
var HalfDayHours = decimal.NewFromInt(4)

// Attendance is one employee-day; (employee, date) is unique
type Attendance struct {
	shared.TenantEntity
	EmployeeID     uuid.UUID        `gorm:"type:uuid;not null;uniqueIndex:unique_attendances_employee_date" json:"employee_id"`
	AttendanceDate time.Time        `gorm:"type:date;not null;uniqueIndex:unique_attendances_employee_date" json:"attendance_date"`
	CheckIn        *time.Time       `json:"check_in,omitempty"`
	CheckOut       *time.Time       `json:"check_out,omitempty"`
	HoursWorked    decimal.Decimal  `gorm:"type:numeric(5,2);not null;default:0" json:"hours_worked"`
	Status         AttendanceStatus `gorm:"type:varchar(20);not null;default:'present'" json:"status"`
	Notes          string           `gorm:"type:text" json:"notes"`
}

// TableName returns the table name for GORM
func (Attendance) TableName() string {
	return "attendances"
}

// NewCheckIn opens the attendance of the day of at
func NewCheckIn(orgID, employeeID uuid.UUID, at time.Time) *Attendance {
	in := at.UTC()
	return &Attendance{
		TenantEntity:   shared.NewTenantEntity(orgID),
		EmployeeID:     employeeID,
		AttendanceDate: shared.Day(at),
		CheckIn:        &in,
		HoursWorked:    decimal.Zero,
		Status:         AttendancePresent,
	}
}

// NewAttendanceMark records a day without clock times, e.g. an absence
func NewAttendanceMark(orgID, employeeID uuid.UUID, day time.Time, status AttendanceStatus, notes string) (*Attendance, error) {
	if !status.Valid() {
		return nil, shared.NewValidationError("status", "unknown attendance status")
	}
	return &Attendance{
		TenantEntity:   shared.NewTenantEntity(orgID),
		EmployeeID:     employeeID,
		AttendanceDate: shared.Day(day),
		HoursWorked:    decimal.Zero,
		Status:         status,
		Notes:          notes,
	}, nil
}

// CheckOutAt closes the day. Hours are the clocked span; a span shorter
// than HalfDayHours marks the day as half_day.
func (a *Attendance) CheckOutAt(at time.Time) error {
	if a.CheckIn == nil {
		return shared.Errorf(shared.ErrInvalidState, "no check-in recorded for %s", a.AttendanceDate.Format(time.DateOnly))
	}
	if a.CheckOut != nil {
		return shared.Errorf(shared.ErrInvalidState, "already checked out for %s", a.AttendanceDate.Format(time.DateOnly))
	}
	out := at.UTC()
	if out.Before(*a.CheckIn) {
		return shared.NewValidationError("check_out", "cannot be before check-in")
	}
	a.CheckOut = &out
	a.HoursWorked = decimal.NewFromFloat(out.Sub(*a.CheckIn).Hours()).Round(2)
	if a.HoursWorked.LessThan(HalfDayHours) {
		a.Status = AttendanceHalfDay
	}
	a.Touch()
	return nil
}

// UnpaidDays is what the day takes off the paid days of a payslip
func (a *Attendance) UnpaidDays() decimal.Decimal {
	switch a.Status {
	case AttendanceAbsent:
		return decimal.NewFromInt(1)
	case AttendanceHalfDay:
		return decimal.NewFromFloat(0.5)
	}
	return decimal.Zero
}
