package hr

import (
	"time"

	"github.com/drymix/erp/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// LeaveType decides whether a leave day is paid
type LeaveType string

const (
	LeaveAnnual LeaveType = "annual"
	LeaveSick   LeaveType = "sick"
	LeaveUnpaid LeaveType = "unpaid"
	LeaveCasual LeaveType = "casual"
)

// Valid reports whether t is a known leave type
func (t LeaveType) Valid() bool {
	switch t {
	case LeaveAnnual, LeaveSick, LeaveUnpaid, LeaveCasual:
		return true
	}
	return false
}

// LeaveStatus is the state of a leave request
type LeaveStatus string

const (
	LeavePending   LeaveStatus = "pending"
	LeaveApproved  LeaveStatus = "approved"
	LeaveRejected  LeaveStatus = "rejected"
	LeaveCancelled LeaveStatus = "cancelled"
)

// LeaveFlow allows an approved leave to be cancelled but never reopened
var LeaveFlow = shared.Transitions[LeaveStatus]{
	LeavePending:  {LeaveApproved, LeaveRejected, LeaveCancelled},
	LeaveApproved: {LeaveCancelled},
}

// LeaveRequest asks for whole days off
type LeaveRequest struct {
	shared.TenantAggregateRoot
	EmployeeID uuid.UUID       `gorm:"type:uuid;not null;index" json:"employee_id"`
	LeaveType  LeaveType       `gorm:"type:varchar(20);not null" json:"leave_type"`
	StartDate  time.Time       `gorm:"type:date;not null" json:"start_date"`
	EndDate    time.Time       `gorm:"type:date;not null" json:"end_date"`
	Days       decimal.Decimal `gorm:"type:numeric(5,1);not null" json:"days"`
	Reason     string          `gorm:"type:text" json:"reason"`
	Status     LeaveStatus     `gorm:"type:varchar(20);not null;default:'pending'" json:"status"`
	DecidedBy  *uuid.UUID      `gorm:"type:uuid" json:"decided_by,omitempty"`
	DecidedAt  *time.Time      `json:"decided_at,omitempty"`
}

// TableName returns the table name for GORM
func (LeaveRequest) TableName() string {
	return "leave_requests"
}

// NewLeaveRequest submits a pending request; days counts every calendar day
// of [start, end]
func NewLeaveRequest(orgID, employeeID uuid.UUID, typ LeaveType, start, end time.Time, reason string) (*LeaveRequest, error) {
	var v shared.ValidationError
	v.Check(typ.Valid(), "leave_type", "unknown leave type %q", typ)
	v.Check(!end.Before(start), "end_date", "cannot be before start_date")
	if err := v.Err(); err != nil {
		return nil, err
	}
	return &LeaveRequest{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(orgID),
		EmployeeID:          employeeID,
		LeaveType:           typ,
		StartDate:           shared.Day(start),
		EndDate:             shared.Day(end),
		Days:                decimal.NewFromInt(int64(shared.DaysInclusive(start, end))),
		Reason:              reason,
		Status:              LeavePending,
	}, nil
}

// Overlaps reports whether the two requests share a day
func (l *LeaveRequest) Overlaps(other *LeaveRequest) bool {
	return !l.StartDate.After(other.EndDate) && !other.StartDate.After(l.EndDate)
}

// Decide moves the request to approved, rejected or cancelled
func (l *LeaveRequest) Decide(to LeaveStatus, by *uuid.UUID, at time.Time) error {
	if err := LeaveFlow.Check("leave request", l.Status, to); err != nil {
		return err
	}
	l.Status = to
	if to != LeaveCancelled {
		l.DecidedBy = by
		l.DecidedAt = &at
	}
	return nil
}

// Unpaid reports whether the request removes days from payroll
func (l *LeaveRequest) Unpaid() bool {
	return l.Status == LeaveApproved && l.LeaveType == LeaveUnpaid
}
