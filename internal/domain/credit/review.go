package credit

import (
	"strings"
	"time"

	"github.com/drymix/erp/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ReviewStatus is the decision state of a credit review
type ReviewStatus string

const (
	ReviewPending  ReviewStatus = "pending"
	ReviewApproved ReviewStatus = "approved"
	ReviewRejected ReviewStatus = "rejected"
)

// ReviewFlow decides a review exactly once
var ReviewFlow = shared.Transitions[ReviewStatus]{
	ReviewPending: {ReviewApproved, ReviewRejected},
}

// CreditReview proposes a new credit limit and records the before/after
// position of the customer.
type CreditReview struct {
	shared.TenantEntity
	shared.Versioned
	CustomerID    uuid.UUID       `gorm:"type:uuid;not null" json:"customer_id"`
	PreviousLimit decimal.Decimal `gorm:"type:numeric(18,2);not null" json:"previous_limit"`
	NewLimit      decimal.Decimal `gorm:"type:numeric(18,2);not null" json:"new_limit"`
	PreviousScore int             `gorm:"not null" json:"previous_score"`
	NewScore      int             `gorm:"not null" json:"new_score"`
	PreviousRisk  RiskLevel       `gorm:"type:varchar(20);not null" json:"previous_risk"`
	NewRisk       RiskLevel       `gorm:"type:varchar(20);not null" json:"new_risk"`
	Status        ReviewStatus    `gorm:"type:varchar(20);not null;default:'pending'" json:"status"`
	Reason        string          `gorm:"type:text;not null" json:"reason"`
	DecisionNotes string          `gorm:"type:text" json:"decision_notes,omitempty"`
	RequestedBy   *uuid.UUID      `gorm:"type:uuid" json:"requested_by,omitempty"`
	ReviewedBy    *uuid.UUID      `gorm:"type:uuid" json:"reviewed_by,omitempty"`
	ReviewedAt    *time.Time      `json:"reviewed_at,omitempty"`
}

// TableName returns the table name for GORM
func (CreditReview) TableName() string {
	return "credit_reviews"
}

// NewCreditReview proposes newLimit for the customer of ctl. projected is
// the assessment the customer would get under the new limit.
func NewCreditReview(ctl *CreditControl, newLimit decimal.Decimal, projected Assessment, reason string, by *uuid.UUID) (*CreditReview, error) {
	ve := &shared.ValidationError{}
	ve.Check(!newLimit.IsNegative(), "new_limit", "must not be negative")
	ve.Check(strings.TrimSpace(reason) != "", "reason", "is required")
	if err := ve.Err(); err != nil {
		return nil, err
	}
	return &CreditReview{
		TenantEntity:  shared.NewTenantEntity(ctl.OrganizationID),
		Versioned:     shared.Versioned{Version: 1},
		CustomerID:    ctl.CustomerID,
		PreviousLimit: ctl.CreditLimit,
		NewLimit:      shared.RoundMoney(newLimit),
		PreviousScore: ctl.CreditScore,
		NewScore:      projected.Score,
		PreviousRisk:  ctl.RiskLevel,
		NewRisk:       projected.Risk,
		Status:        ReviewPending,
		Reason:        strings.TrimSpace(reason),
		RequestedBy:   by,
	}, nil
}

// Approve accepts the proposal
func (r *CreditReview) Approve(by *uuid.UUID, notes string, at time.Time) error {
	return r.decide(ReviewApproved, by, notes, at)
}

// Reject declines the proposal
func (r *CreditReview) Reject(by *uuid.UUID, notes string, at time.Time) error {
	return r.decide(ReviewRejected, by, notes, at)
}

func (r *CreditReview) decide(to ReviewStatus, by *uuid.UUID, notes string, at time.Time) error {
	if err := ReviewFlow.Check("credit review", r.Status, to); err != nil {
		return err
	}
	r.Status = to
	r.ReviewedBy = by
	r.ReviewedAt = &at
	r.DecisionNotes = notes
	return nil
}
