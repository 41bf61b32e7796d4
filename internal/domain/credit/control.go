// Package credit tracks what customers owe, how risky they are and how
// overdue money is chased.
package credit

import (
	"time"

	"github.com/drymix/erp/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// RiskLevel grades a customer from its credit score
type RiskLevel string

const (
	RiskLow      RiskLevel = "low"
	RiskMedium   RiskLevel = "medium"
	RiskHigh     RiskLevel = "high"
	RiskCritical RiskLevel = "critical"
)

// RiskFor maps a score to its risk level
func RiskFor(score int) RiskLevel {
	switch {
	case score >= 75:
		return RiskLow
	case score >= 50:
		return RiskMedium
	case score >= 25:
		return RiskHigh
	default:
		return RiskCritical
	}
}

// Hold reasons written by the control itself
const (
	HoldCriticalRisk  = "critical risk"
	HoldOverLimit     = "balance exceeds credit limit"
	HoldCriticalLimit = "critical risk; balance exceeds credit limit"
)

// CreditControl is the running credit position of one customer.
// available_credit is kept equal to credit_limit - current_balance.
type CreditControl struct {
	shared.TenantEntity
	shared.Versioned
	CustomerID      uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex" json:"customer_id"`
	CreditLimit     decimal.Decimal `gorm:"type:numeric(18,2);not null;default:0" json:"credit_limit"`
	CurrentBalance  decimal.Decimal `gorm:"type:numeric(18,2);not null;default:0" json:"current_balance"`
	AvailableCredit decimal.Decimal `gorm:"type:numeric(18,2);not null;default:0" json:"available_credit"`
	OverdueAmount   decimal.Decimal `gorm:"type:numeric(18,2);not null;default:0" json:"overdue_amount"`
	CreditScore     int             `gorm:"not null;default:100" json:"credit_score"`
	RiskLevel       RiskLevel       `gorm:"type:varchar(20);not null;default:'low'" json:"risk_level"`
	OnHold          bool            `gorm:"not null;default:false" json:"on_hold"`
	HoldReason      *string         `gorm:"type:text" json:"hold_reason,omitempty"`
	LastReviewedAt  *time.Time      `json:"last_reviewed_at,omitempty"`
	LastComputedAt  *time.Time      `json:"last_computed_at,omitempty"`
}

// TableName returns the table name for GORM
func (CreditControl) TableName() string {
	return "credit_controls"
}

// NewCreditControl opens a clean control for a customer
func NewCreditControl(orgID, customerID uuid.UUID, limit decimal.Decimal) (*CreditControl, error) {
	if limit.IsNegative() {
		return nil, shared.Errorf(shared.ErrInvalidInput, "credit limit cannot be negative")
	}
	c := &CreditControl{
		TenantEntity: shared.NewTenantEntity(orgID),
		Versioned:    shared.Versioned{Version: 1},
		CustomerID:   customerID,
		CreditLimit:  shared.RoundMoney(limit),
		CreditScore:  100,
		RiskLevel:    RiskLow,
	}
	c.refresh()
	return c, nil
}

// SetLimit changes the credit limit
func (c *CreditControl) SetLimit(limit decimal.Decimal) error {
	if limit.IsNegative() {
		return shared.Errorf(shared.ErrInvalidInput, "credit limit cannot be negative")
	}
	c.CreditLimit = shared.RoundMoney(limit)
	c.refresh()
	return nil
}

// Post applies one movement to the balance and returns its audit row
func (c *CreditControl) Post(p Posting) (*CreditTransaction, error) {
	if err := p.validate(); err != nil {
		return nil, err
	}
	before := c.CurrentBalance
	c.CurrentBalance = shared.RoundMoney(before.Add(p.Type.effect(p.Amount)))
	c.refresh()

	tx := &CreditTransaction{
		TenantRecord:    shared.NewTenantRecord(c.OrganizationID),
		CustomerID:      c.CustomerID,
		TransactionType: p.Type,
		ReferenceType:   p.ReferenceType,
		ReferenceID:     p.ReferenceID,
		Amount:          shared.RoundMoney(p.Amount),
		BalanceBefore:   before,
		BalanceAfter:    c.CurrentBalance,
		Description:     p.Description,
		CreatedBy:       p.CreatedBy,
	}
	return tx, nil
}

// CheckOrder fails with CREDIT_LIMIT_EXCEEDED when the customer is on hold
// or the order total is more than the available credit.
func (c *CreditControl) CheckOrder(total decimal.Decimal) error {
	if c.OnHold {
		reason := "on hold"
		if c.HoldReason != nil {
			reason = "on hold: " + *c.HoldReason
		}
		return shared.Errorf(shared.ErrCreditLimitExceeded, "customer is %s", reason)
	}
	if total.GreaterThan(c.AvailableCredit) {
		return shared.Errorf(shared.ErrCreditLimitExceeded,
			"order total %s exceeds available credit %s", total.StringFixed(2), c.AvailableCredit.StringFixed(2))
	}
	return nil
}

// ApplyAssessment stores the outcome of a recompute
func (c *CreditControl) ApplyAssessment(a Assessment, at time.Time) {
	c.OverdueAmount = a.OverdueAmount
	c.CreditScore = a.Score
	c.RiskLevel = a.Risk
	c.LastComputedAt = &at
	c.refresh()
}

// MarkReviewed stamps the last review time
func (c *CreditControl) MarkReviewed(at time.Time) {
	c.LastReviewedAt = &at
}

// refresh derives available credit and the hold flag
func (c *CreditControl) refresh() {
	c.AvailableCredit = c.CreditLimit.Sub(c.CurrentBalance)
	critical := c.RiskLevel == RiskCritical
	over := c.CurrentBalance.GreaterThan(c.CreditLimit)

	var reason string
	switch {
	case critical && over:
		reason = HoldCriticalLimit
	case critical:
		reason = HoldCriticalRisk
	case over:
		reason = HoldOverLimit
	}
	c.OnHold = reason != ""
	if c.OnHold {
		c.HoldReason = &reason
	} else {
		c.HoldReason = nil
	}
}
