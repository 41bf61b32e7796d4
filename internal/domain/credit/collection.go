package credit

import (
	"time"

	"github.com/drymix/erp/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CollectionStatus tracks a collection case
type CollectionStatus string

const (
	CollectionOpen       CollectionStatus = "open"
	CollectionInProgress CollectionStatus = "in_progress"
	CollectionPromised   CollectionStatus = "promised"
	CollectionResolved   CollectionStatus = "resolved"
	CollectionWrittenOff CollectionStatus = "written_off"
)

// CollectionFlow ends in resolved or written_off
var CollectionFlow = shared.Transitions[CollectionStatus]{
	CollectionOpen:       {CollectionInProgress, CollectionPromised, CollectionResolved, CollectionWrittenOff},
	CollectionInProgress: {CollectionPromised, CollectionResolved, CollectionWrittenOff},
	CollectionPromised:   {CollectionInProgress, CollectionPromised, CollectionResolved, CollectionWrittenOff},
}

// Collection is a case of chasing money owed by a customer
type Collection struct {
	shared.TenantAggregateRoot
	CollectionNumber string           `gorm:"type:varchar(50);not null" json:"collection_number"`
	CustomerID       uuid.UUID        `gorm:"type:uuid;not null" json:"customer_id"`
	InvoiceID        *uuid.UUID       `gorm:"type:uuid" json:"invoice_id,omitempty"`
	AmountDue        decimal.Decimal  `gorm:"type:numeric(18,2);not null" json:"amount_due"`
	AmountCollected  decimal.Decimal  `gorm:"type:numeric(18,2);not null;default:0" json:"amount_collected"`
	Status           CollectionStatus `gorm:"type:varchar(20);not null;default:'open'" json:"status"`
	AssignedTo       string           `gorm:"type:varchar(100)" json:"assigned_to,omitempty"`
	PromisedDate     *time.Time       `gorm:"type:date" json:"promised_date,omitempty"`
	Notes            string           `gorm:"type:text" json:"notes,omitempty"`
	ResolvedAt       *time.Time       `json:"resolved_at,omitempty"`
}

// TableName returns the table name for GORM
func (Collection) TableName() string {
	return "collections"
}

// NewCollection opens a collection case
func NewCollection(orgID uuid.UUID, number string, customerID uuid.UUID, invoiceID *uuid.UUID, amountDue decimal.Decimal) (*Collection, error) {
	if !amountDue.IsPositive() {
		return nil, shared.Errorf(shared.ErrInvalidInput, "amount due must be greater than zero")
	}
	return &Collection{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(orgID),
		CollectionNumber:    number,
		CustomerID:          customerID,
		InvoiceID:           invoiceID,
		AmountDue:           shared.RoundMoney(amountDue),
		AmountCollected:     decimal.Zero,
		Status:              CollectionOpen,
	}, nil
}

// Remaining is what is still to be collected
func (c *Collection) Remaining() decimal.Decimal {
	return c.AmountDue.Sub(c.AmountCollected)
}

// IsClosed reports whether the case is finished
func (c *Collection) IsClosed() bool {
	return c.Status == CollectionResolved || c.Status == CollectionWrittenOff
}

// Assign hands the case to a collector and starts work on it
func (c *Collection) Assign(collector, notes string) error {
	if c.IsClosed() {
		return shared.Errorf(shared.ErrInvalidState, "collection %s is %s", c.CollectionNumber, c.Status)
	}
	c.AssignedTo = collector
	if notes != "" {
		c.Notes = notes
	}
	if c.Status == CollectionOpen {
		c.Status = CollectionInProgress
	}
	return nil
}

// Collect records money received. The case resolves once nothing remains.
func (c *Collection) Collect(amount decimal.Decimal, at time.Time) error {
	if c.IsClosed() {
		return shared.Errorf(shared.ErrInvalidState, "collection %s is %s", c.CollectionNumber, c.Status)
	}
	if !amount.IsPositive() {
		return shared.Errorf(shared.ErrInvalidInput, "collected amount must be greater than zero")
	}
	if amount.GreaterThan(c.Remaining()) {
		return shared.Errorf(shared.ErrInvalidInput, "collected amount %s exceeds remaining %s",
			amount.StringFixed(2), c.Remaining().StringFixed(2))
	}
	c.AmountCollected = shared.RoundMoney(c.AmountCollected.Add(amount))
	if !c.Remaining().IsPositive() {
		c.Status = CollectionResolved
		c.ResolvedAt = &at
	} else if c.Status == CollectionOpen {
		c.Status = CollectionInProgress
	}
	return nil
}

// Promise records the date the customer promised to pay by
func (c *Collection) Promise(date time.Time, notes string) error {
	if err := CollectionFlow.Check("collection", c.Status, CollectionPromised); err != nil {
		return err
	}
	c.Status = CollectionPromised
	c.PromisedDate = &date
	if notes != "" {
		c.Notes = notes
	}
	return nil
}

// Resolve closes the case
func (c *Collection) Resolve(at time.Time, notes string) error {
	if err := CollectionFlow.Check("collection", c.Status, CollectionResolved); err != nil {
		return err
	}
	c.Status = CollectionResolved
	c.ResolvedAt = &at
	if notes != "" {
		c.Notes = notes
	}
	return nil
}

// WriteOff abandons the remaining amount and returns it
func (c *Collection) WriteOff(at time.Time, notes string) (decimal.Decimal, error) {
	if err := CollectionFlow.Check("collection", c.Status, CollectionWrittenOff); err != nil {
		return decimal.Zero, err
	}
	c.Status = CollectionWrittenOff
	c.ResolvedAt = &at
	if notes != "" {
		c.Notes = notes
	}
	return c.Remaining(), nil
}
