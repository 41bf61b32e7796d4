package trade

import (
	"time"

	"github.com/drymix/erp/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// InvoiceStatus represents the status of an invoice
type InvoiceStatus string

const (
	InvoiceDraft         InvoiceStatus = "draft"
	InvoiceIssued        InvoiceStatus = "issued"
	InvoicePartiallyPaid InvoiceStatus = "partially_paid"
	InvoicePaid          InvoiceStatus = "paid"
	InvoiceOverdue       InvoiceStatus = "overdue"
	InvoiceCancelled     InvoiceStatus = "cancelled"
)

// InvoiceFlow is the invoice lifecycle
var InvoiceFlow = shared.Transitions[InvoiceStatus]{
	InvoiceDraft:         {InvoiceIssued, InvoiceCancelled},
	InvoiceIssued:        {InvoicePartiallyPaid, InvoicePaid, InvoiceOverdue, InvoiceCancelled},
	InvoicePartiallyPaid: {InvoicePartiallyPaid, InvoicePaid, InvoiceOverdue},
	InvoiceOverdue:       {InvoiceOverdue, InvoicePaid, InvoiceCancelled},
}

// IsOpen reports whether money can still be received against the invoice
func (s InvoiceStatus) IsOpen() bool {
	return s == InvoiceIssued || s == InvoicePartiallyPaid || s == InvoiceOverdue
}

// InvoiceItem is one line of an invoice
type InvoiceItem struct {
	shared.BaseEntity
	InvoiceID uuid.UUID `gorm:"type:uuid;not null" json:"invoice_id"`
	Line
}

// TableName returns the table name for GORM
func (InvoiceItem) TableName() string {
	return "invoice_items"
}

// InvoiceDetails are the editable header fields
type InvoiceDetails struct {
	CustomerID     uuid.UUID
	InvoiceDate    time.Time
	DueDate        time.Time
	HeaderDiscount decimal.Decimal
	Notes          string
	Items          []LineInput
}

// Invoice bills a customer. Issuing it debits the customer's credit balance.
type Invoice struct {
	shared.TenantAggregateRoot
	InvoiceNumber string        `gorm:"type:varchar(50);not null" json:"invoice_number"`
	CustomerID    uuid.UUID     `gorm:"type:uuid;not null" json:"customer_id"`
	SalesOrderID  *uuid.UUID    `gorm:"type:uuid" json:"sales_order_id,omitempty"`
	InvoiceDate   time.Time     `gorm:"type:date;not null" json:"invoice_date"`
	DueDate       time.Time     `gorm:"type:date;not null" json:"due_date"`
	Status        InvoiceStatus `gorm:"type:varchar(20);not null;default:'draft'" json:"status"`
	Totals        `gorm:"embedded"`
	AmountPaid    decimal.Decimal `gorm:"type:numeric(18,2);not null;default:0" json:"amount_paid"`
	Notes         string          `gorm:"type:text" json:"notes,omitempty"`
	IssuedAt      *time.Time      `json:"issued_at,omitempty"`
	CancelledAt   *time.Time      `json:"cancelled_at,omitempty"`
	Items         []InvoiceItem   `gorm:"foreignKey:InvoiceID" json:"items"`
}

// TableName returns the table name for GORM
func (Invoice) TableName() string {
	return "invoices"
}

// NewInvoice creates a draft invoice
func NewInvoice(orgID uuid.UUID, number string, d InvoiceDetails) (*Invoice, error) {
	inv := &Invoice{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(orgID),
		InvoiceNumber:       number,
		Status:              InvoiceDraft,
		AmountPaid:          decimal.Zero,
	}
	if err := inv.apply(d); err != nil {
		return nil, err
	}
	return inv, nil
}

// InvoiceFromOrder copies the lines and discounts of an order into a new draft
func InvoiceFromOrder(o *SalesOrder, number string, invoiceDate, dueDate time.Time, notes string) (*Invoice, error) {
	if !o.CanInvoice() {
		return nil, shared.Errorf(shared.ErrInvalidState, "sales order %s is %s and cannot be invoiced", o.OrderNumber, o.Status)
	}
	items := make([]LineInput, len(o.Items))
	for i, it := range o.Items {
		items[i] = LineInput{
			ProductID:      it.ProductID,
			Description:    it.Description,
			Quantity:       it.Quantity,
			UnitPrice:      it.UnitPrice,
			DiscountAmount: it.DiscountAmount,
			TaxRate:        it.TaxRate,
		}
	}
	inv, err := NewInvoice(o.OrganizationID, number, InvoiceDetails{
		CustomerID:     o.CustomerID,
		InvoiceDate:    invoiceDate,
		DueDate:        dueDate,
		HeaderDiscount: o.HeaderDiscount,
		Notes:          notes,
		Items:          items,
	})
	if err != nil {
		return nil, err
	}
	inv.SalesOrderID = &o.ID
	return inv, nil
}

// Revise replaces header and lines of a draft invoice
func (inv *Invoice) Revise(d InvoiceDetails) error {
	if inv.Status != InvoiceDraft {
		return shared.Errorf(shared.ErrInvalidState, "invoice %s is %s, only drafts can be edited", inv.InvoiceNumber, inv.Status)
	}
	return inv.apply(d)
}

func (inv *Invoice) apply(d InvoiceDetails) error {
	var v shared.ValidationError
	v.Check(d.CustomerID != uuid.Nil, "customer_id", "is required")
	v.Check(!d.InvoiceDate.IsZero(), "invoice_date", "is required")
	v.Check(!d.DueDate.Before(d.InvoiceDate), "due_date", "cannot be before the invoice date")
	lines, err := priceLines(d.Items)
	v.Merge("items", err)
	if err := v.Err(); err != nil {
		return err
	}
	totals, err := ComputeTotals(lines, d.HeaderDiscount)
	if err != nil {
		return err
	}

	inv.CustomerID = d.CustomerID
	inv.InvoiceDate = d.InvoiceDate
	inv.DueDate = d.DueDate
	inv.Notes = d.Notes
	inv.Totals = totals
	inv.Items = make([]InvoiceItem, len(lines))
	for i, l := range lines {
		inv.Items[i] = InvoiceItem{BaseEntity: shared.NewBaseEntity(), InvoiceID: inv.ID, Line: l}
	}
	return nil
}

// Outstanding is what the customer still owes on the invoice
func (inv *Invoice) Outstanding() decimal.Decimal {
	return inv.TotalAmount.Sub(inv.AmountPaid)
}

// Issue finalizes the invoice; from now on it counts against the customer's credit
func (inv *Invoice) Issue(at time.Time) error {
	if err := InvoiceFlow.Check("invoice "+inv.InvoiceNumber, inv.Status, InvoiceIssued); err != nil {
		return err
	}
	if !inv.TotalAmount.IsPositive() {
		return shared.Errorf(shared.ErrInvalidState, "invoice %s has nothing to bill", inv.InvoiceNumber)
	}
	inv.Status = InvoiceIssued
	inv.IssuedAt = &at
	inv.AddDomainEvent(NewInvoiceEvent(EventInvoiceIssued, inv, inv.TotalAmount))
	return nil
}

// ApplyPayment books a payment. An overdue invoice stays overdue until
// it is paid in full.
func (inv *Invoice) ApplyPayment(p *Payment) error {
	if !inv.Status.IsOpen() {
		return shared.Errorf(shared.ErrInvalidState, "invoice %s is %s and cannot take payments", inv.InvoiceNumber, inv.Status)
	}
	if !p.Amount.IsPositive() {
		return shared.NewValidationError("amount", "must be greater than zero")
	}
	if p.Amount.GreaterThan(inv.Outstanding()) {
		return shared.Errorf(shared.ErrInvalidInput, "payment %s exceeds the outstanding %s on invoice %s",
			p.Amount.StringFixed(2), inv.Outstanding().StringFixed(2), inv.InvoiceNumber)
	}
	inv.AmountPaid = inv.AmountPaid.Add(p.Amount)
	next := InvoicePartiallyPaid
	switch {
	case inv.Outstanding().IsZero():
		next = InvoicePaid
	case inv.Status == InvoiceOverdue:
		next = InvoiceOverdue
	}
	inv.Status = next

	ev := NewInvoiceEvent(EventPaymentReceived, inv, p.Amount)
	ev.PaymentID = &p.ID
	ev.Reference = p.PaymentNumber
	inv.AddDomainEvent(ev)
	return nil
}

// Cancel voids the invoice. Only invoices without payments can be
// cancelled; an issued invoice reverses its debit.
func (inv *Invoice) Cancel(at time.Time) error {
	if inv.AmountPaid.IsPositive() {
		return shared.Errorf(shared.ErrInvalidState, "invoice %s has payments and cannot be cancelled", inv.InvoiceNumber)
	}
	wasIssued := inv.Status.IsOpen()
	if err := InvoiceFlow.Check("invoice "+inv.InvoiceNumber, inv.Status, InvoiceCancelled); err != nil {
		return err
	}
	inv.Status = InvoiceCancelled
	inv.CancelledAt = &at
	if wasIssued {
		inv.AddDomainEvent(NewInvoiceEvent(EventInvoiceCancelled, inv, inv.TotalAmount))
	}
	return nil
}

// MarkOverdue flags an unpaid invoice whose due date is before asOf's
// calendar day. It reports whether the status changed.
func (inv *Invoice) MarkOverdue(asOf time.Time) bool {
	if inv.Status != InvoiceIssued && inv.Status != InvoicePartiallyPaid {
		return false
	}
	y, m, d := asOf.Date()
	today := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	dy, dm, dd := inv.DueDate.Date()
	if !time.Date(dy, dm, dd, 0, 0, 0, 0, time.UTC).Before(today) {
		return false
	}
	inv.Status = InvoiceOverdue
	return true
}
