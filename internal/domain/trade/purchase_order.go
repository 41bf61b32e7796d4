package trade

import (
	"time"

	"github.com/drymix/erp/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PurchaseStatus represents the status of a purchase order
type PurchaseStatus string

const (
	PurchaseDraft             PurchaseStatus = "draft"
	PurchaseApproved          PurchaseStatus = "approved"
	PurchaseSent              PurchaseStatus = "sent"
	PurchasePartiallyReceived PurchaseStatus = "partially_received"
	PurchaseReceived          PurchaseStatus = "received"
	PurchaseCancelled         PurchaseStatus = "cancelled"
)

// PurchaseFlow is the purchase order lifecycle
var PurchaseFlow = shared.Transitions[PurchaseStatus]{
	PurchaseDraft:             {PurchaseApproved, PurchaseCancelled},
	PurchaseApproved:          {PurchaseSent, PurchasePartiallyReceived, PurchaseReceived, PurchaseCancelled},
	PurchaseSent:              {PurchasePartiallyReceived, PurchaseReceived, PurchaseCancelled},
	PurchasePartiallyReceived: {PurchasePartiallyReceived, PurchaseReceived},
}

// CanReceive reports whether goods may be received against an order in status s
func (s PurchaseStatus) CanReceive() bool {
	return s == PurchaseApproved || s == PurchaseSent || s == PurchasePartiallyReceived
}

// PurchaseOrderItem is one line of a purchase order
type PurchaseOrderItem struct {
	shared.BaseEntity
	PurchaseOrderID uuid.UUID `gorm:"type:uuid;not null" json:"purchase_order_id"`
	Line
	ReceivedQuantity decimal.Decimal `gorm:"type:numeric(18,4);not null;default:0" json:"received_quantity"`
}

// TableName returns the table name for GORM
func (PurchaseOrderItem) TableName() string {
	return "purchase_order_items"
}

// Pending is the quantity still to be received
func (i *PurchaseOrderItem) Pending() decimal.Decimal {
	return i.Quantity.Sub(i.ReceivedQuantity)
}

// PurchaseOrderDetails are the editable header fields
type PurchaseOrderDetails struct {
	SupplierID          uuid.UUID
	ManufacturingUnitID uuid.UUID
	OrderDate           time.Time
	ExpectedDate        *time.Time
	HeaderDiscount      decimal.Decimal
	Notes               string
	Items               []LineInput
}

// PurchaseOrder buys raw materials or packaging from a supplier
type PurchaseOrder struct {
	shared.TenantAggregateRoot
	OrderNumber         string         `gorm:"type:varchar(50);not null" json:"order_number"`
	SupplierID          uuid.UUID      `gorm:"type:uuid;not null" json:"supplier_id"`
	ManufacturingUnitID uuid.UUID      `gorm:"type:uuid;not null" json:"manufacturing_unit_id"`
	OrderDate           time.Time      `gorm:"type:date;not null" json:"order_date"`
	ExpectedDate        *time.Time     `gorm:"type:date" json:"expected_date,omitempty"`
	Status              PurchaseStatus `gorm:"type:varchar(20);not null;default:'draft'" json:"status"`
	Totals              `gorm:"embedded"`
	Notes               string              `gorm:"type:text" json:"notes,omitempty"`
	ApprovedBy          *uuid.UUID          `gorm:"type:uuid" json:"approved_by,omitempty"`
	ApprovedAt          *time.Time          `json:"approved_at,omitempty"`
	SentAt              *time.Time          `json:"sent_at,omitempty"`
	Items               []PurchaseOrderItem `gorm:"foreignKey:PurchaseOrderID" json:"items"`
}

// TableName returns the table name for GORM
func (PurchaseOrder) TableName() string {
	return "purchase_orders"
}

// NewPurchaseOrder creates a draft purchase order
func NewPurchaseOrder(orgID uuid.UUID, number string, d PurchaseOrderDetails) (*PurchaseOrder, error) {
	po := &PurchaseOrder{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(orgID),
		OrderNumber:         number,
		Status:              PurchaseDraft,
	}
	if err := po.apply(d); err != nil {
		return nil, err
	}
	return po, nil
}

// Revise replaces header and lines of a draft order
func (po *PurchaseOrder) Revise(d PurchaseOrderDetails) error {
	if po.Status != PurchaseDraft {
		return shared.Errorf(shared.ErrInvalidState, "purchase order %s is %s, only drafts can be edited", po.OrderNumber, po.Status)
	}
	return po.apply(d)
}

func (po *PurchaseOrder) apply(d PurchaseOrderDetails) error {
	var v shared.ValidationError
	v.Check(d.SupplierID != uuid.Nil, "supplier_id", "is required")
	v.Check(d.ManufacturingUnitID != uuid.Nil, "manufacturing_unit_id", "is required")
	v.Check(!d.OrderDate.IsZero(), "order_date", "is required")
	v.Check(d.ExpectedDate == nil || !d.ExpectedDate.Before(d.OrderDate), "expected_date", "cannot be before the order date")
	lines, err := priceLines(d.Items)
	v.Merge("items", err)
	if err := v.Err(); err != nil {
		return err
	}
	totals, err := ComputeTotals(lines, d.HeaderDiscount)
	if err != nil {
		return err
	}

	po.SupplierID = d.SupplierID
	po.ManufacturingUnitID = d.ManufacturingUnitID
	po.OrderDate = d.OrderDate
	po.ExpectedDate = d.ExpectedDate
	po.Notes = d.Notes
	po.Totals = totals
	po.Items = make([]PurchaseOrderItem, len(lines))
	for i, l := range lines {
		po.Items[i] = PurchaseOrderItem{
			BaseEntity:       shared.NewBaseEntity(),
			PurchaseOrderID:  po.ID,
			Line:             l,
			ReceivedQuantity: decimal.Zero,
		}
	}
	return nil
}

func (po *PurchaseOrder) move(to PurchaseStatus) error {
	if err := PurchaseFlow.Check("purchase order "+po.OrderNumber, po.Status, to); err != nil {
		return err
	}
	po.Status = to
	return nil
}

// Approve releases the order for sending
func (po *PurchaseOrder) Approve(by *uuid.UUID, at time.Time) error {
	if err := po.move(PurchaseApproved); err != nil {
		return err
	}
	po.ApprovedBy = by
	po.ApprovedAt = &at
	return nil
}

// Send records that the order went out to the supplier
func (po *PurchaseOrder) Send(at time.Time) error {
	if err := po.move(PurchaseSent); err != nil {
		return err
	}
	po.SentAt = &at
	return nil
}

// Cancel withdraws an order nothing was received against
func (po *PurchaseOrder) Cancel() error {
	return po.move(PurchaseCancelled)
}

// Item finds a line by id
func (po *PurchaseOrder) Item(id uuid.UUID) (*PurchaseOrderItem, bool) {
	for i := range po.Items {
		if po.Items[i].ID == id {
			return &po.Items[i], true
		}
	}
	return nil, false
}

// Receive adds qty to the received quantity of a line. Receiving more than
// was ordered is rejected.
func (po *PurchaseOrder) Receive(itemID uuid.UUID, qty decimal.Decimal) error {
	if !po.Status.CanReceive() {
		return shared.Errorf(shared.ErrInvalidState, "purchase order %s is %s and cannot receive goods", po.OrderNumber, po.Status)
	}
	it, ok := po.Item(itemID)
	if !ok {
		return shared.Errorf(shared.ErrInvalidReference, "purchase order %s has no item %s", po.OrderNumber, itemID)
	}
	if qty.GreaterThan(it.Pending()) {
		return shared.Errorf(shared.ErrInvalidInput, "line %d: receiving %s exceeds the pending %s",
			it.LineNo, qty.String(), it.Pending().String())
	}
	it.ReceivedQuantity = it.ReceivedQuantity.Add(qty)
	return nil
}

// SettleReceiptStatus moves the order to partially_received or received
// after one or more Receive calls.
func (po *PurchaseOrder) SettleReceiptStatus() error {
	anyReceived, allReceived := false, true
	for _, it := range po.Items {
		if it.ReceivedQuantity.IsPositive() {
			anyReceived = true
		}
		if it.Pending().IsPositive() {
			allReceived = false
		}
	}
	switch {
	case allReceived:
		return po.move(PurchaseReceived)
	case anyReceived:
		return po.move(PurchasePartiallyReceived)
	}
	return nil
}
