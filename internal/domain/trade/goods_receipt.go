package trade

import (
	"fmt"
	"time"

	"github.com/drymix/erp/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// GRNStatus represents the status of a goods receipt note
type GRNStatus string

const (
	GRNDraft     GRNStatus = "draft"
	GRNCompleted GRNStatus = "completed"
)

// GoodsReceiptItem records what arrived for one purchase order line
type GoodsReceiptItem struct {
	shared.BaseEntity
	GoodsReceiptNoteID  uuid.UUID       `gorm:"type:uuid;not null" json:"goods_receipt_note_id"`
	PurchaseOrderItemID uuid.UUID       `gorm:"type:uuid;not null" json:"purchase_order_item_id"`
	ProductID           uuid.UUID       `gorm:"type:uuid;not null" json:"product_id"`
	QuantityReceived    decimal.Decimal `gorm:"type:numeric(18,4);not null" json:"quantity_received"`
	QuantityAccepted    decimal.Decimal `gorm:"type:numeric(18,4);not null;default:0" json:"quantity_accepted"`
	QuantityRejected    decimal.Decimal `gorm:"type:numeric(18,4);not null;default:0" json:"quantity_rejected"`
	RejectionReason     string          `gorm:"type:text" json:"rejection_reason,omitempty"`
}

// TableName returns the table name for GORM
func (GoodsReceiptItem) TableName() string {
	return "goods_receipt_note_items"
}

// ReceiptLine is the input for one GRN line
type ReceiptLine struct {
	PurchaseOrderItemID uuid.UUID
	QuantityReceived    decimal.Decimal
	QuantityRejected    decimal.Decimal
	RejectionReason     string
}

// GoodsReceiptNote records a delivery against a purchase order
type GoodsReceiptNote struct {
	shared.TenantAggregateRoot
	GRNNumber           string             `gorm:"column:grn_number;type:varchar(50);not null" json:"grn_number"`
	PurchaseOrderID     uuid.UUID          `gorm:"type:uuid;not null" json:"purchase_order_id"`
	ManufacturingUnitID uuid.UUID          `gorm:"type:uuid;not null" json:"manufacturing_unit_id"`
	ReceivedDate        time.Time          `gorm:"type:date;not null" json:"received_date"`
	Status              GRNStatus          `gorm:"type:varchar(20);not null;default:'draft'" json:"status"`
	DeliveryNoteNumber  string             `gorm:"type:varchar(100)" json:"delivery_note_number,omitempty"`
	Notes               string             `gorm:"type:text" json:"notes,omitempty"`
	CompletedAt         *time.Time         `json:"completed_at,omitempty"`
	Items               []GoodsReceiptItem `gorm:"foreignKey:GoodsReceiptNoteID" json:"items"`
}

// TableName returns the table name for GORM
func (GoodsReceiptNote) TableName() string {
	return "goods_receipt_notes"
}

// NewGoodsReceiptNote drafts a receipt against po. Every line must name an
// item of the order, and accepted plus rejected equals received.
func NewGoodsReceiptNote(po *PurchaseOrder, number string, receivedDate time.Time, deliveryNote, notes string, lines []ReceiptLine) (*GoodsReceiptNote, error) {
	if !po.Status.CanReceive() {
		return nil, shared.Errorf(shared.ErrInvalidState, "purchase order %s is %s and cannot receive goods", po.OrderNumber, po.Status)
	}
	if len(lines) == 0 {
		return nil, shared.NewValidationError("items", "at least one item is required")
	}
	if receivedDate.IsZero() {
		return nil, shared.NewValidationError("received_date", "is required")
	}

	grn := &GoodsReceiptNote{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(po.OrganizationID),
		GRNNumber:           number,
		PurchaseOrderID:     po.ID,
		ManufacturingUnitID: po.ManufacturingUnitID,
		ReceivedDate:        receivedDate,
		Status:              GRNDraft,
		DeliveryNoteNumber:  deliveryNote,
		Notes:               notes,
	}

	var v shared.ValidationError
	seen := map[uuid.UUID]bool{}
	for i, l := range lines {
		field := func(name string) string { return fmt.Sprintf("items[%d].%s", i, name) }
		poItem, ok := po.Item(l.PurchaseOrderItemID)
		if !ok {
			v.Add(field("purchase_order_item_id"), "is not a line of purchase order %s", po.OrderNumber)
			continue
		}
		if seen[l.PurchaseOrderItemID] {
			v.Add(field("purchase_order_item_id"), "is listed twice")
			continue
		}
		seen[l.PurchaseOrderItemID] = true
		v.CheckPositive(field("quantity_received"), l.QuantityReceived)
		v.CheckNonNegative(field("quantity_rejected"), l.QuantityRejected)
		v.Check(l.QuantityRejected.LessThanOrEqual(l.QuantityReceived), field("quantity_rejected"), "cannot exceed the quantity received")
		v.Check(l.QuantityRejected.IsZero() || l.RejectionReason != "", field("rejection_reason"), "is required when goods are rejected")

		received := shared.RoundQty(l.QuantityReceived)
		rejected := shared.RoundQty(l.QuantityRejected)
		grn.Items = append(grn.Items, GoodsReceiptItem{
			BaseEntity:          shared.NewBaseEntity(),
			GoodsReceiptNoteID:  grn.ID,
			PurchaseOrderItemID: poItem.ID,
			ProductID:           poItem.ProductID,
			QuantityReceived:    received,
			QuantityAccepted:    received.Sub(rejected),
			QuantityRejected:    rejected,
			RejectionReason:     l.RejectionReason,
		})
	}
	if err := v.Err(); err != nil {
		return nil, err
	}
	return grn, nil
}

// Complete applies the accepted quantities to po. The caller books the
// matching stock receipts.
func (g *GoodsReceiptNote) Complete(po *PurchaseOrder, at time.Time) error {
	if g.Status != GRNDraft {
		return shared.Errorf(shared.ErrInvalidState, "goods receipt %s is already completed", g.GRNNumber)
	}
	if po.ID != g.PurchaseOrderID {
		return shared.Errorf(shared.ErrInvalidInput, "goods receipt %s belongs to another purchase order", g.GRNNumber)
	}
	for _, it := range g.Items {
		if it.QuantityAccepted.IsZero() {
			continue
		}
		if err := po.Receive(it.PurchaseOrderItemID, it.QuantityAccepted); err != nil {
			return err
		}
	}
	if err := po.SettleReceiptStatus(); err != nil {
		return err
	}
	g.Status = GRNCompleted
	g.CompletedAt = &at
	return nil
}
