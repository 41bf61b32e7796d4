package production

import (
	"time"

	"github.com/drymix/erp/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderStatus represents the status of a production order
type OrderStatus string

const (
	OrderPlanned    OrderStatus = "planned"
	OrderReleased   OrderStatus = "released"
	OrderInProgress OrderStatus = "in_progress"
	OrderCompleted  OrderStatus = "completed"
	OrderCancelled  OrderStatus = "cancelled"
)

// OrderFlow is the production order lifecycle. Once a batch has started
// the order can only run to completion.
var OrderFlow = shared.Transitions[OrderStatus]{
	OrderPlanned:    {OrderReleased, OrderCancelled},
	OrderReleased:   {OrderInProgress, OrderCancelled},
	OrderInProgress: {OrderCompleted},
}

// OrderDetails are the editable attributes of a production order
type OrderDetails struct {
	ManufacturingUnitID uuid.UUID
	PlannedQuantity     decimal.Decimal
	PlannedStart        *time.Time
	PlannedEnd          *time.Time
	Notes               string
}

// ProductionOrder asks a unit to make a quantity of a product from one recipe
type ProductionOrder struct {
	shared.TenantAggregateRoot
	OrderNumber         string          `gorm:"type:varchar(50);not null" json:"order_number"`
	BillOfMaterialID    uuid.UUID       `gorm:"type:uuid;not null" json:"bill_of_material_id"`
	ProductID           uuid.UUID       `gorm:"type:uuid;not null" json:"product_id"`
	ManufacturingUnitID uuid.UUID       `gorm:"type:uuid;not null" json:"manufacturing_unit_id"`
	PlannedQuantity     decimal.Decimal `gorm:"type:numeric(18,4);not null" json:"planned_quantity"`
	ProducedQuantity    decimal.Decimal `gorm:"type:numeric(18,4);not null;default:0" json:"produced_quantity"`
	Status              OrderStatus     `gorm:"type:varchar(20);not null;default:'planned'" json:"status"`
	PlannedStart        *time.Time      `gorm:"type:date" json:"planned_start,omitempty"`
	PlannedEnd          *time.Time      `gorm:"type:date" json:"planned_end,omitempty"`
	ActualStart         *time.Time      `json:"actual_start,omitempty"`
	ActualEnd           *time.Time      `json:"actual_end,omitempty"`
	Notes               string          `gorm:"type:text" json:"notes,omitempty"`
}

// TableName returns the table name for GORM
func (ProductionOrder) TableName() string {
	return "production_orders"
}

// NewProductionOrder plans production from an active recipe
func NewProductionOrder(orgID uuid.UUID, number string, bom *BillOfMaterials, d OrderDetails) (*ProductionOrder, error) {
	if bom.Status != BOMActive {
		return nil, shared.Errorf(shared.ErrInvalidState, "%s is %s, orders need an active BOM", bom.label(), bom.Status)
	}
	o := &ProductionOrder{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(orgID),
		OrderNumber:         number,
		BillOfMaterialID:    bom.ID,
		ProductID:           bom.ProductID,
		ProducedQuantity:    decimal.Zero,
		Status:              OrderPlanned,
	}
	if err := o.apply(d); err != nil {
		return nil, err
	}
	return o, nil
}

// Revise changes a planned order
func (o *ProductionOrder) Revise(d OrderDetails) error {
	if o.Status != OrderPlanned {
		return shared.Errorf(shared.ErrInvalidState, "production order %s is %s, only planned orders can be edited", o.OrderNumber, o.Status)
	}
	return o.apply(d)
}

func (o *ProductionOrder) apply(d OrderDetails) error {
	var v shared.ValidationError
	v.Check(d.ManufacturingUnitID != uuid.Nil, "manufacturing_unit_id", "is required")
	v.CheckPositive("planned_quantity", d.PlannedQuantity)
	v.Check(d.PlannedStart == nil || d.PlannedEnd == nil || !d.PlannedEnd.Before(*d.PlannedStart),
		"planned_end", "cannot be before planned_start")
	if err := v.Err(); err != nil {
		return err
	}
	o.ManufacturingUnitID = d.ManufacturingUnitID
	o.PlannedQuantity = shared.RoundQty(d.PlannedQuantity)
	o.PlannedStart = d.PlannedStart
	o.PlannedEnd = d.PlannedEnd
	o.Notes = d.Notes
	return nil
}

func (o *ProductionOrder) move(to OrderStatus) error {
	if err := OrderFlow.Check("production order "+o.OrderNumber, o.Status, to); err != nil {
		return err
	}
	o.Status = to
	return nil
}

// Release hands the order to the shop floor
func (o *ProductionOrder) Release() error {
	return o.move(OrderReleased)
}

// Cancel withdraws an order no batch was started for
func (o *ProductionOrder) Cancel() error {
	return o.move(OrderCancelled)
}

// CanStartBatch reports whether a new batch may be started
func (o *ProductionOrder) CanStartBatch() bool {
	return o.Status == OrderReleased || o.Status == OrderInProgress
}

// BatchStarted moves a released order to in_progress on its first batch
func (o *ProductionOrder) BatchStarted(at time.Time) error {
	if !o.CanStartBatch() {
		return shared.Errorf(shared.ErrInvalidState, "production order %s is %s and cannot start batches", o.OrderNumber, o.Status)
	}
	if o.Status == OrderReleased {
		o.Status = OrderInProgress
		o.ActualStart = &at
	}
	return nil
}

// AddProduced books the output of a completed batch. The order completes
// itself once produced reaches planned. It reports whether it completed.
func (o *ProductionOrder) AddProduced(qty decimal.Decimal, at time.Time) (bool, error) {
	if o.Status != OrderInProgress {
		return false, shared.Errorf(shared.ErrInvalidState, "production order %s is %s", o.OrderNumber, o.Status)
	}
	o.ProducedQuantity = o.ProducedQuantity.Add(qty)
	if o.ProducedQuantity.LessThan(o.PlannedQuantity) {
		return false, nil
	}
	o.Status = OrderCompleted
	o.ActualEnd = &at
	return true, nil
}
