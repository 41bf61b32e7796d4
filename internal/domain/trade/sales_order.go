package trade

import (
	"time"

	"github.com/drymix/erp/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderStatus represents the status of a sales order
type OrderStatus string

const (
	OrderDraft      OrderStatus = "draft"
	OrderConfirmed  OrderStatus = "confirmed"
	OrderProcessing OrderStatus = "processing"
	OrderDispatched OrderStatus = "dispatched"
	OrderDelivered  OrderStatus = "delivered"
	OrderInvoiced   OrderStatus = "invoiced"
	OrderCancelled  OrderStatus = "cancelled"
)

// OrderFlow is the sales order lifecycle. Once goods have left the unit
// the order can no longer be cancelled.
var OrderFlow = shared.Transitions[OrderStatus]{
	OrderDraft:      {OrderConfirmed, OrderCancelled},
	OrderConfirmed:  {OrderProcessing, OrderDispatched, OrderCancelled},
	OrderProcessing: {OrderDispatched, OrderCancelled},
	OrderDispatched: {OrderDelivered, OrderInvoiced},
	OrderDelivered:  {OrderInvoiced},
}

// HoldsReservation reports whether stock is reserved for an order in status s
func (s OrderStatus) HoldsReservation() bool {
	return s == OrderConfirmed || s == OrderProcessing
}

// SalesOrderItem is one line of a sales order
type SalesOrderItem struct {
	shared.BaseEntity
	SalesOrderID uuid.UUID `gorm:"type:uuid;not null" json:"sales_order_id"`
	Line
}

// TableName returns the table name for GORM
func (SalesOrderItem) TableName() string {
	return "sales_order_items"
}

// SalesOrderDetails are the editable header fields
type SalesOrderDetails struct {
	CustomerID          uuid.UUID
	ManufacturingUnitID uuid.UUID
	OrderDate           time.Time
	DeliveryDate        *time.Time
	HeaderDiscount      decimal.Decimal
	ShippingAddress     string
	Notes               string
	Items               []LineInput
}

// SalesOrder is a customer order fulfilled from one manufacturing unit
type SalesOrder struct {
	shared.TenantAggregateRoot
	OrderNumber         string      `gorm:"type:varchar(50);not null" json:"order_number"`
	CustomerID          uuid.UUID   `gorm:"type:uuid;not null" json:"customer_id"`
	ManufacturingUnitID uuid.UUID   `gorm:"type:uuid;not null" json:"manufacturing_unit_id"`
	OrderDate           time.Time   `gorm:"type:date;not null" json:"order_date"`
	DeliveryDate        *time.Time  `gorm:"type:date" json:"delivery_date,omitempty"`
	Status              OrderStatus `gorm:"type:varchar(20);not null;default:'draft'" json:"status"`
	Totals              `gorm:"embedded"`
	ShippingAddress     string           `gorm:"type:text" json:"shipping_address,omitempty"`
	Notes               string           `gorm:"type:text" json:"notes,omitempty"`
	ConfirmedAt         *time.Time       `json:"confirmed_at,omitempty"`
	DispatchedAt        *time.Time       `json:"dispatched_at,omitempty"`
	DeliveredAt         *time.Time       `json:"delivered_at,omitempty"`
	CancelledAt         *time.Time       `json:"cancelled_at,omitempty"`
	Items               []SalesOrderItem `gorm:"foreignKey:SalesOrderID" json:"items"`
}

// TableName returns the table name for GORM
func (SalesOrder) TableName() string {
	return "sales_orders"
}

// NewSalesOrder creates a draft order
func NewSalesOrder(orgID uuid.UUID, number string, d SalesOrderDetails) (*SalesOrder, error) {
	o := &SalesOrder{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(orgID),
		OrderNumber:         number,
		Status:              OrderDraft,
	}
	if err := o.apply(d); err != nil {
		return nil, err
	}
	return o, nil
}

// Revise replaces header and lines of a draft order
func (o *SalesOrder) Revise(d SalesOrderDetails) error {
	if o.Status != OrderDraft {
		return shared.Errorf(shared.ErrInvalidState, "sales order %s is %s, only drafts can be edited", o.OrderNumber, o.Status)
	}
	return o.apply(d)
}

func (o *SalesOrder) apply(d SalesOrderDetails) error {
	var v shared.ValidationError
	v.Check(d.CustomerID != uuid.Nil, "customer_id", "is required")
	v.Check(d.ManufacturingUnitID != uuid.Nil, "manufacturing_unit_id", "is required")
	v.Check(!d.OrderDate.IsZero(), "order_date", "is required")
	v.Check(d.DeliveryDate == nil || !d.DeliveryDate.Before(d.OrderDate), "delivery_date", "cannot be before the order date")
	lines, err := priceLines(d.Items)
	v.Merge("items", err)
	if err := v.Err(); err != nil {
		return err
	}
	totals, err := ComputeTotals(lines, d.HeaderDiscount)
	if err != nil {
		return err
	}

	o.CustomerID = d.CustomerID
	o.ManufacturingUnitID = d.ManufacturingUnitID
	o.OrderDate = d.OrderDate
	o.DeliveryDate = d.DeliveryDate
	o.ShippingAddress = d.ShippingAddress
	o.Notes = d.Notes
	o.Totals = totals
	o.Items = make([]SalesOrderItem, len(lines))
	for i, l := range lines {
		o.Items[i] = SalesOrderItem{BaseEntity: shared.NewBaseEntity(), SalesOrderID: o.ID, Line: l}
	}
	return nil
}

func (o *SalesOrder) move(to OrderStatus) error {
	if err := OrderFlow.Check("sales order "+o.OrderNumber, o.Status, to); err != nil {
		return err
	}
	o.Status = to
	return nil
}

// Confirm accepts the order. Stock is reserved and credit checked by the caller.
func (o *SalesOrder) Confirm(at time.Time) error {
	if err := o.move(OrderConfirmed); err != nil {
		return err
	}
	o.ConfirmedAt = &at
	o.AddDomainEvent(NewSalesOrderEvent(EventSalesOrderConfirmed, o, OrderDraft))
	return nil
}

// Process marks the order as being produced or picked
func (o *SalesOrder) Process() error {
	return o.move(OrderProcessing)
}

// Dispatch records that the goods left the unit
func (o *SalesOrder) Dispatch(at time.Time) error {
	from := o.Status
	if err := o.move(OrderDispatched); err != nil {
		return err
	}
	o.DispatchedAt = &at
	o.AddDomainEvent(NewSalesOrderEvent(EventSalesOrderDispatched, o, from))
	return nil
}

// Deliver records that the customer received the goods
func (o *SalesOrder) Deliver(at time.Time) error {
	if err := o.move(OrderDelivered); err != nil {
		return err
	}
	o.DeliveredAt = &at
	return nil
}

// MarkInvoiced is called when an invoice is raised from the order
func (o *SalesOrder) MarkInvoiced() error {
	return o.move(OrderInvoiced)
}

// Cancel withdraws the order
func (o *SalesOrder) Cancel(at time.Time) error {
	from := o.Status
	if err := o.move(OrderCancelled); err != nil {
		return err
	}
	o.CancelledAt = &at
	o.AddDomainEvent(NewSalesOrderEvent(EventSalesOrderCancelled, o, from))
	return nil
}

// CanInvoice reports whether an invoice may be raised from the order
func (o *SalesOrder) CanInvoice() bool {
	return OrderFlow.Can(o.Status, OrderInvoiced)
}
