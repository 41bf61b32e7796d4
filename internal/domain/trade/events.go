package trade

import (
	"github.com/drymix/erp/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	AggregateTypeSalesOrder = "SalesOrder"
	AggregateTypeInvoice    = "Invoice"
)

const (
	EventSalesOrderConfirmed  = "SalesOrderConfirmed"
	EventSalesOrderDispatched = "SalesOrderDispatched"
	EventSalesOrderCancelled  = "SalesOrderCancelled"
	EventInvoiceIssued        = "InvoiceIssued"
	EventInvoiceCancelled     = "InvoiceCancelled"
	EventPaymentReceived      = "PaymentReceived"
)

// EventItem is the stock-relevant part of an order line
type EventItem struct {
	ProductID uuid.UUID       `json:"product_id"`
	Quantity  decimal.Decimal `json:"quantity"`
}

// SalesOrderEvent describes a change of an order's status. From is the
// status the order left, which tells handlers whether stock was reserved.
type SalesOrderEvent struct {
	shared.BaseDomainEvent
	OrderNumber         string      `json:"order_number"`
	CustomerID          uuid.UUID   `json:"customer_id"`
	ManufacturingUnitID uuid.UUID   `json:"manufacturing_unit_id"`
	From                OrderStatus `json:"from"`
	To                  OrderStatus `json:"to"`
	Items               []EventItem `json:"items"`
}

// NewSalesOrderEvent creates a SalesOrderEvent of eventType
func NewSalesOrderEvent(eventType string, o *SalesOrder, from OrderStatus) *SalesOrderEvent {
	items := make([]EventItem, len(o.Items))
	for i, it := range o.Items {
		items[i] = EventItem{ProductID: it.ProductID, Quantity: it.Quantity}
	}
	return &SalesOrderEvent{
		BaseDomainEvent:     shared.NewBaseDomainEvent(eventType, AggregateTypeSalesOrder, o.ID, o.OrganizationID),
		OrderNumber:         o.OrderNumber,
		CustomerID:          o.CustomerID,
		ManufacturingUnitID: o.ManufacturingUnitID,
		From:                from,
		To:                  o.Status,
		Items:               items,
	}
}

// InvoiceEvent carries an amount moving the customer's balance
type InvoiceEvent struct {
	shared.BaseDomainEvent
	InvoiceNumber string          `json:"invoice_number"`
	CustomerID    uuid.UUID       `json:"customer_id"`
	Amount        decimal.Decimal `json:"amount"`
	PaymentID     *uuid.UUID      `json:"payment_id,omitempty"`
	Reference     string          `json:"reference,omitempty"`
}

// NewInvoiceEvent creates an InvoiceEvent of eventType
func NewInvoiceEvent(eventType string, inv *Invoice, amount decimal.Decimal) *InvoiceEvent {
	return &InvoiceEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(eventType, AggregateTypeInvoice, inv.ID, inv.OrganizationID),
		InvoiceNumber:   inv.InvoiceNumber,
		CustomerID:      inv.CustomerID,
		Amount:          amount,
	}
}
