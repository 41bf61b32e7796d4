package trade

import (
	"time"

	"github.com/drymix/erp/internal/domain/shared"
	"github.com/drymix/erp/internal/domain/trade"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// LineRequest is one priced line of an order or invoice
type LineRequest struct {
	ProductID      uuid.UUID       `json:"product_id" binding:"required"`
	Description    string          `json:"description" binding:"max=500"`
	Quantity       decimal.Decimal `json:"quantity" binding:"gt=0"`
	UnitPrice      decimal.Decimal `json:"unit_price" binding:"decimal_gte0"`
	DiscountAmount decimal.Decimal `json:"discount_amount" binding:"decimal_gte0"`
	TaxRate        decimal.Decimal `json:"tax_rate" binding:"decimal_gte0"`
}

func lines(in []LineRequest) []trade.LineInput {
	out := make([]trade.LineInput, len(in))
	for i, l := range in {
		out[i] = trade.LineInput{
			ProductID:      l.ProductID,
			Description:    l.Description,
			Quantity:       l.Quantity,
			UnitPrice:      l.UnitPrice,
			DiscountAmount: l.DiscountAmount,
			TaxRate:        l.TaxRate,
		}
	}
	return out
}

// SalesOrderRequest creates or revises a draft sales order
type SalesOrderRequest struct {
	CustomerID          uuid.UUID       `json:"customer_id" binding:"required"`
	ManufacturingUnitID uuid.UUID       `json:"manufacturing_unit_id" binding:"required"`
	OrderDate           string          `json:"order_date" binding:"required,datetime=2006-01-02"`
	DeliveryDate        string          `json:"delivery_date" binding:"omitempty,datetime=2006-01-02"`
	HeaderDiscount      decimal.Decimal `json:"header_discount" binding:"decimal_gte0"`
	ShippingAddress     string          `json:"shipping_address"`
	Notes               string          `json:"notes"`
	Items               []LineRequest   `json:"items" binding:"required,min=1,dive"`
}

func (r SalesOrderRequest) details() (trade.SalesOrderDetails, error) {
	orderDate, err := shared.ParseDate("order_date", r.OrderDate)
	if err != nil {
		return trade.SalesOrderDetails{}, err
	}
	delivery, err := shared.ParseOptionalDate("delivery_date", r.DeliveryDate)
	if err != nil {
		return trade.SalesOrderDetails{}, err
	}
	return trade.SalesOrderDetails{
		CustomerID:          r.CustomerID,
		ManufacturingUnitID: r.ManufacturingUnitID,
		OrderDate:           orderDate,
		DeliveryDate:        delivery,
		HeaderDiscount:      r.HeaderDiscount,
		ShippingAddress:     r.ShippingAddress,
		Notes:               r.Notes,
		Items:               lines(r.Items),
	}, nil
}

// UpdateSalesOrderRequest revises a draft order
type UpdateSalesOrderRequest struct {
	SalesOrderRequest
	Version int `json:"version" binding:"required,min=1"`
}

// InvoiceRequest creates or revises a standalone draft invoice
type InvoiceRequest struct {
	CustomerID     uuid.UUID       `json:"customer_id" binding:"required"`
	InvoiceDate    string          `json:"invoice_date" binding:"required,datetime=2006-01-02"`
	DueDate        string          `json:"due_date" binding:"omitempty,datetime=2006-01-02"`
	HeaderDiscount decimal.Decimal `json:"header_discount" binding:"decimal_gte0"`
	Notes          string          `json:"notes"`
	Items          []LineRequest   `json:"items" binding:"required,min=1,dive"`
}

// UpdateInvoiceRequest revises a draft invoice
type UpdateInvoiceRequest struct {
	InvoiceRequest
	Version int `json:"version" binding:"required,min=1"`
}

// InvoiceFromOrderRequest raises an invoice from a dispatched or delivered order
type InvoiceFromOrderRequest struct {
	InvoiceDate string `json:"invoice_date" binding:"omitempty,datetime=2006-01-02"`
	DueDate     string `json:"due_date" binding:"omitempty,datetime=2006-01-02"`
	Notes       string `json:"notes"`
}

// PaymentRequest records money received against an invoice
type PaymentRequest struct {
	Amount    decimal.Decimal     `json:"amount" binding:"gt=0"`
	Method    trade.PaymentMethod `json:"method" binding:"omitempty,oneof=cash bank_transfer cheque card mobile_money"`
	PaidAt    *time.Time          `json:"paid_at"`
	Reference string              `json:"reference" binding:"max=100"`
	Notes     string              `json:"notes"`
}

// PaymentResult is an invoice after a payment together with the payment
type PaymentResult struct {
	Invoice *trade.Invoice `json:"invoice"`
	Payment *trade.Payment `json:"payment"`
}

// PurchaseOrderRequest creates or revises a draft purchase order
type PurchaseOrderRequest struct {
	SupplierID          uuid.UUID       `json:"supplier_id" binding:"required"`
	ManufacturingUnitID uuid.UUID       `json:"manufacturing_unit_id" binding:"required"`
	OrderDate           string          `json:"order_date" binding:"required,datetime=2006-01-02"`
	ExpectedDate        string          `json:"expected_date" binding:"omitempty,datetime=2006-01-02"`
	HeaderDiscount      decimal.Decimal `json:"header_discount" binding:"decimal_gte0"`
	Notes               string          `json:"notes"`
	Items               []LineRequest   `json:"items" binding:"required,min=1,dive"`
}

func (r PurchaseOrderRequest) details() (trade.PurchaseOrderDetails, error) {
	orderDate, err := shared.ParseDate("order_date", r.OrderDate)
	if err != nil {
		return trade.PurchaseOrderDetails{}, err
	}
	expected, err := shared.ParseOptionalDate("expected_date", r.ExpectedDate)
	if err != nil {
		return trade.PurchaseOrderDetails{}, err
	}
	return trade.PurchaseOrderDetails{
		SupplierID:          r.SupplierID,
		ManufacturingUnitID: r.ManufacturingUnitID,
		OrderDate:           orderDate,
		ExpectedDate:        expected,
		HeaderDiscount:      r.HeaderDiscount,
		Notes:               r.Notes,
		Items:               lines(r.Items),
	}, nil
}

// UpdatePurchaseOrderRequest revises a draft purchase order
type UpdatePurchaseOrderRequest struct {
	PurchaseOrderRequest
	Version int `json:"version" binding:"required,min=1"`
}

// ReceiptLineRequest is one line of a goods receipt
type ReceiptLineRequest struct {
	PurchaseOrderItemID uuid.UUID       `json:"purchase_order_item_id" binding:"required"`
	QuantityReceived    decimal.Decimal `json:"quantity_received" binding:"gt=0"`
	QuantityRejected    decimal.Decimal `json:"quantity_rejected" binding:"decimal_gte0"`
	RejectionReason     string          `json:"rejection_reason" binding:"max=500"`
}

// GoodsReceiptRequest drafts a goods receipt note against a purchase order
type GoodsReceiptRequest struct {
	PurchaseOrderID    uuid.UUID            `json:"purchase_order_id" binding:"required"`
	ReceivedDate       string               `json:"received_date" binding:"required,datetime=2006-01-02"`
	DeliveryNoteNumber string               `json:"delivery_note_number" binding:"max=100"`
	Notes              string               `json:"notes"`
	Items              []ReceiptLineRequest `json:"items" binding:"required,min=1,dive"`
}
