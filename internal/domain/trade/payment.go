package trade

import (
	"time"

	"github.com/drymix/erp/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PaymentMethod is how a customer paid
type PaymentMethod string

const (
	MethodCash         PaymentMethod = "cash"
	MethodBankTransfer PaymentMethod = "bank_transfer"
	MethodCheque       PaymentMethod = "cheque"
	MethodCard         PaymentMethod = "card"
	MethodMobileMoney  PaymentMethod = "mobile_money"
)

// Valid reports whether m is a known method
func (m PaymentMethod) Valid() bool {
	switch m {
	case MethodCash, MethodBankTransfer, MethodCheque, MethodCard, MethodMobileMoney:
		return true
	}
	return false
}

// Payment is money received from a customer against one invoice
type Payment struct {
	shared.TenantEntity
	PaymentNumber string          `gorm:"type:varchar(50);not null" json:"payment_number"`
	CustomerID    uuid.UUID       `gorm:"type:uuid;not null" json:"customer_id"`
	InvoiceID     uuid.UUID       `gorm:"type:uuid;not null" json:"invoice_id"`
	Amount        decimal.Decimal `gorm:"type:numeric(18,2);not null" json:"amount"`
	Method        PaymentMethod   `gorm:"type:varchar(20);not null;default:'bank_transfer'" json:"method"`
	PaidAt        time.Time       `gorm:"not null" json:"paid_at"`
	Reference     string          `gorm:"type:varchar(100)" json:"reference,omitempty"`
	Notes         string          `gorm:"type:text" json:"notes,omitempty"`
	CreatedBy     *uuid.UUID      `gorm:"type:uuid" json:"created_by,omitempty"`
}

// TableName returns the table name for GORM
func (Payment) TableName() string {
	return "payments"
}

// NewPayment creates a payment against inv
func NewPayment(inv *Invoice, number string, amount decimal.Decimal, method PaymentMethod, paidAt time.Time, reference, notes string) (*Payment, error) {
	if method == "" {
		method = MethodBankTransfer
	}
	var v shared.ValidationError
	v.CheckPositive("amount", amount)
	v.Check(method.Valid(), "method", "unknown payment method %q", method)
	v.Check(len(reference) <= 100, "reference", "cannot exceed 100 characters")
	if err := v.Err(); err != nil {
		return nil, err
	}
	if paidAt.IsZero() {
		paidAt = time.Now()
	}
	return &Payment{
		TenantEntity:  shared.NewTenantEntity(inv.OrganizationID),
		PaymentNumber: number,
		CustomerID:    inv.CustomerID,
		InvoiceID:     inv.ID,
		Amount:        shared.RoundMoney(amount),
		Method:        method,
		PaidAt:        paidAt,
		Reference:     reference,
		Notes:         notes,
	}, nil
}
