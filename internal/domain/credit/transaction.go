package credit

import (
	"time"

	"github.com/drymix/erp/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TransactionType classifies a movement of a customer balance
type TransactionType string

const (
	TxInvoice    TransactionType = "invoice"
	TxPayment    TransactionType = "payment"
	TxCreditNote TransactionType = "credit_note"
	TxAdjustment TransactionType = "adjustment"
	TxWriteOff   TransactionType = "write_off"
)

// Valid reports whether t is a known transaction type
func (t TransactionType) Valid() bool {
	switch t {
	case TxInvoice, TxPayment, TxCreditNote, TxAdjustment, TxWriteOff:
		return true
	}
	return false
}

// effect is the signed change of the balance for amount.
// Invoices raise the balance; payments, credit notes and write-offs lower
// it; adjustments carry their own sign.
func (t TransactionType) effect(amount decimal.Decimal) decimal.Decimal {
	switch t {
	case TxPayment, TxCreditNote, TxWriteOff:
		return amount.Neg()
	default:
		return amount
	}
}

// Reference types used by the modules that post to the ledger
const (
	RefInvoice       = "invoice"
	RefPayment       = "payment"
	RefCollection    = "collection"
	RefManual        = "manual"
	RefInvoiceCancel = "invoice_cancellation"
)

// Posting asks a control to move its balance
type Posting struct {
	Type          TransactionType
	Amount        decimal.Decimal
	ReferenceType string
	ReferenceID   *uuid.UUID
	Description   string
	CreatedBy     *uuid.UUID
}

func (p Posting) validate() error {
	ve := &shared.ValidationError{}
	ve.Check(p.Type.Valid(), "transaction_type", "unknown transaction type %q", p.Type)
	if p.Type == TxAdjustment {
		ve.Check(!p.Amount.IsZero(), "amount", "must not be zero")
	} else {
		ve.Check(p.Amount.IsPositive(), "amount", "must be greater than zero")
	}
	return ve.Err()
}

// CreditTransaction is one append-only entry of a customer's credit ledger
type CreditTransaction struct {
	shared.TenantRecord
	CustomerID      uuid.UUID       `gorm:"type:uuid;not null" json:"customer_id"`
	TransactionType TransactionType `gorm:"type:varchar(20);not null" json:"transaction_type"`
	ReferenceType   string          `gorm:"type:varchar(50)" json:"reference_type,omitempty"`
	ReferenceID     *uuid.UUID      `gorm:"type:uuid" json:"reference_id,omitempty"`
	Amount          decimal.Decimal `gorm:"type:numeric(18,2);not null" json:"amount"`
	BalanceBefore   decimal.Decimal `gorm:"type:numeric(18,2);not null" json:"balance_before"`
	BalanceAfter    decimal.Decimal `gorm:"type:numeric(18,2);not null" json:"balance_after"`
	Description     string          `gorm:"type:text" json:"description,omitempty"`
	CreatedBy       *uuid.UUID      `gorm:"type:uuid" json:"created_by,omitempty"`
}

// TableName returns the table name for GORM
func (CreditTransaction) TableName() string {
	return "credit_transactions"
}

// TransactionFilter narrows the credit ledger
type TransactionFilter struct {
	shared.Filter
	CustomerID *uuid.UUID
	Type       TransactionType
	From, To   *time.Time
}
