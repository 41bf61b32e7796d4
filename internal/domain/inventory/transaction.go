package inventory

import (
	"github.com/drymix/erp/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TransactionType classifies a stock movement
type TransactionType string

const (
	TypeReceipt               TransactionType = "receipt"
	TypeIssue                 TransactionType = "issue"
	TypeAdjustment            TransactionType = "adjustment"
	TypeTransferIn            TransactionType = "transfer_in"
	TypeTransferOut           TransactionType = "transfer_out"
	TypeProductionOutput      TransactionType = "production_output"
	TypeProductionConsumption TransactionType = "production_consumption"
	TypeSalesDispatch         TransactionType = "sales_dispatch"
	TypeReservation           TransactionType = "reservation"
	TypeRelease               TransactionType = "release"
)

// Valid reports whether t is a known movement type
func (t TransactionType) Valid() bool {
	switch t {
	case TypeReceipt, TypeIssue, TypeAdjustment, TypeTransferIn, TypeTransferOut,
		TypeProductionOutput, TypeProductionConsumption, TypeSalesDispatch, TypeReservation, TypeRelease:
		return true
	}
	return false
}

// Reference types written by the other contexts
const (
	RefGoodsReceipt    = "goods_receipt_note"
	RefSalesOrder      = "sales_order"
	RefProductionBatch = "production_batch"
	RefTransfer        = "transfer"
)

// Movement is a request to change stock. Quantity is positive for every
// type except adjustment, where the sign gives the direction.
type Movement struct {
	ManufacturingUnitID uuid.UUID
	ProductID           uuid.UUID
	Type                TransactionType
	Quantity            decimal.Decimal
	UnitCost            decimal.Decimal
	ReferenceType       string
	ReferenceID         *uuid.UUID
	Notes               string
	CreatedBy           *uuid.UUID
}

func (m Movement) validate() error {
	var v shared.ValidationError
	v.Check(m.Type.Valid(), "transaction_type", "unknown movement type %q", m.Type)
	if m.Type == TypeAdjustment {
		v.Check(!m.Quantity.IsZero(), "quantity", "cannot be zero")
	} else {
		v.CheckPositive("quantity", m.Quantity)
	}
	v.CheckNonNegative("unit_cost", m.UnitCost)
	return v.Err()
}

// StockTransaction is one immutable entry of the stock movement log.
// Outgoing movements carry a negative quantity.
type StockTransaction struct {
	shared.TenantRecord
	ManufacturingUnitID uuid.UUID       `gorm:"type:uuid;not null" json:"manufacturing_unit_id"`
	ProductID           uuid.UUID       `gorm:"type:uuid;not null" json:"product_id"`
	TransactionType     TransactionType `gorm:"type:varchar(30);not null" json:"transaction_type"`
	Quantity            decimal.Decimal `gorm:"type:numeric(18,4);not null" json:"quantity"`
	UnitCost            decimal.Decimal `gorm:"type:numeric(18,4);not null;default:0" json:"unit_cost"`
	BalanceAfter        decimal.Decimal `gorm:"type:numeric(18,4);not null" json:"balance_after"`
	ReferenceType       string          `gorm:"type:varchar(50)" json:"reference_type,omitempty"`
	ReferenceID         *uuid.UUID      `gorm:"type:uuid" json:"reference_id,omitempty"`
	Notes               string          `gorm:"type:text" json:"notes,omitempty"`
	CreatedBy           *uuid.UUID      `gorm:"type:uuid" json:"created_by,omitempty"`
}

// TableName returns the table name for GORM
func (StockTransaction) TableName() string {
	return "stock_transactions"
}
