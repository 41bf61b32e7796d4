package inventory

import (
	"context"
	"time"

	"github.com/drymix/erp/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// UnitRepository persists manufacturing units
type UnitRepository interface {
	shared.CRUDRepository[ManufacturingUnit]
	CodeExists(ctx context.Context, orgID uuid.UUID, code string) (bool, error)
}

// StockRepository persists stock rows and their movement log
type StockRepository interface {
	// FindForUpdate locks the row of (unit, product). It returns NOT_FOUND
	// when the product was never stocked in the unit.
	FindForUpdate(ctx context.Context, orgID, unitID, productID uuid.UUID) (*Inventory, error)
	Create(ctx context.Context, inv *Inventory) error
	Update(ctx context.Context, inv *Inventory) error
	AppendTransaction(ctx context.Context, tx *StockTransaction) error
	List(ctx context.Context, orgID uuid.UUID, filter shared.Filter) ([]StockLevel, int64, error)
	ListTransactions(ctx context.Context, orgID uuid.UUID, filter TransactionFilter) ([]StockTransaction, int64, error)
	LowStock(ctx context.Context, orgID uuid.UUID) ([]LowStockLine, error)
}

// StockLevel is an inventory row joined with its product and unit
type StockLevel struct {
	Inventory
	ProductCode  string          `json:"product_code"`
	ProductName  string          `json:"product_name"`
	Unit         string          `json:"unit"`
	UnitCode     string          `json:"manufacturing_unit_code"`
	ReorderLevel decimal.Decimal `json:"reorder_level"`
}

// TransactionFilter narrows the movement log
type TransactionFilter struct {
	shared.Filter
	ManufacturingUnitID *uuid.UUID
	ProductID           *uuid.UUID
	Type                TransactionType
	ReferenceType       string
	ReferenceID         *uuid.UUID
	From, To            *time.Time
}

// LowStockLine is a product whose total stock is below its reorder level
type LowStockLine struct {
	ProductID      uuid.UUID       `json:"product_id"`
	ProductCode    string          `json:"product_code"`
	ProductName    string          `json:"product_name"`
	Unit           string          `json:"unit"`
	ReorderLevel   decimal.Decimal `json:"reorder_level"`
	QuantityOnHand decimal.Decimal `json:"quantity_on_hand"`
	Shortfall      decimal.Decimal `json:"shortfall"`
}
