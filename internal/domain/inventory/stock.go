package inventory

import (
	"github.com/drymix/erp/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Inventory is the stock of one product in one manufacturing unit.
// (manufacturing_unit_id, product_id) is unique.
type Inventory struct {
	shared.TenantEntity
	shared.Versioned
	ManufacturingUnitID uuid.UUID       `gorm:"type:uuid;not null" json:"manufacturing_unit_id"`
	ProductID           uuid.UUID       `gorm:"type:uuid;not null" json:"product_id"`
	QuantityOnHand      decimal.Decimal `gorm:"type:numeric(18,4);not null;default:0" json:"quantity_on_hand"`
	QuantityReserved    decimal.Decimal `gorm:"type:numeric(18,4);not null;default:0" json:"quantity_reserved"`
	AverageCost         decimal.Decimal `gorm:"type:numeric(18,4);not null;default:0" json:"average_cost"`
}

// TableName returns the table name for GORM
func (Inventory) TableName() string {
	return "inventory"
}

// NewInventory creates an empty stock row
func NewInventory(orgID, unitID, productID uuid.UUID) *Inventory {
	return &Inventory{
		TenantEntity:        shared.NewTenantEntity(orgID),
		Versioned:           shared.Versioned{Version: 1},
		ManufacturingUnitID: unitID,
		ProductID:           productID,
	}
}

// Available is on hand minus reserved
func (i *Inventory) Available() decimal.Decimal {
	return i.QuantityOnHand.Sub(i.QuantityReserved)
}

// Value is on hand at average cost
func (i *Inventory) Value() decimal.Decimal {
	return shared.RoundMoney(i.QuantityOnHand.Mul(i.AverageCost))
}

// Apply performs one movement and returns the log entry describing it.
// It never leaves on hand negative or below the reserved quantity.
func (i *Inventory) Apply(m Movement) (*StockTransaction, error) {
	if err := m.validate(); err != nil {
		return nil, err
	}
	qty := shared.RoundQty(m.Quantity)
	cost := i.AverageCost

	switch m.Type {
	case TypeReceipt, TypeTransferIn, TypeProductionOutput:
		cost = shared.RoundQty(m.UnitCost)
		i.receive(qty, cost)
	case TypeIssue, TypeTransferOut, TypeProductionConsumption:
		if i.Available().LessThan(qty) {
			return nil, i.shortage(qty)
		}
		i.QuantityOnHand = i.QuantityOnHand.Sub(qty)
		qty = qty.Neg()
	case TypeSalesDispatch:
		// dispatch consumes what was reserved for the order first
		fromReserved := decimal.Min(qty, i.QuantityReserved)
		if i.QuantityOnHand.Sub(i.QuantityReserved).Add(fromReserved).LessThan(qty) {
			return nil, i.shortage(qty)
		}
		i.QuantityReserved = i.QuantityReserved.Sub(fromReserved)
		i.QuantityOnHand = i.QuantityOnHand.Sub(qty)
		qty = qty.Neg()
	case TypeAdjustment:
		next := i.QuantityOnHand.Add(qty)
		if next.IsNegative() || next.LessThan(i.QuantityReserved) {
			return nil, shared.Errorf(shared.ErrInsufficientStock,
				"adjustment would leave %s on hand with %s reserved", next, i.QuantityReserved)
		}
		if qty.IsPositive() && m.UnitCost.IsPositive() {
			cost = shared.RoundQty(m.UnitCost)
			i.receive(qty, cost)
		} else {
			i.QuantityOnHand = next
		}
	case TypeReservation:
		if i.Available().LessThan(qty) {
			return nil, i.shortage(qty)
		}
		i.QuantityReserved = i.QuantityReserved.Add(qty)
	case TypeRelease:
		if i.QuantityReserved.LessThan(qty) {
			return nil, shared.Errorf(shared.ErrInvalidState,
				"cannot release %s, only %s reserved", qty, i.QuantityReserved)
		}
		i.QuantityReserved = i.QuantityReserved.Sub(qty)
	}

	tx := &StockTransaction{
		TenantRecord:        shared.NewTenantRecord(i.OrganizationID),
		ManufacturingUnitID: i.ManufacturingUnitID,
		ProductID:           i.ProductID,
		TransactionType:     m.Type,
		Quantity:            qty,
		UnitCost:            cost,
		BalanceAfter:        i.QuantityOnHand,
		ReferenceType:       m.ReferenceType,
		ReferenceID:         m.ReferenceID,
		Notes:               m.Notes,
		CreatedBy:           m.CreatedBy,
	}
	return tx, nil
}

// receive adds stock and moves the average cost:
// (on_hand*avg + qty*cost) / (on_hand + qty)
func (i *Inventory) receive(qty, cost decimal.Decimal) {
	total := i.QuantityOnHand.Add(qty)
	if total.IsPositive() {
		value := i.QuantityOnHand.Mul(i.AverageCost).Add(qty.Mul(cost))
		i.AverageCost = shared.RoundQty(value.Div(total))
	}
	i.QuantityOnHand = total
}

func (i *Inventory) shortage(qty decimal.Decimal) error {
	return shared.Errorf(shared.ErrInsufficientStock,
		"requested %s but only %s available", qty.String(), i.Available().String())
}
