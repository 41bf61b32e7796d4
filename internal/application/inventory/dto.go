package inventory

import (
	"github.com/drymix/erp/internal/domain/inventory"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// UnitRequest carries the editable attributes of a manufacturing unit
type UnitRequest struct {
	Name               string          `json:"name" binding:"required,max=200"`
	Location           string          `json:"location"`
	CapacityTonsPerDay decimal.Decimal `json:"capacity_tons_per_day" binding:"decimal_gte0"`
}

// CreateUnitRequest represents a request to create a manufacturing unit
type CreateUnitRequest struct {
	Code string `json:"code" binding:"required,max=50,code"`
	UnitRequest
}

// UpdateUnitRequest represents a request to update a manufacturing unit
type UpdateUnitRequest struct {
	UnitRequest
	Version int `json:"version" binding:"required,min=1"`
}

// ChangeUnitStatusRequest moves a unit to another status
type ChangeUnitStatusRequest struct {
	Status inventory.UnitStatus `json:"status" binding:"required,oneof=active inactive maintenance"`
}

// StockRequest is the body of receive, issue, reserve and release
type StockRequest struct {
	ManufacturingUnitID uuid.UUID       `json:"manufacturing_unit_id" binding:"required"`
	ProductID           uuid.UUID       `json:"product_id" binding:"required"`
	Quantity            decimal.Decimal `json:"quantity" binding:"gt=0"`
	UnitCost            decimal.Decimal `json:"unit_cost" binding:"decimal_gte0"`
	ReferenceType       string          `json:"reference_type" binding:"max=50"`
	ReferenceID         *uuid.UUID      `json:"reference_id"`
	Notes               string          `json:"notes"`
}

// AdjustRequest corrects stock by a signed quantity
type AdjustRequest struct {
	ManufacturingUnitID uuid.UUID       `json:"manufacturing_unit_id" binding:"required"`
	ProductID           uuid.UUID       `json:"product_id" binding:"required"`
	Quantity            decimal.Decimal `json:"quantity"`
	UnitCost            decimal.Decimal `json:"unit_cost" binding:"decimal_gte0"`
	Notes               string          `json:"notes" binding:"required"`
}

// TransferRequest moves stock between two units
type TransferRequest struct {
	FromUnitID uuid.UUID       `json:"from_unit_id" binding:"required"`
	ToUnitID   uuid.UUID       `json:"to_unit_id" binding:"required,nefield=FromUnitID"`
	ProductID  uuid.UUID       `json:"product_id" binding:"required"`
	Quantity   decimal.Decimal `json:"quantity" binding:"gt=0"`
	Notes      string          `json:"notes"`
}

// TransferResult holds the two log entries of a transfer
type TransferResult struct {
	Out *inventory.StockTransaction `json:"out"`
	In  *inventory.StockTransaction `json:"in"`
}
