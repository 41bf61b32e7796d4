package production

import (
	"github.com/drymix/erp/internal/domain/production"
	"github.com/drymix/erp/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// BOMItemRequest is one raw material of a recipe
type BOMItemRequest struct {
	RawMaterialID     uuid.UUID       `json:"raw_material_id" binding:"required"`
	Quantity          decimal.Decimal `json:"quantity" binding:"gt=0"`
	Unit              string          `json:"unit" binding:"max=20"`
	WastagePercentage decimal.Decimal `json:"wastage_percentage" binding:"decimal_gte0"`
	Notes             string          `json:"notes"`
}

// BOMRequest creates or revises a draft recipe
type BOMRequest struct {
	ProductID      uuid.UUID        `json:"product_id" binding:"required"`
	Name           string           `json:"name" binding:"required,max=200"`
	OutputQuantity decimal.Decimal  `json:"output_quantity" binding:"gt=0"`
	Unit           string           `json:"unit" binding:"max=20"`
	EffectiveFrom  string           `json:"effective_from" binding:"required,datetime=2006-01-02"`
	EffectiveTo    string           `json:"effective_to" binding:"omitempty,datetime=2006-01-02"`
	Notes          string           `json:"notes"`
	Items          []BOMItemRequest `json:"items" binding:"required,min=1,dive"`
}

func (r BOMRequest) details() (production.BOMDetails, error) {
	from, err := shared.ParseDate("effective_from", r.EffectiveFrom)
	if err != nil {
		return production.BOMDetails{}, err
	}
	to, err := shared.ParseOptionalDate("effective_to", r.EffectiveTo)
	if err != nil {
		return production.BOMDetails{}, err
	}
	items := make([]production.BOMItemInput, len(r.Items))
	for i, it := range r.Items {
		items[i] = production.BOMItemInput{
			RawMaterialID:     it.RawMaterialID,
			Quantity:          it.Quantity,
			Unit:              it.Unit,
			WastagePercentage: it.WastagePercentage,
			Notes:             it.Notes,
		}
	}
	return production.BOMDetails{
		Name:           r.Name,
		OutputQuantity: r.OutputQuantity,
		Unit:           r.Unit,
		EffectiveFrom:  from,
		EffectiveTo:    to,
		Notes:          r.Notes,
		Items:          items,
	}, nil
}

func (r BOMRequest) materials() []uuid.UUID {
	ids := make([]uuid.UUID, len(r.Items))
	for i, it := range r.Items {
		ids[i] = it.RawMaterialID
	}
	return ids
}

// RequirementRequest asks for the material needed for a quantity of output
type RequirementRequest struct {
	Quantity decimal.Decimal `form:"quantity" json:"quantity" binding:"gt=0"`
}

// OrderRequest plans a production order. When BillOfMaterialID is empty
// the recipe of the product active on the planned start (or today) is used.
type OrderRequest struct {
	ProductID           uuid.UUID       `json:"product_id" binding:"required"`
	BillOfMaterialID    *uuid.UUID      `json:"bill_of_material_id"`
	ManufacturingUnitID uuid.UUID       `json:"manufacturing_unit_id" binding:"required"`
	PlannedQuantity     decimal.Decimal `json:"planned_quantity" binding:"gt=0"`
	PlannedStart        string          `json:"planned_start" binding:"omitempty,datetime=2006-01-02"`
	PlannedEnd          string          `json:"planned_end" binding:"omitempty,datetime=2006-01-02"`
	Notes               string          `json:"notes"`
}

func (r OrderRequest) details() (production.OrderDetails, error) {
	start, err := shared.ParseOptionalDate("planned_start", r.PlannedStart)
	if err != nil {
		return production.OrderDetails{}, err
	}
	end, err := shared.ParseOptionalDate("planned_end", r.PlannedEnd)
	if err != nil {
		return production.OrderDetails{}, err
	}
	return production.OrderDetails{
		ManufacturingUnitID: r.ManufacturingUnitID,
		PlannedQuantity:     r.PlannedQuantity,
		PlannedStart:        start,
		PlannedEnd:          end,
		Notes:               r.Notes,
	}, nil
}

// UpdateOrderRequest revises a planned order
type UpdateOrderRequest struct {
	ManufacturingUnitID uuid.UUID       `json:"manufacturing_unit_id" binding:"required"`
	PlannedQuantity     decimal.Decimal `json:"planned_quantity" binding:"gt=0"`
	PlannedStart        string          `json:"planned_start" binding:"omitempty,datetime=2006-01-02"`
	PlannedEnd          string          `json:"planned_end" binding:"omitempty,datetime=2006-01-02"`
	Notes               string          `json:"notes"`
	Version             int             `json:"version" binding:"required,min=1"`
}

// StartBatchRequest starts a batch of a released order
type StartBatchRequest struct {
	Quantity decimal.Decimal `json:"quantity" binding:"gt=0"`
	Notes    string          `json:"notes"`
}

// ConsumptionRequest records material actually used by a batch
type ConsumptionRequest struct {
	RawMaterialID uuid.UUID       `json:"raw_material_id" binding:"required"`
	Quantity      decimal.Decimal `json:"quantity" binding:"gt=0"`
}

// CompleteBatchRequest closes a batch with the quantity produced
type CompleteBatchRequest struct {
	ActualQuantity decimal.Decimal `json:"actual_quantity" binding:"gt=0"`
}

// RejectBatchRequest scraps a batch
type RejectBatchRequest struct {
	Reason string `json:"reason" binding:"required,max=1000"`
}

// BatchResult is a batch together with the order it changed
type BatchResult struct {
	Batch *production.ProductionBatch `json:"batch"`
	Order *production.ProductionOrder `json:"order"`
}
