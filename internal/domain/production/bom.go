// Package production holds bills of materials, production orders, batches
// and the material they consume.
package production

import (
	"fmt"
	"time"

	"github.com/drymix/erp/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// BOMStatus represents the status of a bill of materials
type BOMStatus string

const (
	BOMDraft    BOMStatus = "draft"
	BOMActive   BOMStatus = "active"
	BOMArchived BOMStatus = "archived"
)

// BOMFlow is the bill of materials lifecycle
var BOMFlow = shared.Transitions[BOMStatus]{
	BOMDraft:  {BOMActive, BOMArchived},
	BOMActive: {BOMArchived},
}

var maxWastage = decimal.NewFromInt(100)

// BOMItem is one raw material of a recipe
type BOMItem struct {
	shared.BaseEntity
	BillOfMaterialID  uuid.UUID       `gorm:"type:uuid;not null" json:"bill_of_material_id"`
	LineNo            int             `gorm:"not null" json:"line_no"`
	RawMaterialID     uuid.UUID       `gorm:"type:uuid;not null" json:"raw_material_id"`
	Quantity          decimal.Decimal `gorm:"type:numeric(18,4);not null" json:"quantity"`
	Unit              string          `gorm:"type:varchar(20);not null;default:'kg'" json:"unit"`
	WastagePercentage decimal.Decimal `gorm:"type:numeric(5,2);not null;default:0" json:"wastage_percentage"`
	Notes             string          `gorm:"type:text" json:"notes,omitempty"`
}

// TableName returns the table name for GORM
func (BOMItem) TableName() string {
	return "bom_items"
}

// GrossQuantity is the quantity including wastage
func (i BOMItem) GrossQuantity() decimal.Decimal {
	return i.Quantity.Add(shared.Percent(i.Quantity, i.WastagePercentage))
}

// BOMItemInput is the editable part of a BOM line
type BOMItemInput struct {
	RawMaterialID     uuid.UUID
	Quantity          decimal.Decimal
	Unit              string
	WastagePercentage decimal.Decimal
	Notes             string
}

// BOMDetails are the editable attributes of a bill of materials
type BOMDetails struct {
	Name           string
	OutputQuantity decimal.Decimal
	Unit           string
	EffectiveFrom  time.Time
	EffectiveTo    *time.Time
	Notes          string
	Items          []BOMItemInput
}

// BillOfMaterials is the recipe of one product. Version numbers the
// recipes of a product and never changes after creation.
type BillOfMaterials struct {
	shared.TenantEntity
	shared.SoftDelete
	ProductID      uuid.UUID       `gorm:"type:uuid;not null" json:"product_id"`
	Version        int             `gorm:"not null;default:1" json:"version"`
	Name           string          `gorm:"type:varchar(200);not null" json:"name"`
	OutputQuantity decimal.Decimal `gorm:"type:numeric(18,4);not null;default:1" json:"output_quantity"`
	Unit           string          `gorm:"type:varchar(20);not null;default:'kg'" json:"unit"`
	Status         BOMStatus       `gorm:"type:varchar(20);not null;default:'draft'" json:"status"`
	EffectiveFrom  time.Time       `gorm:"type:date;not null" json:"effective_from"`
	EffectiveTo    *time.Time      `gorm:"type:date" json:"effective_to,omitempty"`
	Notes          string          `gorm:"type:text" json:"notes,omitempty"`
	CreatedBy      *uuid.UUID      `gorm:"type:uuid" json:"created_by,omitempty"`
	Items          []BOMItem       `gorm:"foreignKey:BillOfMaterialID" json:"items"`
}

// TableName returns the table name for GORM
func (BillOfMaterials) TableName() string {
	return "bill_of_materials"
}

// NewBillOfMaterials creates a draft recipe for product
func NewBillOfMaterials(orgID, productID uuid.UUID, version int, d BOMDetails) (*BillOfMaterials, error) {
	if productID == uuid.Nil {
		return nil, shared.NewValidationError("product_id", "is required")
	}
	if version < 1 {
		return nil, shared.NewValidationError("version", "must be at least 1")
	}
	b := &BillOfMaterials{
		TenantEntity: shared.NewTenantEntity(orgID),
		ProductID:    productID,
		Version:      version,
		Status:       BOMDraft,
	}
	if err := b.apply(d); err != nil {
		return nil, err
	}
	return b, nil
}

// Revise replaces the attributes and lines of a draft
func (b *BillOfMaterials) Revise(d BOMDetails) error {
	if b.Status != BOMDraft {
		return shared.Errorf(shared.ErrInvalidState, "BOM %s v%d is %s, only drafts can be edited", b.Name, b.Version, b.Status)
	}
	return b.apply(d)
}

func (b *BillOfMaterials) apply(d BOMDetails) error {
	var v shared.ValidationError
	v.CheckText("name", d.Name, 200)
	v.CheckPositive("output_quantity", d.OutputQuantity)
	v.Check(!d.EffectiveFrom.IsZero(), "effective_from", "is required")
	v.Check(d.EffectiveTo == nil || !d.EffectiveTo.Before(d.EffectiveFrom), "effective_to", "cannot be before effective_from")
	v.Check(len(d.Items) > 0, "items", "at least one raw material is required")

	seen := map[uuid.UUID]bool{}
	items := make([]BOMItem, 0, len(d.Items))
	for i, in := range d.Items {
		field := func(name string) string { return fmt.Sprintf("items[%d].%s", i, name) }
		v.Check(in.RawMaterialID != uuid.Nil, field("raw_material_id"), "is required")
		v.Check(in.RawMaterialID != b.ProductID, field("raw_material_id"), "cannot be the product itself")
		v.Check(!seen[in.RawMaterialID], field("raw_material_id"), "is listed twice")
		seen[in.RawMaterialID] = true
		v.CheckPositive(field("quantity"), in.Quantity)
		v.Check(!in.WastagePercentage.IsNegative() && in.WastagePercentage.LessThanOrEqual(maxWastage),
			field("wastage_percentage"), "must be between 0 and 100")
		unit := in.Unit
		if unit == "" {
			unit = "kg"
		}
		items = append(items, BOMItem{
			BaseEntity:        shared.NewBaseEntity(),
			BillOfMaterialID:  b.ID,
			LineNo:            i + 1,
			RawMaterialID:     in.RawMaterialID,
			Quantity:          shared.RoundQty(in.Quantity),
			Unit:              unit,
			WastagePercentage: in.WastagePercentage,
			Notes:             in.Notes,
		})
	}
	if err := v.Err(); err != nil {
		return err
	}

	b.Name = d.Name
	b.OutputQuantity = shared.RoundQty(d.OutputQuantity)
	b.Unit = d.Unit
	if b.Unit == "" {
		b.Unit = "kg"
	}
	b.EffectiveFrom = d.EffectiveFrom
	b.EffectiveTo = d.EffectiveTo
	b.Notes = d.Notes
	b.Items = items
	return nil
}

// Activate puts the recipe into use. The caller checks that no other active
// recipe of the product overlaps its effective period.
func (b *BillOfMaterials) Activate() error {
	if err := BOMFlow.Check(b.label(), b.Status, BOMActive); err != nil {
		return err
	}
	b.Status = BOMActive
	return nil
}

// Archive retires the recipe
func (b *BillOfMaterials) Archive() error {
	if err := BOMFlow.Check(b.label(), b.Status, BOMArchived); err != nil {
		return err
	}
	b.Status = BOMArchived
	return nil
}

func (b *BillOfMaterials) label() string {
	return fmt.Sprintf("BOM %s v%d", b.Name, b.Version)
}

// Overlaps reports whether the effective periods of b and o share a day.
// An open end runs forever.
func (b *BillOfMaterials) Overlaps(o *BillOfMaterials) bool {
	return !after(b.EffectiveFrom, o.EffectiveTo) && !after(o.EffectiveFrom, b.EffectiveTo)
}

// EffectiveOn reports whether the recipe applies on day
func (b *BillOfMaterials) EffectiveOn(day time.Time) bool {
	return !day.Before(b.EffectiveFrom) && !after(day, b.EffectiveTo)
}

// after reports whether t is after the optional end
func after(t time.Time, end *time.Time) bool {
	return end != nil && t.After(*end)
}

// MaterialRequirement is the raw material needed for a quantity of output
type MaterialRequirement struct {
	RawMaterialID uuid.UUID       `json:"raw_material_id"`
	Unit          string          `json:"unit"`
	NetQuantity   decimal.Decimal `json:"net_quantity"`
	Quantity      decimal.Decimal `json:"quantity"`
}

// Requirement scales the recipe to qty of output, wastage included
func (b *BillOfMaterials) Requirement(qty decimal.Decimal) ([]MaterialRequirement, error) {
	if !qty.IsPositive() {
		return nil, shared.NewValidationError("quantity", "must be greater than zero")
	}
	factor := qty.Div(b.OutputQuantity)
	out := make([]MaterialRequirement, len(b.Items))
	for i, it := range b.Items {
		out[i] = MaterialRequirement{
			RawMaterialID: it.RawMaterialID,
			Unit:          it.Unit,
			NetQuantity:   shared.RoundQty(it.Quantity.Mul(factor)),
			Quantity:      shared.RoundQty(it.GrossQuantity().Mul(factor)),
		}
	}
	return out, nil
}

// CostLine is the cost share of one raw material
type CostLine struct {
	RawMaterialID uuid.UUID       `json:"raw_material_id"`
	Quantity      decimal.Decimal `json:"quantity"`
	UnitCost      decimal.Decimal `json:"unit_cost"`
	Cost          decimal.Decimal `json:"cost"`
}

// CostRollup is the material cost of a recipe
type CostRollup struct {
	BillOfMaterialID uuid.UUID       `json:"bill_of_material_id"`
	OutputQuantity   decimal.Decimal `json:"output_quantity"`
	TotalCost        decimal.Decimal `json:"total_cost"`
	UnitCost         decimal.Decimal `json:"unit_cost"`
	Lines            []CostLine      `json:"lines"`
}

// Cost rolls up material cost:
//
//	unit_cost = sum(qty * (1 + wastage/100) * cost_price) / output_quantity
//
// costs maps raw material to its cost price; a missing price is an error.
func (b *BillOfMaterials) Cost(costs map[uuid.UUID]decimal.Decimal) (CostRollup, error) {
	r := CostRollup{BillOfMaterialID: b.ID, OutputQuantity: b.OutputQuantity, TotalCost: decimal.Zero}
	for _, it := range b.Items {
		price, ok := costs[it.RawMaterialID]
		if !ok {
			return CostRollup{}, shared.Errorf(shared.ErrInvalidReference, "raw material %s has no cost price", it.RawMaterialID)
		}
		gross := it.GrossQuantity()
		cost := gross.Mul(price)
		r.TotalCost = r.TotalCost.Add(cost)
		r.Lines = append(r.Lines, CostLine{
			RawMaterialID: it.RawMaterialID,
			Quantity:      shared.RoundQty(gross),
			UnitCost:      price,
			Cost:          shared.RoundMoney(cost),
		})
	}
	r.UnitCost = shared.RoundQty(r.TotalCost.Div(b.OutputQuantity))
	r.TotalCost = shared.RoundMoney(r.TotalCost)
	return r, nil
}
