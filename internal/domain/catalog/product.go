// Package catalog holds products and their categories.
package catalog

import (
	"github.com/drymix/erp/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// ProductType classifies what a product is used for
type ProductType string

const (
	ProductTypeRawMaterial  ProductType = "raw_material"
	ProductTypeFinishedGood ProductType = "finished_good"
	ProductTypePackaging    ProductType = "packaging"
	ProductTypeConsumable   ProductType = "consumable"
)

// Valid reports whether t is a known product type
func (t ProductType) Valid() bool {
	switch t {
	case ProductTypeRawMaterial, ProductTypeFinishedGood, ProductTypePackaging, ProductTypeConsumable:
		return true
	}
	return false
}

// ProductStatus represents the status of a product
type ProductStatus string

const (
	ProductStatusActive       ProductStatus = "active"
	ProductStatusInactive     ProductStatus = "inactive"
	ProductStatusDiscontinued ProductStatus = "discontinued"
)

// ProductStatusFlow is the product status machine. Discontinued is final.
var ProductStatusFlow = shared.Transitions[ProductStatus]{
	ProductStatusActive:   {ProductStatusInactive, ProductStatusDiscontinued},
	ProductStatusInactive: {ProductStatusActive, ProductStatusDiscontinued},
}

// Product is a sellable or consumable item
type Product struct {
	shared.TenantAggregateRoot
	CategoryID     *uuid.UUID                          `gorm:"type:uuid" json:"category_id,omitempty"`
	Code           string                              `gorm:"type:varchar(50);not null" json:"code"`
	Name           string                              `gorm:"type:varchar(200);not null" json:"name"`
	Description    string                              `gorm:"type:text" json:"description"`
	ProductType    ProductType                         `gorm:"type:varchar(20);not null;default:'finished_good'" json:"product_type"`
	Unit           string                              `gorm:"type:varchar(20);not null;default:'kg'" json:"unit"`
	PackSize       decimal.Decimal                     `gorm:"type:numeric(18,4);not null;default:1" json:"pack_size"`
	CostPrice      decimal.Decimal                     `gorm:"type:numeric(18,2);not null;default:0" json:"cost_price"`
	SellingPrice   decimal.Decimal                     `gorm:"type:numeric(18,2);not null;default:0" json:"selling_price"`
	TaxRate        decimal.Decimal                     `gorm:"type:numeric(5,2);not null;default:0" json:"tax_rate"`
	ReorderLevel   decimal.Decimal                     `gorm:"type:numeric(18,4);not null;default:0" json:"reorder_level"`
	Specifications *datatypes.JSONType[Specifications] `gorm:"type:jsonb" json:"specifications,omitempty"`
	Status         ProductStatus                       `gorm:"type:varchar(20);not null;default:'active'" json:"status"`
}

// TableName returns the table name for GORM
func (Product) TableName() string {
	return "products"
}

// ProductDetails are the editable attributes of a product
type ProductDetails struct {
	Name           string
	Description    string
	CategoryID     *uuid.UUID
	ProductType    ProductType
	Unit           string
	PackSize       decimal.Decimal
	CostPrice      decimal.Decimal
	SellingPrice   decimal.Decimal
	TaxRate        decimal.Decimal
	ReorderLevel   decimal.Decimal
	Specifications *Specifications
}

func (d ProductDetails) validate(v *shared.ValidationError) {
	v.CheckText("name", d.Name, 200)
	v.Check(d.ProductType.Valid(), "product_type", "unknown product type %q", d.ProductType)
	v.CheckText("unit", d.Unit, 20)
	v.CheckPositive("pack_size", d.PackSize)
	v.CheckNonNegative("cost_price", d.CostPrice)
	v.CheckNonNegative("selling_price", d.SellingPrice)
	v.CheckNonNegative("reorder_level", d.ReorderLevel)
	v.Check(!d.TaxRate.IsNegative() && d.TaxRate.LessThanOrEqual(decimal.NewFromInt(100)),
		"tax_rate", "must be between 0 and 100")
	if d.Specifications != nil {
		v.Merge("specifications", d.Specifications.Validate())
	}
}

// NewProduct creates an active product
func NewProduct(orgID uuid.UUID, code string, d ProductDetails) (*Product, error) {
	var v shared.ValidationError
	v.CheckCode("code", code, 50)
	d.validate(&v)
	if err := v.Err(); err != nil {
		return nil, err
	}

	p := &Product{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(orgID),
		Code:                shared.NormalizeCode(code),
		Status:              ProductStatusActive,
	}
	p.apply(d)
	p.AddDomainEvent(NewProductEvent(EventTypeProductCreated, p))
	return p, nil
}

// Update replaces the editable attributes
func (p *Product) Update(d ProductDetails) error {
	var v shared.ValidationError
	d.validate(&v)
	if err := v.Err(); err != nil {
		return err
	}
	p.apply(d)
	p.AddDomainEvent(NewProductEvent(EventTypeProductUpdated, p))
	return nil
}

func (p *Product) apply(d ProductDetails) {
	p.Name = d.Name
	p.Description = d.Description
	p.CategoryID = d.CategoryID
	p.ProductType = d.ProductType
	p.Unit = d.Unit
	p.PackSize = d.PackSize
	p.CostPrice = shared.RoundMoney(d.CostPrice)
	p.SellingPrice = shared.RoundMoney(d.SellingPrice)
	p.TaxRate = d.TaxRate
	p.ReorderLevel = d.ReorderLevel
	if d.Specifications != nil {
		spec := datatypes.NewJSONType(*d.Specifications)
		p.Specifications = &spec
	} else {
		p.Specifications = nil
	}
}

// ChangeStatus activates, deactivates or discontinues the product
func (p *Product) ChangeStatus(to ProductStatus) error {
	if p.Status == to {
		return nil
	}
	if err := ProductStatusFlow.Check("product", p.Status, to); err != nil {
		return err
	}
	p.Status = to
	p.AddDomainEvent(NewProductEvent(EventTypeProductStatusChanged, p))
	return nil
}

// IsSellable reports whether the product may appear on new orders
func (p *Product) IsSellable() bool {
	return p.Status == ProductStatusActive
}

// Specs returns the decoded specifications, or nil
func (p *Product) Specs() *Specifications {
	if p.Specifications == nil {
		return nil
	}
	s := p.Specifications.Data()
	return &s
}
