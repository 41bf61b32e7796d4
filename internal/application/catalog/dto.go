package catalog

import (
	"github.com/drymix/erp/internal/domain/catalog"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CreateCategoryRequest represents a request to create a category
type CreateCategoryRequest struct {
	ParentID    *uuid.UUID `json:"parent_id"`
	Code        string     `json:"code" binding:"required,max=50,code"`
	Name        string     `json:"name" binding:"required,max=200"`
	Description string     `json:"description"`
	SortOrder   int        `json:"sort_order"`
}

// UpdateCategoryRequest represents a request to update a category.
// A nil ParentID with MoveToRoot false leaves the parent unchanged.
type UpdateCategoryRequest struct {
	Name        string     `json:"name" binding:"required,max=200"`
	Description string     `json:"description"`
	SortOrder   int        `json:"sort_order"`
	ParentID    *uuid.UUID `json:"parent_id"`
	MoveToRoot  bool       `json:"move_to_root"`
	Version     int        `json:"version" binding:"required,min=1"`
}

// ProductRequest carries the editable attributes of a product
type ProductRequest struct {
	Name           string                  `json:"name" binding:"required,max=200"`
	Description    string                  `json:"description"`
	CategoryID     *uuid.UUID              `json:"category_id"`
	ProductType    catalog.ProductType     `json:"product_type" binding:"omitempty,oneof=raw_material finished_good packaging consumable"`
	Unit           string                  `json:"unit" binding:"omitempty,max=20"`
	PackSize       *decimal.Decimal        `json:"pack_size" binding:"omitempty,gt=0"`
	CostPrice      decimal.Decimal         `json:"cost_price" binding:"decimal_gte0"`
	SellingPrice   decimal.Decimal         `json:"selling_price" binding:"decimal_gte0"`
	TaxRate        decimal.Decimal         `json:"tax_rate" binding:"decimal_gte0,lte=100"`
	ReorderLevel   decimal.Decimal         `json:"reorder_level" binding:"decimal_gte0"`
	Specifications *catalog.Specifications `json:"specifications"`
}

func (r ProductRequest) details() catalog.ProductDetails {
	d := catalog.ProductDetails{
		Name:           r.Name,
		Description:    r.Description,
		CategoryID:     r.CategoryID,
		ProductType:    r.ProductType,
		Unit:           r.Unit,
		PackSize:       decimal.NewFromInt(1),
		CostPrice:      r.CostPrice,
		SellingPrice:   r.SellingPrice,
		TaxRate:        r.TaxRate,
		ReorderLevel:   r.ReorderLevel,
		Specifications: r.Specifications,
	}
	if d.ProductType == "" {
		d.ProductType = catalog.ProductTypeFinishedGood
	}
	if d.Unit == "" {
		d.Unit = "kg"
	}
	if r.PackSize != nil {
		d.PackSize = *r.PackSize
	}
	return d
}

// CreateProductRequest represents a request to create a product
type CreateProductRequest struct {
	Code string `json:"code" binding:"required,max=50,code"`
	ProductRequest
}

// UpdateProductRequest represents a request to update a product
type UpdateProductRequest struct {
	ProductRequest
	Version int `json:"version" binding:"required,min=1"`
}

// ChangeProductStatusRequest activates, deactivates or discontinues a product
type ChangeProductStatusRequest struct {
	Status catalog.ProductStatus `json:"status" binding:"required,oneof=active inactive discontinued"`
}
