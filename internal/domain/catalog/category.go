package catalog

import (
	"context"

	"github.com/drymix/erp/internal/domain/shared"
	"github.com/google/uuid"
)

// Category groups products. Categories form a tree through ParentID.
type Category struct {
	shared.TenantAggregateRoot
	ParentID    *uuid.UUID `gorm:"type:uuid;index" json:"parent_id,omitempty"`
	Code        string     `gorm:"type:varchar(50);not null" json:"code"`
	Name        string     `gorm:"type:varchar(200);not null" json:"name"`
	Description string     `gorm:"type:text" json:"description"`
	SortOrder   int        `gorm:"not null;default:0" json:"sort_order"`
}

// TableName returns the table name for GORM
func (Category) TableName() string {
	return "product_categories"
}

// NewCategory creates a new category. The parent is checked by the caller.
func NewCategory(orgID uuid.UUID, code, name string, parentID *uuid.UUID) (*Category, error) {
	var v shared.ValidationError
	v.CheckCode("code", code, 50)
	v.CheckText("name", name, 200)
	if err := v.Err(); err != nil {
		return nil, err
	}
	return &Category{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(orgID),
		ParentID:            parentID,
		Code:                shared.NormalizeCode(code),
		Name:                name,
	}, nil
}

// Rename changes the display fields of the category
func (c *Category) Rename(name, description string, sortOrder int) error {
	var v shared.ValidationError
	v.CheckText("name", name, 200)
	if err := v.Err(); err != nil {
		return err
	}
	c.Name = name
	c.Description = description
	c.SortOrder = sortOrder
	return nil
}

// MoveTo re-parents the category after checking the tree stays acyclic
func (c *Category) MoveTo(ctx context.Context, parentID *uuid.UUID, parentOf shared.ParentLookup) error {
	if err := shared.EnsureAcyclic(ctx, c.ID, parentID, parentOf); err != nil {
		return err
	}
	c.ParentID = parentID
	return nil
}

// CategoryTree arranges categories into a forest ordered as given
func CategoryTree(categories []Category) []*shared.TreeNode[Category] {
	return shared.BuildTree(categories,
		func(c Category) uuid.UUID { return c.ID },
		func(c Category) *uuid.UUID { return c.ParentID })
}
