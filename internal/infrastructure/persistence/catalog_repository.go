package persistence

import (
	"context"

	"github.com/drymix/erp/internal/domain/catalog"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormCategoryRepository implements catalog.CategoryRepository
type GormCategoryRepository struct {
	*GormRepository[catalog.Category]
}

// NewGormCategoryRepository creates a new GormCategoryRepository
func NewGormCategoryRepository(db *gorm.DB) *GormCategoryRepository {
	return &GormCategoryRepository{NewGormRepository[catalog.Category](db, ListOptions{
		SearchColumns: []string{"code", "name"},
		FilterColumns: Fields("parent_id"),
		SortFields:    Fields("code", "name", "sort_order"),
		DefaultSort:   "sort_order",
	})}
}

// FindAll returns every live category ordered for tree building
func (r *GormCategoryRepository) FindAll(ctx context.Context, orgID uuid.UUID) ([]catalog.Category, error) {
	var out []catalog.Category
	err := r.Scoped(ctx, orgID).Order("sort_order ASC, name ASC").Find(&out).Error
	return out, TranslateError(err)
}

// ParentOf returns the parent of a category, used by the cycle check
func (r *GormCategoryRepository) ParentOf(ctx context.Context, orgID, id uuid.UUID) (*uuid.UUID, error) {
	return parentOf(r.Scoped(ctx, orgID), "parent_id", id)
}

// HasChildren reports whether any live category sits below id
func (r *GormCategoryRepository) HasChildren(ctx context.Context, orgID, id uuid.UUID) (bool, error) {
	return r.Exists(ctx, orgID, "parent_id = ?", id)
}

// HasProducts reports whether any live product uses the category
func (r *GormCategoryRepository) HasProducts(ctx context.Context, orgID, id uuid.UUID) (bool, error) {
	var count int64
	err := r.Conn(ctx).Model(&catalog.Product{}).
		Where("organization_id = ? AND category_id = ? AND deleted_at IS NULL", orgID, id).
		Count(&count).Error
	return count > 0, TranslateError(err)
}

// GormProductRepository implements catalog.ProductRepository
type GormProductRepository struct {
	*GormRepository[catalog.Product]
}

// NewGormProductRepository creates a new GormProductRepository
func NewGormProductRepository(db *gorm.DB) *GormProductRepository {
	return &GormProductRepository{NewGormRepository[catalog.Product](db, ListOptions{
		SearchColumns: []string{"code", "name", "description"},
		FullText:      "to_tsvector('simple', coalesce(name, '') || ' ' || coalesce(description, ''))",
		FilterColumns: Fields("status", "product_type", "category_id", "unit"),
		SortFields:    Fields("code", "name", "selling_price", "cost_price", "updated_at"),
		DefaultSort:   "created_at",
	})}
}

// FindByCode finds a product by its normalized code
func (r *GormProductRepository) FindByCode(ctx context.Context, orgID uuid.UUID, code string) (*catalog.Product, error) {
	return r.FindOne(ctx, orgID, "code = ?", code)
}

// FindByIDs loads the given products, skipping unknown IDs
func (r *GormProductRepository) FindByIDs(ctx context.Context, orgID uuid.UUID, ids []uuid.UUID) ([]catalog.Product, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	return r.FindWhere(ctx, orgID, "id IN ?", ids)
}

// CodeExists reports whether a live product already uses code
func (r *GormProductRepository) CodeExists(ctx context.Context, orgID uuid.UUID, code string) (bool, error) {
	return r.Exists(ctx, orgID, "code = ?", code)
}

// parentOf reads the parent column of one row of a self-referencing table
func parentOf(q *gorm.DB, column string, id uuid.UUID) (*uuid.UUID, error) {
	var row struct{ Parent *uuid.UUID }
	err := q.Select(column+" AS parent").Where("id = ?", id).Take(&row).Error
	if err != nil {
		return nil, TranslateError(err)
	}
	return row.Parent, nil
}

var (
	_ catalog.CategoryRepository = (*GormCategoryRepository)(nil)
	_ catalog.ProductRepository  = (*GormProductRepository)(nil)
)
