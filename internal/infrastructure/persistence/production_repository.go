package persistence

import (
	"context"

	"github.com/drymix/erp/internal/domain/production"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormBOMRepository implements production.BOMRepository
type GormBOMRepository struct {
	*GormRepository[production.BillOfMaterials]
}

// NewGormBOMRepository creates a new GormBOMRepository
func NewGormBOMRepository(db *gorm.DB) *GormBOMRepository {
	return &GormBOMRepository{NewGormRepository[production.BillOfMaterials](db, ListOptions{
		SearchColumns: []string{"name", "notes"},
		FilterColumns: Fields("status", "product_id"),
		SortFields:    Fields("name", "version", "effective_from", "status"),
		DefaultSort:   "effective_from",
		Preload:       []string{"Items"},
		PreloadOrder:  "line_no",
	})}
}

// ReplaceItems rewrites the item rows of a draft recipe
func (r *GormBOMRepository) ReplaceItems(ctx context.Context, b *production.BillOfMaterials) error {
	return ReplaceChildren(ctx, r.db, "bill_of_material_id", b.ID, b.Items)
}

// LockProduct takes row locks on all recipes of a product in id order
func (r *GormBOMRepository) LockProduct(ctx context.Context, orgID, productID uuid.UUID) error {
	q := r.Conn(ctx).Model(&production.BillOfMaterials{}).
		Where("organization_id = ? AND product_id = ?", orgID, productID)
	if q.Dialector.Name() == "postgres" {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var ids []uuid.UUID
	return TranslateError(q.Order("id").Pluck("id", &ids).Error)
}

// FindActive returns the active recipes of a product with their items
func (r *GormBOMRepository) FindActive(ctx context.Context, orgID, productID uuid.UUID) ([]production.BillOfMaterials, error) {
	var out []production.BillOfMaterials
	err := r.preload(r.Scoped(ctx, orgID)).
		Where("product_id = ? AND status = ?", productID, production.BOMActive).
		Order("effective_from").
		Find(&out).Error
	return out, TranslateError(err)
}

// NextVersion returns one more than the highest version of the product
func (r *GormBOMRepository) NextVersion(ctx context.Context, orgID, productID uuid.UUID) (int, error) {
	var last int
	err := r.Conn(ctx).Model(&production.BillOfMaterials{}).
		Where("organization_id = ? AND product_id = ?", orgID, productID).
		Select("COALESCE(MAX(version), 0)").
		Scan(&last).Error
	if err != nil {
		return 0, TranslateError(err)
	}
	return last + 1, nil
}

// GormProductionOrderRepository implements production.OrderRepository
type GormProductionOrderRepository struct {
	*GormRepository[production.ProductionOrder]
}

// NewGormProductionOrderRepository creates a new GormProductionOrderRepository
func NewGormProductionOrderRepository(db *gorm.DB) *GormProductionOrderRepository {
	return &GormProductionOrderRepository{NewGormRepository[production.ProductionOrder](db, ListOptions{
		SearchColumns: []string{"order_number", "notes"},
		FilterColumns: Fields("status", "product_id", "manufacturing_unit_id", "bill_of_material_id"),
		SortFields:    Fields("order_number", "planned_start", "planned_quantity", "status"),
	})}
}

// GormBatchRepository implements production.BatchRepository
type GormBatchRepository struct {
	*GormRepository[production.ProductionBatch]
}

// NewGormBatchRepository creates a new GormBatchRepository
func NewGormBatchRepository(db *gorm.DB) *GormBatchRepository {
	return &GormBatchRepository{NewGormRepository[production.ProductionBatch](db, ListOptions{
		SearchColumns: []string{"batch_number", "notes"},
		FilterColumns: Fields("status", "quality_status", "production_order_id"),
		SortFields:    Fields("batch_number", "started_at", "completed_at", "status"),
		Preload:       []string{"Consumption"},
		PreloadOrder:  "created_at",
	})}
}

// ListByOrder returns the batches of a production order, oldest first
func (r *GormBatchRepository) ListByOrder(ctx context.Context, orgID, orderID uuid.UUID) ([]production.ProductionBatch, error) {
	var out []production.ProductionBatch
	err := r.preload(r.Scoped(ctx, orgID)).
		Where("production_order_id = ?", orderID).
		Order("created_at").
		Find(&out).Error
	return out, TranslateError(err)
}

// SaveConsumption rewrites the consumption rows of a batch
func (r *GormBatchRepository) SaveConsumption(ctx context.Context, b *production.ProductionBatch) error {
	return ReplaceChildren(ctx, r.db, "production_batch_id", b.ID, b.Consumption)
}
