package persistence

import (
	"context"

	"github.com/drymix/erp/internal/domain/inventory"
	"github.com/drymix/erp/internal/domain/shared"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormUnitRepository implements inventory.UnitRepository
type GormUnitRepository struct {
	*GormRepository[inventory.ManufacturingUnit]
}

// NewGormUnitRepository creates a new GormUnitRepository
func NewGormUnitRepository(db *gorm.DB) *GormUnitRepository {
	return &GormUnitRepository{NewGormRepository[inventory.ManufacturingUnit](db, ListOptions{
		SearchColumns: []string{"code", "name", "location"},
		FilterColumns: Fields("status"),
		SortFields:    Fields("code", "name", "capacity_tons_per_day"),
		DefaultSort:   "code",
	})}
}

// CodeExists reports whether a live unit already uses code
func (r *GormUnitRepository) CodeExists(ctx context.Context, orgID uuid.UUID, code string) (bool, error) {
	return r.Exists(ctx, orgID, "code = ?", code)
}

// GormStockRepository implements inventory.StockRepository
type GormStockRepository struct {
	rows *GormRepository[inventory.Inventory]
	db   *gorm.DB
}

// NewGormStockRepository creates a new GormStockRepository
func NewGormStockRepository(db *gorm.DB) *GormStockRepository {
	return &GormStockRepository{rows: NewGormRepository[inventory.Inventory](db, ListOptions{}), db: db}
}

// FindForUpdate locks the stock row of a product in a unit
func (r *GormStockRepository) FindForUpdate(ctx context.Context, orgID, unitID, productID uuid.UUID) (*inventory.Inventory, error) {
	var inv inventory.Inventory
	q := Conn(ctx, r.db).Where("organization_id = ? AND manufacturing_unit_id = ? AND product_id = ?", orgID, unitID, productID)
	if q.Dialector.Name() == "postgres" {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	if err := q.First(&inv).Error; err != nil {
		return nil, TranslateError(err)
	}
	return &inv, nil
}

// Create inserts a stock row
func (r *GormStockRepository) Create(ctx context.Context, inv *inventory.Inventory) error {
	return r.rows.Create(ctx, inv)
}

// Update writes a stock row under optimistic locking
func (r *GormStockRepository) Update(ctx context.Context, inv *inventory.Inventory) error {
	return r.rows.Update(ctx, inv)
}

// AppendTransaction adds one entry to the movement log
func (r *GormStockRepository) AppendTransaction(ctx context.Context, tx *inventory.StockTransaction) error {
	return TranslateError(Conn(ctx, r.db).Create(tx).Error)
}

var stockSortFields = map[string]string{
	"product_code":     "p.code",
	"quantity_on_hand": "i.quantity_on_hand",
	"updated_at":       "i.updated_at",
}

// List returns stock rows with product and unit details
func (r *GormStockRepository) List(ctx context.Context, orgID uuid.UUID, filter shared.Filter) ([]inventory.StockLevel, int64, error) {
	filter = filter.Normalize()
	q := Conn(ctx, r.db).Table("inventory AS i").
		Joins("JOIN products p ON p.id = i.product_id").
		Joins("JOIN manufacturing_units u ON u.id = i.manufacturing_unit_id").
		Where("i.organization_id = ?", orgID)
	if v, ok := filter.Filters["manufacturing_unit_id"]; ok {
		q = q.Where("i.manufacturing_unit_id = ?", v)
	}
	if v, ok := filter.Filters["product_id"]; ok {
		q = q.Where("i.product_id = ?", v)
	}
	if filter.Search != "" {
		like := "%" + filter.Search + "%"
		q = q.Where("LOWER(p.code) LIKE LOWER(?) OR LOWER(p.name) LIKE LOWER(?)", like, like)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, TranslateError(err)
	}

	order, ok := stockSortFields[filter.OrderBy]
	if !ok {
		order = "p.code"
	}
	var out []inventory.StockLevel
	err := q.Select("i.*, p.code AS product_code, p.name AS product_name, p.unit AS unit, " +
		"p.reorder_level AS reorder_level, u.code AS unit_code").
		Order(order + " " + ValidateSortOrder(filter.OrderDir) + ", i.id ASC").
		Offset(filter.Offset()).Limit(filter.PageSize).
		Scan(&out).Error
	return out, total, TranslateError(err)
}

// ListTransactions returns the movement log, newest first
func (r *GormStockRepository) ListTransactions(ctx context.Context, orgID uuid.UUID, f inventory.TransactionFilter) ([]inventory.StockTransaction, int64, error) {
	filter := f.Filter.Normalize()
	q := Conn(ctx, r.db).Model(&inventory.StockTransaction{}).Where("organization_id = ?", orgID)
	if f.ManufacturingUnitID != nil {
		q = q.Where("manufacturing_unit_id = ?", *f.ManufacturingUnitID)
	}
	if f.ProductID != nil {
		q = q.Where("product_id = ?", *f.ProductID)
	}
	if f.Type != "" {
		q = q.Where("transaction_type = ?", f.Type)
	}
	if f.ReferenceType != "" {
		q = q.Where("reference_type = ?", f.ReferenceType)
	}
	if f.ReferenceID != nil {
		q = q.Where("reference_id = ?", *f.ReferenceID)
	}
	if f.From != nil {
		q = q.Where("created_at >= ?", *f.From)
	}
	if f.To != nil {
		q = q.Where("created_at < ?", *f.To)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, TranslateError(err)
	}
	var out []inventory.StockTransaction
	err := q.Order("created_at DESC, id DESC").Offset(filter.Offset()).Limit(filter.PageSize).Find(&out).Error
	return out, total, TranslateError(err)
}

// LowStock lists active products whose stock over all units is below their
// reorder level. Products never stocked count as zero.
func (r *GormStockRepository) LowStock(ctx context.Context, orgID uuid.UUID) ([]inventory.LowStockLine, error) {
	var out []inventory.LowStockLine
	err := Conn(ctx, r.db).Raw(`
SELECT p.id AS product_id, p.code AS product_code, p.name AS product_name, p.unit AS unit,
       p.reorder_level AS reorder_level, COALESCE(SUM(i.quantity_on_hand), 0) AS quantity_on_hand
FROM products p
LEFT JOIN inventory i ON i.product_id = p.id AND i.organization_id = p.organization_id
WHERE p.organization_id = ? AND p.deleted_at IS NULL AND p.status = 'active' AND p.reorder_level > 0
GROUP BY p.id, p.code, p.name, p.unit, p.reorder_level
HAVING COALESCE(SUM(i.quantity_on_hand), 0) < p.reorder_level
ORDER BY p.code`, orgID).Scan(&out).Error
	if err != nil {
		return nil, TranslateError(err)
	}
	for i := range out {
		out[i].Shortfall = out[i].ReorderLevel.Sub(out[i].QuantityOnHand)
	}
	return out, nil
}

var (
	_ inventory.UnitRepository  = (*GormUnitRepository)(nil)
	_ inventory.StockRepository = (*GormStockRepository)(nil)
)
