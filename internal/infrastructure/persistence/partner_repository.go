package persistence

import (
	"context"

	"github.com/drymix/erp/internal/domain/partner"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormCustomerRepository implements partner.CustomerRepository
type GormCustomerRepository struct {
	*GormRepository[partner.Customer]
}

// NewGormCustomerRepository creates a new GormCustomerRepository
func NewGormCustomerRepository(db *gorm.DB) *GormCustomerRepository {
	return &GormCustomerRepository{NewGormRepository[partner.Customer](db, ListOptions{
		SearchColumns: []string{"code", "name", "billing_address"},
		FullText:      "to_tsvector('simple', coalesce(name, '') || ' ' || coalesce(billing_address, ''))",
		FilterColumns: Fields("status", "customer_type"),
		SortFields:    Fields("code", "name", "credit_limit", "updated_at"),
	})}
}

// FindByCode finds a customer by its normalized code
func (r *GormCustomerRepository) FindByCode(ctx context.Context, orgID uuid.UUID, code string) (*partner.Customer, error) {
	return r.FindOne(ctx, orgID, "code = ?", code)
}

// CodeExists reports whether a live customer already uses code
func (r *GormCustomerRepository) CodeExists(ctx context.Context, orgID uuid.UUID, code string) (bool, error) {
	return r.Exists(ctx, orgID, "code = ?", code)
}

// FindAllActive returns every active customer, used by credit recomputation
func (r *GormCustomerRepository) FindAllActive(ctx context.Context, orgID uuid.UUID) ([]partner.Customer, error) {
	return r.FindWhere(ctx, orgID, "status <> ?", partner.StatusInactive)
}

// GormSupplierRepository implements partner.SupplierRepository
type GormSupplierRepository struct {
	*GormRepository[partner.Supplier]
}

// NewGormSupplierRepository creates a new GormSupplierRepository
func NewGormSupplierRepository(db *gorm.DB) *GormSupplierRepository {
	return &GormSupplierRepository{NewGormRepository[partner.Supplier](db, ListOptions{
		SearchColumns: []string{"code", "name", "address"},
		FullText:      "to_tsvector('simple', coalesce(name, '') || ' ' || coalesce(address, ''))",
		FilterColumns: Fields("status"),
		SortFields:    Fields("code", "name", "rating", "updated_at"),
	})}
}

// FindByCode finds a supplier by its normalized code
func (r *GormSupplierRepository) FindByCode(ctx context.Context, orgID uuid.UUID, code string) (*partner.Supplier, error) {
	return r.FindOne(ctx, orgID, "code = ?", code)
}

// CodeExists reports whether a live supplier already uses code
func (r *GormSupplierRepository) CodeExists(ctx context.Context, orgID uuid.UUID, code string) (bool, error) {
	return r.Exists(ctx, orgID, "code = ?", code)
}

var (
	_ partner.CustomerRepository = (*GormCustomerRepository)(nil)
	_ partner.SupplierRepository = (*GormSupplierRepository)(nil)
)
