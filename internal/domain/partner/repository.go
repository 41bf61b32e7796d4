package partner

import (
	"context"

	"github.com/drymix/erp/internal/domain/shared"
	"github.com/google/uuid"
)

// CustomerRepository persists customers
type CustomerRepository interface {
	shared.CRUDRepository[Customer]
	FindForUpdate(ctx context.Context, orgID, id uuid.UUID) (*Customer, error)
	FindByCode(ctx context.Context, orgID uuid.UUID, code string) (*Customer, error)
	CodeExists(ctx context.Context, orgID uuid.UUID, code string) (bool, error)
	FindAllActive(ctx context.Context, orgID uuid.UUID) ([]Customer, error)
}

// SupplierRepository persists suppliers
type SupplierRepository interface {
	shared.CRUDRepository[Supplier]
	FindByCode(ctx context.Context, orgID uuid.UUID, code string) (*Supplier, error)
	CodeExists(ctx context.Context, orgID uuid.UUID, code string) (bool, error)
}
