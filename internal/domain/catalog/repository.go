package catalog

import (
	"context"

	"github.com/drymix/erp/internal/domain/shared"
	"github.com/google/uuid"
)

// CategoryRepository persists categories
type CategoryRepository interface {
	shared.CRUDRepository[Category]
	FindAll(ctx context.Context, orgID uuid.UUID) ([]Category, error)
	ParentOf(ctx context.Context, orgID, id uuid.UUID) (*uuid.UUID, error)
	HasChildren(ctx context.Context, orgID, id uuid.UUID) (bool, error)
	HasProducts(ctx context.Context, orgID, id uuid.UUID) (bool, error)
}

// ProductRepository persists products
type ProductRepository interface {
	shared.CRUDRepository[Product]
	FindByCode(ctx context.Context, orgID uuid.UUID, code string) (*Product, error)
	FindByIDs(ctx context.Context, orgID uuid.UUID, ids []uuid.UUID) ([]Product, error)
	CodeExists(ctx context.Context, orgID uuid.UUID, code string) (bool, error)
}
