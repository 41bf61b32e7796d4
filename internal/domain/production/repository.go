package production

import (
	"context"

	"github.com/drymix/erp/internal/domain/shared"
	"github.com/google/uuid"
)

// BOMRepository persists bills of materials with their items
type BOMRepository interface {
	shared.CRUDRepository[BillOfMaterials]
	FindForUpdate(ctx context.Context, orgID, id uuid.UUID) (*BillOfMaterials, error)
	ReplaceItems(ctx context.Context, b *BillOfMaterials) error
	// LockProduct locks every recipe row of a product until the transaction
	// ends, serializing activations of the same product
	LockProduct(ctx context.Context, orgID, productID uuid.UUID) error
	// FindActive returns the active recipes of a product
	FindActive(ctx context.Context, orgID, productID uuid.UUID) ([]BillOfMaterials, error)
	// NextVersion returns one more than the highest version of the product,
	// deleted recipes included
	NextVersion(ctx context.Context, orgID, productID uuid.UUID) (int, error)
}

// OrderRepository persists production orders
type OrderRepository interface {
	shared.CRUDRepository[ProductionOrder]
	FindForUpdate(ctx context.Context, orgID, id uuid.UUID) (*ProductionOrder, error)
}

// BatchRepository persists batches with their consumption rows
type BatchRepository interface {
	shared.CRUDRepository[ProductionBatch]
	FindForUpdate(ctx context.Context, orgID, id uuid.UUID) (*ProductionBatch, error)
	ListByOrder(ctx context.Context, orgID, orderID uuid.UUID) ([]ProductionBatch, error)
	// SaveConsumption rewrites the consumption rows of a batch
	SaveConsumption(ctx context.Context, b *ProductionBatch) error
}
