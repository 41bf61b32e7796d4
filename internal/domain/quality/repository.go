package quality

import (
	"context"

	"github.com/drymix/erp/internal/domain/shared"
	"github.com/google/uuid"
)

// DocumentRepository persists controlled documents with their revisions
type DocumentRepository interface {
	shared.CRUDRepository[QualityDocument]
	FindForUpdate(ctx context.Context, orgID, id uuid.UUID) (*QualityDocument, error)
	// SaveRevision inserts or updates one revision row
	SaveRevision(ctx context.Context, rev *DocumentRevision) error
}

// InspectionRepository persists inspections
type InspectionRepository interface {
	shared.CRUDRepository[Inspection]
	FindForUpdate(ctx context.Context, orgID, id uuid.UUID) (*Inspection, error)
}

// NCRRepository persists non-conformance reports
type NCRRepository interface {
	shared.CRUDRepository[NCR]
	FindForUpdate(ctx context.Context, orgID, id uuid.UUID) (*NCR, error)
}
