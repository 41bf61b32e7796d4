package document

import (
	"context"

	"github.com/drymix/erp/internal/domain/shared"
	"github.com/google/uuid"
)

// CategoryRepository persists the category tree
type CategoryRepository interface {
	shared.CRUDRepository[Category]
	FindAll(ctx context.Context, orgID uuid.UUID) ([]Category, error)
	ParentOf(ctx context.Context, orgID, id uuid.UUID) (*uuid.UUID, error)
	HasChildren(ctx context.Context, orgID, id uuid.UUID) (bool, error)
	HasDocuments(ctx context.Context, orgID, id uuid.UUID) (bool, error)
}

// DocumentRepository persists document versions
type DocumentRepository interface {
	shared.CRUDRepository[Document]
	FindForUpdate(ctx context.Context, orgID, id uuid.UUID) (*Document, error)
	// Successor returns the live version whose parent is id
	Successor(ctx context.Context, orgID, id uuid.UUID) (*Document, error)
}

// FileRepository persists cloud storage files
type FileRepository interface {
	shared.CRUDRepository[CloudStorageFile]
}
