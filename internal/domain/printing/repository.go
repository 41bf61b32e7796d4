package printing

import (
	"context"

	"github.com/drymix/erp/internal/domain/shared"
	"github.com/google/uuid"
)

// TemplateRepository persists print templates
type TemplateRepository interface {
	shared.CRUDRepository[PrintTemplate]
	// FindDefault returns the default template of docType or NOT_FOUND
	FindDefault(ctx context.Context, orgID uuid.UUID, docType DocumentType) (*PrintTemplate, error)
	// ClearDefault unsets the default flag on every template of docType
	ClearDefault(ctx context.Context, orgID uuid.UUID, docType DocumentType) error
}
