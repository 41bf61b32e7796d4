package persistence

import (
	"context"

	"github.com/drymix/erp/internal/domain/printing"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormPrintTemplateRepository implements printing.TemplateRepository
type GormPrintTemplateRepository struct {
	*GormRepository[printing.PrintTemplate]
}

// NewGormPrintTemplateRepository creates a new GormPrintTemplateRepository
func NewGormPrintTemplateRepository(db *gorm.DB) *GormPrintTemplateRepository {
	return &GormPrintTemplateRepository{NewGormRepository[printing.PrintTemplate](db, ListOptions{
		SearchColumns: []string{"name", "description"},
		FilterColumns: Fields("document_type", "paper_size", "is_default"),
		SortFields:    Fields("name", "document_type", "created_at", "updated_at"),
		DefaultSort:   "document_type",
	})}
}

// FindDefault returns the default template of docType
func (r *GormPrintTemplateRepository) FindDefault(ctx context.Context, orgID uuid.UUID, docType printing.DocumentType) (*printing.PrintTemplate, error) {
	return r.FindOne(ctx, orgID, "document_type = ? AND is_default = ?", docType, true)
}

// ClearDefault unsets is_default for docType without bumping versions
func (r *GormPrintTemplateRepository) ClearDefault(ctx context.Context, orgID uuid.UUID, docType printing.DocumentType) error {
	err := r.Scoped(ctx, orgID).
		Where("document_type = ? AND is_default = ?", docType, true).
		UpdateColumn("is_default", false).Error
	return TranslateError(err)
}
