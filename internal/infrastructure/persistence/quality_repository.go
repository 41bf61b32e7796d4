package persistence

import (
	"context"

	"github.com/drymix/erp/internal/domain/quality"
	"gorm.io/gorm"
)

// GormQualityDocumentRepository implements quality.DocumentRepository
type GormQualityDocumentRepository struct {
	*GormRepository[quality.QualityDocument]
}

// NewGormQualityDocumentRepository creates a new GormQualityDocumentRepository
func NewGormQualityDocumentRepository(db *gorm.DB) *GormQualityDocumentRepository {
	return &GormQualityDocumentRepository{NewGormRepository[quality.QualityDocument](db, ListOptions{
		SearchColumns: []string{"document_number", "title", "description"},
		FilterColumns: Fields("status", "document_type"),
		SortFields:    Fields("document_number", "title", "status", "current_revision"),
		DefaultSort:   "document_number",
		Preload:       []string{"Revisions"},
		PreloadOrder:  "revision_number",
	})}
}

// SaveRevision inserts or updates one revision row
func (r *GormQualityDocumentRepository) SaveRevision(ctx context.Context, rev *quality.DocumentRevision) error {
	return TranslateError(r.Conn(ctx).Save(rev).Error)
}

// GormInspectionRepository implements quality.InspectionRepository
type GormInspectionRepository struct {
	*GormRepository[quality.Inspection]
}

// NewGormInspectionRepository creates a new GormInspectionRepository
func NewGormInspectionRepository(db *gorm.DB) *GormInspectionRepository {
	return &GormInspectionRepository{NewGormRepository[quality.Inspection](db, ListOptions{
		SearchColumns: []string{"inspection_number", "inspector", "remarks"},
		FilterColumns: Fields("inspection_type", "subject_kind", "result",
			"production_batch_id", "goods_receipt_note_id", "product_id"),
		SortFields: Fields("inspection_number", "inspected_at", "result"),
	})}
}

// GormNCRRepository implements quality.NCRRepository
type GormNCRRepository struct {
	*GormRepository[quality.NCR]
}

// NewGormNCRRepository creates a new GormNCRRepository
func NewGormNCRRepository(db *gorm.DB) *GormNCRRepository {
	return &GormNCRRepository{NewGormRepository[quality.NCR](db, ListOptions{
		SearchColumns: []string{"ncr_number", "title", "description"},
		FilterColumns: Fields("status", "severity", "source", "inspection_id", "product_id"),
		SortFields:    Fields("ncr_number", "severity", "status", "closed_at"),
	})}
}

var (
	_ quality.DocumentRepository   = (*GormQualityDocumentRepository)(nil)
	_ quality.InspectionRepository = (*GormInspectionRepository)(nil)
	_ quality.NCRRepository        = (*GormNCRRepository)(nil)
)
