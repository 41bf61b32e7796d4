package persistence

import (
	"context"

	"github.com/drymix/erp/internal/domain/document"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

var ownerFilters = []string{
	"owner_kind", "project_id", "customer_id", "supplier_id", "product_id",
	"employee_id", "ncr_id", "quality_document_id", "is_latest", "upload_status",
}

// GormDocumentCategoryRepository implements document.CategoryRepository
type GormDocumentCategoryRepository struct {
	*GormRepository[document.Category]
}

// NewGormDocumentCategoryRepository creates a new GormDocumentCategoryRepository
func NewGormDocumentCategoryRepository(db *gorm.DB) *GormDocumentCategoryRepository {
	return &GormDocumentCategoryRepository{NewGormRepository[document.Category](db, ListOptions{
		SearchColumns: []string{"name"},
		FilterColumns: Fields("parent_id"),
		SortFields:    Fields("name"),
		DefaultSort:   "name",
	})}
}

// FindAll returns every live category ordered by name
func (r *GormDocumentCategoryRepository) FindAll(ctx context.Context, orgID uuid.UUID) ([]document.Category, error) {
	var out []document.Category
	err := r.Scoped(ctx, orgID).Order("name ASC").Find(&out).Error
	return out, TranslateError(err)
}

// ParentOf returns the parent of a category, used by the cycle check
func (r *GormDocumentCategoryRepository) ParentOf(ctx context.Context, orgID, id uuid.UUID) (*uuid.UUID, error) {
	return parentOf(r.Scoped(ctx, orgID), "parent_id", id)
}

// HasChildren reports whether any live category sits below id
func (r *GormDocumentCategoryRepository) HasChildren(ctx context.Context, orgID, id uuid.UUID) (bool, error) {
	return r.Exists(ctx, orgID, "parent_id = ?", id)
}

// HasDocuments reports whether any live document is filed under id
func (r *GormDocumentCategoryRepository) HasDocuments(ctx context.Context, orgID, id uuid.UUID) (bool, error) {
	var count int64
	err := r.Conn(ctx).Model(&document.Document{}).
		Where("organization_id = ? AND category_id = ? AND deleted_at IS NULL", orgID, id).
		Count(&count).Error
	return count > 0, TranslateError(err)
}

// GormDocumentRepository implements document.DocumentRepository
type GormDocumentRepository struct {
	*GormRepository[document.Document]
}

// NewGormDocumentRepository creates a new GormDocumentRepository
func NewGormDocumentRepository(db *gorm.DB) *GormDocumentRepository {
	return &GormDocumentRepository{NewGormRepository[document.Document](db, ListOptions{
		SearchColumns: []string{"title", "file_name", "description"},
		FilterColumns: Fields(append([]string{"category_id", "mime_type"}, ownerFilters...)...),
		SortFields:    Fields("title", "file_name", "size_bytes", "version"),
	})}
}

// Successor returns the live version built on id
func (r *GormDocumentRepository) Successor(ctx context.Context, orgID, id uuid.UUID) (*document.Document, error) {
	return r.FindOne(ctx, orgID, "parent_id = ?", id)
}

// GormCloudFileRepository implements document.FileRepository
type GormCloudFileRepository struct {
	*GormRepository[document.CloudStorageFile]
}

// NewGormCloudFileRepository creates a new GormCloudFileRepository
func NewGormCloudFileRepository(db *gorm.DB) *GormCloudFileRepository {
	return &GormCloudFileRepository{NewGormRepository[document.CloudStorageFile](db, ListOptions{
		SearchColumns: []string{"file_name"},
		FilterColumns: Fields(append([]string{"mime_type", "bucket"}, ownerFilters...)...),
		SortFields:    Fields("file_name", "size_bytes"),
	})}
}

var (
	_ document.CategoryRepository = (*GormDocumentCategoryRepository)(nil)
	_ document.DocumentRepository = (*GormDocumentRepository)(nil)
	_ document.FileRepository     = (*GormCloudFileRepository)(nil)
)
