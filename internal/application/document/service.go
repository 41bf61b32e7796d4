// Package document implements the document library on top of object storage.
// Clients upload and download directly against presigned URLs; the service
// only records metadata and checks that objects arrived.
package document

import (
	"context"
	"errors"
	"time"

	"github.com/drymix/erp/internal/domain/document"
	"github.com/drymix/erp/internal/domain/shared"
	"github.com/drymix/erp/internal/infrastructure/logger"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ObjectStorage is the presigned-URL object store documents live in
type ObjectStorage interface {
	GenerateUploadURL(ctx context.Context, storageKey, contentType string, expiresIn time.Duration) (string, time.Time, error)
	GenerateDownloadURL(ctx context.Context, storageKey string, expiresIn time.Duration) (string, time.Time, error)
	DeleteObject(ctx context.Context, storageKey string) error
	ObjectExists(ctx context.Context, storageKey string) (bool, error)
	GetBucket() string
}

// Deps are the collaborators of the document Service
type Deps struct {
	Categories document.CategoryRepository
	Documents  document.DocumentRepository
	Files      document.FileRepository
	Storage    ObjectStorage
	Tx         shared.TxManager
	// URLExpiry is the lifetime of presigned URLs; zero uses the store default
	URLExpiry time.Duration
}

// Service runs the document use cases
type Service struct {
	Deps
}

// NewService creates a new document Service
func NewService(deps Deps) *Service {
	return &Service{Deps: deps}
}

// CreateCategory adds a category, optionally below a parent
func (s *Service) CreateCategory(ctx context.Context, orgID uuid.UUID, req CategoryRequest) (*document.Category, error) {
	c, err := document.NewCategory(orgID, req.Name, req.Description)
	if err != nil {
		return nil, err
	}
	if err := s.moveCategory(ctx, orgID, c, req.ParentID); err != nil {
		return nil, err
	}
	c.CreatedBy = shared.ActorFrom(ctx)
	if err := s.Categories.Create(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// GetCategory returns one category
func (s *Service) GetCategory(ctx context.Context, orgID, id uuid.UUID) (*document.Category, error) {
	return s.Categories.FindByID(ctx, orgID, id)
}

// ListCategories returns a page of categories
func (s *Service) ListCategories(ctx context.Context, orgID uuid.UUID, filter shared.Filter) (shared.Paginated[document.Category], error) {
	items, total, err := s.Categories.List(ctx, orgID, filter)
	if err != nil {
		return shared.Paginated[document.Category]{}, err
	}
	return page(items, total, filter), nil
}

// CategoryTree returns every category as a forest
func (s *Service) CategoryTree(ctx context.Context, orgID uuid.UUID) ([]*shared.TreeNode[document.Category], error) {
	all, err := s.Categories.FindAll(ctx, orgID)
	if err != nil {
		return nil, err
	}
	return document.CategoryTree(all), nil
}

// UpdateCategory renames and optionally re-parents a category
func (s *Service) UpdateCategory(ctx context.Context, orgID, id uuid.UUID, req CategoryRequest) (*document.Category, error) {
	var c *document.Category
	err := s.Tx.InTx(ctx, func(ctx context.Context) error {
		var err error
		if c, err = s.Categories.FindByID(ctx, orgID, id); err != nil {
			return err
		}
		if req.Version != 0 && c.Version != req.Version {
			return shared.ErrConcurrencyConflict
		}
		if err := c.Rename(req.Name, req.Description); err != nil {
			return err
		}
		switch {
		case req.MoveToRoot:
			c.ParentID = nil
		case req.ParentID != nil:
			if err := s.moveCategory(ctx, orgID, c, req.ParentID); err != nil {
				return err
			}
		}
		return s.Categories.Update(ctx, c)
	})
	if err != nil {
		return nil, err
	}
	return c, nil
}

// DeleteCategory removes an empty leaf category
func (s *Service) DeleteCategory(ctx context.Context, orgID, id uuid.UUID) error {
	c, err := s.Categories.FindByID(ctx, orgID, id)
	if err != nil {
		return err
	}
	children, err := s.Categories.HasChildren(ctx, orgID, id)
	if err != nil {
		return err
	}
	docs, err := s.Categories.HasDocuments(ctx, orgID, id)
	if err != nil {
		return err
	}
	if children || docs {
		return shared.Errorf(shared.ErrInvalidState, "category %s is not empty", c.Name)
	}
	return s.Categories.Delete(ctx, orgID, id)
}

func (s *Service) moveCategory(ctx context.Context, orgID uuid.UUID, c *document.Category, parentID *uuid.UUID) error {
	if parentID != nil {
		if _, err := s.Categories.FindByID(ctx, orgID, *parentID); err != nil {
			return shared.AsReference(err, "parent category")
		}
	}
	return c.MoveTo(ctx, parentID, func(ctx context.Context, id uuid.UUID) (*uuid.UUID, error) {
		return s.Categories.ParentOf(ctx, orgID, id)
	})
}

// RequestUpload records a pending document and returns the URL to PUT it to
func (s *Service) RequestUpload(ctx context.Context, orgID uuid.UUID, req UploadRequest) (*UploadTicket, error) {
	if req.CategoryID != nil {
		if _, err := s.Categories.FindByID(ctx, orgID, *req.CategoryID); err != nil {
			return nil, shared.AsReference(err, "category")
		}
	}
	d, err := document.NewDocument(orgID, req.owner(), req.CategoryID, req.Title, req.Description, req.info())
	if err != nil {
		return nil, err
	}
	d.CreatedBy = shared.ActorFrom(ctx)
	return s.ticket(ctx, d, s.Documents.Create)
}

// NewVersion starts the upload of the next version of a document
func (s *Service) NewVersion(ctx context.Context, orgID, id uuid.UUID, req VersionRequest) (*UploadTicket, error) {
	var next *document.Document
	err := s.Tx.InTx(ctx, func(ctx context.Context) error {
		cur, err := s.Documents.FindForUpdate(ctx, orgID, id)
		if err != nil {
			return err
		}
		pending, err := s.Documents.Successor(ctx, orgID, cur.ID)
		switch {
		case err == nil:
			return shared.Errorf(shared.ErrInvalidState, "version %d of %q is still being uploaded", pending.Version, cur.Title)
		case !errors.Is(err, shared.ErrNotFound):
			return err
		}
		if next, err = cur.NextVersion(req.info()); err != nil {
			return err
		}
		next.CreatedBy = shared.ActorFrom(ctx)
		return s.Documents.Create(ctx, next)
	})
	if err != nil {
		return nil, err
	}
	return s.ticket(ctx, next, nil)
}

func (s *Service) ticket(ctx context.Context, d *document.Document, create func(context.Context, *document.Document) error) (*UploadTicket, error) {
	url, expires, err := s.Storage.GenerateUploadURL(ctx, d.StorageKey, d.MimeType, s.URLExpiry)
	if err != nil {
		return nil, err
	}
	if create != nil {
		if err := create(ctx, d); err != nil {
			return nil, err
		}
	}
	return &UploadTicket{Document: d, UploadURL: url, ExpiresAt: expires}, nil
}

// ConfirmUpload checks that the object arrived and publishes the version.
// A confirmed successor replaces its parent as the latest version.
func (s *Service) ConfirmUpload(ctx context.Context, orgID, id uuid.UUID, req ConfirmRequest) (*document.Document, error) {
	var d *document.Document
	err := s.Tx.InTx(ctx, func(ctx context.Context) error {
		var err error
		if d, err = s.Documents.FindForUpdate(ctx, orgID, id); err != nil {
			return err
		}
		exists, err := s.Storage.ObjectExists(ctx, d.StorageKey)
		if err != nil {
			return err
		}
		if !exists {
			return shared.Errorf(shared.ErrInvalidState, "no object has been uploaded for %s", d.FileName)
		}
		if err := d.ConfirmUpload(req.Checksum, shared.ActorFrom(ctx)); err != nil {
			return err
		}
		if d.ParentID != nil {
			prev, err := s.Documents.FindForUpdate(ctx, orgID, *d.ParentID)
			if err != nil {
				return err
			}
			prev.IsLatest = false
			if err := s.Documents.Update(ctx, prev); err != nil {
				return err
			}
		}
		return s.Documents.Update(ctx, d)
	})
	if err != nil {
		return nil, err
	}
	logger.L(ctx).Info("document uploaded",
		zap.String("document_id", d.ID.String()),
		zap.Int("version", d.Version),
		zap.String("owner_kind", string(d.OwnerKind)))
	return d, nil
}

// DownloadURL returns a presigned GET URL for an uploaded document
func (s *Service) DownloadURL(ctx context.Context, orgID, id uuid.UUID) (*DownloadLink, error) {
	d, err := s.Documents.FindByID(ctx, orgID, id)
	if err != nil {
		return nil, err
	}
	if err := d.Downloadable(); err != nil {
		return nil, err
	}
	url, expires, err := s.Storage.GenerateDownloadURL(ctx, d.StorageKey, s.URLExpiry)
	if err != nil {
		return nil, err
	}
	return &DownloadLink{URL: url, FileName: d.FileName, ExpiresAt: expires}, nil
}

// GetDocument returns one document version
func (s *Service) GetDocument(ctx context.Context, orgID, id uuid.UUID) (*document.Document, error) {
	return s.Documents.FindByID(ctx, orgID, id)
}

// ListDocuments returns a page of document versions
func (s *Service) ListDocuments(ctx context.Context, orgID uuid.UUID, filter shared.Filter) (shared.Paginated[document.Document], error) {
	items, total, err := s.Documents.List(ctx, orgID, filter)
	if err != nil {
		return shared.Paginated[document.Document]{}, err
	}
	return page(items, total, filter), nil
}

// ListByOwner returns the latest version of every document of an owner
func (s *Service) ListByOwner(ctx context.Context, orgID uuid.UUID, owner document.Owner, filter shared.Filter) (shared.Paginated[document.Document], error) {
	if err := owner.Validate(); err != nil {
		return shared.Paginated[document.Document]{}, err
	}
	filter = filter.With("owner_kind", string(owner.Kind)).With("is_latest", true)
	if col := owner.Kind.Column(); col != "" {
		filter = filter.With(col, owner.ID)
	}
	return s.ListDocuments(ctx, orgID, filter)
}

// Versions returns every version of the document id belongs to, oldest first
func (s *Service) Versions(ctx context.Context, orgID, id uuid.UUID) ([]document.Document, error) {
	root, err := s.Documents.FindByID(ctx, orgID, id)
	if err != nil {
		return nil, err
	}
	for root.ParentID != nil {
		parent, err := s.Documents.FindByID(ctx, orgID, *root.ParentID)
		if errors.Is(err, shared.ErrNotFound) {
			break
		}
		if err != nil {
			return nil, err
		}
		root = parent
	}
	chain := []document.Document{*root}
	for cur := root; ; {
		next, err := s.Documents.Successor(ctx, orgID, cur.ID)
		if errors.Is(err, shared.ErrNotFound) {
			return chain, nil
		}
		if err != nil {
			return nil, err
		}
		chain = append(chain, *next)
		cur = next
	}
}

// DeleteDocument removes a document with all its versions and their
// objects. A pending successor is removed on its own.
func (s *Service) DeleteDocument(ctx context.Context, orgID, id uuid.UUID) error {
	d, err := s.Documents.FindByID(ctx, orgID, id)
	if err != nil {
		return err
	}
	victims := []document.Document{*d}
	if d.UploadStatus == document.UploadUploaded || d.ParentID == nil {
		if victims, err = s.Versions(ctx, orgID, id); err != nil {
			return err
		}
	}
	err = s.Tx.InTx(ctx, func(ctx context.Context) error {
		for _, v := range victims {
			if err := s.Documents.Delete(ctx, orgID, v.ID); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	for _, v := range victims {
		s.deleteObject(ctx, v.StorageKey)
	}
	return nil
}

// deleteObject removes a stored object once its row is gone. A failure
// leaves an orphan object, which is logged rather than returned.
func (s *Service) deleteObject(ctx context.Context, key string) {
	if err := s.Storage.DeleteObject(ctx, key); err != nil {
		logger.L(ctx).Warn("failed to delete stored object",
			zap.String("storage_key", key),
			zap.Error(err))
	}
}

// RequestFileUpload records a pending cloud file and returns its upload URL
func (s *Service) RequestFileUpload(ctx context.Context, orgID uuid.UUID, req FileUploadRequest) (*FileTicket, error) {
	f, err := document.NewCloudStorageFile(orgID, req.owner(), s.Storage.GetBucket(), req.info())
	if err != nil {
		return nil, err
	}
	f.CreatedBy = shared.ActorFrom(ctx)
	url, expires, err := s.Storage.GenerateUploadURL(ctx, f.StorageKey, f.MimeType, s.URLExpiry)
	if err != nil {
		return nil, err
	}
	if err := s.Files.Create(ctx, f); err != nil {
		return nil, err
	}
	return &FileTicket{File: f, UploadURL: url, ExpiresAt: expires}, nil
}

// ConfirmFile checks that the object of a cloud file arrived
func (s *Service) ConfirmFile(ctx context.Context, orgID, id uuid.UUID) (*document.CloudStorageFile, error) {
	f, err := s.Files.FindByID(ctx, orgID, id)
	if err != nil {
		return nil, err
	}
	exists, err := s.Storage.ObjectExists(ctx, f.StorageKey)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, shared.Errorf(shared.ErrInvalidState, "no object has been uploaded for %s", f.FileName)
	}
	if err := f.ConfirmUpload(shared.ActorFrom(ctx)); err != nil {
		return nil, err
	}
	if err := s.Files.Update(ctx, f); err != nil {
		return nil, err
	}
	return f, nil
}

// FileDownloadURL returns a presigned GET URL for an uploaded cloud file
func (s *Service) FileDownloadURL(ctx context.Context, orgID, id uuid.UUID) (*DownloadLink, error) {
	f, err := s.Files.FindByID(ctx, orgID, id)
	if err != nil {
		return nil, err
	}
	if f.UploadStatus != document.UploadUploaded {
		return nil, shared.Errorf(shared.ErrInvalidState, "upload of %s has not been confirmed", f.FileName)
	}
	url, expires, err := s.Storage.GenerateDownloadURL(ctx, f.StorageKey, s.URLExpiry)
	if err != nil {
		return nil, err
	}
	return &DownloadLink{URL: url, FileName: f.FileName, ExpiresAt: expires}, nil
}

// GetFile returns one cloud file
func (s *Service) GetFile(ctx context.Context, orgID, id uuid.UUID) (*document.CloudStorageFile, error) {
	return s.Files.FindByID(ctx, orgID, id)
}

// ListFiles returns a page of cloud files
func (s *Service) ListFiles(ctx context.Context, orgID uuid.UUID, filter shared.Filter) (shared.Paginated[document.CloudStorageFile], error) {
	items, total, err := s.Files.List(ctx, orgID, filter)
	if err != nil {
		return shared.Paginated[document.CloudStorageFile]{}, err
	}
	return page(items, total, filter), nil
}

// DeleteFile removes a cloud file and its object
func (s *Service) DeleteFile(ctx context.Context, orgID, id uuid.UUID) error {
	f, err := s.Files.FindByID(ctx, orgID, id)
	if err != nil {
		return err
	}
	if err := s.Files.Delete(ctx, orgID, id); err != nil {
		return err
	}
	s.deleteObject(ctx, f.StorageKey)
	return nil
}

func page[T any](items []T, total int64, filter shared.Filter) shared.Paginated[T] {
	filter = filter.Normalize()
	return shared.NewPaginated(items, total, filter.Page, filter.PageSize)
}
