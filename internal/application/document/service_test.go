package document_test

import (
	"context"
	"strings"
	"testing"

	appdocument "github.com/drymix/erp/internal/application/document"
	"github.com/drymix/erp/internal/domain/document"
	"github.com/drymix/erp/internal/domain/shared"
	"github.com/drymix/erp/internal/infrastructure/persistence"
	"github.com/drymix/erp/internal/infrastructure/storage"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

const sum = "9f86d081884c7d659a2feaa0c55ad015a3bf4f1b2b0b822cd15d6c15b0f00a08"

type fixture struct {
	svc   *appdocument.Service
	store *storage.MemoryObjectStorage
	orgID uuid.UUID
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, db.AutoMigrate(&document.Category{}, &document.Document{}, &document.CloudStorageFile{}))

	f := &fixture{store: storage.NewMemoryObjectStorage(), orgID: uuid.New()}
	f.svc = appdocument.NewService(appdocument.Deps{
		Categories: persistence.NewGormDocumentCategoryRepository(db),
		Documents:  persistence.NewGormDocumentRepository(db),
		Files:      persistence.NewGormCloudFileRepository(db),
		Storage:    f.store,
		Tx:         persistence.NewGormTxManager(db),
	})
	return f
}

func (f *fixture) put(t *testing.T, key string) {
	t.Helper()
	require.NoError(t, f.store.Upload(context.Background(), key, []byte("content"), "application/pdf"))
}

func (f *fixture) upload(t *testing.T, owner appdocument.OwnerRequest, title string) *document.Document {
	t.Helper()
	ctx := context.Background()
	ticket, err := f.svc.RequestUpload(ctx, f.orgID, appdocument.UploadRequest{
		OwnerRequest: owner,
		FileRequest:  appdocument.FileRequest{FileName: title + ".pdf", MimeType: "application/pdf", SizeBytes: 1024},
		Title:        title,
	})
	require.NoError(t, err)
	f.put(t, ticket.Document.StorageKey)
	d, err := f.svc.ConfirmUpload(ctx, f.orgID, ticket.Document.ID, appdocument.ConfirmRequest{})
	require.NoError(t, err)
	return d
}

func TestUploadAndVersions(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	project := uuid.New()
	owner := appdocument.OwnerRequest{OwnerKind: "project", OwnerID: project}

	ticket, err := f.svc.RequestUpload(ctx, f.orgID, appdocument.UploadRequest{
		OwnerRequest: owner,
		FileRequest:  appdocument.FileRequest{FileName: "../site plan.pdf", MimeType: "application/pdf", SizeBytes: 2048},
		Title:        "Site plan",
	})
	require.NoError(t, err)
	assert.Contains(t, ticket.UploadURL, ticket.Document.StorageKey)
	assert.True(t, strings.HasSuffix(ticket.Document.StorageKey, "/site_plan.pdf"))
	assert.Equal(t, document.UploadPending, ticket.Document.UploadStatus)

	_, err = f.svc.DownloadURL(ctx, f.orgID, ticket.Document.ID)
	assert.Equal(t, shared.CodeInvalidState, shared.ErrorCode(err))

	_, err = f.svc.ConfirmUpload(ctx, f.orgID, ticket.Document.ID, appdocument.ConfirmRequest{})
	assert.Equal(t, shared.CodeInvalidState, shared.ErrorCode(err), "object not uploaded yet")

	f.put(t, ticket.Document.StorageKey)
	v1, err := f.svc.ConfirmUpload(ctx, f.orgID, ticket.Document.ID, appdocument.ConfirmRequest{Checksum: sum})
	require.NoError(t, err)
	assert.Equal(t, document.UploadUploaded, v1.UploadStatus)
	assert.Equal(t, sum, v1.Checksum)

	link, err := f.svc.DownloadURL(ctx, f.orgID, v1.ID)
	require.NoError(t, err)
	assert.Equal(t, "../site plan.pdf", link.FileName)

	next, err := f.svc.NewVersion(ctx, f.orgID, v1.ID, appdocument.VersionRequest{
		FileRequest: appdocument.FileRequest{FileName: "site-plan-rev2.pdf", MimeType: "application/pdf", SizeBytes: 4096},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, next.Document.Version)
	assert.False(t, next.Document.IsLatest)

	_, err = f.svc.NewVersion(ctx, f.orgID, v1.ID, appdocument.VersionRequest{
		FileRequest: appdocument.FileRequest{FileName: "other.pdf", MimeType: "application/pdf"},
	})
	assert.Equal(t, shared.CodeInvalidState, shared.ErrorCode(err), "a version is pending")

	listed, err := f.svc.ListByOwner(ctx, f.orgID, document.Owner{Kind: document.OwnerProject, ID: project}, shared.Filter{})
	require.NoError(t, err)
	require.Len(t, listed.Items, 1)
	assert.Equal(t, v1.ID, listed.Items[0].ID, "pending version stays hidden")

	f.put(t, next.Document.StorageKey)
	v2, err := f.svc.ConfirmUpload(ctx, f.orgID, next.Document.ID, appdocument.ConfirmRequest{})
	require.NoError(t, err)
	assert.True(t, v2.IsLatest)

	old, err := f.svc.GetDocument(ctx, f.orgID, v1.ID)
	require.NoError(t, err)
	assert.False(t, old.IsLatest)

	listed, err = f.svc.ListByOwner(ctx, f.orgID, document.Owner{Kind: document.OwnerProject, ID: project}, shared.Filter{})
	require.NoError(t, err)
	require.Len(t, listed.Items, 1)
	assert.Equal(t, v2.ID, listed.Items[0].ID)

	_, err = f.svc.NewVersion(ctx, f.orgID, v1.ID, appdocument.VersionRequest{
		FileRequest: appdocument.FileRequest{FileName: "x.pdf", MimeType: "application/pdf"},
	})
	assert.Equal(t, shared.CodeInvalidState, shared.ErrorCode(err), "only the latest version is revised")

	versions, err := f.svc.Versions(ctx, f.orgID, v2.ID)
	require.NoError(t, err)
	require.Len(t, versions, 2)
	assert.Equal(t, 1, versions[0].Version)
	assert.Equal(t, 2, versions[1].Version)

	require.NoError(t, f.svc.DeleteDocument(ctx, f.orgID, v1.ID))
	_, err = f.svc.GetDocument(ctx, f.orgID, v2.ID)
	assert.Equal(t, shared.CodeNotFound, shared.ErrorCode(err))
	for _, v := range versions {
		ok, _ := f.store.ObjectExists(ctx, v.StorageKey)
		assert.False(t, ok)
	}
}

func TestOwners(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.RequestUpload(ctx, f.orgID, appdocument.UploadRequest{
		OwnerRequest: appdocument.OwnerRequest{OwnerKind: "customer"},
		FileRequest:  appdocument.FileRequest{FileName: "a.pdf", MimeType: "application/pdf"},
		Title:        "Contract",
	})
	assert.Equal(t, shared.CodeValidation, shared.ErrorCode(err), "customer documents need an owner id")

	org := f.upload(t, appdocument.OwnerRequest{OwnerKind: "organization"}, "Handbook")
	customer := uuid.New()
	f.upload(t, appdocument.OwnerRequest{OwnerKind: "customer", OwnerID: customer}, "Contract")

	listed, err := f.svc.ListByOwner(ctx, f.orgID, document.Owner{Kind: document.OwnerOrganization}, shared.Filter{})
	require.NoError(t, err)
	require.Len(t, listed.Items, 1)
	assert.Equal(t, org.ID, listed.Items[0].ID)

	listed, err = f.svc.ListByOwner(ctx, f.orgID, document.Owner{Kind: document.OwnerCustomer, ID: uuid.New()}, shared.Filter{})
	require.NoError(t, err)
	assert.Empty(t, listed.Items)
}

func TestCategories(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	root, err := f.svc.CreateCategory(ctx, f.orgID, appdocument.CategoryRequest{Name: "Projects"})
	require.NoError(t, err)
	child, err := f.svc.CreateCategory(ctx, f.orgID, appdocument.CategoryRequest{Name: "Drawings", ParentID: &root.ID})
	require.NoError(t, err)

	_, err = f.svc.UpdateCategory(ctx, f.orgID, root.ID, appdocument.CategoryRequest{Name: "Projects", ParentID: &child.ID})
	assert.Equal(t, shared.CodeCycleDetected, shared.ErrorCode(err))

	missing := uuid.New()
	_, err = f.svc.CreateCategory(ctx, f.orgID, appdocument.CategoryRequest{Name: "Lost", ParentID: &missing})
	assert.Equal(t, shared.CodeInvalidReference, shared.ErrorCode(err))

	tree, err := f.svc.CategoryTree(ctx, f.orgID)
	require.NoError(t, err)
	require.Len(t, tree, 1)
	require.Len(t, tree[0].Children, 1)

	assert.Equal(t, shared.CodeInvalidState, shared.ErrorCode(f.svc.DeleteCategory(ctx, f.orgID, root.ID)))

	ticket, err := f.svc.RequestUpload(ctx, f.orgID, appdocument.UploadRequest{
		OwnerRequest: appdocument.OwnerRequest{OwnerKind: "organization"},
		FileRequest:  appdocument.FileRequest{FileName: "gf.dwg", MimeType: "application/acad"},
		Title:        "Ground floor",
		CategoryID:   &child.ID,
	})
	require.NoError(t, err)
	assert.Equal(t, shared.CodeInvalidState, shared.ErrorCode(f.svc.DeleteCategory(ctx, f.orgID, child.ID)))

	require.NoError(t, f.svc.DeleteDocument(ctx, f.orgID, ticket.Document.ID))
	require.NoError(t, f.svc.DeleteCategory(ctx, f.orgID, child.ID))

	moved, err := f.svc.UpdateCategory(ctx, f.orgID, root.ID, appdocument.CategoryRequest{Name: "All projects", MoveToRoot: true})
	require.NoError(t, err)
	assert.Equal(t, "All projects", moved.Name)
}

func TestCloudFiles(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := appdocument.OwnerRequest{OwnerKind: "employee", OwnerID: uuid.New()}

	_, err := f.svc.RequestFileUpload(ctx, f.orgID, appdocument.FileUploadRequest{
		OwnerRequest: owner,
		FileRequest:  appdocument.FileRequest{FileName: "id.png", MimeType: "image/png", SizeBytes: 10},
	})
	assert.Equal(t, shared.CodeValidation, shared.ErrorCode(err), "checksum is required")

	ticket, err := f.svc.RequestFileUpload(ctx, f.orgID, appdocument.FileUploadRequest{
		OwnerRequest: owner,
		FileRequest:  appdocument.FileRequest{FileName: "id.png", MimeType: "image/png", SizeBytes: 10, Checksum: sum},
	})
	require.NoError(t, err)
	assert.Equal(t, "memory", ticket.File.Bucket)
	assert.True(t, strings.HasPrefix(ticket.File.StorageKey, "files/"))

	_, err = f.svc.FileDownloadURL(ctx, f.orgID, ticket.File.ID)
	assert.Equal(t, shared.CodeInvalidState, shared.ErrorCode(err))
	_, err = f.svc.ConfirmFile(ctx, f.orgID, ticket.File.ID)
	assert.Equal(t, shared.CodeInvalidState, shared.ErrorCode(err))

	f.put(t, ticket.File.StorageKey)
	file, err := f.svc.ConfirmFile(ctx, f.orgID, ticket.File.ID)
	require.NoError(t, err)
	assert.Equal(t, document.UploadUploaded, file.UploadStatus)
	_, err = f.svc.ConfirmFile(ctx, f.orgID, ticket.File.ID)
	assert.Equal(t, shared.CodeInvalidState, shared.ErrorCode(err))

	link, err := f.svc.FileDownloadURL(ctx, f.orgID, file.ID)
	require.NoError(t, err)
	assert.Contains(t, link.URL, "/download/")

	require.NoError(t, f.svc.DeleteFile(ctx, f.orgID, file.ID))
	ok, _ := f.store.ObjectExists(ctx, file.StorageKey)
	assert.False(t, ok)
}
