package document

import (
	"context"
	"strings"
	"testing"

	"github.com/drymix/erp/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOwnerValidate(t *testing.T) {
	id := uuid.New()
	tests := []struct {
		name  string
		owner Owner
		ok    bool
	}{
		{"organization", Owner{Kind: OwnerOrganization}, true},
		{"organization with id", Owner{Kind: OwnerOrganization, ID: id}, false},
		{"project", Owner{Kind: OwnerProject, ID: id}, true},
		{"project without id", Owner{Kind: OwnerProject}, false},
		{"unknown kind", Owner{Kind: "vendor", ID: id}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.owner.Validate()
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.Equal(t, shared.CodeValidation, shared.ErrorCode(err))
			}
		})
	}
}

func TestOwnerColumnsRoundTrip(t *testing.T) {
	id := uuid.New()
	for _, kind := range []OwnerKind{OwnerProject, OwnerCustomer, OwnerSupplier, OwnerProduct, OwnerEmployee, OwnerNCR, OwnerQualityDocument} {
		var c OwnerColumns
		c.set(Owner{Kind: kind, ID: id})
		assert.Equal(t, Owner{Kind: kind, ID: id}, c.Owner(), kind)
	}
	var c OwnerColumns
	c.set(Owner{Kind: OwnerOrganization})
	assert.Nil(t, c.ProjectID)
	assert.Equal(t, Owner{Kind: OwnerOrganization}, c.Owner())
}

func TestFileInfoValidate(t *testing.T) {
	good := FileInfo{FileName: "a.pdf", MimeType: "application/pdf", SizeBytes: 1}
	assert.NoError(t, good.Validate(false))
	assert.Error(t, good.Validate(true), "checksum required")

	bad := good
	bad.MimeType = "pdf"
	assert.Error(t, bad.Validate(false))

	bad = good
	bad.SizeBytes = MaxFileSize + 1
	assert.Error(t, bad.Validate(false))

	bad = good
	bad.Checksum = strings.Repeat("z", 64)
	assert.Error(t, bad.Validate(false))
}

func TestStorageKey(t *testing.T) {
	org, id := uuid.New(), uuid.New()
	assert.Equal(t, "documents/"+org.String()+"/"+id.String()+"/passwd", StorageKey("documents", org, id, "../../etc/passwd"))
	assert.True(t, strings.HasSuffix(StorageKey("files", org, id, `C:\scans\Bill of qty.xlsx`), "/Bill_of_qty.xlsx"))
	assert.True(t, strings.HasSuffix(StorageKey("files", org, id, ".."), "/file"))
}

func TestDocumentVersioning(t *testing.T) {
	org := uuid.New()
	d, err := NewDocument(org, Owner{Kind: OwnerOrganization}, nil, "Policy", "", FileInfo{FileName: "p.pdf", MimeType: "application/pdf"})
	require.NoError(t, err)
	assert.Equal(t, 1, d.Version)
	assert.Error(t, d.Downloadable())

	_, err = d.NextVersion(FileInfo{FileName: "p2.pdf", MimeType: "application/pdf"})
	assert.Equal(t, shared.CodeInvalidState, shared.ErrorCode(err), "pending upload cannot be revised")

	by := uuid.New()
	require.NoError(t, d.ConfirmUpload("", &by))
	assert.NoError(t, d.Downloadable())
	assert.Equal(t, shared.CodeInvalidState, shared.ErrorCode(d.ConfirmUpload("", &by)))

	next, err := d.NextVersion(FileInfo{FileName: "p2.pdf", MimeType: "application/pdf"})
	require.NoError(t, err)
	assert.Equal(t, 2, next.Version)
	assert.Equal(t, d.ID, *next.ParentID)
	assert.False(t, next.IsLatest)
	assert.NotEqual(t, d.StorageKey, next.StorageKey)

	assert.Error(t, next.ConfirmUpload("nothex", nil))
	require.NoError(t, next.ConfirmUpload("", nil))
	assert.True(t, next.IsLatest)
}

func TestCategoryMove(t *testing.T) {
	org := uuid.New()
	a, _ := NewCategory(org, "A", "")
	b, _ := NewCategory(org, "B", "")
	parents := map[uuid.UUID]*uuid.UUID{b.ID: &a.ID}
	lookup := func(_ context.Context, id uuid.UUID) (*uuid.UUID, error) { return parents[id], nil }

	err := a.MoveTo(context.Background(), &b.ID, lookup)
	assert.Equal(t, shared.CodeCycleDetected, shared.ErrorCode(err))

	_, err = NewCategory(org, "", "")
	assert.Error(t, err)

	b.ParentID = &a.ID
	tree := CategoryTree([]Category{*a, *b})
	require.Len(t, tree, 1)
	assert.Equal(t, "B", tree[0].Children[0].Item.Name)
}
