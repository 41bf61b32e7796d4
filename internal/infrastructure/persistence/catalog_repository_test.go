package persistence

import (
	"context"
	"testing"

	"github.com/drymix/erp/internal/domain/catalog"
	"github.com/drymix/erp/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newProduct(t *testing.T, orgID uuid.UUID, code, name string) *catalog.Product {
	t.Helper()
	strength := decimal.NewFromInt(25)
	p, err := catalog.NewProduct(orgID, code, catalog.ProductDetails{
		Name:           name,
		ProductType:    catalog.ProductTypeFinishedGood,
		Unit:           "bag",
		PackSize:       decimal.NewFromInt(25),
		SellingPrice:   decimal.NewFromInt(10),
		Specifications: &catalog.Specifications{SchemaVersion: 1, CompressiveStrengthMPa: &strength},
	})
	require.NoError(t, err)
	return p
}

func TestGormProductRepository(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t, &catalog.Category{}, &catalog.Product{})
	repo := NewGormProductRepository(db)
	orgID, otherOrg := uuid.New(), uuid.New()

	adhesive := newProduct(t, orgID, "TA-01", "Tile Adhesive")
	grout := newProduct(t, orgID, "GR-01", "Grout")
	foreign := newProduct(t, otherOrg, "TA-01", "Tile Adhesive")
	for _, p := range []*catalog.Product{adhesive, grout, foreign} {
		require.NoError(t, repo.Create(ctx, p))
	}

	t.Run("tenant scoped lookups", func(t *testing.T) {
		found, err := repo.FindByCode(ctx, orgID, "TA-01")
		require.NoError(t, err)
		assert.Equal(t, adhesive.ID, found.ID)
		require.NotNil(t, found.Specs())
		assert.True(t, found.Specs().CompressiveStrengthMPa.Equal(decimal.NewFromInt(25)))

		_, err = repo.FindByID(ctx, otherOrg, adhesive.ID)
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})

	t.Run("search and filter", func(t *testing.T) {
		f := shared.DefaultFilter()
		f.Search = "adhesive"
		items, total, err := repo.List(ctx, orgID, f)
		require.NoError(t, err)
		assert.Equal(t, int64(1), total)
		assert.Equal(t, adhesive.ID, items[0].ID)

		items, total, err = repo.List(ctx, orgID, shared.DefaultFilter().With("status", "inactive"))
		require.NoError(t, err)
		assert.Zero(t, total)
		assert.Empty(t, items)
	})

	t.Run("optimistic update", func(t *testing.T) {
		a, err := repo.FindByID(ctx, orgID, grout.ID)
		require.NoError(t, err)
		b, err := repo.FindByID(ctx, orgID, grout.ID)
		require.NoError(t, err)

		require.NoError(t, a.ChangeStatus(catalog.ProductStatusInactive))
		require.NoError(t, repo.Update(ctx, a))
		assert.Equal(t, 2, a.Version)

		require.NoError(t, b.ChangeStatus(catalog.ProductStatusDiscontinued))
		assert.ErrorIs(t, repo.Update(ctx, b), shared.ErrConcurrencyConflict)
	})

	t.Run("soft delete hides the row", func(t *testing.T) {
		require.NoError(t, repo.Delete(ctx, orgID, grout.ID))
		exists, err := repo.CodeExists(ctx, orgID, "GR-01")
		require.NoError(t, err)
		assert.False(t, exists)
		assert.ErrorIs(t, repo.Delete(ctx, orgID, grout.ID), shared.ErrNotFound)
	})
}

func TestGormCategoryRepository(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t, &catalog.Category{}, &catalog.Product{})
	repo := NewGormCategoryRepository(db)
	orgID := uuid.New()

	root, err := catalog.NewCategory(orgID, "MORTAR", "Mortars", nil)
	require.NoError(t, err)
	child, err := catalog.NewCategory(orgID, "REPAIR", "Repair", &root.ID)
	require.NoError(t, err)
	require.NoError(t, repo.Create(ctx, root))
	require.NoError(t, repo.Create(ctx, child))

	parent, err := repo.ParentOf(ctx, orgID, child.ID)
	require.NoError(t, err)
	require.NotNil(t, parent)
	assert.Equal(t, root.ID, *parent)

	parent, err = repo.ParentOf(ctx, orgID, root.ID)
	require.NoError(t, err)
	assert.Nil(t, parent)

	has, err := repo.HasChildren(ctx, orgID, root.ID)
	require.NoError(t, err)
	assert.True(t, has)

	all, err := repo.FindAll(ctx, orgID)
	require.NoError(t, err)
	tree := catalog.CategoryTree(all)
	require.Len(t, tree, 1)
	assert.Len(t, tree[0].Children, 1)
}
