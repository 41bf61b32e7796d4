package persistence

import (
	"context"
	"errors"
	"testing"

	"github.com/drymix/erp/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type widget struct {
	shared.TenantAggregateRoot
	Code   string          `gorm:"size:50;not null;uniqueIndex:idx_widgets_org_code"`
	Name   string          `gorm:"size:200;not null"`
	Status string          `gorm:"size:20;not null"`
	Price  decimal.Decimal `gorm:"type:numeric(18,4)"`
}

func (widget) TableName() string { return "widgets" }

type widgetLog struct {
	shared.TenantEntity
	Note string
}

func (widgetLog) TableName() string { return "widget_logs" }

func newWidget(orgID uuid.UUID, code, name string) *widget {
	return &widget{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(orgID),
		Code:                code,
		Name:                name,
		Status:              "active",
		Price:               decimal.NewFromInt(10),
	}
}

func newWidgetRepo(t *testing.T) *GormRepository[widget] {
	db := newTestDB(t, &widget{}, &widgetLog{})
	return NewGormRepository[widget](db, ListOptions{
		SearchColumns: []string{"code", "name"},
		FilterColumns: Fields("status"),
		SortFields:    Fields("code", "name"),
	})
}

func TestGormRepository_CRUD(t *testing.T) {
	repo := newWidgetRepo(t)
	ctx := context.Background()
	orgID := uuid.New()

	w := newWidget(orgID, "W-1", "Tile adhesive")
	require.NoError(t, repo.Create(ctx, w))

	t.Run("find within organization", func(t *testing.T) {
		found, err := repo.FindByID(ctx, orgID, w.ID)
		require.NoError(t, err)
		assert.Equal(t, "W-1", found.Code)
		assert.True(t, found.Price.Equal(decimal.NewFromInt(10)))
	})

	t.Run("other organizations cannot see it", func(t *testing.T) {
		_, err := repo.FindByID(ctx, uuid.New(), w.ID)
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})

	t.Run("duplicate code is rejected", func(t *testing.T) {
		err := repo.Create(ctx, newWidget(orgID, "W-1", "Copy"))
		assert.ErrorIs(t, err, shared.ErrAlreadyExists)
	})

	t.Run("update bumps version", func(t *testing.T) {
		found, err := repo.FindByID(ctx, orgID, w.ID)
		require.NoError(t, err)
		found.Name = "Tile adhesive C2"
		require.NoError(t, repo.Update(ctx, found))
		assert.Equal(t, 2, found.Version)

		again, err := repo.FindByID(ctx, orgID, w.ID)
		require.NoError(t, err)
		assert.Equal(t, "Tile adhesive C2", again.Name)
		assert.Equal(t, 2, again.Version)
	})

	t.Run("stale update is a conflict", func(t *testing.T) {
		stale := *w // still version 1
		stale.Name = "stale"
		err := repo.Update(ctx, &stale)
		assert.ErrorIs(t, err, shared.ErrConcurrencyConflict)
	})

	t.Run("soft delete hides the row", func(t *testing.T) {
		require.NoError(t, repo.Delete(ctx, orgID, w.ID))
		_, err := repo.FindByID(ctx, orgID, w.ID)
		assert.ErrorIs(t, err, shared.ErrNotFound)
		assert.ErrorIs(t, repo.Delete(ctx, orgID, w.ID), shared.ErrNotFound)
	})
}

func TestGormRepository_List(t *testing.T) {
	repo := newWidgetRepo(t)
	ctx := context.Background()
	orgID := uuid.New()

	for _, c := range []struct{ code, name, status string }{
		{"A-1", "Tile adhesive", "active"},
		{"A-2", "Skim coat", "active"},
		{"A-3", "Tile grout", "inactive"},
	} {
		w := newWidget(orgID, c.code, c.name)
		w.Status = c.status
		require.NoError(t, repo.Create(ctx, w))
	}
	require.NoError(t, repo.Create(ctx, newWidget(uuid.New(), "A-9", "Tile elsewhere")))

	t.Run("search is case-insensitive", func(t *testing.T) {
		f := shared.DefaultFilter()
		f.Search = "TILE"
		items, total, err := repo.List(ctx, orgID, f)
		require.NoError(t, err)
		assert.EqualValues(t, 2, total)
		assert.Len(t, items, 2)
	})

	t.Run("filters and sorting", func(t *testing.T) {
		f := shared.DefaultFilter().With("status", "active")
		f.OrderBy, f.OrderDir = "code", "asc"
		items, total, err := repo.List(ctx, orgID, f)
		require.NoError(t, err)
		assert.EqualValues(t, 2, total)
		assert.Equal(t, "A-1", items[0].Code)
		assert.Equal(t, "A-2", items[1].Code)
	})

	t.Run("unknown filter and sort columns are ignored", func(t *testing.T) {
		f := shared.DefaultFilter().With("name; DROP TABLE widgets", "x")
		f.OrderBy = "name; DROP TABLE widgets"
		_, total, err := repo.List(ctx, orgID, f)
		require.NoError(t, err)
		assert.EqualValues(t, 3, total)
	})

	t.Run("paging", func(t *testing.T) {
		f := shared.Filter{Page: 2, PageSize: 2, OrderBy: "code", OrderDir: "asc"}
		items, total, err := repo.List(ctx, orgID, f)
		require.NoError(t, err)
		assert.EqualValues(t, 3, total)
		require.Len(t, items, 1)
		assert.Equal(t, "A-3", items[0].Code)
	})
}

func TestGormRepository_HardDeleteWithoutSoftDelete(t *testing.T) {
	db := newTestDB(t, &widgetLog{})
	repo := NewGormRepository[widgetLog](db, ListOptions{})
	ctx := context.Background()
	orgID := uuid.New()

	l := &widgetLog{TenantEntity: shared.NewTenantEntity(orgID), Note: "x"}
	require.NoError(t, repo.Create(ctx, l))
	require.NoError(t, repo.Delete(ctx, orgID, l.ID))

	var count int64
	require.NoError(t, db.Model(&widgetLog{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestGormTxManager(t *testing.T) {
	db := newTestDB(t, &widget{})
	repo := NewGormRepository[widget](db, ListOptions{})
	tm := NewGormTxManager(db)
	ctx := context.Background()
	orgID := uuid.New()

	t.Run("rollback on error", func(t *testing.T) {
		boom := errors.New("boom")
		err := tm.InTx(ctx, func(ctx context.Context) error {
			require.NoError(t, repo.Create(ctx, newWidget(orgID, "TX-1", "rolled back")))
			return boom
		})
		assert.ErrorIs(t, err, boom)

		ok, err := repo.Exists(ctx, orgID, "code = ?", "TX-1")
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("commit and nesting", func(t *testing.T) {
		err := tm.InTx(ctx, func(ctx context.Context) error {
			if err := repo.Create(ctx, newWidget(orgID, "TX-2", "outer")); err != nil {
				return err
			}
			return tm.InTx(ctx, func(ctx context.Context) error {
				return repo.Create(ctx, newWidget(orgID, "TX-3", "inner"))
			})
		})
		require.NoError(t, err)

		items, err := repo.FindWhere(ctx, orgID, "code IN ?", []string{"TX-2", "TX-3"})
		require.NoError(t, err)
		assert.Len(t, items, 2)
	})
}
