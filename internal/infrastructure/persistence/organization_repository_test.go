package persistence

import (
	"context"
	"testing"

	"github.com/drymix/erp/internal/domain/organization"
	"github.com/drymix/erp/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newOrganizationDB(t *testing.T) *gorm.DB {
	db := newTestDB(t, &organization.Organization{}, &organization.SystemSetting{},
		&organization.FeatureToggle{}, &organization.ThemeSettings{})
	require.NoError(t, db.Exec("CREATE UNIQUE INDEX unique_system_settings_org_key ON system_settings (organization_id, setting_key)").Error)
	require.NoError(t, db.Exec("CREATE UNIQUE INDEX unique_feature_toggles_org_key ON feature_toggles (organization_id, toggle_key)").Error)
	require.NoError(t, db.Exec("CREATE UNIQUE INDEX unique_theme_settings_org ON theme_settings (organization_id)").Error)
	return db
}

func TestGormOrganizationRepository(t *testing.T) {
	ctx := context.Background()
	db := newOrganizationDB(t)
	repo := NewGormOrganizationRepository(db)

	org, err := organization.NewOrganization("Acme Dry Mix", "usd", "UTC")
	require.NoError(t, err)
	require.NoError(t, repo.Create(ctx, org))

	t.Run("find by slug", func(t *testing.T) {
		found, err := repo.FindBySlug(ctx, "acme-dry-mix")
		require.NoError(t, err)
		assert.Equal(t, org.ID, found.ID)
		assert.Equal(t, "USD", found.Currency)
		assert.Equal(t, 30, found.Settings.Data().DefaultPaymentTermsDays)
	})

	t.Run("slug exists", func(t *testing.T) {
		taken, err := repo.SlugExists(ctx, "acme-dry-mix")
		require.NoError(t, err)
		assert.True(t, taken)
		taken, err = repo.SlugExists(ctx, "other")
		require.NoError(t, err)
		assert.False(t, taken)
	})

	t.Run("update detects stale version", func(t *testing.T) {
		a, err := repo.FindByID(ctx, org.ID)
		require.NoError(t, err)
		b, err := repo.FindByID(ctx, org.ID)
		require.NoError(t, err)

		a.Name = "Acme Mortars"
		require.NoError(t, repo.Update(ctx, a))
		b.Name = "Acme Plasters"
		assert.ErrorIs(t, repo.Update(ctx, b), shared.ErrConcurrencyConflict)
	})

	t.Run("list searches name", func(t *testing.T) {
		other, err := organization.NewOrganization("Beta Tiles", "", "")
		require.NoError(t, err)
		require.NoError(t, repo.Create(ctx, other))

		items, total, err := repo.List(ctx, shared.Filter{Search: "beta"})
		require.NoError(t, err)
		assert.EqualValues(t, 1, total)
		assert.Equal(t, "beta-tiles", items[0].Slug)
	})

	t.Run("delete", func(t *testing.T) {
		require.NoError(t, repo.Delete(ctx, org.ID))
		_, err := repo.FindByID(ctx, org.ID)
		assert.ErrorIs(t, err, shared.ErrNotFound)
		assert.ErrorIs(t, repo.Delete(ctx, org.ID), shared.ErrNotFound)
	})
}

func TestGormSettingRepository_Upsert(t *testing.T) {
	ctx := context.Background()
	db := newOrganizationDB(t)
	repo := NewGormSettingRepository(db)
	org, _ := organization.NewOrganization("Acme", "", "")

	text := "A4"
	s1, err := organization.NewSystemSetting(org.ID, "print.paper", "printing",
		organization.SettingValue{Kind: organization.KindString, String: &text})
	require.NoError(t, err)
	require.NoError(t, repo.Upsert(ctx, s1))

	text2 := "Letter"
	s2, err := organization.NewSystemSetting(org.ID, "print.paper", "printing",
		organization.SettingValue{Kind: organization.KindString, String: &text2})
	require.NoError(t, err)
	require.NoError(t, repo.Upsert(ctx, s2))

	got, err := repo.Get(ctx, org.ID, "print.paper")
	require.NoError(t, err)
	assert.Equal(t, "Letter", got.Value.Data().Display())

	list, err := repo.List(ctx, org.ID, "printing")
	require.NoError(t, err)
	assert.Len(t, list, 1)

	require.NoError(t, repo.Delete(ctx, org.ID, "print.paper"))
	assert.ErrorIs(t, repo.Delete(ctx, org.ID, "print.paper"), shared.ErrNotFound)
}

func TestGormToggleAndThemeRepository(t *testing.T) {
	ctx := context.Background()
	db := newOrganizationDB(t)
	toggles := NewGormToggleRepository(db)
	themes := NewGormThemeRepository(db)
	org, _ := organization.NewOrganization("Acme", "", "")

	toggle, err := organization.NewFeatureToggle(org.ID, "plant.telemetry", true, 100)
	require.NoError(t, err)
	require.NoError(t, toggles.Upsert(ctx, toggle))
	toggle2, _ := organization.NewFeatureToggle(org.ID, "plant.telemetry", false, 50)
	require.NoError(t, toggles.Upsert(ctx, toggle2))

	got, err := toggles.Get(ctx, org.ID, "plant.telemetry")
	require.NoError(t, err)
	assert.False(t, got.Enabled)
	assert.Equal(t, 50, got.RolloutPercentage)

	theme := organization.DefaultTheme(org.ID)
	require.NoError(t, themes.Upsert(ctx, theme))
	theme2 := organization.DefaultTheme(org.ID)
	theme2.PrimaryColor = "#000000"
	require.NoError(t, themes.Upsert(ctx, theme2))

	saved, err := themes.Get(ctx, org.ID)
	require.NoError(t, err)
	assert.Equal(t, "#000000", saved.PrimaryColor)
}
