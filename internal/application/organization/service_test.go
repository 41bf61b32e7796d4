package organization

import (
	"context"
	"testing"

	"github.com/drymix/erp/internal/domain/organization"
	"github.com/drymix/erp/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockOrgRepo struct{ mock.Mock }

func (m *mockOrgRepo) FindByID(ctx context.Context, id uuid.UUID) (*organization.Organization, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*organization.Organization), args.Error(1)
}

func (m *mockOrgRepo) FindBySlug(ctx context.Context, slug string) (*organization.Organization, error) {
	args := m.Called(ctx, slug)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*organization.Organization), args.Error(1)
}

func (m *mockOrgRepo) SlugExists(ctx context.Context, slug string) (bool, error) {
	args := m.Called(ctx, slug)
	return args.Bool(0), args.Error(1)
}

func (m *mockOrgRepo) List(ctx context.Context, filter shared.Filter) ([]organization.Organization, int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]organization.Organization), args.Get(1).(int64), args.Error(2)
}

func (m *mockOrgRepo) Create(ctx context.Context, org *organization.Organization) error {
	return m.Called(ctx, org).Error(0)
}

func (m *mockOrgRepo) Update(ctx context.Context, org *organization.Organization) error {
	return m.Called(ctx, org).Error(0)
}

func (m *mockOrgRepo) Delete(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

type mockToggleRepo struct{ mock.Mock }

func (m *mockToggleRepo) Get(ctx context.Context, orgID uuid.UUID, key string) (*organization.FeatureToggle, error) {
	args := m.Called(ctx, orgID, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*organization.FeatureToggle), args.Error(1)
}

func (m *mockToggleRepo) List(ctx context.Context, orgID uuid.UUID) ([]organization.FeatureToggle, error) {
	args := m.Called(ctx, orgID)
	return args.Get(0).([]organization.FeatureToggle), args.Error(1)
}

func (m *mockToggleRepo) Upsert(ctx context.Context, t *organization.FeatureToggle) error {
	return m.Called(ctx, t).Error(0)
}

func (m *mockToggleRepo) Delete(ctx context.Context, orgID uuid.UUID, key string) error {
	return m.Called(ctx, orgID, key).Error(0)
}

type mockThemeRepo struct{ mock.Mock }

func (m *mockThemeRepo) Get(ctx context.Context, orgID uuid.UUID) (*organization.ThemeSettings, error) {
	args := m.Called(ctx, orgID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*organization.ThemeSettings), args.Error(1)
}

func (m *mockThemeRepo) Upsert(ctx context.Context, t *organization.ThemeSettings) error {
	return m.Called(ctx, t).Error(0)
}

// memoryToggleCache is a map-backed ToggleCache
type memoryToggleCache struct {
	entries map[string]*organization.FeatureToggle
}

func (c *memoryToggleCache) Get(_ context.Context, orgID uuid.UUID, key string) (*organization.FeatureToggle, bool, error) {
	t, ok := c.entries[orgID.String()+key]
	return t, ok, nil
}

func (c *memoryToggleCache) Set(_ context.Context, t *organization.FeatureToggle) error {
	c.entries[t.OrganizationID.String()+t.Key] = t
	return nil
}

func (c *memoryToggleCache) Invalidate(_ context.Context, orgID uuid.UUID, key string) error {
	delete(c.entries, orgID.String()+key)
	return nil
}

func TestService_Create_PicksFreeSlug(t *testing.T) {
	ctx := context.Background()
	orgs := new(mockOrgRepo)
	orgs.On("SlugExists", ctx, "acme").Return(true, nil)
	orgs.On("SlugExists", ctx, "acme-2").Return(true, nil)
	orgs.On("SlugExists", ctx, "acme-3").Return(false, nil)
	orgs.On("Create", ctx, mock.AnythingOfType("*organization.Organization")).Return(nil)

	svc := NewService(orgs, nil, nil, nil, nil)
	org, err := svc.Create(ctx, CreateOrganizationRequest{Name: "Acme", Currency: "eur"})
	require.NoError(t, err)
	assert.Equal(t, "acme-3", org.Slug)
	assert.Equal(t, "EUR", org.Currency)
	orgs.AssertExpectations(t)
}

func TestService_Update_StaleVersion(t *testing.T) {
	ctx := context.Background()
	org, _ := organization.NewOrganization("Acme", "", "")
	org.Version = 3

	orgs := new(mockOrgRepo)
	orgs.On("FindByID", ctx, org.ID).Return(org, nil)

	svc := NewService(orgs, nil, nil, nil, nil)
	name := "Renamed"
	_, err := svc.Update(ctx, org.ID, UpdateOrganizationRequest{Name: &name, Version: 2})
	assert.ErrorIs(t, err, shared.ErrConcurrencyConflict)
	orgs.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
}

func TestService_IsEnabled_UsesCache(t *testing.T) {
	ctx := context.Background()
	orgID := uuid.New()
	toggle, _ := organization.NewFeatureToggle(orgID, "plant.telemetry", true, 100)

	toggles := new(mockToggleRepo)
	toggles.On("Get", ctx, orgID, "plant.telemetry").Return(toggle, nil).Once()
	toggles.On("Get", ctx, orgID, "missing").Return(nil, shared.ErrNotFound).Once()

	cache := &memoryToggleCache{entries: map[string]*organization.FeatureToggle{}}
	svc := NewService(nil, nil, toggles, nil, cache)

	for i := 0; i < 3; i++ {
		on, err := svc.IsEnabled(ctx, orgID, "Plant.Telemetry", "")
		require.NoError(t, err)
		assert.True(t, on)
	}
	for i := 0; i < 2; i++ {
		on, err := svc.IsEnabled(ctx, orgID, "missing", "")
		require.NoError(t, err)
		assert.False(t, on)
	}
	toggles.AssertExpectations(t)
}

func TestService_SetToggle_Invalidates(t *testing.T) {
	ctx := context.Background()
	orgID := uuid.New()
	cache := &memoryToggleCache{entries: map[string]*organization.FeatureToggle{
		orgID.String() + "beta": {Key: "beta", Enabled: true, RolloutPercentage: 100},
	}}

	toggles := new(mockToggleRepo)
	toggles.On("Upsert", ctx, mock.AnythingOfType("*organization.FeatureToggle")).Return(nil)
	toggles.On("Get", ctx, orgID, "beta").Return(&organization.FeatureToggle{Key: "beta"}, nil)

	svc := NewService(nil, nil, toggles, nil, cache)
	_, err := svc.SetToggle(ctx, orgID, "beta", ToggleRequest{Enabled: false})
	require.NoError(t, err)
	assert.Empty(t, cache.entries)
}

func TestService_GetTheme_Default(t *testing.T) {
	ctx := context.Background()
	orgID := uuid.New()
	themes := new(mockThemeRepo)
	themes.On("Get", ctx, orgID).Return(nil, shared.ErrNotFound)

	svc := NewService(nil, nil, nil, themes, nil)
	theme, err := svc.GetTheme(ctx, orgID)
	require.NoError(t, err)
	assert.Equal(t, orgID, theme.OrganizationID)
	assert.NotEmpty(t, theme.PrimaryColor)
}

func TestService_PutTheme_RejectsBadColor(t *testing.T) {
	svc := NewService(nil, nil, nil, new(mockThemeRepo), nil)
	_, err := svc.PutTheme(context.Background(), uuid.New(), ThemeRequest{
		PrimaryColor: "red", SecondaryColor: "#fff", FontFamily: "Arial",
	})
	var ve *shared.ValidationError
	assert.ErrorAs(t, err, &ve)
}
