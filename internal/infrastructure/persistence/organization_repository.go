package persistence

import (
	"context"

	"github.com/drymix/erp/internal/domain/organization"
	"github.com/drymix/erp/internal/domain/shared"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormOrganizationRepository implements organization.Repository
type GormOrganizationRepository struct {
	db *gorm.DB
}

// NewGormOrganizationRepository creates a new GormOrganizationRepository
func NewGormOrganizationRepository(db *gorm.DB) *GormOrganizationRepository {
	return &GormOrganizationRepository{db: db}
}

// FindByID finds an organization by ID
func (r *GormOrganizationRepository) FindByID(ctx context.Context, id uuid.UUID) (*organization.Organization, error) {
	var org organization.Organization
	if err := Conn(ctx, r.db).Where("id = ?", id).First(&org).Error; err != nil {
		return nil, TranslateError(err)
	}
	return &org, nil
}

// FindBySlug finds an organization by slug
func (r *GormOrganizationRepository) FindBySlug(ctx context.Context, slug string) (*organization.Organization, error) {
	var org organization.Organization
	if err := Conn(ctx, r.db).Where("slug = ?", slug).First(&org).Error; err != nil {
		return nil, TranslateError(err)
	}
	return &org, nil
}

// SlugExists reports whether slug is taken
func (r *GormOrganizationRepository) SlugExists(ctx context.Context, slug string) (bool, error) {
	var count int64
	err := Conn(ctx, r.db).Model(&organization.Organization{}).Where("slug = ?", slug).Count(&count).Error
	return count > 0, TranslateError(err)
}

var organizationSortFields = Fields("name", "slug", "status", "updated_at")

// List returns a page of organizations
func (r *GormOrganizationRepository) List(ctx context.Context, filter shared.Filter) ([]organization.Organization, int64, error) {
	filter = filter.Normalize()
	q := Conn(ctx, r.db).Model(&organization.Organization{})
	if filter.Search != "" {
		like := "%" + filter.Search + "%"
		q = q.Where("LOWER(name) LIKE LOWER(?) OR LOWER(slug) LIKE LOWER(?)", like, like)
	}
	if status, ok := filter.Filters["status"].(string); ok && status != "" {
		q = q.Where("status = ?", status)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, TranslateError(err)
	}

	order := "created_at"
	if organizationSortFields[filter.OrderBy] {
		order = filter.OrderBy
	}
	var orgs []organization.Organization
	err := q.Order(order + " " + ValidateSortOrder(filter.OrderDir) + ", id ASC").
		Offset(filter.Offset()).Limit(filter.PageSize).Find(&orgs).Error
	if err != nil {
		return nil, 0, TranslateError(err)
	}
	return orgs, total, nil
}

// Create inserts an organization
func (r *GormOrganizationRepository) Create(ctx context.Context, org *organization.Organization) error {
	return TranslateError(Conn(ctx, r.db).Create(org).Error)
}

// Update writes the organization if its version is unchanged
func (r *GormOrganizationRepository) Update(ctx context.Context, org *organization.Organization) error {
	expected := org.Version
	org.Touch()
	org.IncrementVersion()
	res := Conn(ctx, r.db).Model(org).Where("version = ?", expected).Select("*").Updates(org)
	if res.Error != nil {
		return TranslateError(res.Error)
	}
	if res.RowsAffected == 0 {
		return shared.ErrConcurrencyConflict
	}
	return nil
}

// Delete removes the organization row; the database cascades to tenant rows
func (r *GormOrganizationRepository) Delete(ctx context.Context, id uuid.UUID) error {
	res := Conn(ctx, r.db).Where("id = ?", id).Delete(&organization.Organization{})
	if res.Error != nil {
		return TranslateError(res.Error)
	}
	if res.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// GormSettingRepository implements organization.SettingRepository
type GormSettingRepository struct {
	db *gorm.DB
}

// NewGormSettingRepository creates a new GormSettingRepository
func NewGormSettingRepository(db *gorm.DB) *GormSettingRepository {
	return &GormSettingRepository{db: db}
}

// Get returns one setting
func (r *GormSettingRepository) Get(ctx context.Context, orgID uuid.UUID, key string) (*organization.SystemSetting, error) {
	var s organization.SystemSetting
	err := Conn(ctx, r.db).Where("organization_id = ? AND setting_key = ?", orgID, key).First(&s).Error
	if err != nil {
		return nil, TranslateError(err)
	}
	return &s, nil
}

// List returns the settings of a group, ordered by key
func (r *GormSettingRepository) List(ctx context.Context, orgID uuid.UUID, group string) ([]organization.SystemSetting, error) {
	q := Conn(ctx, r.db).Where("organization_id = ?", orgID)
	if group != "" {
		q = q.Where("setting_group = ?", group)
	}
	var out []organization.SystemSetting
	return out, TranslateError(q.Order("setting_key").Find(&out).Error)
}

// Upsert inserts the setting or replaces the value of the existing key
func (r *GormSettingRepository) Upsert(ctx context.Context, s *organization.SystemSetting) error {
	return TranslateError(Conn(ctx, r.db).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "organization_id"}, {Name: "setting_key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "setting_group", "description", "updated_at"}),
	}).Create(s).Error)
}

// Delete removes a setting
func (r *GormSettingRepository) Delete(ctx context.Context, orgID uuid.UUID, key string) error {
	return deleteByKey(Conn(ctx, r.db), &organization.SystemSetting{}, "setting_key", orgID, key)
}

// GormToggleRepository implements organization.ToggleRepository
type GormToggleRepository struct {
	db *gorm.DB
}

// NewGormToggleRepository creates a new GormToggleRepository
func NewGormToggleRepository(db *gorm.DB) *GormToggleRepository {
	return &GormToggleRepository{db: db}
}

// Get returns one toggle
func (r *GormToggleRepository) Get(ctx context.Context, orgID uuid.UUID, key string) (*organization.FeatureToggle, error) {
	var t organization.FeatureToggle
	err := Conn(ctx, r.db).Where("organization_id = ? AND toggle_key = ?", orgID, key).First(&t).Error
	if err != nil {
		return nil, TranslateError(err)
	}
	return &t, nil
}

// List returns every toggle ordered by key
func (r *GormToggleRepository) List(ctx context.Context, orgID uuid.UUID) ([]organization.FeatureToggle, error) {
	var out []organization.FeatureToggle
	err := Conn(ctx, r.db).Where("organization_id = ?", orgID).Order("toggle_key").Find(&out).Error
	return out, TranslateError(err)
}

// Upsert inserts the toggle or replaces the existing key
func (r *GormToggleRepository) Upsert(ctx context.Context, t *organization.FeatureToggle) error {
	return TranslateError(Conn(ctx, r.db).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "organization_id"}, {Name: "toggle_key"}},
		DoUpdates: clause.AssignmentColumns([]string{"enabled", "description", "rollout_percentage", "updated_at"}),
	}).Create(t).Error)
}

// Delete removes a toggle
func (r *GormToggleRepository) Delete(ctx context.Context, orgID uuid.UUID, key string) error {
	return deleteByKey(Conn(ctx, r.db), &organization.FeatureToggle{}, "toggle_key", orgID, key)
}

// GormThemeRepository implements organization.ThemeRepository
type GormThemeRepository struct {
	db *gorm.DB
}

// NewGormThemeRepository creates a new GormThemeRepository
func NewGormThemeRepository(db *gorm.DB) *GormThemeRepository {
	return &GormThemeRepository{db: db}
}

// Get returns the saved theme
func (r *GormThemeRepository) Get(ctx context.Context, orgID uuid.UUID) (*organization.ThemeSettings, error) {
	var t organization.ThemeSettings
	if err := Conn(ctx, r.db).Where("organization_id = ?", orgID).First(&t).Error; err != nil {
		return nil, TranslateError(err)
	}
	return &t, nil
}

// Upsert stores the theme, replacing any previous one
func (r *GormThemeRepository) Upsert(ctx context.Context, t *organization.ThemeSettings) error {
	return TranslateError(Conn(ctx, r.db).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "organization_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"primary_color", "secondary_color", "logo_url", "font_family", "invoice_footer", "updated_at",
		}),
	}).Create(t).Error)
}

func deleteByKey(db *gorm.DB, model any, column string, orgID uuid.UUID, key string) error {
	res := db.Where("organization_id = ? AND "+column+" = ?", orgID, key).Delete(model)
	if res.Error != nil {
		return TranslateError(res.Error)
	}
	if res.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}
