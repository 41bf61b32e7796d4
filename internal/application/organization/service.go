package organization

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/drymix/erp/internal/domain/organization"
	"github.com/drymix/erp/internal/domain/shared"
	"github.com/drymix/erp/internal/infrastructure/logger"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/datatypes"
)

// maxSlugAttempts bounds the -2, -3, ... suffix search for a free slug
const maxSlugAttempts = 50

// ToggleCache caches feature toggles so IsEnabled does not hit the database
type ToggleCache interface {
	Get(ctx context.Context, orgID uuid.UUID, key string) (*organization.FeatureToggle, bool, error)
	Set(ctx context.Context, toggle *organization.FeatureToggle) error
	Invalidate(ctx context.Context, orgID uuid.UUID, key string) error
}

// Service handles organizations and their stored configuration
type Service struct {
	orgs     organization.Repository
	settings organization.SettingRepository
	toggles  organization.ToggleRepository
	themes   organization.ThemeRepository
	cache    ToggleCache
}

// NewService creates a new organization Service. cache may be nil.
func NewService(
	orgs organization.Repository,
	settings organization.SettingRepository,
	toggles organization.ToggleRepository,
	themes organization.ThemeRepository,
	cache ToggleCache,
) *Service {
	return &Service{orgs: orgs, settings: settings, toggles: toggles, themes: themes, cache: cache}
}

// Create creates an organization with a unique slug
func (s *Service) Create(ctx context.Context, req CreateOrganizationRequest) (*organization.Organization, error) {
	org, err := organization.NewOrganization(req.Name, req.Currency, req.Timezone)
	if err != nil {
		return nil, err
	}
	org.LegalName = req.LegalName
	org.TaxNumber = req.TaxNumber
	org.Email = req.Email
	org.Phone = req.Phone
	org.Address = req.Address
	if req.Settings != nil {
		if err := req.Settings.Validate(); err != nil {
			return nil, err
		}
		org.Settings = datatypes.NewJSONType(*req.Settings)
	}

	slug, err := s.freeSlug(ctx, org.Slug)
	if err != nil {
		return nil, err
	}
	org.Slug = slug

	if err := s.orgs.Create(ctx, org); err != nil {
		return nil, err
	}
	logger.L(ctx).Info("Organization created", zap.String("organization_id", org.ID.String()), zap.String("slug", org.Slug))
	return org, nil
}

func (s *Service) freeSlug(ctx context.Context, base string) (string, error) {
	candidate := base
	for i := 2; i <= maxSlugAttempts+1; i++ {
		taken, err := s.orgs.SlugExists(ctx, candidate)
		if err != nil {
			return "", err
		}
		if !taken {
			return candidate, nil
		}
		candidate = fmt.Sprintf("%s-%d", base, i)
	}
	return "", shared.Errorf(shared.ErrAlreadyExists, "no free slug for %q", base)
}

// Get returns an organization by ID
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*organization.Organization, error) {
	return s.orgs.FindByID(ctx, id)
}

// GetBySlug returns an organization by slug
func (s *Service) GetBySlug(ctx context.Context, slug string) (*organization.Organization, error) {
	return s.orgs.FindBySlug(ctx, strings.ToLower(slug))
}

// List returns a page of organizations
func (s *Service) List(ctx context.Context, filter shared.Filter) ([]organization.Organization, int64, error) {
	return s.orgs.List(ctx, filter)
}

// Update changes the descriptive fields of an organization. The slug is stable.
func (s *Service) Update(ctx context.Context, id uuid.UUID, req UpdateOrganizationRequest) (*organization.Organization, error) {
	org, err := s.orgs.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if org.Version != req.Version {
		return nil, shared.ErrConcurrencyConflict
	}

	ve := &shared.ValidationError{}
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		ve.Check(name != "", "name", "must not be empty")
		org.Name = name
	}
	if req.LegalName != nil {
		org.LegalName = *req.LegalName
	}
	if req.TaxNumber != nil {
		org.TaxNumber = *req.TaxNumber
	}
	if req.Email != nil {
		org.Email = *req.Email
	}
	if req.Phone != nil {
		org.Phone = *req.Phone
	}
	if req.Address != nil {
		org.Address = *req.Address
	}
	if req.Currency != nil {
		org.Currency = strings.ToUpper(*req.Currency)
	}
	if req.Timezone != nil {
		_, err := time.LoadLocation(*req.Timezone)
		ve.Check(err == nil, "timezone", "unknown time zone %q", *req.Timezone)
		org.Timezone = *req.Timezone
	}
	if req.Settings != nil {
		if err := req.Settings.Validate(); err != nil {
			return nil, err
		}
		org.Settings = datatypes.NewJSONType(*req.Settings)
	}
	if err := ve.Err(); err != nil {
		return nil, err
	}

	if err := s.orgs.Update(ctx, org); err != nil {
		return nil, err
	}
	return org, nil
}

// ChangeStatus suspends, reactivates or archives an organization
func (s *Service) ChangeStatus(ctx context.Context, id uuid.UUID, to organization.Status) (*organization.Organization, error) {
	org, err := s.orgs.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := org.ChangeStatus(to); err != nil {
		return nil, err
	}
	if err := s.orgs.Update(ctx, org); err != nil {
		return nil, err
	}
	logger.L(ctx).Info("Organization status changed",
		zap.String("organization_id", id.String()), zap.String("status", string(to)))
	return org, nil
}

// Delete removes the organization. Every tenant row goes with it through
// the ON DELETE CASCADE foreign keys.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.orgs.Delete(ctx, id); err != nil {
		return err
	}
	logger.L(ctx).Warn("Organization deleted", zap.String("organization_id", id.String()))
	return nil
}

// PutSetting creates or replaces a setting
func (s *Service) PutSetting(ctx context.Context, orgID uuid.UUID, key string, req SettingRequest) (*organization.SystemSetting, error) {
	setting, err := organization.NewSystemSetting(orgID, key, req.Group, req.Value())
	if err != nil {
		return nil, err
	}
	setting.Description = req.Description
	if err := s.settings.Upsert(ctx, setting); err != nil {
		return nil, err
	}
	return s.settings.Get(ctx, orgID, setting.Key)
}

// GetSetting returns one setting
func (s *Service) GetSetting(ctx context.Context, orgID uuid.UUID, key string) (*organization.SystemSetting, error) {
	return s.settings.Get(ctx, orgID, strings.ToLower(key))
}

// ListSettings returns the settings of a group, or all when group is empty
func (s *Service) ListSettings(ctx context.Context, orgID uuid.UUID, group string) ([]organization.SystemSetting, error) {
	return s.settings.List(ctx, orgID, group)
}

// DeleteSetting removes a setting
func (s *Service) DeleteSetting(ctx context.Context, orgID uuid.UUID, key string) error {
	return s.settings.Delete(ctx, orgID, strings.ToLower(key))
}

// SetToggle creates or replaces a feature toggle and drops its cache entry
func (s *Service) SetToggle(ctx context.Context, orgID uuid.UUID, key string, req ToggleRequest) (*organization.FeatureToggle, error) {
	rollout := 100
	if req.RolloutPercentage != nil {
		rollout = *req.RolloutPercentage
	}
	toggle, err := organization.NewFeatureToggle(orgID, key, req.Enabled, rollout)
	if err != nil {
		return nil, err
	}
	toggle.Description = req.Description
	if err := s.toggles.Upsert(ctx, toggle); err != nil {
		return nil, err
	}
	s.invalidate(ctx, orgID, toggle.Key)
	return s.toggles.Get(ctx, orgID, toggle.Key)
}

// ListToggles returns every toggle of the organization
func (s *Service) ListToggles(ctx context.Context, orgID uuid.UUID) ([]organization.FeatureToggle, error) {
	return s.toggles.List(ctx, orgID)
}

// DeleteToggle removes a toggle and drops its cache entry
func (s *Service) DeleteToggle(ctx context.Context, orgID uuid.UUID, key string) error {
	key = strings.ToLower(key)
	if err := s.toggles.Delete(ctx, orgID, key); err != nil {
		return err
	}
	s.invalidate(ctx, orgID, key)
	return nil
}

// IsEnabled reports whether a toggle is on for subject. Unknown toggles are off.
func (s *Service) IsEnabled(ctx context.Context, orgID uuid.UUID, key, subject string) (bool, error) {
	key = strings.ToLower(key)
	if s.cache != nil {
		toggle, ok, err := s.cache.Get(ctx, orgID, key)
		if err != nil {
			logger.L(ctx).Warn("Toggle cache read failed", zap.Error(err))
		} else if ok {
			return toggle != nil && toggle.EnabledFor(subject), nil
		}
	}

	toggle, err := s.toggles.Get(ctx, orgID, key)
	if errors.Is(err, shared.ErrNotFound) {
		toggle, err = nil, nil
	}
	if err != nil {
		return false, err
	}

	if s.cache != nil {
		cached := toggle
		if cached == nil {
			cached = &organization.FeatureToggle{TenantEntity: shared.TenantEntity{OrganizationID: orgID}, Key: key}
		}
		if err := s.cache.Set(ctx, cached); err != nil {
			logger.L(ctx).Warn("Toggle cache write failed", zap.Error(err))
		}
	}
	return toggle != nil && toggle.EnabledFor(subject), nil
}

func (s *Service) invalidate(ctx context.Context, orgID uuid.UUID, key string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, orgID, key); err != nil {
		logger.L(ctx).Warn("Toggle cache invalidation failed", zap.String("key", key), zap.Error(err))
	}
}

// GetTheme returns the organization theme, or the default when none is saved
func (s *Service) GetTheme(ctx context.Context, orgID uuid.UUID) (*organization.ThemeSettings, error) {
	theme, err := s.themes.Get(ctx, orgID)
	if errors.Is(err, shared.ErrNotFound) {
		return organization.DefaultTheme(orgID), nil
	}
	return theme, err
}

// PutTheme replaces the organization theme
func (s *Service) PutTheme(ctx context.Context, orgID uuid.UUID, req ThemeRequest) (*organization.ThemeSettings, error) {
	theme := organization.DefaultTheme(orgID)
	theme.PrimaryColor = req.PrimaryColor
	theme.SecondaryColor = req.SecondaryColor
	theme.LogoURL = req.LogoURL
	theme.FontFamily = req.FontFamily
	theme.InvoiceFooter = req.InvoiceFooter
	if err := theme.Validate(); err != nil {
		return nil, err
	}
	if err := s.themes.Upsert(ctx, theme); err != nil {
		return nil, err
	}
	return s.themes.Get(ctx, orgID)
}
