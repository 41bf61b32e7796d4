package organization

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/drymix/erp/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// SettingsSchemaVersion is the only organization settings layout understood
const SettingsSchemaVersion = 1

// Settings is the typed content of organizations.settings
type Settings struct {
	SchemaVersion           int             `json:"schema_version"`
	Locale                  string          `json:"locale"`
	DateFormat              string          `json:"date_format"`
	FiscalYearStartMonth    int             `json:"fiscal_year_start_month"`
	DefaultPaymentTermsDays int             `json:"default_payment_terms_days"`
	DefaultTaxRate          decimal.Decimal `json:"default_tax_rate"`
	ReminderChannel         string          `json:"reminder_channel"`
}

// DefaultSettings returns the settings of a new organization
func DefaultSettings() Settings {
	return Settings{
		SchemaVersion:           SettingsSchemaVersion,
		Locale:                  "en",
		DateFormat:              "2006-01-02",
		FiscalYearStartMonth:    1,
		DefaultPaymentTermsDays: 30,
		DefaultTaxRate:          decimal.Zero,
		ReminderChannel:         "email",
	}
}

// Validate checks the settings before they are stored
func (s Settings) Validate() error {
	ve := &shared.ValidationError{}
	ve.Check(s.SchemaVersion == SettingsSchemaVersion, "settings.schema_version", "unsupported version %d", s.SchemaVersion)
	ve.Check(s.FiscalYearStartMonth >= 1 && s.FiscalYearStartMonth <= 12, "settings.fiscal_year_start_month", "must be 1-12")
	ve.Check(s.DefaultPaymentTermsDays >= 0, "settings.default_payment_terms_days", "must not be negative")
	ve.Check(!s.DefaultTaxRate.IsNegative() && s.DefaultTaxRate.LessThanOrEqual(decimal.NewFromInt(100)),
		"settings.default_tax_rate", "must be between 0 and 100")
	switch s.ReminderChannel {
	case "email", "sms", "whatsapp":
	default:
		ve.Add("settings.reminder_channel", "must be email, sms or whatsapp")
	}
	return ve.Err()
}

// ValueKind tags a SettingValue
type ValueKind string

const (
	KindString ValueKind = "string"
	KindNumber ValueKind = "number"
	KindBool   ValueKind = "bool"
	KindJSON   ValueKind = "json"
)

// SettingValue is a tagged union: exactly the field named by Kind is set
type SettingValue struct {
	Kind   ValueKind        `json:"kind"`
	String *string          `json:"string,omitempty"`
	Number *decimal.Decimal `json:"number,omitempty"`
	Bool   *bool            `json:"bool,omitempty"`
	JSON   json.RawMessage  `json:"json,omitempty"`
}

// Validate checks that the value matches its kind
func (v SettingValue) Validate() error {
	set := 0
	if v.String != nil {
		set++
	}
	if v.Number != nil {
		set++
	}
	if v.Bool != nil {
		set++
	}
	if len(v.JSON) > 0 {
		set++
	}

	var ok bool
	switch v.Kind {
	case KindString:
		ok = v.String != nil
	case KindNumber:
		ok = v.Number != nil
	case KindBool:
		ok = v.Bool != nil
	case KindJSON:
		ok = len(v.JSON) > 0 && json.Valid(v.JSON)
	default:
		return shared.Errorf(shared.ErrInvalidInput, "unknown setting kind %q", v.Kind)
	}
	if !ok || set != 1 {
		return shared.Errorf(shared.ErrInvalidInput, "setting value must carry exactly one %s field", v.Kind)
	}
	return nil
}

// Display renders the value for logs and templates
func (v SettingValue) Display() string {
	switch {
	case v.String != nil:
		return *v.String
	case v.Number != nil:
		return v.Number.String()
	case v.Bool != nil:
		return fmt.Sprintf("%t", *v.Bool)
	default:
		return string(v.JSON)
	}
}

var settingKeyPattern = regexp.MustCompile(`^[a-z][a-z0-9_.]{0,99}$`)

// SystemSetting is one organization-scoped key/value row
type SystemSetting struct {
	shared.TenantEntity
	Key         string                           `gorm:"column:setting_key;type:varchar(100);not null" json:"key"`
	Value       datatypes.JSONType[SettingValue] `gorm:"type:jsonb;not null" json:"value"`
	Group       string                           `gorm:"column:setting_group;type:varchar(50);not null" json:"group"`
	Description string                           `gorm:"type:text" json:"description"`
}

// TableName returns the table name for GORM
func (SystemSetting) TableName() string {
	return "system_settings"
}

// NewSystemSetting validates and builds a setting row
func NewSystemSetting(orgID uuid.UUID, key, group string, value SettingValue) (*SystemSetting, error) {
	key = strings.ToLower(strings.TrimSpace(key))
	if !settingKeyPattern.MatchString(key) {
		return nil, shared.Errorf(shared.ErrInvalidInput, "invalid setting key %q", key)
	}
	if err := value.Validate(); err != nil {
		return nil, err
	}
	if group == "" {
		group = "general"
	}
	return &SystemSetting{
		TenantEntity: shared.NewTenantEntity(orgID),
		Key:          key,
		Group:        group,
		Value:        datatypes.NewJSONType(value),
	}, nil
}

// FeatureToggle switches a capability on for a share of an organization's users
type FeatureToggle struct {
	shared.TenantEntity
	Key               string `gorm:"column:toggle_key;type:varchar(100);not null" json:"key"`
	Enabled           bool   `gorm:"not null" json:"enabled"`
	Description       string `gorm:"type:text" json:"description"`
	RolloutPercentage int    `gorm:"not null;default:100" json:"rollout_percentage"`
}

// TableName returns the table name for GORM
func (FeatureToggle) TableName() string {
	return "feature_toggles"
}

// NewFeatureToggle validates and builds a toggle
func NewFeatureToggle(orgID uuid.UUID, key string, enabled bool, rollout int) (*FeatureToggle, error) {
	key = strings.ToLower(strings.TrimSpace(key))
	if !settingKeyPattern.MatchString(key) {
		return nil, shared.Errorf(shared.ErrInvalidInput, "invalid toggle key %q", key)
	}
	if rollout < 0 || rollout > 100 {
		return nil, shared.Errorf(shared.ErrInvalidInput, "rollout_percentage must be 0-100")
	}
	return &FeatureToggle{
		TenantEntity:      shared.NewTenantEntity(orgID),
		Key:               key,
		Enabled:           enabled,
		RolloutPercentage: rollout,
	}, nil
}

// EnabledFor reports whether the toggle is on for subject. A partial rollout
// buckets subjects by a stable hash so the answer does not flap.
func (t *FeatureToggle) EnabledFor(subject string) bool {
	if !t.Enabled {
		return false
	}
	if t.RolloutPercentage >= 100 || subject == "" {
		return t.RolloutPercentage > 0
	}
	return RolloutBucket(t.Key, subject) < t.RolloutPercentage
}

// ThemeSettings drives the look of printed documents
type ThemeSettings struct {
	shared.TenantEntity
	PrimaryColor   string `gorm:"type:varchar(20);not null" json:"primary_color"`
	SecondaryColor string `gorm:"type:varchar(20);not null" json:"secondary_color"`
	LogoURL        string `gorm:"type:varchar(500)" json:"logo_url"`
	FontFamily     string `gorm:"type:varchar(100);not null" json:"font_family"`
	InvoiceFooter  string `gorm:"type:text" json:"invoice_footer"`
}

// TableName returns the table name for GORM
func (ThemeSettings) TableName() string {
	return "theme_settings"
}

var colorPattern = regexp.MustCompile(`^#(?:[0-9a-fA-F]{3}|[0-9a-fA-F]{6})$`)

// DefaultTheme is used until an organization saves its own
func DefaultTheme(orgID uuid.UUID) *ThemeSettings {
	return &ThemeSettings{
		TenantEntity:   shared.NewTenantEntity(orgID),
		PrimaryColor:   "#1f4e79",
		SecondaryColor: "#f2f2f2",
		FontFamily:     "Helvetica, Arial, sans-serif",
	}
}

// Validate checks colors and lengths
func (t *ThemeSettings) Validate() error {
	ve := &shared.ValidationError{}
	ve.Check(colorPattern.MatchString(t.PrimaryColor), "primary_color", "must be a hex color")
	ve.Check(colorPattern.MatchString(t.SecondaryColor), "secondary_color", "must be a hex color")
	ve.Check(t.FontFamily != "" && len(t.FontFamily) <= 100, "font_family", "must be 1-100 characters")
	ve.Check(len(t.LogoURL) <= 500, "logo_url", "must be at most 500 characters")
	return ve.Err()
}

// SettingRepository persists system settings
type SettingRepository interface {
	Get(ctx context.Context, orgID uuid.UUID, key string) (*SystemSetting, error)
	List(ctx context.Context, orgID uuid.UUID, group string) ([]SystemSetting, error)
	Upsert(ctx context.Context, setting *SystemSetting) error
	Delete(ctx context.Context, orgID uuid.UUID, key string) error
}

// ToggleRepository persists feature toggles
type ToggleRepository interface {
	Get(ctx context.Context, orgID uuid.UUID, key string) (*FeatureToggle, error)
	List(ctx context.Context, orgID uuid.UUID) ([]FeatureToggle, error)
	Upsert(ctx context.Context, toggle *FeatureToggle) error
	Delete(ctx context.Context, orgID uuid.UUID, key string) error
}

// ThemeRepository persists the single theme row of an organization
type ThemeRepository interface {
	Get(ctx context.Context, orgID uuid.UUID) (*ThemeSettings, error)
	Upsert(ctx context.Context, theme *ThemeSettings) error
}
