package organization

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/drymix/erp/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewOrganization(t *testing.T) {
	org, err := NewOrganization("  Acme Dry-Mix Mortars Ltd. ", "", "")
	require.NoError(t, err)
	assert.Equal(t, "Acme Dry-Mix Mortars Ltd.", org.Name)
	assert.Equal(t, "acme-dry-mix-mortars-ltd", org.Slug)
	assert.Equal(t, "USD", org.Currency)
	assert.Equal(t, "UTC", org.Timezone)
	assert.Equal(t, StatusActive, org.Status)
	assert.Equal(t, SettingsSchemaVersion, org.Settings.Data().SchemaVersion)

	_, err = NewOrganization("", "", "")
	assert.Error(t, err)
	_, err = NewOrganization("Acme", "US", "Mars/Olympus")
	var ve *shared.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Len(t, ve.Fields, 2)
}

func TestMakeSlug(t *testing.T) {
	assert.Equal(t, "org", MakeSlug("!!!"))
	long := MakeSlug(strings.Repeat("mortar plant ", 20))
	assert.LessOrEqual(t, len(long), 100)
	assert.False(t, strings.HasSuffix(long, "-"))
}

func TestOrganization_ChangeStatus(t *testing.T) {
	org, _ := NewOrganization("Acme", "", "")

	require.NoError(t, org.ChangeStatus(StatusSuspended))
	assert.False(t, org.IsActive())
	require.NoError(t, org.ChangeStatus(StatusActive))
	require.NoError(t, org.ChangeStatus(StatusArchived))

	err := org.ChangeStatus(StatusActive)
	assert.ErrorIs(t, err, shared.ErrInvalidState)
}

func TestSettings_Validate(t *testing.T) {
	s := DefaultSettings()
	require.NoError(t, s.Validate())

	s.FiscalYearStartMonth = 13
	s.DefaultTaxRate = decimal.NewFromInt(120)
	s.ReminderChannel = "fax"
	var ve *shared.ValidationError
	require.ErrorAs(t, s.Validate(), &ve)
	assert.Len(t, ve.Fields, 3)

	s = DefaultSettings()
	s.SchemaVersion = 2
	assert.Error(t, s.Validate())
}

func TestSettingValue_Validate(t *testing.T) {
	text := "x"
	flag := true
	num := decimal.NewFromFloat(2.5)

	tests := []struct {
		name  string
		value SettingValue
		ok    bool
	}{
		{"string", SettingValue{Kind: KindString, String: &text}, true},
		{"number", SettingValue{Kind: KindNumber, Number: &num}, true},
		{"bool", SettingValue{Kind: KindBool, Bool: &flag}, true},
		{"json", SettingValue{Kind: KindJSON, JSON: json.RawMessage(`{"a":1}`)}, true},
		{"wrong field", SettingValue{Kind: KindString, Bool: &flag}, false},
		{"two fields", SettingValue{Kind: KindString, String: &text, Bool: &flag}, false},
		{"invalid json", SettingValue{Kind: KindJSON, JSON: json.RawMessage(`{`)}, false},
		{"unknown kind", SettingValue{Kind: "date", String: &text}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.value.Validate()
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, shared.ErrInvalidInput)
			}
		})
	}
}

func TestNewSystemSetting_Key(t *testing.T) {
	text := "x"
	s, err := NewSystemSetting(uuid.New(), " Invoice.Prefix ", "", SettingValue{Kind: KindString, String: &text})
	require.NoError(t, err)
	assert.Equal(t, "invoice.prefix", s.Key)
	assert.Equal(t, "general", s.Group)

	_, err = NewSystemSetting(uuid.New(), "9bad key", "", SettingValue{Kind: KindString, String: &text})
	assert.Error(t, err)
}

func TestFeatureToggle_EnabledFor(t *testing.T) {
	orgID := uuid.New()
	off, _ := NewFeatureToggle(orgID, "beta", false, 100)
	assert.False(t, off.EnabledFor("user-1"))

	all, _ := NewFeatureToggle(orgID, "beta", true, 100)
	assert.True(t, all.EnabledFor("user-1"))

	none, _ := NewFeatureToggle(orgID, "beta", true, 0)
	assert.False(t, none.EnabledFor("user-1"))

	half, _ := NewFeatureToggle(orgID, "beta", true, 50)
	first := half.EnabledFor("user-42")
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, half.EnabledFor("user-42"))
	}

	on := 0
	for i := 0; i < 1000; i++ {
		if half.EnabledFor(uuid.NewString()) {
			on++
		}
	}
	assert.InDelta(t, 500, on, 100)

	_, err := NewFeatureToggle(orgID, "beta", true, 101)
	assert.Error(t, err)
}

func TestThemeSettings_Validate(t *testing.T) {
	theme := DefaultTheme(uuid.New())
	require.NoError(t, theme.Validate())
	theme.PrimaryColor = "blue"
	assert.Error(t, theme.Validate())
}
