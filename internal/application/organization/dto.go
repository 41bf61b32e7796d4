package organization

import (
	"encoding/json"

	"github.com/drymix/erp/internal/domain/organization"
	"github.com/shopspring/decimal"
)

// CreateOrganizationRequest represents a request to create an organization
type CreateOrganizationRequest struct {
	Name      string                 `json:"name" binding:"required,min=1,max=200"`
	LegalName string                 `json:"legal_name" binding:"max=255"`
	TaxNumber string                 `json:"tax_number" binding:"max=50"`
	Email     string                 `json:"email" binding:"omitempty,email"`
	Phone     string                 `json:"phone" binding:"max=50"`
	Address   string                 `json:"address"`
	Currency  string                 `json:"currency" binding:"omitempty,len=3"`
	Timezone  string                 `json:"timezone"`
	Settings  *organization.Settings `json:"settings"`
}

// UpdateOrganizationRequest represents a request to update an organization
type UpdateOrganizationRequest struct {
	Name      *string                `json:"name" binding:"omitempty,min=1,max=200"`
	LegalName *string                `json:"legal_name" binding:"omitempty,max=255"`
	TaxNumber *string                `json:"tax_number" binding:"omitempty,max=50"`
	Email     *string                `json:"email" binding:"omitempty,email"`
	Phone     *string                `json:"phone" binding:"omitempty,max=50"`
	Address   *string                `json:"address"`
	Currency  *string                `json:"currency" binding:"omitempty,len=3"`
	Timezone  *string                `json:"timezone"`
	Settings  *organization.Settings `json:"settings"`
	Version   int                    `json:"version" binding:"required,min=1"`
}

// ChangeStatusRequest moves an organization to another status
type ChangeStatusRequest struct {
	Status organization.Status `json:"status" binding:"required,oneof=active suspended archived"`
}

// SettingRequest sets one system setting
type SettingRequest struct {
	Group       string           `json:"group" binding:"max=50"`
	Description string           `json:"description"`
	Kind        string           `json:"kind" binding:"required,oneof=string number bool json"`
	String      *string          `json:"string"`
	Number      *decimal.Decimal `json:"number"`
	Bool        *bool            `json:"bool"`
	JSON        json.RawMessage  `json:"json"`
}

// Value converts the request into the tagged setting value
func (r SettingRequest) Value() organization.SettingValue {
	return organization.SettingValue{
		Kind:   organization.ValueKind(r.Kind),
		String: r.String,
		Number: r.Number,
		Bool:   r.Bool,
		JSON:   r.JSON,
	}
}

// ToggleRequest sets one feature toggle
type ToggleRequest struct {
	Enabled           bool   `json:"enabled"`
	Description       string `json:"description"`
	RolloutPercentage *int   `json:"rollout_percentage" binding:"omitempty,min=0,max=100"`
}

// ToggleStatus answers an IsEnabled query
type ToggleStatus struct {
	Key     string `json:"key"`
	Subject string `json:"subject,omitempty"`
	Enabled bool   `json:"enabled"`
}

// ThemeRequest replaces the organization theme
type ThemeRequest struct {
	PrimaryColor   string `json:"primary_color" binding:"required"`
	SecondaryColor string `json:"secondary_color" binding:"required"`
	LogoURL        string `json:"logo_url" binding:"omitempty,url,max=500"`
	FontFamily     string `json:"font_family" binding:"required,max=100"`
	InvoiceFooter  string `json:"invoice_footer"`
}
