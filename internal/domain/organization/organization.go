// Package organization holds the tenant aggregate and the per-organization
// configuration stored as rows: settings, feature toggles and the print theme.
package organization

import (
	"context"
	"strings"
	"time"

	"github.com/drymix/erp/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"gorm.io/datatypes"
)

// Status represents the lifecycle of an organization
type Status string

const (
	StatusActive    Status = "active"
	StatusSuspended Status = "suspended"
	StatusArchived  Status = "archived"
)

// StatusFlow lists the allowed status changes. Archived is terminal.
var StatusFlow = shared.Transitions[Status]{
	StatusActive:    {StatusSuspended, StatusArchived},
	StatusSuspended: {StatusActive, StatusArchived},
}

// Organization is the tenant. Deleting it removes every row it owns.
type Organization struct {
	shared.BaseEntity
	Name      string                       `gorm:"type:varchar(200);not null" json:"name"`
	Slug      string                       `gorm:"type:varchar(120);not null;uniqueIndex" json:"slug"`
	LegalName string                       `gorm:"type:varchar(255)" json:"legal_name"`
	TaxNumber string                       `gorm:"type:varchar(50)" json:"tax_number"`
	Email     string                       `gorm:"type:varchar(255)" json:"email"`
	Phone     string                       `gorm:"type:varchar(50)" json:"phone"`
	Address   string                       `gorm:"type:text" json:"address"`
	Currency  string                       `gorm:"type:varchar(3);not null" json:"currency"`
	Timezone  string                       `gorm:"type:varchar(64);not null" json:"timezone"`
	Status    Status                       `gorm:"type:varchar(20);not null" json:"status"`
	Settings  datatypes.JSONType[Settings] `gorm:"type:jsonb" json:"settings"`
	Version   int                          `gorm:"not null;default:1" json:"version"`
}

// TableName returns the table name for GORM
func (Organization) TableName() string {
	return "organizations"
}

// GetVersion returns the version used for optimistic locking
func (o *Organization) GetVersion() int { return o.Version }

// IncrementVersion bumps the version
func (o *Organization) IncrementVersion() { o.Version++ }

// NewOrganization creates an active organization. The slug is derived from
// the name; the caller makes it unique.
func NewOrganization(name, currency, timezone string) (*Organization, error) {
	name = strings.TrimSpace(name)
	ve := &shared.ValidationError{}
	ve.Check(name != "" && len(name) <= 200, "name", "must be 1-200 characters")
	ve.Check(currency == "" || len(currency) == 3, "currency", "must be an ISO 4217 code")
	if timezone != "" {
		_, err := time.LoadLocation(timezone)
		ve.Check(err == nil, "timezone", "unknown time zone %q", timezone)
	}
	if err := ve.Err(); err != nil {
		return nil, err
	}

	if currency == "" {
		currency = "USD"
	}
	if timezone == "" {
		timezone = "UTC"
	}

	return &Organization{
		BaseEntity: shared.NewBaseEntity(),
		Name:       name,
		Slug:       MakeSlug(name),
		Currency:   strings.ToUpper(currency),
		Timezone:   timezone,
		Status:     StatusActive,
		Settings:   datatypes.NewJSONType(DefaultSettings()),
		Version:    1,
	}, nil
}

// MakeSlug derives a URL-safe slug from a name
func MakeSlug(name string) string {
	s := slug.Make(name)
	if len(s) > 100 {
		s = strings.TrimRight(s[:100], "-")
	}
	if s == "" {
		s = "org"
	}
	return s
}

// ChangeStatus moves the organization along StatusFlow
func (o *Organization) ChangeStatus(to Status) error {
	if err := StatusFlow.Check("organization", o.Status, to); err != nil {
		return err
	}
	o.Status = to
	o.Touch()
	return nil
}

// IsActive reports whether requests for this organization are served
func (o *Organization) IsActive() bool {
	return o.Status == StatusActive
}

// Location returns the organization's time zone, UTC when it cannot be loaded
func (o *Organization) Location() *time.Location {
	loc, err := time.LoadLocation(o.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// Repository persists organizations. Organizations are not tenant scoped.
type Repository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Organization, error)
	FindBySlug(ctx context.Context, slug string) (*Organization, error)
	SlugExists(ctx context.Context, slug string) (bool, error)
	List(ctx context.Context, filter shared.Filter) ([]Organization, int64, error)
	Create(ctx context.Context, org *Organization) error
	Update(ctx context.Context, org *Organization) error
	Delete(ctx context.Context, id uuid.UUID) error
}
