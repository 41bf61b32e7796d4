package shared

import (
	"time"

	"github.com/google/uuid"
)

// Entity is the base interface for all domain entities
type Entity interface {
	GetID() uuid.UUID
	GetCreatedAt() time.Time
	GetUpdatedAt() time.Time
}

// BaseEntity provides common fields for all entities
type BaseEntity struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

// GetID returns the entity ID
func (e *BaseEntity) GetID() uuid.UUID {
	return e.ID
}

// GetCreatedAt returns the creation timestamp
func (e *BaseEntity) GetCreatedAt() time.Time {
	return e.CreatedAt
}

// GetUpdatedAt returns the last update timestamp
func (e *BaseEntity) GetUpdatedAt() time.Time {
	return e.UpdatedAt
}

// Touch bumps UpdatedAt
func (e *BaseEntity) Touch() {
	e.UpdatedAt = time.Now()
}

// NewBaseEntity creates a new base entity with generated ID
func NewBaseEntity() BaseEntity {
	now := time.Now()
	return BaseEntity{
		ID:        uuid.New(),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// TenantEntity is an entity owned by one organization. Every business table
// carries organization_id with ON DELETE CASCADE to organizations.
type TenantEntity struct {
	BaseEntity
	OrganizationID uuid.UUID `gorm:"type:uuid;not null;index" json:"organization_id"`
}

// GetOrganizationID returns the owning organization
func (e *TenantEntity) GetOrganizationID() uuid.UUID {
	return e.OrganizationID
}

// NewTenantEntity creates a tenant-owned entity with a generated ID
func NewTenantEntity(orgID uuid.UUID) TenantEntity {
	return TenantEntity{
		BaseEntity:     NewBaseEntity(),
		OrganizationID: orgID,
	}
}

// SoftDeletable is implemented by entities that are hidden instead of removed
type SoftDeletable interface {
	IsDeleted() bool
	MarkDeleted()
}

// SoftDelete is embedded by entities that are hidden instead of removed
type SoftDelete struct {
	DeletedAt *time.Time `gorm:"index" json:"-"`
}

// IsDeleted reports whether the entity has been soft-deleted
func (s *SoftDelete) IsDeleted() bool {
	return s.DeletedAt != nil
}

// MarkDeleted soft-deletes the entity
func (s *SoftDelete) MarkDeleted() {
	now := time.Now()
	s.DeletedAt = &now
}

// TenantRecord is an append-only row: it is written once and never updated
type TenantRecord struct {
	ID             uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	OrganizationID uuid.UUID `gorm:"type:uuid;not null;index" json:"organization_id"`
	CreatedAt      time.Time `gorm:"not null" json:"created_at"`
}

// NewTenantRecord creates a record with a generated ID
func NewTenantRecord(orgID uuid.UUID) TenantRecord {
	return TenantRecord{ID: uuid.New(), OrganizationID: orgID, CreatedAt: time.Now()}
}
