package shared

import (
	"github.com/google/uuid"
)

// AggregateRoot is the base interface for all aggregate roots
type AggregateRoot interface {
	Entity
	GetVersion() int
	IncrementVersion()
	AddDomainEvent(event DomainEvent)
	GetDomainEvents() []DomainEvent
	ClearDomainEvents()
}

// TenantAggregateRoot is the base of every organization-scoped aggregate:
// soft-deletable, versioned for optimistic locking and able to collect
// domain events until the application layer publishes them.
type TenantAggregateRoot struct {
	TenantEntity
	SoftDelete
	Version      int           `gorm:"not null;default:1" json:"version"`
	CreatedBy    *uuid.UUID    `gorm:"type:uuid" json:"created_by,omitempty"`
	domainEvents []DomainEvent `gorm:"-"`
}

// NewTenantAggregateRoot creates a new tenant-scoped aggregate root
func NewTenantAggregateRoot(orgID uuid.UUID) TenantAggregateRoot {
	return TenantAggregateRoot{
		TenantEntity: NewTenantEntity(orgID),
		Version:      1,
	}
}

// GetVersion returns the aggregate version for optimistic locking
func (a *TenantAggregateRoot) GetVersion() int {
	return a.Version
}

// IncrementVersion increments the version number
func (a *TenantAggregateRoot) IncrementVersion() {
	a.Version++
}

// SetCreatedBy records the acting user
func (a *TenantAggregateRoot) SetCreatedBy(userID uuid.UUID) {
	if userID != uuid.Nil {
		a.CreatedBy = &userID
	}
}

// AddDomainEvent adds a domain event to be published
func (a *TenantAggregateRoot) AddDomainEvent(event DomainEvent) {
	a.domainEvents = append(a.domainEvents, event)
}

// GetDomainEvents returns all pending domain events
func (a *TenantAggregateRoot) GetDomainEvents() []DomainEvent {
	return a.domainEvents
}

// ClearDomainEvents clears the pending domain events
func (a *TenantAggregateRoot) ClearDomainEvents() {
	a.domainEvents = nil
}

// Versioned gives an entity without soft delete an optimistic-lock version
type Versioned struct {
	Version int `gorm:"not null;default:1" json:"version"`
}

// GetVersion returns the version for optimistic locking
func (v *Versioned) GetVersion() int {
	return v.Version
}

// IncrementVersion increments the version number
func (v *Versioned) IncrementVersion() {
	v.Version++
}
