// Package inventory holds manufacturing units, stock levels and the stock
// movement log.
package inventory

import (
	"github.com/drymix/erp/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// UnitStatus represents the status of a manufacturing unit
type UnitStatus string

const (
	UnitStatusActive      UnitStatus = "active"
	UnitStatusInactive    UnitStatus = "inactive"
	UnitStatusMaintenance UnitStatus = "maintenance"
)

// UnitStatusFlow allows every move between the three states
var UnitStatusFlow = shared.Transitions[UnitStatus]{
	UnitStatusActive:      {UnitStatusInactive, UnitStatusMaintenance},
	UnitStatusInactive:    {UnitStatusActive, UnitStatusMaintenance},
	UnitStatusMaintenance: {UnitStatusActive, UnitStatusInactive},
}

// ManufacturingUnit is a plant or depot that holds stock
type ManufacturingUnit struct {
	shared.TenantAggregateRoot
	Code               string          `gorm:"type:varchar(50);not null" json:"code"`
	Name               string          `gorm:"type:varchar(200);not null" json:"name"`
	Location           string          `gorm:"type:text" json:"location"`
	CapacityTonsPerDay decimal.Decimal `gorm:"type:numeric(18,2);not null;default:0" json:"capacity_tons_per_day"`
	Status             UnitStatus      `gorm:"type:varchar(20);not null;default:'active'" json:"status"`
}

// TableName returns the table name for GORM
func (ManufacturingUnit) TableName() string {
	return "manufacturing_units"
}

// NewManufacturingUnit creates an active unit
func NewManufacturingUnit(orgID uuid.UUID, code, name, location string, capacity decimal.Decimal) (*ManufacturingUnit, error) {
	var v shared.ValidationError
	v.CheckCode("code", code, 50)
	v.CheckText("name", name, 200)
	v.CheckNonNegative("capacity_tons_per_day", capacity)
	if err := v.Err(); err != nil {
		return nil, err
	}
	return &ManufacturingUnit{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(orgID),
		Code:                shared.NormalizeCode(code),
		Name:                name,
		Location:            location,
		CapacityTonsPerDay:  shared.RoundMoney(capacity),
		Status:              UnitStatusActive,
	}, nil
}

// Update changes the descriptive fields
func (u *ManufacturingUnit) Update(name, location string, capacity decimal.Decimal) error {
	var v shared.ValidationError
	v.CheckText("name", name, 200)
	v.CheckNonNegative("capacity_tons_per_day", capacity)
	if err := v.Err(); err != nil {
		return err
	}
	u.Name = name
	u.Location = location
	u.CapacityTonsPerDay = shared.RoundMoney(capacity)
	return nil
}

// ChangeStatus moves the unit to another status
func (u *ManufacturingUnit) ChangeStatus(to UnitStatus) error {
	if u.Status == to {
		return nil
	}
	if err := UnitStatusFlow.Check("manufacturing unit", u.Status, to); err != nil {
		return err
	}
	u.Status = to
	return nil
}

// CanMoveStock reports whether stock may be received into or issued from the unit
func (u *ManufacturingUnit) CanMoveStock() bool {
	return u.Status != UnitStatusInactive
}
