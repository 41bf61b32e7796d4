// Package plant models the devices on the production floor and the
// telemetry they push.
package plant

import (
	"time"

	"github.com/drymix/erp/internal/domain/shared"
	"github.com/google/uuid"
)

// DeviceType is the kind of plant equipment
type DeviceType string

const (
	DeviceMixer       DeviceType = "mixer"
	DeviceSilo        DeviceType = "silo"
	DeviceDryer       DeviceType = "dryer"
	DevicePacker      DeviceType = "packer"
	DeviceWeighbridge DeviceType = "weighbridge"
	DeviceSensor      DeviceType = "sensor"
)

// Valid reports whether t is a known device type
func (t DeviceType) Valid() bool {
	switch t {
	case DeviceMixer, DeviceSilo, DeviceDryer, DevicePacker, DeviceWeighbridge, DeviceSensor:
		return true
	}
	return false
}

// DeviceStatus gates ingestion
type DeviceStatus string

const (
	DeviceActive   DeviceStatus = "active"
	DeviceDisabled DeviceStatus = "disabled"
)

// Device is a piece of equipment allowed to push telemetry. It
// authenticates with "<KeyPrefix>.<secret>"; only the bcrypt hash of the
// secret is stored.
type Device struct {
	shared.TenantAggregateRoot
	ManufacturingUnitID uuid.UUID    `gorm:"type:uuid;not null;index" json:"manufacturing_unit_id"`
	DeviceCode          string       `gorm:"type:varchar(50);not null;uniqueIndex:unique_plant_devices_org_code,priority:2" json:"device_code"`
	Name                string       `gorm:"type:varchar(200);not null" json:"name"`
	DeviceType          DeviceType   `gorm:"type:varchar(20);not null" json:"device_type"`
	KeyPrefix           string       `gorm:"type:varchar(16);not null;uniqueIndex:unique_plant_devices_key_prefix" json:"key_prefix"`
	APIKeyHash          string       `gorm:"column:api_key_hash;type:varchar(100);not null" json:"-"`
	Status              DeviceStatus `gorm:"type:varchar(20);not null;default:'active'" json:"status"`
	LastSeenAt          *time.Time   `json:"last_seen_at,omitempty"`
}

// TableName returns the table name for GORM
func (Device) TableName() string {
	return "plant_devices"
}

// NewDevice creates an active device holding the hash of its key
func NewDevice(orgID, unitID uuid.UUID, code, name string, deviceType DeviceType, keyPrefix, keyHash string) (*Device, error) {
	code = shared.NormalizeCode(code)
	var v shared.ValidationError
	v.CheckCode("device_code", code, 50)
	v.CheckText("name", name, 200)
	v.Check(deviceType.Valid(), "device_type", "unknown device type %q", deviceType)
	v.Check(unitID != uuid.Nil, "manufacturing_unit_id", "is required")
	v.Check(keyPrefix != "" && keyHash != "", "api_key", "is required")
	if err := v.Err(); err != nil {
		return nil, err
	}
	return &Device{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(orgID),
		ManufacturingUnitID: unitID,
		DeviceCode:          code,
		Name:                name,
		DeviceType:          deviceType,
		KeyPrefix:           keyPrefix,
		APIKeyHash:          keyHash,
		Status:              DeviceActive,
	}, nil
}

// Update changes the descriptive fields
func (d *Device) Update(name string, deviceType DeviceType) error {
	var v shared.ValidationError
	v.CheckText("name", name, 200)
	v.Check(deviceType.Valid(), "device_type", "unknown device type %q", deviceType)
	if err := v.Err(); err != nil {
		return err
	}
	d.Name = name
	d.DeviceType = deviceType
	return nil
}

// SetStatus enables or disables the device
func (d *Device) SetStatus(status DeviceStatus) error {
	if status != DeviceActive && status != DeviceDisabled {
		return shared.NewValidationError("status", "must be active or disabled")
	}
	d.Status = status
	return nil
}

// RotateKey replaces the credential; the old key stops working at once
func (d *Device) RotateKey(keyPrefix, keyHash string) {
	d.KeyPrefix = keyPrefix
	d.APIKeyHash = keyHash
}

// CheckActive rejects disabled devices
func (d *Device) CheckActive() error {
	if d.Status != DeviceActive {
		return shared.Errorf(shared.ErrForbidden, "device %s is disabled", d.DeviceCode)
	}
	return nil
}
