package persistence

import (
	"context"
	"time"

	"github.com/drymix/erp/internal/domain/plant"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormDeviceRepository implements plant.DeviceRepository
type GormDeviceRepository struct {
	*GormRepository[plant.Device]
}

// NewGormDeviceRepository creates a new GormDeviceRepository
func NewGormDeviceRepository(db *gorm.DB) *GormDeviceRepository {
	return &GormDeviceRepository{NewGormRepository[plant.Device](db, ListOptions{
		SearchColumns: []string{"device_code", "name"},
		FilterColumns: Fields("manufacturing_unit_id", "device_type", "status"),
		SortFields:    Fields("device_code", "name", "last_seen_at"),
		DefaultSort:   "device_code",
	})}
}

// FindByKeyPrefix finds a live device by key prefix in any organization
func (r *GormDeviceRepository) FindByKeyPrefix(ctx context.Context, prefix string) (*plant.Device, error) {
	var d plant.Device
	err := r.Conn(ctx).Where("key_prefix = ? AND deleted_at IS NULL", prefix).First(&d).Error
	if err != nil {
		return nil, TranslateError(err)
	}
	return &d, nil
}

// CodeExists reports whether a live device already uses code
func (r *GormDeviceRepository) CodeExists(ctx context.Context, orgID uuid.UUID, code string) (bool, error) {
	return r.Exists(ctx, orgID, "device_code = ?", code)
}

// Touch stamps last_seen_at without bumping the row version
func (r *GormDeviceRepository) Touch(ctx context.Context, id uuid.UUID, at time.Time) error {
	err := r.Conn(ctx).Model(&plant.Device{}).Where("id = ?", id).UpdateColumn("last_seen_at", at).Error
	return TranslateError(err)
}

// GormReadingRepository implements plant.ReadingRepository
type GormReadingRepository struct {
	db *gorm.DB
}

// NewGormReadingRepository creates a new GormReadingRepository
func NewGormReadingRepository(db *gorm.DB) *GormReadingRepository {
	return &GormReadingRepository{db: db}
}

// CreateBatch inserts readings in chunks of 100
func (r *GormReadingRepository) CreateBatch(ctx context.Context, readings []plant.Reading) error {
	if len(readings) == 0 {
		return nil
	}
	return TranslateError(Conn(ctx, r.db).CreateInBatches(readings, 100).Error)
}

// Latest returns the most recent reading of a device
func (r *GormReadingRepository) Latest(ctx context.Context, orgID, deviceID uuid.UUID) (*plant.Reading, error) {
	var out plant.Reading
	err := Conn(ctx, r.db).
		Where("organization_id = ? AND device_id = ?", orgID, deviceID).
		Order("recorded_at DESC").First(&out).Error
	if err != nil {
		return nil, TranslateError(err)
	}
	return &out, nil
}

// Range returns readings in [from, to) oldest first, at most limit rows
func (r *GormReadingRepository) Range(ctx context.Context, orgID, deviceID uuid.UUID, from, to time.Time, limit int) ([]plant.Reading, error) {
	var out []plant.Reading
	err := Conn(ctx, r.db).
		Where("organization_id = ? AND device_id = ? AND recorded_at >= ? AND recorded_at < ?", orgID, deviceID, from, to).
		Order("recorded_at ASC").Limit(limit).Find(&out).Error
	return out, TranslateError(err)
}

var (
	_ plant.DeviceRepository  = (*GormDeviceRepository)(nil)
	_ plant.ReadingRepository = (*GormReadingRepository)(nil)
)
