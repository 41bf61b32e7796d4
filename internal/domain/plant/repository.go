package plant

import (
	"context"
	"time"

	"github.com/drymix/erp/internal/domain/shared"
	"github.com/google/uuid"
)

// DeviceRepository persists devices
type DeviceRepository interface {
	shared.CRUDRepository[Device]
	// FindByKeyPrefix looks a device up across organizations by the public
	// part of its key
	FindByKeyPrefix(ctx context.Context, prefix string) (*Device, error)
	CodeExists(ctx context.Context, orgID uuid.UUID, code string) (bool, error)
	Touch(ctx context.Context, id uuid.UUID, at time.Time) error
}

// ReadingRepository persists telemetry
type ReadingRepository interface {
	CreateBatch(ctx context.Context, readings []Reading) error
	Latest(ctx context.Context, orgID, deviceID uuid.UUID) (*Reading, error)
	Range(ctx context.Context, orgID, deviceID uuid.UUID, from, to time.Time, limit int) ([]Reading, error)
}
