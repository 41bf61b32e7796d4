// Package plant registers plant devices and stores the telemetry they push.
package plant

import (
	"context"
	"errors"
	"time"

	"github.com/drymix/erp/internal/domain/inventory"
	"github.com/drymix/erp/internal/domain/plant"
	"github.com/drymix/erp/internal/domain/shared"
	"github.com/drymix/erp/internal/infrastructure/auth"
	"github.com/drymix/erp/internal/infrastructure/logger"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	defaultRangeLimit = 1000
	maxRangeLimit     = 5000
)

// LatestCache keeps the newest reading of each device
type LatestCache interface {
	Get(ctx context.Context, key string) (*plant.Reading, bool, error)
	// SetIfNewer atomically replaces the entry when version is higher than
	// the stored one
	SetIfNewer(ctx context.Context, key string, r *plant.Reading, version int64) (bool, error)
}

// IngestObserver is told how many readings were accepted, used for metrics
type IngestObserver interface {
	ReadingsIngested(n int)
}

// Deps are the collaborators of the plant Service. Cache and Observer may
// be nil.
type Deps struct {
	Devices  plant.DeviceRepository
	Readings plant.ReadingRepository
	Units    inventory.UnitRepository
	Tx       shared.TxManager
	Cache    LatestCache
	Observer IngestObserver
}

// Service runs the plant use cases
type Service struct {
	Deps
	now func() time.Time
}

// NewService creates a new plant Service
func NewService(deps Deps) *Service {
	return &Service{Deps: deps, now: time.Now}
}

// RegisterDevice creates a device and returns its API key once
func (s *Service) RegisterDevice(ctx context.Context, orgID uuid.UUID, req RegisterDeviceRequest) (*DeviceCredentials, error) {
	if _, err := s.Units.FindByID(ctx, orgID, req.ManufacturingUnitID); err != nil {
		return nil, shared.AsReference(err, "manufacturing unit")
	}
	key, err := auth.NewDeviceKey()
	if err != nil {
		return nil, err
	}
	d, err := plant.NewDevice(orgID, req.ManufacturingUnitID, req.DeviceCode, req.Name, plant.DeviceType(req.DeviceType), key.Prefix, key.Hash)
	if err != nil {
		return nil, err
	}
	exists, err := s.Devices.CodeExists(ctx, orgID, d.DeviceCode)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, shared.Errorf(shared.ErrAlreadyExists, "device code %s is already used", d.DeviceCode)
	}
	d.CreatedBy = shared.ActorFrom(ctx)
	if err := s.Devices.Create(ctx, d); err != nil {
		return nil, err
	}
	logger.L(ctx).Info("plant device registered",
		zap.String("device_id", d.ID.String()),
		zap.String("device_code", d.DeviceCode),
		zap.String("key_prefix", d.KeyPrefix))
	return &DeviceCredentials{Device: d, APIKey: key.Plain}, nil
}

// RotateKey issues a new API key; the previous one is rejected from now on
func (s *Service) RotateKey(ctx context.Context, orgID, id uuid.UUID) (*DeviceCredentials, error) {
	key, err := auth.NewDeviceKey()
	if err != nil {
		return nil, err
	}
	d, err := s.Devices.FindByID(ctx, orgID, id)
	if err != nil {
		return nil, err
	}
	d.RotateKey(key.Prefix, key.Hash)
	if err := s.Devices.Update(ctx, d); err != nil {
		return nil, err
	}
	logger.L(ctx).Info("plant device key rotated",
		zap.String("device_id", d.ID.String()),
		zap.String("key_prefix", d.KeyPrefix))
	return &DeviceCredentials{Device: d, APIKey: key.Plain}, nil
}

// GetDevice returns one device
func (s *Service) GetDevice(ctx context.Context, orgID, id uuid.UUID) (*plant.Device, error) {
	return s.Devices.FindByID(ctx, orgID, id)
}

// ListDevices returns a page of devices
func (s *Service) ListDevices(ctx context.Context, orgID uuid.UUID, filter shared.Filter) (shared.Paginated[plant.Device], error) {
	items, total, err := s.Devices.List(ctx, orgID, filter)
	if err != nil {
		return shared.Paginated[plant.Device]{}, err
	}
	filter = filter.Normalize()
	return shared.NewPaginated(items, total, filter.Page, filter.PageSize), nil
}

// UpdateDevice changes name and type
func (s *Service) UpdateDevice(ctx context.Context, orgID, id uuid.UUID, req UpdateDeviceRequest) (*plant.Device, error) {
	d, err := s.Devices.FindByID(ctx, orgID, id)
	if err != nil {
		return nil, err
	}
	if req.Version != 0 && d.Version != req.Version {
		return nil, shared.ErrConcurrencyConflict
	}
	if err := d.Update(req.Name, plant.DeviceType(req.DeviceType)); err != nil {
		return nil, err
	}
	if err := s.Devices.Update(ctx, d); err != nil {
		return nil, err
	}
	return d, nil
}

// SetDeviceStatus enables or disables ingestion for a device
func (s *Service) SetDeviceStatus(ctx context.Context, orgID, id uuid.UUID, req DeviceStatusRequest) (*plant.Device, error) {
	d, err := s.Devices.FindByID(ctx, orgID, id)
	if err != nil {
		return nil, err
	}
	if err := d.SetStatus(plant.DeviceStatus(req.Status)); err != nil {
		return nil, err
	}
	if err := s.Devices.Update(ctx, d); err != nil {
		return nil, err
	}
	logger.L(ctx).Info("plant device status changed",
		zap.String("device_id", d.ID.String()),
		zap.String("status", string(d.Status)))
	return d, nil
}

// DeleteDevice removes a device; its readings stay for reporting
func (s *Service) DeleteDevice(ctx context.Context, orgID, id uuid.UUID) error {
	return s.Devices.Delete(ctx, orgID, id)
}

// AuthenticateDevice resolves the device presenting apiKey. Unknown or
// wrong keys are UNAUTHORIZED, disabled devices FORBIDDEN.
func (s *Service) AuthenticateDevice(ctx context.Context, apiKey string) (*plant.Device, error) {
	prefix, secret, err := auth.SplitDeviceKey(apiKey)
	if err != nil {
		return nil, shared.ErrUnauthorized
	}
	d, err := s.Devices.FindByKeyPrefix(ctx, prefix)
	if errors.Is(err, shared.ErrNotFound) {
		return nil, shared.ErrUnauthorized
	}
	if err != nil {
		return nil, err
	}
	if !auth.VerifyDeviceSecret(d.APIKeyHash, secret) {
		return nil, shared.ErrUnauthorized
	}
	if err := d.CheckActive(); err != nil {
		return nil, err
	}
	return d, nil
}

// Ingest stores a batch pushed by d and refreshes its cached latest reading
func (s *Service) Ingest(ctx context.Context, d *plant.Device, req IngestRequest) (*IngestResult, error) {
	now := s.now().UTC()
	readings, err := plant.NewReadings(d, req.samples(), now)
	if err != nil {
		return nil, err
	}
	err = s.Tx.InTx(ctx, func(ctx context.Context) error {
		if err := s.Readings.CreateBatch(ctx, readings); err != nil {
			return err
		}
		return s.Devices.Touch(ctx, d.ID, now)
	})
	if err != nil {
		return nil, err
	}

	newest := plant.Newest(readings)
	s.refreshLatest(ctx, newest)
	if s.Observer != nil {
		s.Observer.ReadingsIngested(len(readings))
	}
	logger.L(ctx).Debug("telemetry ingested",
		zap.String("device_id", d.ID.String()),
		zap.Int("readings", len(readings)))
	return &IngestResult{Accepted: len(readings), LastRecordedAt: newest.RecordedAt}, nil
}

func latestKey(orgID, deviceID uuid.UUID) string {
	return orgID.String() + ":" + deviceID.String()
}

// refreshLatest replaces the cached reading unless the cache holds a newer
// one, which happens when batches arrive out of order
func (s *Service) refreshLatest(ctx context.Context, r *plant.Reading) {
	if s.Cache == nil || r == nil {
		return
	}
	key := latestKey(r.OrganizationID, r.DeviceID)
	if _, err := s.Cache.SetIfNewer(ctx, key, r, r.RecordedAt.UnixMicro()); err != nil {
		logger.L(ctx).Warn("failed to cache latest reading", zap.String("device_id", r.DeviceID.String()), zap.Error(err))
	}
}

// Latest returns the newest reading of a device, from the cache when
// possible and from the database otherwise
func (s *Service) Latest(ctx context.Context, orgID, deviceID uuid.UUID) (*plant.Reading, error) {
	if s.Cache != nil {
		r, ok, err := s.Cache.Get(ctx, latestKey(orgID, deviceID))
		if err != nil {
			logger.L(ctx).Warn("latest reading cache unavailable", zap.Error(err))
		}
		if ok {
			return r, nil
		}
	}
	if _, err := s.Devices.FindByID(ctx, orgID, deviceID); err != nil {
		return nil, err
	}
	r, err := s.Readings.Latest(ctx, orgID, deviceID)
	if err != nil {
		return nil, err
	}
	s.refreshLatest(ctx, r)
	return r, nil
}

// Range returns the readings of a device in [From, To), oldest first. To
// defaults to now and Limit to 1000.
func (s *Service) Range(ctx context.Context, orgID, deviceID uuid.UUID, q RangeQuery) ([]plant.Reading, error) {
	if q.To.IsZero() {
		q.To = s.now().UTC()
	}
	var v shared.ValidationError
	v.Check(!q.From.IsZero(), "from", "is required")
	v.Check(q.To.After(q.From), "to", "must be after from")
	v.Check(q.Limit >= 0 && q.Limit <= maxRangeLimit, "limit", "must be between 1 and %d", maxRangeLimit)
	if err := v.Err(); err != nil {
		return nil, err
	}
	if q.Limit == 0 {
		q.Limit = defaultRangeLimit
	}
	if _, err := s.Devices.FindByID(ctx, orgID, deviceID); err != nil {
		return nil, err
	}
	return s.Readings.Range(ctx, orgID, deviceID, q.From, q.To, q.Limit)
}
