package plant

import (
	"time"

	"github.com/drymix/erp/internal/domain/plant"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// RegisterDeviceRequest registers a device on a manufacturing unit
type RegisterDeviceRequest struct {
	ManufacturingUnitID uuid.UUID `json:"manufacturing_unit_id" binding:"required"`
	DeviceCode          string    `json:"device_code" binding:"required,max=50"`
	Name                string    `json:"name" binding:"required,max=200"`
	DeviceType          string    `json:"device_type" binding:"required,oneof=mixer silo dryer packer weighbridge sensor"`
}

// UpdateDeviceRequest changes the descriptive fields of a device
type UpdateDeviceRequest struct {
	Name       string `json:"name" binding:"required,max=200"`
	DeviceType string `json:"device_type" binding:"required,oneof=mixer silo dryer packer weighbridge sensor"`
	Version    int    `json:"version"`
}

// DeviceStatusRequest enables or disables a device
type DeviceStatusRequest struct {
	Status string `json:"status" binding:"required,oneof=active disabled"`
}

// DeviceCredentials carries the plain API key. It is returned once, on
// registration or rotation, and cannot be read back later.
type DeviceCredentials struct {
	Device *plant.Device `json:"device"`
	APIKey string        `json:"api_key"`
}

// MetricRequest is one measured value
type MetricRequest struct {
	Name  string          `json:"name" binding:"required,max=100"`
	Value decimal.Decimal `json:"value"`
	Unit  string          `json:"unit" binding:"max=20"`
}

// SampleRequest is one timestamped set of metrics
type SampleRequest struct {
	RecordedAt time.Time       `json:"recorded_at" binding:"required"`
	Metrics    []MetricRequest `json:"metrics" binding:"required,min=1,dive"`
}

// IngestRequest is a batch pushed by a device
type IngestRequest struct {
	Readings []SampleRequest `json:"readings" binding:"required,min=1,max=500,dive"`
}

func (r IngestRequest) samples() []plant.Sample {
	out := make([]plant.Sample, len(r.Readings))
	for i, s := range r.Readings {
		ms := make([]plant.Metric, len(s.Metrics))
		for j, m := range s.Metrics {
			ms[j] = plant.Metric{Name: m.Name, Value: m.Value, Unit: m.Unit}
		}
		out[i] = plant.Sample{RecordedAt: s.RecordedAt, Metrics: ms}
	}
	return out
}

// IngestResult acknowledges a batch
type IngestResult struct {
	Accepted       int       `json:"accepted"`
	LastRecordedAt time.Time `json:"last_recorded_at"`
}

// RangeQuery selects readings of one device in [From, To)
type RangeQuery struct {
	From  time.Time
	To    time.Time
	Limit int
}
