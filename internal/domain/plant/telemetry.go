package plant

import (
	"fmt"
	"sort"
	"time"

	"github.com/drymix/erp/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

const (
	// MaxBatch is the most readings one ingest call may carry
	MaxBatch = 500
	// MaxClockSkew is how far in the future a reading may be stamped
	MaxClockSkew = 5 * time.Minute
)

// Metric is one measured value
type Metric struct {
	Name  string          `json:"name"`
	Value decimal.Decimal `json:"value"`
	Unit  string          `json:"unit,omitempty"`
}

// Reading is the set of metrics a device reported at one instant
type Reading struct {
	ID             uuid.UUID                    `gorm:"type:uuid;primaryKey" json:"id"`
	OrganizationID uuid.UUID                    `gorm:"type:uuid;not null;index" json:"organization_id"`
	DeviceID       uuid.UUID                    `gorm:"type:uuid;not null;index:idx_telemetry_readings_device_time,priority:1" json:"device_id"`
	RecordedAt     time.Time                    `gorm:"not null;index:idx_telemetry_readings_device_time,priority:2,sort:desc" json:"recorded_at"`
	Metrics        datatypes.JSONType[[]Metric] `gorm:"type:jsonb;not null" json:"metrics"`
	ReceivedAt     time.Time                    `gorm:"not null" json:"received_at"`
}

// TableName returns the table name for GORM
func (Reading) TableName() string {
	return "telemetry_readings"
}

// Sample is a reading as submitted by a device
type Sample struct {
	RecordedAt time.Time
	Metrics    []Metric
}

// NewReadings validates a batch pushed by d at now and turns it into
// readings ordered by RecordedAt. Every problem is reported with the index
// of the offending sample.
func NewReadings(d *Device, samples []Sample, now time.Time) ([]Reading, error) {
	if err := d.CheckActive(); err != nil {
		return nil, err
	}
	var v shared.ValidationError
	switch {
	case len(samples) == 0:
		v.Add("readings", "at least one reading is required")
	case len(samples) > MaxBatch:
		v.Add("readings", "at most %d readings per call, got %d", MaxBatch, len(samples))
	}
	if err := v.Err(); err != nil {
		return nil, err
	}

	limit := now.Add(MaxClockSkew)
	out := make([]Reading, 0, len(samples))
	for i, s := range samples {
		field := fmt.Sprintf("readings[%d]", i)
		v.Check(!s.RecordedAt.IsZero(), field+".recorded_at", "is required")
		v.Check(!s.RecordedAt.After(limit), field+".recorded_at", "is more than %s in the future", MaxClockSkew)
		v.Check(len(s.Metrics) > 0, field+".metrics", "at least one metric is required")
		seen := make(map[string]bool, len(s.Metrics))
		for j, m := range s.Metrics {
			v.CheckText(fmt.Sprintf("%s.metrics[%d].name", field, j), m.Name, 100)
			v.Check(!seen[m.Name], fmt.Sprintf("%s.metrics[%d].name", field, j), "duplicate metric %q", m.Name)
			seen[m.Name] = true
		}
		out = append(out, Reading{
			ID:             uuid.New(),
			OrganizationID: d.OrganizationID,
			DeviceID:       d.ID,
			RecordedAt:     s.RecordedAt.UTC(),
			Metrics:        datatypes.NewJSONType(s.Metrics),
			ReceivedAt:     now,
		})
	}
	if err := v.Err(); err != nil {
		return nil, err
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].RecordedAt.Before(out[j].RecordedAt) })
	return out, nil
}

// Newest returns the most recent of readings, nil when empty
func Newest(readings []Reading) *Reading {
	var best *Reading
	for i := range readings {
		if best == nil || readings[i].RecordedAt.After(best.RecordedAt) {
			best = &readings[i]
		}
	}
	return best
}
