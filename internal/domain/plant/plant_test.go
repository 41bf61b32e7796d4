package plant

import (
	"testing"
	"time"

	"github.com/drymix/erp/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newDevice(t *testing.T) *Device {
	t.Helper()
	d, err := NewDevice(uuid.New(), uuid.New(), " mx-01 ", "Mixer 1", DeviceMixer, "dk_abc", "hash")
	require.NoError(t, err)
	return d
}

func metrics(names ...string) []Metric {
	out := make([]Metric, len(names))
	for i, n := range names {
		out[i] = Metric{Name: n, Value: decimal.NewFromInt(int64(i)), Unit: "kg"}
	}
	return out
}

func TestNewDevice(t *testing.T) {
	d := newDevice(t)
	assert.Equal(t, "MX-01", d.DeviceCode)
	assert.Equal(t, DeviceActive, d.Status)

	_, err := NewDevice(uuid.New(), uuid.New(), "X", "X", "kiln", "p", "h")
	assert.Equal(t, shared.CodeValidation, shared.ErrorCode(err))
	_, err = NewDevice(uuid.New(), uuid.Nil, "X", "X", DeviceSilo, "p", "h")
	assert.Equal(t, shared.CodeValidation, shared.ErrorCode(err))

	assert.Error(t, d.SetStatus("broken"))
	require.NoError(t, d.SetStatus(DeviceDisabled))
	assert.Equal(t, shared.CodeForbidden, shared.ErrorCode(d.CheckActive()))
}

func TestNewReadings(t *testing.T) {
	d := newDevice(t)
	now := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)

	readings, err := NewReadings(d, []Sample{
		{RecordedAt: now.Add(-time.Minute), Metrics: metrics("temp", "load")},
		{RecordedAt: now.Add(-time.Hour), Metrics: metrics("temp")},
		{RecordedAt: now.Add(4 * time.Minute), Metrics: metrics("temp")},
	}, now)
	require.NoError(t, err)
	require.Len(t, readings, 3)
	assert.True(t, readings[0].RecordedAt.Equal(now.Add(-time.Hour)), "sorted by time")
	assert.Equal(t, d.ID, readings[0].DeviceID)
	assert.Equal(t, d.OrganizationID, readings[0].OrganizationID)
	assert.Len(t, readings[1].Metrics.Data(), 2)
	assert.True(t, Newest(readings).RecordedAt.Equal(now.Add(4*time.Minute)))
	assert.Nil(t, Newest(nil))

	_, err = NewReadings(d, []Sample{{RecordedAt: now.Add(6 * time.Minute), Metrics: metrics("temp")}}, now)
	var verr *shared.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, err.Error(), "readings[0].recorded_at")

	_, err = NewReadings(d, []Sample{{RecordedAt: now, Metrics: metrics("temp", "temp")}}, now)
	assert.Equal(t, shared.CodeValidation, shared.ErrorCode(err))

	_, err = NewReadings(d, nil, now)
	assert.Equal(t, shared.CodeValidation, shared.ErrorCode(err))

	big := make([]Sample, MaxBatch+1)
	for i := range big {
		big[i] = Sample{RecordedAt: now, Metrics: metrics("temp")}
	}
	_, err = NewReadings(d, big, now)
	assert.Equal(t, shared.CodeValidation, shared.ErrorCode(err))
	_, err = NewReadings(d, big[:MaxBatch], now)
	assert.NoError(t, err)

	require.NoError(t, d.SetStatus(DeviceDisabled))
	_, err = NewReadings(d, big[:1], now)
	assert.Equal(t, shared.CodeForbidden, shared.ErrorCode(err))
}
