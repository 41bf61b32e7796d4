package plant

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/drymix/erp/internal/domain/inventory"
	"github.com/drymix/erp/internal/domain/plant"
	"github.com/drymix/erp/internal/domain/shared"
	"github.com/drymix/erp/internal/infrastructure/persistence"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

type mapCache struct {
	mu       sync.Mutex
	entries  map[string]plant.Reading
	versions map[string]int64
	gets     int
}

func (c *mapCache) Get(_ context.Context, key string) (*plant.Reading, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gets++
	r, ok := c.entries[key]
	if !ok {
		return nil, false, nil
	}
	return &r, true, nil
}

func (c *mapCache) SetIfNewer(_ context.Context, key string, r *plant.Reading, version int64) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if cur, ok := c.versions[key]; ok && cur >= version {
		return false, nil
	}
	c.entries[key] = *r
	c.versions[key] = version
	return true, nil
}

func (c *mapCache) flush() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = map[string]plant.Reading{}
	c.versions = map[string]int64{}
}

type counter struct{ n int }

func (c *counter) ReadingsIngested(n int) { c.n += n }

type fixture struct {
	svc   *Service
	cache *mapCache
	count *counter
	orgID uuid.UUID
	unit  *inventory.ManufacturingUnit
	now   time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, db.AutoMigrate(&inventory.ManufacturingUnit{}, &plant.Device{}, &plant.Reading{}))

	f := &fixture{
		cache: &mapCache{entries: map[string]plant.Reading{}, versions: map[string]int64{}},
		count: &counter{},
		orgID: uuid.New(),
		now:   time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC),
	}
	units := persistence.NewGormUnitRepository(db)
	f.unit, err = inventory.NewManufacturingUnit(f.orgID, "PLANT-1", "Main plant", "", decimal.NewFromInt(200))
	require.NoError(t, err)
	require.NoError(t, units.Create(context.Background(), f.unit))

	f.svc = NewService(Deps{
		Devices:  persistence.NewGormDeviceRepository(db),
		Readings: persistence.NewGormReadingRepository(db),
		Units:    units,
		Tx:       persistence.NewGormTxManager(db),
		Cache:    f.cache,
		Observer: f.count,
	})
	f.svc.now = func() time.Time { return f.now }
	return f
}

func (f *fixture) register(t *testing.T, code string) *DeviceCredentials {
	t.Helper()
	creds, err := f.svc.RegisterDevice(context.Background(), f.orgID, RegisterDeviceRequest{
		ManufacturingUnitID: f.unit.ID, DeviceCode: code, Name: "Mixer", DeviceType: "mixer",
	})
	require.NoError(t, err)
	return creds
}

func sample(at time.Time, temp int64) SampleRequest {
	return SampleRequest{RecordedAt: at, Metrics: []MetricRequest{
		{Name: "temperature", Value: decimal.NewFromInt(temp), Unit: "C"},
	}}
}

func TestDeviceRegistrationAndAuth(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	creds := f.register(t, "mx-01")
	assert.NotEmpty(t, creds.APIKey)
	assert.NotContains(t, creds.Device.APIKeyHash, creds.APIKey)

	_, err := f.svc.RegisterDevice(ctx, f.orgID, RegisterDeviceRequest{
		ManufacturingUnitID: f.unit.ID, DeviceCode: "MX-01", Name: "Dup", DeviceType: "mixer",
	})
	assert.Equal(t, shared.CodeAlreadyExists, shared.ErrorCode(err))

	_, err = f.svc.RegisterDevice(ctx, f.orgID, RegisterDeviceRequest{
		ManufacturingUnitID: uuid.New(), DeviceCode: "SILO-1", Name: "Silo", DeviceType: "silo",
	})
	assert.Equal(t, shared.CodeInvalidReference, shared.ErrorCode(err))

	d, err := f.svc.AuthenticateDevice(ctx, creds.APIKey)
	require.NoError(t, err)
	assert.Equal(t, creds.Device.ID, d.ID)

	for _, bad := range []string{"", "garbage", creds.Device.KeyPrefix + ".wrong", "dk_000000000000.secret"} {
		_, err = f.svc.AuthenticateDevice(ctx, bad)
		assert.ErrorIs(t, err, shared.ErrUnauthorized, bad)
	}

	rotated, err := f.svc.RotateKey(ctx, f.orgID, d.ID)
	require.NoError(t, err)
	_, err = f.svc.AuthenticateDevice(ctx, creds.APIKey)
	assert.ErrorIs(t, err, shared.ErrUnauthorized, "old key revoked")
	_, err = f.svc.AuthenticateDevice(ctx, rotated.APIKey)
	require.NoError(t, err)

	_, err = f.svc.SetDeviceStatus(ctx, f.orgID, d.ID, DeviceStatusRequest{Status: "disabled"})
	require.NoError(t, err)
	_, err = f.svc.AuthenticateDevice(ctx, rotated.APIKey)
	assert.Equal(t, shared.CodeForbidden, shared.ErrorCode(err))
}

func TestIngestAndQuery(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	creds := f.register(t, "MX-02")
	d := creds.Device

	res, err := f.svc.Ingest(ctx, d, IngestRequest{Readings: []SampleRequest{
		sample(f.now.Add(-2*time.Minute), 40),
		sample(f.now.Add(-1*time.Minute), 42),
		sample(f.now.Add(-3*time.Minute), 39),
	}})
	require.NoError(t, err)
	assert.Equal(t, 3, res.Accepted)
	assert.True(t, res.LastRecordedAt.Equal(f.now.Add(-time.Minute)))
	assert.Equal(t, 3, f.count.n)

	_, err = f.svc.Ingest(ctx, d, IngestRequest{Readings: []SampleRequest{sample(f.now.Add(10*time.Minute), 50)}})
	assert.Equal(t, shared.CodeValidation, shared.ErrorCode(err), "future timestamp")

	// a late batch does not replace the cached newer reading
	_, err = f.svc.Ingest(ctx, d, IngestRequest{Readings: []SampleRequest{sample(f.now.Add(-time.Hour), 10)}})
	require.NoError(t, err)

	latest, err := f.svc.Latest(ctx, f.orgID, d.ID)
	require.NoError(t, err)
	assert.True(t, latest.Metrics.Data()[0].Value.Equal(decimal.NewFromInt(42)))

	f.cache.flush()
	latest, err = f.svc.Latest(ctx, f.orgID, d.ID)
	require.NoError(t, err, "falls back to the database")
	assert.True(t, latest.RecordedAt.Equal(f.now.Add(-time.Minute)))
	assert.Len(t, f.cache.entries, 1, "fallback refills the cache")

	got, err := f.svc.Range(ctx, f.orgID, d.ID, RangeQuery{From: f.now.Add(-5 * time.Minute)})
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.True(t, got[0].RecordedAt.Before(got[1].RecordedAt))

	got, err = f.svc.Range(ctx, f.orgID, d.ID, RangeQuery{From: f.now.Add(-2 * time.Hour), Limit: 2})
	require.NoError(t, err)
	assert.Len(t, got, 2)

	_, err = f.svc.Range(ctx, f.orgID, d.ID, RangeQuery{})
	assert.Equal(t, shared.CodeValidation, shared.ErrorCode(err))

	_, err = f.svc.Latest(ctx, f.orgID, uuid.New())
	assert.Equal(t, shared.CodeNotFound, shared.ErrorCode(err))

	dev, err := f.svc.GetDevice(ctx, f.orgID, d.ID)
	require.NoError(t, err)
	require.NotNil(t, dev.LastSeenAt)
}

func TestRefreshLatestKeepsNewestUnderConcurrentBatches(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	deviceID := uuid.New()

	var wg sync.WaitGroup
	for i := 20; i >= 1; i-- {
		wg.Add(1)
		go func(minutes int) {
			defer wg.Done()
			f.svc.refreshLatest(ctx, &plant.Reading{
				ID:             uuid.New(),
				OrganizationID: f.orgID,
				DeviceID:       deviceID,
				RecordedAt:     f.now.Add(time.Duration(minutes) * time.Minute),
			})
		}(i)
	}
	wg.Wait()

	got, ok, err := f.cache.Get(ctx, latestKey(f.orgID, deviceID))
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, got.RecordedAt.Equal(f.now.Add(20*time.Minute)))
	assert.Equal(t, 1, f.cache.gets, "writes never read the cache first")
}
