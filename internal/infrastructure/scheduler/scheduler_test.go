package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"
)

type observedRun struct {
	job string
	err error
}

type recordingObserver struct {
	mu   sync.Mutex
	runs []observedRun
}

func (o *recordingObserver) JobFinished(job string, _ time.Duration, err error) {
	o.mu.Lock()
	o.runs = append(o.runs, observedRun{job: job, err: err})
	o.mu.Unlock()
}

func newTestScheduler(t *testing.T, locker Locker) *Scheduler {
	t.Helper()
	s, err := NewScheduler(Config{LockTTL: time.Minute, JobTimeout: time.Second, KeyPrefix: "test:"}, locker, zap.NewNop())
	require.NoError(t, err)
	return s
}

func TestNewScheduler_Config(t *testing.T) {
	_, err := NewScheduler(Config{LockTTL: time.Second, JobTimeout: time.Minute}, nil, nil)
	assert.ErrorIs(t, err, ErrInvalidConfig)

	_, err = NewScheduler(Config{}, nil, nil)
	assert.ErrorIs(t, err, ErrInvalidConfig)

	s, err := NewScheduler(DefaultConfig(), nil, nil)
	require.NoError(t, err)
	assert.NotNil(t, s)
}

func TestScheduler_Register(t *testing.T) {
	s := newTestScheduler(t, nil)
	noop := func(context.Context) error { return nil }

	require.NoError(t, s.Register(Job{Name: "credit-refresh", Spec: "0 30 1 * * *", Run: noop}))
	assert.ErrorIs(t, s.Register(Job{Name: "credit-refresh", Spec: "0 0 8 * * *", Run: noop}), ErrJobExists)
	assert.Error(t, s.Register(Job{Name: "bad", Spec: "not a cron", Run: noop}))
	assert.ErrorIs(t, s.Register(Job{Name: "", Spec: "@daily", Run: noop}), ErrInvalidConfig)

	stats := s.Stats()
	require.Len(t, stats, 1)
	assert.Equal(t, "credit-refresh", stats[0].Name)

	require.NoError(t, s.Remove("credit-refresh"))
	assert.ErrorIs(t, s.Remove("credit-refresh"), ErrJobNotFound)
	assert.Empty(t, s.Stats())
}

func TestScheduler_RunNow(t *testing.T) {
	s := newTestScheduler(t, nil)
	obs := &recordingObserver{}
	s.SetObserver(obs)

	calls := 0
	boom := errors.New("boom")
	require.NoError(t, s.Register(Job{Name: "reminders", Spec: "@daily", Run: func(ctx context.Context) error {
		calls++
		_, hasDeadline := ctx.Deadline()
		assert.True(t, hasDeadline)
		if calls == 2 {
			return boom
		}
		return nil
	}}))

	ctx := context.Background()
	require.NoError(t, s.RunNow(ctx, "reminders"))
	assert.ErrorIs(t, s.RunNow(ctx, "reminders"), boom)
	assert.ErrorIs(t, s.RunNow(ctx, "missing"), ErrJobNotFound)

	st := s.Stats()[0]
	assert.Equal(t, 2, st.Runs)
	assert.Equal(t, 1, st.Failures)
	assert.Equal(t, "boom", st.LastError)
	require.NotNil(t, st.LastRunAt)

	require.Len(t, obs.runs, 2)
	assert.NoError(t, obs.runs[0].err)
	assert.ErrorIs(t, obs.runs[1].err, boom)
}

func TestScheduler_SkipsWhenLocked(t *testing.T) {
	locker := NewLocalLocker()
	s := newTestScheduler(t, locker)

	ran := false
	require.NoError(t, s.Register(Job{Name: "sweep", Spec: "@hourly", Run: func(context.Context) error {
		ran = true
		return nil
	}}))

	ctx := context.Background()
	held, err := locker.Obtain(ctx, "test:sweep", time.Minute)
	require.NoError(t, err)

	assert.ErrorIs(t, s.RunNow(ctx, "sweep"), ErrLockNotObtained)
	assert.False(t, ran)
	assert.Equal(t, 1, s.Stats()[0].Skipped)

	require.NoError(t, held.Release(ctx))
	require.NoError(t, s.RunNow(ctx, "sweep"))
	assert.True(t, ran)
}

func TestScheduler_JobTimeout(t *testing.T) {
	s := newTestScheduler(t, nil)
	require.NoError(t, s.Register(Job{Name: "slow", Spec: "@daily", Run: func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	}}))
	assert.ErrorIs(t, s.RunNow(context.Background(), "slow"), context.DeadlineExceeded)
}

func TestScheduler_Cron(t *testing.T) {
	s := newTestScheduler(t, nil)
	fired := make(chan struct{}, 1)
	require.NoError(t, s.Register(Job{Name: "tick", Spec: "* * * * * *", Run: func(context.Context) error {
		select {
		case fired <- struct{}{}:
		default:
		}
		return nil
	}}))

	s.Start()
	select {
	case <-fired:
	case <-time.After(3 * time.Second):
		t.Fatal("job did not fire")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, s.Stop(ctx))
}

func TestLocalLocker_Expiry(t *testing.T) {
	l := NewLocalLocker()
	now := time.Date(2026, 6, 30, 12, 0, 0, 0, time.UTC)
	l.clock = func() time.Time { return now }
	ctx := context.Background()

	_, err := l.Obtain(ctx, "k", time.Minute)
	require.NoError(t, err)
	_, err = l.Obtain(ctx, "k", time.Minute)
	assert.ErrorIs(t, err, ErrLockNotObtained)

	now = now.Add(2 * time.Minute)
	_, err = l.Obtain(ctx, "k", time.Minute)
	assert.NoError(t, err)
}

func TestRedisLocker(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping Redis container test in short mode")
	}
	testcontainers.SkipIfProviderIsNotHealthy(t)

	ctx := context.Background()
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForLog("Ready to accept connections"),
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "6379")
	require.NoError(t, err)
	client := redis.NewClient(&redis.Options{Addr: fmt.Sprintf("%s:%d", host, port.Int())})
	t.Cleanup(func() { _ = client.Close() })

	a := NewRedisLocker(client)
	b := NewRedisLocker(client)

	lock, err := a.Obtain(ctx, "job:credit-refresh", time.Minute)
	require.NoError(t, err)
	_, err = b.Obtain(ctx, "job:credit-refresh", time.Minute)
	assert.ErrorIs(t, err, ErrLockNotObtained)

	require.NoError(t, lock.Release(ctx))
	require.NoError(t, lock.Release(ctx))

	again, err := b.Obtain(ctx, "job:credit-refresh", time.Minute)
	require.NoError(t, err)
	require.NoError(t, again.Release(ctx))
}
