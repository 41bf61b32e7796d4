// Package scheduler runs recurring background jobs on a cron schedule.
// Each run takes a named lock first so a job fires on one instance even
// when several servers share the schedule.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/drymix/erp/internal/infrastructure/telemetry"
	"github.com/robfig/cron/v3"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// Job is a named unit of recurring work
type Job struct {
	Name string
	Spec string // cron expression with a leading seconds field
	Run  func(ctx context.Context) error
}

// Observer receives the outcome of every job run
type Observer interface {
	JobFinished(job string, elapsed time.Duration, err error)
}

// Config holds scheduler settings
type Config struct {
	LockTTL    time.Duration
	JobTimeout time.Duration
	KeyPrefix  string
}

// DefaultConfig returns default scheduler configuration
func DefaultConfig() Config {
	return Config{
		LockTTL:    10 * time.Minute,
		JobTimeout: 5 * time.Minute,
		KeyPrefix:  "erp:job:",
	}
}

// JobStats summarizes the runs of one job since start
type JobStats struct {
	Name         string        `json:"name"`
	Spec         string        `json:"spec"`
	Runs         int           `json:"runs"`
	Failures     int           `json:"failures"`
	Skipped      int           `json:"skipped"`
	LastRunAt    *time.Time    `json:"last_run_at,omitempty"`
	LastDuration time.Duration `json:"last_duration"`
	LastError    string        `json:"last_error,omitempty"`
	NextRunAt    *time.Time    `json:"next_run_at,omitempty"`
}

type entry struct {
	job   Job
	id    cron.EntryID
	stats JobStats
}

// Scheduler manages background jobs using cron scheduling
type Scheduler struct {
	cron     *cron.Cron
	config   Config
	locker   Locker
	observer Observer
	logger   *zap.Logger

	mu   sync.Mutex
	jobs map[string]*entry
}

// NewScheduler creates a new scheduler. A nil locker falls back to a
// process-local one.
func NewScheduler(config Config, locker Locker, logger *zap.Logger) (*Scheduler, error) {
	if config.LockTTL <= 0 || config.JobTimeout <= 0 {
		return nil, fmt.Errorf("%w: lock ttl and job timeout must be positive", ErrInvalidConfig)
	}
	if config.JobTimeout > config.LockTTL {
		return nil, fmt.Errorf("%w: job timeout %s exceeds lock ttl %s", ErrInvalidConfig, config.JobTimeout, config.LockTTL)
	}
	if locker == nil {
		locker = NewLocalLocker()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	cronLog := cronLogger{logger.Named("cron")}
	return &Scheduler{
		cron: cron.New(cron.WithSeconds(), cron.WithChain(
			cron.SkipIfStillRunning(cronLog),
			cron.Recover(cronLog),
		)),
		config: config,
		locker: locker,
		logger: logger,
		jobs:   make(map[string]*entry),
	}, nil
}

// SetObserver attaches a run observer, typically the metrics registry
func (s *Scheduler) SetObserver(o Observer) {
	s.mu.Lock()
	s.observer = o
	s.mu.Unlock()
}

// Register adds a job to the schedule
func (s *Scheduler) Register(job Job) error {
	if job.Name == "" || job.Run == nil {
		return fmt.Errorf("%w: job needs a name and a run func", ErrInvalidConfig)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.jobs[job.Name]; exists {
		return fmt.Errorf("%w: %s", ErrJobExists, job.Name)
	}
	name := job.Name
	id, err := s.cron.AddFunc(job.Spec, func() {
		_ = s.run(context.Background(), name)
	})
	if err != nil {
		return fmt.Errorf("failed to add job %s: %w", name, err)
	}
	s.jobs[name] = &entry{job: job, id: id, stats: JobStats{Name: name, Spec: job.Spec}}
	s.logger.Info("Added scheduled job", zap.String("job_name", name), zap.String("cron_expr", job.Spec))
	return nil
}

// Remove drops a job from the schedule
func (s *Scheduler) Remove(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.jobs[name]
	if !ok {
		return fmt.Errorf("%w: %s", ErrJobNotFound, name)
	}
	s.cron.Remove(e.id)
	delete(s.jobs, name)
	return nil
}

// Start starts the cron loop
func (s *Scheduler) Start() {
	s.logger.Info("Starting job scheduler", zap.Int("jobs", len(s.jobs)))
	s.cron.Start()
}

// Stop stops the cron loop and waits for running jobs or ctx
func (s *Scheduler) Stop(ctx context.Context) error {
	s.logger.Info("Stopping job scheduler")
	done := s.cron.Stop()
	select {
	case <-done.Done():
		return nil
	case <-ctx.Done():
		s.logger.Warn("Job scheduler stop timed out")
		return ctx.Err()
	}
}

// RunNow runs a job immediately under the same lock as scheduled runs.
// ErrLockNotObtained means another run is in progress.
func (s *Scheduler) RunNow(ctx context.Context, name string) error {
	return s.run(ctx, name)
}

// Stats returns per-job run statistics ordered by name
func (s *Scheduler) Stats() []JobStats {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]JobStats, 0, len(s.jobs))
	for _, e := range s.jobs {
		st := e.stats
		if next := s.cron.Entry(e.id).Next; !next.IsZero() {
			st.NextRunAt = &next
		}
		out = append(out, st)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func (s *Scheduler) run(parent context.Context, name string) error {
	s.mu.Lock()
	e, ok := s.jobs[name]
	s.mu.Unlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrJobNotFound, name)
	}
	log := s.logger.With(zap.String("job_name", name))

	lock, err := s.locker.Obtain(parent, s.config.KeyPrefix+name, s.config.LockTTL)
	if err != nil {
		if errors.Is(err, ErrLockNotObtained) {
			s.record(name, func(st *JobStats) { st.Skipped++ })
			log.Debug("Job skipped, lock held elsewhere")
		} else {
			log.Error("Failed to obtain job lock", zap.Error(err))
		}
		return err
	}
	defer func() {
		if err := lock.Release(context.Background()); err != nil {
			log.Warn("Failed to release job lock", zap.Error(err))
		}
	}()

	ctx, cancel := context.WithTimeout(parent, s.config.JobTimeout)
	defer cancel()

	ctx, span := telemetry.StartSpan(ctx, "job "+name,
		trace.WithNewRoot(), trace.WithAttributes(attribute.String("job.name", name)))
	started := time.Now()
	log.Info("Running scheduled job")
	err = e.job.Run(ctx)
	elapsed := time.Since(started)
	telemetry.EndSpan(span, err)

	s.record(name, func(st *JobStats) {
		st.Runs++
		st.LastRunAt = &started
		st.LastDuration = elapsed
		st.LastError = ""
		if err != nil {
			st.Failures++
			st.LastError = err.Error()
		}
	})
	s.mu.Lock()
	obs := s.observer
	s.mu.Unlock()
	if obs != nil {
		obs.JobFinished(name, elapsed, err)
	}

	if err != nil {
		log.Error("Scheduled job failed", zap.Duration("elapsed", elapsed), zap.Error(err))
		return err
	}
	log.Info("Completed scheduled job", zap.Duration("elapsed", elapsed))
	return nil
}

func (s *Scheduler) record(name string, fn func(*JobStats)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok := s.jobs[name]; ok {
		fn(&e.stats)
	}
}

// cronLogger adapts zap to cron.Logger
type cronLogger struct{ l *zap.Logger }

func (c cronLogger) Info(msg string, keysAndValues ...any) {
	c.l.Sugar().Debugw(msg, keysAndValues...)
}

func (c cronLogger) Error(err error, msg string, keysAndValues ...any) {
	c.l.Sugar().Errorw(msg, append(keysAndValues, "error", err)...)
}
