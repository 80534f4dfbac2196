// Package scheduler runs periodic jobs on cron schedules with an overlap guard.
//
// Jobs are plain functions of (ctx, now) so they can be exercised directly in
// tests without waiting on a schedule.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/robfig/cron/v3"
)

// Job is one unit of scheduled work.
type Job func(ctx context.Context, now time.Time) error

// Locker is a cross-instance mutual exclusion primitive. TryLock returns a
// release func when the lock was acquired.
type Locker interface {
	TryLock(ctx context.Context, name string, ttl time.Duration) (release func(), ok bool, err error)
}

type Scheduler struct {
	cron    *cron.Cron
	logger  *slog.Logger
	locker  Locker
	clock   func() time.Time
	timeout time.Duration
	runs    *prometheus.CounterVec

	mu      sync.Mutex
	running map[string]*atomic.Bool
	baseCtx context.Context
	cancel  context.CancelFunc
}

type Option func(*Scheduler)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Scheduler) { s.logger = logger }
}

// WithLocker enables the distributed overlap guard.
func WithLocker(l Locker) Option {
	return func(s *Scheduler) { s.locker = l }
}

func WithClock(clock func() time.Time) Option {
	return func(s *Scheduler) { s.clock = clock }
}

// WithJobTimeout bounds each run; the default is one hour.
func WithJobTimeout(d time.Duration) Option {
	return func(s *Scheduler) { s.timeout = d }
}

// WithRegisterer selects where job run counters are registered.
func WithRegisterer(reg prometheus.Registerer) Option {
	return func(s *Scheduler) { s.runs = newRunCounter(reg) }
}

func New(opts ...Option) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())
	s := &Scheduler{
		cron:    cron.New(),
		logger:  slog.Default(),
		clock:   time.Now,
		timeout: time.Hour,
		running: make(map[string]*atomic.Bool),
		baseCtx: ctx,
		cancel:  cancel,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.runs == nil {
		s.runs = newRunCounter(prometheus.DefaultRegisterer)
	}
	return s
}

func newRunCounter(reg prometheus.Registerer) *prometheus.CounterVec {
	return promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
		Name: "welfarehub_scheduler_job_runs_total",
		Help: "Scheduled job runs by job name and outcome",
	}, []string{"job", "outcome"})
}

// Add registers job under a standard five-field cron spec.
func (s *Scheduler) Add(name, spec string, job Job) error {
	s.mu.Lock()
	s.running[name] = &atomic.Bool{}
	s.mu.Unlock()
	if _, err := s.cron.AddFunc(spec, func() { s.RunNow(s.baseCtx, name, job) }); err != nil {
		return fmt.Errorf("schedule %s: %w", name, err)
	}
	return nil
}

// RunNow executes job immediately under the same guards as a scheduled run.
// It reports whether the job actually ran.
func (s *Scheduler) RunNow(ctx context.Context, name string, job Job) bool {
	flag := s.flag(name)
	if !flag.CompareAndSwap(false, true) {
		s.logger.WarnContext(ctx, "job still running, skipping", "job", name)
		s.runs.WithLabelValues(name, "skipped").Inc()
		return false
	}
	defer flag.Store(false)

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	if s.locker != nil {
		release, ok, err := s.locker.TryLock(ctx, "job:"+name, s.timeout)
		if err != nil {
			s.logger.WarnContext(ctx, "job lock unavailable, running unguarded", "job", name, "error", err)
		} else if !ok {
			s.logger.InfoContext(ctx, "job held by another instance, skipping", "job", name)
			s.runs.WithLabelValues(name, "skipped").Inc()
			return false
		} else {
			defer release()
		}
	}

	start := s.clock()
	s.logger.InfoContext(ctx, "job started", "job", name)
	if err := job(ctx, start); err != nil {
		s.logger.ErrorContext(ctx, "job failed", "job", name, "error", err, "duration", time.Since(start))
		s.runs.WithLabelValues(name, "failed").Inc()
		return true
	}
	s.logger.InfoContext(ctx, "job finished", "job", name, "duration", time.Since(start))
	s.runs.WithLabelValues(name, "succeeded").Inc()
	return true
}

func (s *Scheduler) flag(name string) *atomic.Bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	f, ok := s.running[name]
	if !ok {
		f = &atomic.Bool{}
		s.running[name] = f
	}
	return f
}

func (s *Scheduler) Start() {
	s.cron.Start()
	s.logger.Info("scheduler started", "jobs", len(s.cron.Entries()))
}

// Stop halts the schedule, cancels in-flight jobs and waits for them or ctx.
func (s *Scheduler) Stop(ctx context.Context) {
	stopCtx := s.cron.Stop()
	s.cancel()
	select {
	case <-stopCtx.Done():
	case <-ctx.Done():
	}
	s.logger.Info("scheduler stopped")
}
