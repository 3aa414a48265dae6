// Package scheduler runs background jobs (like the Plan Executor's stale-run
// reaper) on a fixed interval, independent of any single plan run's lifetime.
package scheduler

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Job is one unit of periodic work. A Job knows nothing about the
// Scheduler driving it — it is handed a context it must respect and
// reports any failure back for logging, never by panicking.
type Job interface {
	Name() string
	Run(ctx context.Context) error
}

// Scheduler drives a set of Jobs, each on its own ticker, until Stop is
// called or the context it was started with is cancelled.
type Scheduler struct {
	logger *slog.Logger

	mu   sync.Mutex
	jobs []*scheduledJob
	wg   sync.WaitGroup
}

type scheduledJob struct {
	job         Job
	interval    time.Duration
	runOnStart  bool
	trigger     chan struct{}
	stop        chan struct{}
	stopOnce    sync.Once
}

// New builds an empty Scheduler. Jobs are added with Add before Start.
func New(logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{logger: logger}
}

// Add registers job to run every interval, starting with the first tick
// after interval elapses unless runOnStart is set, in which case it also
// runs once immediately when Start is called.
func (s *Scheduler) Add(job Job, interval time.Duration, runOnStart bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs = append(s.jobs, &scheduledJob{
		job:        job,
		interval:   interval,
		runOnStart: runOnStart,
		trigger:    make(chan struct{}, 1),
		stop:       make(chan struct{}),
	})
}

// Trigger requests an immediate out-of-cycle run of the named job, without
// waiting for its interval to elapse. A no-op if the job name is unknown
// or already has a pending trigger.
func (s *Scheduler) Trigger(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, sj := range s.jobs {
		if sj.job.Name() == name {
			select {
			case sj.trigger <- struct{}{}:
			default:
			}
			return
		}
	}
}

// Start launches one goroutine per registered Job. Jobs added after Start
// has been called are not picked up; call Add for everything first.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	jobs := make([]*scheduledJob, len(s.jobs))
	copy(jobs, s.jobs)
	s.mu.Unlock()

	for _, sj := range jobs {
		s.wg.Add(1)
		go s.drive(ctx, sj)
	}
}

func (s *Scheduler) drive(ctx context.Context, sj *scheduledJob) {
	defer s.wg.Done()

	s.logger.Info("scheduler: job registered", "job", sj.job.Name(), "interval", sj.interval)

	if sj.runOnStart {
		s.runOnce(ctx, sj)
	}

	ticker := time.NewTicker(sj.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.runOnce(ctx, sj)
		case <-sj.trigger:
			s.runOnce(ctx, sj)
		case <-sj.stop:
			return
		case <-ctx.Done():
			return
		}
	}
}

func (s *Scheduler) runOnce(ctx context.Context, sj *scheduledJob) {
	s.logger.Debug("scheduler: running job", "job", sj.job.Name())
	if err := sj.job.Run(ctx); err != nil {
		s.logger.Error("scheduler: job failed", "job", sj.job.Name(), "error", err)
	}
}

// Stop signals every job's goroutine to exit and waits for them to do so.
// Safe to call more than once.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	jobs := make([]*scheduledJob, len(s.jobs))
	copy(jobs, s.jobs)
	s.mu.Unlock()

	for _, sj := range jobs {
		sj.stopOnce.Do(func() { close(sj.stop) })
	}
	s.wg.Wait()
	s.logger.Info("scheduler: stopped")
}
