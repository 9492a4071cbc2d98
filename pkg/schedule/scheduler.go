package schedule

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// Job is run on its schedule with a context cancelled by Stop.
type Job func(ctx context.Context)

// Scheduler runs named jobs on cron schedules. A job's schedule can be
// replaced at any time, which is how reloaded schedules take effect.
type Scheduler struct {
	mu      sync.Mutex
	cron    *cron.Cron
	entries map[string]scheduled
	logger  *slog.Logger
	running bool

	ctx    context.Context
	cancel context.CancelFunc
}

type scheduled struct {
	spec string
	id   cron.EntryID
}

// New creates a stopped scheduler.
func New(logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		cron:    cron.New(),
		entries: make(map[string]scheduled),
		logger:  logger.With("component", "schedule"),
		ctx:     ctx,
		cancel:  cancel,
	}
}

// Parse validates a standard five-field cron expression. Empty means
// unscheduled.
func Parse(spec string) error {
	if spec == "" {
		return nil
	}
	if _, err := cron.ParseStandard(spec); err != nil {
		return fmt.Errorf("invalid cron schedule %q: %w", spec, err)
	}
	return nil
}

// Set schedules job under name, replacing any previous schedule of that
// name. An empty spec removes the job. Setting the same spec again is a
// no-op.
func (s *Scheduler) Set(name, spec string, job Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev, exists := s.entries[name]
	if exists && prev.spec == spec {
		return nil
	}
	if spec == "" {
		if exists {
			s.cron.Remove(prev.id)
			delete(s.entries, name)
			s.logger.Info("job unscheduled", "job", name)
		}
		return nil
	}

	sched, err := cron.ParseStandard(spec)
	if err != nil {
		return fmt.Errorf("invalid cron schedule %q: %w", spec, err)
	}
	id := s.cron.Schedule(sched, cron.FuncJob(func() { s.run(name, job) }))
	if exists {
		s.cron.Remove(prev.id)
	}
	s.entries[name] = scheduled{spec: spec, id: id}
	s.logger.Info("job scheduled", "job", name, "schedule", spec)
	return nil
}

func (s *Scheduler) run(name string, job Job) {
	start := time.Now()
	s.logger.Debug("running scheduled job", "job", name)
	job(s.ctx)
	s.logger.Debug("scheduled job finished", "job", name, "duration", time.Since(start))
}

// Remove unschedules name.
func (s *Scheduler) Remove(name string) {
	_ = s.Set(name, "", nil)
}

// Start begins running jobs.
func (s *Scheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		s.cron.Start()
		s.running = true
	}
}

// Stop stops the scheduler and waits for running jobs until ctx is done.
func (s *Scheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = false
	done := s.cron.Stop()
	s.mu.Unlock()

	select {
	case <-done.Done():
		return nil
	case <-ctx.Done():
		s.cancel()
		return ctx.Err()
	}
}

// IsRunning returns true if the scheduler is running.
func (s *Scheduler) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// Spec returns the schedule of name, or "" when unscheduled.
func (s *Scheduler) Spec(name string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.entries[name].spec
}

// NextRun returns the next scheduled run of name, or the zero time.
func (s *Scheduler) NextRun(name string) time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[name]
	if !ok {
		return time.Time{}
	}
	return s.cron.Entry(e.id).Next
}
