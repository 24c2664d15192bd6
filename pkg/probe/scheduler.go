package probe

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// Scheduler runs a Prober on a cron schedule.
type Scheduler struct {
	prober   *Prober
	schedule string
	cron     *cron.Cron
	mu       sync.Mutex
	logger   *slog.Logger
	running  bool
}

// NewScheduler creates a scheduler for a standard five-field cron
// expression such as "*/30 * * * *".
func NewScheduler(prober *Prober, schedule string) *Scheduler {
	return &Scheduler{
		prober:   prober,
		schedule: schedule,
		cron:     cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger))),
		logger:   prober.logger.With("component", "probe.scheduler"),
	}
}

// Start schedules probe runs until ctx is cancelled or Stop is called. An
// empty schedule leaves the scheduler idle.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return nil
	}
	if s.schedule == "" {
		s.logger.Info("probe schedule not configured, skipping scheduler")
		return nil
	}

	if _, err := cron.ParseStandard(s.schedule); err != nil {
		return fmt.Errorf("invalid cron schedule %q: %w", s.schedule, err)
	}

	_, err := s.cron.AddFunc(s.schedule, func() {
		s.runProbe(ctx)
	})
	if err != nil {
		return fmt.Errorf("failed to schedule probe: %w", err)
	}

	s.cron.Start()
	s.running = true
	s.logger.Info("probe scheduler started", "schedule", s.schedule)

	go func() {
		<-ctx.Done()
		s.Stop()
	}()

	return nil
}

func (s *Scheduler) runProbe(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	s.logger.Debug("starting scheduled probe")
	if _, err := s.prober.Run(ctx); err != nil {
		s.logger.Error("scheduled probe failed", "error", err)
	}
}

// Stop stops the scheduler and waits for a running probe to finish.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		<-s.cron.Stop().Done()
		s.running = false
		s.logger.Info("probe scheduler stopped")
	}
}

// IsRunning reports whether the scheduler is active.
func (s *Scheduler) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// NextRun returns the next scheduled probe time, or nil when idle.
func (s *Scheduler) NextRun() *time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries := s.cron.Entries()
	if !s.running || len(entries) == 0 {
		return nil
	}
	next := entries[0].Next
	return &next
}
