package scheduler

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/mikestefanello/backlite"
	"github.com/robfig/cron/v3"

	"github.com/mrlokans/bookreader/internal/tasks"
)

var parser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

// ValidateCronSchedule checks a five-field cron expression.
func ValidateCronSchedule(schedule string) error {
	_, err := parser.Parse(schedule)
	return err
}

// IdleCloser closes reading sessions nobody has touched for a while.
type IdleCloser interface {
	CloseIdle(ctx context.Context, idle time.Duration) int
}

// TaskQueue enqueues background work.
type TaskQueue interface {
	Enqueue(ctx context.Context, task backlite.Task) (string, error)
}

// Config holds the maintenance schedules.
type Config struct {
	// SweepSchedule is when idle sessions are flushed and closed.
	SweepSchedule string
	// IdleTimeout is how long a session may stay unused.
	IdleTimeout time.Duration
	// PruneSchedule is when a prune_progress task is queued. Empty disables it.
	PruneSchedule string
}

// MaintenanceScheduler runs periodic housekeeping for the reader.
type MaintenanceScheduler struct {
	sessions IdleCloser
	queue    TaskQueue
	config   Config

	cron       *cron.Cron
	sweepEntry cron.EntryID
	mu         sync.RWMutex
	isRunning  bool
	cancelFunc context.CancelFunc
}

// NewMaintenanceScheduler creates a scheduler. queue may be nil when the task
// queue is disabled; pruning is skipped then.
func NewMaintenanceScheduler(sessions IdleCloser, queue TaskQueue, config Config) *MaintenanceScheduler {
	return &MaintenanceScheduler{
		sessions: sessions,
		queue:    queue,
		config:   config,
		cron:     cron.New(cron.WithParser(parser)),
	}
}

// Start registers the jobs and starts the cron loop. It stops when ctx is cancelled.
func (s *MaintenanceScheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return nil
	}

	if err := ValidateCronSchedule(s.config.SweepSchedule); err != nil {
		return fmt.Errorf("invalid sweep schedule '%s': %w", s.config.SweepSchedule, err)
	}
	entryID, err := s.cron.AddFunc(s.config.SweepSchedule, s.SweepIdle)
	if err != nil {
		return fmt.Errorf("failed to schedule session sweep: %w", err)
	}
	s.sweepEntry = entryID

	if s.config.PruneSchedule != "" && s.queue != nil {
		if err := ValidateCronSchedule(s.config.PruneSchedule); err != nil {
			return fmt.Errorf("invalid prune schedule '%s': %w", s.config.PruneSchedule, err)
		}
		if _, err := s.cron.AddFunc(s.config.PruneSchedule, s.EnqueuePrune); err != nil {
			return fmt.Errorf("failed to schedule progress pruning: %w", err)
		}
	}

	var cancelCtx context.Context
	cancelCtx, s.cancelFunc = context.WithCancel(ctx)

	s.cron.Start()
	s.isRunning = true

	log.Printf("Maintenance scheduler: sweeping sessions idle for %v on '%s'",
		s.config.IdleTimeout, s.config.SweepSchedule)

	go func() {
		<-cancelCtx.Done()
		s.Stop()
	}()

	return nil
}

// Stop waits for running jobs and stops the scheduler.
func (s *MaintenanceScheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.isRunning {
		return
	}

	ctx := s.cron.Stop()
	<-ctx.Done()

	s.isRunning = false
	if s.cancelFunc != nil {
		s.cancelFunc()
		s.cancelFunc = nil
	}

	log.Printf("Maintenance scheduler: stopped")
}

// IsRunning returns whether the scheduler is active.
func (s *MaintenanceScheduler) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// NextSweep returns when idle sessions are swept next.
func (s *MaintenanceScheduler) NextSweep() *time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.isRunning {
		return nil
	}
	t := s.cron.Entry(s.sweepEntry).Next
	return &t
}

// SweepIdle closes idle sessions once.
func (s *MaintenanceScheduler) SweepIdle() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	if closed := s.sessions.CloseIdle(ctx, s.config.IdleTimeout); closed > 0 {
		log.Printf("Maintenance scheduler: closed %d idle reading sessions", closed)
	}
}

// EnqueuePrune queues a prune_progress task once.
func (s *MaintenanceScheduler) EnqueuePrune() {
	if s.queue == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	id, err := s.queue.Enqueue(ctx, tasks.PruneProgressTask{})
	if err != nil {
		log.Printf("Maintenance scheduler: failed to queue progress pruning: %v", err)
		return
	}
	log.Printf("Maintenance scheduler: queued progress pruning as task %s", id)
}
