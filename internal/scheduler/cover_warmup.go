package scheduler

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/mrlokans/pubshelf/internal/config"
	"github.com/mrlokans/pubshelf/internal/tasks"
)

// CoverWarmupScheduler periodically queues cover rendering for every
// publication so that cover requests are served from the cache.
type CoverWarmupScheduler struct {
	enqueuer tasks.Enqueuer
	cfg      config.CoverWarmup
	task     tasks.RenderAllCoversTask

	cron       *cron.Cron
	entryID    cron.EntryID
	mu         sync.RWMutex
	isRunning  bool
	cancelFunc context.CancelFunc
}

// NewCoverWarmupScheduler creates a new scheduler instance. task carries the
// size and format rendered on each run.
func NewCoverWarmupScheduler(enqueuer tasks.Enqueuer, cfg config.CoverWarmup, task tasks.RenderAllCoversTask) *CoverWarmupScheduler {
	return &CoverWarmupScheduler{
		enqueuer: enqueuer,
		cfg:      cfg,
		task:     task,
		cron:     cron.New(cron.WithParser(scheduleParser)),
	}
}

// Start begins the scheduler if warm-up is enabled. The scheduler stops when ctx is done.
func (s *CoverWarmupScheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return nil
	}
	if !s.cfg.Enabled {
		log.Printf("Cover warm-up scheduler: disabled")
		return nil
	}

	if err := ValidateCronSchedule(s.cfg.Schedule); err != nil {
		return fmt.Errorf("invalid cron schedule '%s': %w", s.cfg.Schedule, err)
	}

	entryID, err := s.cron.AddFunc(s.cfg.Schedule, s.runWarmup)
	if err != nil {
		return fmt.Errorf("failed to schedule cover warm-up: %w", err)
	}
	s.entryID = entryID

	var cancelCtx context.Context
	cancelCtx, s.cancelFunc = context.WithCancel(ctx)

	s.cron.Start()
	s.isRunning = true

	nextRun, _ := NextRunTime(s.cfg.Schedule, time.Now())
	log.Printf("Cover warm-up scheduler: started with schedule '%s' (%s). Next run: %v",
		s.cfg.Schedule, CronDescription(s.cfg.Schedule), nextRun)

	go func() {
		<-cancelCtx.Done()
		s.Stop()
	}()

	return nil
}

// Stop waits for a running warm-up to finish and stops the scheduler.
func (s *CoverWarmupScheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.isRunning {
		return
	}

	<-s.cron.Stop().Done()
	s.cron.Remove(s.entryID)
	if s.cancelFunc != nil {
		s.cancelFunc()
		s.cancelFunc = nil
	}
	s.isRunning = false

	log.Printf("Cover warm-up scheduler: stopped")
}

// RunNow queues a warm-up immediately and returns the task ID.
func (s *CoverWarmupScheduler) RunNow(ctx context.Context) (string, error) {
	ids, err := s.enqueuer.Enqueue(ctx, s.task)
	if err != nil {
		return "", fmt.Errorf("enqueue cover warm-up: %w", err)
	}
	if len(ids) == 0 {
		return "", nil
	}
	return ids[0], nil
}

// IsRunning returns whether the scheduler is active.
func (s *CoverWarmupScheduler) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// NextRun returns when the next warm-up will be queued.
func (s *CoverWarmupScheduler) NextRun() (time.Time, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.isRunning {
		return time.Time{}, false
	}
	for _, entry := range s.cron.Entries() {
		if entry.ID == s.entryID {
			return entry.Next, true
		}
	}
	return time.Time{}, false
}

func (s *CoverWarmupScheduler) runWarmup() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	id, err := s.RunNow(ctx)
	if err != nil {
		log.Printf("Cover warm-up: %v", err)
		return
	}
	log.Printf("Cover warm-up: queued task %s", id)
}
