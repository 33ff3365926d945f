package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/mrlokans/highlights-sync/internal/entities"
	"github.com/mrlokans/highlights-sync/internal/settingsstore"
	"github.com/mrlokans/highlights-sync/internal/syncengine"
)

// Runner performs one sync run.
type Runner interface {
	Run(ctx context.Context, trigger entities.SyncTrigger) (*syncengine.Result, error)
	IsSyncing() bool
}

// ScheduleSettings supplies the scheduler configuration.
type ScheduleSettings interface {
	GetSyncEnabled() bool
	GetSyncSchedule() string
	HasToken() bool
}

// SyncScheduler runs the sync engine on a cron schedule and on demand.
type SyncScheduler struct {
	settings ScheduleSettings
	runner   Runner

	cron       *cron.Cron
	entryID    cron.EntryID
	mu         sync.RWMutex
	isRunning  bool
	parentCtx  context.Context
	baseCtx    context.Context
	cancelFunc context.CancelFunc
	wg         sync.WaitGroup
}

// NewSyncScheduler creates a new scheduler instance
func NewSyncScheduler(settings ScheduleSettings, runner Runner) *SyncScheduler {
	return &SyncScheduler{
		settings: settings,
		runner:   runner,
		baseCtx:  context.Background(),
	}
}

// Start begins the scheduler if sync is enabled
func (s *SyncScheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return nil
	}
	s.parentCtx = ctx

	if !s.settings.GetSyncEnabled() {
		log.Printf("Sync scheduler: disabled")
		return nil
	}

	if !s.settings.HasToken() {
		log.Printf("Sync scheduler: token not configured, skipping")
		return nil
	}

	schedule := s.settings.GetSyncSchedule()
	if err := settingsstore.ValidateCronSchedule(schedule); err != nil {
		return fmt.Errorf("invalid cron schedule '%s': %w", schedule, err)
	}

	// A stopped cron cannot be restarted with new entries, so each start
	// gets a fresh one.
	s.cron = cron.New(cron.WithParser(cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)))
	entryID, err := s.cron.AddFunc(schedule, func() {
		s.runSync(entities.SyncTriggerSchedule)
	})
	if err != nil {
		return fmt.Errorf("failed to schedule sync job: %w", err)
	}
	s.entryID = entryID

	var cancelCtx context.Context
	cancelCtx, s.cancelFunc = context.WithCancel(ctx)
	s.baseCtx = cancelCtx

	s.cron.Start()
	s.isRunning = true

	nextRun, _ := settingsstore.GetNextRunTime(schedule)
	log.Printf("Sync scheduler: started with schedule '%s' (%s). Next run: %v",
		schedule,
		settingsstore.GetCronDescription(schedule),
		nextRun)

	go func(c *cron.Cron) {
		<-cancelCtx.Done()
		s.mu.RLock()
		current := s.isRunning && s.cron == c
		s.mu.RUnlock()
		if current {
			s.Stop()
		}
	}(s.cron)

	return nil
}

// Stop gracefully stops the scheduler and waits for a scheduled run in
// progress to finish.
func (s *SyncScheduler) Stop() {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return
	}
	c := s.cron
	cancel := s.cancelFunc
	s.isRunning = false
	s.cancelFunc = nil
	s.baseCtx = context.Background()
	s.mu.Unlock()

	// Jobs read baseCtx under the lock, so wait for them outside it.
	<-c.Stop().Done()
	if cancel != nil {
		cancel()
	}

	log.Printf("Sync scheduler: stopped")
}

// Reschedule updates the schedule (call after settings change)
func (s *SyncScheduler) Reschedule() error {
	s.Stop()

	s.mu.RLock()
	parent := s.parentCtx
	s.mu.RUnlock()
	if parent == nil {
		parent = context.Background()
	}
	return s.Start(parent)
}

// RunNow triggers an immediate sync in the background. It returns
// syncengine.ErrSyncInProgress when a run is already active.
func (s *SyncScheduler) RunNow(trigger entities.SyncTrigger) error {
	if s.runner.IsSyncing() {
		return syncengine.ErrSyncInProgress
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.runSync(trigger)
	}()
	return nil
}

// Wait blocks until every run started by RunNow has returned.
func (s *SyncScheduler) Wait() {
	s.wg.Wait()
}

// IsRunning returns whether the scheduler is active
func (s *SyncScheduler) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// IsSyncing returns whether a sync is currently in progress
func (s *SyncScheduler) IsSyncing() bool {
	return s.runner.IsSyncing()
}

// GetNextRunTime returns when the next sync will occur
func (s *SyncScheduler) GetNextRunTime() *time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.isRunning {
		return nil
	}

	for _, entry := range s.cron.Entries() {
		if entry.ID == s.entryID {
			t := entry.Next
			return &t
		}
	}
	return nil
}

func (s *SyncScheduler) runSync(trigger entities.SyncTrigger) {
	s.mu.RLock()
	ctx := s.baseCtx
	s.mu.RUnlock()

	log.Printf("Sync scheduler: starting %s sync", trigger)

	result, err := s.runner.Run(ctx, trigger)
	switch {
	case errors.Is(err, syncengine.ErrSyncInProgress):
		return
	case err != nil:
		log.Printf("Sync scheduler: %s sync failed: %v", trigger, err)
	case result != nil:
		log.Printf("Sync scheduler: %s sync finished: %s", trigger, result.Summary())
	}
}
