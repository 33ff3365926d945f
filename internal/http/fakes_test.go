package http

import (
	"context"
	"sync"
	"time"

	"gorm.io/gorm"

	"github.com/mrlokans/highlights-sync/internal/entities"
	"github.com/mrlokans/highlights-sync/internal/settingsstore"
	"github.com/mrlokans/highlights-sync/internal/syncengine"
)

type fakeScheduler struct {
	mu            sync.Mutex
	triggers      []entities.SyncTrigger
	runErr        error
	running       bool
	syncing       bool
	next          *time.Time
	reschedules   int
	rescheduleErr error
}

func (f *fakeScheduler) RunNow(trigger entities.SyncTrigger) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.runErr != nil {
		return f.runErr
	}
	f.triggers = append(f.triggers, trigger)
	return nil
}

func (f *fakeScheduler) IsRunning() bool            { return f.running }
func (f *fakeScheduler) IsSyncing() bool            { return f.syncing }
func (f *fakeScheduler) GetNextRunTime() *time.Time { return f.next }

func (f *fakeScheduler) Reschedule() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reschedules++
	return f.rescheduleErr
}

type fakeEngine struct {
	state syncengine.State
}

func (f fakeEngine) State() syncengine.State { return f.state }

type fakeRuns struct {
	runs []entities.SyncRun
	err  error
}

func (f *fakeRuns) GetRecentRuns(limit int) ([]entities.SyncRun, error) {
	if f.err != nil {
		return nil, f.err
	}
	if limit < len(f.runs) {
		return f.runs[:limit], nil
	}
	return f.runs, nil
}

func (f *fakeRuns) GetRun(runID string) (*entities.SyncRun, error) {
	for i := range f.runs {
		if f.runs[i].RunID == runID {
			return &f.runs[i], nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeRuns) GetLastSuccessfulRun() (*entities.SyncRun, error) {
	if f.err != nil {
		return nil, f.err
	}
	for i := range f.runs {
		if f.runs[i].Status == entities.SyncStatusCompleted {
			return &f.runs[i], nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

type fakeSettings struct {
	token         string
	inboxDir      string
	referencesDir string
	enabled       bool
	schedule      string
	status        settingsstore.SyncStatus
	setErr        error
	cleared       bool
}

func newFakeSettings() *fakeSettings {
	return &fakeSettings{
		inboxDir:      entities.DefaultInboxDir,
		referencesDir: entities.DefaultReferencesDir,
		schedule:      settingsstore.DefaultSchedule,
	}
}

func (f *fakeSettings) HasToken() bool   { return f.token != "" }
func (f *fakeSettings) GetToken() string { return f.token }

func (f *fakeSettings) SetToken(token string) error {
	if f.setErr != nil {
		return f.setErr
	}
	f.token = token
	return nil
}

func (f *fakeSettings) SetInboxDir(dir string) error {
	if f.setErr != nil {
		return f.setErr
	}
	f.inboxDir = dir
	return nil
}

func (f *fakeSettings) SetReferencesDir(dir string) error {
	if f.setErr != nil {
		return f.setErr
	}
	f.referencesDir = dir
	return nil
}

func (f *fakeSettings) SetSyncEnabled(enabled bool) error {
	if f.setErr != nil {
		return f.setErr
	}
	f.enabled = enabled
	return nil
}

func (f *fakeSettings) SetSyncSchedule(schedule string) error {
	if f.setErr != nil {
		return f.setErr
	}
	f.schedule = schedule
	return nil
}

func (f *fakeSettings) ClearSyncSettings() error {
	f.cleared = true
	f.token = ""
	f.inboxDir = entities.DefaultInboxDir
	f.referencesDir = entities.DefaultReferencesDir
	f.enabled = false
	f.schedule = settingsstore.DefaultSchedule
	return nil
}

func (f *fakeSettings) GetSyncConfigInfo() settingsstore.SyncConfigInfo {
	return settingsstore.SyncConfigInfo{
		HasToken:      f.token != "",
		InboxDir:      f.inboxDir,
		ReferencesDir: f.referencesDir,
		Enabled:       f.enabled,
		Schedule:      f.schedule,
	}
}

func (f *fakeSettings) GetSyncStatus() settingsstore.SyncStatus { return f.status }

type fakeValidator struct {
	err    error
	tokens []string
}

func (f *fakeValidator) ValidateToken(ctx context.Context, token string) error {
	f.tokens = append(f.tokens, token)
	return f.err
}
