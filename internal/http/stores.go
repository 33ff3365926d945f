package http

import (
	"context"
	"time"

	"github.com/mrlokans/highlights-sync/internal/entities"
	"github.com/mrlokans/highlights-sync/internal/settingsstore"
	"github.com/mrlokans/highlights-sync/internal/syncengine"
)

// Each controller depends on the narrow interfaces below rather than on
// concrete stores, so handlers can be tested with fakes.

// SyncTrigger starts runs and reports scheduler state.
type SyncTrigger interface {
	RunNow(trigger entities.SyncTrigger) error
	IsRunning() bool
	IsSyncing() bool
	GetNextRunTime() *time.Time
	Reschedule() error
}

// EngineState reports which stage the current run is in.
type EngineState interface {
	State() syncengine.State
}

// RunHistory provides read access to past runs.
type RunHistory interface {
	GetRecentRuns(limit int) ([]entities.SyncRun, error)
	GetRun(runID string) (*entities.SyncRun, error)
	GetLastSuccessfulRun() (*entities.SyncRun, error)
}

// SettingsStore reads and writes sync settings.
type SettingsStore interface {
	HasToken() bool
	GetToken() string
	SetToken(token string) error
	SetInboxDir(dir string) error
	SetReferencesDir(dir string) error
	SetSyncEnabled(enabled bool) error
	SetSyncSchedule(schedule string) error
	ClearSyncSettings() error
	GetSyncConfigInfo() settingsstore.SyncConfigInfo
	GetSyncStatus() settingsstore.SyncStatus
}

// TokenValidator checks a Readwise token against the API.
type TokenValidator interface {
	ValidateToken(ctx context.Context, token string) error
}
