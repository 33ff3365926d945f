package interfaces

// This file contains compile-time interface implementation checks.
// These ensure that concrete types satisfy their interfaces at compile time,
// catching missing methods before runtime.
//
// To verify all checks pass: go build ./internal/interfaces/...

import (
	"github.com/gofrs/flock"

	"github.com/mrlokans/highlights-sync/internal/database/syncruns"
	"github.com/mrlokans/highlights-sync/internal/http"
	"github.com/mrlokans/highlights-sync/internal/notify"
	"github.com/mrlokans/highlights-sync/internal/readwise"
	"github.com/mrlokans/highlights-sync/internal/scheduler"
	"github.com/mrlokans/highlights-sync/internal/settingsstore"
	"github.com/mrlokans/highlights-sync/internal/syncengine"
	"github.com/mrlokans/highlights-sync/internal/vault"
)

// =============================================================================
// Sync Engine
// =============================================================================

// RemoteClient implementations
var _ syncengine.RemoteClient = (*readwise.Client)(nil)

// SettingsSource implementations
var _ syncengine.SettingsSource = (*settingsstore.SettingsStore)(nil)

// RunRecorder implementations
var _ syncengine.RunRecorder = (*syncruns.Repository)(nil)

// RunLock implementations
var _ syncengine.RunLock = (*flock.Flock)(nil)

// FS implementations
var _ vault.FS = (*vault.Vault)(nil)

// =============================================================================
// Scheduling
// =============================================================================

var _ scheduler.Runner = (*syncengine.Engine)(nil)
var _ scheduler.ScheduleSettings = (*settingsstore.SettingsStore)(nil)

// =============================================================================
// HTTP Layer
// =============================================================================

var _ http.SyncTrigger = (*scheduler.SyncScheduler)(nil)
var _ http.EngineState = (*syncengine.Engine)(nil)
var _ http.RunHistory = (*syncruns.Repository)(nil)
var _ http.SettingsStore = (*settingsstore.SettingsStore)(nil)
var _ http.TokenValidator = (*readwise.Client)(nil)
var _ http.VaultChecker = (*vault.Vault)(nil)

// =============================================================================
// Notifications
// =============================================================================

var _ notify.Sink = notify.Logger{}
var _ notify.Sink = notify.Multi(nil)
var _ notify.Sink = notify.StatusRecorder{}
var _ notify.StatusWriter = (*settingsstore.SettingsStore)(nil)
