package http

import (
	"github.com/mrlokans/highlights-sync/internal/database"
)

// RouterConfig contains all dependencies and configuration needed
// to create the HTTP router.
type RouterConfig struct {
	Database *database.Database
	Vault    VaultChecker

	Settings  SettingsStore
	Scheduler SyncTrigger
	Engine    EngineState
	Runs      RunHistory
	Validator TokenValidator

	// Application info
	Version string
}
