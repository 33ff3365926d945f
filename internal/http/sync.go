package http

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/mrlokans/highlights-sync/internal/entities"
	"github.com/mrlokans/highlights-sync/internal/settingsstore"
	"github.com/mrlokans/highlights-sync/internal/syncengine"
)

const (
	defaultRunsLimit = 20
	maxRunsLimit     = 200
)

// SyncController exposes manual sync triggers and sync state.
type SyncController struct {
	settings  SettingsStore
	scheduler SyncTrigger
	engine    EngineState
	runs      RunHistory
}

func NewSyncController(settings SettingsStore, scheduler SyncTrigger, engine EngineState, runs RunHistory) *SyncController {
	return &SyncController{
		settings:  settings,
		scheduler: scheduler,
		engine:    engine,
		runs:      runs,
	}
}

// SyncStatusResponse is the response for GET /api/sync/status
type SyncStatusResponse struct {
	Status    settingsstore.SyncStatus `json:"status"`
	State     syncengine.State         `json:"state"`
	NextRun   *time.Time               `json:"next_run,omitempty"`
	IsRunning bool                     `json:"is_running"`
	IsSyncing bool                     `json:"is_syncing"`
	// LastSuccess is the newest completed run; a failed run does not replace it.
	LastSuccess *entities.SyncRun `json:"last_success,omitempty"`
}

// TriggerSync starts a sync in the background (POST /api/sync).
func (c *SyncController) TriggerSync(ctx *gin.Context) {
	if c.scheduler == nil {
		respondError(ctx, http.StatusServiceUnavailable, "scheduler_unavailable", "Scheduler not available")
		return
	}

	if c.settings != nil && !c.settings.HasToken() {
		respondError(ctx, http.StatusBadRequest, "token_missing", "Readwise token not configured. Please configure it first.")
		return
	}

	err := c.scheduler.RunNow(entities.SyncTriggerManual)
	if errors.Is(err, syncengine.ErrSyncInProgress) {
		respondError(ctx, http.StatusConflict, "sync_in_progress", "Sync already in progress")
		return
	}
	if err != nil {
		respondInternalError(ctx, err, "trigger sync")
		return
	}

	respondAccepted(ctx, "Sync started in background", nil)
}

// GetStatus returns the last run status and the current state (for polling).
func (c *SyncController) GetStatus(ctx *gin.Context) {
	response := SyncStatusResponse{State: syncengine.StateIdle}

	if c.settings != nil {
		response.Status = c.settings.GetSyncStatus()
	}
	if c.engine != nil {
		response.State = c.engine.State()
	}
	if c.scheduler != nil {
		response.NextRun = c.scheduler.GetNextRunTime()
		response.IsRunning = c.scheduler.IsRunning()
		response.IsSyncing = c.scheduler.IsSyncing()
	}
	if c.runs != nil {
		last, err := c.runs.GetLastSuccessfulRun()
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			respondInternalError(ctx, err, "get last successful run")
			return
		}
		response.LastSuccess = last
	}

	ctx.JSON(http.StatusOK, response)
}

// ListRuns returns recent run history, newest first.
func (c *SyncController) ListRuns(ctx *gin.Context) {
	if c.runs == nil {
		respondError(ctx, http.StatusServiceUnavailable, "history_unavailable", "Run history not available")
		return
	}

	limit, ok := parseLimitQuery(ctx, defaultRunsLimit, maxRunsLimit)
	if !ok {
		return
	}

	runs, err := c.runs.GetRecentRuns(limit)
	if err != nil {
		respondInternalError(ctx, err, "list sync runs")
		return
	}
	if runs == nil {
		runs = []entities.SyncRun{}
	}

	ctx.JSON(http.StatusOK, gin.H{"runs": runs})
}

// GetRun returns a single run by its run ID.
func (c *SyncController) GetRun(ctx *gin.Context) {
	if c.runs == nil {
		respondError(ctx, http.StatusServiceUnavailable, "history_unavailable", "Run history not available")
		return
	}

	run, err := c.runs.GetRun(ctx.Param("run_id"))
	if errors.Is(err, gorm.ErrRecordNotFound) {
		respondNotFound(ctx, "sync run")
		return
	}
	if err != nil {
		respondInternalError(ctx, err, "get sync run")
		return
	}

	ctx.JSON(http.StatusOK, run)
}
