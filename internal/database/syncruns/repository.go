// Package syncruns stores the history of sync runs.
//
// # Usage
//
//	repo := syncruns.NewRepository(db.DB)
//	engine.SetRunRecorder(repo)
//	runs, err := repo.GetRecentRuns(20)
package syncruns

import (
	"time"

	"gorm.io/gorm"

	"github.com/mrlokans/highlights-sync/internal/entities"
)

// Repository handles all sync run database operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new sync run repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// StartSyncRun inserts a run in the running state.
func (r *Repository) StartSyncRun(run *entities.SyncRun) error {
	if run.StartedAt.IsZero() {
		run.StartedAt = time.Now()
	}
	run.Status = entities.SyncStatusRunning
	return r.db.Create(run).Error
}

// FinishSyncRun stores the final counts and status of a run.
func (r *Repository) FinishSyncRun(run *entities.SyncRun) error {
	if run.CompletedAt == nil {
		now := time.Now()
		run.CompletedAt = &now
	}
	return r.db.Save(run).Error
}

// GetRun returns a run by its run ID.
func (r *Repository) GetRun(runID string) (*entities.SyncRun, error) {
	var run entities.SyncRun
	err := r.db.Where("run_id = ?", runID).First(&run).Error
	if err != nil {
		return nil, err
	}
	return &run, nil
}

// GetRecentRuns returns the latest runs, newest first.
func (r *Repository) GetRecentRuns(limit int) ([]entities.SyncRun, error) {
	if limit <= 0 {
		limit = 20
	}
	var runs []entities.SyncRun
	err := r.db.Order("started_at DESC").Order("id DESC").Limit(limit).Find(&runs).Error
	return runs, err
}

// GetLastSuccessfulRun returns the newest completed run.
func (r *Repository) GetLastSuccessfulRun() (*entities.SyncRun, error) {
	var run entities.SyncRun
	err := r.db.Where("status = ?", entities.SyncStatusCompleted).
		Order("started_at DESC").
		First(&run).Error
	if err != nil {
		return nil, err
	}
	return &run, nil
}

// MarkInterrupted fails every run still marked as running. Called at startup:
// such rows belong to a process that died mid-run.
func (r *Repository) MarkInterrupted() (int64, error) {
	now := time.Now()
	result := r.db.Model(&entities.SyncRun{}).
		Where("status = ?", entities.SyncStatusRunning).
		Updates(map[string]any{
			"status":       entities.SyncStatusFailed,
			"error":        "interrupted",
			"completed_at": now,
		})
	return result.RowsAffected, result.Error
}

// DeleteOlderThan removes runs that started before cutoff.
func (r *Repository) DeleteOlderThan(cutoff time.Time) (int64, error) {
	result := r.db.Where("started_at < ?", cutoff).Delete(&entities.SyncRun{})
	return result.RowsAffected, result.Error
}
