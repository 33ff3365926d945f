package syncruns

import (
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/mrlokans/highlights-sync/internal/entities"
)

func setupTestDB(t *testing.T) (*Repository, func()) {
	dbPath := "./test_syncruns_" + strings.ReplaceAll(t.Name(), "/", "_") + ".db"

	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	err = db.AutoMigrate(&entities.SyncRun{})
	require.NoError(t, err)

	repo := NewRepository(db)

	cleanup := func() {
		sqlDB, _ := db.DB()
		sqlDB.Close()
		os.Remove(dbPath)
	}

	return repo, cleanup
}

func TestRepository_StartAndFinish(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()

	run := &entities.SyncRun{RunID: "run-1", Trigger: entities.SyncTriggerManual}
	require.NoError(t, repo.StartSyncRun(run))
	assert.NotZero(t, run.ID)
	assert.False(t, run.StartedAt.IsZero())

	stored, err := repo.GetRun("run-1")
	require.NoError(t, err)
	assert.Equal(t, entities.SyncStatusRunning, stored.Status)

	watermark := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	run.Status = entities.SyncStatusCompleted
	run.HighlightsCreated = 3
	run.WatermarkAfter = &watermark
	require.NoError(t, repo.FinishSyncRun(run))

	stored, err = repo.GetRun("run-1")
	require.NoError(t, err)
	assert.Equal(t, entities.SyncStatusCompleted, stored.Status)
	assert.Equal(t, 3, stored.HighlightsCreated)
	require.NotNil(t, stored.CompletedAt)
	require.NotNil(t, stored.WatermarkAfter)
	assert.True(t, watermark.Equal(*stored.WatermarkAfter))
}

func TestRepository_GetRecentRuns(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()

	base := time.Now().Add(-time.Hour)
	for i, id := range []string{"a", "b", "c"} {
		require.NoError(t, repo.StartSyncRun(&entities.SyncRun{
			RunID:     id,
			StartedAt: base.Add(time.Duration(i) * time.Minute),
		}))
	}

	runs, err := repo.GetRecentRuns(2)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "c", runs[0].RunID)
	assert.Equal(t, "b", runs[1].RunID)
}

func TestRepository_GetLastSuccessfulRun(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()

	_, err := repo.GetLastSuccessfulRun()
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	ok := &entities.SyncRun{RunID: "ok", StartedAt: time.Now().Add(-2 * time.Minute)}
	require.NoError(t, repo.StartSyncRun(ok))
	ok.Status = entities.SyncStatusCompleted
	require.NoError(t, repo.FinishSyncRun(ok))

	failed := &entities.SyncRun{RunID: "failed", StartedAt: time.Now().Add(-time.Minute)}
	require.NoError(t, repo.StartSyncRun(failed))
	failed.Status = entities.SyncStatusFailed
	require.NoError(t, repo.FinishSyncRun(failed))

	last, err := repo.GetLastSuccessfulRun()
	require.NoError(t, err)
	assert.Equal(t, "ok", last.RunID)
}

func TestRepository_MarkInterrupted(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()

	require.NoError(t, repo.StartSyncRun(&entities.SyncRun{RunID: "stuck"}))
	done := &entities.SyncRun{RunID: "done"}
	require.NoError(t, repo.StartSyncRun(done))
	done.Status = entities.SyncStatusCompleted
	require.NoError(t, repo.FinishSyncRun(done))

	affected, err := repo.MarkInterrupted()
	require.NoError(t, err)
	assert.Equal(t, int64(1), affected)

	stuck, err := repo.GetRun("stuck")
	require.NoError(t, err)
	assert.Equal(t, entities.SyncStatusFailed, stuck.Status)
	assert.Equal(t, "interrupted", stuck.Error)
	assert.NotNil(t, stuck.CompletedAt)

	stillDone, err := repo.GetRun("done")
	require.NoError(t, err)
	assert.Equal(t, entities.SyncStatusCompleted, stillDone.Status)
}

func TestRepository_DeleteOlderThan(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()

	require.NoError(t, repo.StartSyncRun(&entities.SyncRun{RunID: "old", StartedAt: time.Now().Add(-48 * time.Hour)}))
	require.NoError(t, repo.StartSyncRun(&entities.SyncRun{RunID: "new", StartedAt: time.Now()}))

	deleted, err := repo.DeleteOlderThan(time.Now().Add(-24 * time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	runs, err := repo.GetRecentRuns(10)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, "new", runs[0].RunID)
}
