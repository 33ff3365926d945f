package entities

import (
	"time"
)

type SyncTrigger string

const (
	SyncTriggerManual   SyncTrigger = "manual"
	SyncTriggerSchedule SyncTrigger = "schedule"
	SyncTriggerCLI      SyncTrigger = "cli"
)

type SyncStatus string

const (
	SyncStatusRunning   SyncStatus = "running"
	SyncStatusCompleted SyncStatus = "completed"
	SyncStatusFailed    SyncStatus = "failed"
)

// SyncRun is one row of sync history.
type SyncRun struct {
	ID                uint        `gorm:"primaryKey" json:"id"`
	RunID             string      `gorm:"uniqueIndex;size:36" json:"run_id"`
	Trigger           SyncTrigger `gorm:"size:20" json:"trigger"`
	Status            SyncStatus  `gorm:"size:20;index" json:"status"`
	BooksFetched      int         `json:"books_fetched"`
	BooksCreated      int         `json:"books_created"`
	BooksSkipped      int         `json:"books_skipped"`
	HighlightsFetched int         `json:"highlights_fetched"`
	HighlightsCreated int         `json:"highlights_created"`
	HighlightsSkipped int         `json:"highlights_skipped"`
	RecordsFailed     int         `json:"records_failed"`
	UnresolvedBooks   int         `json:"unresolved_books"`
	Error             string      `gorm:"type:text" json:"error,omitempty"`
	WatermarkBefore   time.Time   `json:"watermark_before"`
	WatermarkAfter    *time.Time  `json:"watermark_after,omitempty"`
	StartedAt         time.Time   `gorm:"index" json:"started_at"`
	CompletedAt       *time.Time  `json:"completed_at,omitempty"`
}

func (SyncRun) TableName() string {
	return "sync_runs"
}
