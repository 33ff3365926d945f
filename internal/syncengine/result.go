package syncengine

import (
	"fmt"
	"time"

	"go.uber.org/multierr"

	"github.com/mrlokans/highlights-sync/internal/entities"
)

// Result summarizes one sync run.
type Result struct {
	RunID   string
	Trigger entities.SyncTrigger
	DryRun  bool

	BooksFetched int
	BooksCreated int
	BooksSkipped int
	BooksFailed  int

	HighlightsFetched int
	HighlightsCreated int
	HighlightsSkipped int
	HighlightsFailed  int

	// Unresolved lists highlights skipped because their book is unknown.
	Unresolved []int
	KnownBooks int

	WatermarkBefore time.Time
	WatermarkAfter  time.Time

	// RecordErrors aggregates per-record failures that did not stop the run.
	RecordErrors error
	// Err is the error that stopped the run, if any.
	Err error

	StartedAt  time.Time
	FinishedAt time.Time
}

// Duration is how long the run took.
func (r *Result) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}

// Errors returns the individual per-record errors.
func (r *Result) Errors() []error {
	return multierr.Errors(r.RecordErrors)
}

// Summary is the one-line completion message shown to the user.
func (r *Result) Summary() string {
	prefix := "Sync complete"
	if r.DryRun {
		prefix = "Dry run complete"
	}
	msg := fmt.Sprintf("%s: %d/%d book notes and %d/%d highlight notes created in %v",
		prefix,
		r.BooksCreated, r.BooksFetched,
		r.HighlightsCreated, r.HighlightsFetched,
		r.Duration().Round(time.Millisecond))
	if failed := r.BooksFailed + r.HighlightsFailed; failed > 0 {
		msg += fmt.Sprintf(", %d failed", failed)
	}
	if len(r.Unresolved) > 0 {
		msg += fmt.Sprintf(", %d skipped with unknown book", len(r.Unresolved))
	}
	return msg
}

// ApplyTo copies the outcome of the run onto a history row.
func (r *Result) ApplyTo(run *entities.SyncRun) {
	run.BooksFetched = r.BooksFetched
	run.BooksCreated = r.BooksCreated
	run.BooksSkipped = r.BooksSkipped
	run.HighlightsFetched = r.HighlightsFetched
	run.HighlightsCreated = r.HighlightsCreated
	run.HighlightsSkipped = r.HighlightsSkipped
	run.RecordsFailed = r.BooksFailed + r.HighlightsFailed
	run.UnresolvedBooks = len(r.Unresolved)
	run.WatermarkBefore = r.WatermarkBefore

	finished := r.FinishedAt
	run.CompletedAt = &finished

	if r.Err != nil {
		run.Status = entities.SyncStatusFailed
		run.Error = r.Err.Error()
		return
	}
	run.Status = entities.SyncStatusCompleted
	watermark := r.WatermarkAfter
	run.WatermarkAfter = &watermark
}
