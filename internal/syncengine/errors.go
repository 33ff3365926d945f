package syncengine

import (
	"errors"
	"fmt"
)

var (
	// ErrSyncInProgress is returned when a run is triggered while another
	// one is still active. The second trigger is dropped.
	ErrSyncInProgress = errors.New("sync already in progress")

	// ErrTokenMissing means no Readwise token is configured.
	ErrTokenMissing = errors.New("readwise token not configured")

	// ErrCacheWriteFailed wraps a failure to persist the sync cache at the
	// end of a run. Notes written during the run stay on disk.
	ErrCacheWriteFailed = errors.New("failed to persist sync cache")

	// ErrUnresolvedBookReference matches UnresolvedBookError.
	ErrUnresolvedBookReference = errors.New("highlight references unknown book")
)

// UnresolvedBookError reports a highlight whose book is not in the cache.
type UnresolvedBookError struct {
	HighlightID int
	BookID      int
}

func (e *UnresolvedBookError) Error() string {
	return fmt.Sprintf("highlight %d references unknown book %d", e.HighlightID, e.BookID)
}

func (e *UnresolvedBookError) Is(target error) bool {
	return target == ErrUnresolvedBookReference
}

// RecordError is a failure confined to a single book or highlight.
type RecordError struct {
	Kind string // "book" or "highlight"
	ID   int
	Err  error
}

func (e *RecordError) Error() string {
	return fmt.Sprintf("%s %d: %v", e.Kind, e.ID, e.Err)
}

func (e *RecordError) Unwrap() error {
	return e.Err
}
