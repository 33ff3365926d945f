package syncengine

import (
	"fmt"
	"strings"
)

// State is the stage a sync run is in.
type State string

const (
	StateIdle                  State = "idle"
	StateLoadingCache          State = "loading_cache"
	StateFetchingBooks         State = "fetching_books"
	StateWritingBookNotes      State = "writing_book_notes"
	StateFetchingHighlights    State = "fetching_highlights"
	StateWritingHighlightNotes State = "writing_highlight_notes"
	StatePersistingCache       State = "persisting_cache"
)

// UnresolvedPolicy decides what a highlight with an unknown book does to
// the run.
type UnresolvedPolicy string

const (
	// UnresolvedSkip drops the highlight with a warning and keeps going.
	UnresolvedSkip UnresolvedPolicy = "skip"
	// UnresolvedAbort fails the whole run without saving the cache.
	UnresolvedAbort UnresolvedPolicy = "abort"
)

// ParseUnresolvedPolicy accepts "skip" or "abort" (case-insensitive).
// An empty string selects UnresolvedSkip.
func ParseUnresolvedPolicy(value string) (UnresolvedPolicy, error) {
	switch UnresolvedPolicy(strings.ToLower(strings.TrimSpace(value))) {
	case "", UnresolvedSkip:
		return UnresolvedSkip, nil
	case UnresolvedAbort:
		return UnresolvedAbort, nil
	}
	return "", fmt.Errorf("unknown unresolved book policy %q (want skip or abort)", value)
}
