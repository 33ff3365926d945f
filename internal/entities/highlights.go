package entities

import (
	"time"
)

// Book is a Readwise book as returned by the books endpoint.
type Book struct {
	ID     int    `json:"id"`
	Title  string `json:"title"`
	Author string `json:"author"`
}

// Highlight is a single Readwise highlight. HighlightedAt is nil when the
// API did not report a timestamp for it.
type Highlight struct {
	ID            int        `json:"id"`
	BookID        int        `json:"book_id"`
	Text          string     `json:"text"`
	Note          string     `json:"note"`
	HighlightedAt *time.Time `json:"highlighted_at,omitempty"`
}
