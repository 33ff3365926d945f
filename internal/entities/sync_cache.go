package entities

import (
	"time"
)

// CachedBook is what the sync cache remembers about a book between runs.
type CachedBook struct {
	Title           string `json:"title"`
	NormalizedTitle string `json:"normalizedTitle"`
}

// SyncCache is the persisted sync state: known books plus the watermark
// below which remote records are considered already synced.
type SyncCache struct {
	Books      map[int]CachedBook `json:"books"`
	LastUpdate time.Time          `json:"lastUpdate"`
}

// NewSyncCache returns an empty cache with the given watermark.
func NewSyncCache(lastUpdate time.Time) *SyncCache {
	return &SyncCache{
		Books:      make(map[int]CachedBook),
		LastUpdate: lastUpdate,
	}
}

// Book looks up a cached book by its Readwise ID.
func (c *SyncCache) Book(id int) (CachedBook, bool) {
	book, ok := c.Books[id]
	return book, ok
}

// PutBook records a book, replacing any previous entry for the same ID.
func (c *SyncCache) PutBook(id int, book CachedBook) {
	if c.Books == nil {
		c.Books = make(map[int]CachedBook)
	}
	c.Books[id] = book
}

// Advance moves the watermark forward to t if t is strictly later.
// It reports whether the watermark changed.
func (c *SyncCache) Advance(t time.Time) bool {
	if !t.After(c.LastUpdate) {
		return false
	}
	c.LastUpdate = t
	return true
}
