// Package cachestore persists the sync cache document (.cache.json) that
// carries known books and the sync watermark from one run to the next.
package cachestore

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/mrlokans/highlights-sync/internal/entities"
	"github.com/mrlokans/highlights-sync/internal/vault"
)

const (
	// DefaultFilename is the cache document name relative to the vault root.
	DefaultFilename = ".cache.json"

	// DefaultBackfillWindow is how far back the first run looks.
	DefaultBackfillWindow = 365 * 24 * time.Hour
)

var (
	// ErrCacheNotFound means no cache document exists yet.
	ErrCacheNotFound = errors.New("sync cache not found")

	// ErrCacheCorrupt means a cache document exists but cannot be decoded.
	ErrCacheCorrupt = errors.New("sync cache is corrupt")
)

// Store loads and saves the sync cache through the vault filesystem.
type Store struct {
	fs   vault.FS
	path string
}

// New creates a store for the document at path (relative to the vault root).
// An empty path selects DefaultFilename.
func New(fs vault.FS, path string) *Store {
	if path == "" {
		path = DefaultFilename
	}
	return &Store{fs: fs, path: path}
}

// Path returns the vault-relative location of the cache document.
func (s *Store) Path() string {
	return s.path
}

// Load reads the cache document. It returns ErrCacheNotFound when the
// document is absent and an error wrapping ErrCacheCorrupt when it fails
// to parse.
func (s *Store) Load() (*entities.SyncCache, error) {
	data, err := s.fs.Read(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrCacheNotFound
		}
		return nil, fmt.Errorf("failed to read sync cache: %w", err)
	}

	var cache entities.SyncCache
	if err := json.Unmarshal(data, &cache); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCacheCorrupt, err)
	}
	if cache.LastUpdate.IsZero() {
		return nil, fmt.Errorf("%w: missing lastUpdate", ErrCacheCorrupt)
	}
	if cache.Books == nil {
		cache.Books = make(map[int]entities.CachedBook)
	}
	return &cache, nil
}

// Save replaces the cache document with cache. The previous document stays
// intact if the write fails.
func (s *Store) Save(cache *entities.SyncCache) error {
	data, err := json.MarshalIndent(cache, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode sync cache: %w", err)
	}
	if err := s.fs.Replace(s.path, data); err != nil {
		return fmt.Errorf("failed to write sync cache: %w", err)
	}
	return nil
}

// Default returns the cache used when none could be loaded: no known books
// and a watermark of now minus window.
func Default(now time.Time, window time.Duration) *entities.SyncCache {
	if window <= 0 {
		window = DefaultBackfillWindow
	}
	return entities.NewSyncCache(now.Add(-window).UTC())
}
