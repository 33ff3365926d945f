// Package syncengine runs incremental Readwise → vault syncs.
//
// A run walks a fixed sequence of stages:
//
//	idle → loading_cache → fetching_books → writing_book_notes →
//	fetching_highlights → writing_highlight_notes → persisting_cache → idle
//
// Books are always fully processed before highlights so every highlight can
// link to its book's normalized title. The cache is saved exactly once, after
// every note write of the run has finished, and never when a stage failed.
package syncengine

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"

	"github.com/mrlokans/highlights-sync/internal/cachestore"
	"github.com/mrlokans/highlights-sync/internal/entities"
	"github.com/mrlokans/highlights-sync/internal/notes"
	"github.com/mrlokans/highlights-sync/internal/notify"
	"github.com/mrlokans/highlights-sync/internal/readwise"
	"github.com/mrlokans/highlights-sync/internal/utils"
	"github.com/mrlokans/highlights-sync/internal/vault"
)

const (
	DefaultWriteConcurrency = 8
	DefaultRunTimeout       = 10 * time.Minute
)

// RemoteClient fetches records from Readwise.
type RemoteClient interface {
	FetchBooks(ctx context.Context, token string, since time.Time) ([]entities.Book, error)
	FetchHighlights(ctx context.Context, token string, since time.Time) ([]entities.Highlight, error)
}

// SettingsSource supplies the settings snapshot for a run.
type SettingsSource interface {
	GetSyncSettings() entities.SyncSettings
}

// RunRecorder keeps a history of runs. Recording failures never fail a run.
type RunRecorder interface {
	StartSyncRun(run *entities.SyncRun) error
	FinishSyncRun(run *entities.SyncRun) error
}

// RunLock excludes runs of other processes syncing the same vault.
// *flock.Flock satisfies it.
type RunLock interface {
	TryLock() (bool, error)
	Unlock() error
}

// Options tune a sync engine. Zero values select defaults.
type Options struct {
	CacheFile        string
	BackfillWindow   time.Duration
	WriteConcurrency int
	UnresolvedPolicy UnresolvedPolicy
	RunTimeout       time.Duration
	// DryRun fetches and decides but writes neither notes nor the cache.
	DryRun bool
}

// Engine owns the sync state for the duration of a run and guarantees that
// at most one run is active at a time.
type Engine struct {
	client   RemoteClient
	fs       vault.FS
	settings SettingsSource
	cache    *cachestore.Store
	opts     Options

	notifier notify.Sink
	recorder RunRecorder
	lock     RunLock
	now      func() time.Time

	mu      sync.Mutex
	running bool
	state   State
}

// New creates a sync engine.
func New(client RemoteClient, fs vault.FS, settings SettingsSource, opts Options) *Engine {
	if opts.WriteConcurrency <= 0 {
		opts.WriteConcurrency = DefaultWriteConcurrency
	}
	if opts.BackfillWindow <= 0 {
		opts.BackfillWindow = cachestore.DefaultBackfillWindow
	}
	if opts.RunTimeout <= 0 {
		opts.RunTimeout = DefaultRunTimeout
	}
	if opts.UnresolvedPolicy == "" {
		opts.UnresolvedPolicy = UnresolvedSkip
	}

	return &Engine{
		client:   client,
		fs:       fs,
		settings: settings,
		cache:    cachestore.New(fs, opts.CacheFile),
		opts:     opts,
		notifier: notify.Logger{},
		now:      time.Now,
		state:    StateIdle,
	}
}

// SetNotifier replaces the sink that receives the end-of-run message.
func (e *Engine) SetNotifier(sink notify.Sink) {
	e.notifier = sink
}

// SetRunRecorder enables run history.
func (e *Engine) SetRunRecorder(recorder RunRecorder) {
	e.recorder = recorder
}

// SetRunLock makes every run hold lock for its whole duration. A run that
// cannot take it returns ErrSyncInProgress.
func (e *Engine) SetRunLock(lock RunLock) {
	e.lock = lock
}

// SetClock overrides the time source.
func (e *Engine) SetClock(now func() time.Time) {
	e.now = now
}

// State returns the stage the current run is in, or StateIdle.
func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// IsSyncing reports whether a run is active.
func (e *Engine) IsSyncing() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.running
}

// Run performs one sync. It returns ErrSyncInProgress without doing anything
// if another run is active. A non-nil Result is returned whenever the run
// started, including failed runs.
func (e *Engine) Run(ctx context.Context, trigger entities.SyncTrigger) (*Result, error) {
	e.mu.Lock()
	if e.running {
		e.mu.Unlock()
		log.Printf("Readwise sync: skipped (already syncing)")
		return nil, ErrSyncInProgress
	}
	e.running = true
	e.mu.Unlock()

	defer func() {
		e.mu.Lock()
		e.running = false
		e.state = StateIdle
		e.mu.Unlock()
	}()

	if e.lock != nil {
		locked, err := e.lock.TryLock()
		if err != nil {
			return nil, fmt.Errorf("failed to lock vault: %w", err)
		}
		if !locked {
			log.Printf("Readwise sync: skipped (another process is syncing this vault)")
			return nil, ErrSyncInProgress
		}
		defer func() {
			if err := e.lock.Unlock(); err != nil {
				log.Printf("Readwise sync: warning - failed to release vault lock: %v", err)
			}
		}()
	}

	ctx, cancel := context.WithTimeout(ctx, e.opts.RunTimeout)
	defer cancel()

	r := &run{
		engine:   e,
		settings: e.settings.GetSyncSettings(),
		result: &Result{
			RunID:     uuid.NewString(),
			Trigger:   trigger,
			StartedAt: e.now(),
			DryRun:    e.opts.DryRun,
		},
	}
	r.materializer = notes.NewMaterializer(e.fs, notes.Layout{
		InboxDir:      r.settings.InboxDir,
		ReferencesDir: r.settings.ReferencesDir,
	}).WithDryRun(e.opts.DryRun)

	history := e.startHistory(r.result)

	err := r.execute(ctx)
	r.result.FinishedAt = e.now()
	r.result.Err = err

	e.finishHistory(history, r.result)
	e.notify(r.result)

	return r.result, err
}

func (e *Engine) setState(state State) {
	e.mu.Lock()
	e.state = state
	e.mu.Unlock()
}

func (e *Engine) notify(result *Result) {
	if e.notifier == nil {
		return
	}
	if result.Err != nil {
		message := fmt.Sprintf("Sync failed: %v", result.Err)
		if errors.Is(result.Err, readwise.ErrRateLimited) {
			message = "Sync failed: Readwise rate limit exceeded, try again later"
		}
		e.notifier.Notify(notify.Notification{
			Level:   notify.LevelError,
			Message: message,
		})
		return
	}
	e.notifier.Notify(notify.Notification{
		Level:   notify.LevelInfo,
		Message: result.Summary(),
		Count:   result.HighlightsCreated,
	})
}

func (e *Engine) startHistory(result *Result) *entities.SyncRun {
	if e.recorder == nil {
		return nil
	}
	history := &entities.SyncRun{
		RunID:     result.RunID,
		Trigger:   result.Trigger,
		Status:    entities.SyncStatusRunning,
		StartedAt: result.StartedAt,
	}
	if err := e.recorder.StartSyncRun(history); err != nil {
		log.Printf("Readwise sync: warning - failed to record run start: %v", err)
		return nil
	}
	return history
}

func (e *Engine) finishHistory(history *entities.SyncRun, result *Result) {
	if history == nil {
		return
	}
	result.ApplyTo(history)
	if err := e.recorder.FinishSyncRun(history); err != nil {
		log.Printf("Readwise sync: warning - failed to record run result: %v", err)
	}
}

// run holds the state of a single sync run.
type run struct {
	engine       *Engine
	settings     entities.SyncSettings
	materializer *notes.Materializer
	cache        *entities.SyncCache
	result       *Result

	mu sync.Mutex
	// Highlight timestamps of notes that could not be written.
	failedAt []time.Time
	// Highlight timestamps of notes that were created or already existed.
	doneAt []time.Time
}

func (r *run) execute(ctx context.Context) error {
	e := r.engine

	if r.settings.Token == "" {
		return ErrTokenMissing
	}

	e.setState(StateLoadingCache)
	r.cache = r.loadCache()
	since := r.cache.LastUpdate
	r.result.WatermarkBefore = since
	r.result.WatermarkAfter = since
	log.Printf("Readwise sync: run %s incremental from %s", r.result.RunID, since.Format(time.RFC3339))

	e.setState(StateFetchingBooks)
	books, err := e.client.FetchBooks(ctx, r.settings.Token, since)
	if err != nil {
		return fmt.Errorf("fetching books: %w", err)
	}
	r.result.BooksFetched = len(books)

	e.setState(StateWritingBookNotes)
	if err := r.writeBooks(ctx, books); err != nil {
		return err
	}

	e.setState(StateFetchingHighlights)
	highlights, err := e.client.FetchHighlights(ctx, r.settings.Token, since)
	if err != nil {
		return fmt.Errorf("fetching highlights: %w", err)
	}
	r.result.HighlightsFetched = len(highlights)

	e.setState(StateWritingHighlightNotes)
	if err := r.writeHighlights(ctx, highlights); err != nil {
		return err
	}
	r.advanceWatermark()
	r.result.WatermarkAfter = r.cache.LastUpdate
	r.result.KnownBooks = len(r.cache.Books)

	if e.opts.DryRun {
		log.Printf("Readwise sync: dry run, cache not saved")
		return nil
	}

	e.setState(StatePersistingCache)
	if err := e.cache.Save(r.cache); err != nil {
		return fmt.Errorf("%w: %v", ErrCacheWriteFailed, err)
	}
	return nil
}

// loadCache returns the persisted cache, or a fresh default one when it is
// missing or cannot be read.
func (r *run) loadCache() *entities.SyncCache {
	e := r.engine

	cache, err := e.cache.Load()
	if err == nil {
		return cache
	}

	if errors.Is(err, cachestore.ErrCacheNotFound) {
		log.Printf("Readwise sync: no sync cache found, starting a full backfill")
	} else {
		log.Printf("Readwise sync: warning - %v; starting a full backfill", err)
	}
	return cachestore.Default(e.now(), e.opts.BackfillWindow)
}

// writeBooks updates the in-memory book map and writes book notes. The map
// is updated in order on this goroutine; only the file writes run in
// parallel.
func (r *run) writeBooks(ctx context.Context, books []entities.Book) error {
	g := r.writeGroup()

	for _, book := range books {
		book := book
		if ctx.Err() != nil {
			break
		}

		normalized := utils.NormalizeTitle(book.Title)
		r.cache.PutBook(book.ID, entities.CachedBook{
			Title:           book.Title,
			NormalizedTitle: normalized,
		})

		g.Go(func() error {
			outcome, err := r.materializer.MaterializeBook(book, normalized)
			r.recordBook(book.ID, outcome, err)
			return nil
		})
	}

	_ = g.Wait()
	return ctx.Err()
}

func (r *run) writeHighlights(ctx context.Context, highlights []entities.Highlight) error {
	g := r.writeGroup()

	for _, highlight := range highlights {
		highlight := highlight
		if ctx.Err() != nil {
			break
		}

		book, ok := r.cache.Book(highlight.BookID)
		if !ok {
			unresolved := &UnresolvedBookError{HighlightID: highlight.ID, BookID: highlight.BookID}
			if r.engine.opts.UnresolvedPolicy == UnresolvedAbort {
				_ = g.Wait()
				return unresolved
			}
			log.Printf("Readwise sync: warning - %v, skipping", unresolved)
			r.mu.Lock()
			r.result.Unresolved = append(r.result.Unresolved, highlight.ID)
			r.result.RecordErrors = multierr.Append(r.result.RecordErrors, unresolved)
			r.mu.Unlock()
			continue
		}

		g.Go(func() error {
			outcome, err := r.materializer.MaterializeHighlight(highlight, book)
			r.recordHighlight(highlight, outcome, err)
			return nil
		})
	}

	_ = g.Wait()
	return ctx.Err()
}

func (r *run) writeGroup() *errgroup.Group {
	g := &errgroup.Group{}
	g.SetLimit(r.engine.opts.WriteConcurrency)
	return g
}

func (r *run) recordBook(id int, outcome notes.Outcome, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	switch {
	case err != nil:
		log.Printf("Readwise sync: warning - failed to write book %d: %v", id, err)
		r.result.BooksFailed++
		r.result.RecordErrors = multierr.Append(r.result.RecordErrors, &RecordError{Kind: "book", ID: id, Err: err})
	case outcome == notes.Created:
		r.result.BooksCreated++
	default:
		r.result.BooksSkipped++
	}
}

func (r *run) recordHighlight(highlight entities.Highlight, outcome notes.Outcome, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	switch {
	case err != nil:
		log.Printf("Readwise sync: warning - failed to write highlight %d: %v", highlight.ID, err)
		r.result.HighlightsFailed++
		r.result.RecordErrors = multierr.Append(r.result.RecordErrors, &RecordError{Kind: "highlight", ID: highlight.ID, Err: err})
		if highlight.HighlightedAt != nil {
			r.failedAt = append(r.failedAt, *highlight.HighlightedAt)
		}
		return
	case outcome == notes.Created:
		r.result.HighlightsCreated++
	default:
		r.result.HighlightsSkipped++
	}
	if highlight.HighlightedAt != nil {
		r.doneAt = append(r.doneAt, *highlight.HighlightedAt)
	}
}

// advanceWatermark moves the cache watermark to the newest highlight that
// made it into the vault. It never moves past a highlight whose note failed
// to write, so the next run fetches that highlight again.
func (r *run) advanceWatermark() {
	var ceiling *time.Time
	for _, t := range r.failedAt {
		if ceiling == nil || t.Before(*ceiling) {
			t := t
			ceiling = &t
		}
	}

	for _, t := range r.doneAt {
		if ceiling != nil && !t.Before(*ceiling) {
			continue
		}
		r.cache.Advance(t)
	}
}
