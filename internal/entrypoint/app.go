package entrypoint

import (
	"fmt"
	"log"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"

	"github.com/mrlokans/highlights-sync/internal/cachestore"
	"github.com/mrlokans/highlights-sync/internal/config"
	"github.com/mrlokans/highlights-sync/internal/database"
	"github.com/mrlokans/highlights-sync/internal/database/syncruns"
	"github.com/mrlokans/highlights-sync/internal/notify"
	"github.com/mrlokans/highlights-sync/internal/readwise"
	"github.com/mrlokans/highlights-sync/internal/scheduler"
	"github.com/mrlokans/highlights-sync/internal/settingsstore"
	"github.com/mrlokans/highlights-sync/internal/syncengine"
	"github.com/mrlokans/highlights-sync/internal/vault"
)

// App holds every long-lived component of a sync process.
type App struct {
	DB       *database.Database
	Settings *settingsstore.SettingsStore
	Runs     *syncruns.Repository
	Client   *readwise.Client
	Vault    *vault.Vault
	Engine   *syncengine.Engine
}

// AppOptions adjusts how NewApp wires the engine.
type AppOptions struct {
	DryRun bool
	// Sink receives the end-of-run notification in addition to the
	// settings-store status recorder.
	Sink notify.Sink
}

// NewApp opens the database and builds the engine from cfg.
func NewApp(cfg *config.Config, opts AppOptions) (*App, error) {
	policy, err := syncengine.ParseUnresolvedPolicy(cfg.Sync.UnresolvedPolicy)
	if err != nil {
		return nil, err
	}

	db, err := database.NewDatabase(cfg.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	settings := settingsstore.New(db)
	runs := syncruns.NewRepository(db.DB)

	v := vault.NewOS(cfg.Vault.Dir)
	// Dry runs write nothing to the vault, the lock file included, and
	// leave no history or status behind.
	var lock *flock.Flock
	if !opts.DryRun {
		lock = flock.New(lockPath(v, cfg.Sync.CacheFile))
		markInterrupted(runs, lock)
	}

	if cfg.Sync.HistoryRetention > 0 {
		cutoff := time.Now().Add(-cfg.Sync.HistoryRetention)
		if n, err := runs.DeleteOlderThan(cutoff); err != nil {
			log.Printf("WARNING: failed to prune sync history: %v", err)
		} else if n > 0 {
			log.Printf("Pruned %d sync run(s) older than %s", n, cutoff.Format(time.RFC3339))
		}
	}

	client := readwise.NewClient(
		readwise.WithBaseURL(cfg.Readwise.BaseURL),
		readwise.WithPageSize(cfg.Readwise.PageSize),
		readwise.WithTimeout(cfg.Readwise.RequestTimeout),
	)

	engine := syncengine.New(client, v, settings, syncengine.Options{
		CacheFile:        cfg.Sync.CacheFile,
		BackfillWindow:   cfg.Sync.BackfillWindow,
		WriteConcurrency: cfg.Sync.WriteConcurrency,
		UnresolvedPolicy: policy,
		RunTimeout:       cfg.Sync.RunTimeout,
		DryRun:           opts.DryRun,
	})
	if !opts.DryRun {
		engine.SetRunRecorder(runs)
		engine.SetRunLock(lock)
	}

	sinks := notify.Multi{notify.Logger{}}
	if !opts.DryRun {
		sinks = append(sinks, notify.StatusRecorder{Store: settings})
	}
	if opts.Sink != nil {
		sinks = append(sinks, opts.Sink)
	}
	engine.SetNotifier(sinks)

	return &App{
		DB:       db,
		Settings: settings,
		Runs:     runs,
		Client:   client,
		Vault:    v,
		Engine:   engine,
	}, nil
}

// lockPath is the lock file held by every run, next to the sync cache.
func lockPath(v *vault.Vault, cacheFile string) string {
	if cacheFile == "" {
		cacheFile = cachestore.DefaultFilename
	}
	return filepath.Join(v.Root(), filepath.FromSlash(cacheFile)+".lock")
}

// markInterrupted fails runs left in the running state by a process that
// died. Runs hold the vault lock until they finish, so rows are only stale
// while the lock is free.
func markInterrupted(runs *syncruns.Repository, lock *flock.Flock) {
	locked, err := lock.TryLock()
	if err != nil {
		log.Printf("WARNING: failed to lock vault, leaving running sync runs as they are: %v", err)
		return
	}
	if !locked {
		log.Printf("Another process is syncing this vault; leaving its sync run as running")
		return
	}
	defer func() {
		if err := lock.Unlock(); err != nil {
			log.Printf("WARNING: failed to release vault lock: %v", err)
		}
	}()

	if n, err := runs.MarkInterrupted(); err != nil {
		log.Printf("WARNING: failed to clean up interrupted runs: %v", err)
	} else if n > 0 {
		log.Printf("Marked %d interrupted sync run(s) as failed", n)
	}
}

// NewScheduler builds the cron scheduler driving the app's engine.
func (a *App) NewScheduler() *scheduler.SyncScheduler {
	return scheduler.NewSyncScheduler(a.Settings, a.Engine)
}

// CheckVault verifies the vault is writable and warns about missing note
// directories. Notes are never written outside existing directories.
func (a *App) CheckVault() error {
	log.Printf("Checking vault directory: %s", a.Vault.Root())
	if err := a.Vault.CheckWritable(); err != nil {
		return err
	}
	log.Printf("Vault directory %s is writable", a.Vault.Root())

	settings := a.Settings.GetSyncSettings()
	for _, dir := range []string{settings.InboxDir, settings.ReferencesDir} {
		ok, err := a.Vault.IsDir(dir)
		if err != nil {
			return err
		}
		if !ok {
			log.Printf("WARNING: vault directory %s/%s does not exist; notes for it will fail to write", a.Vault.Root(), dir)
		}
	}
	return nil
}

func (a *App) Close() {
	if err := a.DB.Close(); err != nil {
		log.Printf("Error closing database: %v", err)
	}
}
