package cli

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"gorm.io/gorm"

	"github.com/mrlokans/highlights-sync/internal/cachestore"
	"github.com/mrlokans/highlights-sync/internal/config"
	"github.com/mrlokans/highlights-sync/internal/database"
	"github.com/mrlokans/highlights-sync/internal/database/syncruns"
	"github.com/mrlokans/highlights-sync/internal/entities"
	"github.com/mrlokans/highlights-sync/internal/settingsstore"
	"github.com/mrlokans/highlights-sync/internal/vault"
)

// StatusCommand prints the sync cache watermark and recent run history.
type StatusCommand struct {
	VaultDir     string
	DatabasePath string
	Limit        int
	// Out receives the report; nil means stdout.
	Out io.Writer
}

func NewStatusCommand() *StatusCommand {
	return &StatusCommand{}
}

func (cmd *StatusCommand) ParseFlags(args []string) error {
	fs := flag.NewFlagSet("status", flag.ExitOnError)

	fs.StringVar(&cmd.VaultDir, "vault", "", "Vault root directory (default: $VAULT_DIR or current directory)")
	fs.StringVar(&cmd.DatabasePath, "db", "", "Path to the settings database (default: $DATABASE_PATH or "+config.DefaultDatabasePath+")")
	fs.IntVar(&cmd.Limit, "n", 5, "Number of recent runs to show")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s status [options]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Show the sync watermark, known books and recent sync runs.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return err
	}
	if cmd.Limit <= 0 {
		return fmt.Errorf("-n must be positive")
	}
	return nil
}

func (cmd *StatusCommand) Run() error {
	out := cmd.Out
	if out == nil {
		out = os.Stdout
	}

	cfg := config.NewConfig()
	if cmd.VaultDir != "" {
		cfg.Vault.Dir = cmd.VaultDir
	}
	if cmd.DatabasePath != "" {
		cfg.Database.Path = cmd.DatabasePath
	}

	fmt.Fprintln(out, "Readwise Sync Status")
	fmt.Fprintln(out, "====================")

	store := cachestore.New(vault.NewOS(cfg.Vault.Dir), cfg.Sync.CacheFile)
	cache, err := store.Load()
	if err != nil {
		fmt.Fprintf(out, "Cache:       %v (next run starts a full backfill)\n", err)
	} else {
		fmt.Fprintf(out, "Cache:       %s\n", store.Path())
		fmt.Fprintf(out, "Watermark:   %s\n", cache.LastUpdate.Format(time.RFC3339))
		fmt.Fprintf(out, "Known books: %d\n", len(cache.Books))
	}

	db, err := database.NewDatabase(cfg.Database.Path)
	if err != nil {
		return err
	}
	defer db.Close()

	status := settingsstore.New(db).GetSyncStatus()
	if status.LastSyncAt != nil {
		fmt.Fprintf(out, "Last sync:   %s (%s) %s\n", status.LastSyncAt.Format(time.RFC3339), status.Status, status.Message)
	} else {
		fmt.Fprintln(out, "Last sync:   never")
	}

	history := syncruns.NewRepository(db.DB)
	last, err := history.GetLastSuccessfulRun()
	switch {
	case err == nil:
		fmt.Fprintf(out, "Last success: %s %s\n", last.StartedAt.Format(time.RFC3339), describeRun(*last))
	case errors.Is(err, gorm.ErrRecordNotFound):
		fmt.Fprintln(out, "Last success: never")
	default:
		return err
	}

	runs, err := history.GetRecentRuns(cmd.Limit)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		return nil
	}

	fmt.Fprintln(out)
	fmt.Fprintln(out, "Recent runs:")
	for _, run := range runs {
		fmt.Fprintf(out, "  %s  %-9s %-8s %s\n", run.StartedAt.Format(time.RFC3339), run.Status, run.Trigger, describeRun(run))
	}
	return nil
}

func describeRun(run entities.SyncRun) string {
	if run.Status == entities.SyncStatusFailed {
		return run.Error
	}
	return fmt.Sprintf("%d/%d books, %d/%d highlights created",
		run.BooksCreated, run.BooksFetched, run.HighlightsCreated, run.HighlightsFetched)
}
