package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mrlokans/highlights-sync/internal/config"
	"github.com/mrlokans/highlights-sync/internal/entities"
	"github.com/mrlokans/highlights-sync/internal/entrypoint"
	"github.com/mrlokans/highlights-sync/internal/syncengine"
)

// SyncCommand runs one sync from the command line.
type SyncCommand struct {
	VaultDir         string
	DatabasePath     string
	UnresolvedPolicy string
	DryRun           bool
	Verbose          bool
}

func NewSyncCommand() *SyncCommand {
	return &SyncCommand{}
}

func (cmd *SyncCommand) ParseFlags(args []string) error {
	fs := flag.NewFlagSet("sync", flag.ExitOnError)

	fs.StringVar(&cmd.VaultDir, "vault", "", "Vault root directory (default: $VAULT_DIR or current directory)")
	fs.StringVar(&cmd.DatabasePath, "db", "", "Path to the settings database (default: $DATABASE_PATH or "+config.DefaultDatabasePath+")")
	fs.StringVar(&cmd.UnresolvedPolicy, "unresolved", "", "What to do with highlights of unknown books: skip or abort (default: $SYNC_UNRESOLVED_POLICY or skip)")
	fs.BoolVar(&cmd.DryRun, "dry-run", false, "Fetch and report what would be written without touching the vault")
	fs.BoolVar(&cmd.Verbose, "verbose", false, "Print every per-record failure")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s sync [options]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Fetch new Readwise books and highlights and write them as notes into the vault.\n\n")
		fmt.Fprintf(os.Stderr, "The Readwise token is read from the settings database or $READWISE_TOKEN.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  # Sync into a vault:\n")
		fmt.Fprintf(os.Stderr, "  READWISE_TOKEN=... %s sync -vault ~/Notes\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  # Preview what would be written:\n")
		fmt.Fprintf(os.Stderr, "  %s sync -vault ~/Notes -dry-run -verbose\n", os.Args[0])
	}

	if err := fs.Parse(args); err != nil {
		return err
	}

	if cmd.UnresolvedPolicy != "" {
		if _, err := syncengine.ParseUnresolvedPolicy(cmd.UnresolvedPolicy); err != nil {
			return err
		}
	}

	return nil
}

// config applies the flags on top of the environment configuration.
func (cmd *SyncCommand) config() *config.Config {
	cfg := config.NewConfig()
	if cmd.VaultDir != "" {
		cfg.Vault.Dir = cmd.VaultDir
	}
	if cmd.DatabasePath != "" {
		cfg.Database.Path = cmd.DatabasePath
	}
	if cmd.UnresolvedPolicy != "" {
		cfg.Sync.UnresolvedPolicy = cmd.UnresolvedPolicy
	}
	return cfg
}

func (cmd *SyncCommand) Run() error {
	fmt.Println("Readwise Sync")
	fmt.Println("=============")

	if cmd.DryRun {
		fmt.Println("DRY RUN MODE - No changes will be made")
		fmt.Println()
	}

	if !cmd.Verbose {
		log.SetOutput(io.Discard)
		defer log.SetOutput(os.Stderr)
	}

	cfg := cmd.config()
	app, err := entrypoint.NewApp(cfg, entrypoint.AppOptions{DryRun: cmd.DryRun})
	if err != nil {
		return err
	}
	defer app.Close()

	if err := app.CheckVault(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	result, err := app.Engine.Run(ctx, entities.SyncTriggerCLI)
	if result != nil {
		cmd.printResult(result)
	}
	if errors.Is(err, syncengine.ErrTokenMissing) {
		return fmt.Errorf("%w: set READWISE_TOKEN or configure it in the settings database", err)
	}
	return err
}

func (cmd *SyncCommand) printResult(result *syncengine.Result) {
	fmt.Printf("Run ID:     %s\n", result.RunID)
	fmt.Printf("Books:      %d fetched, %d created, %d skipped, %d failed\n",
		result.BooksFetched, result.BooksCreated, result.BooksSkipped, result.BooksFailed)
	fmt.Printf("Highlights: %d fetched, %d created, %d skipped, %d failed\n",
		result.HighlightsFetched, result.HighlightsCreated, result.HighlightsSkipped, result.HighlightsFailed)
	if len(result.Unresolved) > 0 {
		fmt.Printf("Unresolved: %d highlight(s) reference unknown books\n", len(result.Unresolved))
	}
	fmt.Printf("Watermark:  %s -> %s\n",
		result.WatermarkBefore.Format(time.RFC3339),
		result.WatermarkAfter.Format(time.RFC3339))

	if cmd.Verbose {
		for _, err := range result.Errors() {
			fmt.Printf("  - %v\n", err)
		}
	}

	fmt.Println()
	if result.Err != nil {
		fmt.Printf("Sync failed: %v\n", result.Err)
		return
	}
	fmt.Println(result.Summary())
}
