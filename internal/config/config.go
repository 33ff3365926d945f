package config

import (
	"time"

	"github.com/spf13/viper"
)

type (
	Config struct {
		HTTP
		Global
		Vault
		Readwise
		Sync
		Database
	}

	HTTP struct {
		Port int32
		Host string
	}
	Global struct {
		ShutdownTimeoutInSeconds int
	}
	Vault struct {
		Dir string // Vault root; every other path is relative to it
	}
	Readwise struct {
		BaseURL        string
		PageSize       int
		RequestTimeout time.Duration
	}
	Sync struct {
		CacheFile        string
		BackfillWindow   time.Duration // How far back the first run reaches
		WriteConcurrency int
		UnresolvedPolicy string // "skip" or "abort"
		RunTimeout       time.Duration
		HistoryRetention time.Duration
	}
	Database struct {
		Path string
	}
)

func NewConfig() *Config {
	v := viper.New()
	v.AutomaticEnv()
	v.SetDefault("port", 8188)
	v.SetDefault("host", "0.0.0.0")
	v.SetDefault("shutdown_timeout_in_seconds", 2)
	v.SetDefault("vault_dir", ".")
	v.SetDefault("readwise_base_url", DefaultReadwiseBaseURL)
	v.SetDefault("readwise_page_size", 1000)
	v.SetDefault("readwise_request_timeout", "30s")
	v.SetDefault("sync_cache_file", DefaultCacheFile)
	v.SetDefault("sync_backfill_window", "8760h") // 365 days
	v.SetDefault("sync_write_concurrency", 8)
	v.SetDefault("sync_unresolved_policy", "skip")
	v.SetDefault("sync_run_timeout", "10m")
	v.SetDefault("sync_history_retention", "2160h") // 90 days
	v.SetDefault("database_path", DefaultDatabasePath)

	return &Config{
		HTTP: HTTP{
			Port: v.GetInt32("PORT"),
			Host: v.GetString("HOST"),
		},
		Global: Global{
			ShutdownTimeoutInSeconds: v.GetInt("SHUTDOWN_TIMEOUT_IN_SECONDS"),
		},
		Vault: Vault{
			Dir: v.GetString("VAULT_DIR"),
		},
		Readwise: Readwise{
			BaseURL:        v.GetString("READWISE_BASE_URL"),
			PageSize:       v.GetInt("READWISE_PAGE_SIZE"),
			RequestTimeout: v.GetDuration("READWISE_REQUEST_TIMEOUT"),
		},
		Sync: Sync{
			CacheFile:        v.GetString("SYNC_CACHE_FILE"),
			BackfillWindow:   v.GetDuration("SYNC_BACKFILL_WINDOW"),
			WriteConcurrency: v.GetInt("SYNC_WRITE_CONCURRENCY"),
			UnresolvedPolicy: v.GetString("SYNC_UNRESOLVED_POLICY"),
			RunTimeout:       v.GetDuration("SYNC_RUN_TIMEOUT"),
			HistoryRetention: v.GetDuration("SYNC_HISTORY_RETENTION"),
		},
		Database: Database{
			Path: v.GetString("DATABASE_PATH"),
		},
	}
}
