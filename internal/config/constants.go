package config

const (
	// DefaultDatabasePath is the default path for the settings and run history database
	DefaultDatabasePath = "./highlights-sync.db"

	// DefaultCacheFile is the sync cache document, relative to the vault root
	DefaultCacheFile = ".cache.json"

	DefaultReadwiseBaseURL = "https://readwise.io/api/v2"
)
