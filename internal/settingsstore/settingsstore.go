// Package settingsstore resolves user settings.
//
// Every value is looked up with the priority database > environment > default.
// Database values are written by the HTTP settings endpoint; environment
// values come from the process environment.
package settingsstore

import (
	"errors"
	"os"

	"gorm.io/gorm"

	"github.com/mrlokans/highlights-sync/internal/database"
)

const (
	SourceDatabase    = "database"
	SourceEnvironment = "environment"
	SourceDefault     = "default"
)

// Priority: database > environment > default
type SettingsStore struct {
	db *database.Database
}

func New(db *database.Database) *SettingsStore {
	return &SettingsStore{db: db}
}

// lookup returns the effective value for key and where it came from.
func (s *SettingsStore) lookup(key, envVar, def string) (string, string) {
	setting, err := s.db.GetSetting(key)
	if err == nil && setting.Value != "" {
		return setting.Value, SourceDatabase
	}

	if envVar != "" {
		if envVal := os.Getenv(envVar); envVal != "" {
			return envVal, SourceEnvironment
		}
	}

	return def, SourceDefault
}

func (s *SettingsStore) clear(keys ...string) error {
	for _, key := range keys {
		err := s.db.DeleteSetting(key)
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
	}
	return nil
}

func parseBool(value string) bool {
	return value == "true" || value == "1"
}
