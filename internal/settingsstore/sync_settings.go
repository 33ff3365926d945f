package settingsstore

import (
	"fmt"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/mrlokans/highlights-sync/internal/entities"
)

const (
	EnvToken         = "READWISE_TOKEN"
	EnvInboxDir      = "INBOX_DIR"
	EnvReferencesDir = "REFERENCES_DIR"
	EnvSyncEnabled   = "SYNC_ENABLED"
	EnvSyncSchedule  = "SYNC_SCHEDULE"

	DefaultSchedule = "0 */6 * * *"
)

// SyncConfigInfo is the effective sync configuration with the source of
// every field.
type SyncConfigInfo struct {
	Token       string `json:"token"` // Masked for display
	TokenSource string `json:"token_source"`
	HasToken    bool   `json:"has_token"`

	InboxDir       string `json:"inbox_dir"`
	InboxDirSource string `json:"inbox_dir_source"`

	ReferencesDir       string `json:"references_dir"`
	ReferencesDirSource string `json:"references_dir_source"`

	Enabled       bool   `json:"enabled"`
	EnabledSource string `json:"enabled_source"`

	Schedule            string     `json:"schedule"`
	ScheduleSource      string     `json:"schedule_source"`
	ScheduleDescription string     `json:"schedule_description"`
	NextRunAt           *time.Time `json:"next_run_at,omitempty"`
}

// SyncStatus is the outcome of the last run.
type SyncStatus struct {
	LastSyncAt       *time.Time `json:"last_sync_at,omitempty"`
	Status           string     `json:"status,omitempty"` // "success", "failed", "running", ""
	Message          string     `json:"message,omitempty"`
	HighlightsSynced int        `json:"highlights_synced,omitempty"`
}

// GetToken returns the Readwise token (database > env > "")
func (s *SettingsStore) GetToken() string {
	value, _ := s.lookup(entities.SettingKeySyncToken, EnvToken, "")
	return value
}

func (s *SettingsStore) GetTokenSource() string {
	_, source := s.lookup(entities.SettingKeySyncToken, EnvToken, "")
	return source
}

func (s *SettingsStore) HasToken() bool {
	return s.GetToken() != ""
}

func (s *SettingsStore) SetToken(token string) error {
	return s.db.SetSetting(entities.SettingKeySyncToken, token)
}

// GetInboxDir returns the directory for highlight notes.
func (s *SettingsStore) GetInboxDir() string {
	value, _ := s.lookup(entities.SettingKeySyncInboxDir, EnvInboxDir, entities.DefaultInboxDir)
	return value
}

func (s *SettingsStore) GetInboxDirSource() string {
	_, source := s.lookup(entities.SettingKeySyncInboxDir, EnvInboxDir, entities.DefaultInboxDir)
	return source
}

func (s *SettingsStore) SetInboxDir(dir string) error {
	if err := ValidateVaultDir(dir); err != nil {
		return err
	}
	return s.db.SetSetting(entities.SettingKeySyncInboxDir, dir)
}

// GetReferencesDir returns the directory for book notes.
func (s *SettingsStore) GetReferencesDir() string {
	value, _ := s.lookup(entities.SettingKeySyncReferencesDir, EnvReferencesDir, entities.DefaultReferencesDir)
	return value
}

func (s *SettingsStore) GetReferencesDirSource() string {
	_, source := s.lookup(entities.SettingKeySyncReferencesDir, EnvReferencesDir, entities.DefaultReferencesDir)
	return source
}

func (s *SettingsStore) SetReferencesDir(dir string) error {
	if err := ValidateVaultDir(dir); err != nil {
		return err
	}
	return s.db.SetSetting(entities.SettingKeySyncReferencesDir, dir)
}

// GetSyncEnabled returns whether the periodic scheduler runs (database > env > false)
func (s *SettingsStore) GetSyncEnabled() bool {
	value, _ := s.lookup(entities.SettingKeySyncEnabled, EnvSyncEnabled, "")
	return parseBool(value)
}

func (s *SettingsStore) GetSyncEnabledSource() string {
	_, source := s.lookup(entities.SettingKeySyncEnabled, EnvSyncEnabled, "")
	return source
}

func (s *SettingsStore) SetSyncEnabled(enabled bool) error {
	return s.db.SetSetting(entities.SettingKeySyncEnabled, strconv.FormatBool(enabled))
}

// GetSyncSchedule returns the cron schedule (database > env > every 6 hours)
func (s *SettingsStore) GetSyncSchedule() string {
	value, _ := s.lookup(entities.SettingKeySyncSchedule, EnvSyncSchedule, DefaultSchedule)
	return value
}

func (s *SettingsStore) GetSyncScheduleSource() string {
	_, source := s.lookup(entities.SettingKeySyncSchedule, EnvSyncSchedule, DefaultSchedule)
	return source
}

func (s *SettingsStore) SetSyncSchedule(schedule string) error {
	if err := ValidateCronSchedule(schedule); err != nil {
		return fmt.Errorf("invalid cron schedule: %w", err)
	}
	return s.db.SetSetting(entities.SettingKeySyncSchedule, schedule)
}

// GetSyncSettings returns the snapshot a sync run works with.
func (s *SettingsStore) GetSyncSettings() entities.SyncSettings {
	return entities.SyncSettings{
		Token:         s.GetToken(),
		InboxDir:      s.GetInboxDir(),
		ReferencesDir: s.GetReferencesDir(),
	}
}

// GetSyncConfigInfo returns the configuration with source information
func (s *SettingsStore) GetSyncConfigInfo() SyncConfigInfo {
	token, tokenSource := s.lookup(entities.SettingKeySyncToken, EnvToken, "")
	schedule := s.GetSyncSchedule()

	info := SyncConfigInfo{
		Token:               maskToken(token),
		TokenSource:         tokenSource,
		HasToken:            token != "",
		InboxDir:            s.GetInboxDir(),
		InboxDirSource:      s.GetInboxDirSource(),
		ReferencesDir:       s.GetReferencesDir(),
		ReferencesDirSource: s.GetReferencesDirSource(),
		Enabled:             s.GetSyncEnabled(),
		EnabledSource:       s.GetSyncEnabledSource(),
		Schedule:            schedule,
		ScheduleSource:      s.GetSyncScheduleSource(),
		ScheduleDescription: GetCronDescription(schedule),
	}
	if info.Enabled {
		if next, err := GetNextRunTime(schedule); err == nil {
			info.NextRunAt = next
		}
	}
	return info
}

// ClearSyncSettings clears all database overrides, reverting to env/default
func (s *SettingsStore) ClearSyncSettings() error {
	return s.clear(
		entities.SettingKeySyncToken,
		entities.SettingKeySyncInboxDir,
		entities.SettingKeySyncReferencesDir,
		entities.SettingKeySyncEnabled,
		entities.SettingKeySyncSchedule,
	)
}

// GetSyncStatus returns the last sync status
func (s *SettingsStore) GetSyncStatus() SyncStatus {
	status := SyncStatus{}

	if setting, err := s.db.GetSetting(entities.SettingKeySyncLastAt); err == nil && setting.Value != "" {
		if ts, err := time.Parse(time.RFC3339, setting.Value); err == nil {
			status.LastSyncAt = &ts
		}
	}

	if setting, err := s.db.GetSetting(entities.SettingKeySyncLastStatus); err == nil {
		status.Status = setting.Value
	}

	if setting, err := s.db.GetSetting(entities.SettingKeySyncLastMessage); err == nil {
		status.Message = setting.Value
	}

	if setting, err := s.db.GetSetting(entities.SettingKeySyncHighlightsSynced); err == nil && setting.Value != "" {
		if count, err := strconv.Atoi(setting.Value); err == nil {
			status.HighlightsSynced = count
		}
	}

	return status
}

// SetSyncStatus updates the sync status
func (s *SettingsStore) SetSyncStatus(status, message string, highlightsSynced int) error {
	now := time.Now().UTC().Format(time.RFC3339)

	if err := s.db.SetSetting(entities.SettingKeySyncLastAt, now); err != nil {
		return err
	}
	if err := s.db.SetSetting(entities.SettingKeySyncLastStatus, status); err != nil {
		return err
	}
	if err := s.db.SetSetting(entities.SettingKeySyncLastMessage, message); err != nil {
		return err
	}
	return s.db.SetSetting(entities.SettingKeySyncHighlightsSynced, strconv.Itoa(highlightsSynced))
}

// ValidateVaultDir accepts a non-empty path relative to the vault root that
// stays inside it.
func ValidateVaultDir(dir string) error {
	if strings.TrimSpace(dir) == "" {
		return fmt.Errorf("directory must not be empty")
	}
	if path.IsAbs(dir) || strings.HasPrefix(dir, `\`) {
		return fmt.Errorf("directory %q must be relative to the vault", dir)
	}
	clean := path.Clean(strings.ReplaceAll(dir, `\`, "/"))
	if clean == ".." || strings.HasPrefix(clean, "../") {
		return fmt.Errorf("directory %q leaves the vault", dir)
	}
	return nil
}

// ValidateCronSchedule validates a cron schedule string
func ValidateCronSchedule(schedule string) error {
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
	_, err := parser.Parse(schedule)
	return err
}

// GetCronDescription returns a human-readable description of a cron schedule
func GetCronDescription(schedule string) string {
	switch schedule {
	case "0 * * * *":
		return "Every hour at :00"
	case "*/15 * * * *":
		return "Every 15 minutes"
	case "*/30 * * * *":
		return "Every 30 minutes"
	case "0 */6 * * *":
		return "Every 6 hours"
	case "0 0 * * *":
		return "Daily at midnight"
	default:
		return "Custom schedule: " + schedule
	}
}

// GetNextRunTime calculates when the next sync will run based on the schedule
func GetNextRunTime(schedule string) (*time.Time, error) {
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
	sched, err := parser.Parse(schedule)
	if err != nil {
		return nil, err
	}
	next := sched.Next(time.Now())
	return &next, nil
}

func maskToken(token string) string {
	if token == "" {
		return ""
	}
	if len(token) <= 8 {
		return "****"
	}
	return token[:4] + "****" + token[len(token)-4:]
}
