package store

import (
	"path/filepath"

	"fyne.io/fyne/v2"
	"github.com/borgmon/alert-timeline/pkg/models"
)

// ConfigStore handles configuration persistence using Fyne preferences
type ConfigStore struct {
	app fyne.App
}

// NewConfigStore creates a new ConfigStore instance
func NewConfigStore(app fyne.App) *ConfigStore {
	return &ConfigStore{app: app}
}

// Load loads configuration from preferences
func (cs *ConfigStore) Load() *models.Config {
	prefs := cs.app.Preferences()

	config := &models.Config{
		AutoStart:           prefs.BoolWithFallback("auto_start", false),
		LogLevel:            prefs.StringWithFallback("log_level", "info"),
		CleanupDelaySeconds: prefs.IntWithFallback("cleanup_delay_seconds", 5),
		StorageBackend:      prefs.StringWithFallback("storage_backend", models.StoragePreferences),
		SQLitePath:          prefs.String("sqlite_path"),
		ChimePath:           prefs.String("chime_path"),
		TrayUpcomingLimit:   prefs.IntWithFallback("tray_upcoming_limit", 5),
	}

	if config.SQLitePath == "" {
		config.SQLitePath = cs.defaultSQLitePath()
	}

	return config
}

// Save saves configuration to preferences
func (cs *ConfigStore) Save(config *models.Config) {
	prefs := cs.app.Preferences()

	prefs.SetBool("auto_start", config.AutoStart)
	prefs.SetString("log_level", config.LogLevel)
	prefs.SetInt("cleanup_delay_seconds", config.CleanupDelaySeconds)
	prefs.SetString("storage_backend", config.StorageBackend)
	prefs.SetString("sqlite_path", config.SQLitePath)
	prefs.SetString("chime_path", config.ChimePath)
	prefs.SetInt("tray_upcoming_limit", config.TrayUpcomingLimit)
}

func (cs *ConfigStore) defaultSQLitePath() string {
	root := cs.app.Storage().RootURI()
	if root == nil {
		return "alerts.db"
	}
	return filepath.Join(root.Path(), "alerts.db")
}
