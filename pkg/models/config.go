package models

import "time"

// Storage backends for the alert list
const (
	StoragePreferences = "preferences"
	StorageSQLite      = "sqlite"
)

// Config holds application configuration
type Config struct {
	AutoStart           bool   `json:"auto_start"`
	LogLevel            string `json:"log_level"`             // debug, info, warn, error
	CleanupDelaySeconds int    `json:"cleanup_delay_seconds"` // one-shot alerts linger this long after firing
	StorageBackend      string `json:"storage_backend"`       // preferences or sqlite
	SQLitePath          string `json:"sqlite_path"`
	ChimePath           string `json:"chime_path"`          // WAV played on main fire, empty = silent
	TrayUpcomingLimit   int    `json:"tray_upcoming_limit"` // alerts listed in the tray menu
}

// CleanupDelay returns the grace period before a fired one-shot alert is removed
func (c *Config) CleanupDelay() time.Duration {
	if c.CleanupDelaySeconds <= 0 {
		return 5 * time.Second
	}
	return time.Duration(c.CleanupDelaySeconds) * time.Second
}

// UsesSQLite returns true if alerts are stored in the SQLite database
func (c *Config) UsesSQLite() bool {
	return c.StorageBackend == StorageSQLite
}
