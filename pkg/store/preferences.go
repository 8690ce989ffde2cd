package store

import (
	"context"

	"fyne.io/fyne/v2"
)

// AlertsKey is the preference key holding the JSON-encoded alert list
const AlertsKey = "alerts"

// PreferencesBackend stores alerts as a JSON string in Fyne preferences
type PreferencesBackend struct {
	prefs fyne.Preferences
}

// NewPreferencesBackend creates a backend on top of the app preferences
func NewPreferencesBackend(app fyne.App) *PreferencesBackend {
	return &PreferencesBackend{prefs: app.Preferences()}
}

// Load returns the stored alert list, or nil when none is stored
func (pb *PreferencesBackend) Load(_ context.Context) ([]byte, error) {
	alertsJSON := pb.prefs.String(AlertsKey)
	if alertsJSON == "" {
		return nil, nil
	}
	return []byte(alertsJSON), nil
}

// Save writes the alert list into preferences
func (pb *PreferencesBackend) Save(_ context.Context, payload []byte) error {
	pb.prefs.SetString(AlertsKey, string(payload))
	return nil
}
