package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/borgmon/alert-timeline/pkg/models"
)

// Backend loads and saves the JSON-encoded alert list as one named blob.
// Load returns nil when nothing has been stored yet.
type Backend interface {
	Load(ctx context.Context) ([]byte, error)
	Save(ctx context.Context, payload []byte) error
}

// AlertStore keeps alerts in insertion order with an ID index
type AlertStore struct {
	mu sync.RWMutex

	backend Backend
	logger  *zap.Logger

	// Set while the stored list could not be read; saving would overwrite it
	loadErr error

	// Alerts in insertion order, persisted in this order
	alerts []*models.Alert

	// Map of alert ID to alert for quick lookup
	alertsById map[string]*models.Alert
}

// NewAlertStore creates a new AlertStore persisting through backend
func NewAlertStore(backend Backend, logger *zap.Logger) *AlertStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AlertStore{
		backend:    backend,
		logger:     logger,
		alertsById: make(map[string]*models.Alert),
	}
}

// Load replaces the in-memory alerts with the backend contents.
// Records that fail to decode, have no ID or repeat an ID are dropped and
// logged. When the blob itself cannot be read, the in-memory list is left
// empty and Save refuses to write until a later Load succeeds.
func (as *AlertStore) Load(ctx context.Context) (dropped int, err error) {
	records, err := as.readRecords(ctx)

	as.mu.Lock()
	defer as.mu.Unlock()

	as.alerts = make([]*models.Alert, 0, len(records))
	as.alertsById = make(map[string]*models.Alert, len(records))
	as.loadErr = err
	if err != nil {
		return 0, err
	}

	for i, raw := range records {
		var alert models.Alert
		if err := json.Unmarshal(raw, &alert); err != nil {
			as.logger.Warn("Dropping undecodable alert record",
				zap.Int("index", i), zap.Error(err))
			dropped++
			continue
		}
		if alert.ID == "" || as.alertsById[alert.ID] != nil {
			as.logger.Warn("Dropping alert record with missing or repeated id",
				zap.Int("index", i), zap.String("id", alert.ID))
			dropped++
			continue
		}
		as.alerts = append(as.alerts, &alert)
		as.alertsById[alert.ID] = &alert
	}
	return dropped, nil
}

func (as *AlertStore) readRecords(ctx context.Context) ([]json.RawMessage, error) {
	payload, err := as.backend.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadFailed, err)
	}
	if len(payload) == 0 {
		return nil, nil
	}

	var records []json.RawMessage
	if err := json.Unmarshal(payload, &records); err != nil {
		return nil, fmt.Errorf("%w: decode alert list: %w", ErrLoadFailed, err)
	}
	return records, nil
}

// Save writes the current alerts to the backend
func (as *AlertStore) Save(ctx context.Context) error {
	as.mu.RLock()
	loadErr := as.loadErr
	as.mu.RUnlock()
	if loadErr != nil {
		return fmt.Errorf("save alerts: %w", loadErr)
	}

	payload, err := json.Marshal(as.List())
	if err != nil {
		return fmt.Errorf("encode alerts: %w", err)
	}
	if err := as.backend.Save(ctx, payload); err != nil {
		return fmt.Errorf("save alerts: %w", err)
	}
	return nil
}

// Add appends a new alert
func (as *AlertStore) Add(alert models.Alert) error {
	as.mu.Lock()
	defer as.mu.Unlock()

	if _, exists := as.alertsById[alert.ID]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateID, alert.ID)
	}
	stored := alert.Clone()
	as.alerts = append(as.alerts, &stored)
	as.alertsById[stored.ID] = &stored
	return nil
}

// Update replaces the alert with the same ID, keeping its position
func (as *AlertStore) Update(alert models.Alert) error {
	as.mu.Lock()
	defer as.mu.Unlock()

	existing, exists := as.alertsById[alert.ID]
	if !exists {
		return fmt.Errorf("%w: %s", ErrNotFound, alert.ID)
	}
	*existing = alert.Clone()
	return nil
}

// Delete removes an alert and reports whether it existed
func (as *AlertStore) Delete(id string) bool {
	as.mu.Lock()
	defer as.mu.Unlock()

	if _, exists := as.alertsById[id]; !exists {
		return false
	}
	delete(as.alertsById, id)
	for i, alert := range as.alerts {
		if alert.ID == id {
			as.alerts = append(as.alerts[:i], as.alerts[i+1:]...)
			break
		}
	}
	return true
}

// Get returns a copy of an alert by ID
func (as *AlertStore) Get(id string) (models.Alert, bool) {
	as.mu.RLock()
	defer as.mu.RUnlock()

	alert, exists := as.alertsById[id]
	if !exists {
		return models.Alert{}, false
	}
	return alert.Clone(), true
}

// List returns copies of all alerts in insertion order
func (as *AlertStore) List() []models.Alert {
	as.mu.RLock()
	defer as.mu.RUnlock()

	result := make([]models.Alert, 0, len(as.alerts))
	for _, alert := range as.alerts {
		result = append(result, alert.Clone())
	}
	return result
}

// Timeline returns all alerts sorted by fire time
func (as *AlertStore) Timeline() []models.Alert {
	result := as.List()
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].DateTime.Before(result[j].DateTime)
	})
	return result
}

// Len returns the number of stored alerts
func (as *AlertStore) Len() int {
	as.mu.RLock()
	defer as.mu.RUnlock()
	return len(as.alerts)
}
