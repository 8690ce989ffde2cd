package store

import (
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"fyne.io/fyne/v2/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/borgmon/alert-timeline/pkg/models"
)

type memoryBackend struct {
	payload []byte
	saves   int
	loadErr error
}

func (m *memoryBackend) Load(context.Context) ([]byte, error) {
	return m.payload, m.loadErr
}

func (m *memoryBackend) Save(_ context.Context, payload []byte) error {
	m.saves++
	m.payload = payload
	return nil
}

func encodeRecords(t *testing.T, alerts ...models.Alert) []json.RawMessage {
	t.Helper()
	records := make([]json.RawMessage, 0, len(alerts))
	for _, a := range alerts {
		raw, err := json.Marshal(a)
		require.NoError(t, err)
		records = append(records, raw)
	}
	return records
}

func encodePayload(t *testing.T, records []json.RawMessage) []byte {
	t.Helper()
	payload, err := json.Marshal(records)
	require.NoError(t, err)
	return payload
}

func decodePayload(t *testing.T, payload []byte) []models.Alert {
	t.Helper()
	var alerts []models.Alert
	require.NoError(t, json.Unmarshal(payload, &alerts))
	return alerts
}

func newTestStore(t *testing.T, backend Backend) *AlertStore {
	return NewAlertStore(backend, zaptest.NewLogger(t))
}

func sampleAlert(id string, at time.Time) models.Alert {
	return models.Alert{
		ID:         id,
		Content:    "alert " + id,
		DateTime:   at,
		RepeatType: models.RepeatNone,
		CreatedAt:  at.Add(-time.Hour),
	}
}

func TestAlertStoreCRUD(t *testing.T) {
	backend := &memoryBackend{}
	as := newTestStore(t, backend)
	base := time.Date(2030, 1, 1, 9, 0, 0, 0, time.UTC)

	require.NoError(t, as.Add(sampleAlert("b", base.Add(2*time.Hour))))
	require.NoError(t, as.Add(sampleAlert("a", base.Add(time.Hour))))
	require.ErrorIs(t, as.Add(sampleAlert("a", base)), ErrDuplicateID)

	// insertion order is preserved, timeline is sorted
	assert.Equal(t, []string{"b", "a"}, ids(as.List()))
	assert.Equal(t, []string{"a", "b"}, ids(as.Timeline()))

	updated := sampleAlert("b", base)
	updated.Content = "changed"
	require.NoError(t, as.Update(updated))
	got, ok := as.Get("b")
	require.True(t, ok)
	assert.Equal(t, "changed", got.Content)
	assert.Equal(t, []string{"b", "a"}, ids(as.List()))

	require.ErrorIs(t, as.Update(sampleAlert("zzz", base)), ErrNotFound)

	assert.True(t, as.Delete("b"))
	assert.False(t, as.Delete("b"))
	assert.Equal(t, 1, as.Len())

	require.NoError(t, as.Save(context.Background()))
	assert.Equal(t, 1, backend.saves)
	assert.Equal(t, []string{"a"}, ids(decodePayload(t, backend.payload)))
}

func TestAlertStoreReturnsCopies(t *testing.T) {
	as := newTestStore(t, &memoryBackend{})
	alert := sampleAlert("a", time.Now())
	alert.RepeatType = models.RepeatWeekdays
	alert.Weekdays = []int{1, 2}
	require.NoError(t, as.Add(alert))

	got, _ := as.Get("a")
	got.Weekdays[0] = 6
	got.Content = "mutated"

	again, _ := as.Get("a")
	assert.Equal(t, []int{1, 2}, again.Weekdays)
	assert.Equal(t, "alert a", again.Content)
}

func TestAlertStoreLoadDropsInvalidRecords(t *testing.T) {
	at := time.Date(2030, 1, 1, 9, 0, 0, 0, time.UTC)
	backend := &memoryBackend{payload: encodePayload(t, encodeRecords(t,
		sampleAlert("a", at),
		sampleAlert("", at),
		sampleAlert("a", at.Add(time.Hour)),
		models.Alert{ID: "legacy", Content: "no repeat type", DateTime: at},
	))}
	as := newTestStore(t, backend)

	dropped, err := as.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, dropped)
	assert.Equal(t, []string{"a", "legacy"}, ids(as.List()))

	legacy, _ := as.Get("legacy")
	assert.Equal(t, models.RepeatNone, legacy.RepeatType)
}

func TestAlertStoreLoadDropsUndecodableRecords(t *testing.T) {
	at := time.Date(2030, 1, 1, 9, 0, 0, 0, time.UTC)
	records := encodeRecords(t, sampleAlert("a", at))
	records = append(records,
		json.RawMessage(`{"id":"bad-time","content":"x","dateTime":"yesterday"}`),
		json.RawMessage(`42`),
	)
	records = append(records, encodeRecords(t, sampleAlert("b", at.Add(time.Hour)))...)
	backend := &memoryBackend{payload: encodePayload(t, records)}
	as := newTestStore(t, backend)

	dropped, err := as.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, dropped)
	assert.Equal(t, []string{"a", "b"}, ids(as.List()))

	// the good records are written back, the bad ones are gone
	require.NoError(t, as.Save(context.Background()))
	assert.Equal(t, []string{"a", "b"}, ids(decodePayload(t, backend.payload)))
}

func TestAlertStoreLoadError(t *testing.T) {
	backend := &memoryBackend{loadErr: errors.New("disk on fire")}
	as := newTestStore(t, backend)

	_, err := as.Load(context.Background())
	require.ErrorIs(t, err, ErrLoadFailed)
	assert.Contains(t, err.Error(), "disk on fire")
}

func TestAlertStoreSaveSuspendedUntilLoadSucceeds(t *testing.T) {
	ctx := context.Background()
	at := time.Date(2030, 1, 1, 9, 0, 0, 0, time.UTC)
	backend := &memoryBackend{loadErr: errors.New("locked")}
	as := newTestStore(t, backend)

	_, err := as.Load(ctx)
	require.Error(t, err)
	assert.Zero(t, as.Len())

	require.NoError(t, as.Add(sampleAlert("new", at)))
	require.ErrorIs(t, as.Save(ctx), ErrLoadFailed)
	assert.Zero(t, backend.saves)

	backend.loadErr = nil
	backend.payload = encodePayload(t, encodeRecords(t, sampleAlert("kept", at)))
	_, err = as.Load(ctx)
	require.NoError(t, err)

	require.NoError(t, as.Add(sampleAlert("new", at)))
	require.NoError(t, as.Save(ctx))
	assert.Equal(t, 1, backend.saves)
	assert.Equal(t, []string{"kept", "new"}, ids(decodePayload(t, backend.payload)))
}

func TestPreferencesBackendRoundTrip(t *testing.T) {
	app := test.NewTempApp(t)
	backend := NewPreferencesBackend(app)
	ctx := context.Background()

	empty, err := backend.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, empty)

	at := time.Date(2030, 1, 1, 9, 0, 0, 0, time.UTC)
	alert := sampleAlert("a", at)
	alert.URL = "https://example.com"
	alert.ReminderMinutes = 10

	as := newTestStore(t, backend)
	_, err = as.Load(ctx)
	require.NoError(t, err)
	require.NoError(t, as.Add(alert))
	require.NoError(t, as.Save(ctx))

	reopened := newTestStore(t, NewPreferencesBackend(app))
	_, err = reopened.Load(ctx)
	require.NoError(t, err)
	loaded, ok := reopened.Get("a")
	require.True(t, ok)
	assert.Equal(t, alert.URL, loaded.URL)
	assert.Equal(t, 10, loaded.ReminderMinutes)
	assert.True(t, at.Equal(loaded.DateTime))
}

func TestGarbageBlobIsNotOverwritten(t *testing.T) {
	app := test.NewTempApp(t)
	app.Preferences().SetString(AlertsKey, "{not json")
	ctx := context.Background()

	as := newTestStore(t, NewPreferencesBackend(app))
	_, err := as.Load(ctx)
	require.ErrorIs(t, err, ErrLoadFailed)

	require.NoError(t, as.Add(sampleAlert("a", time.Now())))
	require.ErrorIs(t, as.Save(ctx), ErrLoadFailed)
	assert.Equal(t, "{not json", app.Preferences().String(AlertsKey))
}

func TestSQLiteBackendRoundTrip(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "alerts.db")

	backend, err := OpenSQLite(ctx, path)
	require.NoError(t, err)
	defer backend.Close()

	empty, err := backend.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, empty)

	at := time.Date(2030, 1, 1, 9, 0, 0, 0, time.UTC)
	first := sampleAlert("a", at)
	second := sampleAlert("b", at.Add(time.Hour))
	second.RepeatType = models.RepeatMonthlyDates
	second.Dates = []int{1, 31}

	as := newTestStore(t, backend)
	_, err = as.Load(ctx)
	require.NoError(t, err)
	require.NoError(t, as.Add(first))
	require.NoError(t, as.Save(ctx))
	require.NoError(t, as.Add(second))
	require.NoError(t, as.Save(ctx))

	reopened := newTestStore(t, backend)
	_, err = reopened.Load(ctx)
	require.NoError(t, err)
	loaded := reopened.List()
	assert.Equal(t, []string{"a", "b"}, ids(loaded))
	assert.Equal(t, []int{1, 31}, loaded[1].Dates)
}

func TestConfigStoreDefaults(t *testing.T) {
	app := test.NewTempApp(t)
	cs := NewConfigStore(app)

	config := cs.Load()
	assert.False(t, config.AutoStart)
	assert.Equal(t, "info", config.LogLevel)
	assert.Equal(t, 5*time.Second, config.CleanupDelay())
	assert.Equal(t, models.StoragePreferences, config.StorageBackend)
	assert.NotEmpty(t, config.SQLitePath)

	config.StorageBackend = models.StorageSQLite
	config.CleanupDelaySeconds = 8
	cs.Save(config)

	reloaded := cs.Load()
	assert.True(t, reloaded.UsesSQLite())
	assert.Equal(t, 8*time.Second, reloaded.CleanupDelay())
}

func ids(alerts []models.Alert) []string {
	out := make([]string, 0, len(alerts))
	for _, a := range alerts {
		out = append(out, a.ID)
	}
	return out
}
