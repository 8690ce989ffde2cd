// Package engine coordinates the alert store, the recurrence rules and the
// per-alert timers.
//
// Every mutation runs under one lock: timers of an alert are always cancelled
// before new ones are armed for it, and elapsed timers are claimed under the
// same lock, so a deleted or edited alert never fires its old schedule.
// Notifications, URL launches and observer calls happen after the lock is
// released.
package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/borgmon/alert-timeline/pkg/models"
	"github.com/borgmon/alert-timeline/pkg/recurrence"
	"github.com/borgmon/alert-timeline/pkg/store"
	"github.com/borgmon/alert-timeline/pkg/timer"
)

// DefaultCleanupDelay is how long a fired one-shot alert stays listed
const DefaultCleanupDelay = 5 * time.Second

// Options configures an Engine. Store is required.
type Options struct {
	Store        *store.AlertStore
	Notifier     Notifier
	Opener       URLOpener
	Clock        timer.Clock
	Location     *time.Location // wall clock used for recurrence, default time.Local
	CleanupDelay time.Duration
	Logger       *zap.Logger
	NewID        func() string
}

// Engine is the alert scheduling engine
type Engine struct {
	mu sync.Mutex

	ctx          context.Context
	store        *store.AlertStore
	timers       *timer.Coordinator
	clock        timer.Clock
	loc          *time.Location
	notifier     Notifier
	opener       URLOpener
	cleanupDelay time.Duration
	logger       *zap.Logger
	newID        func() string

	obsMu     sync.RWMutex
	observers []Observer
}

// New creates an engine. Call Start to load persisted alerts.
func New(opts Options) *Engine {
	e := &Engine{
		ctx:          context.Background(),
		store:        opts.Store,
		clock:        opts.Clock,
		loc:          opts.Location,
		notifier:     opts.Notifier,
		opener:       opts.Opener,
		cleanupDelay: opts.CleanupDelay,
		logger:       opts.Logger,
		newID:        opts.NewID,
	}
	if e.clock == nil {
		e.clock = timer.RealClock{}
	}
	if e.loc == nil {
		e.loc = time.Local
	}
	if e.notifier == nil {
		e.notifier = nopNotifier{}
	}
	if e.opener == nil {
		e.opener = nopOpener{}
	}
	if e.cleanupDelay <= 0 {
		e.cleanupDelay = DefaultCleanupDelay
	}
	if e.logger == nil {
		e.logger = zap.NewNop()
	}
	if e.newID == nil {
		e.newID = func() string { return uuid.New().String() }
	}
	e.timers = timer.NewCoordinator(e.clock, e.onTimer, e.logger.Named("timer"))
	return e
}

// Subscribe registers an observer for updates and deletions
func (e *Engine) Subscribe(o Observer) {
	e.obsMu.Lock()
	defer e.obsMu.Unlock()
	e.observers = append(e.observers, o)
}

// Start loads persisted alerts and reconciles them with the current time.
// One-shot alerts already in the past are removed without notifying;
// recurring alerts are kept and armed only if their time is still ahead.
func (e *Engine) Start(ctx context.Context) {
	var effects []func()

	e.mu.Lock()
	e.ctx = ctx

	dropped, err := e.store.Load(ctx)
	if err != nil {
		e.logger.Error("Failed to load alerts, continuing with an empty list that will not be saved",
			zap.Error(err))
	} else if dropped > 0 {
		e.logger.Warn("Dropped unusable alert records", zap.Int("count", dropped))
	}

	now := e.clock.Now()
	expired, armed, stale := 0, 0, 0
	for _, alert := range e.store.List() {
		if !alert.Recurring() && !alert.DateTime.After(now) {
			e.store.Delete(alert.ID)
			effects = append(effects, e.deletedEffect(alert.ID))
			expired++
			continue
		}
		if len(e.timers.Schedule(alert)) > 0 {
			armed++
		}
		if !alert.DateTime.After(now) {
			stale++
		}
	}
	if expired > 0 {
		e.persistLocked()
	}
	e.mu.Unlock()

	e.logger.Info("Alerts loaded",
		zap.Int("total", e.store.Len()),
		zap.Int("armed", armed),
		zap.Int("expired", expired),
		zap.Int("stale_recurring", stale))
	run(effects)
}

// Stop cancels every pending timer
func (e *Engine) Stop() {
	e.timers.Stop()
}

// Create validates def, assigns an ID, stores the alert and arms its timers
func (e *Engine) Create(def models.Definition) (*models.Alert, error) {
	now := e.clock.Now()
	alert := models.Alert{
		Content:         def.Content,
		DateTime:        def.DateTime,
		URL:             def.URL,
		ReminderMinutes: def.ReminderMinutes,
		RepeatType:      def.RepeatType,
		Weekdays:        def.Weekdays,
		Dates:           def.Dates,
	}
	if err := e.prepare(&alert, now); err != nil {
		return nil, err
	}
	alert.ID = e.newID()
	alert.CreatedAt = now

	e.mu.Lock()
	if err := e.store.Add(alert); err != nil {
		e.mu.Unlock()
		return nil, err
	}
	e.persistLocked()
	e.timers.Schedule(alert)
	e.mu.Unlock()

	e.logger.Info("Alert created",
		zap.String("alert_id", alert.ID),
		zap.String("repeat_type", string(alert.RepeatType)),
		zap.Time("date_time", alert.DateTime))
	run([]func(){e.updatedEffect(alert)})
	return &alert, nil
}

// Edit merges changes into an existing alert and re-arms its timers
func (e *Engine) Edit(id string, changes models.Changes) (*models.Alert, error) {
	e.mu.Lock()
	existing, ok := e.store.Get(id)
	if !ok {
		e.mu.Unlock()
		return nil, fmt.Errorf("%w: %s", ErrAlertNotFound, id)
	}

	alert := changes.Apply(existing)
	if err := e.prepare(&alert, e.clock.Now()); err != nil {
		e.mu.Unlock()
		return nil, err
	}

	if err := e.store.Update(alert); err != nil {
		e.mu.Unlock()
		return nil, err
	}
	e.persistLocked()
	e.timers.Cancel(id)
	e.timers.Schedule(alert)
	e.mu.Unlock()

	e.logger.Info("Alert edited", zap.String("alert_id", id), zap.Time("date_time", alert.DateTime))
	run([]func(){e.updatedEffect(alert)})
	return &alert, nil
}

// Delete cancels the alert's timers and removes it. Deleting an unknown ID
// is a no-op; the result reports whether anything was removed.
func (e *Engine) Delete(id string) bool {
	e.mu.Lock()
	e.timers.Cancel(id)
	removed := e.store.Delete(id)
	if removed {
		e.persistLocked()
	}
	e.mu.Unlock()

	if !removed {
		return false
	}
	e.logger.Info("Alert deleted", zap.String("alert_id", id))
	run([]func(){e.deletedEffect(id)})
	return true
}

// Skip advances a recurring alert to its next occurrence without firing
func (e *Engine) Skip(id string) (*models.Alert, error) {
	e.mu.Lock()
	alert, ok := e.store.Get(id)
	if !ok {
		e.mu.Unlock()
		return nil, fmt.Errorf("%w: %s", ErrAlertNotFound, id)
	}
	if !alert.Recurring() {
		e.mu.Unlock()
		return nil, fmt.Errorf("%w: %s", ErrNotRecurring, id)
	}

	// Steps from the current occurrence only; a stale alert may stay stale
	advanced, err := e.advanceLocked(alert, alert.DateTime)
	e.mu.Unlock()
	if err != nil {
		return nil, err
	}

	e.logger.Info("Alert skipped", zap.String("alert_id", id), zap.Time("next", advanced.DateTime))
	run([]func(){e.updatedEffect(advanced)})
	return &advanced, nil
}

// Get returns an alert by ID
func (e *Engine) Get(id string) (models.Alert, bool) {
	return e.store.Get(id)
}

// List returns all alerts ordered by fire time
func (e *Engine) List() []models.Alert {
	return e.store.Timeline()
}

// Scheduled reports whether the alert has an armed main timer. Recurring
// alerts without one are inactive until edited or skipped.
func (e *Engine) Scheduled(id string) bool {
	_, ok := e.timers.NextAt(id, timer.KindMain)
	return ok
}

// prepare canonicalizes and validates an alert and resolves its first fire time
func (e *Engine) prepare(alert *models.Alert, now time.Time) error {
	alert.Canonicalize()
	if err := alert.Validate(); err != nil {
		return err
	}
	if err := alert.ValidateFuture(now); err != nil {
		return err
	}

	first, err := recurrence.Initial(*alert, now, e.loc)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrNoNextOccurrence, err)
	}
	alert.DateTime = first
	alert.AnchorMonthDay(e.loc)
	return nil
}

// advanceLocked moves a recurring alert to its first occurrence after ref,
// persists it and re-arms its timers. Occurrences still in the past are not
// armed. On failure the alert is left as it was, without timers.
func (e *Engine) advanceLocked(alert models.Alert, ref time.Time) (models.Alert, error) {
	// Records written before the anchor existed take it from dateTime
	alert.AnchorMonthDay(e.loc)
	next, err := recurrence.NextIn(alert, ref, e.loc)
	if err != nil {
		e.timers.Cancel(alert.ID)
		e.logger.Warn("Alert has no next occurrence, leaving it unscheduled",
			zap.String("alert_id", alert.ID),
			zap.String("repeat_type", string(alert.RepeatType)),
			zap.Error(err))
		return alert, fmt.Errorf("%w: %w", ErrNoNextOccurrence, err)
	}

	alert.DateTime = next
	if err := e.store.Update(alert); err != nil {
		return alert, err
	}
	e.persistLocked()
	e.timers.Cancel(alert.ID)
	e.timers.Schedule(alert)
	return alert, nil
}

// persistLocked saves the store, logging failures; in-memory state stays
// authoritative until the next successful save
func (e *Engine) persistLocked() {
	if err := e.store.Save(e.ctx); err != nil {
		e.logger.Error("Failed to save alerts", zap.Error(err))
	}
}

func (e *Engine) updatedEffect(alert models.Alert) func() {
	return func() {
		for _, o := range e.snapshotObservers() {
			o.OnAlertUpdated(alert.Clone())
		}
	}
}

func (e *Engine) deletedEffect(id string) func() {
	return func() {
		for _, o := range e.snapshotObservers() {
			o.OnAlertDeleted(id)
		}
	}
}

func (e *Engine) snapshotObservers() []Observer {
	e.obsMu.RLock()
	defer e.obsMu.RUnlock()
	return append([]Observer(nil), e.observers...)
}

func run(effects []func()) {
	for _, f := range effects {
		f()
	}
}

// IsValidation reports whether err is a user input problem
func IsValidation(err error) bool {
	return errors.Is(err, models.ErrValidation)
}
