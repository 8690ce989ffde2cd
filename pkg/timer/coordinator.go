// Package timer owns the pending wake-ups of every alert.
//
// Each alert has at most one main, one reminder and one cleanup timer. A
// callback only reaches the handler's side effects if Claim confirms it is
// still the live timer of its kind, so superseded or cancelled schedules
// never act on newer state.
package timer

import (
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/borgmon/alert-timeline/pkg/models"
)

// Kind identifies one of the per-alert timers
type Kind int

const (
	KindMain     Kind = iota // fires at dateTime
	KindReminder             // fires reminderMinutes before dateTime
	KindCleanup              // removes a fired one-shot alert
)

func (k Kind) String() string {
	switch k {
	case KindMain:
		return "main"
	case KindReminder:
		return "reminder"
	case KindCleanup:
		return "cleanup"
	}
	return "unknown"
}

// Fire is delivered to the handler when a timer elapses
type Fire struct {
	AlertID string
	Kind    Kind
	At      time.Time // scheduled instant
	seq     uint64
}

// Handler receives elapsed timers. It runs on the timer goroutine.
type Handler func(Fire)

type handle struct {
	seq  uint64
	at   time.Time
	stop Stopper
}

// Coordinator tracks the live timers of each alert
type Coordinator struct {
	mu      sync.Mutex
	clock   Clock
	handler Handler
	logger  *zap.Logger

	seq    uint64
	timers map[string]map[Kind]*handle
}

// NewCoordinator creates a coordinator delivering elapsed timers to handler
func NewCoordinator(clock Clock, handler Handler, logger *zap.Logger) *Coordinator {
	if clock == nil {
		clock = RealClock{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Coordinator{
		clock:   clock,
		handler: handler,
		logger:  logger,
		timers:  make(map[string]map[Kind]*handle),
	}
}

// Schedule cancels every timer of the alert, then arms the main timer if
// dateTime is in the future and the reminder timer if its instant is too.
// It returns the kinds that were armed.
func (c *Coordinator) Schedule(alert models.Alert) []Kind {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.cancelLocked(alert.ID)

	now := c.clock.Now()
	var armed []Kind
	if alert.DateTime.After(now) {
		c.armLocked(alert.ID, KindMain, alert.DateTime, now)
		armed = append(armed, KindMain)
	}
	if alert.HasReminder() {
		if at := alert.ReminderTime(); at.After(now) {
			c.armLocked(alert.ID, KindReminder, at, now)
			armed = append(armed, KindReminder)
		}
	}

	c.logger.Debug("Scheduled alert",
		zap.String("alert_id", alert.ID),
		zap.Time("date_time", alert.DateTime),
		zap.Int("armed", len(armed)))
	return armed
}

// ArmCleanup arms the cleanup timer delay from now, replacing any previous one
func (c *Coordinator) ArmCleanup(alertID string, delay time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.stopLocked(alertID, KindCleanup)
	now := c.clock.Now()
	c.armLocked(alertID, KindCleanup, now.Add(delay), now)
}

// Cancel stops and forgets every timer of the alert. Unknown IDs are a no-op.
func (c *Coordinator) Cancel(alertID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cancelLocked(alertID)
}

// Claim consumes f if it is still the live timer of its kind. A false result
// means the timer was cancelled or replaced after it elapsed.
func (c *Coordinator) Claim(f Fire) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	kinds := c.timers[f.AlertID]
	h, ok := kinds[f.Kind]
	if !ok || h.seq != f.seq {
		return false
	}
	delete(kinds, f.Kind)
	if len(kinds) == 0 {
		delete(c.timers, f.AlertID)
	}
	return true
}

// Pending returns the armed kinds of an alert in Kind order
func (c *Coordinator) Pending(alertID string) []Kind {
	c.mu.Lock()
	defer c.mu.Unlock()

	kinds := make([]Kind, 0, len(c.timers[alertID]))
	for k := range c.timers[alertID] {
		kinds = append(kinds, k)
	}
	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })
	return kinds
}

// NextAt returns when the given timer of an alert is due
func (c *Coordinator) NextAt(alertID string, kind Kind) (time.Time, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	h, ok := c.timers[alertID][kind]
	if !ok {
		return time.Time{}, false
	}
	return h.at, true
}

// Stop cancels every timer of every alert
func (c *Coordinator) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()

	for id := range c.timers {
		c.cancelLocked(id)
	}
}

func (c *Coordinator) armLocked(alertID string, kind Kind, at, now time.Time) {
	c.seq++
	f := Fire{AlertID: alertID, Kind: kind, At: at, seq: c.seq}

	h := &handle{seq: f.seq, at: at}
	h.stop = c.clock.AfterFunc(at.Sub(now), func() { c.handler(f) })

	if c.timers[alertID] == nil {
		c.timers[alertID] = make(map[Kind]*handle)
	}
	c.timers[alertID][kind] = h
}

func (c *Coordinator) stopLocked(alertID string, kind Kind) {
	kinds := c.timers[alertID]
	if h, ok := kinds[kind]; ok {
		h.stop.Stop()
		delete(kinds, kind)
	}
}

func (c *Coordinator) cancelLocked(alertID string) {
	for kind, h := range c.timers[alertID] {
		h.stop.Stop()
		c.logger.Debug("Cancelled timer", zap.String("alert_id", alertID), zap.Stringer("kind", kind))
	}
	delete(c.timers, alertID)
}
