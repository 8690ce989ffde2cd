package engine

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/borgmon/alert-timeline/pkg/timer"
)

// MainTitle is the title of the notification shown at an alert's fire time
const MainTitle = "Reminder"

// ReminderTitle is the title of the notification shown ahead of an alert
func ReminderTitle(minutes int) string {
	if minutes == 1 {
		return "1 minute before"
	}
	return fmt.Sprintf("%d minutes before", minutes)
}

// onTimer is the coordinator handler; it runs on timer goroutines
func (e *Engine) onTimer(f timer.Fire) {
	var effects []func()

	e.mu.Lock()
	if !e.timers.Claim(f) {
		e.mu.Unlock()
		e.logger.Debug("Ignoring superseded timer",
			zap.String("alert_id", f.AlertID),
			zap.Stringer("kind", f.Kind))
		return
	}

	switch f.Kind {
	case timer.KindMain:
		effects = e.fireMainLocked(f.AlertID)
	case timer.KindReminder:
		effects = e.fireReminderLocked(f.AlertID)
	case timer.KindCleanup:
		effects = e.expireLocked(f.AlertID)
	}
	e.mu.Unlock()

	run(effects)
}

// fireMainLocked notifies, then advances recurring alerts or arms the
// cleanup of one-shot alerts
func (e *Engine) fireMainLocked(id string) []func() {
	alert, ok := e.store.Get(id)
	if !ok {
		return nil
	}

	e.logger.Info("Alert fired", zap.String("alert_id", id), zap.Time("date_time", alert.DateTime))
	effects := []func(){e.notifyEffect(Notification{
		Kind:    NotifyMain,
		AlertID: id,
		Title:   MainTitle,
		Body:    alert.Content,
	})}

	// With a reminder configured the link opens at reminder time instead
	if alert.URL != "" && !alert.HasReminder() {
		effects = append(effects, e.openEffect(alert.URL))
	}

	if !alert.Recurring() {
		e.timers.ArmCleanup(id, e.cleanupDelay)
		return effects
	}

	// A late fire does not replay the occurrences it missed
	ref := alert.DateTime
	if now := e.clock.Now(); now.After(ref) {
		ref = now
	}
	advanced, err := e.advanceLocked(alert, ref)
	if err != nil {
		return effects
	}
	e.logger.Info("Alert advanced", zap.String("alert_id", id), zap.Time("next", advanced.DateTime))
	return append(effects, e.updatedEffect(advanced))
}

func (e *Engine) fireReminderLocked(id string) []func() {
	alert, ok := e.store.Get(id)
	if !ok {
		return nil
	}

	e.logger.Info("Alert reminder fired",
		zap.String("alert_id", id),
		zap.Int("minutes_before", alert.ReminderMinutes))
	effects := []func(){e.notifyEffect(Notification{
		Kind:    NotifyReminder,
		AlertID: id,
		Title:   ReminderTitle(alert.ReminderMinutes),
		Body:    alert.Content,
	})}
	if alert.URL != "" {
		effects = append(effects, e.openEffect(alert.URL))
	}
	return effects
}

// expireLocked removes a fired one-shot alert once its grace period is over
func (e *Engine) expireLocked(id string) []func() {
	e.timers.Cancel(id)
	if !e.store.Delete(id) {
		return nil
	}
	e.persistLocked()
	e.logger.Info("Alert expired", zap.String("alert_id", id))
	return []func(){e.deletedEffect(id)}
}

func (e *Engine) notifyEffect(n Notification) func() {
	return func() { e.notifier.Notify(n) }
}

func (e *Engine) openEffect(rawURL string) func() {
	return func() { e.opener.OpenURL(rawURL) }
}
