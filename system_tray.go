package main

import (
	"errors"
	"fmt"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/theme"
	"go.uber.org/zap"

	"github.com/borgmon/alert-timeline/pkg/engine"
	"github.com/borgmon/alert-timeline/pkg/models"
)

func (at *AlertTimeline) setupSystemTray() {
	// Desktop notifications carry the app icon
	at.app.SetIcon(theme.InfoIcon())
	at.updateSystemTrayMenu()
}

func (at *AlertTimeline) updateSystemTrayMenu() {
	desk, ok := at.app.(desktop.App)
	if !ok {
		return
	}

	menuItems := []*fyne.MenuItem{}
	now := time.Now()

	// Add upcoming alerts section at the top
	upcoming := upcomingAlerts(at.engine.List(), now, at.config.TrayUpcomingLimit)
	if len(upcoming) > 0 {
		headerItem := fyne.NewMenuItem("Upcoming:", nil)
		headerItem.Disabled = true
		menuItems = append(menuItems, headerItem)

		for _, alert := range upcoming {
			alertText := fmt.Sprintf("  %s - %s", formatWhen(alert.DateTime, now), truncateString(alert.Content, 35))
			alertItem := fyne.NewMenuItem(alertText, nil)
			alertItem.ChildMenu = at.alertMenu(alert)
			menuItems = append(menuItems, alertItem)
		}

		menuItems = append(menuItems, fyne.NewMenuItemSeparator())
	}

	menuItems = append(menuItems,
		fyne.NewMenuItem("New Alert...", func() {
			at.showAlertDialog(nil, nil)
		}),
		fyne.NewMenuItem("Timeline", func() {
			at.showTimelineWindow()
		}),
		fyne.NewMenuItem("Export Calendar", func() {
			at.exportFromTray()
		}),
		fyne.NewMenuItem("Settings", func() {
			at.showSettingsWindow()
		}),
	)

	menuItems = append(menuItems, fyne.NewMenuItemSeparator())
	menuItems = append(menuItems, fyne.NewMenuItem("Quit", func() {
		at.quit()
	}))

	menu := fyne.NewMenu(appDisplayName, menuItems...)
	desk.SetSystemTrayMenu(menu)
	desk.SetSystemTrayIcon(theme.InfoIcon())
}

// alertMenu holds the per-alert actions of the tray
func (at *AlertTimeline) alertMenu(alert models.Alert) *fyne.Menu {
	items := []*fyne.MenuItem{
		fyne.NewMenuItem("Edit...", func() {
			a := alert
			at.showAlertDialog(nil, &a)
		}),
	}
	if alert.Recurring() {
		items = append(items, fyne.NewMenuItem("Skip Next", func() {
			at.skipAlert(alert.ID)
		}))
	}
	items = append(items, fyne.NewMenuItem("Delete", func() {
		at.engine.Delete(alert.ID)
	}))
	return fyne.NewMenu(alert.Content, items...)
}

func (at *AlertTimeline) skipAlert(id string) {
	if _, err := at.engine.Skip(id); err != nil {
		if errors.Is(err, engine.ErrNoNextOccurrence) {
			at.app.SendNotification(fyne.NewNotification("Cannot skip", "This alert has no further occurrences"))
		}
		at.logger.Warn("Skip failed", zap.String("alert_id", id), zap.Error(err))
	}
}

func (at *AlertTimeline) exportFromTray() {
	uri, err := at.exportCalendar()
	if err != nil {
		at.logger.Error("Calendar export failed", zap.Error(err))
		at.app.SendNotification(fyne.NewNotification("Export failed", err.Error()))
		return
	}
	at.app.SendNotification(fyne.NewNotification("Calendar exported", uri.Path()))
}

// upcomingAlerts returns up to limit alerts that are still ahead of now.
// alerts must already be ordered by fire time.
func upcomingAlerts(alerts []models.Alert, now time.Time, limit int) []models.Alert {
	upcoming := []models.Alert{}
	if limit <= 0 {
		return upcoming
	}
	for _, alert := range alerts {
		if !alert.DateTime.After(now) {
			continue
		}
		upcoming = append(upcoming, alert)
		if len(upcoming) >= limit {
			break
		}
	}
	return upcoming
}

// formatWhen shows only the clock for today and adds the day otherwise
func formatWhen(t, now time.Time) string {
	t = t.In(now.Location())
	y1, m1, d1 := t.Date()
	y2, m2, d2 := now.Date()
	if y1 == y2 && m1 == m2 && d1 == d2 {
		return t.Format("3:04 PM")
	}
	if t.Sub(now) < 7*24*time.Hour {
		return t.Format("Mon 3:04 PM")
	}
	return t.Format("Jan 2, 3:04 PM")
}

// truncateString truncates a string to maxLen characters, adding "..." if needed
func truncateString(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	return string(runes[:maxLen-3]) + "..."
}
