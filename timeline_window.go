package main

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"

	"github.com/borgmon/alert-timeline/pkg/models"
)

var timelineHeaders = []string{"Alert", "Next", "Repeat", "Reminder", "Link"}

// TimelineWindow lists every alert ordered by its next fire time
type TimelineWindow struct {
	at     *AlertTimeline
	window fyne.Window

	table       *widget.Table
	alerts      []models.Alert
	selectedRow int
	body        *fyne.Container
	emptyState  fyne.CanvasObject
}

func NewTimelineWindow(at *AlertTimeline) *TimelineWindow {
	tw := &TimelineWindow{at: at, selectedRow: -1}
	tw.window = at.app.NewWindow(appDisplayName + " - Timeline")
	tw.buildUI()
	return tw
}

func (tw *TimelineWindow) buildUI() {
	tw.alerts = tw.at.engine.List()

	tw.table = widget.NewTable(
		func() (rows int, cols int) {
			return len(tw.alerts), len(timelineHeaders)
		},
		func() fyne.CanvasObject {
			label := widget.NewLabel("Template")
			label.Truncation = fyne.TextTruncateEllipsis
			return label
		},
		func(id widget.TableCellID, obj fyne.CanvasObject) {
			label := obj.(*widget.Label)
			if id.Row >= len(tw.alerts) {
				label.SetText("")
				return
			}
			alert := tw.alerts[id.Row]
			label.SetText(timelineCell(alert, id.Col, time.Local))

			// Gray out recurring alerts whose time has passed; they stay
			// unscheduled until edited or skipped
			if alert.DateTime.Before(time.Now()) {
				label.Importance = widget.LowImportance
			} else {
				label.Importance = widget.MediumImportance
			}
		},
	)

	tw.table.ShowHeaderRow = true
	tw.table.CreateHeader = func() fyne.CanvasObject {
		label := widget.NewLabel("Header")
		label.TextStyle.Bold = true
		return label
	}
	tw.table.UpdateHeader = func(id widget.TableCellID, obj fyne.CanvasObject) {
		obj.(*widget.Label).SetText(timelineHeaders[id.Col])
	}
	tw.table.OnSelected = func(id widget.TableCellID) {
		tw.selectedRow = id.Row
	}
	for i, width := range []float32{280, 180, 160, 100, 200} {
		tw.table.SetColumnWidth(i, width)
	}

	addButton := widget.NewButtonWithIcon("Add", theme.ContentAddIcon(), func() {
		tw.at.showAlertDialog(tw.window, nil)
	})
	editButton := widget.NewButtonWithIcon("Edit", theme.DocumentCreateIcon(), func() {
		if alert, ok := tw.selected(); ok {
			tw.at.showAlertDialog(tw.window, &alert)
		}
	})
	skipButton := widget.NewButtonWithIcon("Skip", theme.MediaSkipNextIcon(), func() {
		alert, ok := tw.selected()
		if !ok {
			return
		}
		if !alert.Recurring() {
			dialog.ShowInformation("Not Repeating", "Only repeating alerts can be skipped.", tw.window)
			return
		}
		if _, err := tw.at.engine.Skip(alert.ID); err != nil {
			dialog.ShowError(err, tw.window)
		}
	})
	deleteButton := widget.NewButtonWithIcon("Delete", theme.DeleteIcon(), func() {
		alert, ok := tw.selected()
		if !ok {
			return
		}
		dialog.ShowConfirm("Delete Alert", fmt.Sprintf("Delete %q?", truncateString(alert.Content, 40)), func(confirmed bool) {
			if confirmed {
				tw.at.engine.Delete(alert.ID)
			}
		}, tw.window)
	})

	emptyStateText := widget.NewLabel("No alerts yet.\n\nClick 'Add' to create one.")
	emptyStateText.Wrapping = fyne.TextWrapWord
	tw.emptyState = container.NewPadded(emptyStateText)

	header := container.NewVBox(
		container.NewHBox(addButton, editButton, skipButton, deleteButton),
		widget.NewSeparator(),
	)
	tw.body = container.NewBorder(header, nil, nil, nil, tw.mainContent())

	tw.window.SetContent(container.NewPadded(tw.body))
	tw.window.Resize(fyne.NewSize(960, 540))
	tw.window.CenterOnScreen()
}

// refresh reloads the alerts; call on the fyne goroutine
func (tw *TimelineWindow) refresh() {
	tw.alerts = tw.at.engine.List()
	if tw.selectedRow >= len(tw.alerts) {
		tw.selectedRow = -1
		tw.table.UnselectAll()
	}
	tw.body.Objects[0] = tw.mainContent()
	tw.body.Refresh()
	tw.table.Refresh()
}

func (tw *TimelineWindow) mainContent() fyne.CanvasObject {
	if len(tw.alerts) == 0 {
		return tw.emptyState
	}
	return tw.table
}

func (tw *TimelineWindow) selected() (models.Alert, bool) {
	if tw.selectedRow < 0 || tw.selectedRow >= len(tw.alerts) {
		dialog.ShowInformation("No Selection", "Please select an alert from the table first.", tw.window)
		return models.Alert{}, false
	}
	return tw.alerts[tw.selectedRow], true
}

func timelineCell(alert models.Alert, col int, loc *time.Location) string {
	switch col {
	case 0:
		return alert.Content
	case 1:
		return alert.DateTime.In(loc).Format("Mon Jan 2, 3:04 PM")
	case 2:
		return describeRepeat(alert, loc)
	case 3:
		if !alert.HasReminder() {
			return ""
		}
		return fmt.Sprintf("%d min before", alert.ReminderMinutes)
	case 4:
		return alert.URL
	}
	return ""
}

// describeRepeat renders the recurrence rule for people
func describeRepeat(alert models.Alert, loc *time.Location) string {
	switch alert.RepeatType {
	case models.RepeatDaily:
		return "Daily"
	case models.RepeatWeekly:
		return "Weekly on " + alert.DateTime.In(loc).Format("Monday")
	case models.RepeatWeekdays:
		names := make([]string, 0, len(alert.Weekdays))
		for _, d := range alert.Weekdays {
			if d >= 0 && d < len(weekdayLabels) {
				names = append(names, weekdayLabels[d])
			}
		}
		return strings.Join(names, ", ")
	case models.RepeatMonthly:
		day := alert.MonthDay
		if day == 0 {
			day = alert.DateTime.In(loc).Day()
		}
		return "Monthly on day " + strconv.Itoa(day)
	case models.RepeatMonthlyDates:
		dates := make([]string, len(alert.Dates))
		for i, d := range alert.Dates {
			dates[i] = strconv.Itoa(d)
		}
		return "Monthly on " + strings.Join(dates, ", ")
	}
	return "Once"
}
