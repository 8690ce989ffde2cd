package main

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/widget"
	"go.uber.org/zap"

	"github.com/borgmon/alert-timeline/pkg/engine"
	"github.com/borgmon/alert-timeline/pkg/models"
)

const (
	formDateLayout = "2006-01-02"
	formTimeLayout = "15:04"
)

var repeatLabels = []struct {
	label string
	kind  models.RepeatType
}{
	{"Does not repeat", models.RepeatNone},
	{"Daily", models.RepeatDaily},
	{"Weekly", models.RepeatWeekly},
	{"On weekdays", models.RepeatWeekdays},
	{"Monthly", models.RepeatMonthly},
	{"Monthly on dates", models.RepeatMonthlyDates},
}

var weekdayLabels = []string{"Sun", "Mon", "Tue", "Wed", "Thu", "Fri", "Sat"}

// alertForm is the raw text of the add/edit dialog
type alertForm struct {
	Content  string
	Date     string
	Time     string
	URL      string
	Reminder string
	Repeat   string
	Weekdays []string
	Dates    string
}

func repeatLabel(kind models.RepeatType) string {
	for _, r := range repeatLabels {
		if r.kind == kind {
			return r.label
		}
	}
	return repeatLabels[0].label
}

func repeatOptions() []string {
	out := make([]string, len(repeatLabels))
	for i, r := range repeatLabels {
		out[i] = r.label
	}
	return out
}

// formFromAlert fills the dialog for editing, showing the time in loc
func formFromAlert(a models.Alert, loc *time.Location) alertForm {
	at := a.DateTime.In(loc)
	f := alertForm{
		Content: a.Content,
		Date:    at.Format(formDateLayout),
		Time:    at.Format(formTimeLayout),
		URL:     a.URL,
		Repeat:  repeatLabel(a.RepeatType),
	}
	if a.ReminderMinutes > 0 {
		f.Reminder = strconv.Itoa(a.ReminderMinutes)
	}
	for _, d := range a.Weekdays {
		if d >= 0 && d < len(weekdayLabels) {
			f.Weekdays = append(f.Weekdays, weekdayLabels[d])
		}
	}
	dates := make([]string, len(a.Dates))
	for i, d := range a.Dates {
		dates[i] = strconv.Itoa(d)
	}
	f.Dates = strings.Join(dates, ", ")
	return f
}

// definition parses the form. Only syntax is checked here; the engine
// validates the values.
func (f alertForm) definition(loc *time.Location) (models.Definition, error) {
	def := models.Definition{
		Content: f.Content,
		URL:     strings.TrimSpace(f.URL),
	}

	kind := models.RepeatNone
	for _, r := range repeatLabels {
		if r.label == f.Repeat {
			kind = r.kind
		}
	}
	def.RepeatType = kind

	clock, err := time.ParseInLocation(formTimeLayout, strings.TrimSpace(f.Time), loc)
	if err != nil {
		return def, fmt.Errorf("time must look like 14:30")
	}
	day := time.Now().In(loc)
	if !kind.SelectionDriven() {
		day, err = time.ParseInLocation(formDateLayout, strings.TrimSpace(f.Date), loc)
		if err != nil {
			return def, fmt.Errorf("date must look like 2025-06-30")
		}
	}
	def.DateTime = time.Date(day.Year(), day.Month(), day.Day(), clock.Hour(), clock.Minute(), 0, 0, loc)

	if s := strings.TrimSpace(f.Reminder); s != "" {
		def.ReminderMinutes, err = strconv.Atoi(s)
		if err != nil {
			return def, fmt.Errorf("reminder must be a number of minutes")
		}
	}

	for _, name := range f.Weekdays {
		for i, label := range weekdayLabels {
			if label == name {
				def.Weekdays = append(def.Weekdays, i)
			}
		}
	}

	for _, field := range strings.FieldsFunc(f.Dates, func(r rune) bool { return r == ',' || r == ' ' }) {
		d, err := strconv.Atoi(field)
		if err != nil {
			return def, fmt.Errorf("dates must be numbers separated by commas")
		}
		def.Dates = append(def.Dates, d)
	}
	return def, nil
}

// changes converts the form into a full edit of every field
func (f alertForm) changes(loc *time.Location) (models.Changes, error) {
	def, err := f.definition(loc)
	if err != nil {
		return models.Changes{}, err
	}
	weekdays := def.Weekdays
	if weekdays == nil {
		weekdays = []int{}
	}
	dates := def.Dates
	if dates == nil {
		dates = []int{}
	}
	return models.Changes{
		Content:         &def.Content,
		DateTime:        &def.DateTime,
		URL:             &def.URL,
		ReminderMinutes: &def.ReminderMinutes,
		RepeatType:      &def.RepeatType,
		Weekdays:        weekdays,
		Dates:           dates,
	}, nil
}

// showAlertDialog opens the add dialog, or the edit dialog when existing is set
func (at *AlertTimeline) showAlertDialog(parent fyne.Window, existing *models.Alert) {
	// The tray has no window of its own to anchor the dialog
	ownWindow := parent == nil
	if ownWindow {
		parent = at.app.NewWindow(appDisplayName)
		parent.Resize(fyne.NewSize(480, 520))
		parent.CenterOnScreen()
		parent.Show()
	}

	initial := alertForm{
		Date:   time.Now().Add(time.Hour).Format(formDateLayout),
		Time:   time.Now().Add(time.Hour).Truncate(time.Hour).Format(formTimeLayout),
		Repeat: repeatLabels[0].label,
	}
	if existing != nil {
		initial = formFromAlert(*existing, time.Local)
	}

	contentEntry := widget.NewMultiLineEntry()
	contentEntry.SetText(initial.Content)
	contentEntry.SetPlaceHolder("What should I remind you about?")
	dateEntry := widget.NewEntry()
	dateEntry.SetText(initial.Date)
	dateEntry.SetPlaceHolder(formDateLayout)
	timeEntry := widget.NewEntry()
	timeEntry.SetText(initial.Time)
	timeEntry.SetPlaceHolder("HH:MM")
	urlEntry := widget.NewEntry()
	urlEntry.SetText(initial.URL)
	urlEntry.SetPlaceHolder("https://")
	reminderEntry := widget.NewEntry()
	reminderEntry.SetText(initial.Reminder)
	reminderEntry.SetPlaceHolder("0")
	weekdaysGroup := widget.NewCheckGroup(weekdayLabels, nil)
	weekdaysGroup.Horizontal = true
	weekdaysGroup.SetSelected(initial.Weekdays)
	datesEntry := widget.NewEntry()
	datesEntry.SetText(initial.Dates)
	datesEntry.SetPlaceHolder("1, 15, 31")

	repeatSelect := widget.NewSelect(repeatOptions(), func(label string) {
		switch label {
		case repeatLabel(models.RepeatWeekdays):
			dateEntry.Disable()
			weekdaysGroup.Enable()
			datesEntry.Disable()
		case repeatLabel(models.RepeatMonthlyDates):
			dateEntry.Disable()
			weekdaysGroup.Disable()
			datesEntry.Enable()
		default:
			dateEntry.Enable()
			weekdaysGroup.Disable()
			datesEntry.Disable()
		}
	})
	repeatSelect.SetSelected(initial.Repeat)

	items := []*widget.FormItem{
		widget.NewFormItem("Alert", contentEntry),
		widget.NewFormItem("Repeat", repeatSelect),
		widget.NewFormItem("Date", dateEntry),
		widget.NewFormItem("Time", timeEntry),
		widget.NewFormItem("Weekdays", weekdaysGroup),
		widget.NewFormItem("Dates", datesEntry),
		widget.NewFormItem("Remind (min before)", reminderEntry),
		widget.NewFormItem("Link", urlEntry),
	}

	title, confirm := "New Alert", "Create"
	if existing != nil {
		title, confirm = "Edit Alert", "Save"
	}

	dialog.ShowForm(title, confirm, "Cancel", items, func(confirmed bool) {
		closeParent := func() {
			if ownWindow {
				parent.Close()
			}
		}
		if !confirmed {
			closeParent()
			return
		}

		form := alertForm{
			Content:  contentEntry.Text,
			Date:     dateEntry.Text,
			Time:     timeEntry.Text,
			URL:      urlEntry.Text,
			Reminder: reminderEntry.Text,
			Repeat:   repeatSelect.Selected,
			Weekdays: weekdaysGroup.Selected,
			Dates:    datesEntry.Text,
		}

		if err := at.submitAlertForm(form, existing); err != nil {
			d := dialog.NewError(err, parent)
			d.SetOnClosed(closeParent)
			d.Show()
			return
		}
		closeParent()
	}, parent)
}

// submitAlertForm creates or edits an alert from the dialog contents
func (at *AlertTimeline) submitAlertForm(form alertForm, existing *models.Alert) error {
	if existing == nil {
		def, err := form.definition(time.Local)
		if err != nil {
			return err
		}
		_, err = at.engine.Create(def)
		return at.userError(err)
	}

	changes, err := form.changes(time.Local)
	if err != nil {
		return err
	}
	_, err = at.engine.Edit(existing.ID, changes)
	return at.userError(err)
}

// userError keeps validation messages readable and logs everything else
func (at *AlertTimeline) userError(err error) error {
	if err == nil || engine.IsValidation(err) {
		return err
	}
	at.logger.Warn("Alert dialog failed", zap.Error(err))
	return fmt.Errorf("could not save the alert: %w", err)
}
