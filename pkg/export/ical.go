// Package export renders alerts as an iCalendar feed so they can be
// imported into calendar applications.
package export

import (
	"fmt"
	"io"
	"net/url"
	"time"

	"github.com/emersion/go-ical"
	"github.com/teambition/rrule-go"

	"github.com/borgmon/alert-timeline/pkg/models"
)

// ProductID identifies the generator in exported calendars
const ProductID = "-//borgmon//alert-timeline//EN"

// eventDuration is the nominal length of an exported alert
const eventDuration = 15 * time.Minute

var weekdays = [...]rrule.Weekday{rrule.SU, rrule.MO, rrule.TU, rrule.WE, rrule.TH, rrule.FR, rrule.SA}

// Calendar builds a VCALENDAR with one VEVENT per alert
func Calendar(alerts []models.Alert, now time.Time) *ical.Calendar {
	cal := ical.NewCalendar()
	cal.Props.SetText(ical.PropVersion, "2.0")
	cal.Props.SetText(ical.PropProductID, ProductID)

	for _, a := range alerts {
		cal.Children = append(cal.Children, Event(a, now).Component)
	}
	return cal
}

// Write encodes the alerts as iCalendar text
func Write(w io.Writer, alerts []models.Alert, now time.Time) error {
	if err := ical.NewEncoder(w).Encode(Calendar(alerts, now)); err != nil {
		return fmt.Errorf("failed to encode calendar: %w", err)
	}
	return nil
}

// Event converts a single alert
func Event(a models.Alert, now time.Time) *ical.Event {
	start := exportTime(a.DateTime)

	event := ical.NewEvent()
	event.Props.SetText(ical.PropUID, a.ID)
	event.Props.SetDateTime(ical.PropDateTimeStamp, now.UTC())
	event.Props.SetDateTime(ical.PropDateTimeStart, start)
	event.Props.SetDateTime(ical.PropDateTimeEnd, start.Add(eventDuration))
	event.Props.SetText(ical.PropSummary, a.Content)
	if !a.CreatedAt.IsZero() {
		event.Props.SetDateTime(ical.PropCreated, a.CreatedAt.UTC())
	}

	if a.URL != "" {
		if u, err := url.Parse(a.URL); err == nil {
			event.Props.SetURI(ical.PropURL, u)
		}
	}

	if rule := Rule(a); rule != nil {
		prop := ical.NewProp(ical.PropRecurrenceRule)
		prop.SetValueType(ical.ValueRecurrence)
		prop.Value = rule.RRuleString()
		event.Props.Set(prop)
	}

	if a.HasReminder() {
		event.Children = append(event.Children, alarm(a))
	}
	return event
}

// Rule maps the alert's repeat type onto an RRULE. One-shot alerts and
// unknown types have none.
func Rule(a models.Alert) *rrule.ROption {
	switch a.RepeatType {
	case models.RepeatDaily:
		return &rrule.ROption{Freq: rrule.DAILY}
	case models.RepeatWeekly:
		return &rrule.ROption{Freq: rrule.WEEKLY}
	case models.RepeatWeekdays:
		days := make([]rrule.Weekday, 0, len(a.Weekdays))
		for _, d := range a.Weekdays {
			if d >= 0 && d < len(weekdays) {
				days = append(days, weekdays[d])
			}
		}
		return &rrule.ROption{Freq: rrule.WEEKLY, Byweekday: days}
	case models.RepeatMonthly:
		day := a.MonthDay
		if day <= 0 {
			day = a.DateTime.Day()
		}
		if day <= 28 {
			return &rrule.ROption{Freq: rrule.MONTHLY, Bymonthday: []int{day}}
		}
		// Last existing day among 28..day, so short months clamp to their end
		candidates := make([]int, 0, day-27)
		for d := 28; d <= day; d++ {
			candidates = append(candidates, d)
		}
		return &rrule.ROption{Freq: rrule.MONTHLY, Bymonthday: candidates, Bysetpos: []int{-1}}
	case models.RepeatMonthlyDates:
		return &rrule.ROption{Freq: rrule.MONTHLY, Bymonthday: append([]int(nil), a.Dates...)}
	}
	return nil
}

func alarm(a models.Alert) *ical.Component {
	c := ical.NewComponent(ical.CompAlarm)
	c.Props.SetText(ical.PropAction, "DISPLAY")
	c.Props.SetText(ical.PropDescription, a.Content)

	trigger := ical.NewProp(ical.PropTrigger)
	trigger.SetValueType(ical.ValueDuration)
	trigger.Value = fmt.Sprintf("-PT%dM", a.ReminderMinutes)
	c.Props.Set(trigger)
	return c
}

// exportTime keeps named zones so TZID survives; the process-local zone has
// no portable name and is written as UTC
func exportTime(t time.Time) time.Time {
	if name := t.Location().String(); name == "Local" || name == "" {
		return t.UTC()
	}
	return t
}
