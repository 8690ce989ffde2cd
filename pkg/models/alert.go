package models

import (
	"encoding/json"
	"time"
)

// RepeatType selects the recurrence rule of an alert
type RepeatType string

const (
	RepeatNone         RepeatType = "none"
	RepeatDaily        RepeatType = "daily"
	RepeatWeekly       RepeatType = "weekly"
	RepeatWeekdays     RepeatType = "weekdays"      // selected days of the week
	RepeatMonthly      RepeatType = "monthly"       // same day every month
	RepeatMonthlyDates RepeatType = "monthly-dates" // selected days of the month
)

// Known reports whether r is one of the supported repeat types
func (r RepeatType) Known() bool {
	switch r {
	case RepeatNone, RepeatDaily, RepeatWeekly, RepeatWeekdays, RepeatMonthly, RepeatMonthlyDates:
		return true
	}
	return false
}

// Recurring reports whether alerts of this type advance after firing
func (r RepeatType) Recurring() bool {
	return r.Known() && r != RepeatNone
}

// SelectionDriven reports whether the first occurrence is derived from a
// weekday or date selection rather than from the supplied date
func (r RepeatType) SelectionDriven() bool {
	return r == RepeatWeekdays || r == RepeatMonthlyDates
}

// Alert is a user-defined reminder
type Alert struct {
	ID              string     `json:"id"`
	Content         string     `json:"content"`
	DateTime        time.Time  `json:"dateTime"`                  // next (or only) fire time
	URL             string     `json:"url,omitempty"`             // opened at reminder or main fire
	ReminderMinutes int        `json:"reminderMinutes,omitempty"` // 0 = no reminder
	RepeatType      RepeatType `json:"repeatType"`
	Weekdays        []int      `json:"weekdays,omitempty"` // 0-6, Sunday = 0
	Dates           []int      `json:"dates,omitempty"`    // 1-31
	MonthDay        int        `json:"monthDay,omitempty"` // monthly: day of month to return to after clamping
	CreatedAt       time.Time  `json:"createdAt"`
}

// UnmarshalJSON accepts records written with null or missing optional fields
func (a *Alert) UnmarshalJSON(data []byte) error {
	type plain Alert
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*a = Alert(p)
	a.Normalize()
	return nil
}

// Normalize fills defaults for fields that older records may lack
func (a *Alert) Normalize() {
	if a.RepeatType == "" {
		a.RepeatType = RepeatNone
	}
	if a.ReminderMinutes < 0 {
		a.ReminderMinutes = 0
	}
}

// Recurring reports whether the alert advances after firing
func (a *Alert) Recurring() bool {
	return a.RepeatType.Recurring()
}

// HasReminder reports whether a pre-fire reminder is configured
func (a *Alert) HasReminder() bool {
	return a.ReminderMinutes > 0
}

// ReminderTime returns the instant of the pre-fire reminder
func (a *Alert) ReminderTime() time.Time {
	return a.DateTime.Add(-time.Duration(a.ReminderMinutes) * time.Minute)
}

// Clone returns a deep copy so callers can't mutate store-owned slices
func (a Alert) Clone() Alert {
	if a.Weekdays != nil {
		a.Weekdays = append([]int(nil), a.Weekdays...)
	}
	if a.Dates != nil {
		a.Dates = append([]int(nil), a.Dates...)
	}
	return a
}

// Definition is the user input for a new alert
type Definition struct {
	Content         string
	DateTime        time.Time // for weekdays/monthly-dates only the time of day is used
	URL             string
	ReminderMinutes int
	RepeatType      RepeatType
	Weekdays        []int
	Dates           []int
}

// Changes holds the fields of an edit; nil fields are left untouched
type Changes struct {
	Content         *string
	DateTime        *time.Time
	URL             *string
	ReminderMinutes *int
	RepeatType      *RepeatType
	Weekdays        []int
	Dates           []int
}

// Apply merges the changes into a copy of a
func (c Changes) Apply(a Alert) Alert {
	out := a.Clone()
	if c.Content != nil {
		out.Content = *c.Content
	}
	if c.DateTime != nil {
		if !c.DateTime.Equal(a.DateTime) {
			out.MonthDay = 0
		}
		out.DateTime = *c.DateTime
	}
	if c.URL != nil {
		out.URL = *c.URL
	}
	if c.ReminderMinutes != nil {
		out.ReminderMinutes = *c.ReminderMinutes
	}
	if c.RepeatType != nil {
		if *c.RepeatType != a.RepeatType {
			out.MonthDay = 0
		}
		out.RepeatType = *c.RepeatType
	}
	if c.Weekdays != nil {
		out.Weekdays = append([]int(nil), c.Weekdays...)
	}
	if c.Dates != nil {
		out.Dates = append([]int(nil), c.Dates...)
	}
	return out
}
