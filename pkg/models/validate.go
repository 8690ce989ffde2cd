package models

import (
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strings"
	"time"
)

// ErrValidation is matched by every *ValidationError
var ErrValidation = errors.New("invalid alert")

// ValidationError describes the first field that failed validation
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

func invalid(field, format string, args ...any) error {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// Validate checks the alert fields that don't depend on the clock
func (a *Alert) Validate() error {
	if strings.TrimSpace(a.Content) == "" {
		return invalid("content", "content is required")
	}
	if a.DateTime.IsZero() {
		return invalid("dateTime", "date and time are required")
	}
	if a.URL != "" && !ValidURL(a.URL) {
		return invalid("url", "%q is not a valid URL", a.URL)
	}
	if a.ReminderMinutes < 0 {
		return invalid("reminderMinutes", "reminder minutes must not be negative")
	}
	if !a.RepeatType.Known() {
		return invalid("repeatType", "unknown repeat type %q", a.RepeatType)
	}

	switch a.RepeatType {
	case RepeatWeekdays:
		if len(a.Weekdays) == 0 {
			return invalid("weekdays", "select at least one weekday")
		}
		for _, d := range a.Weekdays {
			if d < 0 || d > 6 {
				return invalid("weekdays", "weekday %d out of range 0-6", d)
			}
		}
	case RepeatMonthly:
		if a.MonthDay < 0 || a.MonthDay > 31 {
			return invalid("monthDay", "day %d out of range 1-31", a.MonthDay)
		}
	case RepeatMonthlyDates:
		if len(a.Dates) == 0 {
			return invalid("dates", "select at least one date")
		}
		for _, d := range a.Dates {
			if d < 1 || d > 31 {
				return invalid("dates", "date %d out of range 1-31", d)
			}
		}
	}
	return nil
}

// ValidateFuture rejects alerts whose supplied date is not after now.
// Selection-driven alerts are exempt since their date is computed.
func (a *Alert) ValidateFuture(now time.Time) error {
	if a.RepeatType.SelectionDriven() {
		return nil
	}
	if !a.DateTime.After(now) {
		return invalid("dateTime", "choose a date and time in the future")
	}
	return nil
}

// Canonicalize trims text fields and sorts/dedupes the selection sets.
// Selections that don't belong to the repeat type are dropped.
func (a *Alert) Canonicalize() {
	a.Content = strings.TrimSpace(a.Content)
	a.URL = strings.TrimSpace(a.URL)
	a.Normalize()

	if a.RepeatType == RepeatWeekdays {
		a.Weekdays = uniqueSorted(a.Weekdays)
	} else {
		a.Weekdays = nil
	}
	if a.RepeatType == RepeatMonthlyDates {
		a.Dates = uniqueSorted(a.Dates)
	} else {
		a.Dates = nil
	}
	if a.RepeatType != RepeatMonthly {
		a.MonthDay = 0
	}
}

// AnchorMonthDay records the day of month a monthly alert returns to, taken
// from dateTime in loc unless one is already set
func (a *Alert) AnchorMonthDay(loc *time.Location) {
	if a.RepeatType == RepeatMonthly && a.MonthDay == 0 && !a.DateTime.IsZero() {
		a.MonthDay = a.DateTime.In(loc).Day()
	}
}

// ValidURL reports whether s is an absolute URL with a scheme
func ValidURL(s string) bool {
	u, err := url.Parse(s)
	if err != nil || u.Scheme == "" {
		return false
	}
	return u.Host != "" || u.Opaque != ""
}

func uniqueSorted(in []int) []int {
	if len(in) == 0 {
		return nil
	}
	seen := make(map[int]bool, len(in))
	out := make([]int, 0, len(in))
	for _, v := range in {
		if !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	sort.Ints(out)
	return out
}
