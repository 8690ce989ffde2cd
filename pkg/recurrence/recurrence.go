// Package recurrence computes the next occurrence of a recurring alert.
//
// All arithmetic happens in local wall-clock time: the hour and minute of the
// alert's dateTime are preserved across daylight saving changes.
package recurrence

import (
	"fmt"
	"time"

	"github.com/borgmon/alert-timeline/pkg/models"
)

const (
	maxDailySteps   = 4000
	maxWeeklySteps  = 1000
	maxMonthlySteps = 240 // 20 years
	weekdayScanDays = 14

	// Horizon is the furthest an occurrence may lie past the reference time
	Horizon = 365 * 24 * time.Hour
)

// Next returns the first occurrence of a strictly after ref, using the
// process local time zone
func Next(a models.Alert, ref time.Time) (time.Time, error) {
	return NextIn(a, ref, time.Local)
}

// NextIn is Next evaluated in loc
func NextIn(a models.Alert, ref time.Time, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.Local
	}
	base := a.DateTime.In(loc)
	ref = ref.In(loc)

	var (
		next time.Time
		ok   bool
	)
	switch a.RepeatType {
	case models.RepeatDaily:
		next, ok = stepDays(base, ref, 1, maxDailySteps)
	case models.RepeatWeekly:
		next, ok = stepDays(base, ref, 7, maxWeeklySteps)
	case models.RepeatWeekdays:
		next, ok = scanWeekdays(base, ref, a.Weekdays)
	case models.RepeatMonthly:
		next, ok = stepMonths(base, ref, a.MonthDay)
	case models.RepeatMonthlyDates:
		next, ok = scanMonthDates(base, ref, a.Dates)
	default:
		return time.Time{}, fmt.Errorf("%w: %q", ErrNotRecurring, a.RepeatType)
	}

	if !ok {
		return time.Time{}, fmt.Errorf("%w: %s after %s", ErrNoOccurrence, a.RepeatType, ref.Format(time.RFC3339))
	}
	if next.Sub(ref) > Horizon {
		return time.Time{}, fmt.Errorf("%w: %s", ErrBeyondHorizon, next.Format(time.RFC3339))
	}
	return next, nil
}

// Initial computes the first fire time of a newly defined alert. Weekday and
// date selections take only the time of day from def and search forward from
// now; other types fire at the supplied date.
func Initial(def models.Alert, now time.Time, loc *time.Location) (time.Time, error) {
	if !def.RepeatType.SelectionDriven() {
		return def.DateTime, nil
	}
	return NextIn(def, now, loc)
}

// atClock builds the date y-m-d at the wall-clock time of base
func atClock(base time.Time, y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, base.Hour(), base.Minute(), base.Second(), 0, base.Location())
}

func stepDays(base, ref time.Time, days, limit int) (time.Time, bool) {
	for i := 0; i <= limit; i++ {
		c := atClock(base, base.Year(), base.Month(), base.Day()+i*days)
		if c.After(ref) {
			return c, true
		}
	}
	return time.Time{}, false
}

// stepMonths lands on the anchor day of each month, clamped to the last day
// of shorter months. A zero anchor means the base day.
func stepMonths(base, ref time.Time, anchor int) (time.Time, bool) {
	if anchor <= 0 {
		anchor = base.Day()
	}
	for i := 0; i <= maxMonthlySteps; i++ {
		first := time.Date(base.Year(), base.Month()+time.Month(i), 1, 0, 0, 0, 0, base.Location())
		day := anchor
		if last := daysIn(first.Year(), first.Month(), base.Location()); day > last {
			day = last
		}
		c := atClock(base, first.Year(), first.Month(), day)
		if c.After(ref) {
			return c, true
		}
	}
	return time.Time{}, false
}

func scanWeekdays(base, ref time.Time, weekdays []int) (time.Time, bool) {
	selected := make(map[time.Weekday]bool, len(weekdays))
	for _, d := range weekdays {
		selected[time.Weekday(d)] = true
	}

	for i := 0; i < weekdayScanDays; i++ {
		c := atClock(base, ref.Year(), ref.Month(), ref.Day()+i)
		if selected[c.Weekday()] && c.After(ref) {
			return c, true
		}
	}
	return time.Time{}, false
}

// scanMonthDates looks at the reference month and the one after it. Dates
// that don't exist in a month are skipped rather than rolled over.
func scanMonthDates(base, ref time.Time, dates []int) (time.Time, bool) {
	var best time.Time
	found := false

	for k := 0; k < 2; k++ {
		month := time.Date(ref.Year(), ref.Month()+time.Month(k), 1, 0, 0, 0, 0, ref.Location())
		for _, d := range dates {
			c := atClock(base, month.Year(), month.Month(), d)
			if c.Day() != d || c.Month() != month.Month() {
				continue
			}
			if c.After(ref) && (!found || c.Before(best)) {
				best = c
				found = true
			}
		}
	}
	return best, found
}

func daysIn(y int, m time.Month, loc *time.Location) int {
	return time.Date(y, m+1, 0, 0, 0, 0, 0, loc).Day()
}
