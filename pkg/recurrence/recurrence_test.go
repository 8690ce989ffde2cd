package recurrence

import (
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/borgmon/alert-timeline/pkg/models"
)

func at(y int, m time.Month, d, hh, mm int) time.Time {
	return time.Date(y, m, d, hh, mm, 0, 0, time.UTC)
}

func TestNextIn(t *testing.T) {
	tests := []struct {
		name  string
		alert models.Alert
		ref   time.Time
		want  time.Time
	}{
		{
			name:  "daily strictly after reference",
			alert: models.Alert{RepeatType: models.RepeatDaily, DateTime: at(2025, time.June, 1, 9, 0)},
			ref:   at(2025, time.June, 10, 9, 0),
			want:  at(2025, time.June, 11, 9, 0),
		},
		{
			name:  "daily base still ahead",
			alert: models.Alert{RepeatType: models.RepeatDaily, DateTime: at(2025, time.June, 12, 9, 0)},
			ref:   at(2025, time.June, 10, 9, 0),
			want:  at(2025, time.June, 12, 9, 0),
		},
		{
			// last Monday 09:00, now Wednesday 10:00
			name:  "weekly",
			alert: models.Alert{RepeatType: models.RepeatWeekly, DateTime: at(2025, time.June, 9, 9, 0)},
			ref:   at(2025, time.June, 11, 10, 0),
			want:  at(2025, time.June, 16, 9, 0),
		},
		{
			// Tuesday 14:00 with Mon/Wed/Fri at 08:00
			name:  "weekdays",
			alert: models.Alert{RepeatType: models.RepeatWeekdays, Weekdays: []int{1, 3, 5}, DateTime: at(2025, time.May, 1, 8, 0)},
			ref:   at(2025, time.June, 10, 14, 0),
			want:  at(2025, time.June, 11, 8, 0),
		},
		{
			name:  "weekdays same day later",
			alert: models.Alert{RepeatType: models.RepeatWeekdays, Weekdays: []int{2}, DateTime: at(2025, time.May, 1, 18, 30)},
			ref:   at(2025, time.June, 10, 14, 0),
			want:  at(2025, time.June, 10, 18, 30),
		},
		{
			name:  "weekdays same day passed wraps a week",
			alert: models.Alert{RepeatType: models.RepeatWeekdays, Weekdays: []int{2}, DateTime: at(2025, time.May, 1, 8, 0)},
			ref:   at(2025, time.June, 10, 14, 0),
			want:  at(2025, time.June, 17, 8, 0),
		},
		{
			name:  "monthly",
			alert: models.Alert{RepeatType: models.RepeatMonthly, DateTime: at(2025, time.January, 15, 10, 0)},
			ref:   at(2025, time.March, 15, 10, 0),
			want:  at(2025, time.April, 15, 10, 0),
		},
		{
			name:  "monthly clamps to short month",
			alert: models.Alert{RepeatType: models.RepeatMonthly, DateTime: at(2025, time.January, 31, 10, 0)},
			ref:   at(2025, time.February, 1, 0, 0),
			want:  at(2025, time.February, 28, 10, 0),
		},
		{
			name:  "monthly returns to base day",
			alert: models.Alert{RepeatType: models.RepeatMonthly, DateTime: at(2025, time.January, 31, 10, 0)},
			ref:   at(2025, time.March, 1, 0, 0),
			want:  at(2025, time.March, 31, 10, 0),
		},
		{
			name:  "monthly from clamped date returns to anchor day",
			alert: models.Alert{RepeatType: models.RepeatMonthly, MonthDay: 31, DateTime: at(2025, time.February, 28, 10, 0)},
			ref:   at(2025, time.February, 28, 10, 0),
			want:  at(2025, time.March, 31, 10, 0),
		},
		{
			name:  "monthly anchor clamps again in april",
			alert: models.Alert{RepeatType: models.RepeatMonthly, MonthDay: 31, DateTime: at(2025, time.March, 31, 10, 0)},
			ref:   at(2025, time.March, 31, 10, 0),
			want:  at(2025, time.April, 30, 10, 0),
		},
		{
			// April 31 does not exist and must not roll into May 1
			name:  "monthly dates skips missing day",
			alert: models.Alert{RepeatType: models.RepeatMonthlyDates, Dates: []int{31}, DateTime: at(2025, time.January, 1, 9, 0)},
			ref:   at(2025, time.April, 15, 12, 0),
			want:  at(2025, time.May, 31, 9, 0),
		},
		{
			name:  "monthly dates earliest candidate",
			alert: models.Alert{RepeatType: models.RepeatMonthlyDates, Dates: []int{5, 20}, DateTime: at(2025, time.January, 1, 9, 0)},
			ref:   at(2025, time.April, 15, 12, 0),
			want:  at(2025, time.April, 20, 9, 0),
		},
		{
			name:  "monthly dates in february",
			alert: models.Alert{RepeatType: models.RepeatMonthlyDates, Dates: []int{30, 31}, DateTime: at(2025, time.January, 1, 7, 0)},
			ref:   at(2025, time.February, 10, 0, 0),
			want:  at(2025, time.March, 30, 7, 0),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NextIn(tt.alert, tt.ref, time.UTC)
			require.NoError(t, err)
			assert.True(t, tt.want.Equal(got), "want %s, got %s", tt.want, got)
		})
	}
}

func TestNextInFailures(t *testing.T) {
	ref := at(2025, time.June, 10, 12, 0)

	_, err := NextIn(models.Alert{RepeatType: models.RepeatNone, DateTime: ref}, ref, time.UTC)
	require.ErrorIs(t, err, ErrNotRecurring)

	_, err = NextIn(models.Alert{RepeatType: models.RepeatDaily, DateTime: ref.AddDate(2, 0, 0)}, ref, time.UTC)
	require.ErrorIs(t, err, ErrBeyondHorizon)

	_, err = NextIn(models.Alert{RepeatType: models.RepeatDaily, DateTime: ref.AddDate(-20, 0, 0)}, ref, time.UTC)
	require.ErrorIs(t, err, ErrNoOccurrence)

	_, err = NextIn(models.Alert{RepeatType: models.RepeatWeekly, DateTime: ref.AddDate(-25, 0, 0)}, ref, time.UTC)
	require.ErrorIs(t, err, ErrNoOccurrence)

	_, err = NextIn(models.Alert{RepeatType: models.RepeatMonthly, DateTime: ref.AddDate(-21, 0, 0)}, ref, time.UTC)
	require.ErrorIs(t, err, ErrNoOccurrence)

	_, err = NextIn(models.Alert{RepeatType: models.RepeatWeekdays, DateTime: ref}, ref, time.UTC)
	require.ErrorIs(t, err, ErrNoOccurrence)

	_, err = NextIn(models.Alert{RepeatType: models.RepeatMonthlyDates, DateTime: ref}, ref, time.UTC)
	require.ErrorIs(t, err, ErrNoOccurrence)
}

func TestNextIsStrictlyAfterReference(t *testing.T) {
	alerts := []models.Alert{
		{RepeatType: models.RepeatDaily, DateTime: at(2024, time.December, 30, 23, 45)},
		{RepeatType: models.RepeatWeekly, DateTime: at(2025, time.January, 6, 0, 0)},
		{RepeatType: models.RepeatWeekdays, Weekdays: []int{0, 6}, DateTime: at(2025, time.January, 1, 6, 15)},
		{RepeatType: models.RepeatMonthly, DateTime: at(2024, time.August, 31, 12, 0)},
		{RepeatType: models.RepeatMonthlyDates, Dates: []int{1, 29, 30, 31}, DateTime: at(2025, time.January, 1, 21, 0)},
	}

	start := at(2025, time.January, 1, 0, 0)
	for _, a := range alerts {
		for ref := start; ref.Before(start.AddDate(1, 0, 0)); ref = ref.Add(37 * time.Hour) {
			got, err := NextIn(a, ref, time.UTC)
			require.NoError(t, err, "%s at %s", a.RepeatType, ref)
			require.True(t, got.After(ref), "%s: %s not after %s", a.RepeatType, got, ref)
			assert.Equal(t, a.DateTime.Hour(), got.Hour())
			assert.Equal(t, a.DateTime.Minute(), got.Minute())
			if a.RepeatType == models.RepeatMonthlyDates {
				assert.Contains(t, a.Dates, got.Day())
			}
		}
	}
}

func TestNextInKeepsWallClockAcrossDST(t *testing.T) {
	loc, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)

	a := models.Alert{
		RepeatType: models.RepeatDaily,
		DateTime:   time.Date(2025, time.March, 8, 9, 0, 0, 0, loc),
	}
	got, err := NextIn(a, a.DateTime, loc)
	require.NoError(t, err)

	want := time.Date(2025, time.March, 9, 9, 0, 0, 0, loc)
	assert.True(t, want.Equal(got), "want %s, got %s", want, got)
	assert.Equal(t, 23*time.Hour, got.Sub(a.DateTime))
}

func TestInitial(t *testing.T) {
	now := at(2025, time.June, 10, 14, 0) // Tuesday

	weekdays := models.Alert{RepeatType: models.RepeatWeekdays, Weekdays: []int{4}, DateTime: at(2000, time.January, 1, 7, 30)}
	got, err := Initial(weekdays, now, time.UTC)
	require.NoError(t, err)
	assert.True(t, at(2025, time.June, 12, 7, 30).Equal(got))

	oneOff := models.Alert{RepeatType: models.RepeatNone, DateTime: at(2025, time.July, 1, 8, 0)}
	got, err = Initial(oneOff, now, time.UTC)
	require.NoError(t, err)
	assert.True(t, oneOff.DateTime.Equal(got))
}
