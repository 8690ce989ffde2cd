package timer_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/borgmon/alert-timeline/pkg/models"
	"github.com/borgmon/alert-timeline/pkg/timer"
	"github.com/borgmon/alert-timeline/pkg/timer/timertest"
)

var start = time.Date(2030, 3, 1, 8, 0, 0, 0, time.UTC)

type recorder struct {
	coord  *timer.Coordinator
	fired  []timer.Fire
	before func(timer.Fire)
}

func (r *recorder) handle(f timer.Fire) {
	if r.before != nil {
		r.before(f)
	}
	if r.coord.Claim(f) {
		r.fired = append(r.fired, f)
	}
}

func newCoordinator(t *testing.T) (*timer.Coordinator, *timertest.Clock, *recorder) {
	t.Helper()
	clock := timertest.NewClock(start)
	rec := &recorder{}
	rec.coord = timer.NewCoordinator(clock, rec.handle, zaptest.NewLogger(t))
	return rec.coord, clock, rec
}

func alertAt(id string, at time.Time, reminder int) models.Alert {
	return models.Alert{ID: id, Content: id, DateTime: at, ReminderMinutes: reminder, RepeatType: models.RepeatNone}
}

func kinds(fires []timer.Fire) []timer.Kind {
	out := make([]timer.Kind, 0, len(fires))
	for _, f := range fires {
		out = append(out, f.Kind)
	}
	return out
}

func TestScheduleArmsMainAndReminder(t *testing.T) {
	coord, clock, rec := newCoordinator(t)

	armed := coord.Schedule(alertAt("a", start.Add(time.Hour), 10))
	assert.Equal(t, []timer.Kind{timer.KindMain, timer.KindReminder}, armed)
	assert.Equal(t, []timer.Kind{timer.KindMain, timer.KindReminder}, coord.Pending("a"))

	at, ok := coord.NextAt("a", timer.KindReminder)
	require.True(t, ok)
	assert.Equal(t, start.Add(50*time.Minute), at)

	clock.Advance(50 * time.Minute)
	assert.Equal(t, []timer.Kind{timer.KindReminder}, kinds(rec.fired))

	clock.Advance(10 * time.Minute)
	assert.Equal(t, []timer.Kind{timer.KindReminder, timer.KindMain}, kinds(rec.fired))
	assert.Empty(t, coord.Pending("a"))
}

func TestScheduleTwiceKeepsOneTimerPerKind(t *testing.T) {
	coord, clock, rec := newCoordinator(t)
	alert := alertAt("a", start.Add(time.Hour), 5)

	coord.Schedule(alert)
	coord.Schedule(alert)
	assert.Equal(t, 2, clock.Pending())

	clock.Advance(2 * time.Hour)
	assert.Equal(t, []timer.Kind{timer.KindReminder, timer.KindMain}, kinds(rec.fired))
}

func TestScheduleSkipsPastInstants(t *testing.T) {
	coord, clock, _ := newCoordinator(t)

	assert.Empty(t, coord.Schedule(alertAt("past", start.Add(-time.Minute), 0)))

	// reminder already passed, main still ahead
	armed := coord.Schedule(alertAt("late", start.Add(5*time.Minute), 10))
	assert.Equal(t, []timer.Kind{timer.KindMain}, armed)
	assert.Equal(t, 1, clock.Pending())
}

func TestCancelStopsEverything(t *testing.T) {
	coord, clock, rec := newCoordinator(t)

	coord.Schedule(alertAt("a", start.Add(time.Hour), 10))
	coord.ArmCleanup("a", 5*time.Second)
	coord.Cancel("a")
	coord.Cancel("a")
	coord.Cancel("unknown")

	assert.Equal(t, 0, clock.Pending())
	clock.Advance(2 * time.Hour)
	assert.Empty(t, rec.fired)
}

func TestRescheduleAfterElapseRejectsStaleFire(t *testing.T) {
	coord, clock, rec := newCoordinator(t)
	alert := alertAt("a", start.Add(time.Minute), 0)

	// an edit lands between the timer elapsing and its claim
	rec.before = func(f timer.Fire) {
		if f.At.Equal(start.Add(time.Minute)) {
			coord.Schedule(alertAt("a", start.Add(time.Hour), 0))
		}
	}
	coord.Schedule(alert)

	clock.Advance(2 * time.Minute)
	assert.Empty(t, rec.fired)
	assert.Equal(t, []timer.Kind{timer.KindMain}, coord.Pending("a"))

	clock.Advance(time.Hour)
	require.Len(t, rec.fired, 1)
	assert.Equal(t, start.Add(time.Hour), rec.fired[0].At)
}

func TestArmCleanupReplacesPrevious(t *testing.T) {
	coord, clock, rec := newCoordinator(t)

	coord.ArmCleanup("a", 5*time.Second)
	clock.Advance(3 * time.Second)
	coord.ArmCleanup("a", 5*time.Second)

	clock.Advance(3 * time.Second)
	assert.Empty(t, rec.fired)

	clock.Advance(3 * time.Second)
	assert.Equal(t, []timer.Kind{timer.KindCleanup}, kinds(rec.fired))
}

func TestStopCancelsAllAlerts(t *testing.T) {
	coord, clock, rec := newCoordinator(t)

	coord.Schedule(alertAt("a", start.Add(time.Hour), 0))
	coord.Schedule(alertAt("b", start.Add(2*time.Hour), 30))
	coord.Stop()

	assert.Equal(t, 0, clock.Pending())
	clock.Advance(3 * time.Hour)
	assert.Empty(t, rec.fired)
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "main", timer.KindMain.String())
	assert.Equal(t, "reminder", timer.KindReminder.String())
	assert.Equal(t, "cleanup", timer.KindCleanup.String())
}
