package timer

import "time"

// Stopper cancels a pending callback. Stop on a fired or stopped timer is a no-op.
type Stopper interface {
	Stop() bool
}

// Clock supplies the current time and delayed callbacks
type Clock interface {
	Now() time.Time
	AfterFunc(d time.Duration, f func()) Stopper
}

// RealClock is the wall clock backed by time.AfterFunc
type RealClock struct{}

func (RealClock) Now() time.Time { return time.Now() }

func (RealClock) AfterFunc(d time.Duration, f func()) Stopper {
	return time.AfterFunc(d, f)
}
