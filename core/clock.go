package core

import "time"

// Timer is a cancellable, re-armable deferred callback.
type Timer interface {
	Stop() bool
	Reset(d time.Duration) bool
}

// Clock abstracts wall time and deferred execution so idle eviction and
// other time-driven behavior can run against a fake clock in tests.
type Clock interface {
	Now() time.Time
	AfterFunc(d time.Duration, fn func()) Timer
}

// RealClock is the time-package backed Clock used outside tests.
type RealClock struct{}

// Now returns the current wall-clock time.
func (RealClock) Now() time.Time { return time.Now() }

// AfterFunc schedules fn on its own goroutine after d.
func (RealClock) AfterFunc(d time.Duration, fn func()) Timer {
	return realTimer{t: time.AfterFunc(d, fn)}
}

type realTimer struct{ t *time.Timer }

func (r realTimer) Stop() bool { return r.t.Stop() }

func (r realTimer) Reset(d time.Duration) bool { return r.t.Reset(d) }
