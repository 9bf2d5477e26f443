package reader

import "time"

// Timer is a scheduled call that can be cancelled.
type Timer interface {
	// Stop prevents the call from running. It reports whether the call was still pending.
	Stop() bool
}

// Clock is the time source used by the Debouncer.
type Clock interface {
	Now() time.Time
	AfterFunc(d time.Duration, f func()) Timer
}

// SystemClock is a Clock backed by the time package.
type SystemClock struct{}

func (SystemClock) Now() time.Time {
	return time.Now()
}

func (SystemClock) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}
