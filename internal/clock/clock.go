// Package clock abstracts wall-clock reads and repeating tickers so the timer
// engine can be driven by real time in production and by hand in tests.
package clock

import "time"

// Ticker delivers ticks on C until Stop is called.
type Ticker interface {
	C() <-chan time.Time
	Stop()
}

// Clock is the time source used by the timer and the progress worker.
type Clock interface {
	Now() time.Time
	NewTicker(d time.Duration) Ticker
}

// Real returns a Clock backed by the time package. Its tickers are scheduled
// against the wall clock, so a slow receiver drops ticks instead of drifting.
func Real() Clock {
	return realClock{}
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

func (realClock) NewTicker(d time.Duration) Ticker {
	return &realTicker{t: time.NewTicker(d)}
}

type realTicker struct {
	t *time.Ticker
}

func (r *realTicker) C() <-chan time.Time { return r.t.C }

func (r *realTicker) Stop() { r.t.Stop() }
