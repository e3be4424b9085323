// Package progress computes the advisory percentage-complete value for a work
// session. A Worker runs on its own goroutine and talks to its owner only
// through value messages; the Coordinator owns the single live Worker and
// relays its reports.
package progress

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/fakeyudi/worktimer/internal/clock"
)

// TickInterval is the cadence at which an armed worker reports.
const TickInterval = time.Second

var (
	// ErrInvalidDuration is returned by Configure for a non-positive duration.
	ErrInvalidDuration = errors.New("progress: duration must be a positive number of seconds")
	// ErrWorkerUnavailable means a message was sent to a terminated worker.
	// The Coordinator's ownership rules make this unreachable; seeing it is a bug.
	ErrWorkerUnavailable = errors.New("progress: worker unavailable")
)

// Configure arms a worker with the target duration.
type Configure struct {
	DurationSeconds int
}

// Report is emitted by an armed worker once per tick.
type Report struct {
	Seq        int
	Percentage float64
}

// Percentage returns the completion after ticks one-second ticks against a
// target of durationSeconds, clamped to [0, 100]. It is computed from the
// integer tick count so that tick durationSeconds is exactly 100.
func Percentage(ticks, durationSeconds int) float64 {
	if durationSeconds <= 0 || ticks <= 0 {
		return 0
	}
	if ticks >= durationSeconds {
		return 100
	}
	return float64(ticks) * 100 / float64(durationSeconds)
}

// Worker emits a Report every TickInterval after it has been configured,
// until the percentage reaches 100. It then goes inert but keeps its
// goroutine until Terminate is called.
type Worker struct {
	clock  clock.Clock
	inbox  chan Configure
	out    chan Report
	done   chan struct{}
	exited chan struct{}
	once   sync.Once
}

// Spawn starts an unconfigured worker.
func Spawn(clk clock.Clock) *Worker {
	w := &Worker{
		clock:  clk,
		inbox:  make(chan Configure, 1),
		out:    make(chan Report, 1),
		done:   make(chan struct{}),
		exited: make(chan struct{}),
	}
	go w.run()
	return w
}

// Configure sends the target duration to the worker. Non-positive durations
// are rejected before anything is sent, so the worker never starts ticking.
// Only the first accepted Configure takes effect.
func (w *Worker) Configure(durationSeconds int) error {
	if durationSeconds <= 0 {
		return fmt.Errorf("%w: got %d", ErrInvalidDuration, durationSeconds)
	}
	select {
	case <-w.done:
		return ErrWorkerUnavailable
	default:
	}
	select {
	case w.inbox <- Configure{DurationSeconds: durationSeconds}:
		return nil
	case <-w.done:
		return ErrWorkerUnavailable
	}
}

// Reports returns the channel of progress reports. It is closed once the
// worker has exited.
func (w *Worker) Reports() <-chan Report {
	return w.out
}

// Terminate stops the worker immediately. It is safe to call more than once.
func (w *Worker) Terminate() {
	w.once.Do(func() { close(w.done) })
}

// Exited is closed after the worker has released its ticker and returned.
func (w *Worker) Exited() <-chan struct{} {
	return w.exited
}

func (w *Worker) run() {
	var (
		ticker   clock.Ticker
		tickC    <-chan time.Time
		duration int
		ticks    int
	)
	stopTicker := func() {
		if ticker != nil {
			ticker.Stop()
			ticker, tickC = nil, nil
		}
	}
	defer close(w.exited)
	defer close(w.out)
	defer stopTicker()

	for {
		select {
		case <-w.done:
			return

		case msg := <-w.inbox:
			if duration > 0 {
				continue
			}
			duration = msg.DurationSeconds
			ticker = w.clock.NewTicker(TickInterval)
			tickC = ticker.C()

		case <-tickC:
			ticks++
			pct := Percentage(ticks, duration)
			if pct >= 100 {
				stopTicker()
			}
			select {
			case w.out <- Report{Seq: ticks, Percentage: pct}:
			case <-w.done:
				return
			}
		}
	}
}
