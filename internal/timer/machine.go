// Package timer implements the Idle/Running/Stopped state machine of a work
// session: the elapsed-seconds counter, its timestamps, and the progress
// coordinator that runs alongside it.
package timer

import (
	"io"
	"strconv"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/fakeyudi/worktimer/internal/clock"
	"github.com/fakeyudi/worktimer/internal/progress"
)

// DefaultTargetMinutes is the target duration of a new machine.
const DefaultTargetMinutes = 1

// Machine owns one timer session. All methods are safe for concurrent use;
// each transition runs entirely under the machine lock.
type Machine struct {
	mu       sync.Mutex
	clock    clock.Clock
	logger   *log.Logger
	progress *progress.Coordinator
	events   hub
	newID    func() string

	session  Session
	ticker   clock.Ticker
	tickStop chan struct{}
	tickGen  uint64
	closed   bool
}

// Option configures a Machine.
type Option func(*Machine)

// WithClock replaces the wall clock, mainly for tests.
func WithClock(clk clock.Clock) Option {
	return func(m *Machine) {
		if clk != nil {
			m.clock = clk
		}
	}
}

// WithLogger sets the logger for transitions and progress worker lifecycle.
func WithLogger(logger *log.Logger) Option {
	return func(m *Machine) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// WithTargetMinutes sets the initial target duration. Non-positive values are
// ignored.
func WithTargetMinutes(minutes int) Option {
	return func(m *Machine) {
		if minutes > 0 && minutes <= MaxMinutes {
			m.session.TargetDurationSeconds = minutes * 60
		}
	}
}

// WithIDGenerator replaces the session ID source.
func WithIDGenerator(fn func() string) Option {
	return func(m *Machine) {
		if fn != nil {
			m.newID = fn
		}
	}
}

// New returns an Idle machine with a fresh session.
func New(options ...Option) *Machine {
	m := &Machine{
		clock:   clock.Real(),
		newID:   uuid.NewString,
		session: Session{State: Idle, TargetDurationSeconds: DefaultTargetMinutes * 60},
	}
	for _, option := range options {
		if option == nil {
			continue
		}
		option(m)
	}
	if m.logger == nil {
		m.logger = log.New(io.Discard)
	}
	m.session.ID = m.newID()
	m.progress = progress.NewCoordinator(m.clock,
		progress.WithLogger(m.logger),
		progress.WithOnReport(m.publishProgress),
	)
	return m
}

// Start moves the session to Running. It is a no-op while already Running.
// The first start records StartedAt; later ones overwrite RestartedAt.
func (m *Machine) Start() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed || m.session.State == Running {
		return
	}

	now := m.clock.Now()
	if m.session.StartedAt == nil {
		m.session.StartedAt = &now
	} else {
		m.session.RestartedAt = &now
	}
	m.session.StoppedAt = nil
	m.session.State = Running

	if err := m.progress.Start(m.session.TargetDurationSeconds); err != nil {
		m.logger.Error("progress worker not started", "session_id", m.session.ID, "err", err)
	}
	m.startTickerLocked()

	m.logger.Info("timer started",
		"session_id", m.session.ID,
		"elapsed", m.session.ElapsedSeconds,
		"restart", m.session.RestartedAt != nil,
	)
	m.publishStateLocked(now)
}

// Stop moves a Running session to Stopped and freezes elapsed time and
// progress. It is a no-op in any other state.
func (m *Machine) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed || m.session.State != Running {
		return
	}

	now := m.clock.Now()
	m.stopTickerLocked()
	m.progress.Stop()
	m.session.StoppedAt = &now
	m.session.State = Stopped

	m.logger.Info("timer stopped",
		"session_id", m.session.ID,
		"elapsed", m.session.ElapsedSeconds,
		"percentage", m.progress.Percentage(),
	)
	m.publishStateLocked(now)
}

// Reset returns the machine to Idle with zero elapsed time, no timestamps and
// a fresh progress worker. The target duration is kept.
func (m *Machine) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return
	}
	m.resetLocked()
}

// SetTargetDuration changes the target while Idle. It resets the session
// first. Outside Idle it returns a *TransitionError and changes nothing.
func (m *Machine) SetTargetDuration(minutes int) error {
	if minutes <= 0 || minutes > MaxMinutes {
		return invalidMinutes(strconv.Itoa(minutes))
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.session.State != Idle || m.closed {
		return &TransitionError{From: m.session.State, Action: "change the target duration"}
	}
	m.resetLocked()
	m.session.TargetDurationSeconds = minutes * 60
	m.logger.Debug("target duration set", "session_id", m.session.ID, "minutes", minutes)
	return nil
}

// Snapshot returns a copy of the session together with the latest progress
// percentage.
func (m *Machine) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return Snapshot{Session: m.session.clone(), Percentage: m.progress.Percentage()}
}

// Subscribe returns a channel of change events. Events are dropped for a
// subscriber whose buffer is full. The channel is closed by Close.
func (m *Machine) Subscribe(buffer int) <-chan Event {
	return m.events.subscribe(buffer)
}

// Close halts both tickers, terminates the progress worker and closes every
// subscription. The machine ignores all further transitions.
func (m *Machine) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return
	}
	m.closed = true
	m.stopTickerLocked()
	m.progress.Close()
	m.events.close()
}

func (m *Machine) resetLocked() {
	m.stopTickerLocked()
	previous := m.session.ID
	m.session = Session{
		ID:                    m.newID(),
		State:                 Idle,
		TargetDurationSeconds: m.session.TargetDurationSeconds,
	}
	m.progress.Reset()
	m.logger.Info("timer reset", "previous_session_id", previous, "session_id", m.session.ID)
	m.publishStateLocked(m.clock.Now())
}

func (m *Machine) startTickerLocked() {
	m.stopTickerLocked()
	m.ticker = m.clock.NewTicker(time.Second)
	m.tickStop = make(chan struct{})
	go m.runTicker(m.ticker, m.tickStop, m.tickGen)
}

// stopTickerLocked halts the elapsed ticker. Bumping the generation makes a
// tick that is already waiting for the lock a no-op.
func (m *Machine) stopTickerLocked() {
	if m.ticker == nil {
		return
	}
	close(m.tickStop)
	m.ticker.Stop()
	m.ticker, m.tickStop = nil, nil
	m.tickGen++
}

func (m *Machine) runTicker(t clock.Ticker, stop <-chan struct{}, gen uint64) {
	for {
		select {
		case <-stop:
			return
		case at := <-t.C():
			m.tick(gen, at)
		}
	}
}

func (m *Machine) tick(gen uint64, at time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if gen != m.tickGen || m.session.State != Running {
		return
	}
	m.session.ElapsedSeconds++
	m.events.publish(Event{
		Type:           EventElapsed,
		State:          m.session.State,
		ElapsedSeconds: m.session.ElapsedSeconds,
		Percentage:     m.progress.Percentage(),
		At:             at,
	})
}

func (m *Machine) publishStateLocked(at time.Time) {
	m.events.publish(Event{
		Type:           EventStateChange,
		State:          m.session.State,
		ElapsedSeconds: m.session.ElapsedSeconds,
		Percentage:     m.progress.Percentage(),
		At:             at,
	})
}

// publishProgress runs under the coordinator lock, so it must not take m.mu.
func (m *Machine) publishProgress(percentage float64) {
	m.events.publish(Event{
		Type:       EventProgress,
		Percentage: percentage,
		At:         m.clock.Now(),
	})
}
