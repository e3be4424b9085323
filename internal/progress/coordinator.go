package progress

import (
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/fakeyudi/worktimer/internal/clock"
)

// Coordinator owns the one live Worker and exposes the latest percentage.
//
// Stopping terminates the worker and freezes the percentage. A later Start
// without an intervening Reset does not bring progress back: only Reset
// creates a fresh worker.
type Coordinator struct {
	mu         sync.Mutex
	clock      clock.Clock
	logger     *log.Logger
	onReport   func(percentage float64)
	handle     *handle
	generation uint64
	percentage float64
	halted     bool
	closed     bool
}

type handle struct {
	worker     *Worker
	generation uint64
	configured bool
}

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithLogger sets the logger used for worker lifecycle records.
func WithLogger(logger *log.Logger) Option {
	return func(c *Coordinator) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithOnReport registers fn to be called with every accepted percentage.
// fn runs while the coordinator lock is held and must not call back into it.
func WithOnReport(fn func(percentage float64)) Option {
	return func(c *Coordinator) {
		c.onReport = fn
	}
}

// NewCoordinator creates a coordinator with a fresh, unconfigured worker.
func NewCoordinator(clk clock.Clock, options ...Option) *Coordinator {
	c := &Coordinator{clock: clk}
	for _, option := range options {
		if option == nil {
			continue
		}
		option(c)
	}
	if c.logger == nil {
		c.logger = log.New(io.Discard)
	}

	c.mu.Lock()
	c.spawnLocked()
	c.mu.Unlock()
	return c
}

// Start arms the live worker with durationSeconds if it is not armed yet.
// After Stop it does nothing until Reset.
func (c *Coordinator) Start(durationSeconds int) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil
	}
	if c.halted {
		c.logger.Debug("progress frozen until reset", "percentage", c.percentage)
		return nil
	}
	if c.handle == nil {
		c.spawnLocked()
	}
	if c.handle.configured {
		return nil
	}
	if err := c.handle.worker.Configure(durationSeconds); err != nil {
		if errors.Is(err, ErrWorkerUnavailable) {
			c.logger.Error("configure sent to a terminated worker", "generation", c.handle.generation)
		}
		return fmt.Errorf("configure progress worker: %w", err)
	}
	c.handle.configured = true
	c.logger.Debug("progress worker configured", "generation", c.handle.generation, "duration_seconds", durationSeconds)
	return nil
}

// Stop terminates the live worker. The percentage keeps its last value.
func (c *Coordinator) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.terminateLocked()
	c.halted = true
}

// Reset terminates the live worker, spawns a fresh one and zeroes the
// percentage.
func (c *Coordinator) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.terminateLocked()
	c.halted = false
	c.percentage = 0
	c.spawnLocked()
}

// Percentage returns the latest accepted report.
func (c *Coordinator) Percentage() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.percentage
}

// Close terminates the live worker for good.
func (c *Coordinator) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.terminateLocked()
	c.closed = true
}

func (c *Coordinator) spawnLocked() {
	c.generation++
	h := &handle{worker: Spawn(c.clock), generation: c.generation}
	c.handle = h
	go c.relay(h)
	c.logger.Debug("progress worker spawned", "generation", h.generation)
}

func (c *Coordinator) terminateLocked() {
	if c.handle == nil {
		return
	}
	c.handle.worker.Terminate()
	c.logger.Debug("progress worker terminated", "generation", c.handle.generation)
	c.handle = nil
}

// relay forwards reports from h until its worker exits. Reports that arrive
// after h stopped being the live handle are dropped.
func (c *Coordinator) relay(h *handle) {
	for r := range h.worker.Reports() {
		c.mu.Lock()
		if c.handle != h {
			c.mu.Unlock()
			c.logger.Debug("dropped stale progress report", "generation", h.generation, "seq", r.Seq)
			continue
		}
		c.percentage = r.Percentage
		if c.onReport != nil {
			c.onReport(r.Percentage)
		}
		c.mu.Unlock()
	}
}
