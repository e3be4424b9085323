package clock

import (
	"sync"
	"time"
)

// Manual is a Clock whose time only moves when Advance is called.
//
// Ticks are handed over synchronously: Advance returns once every ticker that
// came due has either received its tick or been stopped. Work triggered by a
// tick still runs on the receiving goroutine, so callers that need to observe
// its effect must wait for it (for example via an event subscription).
type Manual struct {
	mu      sync.Mutex
	now     time.Time
	tickers []*manualTicker
	changed chan struct{}
}

// NewManual returns a Manual clock reading start.
func NewManual(start time.Time) *Manual {
	return &Manual{now: start, changed: make(chan struct{})}
}

// Now returns the current manual time.
func (m *Manual) Now() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now
}

// NewTicker registers a ticker that fires every d of manual time.
func (m *Manual) NewTicker(d time.Duration) Ticker {
	if d <= 0 {
		panic("clock: non-positive interval for NewTicker")
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	t := &manualTicker{
		clock:    m,
		ch:       make(chan time.Time),
		stopped:  make(chan struct{}),
		interval: d,
		next:     m.now.Add(d),
	}
	m.tickers = append(m.tickers, t)
	m.notifyLocked()
	return t
}

// Advance moves the clock forward by d and delivers every tick that falls due.
func (m *Manual) Advance(d time.Duration) {
	type delivery struct {
		ticker *manualTicker
		at     time.Time
	}

	m.mu.Lock()
	m.now = m.now.Add(d)
	var due []delivery
	live := m.tickers[:0]
	for _, t := range m.tickers {
		if t.dead {
			continue
		}
		live = append(live, t)
		for !t.next.After(m.now) {
			due = append(due, delivery{ticker: t, at: t.next})
			t.next = t.next.Add(t.interval)
		}
	}
	m.tickers = live
	m.mu.Unlock()

	for _, dl := range due {
		select {
		case dl.ticker.ch <- dl.at:
		case <-dl.ticker.stopped:
		}
	}
}

// Active reports how many tickers are currently running.
func (m *Manual) Active() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.activeLocked()
}

// BlockUntil waits until exactly n tickers are running.
func (m *Manual) BlockUntil(n int) {
	for {
		m.mu.Lock()
		active := m.activeLocked()
		wait := m.changed
		m.mu.Unlock()
		if active == n {
			return
		}
		<-wait
	}
}

func (m *Manual) activeLocked() int {
	n := 0
	for _, t := range m.tickers {
		if !t.dead {
			n++
		}
	}
	return n
}

func (m *Manual) notifyLocked() {
	close(m.changed)
	m.changed = make(chan struct{})
}

type manualTicker struct {
	clock    *Manual
	ch       chan time.Time
	stopped  chan struct{}
	once     sync.Once
	interval time.Duration
	next     time.Time
	dead     bool // guarded by clock.mu
}

func (t *manualTicker) C() <-chan time.Time { return t.ch }

func (t *manualTicker) Stop() {
	t.once.Do(func() {
		t.clock.mu.Lock()
		t.dead = true
		close(t.stopped)
		t.clock.notifyLocked()
		t.clock.mu.Unlock()
	})
}
