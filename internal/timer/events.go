package timer

import (
	"sync"
	"time"
)

// EventType identifies what changed.
type EventType string

const (
	EventStateChange EventType = "state_change"
	EventElapsed     EventType = "elapsed"
	EventProgress    EventType = "progress"
)

// Event is pushed to subscribers after every change. Subscribers that fall
// behind miss events; Snapshot stays authoritative.
type Event struct {
	Type           EventType
	State          State
	ElapsedSeconds int
	Percentage     float64
	At             time.Time
}

type hub struct {
	mu     sync.Mutex
	subs   []chan Event
	closed bool
}

func (h *hub) subscribe(buffer int) <-chan Event {
	if buffer < 0 {
		buffer = 0
	}
	ch := make(chan Event, buffer)
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		close(ch)
		return ch
	}
	h.subs = append(h.subs, ch)
	return ch
}

func (h *hub) publish(ev Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	for _, ch := range h.subs {
		select {
		case ch <- ev:
		default:
		}
	}
}

func (h *hub) close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.closed = true
	for _, ch := range h.subs {
		close(ch)
	}
	h.subs = nil
}
