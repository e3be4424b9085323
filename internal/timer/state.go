package timer

import "time"

// State is the lifecycle position of a timer session.
type State string

const (
	Idle    State = "idle"
	Running State = "running"
	Stopped State = "stopped"
)

// Session is the ephemeral state of one work session. It is never persisted.
type Session struct {
	ID                    string     `json:"id"`
	State                 State      `json:"state"`
	ElapsedSeconds        int        `json:"elapsed_seconds"`
	TargetDurationSeconds int        `json:"target_duration_seconds"`
	StartedAt             *time.Time `json:"started_at,omitempty"`
	// RestartedAt is overwritten on every start after the first one. Nothing
	// downstream reads it; it is kept observable for the UI.
	RestartedAt *time.Time `json:"restarted_at,omitempty"`
	StoppedAt   *time.Time `json:"stopped_at,omitempty"`
}

// Complete reports whether the session is stopped with both timestamps set,
// which is what a record needs.
func (s Session) Complete() bool {
	return s.State == Stopped && s.StartedAt != nil && s.StoppedAt != nil
}

func (s Session) clone() Session {
	s.StartedAt = copyTime(s.StartedAt)
	s.RestartedAt = copyTime(s.RestartedAt)
	s.StoppedAt = copyTime(s.StoppedAt)
	return s
}

func copyTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}

// Snapshot is the observable state handed to views.
type Snapshot struct {
	Session
	Percentage float64 `json:"percentage"`
}
