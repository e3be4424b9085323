// Package record turns a stopped timer session into the payload posted to the
// record store.
package record

import (
	"errors"
	"fmt"

	"github.com/fakeyudi/worktimer/internal/timer"
)

// DefaultTimeLayout formats start and stop timestamps as a local clock time.
const DefaultTimeLayout = "15:04:05"

// ErrIncompleteSession is returned when the session is not Stopped with both
// a start and a stop timestamp.
var ErrIncompleteSession = errors.New("session is not complete: stop the timer first")

// Fields holds the free-text values the user enters alongside the timer.
type Fields struct {
	Description   string `json:"description"`
	Notes         string `json:"notes"`
	ProjectName   string `json:"project_name"`
	ProjectNumber string `json:"project_number"`
}

// Payload is the record sent to the record store.
type Payload struct {
	StartTimestamp   string `json:"start_timestamp"`
	StopTimestamp    string `json:"stop_timestamp"`
	ElapsedFormatted string `json:"elapsed_formatted"` // HH:MM
	Description      string `json:"description"`
	Notes            string `json:"notes"`
	ProjectName      string `json:"project_name"`
	ProjectNumber    string `json:"project_number"`
}

// Assemble builds the payload for a stopped session. Timestamps are formatted
// with layout, or DefaultTimeLayout when layout is empty.
func Assemble(s timer.Session, fields Fields, layout string) (Payload, error) {
	if !s.Complete() {
		return Payload{}, fmt.Errorf("assemble record (state %s): %w", s.State, ErrIncompleteSession)
	}
	if layout == "" {
		layout = DefaultTimeLayout
	}
	return Payload{
		StartTimestamp:   s.StartedAt.Format(layout),
		StopTimestamp:    s.StoppedAt.Format(layout),
		ElapsedFormatted: FormatElapsed(s.ElapsedSeconds),
		Description:      fields.Description,
		Notes:            fields.Notes,
		ProjectName:      fields.ProjectName,
		ProjectNumber:    fields.ProjectNumber,
	}, nil
}

// FormatElapsed renders seconds as zero-padded HH:MM. Leftover seconds are
// dropped and hours are never wrapped.
func FormatElapsed(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%02d:%02d", seconds/3600, seconds%3600/60)
}

// FormatClock renders seconds as HH:MM:SS for the running display.
func FormatClock(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%02d:%02d:%02d", seconds/3600, seconds%3600/60, seconds%60)
}
