// Package submit turns a stopped session into a posted record: it assembles
// the payload, posts it to the record store and notes it in the local ledger.
package submit

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/fakeyudi/worktimer/internal/kintone"
	"github.com/fakeyudi/worktimer/internal/ledger"
	"github.com/fakeyudi/worktimer/internal/profile"
	"github.com/fakeyudi/worktimer/internal/record"
	"github.com/fakeyudi/worktimer/internal/timer"
)

// ErrNoProfile is returned when a real post is attempted without an app ID
// and API token.
var ErrNoProfile = errors.New("no app ID or API token configured: run 'worktimer setup'")

// Poster sends a record request to the record store.
type Poster interface {
	Post(ctx context.Context, req kintone.Request) (*kintone.Result, error)
}

// Recorder keeps a local copy of posted records.
type Recorder interface {
	Append(ctx context.Context, e ledger.Entry) (string, error)
}

// Submitter posts records. Ledger is optional.
type Submitter struct {
	Client  Poster
	Ledger  Recorder
	Profile *profile.Profile
	Layout  string
	Now     func() time.Time
	DryRun  bool
	Logger  *log.Logger
}

// Outcome describes what Submit did.
type Outcome struct {
	Payload  record.Payload
	Request  kintone.Request
	RemoteID string
	DryRun   bool
	Warnings []string // non-fatal problems, e.g. the ledger write failed
}

// Submit assembles and posts the record for sess. In dry-run mode nothing is
// sent or stored and the outcome carries the request that would have been
// posted.
func (s *Submitter) Submit(ctx context.Context, sess timer.Session, fields record.Fields) (Outcome, error) {
	logger := s.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}
	now := time.Now
	if s.Now != nil {
		now = s.Now
	}

	payload, err := record.Assemble(sess, fields, s.Layout)
	if err != nil {
		return Outcome{}, err
	}

	prof := s.Profile
	if prof == nil {
		prof = &profile.Profile{}
	}
	req := kintone.NewRequest(prof.AppID, kintone.User{Code: prof.UserCode, Name: prof.UserName}, payload, now())
	out := Outcome{Payload: payload, Request: req, DryRun: s.DryRun}

	if s.DryRun {
		logger.Info("dry run: record not posted", "session_id", sess.ID, "elapsed", payload.ElapsedFormatted)
		return out, nil
	}
	if !prof.Ready() {
		return out, ErrNoProfile
	}
	if s.Client == nil {
		return out, errors.New("no record store client configured")
	}

	res, err := s.Client.Post(ctx, req)
	if err != nil {
		logger.Error("record post failed", "session_id", sess.ID, "err", err)
		return out, fmt.Errorf("posting record: %w", err)
	}
	out.RemoteID = res.ID
	logger.Info("record posted", "session_id", sess.ID, "remote_id", res.ID)

	if s.Ledger != nil {
		_, err := s.Ledger.Append(ctx, ledger.Entry{
			SessionID: sess.ID,
			RemoteID:  res.ID,
			PostedAt:  now(),
			Payload:   payload,
		})
		if err != nil {
			// The record is already in the store; losing the local copy is not fatal.
			logger.Warn("ledger append failed", "session_id", sess.ID, "err", err)
			out.Warnings = append(out.Warnings, "record posted but not saved to history: "+err.Error())
		}
	}
	return out, nil
}
