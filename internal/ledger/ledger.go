// Package ledger keeps a local SQLite history of records posted to the record
// store. Timer state itself is never stored here.
package ledger

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/fakeyudi/worktimer/internal/record"
)

// Entry is one posted record.
type Entry struct {
	ID        string         `json:"id"`
	SessionID string         `json:"session_id"`
	RemoteID  string         `json:"remote_id,omitempty"`
	PostedAt  time.Time      `json:"posted_at"`
	Payload   record.Payload `json:"payload"`
}

// Ledger is an open ledger database.
type Ledger struct {
	db   *sql.DB
	path string
}

// Open opens or creates the ledger at path, creating parent directories.
func Open(path string) (*Ledger, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating ledger directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open ledger: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys = ON; PRAGMA journal_mode = WAL;"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to set pragmas: %w", err)
	}
	// One writer at a time.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	l := &Ledger{db: db, path: path}
	if err := l.initTables(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize ledger: %w", err)
	}
	return l, nil
}

func (l *Ledger) initTables() error {
	const recordsSQL = `
	CREATE TABLE IF NOT EXISTS records (
		id TEXT PRIMARY KEY,
		session_id TEXT NOT NULL,
		remote_id TEXT,
		posted_at TEXT NOT NULL,
		start_ts TEXT NOT NULL,
		stop_ts TEXT NOT NULL,
		elapsed TEXT NOT NULL,
		description TEXT,
		notes TEXT,
		project_name TEXT,
		project_number TEXT,
		payload_json TEXT NOT NULL
	);`
	if _, err := l.db.Exec(recordsSQL); err != nil {
		return fmt.Errorf("failed to create records table: %w", err)
	}
	if _, err := l.db.Exec("CREATE INDEX IF NOT EXISTS idx_records_posted_at ON records(posted_at);"); err != nil {
		return fmt.Errorf("failed to create records index: %w", err)
	}
	return nil
}

// Path returns the database file path.
func (l *Ledger) Path() string { return l.path }

// Append stores e. An empty ID is filled with a new UUID and returned.
func (l *Ledger) Append(ctx context.Context, e Entry) (string, error) {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.PostedAt.IsZero() {
		e.PostedAt = time.Now()
	}
	payload, err := json.Marshal(e.Payload)
	if err != nil {
		return "", fmt.Errorf("encode ledger payload: %w", err)
	}

	const q = `
	INSERT INTO records (id, session_id, remote_id, posted_at, start_ts, stop_ts, elapsed,
		description, notes, project_name, project_number, payload_json)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err = l.db.ExecContext(ctx, q,
		e.ID, e.SessionID, e.RemoteID, e.PostedAt.UTC().Format(time.RFC3339Nano),
		e.Payload.StartTimestamp, e.Payload.StopTimestamp, e.Payload.ElapsedFormatted,
		e.Payload.Description, e.Payload.Notes, e.Payload.ProjectName, e.Payload.ProjectNumber,
		string(payload),
	)
	if err != nil {
		return "", fmt.Errorf("failed to append ledger entry: %w", err)
	}
	return e.ID, nil
}

// List returns up to limit entries, newest first. A non-positive limit
// returns everything.
func (l *Ledger) List(ctx context.Context, limit int) ([]Entry, error) {
	q := `SELECT id, session_id, remote_id, posted_at, payload_json FROM records ORDER BY posted_at DESC, rowid DESC`
	args := []any{}
	if limit > 0 {
		q += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := l.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list ledger entries: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var (
			e                 Entry
			remoteID          sql.NullString
			postedAt, payload string
		)
		if err := rows.Scan(&e.ID, &e.SessionID, &remoteID, &postedAt, &payload); err != nil {
			return nil, fmt.Errorf("failed to scan ledger entry: %w", err)
		}
		e.RemoteID = remoteID.String
		if e.PostedAt, err = time.Parse(time.RFC3339Nano, postedAt); err != nil {
			return nil, fmt.Errorf("ledger entry %s: bad posted_at: %w", e.ID, err)
		}
		p, err := record.Parse([]byte(payload))
		if err != nil {
			return nil, fmt.Errorf("ledger entry %s: %w", e.ID, err)
		}
		e.Payload = *p
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list ledger entries: %w", err)
	}
	return entries, nil
}

// Close closes the database.
func (l *Ledger) Close() error {
	return l.db.Close()
}
