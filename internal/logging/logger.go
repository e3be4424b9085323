// Package logging writes structured JSON logs to a per-run file so the
// terminal UI is never interleaved with log output.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/log"
)

// Options configures New.
type Options struct {
	Level string // debug, info, warn, error; defaults to info
	Dir   string // defaults to StateDir()/logs
	RunID string
}

// RuntimeLogger owns the log file behind Logger.
type RuntimeLogger struct {
	Logger *log.Logger
	file   *os.File
	path   string
}

// StateDir is $XDG_STATE_HOME/worktimer or ~/.local/state/worktimer.
func StateDir() (string, error) {
	base := os.Getenv("XDG_STATE_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		base = filepath.Join(home, ".local", "state")
	}
	return filepath.Join(base, "worktimer"), nil
}

// New opens worktimer-<timestamp>.log under the log directory.
func New(opts Options) (*RuntimeLogger, error) {
	dir := opts.Dir
	if dir == "" {
		state, err := StateDir()
		if err != nil {
			return nil, err
		}
		dir = filepath.Join(state, "logs")
	}
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("create log directory: %w", err)
	}

	level, err := ParseLevel(opts.Level)
	if err != nil {
		return nil, err
	}

	timestamp := time.Now().UTC().Format("20060102-150405")
	fileName := fmt.Sprintf("worktimer-%s.log", timestamp)
	if runID := strings.TrimSpace(opts.RunID); runID != "" {
		fileName = fmt.Sprintf("worktimer-%s-%s.log", timestamp, runID)
	}
	filePath := filepath.Join(dir, fileName)
	file, err := os.OpenFile(filePath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}

	logger := newJSON(file, level)
	if opts.RunID != "" {
		logger = logger.With("run_id", strings.TrimSpace(opts.RunID))
	}
	logger.With("log_file", filePath).Info("logger initialized")
	return &RuntimeLogger{Logger: logger, file: file, path: filePath}, nil
}

// Discard returns a logger that drops everything.
func Discard() *log.Logger {
	return log.New(io.Discard)
}

// ParseLevel maps a config level name to a log.Level. Empty means info.
func ParseLevel(name string) (log.Level, error) {
	if strings.TrimSpace(name) == "" {
		return log.InfoLevel, nil
	}
	level, err := log.ParseLevel(strings.ToLower(strings.TrimSpace(name)))
	if err != nil {
		return log.InfoLevel, fmt.Errorf("invalid log level %q: %w", name, err)
	}
	return level, nil
}

func newJSON(w io.Writer, level log.Level) *log.Logger {
	logger := log.NewWithOptions(w, log.Options{
		Level:           level,
		ReportTimestamp: true,
		TimeFormat:      time.RFC3339,
	})
	logger.SetFormatter(log.JSONFormatter)
	return logger
}

// Close closes the log file.
func (r *RuntimeLogger) Close() error {
	if r == nil || r.file == nil {
		return nil
	}
	return r.file.Close()
}

// Path returns the log file path.
func (r *RuntimeLogger) Path() string {
	if r == nil {
		return ""
	}
	return r.path
}
