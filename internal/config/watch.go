package config

import (
	"context"
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/fsnotify/fsnotify"
)

// Watcher reloads configuration when one of Paths changes on disk.
type Watcher struct {
	Paths  []string
	Load   func() (Config, error) // defaults to the package-level Load
	Logger *log.Logger
}

// Run watches the parent directories of w.Paths and calls onChange with the
// freshly loaded config after every write, create, rename or remove of a
// watched file. Reload errors are logged and skipped. Run returns when ctx is
// cancelled.
func (w *Watcher) Run(ctx context.Context, onChange func(Config)) error {
	logger := w.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}
	load := w.Load
	if load == nil {
		load = Load
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	// Directories are watched rather than files so editors that save by
	// rename are still seen.
	watched := make(map[string]bool, len(w.Paths))
	dirs := make(map[string]bool)
	for _, p := range w.Paths {
		p = filepath.Clean(p)
		watched[p] = true
		dir := filepath.Dir(p)
		if dirs[dir] {
			continue
		}
		if info, err := os.Stat(dir); err != nil || !info.IsDir() {
			continue
		}
		if err := watcher.Add(dir); err != nil {
			logger.Warn("config directory not watched", "dir", dir, "err", err)
			continue
		}
		dirs[dir] = true
	}

	const interesting = fsnotify.Write | fsnotify.Create | fsnotify.Rename | fsnotify.Remove
	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !watched[filepath.Clean(event.Name)] || event.Op&interesting == 0 {
				continue
			}
			cfg, err := load()
			if err != nil {
				logger.Warn("config reload failed", "path", event.Name, "err", err)
				continue
			}
			logger.Debug("config reloaded", "path", event.Name)
			onChange(cfg)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("config watcher error", "err", err)
		}
	}
}
