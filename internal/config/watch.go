package config

import (
	"context"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// debounceDelay coalesces the burst of write events an editor produces
// for a single save into one reload.
const debounceDelay = 100 * time.Millisecond

// Watcher reloads a Config from disk whenever its backing file changes,
// applying the new values into the same *Config instance under
// ReplaceFrom so every holder of the pointer sees the update.
type Watcher struct {
	path string
	cfg  *Config
}

// NewWatcher builds a watcher for path, whose changes are merged into
// cfg.
func NewWatcher(path string, cfg *Config) *Watcher {
	return &Watcher{path: path, cfg: cfg}
}

// Run watches until ctx is cancelled. A missing or unwatchable
// directory is logged and treated as "nothing to watch," not an error,
// since a hookgate invocation's lifetime is too short to ever notice a
// hot reload anyway — this exists for the long-running `cache` daemon
// mode only.
func (w *Watcher) Run(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	dir := filepath.Dir(w.path)
	file := filepath.Base(w.path)
	if err := watcher.Add(dir); err != nil {
		slog.Warn("config: not watching, directory unavailable", "dir", dir, "error", err)
		return nil
	}

	var debounce *time.Timer
	reload := make(chan struct{}, 1)
	defer func() {
		if debounce != nil {
			debounce.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Base(ev.Name) != file {
				continue
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			if debounce != nil {
				debounce.Stop()
			}
			debounce = time.AfterFunc(debounceDelay, func() {
				select {
				case reload <- struct{}{}:
				default:
				}
			})

		case <-reload:
			w.reload()

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			slog.Error("config: watcher error", "error", err)
		}
	}
}

func (w *Watcher) reload() {
	fresh, err := Load(w.path)
	if err != nil {
		slog.Error("config: reload failed, keeping previous values", "path", w.path, "error", err)
		return
	}
	w.cfg.ReplaceFrom(fresh)
	slog.Info("config: reloaded", "path", w.path)
}
