package server

import (
	"context"
	"io/fs"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// debouncer coalesces bursts of triggers into one callback after a quiet
// window without new triggers.
type debouncer struct {
	quiet time.Duration
	fn    func()

	mu    sync.Mutex
	timer *time.Timer
}

func newDebouncer(quiet time.Duration, fn func()) *debouncer {
	return &debouncer{quiet: quiet, fn: fn}
}

func (d *debouncer) Trigger() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.quiet, d.fn)
}

func (d *debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
	}
}

// watch registers dirs (recursively) with fsnotify and calls onChange,
// debounced, for every relevant filesystem event until ctx ends.
func watch(ctx context.Context, dirs []string, quiet time.Duration, onChange func()) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer func() { _ = w.Close() }()

	for _, dir := range dirs {
		if err := addRecursive(w, dir); err != nil {
			slog.Warn("Watching directory failed", "dir", dir, "error", err)
		}
	}

	deb := newDebouncer(quiet, onChange)
	defer deb.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if ignoredEvent(ev) {
				continue
			}
			// New subdirectories need their own watch.
			if ev.Op.Has(fsnotify.Create) {
				_ = addRecursive(w, ev.Name)
			}
			slog.Debug("Source change", "path", ev.Name, "op", ev.Op.String())
			deb.Trigger()
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			slog.Warn("Watcher error", "error", err)
		}
	}
}

func addRecursive(w *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil // tolerate races with deletes
		}
		if !d.IsDir() {
			return nil
		}
		if strings.HasPrefix(d.Name(), ".") && p != root {
			return filepath.SkipDir
		}
		return w.Add(p)
	})
}

// ignoredEvent filters events that never affect the built site.
func ignoredEvent(ev fsnotify.Event) bool {
	if ev.Op == fsnotify.Chmod {
		return true
	}
	base := filepath.Base(ev.Name)
	if strings.HasPrefix(base, ".") {
		return true
	}
	// Editor swap and backup files.
	return strings.HasSuffix(base, "~") || strings.HasSuffix(base, ".swp")
}
