// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// =============================================================================
// CONFIG FILE WATCHER
// =============================================================================

// DefaultWatchDebounce is how long the watcher waits after the last
// change event before reloading. Editors often write a file several
// times in quick succession.
const DefaultWatchDebounce = 500 * time.Millisecond

// Watcher reloads the global configuration when the config file changes
// on disk. A reload that fails validation keeps the previous
// configuration in place.
type Watcher struct {
	path     string
	watcher  *fsnotify.Watcher
	debounce time.Duration
	onReload func(*Config)

	mu      sync.Mutex
	pending time.Time

	ctx    context.Context
	cancel context.CancelFunc
}

// NewWatcher creates a watcher for the default TOML config file.
// onReload, if non-nil, is called with the fresh config after each
// successful reload.
func NewWatcher(onReload func(*Config)) (*Watcher, error) {
	path, err := ConfigPathTOML()
	if err != nil {
		return nil, err
	}
	return NewWatcherForPath(path, onReload)
}

// NewWatcherForPath creates a watcher for a specific config file.
func NewWatcherForPath(path string, onReload func(*Config)) (*Watcher, error) {
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Watcher{
		path:     path,
		watcher:  fsWatcher,
		debounce: DefaultWatchDebounce,
		onReload: onReload,
		ctx:      ctx,
		cancel:   cancel,
	}, nil
}

// Watch starts watching for config file changes.
func (w *Watcher) Watch() error {
	// Watch the directory, not the file. Editors that save by writing a
	// temp file and renaming it over the original would otherwise
	// detach the watch on the first save.
	dir := filepath.Dir(w.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	if err := w.watcher.Add(dir); err != nil {
		return err
	}

	// Start event processing goroutine
	go w.processEvents()

	// Start debounce timer goroutine
	go w.processPending()

	return nil
}

// processEvents processes file system events
func (w *Watcher) processEvents() {
	// Add panic recovery to prevent crashes
	defer func() {
		if r := recover(); r != nil {
			_ = r
		}
	}()

	base := filepath.Base(w.path)

	for {
		select {
		case <-w.ctx.Done():
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}

			// Only the config file itself matters; the directory holds
			// history and other state files too.
			if filepath.Base(event.Name) != base {
				continue
			}

			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0 {
				w.markPending()
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			// Log error (non-fatal)
			_ = err
		}
	}
}

// markPending records a change with debounce.
func (w *Watcher) markPending() {
	w.mu.Lock()
	w.pending = time.Now()
	w.mu.Unlock()
}

// processPending reloads the config once changes settle.
func (w *Watcher) processPending() {
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-w.ctx.Done():
			return

		case <-ticker.C:
			w.mu.Lock()
			due := !w.pending.IsZero() && time.Since(w.pending) >= w.debounce
			if due {
				w.pending = time.Time{}
			}
			w.mu.Unlock()

			if due {
				w.reload()
			}
		}
	}
}

// reload re-reads the watched file into the global instance.
func (w *Watcher) reload() {
	cfg, err := LoadFromPath(w.path)
	if err != nil {
		// Keep the previous config; a half-saved file should not take
		// the running process down with it.
		fmt.Fprintf(os.Stderr, "Warning: config reload failed: %v\n", err)
		return
	}

	SetGlobal(cfg)

	if w.onReload != nil {
		w.onReload(cfg)
	}
}

// Close stops watching and releases resources
func (w *Watcher) Close() error {
	w.cancel()
	if w.watcher != nil {
		return w.watcher.Close()
	}
	return nil
}
