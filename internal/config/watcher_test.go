// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfigFile(t *testing.T, path, model string) {
	t.Helper()

	content := "[models]\ndefault = \"" + model + "\"\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
}

// TestWatcher_ReloadsOnChange tests that editing the watched file swaps
// in a fresh global config.
func TestWatcher_ReloadsOnChange(t *testing.T) {
	ResetGlobalForTesting()

	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	writeConfigFile(t, path, "first:1b")

	initial, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("LoadFromPath() error = %v", err)
	}
	SetGlobal(initial)

	reloaded := make(chan *Config, 4)
	w, err := NewWatcherForPath(path, func(c *Config) {
		reloaded <- c
	})
	if err != nil {
		t.Fatalf("NewWatcherForPath() error = %v", err)
	}
	w.debounce = 50 * time.Millisecond
	defer w.Close()

	if err := w.Watch(); err != nil {
		t.Fatalf("Watch() error = %v", err)
	}

	writeConfigFile(t, path, "second:1b")

	select {
	case cfg := <-reloaded:
		if cfg.Models.Default != "second:1b" {
			t.Errorf("reloaded model = %q, want 'second:1b'", cfg.Models.Default)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("watcher did not reload after the file changed")
	}

	if Global().Models.Default != "second:1b" {
		t.Errorf("Global() model = %q, want the reloaded value", Global().Models.Default)
	}
}

// TestWatcher_BadFileKeepsOldConfig tests that a reload which fails
// validation leaves the previous config in place.
func TestWatcher_BadFileKeepsOldConfig(t *testing.T) {
	ResetGlobalForTesting()

	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	writeConfigFile(t, path, "good:1b")

	initial, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("LoadFromPath() error = %v", err)
	}
	SetGlobal(initial)

	w, err := NewWatcherForPath(path, nil)
	if err != nil {
		t.Fatalf("NewWatcherForPath() error = %v", err)
	}
	w.debounce = 50 * time.Millisecond
	defer w.Close()

	if err := w.Watch(); err != nil {
		t.Fatalf("Watch() error = %v", err)
	}

	if err := os.WriteFile(path, []byte("this is { not toml"), 0644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	// Give the watcher time to attempt (and reject) the reload.
	time.Sleep(500 * time.Millisecond)

	if Global().Models.Default != "good:1b" {
		t.Errorf("Global() model = %q, want the pre-failure value kept", Global().Models.Default)
	}
}

// TestWatcher_IgnoresSiblingFiles tests that changes to other files in
// the config directory do not trigger a reload.
func TestWatcher_IgnoresSiblingFiles(t *testing.T) {
	ResetGlobalForTesting()

	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	writeConfigFile(t, path, "stable:1b")

	initial, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("LoadFromPath() error = %v", err)
	}
	SetGlobal(initial)

	reloaded := make(chan *Config, 4)
	w, err := NewWatcherForPath(path, func(c *Config) {
		reloaded <- c
	})
	if err != nil {
		t.Fatalf("NewWatcherForPath() error = %v", err)
	}
	w.debounce = 50 * time.Millisecond
	defer w.Close()

	if err := w.Watch(); err != nil {
		t.Fatalf("Watch() error = %v", err)
	}

	if err := os.WriteFile(filepath.Join(dir, "history"), []byte("hello\n"), 0644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	select {
	case <-reloaded:
		t.Error("a sibling file change should not trigger a reload")
	case <-time.After(400 * time.Millisecond):
	}
}
