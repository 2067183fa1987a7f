// Copyright (c) 2025 Fixonway
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// =============================================================================
// CONFIG FILE WATCHER
// =============================================================================

// Watcher reloads the configuration when the config file changes on disk,
// so edits apply without restarting the client. Events are debounced;
// editors commonly produce several writes per save.
type Watcher struct {
	watcher  *fsnotify.Watcher
	debounce time.Duration
	onReload func(*Config)
	ctx      context.Context
	cancel   context.CancelFunc
}

// NewWatcher creates a watcher that invokes onReload with the freshly
// loaded configuration after each change. A zero debounce defaults to
// 500ms.
func NewWatcher(debounce time.Duration, onReload func(*Config)) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if debounce <= 0 {
		debounce = 500 * time.Millisecond
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Watcher{
		watcher:  fw,
		debounce: debounce,
		onReload: onReload,
		ctx:      ctx,
		cancel:   cancel,
	}, nil
}

// Watch starts watching the config directory. Watching the directory
// rather than the file survives the rename-based atomic writes editors and
// Save both use.
func (w *Watcher) Watch() error {
	dir, err := ConfigDir()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}
	if err := w.watcher.Add(dir); err != nil {
		return err
	}
	go w.processEvents()
	return nil
}

// Close stops watching and releases resources.
func (w *Watcher) Close() error {
	w.cancel()
	return w.watcher.Close()
}

func (w *Watcher) processEvents() {
	var timer *time.Timer
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-w.ctx.Done():
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if !isConfigFile(event.Name) {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(w.debounce, w.reload)
		case _, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
		}
	}
}

func (w *Watcher) reload() {
	if err := ReloadGlobal(); err != nil {
		return
	}
	if w.onReload != nil {
		w.onReload(Global())
	}
}

func isConfigFile(path string) bool {
	switch filepath.Base(path) {
	case "config.toml", "config.json":
		return true
	}
	return false
}
