// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package native

import (
	"fmt"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
)

// ShaderWatcher invalidates cached pipelines when their shader files
// change on disk. Directories are watched rather than files, so editors
// that save by renaming a temporary file are picked up too.
type ShaderWatcher struct {
	dev     *Device
	watcher *fsnotify.Watcher
	done    chan struct{}
	wg      sync.WaitGroup

	mu       sync.Mutex
	onReload func(path string, pipelines int)
	reloads  int
	closed   bool
}

// NewShaderWatcher starts watching for dev. Add directories with Watch.
func NewShaderWatcher(dev *Device) (*ShaderWatcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("native: shader watcher: %w", err)
	}
	w := &ShaderWatcher{dev: dev, watcher: fw, done: make(chan struct{})}
	w.wg.Add(1)
	go w.loop()
	return w, nil
}

// Watch adds dir to the watched directories.
func (w *ShaderWatcher) Watch(dir string) error {
	if err := w.watcher.Add(filepath.Clean(dir)); err != nil {
		return fmt.Errorf("native: watch %s: %w", dir, err)
	}
	slogger().Debug("native: watching shaders", "dir", dir)
	return nil
}

// OnReload registers fn to be called after a change invalidated pipelines.
func (w *ShaderWatcher) OnReload(fn func(path string, pipelines int)) {
	w.mu.Lock()
	w.onReload = fn
	w.mu.Unlock()
}

// Reloads returns the number of changes that invalidated at least one
// pipeline.
func (w *ShaderWatcher) Reloads() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.reloads
}

// Close stops watching. It is safe to call more than once.
func (w *ShaderWatcher) Close() error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil
	}
	w.closed = true
	w.mu.Unlock()

	close(w.done)
	err := w.watcher.Close()
	w.wg.Wait()
	return err
}

func (w *ShaderWatcher) loop() {
	defer w.wg.Done()
	for {
		select {
		case <-w.done:
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handle(event)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			slogger().Warn("native: shader watcher error", "error", err)
		}
	}
}

// handle invalidates pipelines for a write or create of a .wgsl file.
func (w *ShaderWatcher) handle(event fsnotify.Event) {
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
		return
	}
	if !strings.EqualFold(filepath.Ext(event.Name), ".wgsl") {
		return
	}
	path := filepath.Clean(event.Name)
	n := w.dev.InvalidateShader(path)
	if n == 0 {
		return
	}

	w.mu.Lock()
	w.reloads++
	fn := w.onReload
	w.mu.Unlock()
	if fn != nil {
		fn(path, n)
	}
}
