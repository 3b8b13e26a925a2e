// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package walker

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// FileOp describes the kind of filesystem change observed.
type FileOp string

const (
	// OpWrite indicates a file was created or modified.
	OpWrite FileOp = "write"

	// OpRemove indicates a file was removed or renamed away.
	OpRemove FileOp = "remove"
)

// FileChange is a debounced filesystem event for one source file.
type FileChange struct {
	Path string
	Op   FileOp
}

// Watcher watches a project tree for Python source changes and emits
// debounced FileChange events.
//
// # Description
//
// Editors produce bursts of writes (temp file, rename, chmod) for a single
// save. Watcher coalesces events per path over a debounce window and emits
// one FileChange when the path goes quiet. Directories created after the
// watch starts are added to the watch set; excluded directories are never
// registered.
//
// # Thread Safety
//
// Watcher is safe for concurrent use. Run must be called at most once.
type Watcher struct {
	walker   *Walker
	debounce time.Duration
	log      *slog.Logger

	mu      sync.Mutex
	pending map[string]*pendingChange
}

type pendingChange struct {
	op    FileOp
	timer *time.Timer
}

// NewWatcher creates a Watcher over the walker's root with the given
// debounce window. A window of zero defaults to 500ms.
func NewWatcher(w *Walker, debounce time.Duration, log *slog.Logger) *Watcher {
	if debounce <= 0 {
		debounce = 500 * time.Millisecond
	}
	if log == nil {
		log = slog.Default()
	}
	return &Watcher{
		walker:   w,
		debounce: debounce,
		log:      log,
		pending:  make(map[string]*pendingChange),
	}
}

// Run watches the tree until the context is canceled, sending debounced
// changes to out. The channel is closed on return.
//
// # Inputs
//
//   - ctx: Context controlling the watch lifetime.
//   - out: Destination channel for debounced changes. Closed on return.
//
// # Outputs
//
//   - error: Watcher setup failure, or nil after a clean cancellation.
func (w *Watcher) Run(ctx context.Context, out chan<- FileChange) error {
	defer close(out)

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create fsnotify watcher: %w", err)
	}
	defer fsw.Close()

	if err := w.addRecursive(fsw, w.walker.Root()); err != nil {
		return fmt.Errorf("watch %s: %w", w.walker.Root(), err)
	}

	flush := make(chan FileChange, 64)

	for {
		select {
		case <-ctx.Done():
			w.drainTimers()
			return nil

		case change := <-flush:
			select {
			case out <- change:
			case <-ctx.Done():
				w.drainTimers()
				return nil
			}

		case event, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			w.handleEvent(fsw, event, flush)

		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			w.log.Warn("file watcher error", slog.Any("error", err))
		}
	}
}

// handleEvent classifies one raw fsnotify event and schedules its flush.
func (w *Watcher) handleEvent(fsw *fsnotify.Watcher, event fsnotify.Event, flush chan<- FileChange) {
	// New directories need explicit registration; fsnotify is not recursive.
	if event.Op.Has(fsnotify.Create) {
		if fi, err := os.Stat(event.Name); err == nil && fi.IsDir() {
			if w.isWatchableDir(event.Name) {
				if err := w.addRecursive(fsw, event.Name); err != nil {
					w.log.Warn("failed to watch new directory",
						slog.String("path", event.Name),
						slog.Any("error", err))
				}
			}
			return
		}
	}

	if !strings.HasSuffix(event.Name, ".py") && !strings.HasSuffix(event.Name, ".pyi") {
		return
	}
	if w.walker.excluded(event.Name, filepath.Base(event.Name)) {
		return
	}

	var op FileOp
	switch {
	case event.Op.Has(fsnotify.Remove) || event.Op.Has(fsnotify.Rename):
		op = OpRemove
	case event.Op.Has(fsnotify.Create) || event.Op.Has(fsnotify.Write):
		op = OpWrite
	default:
		return // Chmod-only events carry no content change
	}

	w.schedule(event.Name, op, flush)
}

// schedule records the latest op for a path and (re)arms its debounce timer.
func (w *Watcher) schedule(path string, op FileOp, flush chan<- FileChange) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if p, ok := w.pending[path]; ok {
		p.op = op
		p.timer.Reset(w.debounce)
		return
	}

	p := &pendingChange{op: op}
	p.timer = time.AfterFunc(w.debounce, func() {
		w.mu.Lock()
		op := p.op
		delete(w.pending, path)
		w.mu.Unlock()

		select {
		case flush <- FileChange{Path: path, Op: op}:
		default:
			w.log.Warn("dropping file change, flush channel full",
				slog.String("path", path))
		}
	})
	w.pending[path] = p
}

// drainTimers stops all outstanding debounce timers.
func (w *Watcher) drainTimers() {
	w.mu.Lock()
	defer w.mu.Unlock()
	for path, p := range w.pending {
		p.timer.Stop()
		delete(w.pending, path)
	}
}

// addRecursive registers the directory and all non-excluded subdirectories.
func (w *Watcher) addRecursive(fsw *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == root {
				return err
			}
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && !w.isWatchableDir(path) {
			return filepath.SkipDir
		}
		return fsw.Add(path)
	})
}

// isWatchableDir applies the walker's exclusion rules to a directory path.
func (w *Watcher) isWatchableDir(path string) bool {
	name := filepath.Base(path)
	if strings.HasPrefix(name, ".") {
		return false
	}
	if _, skip := defaultExcludedDirs[name]; skip {
		return false
	}
	return !w.walker.excluded(path, name)
}
