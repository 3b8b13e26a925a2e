// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package walker enumerates candidate Python source files under a project
// root, applying directory and glob exclusions.
package walker

import (
	"context"
	"io/fs"
	"path/filepath"
	"strings"
)

// defaultExcludedDirs are directory names skipped on every walk regardless
// of configuration. They hold generated, vendored, or environment files
// that would pollute the dependency graph.
var defaultExcludedDirs = map[string]struct{}{
	"__pycache__":   {},
	"migrations":    {},
	"node_modules":  {},
	"venv":          {},
	".venv":         {},
	"env":           {},
	"site-packages": {},
}

// Option configures a Walker.
type Option func(*Walker)

// WithExcludeGlobs adds exclusion patterns matched against both the file's
// base name and its root-relative path (forward slashes).
func WithExcludeGlobs(globs []string) Option {
	return func(w *Walker) {
		w.excludeGlobs = append(w.excludeGlobs, globs...)
	}
}

// WithMaxFiles caps the number of files returned. Zero means no cap.
func WithMaxFiles(n int) Option {
	return func(w *Walker) {
		if n > 0 {
			w.maxFiles = n
		}
	}
}

// Walker enumerates .py/.pyi files under a root directory.
//
// # Thread Safety
//
// Walker is immutable after construction and safe for concurrent use.
type Walker struct {
	root         string
	excludeGlobs []string
	maxFiles     int
}

// NewWalker creates a Walker rooted at the given directory.
func NewWalker(root string, opts ...Option) *Walker {
	w := &Walker{
		root: filepath.Clean(root),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Root returns the walk root.
func (w *Walker) Root() string {
	return w.root
}

// Walk returns the absolute paths of all candidate source files under the
// root, in lexical order.
//
// # Description
//
// Hidden directories, default exclusions, and configured globs are skipped.
// Unreadable entries are skipped silently: enumeration is best-effort, and
// per-file I/O errors surface later when the file is read for parsing.
//
// # Inputs
//
//   - ctx: Context for cancellation, checked at every directory entry.
//
// # Outputs
//
//   - []string: Absolute paths in lexical walk order.
//   - error: Context error on cancellation, or a root-level walk failure.
func (w *Walker) Walk(ctx context.Context) ([]string, error) {
	var files []string

	err := filepath.WalkDir(w.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == w.root {
				return err
			}
			return nil // Skip entries we can't access
		}

		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}

		if d.IsDir() {
			name := d.Name()
			if path != w.root {
				if strings.HasPrefix(name, ".") {
					return filepath.SkipDir
				}
				if _, skip := defaultExcludedDirs[name]; skip {
					return filepath.SkipDir
				}
				if w.excluded(path, name) {
					return filepath.SkipDir
				}
			}
			return nil
		}

		if !strings.HasSuffix(path, ".py") && !strings.HasSuffix(path, ".pyi") {
			return nil
		}
		if w.excluded(path, d.Name()) {
			return nil
		}

		files = append(files, path)
		if w.maxFiles > 0 && len(files) >= w.maxFiles {
			return filepath.SkipAll
		}
		return nil
	})

	if err != nil && err != filepath.SkipAll {
		return files, err
	}
	return files, nil
}

// excluded checks the configured globs against the entry's base name and
// its root-relative forward-slash path.
func (w *Walker) excluded(path, name string) bool {
	rel, relErr := filepath.Rel(w.root, path)
	for _, glob := range w.excludeGlobs {
		if m, _ := filepath.Match(glob, name); m {
			return true
		}
		if relErr == nil {
			if m, _ := filepath.Match(glob, filepath.ToSlash(rel)); m {
				return true
			}
		}
	}
	return false
}

// IsTestFile reports whether the path looks like a test module: a
// `test_*.py` / `*_test.py` file, or any file under a `tests` directory.
func IsTestFile(path string) bool {
	base := filepath.Base(path)
	if strings.HasPrefix(base, "test_") || strings.HasSuffix(base, "_test.py") {
		return true
	}
	for _, seg := range strings.Split(filepath.ToSlash(filepath.Dir(path)), "/") {
		if seg == "tests" {
			return true
		}
	}
	return false
}
