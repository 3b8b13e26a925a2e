// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package resolve maps file paths to canonical dotted module names and
// resolves relative imports against them.
package resolve

import (
	"path/filepath"
	"strings"
)

// Resolver converts file paths to dotted module names and resolves
// relative-import levels to absolute names.
//
// # Description
//
// A Resolver is scoped to one project root and one internal-root prefix
// (e.g. "apps"). A module is internal iff its dotted name falls under the
// prefix. Resolution never errors: a relative import whose level exceeds
// the current module's depth degrades to a truncated or empty base, which
// downstream classification then treats as external or drops.
//
// # Thread Safety
//
// Resolver is immutable after construction and safe for concurrent use.
type Resolver struct {
	root           string
	internalPrefix string
}

// NewResolver creates a Resolver for the given project root directory and
// internal-root package prefix.
//
// # Inputs
//
//   - root: Absolute path to the project root. Cleaned internally.
//   - internalPrefix: Top-level package prefix marking internal modules
//     (e.g. "apps"). May be empty, in which case nothing is internal.
func NewResolver(root, internalPrefix string) *Resolver {
	return &Resolver{
		root:           filepath.Clean(root),
		internalPrefix: internalPrefix,
	}
}

// InternalPrefix returns the configured internal-root prefix.
func (r *Resolver) InternalPrefix() string {
	return r.internalPrefix
}

// FileToModule converts a file path under the project root to its canonical
// dotted module name.
//
// # Description
//
// Strips the root prefix, replaces path separators with dots, and strips
// the .py/.pyi extension. A trailing __init__ segment is collapsed so a
// package's __init__.py resolves to the package's own name.
//
// # Example
//
//	FileToModule("/proj/apps/users/models.py")   == "apps.users.models"
//	FileToModule("/proj/apps/users/__init__.py") == "apps.users"
func (r *Resolver) FileToModule(path string) string {
	rel, err := filepath.Rel(r.root, path)
	if err != nil {
		rel = path
	}

	rel = strings.TrimSuffix(rel, ".pyi")
	rel = strings.TrimSuffix(rel, ".py")

	parts := strings.Split(filepath.ToSlash(rel), "/")
	if len(parts) > 0 && parts[len(parts)-1] == "__init__" {
		parts = parts[:len(parts)-1]
	}

	return strings.Join(parts, ".")
}

// ModuleToFile is the approximate inverse of FileToModule.
//
// It returns the regular-module path (module/path.py); the caller is
// responsible for probing the package form (module/path/__init__.py) if
// the regular file does not exist.
func (r *Resolver) ModuleToFile(module string) string {
	if module == "" {
		return r.root
	}
	rel := strings.ReplaceAll(module, ".", string(filepath.Separator))
	return filepath.Join(r.root, rel+".py")
}

// ResolveRelative resolves a relative import against the importing module.
//
// # Description
//
// Drops `level` trailing segments from the current module's dotted path and
// appends the imported module if non-empty. When level exceeds the module's
// own depth the base degrades to empty and the result is just the imported
// name (or empty). A known approximation, never an error.
//
// # Example
//
//	ResolveRelative("apps.a.b", "c", 1) == "apps.a.c"
//	ResolveRelative("apps.a.b", "", 1)  == "apps.a"
func (r *Resolver) ResolveRelative(current, imported string, level int) string {
	if level <= 0 {
		return imported
	}

	parts := strings.Split(current, ".")
	if level >= len(parts) {
		return imported
	}
	base := strings.Join(parts[:len(parts)-level], ".")

	if imported == "" {
		return base
	}
	if base == "" {
		return imported
	}
	return base + "." + imported
}

// IsInternal reports whether the dotted module name falls under the
// configured internal-root prefix.
func (r *Resolver) IsInternal(module string) bool {
	if r.internalPrefix == "" || module == "" {
		return false
	}
	return module == r.internalPrefix || strings.HasPrefix(module, r.internalPrefix+".")
}

// PackageOf returns the top-level internal package name for a module: the
// segment directly under the internal root.
//
// For external modules the first dotted segment is returned, which callers
// use for display only (external modules never enter the graph).
func (r *Resolver) PackageOf(module string) string {
	parts := strings.Split(module, ".")
	if r.IsInternal(module) && len(parts) >= 2 {
		return parts[1]
	}
	return parts[0]
}
