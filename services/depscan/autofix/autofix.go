// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package autofix rewrites source files to delete unused-import lines.
// It is an optional mutation layered on the read-only analysis.
package autofix

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/AleutianAI/depscope/services/depscan/analysis"
)

// FixResult summarizes one autofix pass.
type FixResult struct {
	// FilesModified counts files rewritten on disk.
	FilesModified int `json:"files_modified"`

	// LinesRemoved counts deleted lines across all files.
	LinesRemoved int `json:"lines_removed"`

	// Skipped lists files left untouched, with reasons.
	Skipped []string `json:"skipped,omitempty"`
}

// Fixer deletes unused-import lines in place.
//
// # Thread Safety
//
// Fixer is stateless and safe for concurrent use, though concurrent fixes
// of the same file are the caller's problem.
type Fixer struct {
	root   string
	dryRun bool
	log    *slog.Logger
}

// NewFixer creates a Fixer resolving finding paths against root. With
// dryRun set, files are read and line math is done but nothing is written.
func NewFixer(root string, dryRun bool, log *slog.Logger) *Fixer {
	if log == nil {
		log = slog.Default()
	}
	return &Fixer{root: filepath.Clean(root), dryRun: dryRun, log: log}
}

// span is an inclusive 1-indexed line range to delete.
type span struct {
	start, end int
}

// Apply deletes the lines named by unused-import findings.
//
// # Description
//
// Findings are grouped per file and deleted in descending line order, so
// earlier deletions never shift the line numbers of later ones. A finding
// with EndLine set removes the whole statement span, which keeps
// parenthesized multi-line imports from leaving dangling continuation
// lines. Findings of other kinds are ignored. A file that changed since
// analysis is not detected here; callers should re-run analysis after
// fixing.
//
// # Inputs
//
//   - ctx: Context for cancellation, checked between files.
//   - findings: Typically Report.UnusedImports.
//
// # Outputs
//
//   - *FixResult: Counts and skip reasons. Never nil.
//   - error: Context error; per-file I/O failures are recorded in Skipped
//     and do not abort the pass.
func (f *Fixer) Apply(ctx context.Context, findings []analysis.Finding) (*FixResult, error) {
	byFile := make(map[string][]span)
	for _, finding := range findings {
		if finding.Kind != analysis.KindUnusedImport || finding.Line < 1 {
			continue
		}
		end := finding.Line
		if finding.EndLine > end {
			end = finding.EndLine
		}
		byFile[finding.File] = append(byFile[finding.File], span{start: finding.Line, end: end})
	}

	files := make([]string, 0, len(byFile))
	for file := range byFile {
		files = append(files, file)
	}
	sort.Strings(files)

	result := &FixResult{}
	for _, file := range files {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		removed, err := f.fixFile(file, byFile[file])
		if err != nil {
			result.Skipped = append(result.Skipped, fmt.Sprintf("%s: %v", file, err))
			f.log.Warn("autofix skipped file",
				slog.String("file", file),
				slog.Any("error", err))
			continue
		}
		if removed > 0 {
			result.FilesModified++
			result.LinesRemoved += removed
		}
	}
	return result, nil
}

// fixFile deletes the given 1-indexed line spans from one file.
func (f *Fixer) fixFile(relPath string, spans []span) (int, error) {
	absPath := filepath.Join(f.root, filepath.FromSlash(relPath))

	content, err := os.ReadFile(absPath)
	if err != nil {
		return 0, err
	}

	// Descending order: deleting lines 40-42 cannot move line 12.
	sort.Slice(spans, func(i, j int) bool { return spans[i].start > spans[j].start })

	split := strings.Split(string(content), "\n")
	removed := 0
	prev := -1
	for _, sp := range spans {
		if sp.start == prev {
			continue // Duplicate finding on the same line
		}
		prev = sp.start
		lo := sp.start - 1
		hi := sp.end
		if lo < 0 || lo >= len(split) {
			continue
		}
		if hi > len(split) {
			hi = len(split)
		}
		split = append(split[:lo], split[hi:]...)
		removed += hi - lo
	}

	if removed == 0 || f.dryRun {
		return removed, nil
	}

	info, err := os.Stat(absPath)
	mode := os.FileMode(0o644)
	if err == nil {
		mode = info.Mode()
	}
	if err := os.WriteFile(absPath, []byte(strings.Join(split, "\n")), mode); err != nil {
		return 0, err
	}
	return removed, nil
}
