// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package depscan orchestrates the Python import-dependency analysis
// pipeline: walk, extract, resolve, graph, detect.
package depscan

import (
	"github.com/AleutianAI/depscope/services/depscan/analysis"
	"github.com/AleutianAI/depscope/services/depscan/graph"
)

// SourceFile identifies one scanned Python file.
type SourceFile struct {
	// AbsPath is the absolute filesystem path.
	AbsPath string `json:"abs_path"`

	// RelPath is the path relative to the project root, forward slashes.
	RelPath string `json:"rel_path"`

	// Module is the canonical dotted module name.
	Module string `json:"module"`

	// Package is the top-level internal package the module belongs to.
	Package string `json:"package"`

	// Hash is the SHA-256 of the content at scan time.
	Hash string `json:"hash"`

	// IsTest marks test modules (test_*.py, *_test.py, tests/ dirs).
	IsTest bool `json:"is_test,omitempty"`
}

// FileError records a file that could not be analyzed.
type FileError struct {
	// File is the root-relative path.
	File string `json:"file"`

	// Error describes the read or parse failure.
	Error string `json:"error"`
}

// Summary gives the per-category finding counts. Zero counts are emitted
// explicitly so "nothing found" is distinguishable from "check skipped".
type Summary struct {
	UnusedImports        int `json:"unused_imports"`
	CircularImports      int `json:"circular_imports"`
	StyleInconsistencies int `json:"style_inconsistencies"`
	PotentialIssues      int `json:"potential_issues"`
}

// Report is the structured result of one analysis run.
type Report struct {
	// RunID uniquely identifies this run.
	RunID string `json:"run_id"`

	// Root is the scanned project root.
	Root string `json:"root"`

	// InternalRoot is the internal-module prefix used for classification.
	InternalRoot string `json:"internal_root"`

	// GeneratedAtMilli is the Unix timestamp in milliseconds when the
	// report was assembled.
	GeneratedAtMilli int64 `json:"generated_at_milli"`

	// DurationMs is the wall-clock duration of the run.
	DurationMs int64 `json:"duration_ms"`

	// FilesScanned counts every candidate file, including failed ones.
	FilesScanned int `json:"files_scanned"`

	// FilesFailed counts files excluded for read or parse errors.
	FilesFailed int `json:"files_failed"`

	// FileErrors details each excluded file.
	FileErrors []FileError `json:"file_errors,omitempty"`

	// UnusedImports lists imports whose bound name is never read.
	UnusedImports []analysis.Finding `json:"unused_imports"`

	// CircularImports lists detected cycles, or a single analysis_error
	// sentinel when cycle detection could not complete.
	CircularImports []analysis.CircularEntry `json:"circular_imports"`

	// StyleInconsistencies lists files mixing relative and absolute
	// internal imports.
	StyleInconsistencies []analysis.Finding `json:"style_inconsistencies"`

	// PotentialIssues is reserved and always empty today.
	PotentialIssues []analysis.Finding `json:"potential_issues"`

	// Summary carries explicit per-category counts.
	Summary Summary `json:"summary"`

	// GraphStats summarizes the dependency graph the run produced.
	GraphStats graph.Stats `json:"graph_stats"`
}

// finalize fills the summary from the finding lists and normalizes nil
// slices so every category marshals as an array.
func (r *Report) finalize() {
	if r.UnusedImports == nil {
		r.UnusedImports = []analysis.Finding{}
	}
	if r.CircularImports == nil {
		r.CircularImports = []analysis.CircularEntry{}
	}
	if r.StyleInconsistencies == nil {
		r.StyleInconsistencies = []analysis.Finding{}
	}
	if r.PotentialIssues == nil {
		r.PotentialIssues = []analysis.Finding{}
	}
	r.Summary = Summary{
		UnusedImports:        len(r.UnusedImports),
		CircularImports:      len(r.CircularImports),
		StyleInconsistencies: len(r.StyleInconsistencies),
		PotentialIssues:      len(r.PotentialIssues),
	}
}
