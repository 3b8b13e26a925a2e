// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package analysis derives findings from parse results and the dependency
// graph: unused imports, import-style inconsistencies, and classified
// circular-import chains.
package analysis

// Severity classifies how disruptive a finding is to untangle.
type Severity string

const (
	// SeverityHigh marks cycles with more than two members.
	SeverityHigh Severity = "high"

	// SeverityMedium marks two-member cycles.
	SeverityMedium Severity = "medium"
)

// Finding kinds.
const (
	KindUnusedImport      = "unused_import"
	KindMixedImportStyles = "mixed_import_styles"
)

// Finding is one per-file diagnostic.
type Finding struct {
	Kind string `json:"type"`
	File string `json:"file"`
	Line int    `json:"line,omitempty"`

	// EndLine is set when the whole statement spans multiple lines and is
	// safe to remove as a unit. Zero means the finding covers Line only.
	EndLine int `json:"end_line,omitempty"`

	Statement    string `json:"statement,omitempty"`
	Name         string `json:"name,omitempty"`
	Description  string `json:"description"`
	SuggestedFix string `json:"suggested_fix,omitempty"`
}

// Cycle is one strongly connected component of internal modules.
type Cycle struct {
	Modules  []string `json:"modules"`
	Severity Severity `json:"severity"`
}

// CircularEntry is one element of a report's circular-imports list: either
// a detected cycle or the analysis-error sentinel emitted when detection
// could not complete.
type CircularEntry struct {
	Modules  []string `json:"modules,omitempty"`
	Severity Severity `json:"severity,omitempty"`

	// Type and Error form the sentinel entry. Type is "analysis_error"
	// when set; cycle fields are empty then.
	Type  string `json:"type,omitempty"`
	Error string `json:"error,omitempty"`
}

// ErrorEntry marks a cycle-detection failure. Callers append it as the
// sole circular entry so consumers can distinguish "no cycles" from
// "detection failed".
func ErrorEntry(err error) CircularEntry {
	return CircularEntry{Type: "analysis_error", Error: err.Error()}
}
