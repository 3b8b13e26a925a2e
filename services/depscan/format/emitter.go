// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package format renders analysis reports as JSON, plain text, or
// Markdown.
package format

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/AleutianAI/depscope/services/depscan"
)

// Format names an output rendering.
type Format string

const (
	FormatJSON     Format = "json"
	FormatText     Format = "text"
	FormatMarkdown Format = "markdown"
)

// Write renders the report in the requested format.
func Write(w io.Writer, report *depscan.Report, format Format) error {
	switch format {
	case FormatJSON:
		return WriteJSON(w, report)
	case FormatText, "":
		return WriteText(w, report)
	case FormatMarkdown:
		return WriteMarkdown(w, report)
	default:
		return fmt.Errorf("unknown format %q", format)
	}
}

// WriteJSON emits the report as indented JSON.
func WriteJSON(w io.Writer, report *depscan.Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}

// WriteText emits a terminal-friendly summary.
func WriteText(w io.Writer, report *depscan.Report) error {
	var b strings.Builder

	fmt.Fprintf(&b, "Dependency analysis of %s (internal root %q)\n", report.Root, report.InternalRoot)
	fmt.Fprintf(&b, "Files scanned: %d (%d failed)\n", report.FilesScanned, report.FilesFailed)
	fmt.Fprintf(&b, "Graph: %d modules, %d edges; %d packages, %d edges\n\n",
		report.GraphStats.Modules, report.GraphStats.ModuleEdges,
		report.GraphStats.Packages, report.GraphStats.PackageEdges)

	fmt.Fprintf(&b, "Circular imports: %d\n", report.Summary.CircularImports)
	for _, entry := range report.CircularImports {
		if entry.Type != "" {
			fmt.Fprintf(&b, "  ! %s: %s\n", entry.Type, entry.Error)
			continue
		}
		fmt.Fprintf(&b, "  [%s] %s\n", entry.Severity, strings.Join(entry.Modules, " <-> "))
	}

	fmt.Fprintf(&b, "\nUnused imports: %d\n", report.Summary.UnusedImports)
	for _, f := range report.UnusedImports {
		fmt.Fprintf(&b, "  %s:%d  %s\n", f.File, f.Line, f.Statement)
	}

	fmt.Fprintf(&b, "\nStyle inconsistencies: %d\n", report.Summary.StyleInconsistencies)
	for _, f := range report.StyleInconsistencies {
		fmt.Fprintf(&b, "  %s  %s\n", f.File, f.Description)
	}

	fmt.Fprintf(&b, "\nPotential issues: %d\n", report.Summary.PotentialIssues)

	if len(report.FileErrors) > 0 {
		fmt.Fprintf(&b, "\nExcluded files:\n")
		for _, fe := range report.FileErrors {
			fmt.Fprintf(&b, "  %s: %s\n", fe.File, fe.Error)
		}
	}

	_, err := io.WriteString(w, b.String())
	return err
}

// WriteMarkdown emits the report as Markdown tables.
func WriteMarkdown(w io.Writer, report *depscan.Report) error {
	var b strings.Builder

	fmt.Fprintf(&b, "# Dependency Analysis\n\n")
	fmt.Fprintf(&b, "- Root: `%s`\n- Internal root: `%s`\n- Files scanned: %d (%d failed)\n\n",
		report.Root, report.InternalRoot, report.FilesScanned, report.FilesFailed)

	fmt.Fprintf(&b, "## Circular Imports (%d)\n\n", report.Summary.CircularImports)
	if len(report.CircularImports) > 0 {
		fmt.Fprintf(&b, "| Severity | Modules |\n|---|---|\n")
		for _, entry := range report.CircularImports {
			if entry.Type != "" {
				fmt.Fprintf(&b, "| error | %s |\n", entry.Error)
				continue
			}
			fmt.Fprintf(&b, "| %s | %s |\n", entry.Severity, strings.Join(entry.Modules, ", "))
		}
		fmt.Fprintf(&b, "\n")
	}

	fmt.Fprintf(&b, "## Unused Imports (%d)\n\n", report.Summary.UnusedImports)
	if len(report.UnusedImports) > 0 {
		fmt.Fprintf(&b, "| File | Line | Statement |\n|---|---|---|\n")
		for _, f := range report.UnusedImports {
			fmt.Fprintf(&b, "| %s | %d | `%s` |\n", f.File, f.Line, f.Statement)
		}
		fmt.Fprintf(&b, "\n")
	}

	fmt.Fprintf(&b, "## Style Inconsistencies (%d)\n\n", report.Summary.StyleInconsistencies)
	if len(report.StyleInconsistencies) > 0 {
		fmt.Fprintf(&b, "| File | Description |\n|---|---|\n")
		for _, f := range report.StyleInconsistencies {
			fmt.Fprintf(&b, "| %s | %s |\n", f.File, f.Description)
		}
		fmt.Fprintf(&b, "\n")
	}

	if len(report.FileErrors) > 0 {
		fmt.Fprintf(&b, "## Excluded Files (%d)\n\n", len(report.FileErrors))
		for _, fe := range report.FileErrors {
			fmt.Fprintf(&b, "- `%s`: %s\n", fe.File, fe.Error)
		}
	}

	_, err := io.WriteString(w, b.String())
	return err
}

// WritePackageGraph renders the package rollup as text.
func WritePackageGraph(w io.Writer, adj map[string][]string) error {
	pkgs := make([]string, 0, len(adj))
	for pkg := range adj {
		pkgs = append(pkgs, pkg)
	}
	sort.Strings(pkgs)

	var b strings.Builder
	for _, pkg := range pkgs {
		targets := adj[pkg]
		if len(targets) == 0 {
			fmt.Fprintf(&b, "%s -> (none)\n", pkg)
			continue
		}
		fmt.Fprintf(&b, "%s -> %s\n", pkg, strings.Join(targets, ", "))
	}
	_, err := io.WriteString(w, b.String())
	return err
}
