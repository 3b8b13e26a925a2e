// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package analysis

import (
	"fmt"

	"github.com/AleutianAI/depscope/services/depscan/ast"
)

// DetectUnused reports imports whose bound names are never read in the file.
//
// # Description
//
// An import statement binds one or more local names; an import is unused
// when none of its bound names appear in the file's used-identifier set.
// Wildcard imports bind an unknowable set of names and are exempt. Failed
// parses produce no findings.
//
// # Outputs
//
//   - []Finding: One KindUnusedImport finding per unused import record, in
//     source order.
func DetectUnused(result *ast.ParseResult) []Finding {
	if result == nil || result.Failed {
		return nil
	}

	// A statement like "from x import (a, b)" yields one record per name,
	// all sharing a start line. Removing the whole span is only safe when
	// the statement contributes a single record.
	recordsAtLine := make(map[int]int)
	for _, imp := range result.Imports {
		recordsAtLine[imp.Location.StartLine]++
	}

	var findings []Finding
	for _, imp := range result.Imports {
		if imp.IsWildcard {
			continue
		}
		bound := imp.BoundName()
		if bound == "" || result.Uses(bound) {
			continue
		}

		stmt := imp.Statement()
		finding := Finding{
			Kind:         KindUnusedImport,
			File:         result.FilePath,
			Line:         imp.Location.StartLine,
			Statement:    stmt,
			Name:         bound,
			Description:  fmt.Sprintf("imported name %q is never used", bound),
			SuggestedFix: fmt.Sprintf("remove line %d: %s", imp.Location.StartLine, stmt),
		}
		if recordsAtLine[imp.Location.StartLine] == 1 && imp.Location.EndLine > imp.Location.StartLine {
			finding.EndLine = imp.Location.EndLine
			finding.SuggestedFix = fmt.Sprintf("remove lines %d-%d: %s",
				imp.Location.StartLine, imp.Location.EndLine, stmt)
		}
		findings = append(findings, finding)
	}
	return findings
}
