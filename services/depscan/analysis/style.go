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

import "github.com/AleutianAI/depscope/services/depscan/ast"

// CheckStyle flags a file that mixes relative and absolute imports of
// internal modules.
//
// # Description
//
// A file is inconsistent when it contains at least one relative from-import
// and at least one absolute from-import whose target is internal. At most
// one finding is emitted per file regardless of how many such pairs exist.
// The recommended policy is absolute imports across packages and relative
// imports within one.
//
// # Inputs
//
//   - result: A successful parse. Failed parses yield no finding.
//   - isInternal: Classifier for dotted module names, usually
//     resolve.Resolver.IsInternal.
func CheckStyle(result *ast.ParseResult, isInternal func(string) bool) []Finding {
	if result == nil || result.Failed {
		return nil
	}

	var hasRelative, hasAbsoluteInternal bool
	for _, imp := range result.Imports {
		if !imp.IsFrom {
			continue
		}
		if imp.IsRelative() {
			hasRelative = true
		} else if isInternal(imp.Path) {
			hasAbsoluteInternal = true
		}
		if hasRelative && hasAbsoluteInternal {
			break
		}
	}

	if !hasRelative || !hasAbsoluteInternal {
		return nil
	}

	return []Finding{{
		Kind:         KindMixedImportStyles,
		File:         result.FilePath,
		Description:  "file mixes relative and absolute imports of internal modules",
		SuggestedFix: "use absolute imports across packages and relative imports within a package",
	}}
}
