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

// ClassifyCycles converts raw strongly connected components into severity-
// tagged cycles. Components with more than two members are "high", exactly
// two are "medium". Input order is preserved; the detector already emits a
// deterministic ordering.
func ClassifyCycles(components [][]string) []Cycle {
	cycles := make([]Cycle, 0, len(components))
	for _, members := range components {
		severity := SeverityMedium
		if len(members) > 2 {
			severity = SeverityHigh
		}
		cycles = append(cycles, Cycle{Modules: members, Severity: severity})
	}
	return cycles
}

// CycleEntries wraps classified cycles as report entries.
func CycleEntries(cycles []Cycle) []CircularEntry {
	entries := make([]CircularEntry, 0, len(cycles))
	for _, c := range cycles {
		entries = append(entries, CircularEntry{Modules: c.Modules, Severity: c.Severity})
	}
	return entries
}
