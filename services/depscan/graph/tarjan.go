// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package graph

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"
)

// Cycle detection limits.
var (
	// ErrGraphTooLarge indicates the node count exceeds the configured cap.
	ErrGraphTooLarge = errors.New("graph exceeds maximum node count")

	// ErrDetectionCanceled indicates the pass was interrupted. No partial
	// cycle list is ever returned alongside it.
	ErrDetectionCanceled = errors.New("cycle detection canceled")
)

// DetectorConfig bounds a cycle-detection pass.
type DetectorConfig struct {
	// MaxNodes caps the graph size. Zero uses DefaultDetectorConfig's cap.
	MaxNodes int

	// Timeout bounds the whole pass. Zero uses the default.
	Timeout time.Duration
}

// DefaultDetectorConfig returns limits suitable for large monorepos.
func DefaultDetectorConfig() DetectorConfig {
	return DetectorConfig{
		MaxNodes: 50000,
		Timeout:  10 * time.Second,
	}
}

// CycleDetector finds strongly connected components of size >= 2 using
// Tarjan's algorithm.
//
// # Thread Safety
//
// CycleDetector is stateless between calls and safe for concurrent use.
type CycleDetector struct {
	config DetectorConfig
}

// NewCycleDetector creates a detector with the given limits. Zero-valued
// fields fall back to DefaultDetectorConfig.
func NewCycleDetector(config DetectorConfig) *CycleDetector {
	def := DefaultDetectorConfig()
	if config.MaxNodes <= 0 {
		config.MaxNodes = def.MaxNodes
	}
	if config.Timeout <= 0 {
		config.Timeout = def.Timeout
	}
	return &CycleDetector{config: config}
}

// tarjanState carries the bookkeeping for one detection pass.
type tarjanState struct {
	index    int
	indices  map[string]int
	lowlinks map[string]int
	onStack  map[string]bool
	stack    []string
	cycles   [][]string
	adj      map[string][]string
	ctx      context.Context
	err      error
}

// FindCycles returns every strongly connected component with two or more
// members, as sorted member lists in deterministic order.
//
// # Description
//
// Runs Tarjan's algorithm over the adjacency list. Cancellation or timeout
// aborts the whole pass with ErrDetectionCanceled: a truncated cycle list
// would silently hide real cycles, so no partial output is ever returned.
//
// # Inputs
//
//   - ctx: Context for cancellation. Combined with the configured timeout.
//   - nodes: All graph nodes, including ones absent from adj.
//   - adj: Outgoing adjacency per node.
//
// # Outputs
//
//   - [][]string: Cycles, each sorted lexically, the list ordered by its
//     first member. Nil when the graph is acyclic.
//   - error: ErrGraphTooLarge, ErrDetectionCanceled, or nil.
func (d *CycleDetector) FindCycles(ctx context.Context, nodes []string, adj map[string][]string) ([][]string, error) {
	if len(nodes) > d.config.MaxNodes {
		return nil, fmt.Errorf("%w: %d nodes, limit %d", ErrGraphTooLarge, len(nodes), d.config.MaxNodes)
	}

	ctx, cancel := context.WithTimeout(ctx, d.config.Timeout)
	defer cancel()

	state := &tarjanState{
		indices:  make(map[string]int, len(nodes)),
		lowlinks: make(map[string]int, len(nodes)),
		onStack:  make(map[string]bool, len(nodes)),
		adj:      adj,
		ctx:      ctx,
	}

	// Deterministic visit order gives deterministic cycle output.
	sorted := make([]string, len(nodes))
	copy(sorted, nodes)
	sort.Strings(sorted)

	for _, node := range sorted {
		if _, visited := state.indices[node]; !visited {
			state.strongConnect(node)
			if state.err != nil {
				return nil, fmt.Errorf("%w: %v", ErrDetectionCanceled, state.err)
			}
		}
	}

	for _, cycle := range state.cycles {
		sort.Strings(cycle)
	}
	sort.Slice(state.cycles, func(i, j int) bool {
		return state.cycles[i][0] < state.cycles[j][0]
	})

	return state.cycles, nil
}

// strongConnect is the recursive core of Tarjan's algorithm.
func (s *tarjanState) strongConnect(v string) {
	if s.err != nil {
		return
	}
	if err := s.ctx.Err(); err != nil {
		s.err = err
		return
	}

	s.indices[v] = s.index
	s.lowlinks[v] = s.index
	s.index++
	s.stack = append(s.stack, v)
	s.onStack[v] = true

	for _, w := range s.adj[v] {
		if _, visited := s.indices[w]; !visited {
			s.strongConnect(w)
			if s.err != nil {
				return
			}
			if s.lowlinks[w] < s.lowlinks[v] {
				s.lowlinks[v] = s.lowlinks[w]
			}
		} else if s.onStack[w] {
			if s.indices[w] < s.lowlinks[v] {
				s.lowlinks[v] = s.indices[w]
			}
		}
	}

	if s.lowlinks[v] == s.indices[v] {
		var component []string
		for {
			w := s.stack[len(s.stack)-1]
			s.stack = s.stack[:len(s.stack)-1]
			s.onStack[w] = false
			component = append(component, w)
			if w == v {
				break
			}
		}
		if len(component) >= 2 {
			s.cycles = append(s.cycles, component)
		}
	}
}
