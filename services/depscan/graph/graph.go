// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package graph builds module- and package-level dependency graphs from
// extracted imports and finds strongly connected components in them.
package graph

import (
	"sort"
	"sync"

	"github.com/AleutianAI/depscope/services/depscan/ast"
	"github.com/AleutianAI/depscope/services/depscan/resolve"
)

// EdgeKind distinguishes how a dependency was imported.
type EdgeKind string

const (
	// KindAbsolute is a plain `import a.b` statement.
	KindAbsolute EdgeKind = "absolute"

	// KindFrom is a `from x import y` statement, absolute or relative.
	KindFrom EdgeKind = "from-import"
)

// Edge is one resolved internal dependency from a source module.
type Edge struct {
	From  string   `json:"from"`
	To    string   `json:"to"`
	Kind  EdgeKind `json:"kind"`
	Level int      `json:"level,omitempty"`
	Line  int      `json:"line"`
}

// Stats summarizes a built graph.
type Stats struct {
	Modules      int `json:"modules"`
	ModuleEdges  int `json:"module_edges"`
	Packages     int `json:"packages"`
	PackageEdges int `json:"package_edges"`
}

// DependencyGraph holds internal-module dependency edges keyed by source
// module, plus the derived package-level rollup.
//
// # Description
//
// Edges are stored per source module so that re-adding a module (after a
// file change) replaces that module's contribution atomically without
// disturbing the rest of the graph. The package-level view collapses each
// module to its top-level package and drops self-edges, so intra-package
// imports never appear as package dependencies.
//
// # Thread Safety
//
// All methods are safe for concurrent use.
type DependencyGraph struct {
	mu       sync.RWMutex
	resolver *resolve.Resolver

	// moduleEdges maps source module -> its outgoing internal edges.
	moduleEdges map[string][]Edge

	// modules is the set of known internal modules, including ones that
	// only ever appear as edge targets.
	modules map[string]struct{}
}

// NewDependencyGraph creates an empty graph scoped to the resolver's
// internal-root prefix.
func NewDependencyGraph(resolver *resolve.Resolver) *DependencyGraph {
	return &DependencyGraph{
		resolver:    resolver,
		moduleEdges: make(map[string][]Edge),
		modules:     make(map[string]struct{}),
	}
}

// AddModule registers an internal module with no outgoing edges yet.
// Needed so import-free modules still appear as graph nodes.
func (g *DependencyGraph) AddModule(module string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.modules[module] = struct{}{}
}

// SetEdges replaces the outgoing edges of one source module.
//
// Passing an empty slice clears the module's contribution while keeping it
// as a node. Edge targets are registered as nodes too.
func (g *DependencyGraph) SetEdges(module string, edges []Edge) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.modules[module] = struct{}{}
	if len(edges) == 0 {
		delete(g.moduleEdges, module)
		return
	}

	g.moduleEdges[module] = edges
	for _, e := range edges {
		g.modules[e.To] = struct{}{}
	}
}

// RemoveModule deletes a module and its outgoing edges. Incoming edges from
// other modules are left alone: their source files still import the name.
func (g *DependencyGraph) RemoveModule(module string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.moduleEdges, module)
	delete(g.modules, module)
}

// Modules returns the sorted list of known module names.
func (g *DependencyGraph) Modules() []string {
	g.mu.RLock()
	defer g.mu.RUnlock()

	out := make([]string, 0, len(g.modules))
	for m := range g.modules {
		out = append(out, m)
	}
	sort.Strings(out)
	return out
}

// ModuleAdjacency returns the module-level adjacency list with each target
// slice sorted and deduplicated.
func (g *DependencyGraph) ModuleAdjacency() map[string][]string {
	g.mu.RLock()
	defer g.mu.RUnlock()

	adj := make(map[string][]string, len(g.moduleEdges))
	for from, edges := range g.moduleEdges {
		seen := make(map[string]struct{}, len(edges))
		for _, e := range edges {
			if e.To == from {
				continue
			}
			seen[e.To] = struct{}{}
		}
		targets := make([]string, 0, len(seen))
		for to := range seen {
			targets = append(targets, to)
		}
		sort.Strings(targets)
		adj[from] = targets
	}
	return adj
}

// PackageAdjacency returns the package-level rollup: modules collapsed to
// their top-level package, self-edges dropped, targets sorted.
func (g *DependencyGraph) PackageAdjacency() map[string][]string {
	g.mu.RLock()
	defer g.mu.RUnlock()

	sets := make(map[string]map[string]struct{})
	for m := range g.modules {
		pkg := g.resolver.PackageOf(m)
		if _, ok := sets[pkg]; !ok {
			sets[pkg] = make(map[string]struct{})
		}
	}
	for from, edges := range g.moduleEdges {
		fromPkg := g.resolver.PackageOf(from)
		for _, e := range edges {
			toPkg := g.resolver.PackageOf(e.To)
			if toPkg == fromPkg {
				continue
			}
			sets[fromPkg][toPkg] = struct{}{}
		}
	}

	adj := make(map[string][]string, len(sets))
	for pkg, targets := range sets {
		out := make([]string, 0, len(targets))
		for t := range targets {
			out = append(out, t)
		}
		sort.Strings(out)
		adj[pkg] = out
	}
	return adj
}

// Edges returns all module edges sorted by (from, to, line).
func (g *DependencyGraph) Edges() []Edge {
	g.mu.RLock()
	defer g.mu.RUnlock()

	var out []Edge
	for _, edges := range g.moduleEdges {
		out = append(out, edges...)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].From != out[j].From {
			return out[i].From < out[j].From
		}
		if out[i].To != out[j].To {
			return out[i].To < out[j].To
		}
		return out[i].Line < out[j].Line
	})
	return out
}

// Stats returns counts for the module and package views.
func (g *DependencyGraph) Stats() Stats {
	moduleEdges := 0
	for _, targets := range g.ModuleAdjacency() {
		moduleEdges += len(targets)
	}
	pkgAdj := g.PackageAdjacency()
	pkgEdges := 0
	for _, targets := range pkgAdj {
		pkgEdges += len(targets)
	}

	g.mu.RLock()
	modules := len(g.modules)
	g.mu.RUnlock()

	return Stats{
		Modules:      modules,
		ModuleEdges:  moduleEdges,
		Packages:     len(pkgAdj),
		PackageEdges: pkgEdges,
	}
}

// Builder resolves a file's raw imports into internal graph edges.
//
// External imports (stdlib, third-party) are classified out: the graph
// holds first-party modules only.
type Builder struct {
	graph    *DependencyGraph
	resolver *resolve.Resolver
	isModule func(string) bool
}

// NewBuilder creates a Builder writing into the given graph.
//
// isModule reports whether a dotted name is a scanned source module. It
// gates submodule probing for from-imports; nil disables probing.
func NewBuilder(graph *DependencyGraph, resolver *resolve.Resolver, isModule func(string) bool) *Builder {
	if isModule == nil {
		isModule = func(string) bool { return false }
	}
	return &Builder{graph: graph, resolver: resolver, isModule: isModule}
}

// AddFile resolves the imports of one module and replaces its edges.
//
// # Description
//
// Relative imports are resolved against the importing module's dotted path
// before classification. A from-import name may bind a submodule rather
// than an attribute: `from apps.a import b` targets apps.a.b when that is
// a scanned module, and apps.a otherwise. Only targets under the internal
// root become edges; the graph never holds stdlib or third-party modules.
//
// # Inputs
//
//   - module: Dotted name of the importing module.
//   - imports: Raw import records extracted from the module's source.
func (b *Builder) AddFile(module string, imports []ast.Import) {
	var edges []Edge

	for _, imp := range imports {
		target := imp.Path
		if imp.IsRelative() {
			target = b.resolver.ResolveRelative(module, imp.Path, imp.Level)
		}
		if target == "" || !b.resolver.IsInternal(target) {
			continue
		}

		kind := KindAbsolute
		if imp.IsFrom {
			kind = KindFrom
			// The imported name may itself be a submodule; the deeper edge
			// is the real dependency when it resolves to a scanned module.
			if imp.Name != "" {
				if sub := target + "." + imp.Name; b.isModule(sub) {
					target = sub
				}
			}
		}

		if target == module {
			continue
		}
		edges = append(edges, Edge{
			From:  module,
			To:    target,
			Kind:  kind,
			Level: imp.Level,
			Line:  imp.Location.StartLine,
		})
	}

	b.graph.SetEdges(module, edges)
}
