package graph

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/depscope/services/depscan/ast"
	"github.com/AleutianAI/depscope/services/depscan/resolve"
)

func testBuilder(known ...string) (*DependencyGraph, *Builder) {
	resolver := resolve.NewResolver("/proj", "apps")
	g := NewDependencyGraph(resolver)

	knownSet := make(map[string]struct{}, len(known))
	for _, k := range known {
		knownSet[k] = struct{}{}
	}
	b := NewBuilder(g, resolver, func(name string) bool {
		_, ok := knownSet[name]
		return ok
	})
	return g, b
}

func imp(path string, line int) ast.Import {
	return ast.Import{Path: path, Location: ast.Location{StartLine: line}}
}

func fromImp(path, name string, level, line int) ast.Import {
	return ast.Import{Path: path, Name: name, Level: level, IsFrom: true, Location: ast.Location{StartLine: line}}
}

func TestBuilder_AddFile_FiltersExternal(t *testing.T) {
	g, b := testBuilder()

	b.AddFile("apps.users.views", []ast.Import{
		imp("os", 1),
		imp("django.http", 2),
		imp("apps.users.models", 3),
	})

	adj := g.ModuleAdjacency()
	require.Len(t, adj["apps.users.views"], 1)
	assert.Equal(t, []string{"apps.users.models"}, adj["apps.users.views"])
}

func TestBuilder_AddFile_ResolvesRelative(t *testing.T) {
	g, b := testBuilder()

	b.AddFile("apps.users.views", []ast.Import{
		fromImp("models", "User", 1, 1),     // from .models import User
		fromImp("shared", "helpers", 2, 2),  // from ..shared import helpers
	})

	adj := g.ModuleAdjacency()
	assert.ElementsMatch(t, []string{"apps.users.models", "apps.shared"}, adj["apps.users.views"])
}

func TestBuilder_AddFile_SubmoduleProbe(t *testing.T) {
	g, b := testBuilder("apps.users.models")

	// from . import models: the bare name resolves to a scanned module.
	b.AddFile("apps.users.views", []ast.Import{
		fromImp("", "models", 1, 1),
	})

	adj := g.ModuleAdjacency()
	assert.Equal(t, []string{"apps.users.models"}, adj["apps.users.views"])
}

func TestBuilder_AddFile_ReplacesEdges(t *testing.T) {
	g, b := testBuilder()

	b.AddFile("apps.a.x", []ast.Import{imp("apps.b.y", 1)})
	b.AddFile("apps.a.x", []ast.Import{imp("apps.c.z", 1)})

	adj := g.ModuleAdjacency()
	assert.Equal(t, []string{"apps.c.z"}, adj["apps.a.x"], "re-adding a file must replace, not accumulate")
}

func TestDependencyGraph_PackageAdjacency(t *testing.T) {
	g, b := testBuilder()

	b.AddFile("apps.users.views", []ast.Import{
		imp("apps.users.models", 1), // same package, omitted from rollup
		imp("apps.billing.invoices", 2),
	})
	b.AddFile("apps.billing.invoices", []ast.Import{
		imp("apps.shared.utils", 1),
	})

	pkgs := g.PackageAdjacency()
	assert.Equal(t, []string{"billing"}, pkgs["users"])
	assert.Equal(t, []string{"shared"}, pkgs["billing"])
	assert.Empty(t, pkgs["shared"])
}

func TestDependencyGraph_Stats(t *testing.T) {
	g, b := testBuilder()
	b.AddFile("apps.a.x", []ast.Import{imp("apps.b.y", 1)})

	stats := g.Stats()
	assert.Equal(t, 2, stats.Modules)
	assert.Equal(t, 1, stats.ModuleEdges)
	assert.Equal(t, 2, stats.Packages)
	assert.Equal(t, 1, stats.PackageEdges)
}

func TestCycleDetector_FindCycles(t *testing.T) {
	detector := NewCycleDetector(DetectorConfig{})
	ctx := context.Background()

	t.Run("three-node cycle is one high-severity component", func(t *testing.T) {
		nodes := []string{"A", "B", "C"}
		adj := map[string][]string{"A": {"B"}, "B": {"C"}, "C": {"A"}}

		cycles, err := detector.FindCycles(ctx, nodes, adj)
		require.NoError(t, err)
		require.Len(t, cycles, 1)
		assert.Equal(t, []string{"A", "B", "C"}, cycles[0])
	})

	t.Run("two-node cycle", func(t *testing.T) {
		nodes := []string{"A", "B"}
		adj := map[string][]string{"A": {"B"}, "B": {"A"}}

		cycles, err := detector.FindCycles(ctx, nodes, adj)
		require.NoError(t, err)
		require.Len(t, cycles, 1)
		assert.Equal(t, []string{"A", "B"}, cycles[0])
	})

	t.Run("acyclic graph returns nothing", func(t *testing.T) {
		nodes := []string{"A", "B", "C"}
		adj := map[string][]string{"A": {"B"}, "B": {"C"}}

		cycles, err := detector.FindCycles(ctx, nodes, adj)
		require.NoError(t, err)
		assert.Empty(t, cycles)
	})

	t.Run("two independent cycles in deterministic order", func(t *testing.T) {
		nodes := []string{"D", "C", "B", "A"}
		adj := map[string][]string{"A": {"B"}, "B": {"A"}, "C": {"D"}, "D": {"C"}}

		first, err := detector.FindCycles(ctx, nodes, adj)
		require.NoError(t, err)
		second, err := detector.FindCycles(ctx, nodes, adj)
		require.NoError(t, err)
		assert.Equal(t, first, second)
		require.Len(t, first, 2)
		assert.Equal(t, []string{"A", "B"}, first[0])
		assert.Equal(t, []string{"C", "D"}, first[1])
	})
}

func TestCycleDetector_Limits(t *testing.T) {
	t.Run("node cap", func(t *testing.T) {
		detector := NewCycleDetector(DetectorConfig{MaxNodes: 2})
		_, err := detector.FindCycles(context.Background(), []string{"A", "B", "C"}, nil)
		assert.ErrorIs(t, err, ErrGraphTooLarge)
	})

	t.Run("canceled context returns no partial output", func(t *testing.T) {
		detector := NewCycleDetector(DetectorConfig{Timeout: time.Minute})
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		cycles, err := detector.FindCycles(ctx, []string{"A", "B"}, map[string][]string{"A": {"B"}, "B": {"A"}})
		assert.ErrorIs(t, err, ErrDetectionCanceled)
		assert.Nil(t, cycles)
	})
}
