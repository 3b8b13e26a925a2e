// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package depscan

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/AleutianAI/depscope/services/depscan/analysis"
	"github.com/AleutianAI/depscope/services/depscan/ast"
	"github.com/AleutianAI/depscope/services/depscan/graph"
	"github.com/AleutianAI/depscope/services/depscan/resolve"
	"github.com/AleutianAI/depscope/services/depscan/store"
	"github.com/AleutianAI/depscope/services/depscan/walker"
)

// AnalyzerOption configures an Analyzer.
type AnalyzerOption func(*Analyzer)

// WithLogger sets the structured logger. Defaults to slog.Default.
func WithLogger(log *slog.Logger) AnalyzerOption {
	return func(a *Analyzer) {
		if log != nil {
			a.log = log
		}
	}
}

// WithHashStore injects an already-open hash store, overriding the
// StorePath config. Used by tests with an in-memory store.
func WithHashStore(s *store.HashStore) AnalyzerOption {
	return func(a *Analyzer) {
		a.hashes = s
	}
}

// Analyzer runs the full import-dependency pipeline over a project tree
// and holds the accumulated graph state between runs.
//
// # Description
//
// A full Run walks the tree, extracts imports from every candidate file
// in parallel, and folds the outcomes into the dependency graph through a
// single reduction loop. Per-file findings and the cycle pass are computed
// from the accumulated state by BuildReport. Watch mode feeds individual
// file changes through ApplyChange and rebuilds reports from the retained
// state without rescanning the tree.
//
// # Thread Safety
//
// All exported methods are safe for concurrent use. Graph mutation is
// serialized internally; extraction workers never touch shared state.
type Analyzer struct {
	cfg      Config
	log      *slog.Logger
	resolver *resolve.Resolver
	parser   *ast.PythonParser
	files    *walker.Walker
	detector *graph.CycleDetector
	hashes   *store.HashStore

	mu       sync.Mutex
	sources  map[string]*SourceFile      // abs path -> identity
	results  map[string]*ast.ParseResult // abs path -> extraction
	readErrs map[string]string           // abs path -> read failure
	modules  map[string]struct{}         // known dotted module names
	depGraph *graph.DependencyGraph
	builder  *graph.Builder
}

// NewAnalyzer creates an Analyzer for the config.
//
// # Outputs
//
//   - *Analyzer: Ready to Run. Close releases the hash store, if any.
//   - error: Config validation or store-open failure.
func NewAnalyzer(cfg Config, opts ...AnalyzerOption) (*Analyzer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	var parserOpts []ast.PythonParserOption
	if cfg.MaxFileSize > 0 {
		parserOpts = append(parserOpts, ast.WithMaxFileSize(cfg.MaxFileSize))
	}

	resolver := resolve.NewResolver(cfg.Root, cfg.InternalRoot)
	a := &Analyzer{
		cfg:      cfg,
		log:      slog.Default(),
		resolver: resolver,
		parser:   ast.NewPythonParser(parserOpts...),
		files:    walker.NewWalker(cfg.Root, walker.WithExcludeGlobs(cfg.Excludes)),
		detector: graph.NewCycleDetector(graph.DefaultDetectorConfig()),
		sources:  make(map[string]*SourceFile),
		results:  make(map[string]*ast.ParseResult),
		readErrs: make(map[string]string),
		modules:  make(map[string]struct{}),
	}
	a.depGraph = graph.NewDependencyGraph(resolver)
	a.builder = graph.NewBuilder(a.depGraph, resolver, a.isModule)

	for _, opt := range opts {
		opt(a)
	}

	if a.hashes == nil && cfg.StorePath != "" {
		s, err := store.Open(store.Config{Path: cfg.StorePath, Logger: a.log})
		if err != nil {
			return nil, err
		}
		a.hashes = s
	}

	return a, nil
}

// Walker exposes the file walker, for watch-mode wiring.
func (a *Analyzer) Walker() *walker.Walker {
	return a.files
}

// Close releases the hash store, if one is open.
func (a *Analyzer) Close() error {
	if a.hashes == nil {
		return nil
	}
	return a.hashes.Close()
}

// isModule reports whether a dotted name belongs to a scanned source file.
func (a *Analyzer) isModule(name string) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	_, ok := a.modules[name]
	return ok
}

// fileOutcome carries one worker's extraction result to the reducer.
type fileOutcome struct {
	src     *SourceFile
	result  *ast.ParseResult
	readErr error
}

// Run executes a full scan and returns the resulting report.
//
// # Description
//
// Extraction runs across a bounded worker pool; graph mutation and finding
// accumulation happen in a single reduction loop, so the builder is never
// mutated concurrently. Cancellation between files keeps the outcomes
// already reduced and the report carries an analysis_error sentinel in
// place of cycle results, alongside the context error.
//
// # Outputs
//
//   - *Report: Complete on success; partial (with sentinel) on
//     cancellation. Nil only when the walk itself fails outright.
//   - error: Walk failure or context error. A partial report accompanies
//     context errors.
func (a *Analyzer) Run(ctx context.Context) (*Report, error) {
	start := time.Now()

	paths, err := a.files.Walk(ctx)
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", a.cfg.Root, err)
	}
	if a.cfg.SkipTests {
		kept := paths[:0]
		for _, p := range paths {
			if !walker.IsTestFile(p) {
				kept = append(kept, p)
			}
		}
		paths = kept
	}

	// The module set must be complete before any edges are built, so
	// from-import submodule probing sees every scanned module.
	a.mu.Lock()
	a.modules = make(map[string]struct{}, len(paths))
	for _, p := range paths {
		a.modules[a.resolver.FileToModule(p)] = struct{}{}
	}
	a.sources = make(map[string]*SourceFile, len(paths))
	a.results = make(map[string]*ast.ParseResult, len(paths))
	a.readErrs = make(map[string]string)
	a.depGraph = graph.NewDependencyGraph(a.resolver)
	a.builder = graph.NewBuilder(a.depGraph, a.resolver, a.isModule)
	a.mu.Unlock()

	outcomes := make(chan fileOutcome, a.cfg.Workers)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.cfg.Workers)

	go func() {
		for _, path := range paths {
			path := path
			if gctx.Err() != nil {
				break
			}
			g.Go(func() error {
				outcome := a.scanFile(gctx, path)
				select {
				case outcomes <- outcome:
					return nil
				case <-gctx.Done():
					return gctx.Err()
				}
			})
		}
		// The reduction loop observes the context error itself.
		_ = g.Wait()
		close(outcomes)
	}()

	scanned := 0
	for outcome := range outcomes {
		scanned++
		a.applyOutcome(outcome)
	}

	report := a.BuildReport(ctx)
	report.FilesScanned = scanned
	report.DurationMs = time.Since(start).Milliseconds()

	if err := ctx.Err(); err != nil {
		return report, err
	}

	a.log.Info("analysis run complete",
		slog.String("run_id", report.RunID),
		slog.Int("files_scanned", report.FilesScanned),
		slog.Int("files_failed", report.FilesFailed),
		slog.Int("cycles", report.Summary.CircularImports),
		slog.Int64("duration_ms", report.DurationMs))

	return report, nil
}

// scanFile reads and parses one file. Never touches shared state.
func (a *Analyzer) scanFile(ctx context.Context, absPath string) fileOutcome {
	src := a.identify(absPath)

	content, err := os.ReadFile(absPath)
	if err != nil {
		return fileOutcome{src: src, readErr: err}
	}

	result, err := a.parser.Parse(ctx, content, src.RelPath)
	if err != nil {
		return fileOutcome{src: src, readErr: err}
	}
	src.Hash = result.Hash
	return fileOutcome{src: src, result: result}
}

// identify derives the SourceFile identity for an absolute path.
func (a *Analyzer) identify(absPath string) *SourceFile {
	rel, err := filepath.Rel(a.cfg.Root, absPath)
	if err != nil {
		rel = absPath
	}
	module := a.resolver.FileToModule(absPath)
	return &SourceFile{
		AbsPath: absPath,
		RelPath: filepath.ToSlash(rel),
		Module:  module,
		Package: a.resolver.PackageOf(module),
		IsTest:  walker.IsTestFile(absPath),
	}
}

// applyOutcome folds one extraction outcome into the accumulated state.
// Callers must not invoke it concurrently with itself; Run's reduction
// loop is the only full-scan caller.
func (a *Analyzer) applyOutcome(outcome fileOutcome) {
	src := outcome.src

	a.mu.Lock()
	a.sources[src.AbsPath] = src

	switch {
	case outcome.readErr != nil:
		a.readErrs[src.AbsPath] = outcome.readErr.Error()
		delete(a.results, src.AbsPath)
		a.mu.Unlock()
		a.log.Warn("file excluded from analysis",
			slog.String("file", src.RelPath),
			slog.Any("error", outcome.readErr))
		return

	case outcome.result.Failed:
		a.results[src.AbsPath] = outcome.result
		delete(a.readErrs, src.AbsPath)
		a.mu.Unlock()
		return

	default:
		a.results[src.AbsPath] = outcome.result
		delete(a.readErrs, src.AbsPath)
		a.mu.Unlock()
	}

	// Graph mutation happens outside the map lock; the builder's graph has
	// its own synchronization and isModule re-enters the analyzer lock.
	a.builder.AddFile(src.Module, outcome.result.Imports)

	if a.hashes != nil {
		if err := a.hashes.PutHash(src.RelPath, outcome.result.Hash); err != nil {
			a.log.Warn("hash store write failed",
				slog.String("file", src.RelPath),
				slog.Any("error", err))
		}
	}
}

// BuildReport computes findings from the accumulated state.
//
// # Description
//
// Per-file detectors run over every retained parse result in path order,
// so repeated runs over identical inputs produce identical reports. The
// cycle pass runs once over the complete graph; a detection failure is
// reported through the analysis_error sentinel while the per-file
// sections remain valid.
func (a *Analyzer) BuildReport(ctx context.Context) *Report {
	a.mu.Lock()
	paths := make([]string, 0, len(a.results))
	for p := range a.results {
		paths = append(paths, p)
	}
	errPaths := make([]string, 0, len(a.readErrs))
	for p := range a.readErrs {
		errPaths = append(errPaths, p)
	}
	a.mu.Unlock()
	sort.Strings(paths)
	sort.Strings(errPaths)

	report := &Report{
		RunID:            uuid.New().String(),
		Root:             a.cfg.Root,
		InternalRoot:     a.cfg.InternalRoot,
		GeneratedAtMilli: time.Now().UnixMilli(),
		FilesScanned:     len(paths) + len(errPaths),
	}

	for _, p := range paths {
		a.mu.Lock()
		result := a.results[p]
		src := a.sources[p]
		a.mu.Unlock()

		if result.Failed {
			report.FilesFailed++
			msg := "parse failed"
			if len(result.Errors) > 0 {
				msg = result.Errors[0]
			}
			report.FileErrors = append(report.FileErrors, FileError{File: src.RelPath, Error: msg})
			continue
		}

		report.UnusedImports = append(report.UnusedImports, analysis.DetectUnused(result)...)
		report.StyleInconsistencies = append(report.StyleInconsistencies, analysis.CheckStyle(result, a.resolver.IsInternal)...)
	}

	for _, p := range errPaths {
		a.mu.Lock()
		src := a.sources[p]
		msg := a.readErrs[p]
		a.mu.Unlock()
		report.FilesFailed++
		report.FileErrors = append(report.FileErrors, FileError{File: src.RelPath, Error: msg})
	}

	components, err := a.detector.FindCycles(ctx, a.depGraph.Modules(), a.depGraph.ModuleAdjacency())
	if err != nil {
		a.log.Error("cycle detection failed", slog.Any("error", err))
		report.CircularImports = []analysis.CircularEntry{analysis.ErrorEntry(err)}
	} else {
		report.CircularImports = analysis.CycleEntries(analysis.ClassifyCycles(components))
	}

	report.GraphStats = a.depGraph.Stats()
	report.finalize()
	return report
}

// PackageGraph returns the standalone package-level dependency rollup.
func (a *Analyzer) PackageGraph() map[string][]string {
	return a.depGraph.PackageAdjacency()
}

// ApplyChange folds one filesystem change into the accumulated state.
//
// # Description
//
// A write re-extracts the file and replaces its graph contribution; when
// the stored content hash matches and a prior result is retained, the
// parse is skipped entirely. A remove drops the module and its outgoing
// edges. Callers rebuild reports with BuildReport afterwards.
func (a *Analyzer) ApplyChange(ctx context.Context, change walker.FileChange) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	src := a.identify(change.Path)

	if change.Op == walker.OpRemove {
		a.mu.Lock()
		delete(a.sources, change.Path)
		delete(a.results, change.Path)
		delete(a.readErrs, change.Path)
		delete(a.modules, src.Module)
		a.mu.Unlock()
		a.depGraph.RemoveModule(src.Module)

		if a.hashes != nil {
			if err := a.hashes.DeleteHash(src.RelPath); err != nil && !errors.Is(err, store.ErrClosed) {
				a.log.Warn("hash store delete failed",
					slog.String("file", src.RelPath),
					slog.Any("error", err))
			}
		}
		return nil
	}

	if a.cfg.SkipTests && src.IsTest {
		return nil
	}

	if a.hashes != nil {
		content, err := os.ReadFile(change.Path)
		if err == nil {
			if stored, ok, _ := a.hashes.GetHash(src.RelPath); ok {
				a.mu.Lock()
				_, retained := a.results[change.Path]
				a.mu.Unlock()
				if retained && stored == contentHash(content) {
					return nil
				}
			}
		}
	}

	a.mu.Lock()
	a.modules[src.Module] = struct{}{}
	a.mu.Unlock()

	outcome := a.scanFile(ctx, change.Path)
	a.applyOutcome(outcome)
	return nil
}

// contentHash mirrors the parser's content hashing for skip checks.
func contentHash(content []byte) string {
	sum := sha256.Sum256(content)
	return hex.EncodeToString(sum[:])
}
