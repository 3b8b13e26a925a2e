// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/AleutianAI/depscope/services/depscan"
	"github.com/AleutianAI/depscope/services/depscan/format"
)

var (
	flagRoot         string
	flagInternalRoot string
	flagExcludes     []string
	flagWorkers      int
	flagStorePath    string
	flagSkipTests    bool
	flagConfigFile   string
	flagFormat       string
	flagOutput       string
	flagPackagesOnly bool
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Run a full dependency analysis over a project tree",
	RunE:  runAnalyze,
}

func init() {
	addScanFlags(analyzeCmd)
	analyzeCmd.Flags().StringVar(&flagFormat, "format", "text", "output format: text, json, markdown")
	analyzeCmd.Flags().StringVarP(&flagOutput, "output", "o", "", "write the report to a file instead of stdout")
	analyzeCmd.Flags().BoolVar(&flagPackagesOnly, "packages", false, "print only the package-level dependency rollup")
	rootCmd.AddCommand(analyzeCmd)
}

// addScanFlags registers the flags shared by every scanning command.
func addScanFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&flagRoot, "root", ".", "project root directory to scan")
	cmd.Flags().StringVar(&flagInternalRoot, "internal-root", "apps", "package prefix marking internal modules")
	cmd.Flags().StringSliceVar(&flagExcludes, "exclude", nil, "extra exclusion globs (repeatable)")
	cmd.Flags().IntVar(&flagWorkers, "workers", 0, "parallel extraction workers (0 = GOMAXPROCS)")
	cmd.Flags().StringVar(&flagStorePath, "store", "", "content-hash store directory for incremental runs")
	cmd.Flags().BoolVar(&flagSkipTests, "skip-tests", false, "exclude test modules from the scan")
	cmd.Flags().StringVarP(&flagConfigFile, "config", "c", "", "YAML config file (flags override)")
}

// buildConfig assembles the run config from file and flags.
func buildConfig() (depscan.Config, error) {
	cfg := depscan.DefaultConfig(flagRoot, flagInternalRoot)
	if flagConfigFile != "" {
		loaded, err := depscan.LoadConfig(flagConfigFile)
		if err != nil {
			return depscan.Config{}, err
		}
		cfg = loaded
		if flagRoot != "." {
			cfg.Root = flagRoot
		}
		if flagInternalRoot != "apps" {
			cfg.InternalRoot = flagInternalRoot
		}
	}
	if len(flagExcludes) > 0 {
		cfg.Excludes = append(cfg.Excludes, flagExcludes...)
	}
	if flagWorkers > 0 {
		cfg.Workers = flagWorkers
	}
	if flagStorePath != "" {
		cfg.StorePath = flagStorePath
	}
	if flagSkipTests {
		cfg.SkipTests = true
	}
	return cfg, nil
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig()
	if err != nil {
		return err
	}

	analyzer, err := depscan.NewAnalyzer(cfg, depscan.WithLogger(logger.Slog()))
	if err != nil {
		return err
	}
	defer analyzer.Close()

	report, err := analyzer.Run(cmd.Context())
	if err != nil {
		return err
	}

	out := os.Stdout
	if flagOutput != "" {
		f, err := os.Create(flagOutput)
		if err != nil {
			return fmt.Errorf("create output file: %w", err)
		}
		defer f.Close()
		out = f
	}

	if flagPackagesOnly {
		return format.WritePackageGraph(out, analyzer.PackageGraph())
	}
	return format.Write(out, report, format.Format(flagFormat))
}
