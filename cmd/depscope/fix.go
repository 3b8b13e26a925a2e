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

	"github.com/spf13/cobra"

	"github.com/AleutianAI/depscope/services/depscan"
	"github.com/AleutianAI/depscope/services/depscan/autofix"
)

var flagDryRun bool

var fixCmd = &cobra.Command{
	Use:   "fix",
	Short: "Analyze and delete unused-import lines in place",
	Long: `fix runs the same analysis as analyze and then rewrites each file
with unused imports, deleting the offending lines. Lines are removed in
descending order per file so earlier deletions never shift later ones.`,
	RunE: runFix,
}

func init() {
	addScanFlags(fixCmd)
	fixCmd.Flags().BoolVar(&flagDryRun, "dry-run", false, "report what would change without writing")
	rootCmd.AddCommand(fixCmd)
}

func runFix(cmd *cobra.Command, args []string) error {
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

	fixer := autofix.NewFixer(cfg.Root, flagDryRun, logger.Slog())
	result, err := fixer.Apply(cmd.Context(), report.UnusedImports)
	if err != nil {
		return err
	}

	verb := "removed"
	if flagDryRun {
		verb = "would remove"
	}
	fmt.Printf("%s %d unused-import lines across %d files\n", verb, result.LinesRemoved, result.FilesModified)
	for _, skipped := range result.Skipped {
		fmt.Printf("skipped %s\n", skipped)
	}
	return nil
}
