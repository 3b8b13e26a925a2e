// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Command depscope analyzes Python import dependencies: circular imports,
// unused imports, and import-style inconsistencies.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/AleutianAI/depscope/pkg/logging"
)

var (
	flagLogLevel string
	flagLogDir   string
	flagLogJSON  bool
	flagQuiet    bool

	logger *logging.Logger
)

var rootCmd = &cobra.Command{
	Use:   "depscope",
	Short: "Python import dependency analyzer",
	Long: `depscope scans a Python project, builds module- and package-level
dependency graphs, and reports circular imports, unused imports, and
files mixing relative and absolute internal imports.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logger = logging.New(logging.Config{
			Level:   flagLogLevel,
			LogDir:  flagLogDir,
			JSON:    flagLogJSON,
			Service: "depscope",
			Quiet:   flagQuiet,
		})
		logger.SetGlobal()
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Close()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "info", "log level: debug, info, warn, error")
	rootCmd.PersistentFlags().StringVar(&flagLogDir, "log-dir", "", "directory for log files (disabled when empty)")
	rootCmd.PersistentFlags().BoolVar(&flagLogJSON, "log-json", false, "emit console logs as JSON")
	rootCmd.PersistentFlags().BoolVar(&flagQuiet, "quiet", false, "suppress console logging")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
