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
	"errors"
	"fmt"
	"os"
	"runtime"

	"gopkg.in/yaml.v3"
)

// Config holds the inputs for an analysis run.
type Config struct {
	// Root is the project directory to scan.
	Root string `yaml:"root"`

	// InternalRoot is the package prefix marking first-party modules,
	// e.g. "apps".
	InternalRoot string `yaml:"internal_root"`

	// Excludes are extra glob patterns matched against file names and
	// root-relative paths.
	Excludes []string `yaml:"excludes"`

	// Workers bounds parallel file extraction. Zero means GOMAXPROCS.
	Workers int `yaml:"workers"`

	// StorePath, when set, enables the persistent content-hash store used
	// by watch mode to skip unchanged files.
	StorePath string `yaml:"store_path"`

	// MaxFileSize overrides the parser's file-size limit in bytes.
	MaxFileSize int64 `yaml:"max_file_size"`

	// SkipTests drops test modules from the scan.
	SkipTests bool `yaml:"skip_tests"`
}

// DefaultConfig returns a Config with sensible defaults for the root.
func DefaultConfig(root, internalRoot string) Config {
	return Config{
		Root:         root,
		InternalRoot: internalRoot,
		Workers:      runtime.GOMAXPROCS(0),
	}
}

// LoadConfig reads a YAML config file.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config %s: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks required fields and normalizes defaults.
func (c *Config) Validate() error {
	if c.Root == "" {
		return errors.New("config: root must not be empty")
	}
	if c.InternalRoot == "" {
		return errors.New("config: internal_root must not be empty")
	}
	if c.Workers <= 0 {
		c.Workers = runtime.GOMAXPROCS(0)
	}
	return nil
}
