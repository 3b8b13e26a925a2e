// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package logging provides structured logging built on log/slog with
// optional per-service file output alongside the console.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Config controls logger construction.
type Config struct {
	// Level is the minimum level: "debug", "info", "warn", or "error".
	Level string

	// LogDir, when set, adds a rotating-by-day file handler writing
	// <service>-<date>.log under the directory. "~" expands to the home
	// directory.
	LogDir string

	// Service names the emitting service; stamped on every record.
	Service string

	// JSON switches console output from text to JSON.
	JSON bool

	// Quiet suppresses console output entirely (file output remains).
	Quiet bool
}

// Logger wraps slog.Logger with the file handle it may own.
type Logger struct {
	*slog.Logger
	file *os.File
}

// New builds a Logger from the config.
//
// # Description
//
// Console output goes to stderr unless Quiet. When LogDir is set a JSON
// file handler is added and both destinations receive every record. File
// open failures degrade to console-only logging with a warning rather
// than failing construction.
func New(cfg Config) *Logger {
	level := parseLevel(cfg.Level)
	opts := &slog.HandlerOptions{Level: level}

	var handlers []slog.Handler
	if !cfg.Quiet {
		if cfg.JSON {
			handlers = append(handlers, slog.NewJSONHandler(os.Stderr, opts))
		} else {
			handlers = append(handlers, slog.NewTextHandler(os.Stderr, opts))
		}
	}

	var file *os.File
	if cfg.LogDir != "" {
		dir := expandPath(cfg.LogDir)
		if err := os.MkdirAll(dir, 0o755); err == nil {
			name := fmt.Sprintf("%s-%s.log", cfg.Service, time.Now().Format("2006-01-02"))
			f, err := os.OpenFile(filepath.Join(dir, name), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
			if err == nil {
				file = f
				handlers = append(handlers, slog.NewJSONHandler(f, opts))
			} else {
				fmt.Fprintf(os.Stderr, "logging: cannot open log file: %v\n", err)
			}
		} else {
			fmt.Fprintf(os.Stderr, "logging: cannot create log dir: %v\n", err)
		}
	}

	var handler slog.Handler
	switch len(handlers) {
	case 0:
		handler = slog.NewTextHandler(io.Discard, opts)
	case 1:
		handler = handlers[0]
	default:
		handler = &multiHandler{handlers: handlers}
	}

	logger := slog.New(handler)
	if cfg.Service != "" {
		logger = logger.With(slog.String("service", cfg.Service))
	}
	return &Logger{Logger: logger, file: file}
}

// Default builds a plain info-level console logger for the service.
func Default(service string) *Logger {
	return New(Config{Level: "info", Service: service})
}

// Slog returns the underlying slog.Logger for APIs that take one.
func (l *Logger) Slog() *slog.Logger {
	return l.Logger
}

// SetGlobal installs the logger as the process-wide slog default.
func (l *Logger) SetGlobal() {
	slog.SetDefault(l.Logger)
}

// Close releases the log file, if any.
func (l *Logger) Close() error {
	if l.file == nil {
		return nil
	}
	return l.file.Close()
}

// parseLevel maps a config string to a slog level, defaulting to info.
func parseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// expandPath resolves a leading "~" to the user's home directory.
func expandPath(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, strings.TrimPrefix(path, "~"))
		}
	}
	return path
}
