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
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/AleutianAI/depscope/pkg/telemetry"
	"github.com/AleutianAI/depscope/services/depscan"
	"github.com/AleutianAI/depscope/services/depscan/walker"
)

var (
	flagAddr     string
	flagWatch    bool
	flagDebounce time.Duration
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve analysis over HTTP, optionally rescanning on file changes",
	RunE:  runServe,
}

func init() {
	addScanFlags(serveCmd)
	serveCmd.Flags().StringVar(&flagAddr, "addr", ":8089", "listen address")
	serveCmd.Flags().BoolVar(&flagWatch, "watch", false, "watch the tree and keep the report current")
	serveCmd.Flags().DurationVar(&flagDebounce, "debounce", 500*time.Millisecond, "file-change debounce window")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Route otel instruments into the Prometheus registry that /metrics
	// serves; without this the parse metrics land in the no-op provider.
	telemetryShutdown, err := telemetry.Init(ctx, telemetry.DefaultConfig("depscope", buildVersion))
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := telemetryShutdown(shutdownCtx); err != nil {
			logger.Warn("telemetry shutdown failed", slog.Any("error", err))
		}
	}()

	analyzer, err := depscan.NewAnalyzer(cfg, depscan.WithLogger(logger.Slog()))
	if err != nil {
		return err
	}
	defer analyzer.Close()

	handlers := depscan.NewHandlers(analyzer, logger.Slog())

	// Initial scan so /report answers before the first explicit /analyze.
	report, err := analyzer.Run(ctx)
	if err != nil {
		return err
	}
	handlers.SetReport(report)

	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())
	depscan.RegisterRoutes(engine, handlers)
	engine.GET("/metrics", gin.WrapH(promhttp.Handler()))

	srv := &http.Server{
		Addr:              flagAddr,
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http server listening", slog.String("addr", flagAddr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	if flagWatch {
		go watchLoop(ctx, analyzer, handlers)
	}

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// watchLoop applies debounced file changes and republishes the report.
func watchLoop(ctx context.Context, analyzer *depscan.Analyzer, handlers *depscan.Handlers) {
	watcher := walker.NewWatcher(analyzer.Walker(), flagDebounce, logger.Slog())
	changes := make(chan walker.FileChange, 64)

	go func() {
		if err := watcher.Run(ctx, changes); err != nil {
			logger.Error("file watcher stopped", slog.Any("error", err))
		}
	}()

	for change := range changes {
		if err := analyzer.ApplyChange(ctx, change); err != nil {
			logger.Warn("failed to apply file change",
				slog.String("path", change.Path),
				slog.Any("error", err))
			continue
		}
		handlers.SetReport(analyzer.BuildReport(ctx))
		logger.Info("report refreshed",
			slog.String("path", change.Path),
			slog.String("op", string(change.Op)))
	}
}
