// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package ast

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Package-level meter for import extraction.
var meter = otel.Meter("depscope.ast")

// Metrics for parse operations.
var (
	parseLatency     metric.Float64Histogram
	parseTotal       metric.Int64Counter
	importsExtracted metric.Int64Histogram

	metricsOnce sync.Once
	metricsErr  error
)

// initMetrics initializes the metrics. Safe to call multiple times.
func initMetrics() error {
	metricsOnce.Do(func() {
		var err error

		parseLatency, err = meter.Float64Histogram(
			"depscan_parse_duration_seconds",
			metric.WithDescription("Duration of import extraction operations"),
			metric.WithUnit("s"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		parseTotal, err = meter.Int64Counter(
			"depscan_parse_total",
			metric.WithDescription("Total number of parse operations"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		importsExtracted, err = meter.Int64Histogram(
			"depscan_imports_extracted",
			metric.WithDescription("Number of imports extracted per parse"),
		)
		if err != nil {
			metricsErr = err
			return
		}
	})

	return metricsErr
}

// recordParse records metrics for a completed parse operation.
//
// Metric registration failures are swallowed: observability must never
// break extraction.
func recordParse(ctx context.Context, duration time.Duration, importCount int, failed bool) {
	if err := initMetrics(); err != nil {
		return
	}

	status := attribute.String("status", "ok")
	if failed {
		status = attribute.String("status", "parse_error")
	}
	opts := metric.WithAttributes(status)

	parseLatency.Record(ctx, duration.Seconds(), opts)
	parseTotal.Add(ctx, 1, opts)
	if !failed {
		importsExtracted.Record(ctx, int64(importCount))
	}
}
