// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package telemetry wires the OpenTelemetry metrics pipeline into the
// process-wide Prometheus registry.
package telemetry

import (
	"context"
	"errors"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	promexporter "go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
)

// ErrNilContext indicates Init was called without a context.
var ErrNilContext = errors.New("context must not be nil")

// Config controls telemetry behavior.
type Config struct {
	// ServiceName identifies this service in metric resource attributes.
	ServiceName string

	// ServiceVersion is the version string for this service.
	ServiceVersion string

	// Registerer receives the exported collectors. Nil uses the default
	// Prometheus registerer, which is what promhttp.Handler serves.
	Registerer prometheus.Registerer
}

// DefaultConfig returns defaults for the given service identity.
func DefaultConfig(service, version string) Config {
	return Config{ServiceName: service, ServiceVersion: version}
}

// Init initializes the metrics pipeline.
//
// Description:
//
//	Creates a Prometheus exporter, builds a MeterProvider reading through
//	it, and installs the provider globally. After Init returns, every
//	otel.Meter() instrument in the process records into the Prometheus
//	registry, so a promhttp handler exposes them.
//
// Inputs:
//
//	ctx - Context for initialization. Must not be nil.
//	cfg - Telemetry configuration. Use DefaultConfig() for defaults.
//
// Outputs:
//
//	shutdown - Cleanup function to call on exit. Must be called.
//	error - Non-nil if exporter or provider construction fails.
//
// Thread Safety: Call once at application startup.
func Init(ctx context.Context, cfg Config) (shutdown func(context.Context) error, err error) {
	if ctx == nil {
		return nil, ErrNilContext
	}

	var opts []promexporter.Option
	if cfg.Registerer != nil {
		opts = append(opts, promexporter.WithRegisterer(cfg.Registerer))
	}
	exporter, err := promexporter.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("create prometheus exporter: %w", err)
	}

	res := resource.NewWithAttributes(
		"",
		attribute.String("service.name", cfg.ServiceName),
		attribute.String("service.version", cfg.ServiceVersion),
	)

	provider := metric.NewMeterProvider(
		metric.WithResource(res),
		metric.WithReader(exporter),
	)
	otel.SetMeterProvider(provider)

	return provider.Shutdown, nil
}
