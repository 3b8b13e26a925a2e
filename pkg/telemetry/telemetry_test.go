package telemetry

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
)

func TestInit_NilContext(t *testing.T) {
	var nilCtx context.Context
	_, err := Init(nilCtx, DefaultConfig("depscope-test", "0.0.0"))
	if err != ErrNilContext {
		t.Fatalf("got %v, want ErrNilContext", err)
	}
}

func TestInit_MetricsReachPrometheusRegistry(t *testing.T) {
	registry := prometheus.NewRegistry()

	cfg := DefaultConfig("depscope-test", "0.0.0")
	cfg.Registerer = registry

	shutdown, err := Init(context.Background(), cfg)
	if err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	defer func() {
		if err := shutdown(context.Background()); err != nil {
			t.Errorf("shutdown failed: %v", err)
		}
	}()

	meter := otel.Meter("depscope.telemetry.test")
	counter, err := meter.Int64Counter("depscope_test_ops")
	if err != nil {
		t.Fatalf("create counter: %v", err)
	}
	counter.Add(context.Background(), 3)

	families, err := registry.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}

	found := false
	for _, family := range families {
		if family.GetName() == "depscope_test_ops_total" {
			found = true
		}
	}
	if !found {
		names := make([]string, 0, len(families))
		for _, family := range families {
			names = append(names, family.GetName())
		}
		t.Errorf("counter not exported to the registry, families: %v", names)
	}
}
