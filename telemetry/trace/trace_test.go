//
// Tencent is pleased to support the open source community by making trip-agent-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trip-agent-go is licensed under the Apache License Version 2.0.
//
//

package trace

import (
	"context"
	"os"
	"testing"

	itelemetry "trpc.group/trpc-go/trip-agent-go/internal/telemetry"
)

func TestTracesEndpoint(t *testing.T) {
	const (
		customEndpoint  = "custom-trace:4317"
		genericEndpoint = "generic-endpoint:4317"
	)

	// Backup originals.
	origTrace := os.Getenv("OTEL_EXPORTER_OTLP_TRACES_ENDPOINT")
	origGeneric := os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT")

	// Restore at the end.
	defer func() {
		_ = os.Setenv("OTEL_EXPORTER_OTLP_TRACES_ENDPOINT", origTrace)
		_ = os.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", origGeneric)
	}()

	// Case 1: specific variable has precedence over generic.
	_ = os.Setenv("OTEL_EXPORTER_OTLP_TRACES_ENDPOINT", customEndpoint)
	_ = os.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", genericEndpoint)
	if ep := tracesEndpoint(itelemetry.ProtocolGRPC); ep != customEndpoint {
		t.Fatalf("expected %s, got %s", customEndpoint, ep)
	}

	// Case 2: fallback to generic when specific is empty.
	_ = os.Setenv("OTEL_EXPORTER_OTLP_TRACES_ENDPOINT", "")
	_ = os.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", genericEndpoint)
	if ep := tracesEndpoint(itelemetry.ProtocolGRPC); ep != genericEndpoint {
		t.Fatalf("expected %s, got %s", genericEndpoint, ep)
	}

	// Case 3: protocol-specific default when none set.
	_ = os.Setenv("OTEL_EXPORTER_OTLP_TRACES_ENDPOINT", "")
	_ = os.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "")
	if ep := tracesEndpoint(itelemetry.ProtocolGRPC); ep != "localhost:4317" {
		t.Fatalf("expected gRPC default endpoint, got %s", ep)
	}
	if ep := tracesEndpoint(itelemetry.ProtocolHTTP); ep != "localhost:4318" {
		t.Fatalf("expected HTTP default endpoint, got %s", ep)
	}
}

func TestParseEndpointURL(t *testing.T) {
	endpoint, urlPath, err := parseEndpointURL("http://localhost:3000/otel/v1/traces")
	if err != nil {
		t.Fatalf("parseEndpointURL returned error: %v", err)
	}
	if endpoint != "localhost:3000" {
		t.Fatalf("expected localhost:3000, got %s", endpoint)
	}
	if urlPath != "/otel/v1/traces" {
		t.Fatalf("expected /otel/v1/traces, got %s", urlPath)
	}

	// Scheme-less URLs assume http and a root path.
	endpoint, urlPath, err = parseEndpointURL("collector:4318")
	if err != nil {
		t.Fatalf("parseEndpointURL returned error: %v", err)
	}
	if endpoint != "collector:4318" {
		t.Fatalf("expected collector:4318, got %s", endpoint)
	}
	if urlPath != "/" {
		t.Fatalf("expected /, got %s", urlPath)
	}

	if _, _, err := parseEndpointURL("http://"); err == nil {
		t.Fatalf("expected error for URL without host")
	}
}

// TestStartAndClean exercises the happy-path of Start and returned cleanup.
func TestStartAndClean(t *testing.T) {
	const (
		traceEP = "localhost:4317"
	)

	ctx := context.Background()
	clean, err := Start(ctx,
		WithEndpoint(traceEP),
		// Provide small custom service data to avoid environment pollution.
	)
	if err != nil {
		t.Fatalf("Start returned error: %v", err)
	}
	if clean == nil {
		t.Fatalf("expected non-nil cleanup function")
	}
	_ = clean() // Ignore cleanup error as no collector is running in tests.
}
