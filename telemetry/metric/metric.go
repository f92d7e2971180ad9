//
// Tencent is pleased to support the open source community by making trip-agent-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trip-agent-go is licensed under the Apache License Version 2.0.
//
//

// Package metric provides the metrics bootstrap for the planning
// orchestrator. It integrates with OpenTelemetry and exports measurements
// over OTLP gRPC or HTTP; until Start is called the global meter is a noop.
package metric

import (
	"context"
	"fmt"
	"os"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"

	itelemetry "trpc.group/trpc-go/trip-agent-go/internal/telemetry"
)

// MeterProvider is the global meter provider for telemetry.
var MeterProvider metric.MeterProvider = noop.NewMeterProvider()

// Meter is the global meter instance for telemetry.
var Meter metric.Meter = MeterProvider.Meter("")

// Start collects telemetry with optional configuration.
// The environment variables described below can be used for endpoint configuration.
//
// OTEL_EXPORTER_OTLP_ENDPOINT, OTEL_EXPORTER_OTLP_METRICS_ENDPOINT (default: "localhost:4317")
// https://pkg.go.dev/go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc
func Start(ctx context.Context, opts ...Option) (clean func() error, err error) {
	options := &options{
		serviceName:      itelemetry.ServiceName,
		serviceVersion:   itelemetry.ServiceVersion,
		serviceNamespace: itelemetry.ServiceNamespace,
		protocol:         itelemetry.ProtocolGRPC,
	}
	for _, opt := range opts {
		opt(options)
	}

	// Set endpoint based on protocol if not explicitly set.
	if options.metricsEndpoint == "" {
		options.metricsEndpoint = metricsEndpoint(options.protocol)
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceNamespace(options.serviceNamespace),
			semconv.ServiceName(options.serviceName),
			semconv.ServiceVersion(options.serviceVersion),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	var shutdownMeterProvider func(context.Context) error
	switch options.protocol {
	case itelemetry.ProtocolHTTP:
		shutdownMeterProvider, err = initHTTPMeterProvider(ctx, res, options)
	default:
		shutdownMeterProvider, err = initGRPCMeterProvider(ctx, res, options)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to initialize meter provider: %w", err)
	}
	// Update global meter.
	Meter = otel.Meter(itelemetry.InstrumentName)
	return func() error {
		if err := shutdownMeterProvider(ctx); err != nil {
			return fmt.Errorf("failed to shutdown MeterProvider: %w", err)
		}
		return nil
	}, nil
}

// Option is a function that configures meter options.
type Option func(*options)

// options holds the configuration options for meter.
type options struct {
	metricsEndpoint  string
	serviceName      string
	serviceVersion   string
	serviceNamespace string
	protocol         string
	headers          map[string]string
}

// WithEndpoint sets the metrics endpoint(host and port) the Exporter will connect to.
// The provided endpoint should resemble "example.com:4317" (no scheme or path).
// If the OTEL_EXPORTER_OTLP_ENDPOINT or OTEL_EXPORTER_OTLP_METRICS_ENDPOINT environment variable is set,
// and this option is not passed, that variable value will be used.
// If both environment variables are set, OTEL_EXPORTER_OTLP_METRICS_ENDPOINT will take precedence.
// If an environment variable is set, and this option is passed, this option will take precedence.
func WithEndpoint(endpoint string) Option {
	return func(opts *options) {
		opts.metricsEndpoint = endpoint
	}
}

// WithProtocol sets the protocol to use for metrics export.
// Supported protocols are "grpc" (default) and "http".
func WithProtocol(protocol string) Option {
	return func(opts *options) {
		opts.protocol = protocol
	}
}

// WithHeaders sets the headers to include in the metric requests.
func WithHeaders(headers map[string]string) Option {
	return func(opts *options) {
		opts.headers = headers
	}
}

func metricsEndpoint(protocol string) string {
	if endpoint := os.Getenv("OTEL_EXPORTER_OTLP_METRICS_ENDPOINT"); endpoint != "" {
		return endpoint
	}
	if endpoint := os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"); endpoint != "" {
		return endpoint
	}

	switch protocol {
	case itelemetry.ProtocolHTTP:
		return "localhost:4318" // HTTP endpoint base URL (otlpmetrichttp adds /v1/metrics itself).
	default:
		return "localhost:4317" // gRPC endpoint (host:port).
	}
}

// Initializes an OTLP gRPC exporter, and configures the corresponding meter provider.
func initGRPCMeterProvider(ctx context.Context, res *resource.Resource, opts *options) (
	func(context.Context) error, error) {
	metricsConn, err := itelemetry.NewGRPCConn(opts.metricsEndpoint)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize metrics connection: %w", err)
	}

	metricExporter, err := otlpmetricgrpc.New(ctx,
		otlpmetricgrpc.WithGRPCConn(metricsConn),
		otlpmetricgrpc.WithHeaders(opts.headers),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create metrics exporter: %w", err)
	}

	return setupMeterProvider(res, metricExporter), nil
}

// Initializes an OTLP HTTP exporter, and configures the corresponding meter provider.
func initHTTPMeterProvider(ctx context.Context, res *resource.Resource, opts *options) (
	func(context.Context) error, error) {
	metricExporter, err := otlpmetrichttp.New(ctx,
		otlpmetrichttp.WithEndpoint(opts.metricsEndpoint),
		otlpmetrichttp.WithInsecure(),
		otlpmetrichttp.WithHeaders(opts.headers),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP metrics exporter: %w", err)
	}

	return setupMeterProvider(res, metricExporter), nil
}

// setupMeterProvider sets up the meter provider with the given resource and exporter.
func setupMeterProvider(res *resource.Resource, metricExporter sdkmetric.Exporter) func(context.Context) error {
	meterProvider := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(metricExporter)),
		sdkmetric.WithResource(res),
	)
	otel.SetMeterProvider(meterProvider)

	// Shutdown will flush any remaining measurements and shut down the exporter.
	return meterProvider.Shutdown
}
