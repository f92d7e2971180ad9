//
// Tencent is pleased to support the open source community by making trip-agent-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trip-agent-go is licensed under the Apache License Version 2.0.
//
//

package main

import (
	"context"
	"fmt"

	"trpc.group/trpc-go/trip-agent-go/composer"
	"trpc.group/trpc-go/trip-agent-go/config"
	"trpc.group/trpc-go/trip-agent-go/executor"
	"trpc.group/trpc-go/trip-agent-go/log"
	"trpc.group/trpc-go/trip-agent-go/planner"
	"trpc.group/trpc-go/trip-agent-go/planner/gemini"
	"trpc.group/trpc-go/trip-agent-go/planner/llm"
	"trpc.group/trpc-go/trip-agent-go/planner/rule"
	"trpc.group/trpc-go/trip-agent-go/runner"
	"trpc.group/trpc-go/trip-agent-go/session"
	"trpc.group/trpc-go/trip-agent-go/telemetry/metric"
	"trpc.group/trpc-go/trip-agent-go/telemetry/trace"
	"trpc.group/trpc-go/trip-agent-go/tool"
	"trpc.group/trpc-go/trip-agent-go/tool/flights"
	"trpc.group/trpc-go/trip-agent-go/tool/hotels"
	"trpc.group/trpc-go/trip-agent-go/tool/knowledge"
	"trpc.group/trpc-go/trip-agent-go/tool/knowledgedir"
)

// buildRegistry creates the adapter registry from the configured endpoints.
// Adapters without an endpoint stay unregistered; the planner then reports
// their capability as never attempted instead of failing the session.
func buildRegistry(cfg *config.Config) (*tool.Registry, error) {
	registry := tool.NewRegistry()

	if kc := cfg.Adapters.Knowledge; kc.Enabled() {
		var (
			adapter tool.Adapter
			err     error
		)
		if kc.Dir != "" {
			adapter, err = knowledgedir.New(kc.Dir)
			if err != nil {
				return nil, fmt.Errorf("building knowledge directory adapter: %w", err)
			}
		} else {
			adapter = knowledge.New(kc.BaseURL, knowledge.WithTimeout(kc.Timeout))
		}
		if err := registry.Register(adapter); err != nil {
			return nil, err
		}
	}
	if fc := cfg.Adapters.Flights; fc.Enabled() {
		if err := registry.Register(flights.New(fc.BaseURL, flights.WithTimeout(fc.Timeout))); err != nil {
			return nil, err
		}
	}
	if hc := cfg.Adapters.Hotels; hc.Enabled() {
		if err := registry.Register(hotels.New(hc.BaseURL, hotels.WithTimeout(hc.Timeout))); err != nil {
			return nil, err
		}
	}
	if len(registry.Kinds()) == 0 {
		log.Warnf("no adapters configured; every session will end without results")
	}
	return registry, nil
}

// buildStrategy selects the decision strategy from the configuration.
func buildStrategy(ctx context.Context, cfg *config.Config) (planner.Strategy, error) {
	switch cfg.Strategy.Kind {
	case config.StrategyOpenAI:
		opts := []llm.Option{}
		if cfg.Strategy.Model != "" {
			opts = append(opts, llm.WithModel(cfg.Strategy.Model))
		}
		if cfg.Strategy.APIKey != "" {
			opts = append(opts, llm.WithAPIKey(cfg.Strategy.APIKey))
		}
		if cfg.Strategy.BaseURL != "" {
			opts = append(opts, llm.WithBaseURL(cfg.Strategy.BaseURL))
		}
		return llm.New(opts...), nil
	case config.StrategyGemini:
		opts := []gemini.Option{}
		if cfg.Strategy.Model != "" {
			opts = append(opts, gemini.WithModel(cfg.Strategy.Model))
		}
		if cfg.Strategy.APIKey != "" {
			opts = append(opts, gemini.WithAPIKey(cfg.Strategy.APIKey))
		}
		return gemini.New(ctx, opts...)
	default:
		return rule.New(), nil
	}
}

// buildRunner assembles the planning runner from the configuration.
func buildRunner(ctx context.Context, cfg *config.Config) (*runner.Runner, *tool.Registry, error) {
	registry, err := buildRegistry(cfg)
	if err != nil {
		return nil, nil, err
	}
	strategy, err := buildStrategy(ctx, cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("building %s strategy: %w", cfg.Strategy.Kind, err)
	}

	composerOpts := []composer.Option{}
	if cfg.Planning.RenderHTML {
		composerOpts = append(composerOpts, composer.WithHTML())
	}
	r, err := runner.New(
		runner.WithStrategy(strategy),
		runner.WithRegistry(registry),
		runner.WithComposer(composer.New(composerOpts...)),
		runner.WithRetryPolicy(executor.RetryPolicy{
			MaxAttempts:       cfg.Retry.MaxAttempts,
			InitialInterval:   cfg.Retry.InitialInterval,
			BackoffFactor:     cfg.Retry.BackoffFactor,
			MaxInterval:       cfg.Retry.MaxInterval,
			Jitter:            cfg.Retry.Jitter,
			PerAttemptTimeout: cfg.Retry.PerAttemptTimeout,
		}),
		runner.WithSessionConfig(session.Config{
			MaxSteps:        cfg.Planning.MaxSteps,
			WallClockBudget: cfg.Planning.WallClock,
		}),
		runner.WithConcurrency(cfg.Planning.Concurrency),
	)
	if err != nil {
		return nil, nil, err
	}
	return r, registry, nil
}

// startTelemetry boots the OTLP exporters when enabled and returns a cleanup
// that flushes them. With telemetry off it returns a no-op cleanup and the
// global tracer and meter stay noop.
func startTelemetry(ctx context.Context, cfg *config.Config) (func(), error) {
	if !cfg.Telemetry.Enabled {
		return func() {}, nil
	}
	traceOpts := []trace.Option{trace.WithProtocol(cfg.Telemetry.Protocol)}
	if cfg.Telemetry.TracesEndpoint != "" {
		traceOpts = append(traceOpts, trace.WithEndpoint(cfg.Telemetry.TracesEndpoint))
	}
	cleanTrace, err := trace.Start(ctx, traceOpts...)
	if err != nil {
		return nil, fmt.Errorf("starting trace telemetry: %w", err)
	}

	metricOpts := []metric.Option{metric.WithProtocol(cfg.Telemetry.Protocol)}
	if cfg.Telemetry.MetricsEndpoint != "" {
		metricOpts = append(metricOpts, metric.WithEndpoint(cfg.Telemetry.MetricsEndpoint))
	}
	cleanMetric, err := metric.Start(ctx, metricOpts...)
	if err != nil {
		_ = cleanTrace()
		return nil, fmt.Errorf("starting metric telemetry: %w", err)
	}

	return func() {
		if err := cleanMetric(); err != nil {
			log.Warnf("flushing metric telemetry: %v", err)
		}
		if err := cleanTrace(); err != nil {
			log.Warnf("flushing trace telemetry: %v", err)
		}
	}, nil
}
