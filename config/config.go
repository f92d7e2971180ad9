//
// Tencent is pleased to support the open source community by making trip-agent-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trip-agent-go is licensed under the Apache License Version 2.0.
//
//

// Package config loads and validates the orchestrator configuration: the
// HTTP server surface, planning budgets, the retry policy, decision strategy
// selection, adapter endpoints, and telemetry. Values absent from the YAML
// file keep their defaults; everything budget-shaped can still be overridden
// per request at session start.
package config

import "time"

// Strategy kinds accepted by Config.Strategy.Kind.
const (
	StrategyRule   = "rule"
	StrategyOpenAI = "openai"
	StrategyGemini = "gemini"
)

// Config is the root application configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Planning  PlanningConfig  `yaml:"planning"`
	Retry     RetryConfig     `yaml:"retry"`
	Strategy  StrategyConfig  `yaml:"strategy"`
	Adapters  AdaptersConfig  `yaml:"adapters"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
	Log       LogConfig       `yaml:"log"`
}

// ServerConfig holds the HTTP server settings.
type ServerConfig struct {
	Addr            string        `yaml:"addr"`
	CORSOrigins     []string      `yaml:"cors_origins"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// PlanningConfig holds the per-session budgets and the worker pool size.
type PlanningConfig struct {
	// MaxSteps bounds the number of committed tool steps per session.
	MaxSteps int `yaml:"max_steps"`
	// WallClock bounds the elapsed time per session.
	WallClock time.Duration `yaml:"wall_clock"`
	// Concurrency sizes the pool running independent sessions in parallel.
	Concurrency int `yaml:"concurrency"`
	// RenderHTML makes the composer emit HTML next to markdown.
	RenderHTML bool `yaml:"render_html"`
}

// RetryConfig holds the step executor retry policy.
type RetryConfig struct {
	MaxAttempts       int           `yaml:"max_attempts"`
	InitialInterval   time.Duration `yaml:"initial_interval"`
	BackoffFactor     float64       `yaml:"backoff_factor"`
	MaxInterval       time.Duration `yaml:"max_interval"`
	Jitter            bool          `yaml:"jitter"`
	PerAttemptTimeout time.Duration `yaml:"per_attempt_timeout"`
}

// StrategyConfig selects and parameterizes the decision strategy.
type StrategyConfig struct {
	// Kind is one of rule, openai, gemini.
	Kind string `yaml:"kind"`
	// Model names the chat model for the openai and gemini kinds.
	Model string `yaml:"model"`
	// APIKey overrides the strategy's environment variable lookup.
	APIKey string `yaml:"api_key"`
	// BaseURL points the openai kind at a compatible endpoint.
	BaseURL string `yaml:"base_url"`
}

// AdaptersConfig holds the tool adapter endpoints.
type AdaptersConfig struct {
	Knowledge AdapterConfig `yaml:"knowledge"`
	Flights   AdapterConfig `yaml:"flights"`
	Hotels    AdapterConfig `yaml:"hotels"`
}

// AdapterConfig configures one remote capability. For the knowledge adapter,
// Dir selects the local corpus adapter instead of the remote one.
type AdapterConfig struct {
	BaseURL string        `yaml:"base_url"`
	Dir     string        `yaml:"dir"`
	Timeout time.Duration `yaml:"timeout"`
}

// Enabled reports whether the adapter has an endpoint or corpus to serve.
func (a AdapterConfig) Enabled() bool {
	return a.BaseURL != "" || a.Dir != ""
}

// TelemetryConfig holds the OTLP exporter settings. Telemetry is off by
// default; the global tracer and meter stay noop until Start is called.
type TelemetryConfig struct {
	Enabled         bool   `yaml:"enabled"`
	Protocol        string `yaml:"protocol"`
	TracesEndpoint  string `yaml:"traces_endpoint"`
	MetricsEndpoint string `yaml:"metrics_endpoint"`
}

// LogConfig holds the logging settings.
type LogConfig struct {
	Level string `yaml:"level"`
}
