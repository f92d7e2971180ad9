//
// Tencent is pleased to support the open source community by making trip-agent-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trip-agent-go is licensed under the Apache License Version 2.0.
//
//

package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Default configuration values.
const (
	DefaultAddr            = ":8080"
	DefaultReadTimeout     = 15 * time.Second
	DefaultWriteTimeout    = 30 * time.Second
	DefaultShutdownTimeout = 10 * time.Second

	DefaultMaxSteps    = 12
	DefaultWallClock   = 2 * time.Minute
	DefaultConcurrency = 16

	DefaultMaxAttempts       = 3
	DefaultInitialInterval   = 500 * time.Millisecond
	DefaultBackoffFactor     = 2.0
	DefaultMaxInterval       = 4 * time.Second
	DefaultPerAttemptTimeout = 10 * time.Second

	DefaultAdapterTimeout = 10 * time.Second
	DefaultLogLevel       = "info"
)

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:            DefaultAddr,
			CORSOrigins:     []string{"*"},
			ReadTimeout:     DefaultReadTimeout,
			WriteTimeout:    DefaultWriteTimeout,
			ShutdownTimeout: DefaultShutdownTimeout,
		},
		Planning: PlanningConfig{
			MaxSteps:    DefaultMaxSteps,
			WallClock:   DefaultWallClock,
			Concurrency: DefaultConcurrency,
		},
		Retry: RetryConfig{
			MaxAttempts:       DefaultMaxAttempts,
			InitialInterval:   DefaultInitialInterval,
			BackoffFactor:     DefaultBackoffFactor,
			MaxInterval:       DefaultMaxInterval,
			Jitter:            true,
			PerAttemptTimeout: DefaultPerAttemptTimeout,
		},
		Strategy: StrategyConfig{
			Kind: StrategyRule,
		},
		Adapters: AdaptersConfig{
			Knowledge: AdapterConfig{Timeout: DefaultAdapterTimeout},
			Flights:   AdapterConfig{Timeout: DefaultAdapterTimeout},
			Hotels:    AdapterConfig{Timeout: DefaultAdapterTimeout},
		},
		Telemetry: TelemetryConfig{
			Protocol: "grpc",
		},
		Log: LogConfig{
			Level: DefaultLogLevel,
		},
	}
}

// Load reads the YAML file at path over the defaults. Environment variables
// referenced in the file are expanded before parsing. An empty path returns
// the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	expanded := os.ExpandEnv(string(data))
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return nil, fmt.Errorf("parsing config file %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config file %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks the configuration for values no component can act on.
func (c *Config) Validate() error {
	if c.Server.Addr == "" {
		return fmt.Errorf("server.addr must not be empty")
	}
	if c.Planning.MaxSteps < 1 {
		return fmt.Errorf("planning.max_steps must be at least 1, got %d", c.Planning.MaxSteps)
	}
	if c.Planning.WallClock <= 0 {
		return fmt.Errorf("planning.wall_clock must be positive, got %s", c.Planning.WallClock)
	}
	if c.Planning.Concurrency < 1 {
		return fmt.Errorf("planning.concurrency must be at least 1, got %d", c.Planning.Concurrency)
	}
	if c.Retry.MaxAttempts < 1 {
		return fmt.Errorf("retry.max_attempts must be at least 1, got %d", c.Retry.MaxAttempts)
	}
	if c.Retry.BackoffFactor < 1 {
		return fmt.Errorf("retry.backoff_factor must be at least 1, got %v", c.Retry.BackoffFactor)
	}
	if c.Retry.PerAttemptTimeout <= 0 {
		return fmt.Errorf("retry.per_attempt_timeout must be positive, got %s", c.Retry.PerAttemptTimeout)
	}
	switch c.Strategy.Kind {
	case StrategyRule, StrategyOpenAI, StrategyGemini:
	default:
		return fmt.Errorf("strategy.kind must be one of %s, %s, %s; got %q",
			StrategyRule, StrategyOpenAI, StrategyGemini, c.Strategy.Kind)
	}
	switch c.Telemetry.Protocol {
	case "", "grpc", "http":
	default:
		return fmt.Errorf("telemetry.protocol must be grpc or http, got %q", c.Telemetry.Protocol)
	}
	return nil
}
