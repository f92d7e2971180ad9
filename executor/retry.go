//
// Tencent is pleased to support the open source community by making trip-agent-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trip-agent-go is licensed under the Apache License Version 2.0.
//
//

package executor

import (
	"crypto/rand"
	"math"
	"math/big"
	"time"
)

// Default retry configuration.
const (
	DefaultMaxAttempts       = 3
	DefaultInitialInterval   = 500 * time.Millisecond
	DefaultBackoffFactor     = 2.0
	DefaultMaxInterval       = 4 * time.Second
	DefaultPerAttemptTimeout = 10 * time.Second
)

// RetryPolicy configures how transient adapter failures are retried.
// Attempts are counted inclusive of the first try. For example,
// MaxAttempts=3 means 1 initial try + up to 2 retries.
type RetryPolicy struct {
	MaxAttempts     int
	InitialInterval time.Duration
	BackoffFactor   float64
	MaxInterval     time.Duration
	Jitter          bool

	// PerAttemptTimeout bounds each adapter invocation; 0 uses the default.
	PerAttemptTimeout time.Duration
}

// DefaultRetryPolicy returns the retry configuration used when a caller
// supplies none: three attempts, 500ms initial backoff doubling up to 4s,
// jitter on, 10s per attempt.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts:       DefaultMaxAttempts,
		InitialInterval:   DefaultInitialInterval,
		BackoffFactor:     DefaultBackoffFactor,
		MaxInterval:       DefaultMaxInterval,
		Jitter:            true,
		PerAttemptTimeout: DefaultPerAttemptTimeout,
	}
}

// normalize fills in unusable numeric fields. Jitter is left as set: false is
// a valid choice.
func (p RetryPolicy) normalize() RetryPolicy {
	if p.MaxAttempts < 1 {
		p.MaxAttempts = DefaultMaxAttempts
	}
	if p.InitialInterval <= 0 {
		p.InitialInterval = DefaultInitialInterval
	}
	if p.BackoffFactor <= 0 {
		p.BackoffFactor = DefaultBackoffFactor
	}
	if p.MaxInterval <= 0 {
		p.MaxInterval = DefaultMaxInterval
	}
	if p.PerAttemptTimeout <= 0 {
		p.PerAttemptTimeout = DefaultPerAttemptTimeout
	}
	return p
}

// NextDelay returns the backoff delay before the given attempt number.
// attempt starts at 1 for the first try; delay applies before the next retry,
// so callers typically pass the current attempt count.
func (p RetryPolicy) NextDelay(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	delay := float64(p.InitialInterval)
	factor := p.BackoffFactor
	if factor <= 0 {
		factor = 1.0
	}
	if attempt > 1 {
		delay *= math.Pow(factor, float64(attempt-1))
	}
	maxInt := p.MaxInterval
	if maxInt <= 0 {
		maxInt = p.InitialInterval
	}
	if maxInt > 0 {
		delay = math.Min(delay, float64(maxInt))
	}
	d := time.Duration(delay)
	if p.Jitter && d > 0 {
		// Additive jitter in [0, d). Use crypto/rand to avoid gosec G404.
		if n, err := rand.Int(rand.Reader, big.NewInt(int64(d))); err == nil {
			d += time.Duration(n.Int64())
		}
	}
	if d < 0 {
		d = 0
	}
	return d
}
