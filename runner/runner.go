//
// Tencent is pleased to support the open source community by making trip-agent-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trip-agent-go is licensed under the Apache License Version 2.0.
//
//

// Package runner is the inbound operation of the planning orchestrator: one
// call plans one trip. It assembles the strategy, the executor and the
// composer, creates a bounded session per request, drives the planning loop
// and returns the composed answer. Independent sessions run fully in
// parallel; PlanAsync schedules them on a bounded worker pool.
package runner

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/panjf2000/ants/v2"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"trpc.group/trpc-go/trip-agent-go/composer"
	"trpc.group/trpc-go/trip-agent-go/executor"
	itelemetry "trpc.group/trpc-go/trip-agent-go/internal/telemetry"
	"trpc.group/trpc-go/trip-agent-go/planner"
	"trpc.group/trpc-go/trip-agent-go/planner/rule"
	"trpc.group/trpc-go/trip-agent-go/session"
	ametric "trpc.group/trpc-go/trip-agent-go/telemetry/metric"
	"trpc.group/trpc-go/trip-agent-go/telemetry/trace"
	"trpc.group/trpc-go/trip-agent-go/tool"
	"trpc.group/trpc-go/trip-agent-go/travel"
)

// DefaultConcurrency bounds the PlanAsync worker pool when no size is given.
const DefaultConcurrency = 16

// ErrClosed is returned by PlanAsync after Close.
var ErrClosed = errors.New("runner is closed")

// Runner plans trips. A Runner is safe for concurrent use; each Plan call
// owns a fresh session and shares only the immutable collaborators.
type Runner struct {
	strategy   planner.Strategy
	planner    *planner.Planner
	composer   *composer.Composer
	sessionCfg session.Config
	pool       *ants.Pool

	sessionCounter metric.Int64Counter
	stepCounter    metric.Int64Counter
	retryCounter   metric.Int64Counter
}

// Option configures a Runner.
type Option func(*Options)

// Options is the options for the Runner.
type Options struct {
	strategy    planner.Strategy
	registry    *tool.Registry
	retryPolicy *executor.RetryPolicy
	composer    *composer.Composer
	sessionCfg  session.Config
	concurrency int
}

// WithStrategy sets the decision strategy. Defaults to the rule strategy.
func WithStrategy(s planner.Strategy) Option {
	return func(opts *Options) {
		opts.strategy = s
	}
}

// WithRegistry sets the adapter registry the executor draws from.
func WithRegistry(r *tool.Registry) Option {
	return func(opts *Options) {
		opts.registry = r
	}
}

// WithRetryPolicy sets the executor retry policy.
func WithRetryPolicy(policy executor.RetryPolicy) Option {
	return func(opts *Options) {
		opts.retryPolicy = &policy
	}
}

// WithComposer sets the answer composer.
func WithComposer(c *composer.Composer) Option {
	return func(opts *Options) {
		opts.composer = c
	}
}

// WithSessionConfig sets the default per-session budgets. Individual calls
// can still override them with run options.
func WithSessionConfig(cfg session.Config) Option {
	return func(opts *Options) {
		opts.sessionCfg = cfg
	}
}

// WithConcurrency bounds the PlanAsync worker pool.
func WithConcurrency(n int) Option {
	return func(opts *Options) {
		opts.concurrency = n
	}
}

// New creates a Runner.
func New(opts ...Option) (*Runner, error) {
	options := Options{concurrency: DefaultConcurrency}
	for _, opt := range opts {
		opt(&options)
	}
	if options.strategy == nil {
		options.strategy = rule.New()
	}
	if options.registry == nil {
		options.registry = tool.NewRegistry()
	}
	if options.composer == nil {
		options.composer = composer.New()
	}
	if options.concurrency <= 0 {
		options.concurrency = DefaultConcurrency
	}

	var execOpts []executor.Option
	if options.retryPolicy != nil {
		execOpts = append(execOpts, executor.WithRetryPolicy(*options.retryPolicy))
	}
	exec := executor.New(options.registry, execOpts...)

	pool, err := ants.NewPool(options.concurrency)
	if err != nil {
		return nil, fmt.Errorf("failed to create planning worker pool: %w", err)
	}

	r := &Runner{
		strategy:   options.strategy,
		planner:    planner.New(options.strategy, exec),
		composer:   options.composer,
		sessionCfg: options.sessionCfg,
		pool:       pool,
	}
	if err := r.initMetrics(); err != nil {
		pool.Release()
		return nil, err
	}
	return r, nil
}

// initMetrics creates the session-level instruments on the global meter.
// With no metric bootstrap the meter is a noop and recording costs nothing.
func (r *Runner) initMetrics() error {
	var err error
	r.sessionCounter, err = ametric.Meter.Int64Counter(
		"planning_sessions_total",
		metric.WithDescription("Total number of planning sessions by terminal status"),
	)
	if err != nil {
		return fmt.Errorf("failed to create session counter: %w", err)
	}
	r.stepCounter, err = ametric.Meter.Int64Counter(
		"planning_steps_total",
		metric.WithDescription("Total number of executed planning steps by kind and outcome"),
	)
	if err != nil {
		return fmt.Errorf("failed to create step counter: %w", err)
	}
	r.retryCounter, err = ametric.Meter.Int64Counter(
		"planning_retry_attempts_total",
		metric.WithDescription("Total number of adapter retry attempts beyond the first"),
	)
	if err != nil {
		return fmt.Errorf("failed to create retry counter: %w", err)
	}
	return nil
}

// RunOption overrides session budgets for a single Plan call.
type RunOption func(*session.Config)

// WithMaxSteps overrides the step budget for one session.
func WithMaxSteps(n int) RunOption {
	return func(cfg *session.Config) {
		cfg.MaxSteps = n
	}
}

// WithWallClockBudget overrides the wall-clock budget for one session.
func WithWallClockBudget(d time.Duration) RunOption {
	return func(cfg *session.Config) {
		cfg.WallClockBudget = d
	}
}

// Plan plans one trip: it validates the request, creates a session bounded by
// the configured budgets, drives the planning loop to a terminal status and
// composes the answer. Domain endings, including failed and exhausted
// sessions, are encoded in the Answer; the error return is reserved for
// caller mistakes such as an invalid request.
func (r *Runner) Plan(ctx context.Context, req travel.Request, opts ...RunOption) (*composer.Answer, error) {
	goal, err := travel.NewGoal(req)
	if err != nil {
		return nil, fmt.Errorf("invalid travel request: %w", err)
	}
	cfg := r.sessionCfg
	for _, opt := range opts {
		opt(&cfg)
	}
	sess := session.New(req, goal, cfg)

	ctx, span := trace.Tracer.Start(ctx, itelemetry.SpanNamePlanSession)
	defer span.End()

	if _, err := r.planner.Run(ctx, sess); err != nil {
		return nil, err
	}
	snap := sess.Snapshot()
	itelemetry.TraceSession(span, snap, r.strategy.Name())
	r.record(ctx, snap)
	return r.composer.Compose(snap)
}

// Future resolves one asynchronous planning run.
type Future struct {
	done   chan struct{}
	answer *composer.Answer
	err    error
}

// Wait blocks until the run finishes and returns its result.
func (f *Future) Wait() (*composer.Answer, error) {
	<-f.done
	return f.answer, f.err
}

// Done returns a channel that is closed when the run finishes.
func (f *Future) Done() <-chan struct{} { return f.done }

// PlanAsync schedules Plan on the worker pool and returns a handle to the
// result. The pool bounds how many sessions plan at once; submission fails
// only when the runner is closed.
func (r *Runner) PlanAsync(ctx context.Context, req travel.Request, opts ...RunOption) (*Future, error) {
	f := &Future{done: make(chan struct{})}
	err := r.pool.Submit(func() {
		defer close(f.done)
		f.answer, f.err = r.Plan(ctx, req, opts...)
	})
	if err != nil {
		if errors.Is(err, ants.ErrPoolClosed) {
			return nil, ErrClosed
		}
		return nil, fmt.Errorf("failed to submit planning task: %w", err)
	}
	return f, nil
}

// Close releases the worker pool. Plan stays usable; only PlanAsync refuses
// new work after Close.
func (r *Runner) Close() {
	r.pool.Release()
}

// record turns the terminal snapshot into metric points.
func (r *Runner) record(ctx context.Context, snap *session.Snapshot) {
	r.sessionCounter.Add(ctx, 1,
		metric.WithAttributes(attribute.String("status", string(snap.Status))))
	for _, step := range snap.Steps {
		r.stepCounter.Add(ctx, 1,
			metric.WithAttributes(
				attribute.String("kind", string(step.Kind)),
				attribute.String("outcome", string(step.Outcome)),
			))
		if step.Attempts > 1 {
			r.retryCounter.Add(ctx, int64(step.Attempts-1),
				metric.WithAttributes(attribute.String("kind", string(step.Kind))))
		}
	}
}
