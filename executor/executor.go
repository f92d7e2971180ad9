//
// Tencent is pleased to support the open source community by making trip-agent-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trip-agent-go is licensed under the Apache License Version 2.0.
//
//

// Package executor runs single planning steps against tool adapters: it owns
// the retry loop, the per-attempt timeout and the mapping from adapter errors
// to step outcomes. Every execution begins and commits exactly one step on the
// session, whatever the adapter does in between.
package executor

import (
	"context"
	"errors"
	"fmt"
	"time"

	itelemetry "trpc.group/trpc-go/trip-agent-go/internal/telemetry"
	"trpc.group/trpc-go/trip-agent-go/log"
	"trpc.group/trpc-go/trip-agent-go/session"
	"trpc.group/trpc-go/trip-agent-go/telemetry/trace"
	"trpc.group/trpc-go/trip-agent-go/tool"
	"trpc.group/trpc-go/trip-agent-go/travel"
)

// ErrNilSession is returned when Execute is called without a session.
var ErrNilSession = errors.New("executor: nil session")

// errDeadlineTooClose aborts a backoff that would outlive the session.
var errDeadlineTooClose = errors.New("session wall-clock budget too low for backoff")

// Executor invokes tool adapters on behalf of the planning loop.
type Executor struct {
	registry *tool.Registry
	policy   RetryPolicy
}

// Option configures an Executor.
type Option func(*Executor)

// WithRetryPolicy overrides the default retry policy.
func WithRetryPolicy(policy RetryPolicy) Option {
	return func(e *Executor) {
		e.policy = policy.normalize()
	}
}

// New creates an Executor over the given adapter registry.
func New(registry *tool.Registry, opts ...Option) *Executor {
	e := &Executor{
		registry: registry,
		policy:   DefaultRetryPolicy(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Policy returns the executor's effective retry policy.
func (e *Executor) Policy() RetryPolicy { return e.policy }

// Execute runs one planning step: it claims budget on the session, invokes the
// adapter registered for kind with retries for transient failures, classifies
// the result and commits the step. Adapter failures are encoded in the
// returned step's outcome; the error return is reserved for session-level
// refusals such as an exhausted budget or a terminal session.
func (e *Executor) Execute(ctx context.Context, sess *session.Session, kind travel.ActionKind, params travel.Params) (session.Step, error) {
	if sess == nil {
		return session.Step{}, ErrNilSession
	}
	ctx, span := trace.Tracer.Start(ctx, itelemetry.NewExecuteStepSpanName(string(kind)))
	defer span.End()

	step, err := sess.BeginStep(kind, params)
	if err != nil {
		return session.Step{}, fmt.Errorf("executing %s step: %w", kind, err)
	}
	start := time.Now()
	fingerprint := step.Params.Fingerprint()

	adapter, ok := e.registry.Get(kind)
	if !ok {
		step.Outcome = session.OutcomeFatalFailure
		step.Error = fmt.Sprintf("no adapter registered for action %q", kind)
		step.Latency = time.Since(start)
		sess.MarkTried(kind, fingerprint)
		log.Errorf("session %s step %d: %s", sess.ID(), step.Sequence, step.Error)
		committed, cerr := sess.CommitStep(step, nil)
		if cerr != nil {
			return session.Step{}, cerr
		}
		itelemetry.TraceStep(span, sess.ID(), committed)
		return committed, nil
	}

	var (
		res      *tool.Result
		lastErr  error
		abortErr error
	)
	attempts := 0
	for attempt := 1; attempt <= e.policy.MaxAttempts; attempt++ {
		attempts = attempt
		res, lastErr = e.invokeOnce(ctx, adapter, step.Params)
		if lastErr == nil {
			break
		}
		if !tool.Retryable(lastErr) {
			break
		}
		if attempt == e.policy.MaxAttempts {
			break
		}
		delay := e.policy.NextDelay(attempt)
		log.Warnf("session %s step %d (%s) attempt %d/%d failed: %v; backing off %s",
			sess.ID(), step.Sequence, kind, attempt, e.policy.MaxAttempts, lastErr, delay)
		if serr := e.sleep(ctx, sess, delay); serr != nil {
			abortErr = serr
			break
		}
	}

	step.Attempts = attempts
	step.Latency = time.Since(start)

	outcome, message, tried := e.classify(ctx, lastErr, abortErr, res, attempts)
	step.Outcome = outcome
	step.Error = message
	if tried {
		sess.MarkTried(kind, fingerprint)
	}

	var contribution *tool.Result
	if outcome == session.OutcomeSuccess {
		contribution = res
	}
	committed, cerr := sess.CommitStep(step, contribution)
	if cerr != nil {
		return session.Step{}, cerr
	}
	itelemetry.TraceStep(span, sess.ID(), committed)
	e.logOutcome(sess.ID(), kind, committed)
	return committed, nil
}

// invokeOnce calls the adapter under the per-attempt timeout. A deadline that
// fired on the attempt context (not the parent) reads as a transient outage.
func (e *Executor) invokeOnce(ctx context.Context, adapter tool.Adapter, params travel.Params) (*tool.Result, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, e.policy.PerAttemptTimeout)
	defer cancel()

	res, err := adapter.Invoke(attemptCtx, params)
	if err == nil {
		return res, nil
	}
	if _, ok := tool.AsAdapterError(err); ok {
		return nil, err
	}
	if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
		return nil, tool.WrapError(tool.CodeUnavailable, "attempt timed out", err)
	}
	return nil, err
}

// sleep waits out a backoff delay. It refuses delays the session deadline
// cannot absorb and returns early when the context is cancelled.
func (e *Executor) sleep(ctx context.Context, sess *session.Session, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if d <= 0 {
		return nil
	}
	if time.Until(sess.Deadline()) <= d {
		return errDeadlineTooClose
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// classify maps the end state of the attempt loop to a step outcome. The
// returned bool reports whether the (kind, fingerprint) pair should be marked
// tried: dead ends are marked, interrupted steps are not.
func (e *Executor) classify(ctx context.Context, lastErr, abortErr error, res *tool.Result, attempts int) (session.Outcome, string, bool) {
	if abortErr != nil {
		return session.OutcomeRetryableFailure,
			fmt.Sprintf("retry aborted: %v (last error: %v)", abortErr, lastErr),
			false
	}
	if lastErr == nil {
		if res.Empty() {
			return session.OutcomeInsufficientData, "adapter returned no results", true
		}
		return session.OutcomeSuccess, "", false
	}
	if ae, ok := tool.AsAdapterError(lastErr); ok {
		switch ae.Code {
		case tool.CodeNoResults:
			return session.OutcomeInsufficientData, ae.Error(), true
		case tool.CodeInvalidParameters:
			return session.OutcomeFatalFailure, ae.Error(), true
		default:
			return session.OutcomeFatalFailure,
				fmt.Sprintf("retries exhausted after %d attempts: %v", attempts, ae),
				true
		}
	}
	if ctx.Err() != nil || errors.Is(lastErr, context.Canceled) {
		return session.OutcomeRetryableFailure,
			fmt.Sprintf("step interrupted: %v", lastErr),
			false
	}
	return session.OutcomeFatalFailure, lastErr.Error(), true
}

// logOutcome reports the committed step at a level matching its severity.
// Invalid parameters surface at error level so misbehaving planners are
// visible without raising transient noise above warn.
func (e *Executor) logOutcome(sessionID string, kind travel.ActionKind, step session.Step) {
	switch step.Outcome {
	case session.OutcomeSuccess:
		log.Debugf("session %s step %d (%s) succeeded: %d results in %s after %d attempt(s)",
			sessionID, step.Sequence, kind, step.Results, step.Latency, step.Attempts)
	case session.OutcomeInsufficientData:
		log.Infof("session %s step %d (%s) found nothing: %s",
			sessionID, step.Sequence, kind, step.Error)
	case session.OutcomeRetryableFailure:
		log.Warnf("session %s step %d (%s) interrupted: %s",
			sessionID, step.Sequence, kind, step.Error)
	case session.OutcomeFatalFailure:
		log.Errorf("session %s step %d (%s) failed: %s",
			sessionID, step.Sequence, kind, step.Error)
	}
}
