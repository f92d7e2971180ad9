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
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"trpc.group/trpc-go/trip-agent-go/session"
	"trpc.group/trpc-go/trip-agent-go/tool"
	"trpc.group/trpc-go/trip-agent-go/travel"
)

// fakeAdapter drives the executor with scripted responses.
type fakeAdapter struct {
	kind   travel.ActionKind
	invoke func(ctx context.Context, params travel.Params) (*tool.Result, error)
	calls  int32
}

func (f *fakeAdapter) Declaration() *tool.Declaration {
	return &tool.Declaration{Kind: f.kind, Description: "scripted adapter"}
}

func (f *fakeAdapter) Invoke(ctx context.Context, params travel.Params) (*tool.Result, error) {
	atomic.AddInt32(&f.calls, 1)
	return f.invoke(ctx, params)
}

// fastPolicy keeps retry tests quick: nanosecond backoff, no jitter.
func fastPolicy(attempts int) RetryPolicy {
	return RetryPolicy{
		MaxAttempts:       attempts,
		InitialInterval:   time.Nanosecond,
		BackoffFactor:     1.0,
		MaxInterval:       time.Nanosecond,
		Jitter:            false,
		PerAttemptTimeout: time.Second,
	}
}

func newTestSession(t *testing.T, cfg session.Config) *session.Session {
	t.Helper()
	goal, err := travel.NewGoal(travel.Request{Origin: "WAW", Destination: "BCN"})
	require.NoError(t, err)
	return session.New(travel.Request{Origin: "WAW", Destination: "BCN"}, goal, cfg)
}

func newTestExecutor(t *testing.T, policy RetryPolicy, adapters ...tool.Adapter) *Executor {
	t.Helper()
	reg := tool.NewRegistry()
	for _, a := range adapters {
		require.NoError(t, reg.Register(a))
	}
	return New(reg, WithRetryPolicy(policy))
}

func oneFlight() *tool.Result {
	return &tool.Result{Flights: []travel.FlightOffer{{ID: "LO433", Provider: "amadeus", Price: 178}}}
}

func TestExecute_SuccessFirstAttempt(t *testing.T) {
	t.Parallel()

	ad := &fakeAdapter{
		kind: travel.ActionSearchFlights,
		invoke: func(context.Context, travel.Params) (*tool.Result, error) {
			return oneFlight(), nil
		},
	}
	exec := newTestExecutor(t, fastPolicy(3), ad)
	sess := newTestSession(t, session.Config{})

	params := travel.Params{"origin": "WAW", "destination": "BCN"}
	step, err := exec.Execute(context.Background(), sess, travel.ActionSearchFlights, params)
	require.NoError(t, err)

	require.Equal(t, session.OutcomeSuccess, step.Outcome)
	require.Equal(t, 1, step.Attempts)
	require.Equal(t, 1, step.Results)
	require.Empty(t, step.Error)
	require.Equal(t, int32(1), atomic.LoadInt32(&ad.calls))
	require.False(t, sess.Tried(travel.ActionSearchFlights, params.Fingerprint()),
		"successful fingerprints stay available")
	require.Len(t, sess.Snapshot().Flights, 1)
}

func TestExecute_RetriesTransientFailures(t *testing.T) {
	t.Parallel()

	failFirst := int32(2)
	ad := &fakeAdapter{kind: travel.ActionSearchFlights}
	ad.invoke = func(context.Context, travel.Params) (*tool.Result, error) {
		if n := atomic.LoadInt32(&ad.calls); n <= failFirst {
			if n == 1 {
				return nil, tool.NewError(tool.CodeUnavailable, "upstream down")
			}
			return nil, tool.NewError(tool.CodeRateLimited, "slow down")
		}
		return oneFlight(), nil
	}
	exec := newTestExecutor(t, fastPolicy(3), ad)
	sess := newTestSession(t, session.Config{})

	step, err := exec.Execute(context.Background(), sess, travel.ActionSearchFlights, nil)
	require.NoError(t, err)

	require.Equal(t, session.OutcomeSuccess, step.Outcome)
	require.Equal(t, 3, step.Attempts, "both transient codes are retried")
	require.Equal(t, int32(3), atomic.LoadInt32(&ad.calls))
}

func TestExecute_RetriesExhaustedIsFatal(t *testing.T) {
	t.Parallel()

	ad := &fakeAdapter{
		kind: travel.ActionSearchHotels,
		invoke: func(context.Context, travel.Params) (*tool.Result, error) {
			return nil, tool.NewError(tool.CodeUnavailable, "upstream down")
		},
	}
	exec := newTestExecutor(t, fastPolicy(3), ad)
	sess := newTestSession(t, session.Config{})

	params := travel.Params{"city": "BCN"}
	step, err := exec.Execute(context.Background(), sess, travel.ActionSearchHotels, params)
	require.NoError(t, err, "adapter failure is a step outcome, not an execution error")

	require.Equal(t, session.OutcomeFatalFailure, step.Outcome)
	require.Equal(t, 3, step.Attempts)
	require.Contains(t, step.Error, "retries exhausted after 3 attempts")
	require.Equal(t, int32(3), atomic.LoadInt32(&ad.calls))
	require.True(t, sess.Tried(travel.ActionSearchHotels, params.Fingerprint()))
	require.Equal(t, session.StatusActive, sess.Status(),
		"a dead step does not end the session")
}

func TestExecute_NoResultsNeverRetried(t *testing.T) {
	t.Parallel()

	ad := &fakeAdapter{
		kind: travel.ActionRetrieveKnowledge,
		invoke: func(context.Context, travel.Params) (*tool.Result, error) {
			return nil, tool.NewError(tool.CodeNoResults, "nothing matched")
		},
	}
	exec := newTestExecutor(t, fastPolicy(3), ad)
	sess := newTestSession(t, session.Config{})

	params := travel.Params{"query": "obscure"}
	step, err := exec.Execute(context.Background(), sess, travel.ActionRetrieveKnowledge, params)
	require.NoError(t, err)

	require.Equal(t, session.OutcomeInsufficientData, step.Outcome)
	require.Equal(t, 1, step.Attempts, "empty result sets are not worth retrying")
	require.Equal(t, int32(1), atomic.LoadInt32(&ad.calls))
	require.True(t, sess.Tried(travel.ActionRetrieveKnowledge, params.Fingerprint()))
}

func TestExecute_EmptySuccessIsInsufficientData(t *testing.T) {
	t.Parallel()

	ad := &fakeAdapter{
		kind: travel.ActionRetrieveKnowledge,
		invoke: func(context.Context, travel.Params) (*tool.Result, error) {
			return &tool.Result{}, nil
		},
	}
	exec := newTestExecutor(t, fastPolicy(3), ad)
	sess := newTestSession(t, session.Config{})

	step, err := exec.Execute(context.Background(), sess, travel.ActionRetrieveKnowledge, travel.Params{"query": "q"})
	require.NoError(t, err)

	require.Equal(t, session.OutcomeInsufficientData, step.Outcome)
	require.Equal(t, 1, step.Attempts)
	require.Equal(t, int32(1), atomic.LoadInt32(&ad.calls))
}

func TestExecute_InvalidParametersIsImmediatelyFatal(t *testing.T) {
	t.Parallel()

	ad := &fakeAdapter{
		kind: travel.ActionSearchFlights,
		invoke: func(context.Context, travel.Params) (*tool.Result, error) {
			return nil, tool.NewError(tool.CodeInvalidParameters, "origin is required")
		},
	}
	exec := newTestExecutor(t, fastPolicy(3), ad)
	sess := newTestSession(t, session.Config{})

	step, err := exec.Execute(context.Background(), sess, travel.ActionSearchFlights, nil)
	require.NoError(t, err)

	require.Equal(t, session.OutcomeFatalFailure, step.Outcome)
	require.Equal(t, 1, step.Attempts, "invalid parameters are not retried")
	require.Contains(t, step.Error, "origin is required")
	require.Equal(t, int32(1), atomic.LoadInt32(&ad.calls))
}

func TestExecute_PlainErrorIsFatal(t *testing.T) {
	t.Parallel()

	ad := &fakeAdapter{
		kind: travel.ActionSearchFlights,
		invoke: func(context.Context, travel.Params) (*tool.Result, error) {
			return nil, errors.New("boom")
		},
	}
	exec := newTestExecutor(t, fastPolicy(3), ad)
	sess := newTestSession(t, session.Config{})

	step, err := exec.Execute(context.Background(), sess, travel.ActionSearchFlights, nil)
	require.NoError(t, err)

	require.Equal(t, session.OutcomeFatalFailure, step.Outcome)
	require.Equal(t, 1, step.Attempts)
	require.Equal(t, "boom", step.Error)
}

func TestExecute_UnregisteredKindIsFatal(t *testing.T) {
	t.Parallel()

	exec := newTestExecutor(t, fastPolicy(3)) // empty registry
	sess := newTestSession(t, session.Config{MaxSteps: 2})

	step, err := exec.Execute(context.Background(), sess, travel.ActionSearchHotels, nil)
	require.NoError(t, err)

	require.Equal(t, session.OutcomeFatalFailure, step.Outcome)
	require.Contains(t, step.Error, "no adapter registered")
	require.Equal(t, 1, sess.Remaining(), "the failed step still consumed budget")
}

func TestExecute_PerAttemptTimeout(t *testing.T) {
	t.Parallel()

	ad := &fakeAdapter{
		kind: travel.ActionRetrieveKnowledge,
		invoke: func(ctx context.Context, _ travel.Params) (*tool.Result, error) {
			<-ctx.Done()
			return nil, ctx.Err()
		},
	}
	policy := fastPolicy(1)
	policy.PerAttemptTimeout = 10 * time.Millisecond
	exec := newTestExecutor(t, policy, ad)
	sess := newTestSession(t, session.Config{})

	step, err := exec.Execute(context.Background(), sess, travel.ActionRetrieveKnowledge, travel.Params{"query": "q"})
	require.NoError(t, err)

	require.Equal(t, session.OutcomeFatalFailure, step.Outcome, "single attempt, so the timeout exhausts retries")
	require.Contains(t, step.Error, "attempt timed out")
}

func TestExecute_CancellationStopsRetrying(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	ad := &fakeAdapter{kind: travel.ActionSearchFlights}
	ad.invoke = func(context.Context, travel.Params) (*tool.Result, error) {
		cancel() // caller walks away while the step is mid-retry
		return nil, tool.NewError(tool.CodeUnavailable, "upstream down")
	}
	policy := fastPolicy(3)
	policy.InitialInterval = time.Second
	policy.MaxInterval = time.Second
	exec := newTestExecutor(t, policy, ad)
	sess := newTestSession(t, session.Config{})

	params := travel.Params{"origin": "WAW"}
	start := time.Now()
	step, err := exec.Execute(ctx, sess, travel.ActionSearchFlights, params)
	require.NoError(t, err)

	require.Equal(t, session.OutcomeRetryableFailure, step.Outcome)
	require.Equal(t, 1, step.Attempts)
	require.Less(t, time.Since(start), time.Second, "cancellation skips the backoff sleep")
	require.False(t, sess.Tried(travel.ActionSearchFlights, params.Fingerprint()),
		"an interrupted step may be retried later")
}

func TestExecute_BackoffRespectsWallClock(t *testing.T) {
	t.Parallel()

	ad := &fakeAdapter{
		kind: travel.ActionSearchFlights,
		invoke: func(context.Context, travel.Params) (*tool.Result, error) {
			return nil, tool.NewError(tool.CodeUnavailable, "upstream down")
		},
	}
	policy := fastPolicy(3)
	policy.InitialInterval = 10 * time.Second
	policy.MaxInterval = 10 * time.Second
	exec := newTestExecutor(t, policy, ad)
	sess := newTestSession(t, session.Config{WallClockBudget: 100 * time.Millisecond})

	start := time.Now()
	step, err := exec.Execute(context.Background(), sess, travel.ActionSearchFlights, nil)
	require.NoError(t, err)

	require.Equal(t, session.OutcomeRetryableFailure, step.Outcome)
	require.Equal(t, 1, step.Attempts)
	require.Contains(t, step.Error, "wall-clock")
	require.Less(t, time.Since(start), time.Second, "the backoff never outlives the session deadline")
}

func TestExecute_SessionRefusals(t *testing.T) {
	t.Parallel()

	ad := &fakeAdapter{
		kind: travel.ActionSearchFlights,
		invoke: func(context.Context, travel.Params) (*tool.Result, error) {
			return oneFlight(), nil
		},
	}
	exec := newTestExecutor(t, fastPolicy(1), ad)

	_, err := exec.Execute(context.Background(), nil, travel.ActionSearchFlights, nil)
	require.ErrorIs(t, err, ErrNilSession)

	sess := newTestSession(t, session.Config{MaxSteps: 1})
	_, err = exec.Execute(context.Background(), sess, travel.ActionSearchFlights, nil)
	require.NoError(t, err)
	_, err = exec.Execute(context.Background(), sess, travel.ActionSearchFlights, nil)
	require.ErrorIs(t, err, session.ErrBudgetExhausted)

	done := newTestSession(t, session.Config{})
	require.NoError(t, done.Finish(session.StatusFailed, "cancelled"))
	_, err = exec.Execute(context.Background(), done, travel.ActionSearchFlights, nil)
	require.ErrorIs(t, err, session.ErrTerminal)
}

func TestExecute_CommitsExactlyOneStepPerCall(t *testing.T) {
	t.Parallel()

	ad := &fakeAdapter{
		kind: travel.ActionRetrieveKnowledge,
		invoke: func(context.Context, travel.Params) (*tool.Result, error) {
			return nil, tool.NewError(tool.CodeUnavailable, "upstream down")
		},
	}
	exec := newTestExecutor(t, fastPolicy(3), ad)
	sess := newTestSession(t, session.Config{MaxSteps: 5})

	for i := 1; i <= 2; i++ {
		step, err := exec.Execute(context.Background(), sess, travel.ActionRetrieveKnowledge,
			travel.Params{"query": fmt.Sprintf("q%d", i)})
		require.NoError(t, err)
		require.Equal(t, i, step.Sequence)
	}

	snap := sess.Snapshot()
	require.Len(t, snap.Steps, 2, "one committed step per execution, regardless of retries")
	require.Equal(t, 3, snap.Remaining)
}
