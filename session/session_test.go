//
// Tencent is pleased to support the open source community by making trip-agent-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trip-agent-go is licensed under the Apache License Version 2.0.
//
//

package session

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"trpc.group/trpc-go/trip-agent-go/tool"
	"trpc.group/trpc-go/trip-agent-go/travel"
)

func newTestSession(t *testing.T, cfg Config) *Session {
	t.Helper()
	goal, err := travel.NewGoal(travel.Request{Origin: "WAW", Destination: "BCN"})
	require.NoError(t, err)
	return New(travel.Request{Origin: "WAW", Destination: "BCN"}, goal, cfg)
}

func mustCommit(t *testing.T, s *Session, step Step, res *tool.Result) Step {
	t.Helper()
	committed, err := s.CommitStep(step, res)
	require.NoError(t, err)
	return committed
}

func TestSession_SequencesAndBudget(t *testing.T) {
	t.Parallel()

	s := newTestSession(t, Config{MaxSteps: 3})
	require.NotEmpty(t, s.ID())
	require.Equal(t, StatusActive, s.Status())
	require.Equal(t, 3, s.Remaining())

	for i := 1; i <= 3; i++ {
		before := s.Remaining()
		step, err := s.BeginStep(travel.ActionRetrieveKnowledge, travel.Params{"query": "q"})
		require.NoError(t, err)
		require.Equal(t, i, step.Sequence, "sequence numbers are strictly increasing")

		step.Outcome = OutcomeSuccess
		step.Attempts = 1
		mustCommit(t, s, step, nil)
		require.Equal(t, before-1, s.Remaining(), "budget decreases by one per committed step")
	}

	_, err := s.BeginStep(travel.ActionSearchFlights, nil)
	require.ErrorIs(t, err, ErrBudgetExhausted)
}

func TestSession_SingleInFlightStep(t *testing.T) {
	t.Parallel()

	s := newTestSession(t, Config{})
	step, err := s.BeginStep(travel.ActionSearchFlights, travel.Params{"origin": "WAW"})
	require.NoError(t, err)

	_, err = s.BeginStep(travel.ActionSearchHotels, nil)
	require.ErrorIs(t, err, ErrStepInFlight)

	step.Outcome = OutcomeSuccess
	mustCommit(t, s, step, nil)

	_, err = s.BeginStep(travel.ActionSearchHotels, nil)
	require.NoError(t, err)
}

func TestSession_CommitIsAtomicAndDeduplicates(t *testing.T) {
	t.Parallel()

	s := newTestSession(t, Config{})
	step, err := s.BeginStep(travel.ActionSearchFlights, nil)
	require.NoError(t, err)

	step.Outcome = OutcomeSuccess
	step.Attempts = 1
	res := &tool.Result{Flights: []travel.FlightOffer{
		{ID: "LO433", Provider: "amadeus", Price: 178},
		{ID: "LO433", Provider: "amadeus", Price: 178}, // duplicate in one batch
		{ID: "FR1024", Provider: "ryan", Price: 90},
	}}
	committed := mustCommit(t, s, step, res)
	require.Equal(t, 2, committed.Results, "commit reports the post-dedup contribution")

	snap := s.Snapshot()
	require.Len(t, snap.Flights, 2)
	require.Equal(t, 2, snap.Steps[0].Results, "step records post-dedup contribution")
	require.Equal(t, OutcomeSuccess, snap.Steps[0].Outcome)

	// Same offer from a later step is dropped too.
	step2, err := s.BeginStep(travel.ActionSearchFlights, nil)
	require.NoError(t, err)
	step2.Outcome = OutcomeSuccess
	committed = mustCommit(t, s, step2, &tool.Result{Flights: []travel.FlightOffer{
		{ID: "LO433", Provider: "amadeus", Price: 178},
	}})
	require.Zero(t, committed.Results)
	snap = s.Snapshot()
	require.Len(t, snap.Flights, 2)
	require.Zero(t, snap.Steps[1].Results)
}

func TestSession_CommitRequiresMatchingStep(t *testing.T) {
	t.Parallel()

	s := newTestSession(t, Config{})
	_, err := s.CommitStep(Step{Sequence: 1}, nil)
	require.ErrorIs(t, err, ErrNoStepInFlight)

	step, err := s.BeginStep(travel.ActionSearchHotels, nil)
	require.NoError(t, err)
	_, err = s.CommitStep(Step{Sequence: 99}, nil)
	require.ErrorIs(t, err, ErrNoStepInFlight)

	step.Outcome = OutcomeInsufficientData
	mustCommit(t, s, step, nil)
	_, err = s.CommitStep(step, nil)
	require.ErrorIs(t, err, ErrNoStepInFlight, "double commit is rejected")
}

func TestSession_TerminalTransitionsAreOneDirectional(t *testing.T) {
	t.Parallel()

	s := newTestSession(t, Config{})
	require.Error(t, s.Finish(StatusActive, ""), "active is not a terminal status")

	require.NoError(t, s.Finish(StatusCompleted, "itinerary ready"))
	require.Equal(t, StatusCompleted, s.Status())
	require.Equal(t, "itinerary ready", s.Reason())

	require.ErrorIs(t, s.Finish(StatusFailed, "nope"), ErrTerminal)
	require.Equal(t, StatusCompleted, s.Status(), "terminal status never changes")

	_, err := s.BeginStep(travel.ActionSearchFlights, nil)
	require.ErrorIs(t, err, ErrTerminal)
}

func TestSession_TriedFingerprints(t *testing.T) {
	t.Parallel()

	s := newTestSession(t, Config{})
	fp := travel.Params{"query": "barcelona beaches"}.Fingerprint()

	require.False(t, s.Tried(travel.ActionRetrieveKnowledge, fp))
	s.MarkTried(travel.ActionRetrieveKnowledge, fp)
	require.True(t, s.Tried(travel.ActionRetrieveKnowledge, fp))
	require.False(t, s.Tried(travel.ActionSearchFlights, fp), "tried sets are per action kind")

	snap := s.Snapshot()
	require.True(t, snap.HasTried(travel.ActionRetrieveKnowledge, fp))
	require.False(t, snap.HasTried(travel.ActionSearchFlights, fp))
}

func TestSession_SnapshotIsDetached(t *testing.T) {
	t.Parallel()

	s := newTestSession(t, Config{})
	step, err := s.BeginStep(travel.ActionRetrieveKnowledge, travel.Params{"query": "q"})
	require.NoError(t, err)
	step.Outcome = OutcomeSuccess
	mustCommit(t, s, step, &tool.Result{Snippets: []travel.Snippet{{Content: "fact"}}})

	snap := s.Snapshot()
	snap.Snippets[0].Content = "tampered"
	snap.Steps[0].Params["query"] = "tampered"
	snap.Goal.Destination = "XXX"

	fresh := s.Snapshot()
	require.Equal(t, "fact", fresh.Snippets[0].Content)
	require.Equal(t, "q", fresh.Steps[0].Params.String("query"))
	require.Equal(t, "BCN", fresh.Goal.Destination)
}

func TestSnapshot_OutcomeHelpers(t *testing.T) {
	t.Parallel()

	s := newTestSession(t, Config{})

	step, _ := s.BeginStep(travel.ActionRetrieveKnowledge, travel.Params{"query": "a"})
	step.Outcome = OutcomeFatalFailure
	step.Error = "unavailable: gave up after 3 attempts"
	mustCommit(t, s, step, nil)

	step, _ = s.BeginStep(travel.ActionSearchFlights, nil)
	step.Outcome = OutcomeSuccess
	mustCommit(t, s, step, &tool.Result{Flights: []travel.FlightOffer{{ID: "1", Provider: "p"}}})

	snap := s.Snapshot()
	require.True(t, snap.Attempted(travel.ActionRetrieveKnowledge))
	require.False(t, snap.Attempted(travel.ActionSearchHotels))
	require.True(t, snap.FailedFatally(travel.ActionRetrieveKnowledge))
	require.True(t, snap.Succeeded(travel.ActionSearchFlights))
	require.False(t, snap.FailedFatally(travel.ActionSearchFlights))
	require.Equal(t, 1, snap.TotalResults())
	require.Equal(t, travel.ActionSearchFlights, snap.LastStep().Kind)

	// A later success clears the fatal flag for the kind.
	step, _ = s.BeginStep(travel.ActionRetrieveKnowledge, travel.Params{"query": "b"})
	step.Outcome = OutcomeSuccess
	mustCommit(t, s, step, &tool.Result{Snippets: []travel.Snippet{{Content: "x"}}})
	require.False(t, s.Snapshot().FailedFatally(travel.ActionRetrieveKnowledge))
}

func TestSession_WallClock(t *testing.T) {
	t.Parallel()

	s := newTestSession(t, Config{WallClockBudget: time.Nanosecond})
	time.Sleep(time.Millisecond)
	require.True(t, s.Expired())

	long := newTestSession(t, Config{})
	require.False(t, long.Expired())
	require.False(t, long.Deadline().IsZero())
}
