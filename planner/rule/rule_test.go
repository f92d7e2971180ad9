//
// Tencent is pleased to support the open source community by making trip-agent-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trip-agent-go is licensed under the Apache License Version 2.0.
//
//

package rule

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"trpc.group/trpc-go/trip-agent-go/planner"
	"trpc.group/trpc-go/trip-agent-go/session"
	"trpc.group/trpc-go/trip-agent-go/tool"
	"trpc.group/trpc-go/trip-agent-go/travel"
)

func fullGoalSession(t *testing.T) *session.Session {
	t.Helper()
	req := travel.Request{
		Origin:      "WAW",
		Destination: "BCN",
		DepartDate:  "2026-04-10",
		ReturnDate:  "2026-04-17",
		Travelers:   2,
		BudgetCap:   400,
		Interests:   []string{"architecture", "tapas"},
	}
	goal, err := travel.NewGoal(req)
	require.NoError(t, err)
	return session.New(req, goal, session.Config{})
}

func decide(t *testing.T, s *Strategy, sess *session.Session) *planner.Decision {
	t.Helper()
	d, err := s.Decide(context.Background(), sess.Snapshot())
	require.NoError(t, err)
	require.NoError(t, d.Validate())
	return d
}

// simulate commits the decision's step with the given outcome the way the
// executor would, including the tried-set bookkeeping.
func simulate(t *testing.T, sess *session.Session, d *planner.Decision, outcome session.Outcome, res *tool.Result) {
	t.Helper()
	kind, ok := d.Action.Kind()
	require.True(t, ok, "only tool decisions can be simulated")
	step, err := sess.BeginStep(kind, d.Params)
	require.NoError(t, err)
	step.Outcome = outcome
	step.Attempts = 1
	if outcome == session.OutcomeInsufficientData || outcome == session.OutcomeFatalFailure {
		sess.MarkTried(kind, d.Params.Fingerprint())
	}
	_, err = sess.CommitStep(step, res)
	require.NoError(t, err)
}

func TestDecide_CapabilityOrder(t *testing.T) {
	t.Parallel()

	s := New()
	sess := fullGoalSession(t)

	d := decide(t, s, sess)
	require.Equal(t, planner.ActionRetrieveKnowledge, d.Action)
	require.Contains(t, d.Params.String("query"), "architecture")
	simulate(t, sess, d, session.OutcomeSuccess,
		&tool.Result{Snippets: []travel.Snippet{{Content: "fact"}}})

	d = decide(t, s, sess)
	require.Equal(t, planner.ActionSearchFlights, d.Action)
	require.Equal(t, "WAW", d.Params.String("origin"))
	require.Equal(t, "2026-04-10", d.Params.String("depart_date"))
	travelers, ok := d.Params.Int("travelers")
	require.True(t, ok)
	require.Equal(t, 2, travelers)
	maxPrice, ok := d.Params.Float("max_price")
	require.True(t, ok)
	require.Equal(t, 400.0, maxPrice)
	simulate(t, sess, d, session.OutcomeSuccess,
		&tool.Result{Flights: []travel.FlightOffer{{ID: "LO433", Provider: "amadeus"}}})

	d = decide(t, s, sess)
	require.Equal(t, planner.ActionSearchHotels, d.Action)
	require.Equal(t, "BCN", d.Params.String("city"))
	require.Equal(t, "2026-04-10", d.Params.String("check_in"))
	require.Equal(t, "2026-04-17", d.Params.String("check_out"))
	simulate(t, sess, d, session.OutcomeSuccess,
		&tool.Result{Hotels: []travel.HotelOffer{{ID: "h1", Provider: "hotels"}}})

	d = decide(t, s, sess)
	require.Equal(t, planner.ActionFinalize, d.Action)
	require.Contains(t, d.Reason, "collected 3 results")
}

func TestDecide_RelaxesKnowledgeOnceThenMovesOn(t *testing.T) {
	t.Parallel()

	s := New()
	sess := fullGoalSession(t)

	primary := decide(t, s, sess)
	require.Equal(t, planner.ActionRetrieveKnowledge, primary.Action)
	simulate(t, sess, primary, session.OutcomeInsufficientData, nil)

	relaxed := decide(t, s, sess)
	require.Equal(t, planner.ActionRetrieveKnowledge, relaxed.Action)
	require.Equal(t, "BCN travel guide", relaxed.Params.String("query"))
	require.NotEqual(t, primary.Params.Fingerprint(), relaxed.Params.Fingerprint())
	simulate(t, sess, relaxed, session.OutcomeInsufficientData, nil)

	next := decide(t, s, sess)
	require.Equal(t, planner.ActionSearchFlights, next.Action,
		"a capability is relaxed once, then abandoned")
}

func TestDecide_FlightRelaxationWidensDates(t *testing.T) {
	t.Parallel()

	s := New()
	sess := fullGoalSession(t)

	// Knowledge succeeds so flights come up next.
	d := decide(t, s, sess)
	simulate(t, sess, d, session.OutcomeSuccess,
		&tool.Result{Snippets: []travel.Snippet{{Content: "fact"}}})

	primary := decide(t, s, sess)
	require.Equal(t, planner.ActionSearchFlights, primary.Action)
	simulate(t, sess, primary, session.OutcomeInsufficientData, nil)

	relaxed := decide(t, s, sess)
	require.Equal(t, planner.ActionSearchFlights, relaxed.Action)
	require.Equal(t, "WAW", relaxed.Params.String("origin"))
	require.Empty(t, relaxed.Params.String("depart_date"), "relaxation drops the date window")
	require.Empty(t, relaxed.Params.String("return_date"))
	_, capped := relaxed.Params.Float("max_price")
	require.False(t, capped, "relaxation drops the price cap")
}

func TestDecide_SkipsFatalCapability(t *testing.T) {
	t.Parallel()

	s := New()
	sess := fullGoalSession(t)

	d := decide(t, s, sess)
	simulate(t, sess, d, session.OutcomeSuccess,
		&tool.Result{Snippets: []travel.Snippet{{Content: "fact"}}})

	flights := decide(t, s, sess)
	require.Equal(t, planner.ActionSearchFlights, flights.Action)
	simulate(t, sess, flights, session.OutcomeFatalFailure, nil)

	next := decide(t, s, sess)
	require.Equal(t, planner.ActionSearchHotels, next.Action,
		"a fatally failed capability is skipped, not retried")
}

func TestDecide_AbortsOnlyWhenAllRequestedDead(t *testing.T) {
	t.Parallel()

	s := New()
	req := travel.Request{Destination: "BCN"} // wants knowledge and hotels only
	goal, err := travel.NewGoal(req)
	require.NoError(t, err)
	sess := session.New(req, goal, session.Config{})

	d := decide(t, s, sess)
	require.Equal(t, planner.ActionRetrieveKnowledge, d.Action)
	simulate(t, sess, d, session.OutcomeFatalFailure, nil)

	d = decide(t, s, sess)
	require.Equal(t, planner.ActionSearchHotels, d.Action)
	simulate(t, sess, d, session.OutcomeFatalFailure, nil)

	d = decide(t, s, sess)
	require.Equal(t, planner.ActionAbort, d.Action)
	require.Contains(t, d.Reason, "every requested search failed")
	require.Contains(t, d.Reason, "knowledge retrieval", "abort reason names each dead capability")
	require.Contains(t, d.Reason, "hotel search")
	require.NotContains(t, d.Reason, "flight search", "flights were never requested")
}

func TestDecide_FinalizesWithPartialResults(t *testing.T) {
	t.Parallel()

	s := New()
	req := travel.Request{Destination: "BCN"}
	goal, err := travel.NewGoal(req)
	require.NoError(t, err)
	sess := session.New(req, goal, session.Config{})

	d := decide(t, s, sess)
	require.Equal(t, planner.ActionRetrieveKnowledge, d.Action)
	simulate(t, sess, d, session.OutcomeSuccess,
		&tool.Result{Snippets: []travel.Snippet{{Content: "fact"}}})

	d = decide(t, s, sess)
	require.Equal(t, planner.ActionSearchHotels, d.Action)
	simulate(t, sess, d, session.OutcomeFatalFailure, nil)

	d = decide(t, s, sess)
	require.Equal(t, planner.ActionFinalize, d.Action,
		"one dead capability does not abort a session holding results")
}

func TestDecide_OriginlessGoalNeverProposesFlights(t *testing.T) {
	t.Parallel()

	s := New()
	req := travel.Request{Destination: "BCN", Interests: []string{"beaches"}}
	goal, err := travel.NewGoal(req)
	require.NoError(t, err)
	sess := session.New(req, goal, session.Config{})

	for i := 0; i < 10; i++ {
		d := decide(t, s, sess)
		if d.Action.Terminal() {
			return
		}
		require.NotEqual(t, planner.ActionSearchFlights, d.Action,
			"flights need an origin")
		simulate(t, sess, d, session.OutcomeInsufficientData, nil)
	}
	t.Fatal("strategy never reached a terminal decision")
}

func TestDecide_NeverRepeatsAFingerprint(t *testing.T) {
	t.Parallel()

	s := New()
	sess := fullGoalSession(t)
	seen := make(map[string]bool)

	for i := 0; i < 12; i++ {
		d := decide(t, s, sess)
		if d.Action.Terminal() {
			require.Equal(t, planner.ActionFinalize, d.Action)
			return
		}
		kind, _ := d.Action.Kind()
		fp := string(kind) + "|" + d.Params.Fingerprint()
		require.False(t, seen[fp], "fingerprint %s proposed twice", fp)
		seen[fp] = true
		simulate(t, sess, d, session.OutcomeInsufficientData, nil)
	}
	t.Fatal("strategy never reached a terminal decision")
}
