//
// Tencent is pleased to support the open source community by making trip-agent-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trip-agent-go is licensed under the Apache License Version 2.0.
//
//

// Package rule implements a deterministic planning strategy. It works through
// the goal's requested capabilities in a fixed order (knowledge, flights,
// hotels), proposes one primary search per capability plus one relaxed retry
// after an empty result, skips capabilities that failed fatally, and finalizes
// once nothing useful is left to try. It needs no model and therefore anchors
// tests and offline deployments.
package rule

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"trpc.group/trpc-go/trip-agent-go/planner"
	"trpc.group/trpc-go/trip-agent-go/session"
	"trpc.group/trpc-go/trip-agent-go/travel"
)

// Strategy is the deterministic rule table. The zero value is ready to use.
type Strategy struct{}

var _ planner.Strategy = (*Strategy)(nil)

// New creates a rule strategy.
func New() *Strategy { return &Strategy{} }

// Name implements planner.Strategy.
func (s *Strategy) Name() string { return "rule" }

// Decide walks the capability order and returns the first untried candidate
// search. With no candidates left it finalizes, or aborts when every
// requested capability failed fatally.
func (s *Strategy) Decide(_ context.Context, snap *session.Snapshot) (*planner.Decision, error) {
	if snap == nil || snap.Goal == nil {
		return nil, errors.New("snapshot carries no goal")
	}
	goal := snap.Goal

	for _, kind := range travel.SearchKinds() {
		if !goal.Wants(kind) || snap.Succeeded(kind) || snap.FailedFatally(kind) {
			continue
		}
		for _, c := range candidates(kind, goal) {
			if snap.HasTried(kind, c.params.Fingerprint()) {
				continue
			}
			return &planner.Decision{
				Action: planner.Action(kind),
				Params: c.params,
				Reason: c.reason,
			}, nil
		}
	}

	if dead := deadRequested(goal, snap); len(dead) > 0 {
		labels := make([]string, len(dead))
		for i, kind := range dead {
			labels[i] = kind.Label()
		}
		return &planner.Decision{
			Action: planner.ActionAbort,
			Reason: "every requested search failed: " + strings.Join(labels, ", "),
		}, nil
	}
	return &planner.Decision{
		Action: planner.ActionFinalize,
		Reason: finalizeReason(snap),
	}, nil
}

// candidate pairs search parameters with the reason they were proposed.
type candidate struct {
	params travel.Params
	reason string
}

// candidates returns the primary search for a capability followed by its one
// relaxed variant. Variants that collapse to the same fingerprint are dropped
// so a capability never proposes the same call twice.
func candidates(kind travel.ActionKind, goal *travel.Goal) []candidate {
	var list []candidate
	switch kind {
	case travel.ActionRetrieveKnowledge:
		list = knowledgeCandidates(goal)
	case travel.ActionSearchFlights:
		list = flightCandidates(goal)
	case travel.ActionSearchHotels:
		list = hotelCandidates(goal)
	}
	return dedupe(list)
}

func knowledgeCandidates(goal *travel.Goal) []candidate {
	primary := goal.Query
	if primary == "" {
		terms := append([]string{goal.Destination}, goal.Interests...)
		primary = strings.TrimSpace(strings.Join(terms, " "))
	}
	relaxed := strings.TrimSpace(goal.Destination + " travel guide")
	if relaxed == "travel guide" {
		// No destination to anchor on; fall back to the raw query.
		relaxed = primary
	}
	return []candidate{
		{params: travel.Params{"query": primary}, reason: "destination knowledge lookup"},
		{params: travel.Params{"query": relaxed}, reason: "broader knowledge lookup after an empty result"},
	}
}

func flightCandidates(goal *travel.Goal) []candidate {
	primary := travel.Params{
		"origin":      goal.Origin,
		"destination": goal.Destination,
		"travelers":   goal.Travelers,
	}
	if goal.DepartDate != "" {
		primary["depart_date"] = goal.DepartDate
	}
	if goal.ReturnDate != "" {
		primary["return_date"] = goal.ReturnDate
	}
	if goal.BudgetCap > 0 {
		primary["max_price"] = goal.BudgetCap
	}
	relaxed := travel.Params{
		"origin":      goal.Origin,
		"destination": goal.Destination,
		"travelers":   goal.Travelers,
	}
	return []candidate{
		{params: primary, reason: "flight search for the requested dates"},
		{params: relaxed, reason: "flexible-date flight search after an empty result"},
	}
}

func hotelCandidates(goal *travel.Goal) []candidate {
	primary := travel.Params{
		"city":   goal.Destination,
		"guests": goal.Travelers,
	}
	if goal.DepartDate != "" {
		primary["check_in"] = goal.DepartDate
	}
	if goal.ReturnDate != "" {
		primary["check_out"] = goal.ReturnDate
	}
	relaxed := travel.Params{"city": goal.Destination}
	return []candidate{
		{params: primary, reason: "hotel search for the stay window"},
		{params: relaxed, reason: "city-only hotel search after an empty result"},
	}
}

func dedupe(list []candidate) []candidate {
	seen := make(map[string]bool, len(list))
	out := list[:0]
	for _, c := range list {
		fp := c.params.Fingerprint()
		if seen[fp] {
			continue
		}
		seen[fp] = true
		out = append(out, c)
	}
	return out
}

// deadRequested returns the requested capabilities that ended in a fatal
// failure, but only when every one of them did; a single capability still
// alive means the plan is worth finalizing instead of aborting.
func deadRequested(goal *travel.Goal, snap *session.Snapshot) []travel.ActionKind {
	var dead []travel.ActionKind
	for _, kind := range travel.SearchKinds() {
		if !goal.Wants(kind) {
			continue
		}
		if !snap.FailedFatally(kind) {
			return nil
		}
		dead = append(dead, kind)
	}
	return dead
}

func finalizeReason(snap *session.Snapshot) string {
	total := snap.TotalResults()
	if total == 0 {
		return "no search produced results; composing an answer from what is known"
	}
	return fmt.Sprintf("collected %d results across %d steps", total, len(snap.Steps))
}
