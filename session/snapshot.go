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
	"sort"
	"time"

	"trpc.group/trpc-go/trip-agent-go/travel"
)

// Snapshot is an immutable copy of the plan state handed to decision
// strategies and the composer. Mutating a snapshot never affects the session.
type Snapshot struct {
	ID        string               `json:"id"`
	Goal      *travel.Goal         `json:"goal"`
	Status    Status               `json:"status"`
	Reason    string               `json:"reason,omitempty"`
	Steps     []Step               `json:"steps,omitempty"`
	Snippets  []travel.Snippet     `json:"snippets,omitempty"`
	Flights   []travel.FlightOffer `json:"flights,omitempty"`
	Hotels    []travel.HotelOffer  `json:"hotels,omitempty"`
	Remaining int                  `json:"remaining_steps"`
	// Tried maps each action kind to the parameter fingerprints that already
	// produced insufficient_data or fatal_failure, sorted for determinism.
	Tried     map[travel.ActionKind][]string `json:"tried,omitempty"`
	Deadline  time.Time                      `json:"deadline"`
	CreatedAt time.Time                      `json:"created_at"`
	UpdatedAt time.Time                      `json:"updated_at"`
}

// Snapshot returns a read-only copy of the current plan state.
func (s *Session) Snapshot() *Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := &Snapshot{
		ID:        s.id,
		Goal:      s.goal.Clone(),
		Status:    s.status,
		Reason:    s.reason,
		Remaining: s.remaining,
		Deadline:  s.deadline,
		CreatedAt: s.createdAt,
		UpdatedAt: s.updatedAt,
	}
	snap.Steps = make([]Step, len(s.steps))
	for i, st := range s.steps {
		st.Params = st.Params.Clone()
		snap.Steps[i] = st
	}
	snap.Snippets = append([]travel.Snippet(nil), s.snippets...)
	snap.Flights = append([]travel.FlightOffer(nil), s.flights...)
	snap.Hotels = append([]travel.HotelOffer(nil), s.hotels...)
	if len(s.tried) > 0 {
		snap.Tried = make(map[travel.ActionKind][]string, len(s.tried))
		for kind, set := range s.tried {
			fps := make([]string, 0, len(set))
			for fp := range set {
				fps = append(fps, fp)
			}
			sort.Strings(fps)
			snap.Tried[kind] = fps
		}
	}
	return snap
}

// HasTried reports whether the fingerprint is recorded for the kind.
func (sn *Snapshot) HasTried(kind travel.ActionKind, fingerprint string) bool {
	for _, fp := range sn.Tried[kind] {
		if fp == fingerprint {
			return true
		}
	}
	return false
}

// LastStep returns the most recent step, or nil when none ran yet.
func (sn *Snapshot) LastStep() *Step {
	if len(sn.Steps) == 0 {
		return nil
	}
	step := sn.Steps[len(sn.Steps)-1]
	return &step
}

// StepsOf returns the steps of one action kind in execution order.
func (sn *Snapshot) StepsOf(kind travel.ActionKind) []Step {
	var out []Step
	for _, st := range sn.Steps {
		if st.Kind == kind {
			out = append(out, st)
		}
	}
	return out
}

// Attempted reports whether any step of the kind was executed.
func (sn *Snapshot) Attempted(kind travel.ActionKind) bool {
	return len(sn.StepsOf(kind)) > 0
}

// Succeeded reports whether any step of the kind ended in success.
func (sn *Snapshot) Succeeded(kind travel.ActionKind) bool {
	for _, st := range sn.StepsOf(kind) {
		if st.Outcome == OutcomeSuccess {
			return true
		}
	}
	return false
}

// FailedFatally reports whether the kind produced a fatal failure and never
// a success.
func (sn *Snapshot) FailedFatally(kind travel.ActionKind) bool {
	fatal := false
	for _, st := range sn.StepsOf(kind) {
		switch st.Outcome {
		case OutcomeSuccess:
			return false
		case OutcomeFatalFailure:
			fatal = true
		}
	}
	return fatal
}

// TotalResults returns the number of collected facts and offers.
func (sn *Snapshot) TotalResults() int {
	return len(sn.Snippets) + len(sn.Flights) + len(sn.Hotels)
}
