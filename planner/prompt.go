//
// Tencent is pleased to support the open source community by making trip-agent-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trip-agent-go is licensed under the Apache License Version 2.0.
//
//

package planner

import (
	"encoding/json"
	"fmt"

	"trpc.group/trpc-go/trip-agent-go/session"
	"trpc.group/trpc-go/trip-agent-go/travel"
)

// maxDigestSteps bounds how much step history a model sees per consultation.
const maxDigestSteps = 8

// SystemInstruction is the shared system prompt for model-backed strategies.
// It describes the decision vocabulary that ParseDecision accepts.
const SystemInstruction = `You direct a travel planning loop by choosing one next action at a time.
Respond to every message with exactly one JSON object and nothing else:
{"action": "...", "params": {...}, "reason": "..."}

Actions:
- "retrieve_knowledge": look up destination facts. params: {"query": string, "top_k": integer 1-20 (optional)}.
- "search_flights": params: {"origin": string, "destination": string, "depart_date": "YYYY-MM-DD" (optional), "return_date": "YYYY-MM-DD" (optional), "travelers": integer (optional), "max_price": number (optional)}.
- "search_hotels": params: {"city": string, "check_in": "YYYY-MM-DD" (optional), "check_out": "YYYY-MM-DD" (optional), "guests": integer (optional), "min_rating": number (optional), "amenities": [string] (optional)}.
- "finalize": stop searching and compose the itinerary from everything collected. params: none. "reason" required.
- "abort": give up because no useful search remains. params: none. "reason" required.

Rules:
- The plan state lists tried parameter fingerprints per action. Never re-issue a tried fingerprint; vary the parameters or move on.
- Every search spends one unit of "remaining" budget. Finalize before it reaches zero.
- After an "insufficient_data" outcome, broaden or relax the parameters instead of repeating them.
- After a "fatal_failure" outcome, plan without that capability.
- Finalize as soon as the collected results cover the request. Do not search for things the request never asked for.`

// digest is the compact plan-state rendering sent to models.
type digest struct {
	Goal      *travel.Goal                   `json:"goal"`
	Remaining int                            `json:"remaining"`
	Collected map[string]int                 `json:"collected"`
	Steps     []stepDigest                   `json:"steps,omitempty"`
	Tried     map[travel.ActionKind][]string `json:"tried,omitempty"`
}

type stepDigest struct {
	Kind    travel.ActionKind `json:"kind"`
	Outcome session.Outcome   `json:"outcome"`
	Results int               `json:"results"`
	Error   string            `json:"error,omitempty"`
}

// DigestSnapshot renders the snapshot as the compact JSON plan state model
// strategies send as the user message.
func DigestSnapshot(snap *session.Snapshot) (string, error) {
	if snap == nil {
		return "", fmt.Errorf("nil snapshot")
	}
	d := digest{
		Goal:      snap.Goal,
		Remaining: snap.Remaining,
		Collected: map[string]int{
			"snippets": len(snap.Snippets),
			"flights":  len(snap.Flights),
			"hotels":   len(snap.Hotels),
		},
		Tried: snap.Tried,
	}
	steps := snap.Steps
	if len(steps) > maxDigestSteps {
		steps = steps[len(steps)-maxDigestSteps:]
	}
	for _, st := range steps {
		d.Steps = append(d.Steps, stepDigest{
			Kind:    st.Kind,
			Outcome: st.Outcome,
			Results: st.Results,
			Error:   st.Error,
		})
	}
	raw, err := json.Marshal(d)
	if err != nil {
		return "", fmt.Errorf("marshalling plan state: %w", err)
	}
	return string(raw), nil
}

// FallbackDecision is the verdict used when a model cannot be consulted or
// its output cannot be parsed: finalize when the session already holds
// results, abort otherwise. The loop's invariants never depend on model
// behavior.
func FallbackDecision(snap *session.Snapshot, cause string) *Decision {
	if snap != nil && snap.TotalResults() > 0 {
		return &Decision{
			Action: ActionFinalize,
			Reason: fmt.Sprintf("model guidance unavailable (%s); composing from collected results", cause),
		}
	}
	return &Decision{
		Action: ActionAbort,
		Reason: fmt.Sprintf("model guidance unavailable (%s) before any results were collected", cause),
	}
}
