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
	"errors"
	"fmt"
	"strings"

	"trpc.group/trpc-go/trip-agent-go/travel"
)

// Action is what a strategy decides to do next. The search actions mirror the
// tool vocabulary; finalize and abort are verdicts about the session itself.
type Action string

// Predefined actions.
const (
	ActionRetrieveKnowledge = Action(travel.ActionRetrieveKnowledge)
	ActionSearchFlights     = Action(travel.ActionSearchFlights)
	ActionSearchHotels      = Action(travel.ActionSearchHotels)
	ActionFinalize          = Action(travel.ActionFinalize)
	ActionAbort             Action = "abort"
)

// String returns the string representation of the action.
func (a Action) String() string { return string(a) }

// IsValid reports whether the action is part of the decision vocabulary.
func (a Action) IsValid() bool {
	switch a {
	case ActionRetrieveKnowledge, ActionSearchFlights, ActionSearchHotels,
		ActionFinalize, ActionAbort:
		return true
	default:
		return false
	}
}

// Terminal reports whether the action ends the planning loop.
func (a Action) Terminal() bool {
	return a == ActionFinalize || a == ActionAbort
}

// Kind returns the tool action this decision invokes, or false for terminal
// actions.
func (a Action) Kind() (travel.ActionKind, bool) {
	switch a {
	case ActionRetrieveKnowledge, ActionSearchFlights, ActionSearchHotels:
		return travel.ActionKind(a), true
	default:
		return "", false
	}
}

// Decision is one strategy output: the next action, its tool parameters, and
// the strategy's stated reason. The struct is JSON-serializable so model-backed
// strategies can emit it as structured output.
type Decision struct {
	Action Action        `json:"action"`
	Params travel.Params `json:"params,omitempty"`
	Reason string        `json:"reason,omitempty"`
}

// Validate checks that the decision is well formed and carries the fields its
// action requires.
func (d *Decision) Validate() error {
	if d == nil {
		return errors.New("decision is nil")
	}
	if !d.Action.IsValid() {
		return fmt.Errorf("unknown action %q", d.Action)
	}
	switch d.Action {
	case ActionFinalize, ActionAbort:
		if strings.TrimSpace(d.Reason) == "" {
			return fmt.Errorf("a reason is required to %s", d.Action)
		}
	case ActionRetrieveKnowledge:
		if strings.TrimSpace(d.Params.String("query")) == "" {
			return errors.New("retrieve_knowledge requires params.query")
		}
	case ActionSearchFlights:
		if strings.TrimSpace(d.Params.String("origin")) == "" ||
			strings.TrimSpace(d.Params.String("destination")) == "" {
			return errors.New("search_flights requires params.origin and params.destination")
		}
	case ActionSearchHotels:
		if strings.TrimSpace(d.Params.String("city")) == "" {
			return errors.New("search_hotels requires params.city")
		}
	}
	return nil
}

// String returns a compact one-line description for logs.
func (d *Decision) String() string {
	if d == nil {
		return "<nil decision>"
	}
	var sb strings.Builder
	sb.WriteString(string(d.Action))
	if len(d.Params) > 0 {
		sb.WriteString("(")
		sb.WriteString(d.Params.Fingerprint())
		sb.WriteString(")")
	}
	if d.Reason != "" {
		sb.WriteString(": ")
		sb.WriteString(d.Reason)
	}
	return sb.String()
}

// ParseDecision decodes a strategy's JSON output and validates it. Extra
// fields (model commentary, confidence scores) are tolerated; a malformed or
// invalid decision is returned as an error for the strategy's fallback.
func ParseDecision(raw string) (*Decision, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, errors.New("empty decision payload")
	}
	var d Decision
	if err := json.Unmarshal([]byte(raw), &d); err != nil {
		return nil, fmt.Errorf("decoding decision: %w", err)
	}
	if err := d.Validate(); err != nil {
		return nil, fmt.Errorf("invalid decision: %w", err)
	}
	return &d, nil
}
