//
// Tencent is pleased to support the open source community by making trip-agent-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trip-agent-go is licensed under the Apache License Version 2.0.
//
//

// Package travel defines the shared vocabulary of the planning orchestrator:
// trip requests and goals, normalized offers and knowledge snippets, and the
// parameter maps exchanged between the planner and the tool adapters.
package travel

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ActionKind identifies one capability the planner may invoke.
type ActionKind string

// Fixed action vocabulary.
const (
	ActionRetrieveKnowledge ActionKind = "retrieve_knowledge"
	ActionSearchFlights     ActionKind = "search_flights"
	ActionSearchHotels      ActionKind = "search_hotels"
	ActionFinalize          ActionKind = "finalize"
)

// IsValid reports whether the kind belongs to the fixed vocabulary.
func (k ActionKind) IsValid() bool {
	switch k {
	case ActionRetrieveKnowledge, ActionSearchFlights, ActionSearchHotels, ActionFinalize:
		return true
	}
	return false
}

// SearchKinds lists the kinds that invoke a tool adapter, in the order the
// rule strategy prefers them.
func SearchKinds() []ActionKind {
	return []ActionKind{ActionRetrieveKnowledge, ActionSearchFlights, ActionSearchHotels}
}

// Label returns the human-readable capability name used in answers and
// failure reasons.
func (k ActionKind) Label() string {
	switch k {
	case ActionRetrieveKnowledge:
		return "knowledge retrieval"
	case ActionSearchFlights:
		return "flight search"
	case ActionSearchHotels:
		return "hotel search"
	}
	return string(k)
}

// Request is an inbound travel request: free text plus optional structured
// fields. Location codes are kept verbatim ("WAW", "BCN"); dates use the
// ISO 2006-01-02 form when structured.
type Request struct {
	Text        string   `json:"text,omitempty"`
	Origin      string   `json:"origin,omitempty"`
	Destination string   `json:"destination,omitempty"`
	DepartDate  string   `json:"depart_date,omitempty"`
	ReturnDate  string   `json:"return_date,omitempty"`
	Travelers   int      `json:"travelers,omitempty"`
	BudgetCap   float64  `json:"budget_cap,omitempty"`
	Interests   []string `json:"interests,omitempty"`
}

// Validation errors returned by NewGoal.
var (
	ErrEmptyRequest = errors.New("travel request requires text or a destination")
)

const dateLayout = "2006-01-02"

// Goal is the validated, normalized form of a Request consumed by decision
// strategies and adapters.
type Goal struct {
	Query       string   `json:"query,omitempty"`
	Origin      string   `json:"origin,omitempty"`
	Destination string   `json:"destination,omitempty"`
	DepartDate  string   `json:"depart_date,omitempty"`
	ReturnDate  string   `json:"return_date,omitempty"`
	Travelers   int      `json:"travelers"`
	BudgetCap   float64  `json:"budget_cap,omitempty"`
	Interests   []string `json:"interests,omitempty"`
}

// NewGoal validates and normalizes a request. Free text and location codes
// are trimmed but otherwise preserved; travelers defaults to one.
func NewGoal(req Request) (*Goal, error) {
	g := &Goal{
		Query:       strings.TrimSpace(req.Text),
		Origin:      strings.TrimSpace(req.Origin),
		Destination: strings.TrimSpace(req.Destination),
		DepartDate:  strings.TrimSpace(req.DepartDate),
		ReturnDate:  strings.TrimSpace(req.ReturnDate),
		Travelers:   req.Travelers,
		BudgetCap:   req.BudgetCap,
	}
	if g.Query == "" && g.Destination == "" {
		return nil, ErrEmptyRequest
	}
	if g.Travelers < 0 {
		return nil, fmt.Errorf("travelers must not be negative, got %d", req.Travelers)
	}
	if g.Travelers == 0 {
		g.Travelers = 1
	}
	if g.BudgetCap < 0 {
		return nil, fmt.Errorf("budget cap must not be negative, got %v", req.BudgetCap)
	}
	for _, it := range req.Interests {
		if it = strings.TrimSpace(it); it != "" {
			g.Interests = append(g.Interests, it)
		}
	}
	if dep, err := time.Parse(dateLayout, g.DepartDate); err == nil {
		if ret, err := time.Parse(dateLayout, g.ReturnDate); err == nil && ret.Before(dep) {
			return nil, fmt.Errorf("return date %s precedes departure %s", g.ReturnDate, g.DepartDate)
		}
	}
	return g, nil
}

// Clone returns a copy safe to hand out in snapshots.
func (g *Goal) Clone() *Goal {
	if g == nil {
		return nil
	}
	out := *g
	out.Interests = append([]string(nil), g.Interests...)
	return &out
}

// WantsFlights reports whether the goal calls for a flight search.
func (g *Goal) WantsFlights() bool {
	return g.Origin != "" && g.Destination != ""
}

// WantsHotels reports whether the goal calls for a hotel search.
func (g *Goal) WantsHotels() bool {
	return g.Destination != ""
}

// WantsKnowledge reports whether the goal calls for knowledge retrieval.
func (g *Goal) WantsKnowledge() bool {
	return g.Destination != "" || g.Query != "" || len(g.Interests) > 0
}

// Wants reports whether the goal requests the given search capability.
func (g *Goal) Wants(kind ActionKind) bool {
	switch kind {
	case ActionRetrieveKnowledge:
		return g.WantsKnowledge()
	case ActionSearchFlights:
		return g.WantsFlights()
	case ActionSearchHotels:
		return g.WantsHotels()
	}
	return false
}
