//
// Tencent is pleased to support the open source community by making trip-agent-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trip-agent-go is licensed under the Apache License Version 2.0.
//
//

// Package session holds the plan state of one planning session: the goal,
// the ordered step history, the accumulated facts and offers, the budgets,
// and the per-kind tried-parameter fingerprints. A session is owned by
// exactly one planner invocation and is the single source of truth for it.
package session

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"trpc.group/trpc-go/trip-agent-go/tool"
	"trpc.group/trpc-go/trip-agent-go/travel"
)

// Status is the lifecycle state of a planning session. Transitions are
// one-directional: active moves to exactly one terminal status and never
// back.
type Status string

// Session statuses.
const (
	StatusActive    Status = "active"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
	StatusExhausted Status = "exhausted"
)

// Terminal reports whether the status ends the session.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed || s == StatusExhausted
}

// Outcome classifies one executed step.
type Outcome string

// Step outcomes.
const (
	OutcomePending          Outcome = "pending"
	OutcomeSuccess          Outcome = "success"
	OutcomeRetryableFailure Outcome = "retryable_failure"
	OutcomeFatalFailure     Outcome = "fatal_failure"
	OutcomeInsufficientData Outcome = "insufficient_data"
)

// Step is one tool invocation and its outcome within a session.
type Step struct {
	// Sequence is the 1-based position of the step, strictly increasing.
	Sequence int `json:"sequence"`
	// Kind is the invoked action.
	Kind travel.ActionKind `json:"kind"`
	// Params are the parameters the planner chose.
	Params travel.Params `json:"params,omitempty"`
	// Outcome classifies the execution result.
	Outcome Outcome `json:"outcome"`
	// Attempts counts adapter calls including retries.
	Attempts int `json:"attempts"`
	// Latency is the total execution time across attempts.
	Latency time.Duration `json:"latency"`
	// Error holds the final failure description, if any.
	Error string `json:"error,omitempty"`
	// Results counts the entries the step contributed after deduplication.
	Results int `json:"results"`
}

// Config bounds one session. The zero value selects the defaults; values are
// fixed at session creation and never read from ambient state mid-session.
type Config struct {
	// MaxSteps is the step budget: the hard ceiling of executed steps.
	MaxSteps int `json:"max_steps"`
	// WallClockBudget bounds the session in real time.
	WallClockBudget time.Duration `json:"wall_clock_budget"`
}

// Session budget defaults.
const (
	DefaultMaxSteps        = 12
	DefaultWallClockBudget = 2 * time.Minute
)

func (c Config) withDefaults() Config {
	if c.MaxSteps <= 0 {
		c.MaxSteps = DefaultMaxSteps
	}
	if c.WallClockBudget <= 0 {
		c.WallClockBudget = DefaultWallClockBudget
	}
	return c
}

// Session state errors.
var (
	// ErrTerminal is returned when mutating a session that already ended.
	ErrTerminal = errors.New("session is not active")
	// ErrStepInFlight is returned when a second step is begun concurrently.
	ErrStepInFlight = errors.New("a step is already in flight")
	// ErrNoStepInFlight is returned when committing without a begun step.
	ErrNoStepInFlight = errors.New("no matching step is in flight")
	// ErrBudgetExhausted is returned when beginning a step with no budget left.
	ErrBudgetExhausted = errors.New("step budget exhausted")
)

// Session is the mutable plan state of one planning session. All methods are
// safe for concurrent use, though the planner drives a session strictly
// sequentially.
type Session struct {
	id        string
	request   travel.Request
	goal      *travel.Goal
	createdAt time.Time
	deadline  time.Time

	mu        sync.RWMutex
	status    Status
	reason    string
	steps     []Step
	inFlight  bool
	remaining int
	tried     map[travel.ActionKind]map[string]bool
	snippets  []travel.Snippet
	flights   []travel.FlightOffer
	hotels    []travel.HotelOffer
	seen      map[string]bool
	updatedAt time.Time
}

// New creates an active session for the goal with the given bounds.
func New(req travel.Request, goal *travel.Goal, cfg Config) *Session {
	cfg = cfg.withDefaults()
	now := time.Now()
	return &Session{
		id:        uuid.New().String(),
		request:   req,
		goal:      goal.Clone(),
		createdAt: now,
		deadline:  now.Add(cfg.WallClockBudget),
		status:    StatusActive,
		remaining: cfg.MaxSteps,
		tried:     make(map[travel.ActionKind]map[string]bool),
		seen:      make(map[string]bool),
		updatedAt: now,
	}
}

// ID returns the session identifier.
func (s *Session) ID() string { return s.id }

// Goal returns a copy of the session goal.
func (s *Session) Goal() *travel.Goal { return s.goal.Clone() }

// Request returns the original travel request.
func (s *Session) Request() travel.Request { return s.request }

// CreatedAt returns the creation time.
func (s *Session) CreatedAt() time.Time { return s.createdAt }

// Deadline returns the wall-clock bound of the session.
func (s *Session) Deadline() time.Time { return s.deadline }

// Expired reports whether the wall-clock budget has run out.
func (s *Session) Expired() bool { return time.Now().After(s.deadline) }

// Status returns the current lifecycle state.
func (s *Session) Status() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.status
}

// Reason returns the terminal reason, empty while active.
func (s *Session) Reason() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.reason
}

// Remaining returns the step budget left.
func (s *Session) Remaining() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.remaining
}

// BeginStep opens the next step with a strictly increasing sequence number.
// A session admits exactly one in-flight step at a time.
func (s *Session) BeginStep(kind travel.ActionKind, params travel.Params) (Step, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.status != StatusActive {
		return Step{}, fmt.Errorf("beginning step: %w", ErrTerminal)
	}
	if s.inFlight {
		return Step{}, ErrStepInFlight
	}
	if s.remaining <= 0 {
		return Step{}, ErrBudgetExhausted
	}
	step := Step{
		Sequence: len(s.steps) + 1,
		Kind:     kind,
		Params:   params.Clone(),
		Outcome:  OutcomePending,
	}
	s.steps = append(s.steps, step)
	s.inFlight = true
	s.updatedAt = time.Now()
	return step, nil
}

// CommitStep finishes the in-flight step: the outcome, the contributed
// results, and the budget decrement are applied atomically under one lock,
// so readers never observe a half-applied step. It returns the step as
// recorded, with Results set to the number of entries that survived
// deduplication.
func (s *Session) CommitStep(step Step, res *tool.Result) (Step, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.inFlight || len(s.steps) == 0 || s.steps[len(s.steps)-1].Sequence != step.Sequence {
		return Step{}, ErrNoStepInFlight
	}
	step.Results = s.appendResultsLocked(res)
	s.steps[len(s.steps)-1] = step
	s.remaining--
	s.inFlight = false
	s.updatedAt = time.Now()
	return step, nil
}

// appendResultsLocked merges a result into the collections, preserving
// insertion order and dropping entries whose normalized key was seen before.
// It returns the number of entries actually added.
func (s *Session) appendResultsLocked(res *tool.Result) int {
	if res == nil {
		return 0
	}
	added := 0
	for _, sn := range res.Snippets {
		if key := "snippet/" + sn.Key(); !s.seen[key] {
			s.seen[key] = true
			s.snippets = append(s.snippets, sn)
			added++
		}
	}
	for _, f := range res.Flights {
		if key := "flight/" + f.Key(); !s.seen[key] {
			s.seen[key] = true
			s.flights = append(s.flights, f)
			added++
		}
	}
	for _, h := range res.Hotels {
		if key := "hotel/" + h.Key(); !s.seen[key] {
			s.seen[key] = true
			s.hotels = append(s.hotels, h)
			added++
		}
	}
	return added
}

// MarkTried records a parameter fingerprint for an action kind so the
// planner never re-issues the same call after it produced nothing.
func (s *Session) MarkTried(kind travel.ActionKind, fingerprint string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	set := s.tried[kind]
	if set == nil {
		set = make(map[string]bool)
		s.tried[kind] = set
	}
	set[fingerprint] = true
	s.updatedAt = time.Now()
}

// Tried reports whether the fingerprint was already recorded for the kind.
func (s *Session) Tried(kind travel.ActionKind, fingerprint string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tried[kind][fingerprint]
}

// Finish moves the session to a terminal status with a reason. Transitions
// out of a terminal status are rejected.
func (s *Session) Finish(status Status, reason string) error {
	if !status.Terminal() {
		return fmt.Errorf("status %q is not terminal", status)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.status != StatusActive {
		return fmt.Errorf("finishing as %q: %w", status, ErrTerminal)
	}
	s.status = status
	s.reason = reason
	s.updatedAt = time.Now()
	return nil
}
