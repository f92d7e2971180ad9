//
// Tencent is pleased to support the open source community by making trip-agent-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trip-agent-go is licensed under the Apache License Version 2.0.
//
//

// Package planner drives a planning session to a terminal status. The loop
// owns the session invariants: budget and wall-clock checks before every
// decision, decision validation, no-repeat enforcement against the session's
// tried sets, and the final status transition. Strategies only answer one
// question: given this snapshot, what next?
package planner

import (
	"context"
	"errors"
	"fmt"

	"trpc.group/trpc-go/trip-agent-go/executor"
	"trpc.group/trpc-go/trip-agent-go/log"
	"trpc.group/trpc-go/trip-agent-go/session"
)

// Terminal reasons the loop assigns on its own authority.
const (
	ReasonCancelled     = "cancelled"
	ReasonStepsExceeded = "step budget exhausted"
	ReasonClockExceeded = "wall-clock budget exceeded"
)

// ErrNilSession is returned when Run is called without a session.
var ErrNilSession = errors.New("planner: nil session")

// Strategy decides the next action for a session. Implementations must be
// safe for concurrent use: one strategy value serves many sessions, and all
// per-session state lives in the snapshot.
type Strategy interface {
	// Name identifies the strategy in logs.
	Name() string
	// Decide returns the next decision for the given plan state.
	Decide(ctx context.Context, snap *session.Snapshot) (*Decision, error)
}

// Planner runs the decide-execute loop for planning sessions.
type Planner struct {
	strategy Strategy
	exec     *executor.Executor
}

// New creates a Planner that consults strategy and executes tool steps
// through exec.
func New(strategy Strategy, exec *executor.Executor) *Planner {
	return &Planner{strategy: strategy, exec: exec}
}

// Run drives the session until it is terminal and returns the final status.
// Domain endings (completed, failed, exhausted) are encoded in the status and
// the session reason; the error return is reserved for misuse such as a nil
// session.
func (p *Planner) Run(ctx context.Context, sess *session.Session) (session.Status, error) {
	if sess == nil {
		return "", ErrNilSession
	}
	log.Infof("session %s: planning %q with strategy %s",
		sess.ID(), sess.Goal().Destination, p.strategy.Name())

	for {
		if status := sess.Status(); status.Terminal() {
			return status, nil
		}
		if ctx.Err() != nil {
			return p.finish(sess, session.StatusFailed, ReasonCancelled)
		}
		if sess.Expired() {
			return p.finish(sess, session.StatusExhausted, ReasonClockExceeded)
		}
		if sess.Remaining() <= 0 {
			return p.finish(sess, session.StatusExhausted, ReasonStepsExceeded)
		}

		decision, err := p.decide(ctx, sess)
		if err != nil {
			reason := err.Error()
			if ctx.Err() != nil {
				reason = ReasonCancelled
			}
			return p.finish(sess, session.StatusFailed, reason)
		}

		switch decision.Action {
		case ActionFinalize:
			return p.finish(sess, session.StatusCompleted, decision.Reason)
		case ActionAbort:
			return p.finish(sess, session.StatusFailed, decision.Reason)
		}

		kind, _ := decision.Action.Kind()
		step, err := p.exec.Execute(ctx, sess, kind, decision.Params)
		if err != nil {
			if errors.Is(err, session.ErrBudgetExhausted) {
				return p.finish(sess, session.StatusExhausted, ReasonStepsExceeded)
			}
			return p.finish(sess, session.StatusFailed, err.Error())
		}
		log.Debugf("session %s: step %d (%s) ended %s",
			sess.ID(), step.Sequence, step.Kind, step.Outcome)
	}
}

// decide consults the strategy and enforces the decision contract. A decision
// that re-issues a (kind, fingerprint) pair the session already wrote off is
// rejected and the strategy consulted once more; a second dead decision fails
// the consultation so the loop cannot livelock on a stuck strategy.
func (p *Planner) decide(ctx context.Context, sess *session.Session) (*Decision, error) {
	snap := sess.Snapshot()
	var last *Decision
	for consult := 0; consult < 2; consult++ {
		decision, err := p.strategy.Decide(ctx, snap)
		if err != nil {
			return nil, fmt.Errorf("strategy %s: %w", p.strategy.Name(), err)
		}
		if err := decision.Validate(); err != nil {
			return nil, fmt.Errorf("strategy %s: %w", p.strategy.Name(), err)
		}
		kind, invocable := decision.Action.Kind()
		if !invocable || !snap.HasTried(kind, decision.Params.Fingerprint()) {
			return decision, nil
		}
		last = decision
		log.Warnf("session %s: strategy %s repeated a dead decision %s; consulting once more",
			snap.ID, p.strategy.Name(), decision)
	}
	return nil, fmt.Errorf("strategy %s repeated dead decision %s", p.strategy.Name(), last)
}

// finish moves the session to a terminal status. A session that raced to a
// terminal state already keeps its first verdict.
func (p *Planner) finish(sess *session.Session, status session.Status, reason string) (session.Status, error) {
	if err := sess.Finish(status, reason); err != nil {
		return sess.Status(), nil
	}
	log.Infof("session %s: %s (%s)", sess.ID(), status, reason)
	return status, nil
}
