//
// Tencent is pleased to support the open source community by making trip-agent-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trip-agent-go is licensed under the Apache License Version 2.0.
//
//

// Package telemetry holds the shared observability vocabulary of the
// planning orchestrator: service identity, span names, attribute keys, and
// the helpers that record sessions and steps on spans.
package telemetry

import (
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"trpc.group/trpc-go/trip-agent-go/session"
)

// Service identity constants.
const (
	ServiceName      = "tripagent"
	ServiceVersion   = "v0.1.0"
	ServiceNamespace = "trpc-go-trip"
	InstrumentName   = "trpc.trip.agent"

	SpanNamePlanSession       = "plan_session"
	SpanNamePrefixExecuteStep = "execute_step"
)

const (
	// ProtocolGRPC uses gRPC protocol for OTLP exporters.
	ProtocolGRPC string = "grpc"
	// ProtocolHTTP uses HTTP protocol for OTLP exporters.
	ProtocolHTTP string = "http"
)

// Telemetry attribute keys.
var (
	KeySessionID      = "trpc.go.trip.session_id"
	KeySessionStatus  = "trpc.go.trip.session_status"
	KeySessionReason  = "trpc.go.trip.session_reason"
	KeySessionSteps   = "trpc.go.trip.session_steps"
	KeySessionResults = "trpc.go.trip.session_results"
	KeyStrategy       = "trpc.go.trip.strategy"
	KeyStepKind       = "trpc.go.trip.step_kind"
	KeyStepOutcome    = "trpc.go.trip.step_outcome"
	KeyStepAttempts   = "trpc.go.trip.step_attempts"
	KeyStepResults    = "trpc.go.trip.step_results"
	KeyStepError      = "trpc.go.trip.step_error"
)

// NewExecuteStepSpanName formats the span name for one step execution.
func NewExecuteStepSpanName(kind string) string {
	if kind == "" {
		return SpanNamePrefixExecuteStep
	}
	return fmt.Sprintf("%s %s", SpanNamePrefixExecuteStep, kind)
}

// TraceStep records a committed step on the span.
func TraceStep(span trace.Span, sessionID string, step session.Step) {
	span.SetAttributes(
		attribute.String(KeySessionID, sessionID),
		attribute.String(KeyStepKind, string(step.Kind)),
		attribute.String(KeyStepOutcome, string(step.Outcome)),
		attribute.Int(KeyStepAttempts, step.Attempts),
		attribute.Int(KeyStepResults, step.Results),
	)
	if step.Error != "" {
		span.SetAttributes(attribute.String(KeyStepError, step.Error))
	}
}

// TraceSession records the terminal plan state on the span.
func TraceSession(span trace.Span, snap *session.Snapshot, strategy string) {
	if snap == nil {
		return
	}
	span.SetAttributes(
		attribute.String(KeySessionID, snap.ID),
		attribute.String(KeySessionStatus, string(snap.Status)),
		attribute.String(KeyStrategy, strategy),
		attribute.Int(KeySessionSteps, len(snap.Steps)),
		attribute.Int(KeySessionResults, snap.TotalResults()),
	)
	if snap.Reason != "" {
		span.SetAttributes(attribute.String(KeySessionReason, snap.Reason))
	}
}

// NewGRPCConn builds the gRPC connection the OTLP exporters share.
func NewGRPCConn(endpoint string) (*grpc.ClientConn, error) {
	// It connects the OpenTelemetry Collector through gRPC connection.
	conn, err := grpc.Dial(endpoint,
		// Note the use of insecure transport here. TLS is recommended in production.
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create gRPC connection to collector: %w", err)
	}

	return conn, err
}
