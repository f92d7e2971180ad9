//
// Tencent is pleased to support the open source community by making trip-agent-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trip-agent-go is licensed under the Apache License Version 2.0.
//
//

// Package tool defines the adapter contract between the planning orchestrator
// and the external search and retrieval capabilities, together with the shared
// adapter error taxonomy and the kind-indexed registry.
package tool

import (
	"context"

	"trpc.group/trpc-go/trip-agent-go/travel"
)

// Adapter is the uniform call interface to one external capability. Adapters
// are stateless between invocations and safe for concurrent use across
// sessions.
type Adapter interface {
	// Declaration returns the metadata describing the adapter.
	Declaration() *Declaration

	// Invoke performs one call with the given parameters. It returns a
	// normalized result (possibly empty) or an *AdapterError describing why
	// the call produced nothing usable.
	Invoke(ctx context.Context, params travel.Params) (*Result, error)
}

// Declaration describes an adapter: the action kind it serves, what it does,
// and the parameters it accepts.
type Declaration struct {
	// Kind is the action vocabulary entry the adapter serves.
	Kind travel.ActionKind `json:"kind"`

	// Description explains the capability for decision strategies.
	Description string `json:"description"`

	// InputSchema defines the accepted parameters in JSON schema form.
	InputSchema *Schema `json:"inputSchema,omitempty"`
}

// Schema is a minimal JSON Schema node used to describe adapter parameters.
type Schema struct {
	Type        string             `json:"type"`
	Description string             `json:"description,omitempty"`
	Required    []string           `json:"required,omitempty"`
	Properties  map[string]*Schema `json:"properties,omitempty"`
	Items       *Schema            `json:"items,omitempty"`
	Minimum     *float64           `json:"minimum,omitempty"`
	Maximum     *float64           `json:"maximum,omitempty"`
}

// Result carries the normalized output of one adapter invocation. Any of the
// collections may be empty; an all-empty result is valid and means the call
// succeeded but matched nothing.
type Result struct {
	Snippets []travel.Snippet     `json:"snippets,omitempty"`
	Flights  []travel.FlightOffer `json:"flights,omitempty"`
	Hotels   []travel.HotelOffer  `json:"hotels,omitempty"`
}

// Empty reports whether the result carries no usable entries.
func (r *Result) Empty() bool {
	return r == nil || len(r.Snippets)+len(r.Flights)+len(r.Hotels) == 0
}

// Count returns the total number of entries across all collections.
func (r *Result) Count() int {
	if r == nil {
		return 0
	}
	return len(r.Snippets) + len(r.Flights) + len(r.Hotels)
}
