//
// Tencent is pleased to support the open source community by making trip-agent-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trip-agent-go is licensed under the Apache License Version 2.0.
//
//

// Package gemini implements a planning strategy backed by the Google Gemini
// API. It speaks the same decision vocabulary as the OpenAI-backed strategy
// and degrades to the shared fallback verdict on any model failure.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"google.golang.org/genai"

	"trpc.group/trpc-go/trip-agent-go/log"
	"trpc.group/trpc-go/trip-agent-go/planner"
	"trpc.group/trpc-go/trip-agent-go/session"
)

// Verify that Strategy implements the planner.Strategy interface.
var _ planner.Strategy = (*Strategy)(nil)

const (
	// DefaultModel is the Gemini model consulted when none is configured.
	DefaultModel = "gemini-2.0-flash"
	// GoogleAPIKeyEnv is the environment variable name for the Google API key.
	GoogleAPIKeyEnv = "GOOGLE_API_KEY"

	defaultMaxOutputTokens = 512
)

// Strategy consults a Gemini model for planning decisions.
type Strategy struct {
	client         *genai.Client
	model          string
	apiKey         string
	clientOptions  *genai.ClientConfig
	requestOptions *genai.GenerateContentConfig
}

// Option represents a functional option for configuring the Strategy.
type Option func(*Strategy)

// WithModel sets the Gemini model to consult.
func WithModel(model string) Option {
	return func(s *Strategy) {
		s.model = model
	}
}

// WithAPIKey sets the Google API key.
// If not provided, will use GOOGLE_API_KEY environment variable.
// APIKey priority: WithClientOptions > WithAPIKey > GOOGLE_API_KEY environment variable.
func WithAPIKey(apiKey string) Option {
	return func(s *Strategy) {
		s.apiKey = apiKey
	}
}

// WithClientOptions sets additional options for the Gemini client config.
// APIKey priority: WithClientOptions > WithAPIKey > GOOGLE_API_KEY environment variable.
func WithClientOptions(clientOptions *genai.ClientConfig) Option {
	return func(s *Strategy) {
		c := *clientOptions
		s.clientOptions = &c
	}
}

// WithRequestOptions sets additional options for the generate requests.
func WithRequestOptions(requestOptions *genai.GenerateContentConfig) Option {
	return func(s *Strategy) {
		r := *requestOptions
		s.requestOptions = &r
	}
}

// New creates a new Gemini-backed strategy with the given options.
func New(ctx context.Context, opts ...Option) (*Strategy, error) {
	s := &Strategy{
		model:          DefaultModel,
		apiKey:         os.Getenv(GoogleAPIKeyEnv),
		clientOptions:  &genai.ClientConfig{},
		requestOptions: &genai.GenerateContentConfig{},
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.clientOptions.APIKey == "" {
		s.clientOptions.APIKey = s.apiKey
	}
	if s.clientOptions.APIKey == "" {
		return nil, fmt.Errorf("GOOGLE_API_KEY is not provided")
	}
	client, err := genai.NewClient(ctx, s.clientOptions)
	if err != nil {
		return nil, err
	}
	s.client = client
	return s, nil
}

// Name implements planner.Strategy.
func (s *Strategy) Name() string { return "gemini/" + s.model }

// Decide sends the plan state to Gemini and parses its decision. Model and
// transport failures both resolve through planner.FallbackDecision.
func (s *Strategy) Decide(ctx context.Context, snap *session.Snapshot) (*planner.Decision, error) {
	state, err := planner.DigestSnapshot(snap)
	if err != nil {
		return nil, err
	}
	// Remove the `models/` prefix from the model id if it exists.
	model := strings.TrimPrefix(s.model, "models/")
	contents := []*genai.Content{genai.NewContentFromText(state, genai.RoleUser)}
	config := *s.requestOptions
	if config.SystemInstruction == nil {
		config.SystemInstruction = genai.NewContentFromText(planner.SystemInstruction, genai.RoleUser)
	}
	if config.Temperature == nil {
		temperature := float32(0)
		config.Temperature = &temperature
	}
	if config.MaxOutputTokens == 0 {
		config.MaxOutputTokens = defaultMaxOutputTokens
	}
	if config.ResponseMIMEType == "" {
		config.ResponseMIMEType = "application/json"
	}

	resp, err := s.client.Models.GenerateContent(ctx, model, contents, &config)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		log.Warnf("session %s: generate content failed: %v", snap.ID, err)
		return planner.FallbackDecision(snap, "generate content failed"), nil
	}
	raw, err := responseText(resp)
	if err != nil {
		log.Warnf("session %s: %v", snap.ID, err)
		return planner.FallbackDecision(snap, err.Error()), nil
	}
	decision, err := planner.ParseDecision(raw)
	if err != nil {
		log.Warnf("session %s: unusable model decision: %v", snap.ID, err)
		return planner.FallbackDecision(snap, "unparseable model decision"), nil
	}
	return decision, nil
}

func responseText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", errors.New("response carried no candidates")
	}
	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if part != nil && part.Text != "" {
			sb.WriteString(part.Text)
		}
	}
	if sb.Len() == 0 {
		return "", errors.New("response carried no text")
	}
	return sb.String(), nil
}
