//
// Tencent is pleased to support the open source community by making trip-agent-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trip-agent-go is licensed under the Apache License Version 2.0.
//
//

// Package llm implements a planning strategy backed by an OpenAI-compatible
// chat completion API. The model receives the decision vocabulary as a system
// prompt and the plan state as a JSON digest, and must answer with a single
// JSON decision object. Anything the model gets wrong degrades to the shared
// fallback verdict, never to a broken loop.
package llm

import (
	"context"
	"errors"
	"os"

	openai "github.com/openai/openai-go"
	openaiopt "github.com/openai/openai-go/option"
	"github.com/openai/openai-go/shared"

	"trpc.group/trpc-go/trip-agent-go/log"
	"trpc.group/trpc-go/trip-agent-go/planner"
	"trpc.group/trpc-go/trip-agent-go/session"
)

// Verify that Strategy implements the planner.Strategy interface.
var _ planner.Strategy = (*Strategy)(nil)

// Defaults for the OpenAI-backed strategy.
const (
	// DefaultModel is the chat model consulted when none is configured.
	DefaultModel = "gpt-4o-mini"
	// OpenAIAPIKeyEnv is the environment variable holding the API key.
	OpenAIAPIKeyEnv = "OPENAI_API_KEY"

	defaultTemperature = 0.0
	defaultMaxTokens   = 512
)

// decisionSchema constrains the model's response shape. params stays
// free-form (each action takes different keys), so OpenAI strict mode is off.
var decisionSchema = map[string]any{
	"type": "object",
	"properties": map[string]any{
		"action": map[string]any{
			"type": "string",
			"enum": []string{
				"retrieve_knowledge", "search_flights", "search_hotels",
				"finalize", "abort",
			},
		},
		"params": map[string]any{
			"type":                 "object",
			"additionalProperties": true,
		},
		"reason": map[string]any{"type": "string"},
	},
	"required":             []string{"action"},
	"additionalProperties": false,
}

// Strategy consults an OpenAI-compatible chat model for planning decisions.
type Strategy struct {
	client      openai.Client
	model       string
	apiKey      string
	baseURL     string
	temperature float64
	maxTokens   int64
	extraOpts   []openaiopt.RequestOption
}

// Option configures the strategy.
type Option func(*Strategy)

// WithModel sets the chat model name.
func WithModel(model string) Option {
	return func(s *Strategy) {
		s.model = model
	}
}

// WithAPIKey sets the API key. If not provided, the OPENAI_API_KEY
// environment variable is used.
func WithAPIKey(apiKey string) Option {
	return func(s *Strategy) {
		s.apiKey = apiKey
	}
}

// WithBaseURL points the client at an OpenAI-compatible endpoint.
func WithBaseURL(baseURL string) Option {
	return func(s *Strategy) {
		s.baseURL = baseURL
	}
}

// WithTemperature overrides the default temperature of 0.
func WithTemperature(temperature float64) Option {
	return func(s *Strategy) {
		s.temperature = temperature
	}
}

// WithExtraOptions appends raw openai-go request options to the client.
func WithExtraOptions(opts ...openaiopt.RequestOption) Option {
	return func(s *Strategy) {
		s.extraOpts = append(s.extraOpts, opts...)
	}
}

// New creates an OpenAI-backed strategy.
func New(opts ...Option) *Strategy {
	s := &Strategy{
		model:       DefaultModel,
		apiKey:      os.Getenv(OpenAIAPIKeyEnv),
		temperature: defaultTemperature,
		maxTokens:   defaultMaxTokens,
	}
	for _, opt := range opts {
		opt(s)
	}
	var clientOpts []openaiopt.RequestOption
	if s.apiKey != "" {
		clientOpts = append(clientOpts, openaiopt.WithAPIKey(s.apiKey))
	}
	if s.baseURL != "" {
		clientOpts = append(clientOpts, openaiopt.WithBaseURL(s.baseURL))
	}
	clientOpts = append(clientOpts, s.extraOpts...)
	s.client = openai.NewClient(clientOpts...)
	return s
}

// Name implements planner.Strategy.
func (s *Strategy) Name() string { return "llm/" + s.model }

// Decide sends the plan state to the model and parses its decision. Model and
// transport failures both resolve through planner.FallbackDecision so a flaky
// model cannot wedge the session.
func (s *Strategy) Decide(ctx context.Context, snap *session.Snapshot) (*planner.Decision, error) {
	state, err := planner.DigestSnapshot(snap)
	if err != nil {
		return nil, err
	}
	req := openai.ChatCompletionNewParams{
		Model: shared.ChatModel(s.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			{
				OfSystem: &openai.ChatCompletionSystemMessageParam{
					Content: openai.ChatCompletionSystemMessageParamContentUnion{
						OfString: openai.String(planner.SystemInstruction),
					},
				},
			},
			{
				OfUser: &openai.ChatCompletionUserMessageParam{
					Content: openai.ChatCompletionUserMessageParamContentUnion{
						OfString: openai.String(state),
					},
				},
			},
		},
		Temperature:         openai.Float(s.temperature),
		MaxCompletionTokens: openai.Int(s.maxTokens),
		ResponseFormat: openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONSchema: &shared.ResponseFormatJSONSchemaParam{
				JSONSchema: shared.ResponseFormatJSONSchemaJSONSchemaParam{
					Name:        "planning_decision",
					Schema:      decisionSchema,
					Strict:      openai.Bool(false),
					Description: openai.String("The next planning decision."),
				},
			},
		},
	}

	completion, err := s.client.Chat.Completions.New(ctx, req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		log.Warnf("session %s: chat completion failed: %v", snap.ID, err)
		return planner.FallbackDecision(snap, "completion request failed"), nil
	}
	raw, err := firstChoiceContent(completion)
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

func firstChoiceContent(completion *openai.ChatCompletion) (string, error) {
	if completion == nil || len(completion.Choices) == 0 {
		return "", errors.New("completion carried no choices")
	}
	content := completion.Choices[0].Message.Content
	if content == "" {
		return "", errors.New("completion carried no content")
	}
	return content, nil
}
