//
// Tencent is pleased to support the open source community by making trip-agent-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trip-agent-go is licensed under the Apache License Version 2.0.
//
//

// Package knowledge provides the retrieval adapter for the travel knowledge
// base collaborator. The service answers hybrid search queries over ingested
// travel documents and is treated as a black box: one idempotent query in,
// a ranked list of snippets out.
package knowledge

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"trpc.group/trpc-go/trip-agent-go/internal/rest"
	"trpc.group/trpc-go/trip-agent-go/tool"
	"trpc.group/trpc-go/trip-agent-go/travel"
)

const (
	// searchPath is the query endpoint of the knowledge base service.
	searchPath = "/api/v1/search/query"
	// defaultTopK is the number of snippets requested when unspecified.
	defaultTopK = 5
	// minTopK and maxTopK bound top_k; the service rejects values outside.
	minTopK = 1
	maxTopK = 20
	// defaultSearchType matches the service default.
	defaultSearchType = "hybrid"
	// defaultTimeout is the per-request timeout.
	defaultTimeout = 10 * time.Second
)

var searchTypes = map[string]bool{"hybrid": true, "vector": true, "bm25": true}

// Option is a functional option for configuring the adapter.
type Option func(*config)

// config holds the configuration for the adapter.
type config struct {
	timeout    time.Duration
	httpClient *http.Client
}

// WithTimeout sets the per-request timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(c *config) {
		c.timeout = timeout
	}
}

// WithHTTPClient sets the HTTP client to use.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *config) {
		c.httpClient = httpClient
	}
}

// Adapter retrieves knowledge snippets from the knowledge base service.
type Adapter struct {
	client *rest.Client
}

var _ tool.Adapter = (*Adapter)(nil)

// New creates a knowledge retrieval adapter rooted at baseURL.
func New(baseURL string, opts ...Option) *Adapter {
	cfg := &config{timeout: defaultTimeout}
	for _, opt := range opts {
		opt(cfg)
	}
	restOpts := []rest.Option{rest.WithTimeout(cfg.timeout)}
	if cfg.httpClient != nil {
		restOpts = append(restOpts, rest.WithHTTPClient(cfg.httpClient))
	}
	return &Adapter{client: rest.New(baseURL, restOpts...)}
}

// Declaration implements tool.Adapter.
func (a *Adapter) Declaration() *tool.Declaration {
	minK, maxK := float64(minTopK), float64(maxTopK)
	return &tool.Declaration{
		Kind: travel.ActionRetrieveKnowledge,
		Description: "Search the travel knowledge base for destination facts: " +
			"attractions, neighborhoods, seasonal advice, local transport.",
		InputSchema: &tool.Schema{
			Type:     "object",
			Required: []string{"query"},
			Properties: map[string]*tool.Schema{
				"query": {Type: "string", Description: "Free-text search query."},
				"top_k": {
					Type:        "integer",
					Description: "How many snippets to return.",
					Minimum:     &minK,
					Maximum:     &maxK,
				},
				"search_type": {
					Type:        "string",
					Description: "One of hybrid, vector, bm25.",
				},
			},
		},
	}
}

// searchRequest is the query endpoint body.
type searchRequest struct {
	Query string `json:"query"`
}

// searchResult is one ranked hit; provenance hides in the metadata map under
// "source" or "filename" depending on how the document was ingested.
type searchResult struct {
	Content  string         `json:"content"`
	Metadata map[string]any `json:"metadata"`
	Score    float64        `json:"score"`
}

// searchResponse is the query endpoint response.
type searchResponse struct {
	Query        string         `json:"query"`
	Results      []searchResult `json:"results"`
	TotalResults int            `json:"total_results"`
}

// Invoke implements tool.Adapter. An empty hit list is a valid result, not an
// error.
func (a *Adapter) Invoke(ctx context.Context, params travel.Params) (*tool.Result, error) {
	query := strings.TrimSpace(params.String("query"))
	if query == "" {
		return nil, tool.NewError(tool.CodeInvalidParameters, "query must not be empty")
	}
	topK := defaultTopK
	if k, ok := params.Int("top_k"); ok {
		if k < minTopK || k > maxTopK {
			return nil, tool.Errorf(tool.CodeInvalidParameters,
				"top_k must be between %d and %d, got %d", minTopK, maxTopK, k)
		}
		topK = k
	}
	searchType := defaultSearchType
	if st := params.String("search_type"); st != "" {
		if !searchTypes[st] {
			return nil, tool.Errorf(tool.CodeInvalidParameters, "unknown search_type %q", st)
		}
		searchType = st
	}

	// top_k and search_type ride in the query string, the query in the body.
	q := url.Values{}
	q.Set("top_k", strconv.Itoa(topK))
	q.Set("search_type", searchType)
	path := fmt.Sprintf("%s?%s", searchPath, q.Encode())

	var resp searchResponse
	if err := a.client.PostJSON(ctx, path, searchRequest{Query: query}, &resp); err != nil {
		return nil, err
	}

	out := &tool.Result{}
	for _, hit := range resp.Results {
		if strings.TrimSpace(hit.Content) == "" {
			continue
		}
		out.Snippets = append(out.Snippets, travel.Snippet{
			Content: hit.Content,
			Source:  snippetSource(hit.Metadata),
			Score:   hit.Score,
		})
	}
	return out, nil
}

func snippetSource(metadata map[string]any) string {
	for _, key := range []string{"source", "filename"} {
		if s, ok := metadata[key].(string); ok && s != "" {
			return s
		}
	}
	return ""
}
