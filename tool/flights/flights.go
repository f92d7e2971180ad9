//
// Tencent is pleased to support the open source community by making trip-agent-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trip-agent-go is licensed under the Apache License Version 2.0.
//
//

// Package flights provides the search adapter for the flight search
// collaborator. The service ranks offers internally; the adapter only
// normalizes them and enforces the parameter contract.
package flights

import (
	"context"
	"net/http"
	"strings"
	"time"

	"trpc.group/trpc-go/trip-agent-go/internal/rest"
	"trpc.group/trpc-go/trip-agent-go/tool"
	"trpc.group/trpc-go/trip-agent-go/travel"
)

const (
	// searchPath is the flight search endpoint.
	searchPath = "/api/v1/flights/search"
	// defaultProvider labels offers whose provider field came back empty.
	defaultProvider = "flights"
	// defaultTimeout is the per-request timeout.
	defaultTimeout = 10 * time.Second
)

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

// Adapter searches flight offers through the flight search service.
type Adapter struct {
	client *rest.Client
}

var _ tool.Adapter = (*Adapter)(nil)

// New creates a flight search adapter rooted at baseURL.
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
	return &tool.Declaration{
		Kind: travel.ActionSearchFlights,
		Description: "Search flight offers between two locations for given " +
			"dates. Returns ranked offers with price and schedule.",
		InputSchema: &tool.Schema{
			Type:     "object",
			Required: []string{"origin", "destination"},
			Properties: map[string]*tool.Schema{
				"origin":      {Type: "string", Description: "Departure location code, e.g. WAW."},
				"destination": {Type: "string", Description: "Arrival location code, e.g. BCN."},
				"depart_date": {Type: "string", Description: "Departure date, 2006-01-02."},
				"return_date": {Type: "string", Description: "Return date for round trips."},
				"travelers":   {Type: "integer", Description: "Number of travelers."},
				"max_price":   {Type: "number", Description: "Upper price bound per traveler."},
			},
		},
	}
}

// searchRequest is the flight search body.
type searchRequest struct {
	Origin      string  `json:"origin"`
	Destination string  `json:"destination"`
	DepartDate  string  `json:"depart_date,omitempty"`
	ReturnDate  string  `json:"return_date,omitempty"`
	Travelers   int     `json:"travelers,omitempty"`
	MaxPrice    float64 `json:"max_price,omitempty"`
}

// searchResponse is the flight search response.
type searchResponse struct {
	Offers []travel.FlightOffer `json:"offers"`
}

// Invoke implements tool.Adapter. An empty offer list is a valid result, not
// an error.
func (a *Adapter) Invoke(ctx context.Context, params travel.Params) (*tool.Result, error) {
	req := searchRequest{
		Origin:      strings.TrimSpace(params.String("origin")),
		Destination: strings.TrimSpace(params.String("destination")),
		DepartDate:  strings.TrimSpace(params.String("depart_date")),
		ReturnDate:  strings.TrimSpace(params.String("return_date")),
	}
	if req.Origin == "" || req.Destination == "" {
		return nil, tool.NewError(tool.CodeInvalidParameters,
			"origin and destination are required")
	}
	if n, ok := params.Int("travelers"); ok {
		if n < 1 {
			return nil, tool.Errorf(tool.CodeInvalidParameters,
				"travelers must be at least 1, got %d", n)
		}
		req.Travelers = n
	}
	if p, ok := params.Float("max_price"); ok {
		if p < 0 {
			return nil, tool.Errorf(tool.CodeInvalidParameters,
				"max_price must not be negative, got %v", p)
		}
		req.MaxPrice = p
	}

	var resp searchResponse
	if err := a.client.PostJSON(ctx, searchPath, req, &resp); err != nil {
		return nil, err
	}

	out := &tool.Result{}
	for _, offer := range resp.Offers {
		if offer.ID == "" {
			continue
		}
		if offer.Provider == "" {
			offer.Provider = defaultProvider
		}
		out.Flights = append(out.Flights, offer)
	}
	return out, nil
}
