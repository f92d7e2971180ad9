//
// Tencent is pleased to support the open source community by making trip-agent-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trip-agent-go is licensed under the Apache License Version 2.0.
//
//

// Package hotels provides the search adapter for the hotel search
// collaborator. Offer fields follow the upstream hotel catalog vocabulary:
// name, city, rating, price, amenities, provider.
package hotels

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
	// searchPath is the hotel search endpoint.
	searchPath = "/api/v1/hotels/search"
	// defaultProvider labels offers whose provider field came back empty.
	defaultProvider = "hotels"
	// defaultTimeout is the per-request timeout.
	defaultTimeout = 10 * time.Second
	// maxRating is the top of the rating scale.
	maxRating = 5.0
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

// Adapter searches hotel offers through the hotel search service.
type Adapter struct {
	client *rest.Client
}

var _ tool.Adapter = (*Adapter)(nil)

// New creates a hotel search adapter rooted at baseURL.
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
	maxR := maxRating
	return &tool.Declaration{
		Kind: travel.ActionSearchHotels,
		Description: "Search hotel offers in a city for given dates. Returns " +
			"ranked offers with price, rating and amenities.",
		InputSchema: &tool.Schema{
			Type:     "object",
			Required: []string{"city"},
			Properties: map[string]*tool.Schema{
				"city":       {Type: "string", Description: "Destination city or location code."},
				"check_in":   {Type: "string", Description: "Check-in date, 2006-01-02."},
				"check_out":  {Type: "string", Description: "Check-out date, 2006-01-02."},
				"guests":     {Type: "integer", Description: "Number of guests."},
				"min_rating": {Type: "number", Description: "Lowest acceptable rating.", Maximum: &maxR},
				"amenities": {
					Type:        "array",
					Description: "Required amenities, e.g. wifi, pool.",
					Items:       &tool.Schema{Type: "string"},
				},
			},
		},
	}
}

// searchRequest is the hotel search body.
type searchRequest struct {
	City      string   `json:"city"`
	CheckIn   string   `json:"check_in,omitempty"`
	CheckOut  string   `json:"check_out,omitempty"`
	Guests    int      `json:"guests,omitempty"`
	MinRating float64  `json:"min_rating,omitempty"`
	Amenities []string `json:"amenities,omitempty"`
}

// searchResponse is the hotel search response.
type searchResponse struct {
	Offers []travel.HotelOffer `json:"offers"`
}

// Invoke implements tool.Adapter. An empty offer list is a valid result, not
// an error.
func (a *Adapter) Invoke(ctx context.Context, params travel.Params) (*tool.Result, error) {
	req := searchRequest{
		City:      strings.TrimSpace(params.String("city")),
		CheckIn:   strings.TrimSpace(params.String("check_in")),
		CheckOut:  strings.TrimSpace(params.String("check_out")),
		Amenities: params.StringSlice("amenities"),
	}
	if req.City == "" {
		return nil, tool.NewError(tool.CodeInvalidParameters, "city is required")
	}
	if n, ok := params.Int("guests"); ok {
		if n < 1 {
			return nil, tool.Errorf(tool.CodeInvalidParameters,
				"guests must be at least 1, got %d", n)
		}
		req.Guests = n
	}
	if r, ok := params.Float("min_rating"); ok {
		if r < 0 || r > maxRating {
			return nil, tool.Errorf(tool.CodeInvalidParameters,
				"min_rating must be between 0 and %v, got %v", maxRating, r)
		}
		req.MinRating = r
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
		out.Hotels = append(out.Hotels, offer)
	}
	return out, nil
}
