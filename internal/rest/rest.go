//
// Tencent is pleased to support the open source community by making trip-agent-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trip-agent-go is licensed under the Apache License Version 2.0.
//
//

// Package rest provides the JSON-over-HTTP client shared by the remote tool
// adapters, including the mapping from transport failures and response status
// codes to the adapter error taxonomy.
package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"trpc.group/trpc-go/trip-agent-go/tool"
)

const (
	// defaultTimeout is the default timeout for HTTP requests.
	defaultTimeout = 10 * time.Second
	// defaultUserAgent is the default user agent for HTTP requests.
	defaultUserAgent = "trip-agent-go/1.0"
	// maxErrorBody caps how much of a failure payload is kept for messages.
	maxErrorBody = 512
)

// Option is a functional option for configuring the client.
type Option func(*Client)

// WithHTTPClient sets the HTTP client to use.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithUserAgent sets the user agent for HTTP requests.
func WithUserAgent(userAgent string) Option {
	return func(c *Client) {
		c.userAgent = userAgent
	}
}

// WithTimeout sets the request timeout of the default HTTP client. It has no
// effect when WithHTTPClient is also given.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.timeout = timeout
	}
}

// Client posts JSON requests to one collaborator service.
type Client struct {
	httpClient *http.Client
	baseURL    string
	userAgent  string
	timeout    time.Duration
}

// New creates a client rooted at baseURL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:   strings.TrimRight(baseURL, "/"),
		userAgent: defaultUserAgent,
		timeout:   defaultTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.httpClient == nil {
		c.httpClient = &http.Client{Timeout: c.timeout}
	}
	return c
}

// BaseURL returns the configured service root.
func (c *Client) BaseURL() string { return c.baseURL }

// PostJSON sends in as a JSON body to path and decodes the JSON response into
// out. Every failure is returned as an *tool.AdapterError: transport errors
// and 5xx map to unavailable, 429 to rate_limited, 400/422 to
// invalid_parameters, 404 to no_results.
func (c *Client) PostJSON(ctx context.Context, path string, in, out any) error {
	payload, err := json.Marshal(in)
	if err != nil {
		return tool.WrapError(tool.CodeInvalidParameters, "encoding request", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return tool.WrapError(tool.CodeInvalidParameters, "building request", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		// Deadline and cancellation stay visible through the wrapped cause.
		return tool.WrapError(tool.CodeUnavailable, "performing request", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return statusError(resp)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return tool.WrapError(tool.CodeUnavailable, "reading response", err)
	}
	if err := json.Unmarshal(body, out); err != nil {
		return tool.WrapError(tool.CodeUnavailable, "decoding response", err)
	}
	return nil
}

// statusError maps a non-200 response to the adapter error taxonomy.
func statusError(resp *http.Response) *tool.AdapterError {
	detail := readDetail(resp)
	switch resp.StatusCode {
	case http.StatusTooManyRequests:
		return tool.Errorf(tool.CodeRateLimited, "status %d: %s", resp.StatusCode, detail)
	case http.StatusNotFound:
		return tool.Errorf(tool.CodeNoResults, "status %d: %s", resp.StatusCode, detail)
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return tool.Errorf(tool.CodeInvalidParameters, "status %d: %s", resp.StatusCode, detail)
	default:
		return tool.Errorf(tool.CodeUnavailable, "status %d: %s", resp.StatusCode, detail)
	}
}

// readDetail extracts a short failure description from an error payload. The
// collaborator services wrap theirs as {"detail": "..."}.
func readDetail(resp *http.Response) string {
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if err != nil || len(body) == 0 {
		return http.StatusText(resp.StatusCode)
	}
	var wrapped struct {
		Detail string `json:"detail"`
	}
	if err := json.Unmarshal(body, &wrapped); err == nil && wrapped.Detail != "" {
		return wrapped.Detail
	}
	if text := strings.TrimSpace(string(body)); text != "" {
		return text
	}
	return http.StatusText(resp.StatusCode)
}
