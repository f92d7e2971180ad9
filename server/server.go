//
// Tencent is pleased to support the open source community by making trip-agent-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trip-agent-go is licensed under the Apache License Version 2.0.
//
//

// Package server exposes the planning orchestrator over HTTP. One endpoint
// plans one trip; callers receive a composed answer whatever the session's
// terminal status, never a raw adapter error.
package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/cors"

	"trpc.group/trpc-go/trip-agent-go/log"
	"trpc.group/trpc-go/trip-agent-go/runner"
	"trpc.group/trpc-go/trip-agent-go/tool"
	"trpc.group/trpc-go/trip-agent-go/travel"
)

// API paths.
const (
	PathPlan         = "/api/v1/plan"
	PathHealthz      = "/api/v1/healthz"
	PathCapabilities = "/api/v1/capabilities"
)

// ErrNilRunner is returned by New when no runner is given.
var ErrNilRunner = errors.New("server: nil runner")

// Server routes planning requests to a runner.
type Server struct {
	runner   *runner.Runner
	registry *tool.Registry
	router   *mux.Router
	origins  []string
}

// Option configures the Server instance.
type Option func(*Server)

// WithCORSOrigins sets the allowed CORS origins. Defaults to all.
func WithCORSOrigins(origins []string) Option {
	return func(s *Server) {
		if len(origins) > 0 {
			s.origins = origins
		}
	}
}

// WithRegistry lets the capability listing describe the registered adapters.
func WithRegistry(registry *tool.Registry) Option {
	return func(s *Server) { s.registry = registry }
}

// New creates an HTTP server around the runner.
func New(r *runner.Runner, opts ...Option) (*Server, error) {
	if r == nil {
		return nil, ErrNilRunner
	}
	s := &Server{
		runner:  r,
		router:  mux.NewRouter(),
		origins: []string{"*"},
	}
	for _, opt := range opts {
		opt(s)
	}

	c := cors.New(cors.Options{
		AllowedOrigins:   s.origins,
		AllowCredentials: true,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		ExposedHeaders:   []string{"Content-Length", "Content-Type"},
	})
	s.router.Use(c.Handler)
	s.registerRoutes()
	return s, nil
}

// Handler returns the http.Handler for the server.
func (s *Server) Handler() http.Handler { return s.router }

func (s *Server) registerRoutes() {
	s.router.HandleFunc(PathPlan, s.handlePlan).Methods(http.MethodPost)
	s.router.HandleFunc(PathHealthz, s.handleHealthz).Methods(http.MethodGet)
	s.router.HandleFunc(PathCapabilities, s.handleCapabilities).Methods(http.MethodGet)

	// OPTIONS handler to allow CORS pre-flight.
	s.router.HandleFunc(PathPlan, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}).Methods(http.MethodOptions)
}

// planRequest is the plan endpoint body: the travel request inline, plus
// per-session budget overrides applied at session start.
type planRequest struct {
	travel.Request

	// MaxSteps overrides the session step budget when positive.
	MaxSteps int `json:"max_steps,omitempty"`
	// WallClock overrides the session wall-clock budget, e.g. "90s".
	WallClock string `json:"wall_clock,omitempty"`
}

// errorResponse is the JSON body of a rejected request.
type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handlePlan(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	var req planRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "decoding request body: "+err.Error())
		return
	}
	var opts []runner.RunOption
	if req.MaxSteps > 0 {
		opts = append(opts, runner.WithMaxSteps(req.MaxSteps))
	}
	if req.WallClock != "" {
		budget, err := time.ParseDuration(req.WallClock)
		if err != nil || budget <= 0 {
			s.writeError(w, http.StatusBadRequest, "wall_clock must be a positive duration such as \"90s\"")
			return
		}
		opts = append(opts, runner.WithWallClockBudget(budget))
	}

	answer, err := s.runner.Plan(r.Context(), req.Request, opts...)
	if err != nil {
		// Plan errors only on caller mistakes; session failures arrive as
		// answers with a terminal status.
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	log.Infof("planned session %s: status=%s in %s", answer.SessionID, answer.Status, time.Since(start))
	s.writeJSON(w, http.StatusOK, answer)
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleCapabilities lists the registered adapter declarations so clients can
// discover which capabilities a deployment serves.
func (s *Server) handleCapabilities(w http.ResponseWriter, r *http.Request) {
	decls := []*tool.Declaration{}
	if s.registry != nil {
		decls = s.registry.Declarations()
	}
	s.writeJSON(w, http.StatusOK, decls)
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Errorf("writing response: %v", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	log.Warnf("rejecting request: %s", message)
	s.writeJSON(w, status, errorResponse{Error: message})
}
