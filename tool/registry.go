//
// Tencent is pleased to support the open source community by making trip-agent-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trip-agent-go is licensed under the Apache License Version 2.0.
//
//

package tool

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"trpc.group/trpc-go/trip-agent-go/travel"
)

// Registry errors.
var (
	ErrNilAdapter = errors.New("adapter cannot be nil")
)

// Registry indexes adapters by the action kind they serve. It is safe for
// concurrent use; registered adapters are shared across sessions.
type Registry struct {
	mu       sync.RWMutex
	adapters map[travel.ActionKind]Adapter
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{adapters: make(map[travel.ActionKind]Adapter)}
}

// Register adds an adapter under its declared kind. Registering a second
// adapter for the same kind is an error.
func (r *Registry) Register(a Adapter) error {
	if a == nil {
		return ErrNilAdapter
	}
	decl := a.Declaration()
	if decl == nil {
		return errors.New("adapter declaration cannot be nil")
	}
	if !decl.Kind.IsValid() || decl.Kind == travel.ActionFinalize {
		return fmt.Errorf("adapter kind %q is not an invocable action", decl.Kind)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.adapters[decl.Kind]; exists {
		return fmt.Errorf("adapter for kind %q already registered", decl.Kind)
	}
	r.adapters[decl.Kind] = a
	return nil
}

// Get returns the adapter registered for kind.
func (r *Registry) Get(kind travel.ActionKind) (Adapter, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.adapters[kind]
	return a, ok
}

// Kinds returns the registered action kinds in deterministic order.
func (r *Registry) Kinds() []travel.ActionKind {
	r.mu.RLock()
	defer r.mu.RUnlock()
	kinds := make([]travel.ActionKind, 0, len(r.adapters))
	for k := range r.adapters {
		kinds = append(kinds, k)
	}
	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })
	return kinds
}

// Declarations returns the declarations of all registered adapters in
// deterministic order, for prompt construction and capability listings.
func (r *Registry) Declarations() []*Declaration {
	kinds := r.Kinds()
	r.mu.RLock()
	defer r.mu.RUnlock()
	decls := make([]*Declaration, 0, len(kinds))
	for _, k := range kinds {
		if a, ok := r.adapters[k]; ok {
			decls = append(decls, a.Declaration())
		}
	}
	return decls
}
