//
// Tencent is pleased to support the open source community by making trip-agent-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trip-agent-go is licensed under the Apache License Version 2.0.
//
//

// Package knowledgedir provides an offline knowledge retrieval adapter backed
// by a local document directory. It serves the same action kind and parameter
// contract as the remote knowledge adapter, so development and test rigs can
// run without the knowledge base service. Scoring is plain term overlap; no
// embeddings or index construction.
package knowledgedir

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"

	"trpc.group/trpc-go/trip-agent-go/tool"
	"trpc.group/trpc-go/trip-agent-go/travel"
)

const (
	// defaultPattern selects the document files under the root.
	defaultPattern = "**/*.{md,txt}"
	// defaultTopK is the number of snippets returned when unspecified.
	defaultTopK = 5
	// minTopK and maxTopK mirror the remote adapter's contract.
	minTopK = 1
	maxTopK = 20
	// defaultMaxFileSize is the largest document file read, 1MB.
	defaultMaxFileSize = 1024 * 1024
	// minTermLength filters out short, low-signal query terms.
	minTermLength = 3
)

// Option is a functional option for configuring the adapter.
type Option func(*config)

// config holds the configuration for the adapter.
type config struct {
	patterns    []string
	maxFileSize int64
}

// WithPatterns sets the glob patterns selecting document files, replacing the
// default. Patterns use doublestar syntax relative to the root.
func WithPatterns(patterns ...string) Option {
	return func(c *config) {
		c.patterns = patterns
	}
}

// WithMaxFileSize sets the largest document file read, in bytes.
func WithMaxFileSize(n int64) Option {
	return func(c *config) {
		c.maxFileSize = n
	}
}

// document is one scored retrieval unit: a paragraph of a source file.
type document struct {
	content string
	source  string
	terms   map[string]bool
}

// Adapter retrieves knowledge snippets from a local document directory. The
// document set is loaded once at construction and immutable afterwards, so
// the adapter is safe for concurrent use.
type Adapter struct {
	root string
	docs []document
}

var _ tool.Adapter = (*Adapter)(nil)

// New creates an adapter over the documents under root.
func New(root string, opts ...Option) (*Adapter, error) {
	cfg := &config{
		patterns:    []string{defaultPattern},
		maxFileSize: defaultMaxFileSize,
	}
	for _, opt := range opts {
		opt(cfg)
	}
	if _, err := os.Stat(root); err != nil {
		return nil, fmt.Errorf("knowledge directory %s: %w", root, err)
	}
	a := &Adapter{root: root}
	fsys := os.DirFS(root)
	seen := map[string]bool{}
	for _, pattern := range cfg.patterns {
		matches, err := doublestar.Glob(fsys, pattern)
		if err != nil {
			return nil, fmt.Errorf("matching pattern %q: %w", pattern, err)
		}
		for _, match := range matches {
			if match == "" || seen[match] {
				continue
			}
			seen[match] = true
			if err := a.loadFile(match, cfg.maxFileSize); err != nil {
				return nil, err
			}
		}
	}
	return a, nil
}

func (a *Adapter) loadFile(rel string, maxSize int64) error {
	path := filepath.Join(a.root, rel)
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return err
	}
	if info.Size() > maxSize {
		return nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading document %s: %w", path, err)
	}
	for _, para := range splitParagraphs(string(data)) {
		a.docs = append(a.docs, document{
			content: para,
			source:  rel,
			terms:   termSet(para),
		})
	}
	return nil
}

// Declaration implements tool.Adapter.
func (a *Adapter) Declaration() *tool.Declaration {
	minK, maxK := float64(minTopK), float64(maxTopK)
	return &tool.Declaration{
		Kind: travel.ActionRetrieveKnowledge,
		Description: "Search a local travel document directory for destination " +
			"facts. Offline stand-in for the knowledge base service.",
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
			},
		},
	}
}

// Invoke implements tool.Adapter. Scores are the fraction of query terms
// present in the paragraph; zero-overlap paragraphs are not returned.
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
	if err := ctx.Err(); err != nil {
		return nil, tool.WrapError(tool.CodeUnavailable, "context done", err)
	}

	queryTerms := termSet(query)
	if len(queryTerms) == 0 {
		return nil, tool.NewError(tool.CodeInvalidParameters, "query has no searchable terms")
	}

	type scored struct {
		doc   document
		score float64
	}
	var hits []scored
	for _, doc := range a.docs {
		matched := 0
		for term := range queryTerms {
			if doc.terms[term] {
				matched++
			}
		}
		if matched == 0 {
			continue
		}
		hits = append(hits, scored{doc: doc, score: float64(matched) / float64(len(queryTerms))})
	}
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].score > hits[j].score })
	if len(hits) > topK {
		hits = hits[:topK]
	}

	out := &tool.Result{}
	for _, h := range hits {
		out.Snippets = append(out.Snippets, travel.Snippet{
			Content: h.doc.content,
			Source:  h.doc.source,
			Score:   h.score,
		})
	}
	return out, nil
}

// splitParagraphs breaks a document into non-empty paragraphs.
func splitParagraphs(content string) []string {
	content = strings.ReplaceAll(content, "\r\n", "\n")
	var out []string
	for _, para := range strings.Split(content, "\n\n") {
		if para = strings.TrimSpace(para); para != "" {
			out = append(out, para)
		}
	}
	return out
}

// termSet folds text and collects its searchable terms.
func termSet(text string) map[string]bool {
	folded := cases.Fold().String(norm.NFKC.String(text))
	terms := make(map[string]bool)
	for _, field := range strings.Fields(folded) {
		term := strings.Trim(field, ".,;:!?()[]{}\"'`#*-")
		if len(term) >= minTermLength {
			terms[term] = true
		}
	}
	return terms
}
