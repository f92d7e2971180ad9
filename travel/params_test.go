//
// Tencent is pleased to support the open source community by making trip-agent-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trip-agent-go is licensed under the Apache License Version 2.0.
//
//

package travel

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParams_FingerprintOrderIndependent(t *testing.T) {
	t.Parallel()

	a := Params{"origin": "WAW", "destination": "BCN", "top_k": 5}
	b := Params{"top_k": float64(5), "destination": "BCN", "origin": "WAW"}
	require.Equal(t, a.Fingerprint(), b.Fingerprint(),
		"key order and JSON numeric encoding must not change the fingerprint")

	c := Params{"interests": []string{"tapas", "gaudi"}}
	d := Params{"interests": []any{"gaudi", "tapas"}}
	require.Equal(t, c.Fingerprint(), d.Fingerprint(),
		"list order and element typing must not change the fingerprint")
}

func TestParams_FingerprintDistinguishes(t *testing.T) {
	t.Parallel()

	a := Params{"query": "beaches near Barcelona"}
	b := Params{"query": "museums in Barcelona"}
	require.NotEqual(t, a.Fingerprint(), b.Fingerprint())
	require.Empty(t, Params{}.Fingerprint())
	require.Empty(t, Params(nil).Fingerprint())
}

func TestParams_Accessors(t *testing.T) {
	t.Parallel()

	p := Params{
		"query":     "old town",
		"top_k":     float64(7),
		"budget":    1200.5,
		"interests": []any{"food", 3, "art"},
	}
	require.Equal(t, "old town", p.String("query"))
	require.Equal(t, "", p.String("missing"))

	n, ok := p.Int("top_k")
	require.True(t, ok)
	require.Equal(t, 7, n)
	_, ok = p.Int("budget")
	require.False(t, ok, "non-integral float is not an int")

	f, ok := p.Float("budget")
	require.True(t, ok)
	require.Equal(t, 1200.5, f)

	require.Equal(t, []string{"food", "art"}, p.StringSlice("interests"))
	require.Nil(t, p.StringSlice("query"))
}

func TestParams_Clone(t *testing.T) {
	t.Parallel()

	p := Params{"query": "x", "interests": []string{"a"}}
	q := p.Clone()
	q["query"] = "y"
	q.StringSlice("interests")[0] = "b"
	require.Equal(t, "x", p.String("query"))
	require.Equal(t, []string{"a"}, p.StringSlice("interests"))
}
