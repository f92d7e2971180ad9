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
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Params carries the parameters of one planned action. Values are scalars or
// string lists; decisions decoded from JSON may also carry []any and float64.
type Params map[string]any

// Clone returns a copy safe to mutate independently. String slices are copied.
func (p Params) Clone() Params {
	if p == nil {
		return nil
	}
	out := make(Params, len(p))
	for k, v := range p {
		switch vv := v.(type) {
		case []string:
			out[k] = append([]string(nil), vv...)
		case []any:
			out[k] = append([]any(nil), vv...)
		default:
			out[k] = v
		}
	}
	return out
}

// Fingerprint returns a canonical, order-independent rendering of the
// parameters. Two parameter sets describing the same call produce the same
// fingerprint regardless of key order, list order, or numeric encoding.
func (p Params) Fingerprint() string {
	if len(p) == 0 {
		return ""
	}
	keys := make([]string, 0, len(p))
	for k := range p {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var b strings.Builder
	for i, k := range keys {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(canonicalValue(p[k]))
	}
	return b.String()
}

func canonicalValue(v any) string {
	switch vv := v.(type) {
	case nil:
		return ""
	case string:
		return vv
	case bool:
		return strconv.FormatBool(vv)
	case int:
		return strconv.Itoa(vv)
	case int64:
		return strconv.FormatInt(vv, 10)
	case float64:
		return strconv.FormatFloat(vv, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(vv), 'f', -1, 32)
	case []string:
		sorted := append([]string(nil), vv...)
		sort.Strings(sorted)
		return strings.Join(sorted, ",")
	case []any:
		sorted := make([]string, len(vv))
		for i, e := range vv {
			sorted[i] = canonicalValue(e)
		}
		sort.Strings(sorted)
		return strings.Join(sorted, ",")
	default:
		return fmt.Sprintf("%v", vv)
	}
}

// String returns the string value stored under key, or "" when absent or of
// another type.
func (p Params) String(key string) string {
	if v, ok := p[key].(string); ok {
		return v
	}
	return ""
}

// Int returns the integer value stored under key. JSON-decoded numbers
// arrive as float64 and are accepted when integral.
func (p Params) Int(key string) (int, bool) {
	switch v := p[key].(type) {
	case int:
		return v, true
	case int64:
		return int(v), true
	case float64:
		if v == float64(int(v)) {
			return int(v), true
		}
	}
	return 0, false
}

// Float returns the numeric value stored under key.
func (p Params) Float(key string) (float64, bool) {
	switch v := p[key].(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	}
	return 0, false
}

// StringSlice returns the string list stored under key. []any lists are
// converted element-wise; non-string elements are dropped.
func (p Params) StringSlice(key string) []string {
	switch v := p[key].(type) {
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, e := range v {
			if s, ok := e.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}
