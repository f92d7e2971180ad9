//
// Tencent is pleased to support the open source community by making trip-agent-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trip-agent-go is licensed under the Apache License Version 2.0.
//
//

package log

import (
	"testing"

	"go.uber.org/zap/zapcore"
)

// TestSetLevel verifies that SetLevel updates the atomic level shared with the
// default logger core, including the fallback for unknown level names.
func TestSetLevel(t *testing.T) {
	cases := []struct {
		in       string
		expected zapcore.Level
	}{
		{LevelDebug, zapcore.DebugLevel},
		{LevelInfo, zapcore.InfoLevel},
		{LevelWarn, zapcore.WarnLevel},
		{LevelError, zapcore.ErrorLevel},
		{LevelFatal, zapcore.FatalLevel},
		{"unknown", zapcore.InfoLevel}, // default branch
	}

	for _, c := range cases {
		SetLevel(c.in)
		if got := zapLevel.Level(); got != c.expected {
			t.Fatalf("SetLevel(%q) = %v; want %v", c.in, got, c.expected)
		}
	}
	SetLevel(LevelInfo)
}
