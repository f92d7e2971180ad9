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

	"github.com/stretchr/testify/require"
)

// recordingLogger counts calls per level so the package-level functions can be
// verified without touching the real zap logger.
type recordingLogger struct {
	calls map[string]int
}

func newRecordingLogger() *recordingLogger {
	return &recordingLogger{calls: make(map[string]int)}
}

func (l *recordingLogger) Debug(args ...any)                 { l.calls["debug"]++ }
func (l *recordingLogger) Debugf(format string, args ...any) { l.calls["debugf"]++ }
func (l *recordingLogger) Info(args ...any)                  { l.calls["info"]++ }
func (l *recordingLogger) Infof(format string, args ...any)  { l.calls["infof"]++ }
func (l *recordingLogger) Warn(args ...any)                  { l.calls["warn"]++ }
func (l *recordingLogger) Warnf(format string, args ...any)  { l.calls["warnf"]++ }
func (l *recordingLogger) Error(args ...any)                 { l.calls["error"]++ }
func (l *recordingLogger) Errorf(format string, args ...any) { l.calls["errorf"]++ }
func (l *recordingLogger) Fatal(args ...any)                 { l.calls["fatal"]++ }
func (l *recordingLogger) Fatalf(format string, args ...any) { l.calls["fatalf"]++ }

func TestPackageFunctionsUseDefault(t *testing.T) {
	rec := newRecordingLogger()
	old := Default
	Default = rec
	defer func() { Default = old }()

	Debug("msg")
	Debugf("msg %d", 1)
	Info("msg")
	Infof("msg %d", 1)
	Warn("msg")
	Warnf("msg %d", 1)
	Error("msg")
	Errorf("msg %d", 1)
	Fatal("msg")
	Fatalf("msg %d", 1)

	for _, name := range []string{
		"debug", "debugf", "info", "infof", "warn",
		"warnf", "error", "errorf", "fatal", "fatalf",
	} {
		require.Equal(t, 1, rec.calls[name], "expected one %s call", name)
	}
}

func TestDefaultLoggerNotNil(t *testing.T) {
	require.NotNil(t, Default)
}
