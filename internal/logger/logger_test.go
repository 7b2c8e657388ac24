package logger

import (
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestParseLevel(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input   string
		want    zapcore.Level
		wantErr bool
	}{
		{input: "", want: zapcore.InfoLevel},
		{input: "DEBUG", want: zapcore.DebugLevel},
		{input: " warning ", want: zapcore.WarnLevel},
		{input: "error", want: zapcore.ErrorLevel},
		{input: "verbose", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			t.Parallel()
			got, err := ParseLevel(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected an error for %q", tt.input)
				}
				return
			}
			if err != nil {
				t.Fatalf("parse %q: %v", tt.input, err)
			}
			if got != tt.want {
				t.Fatalf("expected %s, got %s", tt.want, got)
			}
		})
	}
}

func TestNewRejectsUnknownLevel(t *testing.T) {
	if _, err := New(Options{Level: "loud"}); err == nil {
		t.Fatalf("expected an error")
	}
}

func TestNewHonoursLevel(t *testing.T) {
	l, err := New(Options{JSON: true, Level: "warn"})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if l.Core().Enabled(zapcore.InfoLevel) {
		t.Fatalf("info must be disabled at warn level")
	}
	if !l.Core().Enabled(zapcore.WarnLevel) {
		t.Fatalf("warn must be enabled")
	}
}

func contextOf(t *testing.T, logs *observer.ObservedLogs) map[string]any {
	t.Helper()
	entries := logs.TakeAll()
	if len(entries) != 1 {
		t.Fatalf("expected one entry, got %d", len(entries))
	}
	return entries[0].ContextMap()
}

func TestWithAI(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)

	WithAI(zap.New(core), "openai", " gpt-4 ").Info("scored")
	fields := contextOf(t, logs)
	if fields[FieldProvider] != "openai" || fields[FieldModel] != "gpt-4" {
		t.Fatalf("unexpected fields %v", fields)
	}

	WithAI(zap.New(core), "gemini", "").Info("scored")
	fields = contextOf(t, logs)
	if _, ok := fields[FieldModel]; ok {
		t.Fatalf("blank model must be skipped, got %v", fields)
	}
}

func TestWithRun(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)

	WithRun(zap.New(core), "run-1", 7).Info("pipeline started")
	fields := contextOf(t, logs)
	if fields[FieldRunID] != "run-1" || fields[FieldProfileID] != int64(7) {
		t.Fatalf("unexpected fields %v", fields)
	}

	WithRun(zap.New(core), "run-2", 0).Info("pipeline started")
	fields = contextOf(t, logs)
	if _, ok := fields[FieldProfileID]; ok {
		t.Fatalf("unknown profile must be skipped, got %v", fields)
	}
}

func TestWithFieldsNil(t *testing.T) {
	if WithFields(nil) == nil {
		t.Fatalf("expected a no-op logger")
	}
	WithSource(nil, "adzuna").Info("does not panic")
}
