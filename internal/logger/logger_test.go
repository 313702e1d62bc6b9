package logger

import (
	"testing"
)

func TestSetup(t *testing.T) {
	tests := []struct {
		name   string
		level  string
		format string
	}{
		{"debug level", "debug", "console"},
		{"info level", "info", "console"},
		{"warn level", "warn", "console"},
		{"error level", "error", "console"},
		{"json format", "info", "json"},
		{"uppercase level", "DEBUG", "console"},
		{"unknown level defaults to info", "verbose", "console"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			Setup(tt.level, tt.format)
			if Log == nil {
				t.Error("expected Log to be initialized")
			}
		})
	}
}

func TestLoggerMethods(t *testing.T) {
	Setup("debug", "json")

	// These should not panic
	Log.Info("info message", "key", "value")
	Log.Debug("debug message", "key", "value")
	Log.Warn("warn message", "key", "value")
	Log.Error("error message", "key", "value")
}

func TestLoggerWith(t *testing.T) {
	Setup("info", "json")

	child := Log.With("device", "cuda:0")
	if child == nil {
		t.Fatal("expected child logger")
	}
	child.Info("placed")
}

func TestLoggerOddArgs(t *testing.T) {
	Setup("info", "json")

	// A trailing key without a value is dropped, not a panic.
	Log.Info("odd args", "key1", "value1", "dangling")
	// Non-string keys are stringified.
	Log.Info("bad key", 42, "value")
}
