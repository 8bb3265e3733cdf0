package irc

import (
	"log/slog"
	"reflect"
	"testing"
)

func TestLogger_Interface(t *testing.T) {
	// Verify that *slog.Logger implements our Logger interface
	var _ Logger = slog.Default()
}

func TestDefaultLogger(t *testing.T) {
	logger := defaultLogger()

	if logger == nil {
		t.Fatal("defaultLogger returned nil")
	}

	// Verify it's the slog default
	if logger != slog.Default() {
		t.Error("defaultLogger did not return slog.Default()")
	}
}

// mockLogger for testing Logger interface
type mockLogger struct {
	debugCalled bool
	infoCalled  bool
	warnCalled  bool
	errorCalled bool
	lastMsg     string
	lastArgs    []any
}

func (l *mockLogger) Debug(msg string, args ...any) {
	l.debugCalled = true
	l.lastMsg = msg
	l.lastArgs = args
}

func (l *mockLogger) Info(msg string, args ...any) {
	l.infoCalled = true
	l.lastMsg = msg
	l.lastArgs = args
}

func (l *mockLogger) Warn(msg string, args ...any) {
	l.warnCalled = true
	l.lastMsg = msg
	l.lastArgs = args
}

func (l *mockLogger) Error(msg string, args ...any) {
	l.errorCalled = true
	l.lastMsg = msg
	l.lastArgs = args
}

func TestWithAttrs(t *testing.T) {
	mock := &mockLogger{}
	logger := withAttrs(mock, "conn_id", "abc")

	logger.Debug("debug", "line", "PING :x")
	if !mock.debugCalled {
		t.Error("Debug not called")
	}
	want := []any{"conn_id", "abc", "line", "PING :x"}
	if !reflect.DeepEqual(mock.lastArgs, want) {
		t.Errorf("lastArgs = %v, want %v", mock.lastArgs, want)
	}

	logger.Info("info")
	if !mock.infoCalled {
		t.Error("Info not called")
	}
	if mock.lastMsg != "info" {
		t.Errorf("lastMsg = %s, want 'info'", mock.lastMsg)
	}
	if !reflect.DeepEqual(mock.lastArgs, []any{"conn_id", "abc"}) {
		t.Errorf("lastArgs = %v", mock.lastArgs)
	}

	logger.Warn("warn", "k", 1)
	if !mock.warnCalled {
		t.Error("Warn not called")
	}

	logger.Error("error", "error", "boom")
	if !mock.errorCalled {
		t.Error("Error not called")
	}
	if len(mock.lastArgs) != 4 {
		t.Errorf("len(lastArgs) = %d, want 4", len(mock.lastArgs))
	}
}

// Records from one call must not leak into the next.
func TestWithAttrs_NoSharedBacking(t *testing.T) {
	mock := &mockLogger{}
	logger := withAttrs(mock, "conn_id", "abc")

	logger.Info("first", "a", 1)
	first := mock.lastArgs
	logger.Info("second", "b", 2)

	if first[2] != "a" {
		t.Errorf("first record mutated: %v", first)
	}
}
