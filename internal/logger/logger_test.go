// ABOUTME: Tests for logger construction, levels, and context propagation
// ABOUTME: Uses a buffer as output to inspect rendered log lines
package logger

import (
	"bytes"
	"context"
	"strings"
	"testing"

	charmlog "github.com/charmbracelet/log"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want charmlog.Level
	}{
		{"debug", charmlog.DebugLevel},
		{"DEBUG", charmlog.DebugLevel},
		{"info", charmlog.InfoLevel},
		{"warn", charmlog.WarnLevel},
		{"warning", charmlog.WarnLevel},
		{"error", charmlog.ErrorLevel},
		{"", charmlog.InfoLevel},
		{"bogus", charmlog.InfoLevel},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := ParseLevel(tt.in); got != tt.want {
				t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestNew_RespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Level: "warn", Output: &buf})

	l.Info("hidden message")
	l.Warn("visible message", "key", "value")

	out := buf.String()
	if strings.Contains(out, "hidden message") {
		t.Error("info message logged at warn level")
	}
	if !strings.Contains(out, "visible message") {
		t.Errorf("warn message missing from output: %q", out)
	}
	if !strings.Contains(out, "key=value") {
		t.Errorf("key/value pair missing from output: %q", out)
	}
}

func TestNew_JSON(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Level: "info", Output: &buf, JSON: true})
	l.With("component", "test").Info("hello")

	out := buf.String()
	if !strings.Contains(out, `"msg":"hello"`) {
		t.Errorf("JSON output missing msg field: %q", out)
	}
	if !strings.Contains(out, `"component":"test"`) {
		t.Errorf("JSON output missing With() field: %q", out)
	}
}

func TestFromContext(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Level: "debug", Output: &buf})

	ctx := ContextWithLogger(context.Background(), l)
	FromContext(ctx).Debug("from context")
	if !strings.Contains(buf.String(), "from context") {
		t.Error("FromContext() did not return the attached logger")
	}

	// Missing logger falls back to a no-op
	FromContext(context.Background()).Info("dropped")
	if strings.Contains(buf.String(), "dropped") {
		t.Error("FromContext() without logger should not write to the attached output")
	}
}

func TestNop(t *testing.T) {
	l := Nop()
	l.Debug("x")
	l.Info("x")
	l.Warn("x")
	l.Error("x")
	if l.With("k", "v") == nil {
		t.Error("Nop().With() returned nil")
	}
}
