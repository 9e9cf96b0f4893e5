package logging

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5/middleware"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"DEBUG", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"", slog.LevelInfo},
		{"verbose", slog.LevelInfo},
	}

	for _, tt := range tests {
		if got := parseLevel(tt.in); got != tt.want {
			t.Errorf("parseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestNew_Format(t *testing.T) {
	var buf bytes.Buffer
	New(&buf, "info", "json").Info("idf created", "code", "IDF-01")
	if !strings.HasPrefix(buf.String(), "{") || !strings.Contains(buf.String(), `"code":"IDF-01"`) {
		t.Errorf("json output = %q", buf.String())
	}

	buf.Reset()
	New(&buf, "info", "text").Info("idf created", "code", "IDF-01")
	if !strings.Contains(buf.String(), "code=IDF-01") {
		t.Errorf("text output = %q", buf.String())
	}
}

func TestNew_Level(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, "warn", "text")
	logger.Info("hidden")
	logger.Warn("shown")

	if strings.Contains(buf.String(), "hidden") {
		t.Error("info entry written at warn level")
	}
	if !strings.Contains(buf.String(), "shown") {
		t.Error("warn entry missing")
	}
}

func TestFromContext_RequestID(t *testing.T) {
	var buf bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(New(&buf, "info", "text"))
	t.Cleanup(func() { slog.SetDefault(prev) })

	ctx := context.WithValue(context.Background(), middleware.RequestIDKey, "req-42")
	WithFields(ctx, "code", "IDF-01").Info("table updated")

	out := buf.String()
	if !strings.Contains(out, "request_id=req-42") {
		t.Errorf("missing request_id: %q", out)
	}
	if !strings.Contains(out, "code=IDF-01") {
		t.Errorf("missing field: %q", out)
	}

	buf.Reset()
	FromContext(context.Background()).Info("no request")
	if strings.Contains(buf.String(), "request_id") {
		t.Errorf("unexpected request_id: %q", buf.String())
	}
}

func TestNew_RedactsCredentials(t *testing.T) {
	var buf bytes.Buffer
	New(&buf, "info", "text").Info("login", "email", "tech@example.com", "Password", "hunter22", "token", "abc.def")

	out := buf.String()
	if strings.Contains(out, "hunter22") || strings.Contains(out, "abc.def") {
		t.Errorf("credential leaked: %q", out)
	}
	if !strings.Contains(out, "email=tech@example.com") {
		t.Errorf("missing field: %q", out)
	}
}

func TestFromContext_NilContext(t *testing.T) {
	if FromContext(nil) == nil {
		t.Error("FromContext(nil) = nil")
	}
}
