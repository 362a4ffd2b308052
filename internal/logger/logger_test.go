package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/Strob0t/runhooks/internal/config"
)

func TestNew(t *testing.T) {
	l, closer := New(config.Logging{Level: "debug", Service: "test-svc"})
	defer closer.Close()
	if l == nil {
		t.Fatal("expected non-nil logger")
	}
}

func TestNewAsyncFlushesOnClose(t *testing.T) {
	var buf bytes.Buffer
	l, closer := newWithWriter(config.Logging{Level: "info", Service: "runhooks", Async: true}, &buf, false)
	l.Info("hook delivered", "hook_id", "h1")
	closer.Close()

	if !strings.Contains(buf.String(), `"hook_id":"h1"`) {
		t.Fatalf("expected flushed record, got %q", buf.String())
	}
}

func TestJSONRecordCarriesServiceAndRequestID(t *testing.T) {
	var buf bytes.Buffer
	l, closer := newWithWriter(config.Logging{Level: "info", Service: "runhooks"}, &buf, false)
	defer closer.Close()

	ctx := WithRequestID(context.Background(), "req-42")
	l.InfoContext(ctx, "hook updated")

	var rec map[string]any
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("decode %q: %v", buf.String(), err)
	}
	if rec["service"] != "runhooks" || rec["request_id"] != "req-42" {
		t.Fatalf("unexpected record %v", rec)
	}
}

func TestTextHandler(t *testing.T) {
	var buf bytes.Buffer
	l, closer := newWithWriter(config.Logging{Level: "warn", Service: "runhooks"}, &buf, true)
	defer closer.Close()

	l.Info("suppressed")
	l.Warn("hook delivery failed", "status", 500)

	out := buf.String()
	if strings.Contains(out, "suppressed") {
		t.Error("info must be filtered at warn level")
	}
	if !strings.Contains(out, "status=500") || !strings.Contains(out, "service=runhooks") {
		t.Errorf("unexpected text output %q", out)
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"debug", "DEBUG"},
		{"info", "INFO"},
		{"warn", "WARN"},
		{"warning", "WARN"},
		{"ERROR", "ERROR"},
		{"unknown", "INFO"},
		{"", "INFO"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := parseLevel(tt.input).String(); got != tt.want {
				t.Errorf("parseLevel(%q) = %s, want %s", tt.input, got, tt.want)
			}
		})
	}
}

func TestRequestIDContext(t *testing.T) {
	ctx := context.Background()
	if got := RequestID(ctx); got != "" {
		t.Errorf("expected empty request ID, got %q", got)
	}
	ctx = WithRequestID(ctx, "req-123")
	if got := RequestID(ctx); got != "req-123" {
		t.Errorf("expected req-123, got %q", got)
	}
}
