package log

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func newBufferLogger(buf *bytes.Buffer, component string) *Logger {
	return New(Config{Level: slog.LevelDebug, Component: component, Output: buf})
}

func TestLoggerAddsComponent(t *testing.T) {
	var buf bytes.Buffer
	logger := newBufferLogger(&buf, ComponentLedger)

	logger.Info("balance computed", FieldEntityID, 3)

	out := buf.String()
	if !strings.Contains(out, "component=ledger") {
		t.Fatalf("expected component field, got %q", out)
	}
	if !strings.Contains(out, "entity_id=3") {
		t.Fatalf("expected entity field, got %q", out)
	}
}

func TestWithComponentDoesNotDuplicate(t *testing.T) {
	var buf bytes.Buffer
	logger := newBufferLogger(&buf, ComponentApp).WithComponent(ComponentHTTP)

	logger.Warn("slow")

	out := buf.String()
	if strings.Count(out, "component=") != 1 || !strings.Contains(out, "component=http") {
		t.Fatalf("unexpected component fields in %q", out)
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
		ok   bool
	}{
		{"debug", slog.LevelDebug, true},
		{"", slog.LevelInfo, true},
		{"WARN", slog.LevelWarn, true},
		{"error", slog.LevelError, true},
		{"loud", slog.LevelInfo, false},
	}
	for _, tt := range tests {
		got, err := ParseLevel(tt.in)
		if (err == nil) != tt.ok || got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, %v", tt.in, got, err)
		}
	}
}

func TestFromContext(t *testing.T) {
	if got := FromContext(context.Background()); got.Component() != "unknown" {
		t.Fatalf("expected fallback logger, got component %q", got.Component())
	}

	var buf bytes.Buffer
	logger := newBufferLogger(&buf, ComponentHTTP)
	ctx := NewContext(context.Background(), logger)
	if FromContext(ctx) != logger {
		t.Fatalf("expected stored logger")
	}
}

func TestRequestIDMiddleware(t *testing.T) {
	var buf bytes.Buffer
	logger := newBufferLogger(&buf, ComponentHTTP)

	handler := Middleware(logger)(RequestIDMiddleware(func(*http.Request) string { return "req-1" })(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			FromContext(r.Context()).Info("inside")
		})))

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/entities", nil))

	if !strings.Contains(buf.String(), "request_id=req-1") {
		t.Fatalf("expected request id in %q", buf.String())
	}
}

func TestStructuredLogger(t *testing.T) {
	var buf bytes.Buffer
	sl := NewStructuredLogger(newBufferLogger(&buf, ComponentLedger))

	sl.LogUnclassified(context.Background(), 4, 17, "refund", 500)
	sl.LogError(context.Background(), "store failed", errors.New("disk full"), OpRecord, nil)

	out := buf.String()
	for _, want := range []string{"level=WARN", "transaction_type=refund", "entity_id=4", "level=ERROR", "error=\"disk full\"", "operation=record"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in %q", want, out)
		}
	}
}
