package log

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"INFO", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"", slog.LevelInfo},
		{"chatty", slog.LevelInfo},
	}
	for _, tt := range tests {
		if got := ParseLevel(tt.in); got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var out []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var m map[string]any
		if err := json.Unmarshal([]byte(line), &m); err != nil {
			t.Fatalf("invalid JSON log line %q: %v", line, err)
		}
		out = append(out, m)
	}
	return out
}

func TestLoggerAddsComponent(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Level: slog.LevelDebug, Format: "json", Component: ComponentApp, Output: &buf})

	logger.WithComponent(ComponentBudget).Info("hello", FieldRecordID, "42")
	logger.Debug("debugging")

	lines := decodeLines(t, &buf)
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d: %s", len(lines), buf.String())
	}
	if lines[0][FieldComponent] != ComponentBudget || lines[0][FieldRecordID] != "42" {
		t.Errorf("unexpected first line %v", lines[0])
	}
	if lines[1][FieldComponent] != ComponentApp {
		t.Errorf("unexpected second line %v", lines[1])
	}
}

func TestLevelFilters(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Level: slog.LevelWarn, Format: "text", Component: ComponentApp, Output: &buf})
	logger.Info("hidden")
	logger.Warn("shown")
	if strings.Contains(buf.String(), "hidden") || !strings.Contains(buf.String(), "shown") {
		t.Fatalf("unexpected output %q", buf.String())
	}
}

func TestStructuredLogger(t *testing.T) {
	var buf bytes.Buffer
	sl := NewStructuredLogger(New(Config{Level: slog.LevelDebug, Format: "json", Component: ComponentApp, Output: &buf}))
	ctx := context.Background()
	r := httptest.NewRequest(http.MethodPost, "/transaction?x=1", nil)

	sl.LogHTTPEnd(ctx, r, "req_1", http.StatusInternalServerError, 12, "10.0.0.1")
	sl.LogRecordChanged(ctx, ComponentTransaction, OpCreate, "abc")
	sl.LogError(ctx, "boom", errors.New("disk full"), ComponentStorage, OpCreate, nil)

	lines := decodeLines(t, &buf)
	if len(lines) != 3 {
		t.Fatalf("expected 3 lines, got %d", len(lines))
	}
	if lines[0]["level"] != "ERROR" || lines[0][FieldStatusCode] != float64(500) || lines[0][FieldRequestID] != "req_1" {
		t.Errorf("unexpected HTTP end line %v", lines[0])
	}
	if lines[1]["msg"] != "Record created" || lines[1][FieldComponent] != ComponentTransaction {
		t.Errorf("unexpected record line %v", lines[1])
	}
	if lines[2][FieldError] != "disk full" || lines[2][FieldComponent] != ComponentStorage {
		t.Errorf("unexpected error line %v", lines[2])
	}
}

func TestContextLogger(t *testing.T) {
	if FromContext(context.Background()) == nil {
		t.Fatal("FromContext should never return nil")
	}

	logger := New(DefaultConfig())
	var seen *Logger
	h := Middleware(logger)(ComponentMiddleware(ComponentSummary)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = FromContext(r.Context())
	})))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	if seen == nil || seen.Component() != ComponentSummary {
		t.Fatalf("expected summary component logger, got %+v", seen)
	}
}

func TestWithPeriod(t *testing.T) {
	f := NewFields().WithPeriod("2025-02", 0)
	if f[FieldMonth] != "2025-02" {
		t.Errorf("month = %v", f[FieldMonth])
	}
	if _, ok := f[FieldYear]; ok {
		t.Error("zero year should be left out")
	}

	f = NewFields().WithPeriod("", 2024)
	if _, ok := f[FieldMonth]; ok || f[FieldYear] != 2024 {
		t.Errorf("fields = %v", f)
	}
}
