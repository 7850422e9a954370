package log

import (
	"bytes"
	"context"
	"log/slog"
	"net/http/httptest"
	"strings"
	"testing"
)

func captureLogger() (*Logger, *bytes.Buffer) {
	buf := &bytes.Buffer{}
	cfg := DefaultConfig()
	cfg.Component = ComponentHTTP
	cfg.Handler = slog.NewTextHandler(buf, nil)
	return New(cfg), buf
}

func TestFieldsToSlice(t *testing.T) {
	fields := NewFields().
		WithComponent(ComponentHTTP).
		WithClientIP("10.0.0.1").
		WithRequestID("req_1")

	slice := fields.ToSlice()
	if len(slice) != 6 {
		t.Fatalf("ToSlice() len = %d, want 6", len(slice))
	}
	got := map[string]any{}
	for i := 0; i < len(slice); i += 2 {
		got[slice[i].(string)] = slice[i+1]
	}
	if got[FieldClientIP] != "10.0.0.1" || got[FieldRequestID] != "req_1" || got[FieldComponent] != ComponentHTTP {
		t.Errorf("fields = %v", got)
	}
}

func TestStructuredLoggerHTTP(t *testing.T) {
	logger, buf := captureLogger()
	sl := NewStructuredLogger(logger)
	req := httptest.NewRequest("GET", "/api/projection?scenario=what-if", nil)

	sl.LogHTTPStart(context.Background(), req, "10.0.0.1", "req_42")
	out := buf.String()
	for _, want := range []string{"HTTP request started", "req_42", "/api/projection", "10.0.0.1"} {
		if !strings.Contains(out, want) {
			t.Errorf("start log missing %q: %s", want, out)
		}
	}

	buf.Reset()
	sl.LogHTTPEnd(context.Background(), req, 502, 12, "10.0.0.1", "req_42")
	out = buf.String()
	if !strings.Contains(out, "level=ERROR") {
		t.Errorf("server error should log at Error level: %s", out)
	}
	if !strings.Contains(out, "status_code=502") || !strings.Contains(out, "success=false") {
		t.Errorf("end log missing response fields: %s", out)
	}

	buf.Reset()
	sl.LogHTTPEnd(context.Background(), req, 404, 3, "10.0.0.1", "req_43")
	if out = buf.String(); !strings.Contains(out, "level=WARN") {
		t.Errorf("client error should log at Warn level: %s", out)
	}
}
