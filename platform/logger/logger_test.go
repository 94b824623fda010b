package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"
	"time"
)

func decodeLine(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.Unmarshal(buf.Bytes(), &out); err != nil {
		t.Fatalf("log line is not JSON: %v (%q)", err, buf.String())
	}
	return out
}

func TestWithContextAddsTenantAndRequest(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter("production", &buf)

	ctx := context.WithValue(context.Background(), TenantIDKey, "t-1")
	ctx = context.WithValue(ctx, RequestIDKey, "r-1")
	log.WithContext(ctx).Info("hello")

	line := decodeLine(t, &buf)
	if line["tenant_id"] != "t-1" {
		t.Errorf("tenant_id = %v, want t-1", line["tenant_id"])
	}
	if line["request_id"] != "r-1" {
		t.Errorf("request_id = %v, want r-1", line["request_id"])
	}
}

func TestExternalCallLevelDependsOnCategory(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter("production", &buf)

	log.ExternalCall("apollo", "health", 2, 1500*time.Millisecond, "timeout")
	line := decodeLine(t, &buf)
	if line["level"] != "WARN" {
		t.Errorf("level = %v, want WARN", line["level"])
	}
	if line["category"] != "timeout" {
		t.Errorf("category = %v, want timeout", line["category"])
	}
	if line["elapsed_ms"] != float64(1500) {
		t.Errorf("elapsed_ms = %v, want 1500", line["elapsed_ms"])
	}

	buf.Reset()
	log.ExternalCall("apollo", "health", 1, time.Millisecond, "")
	if line := decodeLine(t, &buf); line["level"] != "INFO" {
		t.Errorf("level = %v, want INFO", line["level"])
	}
}
