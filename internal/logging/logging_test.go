package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
)

func TestNewParsesLevel(t *testing.T) {
	if got := New("todo", "debug", "json").GetLevel(); got != logrus.DebugLevel {
		t.Fatalf("level = %s, want debug", got)
	}
	if got := New("todo", "nonsense", "json").GetLevel(); got != logrus.InfoLevel {
		t.Fatalf("level = %s, want info fallback", got)
	}
}

func TestWithContextAddsTraceAndUser(t *testing.T) {
	var buf bytes.Buffer
	l := New("todo", "info", "json")
	l.SetOutput(&buf)

	ctx := WithTraceID(context.Background(), "trace-1")
	ctx = WithUsername(ctx, "amit1")
	l.LogRequest(ctx, http.MethodGet, "/read-item", http.StatusOK, 5*time.Millisecond)

	var entry map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("decode log line: %v", err)
	}
	if entry["trace_id"] != "trace-1" {
		t.Fatalf("trace_id = %v, want trace-1", entry["trace_id"])
	}
	if entry["username"] != "amit1" {
		t.Fatalf("username = %v, want amit1", entry["username"])
	}
	if entry["service"] != "todo" {
		t.Fatalf("service = %v, want todo", entry["service"])
	}
}

func TestTraceIDRoundTrip(t *testing.T) {
	id := NewTraceID()
	if id == "" {
		t.Fatal("NewTraceID returned empty id")
	}
	if got := GetTraceID(WithTraceID(context.Background(), id)); got != id {
		t.Fatalf("GetTraceID = %q, want %q", got, id)
	}
	if got := GetTraceID(context.Background()); got != "" {
		t.Fatalf("GetTraceID(empty) = %q, want empty", got)
	}
}
