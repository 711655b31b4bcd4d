package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecordHTTPRequest(t *testing.T) {
	m := New("test")
	m.RecordHTTPRequest("todo", "get", "/read", "200", 10*time.Millisecond)
	m.RecordHTTPRequest("todo", "GET", "/read", "200", 20*time.Millisecond)

	got := testutil.ToFloat64(m.httpRequests.WithLabelValues("todo", "GET", "/read", "200"))
	if got != 2 {
		t.Fatalf("requests_total = %v, want 2", got)
	}
}

func TestDomainCounters(t *testing.T) {
	m := New("")
	m.RecordAuthEvent("login", true)
	m.RecordAuthEvent("login", false)
	m.RecordTodoOperation("delete", false)
	m.RecordSessionsPurged(3)
	m.RecordSessionsPurged(0)

	if v := testutil.ToFloat64(m.authEvents.WithLabelValues("login", "failure")); v != 1 {
		t.Fatalf("login failures = %v", v)
	}
	if v := testutil.ToFloat64(m.todoOps.WithLabelValues("delete", "failure")); v != 1 {
		t.Fatalf("delete failures = %v", v)
	}
	if v := testutil.ToFloat64(m.purged); v != 3 {
		t.Fatalf("purged = %v", v)
	}
}

func TestHandlerExposesRegistry(t *testing.T) {
	m := New("test")
	m.IncrementInFlight()
	defer m.DecrementInFlight()

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "test_http_inflight_requests 1") {
		t.Fatalf("inflight gauge missing from output")
	}
}

func TestNilMetricsRecordersAreNoops(t *testing.T) {
	var m *Metrics
	m.RecordAuthEvent("login", true)
	m.RecordTodoOperation("create", true)
	m.RecordSessionsPurged(1)
}
