package middleware

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"

	"github.com/R3E-Network/todo_service/internal/logging"
	"github.com/R3E-Network/todo_service/internal/metrics"
)

func TestCORSMiddleware(t *testing.T) {
	cors := NewCORSMiddleware([]string{"http://localhost:5173"})
	handler := cors.Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	tests := []struct {
		name       string
		method     string
		origin     string
		wantOrigin string
		wantStatus int
	}{
		{"allowed origin", http.MethodGet, "http://localhost:5173", "http://localhost:5173", http.StatusOK},
		{"unknown origin", http.MethodGet, "http://evil.example", "", http.StatusOK},
		{"preflight", http.MethodOptions, "http://localhost:5173", "http://localhost:5173", http.StatusNoContent},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, "/read-item", nil)
			req.Header.Set("Origin", tt.origin)
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if got := rec.Header().Get("Access-Control-Allow-Origin"); got != tt.wantOrigin {
				t.Errorf("Allow-Origin = %q, want %q", got, tt.wantOrigin)
			}
			if tt.wantOrigin != "" && rec.Header().Get("Access-Control-Allow-Credentials") != "true" {
				t.Error("Allow-Credentials not set")
			}
		})
	}
}

func TestRequestLoggerTraceIDs(t *testing.T) {
	tracer := NewRequestLogger(logging.NewDiscard())

	var seen string
	handler := tracer.Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = logging.GetTraceID(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(TraceHeader, "trace-123")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if seen != "trace-123" || rec.Header().Get(TraceHeader) != "trace-123" {
		t.Fatalf("trace id = %q, header = %q", seen, rec.Header().Get(TraceHeader))
	}

	for _, bad := range []string{"", "has space", "line\nbreak", strings.Repeat("a", 65)} {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		if bad != "" {
			req.Header[TraceHeader] = []string{bad}
		}
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		got := rec.Header().Get(TraceHeader)
		if got == "" || got == bad || seen != got {
			t.Fatalf("header %q: trace id = %q, context = %q", bad, got, seen)
		}
	}
}

func TestRequestLoggerRecordsAdmittedUser(t *testing.T) {
	log := logging.New("todo", "debug", "json")
	log.SetOutput(io.Discard)
	hook := logtest.NewLocal(log.Logger)

	handler := NewRequestLogger(log, "/healthz").Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/read-item" {
			noteUsername(r.Context(), "amit1")
		}
		w.WriteHeader(http.StatusTeapot)
	}))

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/read-item", nil))
	entry := hook.LastEntry()
	if entry == nil || entry.Data["username"] != "amit1" || entry.Data["status"] != http.StatusTeapot {
		t.Fatalf("access log entry = %+v", entry)
	}
	if entry.Level != logrus.WarnLevel {
		t.Fatalf("level = %s, want warning", entry.Level)
	}

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/healthz", nil))
	entry = hook.LastEntry()
	if entry == nil || entry.Level != logrus.DebugLevel || entry.Data["path"] != "/healthz" {
		t.Fatalf("quiet path entry = %+v", entry)
	}
	if _, ok := entry.Data["username"]; ok {
		t.Fatalf("unexpected username on anonymous request: %v", entry.Data["username"])
	}
}

func TestTimeout(t *testing.T) {
	var deadline time.Time
	var ok bool
	handler := Timeout(time.Second)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		deadline, ok = r.Context().Deadline()
	}))
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	if !ok || time.Until(deadline) > time.Second {
		t.Fatalf("deadline = %v, ok = %v", deadline, ok)
	}

	handler = Timeout(0)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, ok = r.Context().Deadline()
	}))
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	if ok {
		t.Fatal("zero timeout should not set a deadline")
	}
}

func TestMetricsMiddlewareUsesRouteTemplate(t *testing.T) {
	m := metrics.New("mwtest")
	router := mux.NewRouter()
	router.Use(MetricsMiddleware("todo", m))
	router.HandleFunc("/delete-item/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/delete-item/42", nil))
	if rec.Code != http.StatusTeapot {
		t.Fatalf("status = %d", rec.Code)
	}

	out := httptest.NewRecorder()
	m.Handler().ServeHTTP(out, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	want := `mwtest_http_requests_total{method="DELETE",path="/delete-item/{id}",service="todo",status="418"} 1`
	if !strings.Contains(out.Body.String(), want) {
		t.Fatalf("metrics output missing %s", want)
	}
}
