package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/R3E-Network/todo_service/internal/app/domain/user"
	"github.com/R3E-Network/todo_service/internal/app/storage/memory"
	"github.com/R3E-Network/todo_service/internal/logging"
	"github.com/R3E-Network/todo_service/internal/session"
)

func newTestSessions(t *testing.T) *session.Manager {
	t.Helper()
	m, err := session.NewManager(session.Config{
		Store:  memory.New(),
		Secret: "test-secret",
		TTL:    time.Hour,
		Secure: true,
	})
	if err != nil {
		t.Fatalf("NewManager() error = %v", err)
	}
	return m
}

func TestAuthGate_RejectsWithoutSession(t *testing.T) {
	gate := NewAuthGate(newTestSessions(t), logging.NewDiscard())

	called := false
	handler := gate.Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))

	tests := []struct {
		name   string
		cookie *http.Cookie
	}{
		{"no cookie", nil},
		{"forged cookie", &http.Cookie{Name: "connect.sid", Value: "deadbeef"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/read-item", nil)
			if tt.cookie != nil {
				req.AddCookie(tt.cookie)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			if called {
				t.Fatal("handler must not run for unauthenticated requests")
			}
			if rec.Code != http.StatusUnauthorized {
				t.Fatalf("status = %d, want 401", rec.Code)
			}
			var body map[string]interface{}
			if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if body["message"] != SessionExpiredMessage || body["status"] != float64(401) {
				t.Fatalf("body = %v", body)
			}
		})
	}
}

func TestAuthGate_AdmitsAuthenticatedSession(t *testing.T) {
	sessions := newTestSessions(t)
	gate := NewAuthGate(sessions, logging.NewDiscard())

	summary := user.Summary{UserID: "1", Email: "a@x.com", Username: "amit1"}
	token, _, err := sessions.Create(context.Background(), summary)
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	var got user.Summary
	var username string
	handler := gate.Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var ok bool
		got, ok = Principal(r)
		if !ok {
			t.Error("Principal() reported unauthenticated")
		}
		username = logging.GetUsername(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/read-item", nil)
	req.AddCookie(&http.Cookie{Name: sessions.CookieName(), Value: token})
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if got != summary {
		t.Fatalf("Principal() = %+v, want %+v", got, summary)
	}
	if username != "amit1" {
		t.Fatalf("log username = %q", username)
	}
	if rec.Header().Get("Access-Control-Allow-Credentials") != "true" {
		t.Fatal("credentials header not set")
	}
}

func TestPrincipal_Unauthenticated(t *testing.T) {
	if _, ok := Principal(httptest.NewRequest(http.MethodGet, "/", nil)); ok {
		t.Fatal("Principal() ok = true without gate")
	}
}
