package httputil

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/R3E-Network/todo_service/internal/errors"
)

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	return body
}

func TestWriterTransportStatus(t *testing.T) {
	tests := []struct {
		name   string
		mirror bool
		want   int
	}{
		{"always 200", false, http.StatusOK},
		{"mirrored", true, http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			Writer{MirrorStatus: tt.mirror}.Error(rec, "ignored", errors.NotFound("Todo not found"))
			if rec.Code != tt.want {
				t.Fatalf("transport status = %d, want %d", rec.Code, tt.want)
			}
			body := decode(t, rec)
			if body["status"] != float64(404) || body["message"] != "Todo not found" {
				t.Fatalf("unexpected body %v", body)
			}
		})
	}
}

func TestErrorEnvelope(t *testing.T) {
	env := ErrorEnvelope("user data error", errors.Validation("Missing credentials"))
	if env.Status != 400 || env.Message != "user data error" || env.Error != "Missing credentials" {
		t.Fatalf("validation envelope = %+v", env)
	}

	env = ErrorEnvelope("Todo data error", fmt.Errorf("edit: %w", errors.Validation("Todo length should be 3-200.")))
	if env.Status != 400 || env.Message != "Todo data error" || env.Error != "Todo length should be 3-200." {
		t.Fatalf("wrapped validation envelope = %+v", env)
	}

	env = ErrorEnvelope("Database error", fmt.Errorf("connection refused"))
	if env.Status != 500 || env.Message != "Database error" || env.Error != nil {
		t.Fatalf("internal envelope = %+v", env)
	}

	env = ErrorEnvelope("x", errors.Persistence("Database error", fmt.Errorf("secret detail")))
	if env.Error != nil || strings.Contains(env.Message, "secret") {
		t.Fatalf("persistence cause leaked: %+v", env)
	}
}

func TestSuccessOmitsEmptyFields(t *testing.T) {
	rec := httptest.NewRecorder()
	Writer{}.Success(rec, 200, "Logout successfull", nil)
	body := decode(t, rec)
	if _, ok := body["data"]; ok {
		t.Fatal("data should be omitted")
	}
	if _, ok := body["error"]; ok {
		t.Fatal("error should be omitted")
	}
}

func TestUnauthorized(t *testing.T) {
	rec := httptest.NewRecorder()
	Unauthorized(rec, "Session Expired, please log in again")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d", rec.Code)
	}
	if body := decode(t, rec); body["message"] != "Session Expired, please log in again" {
		t.Fatalf("message = %v", body["message"])
	}
}

func TestErrorEnvelopeSameMessage(t *testing.T) {
	env := ErrorEnvelope("Missing todo id", errors.Validation("Missing todo id"))
	if env.Error != nil || env.Message != "Missing todo id" || env.Status != 400 {
		t.Fatalf("envelope = %+v", env)
	}
}
