package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"testing"
)

func TestConstructorsSetStatus(t *testing.T) {
	cause := stderrors.New("connection refused")
	tests := []struct {
		name   string
		err    *ServiceError
		code   ErrorCode
		status int
	}{
		{"validation", Validation("Missing credentials"), CodeValidation, http.StatusBadRequest},
		{"duplicate", Duplicate("Email already Exist"), CodeDuplicate, http.StatusBadRequest},
		{"bad-credentials", BadCredentials("Password in not Valid"), CodeBadCredentials, http.StatusBadRequest},
		{"not-found", NotFound("Todo not found"), CodeNotFound, http.StatusNotFound},
		{"unauthorized", Unauthorized(""), CodeUnauthorized, http.StatusUnauthorized},
		{"forbidden", Forbidden("Not authorized to edit the todo."), CodeForbidden, http.StatusForbidden},
		{"persistence", Persistence("Database error", cause), CodePersistence, http.StatusInternalServerError},
		{"internal", Internal("boom", cause), CodeInternal, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.err.Code != tt.code {
				t.Fatalf("code = %s, want %s", tt.err.Code, tt.code)
			}
			if tt.err.HTTPStatus != tt.status {
				t.Fatalf("status = %d, want %d", tt.err.HTTPStatus, tt.status)
			}
		})
	}
}

func TestGetServiceErrorUnwraps(t *testing.T) {
	cause := stderrors.New("disk full")
	wrapped := fmt.Errorf("create todo: %w", Persistence("Database error", cause))

	se := GetServiceError(wrapped)
	if se == nil {
		t.Fatal("GetServiceError returned nil for wrapped service error")
	}
	if se.Message != "Database error" {
		t.Fatalf("message = %q, want %q", se.Message, "Database error")
	}
	if !stderrors.Is(wrapped, cause) {
		t.Fatal("expected cause to be reachable through Unwrap")
	}
	if !HasCode(wrapped, CodePersistence) {
		t.Fatal("HasCode(persistence) = false, want true")
	}
	if GetServiceError(cause) != nil {
		t.Fatal("plain error should not yield a service error")
	}
}
