// Package errors provides the service error taxonomy shared by handlers,
// services and middleware.
package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
)

// ErrorCode identifies a class of failure.
type ErrorCode string

const (
	CodeValidation     ErrorCode = "VALIDATION_ERROR"
	CodeDuplicate      ErrorCode = "DUPLICATE"
	CodeBadCredentials ErrorCode = "BAD_CREDENTIALS"
	CodeNotFound       ErrorCode = "NOT_FOUND"
	CodeUnauthorized   ErrorCode = "UNAUTHORIZED"
	CodeForbidden      ErrorCode = "FORBIDDEN"
	CodePersistence    ErrorCode = "PERSISTENCE_ERROR"
	CodeInternal       ErrorCode = "INTERNAL_ERROR"
)

// ServiceError is an error that knows how it should be reported to a caller.
type ServiceError struct {
	Code       ErrorCode
	Message    string
	HTTPStatus int
	Err        error
}

func (e *ServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *ServiceError) Unwrap() error {
	return e.Err
}

// Is matches another ServiceError by code.
func (e *ServiceError) Is(target error) bool {
	t, ok := target.(*ServiceError)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

func newError(code ErrorCode, status int, message string, err error) *ServiceError {
	return &ServiceError{Code: code, Message: message, HTTPStatus: status, Err: err}
}

// Validation reports malformed or missing input.
func Validation(message string) *ServiceError {
	return newError(CodeValidation, http.StatusBadRequest, message, nil)
}

// Duplicate reports a uniqueness violation detected before a write.
func Duplicate(message string) *ServiceError {
	return newError(CodeDuplicate, http.StatusBadRequest, message, nil)
}

// BadCredentials reports an unknown login id or a wrong password.
func BadCredentials(message string) *ServiceError {
	return newError(CodeBadCredentials, http.StatusBadRequest, message, nil)
}

// NotFound reports a missing resource.
func NotFound(message string) *ServiceError {
	return newError(CodeNotFound, http.StatusNotFound, message, nil)
}

// Unauthorized reports a request without an authenticated session.
func Unauthorized(message string) *ServiceError {
	if message == "" {
		message = "unauthorized"
	}
	return newError(CodeUnauthorized, http.StatusUnauthorized, message, nil)
}

// Forbidden reports an authenticated caller that does not own the resource.
func Forbidden(message string) *ServiceError {
	return newError(CodeForbidden, http.StatusForbidden, message, nil)
}

// Persistence wraps a failed store operation. The cause is kept for logging
// and never rendered to clients.
func Persistence(message string, err error) *ServiceError {
	return newError(CodePersistence, http.StatusInternalServerError, message, err)
}

// Internal wraps any other unexpected failure.
func Internal(message string, err error) *ServiceError {
	return newError(CodeInternal, http.StatusInternalServerError, message, err)
}

// GetServiceError returns the first ServiceError in err's chain, or nil.
func GetServiceError(err error) *ServiceError {
	var se *ServiceError
	if stderrors.As(err, &se) {
		return se
	}
	return nil
}

// HasCode reports whether err carries a ServiceError with the given code.
func HasCode(err error, code ErrorCode) bool {
	se := GetServiceError(err)
	return se != nil && se.Code == code
}
