// Package httputil holds the response envelope and request decoding shared by
// the HTTP handlers and middleware.
package httputil

import (
	"encoding/json"
	"net/http"

	"github.com/R3E-Network/todo_service/internal/errors"
)

// Envelope is the body of every API response. Status carries the outcome of
// the operation and may differ from the transport status.
type Envelope struct {
	Status  int         `json:"status"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
	Error   interface{} `json:"error,omitempty"`
}

// Writer writes envelopes. With MirrorStatus unset every envelope is sent
// with transport status 200.
type Writer struct {
	MirrorStatus bool
}

// Write sends env.
func (wr Writer) Write(w http.ResponseWriter, env Envelope) {
	status := http.StatusOK
	if wr.MirrorStatus {
		status = env.Status
	}
	WriteJSON(w, status, env)
}

// Success sends a success envelope with optional data.
func (wr Writer) Success(w http.ResponseWriter, status int, message string, data interface{}) {
	wr.Write(w, Envelope{Status: status, Message: message, Data: data})
}

// Error sends the envelope for err. Validation failures carry their message
// in the error field under the caller-supplied message; every other
// ServiceError reports its own message and status. Causes are never exposed.
func (wr Writer) Error(w http.ResponseWriter, message string, err error) {
	wr.Write(w, ErrorEnvelope(message, err))
}

// ErrorEnvelope maps err to an envelope.
func ErrorEnvelope(message string, err error) Envelope {
	if errors.HasCode(err, errors.CodeValidation) {
		se := errors.GetServiceError(err)
		if se.Message == message {
			return Envelope{Status: se.HTTPStatus, Message: message}
		}
		return Envelope{Status: se.HTTPStatus, Message: message, Error: se.Message}
	}
	se := errors.GetServiceError(err)
	if se == nil {
		se = errors.Internal(message, err)
	}
	return Envelope{Status: se.HTTPStatus, Message: se.Message}
}

// WriteJSON writes v as JSON with the given transport status.
func WriteJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// Unauthorized always uses a real 401 so clients can detect an expired
// session without parsing the body.
func Unauthorized(w http.ResponseWriter, message string) {
	if message == "" {
		message = "unauthorized"
	}
	WriteJSON(w, http.StatusUnauthorized, Envelope{Status: http.StatusUnauthorized, Message: message})
}
