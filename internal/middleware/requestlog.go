package middleware

import (
	"context"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/R3E-Network/todo_service/internal/logging"
)

// TraceHeader carries the request trace id in both directions.
const TraceHeader = "X-Trace-ID"

const maxTraceIDLength = 64

type requestNoteKey struct{}

// requestNote is filled in by inner handlers and read back once the request
// completes, so the access log can name the user the auth gate admitted.
type requestNote struct {
	username string
}

// RequestLogger stamps each request with a trace id and writes one access
// log line when it completes. Paths listed as quiet are logged at debug.
type RequestLogger struct {
	logger *logging.Logger
	quiet  map[string]bool
}

// NewRequestLogger creates a RequestLogger. quietPaths are typically the
// health and scrape endpoints.
func NewRequestLogger(logger *logging.Logger, quietPaths ...string) *RequestLogger {
	if logger == nil {
		logger = logging.NewDiscard()
	}
	quiet := make(map[string]bool, len(quietPaths))
	for _, p := range quietPaths {
		quiet[p] = true
	}
	return &RequestLogger{logger: logger, quiet: quiet}
}

// Handler returns the middleware handler.
func (l *RequestLogger) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		traceID := r.Header.Get(TraceHeader)
		if !validTraceID(traceID) {
			traceID = logging.NewTraceID()
		}
		w.Header().Set(TraceHeader, traceID)

		note := &requestNote{}
		ctx := logging.WithTraceID(r.Context(), traceID)
		ctx = context.WithValue(ctx, requestNoteKey{}, note)

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		start := time.Now()
		next.ServeHTTP(rw, r.WithContext(ctx))
		elapsed := time.Since(start)

		logCtx := logging.WithUsername(ctx, note.username)
		if l.quiet[r.URL.Path] && rw.statusCode < http.StatusInternalServerError {
			l.logger.WithContext(logCtx).WithFields(logrus.Fields{
				"method":      r.Method,
				"path":        r.URL.Path,
				"status":      rw.statusCode,
				"duration_ms": elapsed.Milliseconds(),
			}).Debug("HTTP request")
			return
		}
		l.logger.LogRequest(logCtx, r.Method, r.URL.Path, rw.statusCode, elapsed)
	})
}

// noteUsername records the admitted user for the access log line.
func noteUsername(ctx context.Context, username string) {
	if note, ok := ctx.Value(requestNoteKey{}).(*requestNote); ok {
		note.username = username
	}
}

// validTraceID accepts caller-supplied ids made of letters, digits, '-',
// '_' and '.', so headers cannot inject into log lines.
func validTraceID(id string) bool {
	if id == "" || len(id) > maxTraceIDLength {
		return false
	}
	for _, c := range id {
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
		case c == '-' || c == '_' || c == '.':
		default:
			return false
		}
	}
	return true
}
