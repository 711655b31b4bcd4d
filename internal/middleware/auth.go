// Package middleware provides HTTP middleware for the todo service
package middleware

import (
	"context"
	"errors"
	"net/http"

	"github.com/R3E-Network/todo_service/internal/app/domain/user"
	internalhttputil "github.com/R3E-Network/todo_service/internal/httputil"
	"github.com/R3E-Network/todo_service/internal/logging"
	"github.com/R3E-Network/todo_service/internal/session"
)

// SessionExpiredMessage is returned to every request rejected by the gate.
const SessionExpiredMessage = "Session Expired, please log in again"

// SessionLoader resolves the session carried by a request.
type SessionLoader interface {
	Load(ctx context.Context, r *http.Request) (session.State, error)
}

// AuthGate admits only requests whose session is authenticated
type AuthGate struct {
	sessions SessionLoader
	logger   *logging.Logger
}

// NewAuthGate creates a new auth gate
func NewAuthGate(sessions SessionLoader, logger *logging.Logger) *AuthGate {
	return &AuthGate{
		sessions: sessions,
		logger:   logger,
	}
}

// Handler returns the middleware handler
func (g *AuthGate) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		st, err := g.sessions.Load(r.Context(), r)
		if err != nil && !errors.Is(err, session.ErrNoSession) {
			g.logger.WithContext(r.Context()).WithError(err).Error("Session lookup failed")
		}
		if err != nil || !st.Authenticated {
			g.logger.LogSecurityEvent(r.Context(), "session_rejected", map[string]interface{}{
				"path":   r.URL.Path,
				"method": r.Method,
			})
			internalhttputil.Unauthorized(w, SessionExpiredMessage)
			return
		}

		ctx := session.WithState(r.Context(), st)
		ctx = logging.WithUsername(ctx, st.User.Username)
		noteUsername(ctx, st.User.Username)

		w.Header().Set("Access-Control-Allow-Credentials", "true")
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// Principal returns the user admitted by the gate.
func Principal(r *http.Request) (user.Summary, bool) {
	st := session.FromContext(r.Context())
	return st.User, st.Authenticated
}
