package session

import (
	"context"
	"time"

	"github.com/R3E-Network/todo_service/internal/app/domain/user"
)

type contextKey struct{}

// State is the authentication state of a single request. The auth gate
// stores it in the request context; handlers never reach for a global.
type State struct {
	Authenticated bool
	User          user.Summary
	Token         string
	ExpiresAt     time.Time
}

// WithState returns ctx carrying st.
func WithState(ctx context.Context, st State) context.Context {
	return context.WithValue(ctx, contextKey{}, st)
}

// FromContext returns the request's session state. The zero State is
// unauthenticated.
func FromContext(ctx context.Context) State {
	st, _ := ctx.Value(contextKey{}).(State)
	return st
}
