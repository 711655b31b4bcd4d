package storage

import (
	"context"
	"errors"
	"time"

	"github.com/R3E-Network/todo_service/internal/app/domain/session"
	"github.com/R3E-Network/todo_service/internal/app/domain/todo"
	"github.com/R3E-Network/todo_service/internal/app/domain/user"
)

var (
	// ErrNotFound is returned when a lookup matches no record.
	ErrNotFound = errors.New("record not found")
	// ErrOwnerNotFound is returned when a todo names a user that does not exist.
	ErrOwnerNotFound = errors.New("todo owner does not exist")
)

// UserStore persists user records. Uniqueness of email and username is
// checked by callers before CreateUser.
type UserStore interface {
	CreateUser(ctx context.Context, u user.User) (user.User, error)
	GetUserByEmail(ctx context.Context, email string) (user.User, error)
	GetUserByUsername(ctx context.Context, username string) (user.User, error)
}

// TodoStore persists todo records.
type TodoStore interface {
	CreateTodo(ctx context.Context, t todo.Todo) (todo.Todo, error)
	ListTodosByOwner(ctx context.Context, username string) ([]todo.Todo, error)
	GetTodo(ctx context.Context, id string) (todo.Todo, error)
	UpdateTodoText(ctx context.Context, id, text string) (todo.Todo, error)
	DeleteTodo(ctx context.Context, id string) (todo.Todo, error)
}

// SessionStore persists session records until they expire.
type SessionStore interface {
	SaveSession(ctx context.Context, rec session.Record) error
	GetSession(ctx context.Context, id string) (session.Record, error)
	DeleteSession(ctx context.Context, id string) error
	// DeleteSessionsByEmail removes every session whose embedded user email
	// matches and returns how many were removed.
	DeleteSessionsByEmail(ctx context.Context, email string) (int64, error)
}

// SessionPurger is implemented by session stores that need expired records
// removed on a schedule.
type SessionPurger interface {
	PurgeExpiredSessions(ctx context.Context, now time.Time) (int64, error)
}

// Pinger is implemented by stores backed by a remote service.
type Pinger interface {
	Ping(ctx context.Context) error
}
