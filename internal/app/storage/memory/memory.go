package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/R3E-Network/todo_service/internal/app/domain/session"
	"github.com/R3E-Network/todo_service/internal/app/domain/todo"
	"github.com/R3E-Network/todo_service/internal/app/domain/user"
	"github.com/R3E-Network/todo_service/internal/app/storage"
)

// Store is an in-memory implementation of the storage interfaces. It is safe
// for concurrent use and is primarily intended for tests and local development.
type Store struct {
	mu        sync.RWMutex
	nextID    int64
	now       func() time.Time
	users     map[string]user.User
	todos     map[string]todo.Todo
	todoOrder []string
	sessions  map[string]session.Record
}

var _ storage.UserStore = (*Store)(nil)
var _ storage.TodoStore = (*Store)(nil)
var _ storage.SessionStore = (*Store)(nil)
var _ storage.SessionPurger = (*Store)(nil)

// Option configures a Store.
type Option func(*Store)

// WithClock overrides the time source used for timestamps and expiry.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// New creates an empty store.
func New(opts ...Option) *Store {
	s := &Store{
		nextID:   1,
		now:      time.Now,
		users:    make(map[string]user.User),
		todos:    make(map[string]todo.Todo),
		sessions: make(map[string]session.Record),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) nextIDLocked() string {
	id := s.nextID
	s.nextID++
	return fmt.Sprintf("%d", id)
}

// UserStore implementation ----------------------------------------------------

func (s *Store) CreateUser(_ context.Context, u user.User) (user.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if u.ID == "" {
		u.ID = s.nextIDLocked()
	} else if _, exists := s.users[u.ID]; exists {
		return user.User{}, fmt.Errorf("user %s already exists", u.ID)
	}
	u.CreatedAt = s.now().UTC()

	s.users[u.ID] = u
	return u, nil
}

func (s *Store) GetUserByEmail(_ context.Context, email string) (user.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, u := range s.users {
		if u.Email == email {
			return u, nil
		}
	}
	return user.User{}, storage.ErrNotFound
}

func (s *Store) GetUserByUsername(_ context.Context, username string) (user.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if u, ok := s.userByUsernameLocked(username); ok {
		return u, nil
	}
	return user.User{}, storage.ErrNotFound
}

func (s *Store) userByUsernameLocked(username string) (user.User, bool) {
	for _, u := range s.users {
		if u.Username == username {
			return u, true
		}
	}
	return user.User{}, false
}

// TodoStore implementation ----------------------------------------------------

func (s *Store) CreateTodo(_ context.Context, t todo.Todo) (todo.Todo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.userByUsernameLocked(t.Username); !ok {
		return todo.Todo{}, storage.ErrOwnerNotFound
	}

	t.ID = s.nextIDLocked()
	if t.CreatedAt.IsZero() {
		t.CreatedAt = s.now().UTC()
	}

	s.todos[t.ID] = t
	s.todoOrder = append(s.todoOrder, t.ID)
	return t, nil
}

func (s *Store) ListTodosByOwner(_ context.Context, username string) ([]todo.Todo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]todo.Todo, 0)
	for _, id := range s.todoOrder {
		if t := s.todos[id]; t.Username == username {
			result = append(result, t)
		}
	}
	return result, nil
}

func (s *Store) GetTodo(_ context.Context, id string) (todo.Todo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, ok := s.todos[id]
	if !ok {
		return todo.Todo{}, storage.ErrNotFound
	}
	return t, nil
}

func (s *Store) UpdateTodoText(_ context.Context, id, text string) (todo.Todo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.todos[id]
	if !ok {
		return todo.Todo{}, storage.ErrNotFound
	}
	t.Text = text
	s.todos[id] = t
	return t, nil
}

func (s *Store) DeleteTodo(_ context.Context, id string) (todo.Todo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.todos[id]
	if !ok {
		return todo.Todo{}, storage.ErrNotFound
	}
	delete(s.todos, id)
	for i, existing := range s.todoOrder {
		if existing == id {
			s.todoOrder = append(s.todoOrder[:i], s.todoOrder[i+1:]...)
			break
		}
	}
	return t, nil
}

// SessionStore implementation -------------------------------------------------

func (s *Store) SaveSession(_ context.Context, rec session.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if rec.ID == "" {
		return fmt.Errorf("session id required")
	}
	s.sessions[rec.ID] = rec
	return nil
}

func (s *Store) GetSession(_ context.Context, id string) (session.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.sessions[id]
	if !ok || rec.Expired(s.now()) {
		return session.Record{}, storage.ErrNotFound
	}
	return rec, nil
}

func (s *Store) DeleteSession(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.sessions, id)
	return nil
}

func (s *Store) DeleteSessionsByEmail(_ context.Context, email string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var removed int64
	for id, rec := range s.sessions {
		if rec.User.Email == email {
			delete(s.sessions, id)
			removed++
		}
	}
	return removed, nil
}

func (s *Store) PurgeExpiredSessions(_ context.Context, now time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var removed int64
	for id, rec := range s.sessions {
		if rec.Expired(now) {
			delete(s.sessions, id)
			removed++
		}
	}
	return removed, nil
}
