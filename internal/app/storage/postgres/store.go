package postgres

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/R3E-Network/todo_service/internal/app/domain/todo"
	"github.com/R3E-Network/todo_service/internal/app/domain/user"
	"github.com/R3E-Network/todo_service/internal/app/storage"
)

// foreignKeyViolation is the Postgres SQLSTATE for a failed FK check.
const foreignKeyViolation = "23503"

var psql = squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)

var (
	userColumns = []string{"id", "name", "email", "username", "password", "created_at"}
	todoColumns = []string{"id", "todo", "username", "status", "created_at"}
)

// Store implements the user and todo storage interfaces backed by PostgreSQL.
type Store struct {
	db  *sqlx.DB
	now func() time.Time
}

var _ storage.UserStore = (*Store)(nil)
var _ storage.TodoStore = (*Store)(nil)
var _ storage.Pinger = (*Store)(nil)

// New creates a Store using the provided database handle.
func New(db *sqlx.DB) *Store {
	return &Store{db: db, now: time.Now}
}

// Open connects to dsn with the lib/pq driver and verifies the connection.
func Open(ctx context.Context, dsn string) (*sqlx.DB, error) {
	db, err := sqlx.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

// Ping checks the database connection.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// --- UserStore ---------------------------------------------------------------

func (s *Store) CreateUser(ctx context.Context, u user.User) (user.User, error) {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	u.CreatedAt = s.now().UTC()

	query, args, err := psql.Insert("users").
		Columns(userColumns...).
		Values(u.ID, u.Name, u.Email, u.Username, u.Password, u.CreatedAt).
		ToSql()
	if err != nil {
		return user.User{}, err
	}
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return user.User{}, err
	}
	return u, nil
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (user.User, error) {
	return s.getUser(ctx, squirrel.Eq{"email": email})
}

func (s *Store) GetUserByUsername(ctx context.Context, username string) (user.User, error) {
	return s.getUser(ctx, squirrel.Eq{"username": username})
}

func (s *Store) getUser(ctx context.Context, pred squirrel.Eq) (user.User, error) {
	query, args, err := psql.Select(userColumns...).From("users").Where(pred).Limit(1).ToSql()
	if err != nil {
		return user.User{}, err
	}

	var u user.User
	if err := s.db.GetContext(ctx, &u, query, args...); err != nil {
		return user.User{}, notFound(err)
	}
	return u, nil
}

// --- TodoStore ---------------------------------------------------------------

func (s *Store) CreateTodo(ctx context.Context, t todo.Todo) (todo.Todo, error) {
	t.ID = uuid.NewString()
	if t.CreatedAt.IsZero() {
		t.CreatedAt = s.now().UTC()
	}

	query, args, err := psql.Insert("todos").
		Columns(todoColumns...).
		Values(t.ID, t.Text, t.Username, t.Completed, t.CreatedAt).
		ToSql()
	if err != nil {
		return todo.Todo{}, err
	}
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == foreignKeyViolation {
			return todo.Todo{}, storage.ErrOwnerNotFound
		}
		return todo.Todo{}, err
	}
	return t, nil
}

func (s *Store) ListTodosByOwner(ctx context.Context, username string) ([]todo.Todo, error) {
	query, args, err := psql.Select(todoColumns...).
		From("todos").
		Where(squirrel.Eq{"username": username}).
		OrderBy("created_at", "id").
		ToSql()
	if err != nil {
		return nil, err
	}

	result := make([]todo.Todo, 0)
	if err := s.db.SelectContext(ctx, &result, query, args...); err != nil {
		return nil, err
	}
	return result, nil
}

func (s *Store) GetTodo(ctx context.Context, id string) (todo.Todo, error) {
	query, args, err := psql.Select(todoColumns...).From("todos").Where(squirrel.Eq{"id": id}).ToSql()
	if err != nil {
		return todo.Todo{}, err
	}

	var t todo.Todo
	if err := s.db.GetContext(ctx, &t, query, args...); err != nil {
		return todo.Todo{}, notFound(err)
	}
	return t, nil
}

func (s *Store) UpdateTodoText(ctx context.Context, id, text string) (todo.Todo, error) {
	query, args, err := psql.Update("todos").
		Set("todo", text).
		Where(squirrel.Eq{"id": id}).
		Suffix(returning(todoColumns)).
		ToSql()
	if err != nil {
		return todo.Todo{}, err
	}

	var t todo.Todo
	if err := s.db.GetContext(ctx, &t, query, args...); err != nil {
		return todo.Todo{}, notFound(err)
	}
	return t, nil
}

func (s *Store) DeleteTodo(ctx context.Context, id string) (todo.Todo, error) {
	query, args, err := psql.Delete("todos").
		Where(squirrel.Eq{"id": id}).
		Suffix(returning(todoColumns)).
		ToSql()
	if err != nil {
		return todo.Todo{}, err
	}

	var t todo.Todo
	if err := s.db.GetContext(ctx, &t, query, args...); err != nil {
		return todo.Todo{}, notFound(err)
	}
	return t, nil
}

func returning(columns []string) string {
	return "RETURNING " + strings.Join(columns, ", ")
}

func notFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return storage.ErrNotFound
	}
	return err
}
