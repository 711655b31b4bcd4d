// Package todos implements owner-scoped todo operations.
package todos

import (
	"context"
	stderrors "errors"
	"fmt"
	"strconv"

	"github.com/R3E-Network/todo_service/internal/app/domain/todo"
	"github.com/R3E-Network/todo_service/internal/app/domain/user"
	"github.com/R3E-Network/todo_service/internal/app/storage"
	"github.com/R3E-Network/todo_service/internal/errors"
	"github.com/R3E-Network/todo_service/internal/logging"
	"github.com/R3E-Network/todo_service/internal/metrics"
	"github.com/R3E-Network/todo_service/internal/validation"
)

// Messages reported to clients.
const (
	MsgDatabaseError = "Database error"
	MsgTodoNotFound  = "Todo not found"
	MsgEditForbidden = "Not authorized to edit the todo."
	MsgMissingID     = "Missing todo id"
	MsgDeleteForbid  = "Not allowed to delete, authorization failed"
	MsgDeleteFailed  = "Unable to delete todo"
)

const (
	todoTextField = "todoText"
	editTextField = "newData"
	editIDField   = "id"
)

// Service manages todos on behalf of an authenticated owner.
type Service struct {
	store   storage.TodoStore
	log     *logging.Logger
	metrics *metrics.Metrics
}

// New constructs a todo service.
func New(store storage.TodoStore, log *logging.Logger) *Service {
	if log == nil {
		log = logging.NewDiscard()
	}
	return &Service{store: store, log: log}
}

// WithMetrics attaches a metrics recorder.
func (s *Service) WithMetrics(m *metrics.Metrics) *Service {
	s.metrics = m
	return s
}

// Create validates the todoText field of p and stores it for owner.
func (s *Service) Create(ctx context.Context, owner user.Summary, p validation.Payload) (created todo.Todo, err error) {
	defer func() { s.metrics.RecordTodoOperation("create", err == nil) }()

	text, err := validation.ValidateTodoText(p, todoTextField)
	if err != nil {
		return todo.Todo{}, err
	}

	created, err = s.store.CreateTodo(ctx, todo.Todo{Text: text, Username: owner.Username})
	if err != nil {
		s.log.WithContext(ctx).WithError(err).Error("create todo failed")
		return todo.Todo{}, errors.Persistence(MsgDatabaseError, err)
	}
	return created, nil
}

// List returns every todo owned by owner, oldest first. The result is never nil.
func (s *Service) List(ctx context.Context, owner user.Summary) (items []todo.Todo, err error) {
	defer func() { s.metrics.RecordTodoOperation("read", err == nil) }()

	items, err = s.store.ListTodosByOwner(ctx, owner.Username)
	if err != nil {
		s.log.WithContext(ctx).WithError(err).Error("list todos failed")
		return nil, errors.Persistence(MsgDatabaseError, err)
	}
	if items == nil {
		items = []todo.Todo{}
	}
	return items, nil
}

// Edit replaces the text of the todo named by p's id with p's newData. The
// text is validated first, then the todo is fetched and its owner compared
// before the write. The updated todo is returned.
func (s *Service) Edit(ctx context.Context, owner user.Summary, p validation.Payload) (updated todo.Todo, err error) {
	defer func() { s.metrics.RecordTodoOperation("edit", err == nil) }()

	text, err := validation.ValidateTodoText(p, editTextField)
	if err != nil {
		return todo.Todo{}, err
	}

	id := idValue(p[editIDField])
	if id == "" {
		return todo.Todo{}, errors.NotFound(MsgTodoNotFound)
	}

	existing, err := s.store.GetTodo(ctx, id)
	if stderrors.Is(err, storage.ErrNotFound) {
		return todo.Todo{}, errors.NotFound(MsgTodoNotFound)
	}
	if err != nil {
		s.log.WithContext(ctx).WithError(err).Error("get todo failed")
		return todo.Todo{}, errors.Persistence(MsgDatabaseError, err)
	}
	if !existing.OwnedBy(owner.Username) {
		s.log.LogSecurityEvent(ctx, "todo_edit_forbidden", map[string]interface{}{"todo_id": id})
		return todo.Todo{}, errors.Forbidden(MsgEditForbidden)
	}

	updated, err = s.store.UpdateTodoText(ctx, id, text)
	if stderrors.Is(err, storage.ErrNotFound) {
		return todo.Todo{}, errors.NotFound(MsgTodoNotFound)
	}
	if err != nil {
		s.log.WithContext(ctx).WithError(err).Error("update todo failed")
		return todo.Todo{}, errors.Persistence(MsgDatabaseError, err)
	}
	return updated, nil
}

// Delete removes the todo with id after confirming owner holds it, and
// returns the removed todo.
func (s *Service) Delete(ctx context.Context, owner user.Summary, id string) (deleted todo.Todo, err error) {
	defer func() { s.metrics.RecordTodoOperation("delete", err == nil) }()

	if id == "" {
		return todo.Todo{}, errors.Validation(MsgMissingID)
	}

	notFound := errors.NotFound(fmt.Sprintf("Todo not found with id: %s", id))
	existing, err := s.store.GetTodo(ctx, id)
	if stderrors.Is(err, storage.ErrNotFound) {
		return todo.Todo{}, notFound
	}
	if err != nil {
		s.log.WithContext(ctx).WithError(err).Error("get todo failed")
		return todo.Todo{}, errors.Persistence(MsgDeleteFailed, err)
	}
	if !existing.OwnedBy(owner.Username) {
		s.log.LogSecurityEvent(ctx, "todo_delete_forbidden", map[string]interface{}{"todo_id": id})
		return todo.Todo{}, errors.Forbidden(MsgDeleteForbid)
	}

	deleted, err = s.store.DeleteTodo(ctx, id)
	if stderrors.Is(err, storage.ErrNotFound) {
		return todo.Todo{}, notFound
	}
	if err != nil {
		s.log.WithContext(ctx).WithError(err).Error("delete todo failed")
		return todo.Todo{}, errors.Persistence(MsgDeleteFailed, err)
	}
	return deleted, nil
}

// idValue accepts ids sent as JSON strings or numbers.
func idValue(v interface{}) string {
	switch id := v.(type) {
	case string:
		return id
	case float64:
		return strconv.FormatFloat(id, 'f', -1, 64)
	default:
		return ""
	}
}
