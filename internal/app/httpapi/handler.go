package httpapi

import (
	"net/http"

	"github.com/gorilla/mux"

	app "github.com/R3E-Network/todo_service/internal/app"
	"github.com/R3E-Network/todo_service/internal/app/services/todos"
	"github.com/R3E-Network/todo_service/internal/errors"
	"github.com/R3E-Network/todo_service/internal/httputil"
	"github.com/R3E-Network/todo_service/internal/middleware"
	"github.com/R3E-Network/todo_service/internal/session"
	"github.com/R3E-Network/todo_service/internal/validation"
)

// Envelope messages.
const (
	msgRootBanner      = "TODO Server in running"
	msgUserDataError   = "user data error"
	msgUserCreated     = "User Created Successfully"
	msgLoginDataError  = "Login data error"
	msgLoggedIn        = "You have successfully logged in"
	msgLoggedOut       = "Logout successfull"
	msgTodoDataError   = "Todo data error"
	msgTodoCreated     = "Todo created successfully"
	msgReadSuccess     = "Read success"
	msgTodoEdited      = "Todo edited successfully"
	msgTodoDeleted     = "Todo deleted successfully"
	msgInvalidBody     = "Invalid request body"
	msgDatabaseError   = "Database error"
	msgServiceDegraded = "unavailable"
)

// handler bundles HTTP endpoints for the application services.
type handler struct {
	app *app.Application
	out httputil.Writer
}

func (h *handler) root(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(msgRootBanner))
}

func (h *handler) health(w http.ResponseWriter, r *http.Request) {
	if err := h.app.Ping(r.Context()); err != nil {
		httputil.WriteJSON(w, http.StatusServiceUnavailable, httputil.Envelope{Status: http.StatusServiceUnavailable, Message: msgServiceDegraded})
		return
	}
	httputil.WriteJSON(w, http.StatusOK, httputil.Envelope{Status: http.StatusOK, Message: "ok"})
}

func (h *handler) register(w http.ResponseWriter, r *http.Request) {
	p, ok := h.payload(w, r, msgUserDataError)
	if !ok {
		return
	}
	created, err := h.app.Accounts.Register(r.Context(), p)
	if err != nil {
		h.out.Error(w, msgUserDataError, err)
		return
	}
	h.out.Success(w, http.StatusCreated, msgUserCreated, created)
}

func (h *handler) login(w http.ResponseWriter, r *http.Request) {
	p, ok := h.payload(w, r, msgLoginDataError)
	if !ok {
		return
	}
	token, st, err := h.app.Accounts.Login(r.Context(), p)
	if err != nil {
		h.out.Error(w, msgLoginDataError, err)
		return
	}
	h.app.Sessions.SetCookie(w, token, st.ExpiresAt)
	h.out.Success(w, http.StatusOK, msgLoggedIn, nil)
}

func (h *handler) logout(w http.ResponseWriter, r *http.Request) {
	if err := h.app.Accounts.Logout(r.Context(), session.FromContext(r.Context())); err != nil {
		h.out.Error(w, msgDatabaseError, err)
		return
	}
	h.app.Sessions.ClearCookie(w)
	h.out.Success(w, http.StatusOK, msgLoggedOut, nil)
}

func (h *handler) logoutAll(w http.ResponseWriter, r *http.Request) {
	if _, err := h.app.Accounts.LogoutAll(r.Context(), session.FromContext(r.Context())); err != nil {
		h.out.Error(w, msgDatabaseError, err)
		return
	}
	h.app.Sessions.ClearCookie(w)
	h.out.Success(w, http.StatusOK, msgLoggedOut, nil)
}

func (h *handler) createTodo(w http.ResponseWriter, r *http.Request) {
	owner, _ := middleware.Principal(r)
	p, ok := h.payload(w, r, msgTodoDataError)
	if !ok {
		return
	}
	created, err := h.app.Todos.Create(r.Context(), owner, p)
	if err != nil {
		h.out.Error(w, msgTodoDataError, err)
		return
	}
	h.out.Success(w, http.StatusCreated, msgTodoCreated, created)
}

func (h *handler) readTodos(w http.ResponseWriter, r *http.Request) {
	owner, _ := middleware.Principal(r)
	items, err := h.app.Todos.List(r.Context(), owner)
	if err != nil {
		h.out.Error(w, msgDatabaseError, err)
		return
	}
	h.out.Success(w, http.StatusOK, msgReadSuccess, items)
}

func (h *handler) editTodo(w http.ResponseWriter, r *http.Request) {
	owner, _ := middleware.Principal(r)
	p, ok := h.payload(w, r, msgTodoDataError)
	if !ok {
		return
	}
	updated, err := h.app.Todos.Edit(r.Context(), owner, p)
	if err != nil {
		h.out.Error(w, msgTodoDataError, err)
		return
	}
	h.out.Success(w, http.StatusOK, msgTodoEdited, updated)
}

func (h *handler) deleteTodo(w http.ResponseWriter, r *http.Request) {
	owner, _ := middleware.Principal(r)
	deleted, err := h.app.Todos.Delete(r.Context(), owner, mux.Vars(r)["id"])
	if err != nil {
		h.out.Error(w, todos.MsgMissingID, err)
		return
	}
	h.out.Success(w, http.StatusOK, msgTodoDeleted, deleted)
}

// payload decodes the request body, answering with a validation envelope
// under message when the body is malformed.
func (h *handler) payload(w http.ResponseWriter, r *http.Request, message string) (validation.Payload, bool) {
	p, err := httputil.DecodePayload(r)
	if err != nil {
		h.out.Error(w, message, errors.Validation(msgInvalidBody))
		return nil, false
	}
	return p, true
}
