package httpapi

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"

	app "github.com/R3E-Network/todo_service/internal/app"
	"github.com/R3E-Network/todo_service/internal/httputil"
	"github.com/R3E-Network/todo_service/internal/logging"
	"github.com/R3E-Network/todo_service/internal/middleware"
)

// Config controls transport behaviour of the API.
type Config struct {
	// MirrorStatus sends the envelope status as the transport status.
	MirrorStatus   bool
	AllowedOrigins []string
	RequestTimeout time.Duration
	ServiceName    string
}

// NewHandler returns the API router wrapped in request logging and CORS. Protected
// routes pass through the auth gate first.
func NewHandler(application *app.Application, cfg Config, log *logging.Logger) http.Handler {
	if log == nil {
		log = logging.NewDiscard()
	}
	if cfg.ServiceName == "" {
		cfg.ServiceName = log.Service()
	}

	h := &handler{app: application, out: httputil.Writer{MirrorStatus: cfg.MirrorStatus}}
	gate := middleware.NewAuthGate(application.Sessions, log)
	protected := func(fn http.HandlerFunc) http.Handler {
		return gate.Handler(fn)
	}

	r := mux.NewRouter()
	r.Use(middleware.MetricsMiddleware(cfg.ServiceName, application.Metrics))
	r.Use(middleware.Timeout(cfg.RequestTimeout))

	r.HandleFunc("/", h.root).Methods(http.MethodGet)
	r.HandleFunc("/healthz", h.health).Methods(http.MethodGet)
	r.Handle("/metrics", application.Metrics.Handler()).Methods(http.MethodGet)

	r.HandleFunc("/register", h.register).Methods(http.MethodPost)
	r.HandleFunc("/login", h.login).Methods(http.MethodPost)

	r.Handle("/logout", protected(h.logout)).Methods(http.MethodPost)
	r.Handle("/logout_from_all_devices", protected(h.logoutAll)).Methods(http.MethodPost)
	r.Handle("/create-item", protected(h.createTodo)).Methods(http.MethodPost)
	r.Handle("/read-item", protected(h.readTodos)).Methods(http.MethodGet)
	r.Handle("/edit-item", protected(h.editTodo)).Methods(http.MethodPost)
	r.Handle("/delete-item/{id}", protected(h.deleteTodo)).Methods(http.MethodDelete)
	r.Handle("/delete-item", protected(h.deleteTodo)).Methods(http.MethodDelete)
	r.Handle("/delete-item/", protected(h.deleteTodo)).Methods(http.MethodDelete)

	// CORS sits outside the router so preflight requests never reach
	// method matching.
	var out http.Handler = r
	out = middleware.NewCORSMiddleware(cfg.AllowedOrigins).Handler(out)
	out = middleware.NewRequestLogger(log, "/healthz", "/metrics").Handler(out)
	return out
}
