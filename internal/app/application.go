package app

import (
	"context"
	"fmt"
	"time"

	"github.com/R3E-Network/todo_service/internal/app/services/accounts"
	"github.com/R3E-Network/todo_service/internal/app/services/todos"
	"github.com/R3E-Network/todo_service/internal/app/storage"
	"github.com/R3E-Network/todo_service/internal/app/storage/memory"
	"github.com/R3E-Network/todo_service/internal/app/system"
	"github.com/R3E-Network/todo_service/internal/logging"
	"github.com/R3E-Network/todo_service/internal/metrics"
	"github.com/R3E-Network/todo_service/internal/session"
)

// Stores encapsulates persistence dependencies. Nil stores default to the
// in-memory implementation.
type Stores struct {
	Users    storage.UserStore
	Todos    storage.TodoStore
	Sessions storage.SessionStore
}

// Options configures sessions, password hashing and background work.
type Options struct {
	SessionSecret string
	SessionTTL    time.Duration
	CookieName    string
	CookieSecure  bool
	BcryptCost    int
	// PurgeSchedule is a cron spec for the expired-session janitor. It is
	// ignored when the session store cannot purge, and empty disables it.
	PurgeSchedule string
	Metrics       *metrics.Metrics
}

// Application ties domain services together and manages their lifecycle.
type Application struct {
	manager *system.Manager
	log     *logging.Logger
	stores  Stores

	Accounts *accounts.Service
	Todos    *todos.Service
	Sessions *session.Manager
	Metrics  *metrics.Metrics
}

// New builds a fully initialised application with the provided stores.
func New(stores Stores, opts Options, log *logging.Logger) (*Application, error) {
	if log == nil {
		log = logging.NewDiscard()
	}
	if opts.Metrics == nil {
		opts.Metrics = metrics.New("")
	}

	if stores.Users == nil || stores.Todos == nil || stores.Sessions == nil {
		mem := memory.New()
		if stores.Users == nil {
			stores.Users = mem
		}
		if stores.Todos == nil {
			stores.Todos = mem
		}
		if stores.Sessions == nil {
			stores.Sessions = mem
		}
	}

	sessions, err := session.NewManager(session.Config{
		Store:      stores.Sessions,
		Secret:     opts.SessionSecret,
		TTL:        opts.SessionTTL,
		CookieName: opts.CookieName,
		Secure:     opts.CookieSecure,
	})
	if err != nil {
		return nil, fmt.Errorf("configure sessions: %w", err)
	}

	manager := system.NewManager()
	if purger, ok := stores.Sessions.(storage.SessionPurger); ok && opts.PurgeSchedule != "" {
		janitor, err := session.NewJanitor(purger, opts.PurgeSchedule, log)
		if err != nil {
			return nil, err
		}
		janitor.OnPurge(opts.Metrics.RecordSessionsPurged)
		if err := manager.Register(janitor); err != nil {
			return nil, fmt.Errorf("register %s: %w", janitor.Name(), err)
		}
	}

	return &Application{
		manager:  manager,
		log:      log,
		stores:   stores,
		Accounts: accounts.New(stores.Users, sessions, opts.BcryptCost, log).WithMetrics(opts.Metrics),
		Todos:    todos.New(stores.Todos, log).WithMetrics(opts.Metrics),
		Sessions: sessions,
		Metrics:  opts.Metrics,
	}, nil
}

// Attach registers an additional lifecycle-managed service. Call before Start.
func (a *Application) Attach(service system.Service) error {
	return a.manager.Register(service)
}

// Start begins all registered services.
func (a *Application) Start(ctx context.Context) error {
	return a.manager.Start(ctx)
}

// Stop stops all services.
func (a *Application) Stop(ctx context.Context) error {
	return a.manager.Stop(ctx)
}

// Ping checks every store that can report its health.
func (a *Application) Ping(ctx context.Context) error {
	seen := map[interface{}]bool{}
	for _, s := range []interface{}{a.stores.Users, a.stores.Todos, a.stores.Sessions} {
		pinger, ok := s.(storage.Pinger)
		if !ok || seen[s] {
			continue
		}
		seen[s] = true
		if err := pinger.Ping(ctx); err != nil {
			return err
		}
	}
	return nil
}
