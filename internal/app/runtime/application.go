package runtime

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/jmoiron/sqlx"

	app "github.com/R3E-Network/todo_service/internal/app"
	"github.com/R3E-Network/todo_service/internal/app/httpapi"
	"github.com/R3E-Network/todo_service/internal/app/storage/memory"
	"github.com/R3E-Network/todo_service/internal/app/storage/postgres"
	redisstore "github.com/R3E-Network/todo_service/internal/app/storage/redis"
	"github.com/R3E-Network/todo_service/internal/config"
	"github.com/R3E-Network/todo_service/internal/logging"
	"github.com/R3E-Network/todo_service/internal/metrics"
	"github.com/R3E-Network/todo_service/internal/platform/migrations"
)

const shutdownTimeout = 10 * time.Second

// Application wires core dependencies and manages the HTTP server lifecycle.
type Application struct {
	cfg        *config.Config
	log        *logging.Logger
	app        *app.Application
	httpServer *http.Server
	db         *sqlx.DB
	redis      *redis.Client
}

// NewApplication constructs the service from cfg: stores, services, router
// and HTTP server.
func NewApplication(ctx context.Context, cfg *config.Config, log *logging.Logger) (*Application, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	if log == nil {
		log = logging.New("todo", cfg.Logging.Level, cfg.Logging.Format)
	}

	a := &Application{cfg: cfg, log: log}
	stores, err := a.buildStores(ctx)
	if err != nil {
		a.closeConnections()
		return nil, fmt.Errorf("configure stores: %w", err)
	}

	m := metrics.New("todo_service")
	application, err := app.New(stores, app.Options{
		SessionSecret: cfg.Session.Secret,
		SessionTTL:    cfg.Session.TTL,
		CookieName:    cfg.Session.CookieName,
		CookieSecure:  cfg.Session.CookieSecure,
		BcryptCost:    cfg.Security.BcryptCost,
		PurgeSchedule: cfg.Session.PurgeSchedule,
		Metrics:       m,
	}, log)
	if err != nil {
		a.closeConnections()
		return nil, err
	}
	a.app = application

	handler := httpapi.NewHandler(application, httpapi.Config{
		MirrorStatus:   cfg.Server.MirrorStatus,
		AllowedOrigins: cfg.Server.Origins(),
		RequestTimeout: cfg.Server.RequestTimeout,
		ServiceName:    log.Service(),
	}, log)

	a.httpServer = &http.Server{
		Addr:              cfg.Server.Addr(),
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return a, nil
}

// App exposes the composed application.
func (a *Application) App() *app.Application {
	return a.app
}

// Handler exposes the HTTP handler.
func (a *Application) Handler() http.Handler {
	return a.httpServer.Handler
}

// Run starts background services and the HTTP server, and blocks until ctx
// is cancelled or the server fails. Shutdown is the caller's job.
func (a *Application) Run(ctx context.Context) error {
	if err := a.app.Start(ctx); err != nil {
		return fmt.Errorf("start services: %w", err)
	}

	ln, err := net.Listen("tcp", a.httpServer.Addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", a.httpServer.Addr, err)
	}
	return a.Serve(ctx, ln)
}

// Serve runs the HTTP server on ln until ctx is cancelled.
func (a *Application) Serve(ctx context.Context, ln net.Listener) error {
	errCh := make(chan error, 1)
	go func() {
		a.log.WithField("addr", ln.Addr().String()).Info("HTTP server listening")
		if err := a.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		return nil
	case err := <-errCh:
		return err
	}
}

// Shutdown gracefully stops the HTTP server, background services and
// connections.
func (a *Application) Shutdown(ctx context.Context) error {
	shutdownCtx, cancel := context.WithTimeout(ctx, shutdownTimeout)
	defer cancel()

	var errs []error
	if err := a.httpServer.Shutdown(shutdownCtx); err != nil {
		errs = append(errs, err)
	}
	if err := a.app.Stop(shutdownCtx); err != nil {
		errs = append(errs, err)
	}
	a.closeConnections()
	return errors.Join(errs...)
}

func (a *Application) buildStores(ctx context.Context) (app.Stores, error) {
	var stores app.Stores
	mem := memory.New()

	if url := a.cfg.Database.URL; url != "" {
		if a.cfg.Database.AutoMigrate {
			if err := migrations.Up(url); err != nil {
				return stores, fmt.Errorf("migrate: %w", err)
			}
			a.log.Info("database migrations applied")
		}
		db, err := postgres.Open(ctx, url)
		if err != nil {
			return stores, fmt.Errorf("open database: %w", err)
		}
		configurePool(db, a.cfg.Database)
		a.db = db

		pg := postgres.New(db)
		stores.Users = pg
		stores.Todos = pg
	} else {
		a.log.Warn("DATABASE_URL not set; using in-memory user and todo stores")
		stores.Users = mem
		stores.Todos = mem
	}

	switch a.cfg.Session.Backend {
	case config.SessionBackendRedis:
		client, err := redisstore.Dial(ctx, a.cfg.Redis.URL)
		if err != nil {
			return stores, fmt.Errorf("connect redis: %w", err)
		}
		a.redis = client
		stores.Sessions = redisstore.NewSessionStore(client, a.cfg.Redis.KeyPrefix)
	case config.SessionBackendPostgres:
		if a.db == nil {
			return stores, fmt.Errorf("postgres session backend requires DATABASE_URL")
		}
		stores.Sessions = postgres.NewSessionStore(a.db)
	default:
		stores.Sessions = mem
	}
	return stores, nil
}

func configurePool(db *sqlx.DB, cfg config.DatabaseConfig) {
	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}
}

func (a *Application) closeConnections() {
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.log.WithError(err).Warn("error closing redis connection")
		}
		a.redis = nil
	}
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			a.log.WithError(err).Warn("error closing database connection")
		}
		a.db = nil
	}
}
