package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/R3E-Network/todo_service/internal/app/runtime"
	"github.com/R3E-Network/todo_service/internal/cli"
	"github.com/R3E-Network/todo_service/internal/config"
	"github.com/R3E-Network/todo_service/internal/logging"
	"github.com/R3E-Network/todo_service/internal/platform/migrations"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "todoserver",
		Short: "Session-authenticated todo API",
		Long: `todoserver serves the todo API.

Configuration is read from a .env file, the YAML file named by
TODO_CONFIG_FILE, and environment variables, in that order.`,
		SilenceUsage: true,
	}
	root.AddCommand(newServeCmd(), newMigrateCmd())
	return root
}

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			log := logging.New("todo", cfg.Logging.Level, cfg.Logging.Format)

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			application, err := runtime.NewApplication(ctx, cfg, log)
			if err != nil {
				return err
			}

			runErr := application.Run(ctx)
			if err := application.Shutdown(context.Background()); err != nil {
				log.WithError(err).Warn("shutdown incomplete")
			}
			log.Info("server stopped")
			return runErr
		},
	}
}

func newMigrateCmd() *cobra.Command {
	var steps int
	migrate := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the Postgres schema",
	}

	up := &cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			dsn, err := databaseURL()
			if err != nil {
				return err
			}
			out := cli.NewPrinter(cmd.OutOrStdout())
			if err := migrations.Up(dsn); err != nil {
				out.Error("migrate up: %v", err)
				return err
			}
			out.Success("schema up to date")
			return nil
		},
	}

	down := &cobra.Command{
		Use:   "down",
		Short: "Roll back migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			dsn, err := databaseURL()
			if err != nil {
				return err
			}
			out := cli.NewPrinter(cmd.OutOrStdout())
			if err := migrations.Down(dsn, steps); err != nil {
				out.Error("migrate down: %v", err)
				return err
			}
			out.Success("rolled back %d migration(s)", steps)
			return nil
		},
	}
	down.Flags().IntVar(&steps, "steps", 1, "number of migrations to roll back")

	version := &cobra.Command{
		Use:   "version",
		Short: "Print the current schema version",
		RunE: func(cmd *cobra.Command, args []string) error {
			dsn, err := databaseURL()
			if err != nil {
				return err
			}
			out := cli.NewPrinter(cmd.OutOrStdout())
			v, dirty, err := migrations.Version(dsn)
			if err != nil {
				out.Error("read version: %v", err)
				return err
			}
			if dirty {
				out.Warning("schema version %d is dirty", v)
				return nil
			}
			out.Info("schema version %d", v)
			return nil
		},
	}

	migrate.AddCommand(up, down, version)
	return migrate
}

// databaseURL loads configuration only for its connection string, so
// migrations do not require a session secret.
func databaseURL() (string, error) {
	cfg, err := config.Load()
	if err == nil {
		if cfg.Database.URL == "" {
			return "", fmt.Errorf("DATABASE_URL is not set")
		}
		return cfg.Database.URL, nil
	}
	if url := os.Getenv("DATABASE_URL"); url != "" {
		return url, nil
	}
	return "", err
}
