package main

import (
	"context"
	"database/sql"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/pressly/goose/v3"

	_ "github.com/jackc/pgx/v5/stdlib"

	"shelf-service/internal/api"
	"shelf-service/internal/config"
	"shelf-service/internal/di"
	"shelf-service/internal/tracing"
	_ "shelf-service/migrations"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	api.SetupGlobalHandler(cfg.App.Name, cfg.App.LogLevel)

	if len(os.Args) > 1 && os.Args[1] == "migrate" {
		if err := runMigrations(cfg.Database.URL()); err != nil {
			slog.Error("Failed to run migrations", "error", err)
			os.Exit(1)
		}
		return
	}

	shutdownTracer, err := tracing.InitTracerProvider(tracing.Options{
		ServiceName: cfg.App.Name,
		Enabled:     cfg.Tracing.Enabled,
		Endpoint:    cfg.Tracing.Endpoint,
	})
	if err != nil {
		slog.Error("Failed to initialize OpenTelemetry", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := shutdownTracer(context.Background()); err != nil {
			slog.Error("Error shutting down tracer provider", "error", err)
		}
	}()

	injector := di.NewContainer(cfg)

	server, err := di.BootstrapServer(injector)
	if err != nil {
		slog.Error("Failed to bootstrap server", "error", err)
		os.Exit(1)
	}

	go func() {
		if err := di.ReindexIfEmpty(context.Background(), injector); err != nil {
			slog.Error("Initial search reindex failed", "error", err)
		}
	}()

	go func() {
		slog.Info("Listening", "service", cfg.App.Name, "addr", server.Addr)
		if err := server.Listen(server.Addr); err != nil {
			slog.Error("Server stopped", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("Shutting down server gracefully")

	if err := injector.Shutdown(); err != nil {
		slog.Error("Shutdown error", "error", err)
	}
}

func runMigrations(dbURL string) error {
	slog.Info("Running database migrations")

	db, err := sql.Open("pgx", dbURL)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := goose.SetDialect("postgres"); err != nil {
		return err
	}

	if err := goose.Up(db, "migrations"); err != nil {
		return err
	}

	slog.Info("Migrations applied successfully")
	return nil
}
