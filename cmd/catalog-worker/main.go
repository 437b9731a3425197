package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"shelf-service/internal/api"
	"shelf-service/internal/config"
	"shelf-service/internal/di"
	"shelf-service/internal/tracing"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	serviceName := cfg.App.Name + "-catalog-worker"
	api.SetupGlobalHandler(serviceName, cfg.App.LogLevel)

	if !cfg.NATS.Enabled {
		slog.Error("NATS is disabled, the catalog worker has nothing to consume")
		os.Exit(1)
	}

	shutdownTracer, err := tracing.InitTracerProvider(tracing.Options{
		ServiceName: serviceName,
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

	if _, err := di.BootstrapWorker(injector); err != nil {
		slog.Error("Failed to start catalog worker", "error", err)
		os.Exit(1)
	}

	slog.Info("Catalog worker started, waiting for events")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("Shutting down catalog worker")

	if err := injector.Shutdown(); err != nil {
		slog.Error("Shutdown error", "error", err)
	}
}
