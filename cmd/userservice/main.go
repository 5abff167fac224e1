// Command userservice is the composition root: it builds the event
// store, projection, event bus, command handler, and HTTP server, and
// runs them under pkg/runner until an interrupt or termination signal
// arrives.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/plaenen/usercqrs/internal/command"
	"github.com/plaenen/usercqrs/internal/config"
	"github.com/plaenen/usercqrs/internal/httpapi"
	"github.com/plaenen/usercqrs/internal/projection"
	"github.com/plaenen/usercqrs/internal/store"
	"github.com/plaenen/usercqrs/pkg/eventbus"
	"github.com/plaenen/usercqrs/pkg/eventsourcing"
	"github.com/plaenen/usercqrs/pkg/middleware"
	"github.com/plaenen/usercqrs/pkg/observability"
	"github.com/plaenen/usercqrs/pkg/runner"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel}))
	slog.SetDefault(logger)

	ctx := context.Background()

	telemetry, err := observability.Init(ctx, observability.Config{
		ServiceName:    cfg.ServiceName,
		ServiceVersion: cfg.ServiceVersion,
		Environment:    cfg.Environment,
		Logger:         logger,
	})
	if err != nil {
		return fmt.Errorf("init telemetry: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = telemetry.Shutdown(shutdownCtx)
	}()

	eventStore := store.NewEventStore(store.WithEventStoreMetrics(telemetry.Metrics))
	repository := store.NewRepository(eventStore, store.WithRepositoryMetrics(telemetry.Metrics))
	readModel := projection.NewUserReadModel()

	bus := eventbus.New(
		eventbus.WithDeadLetterRecorder(eventStore),
		eventbus.WithMetrics(telemetry.Metrics),
		eventbus.WithLogger(logger),
		eventbus.WithTracer(telemetry.Tracer("usercqrs/eventbus")),
	)
	projectionSubscriber := projection.NewSubscriber(readModel, projection.WithSubscriberMetrics(telemetry.Metrics))
	if err := bus.Subscribe(projectionSubscriber); err != nil {
		return fmt.Errorf("subscribe projection: %w", err)
	}

	cmdHandler := command.NewHandler(repository, bus,
		command.WithTracer(telemetry.Tracer("usercqrs/command")),
		command.WithHandlerMetrics(telemetry.Metrics),
	)
	dispatch := eventsourcing.Chain(
		cmdHandler.Handle,
		middleware.RecoveryMiddleware(logger),
		middleware.LoggingMiddleware(logger),
	)

	httpServer := httpapi.NewServer(dispatch, readModel, eventStore, telemetry, logger)
	httpService := httpapi.NewHTTPService(httpServer, cfg.APIPort, logger)

	r := runner.New([]runner.Service{httpService}, runner.WithLogger(slogRunnerLogger{logger}))
	return r.Run(ctx)
}

// slogRunnerLogger adapts *slog.Logger to runner.Logger.
type slogRunnerLogger struct {
	logger *slog.Logger
}

func (l slogRunnerLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Info(msg, keysAndValues...)
}

func (l slogRunnerLogger) Error(msg string, keysAndValues ...interface{}) {
	l.logger.Error(msg, keysAndValues...)
}

func (l slogRunnerLogger) Debug(msg string, keysAndValues ...interface{}) {
	l.logger.Debug(msg, keysAndValues...)
}
