package middleware

import (
	"context"
	"log/slog"
	"time"

	"github.com/plaenen/usercqrs/pkg/eventsourcing"
)

// LoggingMiddleware logs command execution with timing information using slog.
func LoggingMiddleware(logger *slog.Logger) eventsourcing.CommandMiddleware {
	if logger == nil {
		logger = slog.Default()
	}

	return func(next eventsourcing.CommandHandlerFunc) eventsourcing.CommandHandlerFunc {
		return func(ctx context.Context, cmd eventsourcing.Command) ([]eventsourcing.Event, error) {
			start := time.Now()

			logger.InfoContext(ctx, "executing command",
				slog.String("command_type", cmd.CommandName()),
				slog.String("command_id", cmd.CommandID()),
				slog.String("correlation_id", cmd.CorrelationID()),
			)

			events, err := next(ctx, cmd)

			duration := time.Since(start)

			if err != nil {
				logger.ErrorContext(ctx, "command execution failed",
					slog.String("command_type", cmd.CommandName()),
					slog.String("command_id", cmd.CommandID()),
					slog.Int64("duration_ms", duration.Milliseconds()),
					slog.String("error", err.Error()),
				)
				return nil, err
			}

			logger.InfoContext(ctx, "command executed successfully",
				slog.String("command_type", cmd.CommandName()),
				slog.String("command_id", cmd.CommandID()),
				slog.Int("events_count", len(events)),
				slog.Int64("duration_ms", duration.Milliseconds()),
			)

			return events, nil
		}
	}
}
