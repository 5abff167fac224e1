package middleware

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/plaenen/usercqrs/pkg/eventsourcing"
)

type fakeCommand struct{}

func (fakeCommand) CommandName() string    { return "FakeCommand" }
func (fakeCommand) CommandID() string      { return "cmd-1" }
func (fakeCommand) CorrelationID() string  { return "corr-1" }

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(discard{}, nil))
}

type discard struct{}

func (discard) Write(p []byte) (int, error) { return len(p), nil }

func TestLoggingMiddleware_PassesThroughSuccess(t *testing.T) {
	next := func(ctx context.Context, cmd eventsourcing.Command) ([]eventsourcing.Event, error) {
		return []eventsourcing.Event{{EventType: "Did"}}, nil
	}

	wrapped := LoggingMiddleware(discardLogger())(next)
	events, err := wrapped(context.Background(), fakeCommand{})

	require.NoError(t, err)
	assert.Len(t, events, 1)
}

func TestLoggingMiddleware_PassesThroughError(t *testing.T) {
	wantErr := errors.New("boom")
	next := func(ctx context.Context, cmd eventsourcing.Command) ([]eventsourcing.Event, error) {
		return nil, wantErr
	}

	wrapped := LoggingMiddleware(discardLogger())(next)
	_, err := wrapped(context.Background(), fakeCommand{})

	assert.ErrorIs(t, err, wantErr)
}

func TestRecoveryMiddleware_RecoversPanic(t *testing.T) {
	next := func(ctx context.Context, cmd eventsourcing.Command) ([]eventsourcing.Event, error) {
		panic("something broke")
	}

	wrapped := RecoveryMiddleware(discardLogger())(next)
	events, err := wrapped(context.Background(), fakeCommand{})

	require.Error(t, err)
	assert.Nil(t, events)
	assert.Contains(t, err.Error(), "something broke")
}

func TestRecoveryMiddleware_PassesThroughWhenNoPanic(t *testing.T) {
	next := func(ctx context.Context, cmd eventsourcing.Command) ([]eventsourcing.Event, error) {
		return []eventsourcing.Event{{EventType: "Did"}}, nil
	}

	wrapped := RecoveryMiddleware(discardLogger())(next)
	events, err := wrapped(context.Background(), fakeCommand{})

	require.NoError(t, err)
	assert.Len(t, events, 1)
}

func TestChain_AppliesMiddlewareInOrder(t *testing.T) {
	var order []string
	mw := func(name string) eventsourcing.CommandMiddleware {
		return func(next eventsourcing.CommandHandlerFunc) eventsourcing.CommandHandlerFunc {
			return func(ctx context.Context, cmd eventsourcing.Command) ([]eventsourcing.Event, error) {
				order = append(order, name)
				return next(ctx, cmd)
			}
		}
	}

	handler := func(ctx context.Context, cmd eventsourcing.Command) ([]eventsourcing.Event, error) {
		order = append(order, "handler")
		return nil, nil
	}

	chained := eventsourcing.Chain(handler, mw("outer"), mw("inner"))
	_, err := chained(context.Background(), fakeCommand{})

	require.NoError(t, err)
	assert.Equal(t, []string{"outer", "inner", "handler"}, order)
}
