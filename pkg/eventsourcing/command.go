package eventsourcing

import "context"

// Command is implemented by every command this service accepts.
type Command interface {
	// CommandName returns the command's short name, e.g. "RegisterUser".
	CommandName() string

	// CommandID returns a unique identifier for this command invocation,
	// used as the causation ID for any events it produces.
	CommandID() string

	// CorrelationID returns the correlation ID to attach to every event
	// produced while handling this command.
	CorrelationID() string
}

// CommandHandlerFunc handles a single command and returns the events it produced.
type CommandHandlerFunc func(ctx context.Context, cmd Command) ([]Event, error)

// CommandMiddleware wraps a CommandHandlerFunc with cross-cutting behavior
// such as logging, recovery, or metrics.
type CommandMiddleware func(next CommandHandlerFunc) CommandHandlerFunc

// Chain composes middlewares around a handler, applied in the order given:
// the first middleware is the outermost wrapper.
func Chain(handler CommandHandlerFunc, mws ...CommandMiddleware) CommandHandlerFunc {
	for i := len(mws) - 1; i >= 0; i-- {
		handler = mws[i](handler)
	}
	return handler
}
