package command

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/plaenen/usercqrs/internal/domain"
	"github.com/plaenen/usercqrs/internal/store"
	"github.com/plaenen/usercqrs/pkg/eventbus"
	"github.com/plaenen/usercqrs/pkg/eventsourcing"
	"github.com/plaenen/usercqrs/pkg/observability"
)

// Publisher is the narrow view of eventbus.EventBus the handler needs.
type Publisher interface {
	Publish(ctx context.Context, event eventsourcing.Event) ([]eventbus.HandlerError, error)
}

// Handler dispatches commands to the domain, persists the resulting
// events, and publishes them.
type Handler struct {
	repository   *store.Repository
	registration *domain.RegistrationService
	publisher    Publisher
	tracer       trace.Tracer
	metrics      *observability.Metrics
}

// HandlerOption configures a Handler.
type HandlerOption func(*Handler)

// WithTracer attaches an OpenTelemetry tracer; Handle then wraps each
// command in a span named after the command type.
func WithTracer(tracer trace.Tracer) HandlerOption {
	return func(h *Handler) { h.tracer = tracer }
}

// WithHandlerMetrics wires the metrics registry Handle records command
// duration, totals, and errors to.
func WithHandlerMetrics(metrics *observability.Metrics) HandlerOption {
	return func(h *Handler) { h.metrics = metrics }
}

// NewHandler constructs a Handler.
func NewHandler(repository *store.Repository, publisher Publisher, opts ...HandlerOption) *Handler {
	h := &Handler{
		repository:   repository,
		registration: domain.NewRegistrationService(repository),
		publisher:    publisher,
		tracer:       noop.NewTracerProvider().Tracer("usercqrs/command"),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Handle implements eventsourcing.CommandHandlerFunc's shape, dispatching
// on the command's concrete type.
func (h *Handler) Handle(ctx context.Context, cmd eventsourcing.Command) ([]eventsourcing.Event, error) {
	ctx, span := observability.StartSpan(ctx, h.tracer, "command."+cmd.CommandName(),
		observability.WithAttributes(observability.CommandAttrs(cmd.CommandName(), cmd.CommandID())...))

	start := time.Now()
	events, err := h.dispatch(ctx, cmd)

	if h.metrics != nil {
		h.metrics.RecordCommand(ctx, cmd.CommandName(), time.Since(start), err)
	}

	observability.EndSpan(span, err)
	return events, err
}

func (h *Handler) dispatch(ctx context.Context, cmd eventsourcing.Command) ([]eventsourcing.Event, error) {
	switch c := cmd.(type) {
	case RegisterUser:
		return h.handleRegisterUser(ctx, c)
	case RenameUser:
		return h.handleRenameUser(ctx, c)
	default:
		return nil, eventsourcing.NewAppError("unknown_command", fmt.Sprintf("unrecognized command %q", cmd.CommandName()))
	}
}

func (h *Handler) handleRegisterUser(ctx context.Context, cmd RegisterUser) ([]eventsourcing.Event, error) {
	userID, err := domain.NewUserID(cmd.UserID)
	if err != nil {
		return nil, err
	}
	name, err := domain.NewUserName(cmd.Name)
	if err != nil {
		return nil, err
	}

	metadata := eventsourcing.EventMetadata{
		CausationID:   cmd.CommandID(),
		CorrelationID: cmd.CorrelationID(),
	}

	user, err := h.registration.RegisterUser(userID, name, metadata)
	if err != nil {
		return nil, err
	}

	return h.saveAndPublish(ctx, user)
}

func (h *Handler) handleRenameUser(ctx context.Context, cmd RenameUser) ([]eventsourcing.Event, error) {
	userID, err := domain.NewUserID(cmd.UserID)
	if err != nil {
		return nil, err
	}
	newName, err := domain.NewUserName(cmd.NewName)
	if err != nil {
		return nil, err
	}

	user, err := h.repository.LoadByUserID(userID)
	if err != nil {
		return nil, err
	}

	unique := domain.UniqueUserNameSpecification{Repository: h.repository, Excluded: &userID}
	if !unique.IsSatisfiedBy(newName) {
		return nil, eventsourcing.NewAppError("validation", unique.ReasonForDissatisfaction(newName)).
			WithSolution("choose a different name")
	}

	metadata := eventsourcing.EventMetadata{
		CausationID:   cmd.CommandID(),
		CorrelationID: cmd.CorrelationID(),
	}
	if err := user.Rename(newName, metadata); err != nil {
		return nil, err
	}

	return h.saveAndPublish(ctx, user)
}

// saveAndPublish persists the aggregate's uncommitted events and
// publishes each in version order. A Critical subscriber failure
// aborts here and is returned as the command's error: the write is
// already durable, but the caller learns its read-side projection
// may be stale.
func (h *Handler) saveAndPublish(ctx context.Context, user *domain.User) ([]eventsourcing.Event, error) {
	pending := user.UncommittedEvents()

	if err := h.repository.Save(user); err != nil {
		return nil, err
	}

	for _, evt := range pending {
		if _, err := h.publisher.Publish(ctx, evt); err != nil {
			return pending, err
		}
	}

	return pending, nil
}
