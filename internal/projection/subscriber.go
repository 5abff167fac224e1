package projection

import (
	"context"
	"fmt"
	"time"

	"github.com/plaenen/usercqrs/internal/domain"
	"github.com/plaenen/usercqrs/pkg/eventbus"
	"github.com/plaenen/usercqrs/pkg/eventsourcing"
	"github.com/plaenen/usercqrs/pkg/observability"
)

// Subscriber wraps a UserReadModel as a Critical-priority event bus
// subscriber: it must run inline and must succeed before publish
// returns, so that a read immediately following a successful write
// observes the change.
type Subscriber struct {
	readModel *UserReadModel
	metrics   *observability.Metrics
}

// SubscriberOption configures a Subscriber.
type SubscriberOption func(*Subscriber)

// WithSubscriberMetrics wires the metrics registry Handle records
// projection lag and errors to.
func WithSubscriberMetrics(metrics *observability.Metrics) SubscriberOption {
	return func(s *Subscriber) { s.metrics = metrics }
}

// NewSubscriber builds a projection subscriber over readModel.
func NewSubscriber(readModel *UserReadModel, opts ...SubscriberOption) *Subscriber {
	s := &Subscriber{readModel: readModel}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Name identifies this subscriber for logging and metrics.
func (s *Subscriber) Name() string {
	return "projection"
}

// Priority is always Critical: a failed projection update must abort
// the publish.
func (s *Subscriber) Priority() eventbus.Priority {
	return eventbus.PriorityCritical
}

// Handle applies a Registered or Renamed event to the read model.
func (s *Subscriber) Handle(ctx context.Context, event eventsourcing.Event) error {
	if s.metrics != nil {
		s.metrics.RecordProjectionLag(ctx, s.Name(), time.Since(event.Timestamp).Seconds())
	}

	switch payload := event.Payload.(type) {
	case domain.Registered:
		s.readModel.Upsert(UserView{
			ID:          payload.UserID.Value(),
			Name:        payload.Name.Value(),
			CreatedAtMS: payload.TimestampMS,
		})
	case domain.Renamed:
		if !s.readModel.Rename(payload.UserID.Value(), payload.NewName.Value()) {
			err := fmt.Errorf("renamed event for unknown user %d", payload.UserID.Value())
			if s.metrics != nil {
				s.metrics.RecordProjectionError(ctx, s.Name(), "unknown_aggregate")
			}
			return err
		}
	}
	return nil
}

var _ eventbus.Subscriber = (*Subscriber)(nil)
