package eventbus

import (
	"context"

	"github.com/plaenen/usercqrs/pkg/eventsourcing"
)

// Subscriber is polymorphic over the capability set Publish needs:
// a name for logging/metrics, a scheduling Priority, and a single
// Handle operation. Events are a closed, fixed variant set; adding a
// new event type is a breaking change to every subscriber, which is
// intentional.
type Subscriber interface {
	Name() string
	Priority() Priority
	Handle(ctx context.Context, event eventsourcing.Event) error
}

// RetryableSubscriber lets a subscriber override the default retry
// policy, e.g. for tests that want a smaller max_retries. Subscribers
// that don't implement this use the bus's policy: DefaultRetryPolicy()
// unless the bus was built with WithRetryPolicy.
type RetryableSubscriber interface {
	Subscriber
	RetryPolicy() RetryPolicy
}

// DeadLetterRecorder upserts a failure into the dead-letter register.
// Implemented by *store.EventStore.
type DeadLetterRecorder interface {
	RecordFailure(aggregateID string, event eventsourcing.Event, errorMessage string)
}
