package eventsourcing

import (
	"fmt"
	"time"

	"github.com/plaenen/usercqrs/pkg/idgen"
)

// Aggregate defines the interface that all aggregates must implement.
type Aggregate interface {
	// ID returns the unique identifier of the aggregate.
	ID() string

	// Type returns the type name of the aggregate.
	Type() string

	// Version returns the current version of the aggregate.
	Version() int64

	// ApplyEvent applies an event to the aggregate's state. This is
	// called when loading history; Record does not call it, so an
	// aggregate's command methods apply newly recorded events themselves.
	ApplyEvent(event Event) error

	// UncommittedEvents returns events applied but not yet persisted.
	UncommittedEvents() []Event

	// ClearUncommittedEvents clears the uncommitted events after they've
	// been persisted.
	ClearUncommittedEvents()
}

// AggregateRoot provides base functionality for all aggregates. Embed
// this in concrete aggregate implementations.
type AggregateRoot struct {
	id                string
	aggregateType     string
	version           int64
	uncommittedEvents []Event
}

// NewAggregateRoot creates a new aggregate root with the given ID and
// type. Version starts at -1: applying the event at history position i
// yields version i, so an aggregate with no history is at version -1.
func NewAggregateRoot(id, aggregateType string) AggregateRoot {
	return AggregateRoot{id: id, aggregateType: aggregateType, version: -1}
}

// ID returns the aggregate's unique identifier.
func (a *AggregateRoot) ID() string { return a.id }

// Type returns the aggregate's type name.
func (a *AggregateRoot) Type() string { return a.aggregateType }

// Version returns the aggregate's current version.
func (a *AggregateRoot) Version() int64 { return a.version }

// UncommittedEvents returns events that haven't been persisted yet.
func (a *AggregateRoot) UncommittedEvents() []Event { return a.uncommittedEvents }

// ClearUncommittedEvents clears the uncommitted events list.
func (a *AggregateRoot) ClearUncommittedEvents() {
	a.uncommittedEvents = nil
}

// Record appends a new event to the aggregate's uncommitted events and
// advances its version. Call this from within the aggregate's own
// command methods (e.g. Rename) after validating the change.
func (a *AggregateRoot) Record(eventType string, payload interface{}, metadata EventMetadata) Event {
	a.version++
	evt := Event{
		ID:            idgen.MustGenerateSortableID(),
		AggregateID:   a.id,
		AggregateType: a.aggregateType,
		EventType:     eventType,
		Version:       a.version,
		Timestamp:     Now(),
		Payload:       payload,
		Metadata:      metadata,
	}
	a.uncommittedEvents = append(a.uncommittedEvents, evt)
	return evt
}

// setVersion is used while replaying history to keep the version in
// sync with the event stream without recording a new event.
func (a *AggregateRoot) setVersion(v int64) {
	a.version = v
}

// Repository provides persistence operations for aggregates of type T.
type Repository[T Aggregate] interface {
	// Load loads an aggregate by ID from the event store.
	Load(id string) (T, error)

	// Save persists an aggregate's uncommitted events to the event store.
	Save(aggregate T) error

	// Exists reports whether an aggregate with the given ID exists.
	Exists(id string) (bool, error)
}

// historyVersionSetter is satisfied by any aggregate embedding
// AggregateRoot, letting BaseRepository sync its version after replay
// without widening the public Aggregate interface.
type historyVersionSetter interface {
	setVersion(v int64)
}

// BaseRepository is a generic Repository backed by an EventStore.
type BaseRepository[T Aggregate] struct {
	eventStore    EventStore
	aggregateType string
	factory       func(id string) T
}

// NewRepository creates a repository for the given aggregate type.
// factory must return a zero-value aggregate with the given ID, ready
// to have history events applied to it.
func NewRepository[T Aggregate](eventStore EventStore, aggregateType string, factory func(id string) T) *BaseRepository[T] {
	return &BaseRepository[T]{
		eventStore:    eventStore,
		aggregateType: aggregateType,
		factory:       factory,
	}
}

// Load loads an aggregate by ID from the event store.
func (r *BaseRepository[T]) Load(id string) (T, error) {
	var zero T

	events, err := r.eventStore.LoadEvents(id, -1)
	if err != nil {
		return zero, fmt.Errorf("load events: %w", err)
	}
	if len(events) == 0 {
		return zero, ErrAggregateNotFound
	}

	aggregate := r.factory(id)
	for _, event := range events {
		if err := aggregate.ApplyEvent(event); err != nil {
			return zero, fmt.Errorf("apply event %s: %w", event.EventType, err)
		}
	}
	if setter, ok := any(aggregate).(historyVersionSetter); ok {
		setter.setVersion(events[len(events)-1].Version)
	}

	return aggregate, nil
}

// Save persists an aggregate's uncommitted events.
func (r *BaseRepository[T]) Save(aggregate T) error {
	uncommitted := aggregate.UncommittedEvents()
	if len(uncommitted) == 0 {
		return nil
	}

	expectedVersion := aggregate.Version() - int64(len(uncommitted))
	if err := r.eventStore.AppendEvents(aggregate.ID(), expectedVersion, uncommitted); err != nil {
		return err
	}
	aggregate.ClearUncommittedEvents()
	return nil
}

// Exists checks whether an aggregate exists in the event store.
func (r *BaseRepository[T]) Exists(id string) (bool, error) {
	version, err := r.eventStore.GetAggregateVersion(id)
	if err != nil {
		return false, fmt.Errorf("check aggregate existence: %w", err)
	}
	return version >= 0, nil
}

// RetryOnConflict loads a fresh aggregate and invokes fn, retrying on
// optimistic concurrency conflicts up to maxRetries times with a short
// exponential backoff. Non-conflict errors from fn are returned immediately.
func (r *BaseRepository[T]) RetryOnConflict(id string, maxRetries int, fn func(T) error) error {
	for attempt := 0; attempt <= maxRetries; attempt++ {
		agg, err := r.Load(id)
		if err != nil {
			return err
		}

		err = fn(agg)
		if err == nil {
			return nil
		}
		if !isConcurrencyConflict(err) || attempt == maxRetries {
			return err
		}

		time.Sleep(time.Duration(10*(1<<uint(attempt))) * time.Millisecond)
	}
	return fmt.Errorf("max retries exceeded")
}

func isConcurrencyConflict(err error) bool {
	if err == ErrConcurrencyConflict {
		return true
	}
	_, ok := err.(*ConcurrencyError)
	return ok
}
