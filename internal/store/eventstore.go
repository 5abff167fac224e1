// Package store provides the in-memory event store, dead-letter
// register, and the repository that rebuilds aggregates from it.
package store

import (
	"context"
	"sync"
	"time"

	"github.com/plaenen/usercqrs/pkg/eventsourcing"
	"github.com/plaenen/usercqrs/pkg/observability"
)

// DeadLetterEntry records an event whose delivery to one or more
// subscribers has persistently failed. Entries with equal
// (AggregateID, Event) coalesce: FailureCount increments and
// LastFailedAt refreshes instead of a new entry being appended.
type DeadLetterEntry struct {
	AggregateID  string
	Event        eventsourcing.Event
	ErrorMessage string
	FailureCount int
	LastFailedAt time.Time
}

// EventStore is an in-memory, append-only log keyed by aggregate,
// plus a dead-letter register. All access is guarded by a mutex; the
// mutex is never held across an await-shaped operation.
type EventStore struct {
	mu          sync.Mutex
	streams     map[string][]eventsourcing.Event
	appendOrder []string // aggregate IDs in the order they first appeared
	deadLetters []DeadLetterEntry
	metrics     *observability.Metrics
}

// EventStoreOption configures an EventStore.
type EventStoreOption func(*EventStore)

// WithEventStoreMetrics wires the metrics registry AppendEvents
// records append latency and event counts to.
func WithEventStoreMetrics(metrics *observability.Metrics) EventStoreOption {
	return func(s *EventStore) { s.metrics = metrics }
}

// NewEventStore constructs an empty EventStore.
func NewEventStore(opts ...EventStoreOption) *EventStore {
	s := &EventStore{
		streams: make(map[string][]eventsourcing.Event),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// AppendEvents appends events to an aggregate's stream atomically,
// failing with ErrConcurrencyConflict if expectedVersion doesn't match
// the stream's current version.
func (s *EventStore) AppendEvents(aggregateID string, expectedVersion int64, events []eventsourcing.Event) error {
	if len(events) == 0 {
		return nil
	}
	start := time.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	current := s.currentVersionLocked(aggregateID)
	if expectedVersion != -1 && current != expectedVersion {
		return &eventsourcing.ConcurrencyError{
			AggregateID:     aggregateID,
			ExpectedVersion: expectedVersion,
			ActualVersion:   current,
		}
	}

	if _, ok := s.streams[aggregateID]; !ok {
		s.appendOrder = append(s.appendOrder, aggregateID)
	}
	s.streams[aggregateID] = append(s.streams[aggregateID], events...)

	if s.metrics != nil {
		s.metrics.RecordEventStoreAppend(context.Background(), time.Since(start), len(events))
	}
	return nil
}

// LoadEvents loads every event for an aggregate recorded after afterVersion.
func (s *EventStore) LoadEvents(aggregateID string, afterVersion int64) ([]eventsourcing.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stream := s.streams[aggregateID]
	if afterVersion < 0 {
		out := make([]eventsourcing.Event, len(stream))
		copy(out, stream)
		return out, nil
	}

	var out []eventsourcing.Event
	for _, evt := range stream {
		if evt.Version > afterVersion {
			out = append(out, evt)
		}
	}
	return out, nil
}

// LoadAllEvents concatenates every aggregate's stream, ordered by
// insertion within each aggregate; inter-aggregate ordering follows
// the order aggregates were first created and must not be relied upon
// beyond that.
func (s *EventStore) LoadAllEvents() ([]eventsourcing.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var all []eventsourcing.Event
	for _, aggregateID := range s.appendOrder {
		all = append(all, s.streams[aggregateID]...)
	}
	return all, nil
}

// GetAggregateVersion returns the current version of an aggregate, or
// -1 if it doesn't exist.
func (s *EventStore) GetAggregateVersion(aggregateID string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.currentVersionLocked(aggregateID), nil
}

func (s *EventStore) currentVersionLocked(aggregateID string) int64 {
	stream := s.streams[aggregateID]
	if len(stream) == 0 {
		return -1
	}
	return stream[len(stream)-1].Version
}

// RecordFailure upserts an entry into the dead-letter register,
// coalescing on equal (aggregateID, event).
func (s *EventStore) RecordFailure(aggregateID string, event eventsourcing.Event, errorMessage string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.deadLetters {
		entry := &s.deadLetters[i]
		if entry.AggregateID == aggregateID && sameEvent(entry.Event, event) {
			entry.FailureCount++
			entry.ErrorMessage = errorMessage
			entry.LastFailedAt = eventsourcing.Now()
			return
		}
	}

	s.deadLetters = append(s.deadLetters, DeadLetterEntry{
		AggregateID:  aggregateID,
		Event:        event,
		ErrorMessage: errorMessage,
		FailureCount: 1,
		LastFailedAt: eventsourcing.Now(),
	})
}

// RemoveFromDLQ drops entries matching both aggregateID and event.
func (s *EventStore) RemoveFromDLQ(aggregateID string, event eventsourcing.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := s.deadLetters[:0]
	for _, entry := range s.deadLetters {
		if entry.AggregateID == aggregateID && sameEvent(entry.Event, event) {
			continue
		}
		out = append(out, entry)
	}
	s.deadLetters = out
}

// DLQ returns a snapshot of the dead-letter register.
func (s *EventStore) DLQ() []DeadLetterEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]DeadLetterEntry, len(s.deadLetters))
	copy(out, s.deadLetters)
	return out
}

// DLQSize returns the number of entries in the dead-letter register.
func (s *EventStore) DLQSize() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.deadLetters)
}

func sameEvent(a, b eventsourcing.Event) bool {
	return a.AggregateID == b.AggregateID && a.EventType == b.EventType && a.Version == b.Version
}

var _ eventsourcing.EventStore = (*EventStore)(nil)
