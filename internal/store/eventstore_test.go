package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/plaenen/usercqrs/pkg/eventsourcing"
)

func event(aggregateID string, version int64) eventsourcing.Event {
	return eventsourcing.Event{
		AggregateID: aggregateID,
		EventType:   "Test",
		Version:     version,
	}
}

func TestEventStore_AppendAndLoad(t *testing.T) {
	s := NewEventStore()

	require.NoError(t, s.AppendEvents("u-1", -1, []eventsourcing.Event{event("u-1", 0)}))
	require.NoError(t, s.AppendEvents("u-1", 0, []eventsourcing.Event{event("u-1", 1)}))

	events, err := s.LoadEvents("u-1", -1)
	require.NoError(t, err)
	assert.Len(t, events, 2)

	after, err := s.LoadEvents("u-1", 0)
	require.NoError(t, err)
	assert.Len(t, after, 1)
	assert.Equal(t, int64(1), after[0].Version)
}

func TestEventStore_AppendEvents_ConcurrencyConflict(t *testing.T) {
	s := NewEventStore()
	require.NoError(t, s.AppendEvents("u-1", -1, []eventsourcing.Event{event("u-1", 0)}))

	err := s.AppendEvents("u-1", -1, []eventsourcing.Event{event("u-1", 1)})
	require.Error(t, err)

	var concurrencyErr *eventsourcing.ConcurrencyError
	require.ErrorAs(t, err, &concurrencyErr)
	assert.Equal(t, int64(-1), concurrencyErr.ExpectedVersion)
	assert.Equal(t, int64(0), concurrencyErr.ActualVersion)
}

func TestEventStore_GetAggregateVersion_NonExistent(t *testing.T) {
	s := NewEventStore()
	version, err := s.GetAggregateVersion("missing")
	require.NoError(t, err)
	assert.Equal(t, int64(-1), version)
}

func TestEventStore_LoadAllEvents_PreservesInsertionOrder(t *testing.T) {
	s := NewEventStore()
	require.NoError(t, s.AppendEvents("u-1", -1, []eventsourcing.Event{event("u-1", 0)}))
	require.NoError(t, s.AppendEvents("u-2", -1, []eventsourcing.Event{event("u-2", 0)}))

	all, err := s.LoadAllEvents()
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "u-1", all[0].AggregateID)
	assert.Equal(t, "u-2", all[1].AggregateID)
}

func TestEventStore_RecordFailure_Coalesces(t *testing.T) {
	s := NewEventStore()
	evt := event("u-1", 0)

	s.RecordFailure("u-1", evt, "boom")
	s.RecordFailure("u-1", evt, "boom again")

	assert.Equal(t, 1, s.DLQSize())
	dlq := s.DLQ()
	require.Len(t, dlq, 1)
	assert.Equal(t, 2, dlq[0].FailureCount)
	assert.Equal(t, "boom again", dlq[0].ErrorMessage)
}

func TestEventStore_RemoveFromDLQ(t *testing.T) {
	s := NewEventStore()
	evt := event("u-1", 0)
	s.RecordFailure("u-1", evt, "boom")
	require.Equal(t, 1, s.DLQSize())

	s.RemoveFromDLQ("u-1", evt)
	assert.Equal(t, 0, s.DLQSize())
}
