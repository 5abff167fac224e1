package command

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/plaenen/usercqrs/internal/store"
	"github.com/plaenen/usercqrs/pkg/eventbus"
	"github.com/plaenen/usercqrs/pkg/eventsourcing"
)

// fakePublisher records every published event without dispatching to
// any real subscriber.
type fakePublisher struct {
	published []eventsourcing.Event
}

func (p *fakePublisher) Publish(ctx context.Context, event eventsourcing.Event) ([]eventbus.HandlerError, error) {
	p.published = append(p.published, event)
	return nil, nil
}

func newTestHandler() (*Handler, *fakePublisher) {
	repo := store.NewRepository(store.NewEventStore())
	pub := &fakePublisher{}
	return NewHandler(repo, pub), pub
}

func TestHandler_RegisterUser(t *testing.T) {
	h, pub := newTestHandler()

	events, err := h.Handle(context.Background(), NewRegisterUser(1, "alice", ""))
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Len(t, pub.published, 1)
}

func TestHandler_RegisterUser_DuplicateID(t *testing.T) {
	h, _ := newTestHandler()
	ctx := context.Background()

	_, err := h.Handle(ctx, NewRegisterUser(1, "alice", ""))
	require.NoError(t, err)

	_, err = h.Handle(ctx, NewRegisterUser(1, "bob", ""))
	assert.Error(t, err)
}

func TestHandler_RegisterUser_DuplicateName(t *testing.T) {
	h, _ := newTestHandler()
	ctx := context.Background()

	_, err := h.Handle(ctx, NewRegisterUser(1, "alice", ""))
	require.NoError(t, err)

	_, err = h.Handle(ctx, NewRegisterUser(2, "alice", ""))
	assert.Error(t, err, "names are unique under exact, case-sensitive match")
}

func TestHandler_RegisterUser_AllowsCaseVariantName(t *testing.T) {
	h, _ := newTestHandler()
	ctx := context.Background()

	_, err := h.Handle(ctx, NewRegisterUser(1, "alice", ""))
	require.NoError(t, err)

	_, err = h.Handle(ctx, NewRegisterUser(2, "ALICE", ""))
	assert.NoError(t, err, "uniqueness is case-sensitive, unlike rename equality")
}

func TestHandler_RenameUser(t *testing.T) {
	h, pub := newTestHandler()
	ctx := context.Background()

	_, err := h.Handle(ctx, NewRegisterUser(1, "alice", ""))
	require.NoError(t, err)

	events, err := h.Handle(ctx, NewRenameUser(1, "alicia", ""))
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Len(t, pub.published, 2)
}

func TestHandler_RenameUser_NotFound(t *testing.T) {
	h, _ := newTestHandler()
	_, err := h.Handle(context.Background(), NewRenameUser(99, "ghost", ""))
	assert.ErrorIs(t, err, eventsourcing.ErrAggregateNotFound)
}

func TestHandler_RenameUser_SameNameRejected(t *testing.T) {
	h, _ := newTestHandler()
	ctx := context.Background()

	_, err := h.Handle(ctx, NewRegisterUser(1, "alice", ""))
	require.NoError(t, err)

	_, err = h.Handle(ctx, NewRenameUser(1, "Alice", ""))
	assert.Error(t, err)
}
