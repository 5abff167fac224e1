package domain

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/plaenen/usercqrs/pkg/eventsourcing"
)

func noMetadata() eventsourcing.EventMetadata {
	return eventsourcing.EventMetadata{CausationID: "test", CorrelationID: "test"}
}

func TestNewUserID(t *testing.T) {
	_, err := NewUserID(0)
	assert.Error(t, err)

	id, err := NewUserID(42)
	require.NoError(t, err)
	assert.Equal(t, uint32(42), id.Value())
	assert.Equal(t, "42", id.String())
}

func TestNewUserName(t *testing.T) {
	t.Run("rejects empty", func(t *testing.T) {
		_, err := NewUserName("   ")
		assert.Error(t, err)
	})

	t.Run("rejects too long", func(t *testing.T) {
		_, err := NewUserName(strings.Repeat("a", 256))
		assert.Error(t, err)
	})

	t.Run("rejects non-printable", func(t *testing.T) {
		_, err := NewUserName("alice\x00")
		assert.Error(t, err)
	})

	t.Run("trims surrounding whitespace", func(t *testing.T) {
		name, err := NewUserName("  alice  ")
		require.NoError(t, err)
		assert.Equal(t, "alice", name.Value())
	})
}

func TestUserName_CanBeRenamedTo(t *testing.T) {
	alice, _ := NewUserName("alice")
	Alice, _ := NewUserName("Alice")
	bob, _ := NewUserName("bob")

	assert.False(t, alice.CanBeRenamedTo(Alice), "same name under case folding is rejected")
	assert.True(t, alice.CanBeRenamedTo(bob))
}

func TestNewUser_EmitsRegistered(t *testing.T) {
	id, _ := NewUserID(1)
	name, _ := NewUserName("alice")

	user := NewUser(id, name, noMetadata())

	assert.Equal(t, int64(0), user.Version())
	assert.Equal(t, id, user.UserID())
	assert.Equal(t, name, user.Name())
	require.Len(t, user.UncommittedEvents(), 1)
	assert.Equal(t, EventTypeRegistered, user.UncommittedEvents()[0].EventType)
}

func TestUser_Rename(t *testing.T) {
	id, _ := NewUserID(1)
	name, _ := NewUserName("alice")
	user := NewUser(id, name, noMetadata())
	user.ClearUncommittedEvents()

	bob, _ := NewUserName("bob")
	require.NoError(t, user.Rename(bob, noMetadata()))
	assert.Equal(t, bob, user.Name())
	assert.Equal(t, int64(1), user.Version())

	t.Run("rejects rename to same name under case folding", func(t *testing.T) {
		Bob, _ := NewUserName("BOB")
		assert.Error(t, user.Rename(Bob, noMetadata()))
	})
}

func TestUser_ApplyEvent_ReplaysHistory(t *testing.T) {
	id, _ := NewUserID(7)
	name, _ := NewUserName("carol")
	source := NewUser(id, name, noMetadata())
	events := source.UncommittedEvents()

	rebuilt := NewEmptyUser(source.ID())
	for _, evt := range events {
		require.NoError(t, rebuilt.ApplyEvent(evt))
	}

	assert.Equal(t, source.UserID(), rebuilt.UserID())
	assert.Equal(t, source.Name(), rebuilt.Name())
}
