package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/plaenen/usercqrs/internal/domain"
	"github.com/plaenen/usercqrs/pkg/eventsourcing"
)

func TestRepository_SaveAndLoad(t *testing.T) {
	repo := NewRepository(NewEventStore())

	id, _ := domain.NewUserID(1)
	name, _ := domain.NewUserName("alice")
	user := domain.NewUser(id, name, eventsourcing.EventMetadata{})

	require.NoError(t, repo.Save(user))

	loaded, err := repo.LoadByUserID(id)
	require.NoError(t, err)
	assert.Equal(t, id, loaded.UserID())
	assert.Equal(t, name, loaded.Name())
	assert.Equal(t, int64(0), loaded.Version())
}

func TestRepository_Exists(t *testing.T) {
	repo := NewRepository(NewEventStore())
	id, _ := domain.NewUserID(1)

	exists, err := repo.Exists(id)
	require.NoError(t, err)
	assert.False(t, exists)

	name, _ := domain.NewUserName("alice")
	require.NoError(t, repo.Save(domain.NewUser(id, name, eventsourcing.EventMetadata{})))

	exists, err = repo.Exists(id)
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestRepository_FindByName_ExactMatch(t *testing.T) {
	repo := NewRepository(NewEventStore())
	id, _ := domain.NewUserID(1)
	name, _ := domain.NewUserName("alice")
	require.NoError(t, repo.Save(domain.NewUser(id, name, eventsourcing.EventMetadata{})))

	search, _ := domain.NewUserName("alice")
	found, err := repo.FindByName(search)
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, id, found.UserID())
}

func TestRepository_FindByName_CaseSensitive_NoMatch(t *testing.T) {
	repo := NewRepository(NewEventStore())
	id, _ := domain.NewUserID(1)
	name, _ := domain.NewUserName("alice")
	require.NoError(t, repo.Save(domain.NewUser(id, name, eventsourcing.EventMetadata{})))

	search, _ := domain.NewUserName("ALICE")
	found, err := repo.FindByName(search)
	require.NoError(t, err)
	assert.Nil(t, found)
}

func TestRepository_FindByName_NotFound(t *testing.T) {
	repo := NewRepository(NewEventStore())
	search, _ := domain.NewUserName("nobody")

	found, err := repo.FindByName(search)
	require.NoError(t, err)
	assert.Nil(t, found)
}

func TestRepository_Load_NotFound(t *testing.T) {
	repo := NewRepository(NewEventStore())
	_, err := repo.Load("missing")
	assert.ErrorIs(t, err, eventsourcing.ErrAggregateNotFound)
}
