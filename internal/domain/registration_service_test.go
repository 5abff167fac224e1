package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/plaenen/usercqrs/pkg/eventsourcing"
)

type fakeUserLookup struct {
	byID   map[uint32]bool
	byName map[string]*User
}

func newFakeUserLookup() *fakeUserLookup {
	return &fakeUserLookup{byID: make(map[uint32]bool), byName: make(map[string]*User)}
}

func (f *fakeUserLookup) Exists(userID UserID) (bool, error) {
	return f.byID[userID.Value()], nil
}

func (f *fakeUserLookup) FindByName(name UserName) (*User, error) {
	if u, ok := f.byName[name.Value()]; ok {
		return u, nil
	}
	return nil, nil
}

func (f *fakeUserLookup) add(u *User) {
	f.byID[u.UserID().Value()] = true
	f.byName[u.Name().Value()] = u
}

func TestRegistrationService_RegisterUser_Succeeds(t *testing.T) {
	lookup := newFakeUserLookup()
	svc := NewRegistrationService(lookup)

	id, _ := NewUserID(1)
	name, _ := NewUserName("alice")

	user, err := svc.RegisterUser(id, name, eventsourcing.EventMetadata{})
	require.NoError(t, err)
	assert.True(t, user.UserID().Equals(id))
	assert.Equal(t, "alice", user.Name().Value())
}

func TestRegistrationService_RegisterUser_RejectsDuplicateID(t *testing.T) {
	lookup := newFakeUserLookup()
	existingID, _ := NewUserID(1)
	existingName, _ := NewUserName("alice")
	lookup.add(NewUser(existingID, existingName, eventsourcing.EventMetadata{}))

	svc := NewRegistrationService(lookup)
	newName, _ := NewUserName("bob")

	_, err := svc.RegisterUser(existingID, newName, eventsourcing.EventMetadata{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already taken")
}

func TestRegistrationService_RegisterUser_RejectsDuplicateName(t *testing.T) {
	lookup := newFakeUserLookup()
	existingID, _ := NewUserID(1)
	existingName, _ := NewUserName("alice")
	lookup.add(NewUser(existingID, existingName, eventsourcing.EventMetadata{}))

	svc := NewRegistrationService(lookup)
	newID, _ := NewUserID(2)
	duplicateName, _ := NewUserName("alice")

	_, err := svc.RegisterUser(newID, duplicateName, eventsourcing.EventMetadata{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already taken")
}

func TestRegistrationService_RegisterUser_AllowsCaseVariantName(t *testing.T) {
	lookup := newFakeUserLookup()
	existingID, _ := NewUserID(1)
	existingName, _ := NewUserName("alice")
	lookup.add(NewUser(existingID, existingName, eventsourcing.EventMetadata{}))

	svc := NewRegistrationService(lookup)
	newID, _ := NewUserID(2)
	caseVariantName, _ := NewUserName("ALICE")

	user, err := svc.RegisterUser(newID, caseVariantName, eventsourcing.EventMetadata{})
	require.NoError(t, err)
	assert.Equal(t, "ALICE", user.Name().Value())
}

func TestRegistrationService_RegisterUser_IDCheckedBeforeName(t *testing.T) {
	lookup := newFakeUserLookup()
	existingID, _ := NewUserID(1)
	existingName, _ := NewUserName("alice")
	lookup.add(NewUser(existingID, existingName, eventsourcing.EventMetadata{}))

	svc := NewRegistrationService(lookup)
	duplicateName, _ := NewUserName("alice")

	_, err := svc.RegisterUser(existingID, duplicateName, eventsourcing.EventMetadata{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "user id")
}
