package domain

import (
	"fmt"
	"strconv"

	"github.com/plaenen/usercqrs/pkg/eventsourcing"
)

// AggregateTypeUser is the AggregateType stamped on every User event.
const AggregateTypeUser = "User"

// User is the aggregate root for the user domain. Its invariant is
// that its name always equals the fold of its applied event history.
type User struct {
	eventsourcing.AggregateRoot

	userID UserID
	name   UserName
}

// NewUser constructs a new User, emitting a Registered event.
func NewUser(id UserID, name UserName, metadata eventsourcing.EventMetadata) *User {
	u := &User{
		AggregateRoot: eventsourcing.NewAggregateRoot(strconv.FormatUint(uint64(id.Value()), 10), AggregateTypeUser),
	}
	evt := u.Record(EventTypeRegistered, Registered{
		UserID:      id,
		Name:        name,
		TimestampMS: eventsourcing.Now().UnixMilli(),
	}, metadata)
	u.apply(evt)
	return u
}

// NewEmptyUser returns a User with no state, ready to have history
// events applied to it. Used by the repository when loading.
func NewEmptyUser(id string) *User {
	return &User{
		AggregateRoot: eventsourcing.NewAggregateRoot(id, AggregateTypeUser),
	}
}

// Rename changes the user's name, emitting a Renamed event. Rejects
// renames that are identical to the current name under case folding.
func (u *User) Rename(newName UserName, metadata eventsourcing.EventMetadata) error {
	if !u.name.CanBeRenamedTo(newName) {
		return eventsourcing.NewAppError("validation", fmt.Sprintf("user %s is already named %q", u.ID(), newName.Value())).
			WithSolution("choose a name that differs from the current one")
	}

	evt := u.Record(EventTypeRenamed, Renamed{
		UserID:      u.userID,
		NewName:     newName,
		TimestampMS: eventsourcing.Now().UnixMilli(),
	}, metadata)
	u.apply(evt)
	return nil
}

// UserID returns the user's typed identifier.
func (u *User) UserID() UserID {
	return u.userID
}

// Name returns the user's current name.
func (u *User) Name() UserName {
	return u.name
}

// ApplyEvent applies an event to the user's state. It is total and
// infallible: any event that was once valid stays replayable.
func (u *User) ApplyEvent(event eventsourcing.Event) error {
	u.apply(event)
	return nil
}

func (u *User) apply(event eventsourcing.Event) {
	switch payload := event.Payload.(type) {
	case Registered:
		u.userID = payload.UserID
		u.name = payload.Name
	case Renamed:
		u.name = payload.NewName
	}
}
