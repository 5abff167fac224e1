package domain

import (
	"fmt"

	"github.com/plaenen/usercqrs/pkg/eventsourcing"
)

// UserID is a positive integer identifier. The zero value is never
// representable; construction is the only gate that enforces this.
type UserID struct {
	value uint32
}

// NewUserID validates and constructs a UserID. Fails when value is 0.
func NewUserID(value uint32) (UserID, error) {
	if value == 0 {
		return UserID{}, eventsourcing.NewAppError("validation", "user id must be greater than zero").
			WithSolution("provide a user id of 1 or greater").
			WithDetail("user_id", fmt.Sprintf("%d", value))
	}
	return UserID{value: value}, nil
}

// Value returns the underlying uint32.
func (id UserID) Value() uint32 {
	return id.value
}

// String implements fmt.Stringer.
func (id UserID) String() string {
	return fmt.Sprintf("%d", id.value)
}

// Equals compares two UserIDs by value.
func (id UserID) Equals(other UserID) bool {
	return id.value == other.value
}
