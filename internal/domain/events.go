package domain

// Registered is recorded when a user is first created.
type Registered struct {
	UserID      UserID
	Name        UserName
	TimestampMS int64
}

// Renamed is recorded when a user's name changes.
type Renamed struct {
	UserID      UserID
	NewName     UserName
	TimestampMS int64
}

const (
	// EventTypeRegistered is the EventType stamped on Registered events.
	EventTypeRegistered = "Registered"

	// EventTypeRenamed is the EventType stamped on Renamed events.
	EventTypeRenamed = "Renamed"
)
