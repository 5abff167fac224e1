package eventsourcing

import "time"

// TimeFunc is a function that returns the current time. It is a
// variable so tests can freeze or control time without touching the
// rest of the system.
var TimeFunc = time.Now

// Now returns the current time using the configured TimeFunc.
func Now() time.Time {
	return TimeFunc()
}
