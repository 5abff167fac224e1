package eventbus

import (
	"errors"
	"fmt"
)

// ErrLockPoisoned is returned when the subscriber list's mutex was
// observed poisoned by a prior panic while held. Go's sync.Mutex has
// no native poisoning, so this is modelled with a recovered-panic flag
// on the bus (see poisoned in eventbus.go) rather than a real poison
// check.
var ErrLockPoisoned = errors.New("event bus subscriber list lock poisoned")

// HandlerError describes a single subscriber's failure to process an event.
type HandlerError struct {
	SubscriberName string
	Message        string
	Critical       bool
}

func (e HandlerError) Error() string {
	return fmt.Sprintf("subscriber %q failed: %s", e.SubscriberName, e.Message)
}

// CriticalHandlerError wraps a HandlerError from a Critical subscriber;
// returned by Publish in place of a nil error, aborting the publish.
type CriticalHandlerError struct {
	HandlerError
}

func (e *CriticalHandlerError) Error() string {
	return fmt.Sprintf("critical subscriber failed, publish aborted: %s", e.HandlerError.Error())
}

func (e *CriticalHandlerError) Unwrap() error {
	return e.HandlerError
}
