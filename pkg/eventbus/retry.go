package eventbus

import "time"

// RetryPolicy configures the exponential backoff schedule applied
// between delivery attempts to non-critical subscribers.
type RetryPolicy struct {
	// InitialDelay is the delay before the first retry.
	InitialDelay time.Duration

	// MaxDelay clamps the doubling backoff.
	MaxDelay time.Duration

	// MaxRetries is the number of retries after the first attempt, so a
	// subscriber is invoked at most MaxRetries+1 times per publish.
	MaxRetries int
}

// DefaultRetryPolicy matches the spec's defaults: 100ms initial delay,
// doubling, clamped at 5s, with 3 retries (4 attempts total).
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		InitialDelay: 100 * time.Millisecond,
		MaxDelay:     5000 * time.Millisecond,
		MaxRetries:   3,
	}
}

// delayForAttempt returns the backoff delay before the given retry
// attempt (1-based: the delay before the first retry, before the
// second retry, and so on), doubling each time and clamped at MaxDelay.
func (p RetryPolicy) delayForAttempt(retryNumber int) time.Duration {
	delay := p.InitialDelay
	for i := 1; i < retryNumber; i++ {
		delay *= 2
		if delay > p.MaxDelay {
			return p.MaxDelay
		}
	}
	if delay > p.MaxDelay {
		delay = p.MaxDelay
	}
	return delay
}
