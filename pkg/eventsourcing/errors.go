package eventsourcing

import (
	"errors"
	"fmt"
)

var (
	// ErrAggregateNotFound is returned when an aggregate doesn't exist.
	ErrAggregateNotFound = errors.New("aggregate not found")

	// ErrConcurrencyConflict is returned when there's an optimistic
	// concurrency conflict between the expected and actual stream version.
	ErrConcurrencyConflict = errors.New("concurrency conflict: aggregate version mismatch")

	// ErrInvalidVersion is returned when an invalid expected version is supplied.
	ErrInvalidVersion = errors.New("invalid version")
)

// ConcurrencyError carries the expected and actual versions of a failed
// append, so callers can decide whether retrying is worthwhile.
type ConcurrencyError struct {
	AggregateID     string
	ExpectedVersion int64
	ActualVersion   int64
}

func (e *ConcurrencyError) Error() string {
	return fmt.Sprintf("concurrency conflict on aggregate %s: expected version %d, actual version %d",
		e.AggregateID, e.ExpectedVersion, e.ActualVersion)
}

func (e *ConcurrencyError) Is(target error) bool {
	return target == ErrConcurrencyConflict
}

// AppError is the error type returned across the command handler and
// HTTP boundaries. Unlike an opaque wrapped error, it carries enough
// structure for a caller to act on the failure without parsing a
// message string.
type AppError struct {
	// Code is a short machine-readable identifier, e.g. "user_not_found".
	Code string

	// Message is a human-readable description of what went wrong.
	Message string

	// Solution, when non-empty, suggests how the caller might resolve it.
	Solution string

	// Details carries structured context, e.g. {"user_id": "42"}.
	Details map[string]string

	cause error
}

func (e *AppError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.cause
}

// NewAppError builds an AppError with the given code and message.
func NewAppError(code, message string) *AppError {
	return &AppError{Code: code, Message: message}
}

// WithSolution sets Solution and returns the error for chaining.
func (e *AppError) WithSolution(solution string) *AppError {
	e.Solution = solution
	return e
}

// WithDetail attaches a detail key/value and returns the error for chaining.
func (e *AppError) WithDetail(key, value string) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]string)
	}
	e.Details[key] = value
	return e
}

// WithCause attaches an underlying error for Unwrap/errors.Is chains.
func (e *AppError) WithCause(err error) *AppError {
	e.cause = err
	return e
}
