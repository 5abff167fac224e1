package httpapi

import (
	"errors"
	"net/http"

	"github.com/plaenen/usercqrs/pkg/eventbus"
	"github.com/plaenen/usercqrs/pkg/eventsourcing"
)

// statusFor maps an error returned from the command/query side to an
// HTTP status code, per the exhaustive AppError mapping: no exception
// ever escapes unmapped.
func statusFor(err error) int {
	if err == nil {
		return http.StatusOK
	}

	if errors.Is(err, eventsourcing.ErrAggregateNotFound) {
		return http.StatusNotFound
	}

	var concurrencyErr *eventsourcing.ConcurrencyError
	if errors.As(err, &concurrencyErr) {
		return http.StatusConflict
	}

	var criticalErr *eventbus.CriticalHandlerError
	if errors.As(err, &criticalErr) {
		return http.StatusInternalServerError
	}

	var handlerErr eventbus.HandlerError
	if errors.As(err, &handlerErr) {
		return http.StatusBadRequest
	}

	var appErr *eventsourcing.AppError
	if errors.As(err, &appErr) {
		switch appErr.Code {
		case "validation", "required", "invalid":
			return http.StatusUnprocessableEntity
		default:
			return http.StatusInternalServerError
		}
	}

	return http.StatusInternalServerError
}
