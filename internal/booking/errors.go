package booking

import "errors"

// Typed failures surfaced by the lifecycle service.  Handlers map
// each to a specific HTTP status; none are retried automatically.
// In particular ErrSeatsUnavailable must not be retried
// transparently, since capacity may legitimately stay exhausted.
var (
	// ErrBookingWindowExceeded means the travel date lies more than
	// the allowed number of days ahead.
	ErrBookingWindowExceeded = errors.New("booking window exceeded")

	// ErrSeatsUnavailable means the slot cannot accommodate the
	// requested seat count.
	ErrSeatsUnavailable = errors.New("not enough seats available")

	// ErrUnauthorized means the caller does not own the booking.
	ErrUnauthorized = errors.New("caller does not own this booking")

	// ErrInvalidState means the operation is not legal in the
	// booking's current lifecycle state.
	ErrInvalidState = errors.New("operation not allowed in current booking state")

	// ErrNotFound means a referenced journey, slot, seat class or
	// booking does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput means a request parameter is out of range,
	// such as a seat count below one.
	ErrInvalidInput = errors.New("invalid input")
)
