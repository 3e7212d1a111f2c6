package service

import "errors"

// Sentinel error kinds. Callers branch with errors.Is; the HTTP layer maps
// each kind to a status code.
var (
	// ErrValidation indicates malformed input: empty rejection reason,
	// non-positive capacity, unknown field values.
	ErrValidation = errors.New("validation failed")

	// ErrInvalidState indicates a state-machine transition attempted from a
	// non-eligible state (e.g. approving an already rejected request).
	ErrInvalidState = errors.New("invalid state transition")

	// ErrCapacityExceeded indicates a booking attempt against a full slot.
	ErrCapacityExceeded = errors.New("slot capacity exceeded")

	// ErrNotFound indicates a referenced tenant, appointment or request is
	// absent.
	ErrNotFound = errors.New("not found")

	// ErrUpstream indicates the data store or messaging API failed; retry is
	// the caller's choice, never automatic here.
	ErrUpstream = errors.New("upstream service unavailable")
)
