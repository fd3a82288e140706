package domain

import "errors"

var (
	ErrInvalidInterval = errors.New("end_time must be after start_time")
	ErrPastStartTime   = errors.New("start_time must not be in the past")
	ErrForbidden       = errors.New("forbidden")
	ErrUnauthenticated = errors.New("unauthenticated")

	// ErrUnavailable marks transient failures of a collaborator (database,
	// broker). Callers may retry with backoff.
	ErrUnavailable = errors.New("unavailable")
)
