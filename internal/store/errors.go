package store

import (
	"errors"
	"fmt"

	"roombook/backend/internal/domain"
)

var (
	ErrConflict            = errors.New("conflict")
	ErrNotFound            = errors.New("not found")
	ErrNameConflict        = errors.New("room name already in use")
	ErrIdempotencyConflict = errors.New("idempotency key conflict")
)

// OverlapError reports the reservations that collide with a candidate
// interval. It matches ErrConflict under errors.Is.
type OverlapError struct {
	RoomID    int64
	Conflicts []domain.Reservation
}

func (e *OverlapError) Error() string {
	return fmt.Sprintf("room %d has %d overlapping reservation(s)", e.RoomID, len(e.Conflicts))
}

func (e *OverlapError) Is(target error) bool {
	return target == ErrConflict
}
