package store

import (
	"context"
	"time"

	"github.com/google/uuid"

	"roombook/backend/internal/domain"
)

// NoExclusion is passed to FindOverlaps when no reservation should be skipped.
const NoExclusion int64 = 0

type ReservationRepository interface {
	// InRoomTransaction runs fn in a transaction that holds the room's
	// booking lock. Nothing fn wrote survives if it returns an error.
	InRoomTransaction(ctx context.Context, roomID int64, fn func(ctx context.Context, tx BookingTx) error) error

	GetReservation(ctx context.Context, reservationID int64) (domain.Reservation, error)
	FindOverlaps(ctx context.Context, roomID int64, start, end time.Time, excludeID int64) ([]domain.Reservation, error)
	ListUpcomingForRoom(ctx context.Context, roomID int64, now time.Time) ([]domain.Reservation, error)
	ListForUser(ctx context.Context, userID int64) ([]domain.Reservation, error)
	ListAll(ctx context.Context) ([]domain.Reservation, error)
	CountInWindow(ctx context.Context, start, end time.Time) ([]domain.RoomCount, error)
}

type BookingTx interface {
	GetRoom(ctx context.Context, roomID int64) (domain.Room, error)
	GetReservation(ctx context.Context, reservationID int64) (domain.Reservation, error)
	FindOverlaps(ctx context.Context, roomID int64, start, end time.Time, excludeID int64) ([]domain.Reservation, error)
	FindByRequestKey(ctx context.Context, key uuid.UUID) (domain.Reservation, error)
	InsertReservation(ctx context.Context, r domain.Reservation) (domain.Reservation, error)
	UpdateReservationTimes(ctx context.Context, reservationID int64, start, end time.Time) (domain.Reservation, error)
	DeleteReservation(ctx context.Context, reservationID int64) error
}
