package booking

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"roombook/backend/internal/domain"
	"roombook/backend/internal/store"
)

const maxIdempotencyKeyLength = 256

type CreateReservationInput struct {
	RoomID         int64
	StartTime      time.Time
	EndTime        time.Time
	IdempotencyKey string
}

type UpdateReservationInput struct {
	StartTime *time.Time
	EndTime   *time.Time
}

func (s *Service) CreateReservation(ctx context.Context, p domain.Principal, in CreateReservationInput) (domain.Reservation, error) {
	if !domain.CanCreateReservation(p) {
		return domain.Reservation{}, domain.ErrUnauthenticated
	}
	if in.RoomID <= 0 {
		return domain.Reservation{}, notFound(store.ErrNotFound, "room", in.RoomID)
	}

	start := storedTime(in.StartTime)
	end := storedTime(in.EndTime)
	if err := domain.ValidateInterval(start, end); err != nil {
		return domain.Reservation{}, invalid(err)
	}
	// A replay may arrive after the booked start, so with a key the past
	// check waits until the lookup misses.
	pastErr := domain.ValidateNewInterval(start, end, s.now().UTC())

	userID := p.ID
	candidate := domain.Reservation{
		RoomID:    in.RoomID,
		UserID:    &userID,
		StartTime: start,
		EndTime:   end,
	}

	key := strings.TrimSpace(in.IdempotencyKey)
	if key != "" {
		if len(key) > maxIdempotencyKeyLength {
			return domain.Reservation{}, validationError("idempotency_key too long")
		}
		requestKey := uuid.NewSHA1(uuid.NameSpaceOID, []byte("roombook:create_reservation:"+strconv.FormatInt(p.ID, 10)+":"+key))
		candidate.RequestKey = &requestKey
	}
	if pastErr != nil && candidate.RequestKey == nil {
		return domain.Reservation{}, invalid(pastErr)
	}

	var out domain.Reservation
	err := s.reservations.InRoomTransaction(ctx, in.RoomID, func(ctx context.Context, tx store.BookingTx) error {
		if _, err := tx.GetRoom(ctx, in.RoomID); err != nil {
			return notFound(err, "room", in.RoomID)
		}

		if candidate.RequestKey != nil {
			existing, err := tx.FindByRequestKey(ctx, *candidate.RequestKey)
			switch {
			case err == nil:
				if !sameBooking(existing, candidate) {
					return store.ErrIdempotencyConflict
				}
				out = existing
				return nil
			case !errors.Is(err, store.ErrNotFound):
				return err
			}
		}
		if pastErr != nil {
			return invalid(pastErr)
		}

		if err := ensureNoOverlap(ctx, tx, in.RoomID, start, end, store.NoExclusion); err != nil {
			return err
		}

		created, err := tx.InsertReservation(ctx, candidate)
		if err != nil {
			return notFound(err, "room", in.RoomID)
		}
		out = created
		return nil
	})
	if err != nil {
		return domain.Reservation{}, s.describeConflict(ctx, err, in.RoomID, start, end, store.NoExclusion)
	}
	return out, nil
}

func (s *Service) UpdateReservation(ctx context.Context, p domain.Principal, reservationID int64, in UpdateReservationInput) (domain.Reservation, error) {
	if !p.Authenticated() {
		return domain.Reservation{}, domain.ErrUnauthenticated
	}
	if reservationID <= 0 {
		return domain.Reservation{}, notFound(store.ErrNotFound, "reservation", reservationID)
	}
	if in.StartTime == nil && in.EndTime == nil {
		return domain.Reservation{}, validationError("start_time or end_time is required")
	}

	current, err := s.reservations.GetReservation(ctx, reservationID)
	if err != nil {
		return domain.Reservation{}, notFound(err, "reservation", reservationID)
	}
	if !domain.CanModifyReservation(p, current) {
		return domain.Reservation{}, domain.ErrForbidden
	}

	start, end := storedTime(current.StartTime), storedTime(current.EndTime)
	if in.StartTime != nil {
		start = storedTime(*in.StartTime)
	}
	if in.EndTime != nil {
		end = storedTime(*in.EndTime)
	}
	if err := domain.ValidateInterval(start, end); err != nil {
		return domain.Reservation{}, invalid(err)
	}

	var out domain.Reservation
	err = s.reservations.InRoomTransaction(ctx, current.RoomID, func(ctx context.Context, tx store.BookingTx) error {
		locked, err := tx.GetReservation(ctx, reservationID)
		if err != nil {
			return notFound(err, "reservation", reservationID)
		}
		if !domain.CanModifyReservation(p, locked) {
			return domain.ErrForbidden
		}

		if err := ensureNoOverlap(ctx, tx, locked.RoomID, start, end, locked.ID); err != nil {
			return err
		}

		updated, err := tx.UpdateReservationTimes(ctx, locked.ID, start, end)
		if err != nil {
			return notFound(err, "reservation", reservationID)
		}
		out = updated
		return nil
	})
	if err != nil {
		return domain.Reservation{}, s.describeConflict(ctx, err, current.RoomID, start, end, reservationID)
	}
	return out, nil
}

func (s *Service) DeleteReservation(ctx context.Context, p domain.Principal, reservationID int64) (domain.Reservation, error) {
	if !p.Authenticated() {
		return domain.Reservation{}, domain.ErrUnauthenticated
	}
	if reservationID <= 0 {
		return domain.Reservation{}, notFound(store.ErrNotFound, "reservation", reservationID)
	}

	current, err := s.reservations.GetReservation(ctx, reservationID)
	if err != nil {
		return domain.Reservation{}, notFound(err, "reservation", reservationID)
	}
	if !domain.CanModifyReservation(p, current) {
		return domain.Reservation{}, domain.ErrForbidden
	}

	var out domain.Reservation
	err = s.reservations.InRoomTransaction(ctx, current.RoomID, func(ctx context.Context, tx store.BookingTx) error {
		locked, err := tx.GetReservation(ctx, reservationID)
		if err != nil {
			return notFound(err, "reservation", reservationID)
		}
		if !domain.CanModifyReservation(p, locked) {
			return domain.ErrForbidden
		}
		if err := tx.DeleteReservation(ctx, reservationID); err != nil {
			return notFound(err, "reservation", reservationID)
		}
		out = locked
		return nil
	})
	if err != nil {
		return domain.Reservation{}, err
	}
	return out, nil
}

func (s *Service) GetReservation(ctx context.Context, reservationID int64) (domain.Reservation, error) {
	if reservationID <= 0 {
		return domain.Reservation{}, notFound(store.ErrNotFound, "reservation", reservationID)
	}
	r, err := s.reservations.GetReservation(ctx, reservationID)
	if err != nil {
		return domain.Reservation{}, notFound(err, "reservation", reservationID)
	}
	return r, nil
}

// ListBusyPeriods returns the room's reservations that have not ended yet.
func (s *Service) ListBusyPeriods(ctx context.Context, roomID int64) ([]domain.Reservation, error) {
	if roomID <= 0 {
		return nil, notFound(store.ErrNotFound, "room", roomID)
	}
	if _, err := s.rooms.GetRoom(ctx, roomID); err != nil {
		return nil, notFound(err, "room", roomID)
	}
	return s.reservations.ListUpcomingForRoom(ctx, roomID, s.now().UTC())
}

func (s *Service) ListMyReservations(ctx context.Context, p domain.Principal) ([]domain.Reservation, error) {
	if !p.Authenticated() {
		return nil, domain.ErrUnauthenticated
	}
	return s.reservations.ListForUser(ctx, p.ID)
}

func (s *Service) ListAllReservations(ctx context.Context, p domain.Principal) ([]domain.Reservation, error) {
	if !p.Authenticated() {
		return nil, domain.ErrUnauthenticated
	}
	if !domain.CanListAllReservations(p) {
		return nil, domain.ErrForbidden
	}
	return s.reservations.ListAll(ctx)
}

func ensureNoOverlap(ctx context.Context, tx store.BookingTx, roomID int64, start, end time.Time, excludeID int64) error {
	conflicts, err := tx.FindOverlaps(ctx, roomID, start, end, excludeID)
	if err != nil {
		return err
	}
	if len(conflicts) > 0 {
		return &store.OverlapError{RoomID: roomID, Conflicts: conflicts}
	}
	return nil
}

// describeConflict turns a bare constraint violation into an OverlapError
// naming the reservations that won the race.
func (s *Service) describeConflict(ctx context.Context, err error, roomID int64, start, end time.Time, excludeID int64) error {
	var overlapErr *store.OverlapError
	if errors.As(err, &overlapErr) || !errors.Is(err, store.ErrConflict) {
		return err
	}
	conflicts, lookupErr := s.reservations.FindOverlaps(ctx, roomID, start, end, excludeID)
	if lookupErr != nil {
		return err
	}
	return &store.OverlapError{RoomID: roomID, Conflicts: conflicts}
}

// storedTime normalizes t to UTC at the microsecond resolution of TIMESTAMPTZ.
func storedTime(t time.Time) time.Time {
	return t.UTC().Truncate(time.Microsecond)
}

func sameBooking(a, b domain.Reservation) bool {
	if a.RoomID != b.RoomID || !a.StartTime.Equal(b.StartTime) || !a.EndTime.Equal(b.EndTime) {
		return false
	}
	if (a.UserID == nil) != (b.UserID == nil) {
		return false
	}
	return a.UserID == nil || *a.UserID == *b.UserID
}
