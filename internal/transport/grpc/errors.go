package grpc

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"google.golang.org/genproto/googleapis/rpc/errdetails"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"roombook/backend/internal/domain"
	"roombook/backend/internal/service/booking"
	"roombook/backend/internal/store"
)

const overlapViolationType = "RESERVATION_OVERLAP"

// statusFromError maps service errors to gRPC statuses. Unexpected errors are
// logged with the given message and hidden behind codes.Internal.
func statusFromError(log *slog.Logger, msg string, err error) error {
	var (
		vErr       *booking.ValidationError
		overlapErr *store.OverlapError
	)
	switch {
	case errors.As(err, &vErr):
		log.Warn("invalid request", slog.Any("err", err))
		return status.Error(codes.InvalidArgument, vErr.Error())
	case errors.As(err, &overlapErr):
		log.Info("reservation overlap", slog.Int64("room_id", overlapErr.RoomID), slog.Int("conflicts", len(overlapErr.Conflicts)))
		return overlapStatus(overlapErr)
	case errors.Is(err, store.ErrConflict):
		log.Info("reservation conflict")
		return status.Error(codes.FailedPrecondition, "The room is already booked during that time. Pick a different slot.")
	case errors.Is(err, store.ErrIdempotencyConflict):
		log.Info("idempotency conflict")
		return status.Error(codes.FailedPrecondition, "This request key was already used for a different reservation. Try again.")
	case errors.Is(err, store.ErrNameConflict):
		return status.Error(codes.AlreadyExists, "a room with that name already exists")
	case errors.Is(err, store.ErrNotFound):
		return status.Error(codes.NotFound, err.Error())
	case errors.Is(err, domain.ErrForbidden):
		return status.Error(codes.PermissionDenied, "not allowed")
	case errors.Is(err, domain.ErrUnauthenticated):
		return status.Error(codes.Unauthenticated, "authentication required")
	case errors.Is(err, domain.ErrUnavailable):
		log.Warn("dependency unavailable", slog.Any("err", err))
		return status.Error(codes.Unavailable, "service temporarily unavailable")
	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, "deadline exceeded")
	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, "request canceled")
	default:
		log.Error(msg, slog.Any("err", err))
		return status.Error(codes.Internal, "internal error")
	}
}

func overlapStatus(e *store.OverlapError) error {
	st := status.New(codes.FailedPrecondition, "The room is already booked during that time. Pick a different slot.")
	if len(e.Conflicts) == 0 {
		return st.Err()
	}
	pf := &errdetails.PreconditionFailure{}
	for _, c := range e.Conflicts {
		pf.Violations = append(pf.Violations, &errdetails.PreconditionFailure_Violation{
			Type:        overlapViolationType,
			Subject:     fmt.Sprintf("reservations/%d", c.ID),
			Description: fmt.Sprintf("busy from %s to %s", c.StartTime.UTC().Format(time.RFC3339), c.EndTime.UTC().Format(time.RFC3339)),
		})
	}
	detailed, err := st.WithDetails(pf)
	if err != nil {
		return st.Err()
	}
	return detailed.Err()
}
