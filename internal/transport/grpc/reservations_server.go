package grpc

import (
	"context"
	"errors"
	"log/slog"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"roombook/backend/internal/auth"
	"roombook/backend/internal/domain"
	"roombook/backend/internal/service/booking"
	"roombook/backend/internal/store"
)

type ReservationsServer struct {
	svc       reservationsService
	conflicts conflictCounter
	log       *slog.Logger
}

type reservationsService interface {
	CreateReservation(ctx context.Context, p domain.Principal, in booking.CreateReservationInput) (domain.Reservation, error)
	UpdateReservation(ctx context.Context, p domain.Principal, reservationID int64, in booking.UpdateReservationInput) (domain.Reservation, error)
	DeleteReservation(ctx context.Context, p domain.Principal, reservationID int64) (domain.Reservation, error)
	GetReservation(ctx context.Context, reservationID int64) (domain.Reservation, error)
	ListMyReservations(ctx context.Context, p domain.Principal) ([]domain.Reservation, error)
	ListAllReservations(ctx context.Context, p domain.Principal) ([]domain.Reservation, error)
}

type conflictCounter interface {
	ReservationConflict()
}

type noConflictCounter struct{}

func (noConflictCounter) ReservationConflict() {}

func NewReservationsServer(svc reservationsService, conflicts conflictCounter, log *slog.Logger) *ReservationsServer {
	if log == nil {
		log = slog.Default()
	}
	if conflicts == nil {
		conflicts = noConflictCounter{}
	}
	return &ReservationsServer{
		svc:       svc,
		conflicts: conflicts,
		log:       log.With(slog.String("component", "grpc.reservations")),
	}
}

func (s *ReservationsServer) CreateReservation(ctx context.Context, req *CreateReservationRequest) (*ReservationResponse, error) {
	log := s.log.With(slog.String("rpc", "CreateReservation"))

	if req == nil {
		log.Warn("invalid request", slog.String("reason", "nil_request"))
		return nil, status.Error(codes.InvalidArgument, "request is required")
	}
	if req.StartTime == nil || req.EndTime == nil {
		log.Warn("invalid request", slog.String("reason", "missing_times"), slog.Int64("room_id", req.RoomID))
		return nil, status.Error(codes.InvalidArgument, "start_time and end_time are required")
	}

	p := auth.PrincipalFrom(ctx)
	r, err := s.svc.CreateReservation(ctx, p, booking.CreateReservationInput{
		RoomID:         req.RoomID,
		StartTime:      *req.StartTime,
		EndTime:        *req.EndTime,
		IdempotencyKey: idempotencyKey(ctx),
	})
	if err != nil {
		s.countConflict(err)
		return nil, statusFromError(log.With(slog.Int64("room_id", req.RoomID), slog.Int64("user_id", p.ID)), "reservation create failed", err)
	}

	log.Info(
		"reservation created",
		slog.Int64("reservation_id", r.ID),
		slog.Int64("room_id", r.RoomID),
		slog.Int64("user_id", p.ID),
		slog.Time("start_time", r.StartTime),
		slog.Time("end_time", r.EndTime),
	)
	return &ReservationResponse{Reservation: toReservation(r)}, nil
}

func (s *ReservationsServer) UpdateReservation(ctx context.Context, req *UpdateReservationRequest) (*ReservationResponse, error) {
	log := s.log.With(slog.String("rpc", "UpdateReservation"))

	if req == nil {
		log.Warn("invalid request", slog.String("reason", "nil_request"))
		return nil, status.Error(codes.InvalidArgument, "request is required")
	}

	p := auth.PrincipalFrom(ctx)
	r, err := s.svc.UpdateReservation(ctx, p, req.ReservationID, booking.UpdateReservationInput{
		StartTime: req.StartTime,
		EndTime:   req.EndTime,
	})
	if err != nil {
		s.countConflict(err)
		return nil, statusFromError(log.With(slog.Int64("reservation_id", req.ReservationID), slog.Int64("user_id", p.ID)), "reservation update failed", err)
	}

	log.Info(
		"reservation updated",
		slog.Int64("reservation_id", r.ID),
		slog.Int64("user_id", p.ID),
		slog.Time("start_time", r.StartTime),
		slog.Time("end_time", r.EndTime),
	)
	return &ReservationResponse{Reservation: toReservation(r)}, nil
}

func (s *ReservationsServer) DeleteReservation(ctx context.Context, req *ReservationIDRequest) (*ReservationResponse, error) {
	log := s.log.With(slog.String("rpc", "DeleteReservation"))

	if req == nil {
		log.Warn("invalid request", slog.String("reason", "nil_request"))
		return nil, status.Error(codes.InvalidArgument, "request is required")
	}

	p := auth.PrincipalFrom(ctx)
	r, err := s.svc.DeleteReservation(ctx, p, req.ReservationID)
	if err != nil {
		return nil, statusFromError(log.With(slog.Int64("reservation_id", req.ReservationID), slog.Int64("user_id", p.ID)), "reservation delete failed", err)
	}

	log.Info("reservation deleted", slog.Int64("reservation_id", r.ID), slog.Int64("user_id", p.ID))
	return &ReservationResponse{Reservation: toReservation(r)}, nil
}

func (s *ReservationsServer) GetReservation(ctx context.Context, req *ReservationIDRequest) (*ReservationResponse, error) {
	log := s.log.With(slog.String("rpc", "GetReservation"))

	if req == nil {
		return nil, status.Error(codes.InvalidArgument, "request is required")
	}

	r, err := s.svc.GetReservation(ctx, req.ReservationID)
	if err != nil {
		return nil, statusFromError(log.With(slog.Int64("reservation_id", req.ReservationID)), "reservation get failed", err)
	}
	return &ReservationResponse{Reservation: toReservation(r)}, nil
}

func (s *ReservationsServer) ListMyReservations(ctx context.Context, req *ListReservationsRequest) (*ListReservationsResponse, error) {
	log := s.log.With(slog.String("rpc", "ListMyReservations"))

	p := auth.PrincipalFrom(ctx)
	rs, err := s.svc.ListMyReservations(ctx, p)
	if err != nil {
		return nil, statusFromError(log.With(slog.Int64("user_id", p.ID)), "reservations list failed", err)
	}

	log.Debug("reservations listed", slog.Int64("user_id", p.ID), slog.Int("count", len(rs)))
	return &ListReservationsResponse{Reservations: toReservations(rs)}, nil
}

func (s *ReservationsServer) ListReservations(ctx context.Context, req *ListReservationsRequest) (*ListReservationsResponse, error) {
	log := s.log.With(slog.String("rpc", "ListReservations"))

	p := auth.PrincipalFrom(ctx)
	rs, err := s.svc.ListAllReservations(ctx, p)
	if err != nil {
		return nil, statusFromError(log.With(slog.Int64("user_id", p.ID)), "reservations list failed", err)
	}

	log.Debug("all reservations listed", slog.Int("count", len(rs)))
	return &ListReservationsResponse{Reservations: toReservations(rs)}, nil
}

func (s *ReservationsServer) countConflict(err error) {
	if errors.Is(err, store.ErrConflict) {
		s.conflicts.ReservationConflict()
	}
}
