package grpc

import (
	"context"
	"log/slog"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"roombook/backend/internal/auth"
	"roombook/backend/internal/domain"
	"roombook/backend/internal/service/booking"
)

type RoomsServer struct {
	svc roomsService
	log *slog.Logger
}

type roomsService interface {
	CreateRoom(ctx context.Context, p domain.Principal, in booking.CreateRoomInput) (domain.Room, error)
	UpdateRoom(ctx context.Context, p domain.Principal, roomID int64, in booking.UpdateRoomInput) (domain.Room, error)
	DeleteRoom(ctx context.Context, p domain.Principal, roomID int64) (domain.Room, error)
	GetRoom(ctx context.Context, roomID int64) (domain.Room, error)
	ListRooms(ctx context.Context) ([]domain.Room, error)
	ListBusyPeriods(ctx context.Context, roomID int64) ([]domain.Reservation, error)
}

func NewRoomsServer(svc roomsService, log *slog.Logger) *RoomsServer {
	if log == nil {
		log = slog.Default()
	}
	return &RoomsServer{
		svc: svc,
		log: log.With(slog.String("component", "grpc.rooms")),
	}
}

func (s *RoomsServer) CreateRoom(ctx context.Context, req *CreateRoomRequest) (*RoomResponse, error) {
	log := s.log.With(slog.String("rpc", "CreateRoom"))

	if req == nil {
		log.Warn("invalid request", slog.String("reason", "nil_request"))
		return nil, status.Error(codes.InvalidArgument, "request is required")
	}

	p := auth.PrincipalFrom(ctx)
	room, err := s.svc.CreateRoom(ctx, p, booking.CreateRoomInput{
		Name:        req.Name,
		Description: req.Description,
	})
	if err != nil {
		return nil, statusFromError(log.With(slog.Int64("user_id", p.ID)), "room create failed", err)
	}

	log.Info("room created", slog.Int64("room_id", room.ID), slog.String("name", room.Name), slog.Int64("user_id", p.ID))
	return &RoomResponse{Room: toRoom(room)}, nil
}

func (s *RoomsServer) UpdateRoom(ctx context.Context, req *UpdateRoomRequest) (*RoomResponse, error) {
	log := s.log.With(slog.String("rpc", "UpdateRoom"))

	if req == nil {
		log.Warn("invalid request", slog.String("reason", "nil_request"))
		return nil, status.Error(codes.InvalidArgument, "request is required")
	}

	p := auth.PrincipalFrom(ctx)
	room, err := s.svc.UpdateRoom(ctx, p, req.RoomID, booking.UpdateRoomInput{
		Name:        req.Name,
		Description: req.Description,
	})
	if err != nil {
		return nil, statusFromError(log.With(slog.Int64("room_id", req.RoomID)), "room update failed", err)
	}

	log.Info("room updated", slog.Int64("room_id", room.ID), slog.Int64("user_id", p.ID))
	return &RoomResponse{Room: toRoom(room)}, nil
}

func (s *RoomsServer) DeleteRoom(ctx context.Context, req *RoomIDRequest) (*RoomResponse, error) {
	log := s.log.With(slog.String("rpc", "DeleteRoom"))

	if req == nil {
		log.Warn("invalid request", slog.String("reason", "nil_request"))
		return nil, status.Error(codes.InvalidArgument, "request is required")
	}

	p := auth.PrincipalFrom(ctx)
	room, err := s.svc.DeleteRoom(ctx, p, req.RoomID)
	if err != nil {
		return nil, statusFromError(log.With(slog.Int64("room_id", req.RoomID)), "room delete failed", err)
	}

	log.Info("room deleted", slog.Int64("room_id", room.ID), slog.Int64("user_id", p.ID))
	return &RoomResponse{Room: toRoom(room)}, nil
}

func (s *RoomsServer) GetRoom(ctx context.Context, req *RoomIDRequest) (*RoomResponse, error) {
	log := s.log.With(slog.String("rpc", "GetRoom"))

	if req == nil {
		return nil, status.Error(codes.InvalidArgument, "request is required")
	}

	room, err := s.svc.GetRoom(ctx, req.RoomID)
	if err != nil {
		return nil, statusFromError(log.With(slog.Int64("room_id", req.RoomID)), "room get failed", err)
	}
	return &RoomResponse{Room: toRoom(room)}, nil
}

func (s *RoomsServer) ListRooms(ctx context.Context, req *ListRoomsRequest) (*ListRoomsResponse, error) {
	log := s.log.With(slog.String("rpc", "ListRooms"))

	rooms, err := s.svc.ListRooms(ctx)
	if err != nil {
		return nil, statusFromError(log, "rooms list failed", err)
	}

	out := make([]Room, 0, len(rooms))
	for _, r := range rooms {
		out = append(out, toRoom(r))
	}

	log.Debug("rooms listed", slog.Int("count", len(out)))
	return &ListRoomsResponse{Rooms: out}, nil
}

func (s *RoomsServer) ListBusyPeriods(ctx context.Context, req *RoomIDRequest) (*ListReservationsResponse, error) {
	log := s.log.With(slog.String("rpc", "ListBusyPeriods"))

	if req == nil {
		return nil, status.Error(codes.InvalidArgument, "request is required")
	}

	busy, err := s.svc.ListBusyPeriods(ctx, req.RoomID)
	if err != nil {
		return nil, statusFromError(log.With(slog.Int64("room_id", req.RoomID)), "busy periods list failed", err)
	}

	log.Debug("busy periods listed", slog.Int64("room_id", req.RoomID), slog.Int("count", len(busy)))
	return &ListReservationsResponse{Reservations: toReservations(busy)}, nil
}
