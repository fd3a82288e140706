package grpc

import (
	"time"

	"roombook/backend/internal/domain"
)

type Room struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description *string   `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type Reservation struct {
	ID        int64     `json:"id"`
	RoomID    int64     `json:"room_id"`
	UserID    *int64    `json:"user_id,omitempty"`
	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type CreateRoomRequest struct {
	Name        string  `json:"name"`
	Description *string `json:"description,omitempty"`
}

// UpdateRoomRequest changes only the fields that are set.
type UpdateRoomRequest struct {
	RoomID      int64   `json:"room_id"`
	Name        *string `json:"name,omitempty"`
	Description *string `json:"description,omitempty"`
}

type RoomIDRequest struct {
	RoomID int64 `json:"room_id"`
}

type RoomResponse struct {
	Room Room `json:"room"`
}

type ListRoomsRequest struct{}

type ListRoomsResponse struct {
	Rooms []Room `json:"rooms"`
}

type CreateReservationRequest struct {
	RoomID    int64      `json:"room_id"`
	StartTime *time.Time `json:"start_time,omitempty"`
	EndTime   *time.Time `json:"end_time,omitempty"`
}

type UpdateReservationRequest struct {
	ReservationID int64      `json:"reservation_id"`
	StartTime     *time.Time `json:"start_time,omitempty"`
	EndTime       *time.Time `json:"end_time,omitempty"`
}

type ReservationIDRequest struct {
	ReservationID int64 `json:"reservation_id"`
}

type ReservationResponse struct {
	Reservation Reservation `json:"reservation"`
}

type ListReservationsRequest struct{}

type ListReservationsResponse struct {
	Reservations []Reservation `json:"reservations"`
}

type WindowRequest struct {
	WindowStart *time.Time `json:"window_start,omitempty"`
	WindowEnd   *time.Time `json:"window_end,omitempty"`
}

type CountInWindowResponse struct {
	Rows []domain.RoomCount `json:"rows"`
}

type ExportWindowRequest struct {
	WindowStart *time.Time `json:"window_start,omitempty"`
	WindowEnd   *time.Time `json:"window_end,omitempty"`
	Target      string     `json:"target,omitempty"`
}

type ExportWindowResponse struct {
	ReportID    string             `json:"report_id"`
	GeneratedAt time.Time          `json:"generated_at"`
	Rows        []domain.RoomCount `json:"rows"`
}

func toRoom(r domain.Room) Room {
	return Room{
		ID:          r.ID,
		Name:        r.Name,
		Description: r.Description,
		CreatedAt:   r.CreatedAt.UTC(),
		UpdatedAt:   r.UpdatedAt.UTC(),
	}
}

func toReservation(r domain.Reservation) Reservation {
	return Reservation{
		ID:        r.ID,
		RoomID:    r.RoomID,
		UserID:    r.UserID,
		StartTime: r.StartTime.UTC(),
		EndTime:   r.EndTime.UTC(),
		CreatedAt: r.CreatedAt.UTC(),
		UpdatedAt: r.UpdatedAt.UTC(),
	}
}

func toReservations(rs []domain.Reservation) []Reservation {
	out := make([]Reservation, 0, len(rs))
	for _, r := range rs {
		out = append(out, toReservation(r))
	}
	return out
}
