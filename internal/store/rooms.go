package store

import (
	"context"

	"roombook/backend/internal/domain"
)

type RoomRepository interface {
	CreateRoom(ctx context.Context, room domain.Room) (domain.Room, error)
	// UpdateRoom persists name and description of an existing room.
	UpdateRoom(ctx context.Context, room domain.Room) (domain.Room, error)
	// DeleteRoom removes the room and every reservation that references it.
	DeleteRoom(ctx context.Context, roomID int64) (domain.Room, error)
	GetRoom(ctx context.Context, roomID int64) (domain.Room, error)
	ListRooms(ctx context.Context) ([]domain.Room, error)
	// NameTaken reports whether a room other than excludeRoomID already uses name.
	NameTaken(ctx context.Context, name string, excludeRoomID int64) (bool, error)
}
