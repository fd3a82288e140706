package booking

import (
	"context"
	"strings"

	"roombook/backend/internal/domain"
	"roombook/backend/internal/store"
)

type CreateRoomInput struct {
	Name        string `validate:"required,max=100"`
	Description *string
}

type UpdateRoomInput struct {
	Name *string
	// Description replaces the current one; an empty string clears it.
	Description *string
}

type roomName struct {
	Name string `validate:"required,max=100"`
}

func (s *Service) CreateRoom(ctx context.Context, p domain.Principal, in CreateRoomInput) (domain.Room, error) {
	if err := s.authorizeRoomManagement(p); err != nil {
		return domain.Room{}, err
	}

	in.Name = strings.TrimSpace(in.Name)
	if err := s.checkStruct(in); err != nil {
		return domain.Room{}, err
	}

	taken, err := s.rooms.NameTaken(ctx, in.Name, 0)
	if err != nil {
		return domain.Room{}, err
	}
	if taken {
		return domain.Room{}, store.ErrNameConflict
	}

	return s.rooms.CreateRoom(ctx, domain.Room{
		Name:        in.Name,
		Description: normalizeDescription(in.Description),
	})
}

func (s *Service) UpdateRoom(ctx context.Context, p domain.Principal, roomID int64, in UpdateRoomInput) (domain.Room, error) {
	if err := s.authorizeRoomManagement(p); err != nil {
		return domain.Room{}, err
	}
	if roomID <= 0 {
		return domain.Room{}, notFound(store.ErrNotFound, "room", roomID)
	}

	room, err := s.rooms.GetRoom(ctx, roomID)
	if err != nil {
		return domain.Room{}, notFound(err, "room", roomID)
	}

	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if err := s.checkStruct(roomName{Name: name}); err != nil {
			return domain.Room{}, err
		}
		if name != room.Name {
			taken, err := s.rooms.NameTaken(ctx, name, room.ID)
			if err != nil {
				return domain.Room{}, err
			}
			if taken {
				return domain.Room{}, store.ErrNameConflict
			}
			room.Name = name
		}
	}
	if in.Description != nil {
		room.Description = normalizeDescription(in.Description)
	}

	updated, err := s.rooms.UpdateRoom(ctx, room)
	if err != nil {
		return domain.Room{}, notFound(err, "room", roomID)
	}
	return updated, nil
}

func (s *Service) DeleteRoom(ctx context.Context, p domain.Principal, roomID int64) (domain.Room, error) {
	if err := s.authorizeRoomManagement(p); err != nil {
		return domain.Room{}, err
	}
	if roomID <= 0 {
		return domain.Room{}, notFound(store.ErrNotFound, "room", roomID)
	}

	room, err := s.rooms.DeleteRoom(ctx, roomID)
	if err != nil {
		return domain.Room{}, notFound(err, "room", roomID)
	}
	return room, nil
}

func (s *Service) GetRoom(ctx context.Context, roomID int64) (domain.Room, error) {
	if roomID <= 0 {
		return domain.Room{}, notFound(store.ErrNotFound, "room", roomID)
	}
	room, err := s.rooms.GetRoom(ctx, roomID)
	if err != nil {
		return domain.Room{}, notFound(err, "room", roomID)
	}
	return room, nil
}

func (s *Service) ListRooms(ctx context.Context) ([]domain.Room, error) {
	return s.rooms.ListRooms(ctx)
}

func (s *Service) authorizeRoomManagement(p domain.Principal) error {
	if !p.Authenticated() {
		return domain.ErrUnauthenticated
	}
	if !domain.CanManageRooms(p) {
		return domain.ErrForbidden
	}
	return nil
}

func normalizeDescription(d *string) *string {
	if d == nil {
		return nil
	}
	v := strings.TrimSpace(*d)
	if v == "" {
		return nil
	}
	return &v
}
