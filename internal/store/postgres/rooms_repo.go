package postgres

import (
	"context"

	"github.com/uptrace/bun"

	"roombook/backend/internal/domain"
	"roombook/backend/internal/store"
)

type RoomRepo struct {
	db *bun.DB
}

func NewRoomRepo(db *bun.DB) *RoomRepo {
	return &RoomRepo{db: db}
}

func (r *RoomRepo) CreateRoom(ctx context.Context, room domain.Room) (domain.Room, error) {
	m := domain.Room{
		Name:        room.Name,
		Description: room.Description,
	}
	if _, err := r.db.NewInsert().Model(&m).Returning("*").Exec(ctx); err != nil {
		return domain.Room{}, mapError(err)
	}
	return m, nil
}

func (r *RoomRepo) UpdateRoom(ctx context.Context, room domain.Room) (domain.Room, error) {
	m := domain.Room{
		ID:          room.ID,
		Name:        room.Name,
		Description: room.Description,
	}
	res, err := r.db.NewUpdate().
		Model(&m).
		Column("name", "description", "updated_at").
		WherePK().
		Exec(ctx)
	if err != nil {
		return domain.Room{}, mapError(err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return domain.Room{}, err
	}
	if affected == 0 {
		return domain.Room{}, store.ErrNotFound
	}
	return r.GetRoom(ctx, room.ID)
}

// DeleteRoom takes the room's booking lock so that no reservation can be
// committed against the room while it is being removed.
func (r *RoomRepo) DeleteRoom(ctx context.Context, roomID int64) (domain.Room, error) {
	var out domain.Room
	err := r.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if err := lockRoom(ctx, tx, roomID); err != nil {
			return err
		}
		room, err := getRoom(ctx, tx, roomID)
		if err != nil {
			return err
		}
		res, err := tx.NewDelete().
			Model((*domain.Room)(nil)).
			Where("id = ?", roomID).
			Exec(ctx)
		if err != nil {
			return err
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if affected == 0 {
			return store.ErrNotFound
		}
		out = room
		return nil
	})
	if err != nil {
		return domain.Room{}, mapError(err)
	}
	return out, nil
}

func (r *RoomRepo) GetRoom(ctx context.Context, roomID int64) (domain.Room, error) {
	room, err := getRoom(ctx, r.db, roomID)
	if err != nil {
		return domain.Room{}, mapError(err)
	}
	return room, nil
}

func (r *RoomRepo) ListRooms(ctx context.Context) ([]domain.Room, error) {
	var rows []domain.Room
	err := r.db.NewSelect().
		Model(&rows).
		OrderExpr("id ASC").
		Scan(ctx)
	if err != nil {
		return nil, mapError(err)
	}
	return rows, nil
}

func (r *RoomRepo) NameTaken(ctx context.Context, name string, excludeRoomID int64) (bool, error) {
	q := r.db.NewSelect().
		Model((*domain.Room)(nil)).
		Where("name = ?", name)
	if excludeRoomID > 0 {
		q = q.Where("id <> ?", excludeRoomID)
	}
	exists, err := q.Exists(ctx)
	if err != nil {
		return false, mapError(err)
	}
	return exists, nil
}

func getRoom(ctx context.Context, db bun.IDB, roomID int64) (domain.Room, error) {
	var room domain.Room
	err := db.NewSelect().
		Model(&room).
		Where("id = ?", roomID).
		Limit(1).
		Scan(ctx)
	if err != nil {
		return domain.Room{}, mapError(err)
	}
	return room, nil
}
