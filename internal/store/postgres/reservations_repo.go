package postgres

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"roombook/backend/internal/domain"
	"roombook/backend/internal/store"
)

type ReservationRepo struct {
	db *bun.DB
}

func NewReservationRepo(db *bun.DB) *ReservationRepo {
	return &ReservationRepo{db: db}
}

type bookingTx struct {
	tx bun.Tx
}

func (r *ReservationRepo) InRoomTransaction(ctx context.Context, roomID int64, fn func(ctx context.Context, tx store.BookingTx) error) error {
	err := r.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if err := lockRoom(ctx, tx, roomID); err != nil {
			return err
		}
		return fn(ctx, bookingTx{tx: tx})
	})
	return mapError(err)
}

func (r *ReservationRepo) GetReservation(ctx context.Context, reservationID int64) (domain.Reservation, error) {
	return getReservation(ctx, r.db, reservationID)
}

func (r *ReservationRepo) FindOverlaps(ctx context.Context, roomID int64, start, end time.Time, excludeID int64) ([]domain.Reservation, error) {
	return findOverlaps(ctx, r.db, roomID, start, end, excludeID)
}

func (r *ReservationRepo) ListUpcomingForRoom(ctx context.Context, roomID int64, now time.Time) ([]domain.Reservation, error) {
	var rows []domain.Reservation
	err := r.db.NewSelect().
		Model(&rows).
		Where("room_id = ?", roomID).
		Where("end_time > ?", now).
		OrderExpr("start_time ASC, id ASC").
		Scan(ctx)
	if err != nil {
		return nil, mapError(err)
	}
	return rows, nil
}

func (r *ReservationRepo) ListForUser(ctx context.Context, userID int64) ([]domain.Reservation, error) {
	var rows []domain.Reservation
	err := r.db.NewSelect().
		Model(&rows).
		Where("user_id = ?", userID).
		OrderExpr("start_time ASC, id ASC").
		Scan(ctx)
	if err != nil {
		return nil, mapError(err)
	}
	return rows, nil
}

func (r *ReservationRepo) ListAll(ctx context.Context) ([]domain.Reservation, error) {
	var rows []domain.Reservation
	err := r.db.NewSelect().
		Model(&rows).
		OrderExpr("room_id ASC, start_time ASC, id ASC").
		Scan(ctx)
	if err != nil {
		return nil, mapError(err)
	}
	return rows, nil
}

func (r *ReservationRepo) CountInWindow(ctx context.Context, start, end time.Time) ([]domain.RoomCount, error) {
	var rows []domain.RoomCount
	err := r.db.NewSelect().
		TableExpr("reservations").
		ColumnExpr("room_id").
		ColumnExpr("count(*) AS count").
		Where("start_time < ?", end).
		Where("end_time > ?", start).
		GroupExpr("room_id").
		OrderExpr("room_id ASC").
		Scan(ctx, &rows)
	if err != nil {
		return nil, mapError(err)
	}
	return rows, nil
}

func (t bookingTx) GetRoom(ctx context.Context, roomID int64) (domain.Room, error) {
	return getRoom(ctx, t.tx, roomID)
}

func (t bookingTx) GetReservation(ctx context.Context, reservationID int64) (domain.Reservation, error) {
	return getReservation(ctx, t.tx, reservationID)
}

func (t bookingTx) FindOverlaps(ctx context.Context, roomID int64, start, end time.Time, excludeID int64) ([]domain.Reservation, error) {
	return findOverlaps(ctx, t.tx, roomID, start, end, excludeID)
}

func (t bookingTx) FindByRequestKey(ctx context.Context, key uuid.UUID) (domain.Reservation, error) {
	var res domain.Reservation
	err := t.tx.NewSelect().
		Model(&res).
		Where("request_key = ?", key).
		Limit(1).
		Scan(ctx)
	if err != nil {
		return domain.Reservation{}, mapError(err)
	}
	return res, nil
}

func (t bookingTx) InsertReservation(ctx context.Context, r domain.Reservation) (domain.Reservation, error) {
	m := domain.Reservation{
		RoomID:     r.RoomID,
		UserID:     r.UserID,
		StartTime:  r.StartTime,
		EndTime:    r.EndTime,
		RequestKey: r.RequestKey,
	}
	if _, err := t.tx.NewInsert().Model(&m).Returning("*").Exec(ctx); err != nil {
		return domain.Reservation{}, mapError(err)
	}
	return m, nil
}

func (t bookingTx) UpdateReservationTimes(ctx context.Context, reservationID int64, start, end time.Time) (domain.Reservation, error) {
	res, err := t.tx.NewUpdate().
		Model((*domain.Reservation)(nil)).
		Set("start_time = ?", start).
		Set("end_time = ?", end).
		Set("updated_at = ?", time.Now().UTC()).
		Where("id = ?", reservationID).
		Exec(ctx)
	if err != nil {
		return domain.Reservation{}, mapError(err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return domain.Reservation{}, err
	}
	if affected == 0 {
		return domain.Reservation{}, store.ErrNotFound
	}
	return getReservation(ctx, t.tx, reservationID)
}

func (t bookingTx) DeleteReservation(ctx context.Context, reservationID int64) error {
	res, err := t.tx.NewDelete().
		Model((*domain.Reservation)(nil)).
		Where("id = ?", reservationID).
		Exec(ctx)
	if err != nil {
		return mapError(err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return store.ErrNotFound
	}
	return nil
}

func getReservation(ctx context.Context, db bun.IDB, reservationID int64) (domain.Reservation, error) {
	var res domain.Reservation
	err := db.NewSelect().
		Model(&res).
		Where("id = ?", reservationID).
		Limit(1).
		Scan(ctx)
	if err != nil {
		return domain.Reservation{}, mapError(err)
	}
	return res, nil
}

// findOverlaps selects reservations of roomID intersecting [start, end).
func findOverlaps(ctx context.Context, db bun.IDB, roomID int64, start, end time.Time, excludeID int64) ([]domain.Reservation, error) {
	var rows []domain.Reservation
	q := db.NewSelect().
		Model(&rows).
		Where("room_id = ?", roomID).
		Where("start_time < ?", end).
		Where("end_time > ?", start)
	if excludeID != store.NoExclusion {
		q = q.Where("id <> ?", excludeID)
	}
	if err := q.OrderExpr("start_time ASC, id ASC").Scan(ctx); err != nil {
		return nil, mapError(err)
	}
	return rows, nil
}
