package booking

import (
	"context"
	"time"

	"github.com/google/uuid"

	"roombook/backend/internal/domain"
	"roombook/backend/internal/store"
)

type fakeRooms struct {
	createFn    func(ctx context.Context, room domain.Room) (domain.Room, error)
	updateFn    func(ctx context.Context, room domain.Room) (domain.Room, error)
	deleteFn    func(ctx context.Context, roomID int64) (domain.Room, error)
	getFn       func(ctx context.Context, roomID int64) (domain.Room, error)
	listFn      func(ctx context.Context) ([]domain.Room, error)
	nameTakenFn func(ctx context.Context, name string, excludeRoomID int64) (bool, error)
}

func (f *fakeRooms) CreateRoom(ctx context.Context, room domain.Room) (domain.Room, error) {
	if f.createFn == nil {
		panic("CreateRoom not configured")
	}
	return f.createFn(ctx, room)
}

func (f *fakeRooms) UpdateRoom(ctx context.Context, room domain.Room) (domain.Room, error) {
	if f.updateFn == nil {
		panic("UpdateRoom not configured")
	}
	return f.updateFn(ctx, room)
}

func (f *fakeRooms) DeleteRoom(ctx context.Context, roomID int64) (domain.Room, error) {
	if f.deleteFn == nil {
		panic("DeleteRoom not configured")
	}
	return f.deleteFn(ctx, roomID)
}

func (f *fakeRooms) GetRoom(ctx context.Context, roomID int64) (domain.Room, error) {
	if f.getFn == nil {
		panic("GetRoom not configured")
	}
	return f.getFn(ctx, roomID)
}

func (f *fakeRooms) ListRooms(ctx context.Context) ([]domain.Room, error) {
	if f.listFn == nil {
		panic("ListRooms not configured")
	}
	return f.listFn(ctx)
}

func (f *fakeRooms) NameTaken(ctx context.Context, name string, excludeRoomID int64) (bool, error) {
	if f.nameTakenFn == nil {
		panic("NameTaken not configured")
	}
	return f.nameTakenFn(ctx, name, excludeRoomID)
}

type fakeReservations struct {
	tx             *fakeTx
	getFn          func(ctx context.Context, reservationID int64) (domain.Reservation, error)
	findOverlapsFn func(ctx context.Context, roomID int64, start, end time.Time, excludeID int64) ([]domain.Reservation, error)
	upcomingFn     func(ctx context.Context, roomID int64, now time.Time) ([]domain.Reservation, error)
	forUserFn      func(ctx context.Context, userID int64) ([]domain.Reservation, error)
	listAllFn      func(ctx context.Context) ([]domain.Reservation, error)
	countFn        func(ctx context.Context, start, end time.Time) ([]domain.RoomCount, error)
	txErr          error
	lockedIDs      []int64
}

func (f *fakeReservations) InRoomTransaction(ctx context.Context, roomID int64, fn func(ctx context.Context, tx store.BookingTx) error) error {
	if f.tx == nil {
		panic("InRoomTransaction not configured")
	}
	f.lockedIDs = append(f.lockedIDs, roomID)
	if err := fn(ctx, f.tx); err != nil {
		return err
	}
	return f.txErr
}

func (f *fakeReservations) GetReservation(ctx context.Context, reservationID int64) (domain.Reservation, error) {
	if f.getFn == nil {
		panic("GetReservation not configured")
	}
	return f.getFn(ctx, reservationID)
}

func (f *fakeReservations) FindOverlaps(ctx context.Context, roomID int64, start, end time.Time, excludeID int64) ([]domain.Reservation, error) {
	if f.findOverlapsFn == nil {
		panic("FindOverlaps not configured")
	}
	return f.findOverlapsFn(ctx, roomID, start, end, excludeID)
}

func (f *fakeReservations) ListUpcomingForRoom(ctx context.Context, roomID int64, now time.Time) ([]domain.Reservation, error) {
	if f.upcomingFn == nil {
		panic("ListUpcomingForRoom not configured")
	}
	return f.upcomingFn(ctx, roomID, now)
}

func (f *fakeReservations) ListForUser(ctx context.Context, userID int64) ([]domain.Reservation, error) {
	if f.forUserFn == nil {
		panic("ListForUser not configured")
	}
	return f.forUserFn(ctx, userID)
}

func (f *fakeReservations) ListAll(ctx context.Context) ([]domain.Reservation, error) {
	if f.listAllFn == nil {
		panic("ListAll not configured")
	}
	return f.listAllFn(ctx)
}

func (f *fakeReservations) CountInWindow(ctx context.Context, start, end time.Time) ([]domain.RoomCount, error) {
	if f.countFn == nil {
		panic("CountInWindow not configured")
	}
	return f.countFn(ctx, start, end)
}

type fakeTx struct {
	getRoomFn        func(ctx context.Context, roomID int64) (domain.Room, error)
	getReservationFn func(ctx context.Context, reservationID int64) (domain.Reservation, error)
	findOverlapsFn   func(ctx context.Context, roomID int64, start, end time.Time, excludeID int64) ([]domain.Reservation, error)
	findByKeyFn      func(ctx context.Context, key uuid.UUID) (domain.Reservation, error)
	insertFn         func(ctx context.Context, r domain.Reservation) (domain.Reservation, error)
	updateTimesFn    func(ctx context.Context, reservationID int64, start, end time.Time) (domain.Reservation, error)
	deleteFn         func(ctx context.Context, reservationID int64) error
}

func (f *fakeTx) GetRoom(ctx context.Context, roomID int64) (domain.Room, error) {
	if f.getRoomFn == nil {
		panic("GetRoom not configured")
	}
	return f.getRoomFn(ctx, roomID)
}

func (f *fakeTx) GetReservation(ctx context.Context, reservationID int64) (domain.Reservation, error) {
	if f.getReservationFn == nil {
		panic("GetReservation not configured")
	}
	return f.getReservationFn(ctx, reservationID)
}

func (f *fakeTx) FindOverlaps(ctx context.Context, roomID int64, start, end time.Time, excludeID int64) ([]domain.Reservation, error) {
	if f.findOverlapsFn == nil {
		panic("FindOverlaps not configured")
	}
	return f.findOverlapsFn(ctx, roomID, start, end, excludeID)
}

func (f *fakeTx) FindByRequestKey(ctx context.Context, key uuid.UUID) (domain.Reservation, error) {
	if f.findByKeyFn == nil {
		panic("FindByRequestKey not configured")
	}
	return f.findByKeyFn(ctx, key)
}

func (f *fakeTx) InsertReservation(ctx context.Context, r domain.Reservation) (domain.Reservation, error) {
	if f.insertFn == nil {
		panic("InsertReservation not configured")
	}
	return f.insertFn(ctx, r)
}

func (f *fakeTx) UpdateReservationTimes(ctx context.Context, reservationID int64, start, end time.Time) (domain.Reservation, error) {
	if f.updateTimesFn == nil {
		panic("UpdateReservationTimes not configured")
	}
	return f.updateTimesFn(ctx, reservationID, start, end)
}

func (f *fakeTx) DeleteReservation(ctx context.Context, reservationID int64) error {
	if f.deleteFn == nil {
		panic("DeleteReservation not configured")
	}
	return f.deleteFn(ctx, reservationID)
}
