// Package memory is a process-local implementation of the room and
// reservation repositories. It serializes bookings per room with a mutex and
// applies a transaction's writes only when its callback succeeds.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"roombook/backend/internal/domain"
	"roombook/backend/internal/store"
)

type Store struct {
	mu                sync.Mutex
	rooms             map[int64]domain.Room
	reservations      map[int64]domain.Reservation
	nextRoomID        int64
	nextReservationID int64

	locksMu   sync.Mutex
	roomLocks map[int64]*sync.Mutex
}

func New() *Store {
	return &Store{
		rooms:        make(map[int64]domain.Room),
		reservations: make(map[int64]domain.Reservation),
		roomLocks:    make(map[int64]*sync.Mutex),
	}
}

func (s *Store) PingContext(ctx context.Context) error {
	return ctx.Err()
}

func (s *Store) roomLock(roomID int64) *sync.Mutex {
	s.locksMu.Lock()
	defer s.locksMu.Unlock()
	l, ok := s.roomLocks[roomID]
	if !ok {
		l = &sync.Mutex{}
		s.roomLocks[roomID] = l
	}
	return l
}

func (s *Store) CreateRoom(ctx context.Context, room domain.Room) (domain.Room, error) {
	if err := ctx.Err(); err != nil {
		return domain.Room{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.nameTakenLocked(room.Name, 0) {
		return domain.Room{}, store.ErrNameConflict
	}
	now := time.Now().UTC()
	s.nextRoomID++
	m := domain.Room{
		ID:          s.nextRoomID,
		Name:        room.Name,
		Description: room.Description,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	s.rooms[m.ID] = m
	return m, nil
}

func (s *Store) UpdateRoom(ctx context.Context, room domain.Room) (domain.Room, error) {
	if err := ctx.Err(); err != nil {
		return domain.Room{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.rooms[room.ID]
	if !ok {
		return domain.Room{}, store.ErrNotFound
	}
	if s.nameTakenLocked(room.Name, room.ID) {
		return domain.Room{}, store.ErrNameConflict
	}
	current.Name = room.Name
	current.Description = room.Description
	current.UpdatedAt = time.Now().UTC()
	s.rooms[room.ID] = current
	return current, nil
}

func (s *Store) DeleteRoom(ctx context.Context, roomID int64) (domain.Room, error) {
	lock := s.roomLock(roomID)
	lock.Lock()
	defer lock.Unlock()

	if err := ctx.Err(); err != nil {
		return domain.Room{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	room, ok := s.rooms[roomID]
	if !ok {
		return domain.Room{}, store.ErrNotFound
	}
	delete(s.rooms, roomID)
	for id, r := range s.reservations {
		if r.RoomID == roomID {
			delete(s.reservations, id)
		}
	}
	return room, nil
}

func (s *Store) GetRoom(ctx context.Context, roomID int64) (domain.Room, error) {
	if err := ctx.Err(); err != nil {
		return domain.Room{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	room, ok := s.rooms[roomID]
	if !ok {
		return domain.Room{}, store.ErrNotFound
	}
	return room, nil
}

func (s *Store) ListRooms(ctx context.Context) ([]domain.Room, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.Room, 0, len(s.rooms))
	for _, r := range s.rooms {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Store) NameTaken(ctx context.Context, name string, excludeRoomID int64) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.nameTakenLocked(name, excludeRoomID), nil
}

func (s *Store) nameTakenLocked(name string, excludeRoomID int64) bool {
	for id, r := range s.rooms {
		if id != excludeRoomID && r.Name == name {
			return true
		}
	}
	return false
}

func (s *Store) InRoomTransaction(ctx context.Context, roomID int64, fn func(ctx context.Context, tx store.BookingTx) error) error {
	lock := s.roomLock(roomID)
	lock.Lock()
	defer lock.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}
	tx := &bookingTx{s: s}
	if err := fn(ctx, tx); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return tx.commit()
}

func (s *Store) GetReservation(ctx context.Context, reservationID int64) (domain.Reservation, error) {
	if err := ctx.Err(); err != nil {
		return domain.Reservation{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.reservations[reservationID]
	if !ok {
		return domain.Reservation{}, store.ErrNotFound
	}
	return r, nil
}

func (s *Store) FindOverlaps(ctx context.Context, roomID int64, start, end time.Time, excludeID int64) ([]domain.Reservation, error) {
	return s.filter(ctx, func(r domain.Reservation) bool {
		return r.RoomID == roomID && r.ID != excludeID && r.Overlaps(start, end)
	})
}

func (s *Store) ListUpcomingForRoom(ctx context.Context, roomID int64, now time.Time) ([]domain.Reservation, error) {
	return s.filter(ctx, func(r domain.Reservation) bool {
		return r.RoomID == roomID && r.EndTime.After(now)
	})
}

func (s *Store) ListForUser(ctx context.Context, userID int64) ([]domain.Reservation, error) {
	return s.filter(ctx, func(r domain.Reservation) bool {
		return r.OwnedBy(userID)
	})
}

func (s *Store) ListAll(ctx context.Context) ([]domain.Reservation, error) {
	rows, err := s.filter(ctx, func(domain.Reservation) bool { return true })
	if err != nil {
		return nil, err
	}
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].RoomID < rows[j].RoomID })
	return rows, nil
}

func (s *Store) CountInWindow(ctx context.Context, start, end time.Time) ([]domain.RoomCount, error) {
	rows, err := s.filter(ctx, func(r domain.Reservation) bool {
		return r.Overlaps(start, end)
	})
	if err != nil {
		return nil, err
	}
	counts := make(map[int64]int)
	for _, r := range rows {
		counts[r.RoomID]++
	}
	out := make([]domain.RoomCount, 0, len(counts))
	for roomID, n := range counts {
		out = append(out, domain.RoomCount{RoomID: roomID, Count: n})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].RoomID < out[j].RoomID })
	return out, nil
}

// filter returns matching reservations ordered by start time, then id.
func (s *Store) filter(ctx context.Context, keep func(domain.Reservation) bool) ([]domain.Reservation, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.Reservation, 0)
	for _, r := range s.reservations {
		if keep(r) {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].StartTime.Equal(out[j].StartTime) {
			return out[i].StartTime.Before(out[j].StartTime)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// bookingTx reads committed state directly and stages its writes until
// commit. Reads inside the transaction do not observe staged writes.
type bookingTx struct {
	s      *Store
	staged []func() error
}

func (t *bookingTx) GetRoom(ctx context.Context, roomID int64) (domain.Room, error) {
	return t.s.GetRoom(ctx, roomID)
}

func (t *bookingTx) GetReservation(ctx context.Context, reservationID int64) (domain.Reservation, error) {
	return t.s.GetReservation(ctx, reservationID)
}

func (t *bookingTx) FindOverlaps(ctx context.Context, roomID int64, start, end time.Time, excludeID int64) ([]domain.Reservation, error) {
	return t.s.FindOverlaps(ctx, roomID, start, end, excludeID)
}

func (t *bookingTx) FindByRequestKey(ctx context.Context, key uuid.UUID) (domain.Reservation, error) {
	rows, err := t.s.filter(ctx, func(r domain.Reservation) bool {
		return r.RequestKey != nil && *r.RequestKey == key
	})
	if err != nil {
		return domain.Reservation{}, err
	}
	if len(rows) == 0 {
		return domain.Reservation{}, store.ErrNotFound
	}
	return rows[0], nil
}

func (t *bookingTx) InsertReservation(ctx context.Context, r domain.Reservation) (domain.Reservation, error) {
	if err := ctx.Err(); err != nil {
		return domain.Reservation{}, err
	}
	t.s.mu.Lock()
	t.s.nextReservationID++
	id := t.s.nextReservationID
	t.s.mu.Unlock()

	now := time.Now().UTC()
	m := r
	m.ID = id
	m.CreatedAt = now
	m.UpdatedAt = now

	t.staged = append(t.staged, func() error {
		if _, ok := t.s.rooms[m.RoomID]; !ok {
			return store.ErrNotFound
		}
		if m.RequestKey != nil {
			for _, existing := range t.s.reservations {
				if existing.RequestKey != nil && *existing.RequestKey == *m.RequestKey {
					return store.ErrIdempotencyConflict
				}
			}
		}
		t.s.reservations[m.ID] = m
		return nil
	})
	return m, nil
}

func (t *bookingTx) UpdateReservationTimes(ctx context.Context, reservationID int64, start, end time.Time) (domain.Reservation, error) {
	current, err := t.s.GetReservation(ctx, reservationID)
	if err != nil {
		return domain.Reservation{}, err
	}
	current.StartTime = start
	current.EndTime = end
	current.UpdatedAt = time.Now().UTC()

	t.staged = append(t.staged, func() error {
		if _, ok := t.s.reservations[reservationID]; !ok {
			return store.ErrNotFound
		}
		t.s.reservations[reservationID] = current
		return nil
	})
	return current, nil
}

func (t *bookingTx) DeleteReservation(ctx context.Context, reservationID int64) error {
	if _, err := t.s.GetReservation(ctx, reservationID); err != nil {
		return err
	}
	t.staged = append(t.staged, func() error {
		if _, ok := t.s.reservations[reservationID]; !ok {
			return store.ErrNotFound
		}
		delete(t.s.reservations, reservationID)
		return nil
	})
	return nil
}

// commit applies staged writes in order under the store lock.
func (t *bookingTx) commit() error {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	for _, apply := range t.staged {
		if err := apply(); err != nil {
			return err
		}
	}
	return nil
}
