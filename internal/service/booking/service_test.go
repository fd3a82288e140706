package booking

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"roombook/backend/internal/domain"
	"roombook/backend/internal/store"
)

var (
	admin = domain.Principal{ID: 1, Admin: true}
	alice = domain.Principal{ID: 10}
	bob   = domain.Principal{ID: 11}

	fixedNow = time.Date(2024, 12, 31, 9, 0, 0, 0, time.UTC)
)

func clock() time.Time { return fixedNow }

func ts(hour, minute int) time.Time {
	return time.Date(2025, 1, 1, hour, minute, 0, 0, time.UTC)
}

func owned(id, roomID, userID int64, start, end time.Time) domain.Reservation {
	return domain.Reservation{ID: id, RoomID: roomID, UserID: &userID, StartTime: start, EndTime: end}
}

func TestCreateRoom_RequiresAdmin(t *testing.T) {
	svc := NewService(&fakeRooms{}, &fakeReservations{})

	_, err := svc.CreateRoom(context.Background(), alice, CreateRoomInput{Name: "Alpha"})
	if !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("err = %v, want %v", err, domain.ErrForbidden)
	}
	_, err = svc.CreateRoom(context.Background(), domain.Principal{}, CreateRoomInput{Name: "Alpha"})
	if !errors.Is(err, domain.ErrUnauthenticated) {
		t.Fatalf("err = %v, want %v", err, domain.ErrUnauthenticated)
	}
}

func TestCreateRoom_ValidatesName(t *testing.T) {
	svc := NewService(&fakeRooms{}, &fakeReservations{})

	tests := []struct {
		name    string
		in      string
		wantMsg string
	}{
		{name: "empty", in: "", wantMsg: "name is required"},
		{name: "blank", in: "   ", wantMsg: "name is required"},
		{name: "too long", in: strings.Repeat("x", 101), wantMsg: "name must be at most 100 characters"},
		{name: "too many runes", in: strings.Repeat("я", 101), wantMsg: "name must be at most 100 characters"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.CreateRoom(context.Background(), admin, CreateRoomInput{Name: tt.in})
			var vErr *ValidationError
			if !errors.As(err, &vErr) {
				t.Fatalf("error type = %T, want *ValidationError", err)
			}
			if vErr.Error() != tt.wantMsg {
				t.Fatalf("error = %q, want %q", vErr.Error(), tt.wantMsg)
			}
		})
	}
}

func TestCreateRoom_AcceptsHundredRunes(t *testing.T) {
	var got domain.Room
	svc := NewService(&fakeRooms{
		nameTakenFn: func(ctx context.Context, name string, excludeRoomID int64) (bool, error) { return false, nil },
		createFn: func(ctx context.Context, room domain.Room) (domain.Room, error) {
			got = room
			room.ID = 1
			return room, nil
		},
	}, &fakeReservations{})

	name := strings.Repeat("я", 100)
	desc := "  "
	if _, err := svc.CreateRoom(context.Background(), admin, CreateRoomInput{Name: " " + name + " ", Description: &desc}); err != nil {
		t.Fatalf("CreateRoom error: %v", err)
	}
	if got.Name != name {
		t.Fatalf("name was not trimmed: %q", got.Name)
	}
	if got.Description != nil {
		t.Fatalf("blank description = %q, want nil", *got.Description)
	}
}

func TestCreateRoom_NameConflict(t *testing.T) {
	svc := NewService(&fakeRooms{
		nameTakenFn: func(ctx context.Context, name string, excludeRoomID int64) (bool, error) {
			return name == "Alpha", nil
		},
	}, &fakeReservations{})

	_, err := svc.CreateRoom(context.Background(), admin, CreateRoomInput{Name: "Alpha"})
	if !errors.Is(err, store.ErrNameConflict) {
		t.Fatalf("err = %v, want %v", err, store.ErrNameConflict)
	}
}

func TestUpdateRoom_ChecksNameOnlyWhenChanged(t *testing.T) {
	var checked []string
	rooms := &fakeRooms{
		getFn: func(ctx context.Context, roomID int64) (domain.Room, error) {
			return domain.Room{ID: roomID, Name: "Beta"}, nil
		},
		nameTakenFn: func(ctx context.Context, name string, excludeRoomID int64) (bool, error) {
			checked = append(checked, name)
			if excludeRoomID != 2 {
				t.Fatalf("excludeRoomID = %d, want 2", excludeRoomID)
			}
			return name == "Alpha", nil
		},
		updateFn: func(ctx context.Context, room domain.Room) (domain.Room, error) { return room, nil },
	}
	svc := NewService(rooms, &fakeReservations{})

	same := "Beta"
	desc := "third floor"
	room, err := svc.UpdateRoom(context.Background(), admin, 2, UpdateRoomInput{Name: &same, Description: &desc})
	if err != nil {
		t.Fatalf("UpdateRoom error: %v", err)
	}
	if len(checked) != 0 {
		t.Fatalf("uniqueness checked for unchanged name: %v", checked)
	}
	if room.Description == nil || *room.Description != "third floor" {
		t.Fatalf("description = %v, want %q", room.Description, "third floor")
	}

	taken := "Alpha"
	_, err = svc.UpdateRoom(context.Background(), admin, 2, UpdateRoomInput{Name: &taken})
	if !errors.Is(err, store.ErrNameConflict) {
		t.Fatalf("err = %v, want %v", err, store.ErrNameConflict)
	}
}

func TestUpdateRoom_NotFound(t *testing.T) {
	svc := NewService(&fakeRooms{
		getFn: func(ctx context.Context, roomID int64) (domain.Room, error) { return domain.Room{}, store.ErrNotFound },
	}, &fakeReservations{})

	name := "Alpha"
	_, err := svc.UpdateRoom(context.Background(), admin, 9, UpdateRoomInput{Name: &name})
	if !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("err = %v, want %v", err, store.ErrNotFound)
	}
	if err.Error() != "room 9 not found" {
		t.Fatalf("error = %q, want %q", err.Error(), "room 9 not found")
	}
}

func TestCreateReservation_ValidatesBeforeTouchingStore(t *testing.T) {
	svc := NewService(&fakeRooms{}, &fakeReservations{}, WithClock(clock))

	tests := []struct {
		name string
		in   CreateReservationInput
		want error
	}{
		{name: "reversed", in: CreateReservationInput{RoomID: 1, StartTime: ts(11, 0), EndTime: ts(10, 0)}, want: domain.ErrInvalidInterval},
		{name: "empty", in: CreateReservationInput{RoomID: 1, StartTime: ts(10, 0), EndTime: ts(10, 0)}, want: domain.ErrInvalidInterval},
		{name: "past", in: CreateReservationInput{RoomID: 1, StartTime: fixedNow.Add(-time.Minute), EndTime: ts(10, 0)}, want: domain.ErrPastStartTime},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.CreateReservation(context.Background(), alice, tt.in)
			var vErr *ValidationError
			if !errors.As(err, &vErr) {
				t.Fatalf("error type = %T, want *ValidationError", err)
			}
			if !errors.Is(err, tt.want) {
				t.Fatalf("err = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestCreateReservation_RequiresPrincipal(t *testing.T) {
	svc := NewService(&fakeRooms{}, &fakeReservations{}, WithClock(clock))
	_, err := svc.CreateReservation(context.Background(), domain.Principal{}, CreateReservationInput{RoomID: 1, StartTime: ts(10, 0), EndTime: ts(11, 0)})
	if !errors.Is(err, domain.ErrUnauthenticated) {
		t.Fatalf("err = %v, want %v", err, domain.ErrUnauthenticated)
	}
}

func TestCreateReservation_MissingRoom(t *testing.T) {
	reservations := &fakeReservations{tx: &fakeTx{
		getRoomFn: func(ctx context.Context, roomID int64) (domain.Room, error) { return domain.Room{}, store.ErrNotFound },
	}}
	svc := NewService(&fakeRooms{}, reservations, WithClock(clock))

	_, err := svc.CreateReservation(context.Background(), alice, CreateReservationInput{RoomID: 5, StartTime: ts(10, 0), EndTime: ts(11, 0)})
	if !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("err = %v, want %v", err, store.ErrNotFound)
	}
	if err.Error() != "room 5 not found" {
		t.Fatalf("error = %q, want %q", err.Error(), "room 5 not found")
	}
}

func TestCreateReservation_ReportsConflicts(t *testing.T) {
	existing := owned(3, 1, alice.ID, ts(10, 0), ts(11, 0))
	inserted := false
	reservations := &fakeReservations{tx: &fakeTx{
		getRoomFn: func(ctx context.Context, roomID int64) (domain.Room, error) { return domain.Room{ID: roomID}, nil },
		findOverlapsFn: func(ctx context.Context, roomID int64, start, end time.Time, excludeID int64) ([]domain.Reservation, error) {
			if excludeID != store.NoExclusion {
				t.Fatalf("excludeID = %d, want none", excludeID)
			}
			return []domain.Reservation{existing}, nil
		},
		insertFn: func(ctx context.Context, r domain.Reservation) (domain.Reservation, error) {
			inserted = true
			return r, nil
		},
	}}
	svc := NewService(&fakeRooms{}, reservations, WithClock(clock))

	_, err := svc.CreateReservation(context.Background(), bob, CreateReservationInput{RoomID: 1, StartTime: ts(10, 30), EndTime: ts(10, 45)})
	var overlapErr *store.OverlapError
	if !errors.As(err, &overlapErr) {
		t.Fatalf("error type = %T, want *store.OverlapError", err)
	}
	if len(overlapErr.Conflicts) != 1 || overlapErr.Conflicts[0].ID != 3 {
		t.Fatalf("conflicts = %+v, want reservation 3", overlapErr.Conflicts)
	}
	if inserted {
		t.Fatalf("reservation inserted despite overlap")
	}
	if len(reservations.lockedIDs) != 1 || reservations.lockedIDs[0] != 1 {
		t.Fatalf("locked rooms = %v, want [1]", reservations.lockedIDs)
	}
}

func TestCreateReservation_BackstopConflictIsDescribed(t *testing.T) {
	winner := owned(8, 1, alice.ID, ts(10, 0), ts(11, 0))
	reservations := &fakeReservations{
		tx: &fakeTx{
			getRoomFn: func(ctx context.Context, roomID int64) (domain.Room, error) { return domain.Room{ID: roomID}, nil },
			findOverlapsFn: func(ctx context.Context, roomID int64, start, end time.Time, excludeID int64) ([]domain.Reservation, error) {
				return nil, nil
			},
			insertFn: func(ctx context.Context, r domain.Reservation) (domain.Reservation, error) {
				return domain.Reservation{}, store.ErrConflict
			},
		},
		findOverlapsFn: func(ctx context.Context, roomID int64, start, end time.Time, excludeID int64) ([]domain.Reservation, error) {
			return []domain.Reservation{winner}, nil
		},
	}
	svc := NewService(&fakeRooms{}, reservations, WithClock(clock))

	_, err := svc.CreateReservation(context.Background(), bob, CreateReservationInput{RoomID: 1, StartTime: ts(10, 0), EndTime: ts(11, 0)})
	var overlapErr *store.OverlapError
	if !errors.As(err, &overlapErr) {
		t.Fatalf("error type = %T, want *store.OverlapError", err)
	}
	if len(overlapErr.Conflicts) != 1 || overlapErr.Conflicts[0].ID != winner.ID {
		t.Fatalf("conflicts = %+v, want reservation %d", overlapErr.Conflicts, winner.ID)
	}
}

func TestCreateReservation_StampsOwnerAndUTC(t *testing.T) {
	loc := time.FixedZone("UTC+3", 3*60*60)
	var got domain.Reservation
	reservations := &fakeReservations{tx: &fakeTx{
		getRoomFn: func(ctx context.Context, roomID int64) (domain.Room, error) { return domain.Room{ID: roomID}, nil },
		findOverlapsFn: func(ctx context.Context, roomID int64, start, end time.Time, excludeID int64) ([]domain.Reservation, error) {
			return nil, nil
		},
		insertFn: func(ctx context.Context, r domain.Reservation) (domain.Reservation, error) {
			got = r
			r.ID = 1
			return r, nil
		},
	}}
	svc := NewService(&fakeRooms{}, reservations, WithClock(clock))

	_, err := svc.CreateReservation(context.Background(), alice, CreateReservationInput{
		RoomID:    1,
		StartTime: time.Date(2025, 1, 1, 13, 0, 0, 0, loc),
		EndTime:   time.Date(2025, 1, 1, 14, 0, 0, 0, loc),
	})
	if err != nil {
		t.Fatalf("CreateReservation error: %v", err)
	}
	if got.UserID == nil || *got.UserID != alice.ID {
		t.Fatalf("user_id = %v, want %d", got.UserID, alice.ID)
	}
	if got.StartTime.Location() != time.UTC || !got.StartTime.Equal(ts(10, 0)) {
		t.Fatalf("start_time = %v, want %v", got.StartTime, ts(10, 0))
	}
	if got.RequestKey != nil {
		t.Fatalf("request_key set without idempotency key")
	}
}

func TestCreateReservation_IdempotencyKey(t *testing.T) {
	var stored *domain.Reservation
	tx := &fakeTx{
		getRoomFn: func(ctx context.Context, roomID int64) (domain.Room, error) { return domain.Room{ID: roomID}, nil },
		findByKeyFn: func(ctx context.Context, key uuid.UUID) (domain.Reservation, error) {
			if stored == nil || *stored.RequestKey != key {
				return domain.Reservation{}, store.ErrNotFound
			}
			return *stored, nil
		},
		findOverlapsFn: func(ctx context.Context, roomID int64, start, end time.Time, excludeID int64) ([]domain.Reservation, error) {
			return nil, nil
		},
		insertFn: func(ctx context.Context, r domain.Reservation) (domain.Reservation, error) {
			if r.RequestKey == nil {
				t.Fatalf("expected request key")
			}
			r.ID = 77
			stored = &r
			return r, nil
		},
	}
	svc := NewService(&fakeRooms{}, &fakeReservations{tx: tx}, WithClock(clock))

	in := CreateReservationInput{RoomID: 1, StartTime: ts(10, 0), EndTime: ts(11, 0), IdempotencyKey: " k1 "}
	first, err := svc.CreateReservation(context.Background(), alice, in)
	if err != nil {
		t.Fatalf("CreateReservation error: %v", err)
	}
	again, err := svc.CreateReservation(context.Background(), alice, in)
	if err != nil {
		t.Fatalf("replayed CreateReservation error: %v", err)
	}
	if again.ID != first.ID {
		t.Fatalf("replay id = %d, want %d", again.ID, first.ID)
	}

	in.EndTime = ts(12, 0)
	_, err = svc.CreateReservation(context.Background(), alice, in)
	if !errors.Is(err, store.ErrIdempotencyConflict) {
		t.Fatalf("err = %v, want %v", err, store.ErrIdempotencyConflict)
	}

	in.IdempotencyKey = strings.Repeat("k", maxIdempotencyKeyLength+1)
	_, err = svc.CreateReservation(context.Background(), alice, in)
	var vErr *ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("error type = %T, want *ValidationError", err)
	}
}

func TestCreateReservation_ReplayMatchesAtStoredPrecision(t *testing.T) {
	var stored *domain.Reservation
	tx := &fakeTx{
		getRoomFn: func(ctx context.Context, roomID int64) (domain.Room, error) { return domain.Room{ID: roomID}, nil },
		findByKeyFn: func(ctx context.Context, key uuid.UUID) (domain.Reservation, error) {
			if stored == nil {
				return domain.Reservation{}, store.ErrNotFound
			}
			return *stored, nil
		},
		findOverlapsFn: func(ctx context.Context, roomID int64, start, end time.Time, excludeID int64) ([]domain.Reservation, error) {
			return nil, nil
		},
		insertFn: func(ctx context.Context, r domain.Reservation) (domain.Reservation, error) {
			r.ID = 78
			// TIMESTAMPTZ keeps microseconds.
			r.StartTime = r.StartTime.Truncate(time.Microsecond)
			r.EndTime = r.EndTime.Truncate(time.Microsecond)
			stored = &r
			return r, nil
		},
	}
	svc := NewService(&fakeRooms{}, &fakeReservations{tx: tx}, WithClock(clock))

	in := CreateReservationInput{
		RoomID:         1,
		StartTime:      ts(10, 0).Add(500 * time.Nanosecond),
		EndTime:        ts(11, 0).Add(1500 * time.Nanosecond),
		IdempotencyKey: "k-nano",
	}
	first, err := svc.CreateReservation(context.Background(), alice, in)
	if err != nil {
		t.Fatalf("CreateReservation error: %v", err)
	}
	if !first.StartTime.Equal(ts(10, 0)) || !first.EndTime.Equal(ts(11, 0).Add(time.Microsecond)) {
		t.Fatalf("stored interval = [%v, %v), want microsecond precision", first.StartTime, first.EndTime)
	}

	again, err := svc.CreateReservation(context.Background(), alice, in)
	if err != nil {
		t.Fatalf("replayed CreateReservation error: %v", err)
	}
	if again.ID != first.ID {
		t.Fatalf("replay id = %d, want %d", again.ID, first.ID)
	}
}

func TestCreateReservation_ReplayAfterStart(t *testing.T) {
	original := owned(90, 1, alice.ID, ts(10, 0), ts(11, 0))
	tx := &fakeTx{
		getRoomFn: func(ctx context.Context, roomID int64) (domain.Room, error) { return domain.Room{ID: roomID}, nil },
		findByKeyFn: func(ctx context.Context, key uuid.UUID) (domain.Reservation, error) {
			want := uuid.NewSHA1(uuid.NameSpaceOID, []byte("roombook:create_reservation:10:k-late"))
			if key != want {
				return domain.Reservation{}, store.ErrNotFound
			}
			r := original
			r.RequestKey = &want
			return r, nil
		},
	}
	later := func() time.Time { return ts(10, 30) }
	svc := NewService(&fakeRooms{}, &fakeReservations{tx: tx}, WithClock(later))

	in := CreateReservationInput{RoomID: 1, StartTime: ts(10, 0), EndTime: ts(11, 0), IdempotencyKey: "k-late"}
	got, err := svc.CreateReservation(context.Background(), alice, in)
	if err != nil {
		t.Fatalf("replayed CreateReservation error: %v", err)
	}
	if got.ID != original.ID {
		t.Fatalf("replay id = %d, want %d", got.ID, original.ID)
	}

	in.IdempotencyKey = "k-fresh"
	_, err = svc.CreateReservation(context.Background(), alice, in)
	if !errors.Is(err, domain.ErrPastStartTime) {
		t.Fatalf("err = %v, want %v", err, domain.ErrPastStartTime)
	}
}

func TestNonPositiveIDsAreNotFound(t *testing.T) {
	svc := NewService(&fakeRooms{}, &fakeReservations{}, WithClock(clock))
	ctx := context.Background()
	newEnd := ts(12, 0)

	tests := []struct {
		name string
		call func() error
	}{
		{name: "get room", call: func() error { _, err := svc.GetRoom(ctx, 0); return err }},
		{name: "update room", call: func() error { _, err := svc.UpdateRoom(ctx, admin, -1, UpdateRoomInput{}); return err }},
		{name: "delete room", call: func() error { _, err := svc.DeleteRoom(ctx, admin, 0); return err }},
		{name: "busy periods", call: func() error { _, err := svc.ListBusyPeriods(ctx, 0); return err }},
		{name: "get reservation", call: func() error { _, err := svc.GetReservation(ctx, 0); return err }},
		{name: "update reservation", call: func() error {
			_, err := svc.UpdateReservation(ctx, alice, 0, UpdateReservationInput{EndTime: &newEnd})
			return err
		}},
		{name: "delete reservation", call: func() error { _, err := svc.DeleteReservation(ctx, alice, -3); return err }},
		{name: "create in room", call: func() error {
			_, err := svc.CreateReservation(ctx, alice, CreateReservationInput{StartTime: ts(10, 0), EndTime: ts(11, 0)})
			return err
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.call(); !errors.Is(err, store.ErrNotFound) {
				t.Fatalf("err = %v, want %v", err, store.ErrNotFound)
			}
		})
	}
}

func TestUpdateReservation_ExcludesItselfAndKeepsUnsetBound(t *testing.T) {
	current := owned(4, 1, alice.ID, ts(10, 0), ts(11, 0))
	var gotExclude int64
	var gotStart, gotEnd time.Time
	reservations := &fakeReservations{
		getFn: func(ctx context.Context, reservationID int64) (domain.Reservation, error) { return current, nil },
		tx: &fakeTx{
			getReservationFn: func(ctx context.Context, reservationID int64) (domain.Reservation, error) { return current, nil },
			findOverlapsFn: func(ctx context.Context, roomID int64, start, end time.Time, excludeID int64) ([]domain.Reservation, error) {
				gotExclude = excludeID
				return nil, nil
			},
			updateTimesFn: func(ctx context.Context, reservationID int64, start, end time.Time) (domain.Reservation, error) {
				gotStart, gotEnd = start, end
				out := current
				out.StartTime, out.EndTime = start, end
				return out, nil
			},
		},
	}
	svc := NewService(&fakeRooms{}, reservations, WithClock(clock))

	newEnd := ts(11, 30)
	updated, err := svc.UpdateReservation(context.Background(), alice, 4, UpdateReservationInput{EndTime: &newEnd})
	if err != nil {
		t.Fatalf("UpdateReservation error: %v", err)
	}
	if gotExclude != 4 {
		t.Fatalf("excludeID = %d, want 4", gotExclude)
	}
	if !gotStart.Equal(ts(10, 0)) || !gotEnd.Equal(newEnd) {
		t.Fatalf("written interval = [%v, %v), want [%v, %v)", gotStart, gotEnd, ts(10, 0), newEnd)
	}
	if !updated.EndTime.Equal(newEnd) {
		t.Fatalf("returned end_time = %v, want %v", updated.EndTime, newEnd)
	}
}

func TestUpdateReservation_AllowsPastStart(t *testing.T) {
	current := owned(4, 1, alice.ID, fixedNow.Add(-2*time.Hour), fixedNow.Add(-time.Hour))
	reservations := &fakeReservations{
		getFn: func(ctx context.Context, reservationID int64) (domain.Reservation, error) { return current, nil },
		tx: &fakeTx{
			getReservationFn: func(ctx context.Context, reservationID int64) (domain.Reservation, error) { return current, nil },
			findOverlapsFn: func(ctx context.Context, roomID int64, start, end time.Time, excludeID int64) ([]domain.Reservation, error) {
				return nil, nil
			},
			updateTimesFn: func(ctx context.Context, reservationID int64, start, end time.Time) (domain.Reservation, error) {
				return current, nil
			},
		},
	}
	svc := NewService(&fakeRooms{}, reservations, WithClock(clock))

	end := fixedNow.Add(-30 * time.Minute)
	if _, err := svc.UpdateReservation(context.Background(), alice, 4, UpdateReservationInput{EndTime: &end}); err != nil {
		t.Fatalf("UpdateReservation error: %v", err)
	}
}

func TestUpdateReservation_Errors(t *testing.T) {
	current := owned(4, 1, alice.ID, ts(10, 0), ts(11, 0))
	reservations := &fakeReservations{
		getFn: func(ctx context.Context, reservationID int64) (domain.Reservation, error) {
			if reservationID == 4 {
				return current, nil
			}
			return domain.Reservation{}, store.ErrNotFound
		},
	}
	svc := NewService(&fakeRooms{}, reservations, WithClock(clock))
	start := ts(12, 0)

	_, err := svc.UpdateReservation(context.Background(), bob, 4, UpdateReservationInput{StartTime: &start})
	if !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("non-owner err = %v, want %v", err, domain.ErrForbidden)
	}

	_, err = svc.UpdateReservation(context.Background(), alice, 4, UpdateReservationInput{StartTime: &start})
	if !errors.Is(err, domain.ErrInvalidInterval) {
		t.Fatalf("reversed err = %v, want %v", err, domain.ErrInvalidInterval)
	}

	_, err = svc.UpdateReservation(context.Background(), alice, 99, UpdateReservationInput{StartTime: &start})
	if !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("missing err = %v, want %v", err, store.ErrNotFound)
	}

	_, err = svc.UpdateReservation(context.Background(), alice, 4, UpdateReservationInput{})
	var vErr *ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("empty patch error type = %T, want *ValidationError", err)
	}
}

func TestDeleteReservation_OwnerOrAdmin(t *testing.T) {
	current := owned(4, 1, alice.ID, ts(10, 0), ts(11, 0))
	deleted := 0
	reservations := &fakeReservations{
		getFn: func(ctx context.Context, reservationID int64) (domain.Reservation, error) { return current, nil },
		tx: &fakeTx{
			getReservationFn: func(ctx context.Context, reservationID int64) (domain.Reservation, error) { return current, nil },
			deleteFn: func(ctx context.Context, reservationID int64) error {
				deleted++
				return nil
			},
		},
	}
	svc := NewService(&fakeRooms{}, reservations, WithClock(clock))

	if _, err := svc.DeleteReservation(context.Background(), bob, 4); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("non-owner err = %v, want %v", err, domain.ErrForbidden)
	}
	if deleted != 0 {
		t.Fatalf("delete reached the store for a non-owner")
	}

	for _, p := range []domain.Principal{alice, admin} {
		got, err := svc.DeleteReservation(context.Background(), p, 4)
		if err != nil {
			t.Fatalf("DeleteReservation(%+v) error: %v", p, err)
		}
		if got.ID != 4 {
			t.Fatalf("deleted id = %d, want 4", got.ID)
		}
	}
	if deleted != 2 {
		t.Fatalf("deletes = %d, want 2", deleted)
	}
}

func TestListAllReservations_AdminOnly(t *testing.T) {
	svc := NewService(&fakeRooms{}, &fakeReservations{
		listAllFn: func(ctx context.Context) ([]domain.Reservation, error) { return nil, nil },
	})

	if _, err := svc.ListAllReservations(context.Background(), alice); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("err = %v, want %v", err, domain.ErrForbidden)
	}
	if _, err := svc.ListAllReservations(context.Background(), admin); err != nil {
		t.Fatalf("ListAllReservations error: %v", err)
	}
}

func TestListBusyPeriods_UsesClockAndChecksRoom(t *testing.T) {
	var gotNow time.Time
	svc := NewService(&fakeRooms{
		getFn: func(ctx context.Context, roomID int64) (domain.Room, error) {
			if roomID != 1 {
				return domain.Room{}, store.ErrNotFound
			}
			return domain.Room{ID: 1}, nil
		},
	}, &fakeReservations{
		upcomingFn: func(ctx context.Context, roomID int64, now time.Time) ([]domain.Reservation, error) {
			gotNow = now
			return nil, nil
		},
	}, WithClock(clock))

	if _, err := svc.ListBusyPeriods(context.Background(), 1); err != nil {
		t.Fatalf("ListBusyPeriods error: %v", err)
	}
	if !gotNow.Equal(fixedNow) {
		t.Fatalf("now = %v, want %v", gotNow, fixedNow)
	}
	if _, err := svc.ListBusyPeriods(context.Background(), 2); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("err = %v, want %v", err, store.ErrNotFound)
	}
}

type recordingExporter struct {
	reports []domain.WindowReport
	err     error
}

func (e *recordingExporter) Export(ctx context.Context, report domain.WindowReport) error {
	e.reports = append(e.reports, report)
	return e.err
}

func TestCountInWindow_SortsAndGuards(t *testing.T) {
	svc := NewService(&fakeRooms{}, &fakeReservations{
		countFn: func(ctx context.Context, start, end time.Time) ([]domain.RoomCount, error) {
			return []domain.RoomCount{{RoomID: 3, Count: 1}, {RoomID: 1, Count: 4}}, nil
		},
	})

	if _, err := svc.CountInWindow(context.Background(), alice, ts(0, 0), ts(23, 0)); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("err = %v, want %v", err, domain.ErrForbidden)
	}
	if _, err := svc.CountInWindow(context.Background(), admin, ts(10, 0), ts(10, 0)); !errors.Is(err, domain.ErrInvalidInterval) {
		t.Fatalf("err = %v, want %v", err, domain.ErrInvalidInterval)
	}

	rows, err := svc.CountInWindow(context.Background(), admin, ts(0, 0), ts(23, 0))
	if err != nil {
		t.Fatalf("CountInWindow error: %v", err)
	}
	if len(rows) != 2 || rows[0].RoomID != 1 || rows[1].RoomID != 3 {
		t.Fatalf("rows = %+v, want ordered by room id", rows)
	}
}

func TestExportWindow(t *testing.T) {
	exporter := &recordingExporter{}
	svc := NewService(&fakeRooms{}, &fakeReservations{
		countFn: func(ctx context.Context, start, end time.Time) ([]domain.RoomCount, error) {
			return []domain.RoomCount{{RoomID: 1, Count: 2}}, nil
		},
	}, WithClock(clock), WithExporter(exporter))

	report, err := svc.ExportWindow(context.Background(), admin, ts(0, 0), ts(23, 0), " sheet-1 ")
	if err != nil {
		t.Fatalf("ExportWindow error: %v", err)
	}
	if report.ID == uuid.Nil {
		t.Fatalf("expected report id")
	}
	if report.Target != "sheet-1" || !report.GeneratedAt.Equal(fixedNow) {
		t.Fatalf("report = %+v", report)
	}
	if len(exporter.reports) != 1 || exporter.reports[0].ID != report.ID {
		t.Fatalf("exported = %+v, want the returned report", exporter.reports)
	}

	exporter.err = errors.New("broker down")
	if _, err := svc.ExportWindow(context.Background(), admin, ts(0, 0), ts(23, 0), ""); err == nil {
		t.Fatalf("expected exporter error")
	}

	bare := NewService(&fakeRooms{}, &fakeReservations{
		countFn: func(ctx context.Context, start, end time.Time) ([]domain.RoomCount, error) { return nil, nil },
	})
	if _, err := bare.ExportWindow(context.Background(), admin, ts(0, 0), ts(23, 0), ""); !errors.Is(err, domain.ErrUnavailable) {
		t.Fatalf("err = %v, want %v", err, domain.ErrUnavailable)
	}
}

func TestExportWindow_FallsBackToDefaultTarget(t *testing.T) {
	exporter := &recordingExporter{}
	svc := NewService(&fakeRooms{}, &fakeReservations{
		countFn: func(ctx context.Context, start, end time.Time) ([]domain.RoomCount, error) { return nil, nil },
	}, WithClock(clock), WithExporter(exporter), WithDefaultTarget(" sheet-default "))

	report, err := svc.ExportWindow(context.Background(), admin, ts(0, 0), ts(23, 0), "  ")
	if err != nil {
		t.Fatalf("ExportWindow error: %v", err)
	}
	if report.Target != "sheet-default" {
		t.Fatalf("target = %q, want %q", report.Target, "sheet-default")
	}

	report, err = svc.ExportWindow(context.Background(), admin, ts(0, 0), ts(23, 0), "sheet-2")
	if err != nil {
		t.Fatalf("ExportWindow error: %v", err)
	}
	if report.Target != "sheet-2" {
		t.Fatalf("target = %q, want %q", report.Target, "sheet-2")
	}
	if len(exporter.reports) != 2 || exporter.reports[0].Target != "sheet-default" {
		t.Fatalf("exported = %+v", exporter.reports)
	}
}
