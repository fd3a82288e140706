package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

type Reservation struct {
	bun.BaseModel `bun:"table:reservations"`

	ID         int64      `bun:"id,pk,autoincrement"`
	RoomID     int64      `bun:"room_id,notnull"`
	UserID     *int64     `bun:"user_id"`
	StartTime  time.Time  `bun:"start_time,notnull"`
	EndTime    time.Time  `bun:"end_time,notnull"`
	RequestKey *uuid.UUID `bun:"request_key,type:uuid"`
	CreatedAt  time.Time  `bun:"created_at,notnull"`
	UpdatedAt  time.Time  `bun:"updated_at,notnull"`
}

func (r *Reservation) BeforeAppendModel(ctx context.Context, query bun.Query) error {
	now := time.Now().UTC()
	switch query.(type) {
	case *bun.InsertQuery:
		if r.CreatedAt.IsZero() {
			r.CreatedAt = now
		}
		if r.UpdatedAt.IsZero() {
			r.UpdatedAt = now
		}
	case *bun.UpdateQuery:
		r.UpdatedAt = now
	}
	return nil
}

// OwnedBy reports whether userID created the reservation. Reservations
// without an owner belong to nobody.
func (r Reservation) OwnedBy(userID int64) bool {
	return r.UserID != nil && *r.UserID == userID
}

func (r Reservation) Overlaps(start, end time.Time) bool {
	return Overlaps(r.StartTime, r.EndTime, start, end)
}
