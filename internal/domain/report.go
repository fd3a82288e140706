package domain

import (
	"time"

	"github.com/google/uuid"
)

// RoomCount is one row of a window report.
type RoomCount struct {
	RoomID int64 `bun:"room_id" json:"room_id"`
	Count  int   `bun:"count" json:"count"`
}

type WindowReport struct {
	ID          uuid.UUID   `json:"id"`
	GeneratedAt time.Time   `json:"generated_at"`
	WindowStart time.Time   `json:"window_start"`
	WindowEnd   time.Time   `json:"window_end"`
	Target      string      `json:"target,omitempty"`
	Rows        []RoomCount `json:"rows"`
}
