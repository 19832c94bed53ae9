package models

import (
	"time"

	"github.com/lib/pq"
)

// ChatRoom is the canonical room record owned by the persistence layer.
// The hub only tracks live membership; this row is consulted for the
// group flag and for history catch-up.
type ChatRoom struct {
	// RoomID is the unique identifier for the chat room (UUID).
	RoomID string `gorm:"primaryKey" json:"room_id"`
	// Name is the display name; empty for direct (1:1) rooms.
	Name string `json:"name"`
	// IsGroup distinguishes group rooms from direct pairings.
	IsGroup bool `json:"is_group"`
	// UserIDs lists the ids of users who belong to the room.
	UserIDs pq.StringArray `gorm:"type:text[]" json:"user_ids"`
	// IsActive indicates whether the room is open for traffic.
	IsActive bool `json:"is_active"`
	// CreatedAt is the timestamp when the room was provisioned.
	CreatedAt time.Time `json:"created_at"`
	// ClosedAt is the timestamp when the room was closed.
	ClosedAt time.Time `json:"closed_at"`
}
