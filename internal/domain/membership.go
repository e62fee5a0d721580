package domain

import (
	"time"

	"github.com/google/uuid"
)

// Membership records that a user may read and write a room without
// presenting its password again. Unique per (RoomID, UserID).
type Membership struct {
	RoomID   uuid.UUID
	UserID   uuid.UUID
	JoinedAt time.Time
}

func NewMembership(roomID, userID uuid.UUID) *Membership {
	return &Membership{
		RoomID:   roomID,
		UserID:   userID,
		JoinedAt: time.Now().UTC(),
	}
}
