package domain

import (
	"time"

	"github.com/google/uuid"
)

const (
	MinRoomUsers = 1
	MaxRoomUsers = 100
)

// Room is a password-gated, capacity-bounded chat channel.
// PasswordHash never leaves the service; API responses drop it.
type Room struct {
	ID           uuid.UUID
	Name         string
	PasswordHash string
	OwnerID      uuid.UUID
	OwnerLabel   string
	MaxUsers     int
	CreatedAt    time.Time
}

// NewRoom constructs a room owned by owner with a generated identifier.
func NewRoom(name, passwordHash string, maxUsers int, owner Identity) *Room {
	return &Room{
		ID:           uuid.New(),
		Name:         name,
		PasswordHash: passwordHash,
		OwnerID:      owner.ID,
		OwnerLabel:   owner.Label(),
		MaxUsers:     maxUsers,
		CreatedAt:    time.Now().UTC(),
	}
}

// ValidMaxUsers reports whether n is an allowed room capacity.
func ValidMaxUsers(n int) bool {
	return n >= MinRoomUsers && n <= MaxRoomUsers
}

// IsOwnedBy reports whether userID owns the room.
func (r *Room) IsOwnedBy(userID uuid.UUID) bool {
	return r != nil && r.OwnerID == userID
}

// Clone returns a copy that can be handed out without sharing memory with the catalog.
func (r *Room) Clone() *Room {
	if r == nil {
		return nil
	}
	c := *r
	return &c
}
