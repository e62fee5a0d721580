package converter

import (
	"time"

	"github.com/google/uuid"
	"github.com/immxrtalbeast/axenix_chat/internal/domain"
)

type RoomResponse struct {
	ID         uuid.UUID `json:"id"`
	Name       string    `json:"name"`
	OwnerID    uuid.UUID `json:"owner_id"`
	OwnerEmail string    `json:"owner_email"`
	MaxUsers   int       `json:"max_users"`
	CreatedAt  time.Time `json:"created_at"`
}

type MemberResponse struct {
	UserID   uuid.UUID `json:"user_id"`
	JoinedAt time.Time `json:"joined_at"`
}

func RoomToApi(r *domain.Room) *RoomResponse {
	return &RoomResponse{
		ID:         r.ID,
		Name:       r.Name,
		OwnerID:    r.OwnerID,
		OwnerEmail: r.OwnerLabel,
		MaxUsers:   r.MaxUsers,
		CreatedAt:  r.CreatedAt,
	}
}

func RoomsToApi(rooms []*domain.Room) []*RoomResponse {
	out := make([]*RoomResponse, 0, len(rooms))
	for _, r := range rooms {
		out = append(out, RoomToApi(r))
	}
	return out
}

func MembersToApi(members []*domain.Membership) []MemberResponse {
	out := make([]MemberResponse, 0, len(members))
	for _, m := range members {
		out = append(out, MemberResponse{UserID: m.UserID, JoinedAt: m.JoinedAt})
	}
	return out
}
