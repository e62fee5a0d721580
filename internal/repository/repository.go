package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/immxrtalbeast/axenix_chat/internal/domain"
)

type RoomRepository interface {
	Create(ctx context.Context, room *domain.Room) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Room, error)
	Update(ctx context.Context, room *domain.Room) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context) ([]*domain.Room, error)
}

// MembershipRepository is the room_members ledger. Create returns
// ErrMembershipExists for a duplicate (room, user) pair.
type MembershipRepository interface {
	Create(ctx context.Context, membership *domain.Membership) error
	Exists(ctx context.Context, roomID, userID uuid.UUID) (bool, error)
	Count(ctx context.Context, roomID uuid.UUID) (int, error)
	ListByRoom(ctx context.Context, roomID uuid.UUID) ([]*domain.Membership, error)
	DeleteByRoom(ctx context.Context, roomID uuid.UUID) error
}

// MessageRepository stores the append-only message log. ListByRoom
// returns messages ordered by creation time, then id.
type MessageRepository interface {
	Create(ctx context.Context, message *domain.Message) error
	ListByRoom(ctx context.Context, roomID uuid.UUID) ([]*domain.Message, error)
	DeleteByRoom(ctx context.Context, roomID uuid.UUID) error
}

type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	Update(ctx context.Context, user *domain.User) error
}
