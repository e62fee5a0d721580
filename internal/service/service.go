package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/immxrtalbeast/axenix_chat/internal/domain"
)

type PasswordHasher interface {
	Hash(secret string) (string, error)
	Verify(secret, hash string) bool
}

type TokenIssuer interface {
	Issue(id domain.Identity) (string, error)
}

type RoomInteractor interface {
	List(ctx context.Context, session domain.Identity) ([]*domain.Room, error)
	Search(ctx context.Context, session domain.Identity, query string) ([]*domain.Room, error)
	Create(ctx context.Context, owner domain.Identity, in CreateRoomInput) (*domain.Room, error)
	Refresh(ctx context.Context) error
}

type AccessInteractor interface {
	JoinByID(ctx context.Context, roomID uuid.UUID, password string, user domain.Identity) (JoinOutcome, error)
	RequireMember(ctx context.Context, roomID, userID uuid.UUID) error
	Members(ctx context.Context, roomID uuid.UUID) ([]*domain.Membership, error)
}

type MessageInteractor interface {
	Post(ctx context.Context, roomID uuid.UUID, author domain.Identity, text string) (*domain.Message, error)
	PostImage(ctx context.Context, roomID uuid.UUID, author domain.Identity, file ImageFile) (*domain.Message, error)
	History(ctx context.Context, roomID uuid.UUID) ([]*domain.Message, error)
}

type LifecycleInteractor interface {
	UpdateSettings(ctx context.Context, actor domain.Identity, roomID uuid.UUID, settings RoomSettings) (*domain.Room, error)
	DeleteRoom(ctx context.Context, actor domain.Identity, roomID uuid.UUID, confirmation string) error
}

type UserInteractor interface {
	Register(ctx context.Context, name, email, password string) (*domain.User, error)
	Login(ctx context.Context, email, password string) (string, *domain.User, error)
	GetUser(ctx context.Context, id uuid.UUID) (*domain.User, error)
	UpdateEmail(ctx context.Context, id uuid.UUID, email string) (*domain.User, error)
	UpdatePassword(ctx context.Context, id uuid.UUID, password string) error
}
