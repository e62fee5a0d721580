package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"
	"github.com/immxrtalbeast/axenix_chat/internal/domain"
	"github.com/immxrtalbeast/axenix_chat/internal/repository"
	"github.com/immxrtalbeast/axenix_chat/lib/logger/sl"
)

type JoinOutcome int

const (
	JoinedRoom JoinOutcome = iota + 1
	AlreadyMember
)

func (o JoinOutcome) String() string {
	switch o {
	case JoinedRoom:
		return "joined"
	case AlreadyMember:
		return "already_member"
	default:
		return "unknown"
	}
}

// AccessService admits users to rooms. The membership ledger is the only
// thing it writes.
type AccessService struct {
	rooms   repository.RoomRepository
	members repository.MembershipRepository
	hasher  PasswordHasher
	log     *slog.Logger
}

func NewAccessService(
	rooms repository.RoomRepository,
	members repository.MembershipRepository,
	hasher PasswordHasher,
	log *slog.Logger,
) *AccessService {
	return &AccessService{
		rooms:   rooms,
		members: members,
		hasher:  hasher,
		log:     log,
	}
}

func (s *AccessService) JoinByID(ctx context.Context, roomID uuid.UUID, password string, user domain.Identity) (JoinOutcome, error) {
	room, err := s.rooms.GetByID(ctx, roomID)
	if err != nil {
		return 0, remote("service.access.join", err)
	}
	return s.Join(ctx, room, password, user)
}

// Join checks the password, then the ledger, then capacity.
//
// The member count and the insert are two separate store calls. Two users
// joining a nearly full room at the same time can both pass the count and
// leave the room above MaxUsers.
func (s *AccessService) Join(ctx context.Context, room *domain.Room, password string, user domain.Identity) (JoinOutcome, error) {
	const op = "service.access.join"
	log := s.log.With(
		slog.String("op", op),
		slog.String("room_id", room.ID.String()),
		slog.String("user_id", user.ID.String()),
	)

	if password == "" || !s.hasher.Verify(password, room.PasswordHash) {
		log.Info("join rejected: incorrect password")
		return 0, ErrIncorrectPassword
	}

	member, err := s.members.Exists(ctx, room.ID, user.ID)
	if err != nil {
		log.Error("failed to check membership", sl.Err(err))
		return 0, remote(op, err)
	}
	if member {
		return AlreadyMember, nil
	}

	count, err := s.members.Count(ctx, room.ID)
	if err != nil {
		log.Error("failed to count members", sl.Err(err))
		return 0, remote(op, err)
	}
	if count >= room.MaxUsers {
		log.Info("join rejected: room full", slog.Int("members", count), slog.Int("max_users", room.MaxUsers))
		return 0, ErrRoomFull
	}

	if err := s.members.Create(ctx, domain.NewMembership(room.ID, user.ID)); err != nil {
		// the same user joining twice at once
		if errors.Is(err, repository.ErrMembershipExists) {
			return AlreadyMember, nil
		}
		log.Error("failed to create membership", sl.Err(err))
		return 0, remote(op, err)
	}

	log.Info("user joined room")
	return JoinedRoom, nil
}

func (s *AccessService) IsMember(ctx context.Context, roomID, userID uuid.UUID) (bool, error) {
	ok, err := s.members.Exists(ctx, roomID, userID)
	if err != nil {
		return false, remote("service.access.is_member", err)
	}
	return ok, nil
}

// RequireMember returns ErrNotMember unless userID holds a membership.
func (s *AccessService) RequireMember(ctx context.Context, roomID, userID uuid.UUID) error {
	ok, err := s.IsMember(ctx, roomID, userID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotMember
	}
	return nil
}

func (s *AccessService) Members(ctx context.Context, roomID uuid.UUID) ([]*domain.Membership, error) {
	if _, err := s.rooms.GetByID(ctx, roomID); err != nil {
		return nil, remote("service.access.members", err)
	}
	members, err := s.members.ListByRoom(ctx, roomID)
	if err != nil {
		return nil, remote("service.access.members", err)
	}
	return members, nil
}
