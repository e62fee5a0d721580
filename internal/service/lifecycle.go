package service

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
	"github.com/immxrtalbeast/axenix_chat/internal/domain"
	"github.com/immxrtalbeast/axenix_chat/internal/repository"
	"github.com/immxrtalbeast/axenix_chat/lib/logger/sl"
)

// DeleteConfirmation must be typed back to delete a room.
const DeleteConfirmation = "DELETE"

// Names of the DeleteRoom steps, in the order they run.
const (
	StepDeleteMessages    = "delete messages"
	StepDeleteMemberships = "delete memberships"
	StepDeleteRoom        = "delete room"
)

type catalogRefresher interface {
	Refresh(ctx context.Context) error
}

// LifecycleService lets a room's owner change or remove it.
type LifecycleService struct {
	rooms     repository.RoomRepository
	members   repository.MembershipRepository
	messages  repository.MessageRepository
	hasher    PasswordHasher
	directory catalogRefresher
	log       *slog.Logger
}

func NewLifecycleService(
	rooms repository.RoomRepository,
	members repository.MembershipRepository,
	messages repository.MessageRepository,
	hasher PasswordHasher,
	directory catalogRefresher,
	log *slog.Logger,
) *LifecycleService {
	return &LifecycleService{
		rooms:     rooms,
		members:   members,
		messages:  messages,
		hasher:    hasher,
		directory: directory,
		log:       log,
	}
}

func (s *LifecycleService) UpdateSettings(ctx context.Context, actor domain.Identity, roomID uuid.UUID, settings RoomSettings) (*domain.Room, error) {
	const op = "service.lifecycle.update_settings"
	log := s.log.With(
		slog.String("op", op),
		slog.String("room_id", roomID.String()),
		slog.String("actor_id", actor.ID.String()),
	)

	if err := validateStruct(settings, fieldErrors{"MaxUsers": ErrInvalidMaxUsers}, ErrValidation); err != nil {
		return nil, err
	}
	if err := checkPasswordLength(settings.Password); err != nil {
		return nil, err
	}

	room, err := s.ownedRoom(ctx, op, actor, roomID)
	if err != nil {
		return nil, err
	}

	room.MaxUsers = settings.MaxUsers
	if settings.Password != "" {
		hash, err := s.hasher.Hash(settings.Password)
		if err != nil {
			log.Error("failed to hash room password", sl.Err(err))
			return nil, err
		}
		room.PasswordHash = hash
	}

	if err := s.rooms.Update(ctx, room); err != nil {
		log.Error("failed to update room", sl.Err(err))
		return nil, remote(op, err)
	}
	s.refresh(ctx, log)

	log.Info("room settings updated", slog.Int("max_users", room.MaxUsers))
	return room, nil
}

// DeleteRoom removes the room's messages, then its memberships, then the
// room. Each step stands alone: when one fails the earlier ones stay done
// and the failing step is reported in a *StepError.
func (s *LifecycleService) DeleteRoom(ctx context.Context, actor domain.Identity, roomID uuid.UUID, confirmation string) error {
	const op = "service.lifecycle.delete_room"
	log := s.log.With(
		slog.String("op", op),
		slog.String("room_id", roomID.String()),
		slog.String("actor_id", actor.ID.String()),
	)

	if confirmation != DeleteConfirmation {
		return ErrConfirmationMismatch
	}

	if _, err := s.ownedRoom(ctx, op, actor, roomID); err != nil {
		return err
	}

	steps := []struct {
		name string
		run  func(context.Context, uuid.UUID) error
	}{
		{StepDeleteMessages, s.messages.DeleteByRoom},
		{StepDeleteMemberships, s.members.DeleteByRoom},
		{StepDeleteRoom, s.rooms.Delete},
	}
	for _, step := range steps {
		if err := step.run(ctx, roomID); err != nil {
			log.Error("room deletion stopped", slog.String("step", step.name), sl.Err(err))
			return &StepError{Step: step.name, Err: remote(op, err)}
		}
	}
	s.refresh(ctx, log)

	log.Info("room deleted")
	return nil
}

func (s *LifecycleService) ownedRoom(ctx context.Context, op string, actor domain.Identity, roomID uuid.UUID) (*domain.Room, error) {
	room, err := s.rooms.GetByID(ctx, roomID)
	if err != nil {
		return nil, remote(op, err)
	}
	if !room.IsOwnedBy(actor.ID) {
		return nil, ErrNotOwner
	}
	return room, nil
}

func (s *LifecycleService) refresh(ctx context.Context, log *slog.Logger) {
	if s.directory == nil {
		return
	}
	if err := s.directory.Refresh(ctx); err != nil {
		log.Warn("catalog refresh failed", sl.Err(err))
	}
}
