package repository

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
	"github.com/immxrtalbeast/axenix_chat/internal/domain"
	"github.com/immxrtalbeast/axenix_chat/internal/realtime"
	"github.com/immxrtalbeast/axenix_chat/lib/logger/sl"
)

// NotifyingRoomRepository publishes a rooms change event after every
// successful write. A failed publish is logged, the write stands.
type NotifyingRoomRepository struct {
	RoomRepository
	feed realtime.Publisher
	log  *slog.Logger
}

func NewNotifyingRoomRepository(inner RoomRepository, feed realtime.Publisher, log *slog.Logger) *NotifyingRoomRepository {
	if log == nil {
		log = slog.Default()
	}
	return &NotifyingRoomRepository{RoomRepository: inner, feed: feed, log: log}
}

func (r *NotifyingRoomRepository) Create(ctx context.Context, room *domain.Room) error {
	if err := r.RoomRepository.Create(ctx, room); err != nil {
		return err
	}
	r.publish(ctx, realtime.EventInsert, room.ID)
	return nil
}

func (r *NotifyingRoomRepository) Update(ctx context.Context, room *domain.Room) error {
	if err := r.RoomRepository.Update(ctx, room); err != nil {
		return err
	}
	r.publish(ctx, realtime.EventUpdate, room.ID)
	return nil
}

func (r *NotifyingRoomRepository) Delete(ctx context.Context, id uuid.UUID) error {
	if err := r.RoomRepository.Delete(ctx, id); err != nil {
		return err
	}
	r.publish(ctx, realtime.EventDelete, id)
	return nil
}

func (r *NotifyingRoomRepository) publish(ctx context.Context, kind realtime.EventKind, roomID uuid.UUID) {
	err := r.feed.Publish(ctx, realtime.Event{
		Table:  realtime.TableRooms,
		Kind:   kind,
		RoomID: roomID,
	})
	if err != nil {
		r.log.Warn("failed to publish room change",
			slog.String("kind", string(kind)),
			slog.String("room_id", roomID.String()),
			sl.Err(err),
		)
	}
}

// NotifyingMessageRepository publishes an insert event carrying the new
// message after every successful Create.
type NotifyingMessageRepository struct {
	MessageRepository
	feed realtime.Publisher
	log  *slog.Logger
}

func NewNotifyingMessageRepository(inner MessageRepository, feed realtime.Publisher, log *slog.Logger) *NotifyingMessageRepository {
	if log == nil {
		log = slog.Default()
	}
	return &NotifyingMessageRepository{MessageRepository: inner, feed: feed, log: log}
}

func (r *NotifyingMessageRepository) Create(ctx context.Context, message *domain.Message) error {
	if err := r.MessageRepository.Create(ctx, message); err != nil {
		return err
	}

	msg := *message
	err := r.feed.Publish(ctx, realtime.Event{
		Table:   realtime.TableMessages,
		Kind:    realtime.EventInsert,
		RoomID:  message.RoomID,
		Message: &msg,
	})
	if err != nil {
		r.log.Warn("failed to publish message insert",
			slog.String("room_id", message.RoomID.String()),
			slog.String("message_id", message.ID.String()),
			sl.Err(err),
		)
	}
	return nil
}
