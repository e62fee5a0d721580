package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"github.com/immxrtalbeast/axenix_chat/internal/blob"
	"github.com/immxrtalbeast/axenix_chat/internal/domain"
	"github.com/immxrtalbeast/axenix_chat/internal/repository"
	"github.com/immxrtalbeast/axenix_chat/lib/logger/sl"
	"github.com/jaevor/go-nanoid"
)

const (
	MaxMessageLength = 4000
	// DefaultMaxImageBytes applies when NewMessageService gets a non-positive limit.
	DefaultMaxImageBytes = 10 << 20

	fileNameLength = 21
)

// imageTypes are the raster formats accepted for upload. SVG is excluded
// because it can carry script.
var imageTypes = []string{"image/png", "image/jpeg", "image/gif", "image/webp"}

type ImageFile struct {
	Name string
	Data []byte
}

// MessageService appends to a room's message log. Posted messages are not
// returned to any local log, subscribers receive them through the feed.
type MessageService struct {
	messages      repository.MessageRepository
	blobs         blob.Store
	newName       func() string
	maxImageBytes int
	log           *slog.Logger
}

func NewMessageService(
	messages repository.MessageRepository,
	blobs blob.Store,
	maxImageBytes int,
	log *slog.Logger,
) (*MessageService, error) {
	gen, err := nanoid.Standard(fileNameLength)
	if err != nil {
		return nil, fmt.Errorf("file name generator: %w", err)
	}
	if maxImageBytes <= 0 {
		maxImageBytes = DefaultMaxImageBytes
	}

	return &MessageService{
		messages:      messages,
		blobs:         blobs,
		newName:       gen,
		maxImageBytes: maxImageBytes,
		log:           log,
	}, nil
}

func (s *MessageService) Post(ctx context.Context, roomID uuid.UUID, author domain.Identity, text string) (*domain.Message, error) {
	const op = "service.message.post"
	log := s.log.With(
		slog.String("op", op),
		slog.String("room_id", roomID.String()),
		slog.String("author_id", author.ID.String()),
	)

	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrEmptyMessage
	}
	if utf8.RuneCountInString(text) > MaxMessageLength {
		return nil, ErrMessageTooLong
	}

	msg := domain.NewTextMessage(roomID, author, text)
	if err := s.messages.Create(ctx, msg); err != nil {
		log.Error("failed to store message", sl.Err(err))
		return nil, remote(op, err)
	}

	log.Debug("message posted", slog.String("message_id", msg.ID.String()))
	return msg, nil
}

// PostImage uploads file under the author's namespace and posts an image
// message pointing at it. When the upload succeeds and the insert fails
// the blob stays in the store.
func (s *MessageService) PostImage(ctx context.Context, roomID uuid.UUID, author domain.Identity, file ImageFile) (*domain.Message, error) {
	const op = "service.message.post_image"
	log := s.log.With(
		slog.String("op", op),
		slog.String("room_id", roomID.String()),
		slog.String("author_id", author.ID.String()),
	)

	if len(file.Data) == 0 {
		return nil, ErrNotImage
	}
	if len(file.Data) > s.maxImageBytes {
		return nil, ErrImageTooLarge
	}

	mt := mimetype.Detect(file.Data)
	if !mimetype.EqualsAny(mt.String(), imageTypes...) {
		log.Info("rejected upload", slog.String("mime", mt.String()), slog.String("name", file.Name))
		return nil, ErrNotImage
	}

	path := fmt.Sprintf("%s/%s%s", author.ID, s.newName(), mt.Extension())
	if err := s.blobs.Upload(ctx, path, file.Data, mt.String()); err != nil {
		log.Error("failed to upload image", slog.String("path", path), sl.Err(err))
		return nil, remote(op, err)
	}

	msg := domain.NewImageMessage(roomID, author, s.blobs.PublicURL(path))
	if err := s.messages.Create(ctx, msg); err != nil {
		log.Warn("image uploaded but message not stored, blob left in place",
			slog.String("path", path),
			sl.Err(err),
		)
		return nil, remote(op, err)
	}

	log.Debug("image posted", slog.String("message_id", msg.ID.String()), slog.String("path", path))
	return msg, nil
}

// History returns the room's messages oldest first.
func (s *MessageService) History(ctx context.Context, roomID uuid.UUID) ([]*domain.Message, error) {
	msgs, err := s.messages.ListByRoom(ctx, roomID)
	if err != nil {
		return nil, remote("service.message.history", err)
	}
	return msgs, nil
}
