package converter

import (
	"time"

	"github.com/google/uuid"
	"github.com/immxrtalbeast/axenix_chat/internal/domain"
)

type MessageResponse struct {
	ID          uuid.UUID          `json:"id"`
	RoomID      uuid.UUID          `json:"room_id"`
	AuthorID    uuid.UUID          `json:"author_id"`
	AuthorEmail string             `json:"author_email"`
	Type        domain.MessageKind `json:"type"`
	Content     string             `json:"content"`
	ImageURL    string             `json:"image_url,omitempty"`
	CreatedAt   time.Time          `json:"created_at"`
}

func MessageToApi(m *domain.Message) *MessageResponse {
	flat := domain.FlattenPayload(m.Payload)
	return &MessageResponse{
		ID:          m.ID,
		RoomID:      m.RoomID,
		AuthorID:    m.AuthorID,
		AuthorEmail: m.AuthorLabel,
		Type:        flat.Type,
		Content:     flat.Content,
		ImageURL:    flat.ImageURL,
		CreatedAt:   m.CreatedAt,
	}
}

func MessagesToApi(msgs []*domain.Message) []*MessageResponse {
	out := make([]*MessageResponse, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, MessageToApi(m))
	}
	return out
}

// Frame types sent over the room stream.
const (
	FrameSnapshot    = "snapshot"
	FrameMessage     = "message"
	FrameError       = "error"
	FrameRoomDeleted = "room_deleted"
)

type StreamFrame struct {
	Type     string             `json:"type"`
	Messages []*MessageResponse `json:"messages,omitempty"`
	Message  *MessageResponse   `json:"message,omitempty"`
	Error    string             `json:"error,omitempty"`
}

func SnapshotFrame(msgs []*domain.Message) StreamFrame {
	return StreamFrame{Type: FrameSnapshot, Messages: MessagesToApi(msgs)}
}

func MessageFrame(m *domain.Message) StreamFrame {
	return StreamFrame{Type: FrameMessage, Message: MessageToApi(m)}
}

func ErrorFrame(msg string) StreamFrame {
	return StreamFrame{Type: FrameError, Error: msg}
}
