package domain

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

type MessageKind string

const (
	MessageKindText  MessageKind = "text"
	MessageKindImage MessageKind = "image"
)

// ImagePlaceholder is the text carried by every image message.
const ImagePlaceholder = "📷 Image"

var ErrInvalidPayload = errors.New("invalid message payload")

// Payload is the content of a message. It is implemented only by
// TextPayload and ImagePayload.
type Payload interface {
	Kind() MessageKind
	isPayload()
}

type TextPayload struct {
	Content string
}

func (TextPayload) Kind() MessageKind { return MessageKindText }
func (TextPayload) isPayload()        {}

type ImagePayload struct {
	URL         string
	Placeholder string
}

func (ImagePayload) Kind() MessageKind { return MessageKindImage }
func (ImagePayload) isPayload()        {}

// Message is an immutable entry of a room's log. Within a room messages
// are ordered by CreatedAt, then by ID.
type Message struct {
	ID          uuid.UUID
	RoomID      uuid.UUID
	AuthorID    uuid.UUID
	AuthorLabel string
	CreatedAt   time.Time
	Payload     Payload
}

func NewTextMessage(roomID uuid.UUID, author Identity, content string) *Message {
	return newMessage(roomID, author, TextPayload{Content: content})
}

func NewImageMessage(roomID uuid.UUID, author Identity, url string) *Message {
	return newMessage(roomID, author, ImagePayload{URL: url, Placeholder: ImagePlaceholder})
}

func newMessage(roomID uuid.UUID, author Identity, payload Payload) *Message {
	return &Message{
		ID:          uuid.New(),
		RoomID:      roomID,
		AuthorID:    author.ID,
		AuthorLabel: author.Label(),
		CreatedAt:   time.Now().UTC(),
		Payload:     payload,
	}
}

// Text returns the human readable part of the message.
func (m *Message) Text() string {
	switch p := m.Payload.(type) {
	case TextPayload:
		return p.Content
	case ImagePayload:
		return p.Placeholder
	default:
		return ""
	}
}

// Less orders messages by creation time with the id as tie-break.
func (m *Message) Less(other *Message) bool {
	if !m.CreatedAt.Equal(other.CreatedAt) {
		return m.CreatedAt.Before(other.CreatedAt)
	}
	return m.ID.String() < other.ID.String()
}

// FlatPayload is the storage/wire shape of a payload: a type tag, the
// text content and an optional image url.
type FlatPayload struct {
	Type     MessageKind
	Content  string
	ImageURL string
}

func FlattenPayload(p Payload) FlatPayload {
	switch v := p.(type) {
	case TextPayload:
		return FlatPayload{Type: MessageKindText, Content: v.Content}
	case ImagePayload:
		return FlatPayload{Type: MessageKindImage, Content: v.Placeholder, ImageURL: v.URL}
	default:
		return FlatPayload{}
	}
}

// ParsePayload rebuilds a payload from its flat shape. An image without
// a url is rejected.
func ParsePayload(f FlatPayload) (Payload, error) {
	switch f.Type {
	case MessageKindText, "":
		return TextPayload{Content: f.Content}, nil
	case MessageKindImage:
		if f.ImageURL == "" {
			return nil, fmt.Errorf("%w: image message without url", ErrInvalidPayload)
		}
		return ImagePayload{URL: f.ImageURL, Placeholder: f.Content}, nil
	default:
		return nil, fmt.Errorf("%w: unknown type %q", ErrInvalidPayload, f.Type)
	}
}

type messageJSON struct {
	ID          uuid.UUID   `json:"id"`
	RoomID      uuid.UUID   `json:"room_id"`
	AuthorID    uuid.UUID   `json:"author_id"`
	AuthorLabel string      `json:"author_email"`
	Type        MessageKind `json:"type"`
	Content     string      `json:"content"`
	ImageURL    string      `json:"image_url,omitempty"`
	CreatedAt   time.Time   `json:"created_at"`
}

func (m Message) MarshalJSON() ([]byte, error) {
	flat := FlattenPayload(m.Payload)
	return json.Marshal(messageJSON{
		ID:          m.ID,
		RoomID:      m.RoomID,
		AuthorID:    m.AuthorID,
		AuthorLabel: m.AuthorLabel,
		Type:        flat.Type,
		Content:     flat.Content,
		ImageURL:    flat.ImageURL,
		CreatedAt:   m.CreatedAt,
	})
}

func (m *Message) UnmarshalJSON(data []byte) error {
	var raw messageJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	payload, err := ParsePayload(FlatPayload{Type: raw.Type, Content: raw.Content, ImageURL: raw.ImageURL})
	if err != nil {
		return err
	}
	*m = Message{
		ID:          raw.ID,
		RoomID:      raw.RoomID,
		AuthorID:    raw.AuthorID,
		AuthorLabel: raw.AuthorLabel,
		CreatedAt:   raw.CreatedAt,
		Payload:     payload,
	}
	return nil
}
