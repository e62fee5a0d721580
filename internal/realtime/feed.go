// Package realtime carries change notifications for the rooms and
// messages tables. A Feed is the push channel the room directory and the
// message stream synchronizer subscribe to; repositories publish to it
// after every successful write.
package realtime

import (
	"context"
	"slices"

	"github.com/google/uuid"
	"github.com/immxrtalbeast/axenix_chat/internal/domain"
)

type Table string

const (
	TableRooms    Table = "rooms"
	TableMessages Table = "messages"
)

type EventKind string

const (
	EventInsert EventKind = "INSERT"
	EventUpdate EventKind = "UPDATE"
	EventDelete EventKind = "DELETE"
)

// Event describes one committed change. Message is set for message
// inserts; room events only carry the room id, subscribers re-read the
// catalog.
type Event struct {
	Table   Table           `json:"table"`
	Kind    EventKind       `json:"kind"`
	RoomID  uuid.UUID       `json:"room_id"`
	Message *domain.Message `json:"message,omitempty"`
}

// Filter narrows a subscription. Empty Kinds means every kind, a nil
// RoomID means every room.
type Filter struct {
	Kinds  []EventKind
	RoomID uuid.UUID
}

func (f Filter) Match(e Event) bool {
	if len(f.Kinds) > 0 && !slices.Contains(f.Kinds, e.Kind) {
		return false
	}
	if f.RoomID != uuid.Nil && f.RoomID != e.RoomID {
		return false
	}
	return true
}

type Handler func(Event)

// Subscription is owned by whoever created it and must be closed by them.
// Unsubscribe is safe to call more than once and from inside a handler.
type Subscription interface {
	Unsubscribe() error
}

type Publisher interface {
	Publish(ctx context.Context, event Event) error
}

type Feed interface {
	Publisher
	Subscribe(ctx context.Context, table Table, filter Filter, handler Handler) (Subscription, error)
}
