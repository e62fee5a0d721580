package service

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"github.com/immxrtalbeast/axenix_chat/internal/domain"
	"github.com/immxrtalbeast/axenix_chat/internal/realtime"
	"github.com/immxrtalbeast/axenix_chat/lib/logger/sl"
)

// ErrAttachSuperseded is returned by Attach when Detach or another Attach
// ran before the snapshot was installed.
var ErrAttachSuperseded = errors.New("attach superseded")

type SyncState int

const (
	StateDetached SyncState = iota
	StateLoading
	StateLive
)

func (s SyncState) String() string {
	switch s {
	case StateDetached:
		return "detached"
	case StateLoading:
		return "loading"
	case StateLive:
		return "live"
	default:
		return "unknown"
	}
}

// SyncListener is called with the Synchronizer's lock held, in log order.
// Callbacks must not call back into the Synchronizer.
type SyncListener struct {
	// OnAppend fires for every message appended while Live.
	OnAppend func(msg *domain.Message)
	// OnClosed fires when the attached room is deleted.
	OnClosed func(roomID uuid.UUID)
}

// Synchronizer keeps one room's message log in step with the store: a
// snapshot taken at Attach plus every insert seen on the feed after it.
// The log only grows at the tail and holds each message id once.
type Synchronizer struct {
	messages *MessageService
	feed     realtime.Feed
	listener SyncListener
	log      *slog.Logger

	mu      sync.Mutex
	state   SyncState
	roomID  uuid.UUID
	gen     uint64
	subs    []realtime.Subscription
	entries []*domain.Message
	seen    map[uuid.UUID]struct{}
	pending []*domain.Message
}

func NewSynchronizer(messages *MessageService, feed realtime.Feed, listener SyncListener, log *slog.Logger) *Synchronizer {
	return &Synchronizer{
		messages: messages,
		feed:     feed,
		listener: listener,
		log:      log,
	}
}

// Attach drops whatever room was attached and loads roomID. The feed is
// subscribed before the snapshot is read; inserts seen in between are
// held back and appended after the snapshot unless it already has them.
// It returns the log as it stood when the Synchronizer went Live.
func (s *Synchronizer) Attach(ctx context.Context, roomID uuid.UUID) ([]*domain.Message, error) {
	const op = "service.synchronizer.attach"
	log := s.log.With(slog.String("op", op), slog.String("room_id", roomID.String()))

	s.mu.Lock()
	s.detachLocked()
	gen := s.gen
	s.state = StateLoading
	s.roomID = roomID
	s.seen = make(map[uuid.UUID]struct{})
	s.mu.Unlock()

	msgSub, err := s.feed.Subscribe(ctx, realtime.TableMessages, realtime.Filter{
		Kinds:  []realtime.EventKind{realtime.EventInsert},
		RoomID: roomID,
	}, func(e realtime.Event) { s.onMessage(gen, e) })
	if err != nil {
		log.Error("failed to subscribe to messages", sl.Err(err))
		s.abort(gen)
		return nil, remote(op, err)
	}

	roomSub, err := s.feed.Subscribe(ctx, realtime.TableRooms, realtime.Filter{
		Kinds:  []realtime.EventKind{realtime.EventDelete},
		RoomID: roomID,
	}, func(e realtime.Event) { s.onRoomDeleted(gen, e) })
	if err != nil {
		log.Error("failed to subscribe to room changes", sl.Err(err))
		_ = msgSub.Unsubscribe()
		s.abort(gen)
		return nil, remote(op, err)
	}

	s.mu.Lock()
	if s.gen != gen {
		s.mu.Unlock()
		_ = msgSub.Unsubscribe()
		_ = roomSub.Unsubscribe()
		return nil, ErrAttachSuperseded
	}
	s.subs = []realtime.Subscription{msgSub, roomSub}
	s.mu.Unlock()

	history, err := s.messages.History(ctx, roomID)
	if err != nil {
		log.Error("failed to load history", sl.Err(err))
		s.abort(gen)
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.gen != gen {
		return nil, ErrAttachSuperseded
	}

	s.entries = make([]*domain.Message, 0, len(history)+len(s.pending))
	for _, m := range history {
		s.appendLocked(m)
	}
	buffered := len(s.pending)
	for _, m := range s.pending {
		s.appendLocked(m)
	}
	s.pending = nil
	s.state = StateLive

	log.Debug("attached",
		slog.Int("snapshot", len(history)),
		slog.Int("buffered", buffered),
		slog.Int("log", len(s.entries)),
	)
	return s.copyLocked(), nil
}

// Detach unsubscribes and drops the log.
func (s *Synchronizer) Detach() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.detachLocked()
}

func (s *Synchronizer) State() SyncState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// RoomID returns uuid.Nil when detached.
func (s *Synchronizer) RoomID() uuid.UUID {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.roomID
}

func (s *Synchronizer) Messages() []*domain.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.copyLocked()
}

// Post sends text to the attached room. The log is not touched, the
// message shows up once the feed delivers it.
func (s *Synchronizer) Post(ctx context.Context, author domain.Identity, text string) (*domain.Message, error) {
	roomID, err := s.attachedRoom()
	if err != nil {
		return nil, err
	}
	return s.messages.Post(ctx, roomID, author, text)
}

func (s *Synchronizer) PostImage(ctx context.Context, author domain.Identity, file ImageFile) (*domain.Message, error) {
	roomID, err := s.attachedRoom()
	if err != nil {
		return nil, err
	}
	return s.messages.PostImage(ctx, roomID, author, file)
}

var errDetached = newError(ErrValidation, "no room attached")

func (s *Synchronizer) attachedRoom() (uuid.UUID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateDetached {
		return uuid.Nil, errDetached
	}
	return s.roomID, nil
}

func (s *Synchronizer) onMessage(gen uint64, e realtime.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if gen != s.gen || e.Message == nil {
		return
	}
	if e.RoomID != s.roomID || e.Message.RoomID != s.roomID {
		s.log.Warn("event for another room ignored",
			slog.String("attached", s.roomID.String()),
			slog.String("event_room", e.Message.RoomID.String()),
		)
		return
	}

	switch s.state {
	case StateLoading:
		s.pending = append(s.pending, e.Message)
	case StateLive:
		if s.appendLocked(e.Message) && s.listener.OnAppend != nil {
			s.listener.OnAppend(e.Message)
		}
	}
}

func (s *Synchronizer) onRoomDeleted(gen uint64, e realtime.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if gen != s.gen || e.RoomID != s.roomID {
		return
	}
	roomID := s.roomID
	s.detachLocked()

	s.log.Info("attached room deleted", slog.String("room_id", roomID.String()))
	if s.listener.OnClosed != nil {
		s.listener.OnClosed(roomID)
	}
}

// abort resets to Detached if gen is still current.
func (s *Synchronizer) abort(gen uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.gen == gen {
		s.detachLocked()
	}
}

func (s *Synchronizer) detachLocked() {
	for _, sub := range s.subs {
		if err := sub.Unsubscribe(); err != nil {
			s.log.Warn("unsubscribe failed", slog.String("room_id", s.roomID.String()), sl.Err(err))
		}
	}
	s.subs = nil
	s.gen++
	s.state = StateDetached
	s.roomID = uuid.Nil
	s.entries = nil
	s.seen = nil
	s.pending = nil
}

func (s *Synchronizer) appendLocked(m *domain.Message) bool {
	if _, dup := s.seen[m.ID]; dup {
		return false
	}
	s.seen[m.ID] = struct{}{}
	s.entries = append(s.entries, m)
	return true
}

func (s *Synchronizer) copyLocked() []*domain.Message {
	out := make([]*domain.Message, len(s.entries))
	copy(out, s.entries)
	return out
}
