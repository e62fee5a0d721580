package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/immxrtalbeast/axenix_chat/internal/blob"
	"github.com/immxrtalbeast/axenix_chat/internal/domain"
	"github.com/immxrtalbeast/axenix_chat/internal/realtime"
	"github.com/immxrtalbeast/axenix_chat/internal/repository"
	"github.com/immxrtalbeast/axenix_chat/lib/logger/handlers/slogdiscard"
	"github.com/immxrtalbeast/axenix_chat/lib/password"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

// pngHeader is enough for content sniffing to report image/png.
var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x06\x00\x00\x00\x1f\x15\xc4\x89")

type testEnv struct {
	feed *realtime.MemoryFeed

	roomStore    *repository.InMemoryRoomRepository
	memberStore  *repository.InMemoryMembershipRepository
	messageStore *repository.InMemoryMessageRepository
	blobs        *blob.MemoryStore

	rooms    repository.RoomRepository
	members  repository.MembershipRepository
	messages repository.MessageRepository

	hasher    *password.Hasher
	directory *Directory
	access    *AccessService
	posting   *MessageService
	lifecycle *LifecycleService
}

type envOption func(*testEnv)

func withRooms(wrap func(repository.RoomRepository) repository.RoomRepository) envOption {
	return func(e *testEnv) { e.rooms = wrap(e.rooms) }
}

func withMembers(wrap func(repository.MembershipRepository) repository.MembershipRepository) envOption {
	return func(e *testEnv) { e.members = wrap(e.members) }
}

func withMessages(wrap func(repository.MessageRepository) repository.MessageRepository) envOption {
	return func(e *testEnv) { e.messages = wrap(e.messages) }
}

func newTestEnv(t *testing.T, opts ...envOption) *testEnv {
	t.Helper()
	log := slogdiscard.NewDiscardLogger()

	e := &testEnv{
		feed:         realtime.NewMemoryFeed(),
		roomStore:    repository.NewInMemoryRoomRepository(),
		memberStore:  repository.NewInMemoryMembershipRepository(),
		messageStore: repository.NewInMemoryMessageRepository(),
		blobs:        blob.NewMemoryStore("http://blobs.test"),
		hasher:       password.NewHasherWithCost(bcrypt.MinCost),
	}
	e.rooms = repository.NewNotifyingRoomRepository(e.roomStore, e.feed, log)
	e.members = e.memberStore
	e.messages = repository.NewNotifyingMessageRepository(e.messageStore, e.feed, log)
	for _, opt := range opts {
		opt(e)
	}

	e.directory = NewDirectory(e.rooms, e.members, e.feed, e.hasher, log)
	e.access = NewAccessService(e.rooms, e.members, e.hasher, log)
	posting, err := NewMessageService(e.messages, e.blobs, 0, log)
	require.NoError(t, err)
	e.posting = posting
	e.lifecycle = NewLifecycleService(e.rooms, e.members, e.messages, e.hasher, e.directory, log)

	require.NoError(t, e.directory.Start(context.Background()))
	t.Cleanup(func() { _ = e.directory.Close() })
	return e
}

func (e *testEnv) synchronizer(listener SyncListener) *Synchronizer {
	return NewSynchronizer(e.posting, e.feed, listener, slogdiscard.NewDiscardLogger())
}

func (e *testEnv) createRoom(t *testing.T, owner domain.Identity, name, pass string, maxUsers int) *domain.Room {
	t.Helper()
	room, err := e.directory.Create(context.Background(), owner, CreateRoomInput{
		Name:     name,
		Password: pass,
		MaxUsers: maxUsers,
	})
	require.NoError(t, err)
	return room
}

func (e *testEnv) memberCount(t *testing.T, roomID uuid.UUID) int {
	t.Helper()
	n, err := e.memberStore.Count(context.Background(), roomID)
	require.NoError(t, err)
	return n
}

func newIdentity(email string) domain.Identity {
	return domain.Identity{ID: uuid.New(), Email: email}
}

// textAt builds a stored text message with a fixed timestamp.
func textAt(roomID uuid.UUID, author domain.Identity, content string, at time.Time) *domain.Message {
	m := domain.NewTextMessage(roomID, author, content)
	m.CreatedAt = at
	return m
}

func mustTime(t *testing.T, s string) time.Time {
	t.Helper()
	ts, err := time.Parse(time.RFC3339, s)
	require.NoError(t, err)
	return ts
}

func messageIDs(msgs []*domain.Message) []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(msgs))
	for _, m := range msgs {
		ids = append(ids, m.ID)
	}
	return ids
}
