package repository

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/immxrtalbeast/axenix_chat/internal/domain"
	"github.com/immxrtalbeast/axenix_chat/internal/realtime"
	"github.com/immxrtalbeast/axenix_chat/lib/logger/handlers/slogdiscard"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNotifyingRoomRepository_PublishesCommittedWrites(t *testing.T) {
	ctx := context.Background()
	feed := realtime.NewMemoryFeed()
	repo := NewNotifyingRoomRepository(NewInMemoryRoomRepository(), feed, slogdiscard.NewDiscardLogger())

	var kinds []realtime.EventKind
	_, err := feed.Subscribe(ctx, realtime.TableRooms, realtime.Filter{}, func(e realtime.Event) {
		kinds = append(kinds, e.Kind)
	})
	require.NoError(t, err)

	room := domain.NewRoom("Lobby", "hash", 2, domain.Identity{ID: uuid.New(), Email: "a@example.com"})
	require.NoError(t, repo.Create(ctx, room))
	require.NoError(t, repo.Update(ctx, room))
	require.NoError(t, repo.Delete(ctx, room.ID))
	assert.Error(t, repo.Delete(ctx, room.ID))

	assert.Equal(t, []realtime.EventKind{realtime.EventInsert, realtime.EventUpdate, realtime.EventDelete}, kinds)
}

func TestNotifyingMessageRepository_PublishesInsertWithMessage(t *testing.T) {
	ctx := context.Background()
	feed := realtime.NewMemoryFeed()
	repo := NewNotifyingMessageRepository(NewInMemoryMessageRepository(), feed, slogdiscard.NewDiscardLogger())

	roomID := uuid.New()
	var got []realtime.Event
	_, err := feed.Subscribe(ctx, realtime.TableMessages, realtime.Filter{RoomID: roomID}, func(e realtime.Event) {
		got = append(got, e)
	})
	require.NoError(t, err)

	msg := domain.NewTextMessage(roomID, domain.Identity{ID: uuid.New(), Email: "a@example.com"}, "hi")
	require.NoError(t, repo.Create(ctx, msg))

	require.Len(t, got, 1)
	assert.Equal(t, realtime.EventInsert, got[0].Kind)
	require.NotNil(t, got[0].Message)
	assert.Equal(t, msg.ID, got[0].Message.ID)
}
