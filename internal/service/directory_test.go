package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/immxrtalbeast/axenix_chat/internal/domain"
	"github.com/immxrtalbeast/axenix_chat/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func roomAt(name string, owner domain.Identity, at time.Time) *domain.Room {
	r := domain.NewRoom(name, "hash", 10, owner)
	r.CreatedAt = at
	return r
}

func roomNames(rooms []*domain.Room) []string {
	names := make([]string, 0, len(rooms))
	for _, r := range rooms {
		names = append(names, r.Name)
	}
	return names
}

func TestOrderRooms_OwnedFirstThenNewest(t *testing.T) {
	me := newIdentity("me@example.com")
	other := newIdentity("other@example.com")
	base := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)

	catalog := []*domain.Room{
		roomAt("mine-old", me, base),
		roomAt("theirs", other, base.Add(time.Minute)),
		roomAt("mine-new", me, base.Add(2*time.Minute)),
	}

	got := OrderRooms(catalog, me.ID)
	assert.Equal(t, []string{"mine-new", "mine-old", "theirs"}, roomNames(got))

	got = OrderRooms(catalog, other.ID)
	assert.Equal(t, []string{"theirs", "mine-new", "mine-old"}, roomNames(got))

	// input untouched
	assert.Equal(t, []string{"mine-old", "theirs", "mine-new"}, roomNames(catalog))
}

func TestFilterRooms(t *testing.T) {
	me := newIdentity("me@example.com")
	other := newIdentity("other@example.com")
	base := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)

	lobby := roomAt("Lobby", other, base)
	games := roomAt("Games", me, base.Add(time.Minute))
	lounge := roomAt("lounge", me, base.Add(2*time.Minute))
	catalog := []*domain.Room{lobby, games, lounge}

	tests := []struct {
		name  string
		query string
		want  []string
	}{
		{name: "empty query is list", query: "", want: roomNames(OrderRooms(catalog, me.ID))},
		{name: "blank query is list", query: "   ", want: []string{"lounge", "Games", "Lobby"}},
		{name: "case insensitive name", query: "LO", want: []string{"lounge", "Lobby"}},
		{name: "by id", query: strings.ToUpper(games.ID.String()[:8]), want: []string{"Games"}},
		{name: "no match", query: "zzz", want: []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FilterRooms(tt.query, catalog, me.ID)
			assert.Equal(t, tt.want, roomNames(got))
		})
	}
}

func TestDirectory_ListOrdersCatalog(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	me := newIdentity("me@example.com")
	other := newIdentity("other@example.com")

	first := env.createRoom(t, me, "first", "p", 5)
	time.Sleep(2 * time.Millisecond)
	env.createRoom(t, other, "second", "p", 5)
	time.Sleep(2 * time.Millisecond)
	env.createRoom(t, me, "third", "p", 5)

	rooms, err := env.directory.List(ctx, me)
	require.NoError(t, err)
	assert.Equal(t, []string{"third", "first", "second"}, roomNames(rooms))

	filtered, err := env.directory.Search(ctx, me, "")
	require.NoError(t, err)
	assert.Equal(t, roomNames(rooms), roomNames(filtered))

	filtered, err = env.directory.Search(ctx, me, "FIR")
	require.NoError(t, err)
	require.Len(t, filtered, 1)
	assert.Equal(t, first.ID, filtered[0].ID)
}

func TestDirectory_CreateValidation(t *testing.T) {
	owner := newIdentity("owner@example.com")

	tests := []struct {
		name    string
		in      CreateRoomInput
		wantErr error
	}{
		{name: "zero max users", in: CreateRoomInput{Name: "r", Password: "p", MaxUsers: 0}, wantErr: ErrInvalidMaxUsers},
		{name: "101 max users", in: CreateRoomInput{Name: "r", Password: "p", MaxUsers: 101}, wantErr: ErrInvalidMaxUsers},
		{name: "empty password", in: CreateRoomInput{Name: "r", Password: "", MaxUsers: 5}, wantErr: ErrPasswordRequired},
		{name: "blank name", in: CreateRoomInput{Name: "  ", Password: "p", MaxUsers: 5}, wantErr: ErrRoomNameRequired},
		{name: "password over 72 bytes", in: CreateRoomInput{Name: "r", Password: strings.Repeat("x", 73), MaxUsers: 5}, wantErr: ErrPasswordTooLong},
		{name: "multibyte password over 72 bytes", in: CreateRoomInput{Name: "r", Password: strings.Repeat("€", 25), MaxUsers: 5}, wantErr: ErrPasswordTooLong},
		{name: "password of 72 bytes", in: CreateRoomInput{Name: "r", Password: strings.Repeat("x", 72), MaxUsers: 5}},
		{name: "lower bound", in: CreateRoomInput{Name: "r", Password: "p", MaxUsers: 1}},
		{name: "upper bound", in: CreateRoomInput{Name: "r", Password: "p", MaxUsers: 100}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			ctx := context.Background()

			room, err := env.directory.Create(ctx, owner, tt.in)
			stored, listErr := env.roomStore.List(ctx)
			require.NoError(t, listErr)

			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				assert.ErrorIs(t, err, ErrValidation)
				assert.Nil(t, room)
				assert.Empty(t, stored)
				return
			}
			require.NoError(t, err)
			assert.Len(t, stored, 1)
			assert.Equal(t, tt.in.MaxUsers, room.MaxUsers)
		})
	}
}

func TestDirectory_CreateEnrollsOwnerAndHashesPassword(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := newIdentity("owner@example.com")

	room := env.createRoom(t, owner, "Lobby", "secret", 3)

	assert.Equal(t, owner.ID, room.OwnerID)
	assert.Equal(t, "owner@example.com", room.OwnerLabel)
	assert.NotEqual(t, "secret", room.PasswordHash)
	assert.True(t, env.hasher.Verify("secret", room.PasswordHash))

	ok, err := env.access.IsMember(ctx, room.ID, owner.ID)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 1, env.memberCount(t, room.ID))
}

func TestDirectory_RefreshesOnRoomChanges(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := newIdentity("owner@example.com")

	// written straight through the repository, not through Create
	room := domain.NewRoom("external", "hash", 4, owner)
	require.NoError(t, env.rooms.Create(ctx, room))

	rooms, err := env.directory.List(ctx, owner)
	require.NoError(t, err)
	require.Len(t, rooms, 1)
	assert.Equal(t, room.ID, rooms[0].ID)

	require.NoError(t, env.rooms.Delete(ctx, room.ID))
	rooms, err = env.directory.List(ctx, owner)
	require.NoError(t, err)
	assert.Empty(t, rooms)
}

func TestDirectory_CloseStopsRefreshing(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := newIdentity("owner@example.com")

	require.NoError(t, env.directory.Close())
	require.NoError(t, env.rooms.Create(ctx, domain.NewRoom("late", "hash", 4, owner)))

	rooms, err := env.directory.List(ctx, owner)
	require.NoError(t, err)
	assert.Empty(t, rooms)
}

// gatedRoomRepository holds the first List call until release is closed
// and answers it with stale.
type gatedRoomRepository struct {
	repository.RoomRepository

	once    sync.Once
	entered chan struct{}
	release chan struct{}
	stale   []*domain.Room
}

func (r *gatedRoomRepository) List(ctx context.Context) ([]*domain.Room, error) {
	first := false
	r.once.Do(func() { first = true })
	if first {
		close(r.entered)
		<-r.release
		return r.stale, nil
	}
	return r.RoomRepository.List(ctx)
}

func TestDirectory_OlderRefreshNeverOverwritesNewer(t *testing.T) {
	inner := repository.NewInMemoryRoomRepository()
	gated := &gatedRoomRepository{
		RoomRepository: inner,
		entered:        make(chan struct{}),
		release:        make(chan struct{}),
	}
	env := newTestEnv(t)
	d := NewDirectory(gated, env.members, env.feed, env.hasher, env.directory.log)
	ctx := context.Background()
	owner := newIdentity("owner@example.com")

	errCh := make(chan error, 1)
	go func() { errCh <- d.Refresh(ctx) }()
	<-gated.entered

	room := domain.NewRoom("fresh", "hash", 4, owner)
	require.NoError(t, inner.Create(ctx, room))
	require.NoError(t, d.Refresh(ctx))

	close(gated.release)
	require.NoError(t, <-errCh)

	rooms, err := d.List(ctx, owner)
	require.NoError(t, err)
	require.Len(t, rooms, 1)
	assert.Equal(t, room.ID, rooms[0].ID)
}

type failingRoomList struct {
	repository.RoomRepository
	err error
}

func (r failingRoomList) List(context.Context) ([]*domain.Room, error) { return nil, r.err }

func TestDirectory_ListSurfacesStoreFailure(t *testing.T) {
	env := newTestEnv(t)
	boom := errors.New("connection reset")
	d := NewDirectory(failingRoomList{RoomRepository: env.rooms, err: boom}, env.members, env.feed, env.hasher, env.directory.log)

	_, err := d.List(context.Background(), newIdentity("a@example.com"))

	var re *RemoteError
	require.ErrorAs(t, err, &re)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, "service.directory.refresh", re.Op)
}
