package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/immxrtalbeast/axenix_chat/internal/blob/mocks"
	"github.com/immxrtalbeast/axenix_chat/internal/domain"
	"github.com/immxrtalbeast/axenix_chat/internal/repository"
	"github.com/immxrtalbeast/axenix_chat/lib/logger/handlers/slogdiscard"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func TestMessageService_Post(t *testing.T) {
	tests := []struct {
		name    string
		text    string
		want    string
		wantErr error
	}{
		{name: "plain", text: "hello", want: "hello"},
		{name: "trimmed", text: "  hi there \n", want: "hi there"},
		{name: "empty", text: "", wantErr: ErrEmptyMessage},
		{name: "whitespace only", text: " \t\n ", wantErr: ErrEmptyMessage},
		{name: "too long", text: strings.Repeat("a", MaxMessageLength+1), wantErr: ErrMessageTooLong},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			ctx := context.Background()
			roomID := uuid.New()
			author := newIdentity("author@example.com")

			msg, err := env.posting.Post(ctx, roomID, author, tt.text)
			stored, listErr := env.messageStore.ListByRoom(ctx, roomID)
			require.NoError(t, listErr)

			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				assert.ErrorIs(t, err, ErrValidation)
				assert.Empty(t, stored)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, domain.TextPayload{Content: tt.want}, msg.Payload)
			assert.Equal(t, "author@example.com", msg.AuthorLabel)
			require.Len(t, stored, 1)
			assert.Equal(t, msg.ID, stored[0].ID)
		})
	}
}

func TestMessageService_PostImage(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	roomID := uuid.New()
	author := newIdentity("author@example.com")

	msg, err := env.posting.PostImage(ctx, roomID, author, ImageFile{Name: "cat.png", Data: pngHeader})
	require.NoError(t, err)

	paths := env.blobs.Paths()
	require.Len(t, paths, 1)
	assert.True(t, strings.HasPrefix(paths[0], author.ID.String()+"/"), paths[0])
	assert.True(t, strings.HasSuffix(paths[0], ".png"), paths[0])

	img, ok := msg.Payload.(domain.ImagePayload)
	require.True(t, ok)
	assert.Equal(t, env.blobs.PublicURL(paths[0]), img.URL)
	assert.Equal(t, domain.ImagePlaceholder, msg.Text())

	obj, err := env.blobs.Get(ctx, paths[0])
	require.NoError(t, err)
	assert.Equal(t, "image/png", obj.ContentType)
}

func TestMessageService_PostImageRandomizesNames(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	author := newIdentity("author@example.com")

	for range 3 {
		_, err := env.posting.PostImage(ctx, uuid.New(), author, ImageFile{Data: pngHeader})
		require.NoError(t, err)
	}
	assert.Len(t, env.blobs.Paths(), 3)
}

func TestMessageService_PostImageRejectsNonImages(t *testing.T) {
	tests := []struct {
		name    string
		data    []byte
		wantErr error
	}{
		{name: "text", data: []byte("just some words"), wantErr: ErrNotImage},
		{name: "pdf", data: []byte("%PDF-1.4\n%\xe2\xe3\xcf\xd3\n"), wantErr: ErrNotImage},
		{name: "empty", data: nil, wantErr: ErrNotImage},
		{name: "svg with script", data: []byte(`<svg xmlns="http://www.w3.org/2000/svg"><script>alert(1)</script></svg>`), wantErr: ErrNotImage},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			ctx := context.Background()
			roomID := uuid.New()

			_, err := env.posting.PostImage(ctx, roomID, newIdentity("a@example.com"), ImageFile{Name: "x.png", Data: tt.data})
			require.ErrorIs(t, err, tt.wantErr)
			assert.ErrorIs(t, err, ErrValidation)
			assert.Empty(t, env.blobs.Paths())

			stored, err := env.messageStore.ListByRoom(ctx, roomID)
			require.NoError(t, err)
			assert.Empty(t, stored)
		})
	}
}

func TestMessageService_PostImageTooLarge(t *testing.T) {
	env := newTestEnv(t)
	svc, err := NewMessageService(env.messages, env.blobs, 16, slogdiscard.NewDiscardLogger())
	require.NoError(t, err)

	_, err = svc.PostImage(context.Background(), uuid.New(), newIdentity("a@example.com"), ImageFile{Data: pngHeader})
	assert.ErrorIs(t, err, ErrImageTooLarge)
	assert.Empty(t, env.blobs.Paths())
}

type failingMessageCreate struct {
	repository.MessageRepository
	err error
}

func (r failingMessageCreate) Create(context.Context, *domain.Message) error { return r.err }

// Upload and insert are two separate calls. When the insert fails the
// uploaded blob is not removed.
func TestMessageService_PostImageLeavesBlobWhenInsertFails(t *testing.T) {
	boom := errors.New("insert failed")
	env := newTestEnv(t, withMessages(func(inner repository.MessageRepository) repository.MessageRepository {
		return failingMessageCreate{MessageRepository: inner, err: boom}
	}))

	_, err := env.posting.PostImage(context.Background(), uuid.New(), newIdentity("a@example.com"), ImageFile{Data: pngHeader})

	var re *RemoteError
	require.ErrorAs(t, err, &re)
	assert.ErrorIs(t, err, boom)
	assert.Len(t, env.blobs.Paths(), 1, "orphaned blob stays in the store")
}

func TestMessageService_PostImageUploadFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := mocks.NewMockStore(ctrl)
	messages := repository.NewInMemoryMessageRepository()
	svc, err := NewMessageService(messages, store, 0, slogdiscard.NewDiscardLogger())
	require.NoError(t, err)

	author := newIdentity("a@example.com")
	roomID := uuid.New()
	boom := errors.New("bucket unavailable")

	store.EXPECT().
		Upload(gomock.Any(), gomock.Any(), pngHeader, "image/png").
		DoAndReturn(func(_ context.Context, path string, _ []byte, _ string) error {
			assert.True(t, strings.HasPrefix(path, author.ID.String()+"/"))
			return boom
		})
	store.EXPECT().PublicURL(gomock.Any()).Times(0)

	_, err = svc.PostImage(context.Background(), roomID, author, ImageFile{Data: pngHeader})
	require.ErrorIs(t, err, boom)

	stored, err := messages.ListByRoom(context.Background(), roomID)
	require.NoError(t, err)
	assert.Empty(t, stored)
}

func TestMessageService_HistoryIsOrdered(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	roomID := uuid.New()
	author := newIdentity("a@example.com")

	base := mustTime(t, "2025-03-01T10:00:00Z")
	third := textAt(roomID, author, "third", base.Add(2*time.Second))
	first := textAt(roomID, author, "first", base)
	second := textAt(roomID, author, "second", base.Add(time.Second))
	for _, m := range []*domain.Message{third, first, second} {
		require.NoError(t, env.messageStore.Create(ctx, m))
	}

	got, err := env.posting.History(ctx, roomID)
	require.NoError(t, err)
	assert.Equal(t, messageIDs([]*domain.Message{first, second, third}), messageIDs(got))
}
