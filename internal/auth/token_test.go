package auth

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/immxrtalbeast/axenix_chat/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokens_IssueAndParse(t *testing.T) {
	tokens := NewTokens("secret", time.Hour)
	id := domain.Identity{ID: uuid.New(), Email: "a@example.com"}

	raw, err := tokens.Issue(id)
	require.NoError(t, err)

	got, err := tokens.Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, id, got)
}

func TestTokens_Rejects(t *testing.T) {
	id := domain.Identity{ID: uuid.New(), Email: "a@example.com"}
	tokens := NewTokens("secret", time.Hour)

	t.Run("wrong secret", func(t *testing.T) {
		raw, err := NewTokens("other", time.Hour).Issue(id)
		require.NoError(t, err)
		_, err = tokens.Parse(raw)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("expired", func(t *testing.T) {
		old := NewTokens("secret", time.Minute)
		old.now = func() time.Time { return time.Now().Add(-time.Hour) }
		raw, err := old.Issue(id)
		require.NoError(t, err)
		_, err = tokens.Parse(raw)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := tokens.Parse("not-a-token")
		assert.ErrorIs(t, err, ErrInvalidToken)
	})
}

func TestContextProvider(t *testing.T) {
	var p ContextProvider

	_, err := p.CurrentUser(context.Background())
	assert.ErrorIs(t, err, ErrNoSession)

	id := domain.Identity{ID: uuid.New(), Email: "a@example.com"}
	got, err := p.CurrentUser(WithIdentity(context.Background(), id))
	require.NoError(t, err)
	assert.Equal(t, id, got)
}
