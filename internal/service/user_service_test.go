package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/immxrtalbeast/axenix_chat/internal/auth"
	"github.com/immxrtalbeast/axenix_chat/internal/repository"
	"github.com/immxrtalbeast/axenix_chat/lib/logger/handlers/slogdiscard"
	"github.com/immxrtalbeast/axenix_chat/lib/password"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func newUserService(t *testing.T) (*UserService, *auth.Tokens) {
	t.Helper()
	tokens := auth.NewTokens("test-secret", time.Hour)
	svc := NewUserService(
		repository.NewInMemoryUserRepository(),
		password.NewHasherWithCost(bcrypt.MinCost),
		tokens,
		slogdiscard.NewDiscardLogger(),
	)
	return svc, tokens
}

func TestUserService_RegisterAndLogin(t *testing.T) {
	svc, tokens := newUserService(t)
	ctx := context.Background()

	user, err := svc.Register(ctx, " Alice ", "Alice@Example.com", "secret1")
	require.NoError(t, err)
	assert.Equal(t, "Alice", user.Name)
	assert.Equal(t, "alice@example.com", user.Email)
	assert.NotEqual(t, "secret1", user.PasswordHash)

	token, got, err := svc.Login(ctx, "alice@example.com", "secret1")
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.ID)

	id, err := tokens.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, user.Identity(), id)
}

func TestUserService_RegisterRejects(t *testing.T) {
	tests := []struct {
		name     string
		email    string
		password string
		wantErr  error
	}{
		{name: "bad email", email: "not-an-email", password: "secret1", wantErr: ErrInvalidUserInput},
		{name: "short password", email: "a@example.com", password: "123", wantErr: ErrWeakPassword},
		{name: "empty password", email: "a@example.com", password: "", wantErr: ErrWeakPassword},
		{name: "password over 72 bytes", email: "a@example.com", password: strings.Repeat("x", 73), wantErr: ErrPasswordTooLong},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _ := newUserService(t)
			_, err := svc.Register(context.Background(), "A", tt.email, tt.password)
			require.ErrorIs(t, err, tt.wantErr)
			assert.ErrorIs(t, err, ErrValidation)
		})
	}
}

func TestUserService_DuplicateEmail(t *testing.T) {
	svc, _ := newUserService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, "A", "a@example.com", "secret1")
	require.NoError(t, err)
	_, err = svc.Register(ctx, "B", "A@example.com", "secret2")
	assert.ErrorIs(t, err, repository.ErrUserEmailExists)
}

func TestUserService_LoginRejects(t *testing.T) {
	svc, _ := newUserService(t)
	ctx := context.Background()
	_, err := svc.Register(ctx, "A", "a@example.com", "secret1")
	require.NoError(t, err)

	_, _, err = svc.Login(ctx, "a@example.com", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, _, err = svc.Login(ctx, "nobody@example.com", "secret1")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestUserService_UpdateCredentials(t *testing.T) {
	svc, _ := newUserService(t)
	ctx := context.Background()
	a, err := svc.Register(ctx, "A", "a@example.com", "secret1")
	require.NoError(t, err)
	_, err = svc.Register(ctx, "B", "b@example.com", "secret2")
	require.NoError(t, err)

	_, err = svc.UpdateEmail(ctx, a.ID, "b@example.com")
	assert.ErrorIs(t, err, repository.ErrUserEmailExists)

	updated, err := svc.UpdateEmail(ctx, a.ID, "new@example.com")
	require.NoError(t, err)
	assert.Equal(t, "new@example.com", updated.Email)

	err = svc.UpdatePassword(ctx, a.ID, strings.Repeat("ü", 40))
	require.ErrorIs(t, err, ErrPasswordTooLong)
	assert.ErrorIs(t, err, ErrValidation)

	require.NoError(t, svc.UpdatePassword(ctx, a.ID, "another1"))
	_, _, err = svc.Login(ctx, "new@example.com", "secret1")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, _, err = svc.Login(ctx, "new@example.com", "another1")
	assert.NoError(t, err)
}
