// Package auth supplies the authenticated identity every room and
// message operation runs under.
package auth

import (
	"context"
	"errors"

	"github.com/immxrtalbeast/axenix_chat/internal/domain"
)

var ErrNoSession = errors.New("no authenticated session")

type ctxKey struct{}

func WithIdentity(ctx context.Context, id domain.Identity) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}

func IdentityFrom(ctx context.Context) (domain.Identity, bool) {
	id, ok := ctx.Value(ctxKey{}).(domain.Identity)
	if !ok || id.IsZero() {
		return domain.Identity{}, false
	}
	return id, true
}

// Provider answers "who is calling".
type Provider interface {
	CurrentUser(ctx context.Context) (domain.Identity, error)
}

// ContextProvider reads the identity placed in the context by the HTTP
// middleware.
type ContextProvider struct{}

func (ContextProvider) CurrentUser(ctx context.Context) (domain.Identity, error) {
	id, ok := IdentityFrom(ctx)
	if !ok {
		return domain.Identity{}, ErrNoSession
	}
	return id, nil
}
