// Package blob stores uploaded binaries and hands out URLs that resolve
// to them.
package blob

import (
	"context"
	"errors"
	"strings"
)

//go:generate mockgen -source=store.go -destination=mocks/mock_store.go -package=mocks

var ErrNotFound = errors.New("blob not found")

type Object struct {
	Data        []byte
	ContentType string
}

type Store interface {
	Upload(ctx context.Context, path string, data []byte, contentType string) error
	Get(ctx context.Context, path string) (*Object, error)
	PublicURL(path string) string
}

func joinURL(base, path string) string {
	return strings.TrimRight(base, "/") + "/" + strings.TrimLeft(path, "/")
}
