package blob

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
)

const defaultContentType = "application/octet-stream"

// JetStreamStore keeps blobs in a NATS JetStream object store bucket.
// Public URLs point at the HTTP blob route, which reads back through Get.
type JetStreamStore struct {
	conn    *nats.Conn
	store   jetstream.ObjectStore
	baseURL string
}

// NewJetStreamStore connects to NATS and opens (or creates) bucket.
func NewJetStreamStore(ctx context.Context, natsURL, bucket, baseURL string) (*JetStreamStore, error) {
	conn, err := nats.Connect(natsURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	js, err := jetstream.New(conn)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to create JetStream context: %w", err)
	}

	store, err := js.ObjectStore(ctx, bucket)
	if err != nil {
		store, err = js.CreateObjectStore(ctx, jetstream.ObjectStoreConfig{
			Bucket:      bucket,
			Description: "Chat image uploads",
		})
		if err != nil {
			conn.Close()
			return nil, fmt.Errorf("failed to create object store bucket: %w", err)
		}
	}

	return &JetStreamStore{conn: conn, store: store, baseURL: baseURL}, nil
}

func (s *JetStreamStore) Upload(ctx context.Context, path string, data []byte, contentType string) error {
	if contentType == "" {
		contentType = defaultContentType
	}
	meta := jetstream.ObjectMeta{
		Name: path,
		Headers: nats.Header{
			"Content-Type": []string{contentType},
		},
	}
	if _, err := s.store.Put(ctx, meta, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("failed to store object: %w", err)
	}
	return nil
}

func (s *JetStreamStore) Get(ctx context.Context, path string) (*Object, error) {
	info, err := s.store.GetInfo(ctx, path)
	if err != nil {
		if errors.Is(err, jetstream.ErrObjectNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get object info: %w", err)
	}

	data, err := s.store.GetBytes(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("failed to get object: %w", err)
	}

	contentType := defaultContentType
	if info.Headers != nil {
		if ct := info.Headers.Get("Content-Type"); ct != "" {
			contentType = ct
		}
	}

	return &Object{Data: data, ContentType: contentType}, nil
}

func (s *JetStreamStore) PublicURL(path string) string {
	return joinURL(s.baseURL, path)
}

func (s *JetStreamStore) Close() {
	s.conn.Close()
}
