package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"github.com/immxrtalbeast/axenix_chat/lib/logger/sl"
	"github.com/redis/go-redis/v9"
)

const defaultChannelPrefix = "chat:"

// RedisFeed fans events out over Redis pub/sub so every process serving
// the same store sees the same changes. Message events go to one channel
// per room, room events to a single catalog channel.
type RedisFeed struct {
	client *redis.Client
	prefix string
	log    *slog.Logger
}

func NewRedisFeed(client *redis.Client, log *slog.Logger) *RedisFeed {
	if log == nil {
		log = slog.Default()
	}
	return &RedisFeed{client: client, prefix: defaultChannelPrefix, log: log}
}

func (f *RedisFeed) channel(table Table, roomID uuid.UUID) string {
	if table == TableMessages {
		return fmt.Sprintf("%smessages:%s", f.prefix, roomID)
	}
	return f.prefix + string(table)
}

func (f *RedisFeed) Publish(ctx context.Context, event Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode %s event: %w", event.Table, err)
	}
	if err := f.client.Publish(ctx, f.channel(event.Table, event.RoomID), payload).Err(); err != nil {
		return fmt.Errorf("publish %s event: %w", event.Table, err)
	}
	return nil
}

func (f *RedisFeed) Subscribe(ctx context.Context, table Table, filter Filter, handler Handler) (Subscription, error) {
	const op = "realtime.redis.subscribe"

	var pubsub *redis.PubSub
	if table == TableMessages && filter.RoomID == uuid.Nil {
		pubsub = f.client.PSubscribe(ctx, f.prefix+"messages:*")
	} else {
		pubsub = f.client.Subscribe(ctx, f.channel(table, filter.RoomID))
	}

	// Wait for the subscription to be confirmed so no event published
	// after Subscribe returns can be missed.
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, fmt.Errorf("subscribe to %s: %w", table, err)
	}

	log := f.log.With(slog.String("op", op), slog.String("table", string(table)))
	sub := &redisSubscription{pubsub: pubsub}

	go func() {
		for msg := range pubsub.Channel() {
			var event Event
			if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
				log.Warn("dropping undecodable event", sl.Err(err))
				continue
			}
			if event.Table != table || !filter.Match(event) {
				continue
			}
			handler(event)
		}
	}()

	return sub, nil
}

type redisSubscription struct {
	once   sync.Once
	pubsub *redis.PubSub
	err    error
}

func (s *redisSubscription) Unsubscribe() error {
	s.once.Do(func() {
		s.err = s.pubsub.Close()
	})
	return s.err
}
