package realtime

import (
	"context"
	"sync"
	"sync/atomic"
)

// MemoryFeed is an in-process Feed. Handlers run synchronously on the
// publishing goroutine, outside the feed's lock.
type MemoryFeed struct {
	mu     sync.RWMutex
	nextID uint64
	subs   map[uint64]*memorySubscription
}

func NewMemoryFeed() *MemoryFeed {
	return &MemoryFeed{subs: make(map[uint64]*memorySubscription)}
}

type memorySubscription struct {
	feed    *MemoryFeed
	id      uint64
	table   Table
	filter  Filter
	handler Handler
	closed  atomic.Bool
}

func (f *MemoryFeed) Subscribe(ctx context.Context, table Table, filter Filter, handler Handler) (Subscription, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	f.nextID++
	sub := &memorySubscription{
		feed:    f,
		id:      f.nextID,
		table:   table,
		filter:  filter,
		handler: handler,
	}
	f.subs[sub.id] = sub
	return sub, nil
}

func (f *MemoryFeed) Publish(ctx context.Context, event Event) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	f.mu.RLock()
	targets := make([]*memorySubscription, 0, len(f.subs))
	for _, sub := range f.subs {
		if sub.table == event.Table {
			targets = append(targets, sub)
		}
	}
	f.mu.RUnlock()

	for _, sub := range targets {
		if sub.closed.Load() || !sub.filter.Match(event) {
			continue
		}
		sub.handler(event)
	}
	return nil
}

// Subscribers returns the number of open subscriptions.
func (f *MemoryFeed) Subscribers() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.subs)
}

func (s *memorySubscription) Unsubscribe() error {
	if s.closed.Swap(true) {
		return nil
	}
	s.feed.mu.Lock()
	delete(s.feed.subs, s.id)
	s.feed.mu.Unlock()
	return nil
}
