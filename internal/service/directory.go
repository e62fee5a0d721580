package service

import (
	"cmp"
	"context"
	"errors"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/immxrtalbeast/axenix_chat/internal/domain"
	"github.com/immxrtalbeast/axenix_chat/internal/realtime"
	"github.com/immxrtalbeast/axenix_chat/internal/repository"
	"github.com/immxrtalbeast/axenix_chat/lib/logger/sl"
)

// Directory holds the room catalog. The catalog is replaced as a whole on
// every refresh, readers never see a partially applied update.
type Directory struct {
	rooms   repository.RoomRepository
	members repository.MembershipRepository
	feed    realtime.Feed
	hasher  PasswordHasher
	log     *slog.Logger

	seq atomic.Uint64

	mu        sync.RWMutex
	catalog   []*domain.Room
	installed uint64
	loaded    bool
	sub       realtime.Subscription
}

func NewDirectory(
	rooms repository.RoomRepository,
	members repository.MembershipRepository,
	feed realtime.Feed,
	hasher PasswordHasher,
	log *slog.Logger,
) *Directory {
	return &Directory{
		rooms:   rooms,
		members: members,
		feed:    feed,
		hasher:  hasher,
		log:     log,
	}
}

// Start loads the catalog and refreshes it on every change to the rooms
// table. The subscription lives until Close.
func (d *Directory) Start(ctx context.Context) error {
	const op = "service.directory.start"
	log := d.log.With(slog.String("op", op))

	sub, err := d.feed.Subscribe(ctx, realtime.TableRooms, realtime.Filter{}, func(e realtime.Event) {
		if err := d.Refresh(context.Background()); err != nil {
			log.Warn("catalog refresh after change failed",
				slog.String("kind", string(e.Kind)),
				slog.String("room_id", e.RoomID.String()),
				sl.Err(err),
			)
		}
	})
	if err != nil {
		log.Error("failed to subscribe to rooms", sl.Err(err))
		return remote(op, err)
	}

	d.mu.Lock()
	prev := d.sub
	d.sub = sub
	d.mu.Unlock()
	if prev != nil {
		_ = prev.Unsubscribe()
	}

	return d.Refresh(ctx)
}

func (d *Directory) Close() error {
	d.mu.Lock()
	sub := d.sub
	d.sub = nil
	d.mu.Unlock()

	if sub == nil {
		return nil
	}
	return sub.Unsubscribe()
}

// Refresh re-reads the catalog. A refresh that started before another one
// already installed its result is dropped.
func (d *Directory) Refresh(ctx context.Context) error {
	const op = "service.directory.refresh"

	seq := d.seq.Add(1)
	rooms, err := d.rooms.List(ctx)
	if err != nil {
		return remote(op, err)
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if seq < d.installed {
		d.log.Debug("stale catalog dropped", slog.String("op", op), slog.Uint64("seq", seq))
		return nil
	}
	d.catalog = rooms
	d.installed = seq
	d.loaded = true
	return nil
}

func (d *Directory) snapshot(ctx context.Context) ([]*domain.Room, error) {
	d.mu.RLock()
	loaded := d.loaded
	catalog := d.catalog
	d.mu.RUnlock()

	if loaded {
		return catalog, nil
	}
	if err := d.Refresh(ctx); err != nil {
		return nil, err
	}

	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.catalog, nil
}

// List returns the catalog with the caller's own rooms first.
func (d *Directory) List(ctx context.Context, session domain.Identity) ([]*domain.Room, error) {
	catalog, err := d.snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return OrderRooms(catalog, session.ID), nil
}

func (d *Directory) Search(ctx context.Context, session domain.Identity, query string) ([]*domain.Room, error) {
	catalog, err := d.snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return FilterRooms(query, catalog, session.ID), nil
}

// Create stores a new room and enrolls the owner as its first member, so
// the owner counts toward the room's capacity.
func (d *Directory) Create(ctx context.Context, owner domain.Identity, in CreateRoomInput) (*domain.Room, error) {
	const op = "service.directory.create"
	log := d.log.With(
		slog.String("op", op),
		slog.String("owner_id", owner.ID.String()),
	)

	in.Name = strings.TrimSpace(in.Name)
	if err := validateStruct(in, fieldErrors{
		"Name":     ErrRoomNameRequired,
		"Password": ErrPasswordRequired,
		"MaxUsers": ErrInvalidMaxUsers,
	}, ErrValidation); err != nil {
		log.Info("invalid room input", sl.Err(err))
		return nil, err
	}
	if err := checkPasswordLength(in.Password); err != nil {
		return nil, err
	}

	hash, err := d.hasher.Hash(in.Password)
	if err != nil {
		log.Error("failed to hash room password", sl.Err(err))
		return nil, err
	}

	room := domain.NewRoom(in.Name, hash, in.MaxUsers, owner)
	if err := d.rooms.Create(ctx, room); err != nil {
		log.Error("failed to create room", sl.Err(err))
		return nil, remote(op, err)
	}

	err = d.members.Create(ctx, domain.NewMembership(room.ID, owner.ID))
	if err != nil && !errors.Is(err, repository.ErrMembershipExists) {
		log.Error("room created but owner membership failed",
			slog.String("room_id", room.ID.String()),
			sl.Err(err),
		)
		return nil, remote(op, err)
	}

	if err := d.Refresh(ctx); err != nil {
		log.Warn("catalog refresh after create failed", sl.Err(err))
	}

	log.Info("room created", slog.String("room_id", room.ID.String()))
	return room, nil
}

// OrderRooms returns a copy of rooms with those owned by userID first,
// each group newest first.
func OrderRooms(rooms []*domain.Room, userID uuid.UUID) []*domain.Room {
	out := make([]*domain.Room, 0, len(rooms))
	for _, r := range rooms {
		out = append(out, r.Clone())
	}

	slices.SortFunc(out, func(a, b *domain.Room) int {
		aOwn, bOwn := a.IsOwnedBy(userID), b.IsOwnedBy(userID)
		if aOwn != bOwn {
			if aOwn {
				return -1
			}
			return 1
		}
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.ID.String(), b.ID.String())
	})
	return out
}

// FilterRooms keeps rooms whose id or name contains query, ignoring case,
// and orders the result like OrderRooms. A blank query keeps everything.
func FilterRooms(query string, catalog []*domain.Room, userID uuid.UUID) []*domain.Room {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return OrderRooms(catalog, userID)
	}

	matched := make([]*domain.Room, 0, len(catalog))
	for _, r := range catalog {
		if strings.Contains(strings.ToLower(r.ID.String()), q) ||
			strings.Contains(strings.ToLower(r.Name), q) {
			matched = append(matched, r)
		}
	}
	return OrderRooms(matched, userID)
}
