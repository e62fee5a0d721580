package http

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/immxrtalbeast/axenix_chat/internal/api/http/converter"
	"github.com/immxrtalbeast/axenix_chat/internal/domain"
	"github.com/immxrtalbeast/axenix_chat/internal/realtime"
	"github.com/immxrtalbeast/axenix_chat/internal/service"
	"github.com/immxrtalbeast/axenix_chat/lib/logger/sl"
	"golang.org/x/sync/errgroup"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = 54 * time.Second
	maxFrameBytes  = 16 << 10
	sendBufferSize = 256
)

var (
	errRoomDeleted  = errors.New("room deleted")
	errSlowConsumer = errors.New("send buffer full")
)

// clientFrame is what a stream client sends.
type clientFrame struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// StreamController serves a room's message log over a websocket: one
// snapshot frame, then a frame per new message.
type StreamController struct {
	access   service.AccessInteractor
	messages *service.MessageService
	feed     realtime.Feed
	upgrader websocket.Upgrader
	log      *slog.Logger
}

func NewStreamController(access service.AccessInteractor, messages *service.MessageService, feed realtime.Feed, log *slog.Logger) *StreamController {
	return &StreamController{
		access:   access,
		messages: messages,
		feed:     feed,
		log:      log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
	}
}

func (c *StreamController) Stream(ctx *gin.Context) {
	const op = "http.stream"

	user, ok := currentUser(ctx)
	if !ok {
		return
	}
	roomID, ok := parseRoomID(ctx)
	if !ok {
		return
	}
	if err := c.access.RequireMember(ctx.Request.Context(), roomID, user.ID); err != nil {
		writeError(ctx, err)
		return
	}

	log := c.log.With(
		slog.String("op", op),
		slog.String("room_id", roomID.String()),
		slog.String("user_id", user.ID.String()),
	)

	conn, err := c.upgrader.Upgrade(ctx.Writer, ctx.Request, nil)
	if err != nil {
		log.Warn("websocket upgrade failed", sl.Err(err))
		return
	}
	defer conn.Close()

	s := newSession(conn)
	syncer := service.NewSynchronizer(c.messages, c.feed, service.SyncListener{
		OnAppend: func(m *domain.Message) { s.enqueue(converter.MessageFrame(m)) },
		OnClosed: func(uuid.UUID) { s.stop(errRoomDeleted) },
	}, log)

	reqCtx := ctx.Request.Context()
	snapshot, err := syncer.Attach(reqCtx, roomID)
	if err != nil {
		log.Error("attach failed", sl.Err(err))
		_ = s.write(converter.ErrorFrame(publicMessage(err)))
		return
	}
	defer syncer.Detach()

	if err := s.write(converter.SnapshotFrame(snapshot)); err != nil {
		return
	}
	log.Info("stream opened", slog.Int("snapshot", len(snapshot)))

	g, gctx := errgroup.WithContext(reqCtx)
	g.Go(func() error { return s.writePump(gctx) })
	g.Go(func() error { return s.readPump(gctx, syncer, user) })

	err = g.Wait()
	switch {
	case errors.Is(err, errRoomDeleted):
		log.Info("stream closed: room deleted")
	case errors.Is(err, errSlowConsumer):
		log.Warn("stream closed: client too slow")
	case err != nil && !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway):
		log.Debug("stream closed", sl.Err(err))
	}
}

type session struct {
	conn *websocket.Conn
	send chan converter.StreamFrame

	once   sync.Once
	done   chan struct{}
	reason error
}

func newSession(conn *websocket.Conn) *session {
	return &session{
		conn: conn,
		send: make(chan converter.StreamFrame, sendBufferSize),
		done: make(chan struct{}),
	}
}

// enqueue never blocks. A client that cannot keep up is disconnected.
func (s *session) enqueue(f converter.StreamFrame) {
	select {
	case s.send <- f:
	default:
		s.stop(errSlowConsumer)
	}
}

func (s *session) stop(reason error) {
	s.once.Do(func() {
		s.reason = reason
		close(s.done)
	})
}

func (s *session) write(f converter.StreamFrame) error {
	_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return s.conn.WriteJSON(f)
}

// writePump owns every write after the snapshot. Closing the connection on
// exit unblocks readPump.
func (s *session) writePump(ctx context.Context) error {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = s.conn.Close()
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-s.done:
			if errors.Is(s.reason, errRoomDeleted) {
				_ = s.write(converter.StreamFrame{Type: converter.FrameRoomDeleted})
			}
			_ = s.conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, s.reason.Error()),
				time.Now().Add(writeWait))
			return s.reason
		case f := <-s.send:
			if err := s.write(f); err != nil {
				return err
			}
		case <-ticker.C:
			_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return err
			}
		}
	}
}

func (s *session) readPump(ctx context.Context, syncer *service.Synchronizer, user domain.Identity) error {
	s.conn.SetReadLimit(maxFrameBytes)
	_ = s.conn.SetReadDeadline(time.Now().Add(pongWait))
	s.conn.SetPongHandler(func(string) error {
		return s.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		var f clientFrame
		if err := s.conn.ReadJSON(&f); err != nil {
			return err
		}

		switch f.Type {
		case converter.FrameMessage:
			if _, err := syncer.Post(ctx, user, f.Text); err != nil {
				s.enqueue(converter.ErrorFrame(publicMessage(err)))
			}
		default:
			s.enqueue(converter.ErrorFrame("unknown frame type"))
		}
	}
}
