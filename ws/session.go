package ws

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"chatroom/domain"
	"chatroom/sink"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
)

// Session is one live client connection and its protocol state:
// Unauthenticated -> Authenticated(identity) -> Joined(room)*.
// The identity is immutable once set; the joined set guards the
// per-room preconditions. The session owns its sink exclusively and
// is destroyed on disconnect.
type Session struct {
	id      uuid.UUID
	ws      *websocket.Conn
	sink    *sink.Sink
	handler *Handler
	log     *slog.Logger

	mu       sync.Mutex
	identity *domain.Identity
	joined   map[string]struct{}
}

func newSession(ws *websocket.Conn, handler *Handler, log *slog.Logger, bufferSize int) *Session {
	id := uuid.New()
	return &Session{
		id:      id,
		ws:      ws,
		sink:    sink.New(log.With("session", id.String()), bufferSize),
		handler: handler,
		log:     log.With("session", id.String()),
		joined:  make(map[string]struct{}),
	}
}

// Start runs the read and write pumps. It returns immediately; the
// session lives until the socket closes.
func (s *Session) Start() {
	go s.writePump()
	go s.readPump()
}

func (s *Session) Identity() *domain.Identity {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.identity
}

func (s *Session) setIdentity(identity domain.Identity) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.identity = &identity
}

func (s *Session) isJoined(room string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.joined[room]
	return ok
}

func (s *Session) markJoined(room string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.joined[room] = struct{}{}
}

func (s *Session) unmarkJoined(room string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.joined, room)
}

func (s *Session) readPump() {
	defer func() {
		s.handler.disconnect(s)
		s.ws.Close()
	}()

	s.ws.SetReadLimit(maxMessageSize)
	s.ws.SetReadDeadline(time.Now().Add(pongWait))
	s.ws.SetPongHandler(func(string) error {
		s.ws.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, data, err := s.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				s.log.Error("read error", "error", err)
			}
			return
		}
		s.handler.Handle(context.Background(), s, data)
	}
}

func (s *Session) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		s.ws.Close()
	}()

	for {
		select {
		case evt := <-s.sink.Events():
			s.ws.SetWriteDeadline(time.Now().Add(writeWait))
			frame, err := encodeEvent(evt)
			if err != nil {
				s.log.Error("encode error", "event", evt.EventType(), "error", err)
				continue
			}
			if err := s.ws.WriteMessage(websocket.TextMessage, frame); err != nil {
				return
			}
		case <-ticker.C:
			s.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
