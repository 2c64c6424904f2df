package ws

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"
)

// Server upgrades HTTP requests into chat sessions.
type Server struct {
	upgrader   websocket.Upgrader
	handler    *Handler
	log        *slog.Logger
	bufferSize int
}

func NewServer(log *slog.Logger, handler *Handler, bufferSize int) *Server {
	return &Server{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Token auth happens on the first frame; origins are not
			// restricted, as with the upstream SocketIO deployment.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		handler:    handler,
		log:        log,
		bufferSize: bufferSize,
	}
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Error("upgrade error", "error", err)
		return
	}
	newSession(conn, s.handler, s.log, s.bufferSize).Start()
}
