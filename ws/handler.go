package ws

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"chatroom/auth"
	"chatroom/domain"
	"chatroom/domain/event"
	apperrors "chatroom/errors"
	"chatroom/services"
)

// HandlerFunc processes one inbound event for a session. A returned
// error is reported to that session only, as an error event.
type HandlerFunc func(ctx context.Context, s *Session, in Inbound) error

// Handler validates inbound events against session state and turns
// them into engine commands. Routing goes through an explicit dispatch
// table keyed by event name.
type Handler struct {
	chat             services.IChatService
	tokens           *auth.TokenManager
	maxContentLength int
	log              *slog.Logger
	table            map[string]HandlerFunc
}

func NewHandler(log *slog.Logger, chat services.IChatService,
	tokens *auth.TokenManager, maxContentLength int) *Handler {
	h := &Handler{
		chat:             chat,
		tokens:           tokens,
		maxContentLength: maxContentLength,
		log:              log,
	}
	h.table = map[string]HandlerFunc{
		AuthenticateEvent: h.authenticate,
		JoinRoomEvent:     h.joinRoom,
		LeaveRoomEvent:    h.leaveRoom,
		SendMessageEvent:  h.sendMessage,
		TypingEvent:       h.typing,
		StopTypingEvent:   h.stopTyping,
	}
	return h
}

func (h *Handler) Handle(ctx context.Context, s *Session, data []byte) {
	var in Inbound
	if err := json.Unmarshal(data, &in); err != nil {
		h.log.Warn("invalid frame", "error", err)
		h.sendError(ctx, s, "validation_error", "malformed event")
		return
	}

	fn, ok := h.table[in.Event]
	if !ok {
		h.sendError(ctx, s, "validation_error", fmt.Sprintf("unknown event %q", in.Event))
		return
	}

	if err := fn(ctx, s, in); err != nil {
		h.sendError(ctx, s, apperrors.Code(err), err.Error())
	}
}

// sendError queues a protocol error on the offending session's own
// sink, so it stays ordered with the rest of its outbound stream and
// never touches other members.
func (h *Handler) sendError(ctx context.Context, s *Session, code, reason string) {
	if err := s.sink.Consume(ctx, event.Error{Code: code, Reason: reason}); err != nil {
		h.log.Debug("error event dropped", "code", code, "error", err)
	}
}

// authenticate must be the first event of a connection. The token is
// verified locally; the presence registration decides whether this
// identity may hold a second session.
func (h *Handler) authenticate(_ context.Context, s *Session, in Inbound) error {
	if s.Identity() != nil {
		return fmt.Errorf("%w: session already authenticated", apperrors.ErrValidation)
	}

	claims, err := h.tokens.Validate(in.Token)
	if err != nil {
		return fmt.Errorf("%w: %v", apperrors.ErrUnauthorized, err)
	}

	userID, err := uuid.Parse(claims.UserID)
	if err != nil {
		return fmt.Errorf("%w: malformed subject", apperrors.ErrUnauthorized)
	}

	if err := h.chat.Connect(claims.Username, s.sink); err != nil {
		return err
	}
	s.setIdentity(domain.Identity{ID: userID, Username: claims.Username})
	h.log.Info("session authenticated", "username", claims.Username)
	return nil
}

func (h *Handler) joinRoom(_ context.Context, s *Session, in Inbound) error {
	identity := s.Identity()
	if identity == nil {
		return apperrors.ErrUnauthorized
	}
	if in.Room == "" {
		return fmt.Errorf("%w: room name required", apperrors.ErrValidation)
	}

	exists, err := h.chat.RoomExists(in.Room)
	if err != nil {
		return err
	}
	if !exists {
		return fmt.Errorf("%w: %q", apperrors.ErrRoomNotFound, in.Room)
	}

	s.markJoined(in.Room)
	h.chat.Dispatch(domain.JoinRoomCommand{Room: in.Room, Username: identity.Username})
	return nil
}

func (h *Handler) leaveRoom(_ context.Context, s *Session, in Inbound) error {
	identity := s.Identity()
	if identity == nil {
		return apperrors.ErrUnauthorized
	}
	if !s.isJoined(in.Room) {
		return fmt.Errorf("%w: room %q not joined", apperrors.ErrValidation, in.Room)
	}

	s.unmarkJoined(in.Room)
	h.chat.Dispatch(domain.LeaveRoomCommand{Room: in.Room, Username: identity.Username})
	return nil
}

func (h *Handler) sendMessage(_ context.Context, s *Session, in Inbound) error {
	identity := s.Identity()
	if identity == nil {
		return apperrors.ErrUnauthorized
	}
	if !s.isJoined(in.Room) {
		return fmt.Errorf("%w: room %q not joined", apperrors.ErrValidation, in.Room)
	}

	content := strings.TrimSpace(in.Message)
	if content == "" {
		return fmt.Errorf("%w: empty message", apperrors.ErrValidation)
	}
	// Characters, not bytes: multi-byte text gets the full budget.
	if len([]rune(content)) > h.maxContentLength {
		return fmt.Errorf("%w: message exceeds %d characters", apperrors.ErrValidation, h.maxContentLength)
	}

	h.chat.Dispatch(domain.PostMessageCommand{
		Room:    in.Room,
		Author:  identity.Username,
		Content: content,
		At:      time.Now().UTC(),
	})
	return nil
}

func (h *Handler) typing(ctx context.Context, s *Session, in Inbound) error {
	return h.typingSignal(s, in, false)
}

func (h *Handler) stopTyping(ctx context.Context, s *Session, in Inbound) error {
	return h.typingSignal(s, in, true)
}

func (h *Handler) typingSignal(s *Session, in Inbound, stopped bool) error {
	identity := s.Identity()
	if identity == nil {
		return apperrors.ErrUnauthorized
	}
	if !s.isJoined(in.Room) {
		return fmt.Errorf("%w: room %q not joined", apperrors.ErrValidation, in.Room)
	}

	h.chat.Dispatch(domain.TypingCommand{Room: in.Room, Username: identity.Username, Stopped: stopped})
	return nil
}

// disconnect tears the session down from any protocol state. Invoked
// by the read pump exactly once, when the socket dies.
func (h *Handler) disconnect(s *Session) {
	identity := s.Identity()
	if identity == nil {
		return
	}
	h.chat.Disconnect(identity.Username)
	h.log.Info("session disconnected", "username", identity.Username)
}
