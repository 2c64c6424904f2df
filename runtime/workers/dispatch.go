package workers

import (
	"context"
	"log/slog"
	"sync/atomic"

	"chatroom/contract"
	"chatroom/domain"
	"chatroom/domain/event"
	apperrors "chatroom/errors"
	"chatroom/repositories"
)

var _ contract.Worker = (*DispatchWorker)(nil)

// DispatchWorker is the single dispatch point of the broadcast engine.
// Every room mutation, persistence write, and fanout happens on this
// goroutine, which is what gives events their total order: a member
// sees messages in the same order they were persisted, and a joining
// session gets a message either in its history replay or in the live
// broadcast, never both and never neither.
//
// Persistence happens here without holding the registry locks, so a
// slow disk never blocks membership reads.
type DispatchWorker struct {
	log          *slog.Logger
	presence     contract.IPresence
	registry     contract.IRegistry
	messages     repositories.IMessageRepository
	historyLimit int
	roomOps      <-chan domain.Command
	sinks        []contract.EventSink
	failures     atomic.Uint64
}

func NewDispatchWorker(log *slog.Logger,
	presence contract.IPresence, registry contract.IRegistry,
	messages repositories.IMessageRepository, historyLimit int,
	roomOps <-chan domain.Command, sinks []contract.EventSink) *DispatchWorker {
	return &DispatchWorker{
		log:          log,
		presence:     presence,
		registry:     registry,
		messages:     messages,
		historyLimit: historyLimit,
		roomOps:      roomOps,
		sinks:        sinks,
	}
}

func (w *DispatchWorker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			w.log.Debug("Stopping worker")
			return ctx.Err()
		case cmd, ok := <-w.roomOps:
			if !ok {
				w.log.Debug("Channel is closed")
				return nil
			}
			w.handle(ctx, cmd)
		}
	}
}

// DeliveryFailures reports how many per-recipient deliveries were
// refused by a sink. Failures never abort a broadcast.
func (w *DispatchWorker) DeliveryFailures() uint64 {
	return w.failures.Load()
}

func (w *DispatchWorker) handle(ctx context.Context, cmd domain.Command) {
	switch c := cmd.(type) {
	case domain.PostMessageCommand:
		w.postMessage(ctx, c)
	case domain.JoinRoomCommand:
		w.joinRoom(ctx, c)
	case domain.LeaveRoomCommand:
		w.leaveRoom(ctx, c)
	case domain.TypingCommand:
		w.typing(ctx, c)
	case domain.PresenceCommand:
		w.announcePresence(ctx, c)
	default:
		w.log.Warn("Unknown command kind", "room", cmd.RoomName())
	}
}

// postMessage persists first, broadcasts second. A message that could
// not be durably saved is never delivered; the failure goes back to
// the sender only and the room stays consistent.
func (w *DispatchWorker) postMessage(ctx context.Context, cmd domain.PostMessageCommand) {
	message, err := w.messages.SaveMessage(cmd.Room, cmd.Author, cmd.Content)
	if err != nil {
		w.log.Error("Message persistence failed", "room", cmd.Room, "author", cmd.Author, "error", err)
		w.fanout(ctx, event.Error{
			Code:   apperrors.Code(apperrors.ErrPersistence),
			Reason: "message could not be saved",
			Target: cmd.Author,
		})
		return
	}
	w.fanout(ctx, event.FromMessage(message))
}

// joinRoom replays recent history to the joining session only, then
// announces the join to the whole room. The history fetch runs before
// the membership mutation so a storage failure leaves nothing to roll
// back.
//
// A join queued behind a disconnect is discarded: membership without a
// presence entry would leak a ghost member.
func (w *DispatchWorker) joinRoom(ctx context.Context, cmd domain.JoinRoomCommand) {
	if !w.presence.IsOnline(cmd.Username) {
		w.log.Debug("Dropping join for offline session", "room", cmd.Room, "username", cmd.Username)
		return
	}

	recent, err := w.messages.Recent(cmd.Room, w.historyLimit)
	if err != nil {
		w.log.Error("History fetch failed", "room", cmd.Room, "error", err)
		w.fanout(ctx, event.Error{
			Code:   apperrors.Code(apperrors.ErrPersistence),
			Reason: "history unavailable",
			Target: cmd.Username,
		})
		return
	}

	w.registry.Join(cmd.Room, cmd.Username)

	for _, message := range recent {
		replay := event.FromMessage(message)
		replay.ReplayTo = cmd.Username
		w.fanout(ctx, replay)
	}

	w.fanout(ctx, event.RoomJoined{
		Room:        cmd.Room,
		Username:    cmd.Username,
		ActiveUsers: w.registry.Members(cmd.Room),
	})
}

func (w *DispatchWorker) leaveRoom(ctx context.Context, cmd domain.LeaveRoomCommand) {
	w.registry.Leave(cmd.Room, cmd.Username)
	w.fanout(ctx, event.RoomLeft{
		Room:        cmd.Room,
		Username:    cmd.Username,
		ActiveUsers: w.registry.Members(cmd.Room),
	})
}

func (w *DispatchWorker) typing(ctx context.Context, cmd domain.TypingCommand) {
	if cmd.Stopped {
		w.fanout(ctx, event.UserStopTyping{Username: cmd.Username, Room: cmd.Room})
		return
	}
	w.fanout(ctx, event.UserTyping{Username: cmd.Username, Room: cmd.Room})
}

func (w *DispatchWorker) announcePresence(ctx context.Context, cmd domain.PresenceCommand) {
	online := w.presence.Online()
	if cmd.Left {
		w.fanout(ctx, event.UserLeft{Username: cmd.Username, ActiveUsers: online})
		return
	}
	w.fanout(ctx, event.UserJoined{Username: cmd.Username, ActiveUsers: online})
}

// fanout delivers one event to every connection its route selects,
// plus the permanent sinks. Delivery is best effort: a refusing sink
// is counted and skipped, never aborting delivery to other members. A
// member disconnecting mid-fanout simply stops draining its queue; the
// late write lands in the abandoned buffer and is discarded with it.
func (w *DispatchWorker) fanout(ctx context.Context, e event.Event) {
	route := e.Route()
	switch {
	case route.Target != "":
		if s, ok := w.presence.SinkOf(route.Target); ok {
			w.deliver(ctx, s, e)
		}
	case route.Room != "":
		for _, username := range w.registry.Members(route.Room) {
			if username == route.ExcludeUser {
				continue
			}
			if s, ok := w.presence.SinkOf(username); ok {
				w.deliver(ctx, s, e)
			}
		}
	default:
		for _, member := range w.presence.Sessions() {
			w.deliver(ctx, member.Sink, e)
		}
	}

	for _, s := range w.sinks {
		w.deliver(ctx, s, e)
	}
}

func (w *DispatchWorker) deliver(ctx context.Context, s contract.EventSink, e event.Event) {
	if err := s.Consume(ctx, e); err != nil {
		w.failures.Add(1)
		w.log.Debug("Event delivery refused", "event", e.EventType(), "error", err)
	}
}
