package projection

import (
	"context"
	"sync"

	"chatroom/domain/event"
)

// Timeline is a permanent sink keeping the most recent broadcast
// messages in memory, surfaced by the /stats endpoint.
type Timeline struct {
	mu       sync.Mutex
	limit    int
	messages []event.MessageBroadcast
}

func NewTimeline(limit int) *Timeline {
	return &Timeline{limit: limit}
}

func (t *Timeline) Consume(_ context.Context, e event.Event) error {
	message, ok := e.(event.MessageBroadcast)
	if !ok || message.ReplayTo != "" {
		return nil
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	t.messages = append(t.messages, message)
	if len(t.messages) > t.limit {
		t.messages = t.messages[len(t.messages)-t.limit:]
	}
	return nil
}

// Snapshot returns the retained messages, newest last.
func (t *Timeline) Snapshot() []event.MessageBroadcast {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]event.MessageBroadcast, len(t.messages))
	copy(out, t.messages)
	return out
}
