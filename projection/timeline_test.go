package projection

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"chatroom/domain/event"
)

func broadcast(content string) event.MessageBroadcast {
	return event.MessageBroadcast{
		ID:       uuid.New(),
		Content:  content,
		Username: "alice",
		Room:     "general",
	}
}

func TestTimeline_Retains_Last_Messages_Only(t *testing.T) {
	req := require.New(t)
	timeline := NewTimeline(3)

	for i := 1; i <= 5; i++ {
		req.NoError(timeline.Consume(context.Background(), broadcast(fmt.Sprintf("message %d", i))))
	}

	snapshot := timeline.Snapshot()
	req.Len(snapshot, 3)
	req.Equal("message 3", snapshot[0].Content)
	req.Equal("message 5", snapshot[2].Content)
}

func TestTimeline_Ignores_Replays_And_Other_Events(t *testing.T) {
	req := require.New(t)
	timeline := NewTimeline(10)

	// Given a replayed message and a non-message event
	replay := broadcast("old news")
	replay.ReplayTo = "bob"
	req.NoError(timeline.Consume(context.Background(), replay))
	req.NoError(timeline.Consume(context.Background(), event.UserTyping{Username: "alice", Room: "general"}))

	// Then neither is retained
	req.Empty(timeline.Snapshot())
}

func TestTimeline_Snapshot_Is_A_Copy(t *testing.T) {
	req := require.New(t)
	timeline := NewTimeline(10)

	req.NoError(timeline.Consume(context.Background(), broadcast("hello")))

	snapshot := timeline.Snapshot()
	snapshot[0].Content = "tampered"

	req.Equal("hello", timeline.Snapshot()[0].Content)
}
