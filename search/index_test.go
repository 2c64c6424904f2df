package search

import (
	"context"
	"log/slog"
	"testing"

	"github.com/blugelabs/bluge"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"chatroom/domain/event"
)

func openTestIndex(t *testing.T) *Index {
	t.Helper()
	writer, err := bluge.OpenWriter(bluge.DefaultConfig(t.TempDir()))
	require.NoError(t, err)
	t.Cleanup(func() { _ = writer.Close() })
	return NewIndex(writer, slog.New(slog.DiscardHandler))
}

func indexMessage(t *testing.T, index *Index, room, username, content string) uuid.UUID {
	t.Helper()
	id := uuid.New()
	err := index.Consume(context.Background(), event.MessageBroadcast{
		ID:        id,
		Content:   content,
		Timestamp: "10:30:00",
		Username:  username,
		Room:      room,
	})
	require.NoError(t, err)
	return id
}

func TestIndex_Search_Finds_Matching_Content(t *testing.T) {
	req := require.New(t)
	index := openTestIndex(t)

	id := indexMessage(t, index, "general", "alice", "deployment finished on friday")
	indexMessage(t, index, "general", "bob", "lunch plans anyone")

	hits, err := index.Search(context.Background(), "", "deployment", 10)
	req.NoError(err)

	req.Len(hits, 1)
	req.Equal(id.String(), hits[0].ID)
	req.Equal("alice", hits[0].Username)
	req.Equal("general", hits[0].Room)
	req.Equal("deployment finished on friday", hits[0].Content)
	req.Equal("10:30:00", hits[0].Timestamp)
}

func TestIndex_Search_Scoped_To_Room(t *testing.T) {
	req := require.New(t)
	index := openTestIndex(t)

	indexMessage(t, index, "general", "alice", "release notes are ready")
	indexMessage(t, index, "random", "bob", "release the hounds")

	hits, err := index.Search(context.Background(), "random", "release", 10)
	req.NoError(err)

	req.Len(hits, 1)
	req.Equal("random", hits[0].Room)
}

func TestIndex_Search_No_Match(t *testing.T) {
	req := require.New(t)
	index := openTestIndex(t)

	indexMessage(t, index, "general", "alice", "nothing relevant here")

	hits, err := index.Search(context.Background(), "", "submarine", 10)
	req.NoError(err)
	req.Empty(hits)
}

func TestIndex_Ignores_Replays(t *testing.T) {
	req := require.New(t)
	index := openTestIndex(t)

	// Given a history replay flowing through the sink
	err := index.Consume(context.Background(), event.MessageBroadcast{
		ID:       uuid.New(),
		Content:  "replayed secret",
		Username: "alice",
		Room:     "general",
		ReplayTo: "bob",
	})
	req.NoError(err)

	// Then it is never indexed
	hits, err := index.Search(context.Background(), "", "replayed", 10)
	req.NoError(err)
	req.Empty(hits)
}
