package repositories

import (
	"fmt"
	"log/slog"
	"testing"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/stretchr/testify/require"

	"chatroom/domain"
)

func openTestDB(t *testing.T) *badger.DB {
	t.Helper()
	options := badger.DefaultOptions("").WithInMemory(true).WithLogger(nil)
	db, err := badger.Open(options)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestMessageRepository_Save_And_Recent_Oldest_First(t *testing.T) {
	req := require.New(t)
	repository := NewMessageRepository(openTestDB(t), slog.New(slog.DiscardHandler))

	// Given three messages posted in order
	var saved []domain.Message
	for _, content := range []string{"first", "second", "third"} {
		message, err := repository.SaveMessage("general", "alice", content)
		req.NoError(err)
		saved = append(saved, message)
		time.Sleep(time.Millisecond)
	}

	// When fetching recent history
	recent, err := repository.Recent("general", 50)
	req.NoError(err)

	// Then every message comes back oldest first
	req.Equal(saved, recent)
}

func TestMessageRepository_Recent_Honors_Limit(t *testing.T) {
	req := require.New(t)
	repository := NewMessageRepository(openTestDB(t), slog.New(slog.DiscardHandler))

	for i := 1; i <= 10; i++ {
		_, err := repository.SaveMessage("general", "alice", fmt.Sprintf("message %d", i))
		req.NoError(err)
		time.Sleep(time.Millisecond)
	}

	// When fetching with a limit below the stored count
	recent, err := repository.Recent("general", 4)
	req.NoError(err)

	// Then only the newest messages survive, still oldest first
	req.Len(recent, 4)
	req.Equal("message 7", recent[0].Content)
	req.Equal("message 10", recent[3].Content)
}

func TestMessageRepository_Recent_Isolated_Per_Room(t *testing.T) {
	req := require.New(t)
	repository := NewMessageRepository(openTestDB(t), slog.New(slog.DiscardHandler))

	_, err := repository.SaveMessage("general", "alice", "hello general")
	req.NoError(err)
	_, err = repository.SaveMessage("random", "bob", "hello random")
	req.NoError(err)

	recent, err := repository.Recent("general", 50)
	req.NoError(err)

	req.Len(recent, 1)
	req.Equal("hello general", recent[0].Content)
}

func TestMessageRepository_Recent_Empty_Room(t *testing.T) {
	req := require.New(t)
	repository := NewMessageRepository(openTestDB(t), slog.New(slog.DiscardHandler))

	recent, err := repository.Recent("ghost-town", 50)

	req.NoError(err)
	req.Empty(recent)
}

func TestMessageRepository_Save_Assigns_Identity(t *testing.T) {
	req := require.New(t)
	repository := NewMessageRepository(openTestDB(t), slog.New(slog.DiscardHandler))

	before := time.Now().UTC()
	message, err := repository.SaveMessage("general", "alice", "hello")
	req.NoError(err)

	req.NotEqual("00000000-0000-0000-0000-000000000000", message.ID.String())
	req.Equal("general", message.Room)
	req.Equal("alice", message.Author)
	req.False(message.At.Before(before))
}
