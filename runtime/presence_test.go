package runtime

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"

	"chatroom/domain/event"
	apperrors "chatroom/errors"
)

type nopSink struct{}

func (nopSink) Consume(ctx context.Context, e event.Event) error { return nil }

func TestPresence_Register_And_Lookup(t *testing.T) {
	req := require.New(t)
	presence := NewPresence()
	s := nopSink{}

	// Given nobody is online
	req.Empty(presence.Online())

	// When a user registers
	req.NoError(presence.Register("alice", s))

	// Then the user is online with its sink resolvable
	req.True(presence.IsOnline("alice"))
	req.Equal([]string{"alice"}, presence.Online())

	got, ok := presence.SinkOf("alice")
	req.True(ok)
	req.Equal(s, got)
}

func TestPresence_Second_Session_Is_Refused(t *testing.T) {
	req := require.New(t)
	presence := NewPresence()

	// Given an identity already connected
	req.NoError(presence.Register("alice", nopSink{}))

	// When the same identity connects again
	err := presence.Register("alice", nopSink{})

	// Then the second registration is refused
	req.ErrorIs(err, apperrors.ErrAlreadyConnected)
}

func TestPresence_Concurrent_Register_Exactly_One_Wins(t *testing.T) {
	req := require.New(t)
	presence := NewPresence()

	const attempts = 32
	var wg sync.WaitGroup
	var wins atomic.Int32

	// When many goroutines race for the same identity slot
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := presence.Register("alice", nopSink{}); err == nil {
				wins.Add(1)
			}
		}()
	}
	wg.Wait()

	// Then exactly one registration succeeded
	req.Equal(int32(1), wins.Load())
	req.True(presence.IsOnline("alice"))
}

func TestPresence_Unregister_Is_Idempotent(t *testing.T) {
	req := require.New(t)
	presence := NewPresence()

	req.NoError(presence.Register("alice", nopSink{}))

	presence.Unregister("alice")
	presence.Unregister("alice")

	req.False(presence.IsOnline("alice"))
	req.Empty(presence.Online())

	// And the slot can be claimed again
	req.NoError(presence.Register("alice", nopSink{}))
}

func TestPresence_Online_Is_Sorted(t *testing.T) {
	req := require.New(t)
	presence := NewPresence()

	req.NoError(presence.Register("clara", nopSink{}))
	req.NoError(presence.Register("alice", nopSink{}))
	req.NoError(presence.Register("bob", nopSink{}))

	req.Equal([]string{"alice", "bob", "clara"}, presence.Online())
	req.Len(presence.Sessions(), 3)
}
