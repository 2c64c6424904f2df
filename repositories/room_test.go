package repositories

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRoomRepository_GetOrCreate_Then_Exists(t *testing.T) {
	req := require.New(t)
	repository := NewRoomRepository(openTestDB(t))

	// Given the room does not exist yet
	exists, err := repository.Exists("general")
	req.NoError(err)
	req.False(exists)

	// When creating it
	room, err := repository.GetOrCreate("general", "alice")
	req.NoError(err)
	req.Equal("general", room.Name)
	req.Equal("alice", room.CreatedBy)
	req.False(room.CreatedAt.IsZero())

	// Then it exists
	exists, err = repository.Exists("general")
	req.NoError(err)
	req.True(exists)
}

func TestRoomRepository_GetOrCreate_First_Creator_Wins(t *testing.T) {
	req := require.New(t)
	repository := NewRoomRepository(openTestDB(t))

	first, err := repository.GetOrCreate("general", "alice")
	req.NoError(err)

	// When a second caller creates the same room
	second, err := repository.GetOrCreate("general", "bob")
	req.NoError(err)

	// Then the original row is returned untouched
	req.Equal(first, second)
	req.Equal("alice", second.CreatedBy)
}

func TestRoomRepository_GetOrCreate_Concurrent_Single_Row(t *testing.T) {
	req := require.New(t)
	repository := NewRoomRepository(openTestDB(t))

	// When many goroutines create the same room at once
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := repository.GetOrCreate("general", "racer")
			require.NoError(t, err)
		}()
	}
	wg.Wait()

	// Then a single row exists
	rooms, err := repository.List()
	req.NoError(err)
	req.Len(rooms, 1)
}

func TestRoomRepository_List_Returns_Every_Room(t *testing.T) {
	req := require.New(t)
	repository := NewRoomRepository(openTestDB(t))

	_, err := repository.GetOrCreate("general", "system")
	req.NoError(err)
	_, err = repository.GetOrCreate("random", "alice")
	req.NoError(err)

	rooms, err := repository.List()
	req.NoError(err)

	names := []string{rooms[0].Name, rooms[1].Name}
	req.ElementsMatch([]string{"general", "random"}, names)
}
