package repositories

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"

	"chatroom/domain"
	apperrors "chatroom/errors"
)

type IRoomRepository interface {
	GetOrCreate(name, createdBy string) (domain.Room, error)
	Exists(name string) (bool, error)
	List() ([]domain.Room, error)
}

type RoomRepository struct {
	db *badger.DB
}

func NewRoomRepository(db *badger.DB) RoomRepository {
	return RoomRepository{db: db}
}

type diskRoom struct {
	Name      string `json:"name"`
	CreatedBy string `json:"created_by"`
	CreatedAt int64  `json:"created_at"`
}

func roomKey(name string) []byte {
	return []byte("room:" + name)
}

// GetOrCreate returns the room under name, inserting it first if no
// row exists. Creation is idempotent per name: only one row is ever
// inserted, so concurrent creators race on the same key and the loser
// reads the winner's row on retry. Creator metadata is informative
// only and never enforced on the get path.
func (r RoomRepository) GetOrCreate(name, createdBy string) (domain.Room, error) {
	for {
		var room domain.Room
		err := r.db.Update(func(txn *badger.Txn) error {
			item, err := txn.Get(roomKey(name))
			if err == nil {
				return item.Value(func(value []byte) error {
					room, err = decodeRoom(value)
					return err
				})
			}
			if err != badger.ErrKeyNotFound {
				return err
			}

			room = domain.NewRoom(name, createdBy)
			bytes, err := json.Marshal(fromRoom(room))
			if err != nil {
				return err
			}
			return txn.Set(roomKey(name), bytes)
		})
		if err == badger.ErrConflict {
			// Another creator claimed the key first; retry and get it.
			continue
		}
		if err != nil {
			return domain.Room{}, fmt.Errorf("%w: %v", apperrors.ErrPersistence, err)
		}
		return room, nil
	}
}

func (r RoomRepository) Exists(name string) (bool, error) {
	err := r.db.View(func(txn *badger.Txn) error {
		_, err := txn.Get(roomKey(name))
		return err
	})
	if err == badger.ErrKeyNotFound {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("%w: %v", apperrors.ErrPersistence, err)
	}
	return true, nil
}

// List returns every persisted room, for the lobby room picker.
func (r RoomRepository) List() ([]domain.Room, error) {
	var rooms []domain.Room

	err := r.db.View(func(txn *badger.Txn) error {
		prefix := []byte("room:")
		options := badger.DefaultIteratorOptions
		it := txn.NewIterator(options)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			err := it.Item().Value(func(value []byte) error {
				room, err := decodeRoom(value)
				if err != nil {
					return err
				}
				rooms = append(rooms, room)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrPersistence, err)
	}
	return rooms, nil
}

func fromRoom(room domain.Room) diskRoom {
	return diskRoom{
		Name:      room.Name,
		CreatedBy: room.CreatedBy,
		CreatedAt: room.CreatedAt.UnixNano(),
	}
}

func decodeRoom(value []byte) (domain.Room, error) {
	var dr diskRoom
	if err := json.Unmarshal(value, &dr); err != nil {
		return domain.Room{}, err
	}
	return domain.Room{
		Name:      dr.Name,
		CreatedBy: dr.CreatedBy,
		CreatedAt: time.Unix(0, dr.CreatedAt).UTC(),
	}, nil
}
