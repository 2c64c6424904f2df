package repositories

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
	"github.com/samber/lo"

	"chatroom/domain"
	apperrors "chatroom/errors"
)

// IMessageRepository is the persistence gateway consumed by the
// broadcast engine. The core never touches the database directly.
type IMessageRepository interface {
	SaveMessage(room, author, content string) (domain.Message, error)
	Recent(room string, limit int) ([]domain.Message, error)
}

type MessageRepository struct {
	db  *badger.DB
	log *slog.Logger
}

func NewMessageRepository(db *badger.DB, log *slog.Logger) MessageRepository {
	return MessageRepository{db: db, log: log}
}

// diskMessage is the stored form of a message, encoded as JSON.
type diskMessage struct {
	ID      string `json:"id"`
	Room    string `json:"room"`
	Author  string `json:"author"`
	Content string `json:"content"`
	At      int64  `json:"at"`
}

// messageKey builds "msg:{room}:{timestamp_padded}:{uuid}":
//  1. The 19-digit zero padding keeps keys chronologically sorted in
//     lexicographical order.
//  2. The UUID suffix disambiguates two messages stored in the same
//     nanosecond.
func messageKey(m domain.Message) []byte {
	return []byte(fmt.Sprintf("msg:%s:%019d:%s", m.Room, m.At.UnixNano(), m.ID))
}

// SaveMessage persists a new message and returns it with its assigned
// id and timestamp. The message is durable once this returns nil.
func (m MessageRepository) SaveMessage(room, author, content string) (domain.Message, error) {
	message := domain.NewMessage(room, author, content)

	bytes, err := json.Marshal(fromMessage(message))
	if err != nil {
		return domain.Message{}, fmt.Errorf("%w: %v", apperrors.ErrPersistence, err)
	}

	err = m.db.Update(func(txn *badger.Txn) error {
		return txn.Set(messageKey(message), bytes)
	})
	if err != nil {
		return domain.Message{}, fmt.Errorf("%w: %v", apperrors.ErrPersistence, err)
	}
	return message, nil
}

// Recent returns the last limit messages of a room, oldest first, for
// history replay. The reverse prefix scan collects the newest entries
// and the result is flipped before returning.
func (m MessageRepository) Recent(room string, limit int) ([]domain.Message, error) {
	var stored []diskMessage

	err := m.db.View(func(txn *badger.Txn) error {
		prefixStr := fmt.Sprintf("msg:%s:", room)
		prefix := []byte(prefixStr)

		options := badger.DefaultIteratorOptions
		options.Reverse = true
		it := txn.NewIterator(options)
		defer it.Close()

		// Seek past the newest possible key for this room, then walk
		// backwards while the prefix holds.
		seekKey := append([]byte{}, prefix...)
		seekKey = append(seekKey, []byte("9999999999999999999")...)
		for it.Seek(seekKey); it.ValidForPrefix(prefix); it.Next() {
			if len(stored) == limit {
				break
			}
			var dm diskMessage
			err := it.Item().Value(func(value []byte) error {
				return json.Unmarshal(value, &dm)
			})
			if err != nil {
				return err
			}
			stored = append(stored, dm)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrPersistence, err)
	}

	messages := make([]domain.Message, 0, len(stored))
	for _, dm := range lo.Reverse(stored) {
		message, err := toMessage(dm)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", apperrors.ErrPersistence, err)
		}
		messages = append(messages, message)
	}
	return messages, nil
}

func fromMessage(m domain.Message) diskMessage {
	return diskMessage{
		ID:      m.ID.String(),
		Room:    m.Room,
		Author:  m.Author,
		Content: m.Content,
		At:      m.At.UnixNano(),
	}
}

func toMessage(dm diskMessage) (domain.Message, error) {
	parsedID, err := uuid.Parse(dm.ID)
	if err != nil {
		return domain.Message{}, err
	}
	return domain.Message{
		ID:      parsedID,
		Room:    dm.Room,
		Author:  dm.Author,
		Content: dm.Content,
		At:      time.Unix(0, dm.At).UTC(),
	}, nil
}
