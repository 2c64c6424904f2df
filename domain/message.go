// Package domain contains core concepts of the chat system.
// This file defines Message events and related rules.
// Messages are immutable and validated before they reach this type.
package domain

import (
	"time"

	"github.com/google/uuid"
)

// Message represents an immutable chat event.
type Message struct {
	ID      uuid.UUID
	Room    string
	Author  string
	Content string
	At      time.Time
}

func NewMessage(room, author, content string) Message {
	return Message{
		ID:      uuid.New(),
		Room:    room,
		Author:  author,
		Content: content,
		At:      time.Now().UTC(),
	}
}
