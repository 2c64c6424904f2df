// Package domain contains core concepts of the chat system.
// This file defines Identity, the authenticated user reference.
// No runtime, network, or UI logic should be added here.
package domain

import "github.com/google/uuid"

// Identity is immutable once a session starts.
type Identity struct {
	ID       uuid.UUID
	Username string
}
