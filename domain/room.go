package domain

import "time"

// Room is a named broadcast group. The name is the primary key.
// Membership is not part of the entity: it only exists for currently
// connected sessions and lives in the runtime registry.
type Room struct {
	Name      string
	CreatedBy string
	CreatedAt time.Time
}

func NewRoom(name, createdBy string) Room {
	return Room{
		Name:      name,
		CreatedBy: createdBy,
		CreatedAt: time.Now().UTC(),
	}
}
