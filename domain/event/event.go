// Package event defines the outbound events the engine fans out to
// connected sessions, together with their wire payloads.
package event

import (
	"github.com/google/uuid"

	"chatroom/domain"
)

type Type string

const (
	UserJoinedType     Type = "user_joined"
	UserLeftType       Type = "user_left"
	RoomJoinedType     Type = "room_joined"
	RoomLeftType       Type = "room_left"
	MessageType        Type = "message"
	UserTypingType     Type = "user_typing"
	UserStopTypingType Type = "user_stop_typing"
	ErrorType          Type = "error"
)

// TimeLayout is the wall-clock format carried by message payloads.
const TimeLayout = "15:04:05"

// Route tells the fanout where an event goes. Exactly one of Room or
// Target is set for scoped events; both empty means the whole online
// set.
type Route struct {
	Room        string
	Target      string
	ExcludeUser string
}

type Event interface {
	EventType() Type
	Route() Route
}

type UserJoined struct {
	Username    string   `json:"username"`
	ActiveUsers []string `json:"active_users"`
}

func (e UserJoined) EventType() Type { return UserJoinedType }
func (e UserJoined) Route() Route    { return Route{} }

type UserLeft struct {
	Username    string   `json:"username"`
	ActiveUsers []string `json:"active_users"`
}

func (e UserLeft) EventType() Type { return UserLeftType }
func (e UserLeft) Route() Route    { return Route{} }

type RoomJoined struct {
	Room        string   `json:"room"`
	Username    string   `json:"username"`
	ActiveUsers []string `json:"active_users"`
}

func (e RoomJoined) EventType() Type { return RoomJoinedType }
func (e RoomJoined) Route() Route    { return Route{Room: e.Room} }

type RoomLeft struct {
	Room        string   `json:"room"`
	Username    string   `json:"username"`
	ActiveUsers []string `json:"active_users"`
}

func (e RoomLeft) EventType() Type { return RoomLeftType }
func (e RoomLeft) Route() Route    { return Route{Room: e.Room} }

// MessageBroadcast carries one chat message. The same type serves the
// live fanout and the per-session history replay: a replay is targeted
// at the joining session only, so a member either sees the message in
// its replay or in the live broadcast, never both.
type MessageBroadcast struct {
	ID        uuid.UUID `json:"id"`
	Content   string    `json:"content"`
	Timestamp string    `json:"timestamp"`
	Username  string    `json:"username"`
	Room      string    `json:"room_id"`
	ReplayTo  string    `json:"-"`
}

func (e MessageBroadcast) EventType() Type { return MessageType }

func (e MessageBroadcast) Route() Route {
	if e.ReplayTo != "" {
		return Route{Target: e.ReplayTo}
	}
	return Route{Room: e.Room}
}

func FromMessage(m domain.Message) MessageBroadcast {
	return MessageBroadcast{
		ID:        m.ID,
		Content:   m.Content,
		Timestamp: m.At.Format(TimeLayout),
		Username:  m.Author,
		Room:      m.Room,
	}
}

type UserTyping struct {
	Username string `json:"username"`
	Room     string `json:"room"`
}

func (e UserTyping) EventType() Type { return UserTypingType }
func (e UserTyping) Route() Route    { return Route{Room: e.Room, ExcludeUser: e.Username} }

type UserStopTyping struct {
	Username string `json:"username"`
	Room     string `json:"room"`
}

func (e UserStopTyping) EventType() Type { return UserStopTypingType }
func (e UserStopTyping) Route() Route    { return Route{Room: e.Room, ExcludeUser: e.Username} }

// Error is delivered to the offending session only. Other members are
// never affected by a protocol-level failure.
type Error struct {
	Code   string `json:"code"`
	Reason string `json:"reason"`
	Target string `json:"-"`
}

func (e Error) EventType() Type { return ErrorType }
func (e Error) Route() Route    { return Route{Target: e.Target} }
