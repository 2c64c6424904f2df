package domain

import "time"

// Command is an inbound intent flowing through the pipeline.
// RoomName returns "" for commands that are not scoped to a room.
type Command interface {
	RoomName() string
}

type PostMessageCommand struct {
	Room    string
	Author  string
	Content string
	At      time.Time
}

func (c PostMessageCommand) RoomName() string { return c.Room }

type JoinRoomCommand struct {
	Room     string
	Username string
}

func (c JoinRoomCommand) RoomName() string { return c.Room }

type LeaveRoomCommand struct {
	Room     string
	Username string
}

func (c LeaveRoomCommand) RoomName() string { return c.Room }

// TypingCommand covers both typing and stop_typing signals.
// Never persisted, never echoed back to the sender.
type TypingCommand struct {
	Room     string
	Username string
	Stopped  bool
}

func (c TypingCommand) RoomName() string { return c.Room }

// PresenceCommand announces a connect or disconnect to the whole
// online set. The active-user list is resolved at fanout time so the
// payload reflects the state after the registration settled.
type PresenceCommand struct {
	Username string
	Left     bool
}

func (c PresenceCommand) RoomName() string { return "" }
