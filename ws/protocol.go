// Package ws is the transport edge: it upgrades HTTP connections,
// owns one session per socket, and maps the JSON event protocol onto
// engine commands.
package ws

import (
	"encoding/json"

	"chatroom/domain/event"
)

// Inbound event names accepted from clients.
const (
	AuthenticateEvent = "authenticate"
	JoinRoomEvent     = "join_room"
	LeaveRoomEvent    = "leave_room"
	SendMessageEvent  = "send_message"
	TypingEvent       = "typing"
	StopTypingEvent   = "stop_typing"
)

// Inbound is the envelope read from the socket. Fields beyond Event
// are event specific; unused ones stay empty.
type Inbound struct {
	Event   string `json:"event"`
	Token   string `json:"token,omitempty"`
	Room    string `json:"room,omitempty"`
	Message string `json:"message,omitempty"`
}

// Outbound is the envelope written to the socket.
type Outbound struct {
	Event event.Type      `json:"event"`
	Data  json.RawMessage `json:"data"`
}

func encodeEvent(e event.Event) ([]byte, error) {
	data, err := json.Marshal(e)
	if err != nil {
		return nil, err
	}
	return json.Marshal(Outbound{Event: e.EventType(), Data: data})
}
