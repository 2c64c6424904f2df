//go:generate go run go.uber.org/mock/mockgen -source=contract.go -destination=../mocks/mock_contract.go -package=mocks
package contract

import (
	"context"
	"reflect"

	"chatroom/domain/event"
)

type ISupervisor interface {
	Add(worker ...Worker) ISupervisor
	Run(ctx context.Context)
	Start(ctx context.Context, worker Worker)
	Stop()
}

// Worker doesn't protect itself.
// Can be silly, focused.
type Worker interface {
	Run(ctx context.Context) error
}

// GetWorkerName uses reflection to retrieve the type name of the worker.
// Used for logging and supervision, avoiding a manual naming method on
// the Worker interface.
func GetWorkerName(w Worker) string {
	if w == nil {
		return "NilWorker"
	}
	t := reflect.TypeOf(w)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t.Name()
}

// EventSink is one consumer of fanned-out events: a connected session's
// outbound queue, or a permanent side-effect consumer (timeline,
// search index). Consume must never block the caller indefinitely.
type EventSink interface {
	Consume(ctx context.Context, e event.Event) error
}

// Member pairs an online username with its outbound queue.
type Member struct {
	Username string
	Sink     EventSink
}

// IPresence tracks the global online set: one live connection per
// authenticated identity.
type IPresence interface {
	Register(username string, sink EventSink) error
	Unregister(username string)
	IsOnline(username string) bool
	Online() []string
	Sessions() []Member
	SinkOf(username string) (EventSink, bool)
}

// IRegistry tracks which identities are currently joined to which
// rooms. It holds usernames only; sinks are resolved through presence
// so a connection is managed in a single place.
type IRegistry interface {
	Join(room, username string)
	Leave(room, username string)
	LeaveAll(username string) []string
	Members(room string) []string
	IsMember(room, username string) bool
	RoomCount() int
}
