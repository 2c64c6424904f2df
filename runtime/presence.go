package runtime

import (
	"sort"
	"sync"

	"chatroom/contract"
	apperrors "chatroom/errors"
)

// Presence tracks the global online set: one live connection per
// authenticated identity. It owns its lock; nothing else may touch the
// session map.
type Presence struct {
	mu       sync.RWMutex
	sessions map[string]contract.EventSink
}

func NewPresence() *Presence {
	return &Presence{sessions: make(map[string]contract.EventSink)}
}

// Register claims the single active session slot for username.
// A second live connection for the same identity is refused rather
// than silently replacing the first, which would strand the older
// socket's room memberships.
func (p *Presence) Register(username string, sink contract.EventSink) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if _, ok := p.sessions[username]; ok {
		return apperrors.ErrAlreadyConnected
	}
	p.sessions[username] = sink
	return nil
}

// Unregister is idempotent: late or duplicate disconnect signals are
// no-ops.
func (p *Presence) Unregister(username string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.sessions, username)
}

func (p *Presence) IsOnline(username string) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	_, ok := p.sessions[username]
	return ok
}

// Online returns the sorted list of connected usernames, as carried by
// user_joined and user_left payloads.
func (p *Presence) Online() []string {
	p.mu.RLock()
	defer p.mu.RUnlock()

	usernames := make([]string, 0, len(p.sessions))
	for username := range p.sessions {
		usernames = append(usernames, username)
	}
	sort.Strings(usernames)
	return usernames
}

// Sessions returns every online member with its sink, for global
// fanout.
func (p *Presence) Sessions() []contract.Member {
	p.mu.RLock()
	defer p.mu.RUnlock()

	members := make([]contract.Member, 0, len(p.sessions))
	for username, s := range p.sessions {
		members = append(members, contract.Member{Username: username, Sink: s})
	}
	return members
}

func (p *Presence) SinkOf(username string) (contract.EventSink, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	s, ok := p.sessions[username]
	return s, ok
}
