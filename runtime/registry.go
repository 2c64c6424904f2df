package runtime

import (
	"sort"
	"sync"
)

type set map[string]struct{}

// Registry materializes room membership for currently-connected
// sessions only. Rejoining after a disconnect re-derives it; nothing
// here is persisted.
type Registry struct {
	mu          sync.RWMutex
	roomMembers map[string]set
}

func NewRegistry() *Registry {
	return &Registry{roomMembers: make(map[string]set)}
}

// Join adds username to the room's member set, creating the set on
// first join. Joining twice leaves a single entry.
func (r *Registry) Join(room, username string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.roomMembers[room]; !ok {
		r.roomMembers[room] = make(set)
	}
	r.roomMembers[room][username] = struct{}{}
}

// Leave removes username from the room. Leaving a room never joined is
// a no-op. When no one is left, the room entry is removed entirely so
// the active-membership map never leaks empty sets; the persisted Room
// record is untouched.
func (r *Registry) Leave(room, username string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.leaveLocked(room, username)
}

// LeaveAll removes username from every room and returns the rooms it
// actually left, for disconnect handling.
func (r *Registry) LeaveAll(username string) []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	var left []string
	for room, members := range r.roomMembers {
		if _, ok := members[username]; ok {
			left = append(left, room)
		}
	}
	for _, room := range left {
		r.leaveLocked(room, username)
	}
	sort.Strings(left)
	return left
}

func (r *Registry) leaveLocked(room, username string) {
	members, ok := r.roomMembers[room]
	if !ok {
		return
	}
	delete(members, username)
	if len(members) == 0 {
		delete(r.roomMembers, room)
	}
}

// Members returns the sorted live member list of a room.
func (r *Registry) Members(room string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	members, ok := r.roomMembers[room]
	if !ok {
		return nil
	}
	usernames := make([]string, 0, len(members))
	for username := range members {
		usernames = append(usernames, username)
	}
	sort.Strings(usernames)
	return usernames
}

func (r *Registry) IsMember(room, username string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.roomMembers[room][username]
	return ok
}

func (r *Registry) RoomCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.roomMembers)
}
