package core

import "sync"

// RoomID names a chat room. Any positive value is a valid, possibly empty, room.
type RoomID int64

// room holds the live connections of one room in insertion order.
type room struct {
	id    RoomID
	mu    sync.RWMutex
	conns []Conn
}

func newRoom(id RoomID) *room {
	return &room{id: id}
}

// add inserts c. Returns true if newly added.
func (r *room) add(c Conn) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.indexOf(c.ID()) >= 0 {
		return false
	}
	r.conns = append(r.conns, c)
	return true
}

// remove deletes c. Returns true if removed.
func (r *room) remove(c Conn) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	i := r.indexOf(c.ID())
	if i < 0 {
		return false
	}
	copy(r.conns[i:], r.conns[i+1:])
	r.conns[len(r.conns)-1] = nil
	r.conns = r.conns[:len(r.conns)-1]
	return true
}

// snapshot returns a copy of the current members.
func (r *room) snapshot() []Conn {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Conn, len(r.conns))
	copy(out, r.conns)
	return out
}

func (r *room) len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.conns)
}

// indexOf must be called with mu held.
func (r *room) indexOf(id string) int {
	for i, c := range r.conns {
		if c.ID() == id {
			return i
		}
	}
	return -1
}
