package core

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/puzpuzpuz/xsync/v3"
	"golang.org/x/sync/errgroup"
)

// Registry tracks which connections are joined to which room.
//
// The room table is a concurrent map, so operations on different rooms never
// contend. Each room guards its own member list. A connection belongs to at
// most one room at a time; index records where.
type Registry struct {
	rooms *xsync.MapOf[RoomID, *room]
	index *xsync.MapOf[string, RoomID]

	// Register holds lifecycle shared; CloseAll takes it exclusively so no
	// connection can join after the shutdown snapshot.
	lifecycle sync.RWMutex
	closed    bool
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		rooms: xsync.NewMapOf[RoomID, *room](),
		index: xsync.NewMapOf[string, RoomID](),
	}
}

// Register adds c to the room. Rooms are created lazily on first use.
// Registering a connection already in the same room is a no-op; registering
// one that is still in another room returns an already_joined CoreError.
// Room ids must be positive, and nothing joins after CloseAll.
//
// Register and Deregister for a given connection must come from a single
// owner (its session). Calls for different connections may run concurrently.
func (r *Registry) Register(roomID RoomID, c Conn) error {
	if roomID <= 0 {
		return coreError(ErrCodeBadRequest, fmt.Sprintf("invalid room id %d", roomID))
	}

	r.lifecycle.RLock()
	defer r.lifecycle.RUnlock()
	if r.closed {
		return coreError(ErrCodeShuttingDown, "registry is closed")
	}

	current, loaded := r.index.LoadOrStore(c.ID(), roomID)
	if loaded && current != roomID {
		return coreError(ErrCodeAlreadyJoined, fmt.Sprintf("connection %s already joined room %d", c.ID(), current))
	}

	rm, _ := r.rooms.LoadOrCompute(roomID, func() *room { return newRoom(roomID) })
	rm.add(c)
	return nil
}

// Deregister removes c from the room. Returns false if c was not a member.
func (r *Registry) Deregister(roomID RoomID, c Conn) bool {
	rm, ok := r.rooms.Load(roomID)
	if !ok {
		return false
	}
	if !rm.remove(c) {
		return false
	}

	r.index.Compute(c.ID(), func(cur RoomID, loaded bool) (RoomID, bool) {
		// drop the entry only if it still points at this room
		return cur, !loaded || cur == roomID
	})
	return true
}

// Snapshot returns the members of a room at this instant. Unknown rooms are empty.
func (r *Registry) Snapshot(roomID RoomID) []Conn {
	rm, ok := r.rooms.Load(roomID)
	if !ok {
		return nil
	}
	return rm.snapshot()
}

// Len returns the number of members currently in the room.
func (r *Registry) Len(roomID RoomID) int {
	rm, ok := r.rooms.Load(roomID)
	if !ok {
		return 0
	}
	return rm.len()
}

// roomOf returns the room a connection is joined to.
func (r *Registry) roomOf(connID string) (RoomID, bool) {
	return r.index.Load(connID)
}

// Rooms lists every room seen so far, including empty ones, in ascending order.
func (r *Registry) Rooms() []RoomID {
	ids := make([]RoomID, 0, r.rooms.Size())
	r.rooms.Range(func(id RoomID, _ *room) bool {
		ids = append(ids, id)
		return true
	})
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// CloseAll stops new registrations and closes every registered connection
// concurrently. It waits for the closes until ctx is done and returns how many
// connections it closed. Sessions observe the close through Receive and
// deregister themselves.
func (r *Registry) CloseAll(ctx context.Context, code CloseCode, reason string) int {
	r.lifecycle.Lock()
	r.closed = true
	var conns []Conn
	r.rooms.Range(func(_ RoomID, rm *room) bool {
		conns = append(conns, rm.snapshot()...)
		return true
	})
	r.lifecycle.Unlock()

	var g errgroup.Group
	for _, c := range conns {
		g.Go(func() error {
			_ = c.Close(code, reason)
			return nil
		})
	}

	done := make(chan struct{})
	go func() {
		_ = g.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
	}
	return len(conns)
}
