package memory

import (
	"sync"

	"github.com/google/uuid"

	"github.com/qrave1/peerlink/internal/application/metric"
)

// RoomRegistry maps room IDs to the set of connections negotiating a
// call there. Rooms are created implicitly on first join and pruned as
// soon as the member set empties.
type RoomRegistry interface {
	// Join adds the connection to the room, creating the room if
	// needed. Re-joining the same room is a no-op.
	Join(roomID string, connID uuid.UUID)

	// Leave removes the connection from the room and deletes the room
	// once empty. Leaving a room the connection is not in is a no-op.
	Leave(roomID string, connID uuid.UUID)

	// MembersOf returns a snapshot of the room's current members.
	MembersOf(roomID string) []uuid.UUID

	// IsMember reports whether the connection is in the room.
	IsMember(roomID string, connID uuid.UUID) bool

	// Clear drops every room. Used on shutdown.
	Clear()
}

type roomRegistry struct {
	// rooms holds map[room_id]set of connection ids
	rooms map[string]map[uuid.UUID]struct{}

	mu sync.RWMutex
}

func NewRoomRegistry() RoomRegistry {
	return &roomRegistry{
		rooms: make(map[string]map[uuid.UUID]struct{}),
	}
}

func (r *roomRegistry) Join(roomID string, connID uuid.UUID) {
	r.mu.Lock()
	defer r.mu.Unlock()

	members, ok := r.rooms[roomID]
	if !ok {
		members = make(map[uuid.UUID]struct{}, 2)
		r.rooms[roomID] = members

		metric.IncrementActiveRooms()
	}

	members[connID] = struct{}{}
}

func (r *roomRegistry) Leave(roomID string, connID uuid.UUID) {
	r.mu.Lock()
	defer r.mu.Unlock()

	members, ok := r.rooms[roomID]
	if !ok {
		return
	}

	delete(members, connID)

	if len(members) == 0 {
		delete(r.rooms, roomID)

		metric.DecrementActiveRooms()
	}
}

func (r *roomRegistry) MembersOf(roomID string) []uuid.UUID {
	r.mu.RLock()
	defer r.mu.RUnlock()

	members, ok := r.rooms[roomID]
	if !ok {
		return nil
	}

	out := make([]uuid.UUID, 0, len(members))
	for connID := range members {
		out = append(out, connID)
	}

	return out
}

func (r *roomRegistry) IsMember(roomID string, connID uuid.UUID) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	members, ok := r.rooms[roomID]
	if !ok {
		return false
	}

	_, ok = members[connID]
	return ok
}

func (r *roomRegistry) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()

	for roomID := range r.rooms {
		delete(r.rooms, roomID)

		metric.DecrementActiveRooms()
	}
}
