package runtime

import "github.com/google/uuid"

// Connection is one live signaling session. IDs are assigned on upgrade
// and never reused.
//
// RoomID holds the single room the connection has joined, or "" while it
// has none. Only the connection's own read loop (via the signaling
// usecase) writes it, so no lock is needed.
type Connection struct {
	ID     uuid.UUID
	UserID uuid.UUID
	RoomID string
}

func NewConnection(userID uuid.UUID) *Connection {
	return &Connection{
		ID:     uuid.New(),
		UserID: userID,
	}
}
