package constant

// Shared slog attribute keys.
const (
	Error = "error"

	UserID = "user_id"
	ConnID = "connection_id"
	RoomID = "room_id"
)
