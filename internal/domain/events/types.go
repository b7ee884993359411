package events

import "encoding/json"

// Event type names, matching what the browser client emits and listens for.
const (
	TypeJoinRoom  = "join-room"
	TypeOffer     = "offer"
	TypeAnswer    = "answer"
	TypeCandidate = "candidate"

	TypeUserConnected    = "user-connected"
	TypeUserDisconnected = "user-disconnected"
	TypeError            = "error"
)

// Message is the envelope for every event on the signaling channel.
type Message struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// JoinEvent is sent by a client to enter a room.
type JoinEvent struct {
	RoomID string `json:"roomId"`
}

// OfferEvent carries an SDP offer. The offer itself is an opaque blob,
// relayed without interpretation.
type OfferEvent struct {
	RoomID string          `json:"roomId,omitempty"`
	Offer  json.RawMessage `json:"offer"`
}

// AnswerEvent carries an SDP answer, opaque to the relay.
type AnswerEvent struct {
	RoomID string          `json:"roomId,omitempty"`
	Answer json.RawMessage `json:"answer"`
}

// CandidateEvent carries a trickled ICE candidate, opaque to the relay.
// Candidates may arrive in any order relative to offer/answer and are
// forwarded without buffering or reordering.
type CandidateEvent struct {
	RoomID    string          `json:"roomId,omitempty"`
	Candidate json.RawMessage `json:"candidate"`
}

// PresenceEvent notifies room members about a peer joining or leaving.
type PresenceEvent struct {
	ConnectionID string `json:"connectionId"`
	RoomID       string `json:"roomId"`
}

// ErrorEvent is sent back to a connection that misused the protocol.
type ErrorEvent struct {
	Message string `json:"message"`
}
