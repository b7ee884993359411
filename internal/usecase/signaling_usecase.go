package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/qrave1/peerlink/internal/application/constant"
	"github.com/qrave1/peerlink/internal/application/metric"
	"github.com/qrave1/peerlink/internal/domain/events"
	"github.com/qrave1/peerlink/internal/domain/runtime"
	"github.com/qrave1/peerlink/internal/infra/adapters/memory"
)

// SignalingUsecase relays WebRTC negotiation events between the members
// of a room. Offers, answers and candidates are opaque blobs: they are
// forwarded to every other member, never inspected, never reordered.
type SignalingUsecase interface {
	HandleJoin(ctx context.Context, conn *runtime.Connection, join events.JoinEvent) error
	HandleOffer(ctx context.Context, conn *runtime.Connection, offer events.OfferEvent) error
	HandleAnswer(ctx context.Context, conn *runtime.Connection, answer events.AnswerEvent) error
	HandleCandidate(ctx context.Context, conn *runtime.Connection, candidate events.CandidateEvent) error

	// HandleDisconnect removes the connection from its room and
	// notifies the remaining members. Must be called exactly once per
	// connection, whatever the close cause.
	HandleDisconnect(ctx context.Context, conn *runtime.Connection)

	// HandleError reports a protocol misuse back to the sender.
	HandleError(ctx context.Context, conn *runtime.Connection, message string)
}

type signalingUsecase struct {
	maxRoomMembers int

	registry memory.RoomRegistry
	connRepo memory.ConnectionRepository

	// mu serializes membership changes. Relay reads work off registry
	// snapshots and stay lock-free here.
	mu sync.Mutex
}

func NewSignalingUsecase(
	maxRoomMembers int,
	registry memory.RoomRegistry,
	connRepo memory.ConnectionRepository,
) SignalingUsecase {
	return &signalingUsecase{
		maxRoomMembers: maxRoomMembers,
		registry:       registry,
		connRepo:       connRepo,
	}
}

func (s *signalingUsecase) HandleJoin(ctx context.Context, conn *runtime.Connection, join events.JoinEvent) error {
	if join.RoomID == "" {
		s.HandleError(ctx, conn, "roomId is required")
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Re-joining the current room is a no-op.
	if conn.RoomID == join.RoomID {
		return nil
	}

	if len(s.registry.MembersOf(join.RoomID)) >= s.maxRoomMembers {
		s.HandleError(ctx, conn, "room is full")
		return nil
	}

	// A connection belongs to at most one room: joining a new room
	// leaves the old one first.
	if conn.RoomID != "" {
		s.leaveAndNotify(conn)
	}

	s.registry.Join(join.RoomID, conn.ID)
	conn.RoomID = join.RoomID

	slog.Info(
		"connection joined room",
		slog.Any(constant.ConnID, conn.ID),
		slog.Any(constant.UserID, conn.UserID),
		slog.String(constant.RoomID, join.RoomID),
	)

	s.notifyRoom(conn.ID, join.RoomID, events.TypeUserConnected)

	return nil
}

func (s *signalingUsecase) HandleOffer(ctx context.Context, conn *runtime.Connection, offer events.OfferEvent) error {
	return s.relay(ctx, conn, offer.RoomID, events.TypeOffer, events.OfferEvent{Offer: offer.Offer})
}

func (s *signalingUsecase) HandleAnswer(ctx context.Context, conn *runtime.Connection, answer events.AnswerEvent) error {
	return s.relay(ctx, conn, answer.RoomID, events.TypeAnswer, events.AnswerEvent{Answer: answer.Answer})
}

func (s *signalingUsecase) HandleCandidate(ctx context.Context, conn *runtime.Connection, candidate events.CandidateEvent) error {
	return s.relay(ctx, conn, candidate.RoomID, events.TypeCandidate, events.CandidateEvent{Candidate: candidate.Candidate})
}

// relay forwards a negotiation event to every other member of roomID.
// The sender must have joined the room it names.
func (s *signalingUsecase) relay(ctx context.Context, conn *runtime.Connection, roomID, eventType string, payload any) error {
	if roomID == "" {
		s.HandleError(ctx, conn, "roomId is required")
		return nil
	}

	if !s.registry.IsMember(roomID, conn.ID) {
		slog.Warn(
			"relay for a room the sender has not joined",
			slog.Any(constant.ConnID, conn.ID),
			slog.String(constant.RoomID, roomID),
			slog.String("event_type", eventType),
		)

		s.HandleError(ctx, conn, "not a member of room "+roomID)
		return nil
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal %s event: %w", eventType, err)
	}

	msg := events.Message{Type: eventType, Data: data}

	for _, memberID := range s.registry.MembersOf(roomID) {
		if memberID == conn.ID {
			continue
		}

		s.connRepo.Write(memberID, msg)
	}

	metric.RecordRelayedEvent(eventType)

	return nil
}

func (s *signalingUsecase) HandleDisconnect(ctx context.Context, conn *runtime.Connection) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if conn.RoomID == "" {
		return
	}

	roomID := conn.RoomID
	s.leaveAndNotify(conn)

	slog.Info(
		"connection left room",
		slog.Any(constant.ConnID, conn.ID),
		slog.String(constant.RoomID, roomID),
	)
}

func (s *signalingUsecase) HandleError(ctx context.Context, conn *runtime.Connection, message string) {
	data, err := json.Marshal(events.ErrorEvent{Message: message})
	if err != nil {
		slog.Error("marshal error event", slog.Any(constant.Error, err))
		return
	}

	s.connRepo.Write(conn.ID, events.Message{Type: events.TypeError, Data: data})
}

// leaveAndNotify removes conn from its current room and tells the
// remaining members. Caller holds s.mu.
func (s *signalingUsecase) leaveAndNotify(conn *runtime.Connection) {
	roomID := conn.RoomID

	s.registry.Leave(roomID, conn.ID)
	conn.RoomID = ""

	s.notifyRoom(conn.ID, roomID, events.TypeUserDisconnected)
}

// notifyRoom sends a presence event about a connection to every other
// member of roomID.
func (s *signalingUsecase) notifyRoom(about uuid.UUID, roomID, eventType string) {
	data, err := json.Marshal(events.PresenceEvent{
		ConnectionID: about.String(),
		RoomID:       roomID,
	})
	if err != nil {
		slog.Error("marshal presence event", slog.Any(constant.Error, err))
		return
	}

	msg := events.Message{Type: eventType, Data: data}

	for _, memberID := range s.registry.MembersOf(roomID) {
		if memberID == about {
			continue
		}

		s.connRepo.Write(memberID, msg)
	}
}
