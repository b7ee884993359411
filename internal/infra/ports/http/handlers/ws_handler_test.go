package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"github.com/qrave1/peerlink/internal/application/config"
	"github.com/qrave1/peerlink/internal/domain/events"
	"github.com/qrave1/peerlink/internal/infra/adapters/memory"
	"github.com/qrave1/peerlink/internal/infra/ports/http/middleware"
	"github.com/qrave1/peerlink/internal/usecase"
)

const testJWTSecret = "test-secret"

func testConfig() *config.Config {
	return &config.Config{
		Debug:     true,
		JWTSecret: testJWTSecret,
		Signaling: config.SignalingConfig{
			MaxRoomMembers: 2,
			SendQueueSize:  64,
			PingInterval:   30 * time.Second,
			ReadDeadline:   60 * time.Second,
			WriteTimeout:   10 * time.Second,
		},
	}
}

type signalingServer struct {
	url      string
	registry memory.RoomRegistry
}

func newSignalingServer(t *testing.T) *signalingServer {
	t.Helper()

	cfg := testConfig()
	registry := memory.NewRoomRegistry()
	connRepo := memory.NewConnectionRepository(cfg.Signaling.SendQueueSize, cfg.Signaling.WriteTimeout)
	signalingUsecase := usecase.NewSignalingUsecase(cfg.Signaling.MaxRoomMembers, registry, connRepo)
	wsHandler := NewWebSocketHandler(cfg, signalingUsecase, connRepo)

	e := echo.New()
	e.GET("/ws", wsHandler.Handle, middleware.JWTAuthMiddleware(cfg.JWTSecret))

	srv := httptest.NewServer(e)
	t.Cleanup(srv.Close)

	return &signalingServer{
		url:      "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws",
		registry: registry,
	}
}

func (s *signalingServer) dial(t *testing.T) *websocket.Conn {
	t.Helper()

	claims := &jwt.RegisteredClaims{
		Subject:   uuid.New().String(),
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testJWTSecret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}

	header := http.Header{}
	header.Set("Cookie", "jwt="+token)

	ws, _, err := websocket.DefaultDialer.Dial(s.url, header)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { ws.Close() })

	return ws
}

func sendEvent(t *testing.T, ws *websocket.Conn, eventType string, payload any) {
	t.Helper()

	data, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal %s payload: %v", eventType, err)
	}

	if err := ws.WriteJSON(events.Message{Type: eventType, Data: data}); err != nil {
		t.Fatalf("write %s: %v", eventType, err)
	}
}

func readEvent(t *testing.T, ws *websocket.Conn) events.Message {
	t.Helper()

	ws.SetReadDeadline(time.Now().Add(2 * time.Second))

	var msg events.Message
	if err := ws.ReadJSON(&msg); err != nil {
		t.Fatalf("read event: %v", err)
	}

	return msg
}

func waitFor(t *testing.T, cond func() bool, what string) {
	t.Helper()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}

	t.Fatalf("timed out waiting for %s", what)
}

func TestCallNegotiationFlow(t *testing.T) {
	srv := newSignalingServer(t)

	clientA := srv.dial(t)
	clientB := srv.dial(t)

	sendEvent(t, clientA, events.TypeJoinRoom, events.JoinEvent{RoomID: "r1"})
	waitFor(t, func() bool { return len(srv.registry.MembersOf("r1")) == 1 }, "first join")

	sendEvent(t, clientB, events.TypeJoinRoom, events.JoinEvent{RoomID: "r1"})

	// The existing member hears about the join; the joiner does not.
	msg := readEvent(t, clientA)
	if msg.Type != events.TypeUserConnected {
		t.Fatalf("expected user-connected, got %s", msg.Type)
	}

	var presence events.PresenceEvent
	if err := json.Unmarshal(msg.Data, &presence); err != nil {
		t.Fatalf("unmarshal presence: %v", err)
	}
	if presence.RoomID != "r1" {
		t.Fatalf("presence names wrong room %s", presence.RoomID)
	}

	// A's offer reaches B unmodified.
	blob := json.RawMessage(`{"type":"offer","sdp":"v=0 test"}`)
	sendEvent(t, clientA, events.TypeOffer, events.OfferEvent{RoomID: "r1", Offer: blob})

	msg = readEvent(t, clientB)
	if msg.Type != events.TypeOffer {
		t.Fatalf("expected offer, got %s", msg.Type)
	}

	var fwd events.OfferEvent
	if err := json.Unmarshal(msg.Data, &fwd); err != nil {
		t.Fatalf("unmarshal forwarded offer: %v", err)
	}
	if string(fwd.Offer) != string(blob) {
		t.Fatalf("offer modified in transit: %s", fwd.Offer)
	}

	// Abrupt close of A: B gets exactly one user-disconnected and the
	// registry forgets A.
	clientA.Close()

	msg = readEvent(t, clientB)
	if msg.Type != events.TypeUserDisconnected {
		t.Fatalf("expected user-disconnected, got %s", msg.Type)
	}

	waitFor(t, func() bool { return len(srv.registry.MembersOf("r1")) == 1 }, "disconnect cleanup")
}

func TestUnauthenticatedUpgradeRejected(t *testing.T) {
	srv := newSignalingServer(t)

	_, resp, err := websocket.DefaultDialer.Dial(srv.url, nil)
	if err == nil {
		t.Fatal("dial without jwt cookie succeeded")
	}
	if resp == nil || resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %+v", resp)
	}
}

func TestMalformedPayloadGetsErrorEvent(t *testing.T) {
	srv := newSignalingServer(t)

	client := srv.dial(t)

	if err := client.WriteMessage(websocket.TextMessage, []byte("not json")); err != nil {
		t.Fatalf("write: %v", err)
	}

	msg := readEvent(t, client)
	if msg.Type != events.TypeError {
		t.Fatalf("expected error event, got %s", msg.Type)
	}

	// The connection survives protocol misuse.
	sendEvent(t, client, events.TypeJoinRoom, events.JoinEvent{RoomID: "r1"})
	waitFor(t, func() bool { return len(srv.registry.MembersOf("r1")) == 1 }, "join after malformed message")
}
