package memory

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/qrave1/peerlink/internal/domain/events"
)

var testUpgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// dialRepo spins up a websocket server that registers the server side
// of the connection in the repository, and returns the client side.
func dialRepo(t *testing.T, repo ConnectionRepository, connID uuid.UUID) *websocket.Conn {
	t.Helper()

	ready := make(chan struct{})

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ws, err := testUpgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade: %v", err)
			return
		}

		repo.Add(connID, ws)
		close(ready)
	}))
	t.Cleanup(srv.Close)

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http")

	client, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { client.Close() })

	select {
	case <-ready:
	case <-time.After(2 * time.Second):
		t.Fatal("server never registered the connection")
	}

	return client
}

func TestWriteDeliversToSocket(t *testing.T) {
	repo := NewConnectionRepository(16, 5*time.Second)
	connID := uuid.New()

	client := dialRepo(t, repo, connID)

	repo.Write(connID, events.Message{Type: events.TypeUserConnected, Data: []byte(`{"roomId":"r1"}`)})

	client.SetReadDeadline(time.Now().Add(2 * time.Second))
	var msg events.Message
	if err := client.ReadJSON(&msg); err != nil {
		t.Fatalf("read: %v", err)
	}

	if msg.Type != events.TypeUserConnected {
		t.Fatalf("unexpected message type %s", msg.Type)
	}
}

func TestWriteToUnknownConnectionIsNoop(t *testing.T) {
	repo := NewConnectionRepository(16, 5*time.Second)

	// Must not panic or block.
	repo.Write(uuid.New(), events.Message{Type: events.TypeError})
}

func TestRemoveClosesSocket(t *testing.T) {
	repo := NewConnectionRepository(16, 5*time.Second)
	connID := uuid.New()

	client := dialRepo(t, repo, connID)

	if got := repo.GetAllConnected(); len(got) != 1 {
		t.Fatalf("expected 1 connection, got %d", len(got))
	}

	repo.Remove(connID)

	if got := repo.GetAllConnected(); len(got) != 0 {
		t.Fatalf("expected no connections after remove, got %d", len(got))
	}

	client.SetReadDeadline(time.Now().Add(2 * time.Second))
	if _, _, err := client.ReadMessage(); err == nil {
		t.Fatal("client read succeeded on a removed connection")
	}
}

func TestCloseAllEmptiesRepository(t *testing.T) {
	repo := NewConnectionRepository(16, 5*time.Second)

	a := uuid.New()
	b := uuid.New()
	clientA := dialRepo(t, repo, a)
	clientB := dialRepo(t, repo, b)

	repo.CloseAll()

	if got := repo.GetAllConnected(); len(got) != 0 {
		t.Fatalf("expected no connections after CloseAll, got %d", len(got))
	}

	for _, client := range []*websocket.Conn{clientA, clientB} {
		client.SetReadDeadline(time.Now().Add(2 * time.Second))
		if _, _, err := client.ReadMessage(); err == nil {
			t.Fatal("client read succeeded after CloseAll")
		}
	}
}
