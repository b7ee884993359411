package memory

import (
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/qrave1/peerlink/internal/application/constant"
	"github.com/qrave1/peerlink/internal/application/metric"
)

// ConnectionRepository tracks live websocket connections and owns all
// outbound writes to them.
type ConnectionRepository interface {
	Add(connID uuid.UUID, ws *websocket.Conn)
	Remove(connID uuid.UUID)

	// Write queues a payload for delivery. Delivery is best-effort: a
	// connection whose queue is full gets closed instead of stalling
	// the sender.
	Write(connID uuid.UUID, payload any)

	GetAllConnected() []uuid.UUID

	// CloseAll closes every connection and empties the repository.
	// Used on shutdown.
	CloseAll()
}

// queuedConn wraps a websocket with a bounded outbound queue drained by
// a single writer goroutine, so concurrent relays never interleave
// writes on the wire.
type queuedConn struct {
	ws    *websocket.Conn
	sendQ chan []byte
	done  chan struct{}
	once  sync.Once
}

func (q *queuedConn) close() {
	q.once.Do(func() {
		close(q.done)
		q.ws.Close()
	})
}

// runWriter drains the queue to the socket. Runs as a goroutine per
// connection.
func (q *queuedConn) runWriter(writeTimeout time.Duration) {
	for {
		select {
		case payload := <-q.sendQ:
			q.ws.SetWriteDeadline(time.Now().Add(writeTimeout))

			if err := q.ws.WriteMessage(websocket.TextMessage, payload); err != nil {
				q.close()
				return
			}
		case <-q.done:
			return
		}
	}
}

type connectionRepository struct {
	// conns holds map[connection_id]*queuedConn
	conns map[uuid.UUID]*queuedConn

	queueSize    int
	writeTimeout time.Duration

	mu sync.RWMutex
}

func NewConnectionRepository(queueSize int, writeTimeout time.Duration) ConnectionRepository {
	return &connectionRepository{
		conns:        make(map[uuid.UUID]*queuedConn, 10),
		queueSize:    queueSize,
		writeTimeout: writeTimeout,
	}
}

func (r *connectionRepository) Add(connID uuid.UUID, ws *websocket.Conn) {
	qc := &queuedConn{
		ws:    ws,
		sendQ: make(chan []byte, r.queueSize),
		done:  make(chan struct{}),
	}

	r.mu.Lock()
	r.conns[connID] = qc
	r.mu.Unlock()

	go qc.runWriter(r.writeTimeout)

	metric.IncrementWSActiveConnections()
}

func (r *connectionRepository) Remove(connID uuid.UUID) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if qc, exists := r.conns[connID]; exists {
		qc.close()
		delete(r.conns, connID)

		metric.DecrementWSActiveConnections()
	}
}

func (r *connectionRepository) Write(connID uuid.UUID, payload any) {
	qc, ok := r.get(connID)
	if !ok {
		return
	}

	data, err := json.Marshal(payload)
	if err != nil {
		slog.Error(
			"marshal outbound payload",
			slog.Any(constant.Error, err),
			slog.Any(constant.ConnID, connID),
		)
		return
	}

	select {
	case qc.sendQ <- data:
	default:
		// The queue is full: the peer is not draining its socket.
		// Closing it triggers the normal disconnect cleanup.
		slog.Warn("outbound queue overflow, closing connection", slog.Any(constant.ConnID, connID))

		metric.RecordDroppedConnection()
		qc.close()
	}
}

func (r *connectionRepository) get(connID uuid.UUID) (*queuedConn, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	qc, ok := r.conns[connID]
	return qc, ok
}

func (r *connectionRepository) GetAllConnected() []uuid.UUID {
	r.mu.RLock()
	defer r.mu.RUnlock()

	connIDs := make([]uuid.UUID, 0, len(r.conns))

	for connID := range r.conns {
		connIDs = append(connIDs, connID)
	}

	return connIDs
}

func (r *connectionRepository) CloseAll() {
	r.mu.Lock()
	defer r.mu.Unlock()

	for connID, qc := range r.conns {
		qc.close()
		delete(r.conns, connID)

		metric.DecrementWSActiveConnections()
	}
}
