package channel

import (
	"context"
	"sync"

	"github.com/gorilla/websocket"
)

// WebSocket is an Adapter backed by a single gorilla/websocket connection —
// the transport for the streaming plan-execution endpoint (spec.md §6.2,
// `GET /v1/plans/{runId}/stream`). Events are written as JSON text frames;
// decisions are read the same way.
type WebSocket struct {
	conn *websocket.Conn

	writeMu sync.Mutex

	mu       sync.Mutex
	closed   bool
	awaiting bool
}

// NewWebSocket wraps an already-upgraded connection.
func NewWebSocket(conn *websocket.Conn) *WebSocket {
	return &WebSocket{conn: conn}
}

func (w *WebSocket) Send(ctx context.Context, ev Event) error {
	w.mu.Lock()
	closed := w.closed
	w.mu.Unlock()
	if closed {
		return ErrClosed
	}
	w.writeMu.Lock()
	defer w.writeMu.Unlock()
	return w.conn.WriteJSON(ev)
}

// Await reads the next text frame and decodes it as a Decision. gorilla's
// ReadJSON blocks on the underlying connection and does not honor ctx
// directly; callers that need cancellation should set a read deadline on
// the connection before calling Await, or close the connection to unblock
// it (spec.md §4.6 requires at most one outstanding Await, enforced below).
func (w *WebSocket) Await(ctx context.Context) (Decision, error) {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return Decision{}, ErrClosed
	}
	if w.awaiting {
		w.mu.Unlock()
		return Decision{}, ErrDecisionInFlight
	}
	w.awaiting = true
	w.mu.Unlock()
	defer func() {
		w.mu.Lock()
		w.awaiting = false
		w.mu.Unlock()
	}()

	var d Decision
	if err := w.conn.ReadJSON(&d); err != nil {
		return Decision{}, err
	}
	return d, nil
}

func (w *WebSocket) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return nil
	}
	w.closed = true
	return w.conn.Close()
}
