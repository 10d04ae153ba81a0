package transport

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"sync"
	"time"

	"nhooyr.io/websocket"
)

// heartbeatInterval is how often WebSocket pings the peer to detect a
// half-open connection before a Send/Receive would otherwise block
// indefinitely.
const heartbeatInterval = 30 * time.Second

// WebSocket is a Transport over a single nhooyr.io/websocket connection,
// grounded in the teacher's WebSocketHub/Client split: a dedicated writer
// serializes outbound frames the same way the hub's writePump drains a
// per-client send channel, and a background heartbeat goroutine plays the
// role the hub's Run loop plays for liveness, generalized from broadcast
// fan-out to a single bidirectional connection per MCP session.
type WebSocket struct {
	conn   *websocket.Conn
	logger *log.Logger

	writeMu sync.Mutex
	mu      sync.RWMutex
	closed  bool

	cancelHeartbeat context.CancelFunc
}

// NewWebSocket wraps an already-established connection, whether from
// DialWebSocket (client side) or AcceptWebSocket (server side), and
// starts its heartbeat goroutine.
func NewWebSocket(conn *websocket.Conn) *WebSocket {
	hbCtx, cancel := context.WithCancel(context.Background())
	w := &WebSocket{
		conn:            conn,
		logger:          log.New(os.Stderr, "mcpcore: ", log.LstdFlags),
		cancelHeartbeat: cancel,
	}
	go w.heartbeat(hbCtx)
	return w
}

// DialWebSocket establishes a client-side connection to url.
func DialWebSocket(ctx context.Context, url string) (*WebSocket, error) {
	conn, _, err := websocket.Dial(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("transport: websocket dial: %w", err)
	}
	conn.SetReadLimit(maxLineBuffer)
	return NewWebSocket(conn), nil
}

// AcceptWebSocket upgrades an inbound HTTP request, restricting the
// allowed origins the same way the teacher's ServeHTTP handler does.
func AcceptWebSocket(w http.ResponseWriter, r *http.Request, allowedOrigins []string) (*WebSocket, error) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: allowedOrigins,
	})
	if err != nil {
		return nil, fmt.Errorf("transport: websocket accept: %w", err)
	}
	conn.SetReadLimit(maxLineBuffer)
	return NewWebSocket(conn), nil
}

func (w *WebSocket) Kind() Kind { return KindWebSocket }

func (w *WebSocket) IsConnected() bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return !w.closed
}

func (w *WebSocket) Send(ctx context.Context, frame []byte) error {
	if !w.IsConnected() {
		return ErrClosed
	}
	w.writeMu.Lock()
	defer w.writeMu.Unlock()
	if err := w.conn.Write(ctx, websocket.MessageText, frame); err != nil {
		return fmt.Errorf("transport: websocket write: %w", err)
	}
	return nil
}

func (w *WebSocket) Receive(ctx context.Context) ([]byte, error) {
	if !w.IsConnected() {
		return nil, ErrClosed
	}
	_, data, err := w.conn.Read(ctx)
	if err != nil {
		_ = w.Close()
		return nil, fmt.Errorf("transport: websocket read: %w", err)
	}
	return data, nil
}

func (w *WebSocket) Close() error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil
	}
	w.closed = true
	w.mu.Unlock()
	w.cancelHeartbeat()
	return w.conn.Close(websocket.StatusNormalClosure, "")
}

// heartbeat pings the peer on a fixed interval and closes the connection
// if a ping ever fails, the same liveness signal the teacher's hub gets
// for free from its per-message write deadline, generalized here to a
// connection that may sit idle between MCP calls.
func (w *WebSocket) heartbeat(ctx context.Context) {
	ticker := time.NewTicker(heartbeatInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			err := w.conn.Ping(pingCtx)
			cancel()
			if err != nil {
				w.logger.Printf("websocket heartbeat failed: %v", err)
				_ = w.Close()
				return
			}
		}
	}
}
