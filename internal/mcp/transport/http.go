package transport

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

// SessionIDHeader is the header streamable-HTTP clients use to bind every
// request after the first to the same logical connection.
const SessionIDHeader = "Mcp-Session-Id"

// LastEventIDHeader lets a reconnecting SSE client resume from the event
// immediately after the one it last saw.
const LastEventIDHeader = "Last-Event-ID"

var httpTracer = otel.Tracer("mcpcore/transport/http")

// sseEvent pairs a frame with the monotonic id it is replayed under.
type sseEvent struct {
	id    uint64
	frame []byte
}

// HTTPSession is one logical MCP connection multiplexed over the
// streamable-HTTP binding: inbound JSON-RPC frames arrive via POST and are
// handed to Receive; outbound frames are buffered and replayed to any SSE
// stream (GET) currently attached, with a monotonic event id so a
// reconnecting client can resume with Last-Event-ID instead of losing
// server-initiated messages sent while it was disconnected.
type HTTPSession struct {
	id string

	inbound chan []byte

	mu       sync.Mutex
	log      []sseEvent
	nextID   uint64
	sseConns map[chan sseEvent]struct{}

	closed atomic.Bool
}

func newHTTPSession(id string) *HTTPSession {
	return &HTTPSession{
		id:       id,
		inbound:  make(chan []byte, 64),
		sseConns: make(map[chan sseEvent]struct{}),
	}
}

func (s *HTTPSession) Kind() Kind { return KindHTTP }

func (s *HTTPSession) IsConnected() bool { return !s.closed.Load() }

// Send appends frame to the replay log and fans it out to every attached
// SSE stream. It never blocks on a slow subscriber — a stream whose buffer
// is full is closed, so its client reconnects with Last-Event-ID and
// replays what it missed from the log, the same back-pressure posture
// the reliability layer's bulk recovery expects from a transport.
func (s *HTTPSession) Send(ctx context.Context, frame []byte) error {
	if s.closed.Load() {
		return ErrClosed
	}
	s.mu.Lock()
	s.nextID++
	ev := sseEvent{id: s.nextID, frame: frame}
	s.log = append(s.log, ev)
	if len(s.log) > 1024 {
		s.log = s.log[len(s.log)-1024:]
	}
	for ch := range s.sseConns {
		select {
		case ch <- ev:
		default:
			close(ch)
			delete(s.sseConns, ch)
		}
	}
	s.mu.Unlock()
	return nil
}

// Receive returns the next frame POSTed by the client for this session.
func (s *HTTPSession) Receive(ctx context.Context) ([]byte, error) {
	select {
	case frame, ok := <-s.inbound:
		if !ok {
			return nil, ErrClosed
		}
		return frame, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (s *HTTPSession) Close() error {
	if !s.closed.CompareAndSwap(false, true) {
		return nil
	}
	close(s.inbound)
	s.mu.Lock()
	for ch := range s.sseConns {
		close(ch)
	}
	s.sseConns = nil
	s.mu.Unlock()
	return nil
}

// subscribe attaches a new SSE stream, replaying every buffered event
// whose id is greater than afterID so a client reconnecting with
// Last-Event-ID does not miss messages sent while it was away.
func (s *HTTPSession) subscribe(afterID uint64) (chan sseEvent, []sseEvent) {
	ch := make(chan sseEvent, 32)
	s.mu.Lock()
	defer s.mu.Unlock()
	var backlog []sseEvent
	for _, ev := range s.log {
		if ev.id > afterID {
			backlog = append(backlog, ev)
		}
	}
	s.sseConns[ch] = struct{}{}
	return ch, backlog
}

func (s *HTTPSession) unsubscribe(ch chan sseEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sseConns, ch)
}

// HTTPServer is the gin-based acceptor for the streamable-HTTP binding. It
// hands each new Mcp-Session-Id a fresh *HTTPSession over Accept, the same
// role the stdio adapter's Serve loop plays for a single process, and
// wires OpenTelemetry tracing the way the teacher instruments its HTTP
// handlers with otelgin so every MCP request over HTTP is traced
// end-to-end alongside the rest of the stack.
type HTTPServer struct {
	engine *gin.Engine

	mu       sync.Mutex
	sessions map[string]*HTTPSession
	accept   chan *HTTPSession
}

// NewHTTPServer builds an HTTPServer mounting its MCP endpoint at path on
// a fresh gin.Engine using gin.Default middleware (logger + recovery),
// matching the teacher's gin setup.
func NewHTTPServer(path string) *HTTPServer {
	h := &HTTPServer{
		engine:   gin.Default(),
		sessions: make(map[string]*HTTPSession),
		accept:   make(chan *HTTPSession, 16),
	}
	h.engine.POST(path, h.handlePost)
	h.engine.GET(path, h.handleStream)
	return h
}

// Engine exposes the underlying gin.Engine so a binary can mount it on an
// http.Server alongside other routes or wrap it with otelgin.Middleware.
func (h *HTTPServer) Engine() *gin.Engine { return h.engine }

// Accept blocks until a new session is established (its first POST
// arrives without an existing Mcp-Session-Id) or ctx is cancelled.
func (h *HTTPServer) Accept(ctx context.Context) (*HTTPSession, error) {
	select {
	case sess := <-h.accept:
		return sess, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (h *HTTPServer) handlePost(c *gin.Context) {
	ctx, span := httpTracer.Start(c.Request.Context(), "mcp.http.post", trace.WithAttributes())
	defer span.End()

	sessionID := c.GetHeader(SessionIDHeader)
	isNew := sessionID == ""
	if isNew {
		sessionID = newSessionID()
	}

	sess := h.sessionFor(sessionID, isNew)
	if sess == nil {
		c.AbortWithStatus(http.StatusNotFound)
		return
	}

	body, err := c.GetRawData()
	if err != nil {
		c.AbortWithStatus(http.StatusBadRequest)
		return
	}

	select {
	case sess.inbound <- body:
	case <-ctx.Done():
		c.AbortWithStatus(http.StatusGatewayTimeout)
		return
	}

	c.Header(SessionIDHeader, sessionID)
	if isNew {
		select {
		case h.accept <- sess:
		default:
		}
	}
	c.Status(http.StatusAccepted)
}

func (h *HTTPServer) handleStream(c *gin.Context) {
	sessionID := c.GetHeader(SessionIDHeader)
	h.mu.Lock()
	sess, ok := h.sessions[sessionID]
	h.mu.Unlock()
	if !ok {
		c.AbortWithStatus(http.StatusNotFound)
		return
	}

	var afterID uint64
	if raw := c.GetHeader(LastEventIDHeader); raw != "" {
		afterID, _ = strconv.ParseUint(raw, 10, 64)
	}

	ch, backlog := sess.subscribe(afterID)
	defer sess.unsubscribe(ch)

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")

	writeSSE := func(ev sseEvent) bool {
		_, err := fmt.Fprintf(c.Writer, "id: %d\ndata: %s\n\n", ev.id, ev.frame)
		if err != nil {
			return false
		}
		c.Writer.Flush()
		return true
	}

	for _, ev := range backlog {
		if !writeSSE(ev) {
			return
		}
	}

	for {
		select {
		case ev, ok := <-ch:
			if !ok {
				return
			}
			if !writeSSE(ev) {
				return
			}
		case <-c.Request.Context().Done():
			return
		}
	}
}

func (h *HTTPServer) sessionFor(id string, isNew bool) *HTTPSession {
	h.mu.Lock()
	defer h.mu.Unlock()
	if sess, ok := h.sessions[id]; ok {
		return sess
	}
	if !isNew {
		return nil
	}
	sess := newHTTPSession(id)
	h.sessions[id] = sess
	return sess
}

// newSessionID mints an opaque session identifier unique across server
// processes, not just within one, since a client's Mcp-Session-Id may
// outlive the process that minted it behind a load balancer.
func newSessionID() string {
	return "sess-" + uuid.NewString()
}
