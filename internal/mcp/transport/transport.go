// Package transport defines the uniform contract every MCP wire binding
// implements, plus concrete adapters for stdio, streamable HTTP+SSE,
// WebSocket, and a load-balancing pool over a set of transports.
package transport

import (
	"context"
	"errors"
)

// Kind identifies which wire binding a Transport implements. Of the
// bindings in this package, only HTTP carries a resumable event id.
type Kind string

const (
	KindStdio     Kind = "stdio"
	KindHTTP      Kind = "http"
	KindWebSocket Kind = "websocket"
	KindPool      Kind = "pool"
)

// ErrClosed is returned by Send/Receive once Close has completed.
var ErrClosed = errors.New("transport: closed")

// Transport is the contract every wire binding satisfies: send one frame,
// receive one frame, report connectivity, and close. Frames are complete,
// already-serialized JSON-RPC messages (request, response, or
// notification) — framing (line delimiters, SSE event boundaries,
// WebSocket message boundaries) is entirely the adapter's concern and
// never leaks into this interface.
//
// Receive blocks until a frame arrives, ctx is cancelled, or the
// transport closes. Concurrent Send calls from multiple goroutines must
// be safe — each adapter serializes them internally — but only a single
// goroutine is expected to call Receive in a loop (the receive-loop
// idiom spec.md §4 prescribes for every adapter).
type Transport interface {
	Kind() Kind
	Send(ctx context.Context, frame []byte) error
	Receive(ctx context.Context) ([]byte, error)
	Close() error
	IsConnected() bool
}

// Dialer constructs a Transport, used by the connection pool to
// (re)establish connections without hard-coding which adapter it speaks.
type Dialer interface {
	Dial(ctx context.Context) (Transport, error)
}

// DialerFunc adapts a plain function to the Dialer interface.
type DialerFunc func(ctx context.Context) (Transport, error)

func (f DialerFunc) Dial(ctx context.Context) (Transport, error) {
	return f(ctx)
}
