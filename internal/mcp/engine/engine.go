package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/scrypster/mcpcore/internal/mcp/protocol"
	"github.com/scrypster/mcpcore/internal/mcp/transport"
)

// Dispatcher resolves a single Request to a result or a protocol error.
// A server core implements this; the engine never knows what a method
// name means, only how to route the frame around it.
type Dispatcher func(ctx context.Context, req protocol.Request) (any, *protocol.Error)

// NotificationHandler reacts to an inbound Notification whose method the
// engine does not itself interpret (progress and cancelled are handled
// internally; everything else — initialized, list-changed notices,
// logging/message — is routed here).
type NotificationHandler func(ctx context.Context, n protocol.Notification)

// DefaultRequestTimeout bounds how long a dispatched request may run
// before the engine synthesizes a Timeout error response, matching the
// reliability layer's default deadline (reliability.DefaultTimeout).
const DefaultRequestTimeout = 30 * time.Second

// Engine drives one Transport: it runs the receive loop, correlates
// outbound calls via a protocol.PendingTable, applies a Chain of
// middleware to inbound requests before handing them to a Dispatcher, and
// tracks per-request cancellation and progress plumbing. One Engine
// serves one connection; a server or client wraps one Engine per peer.
type Engine struct {
	t        transport.Transport
	pending  *protocol.PendingTable
	chain    *Chain
	dispatch Dispatcher
	notify   NotificationHandler
	logger   *log.Logger
	timeout  time.Duration

	mu          sync.Mutex
	inflight    map[string]context.CancelFunc
	progressSubs map[string][]chan protocol.ProgressParams

	nextID atomic.Int64
}

// Option configures an Engine at construction.
type Option func(*Engine)

// WithTimeout overrides DefaultRequestTimeout.
func WithTimeout(d time.Duration) Option {
	return func(e *Engine) { e.timeout = d }
}

// WithNotificationHandler installs the handler for notifications the
// engine does not interpret internally.
func WithNotificationHandler(h NotificationHandler) Option {
	return func(e *Engine) { e.notify = h }
}

// WithLogger overrides the engine's diagnostic logger. Like every
// stdio-adjacent logger in this SDK it must never be pointed at a
// transport's own stream.
func WithLogger(l *log.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// New builds an Engine over t. dispatch may be nil for a pure client
// engine that only ever issues outbound Calls and never answers inbound
// requests (it will reply MethodNotFound to any it receives).
func New(t transport.Transport, chain *Chain, dispatch Dispatcher, opts ...Option) *Engine {
	e := &Engine{
		t:            t,
		pending:      protocol.NewPendingTable(),
		chain:        chain,
		dispatch:     dispatch,
		logger:       log.New(os.Stderr, "mcpcore-engine: ", log.LstdFlags),
		timeout:      DefaultRequestTimeout,
		inflight:     make(map[string]context.CancelFunc),
		progressSubs: make(map[string][]chan protocol.ProgressParams),
	}
	if e.chain == nil {
		e.chain = NewChain()
	}
	return e
}

// Run drains the transport until it closes or ctx is cancelled, routing
// every frame to handleRequest, handleResponse, or handleNotification.
// It returns transport.ErrClosed on a clean shutdown.
func (e *Engine) Run(ctx context.Context) error {
	defer e.pending.Drain("engine: transport closed")
	for {
		frame, err := e.t.Receive(ctx)
		if err != nil {
			return err
		}
		kind, err := protocol.Classify(frame)
		if err != nil {
			e.logger.Printf("dropping malformed frame: %v", err)
			continue
		}
		switch kind {
		case protocol.KindRequest:
			req, err := protocol.DecodeRequest(frame)
			if err != nil {
				e.logger.Printf("dropping malformed request: %v", err)
				continue
			}
			go e.handleRequest(ctx, req)
		case protocol.KindResponse:
			resp, err := protocol.DecodeResponse(frame)
			if err != nil {
				e.logger.Printf("dropping malformed response: %v", err)
				continue
			}
			e.pending.Resolve(resp)
		case protocol.KindNotification:
			n, err := protocol.DecodeNotification(frame)
			if err != nil {
				e.logger.Printf("dropping malformed notification: %v", err)
				continue
			}
			e.handleNotification(ctx, n)
		}
	}
}

// handleRequest runs the middleware chain and dispatcher for one inbound
// request under a per-request timeout, then writes its response. The
// request's cancel func is tracked so a later notifications/cancelled can
// tear it down early.
func (e *Engine) handleRequest(parent context.Context, req protocol.Request) {
	ctx, cancel := context.WithTimeout(parent, e.timeout)
	key := req.ID.String()

	e.mu.Lock()
	e.inflight[key] = cancel
	e.mu.Unlock()
	defer func() {
		e.mu.Lock()
		delete(e.inflight, key)
		e.mu.Unlock()
		cancel()
	}()

	var result any
	var rpcErr *protocol.Error

	if e.dispatch == nil {
		rpcErr = protocol.NewError(protocol.CodeMethodNotFound, fmt.Sprintf("method not found: %s", req.Method))
	} else {
		result, rpcErr = e.chain.Run(ctx, req, e.dispatch)
	}

	if ctx.Err() == context.DeadlineExceeded && rpcErr == nil {
		rpcErr = protocol.NewTimeoutError(e.timeout.Milliseconds())
	}

	var resp protocol.Response
	if rpcErr != nil {
		resp = protocol.NewErrorResponse(req.ID, rpcErr)
	} else {
		built, err := protocol.NewResultResponse(req.ID, result)
		if err != nil {
			resp = protocol.NewErrorResponse(req.ID, protocol.NewError(protocol.CodeInternalError, err.Error()))
		} else {
			resp = built
		}
	}

	raw, err := json.Marshal(resp)
	if err != nil {
		e.logger.Printf("marshal response: %v", err)
		return
	}
	if err := e.t.Send(parent, raw); err != nil {
		e.logger.Printf("send response: %v", err)
	}
}

func (e *Engine) handleNotification(ctx context.Context, n protocol.Notification) {
	switch n.Method {
	case "notifications/cancelled":
		var params protocol.CancelledParams
		if err := json.Unmarshal(n.Params, &params); err != nil {
			e.logger.Printf("malformed cancelled notification: %v", err)
			return
		}
		e.mu.Lock()
		cancel, ok := e.inflight[params.RequestID.String()]
		e.mu.Unlock()
		if ok {
			cancel()
		}
	case "notifications/progress":
		var params protocol.ProgressParams
		if err := json.Unmarshal(n.Params, &params); err != nil {
			e.logger.Printf("malformed progress notification: %v", err)
			return
		}
		e.mu.Lock()
		subs := append([]chan protocol.ProgressParams(nil), e.progressSubs[params.ProgressToken]...)
		e.mu.Unlock()
		for _, ch := range subs {
			select {
			case ch <- params:
			default:
			}
		}
	default:
		if e.notify != nil {
			e.notify(ctx, n)
		}
	}
}

// Call issues an outbound request and blocks until its response arrives,
// ctx is cancelled, or the engine's default timeout elapses — whichever
// comes first. On cancellation it best-effort notifies the peer with
// notifications/cancelled so server-side work can stop promptly instead
// of running to completion for nothing.
func (e *Engine) Call(ctx context.Context, method string, params any) (json.RawMessage, *protocol.Error) {
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	id := protocol.NewIntID(e.nextID.Add(1))
	req, err := protocol.NewRequest(id, method, params)
	if err != nil {
		return nil, protocol.NewError(protocol.CodeInternalError, err.Error())
	}
	call, err := e.pending.Register(id, method)
	if err != nil {
		return nil, protocol.NewError(protocol.CodeInternalError, err.Error())
	}

	raw, err := json.Marshal(req)
	if err != nil {
		e.pending.Cancel(id, "marshal failed")
		return nil, protocol.NewError(protocol.CodeInternalError, err.Error())
	}
	if sendErr := e.t.Send(ctx, raw); sendErr != nil {
		e.pending.Cancel(id, "send failed")
		return nil, protocol.NewError(protocol.CodeInternalError, sendErr.Error())
	}

	select {
	case resp := <-call.Done():
		if resp.Error != nil {
			return nil, resp.Error
		}
		return resp.Result, nil
	case <-ctx.Done():
		e.pending.Cancel(id, "client timeout")
		cancelNotif, _ := protocol.NewNotification("notifications/cancelled", protocol.CancelledParams{
			RequestID: id,
			Reason:    "client timeout",
		})
		if raw, err := json.Marshal(cancelNotif); err == nil {
			_ = e.t.Send(context.Background(), raw)
		}
		return nil, protocol.NewTimeoutError(e.timeout.Milliseconds())
	}
}

// Notify sends a fire-and-forget outbound notification.
func (e *Engine) Notify(ctx context.Context, method string, params any) error {
	n, err := protocol.NewNotification(method, params)
	if err != nil {
		return err
	}
	raw, err := json.Marshal(n)
	if err != nil {
		return err
	}
	return e.t.Send(ctx, raw)
}

// SubscribeProgress registers ch to receive every progress notification
// carrying token, returning an unsubscribe func the caller must run once
// it stops reading from ch.
func (e *Engine) SubscribeProgress(token string, ch chan protocol.ProgressParams) (unsubscribe func()) {
	e.mu.Lock()
	e.progressSubs[token] = append(e.progressSubs[token], ch)
	e.mu.Unlock()
	return func() {
		e.mu.Lock()
		defer e.mu.Unlock()
		subs := e.progressSubs[token]
		for i, c := range subs {
			if c == ch {
				e.progressSubs[token] = append(subs[:i], subs[i+1:]...)
				break
			}
		}
	}
}

// InflightCount reports the number of requests this engine is currently
// dispatching, used by reliability metrics to expose server load.
func (e *Engine) InflightCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.inflight)
}
