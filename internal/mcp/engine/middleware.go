// Package engine wires a transport.Transport to the JSON-RPC protocol
// model: it runs the receive loop, correlates requests with responses,
// tracks progress and cancellation, and applies a priority-ordered
// middleware chain around every inbound call before it reaches a
// server's dispatcher.
package engine

import (
	"context"
	"sort"

	"github.com/scrypster/mcpcore/internal/mcp/protocol"
)

// Priority orders middleware execution, lowest value first — mirroring
// the teacher's convention of running security/logging concerns before
// business logic, generalized into an explicit total order instead of
// registration order.
type Priority int

const (
	PriorityCritical Priority = iota
	PriorityHigh
	PriorityNormal
	PriorityLow
	PriorityLowest
)

// Next is the continuation a Middleware calls to run the remainder of the
// chain (and eventually the dispatcher), exactly like net/http's
// http.Handler composition.
type Next func(ctx context.Context, req protocol.Request) (any, *protocol.Error)

// Middleware wraps request handling. It receives the already-decoded
// Request and the Next continuation; it may inspect/reject the request
// before calling next, and inspect/rewrap the result after.
type Middleware interface {
	Name() string
	Priority() Priority
	Handle(ctx context.Context, req protocol.Request, next Next) (any, *protocol.Error)
}

// MiddlewareFunc adapts a plain function to Middleware at the priority
// passed to NewMiddleware.
type MiddlewareFunc struct {
	name     string
	priority Priority
	fn       func(ctx context.Context, req protocol.Request, next Next) (any, *protocol.Error)
}

// NewMiddleware builds a MiddlewareFunc.
func NewMiddleware(name string, priority Priority, fn func(context.Context, protocol.Request, Next) (any, *protocol.Error)) MiddlewareFunc {
	return MiddlewareFunc{name: name, priority: priority, fn: fn}
}

func (m MiddlewareFunc) Name() string       { return m.name }
func (m MiddlewareFunc) Priority() Priority { return m.priority }
func (m MiddlewareFunc) Handle(ctx context.Context, req protocol.Request, next Next) (any, *protocol.Error) {
	return m.fn(ctx, req, next)
}

// Chain is an ordered, priority-sorted sequence of Middleware terminated
// by a dispatcher function.
type Chain struct {
	stages []Middleware
}

// NewChain builds a Chain from stages, sorted by Priority ascending. Ties
// keep their relative registration order (sort.SliceStable), so two
// PriorityNormal stages run in the order they were added.
func NewChain(stages ...Middleware) *Chain {
	c := &Chain{stages: append([]Middleware(nil), stages...)}
	sort.SliceStable(c.stages, func(i, j int) bool {
		return c.stages[i].Priority() < c.stages[j].Priority()
	})
	return c
}

// Run executes the chain, terminating in dispatch if every stage calls
// its Next.
func (c *Chain) Run(ctx context.Context, req protocol.Request, dispatch Next) (any, *protocol.Error) {
	var run func(i int) Next
	run = func(i int) Next {
		return func(ctx context.Context, req protocol.Request) (any, *protocol.Error) {
			if i >= len(c.stages) {
				return dispatch(ctx, req)
			}
			return c.stages[i].Handle(ctx, req, run(i+1))
		}
	}
	return run(0)(ctx, req)
}
