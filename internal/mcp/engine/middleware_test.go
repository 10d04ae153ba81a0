package engine_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/scrypster/mcpcore/internal/mcp/engine"
	"github.com/scrypster/mcpcore/internal/mcp/protocol"
)

func TestChain_RunsInPriorityOrder(t *testing.T) {
	var order []string
	record := func(name string, p engine.Priority) engine.MiddlewareFunc {
		return engine.NewMiddleware(name, p, func(ctx context.Context, req protocol.Request, next engine.Next) (any, *protocol.Error) {
			order = append(order, name)
			return next(ctx, req)
		})
	}

	chain := engine.NewChain(
		record("low", engine.PriorityLow),
		record("critical", engine.PriorityCritical),
		record("normal", engine.PriorityNormal),
		record("high", engine.PriorityHigh),
	)

	_, rpcErr := chain.Run(context.Background(), protocol.Request{Method: "ping"}, func(ctx context.Context, req protocol.Request) (any, *protocol.Error) {
		order = append(order, "dispatch")
		return "ok", nil
	})

	assert.Nil(t, rpcErr)
	assert.Equal(t, []string{"critical", "high", "normal", "low", "dispatch"}, order)
}

func TestChain_StageCanShortCircuit(t *testing.T) {
	reject := engine.NewMiddleware("reject", engine.PriorityCritical, func(ctx context.Context, req protocol.Request, next engine.Next) (any, *protocol.Error) {
		return nil, protocol.NewError(protocol.CodePermissionDenied, "nope")
	})
	chain := engine.NewChain(reject)

	dispatchCalled := false
	_, rpcErr := chain.Run(context.Background(), protocol.Request{Method: "tools/call"}, func(ctx context.Context, req protocol.Request) (any, *protocol.Error) {
		dispatchCalled = true
		return nil, nil
	})

	assert.False(t, dispatchCalled)
	assert.Equal(t, protocol.CodePermissionDenied, rpcErr.Code)
}

func TestChain_TiesKeepRegistrationOrder(t *testing.T) {
	var order []string
	first := engine.NewMiddleware("first", engine.PriorityNormal, func(ctx context.Context, req protocol.Request, next engine.Next) (any, *protocol.Error) {
		order = append(order, "first")
		return next(ctx, req)
	})
	second := engine.NewMiddleware("second", engine.PriorityNormal, func(ctx context.Context, req protocol.Request, next engine.Next) (any, *protocol.Error) {
		order = append(order, "second")
		return next(ctx, req)
	})
	chain := engine.NewChain(first, second)

	_, _ = chain.Run(context.Background(), protocol.Request{}, func(ctx context.Context, req protocol.Request) (any, *protocol.Error) {
		return nil, nil
	})
	assert.Equal(t, []string{"first", "second"}, order)
}
