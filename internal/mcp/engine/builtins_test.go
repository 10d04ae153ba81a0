package engine_test

import (
	"context"
	"encoding/json"
	"log"
	"os"
	"testing"
	"time"

	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"github.com/scrypster/mcpcore/internal/mcp/engine"
	"github.com/scrypster/mcpcore/internal/mcp/protocol"
	"github.com/scrypster/mcpcore/internal/mcp/server"
)

func TestLoggingMiddleware_RunsDispatchAndLogs(t *testing.T) {
	l := log.New(os.Stderr, "test: ", 0)
	chain := engine.NewChain(engine.LoggingMiddleware(l))
	called := false
	_, rpcErr := chain.Run(context.Background(), protocol.Request{Method: "ping"}, func(ctx context.Context, req protocol.Request) (any, *protocol.Error) {
		called = true
		return "ok", nil
	})
	assert.Nil(t, rpcErr)
	assert.True(t, called)
}

func TestAuthHeaderMiddleware_AttachesCredentials(t *testing.T) {
	mw := engine.AuthHeaderMiddleware(func(ctx context.Context) map[string]string {
		return map[string]string{"Authorization": "Bearer xyz"}
	})
	chain := engine.NewChain(mw)
	var seen map[string]string
	_, rpcErr := chain.Run(context.Background(), protocol.Request{Method: "tools/call"}, func(ctx context.Context, req protocol.Request) (any, *protocol.Error) {
		seen = server.CredentialsFromContext(ctx)
		return nil, nil
	})
	require.Nil(t, rpcErr)
	assert.Equal(t, "Bearer xyz", seen["Authorization"])
}

func TestRetryHintMiddleware_TagsRetryableAndNonRetryable(t *testing.T) {
	chain := engine.NewChain(engine.RetryHintMiddleware())

	_, rpcErr := chain.Run(context.Background(), protocol.Request{}, func(ctx context.Context, req protocol.Request) (any, *protocol.Error) {
		return nil, protocol.NewError(protocol.CodeInternalError, "boom")
	})
	require.NotNil(t, rpcErr)
	assert.Equal(t, engine.RetryHint{Retryable: true}, rpcErr.Data)

	_, rpcErr = chain.Run(context.Background(), protocol.Request{}, func(ctx context.Context, req protocol.Request) (any, *protocol.Error) {
		return nil, protocol.NewError(protocol.CodePermissionDenied, "nope")
	})
	require.NotNil(t, rpcErr)
	assert.Equal(t, engine.RetryHint{Retryable: false}, rpcErr.Data)
}

func TestRateLimiterMiddleware_RejectsOverBudget(t *testing.T) {
	limiter := rate.NewLimiter(rate.Limit(0), 1) // one token, no refill
	chain := engine.NewChain(engine.RateLimiterMiddleware(limiter))
	dispatch := func(ctx context.Context, req protocol.Request) (any, *protocol.Error) {
		return "ok", nil
	}

	_, rpcErr := chain.Run(context.Background(), protocol.Request{}, dispatch)
	assert.Nil(t, rpcErr)

	_, rpcErr = chain.Run(context.Background(), protocol.Request{}, dispatch)
	require.NotNil(t, rpcErr)
	assert.Equal(t, protocol.CodeRateLimited, rpcErr.Code)
}

func TestCircuitBreakerMiddleware_OpensAfterConsecutiveFailures(t *testing.T) {
	settings := gobreaker.Settings{
		MaxRequests: 1,
		Interval:    0,
		Timeout:     50 * time.Millisecond,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 2
		},
	}
	chain := engine.NewChain(engine.CircuitBreakerMiddleware(settings))
	fail := func(ctx context.Context, req protocol.Request) (any, *protocol.Error) {
		return nil, protocol.NewError(protocol.CodeInternalError, "fail")
	}
	req := protocol.Request{Method: "tools/call"}

	_, _ = chain.Run(context.Background(), req, fail)
	_, _ = chain.Run(context.Background(), req, fail)

	_, rpcErr := chain.Run(context.Background(), req, func(ctx context.Context, req protocol.Request) (any, *protocol.Error) {
		t.Fatal("dispatch must not run while circuit is open")
		return nil, nil
	})
	require.NotNil(t, rpcErr)
	assert.Equal(t, protocol.CodeCircuitOpen, rpcErr.Code)
}

func TestMetricsMiddleware_InvokesHookOnce(t *testing.T) {
	var calls int
	var lastMethod string
	mw := engine.MetricsMiddleware(func(method string, rpcErr *protocol.Error, elapsed time.Duration) {
		calls++
		lastMethod = method
	})
	chain := engine.NewChain(mw)
	_, _ = chain.Run(context.Background(), protocol.Request{Method: "tools/list"}, func(ctx context.Context, req protocol.Request) (any, *protocol.Error) {
		return nil, nil
	})
	assert.Equal(t, 1, calls)
	assert.Equal(t, "tools/list", lastMethod)
}

func TestCompressionMiddleware_CompressesLargeResults(t *testing.T) {
	chain := engine.NewChain(engine.CompressionMiddleware())
	big := make([]byte, engine.CompressionThreshold*2)
	for i := range big {
		big[i] = 'x'
	}
	result, rpcErr := chain.Run(context.Background(), protocol.Request{}, func(ctx context.Context, req protocol.Request) (any, *protocol.Error) {
		return map[string]string{"blob": string(big)}, nil
	})
	require.Nil(t, rpcErr)
	env, ok := result.(engine.CompressedEnvelope)
	require.True(t, ok)
	assert.True(t, env.Compressed)
	assert.Equal(t, "gzip", env.Encoding)

	raw, err := engine.DecompressEnvelope(env)
	require.NoError(t, err)
	var decoded map[string]string
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Equal(t, string(big), decoded["blob"])
}

func TestCompressionMiddleware_LeavesSmallResultsUntouched(t *testing.T) {
	chain := engine.NewChain(engine.CompressionMiddleware())
	result, rpcErr := chain.Run(context.Background(), protocol.Request{}, func(ctx context.Context, req protocol.Request) (any, *protocol.Error) {
		return map[string]string{"ok": "small"}, nil
	})
	require.Nil(t, rpcErr)
	_, wasCompressed := result.(engine.CompressedEnvelope)
	assert.False(t, wasCompressed)
}
