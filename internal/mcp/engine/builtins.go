package engine

import (
	"bytes"
	"compress/gzip"
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"log"
	"time"

	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"github.com/scrypster/mcpcore/internal/mcp/protocol"
	"github.com/scrypster/mcpcore/internal/mcp/server"
)

// LoggingMiddleware logs every inbound request's method, outcome, and
// elapsed time through l, exactly the stderr-only diagnostic logging
// convention every transport adapter in this SDK already follows — a
// middleware chain is just another place that rule applies.
func LoggingMiddleware(l *log.Logger) MiddlewareFunc {
	return NewMiddleware("logging", PriorityHigh, func(ctx context.Context, req protocol.Request, next Next) (any, *protocol.Error) {
		start := time.Now()
		result, rpcErr := next(ctx, req)
		elapsed := time.Since(start)
		if rpcErr != nil {
			l.Printf("%s failed in %s: %s (code %d)", req.Method, elapsed, rpcErr.Message, rpcErr.Code)
		} else {
			l.Printf("%s ok in %s", req.Method, elapsed)
		}
		return result, rpcErr
	})
}

// AuthHeaderMiddleware copies credentials (already extracted by the
// transport adapter from an Authorization header, a WebSocket handshake
// token, or similar) onto ctx before the request reaches the dispatcher,
// using the server package's own credentials key so ProtocolHandler.Dispatch
// finds them via credentialsFromContext. It never itself authenticates —
// that stays the server core's job via auth.Authenticator — this
// middleware only relays what the transport saw.
func AuthHeaderMiddleware(credentials func(ctx context.Context) map[string]string) MiddlewareFunc {
	return NewMiddleware("auth-header", PriorityCritical, func(ctx context.Context, req protocol.Request, next Next) (any, *protocol.Error) {
		if creds := credentials(ctx); creds != nil {
			ctx = server.WithCredentials(ctx, creds)
		}
		return next(ctx, req)
	})
}

// RetryHintMiddleware annotates a response with whether its error category
// is one the reliability layer would retry (protocol.Category.Retryable),
// so a caller wrapping Call in a reliability.Policy can decide without
// re-deriving the mapping from the protocol error code alone. It never retries itself — retrying is the
// reliability layer's job — it only attaches the hint.
type RetryHint struct {
	Retryable bool
}

func RetryHintMiddleware() MiddlewareFunc {
	return NewMiddleware("retry-hint", PriorityLowest, func(ctx context.Context, req protocol.Request, next Next) (any, *protocol.Error) {
		result, rpcErr := next(ctx, req)
		if rpcErr == nil {
			return result, nil
		}
		rpcErr.Data = RetryHint{Retryable: protocol.CategoryOf(rpcErr.Code).Retryable()}
		return result, rpcErr
	})
}

// RateLimiterMiddleware enforces a token-bucket limit (golang.org/x/time/rate,
// the same limiter package the teacher's own HTTP middleware used for its
// web UI) shared across every request handled by one Engine. A request
// that arrives with no token available fails fast with RateLimited rather
// than queuing, matching spec.md §7's "RateLimited ... before the work is
// attempted" rule.
func RateLimiterMiddleware(limiter *rate.Limiter) MiddlewareFunc {
	return NewMiddleware("rate-limiter", PriorityCritical, func(ctx context.Context, req protocol.Request, next Next) (any, *protocol.Error) {
		if !limiter.Allow() {
			return nil, protocol.NewError(protocol.CodeRateLimited, "rate limit exceeded")
		}
		return next(ctx, req)
	})
}

// CircuitBreakerMiddleware wraps dispatch in a gobreaker.CircuitBreaker
// (the same library internal/reliability.CircuitBreaker wraps), tripping
// per method name so one misbehaving tool can't open the breaker for
// every other method on the same connection.
func CircuitBreakerMiddleware(settings gobreaker.Settings) MiddlewareFunc {
	breakers := make(map[string]*gobreaker.CircuitBreaker)
	return NewMiddleware("circuit-breaker", PriorityHigh, func(ctx context.Context, req protocol.Request, next Next) (any, *protocol.Error) {
		cb, ok := breakers[req.Method]
		if !ok {
			s := settings
			s.Name = req.Method
			cb = gobreaker.NewCircuitBreaker(s)
			breakers[req.Method] = cb
		}
		result, err := cb.Execute(func() (any, error) {
			res, rpcErr := next(ctx, req)
			if rpcErr != nil {
				return res, rpcErr
			}
			return res, nil
		})
		if err != nil {
			if err == gobreaker.ErrOpenState || err == gobreaker.ErrTooManyRequests {
				return nil, protocol.NewError(protocol.CodeCircuitOpen, "circuit breaker open for "+req.Method)
			}
			if rpcErr, ok := err.(*protocol.Error); ok {
				return nil, rpcErr
			}
			return nil, protocol.NewError(protocol.CodeInternalError, err.Error())
		}
		return result, nil
	})
}

// MetricsHook is called once per request with its method, outcome, and
// elapsed time. MetricsMiddleware exists as a thin seam so callers wire
// their own *reliability.Collector (or a Prometheus client directly)
// without this package importing internal/reliability and creating an
// import cycle between the two halves of the reliability story.
type MetricsHook func(method string, rpcErr *protocol.Error, elapsed time.Duration)

func MetricsMiddleware(hook MetricsHook) MiddlewareFunc {
	return NewMiddleware("metrics", PriorityLow, func(ctx context.Context, req protocol.Request, next Next) (any, *protocol.Error) {
		start := time.Now()
		result, rpcErr := next(ctx, req)
		if hook != nil {
			hook(req.Method, rpcErr, time.Since(start))
		}
		return result, rpcErr
	})
}

// CompressionThreshold is the minimum encoded result size, in bytes,
// CompressionMiddleware will bother gzip-compressing; MCP results are
// usually small content lists, so compressing every one of them would
// spend more CPU than it saves in transport bytes.
const CompressionThreshold = 1024

// CompressedEnvelope replaces a dispatch result in the outgoing response
// once its marshaled JSON reaches CompressionThreshold bytes. It still
// marshals to ordinary JSON itself — engine.handleRequest never needs to
// know compression happened — but carries the payload gzipped and
// base64-encoded inside a small wrapper a typed client can recognize and
// inflate via DecompressEnvelope.
type CompressedEnvelope struct {
	Compressed bool   `json:"compressed"`
	Encoding   string `json:"encoding,omitempty"`
	Data       string `json:"data,omitempty"`
}

// CompressionMiddleware gzips a dispatch result's JSON encoding once it
// reaches CompressionThreshold bytes, using the standard library's
// compress/gzip — no example repo in this SDK's corpus imports a
// third-party compression library, and gzip's stdlib Writer already
// covers the one concern needed: framing a compressed body a peer can
// inflate with the matching stdlib Reader.
func CompressionMiddleware() MiddlewareFunc {
	return NewMiddleware("compression", PriorityLowest, func(ctx context.Context, req protocol.Request, next Next) (any, *protocol.Error) {
		result, rpcErr := next(ctx, req)
		if rpcErr != nil {
			return result, rpcErr
		}
		raw, err := json.Marshal(result)
		if err != nil || len(raw) < CompressionThreshold {
			return result, rpcErr
		}
		var buf bytes.Buffer
		w := gzip.NewWriter(&buf)
		if _, err := w.Write(raw); err != nil {
			return result, nil
		}
		if err := w.Close(); err != nil {
			return result, nil
		}
		return CompressedEnvelope{
			Compressed: true,
			Encoding:   "gzip",
			Data:       base64.StdEncoding.EncodeToString(buf.Bytes()),
		}, nil
	})
}

// DecompressEnvelope inverts CompressionMiddleware: given a CompressedEnvelope
// read back off the wire, it returns the original result's JSON bytes.
func DecompressEnvelope(env CompressedEnvelope) ([]byte, error) {
	data, err := base64.StdEncoding.DecodeString(env.Data)
	if err != nil {
		return nil, err
	}
	r, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer r.Close()
	return io.ReadAll(r)
}
