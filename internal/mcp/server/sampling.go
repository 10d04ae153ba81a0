package server

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/scrypster/mcpcore/internal/mcp/protocol"
)

// Caller issues an outbound request to the peer and blocks for its
// response, mirroring engine.Engine.Call's signature exactly so a cmd
// binary can pass eng.Call directly without an adapter. It is this
// package's only seam for a server-initiated request — sampling/createMessage
// is the one the core spec names, but nothing prevents a future
// server-initiated method from reusing it.
type Caller func(ctx context.Context, method string, params any) (json.RawMessage, *protocol.Error)

// WithCaller installs the callback ProtocolHandler uses to issue
// sampling/createMessage back to the connected client. A handler with no
// Caller never advertises the sampling capability, so CreateSamplingMessage
// always fails fast with UnsupportedCapability instead of blocking forever
// on a request nothing will ever answer.
func WithCaller(c Caller) Option {
	return func(h *ProtocolHandler) { h.caller = c }
}

// CreateSamplingMessage asks the connected client's LLM to produce a
// completion for messages, the server-initiated half of the sampling
// exchange spec.md §4.7 describes ("server wishes the client's LLM to
// produce a message"). Tool and resource handlers call this directly —
// there is no dispatcher case for it because it is never a request this
// handler answers, only one it sends.
func (h *ProtocolHandler) CreateSamplingMessage(ctx context.Context, params protocol.SamplingCreateMessageParams) (protocol.SamplingCreateMessageResult, error) {
	if h.caller == nil {
		return protocol.SamplingCreateMessageResult{}, fmt.Errorf("server: sampling: %w", protocol.NewUnsupportedCapabilityError("sampling/createMessage"))
	}
	raw, rpcErr := h.caller(ctx, "sampling/createMessage", params)
	if rpcErr != nil {
		return protocol.SamplingCreateMessageResult{}, rpcErr
	}
	var result protocol.SamplingCreateMessageResult
	if err := json.Unmarshal(raw, &result); err != nil {
		return protocol.SamplingCreateMessageResult{}, fmt.Errorf("server: decode sampling result: %w", err)
	}
	return result, nil
}
