// Package client implements a thin typed facade over the protocol engine
// for the caller side of an MCP connection: it performs the initialize
// handshake, remembers the server's negotiated capabilities, and gates
// every typed call against them before ever putting a frame on the wire.
package client

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/scrypster/mcpcore/internal/mcp/engine"
	"github.com/scrypster/mcpcore/internal/mcp/protocol"
	"github.com/scrypster/mcpcore/internal/mcp/transport"
)

// Client is a single MCP connection from the caller's point of view.
type Client struct {
	eng          *engine.Engine
	info         protocol.ClientInfo
	capabilities protocol.ClientCapabilities

	mu            sync.Mutex
	initialized   bool
	serverInfo    protocol.ServerInfo
	serverCaps    protocol.ServerCapabilities
	negotiatedVer string
}

// New wraps t in an engine and returns a Client. SamplingDispatch, if
// non-nil, services inbound sampling/createMessage requests the server
// sends back over the same connection — pass nil for a client that never
// advertises the sampling capability. opts configures the underlying
// engine.Engine directly (WithNotificationHandler to receive list-changed
// and logging notices, WithTimeout, WithLogger).
func New(t transport.Transport, info protocol.ClientInfo, capabilities protocol.ClientCapabilities, samplingDispatch engine.Dispatcher, opts ...engine.Option) *Client {
	eng := engine.New(t, engine.NewChain(), samplingDispatch, opts...)
	return &Client{eng: eng, info: info, capabilities: capabilities}
}

// Run drives the underlying engine's receive loop; call it in its own
// goroutine immediately after New, before Initialize.
func (c *Client) Run(ctx context.Context) error {
	return c.eng.Run(ctx)
}

// ErrAlreadyInitialized is returned by a second call to Initialize on the
// same Client — spec.md §8's "Initialization latch" property holds on the
// client side too: initialize is a one-shot handshake, never a call a
// caller can retry after it already succeeded.
var ErrAlreadyInitialized = fmt.Errorf("client: invalid state: already initialized")

// Initialize performs the MCP handshake and records the server's
// negotiated version and capabilities for later gating. A second call
// fails with ErrAlreadyInitialized without putting another frame on the
// wire.
func (c *Client) Initialize(ctx context.Context, serverInfoHint string) error {
	c.mu.Lock()
	if c.initialized {
		c.mu.Unlock()
		return ErrAlreadyInitialized
	}
	c.mu.Unlock()

	raw, rpcErr := c.eng.Call(ctx, "initialize", protocol.InitializeParams{
		ProtocolVersion: protocol.LatestVersion,
		Capabilities:    c.capabilities,
		ClientInfo:      c.info,
	})
	if rpcErr != nil {
		return fmt.Errorf("client: initialize: %w", rpcErr)
	}
	var result protocol.InitializeResult
	if err := json.Unmarshal(raw, &result); err != nil {
		return fmt.Errorf("client: decode initialize result: %w", err)
	}

	c.mu.Lock()
	c.initialized = true
	c.serverInfo = result.ServerInfo
	c.serverCaps = result.Capabilities
	c.negotiatedVer = result.ProtocolVersion
	c.mu.Unlock()

	return c.eng.Notify(ctx, "notifications/initialized", struct{}{})
}

// ServerInfo returns the server identity learned during Initialize.
func (c *Client) ServerInfo() protocol.ServerInfo { return c.serverInfo }

// NegotiatedVersion returns the protocol version agreed during Initialize.
func (c *Client) NegotiatedVersion() string { return c.negotiatedVer }

func (c *Client) requireCapability(family string) error {
	if !protocol.ServerSupports(c.serverCaps, family) {
		return fmt.Errorf("client: server does not advertise %q capability", family)
	}
	return nil
}

// ListTools calls tools/list after confirming the server advertised
// tools support.
func (c *Client) ListTools(ctx context.Context, cursor protocol.Cursor) (protocol.ToolsListResult, error) {
	if err := c.requireCapability(protocol.FamilyTools); err != nil {
		return protocol.ToolsListResult{}, err
	}
	return call[protocol.ToolsListResult](ctx, c.eng, "tools/list", protocol.ToolsListParams{Cursor: cursor})
}

// CallTool invokes a named tool with the given arguments.
func (c *Client) CallTool(ctx context.Context, name string, arguments map[string]any) (protocol.ToolCallResult, error) {
	if err := c.requireCapability(protocol.FamilyTools); err != nil {
		return protocol.ToolCallResult{}, err
	}
	return call[protocol.ToolCallResult](ctx, c.eng, "tools/call", protocol.ToolCallParams{Name: name, Arguments: arguments})
}

// ListPrompts calls prompts/list.
func (c *Client) ListPrompts(ctx context.Context, cursor protocol.Cursor) (protocol.PromptsListResult, error) {
	if err := c.requireCapability(protocol.FamilyPrompts); err != nil {
		return protocol.PromptsListResult{}, err
	}
	return call[protocol.PromptsListResult](ctx, c.eng, "prompts/list", protocol.PromptsListParams{Cursor: cursor})
}

// GetPrompt calls prompts/get.
func (c *Client) GetPrompt(ctx context.Context, name string, arguments map[string]string) (protocol.PromptGetResult, error) {
	if err := c.requireCapability(protocol.FamilyPrompts); err != nil {
		return protocol.PromptGetResult{}, err
	}
	return call[protocol.PromptGetResult](ctx, c.eng, "prompts/get", protocol.PromptGetParams{Name: name, Arguments: arguments})
}

// ListResources calls resources/list.
func (c *Client) ListResources(ctx context.Context, cursor protocol.Cursor) (protocol.ResourcesListResult, error) {
	if err := c.requireCapability(protocol.FamilyResources); err != nil {
		return protocol.ResourcesListResult{}, err
	}
	return call[protocol.ResourcesListResult](ctx, c.eng, "resources/list", protocol.ResourcesListParams{Cursor: cursor})
}

// ReadResource calls resources/read.
func (c *Client) ReadResource(ctx context.Context, uri string) (protocol.ResourceReadResult, error) {
	if err := c.requireCapability(protocol.FamilyResources); err != nil {
		return protocol.ResourceReadResult{}, err
	}
	return call[protocol.ResourceReadResult](ctx, c.eng, "resources/read", protocol.ResourceReadParams{URI: uri})
}

// ListResourceTemplates calls resources/templates/list.
func (c *Client) ListResourceTemplates(ctx context.Context) (protocol.ResourceTemplatesListResult, error) {
	if err := c.requireCapability(protocol.FamilyResources); err != nil {
		return protocol.ResourceTemplatesListResult{}, err
	}
	return call[protocol.ResourceTemplatesListResult](ctx, c.eng, "resources/templates/list", struct{}{})
}

// SubscribeResource calls resources/subscribe for uri, asking the server
// to emit notifications/resources/updated whenever it changes.
func (c *Client) SubscribeResource(ctx context.Context, uri string) error {
	if err := c.requireCapability(protocol.FamilyResources); err != nil {
		return err
	}
	_, rpcErr := c.eng.Call(ctx, "resources/subscribe", protocol.ResourceSubscribeParams{URI: uri})
	if rpcErr != nil {
		return fmt.Errorf("client: resources/subscribe: %w", rpcErr)
	}
	return nil
}

// UnsubscribeResource calls resources/unsubscribe for uri.
func (c *Client) UnsubscribeResource(ctx context.Context, uri string) error {
	if err := c.requireCapability(protocol.FamilyResources); err != nil {
		return err
	}
	_, rpcErr := c.eng.Call(ctx, "resources/unsubscribe", protocol.ResourceSubscribeParams{URI: uri})
	if rpcErr != nil {
		return fmt.Errorf("client: resources/unsubscribe: %w", rpcErr)
	}
	return nil
}

// Complete calls completion/complete, asking the server to suggest values
// for one argument of a prompt or resource template reference.
func (c *Client) Complete(ctx context.Context, ref protocol.CompletionReference, arg protocol.CompletionArgument) (protocol.CompletionCompleteResult, error) {
	if err := c.requireCapability(protocol.FamilyCompletions); err != nil {
		return protocol.CompletionCompleteResult{}, err
	}
	return call[protocol.CompletionCompleteResult](ctx, c.eng, "completion/complete", protocol.CompletionCompleteParams{Ref: ref, Argument: arg})
}

// SetLoggingLevel calls logging/setLevel, asking the server to only emit
// notifications/message at or above level from now on.
func (c *Client) SetLoggingLevel(ctx context.Context, level string) error {
	if err := c.requireCapability(protocol.FamilyLogging); err != nil {
		return err
	}
	_, rpcErr := c.eng.Call(ctx, "logging/setLevel", protocol.LoggingSetLevelParams{Level: level})
	if rpcErr != nil {
		return fmt.Errorf("client: logging/setLevel: %w", rpcErr)
	}
	return nil
}

// Cancel emits notifications/cancelled for a request this client issued
// and no longer wants to wait for, mirroring the cancellation an engine
// timeout sends automatically — callers use this for a user-driven cancel
// instead of a deadline-driven one.
func (c *Client) Cancel(ctx context.Context, requestID protocol.ID, reason string) error {
	return c.eng.Notify(ctx, "notifications/cancelled", protocol.CancelledParams{RequestID: requestID, Reason: reason})
}

// Ping calls the always-allowed ping method, useful as a liveness check
// independent of any capability.
func (c *Client) Ping(ctx context.Context) error {
	_, rpcErr := c.eng.Call(ctx, "ping", struct{}{})
	if rpcErr != nil {
		return fmt.Errorf("client: ping: %w", rpcErr)
	}
	return nil
}

// call is a small generic helper translating an engine.Call's raw result
// into a typed value, used by every typed method above so the
// marshal/unmarshal boilerplate lives in exactly one place.
func call[T any](ctx context.Context, eng *engine.Engine, method string, params any) (T, error) {
	var zero T
	raw, rpcErr := eng.Call(ctx, method, params)
	if rpcErr != nil {
		return zero, fmt.Errorf("client: %s: %w", method, rpcErr)
	}
	var result T
	if err := json.Unmarshal(raw, &result); err != nil {
		return zero, fmt.Errorf("client: decode %s result: %w", method, err)
	}
	return result, nil
}
