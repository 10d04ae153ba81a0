// Package server implements the MCP server core: capability negotiation,
// the initialize handshake, and the tool/prompt/resource/sampling
// registries a ProtocolHandler dispatches requests against.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"sync"

	"github.com/scrypster/mcpcore/internal/auth"
	"github.com/scrypster/mcpcore/internal/mcp/protocol"
)

// ProtocolHandler implements engine.Dispatcher: it holds the
// tool/prompt/resource/sampling registries, negotiates capabilities
// during initialize, and enforces that no other request is served until
// that handshake completes. One ProtocolHandler is shared across however
// many engine.Engine instances a transport accepts — it has no
// per-connection state of its own beyond the single latch described
// below, matching the teacher's single long-lived *Server wired into
// however many StdioTransport.Serve calls a process happens to run.
type ProtocolHandler struct {
	serverInfo   protocol.ServerInfo
	capabilities protocol.ServerCapabilities

	tools     *ToolRegistry
	prompts   *PromptRegistry
	resources *ResourceRegistry

	subscriptions *SubscriptionManager
	logLevelGate  *LevelGate
	completer     Completer
	notifier      Notifier
	caller        Caller

	authenticator auth.Authenticator
	authorizer    auth.ToolAuthorizer
	instructions  string

	logger *log.Logger

	mu            sync.RWMutex
	initialized   bool
	clientInfo    protocol.ClientInfo
	clientCaps    protocol.ClientCapabilities
	negotiatedVer string
}

// Option configures a ProtocolHandler at construction, following the
// teacher's ServerOption functional-options idiom so existing call sites
// that only pass the required arguments keep compiling as new options are
// added.
type Option func(*ProtocolHandler)

// WithAuthenticator installs the single Authenticator this handler
// consults before running a ToolAuthorizer. Omitting it leaves the
// handler unauthenticated — suitable only for a local stdio deployment
// where the transport itself is the trust boundary.
func WithAuthenticator(a auth.Authenticator) Option {
	return func(h *ProtocolHandler) { h.authenticator = a }
}

// WithAuthorizer installs the ToolAuthorizer consulted after
// authentication succeeds.
func WithAuthorizer(a auth.ToolAuthorizer) Option {
	return func(h *ProtocolHandler) { h.authorizer = a }
}

// WithLogger overrides the handler's diagnostic logger.
func WithLogger(l *log.Logger) Option {
	return func(h *ProtocolHandler) { h.logger = l }
}

// WithInstructions sets the free-text instructions string returned in the
// initialize response.
func WithInstructions(instructions string) Option {
	return func(h *ProtocolHandler) { h.instructions = instructions }
}

// New builds a ProtocolHandler advertising serverInfo. Capabilities are
// derived automatically from which registries end up non-empty at the
// time of the initialize handshake — see capabilitiesSnapshot.
func New(serverInfo protocol.ServerInfo, opts ...Option) *ProtocolHandler {
	h := &ProtocolHandler{
		serverInfo:    serverInfo,
		tools:         NewToolRegistry(),
		prompts:       NewPromptRegistry(),
		resources:     NewResourceRegistry(),
		subscriptions: NewSubscriptionManager(),
		logLevelGate:  &LevelGate{},
		logger:        log.New(os.Stderr, "mcpcore-server: ", log.LstdFlags),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Tools exposes the handler's ToolRegistry for registration.
func (h *ProtocolHandler) Tools() *ToolRegistry { return h.tools }

// Prompts exposes the handler's PromptRegistry for registration.
func (h *ProtocolHandler) Prompts() *PromptRegistry { return h.prompts }

// Resources exposes the handler's ResourceRegistry for registration.
func (h *ProtocolHandler) Resources() *ResourceRegistry { return h.resources }

// Dispatch implements engine.Dispatcher: it is the single switch every
// inbound request after middleware passes through, mirroring the
// teacher's HandleRequest method-name switch generalized from the
// memory-tool method names to the full MCP surface.
func (h *ProtocolHandler) Dispatch(ctx context.Context, req protocol.Request) (any, *protocol.Error) {
	if req.Method != "initialize" && req.Method != "ping" && !h.isInitialized() {
		return nil, protocol.NewNotInitializedError()
	}

	if family, gated := protocol.CapabilityForMethod(req.Method); gated {
		h.mu.RLock()
		caps := h.capabilities
		h.mu.RUnlock()
		if !protocol.ServerSupports(caps, family) {
			return nil, protocol.NewUnsupportedCapabilityError(req.Method)
		}
	}

	switch req.Method {
	case "initialize":
		return h.handleInitialize(ctx, req.Params)
	case "ping":
		return map[string]any{}, nil
	case "tools/list":
		return h.handleToolsList(ctx, req.Params)
	case "tools/call":
		return h.handleToolsCall(ctx, req.Params)
	case "prompts/list":
		return h.handlePromptsList(ctx, req.Params)
	case "prompts/get":
		return h.handlePromptsGet(ctx, req.Params)
	case "resources/list":
		return h.handleResourcesList(ctx, req.Params)
	case "resources/read":
		return h.handleResourcesRead(ctx, req.Params)
	case "resources/templates/list":
		return h.handleResourceTemplatesList(ctx)
	case "resources/subscribe":
		return h.handleResourcesSubscribe(ctx, req.Params)
	case "resources/unsubscribe":
		return h.handleResourcesUnsubscribe(ctx, req.Params)
	case "logging/setLevel":
		return h.handleLoggingSetLevel(ctx, req.Params)
	case "completion/complete":
		return h.handleCompletionComplete(ctx, req.Params)
	default:
		return nil, protocol.NewError(protocol.CodeMethodNotFound, fmt.Sprintf("method not found: %s", req.Method))
	}
}

func (h *ProtocolHandler) isInitialized() bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.initialized
}

func (h *ProtocolHandler) handleInitialize(ctx context.Context, raw json.RawMessage) (any, *protocol.Error) {
	if h.isInitialized() {
		return nil, protocol.NewInvalidStateError("server: invalid state: already initialized")
	}

	var params protocol.InitializeParams
	if err := json.Unmarshal(raw, &params); err != nil {
		return nil, protocol.NewValidationError("invalid initialize params", protocol.ValidationHint{Field: "params", Code: "malformed"})
	}

	negotiated := protocol.NegotiateVersion(params.ProtocolVersion)
	caps := h.capabilitiesSnapshot()

	h.mu.Lock()
	h.initialized = true
	h.clientInfo = params.ClientInfo
	h.clientCaps = params.Capabilities
	h.negotiatedVer = negotiated
	h.capabilities = caps
	h.mu.Unlock()

	return protocol.InitializeResult{
		ProtocolVersion: negotiated,
		Capabilities:    caps,
		ServerInfo:      h.serverInfo,
		Instructions:    h.instructions,
	}, nil
}

// capabilitiesSnapshot derives ServerCapabilities from which registries
// currently hold at least one entry, so a handler never advertises a
// family it cannot actually serve.
func (h *ProtocolHandler) capabilitiesSnapshot() protocol.ServerCapabilities {
	var caps protocol.ServerCapabilities
	if h.tools.Len() > 0 {
		caps.Tools = &protocol.ToolsCapability{}
	}
	if h.prompts.Len() > 0 {
		caps.Prompts = &protocol.PromptsCapability{}
	}
	if h.resources.Len() > 0 {
		caps.Resources = &protocol.ResourcesCapability{Subscribe: true}
	}
	if h.logLevelGate != nil {
		caps.Logging = &protocol.LoggingCapability{}
	}
	if h.completer != nil {
		caps.Completions = &protocol.CompletionsCapability{}
	}
	if h.caller != nil {
		caps.Sampling = &protocol.SamplingCapability{}
	}
	return caps
}

// authorize runs the configured Authenticator then ToolAuthorizer, in
// that tie-break order: an unauthenticated caller is always rejected with
// CodeAuthRequired before a missing-scope caller would ever see
// CodePermissionDenied, so a client can't distinguish "no credentials"
// from "wrong credentials" by error code alone.
func (h *ProtocolHandler) authorize(ctx context.Context, credentials map[string]string, toolName string) *protocol.Error {
	if h.authenticator == nil {
		return nil
	}
	id, err := h.authenticator.Authenticate(ctx, credentials)
	if err != nil {
		return protocol.NewError(protocol.CodeAuthRequired, err.Error())
	}
	if h.authorizer == nil {
		return nil
	}
	if err := h.authorizer.Authorize(ctx, id, toolName); err != nil {
		return protocol.NewError(protocol.CodePermissionDenied, err.Error())
	}
	return nil
}
