package server

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/scrypster/mcpcore/internal/mcp/protocol"
)

func (h *ProtocolHandler) handleToolsList(ctx context.Context, raw json.RawMessage) (any, *protocol.Error) {
	return protocol.ToolsListResult{Tools: h.tools.List()}, nil
}

func (h *ProtocolHandler) handleToolsCall(ctx context.Context, raw json.RawMessage) (any, *protocol.Error) {
	var params protocol.ToolCallParams
	if err := json.Unmarshal(raw, &params); err != nil {
		return nil, protocol.NewValidationError("invalid tools/call params", protocol.ValidationHint{Field: "params", Code: "malformed"})
	}
	if !h.tools.Has(params.Name) {
		return nil, protocol.NewError(protocol.CodeMethodNotFound, fmt.Sprintf("unknown tool %q", params.Name))
	}
	if rpcErr := h.authorize(ctx, credentialsFromContext(ctx), params.Name); rpcErr != nil {
		return nil, rpcErr
	}
	result, rpcErr := h.tools.Call(ctx, params.Name, params.Arguments)
	if rpcErr != nil {
		return nil, rpcErr
	}
	return result, nil
}

func (h *ProtocolHandler) handlePromptsList(ctx context.Context, raw json.RawMessage) (any, *protocol.Error) {
	return protocol.PromptsListResult{Prompts: h.prompts.List()}, nil
}

func (h *ProtocolHandler) handlePromptsGet(ctx context.Context, raw json.RawMessage) (any, *protocol.Error) {
	var params protocol.PromptGetParams
	if err := json.Unmarshal(raw, &params); err != nil {
		return nil, protocol.NewValidationError("invalid prompts/get params", protocol.ValidationHint{Field: "params", Code: "malformed"})
	}
	return h.prompts.Get(ctx, params.Name, params.Arguments)
}

func (h *ProtocolHandler) handleResourcesList(ctx context.Context, raw json.RawMessage) (any, *protocol.Error) {
	return protocol.ResourcesListResult{Resources: h.resources.List()}, nil
}

func (h *ProtocolHandler) handleResourcesRead(ctx context.Context, raw json.RawMessage) (any, *protocol.Error) {
	var params protocol.ResourceReadParams
	if err := json.Unmarshal(raw, &params); err != nil {
		return nil, protocol.NewValidationError("invalid resources/read params", protocol.ValidationHint{Field: "params", Code: "malformed"})
	}
	return h.resources.Read(ctx, params.URI)
}

func (h *ProtocolHandler) handleResourceTemplatesList(ctx context.Context) (any, *protocol.Error) {
	return protocol.ResourceTemplatesListResult{ResourceTemplates: h.resources.Templates()}, nil
}

func (h *ProtocolHandler) handleResourcesSubscribe(ctx context.Context, raw json.RawMessage) (any, *protocol.Error) {
	var params protocol.ResourceSubscribeParams
	if err := json.Unmarshal(raw, &params); err != nil {
		return nil, protocol.NewValidationError("invalid resources/subscribe params", protocol.ValidationHint{Field: "params", Code: "malformed"})
	}
	h.subscriptions.Subscribe(params.URI)
	return map[string]any{}, nil
}

func (h *ProtocolHandler) handleResourcesUnsubscribe(ctx context.Context, raw json.RawMessage) (any, *protocol.Error) {
	var params protocol.ResourceSubscribeParams
	if err := json.Unmarshal(raw, &params); err != nil {
		return nil, protocol.NewValidationError("invalid resources/unsubscribe params", protocol.ValidationHint{Field: "params", Code: "malformed"})
	}
	h.subscriptions.Unsubscribe(params.URI)
	return map[string]any{}, nil
}

func (h *ProtocolHandler) handleLoggingSetLevel(ctx context.Context, raw json.RawMessage) (any, *protocol.Error) {
	var params protocol.LoggingSetLevelParams
	if err := json.Unmarshal(raw, &params); err != nil {
		return nil, protocol.NewValidationError("invalid logging/setLevel params", protocol.ValidationHint{Field: "params", Code: "malformed"})
	}
	if !h.logLevelGate.SetLevel(params.Level) {
		return nil, protocol.NewValidationError(
			fmt.Sprintf("unknown log level %q", params.Level),
			protocol.ValidationHint{Field: "level", Code: "unknown_level"})
	}
	return map[string]any{}, nil
}

func (h *ProtocolHandler) handleCompletionComplete(ctx context.Context, raw json.RawMessage) (any, *protocol.Error) {
	if h.completer == nil {
		return nil, protocol.NewUnsupportedCapabilityError("completion/complete")
	}
	var params protocol.CompletionCompleteParams
	if err := json.Unmarshal(raw, &params); err != nil {
		return nil, protocol.NewValidationError("invalid completion/complete params", protocol.ValidationHint{Field: "params", Code: "malformed"})
	}
	values, err := h.completer.Complete(ctx,
		CompletionRef{Type: params.Ref.Type, Name: params.Ref.Name, URI: params.Ref.URI},
		CompletionArg{Name: params.Argument.Name, Value: params.Argument.Value})
	if err != nil {
		return nil, protocol.NewError(protocol.CodeInternalError, err.Error())
	}
	return protocol.CompletionCompleteResult{Completion: protocol.CompletionValues{
		Values:  values.Values,
		Total:   values.Total,
		HasMore: values.HasMore,
	}}, nil
}

// ResourceUpdated notifies every client subscribed to uri that its
// contents changed, called by a resource provider after a write — e.g.
// the filesystem-backed resources a manifest reload serves.
func (h *ProtocolHandler) ResourceUpdated(ctx context.Context, uri string) {
	if !h.subscriptions.Subscribed(uri) {
		return
	}
	h.notify(ctx, "notifications/resources/updated", protocol.ResourceSubscribeParams{URI: uri})
}

// LogMessage forwards a log line to the client via notifications/message,
// gated by the minimum level logging/setLevel most recently configured.
func (h *ProtocolHandler) LogMessage(ctx context.Context, level, logger string, data any) {
	if !h.logLevelGate.Allows(level) {
		return
	}
	h.notify(ctx, "notifications/message", protocol.LogMessageParams{Level: level, Logger: logger, Data: data})
}

// credentialsKey is the context key a transport adapter stores inbound
// auth credentials under (an HTTP Authorization header, a WebSocket
// handshake token) before handing a frame to the engine.
type credentialsKey struct{}

// WithCredentials attaches out-of-band auth credentials to ctx, for a
// transport adapter to call before it hands a request to engine.Engine.
func WithCredentials(ctx context.Context, credentials map[string]string) context.Context {
	return context.WithValue(ctx, credentialsKey{}, credentials)
}

func credentialsFromContext(ctx context.Context) map[string]string {
	if v, ok := ctx.Value(credentialsKey{}).(map[string]string); ok {
		return v
	}
	return nil
}

// CredentialsFromContext exposes credentialsFromContext to callers outside
// this package — engine.AuthHeaderMiddleware's tests, and any transport
// adapter that wants to confirm what it attached actually round-trips.
func CredentialsFromContext(ctx context.Context) map[string]string {
	return credentialsFromContext(ctx)
}
