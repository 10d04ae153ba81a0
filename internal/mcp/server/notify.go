package server

import "context"

// Notifier sends a fire-and-forget outbound notification back to the
// peer this ProtocolHandler is dispatching for. It mirrors
// engine.Engine.Notify's signature exactly but is declared independently
// so this package never needs to import internal/mcp/engine — the cmd
// binary wiring a ProtocolHandler to an Engine supplies the closure.
type Notifier func(ctx context.Context, method string, params any) error

// WithNotifier installs the callback ProtocolHandler uses to emit
// server-initiated notifications: list-changed notices, resources/updated,
// and notifications/message log lines. A handler with no Notifier still
// dispatches every request correctly; it simply never emits these.
func WithNotifier(n Notifier) Option {
	return func(h *ProtocolHandler) { h.notifier = n }
}

func (h *ProtocolHandler) notify(ctx context.Context, method string, params any) {
	if h.notifier == nil {
		return
	}
	if err := h.notifier(ctx, method, params); err != nil {
		h.logger.Printf("notify %s: %v", method, err)
	}
}

// NotifyToolsListChanged tells subscribers the tool registry changed,
// called after a manifest reload adds or removes tools. It is a no-op only
// when no Notifier is installed; it does not check whether
// tools/listChanged was advertised.
func (h *ProtocolHandler) NotifyToolsListChanged(ctx context.Context) {
	h.notify(ctx, "notifications/tools/list_changed", struct{}{})
}

// NotifyPromptsListChanged is NotifyToolsListChanged's prompt-registry
// counterpart.
func (h *ProtocolHandler) NotifyPromptsListChanged(ctx context.Context) {
	h.notify(ctx, "notifications/prompts/list_changed", struct{}{})
}

// NotifyResourcesListChanged is NotifyToolsListChanged's resource-registry
// counterpart.
func (h *ProtocolHandler) NotifyResourcesListChanged(ctx context.Context) {
	h.notify(ctx, "notifications/resources/list_changed", struct{}{})
}
