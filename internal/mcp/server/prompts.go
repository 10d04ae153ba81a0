package server

import (
	"context"
	"fmt"
	"sync"

	"github.com/scrypster/mcpcore/internal/mcp/protocol"
)

// PromptHandler expands a named prompt template given its arguments into
// the messages a sampling client should see.
type PromptHandler func(ctx context.Context, args map[string]string) (protocol.PromptGetResult, error)

type promptEntry struct {
	descriptor protocol.PromptDescriptor
	handler    PromptHandler
}

// PromptRegistry holds every prompt template a ProtocolHandler can serve
// via prompts/get, mirroring ToolRegistry's shape without the
// schema/validation machinery — prompt arguments are always plain strings
// per the wire protocol.
type PromptRegistry struct {
	mu      sync.RWMutex
	entries map[string]*promptEntry
	order   []string
}

// NewPromptRegistry builds an empty PromptRegistry.
func NewPromptRegistry() *PromptRegistry {
	return &PromptRegistry{entries: make(map[string]*promptEntry)}
}

// Register adds a prompt template.
func (r *PromptRegistry) Register(descriptor protocol.PromptDescriptor, handler PromptHandler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.entries[descriptor.Name]; !exists {
		r.order = append(r.order, descriptor.Name)
	}
	r.entries[descriptor.Name] = &promptEntry{descriptor: descriptor, handler: handler}
}

func (r *PromptRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

func (r *PromptRegistry) List() []protocol.PromptDescriptor {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]protocol.PromptDescriptor, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.entries[name].descriptor)
	}
	return out
}

func (r *PromptRegistry) Get(ctx context.Context, name string, args map[string]string) (protocol.PromptGetResult, *protocol.Error) {
	r.mu.RLock()
	entry, ok := r.entries[name]
	r.mu.RUnlock()
	if !ok {
		return protocol.PromptGetResult{}, protocol.NewError(protocol.CodeNotFound, fmt.Sprintf("unknown prompt %q", name))
	}
	for _, required := range entry.descriptor.Arguments {
		if required.Required {
			if _, ok := args[required.Name]; !ok {
				return protocol.PromptGetResult{}, protocol.NewValidationError(
					fmt.Sprintf("missing required argument %q", required.Name),
					protocol.ValidationHint{Field: required.Name, Code: "required"})
			}
		}
	}
	result, err := entry.handler(ctx, args)
	if err != nil {
		return protocol.PromptGetResult{}, protocol.NewError(protocol.CodeInternalError, err.Error())
	}
	return result, nil
}
