package server

import (
	"context"
	"fmt"
	"sync"

	"github.com/go-openapi/strfmt"

	"github.com/scrypster/mcpcore/internal/mcp/protocol"
)

// ResourceReader reads a single resource's current contents.
type ResourceReader func(ctx context.Context, uri string) (protocol.ResourceReadResult, error)

type resourceEntry struct {
	descriptor protocol.ResourceDescriptor
	reader     ResourceReader
}

// ResourceRegistry holds every concrete resource and URI template a
// ProtocolHandler can serve via resources/list, resources/read, and
// resources/templates/list.
type ResourceRegistry struct {
	mu        sync.RWMutex
	entries   map[string]*resourceEntry
	order     []string
	templates []protocol.ResourceTemplate
}

// NewResourceRegistry builds an empty ResourceRegistry.
func NewResourceRegistry() *ResourceRegistry {
	return &ResourceRegistry{entries: make(map[string]*resourceEntry)}
}

// Register adds a concrete, addressable resource. Its URI is validated
// with strfmt.IsURI the same way the wire protocol's own date-shaped
// fields are validated in protocol.ValidateVersionFormat, rather than a
// bespoke regexp.
func (r *ResourceRegistry) Register(descriptor protocol.ResourceDescriptor, reader ResourceReader) error {
	if !strfmt.IsURI(descriptor.URI) {
		return fmt.Errorf("server: resource %q: %q is not a valid URI", descriptor.Name, descriptor.URI)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.entries[descriptor.URI]; !exists {
		r.order = append(r.order, descriptor.URI)
	}
	r.entries[descriptor.URI] = &resourceEntry{descriptor: descriptor, reader: reader}
	return nil
}

// RegisterTemplate adds a URI template advertised via
// resources/templates/list, for resources expanded on demand rather than
// enumerated up front.
func (r *ResourceRegistry) RegisterTemplate(tmpl protocol.ResourceTemplate) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.templates = append(r.templates, tmpl)
}

func (r *ResourceRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

func (r *ResourceRegistry) List() []protocol.ResourceDescriptor {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]protocol.ResourceDescriptor, 0, len(r.order))
	for _, uri := range r.order {
		out = append(out, r.entries[uri].descriptor)
	}
	return out
}

func (r *ResourceRegistry) Templates() []protocol.ResourceTemplate {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]protocol.ResourceTemplate(nil), r.templates...)
}

func (r *ResourceRegistry) Read(ctx context.Context, uri string) (protocol.ResourceReadResult, *protocol.Error) {
	r.mu.RLock()
	entry, ok := r.entries[uri]
	r.mu.RUnlock()
	if !ok {
		return protocol.ResourceReadResult{}, protocol.NewError(protocol.CodeNotFound, fmt.Sprintf("unknown resource %q", uri))
	}
	result, err := entry.reader(ctx, uri)
	if err != nil {
		return protocol.ResourceReadResult{}, protocol.NewError(protocol.CodeInternalError, err.Error())
	}
	return result, nil
}
