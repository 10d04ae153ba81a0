package demo

import (
	"context"
	"fmt"

	"github.com/scrypster/mcpcore/internal/mcp/protocol"
	"github.com/scrypster/mcpcore/internal/mcp/server"
)

// RegisterResources installs the demo resource set into registry: one
// static resource and one URI template expanded on demand.
func RegisterResources(registry *server.ResourceRegistry) {
	_ = registry.Register(protocol.ResourceDescriptor{
		URI:         "mcpcore://about",
		Name:        "about",
		Description: "Static description of this server.",
		MimeType:    "text/plain",
	}, readAbout)

	registry.RegisterTemplate(protocol.ResourceTemplate{
		URITemplate: "mcpcore://greeting/{name}",
		Name:        "greeting",
		Description: "Personalized greeting for {name}.",
		MimeType:    "text/plain",
	})
}

func readAbout(ctx context.Context, uri string) (protocol.ResourceReadResult, error) {
	return protocol.ResourceReadResult{
		Contents: []protocol.ContentItem{
			protocol.NewResourceContent(protocol.EmbeddedResource{
				URI:      uri,
				MimeType: "text/plain",
				Text:     "mcpcore demo server: a reference implementation of the MCP protocol engine.",
			}),
		},
	}, nil
}

// ReadGreeting expands the mcpcore://greeting/{name} template for a
// concrete name. A transport-facing ResourceReader for a template is
// registered per expansion site rather than globally, since
// ResourceRegistry.Read only looks up exact URIs, so expanding the
// template is left to the caller.
func ReadGreeting(ctx context.Context, name string) (protocol.ResourceReadResult, error) {
	if name == "" {
		return protocol.ResourceReadResult{}, fmt.Errorf("demo: greeting requires a name")
	}
	return protocol.ResourceReadResult{
		Contents: []protocol.ContentItem{
			protocol.NewTextContent(fmt.Sprintf("Hello, %s!", name)),
		},
	}, nil
}
