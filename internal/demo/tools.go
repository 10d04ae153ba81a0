// Package demo registers a small, fixed set of tools, prompts, and
// resources against a ProtocolHandler so the cmd/mcp-* binaries have
// something real to serve — the same role the teacher's memory tool set
// (store_memory, recall_memory, create_project, ...) plays for the
// memento MCP server, reduced here to a handful of self-contained
// examples that exercise schema generation, validation, and content
// rendering without depending on any particular backing store.
package demo

import (
	"context"
	"fmt"
	"time"

	"github.com/scrypster/mcpcore/internal/mcp/protocol"
	"github.com/scrypster/mcpcore/internal/mcp/server"
)

// EchoArgs is the argument struct for the echo tool. Its json and
// jsonschema tags drive the reflected inputSchema, and its validate tag
// drives the go-playground/validator/v10 check the registry runs before
// Handle ever sees a request.
type EchoArgs struct {
	Message string `json:"message" jsonschema:"required,description=text to echo back" validate:"required"`
}

// CurrentTimeArgs is the argument struct for the current_time tool. It
// takes an optional IANA time zone name, defaulting to UTC.
type CurrentTimeArgs struct {
	Zone string `json:"zone,omitempty" jsonschema:"description=IANA time zone name, default UTC"`
}

// RegisterTools installs the demo tool set into registry.
func RegisterTools(registry *server.ToolRegistry) error {
	if err := registry.Register("echo", "Echo a message back as tool output.", EchoArgs{}, handleEcho); err != nil {
		return fmt.Errorf("demo: register echo: %w", err)
	}
	if err := registry.Register("current_time", "Report the current time in a given zone.", CurrentTimeArgs{}, handleCurrentTime); err != nil {
		return fmt.Errorf("demo: register current_time: %w", err)
	}
	return nil
}

func handleEcho(ctx context.Context, args any) (protocol.ToolCallResult, error) {
	a := args.(EchoArgs)
	return protocol.ToolCallResult{Content: []protocol.ContentItem{protocol.NewTextContent(a.Message)}}, nil
}

func handleCurrentTime(ctx context.Context, args any) (protocol.ToolCallResult, error) {
	a := args.(CurrentTimeArgs)
	zone := a.Zone
	if zone == "" {
		zone = "UTC"
	}
	loc, err := time.LoadLocation(zone)
	if err != nil {
		return protocol.ToolCallResult{}, fmt.Errorf("demo: unknown time zone %q: %w", zone, err)
	}
	now := time.Now().In(loc).Format(time.RFC3339)
	return protocol.ToolCallResult{Content: []protocol.ContentItem{protocol.NewTextContent(now)}}, nil
}
