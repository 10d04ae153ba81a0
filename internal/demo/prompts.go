package demo

import (
	"context"

	"github.com/scrypster/mcpcore/internal/mcp/protocol"
	"github.com/scrypster/mcpcore/internal/mcp/server"
)

// RegisterPrompts installs the demo prompt template set into registry.
func RegisterPrompts(registry *server.PromptRegistry) {
	registry.Register(protocol.PromptDescriptor{
		Name:        "summarize",
		Description: "Summarize the given text in one paragraph.",
		Arguments: []protocol.PromptArgument{
			{Name: "text", Description: "text to summarize", Required: true},
		},
	}, handleSummarize)
}

func handleSummarize(ctx context.Context, args map[string]string) (protocol.PromptGetResult, error) {
	text := args["text"]
	return protocol.PromptGetResult{
		Description: "Summarization request",
		Messages: []protocol.PromptMessage{
			{
				Role:    "user",
				Content: protocol.NewTextContent("Summarize the following text in one paragraph:\n\n" + text),
			},
		},
	}, nil
}
