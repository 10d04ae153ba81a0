package sampling

import (
	"context"
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/scrypster/mcpcore/internal/mcp/protocol"
)

// AnthropicBackend services sampling/createMessage via anthropic-sdk-go,
// the SDK the rest of this pack already reaches for whenever it talks to
// Claude directly rather than through the enrichment TextGenerator
// abstraction.
type AnthropicBackend struct {
	client    anthropic.Client
	model     string
	maxTokens int64
}

// NewAnthropicBackend builds an AnthropicBackend from cfg. An empty
// cfg.APIKey falls back to the client's default ANTHROPIC_API_KEY
// environment lookup.
func NewAnthropicBackend(cfg Config) *AnthropicBackend {
	var client anthropic.Client
	if cfg.APIKey != "" {
		client = anthropic.NewClient(option.WithAPIKey(cfg.APIKey))
	} else {
		client = anthropic.NewClient()
	}
	model := cfg.Model
	if model == "" {
		model = string(anthropic.ModelClaudeSonnet4_0)
	}
	return &AnthropicBackend{client: client, model: model, maxTokens: 4096}
}

func (b *AnthropicBackend) Model() string { return b.model }

// CreateMessage translates the protocol's role/content sampling messages
// into anthropic.MessageParam turns, issues a single non-streaming
// completion, and translates the reply back into a ContentItem.
func (b *AnthropicBackend) CreateMessage(ctx context.Context, params protocol.SamplingCreateMessageParams) (protocol.SamplingCreateMessageResult, error) {
	maxTokens := b.maxTokens
	if params.MaxTokens > 0 {
		maxTokens = int64(params.MaxTokens)
	}

	history := make([]anthropic.MessageParam, 0, len(params.Messages))
	for _, m := range params.Messages {
		block := anthropic.NewTextBlock(m.Content.Text)
		switch m.Role {
		case "assistant":
			history = append(history, anthropic.NewAssistantMessage(block))
		default:
			history = append(history, anthropic.NewUserMessage(block))
		}
	}

	req := anthropic.MessageNewParams{
		Model:     anthropic.Model(b.model),
		MaxTokens: maxTokens,
		Messages:  history,
	}
	if params.SystemPrompt != "" {
		req.System = []anthropic.TextBlockParam{{Text: params.SystemPrompt}}
	}

	msg, err := b.client.Messages.New(ctx, req)
	if err != nil {
		return protocol.SamplingCreateMessageResult{}, fmt.Errorf("sampling: anthropic create message: %w", err)
	}

	var text string
	for _, block := range msg.Content {
		if block.Type == "text" {
			text += block.Text
		}
	}

	return protocol.SamplingCreateMessageResult{
		Role:       "assistant",
		Content:    protocol.NewTextContent(text),
		Model:      string(msg.Model),
		StopReason: string(msg.StopReason),
	}, nil
}
