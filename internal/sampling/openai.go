package sampling

import (
	"context"
	"fmt"

	"github.com/sashabaranov/go-openai"

	"github.com/scrypster/mcpcore/internal/mcp/protocol"
)

// OpenAIBackend services sampling/createMessage via sashabaranov/go-openai,
// for deployments whose sampling-capable client is backed by OpenAI
// rather than Anthropic.
type OpenAIBackend struct {
	client *openai.Client
	model  string
}

// NewOpenAIBackend builds an OpenAIBackend from cfg.
func NewOpenAIBackend(cfg Config) *OpenAIBackend {
	var config openai.ClientConfig
	if cfg.BaseURL != "" {
		config = openai.DefaultConfig(cfg.APIKey)
		config.BaseURL = cfg.BaseURL
	} else {
		config = openai.DefaultConfig(cfg.APIKey)
	}
	model := cfg.Model
	if model == "" {
		model = openai.GPT4oMini
	}
	return &OpenAIBackend{client: openai.NewClientWithConfig(config), model: model}
}

func (b *OpenAIBackend) Model() string { return b.model }

func (b *OpenAIBackend) CreateMessage(ctx context.Context, params protocol.SamplingCreateMessageParams) (protocol.SamplingCreateMessageResult, error) {
	messages := make([]openai.ChatCompletionMessage, 0, len(params.Messages)+1)
	if params.SystemPrompt != "" {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: params.SystemPrompt,
		})
	}
	for _, m := range params.Messages {
		role := openai.ChatMessageRoleUser
		if m.Role == "assistant" {
			role = openai.ChatMessageRoleAssistant
		}
		messages = append(messages, openai.ChatCompletionMessage{Role: role, Content: m.Content.Text})
	}

	req := openai.ChatCompletionRequest{
		Model:    b.model,
		Messages: messages,
	}
	if params.MaxTokens > 0 {
		req.MaxTokens = params.MaxTokens
	}

	resp, err := b.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return protocol.SamplingCreateMessageResult{}, fmt.Errorf("sampling: openai create message: %w", err)
	}
	if len(resp.Choices) == 0 {
		return protocol.SamplingCreateMessageResult{}, fmt.Errorf("sampling: openai returned no choices")
	}

	return protocol.SamplingCreateMessageResult{
		Role:       "assistant",
		Content:    protocol.NewTextContent(resp.Choices[0].Message.Content),
		Model:      resp.Model,
		StopReason: string(resp.Choices[0].FinishReason),
	}, nil
}
