// Package sampling implements the LLM backends a client uses to service
// a server's sampling/createMessage request, the same provider-factory
// shape the teacher uses to pick a TextGenerator for enrichment prompts,
// generalized from enrichment text completion to the sampling message
// exchange's richer role/content structure.
package sampling

import (
	"context"
	"fmt"

	"github.com/scrypster/mcpcore/internal/mcp/protocol"
)

// Backend services a single sampling/createMessage call.
type Backend interface {
	CreateMessage(ctx context.Context, params protocol.SamplingCreateMessageParams) (protocol.SamplingCreateMessageResult, error)
	Model() string
}

// Config selects and configures a Backend, mirroring the teacher's
// connections.LLMConfig shape (provider name + credentials + model).
type Config struct {
	Provider string
	APIKey   string
	Model    string
	BaseURL  string
}

// NewBackend builds the Backend matching cfg.Provider, exactly the switch
// NewTextGenerator uses, generalized to the two sampling-capable
// providers in this pack's dependency surface.
func NewBackend(cfg Config) (Backend, error) {
	switch cfg.Provider {
	case "anthropic":
		return NewAnthropicBackend(cfg), nil
	case "openai":
		return NewOpenAIBackend(cfg), nil
	default:
		return nil, fmt.Errorf("sampling: unsupported provider %q", cfg.Provider)
	}
}
