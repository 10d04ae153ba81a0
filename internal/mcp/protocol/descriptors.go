package protocol

// ToolDescriptor describes a single callable tool advertised via
// tools/list.
type ToolDescriptor struct {
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	InputSchema map[string]any `json:"inputSchema"`
}

// PromptArgument describes one named argument a prompt template accepts.
type PromptArgument struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Required    bool   `json:"required,omitempty"`
}

// PromptDescriptor describes a single named prompt template advertised via
// prompts/list.
type PromptDescriptor struct {
	Name        string           `json:"name"`
	Description string           `json:"description,omitempty"`
	Arguments   []PromptArgument `json:"arguments,omitempty"`
}

// ResourceDescriptor describes a single addressable resource advertised via
// resources/list.
type ResourceDescriptor struct {
	URI         string `json:"uri"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	MimeType    string `json:"mimeType,omitempty"`
}

// ResourceTemplate describes a URI template a server can expand into
// concrete resources, advertised via resources/templates/list.
type ResourceTemplate struct {
	URITemplate string `json:"uriTemplate"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	MimeType    string `json:"mimeType,omitempty"`
}

// ClientInfo and ServerInfo identify each side of a connection during the
// initialize handshake.
type ClientInfo struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

type ServerInfo struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

// InitializeParams is the payload of the initialize request.
type InitializeParams struct {
	ProtocolVersion string             `json:"protocolVersion"`
	Capabilities    ClientCapabilities `json:"capabilities"`
	ClientInfo      ClientInfo         `json:"clientInfo"`
}

// InitializeResult is the payload of the initialize response.
type InitializeResult struct {
	ProtocolVersion string             `json:"protocolVersion"`
	Capabilities    ServerCapabilities `json:"capabilities"`
	ServerInfo      ServerInfo         `json:"serverInfo"`
	Instructions    string             `json:"instructions,omitempty"`
}

// Cursor is an opaque pagination token. Its format is intentionally left
// unspecified by the wire protocol (spec.md §9 Open Question); this SDK
// treats it as an opaque string that is only meaningful to whichever
// registry issued it and is not guaranteed to survive a server restart.
type Cursor = string

// ToolsListParams/Result.
type ToolsListParams struct {
	Cursor Cursor `json:"cursor,omitempty"`
}

type ToolsListResult struct {
	Tools      []ToolDescriptor `json:"tools"`
	NextCursor Cursor           `json:"nextCursor,omitempty"`
}

// ToolCallParams/Result.
type ToolCallParams struct {
	Name      string         `json:"name"`
	Arguments map[string]any `json:"arguments"`
}

type ToolCallResult struct {
	Content []ContentItem `json:"content"`
	IsError bool          `json:"isError,omitempty"`
}

// PromptsListParams/Result, PromptGetParams/Result.
type PromptsListParams struct {
	Cursor Cursor `json:"cursor,omitempty"`
}

type PromptsListResult struct {
	Prompts    []PromptDescriptor `json:"prompts"`
	NextCursor Cursor             `json:"nextCursor,omitempty"`
}

type PromptGetParams struct {
	Name      string            `json:"name"`
	Arguments map[string]string `json:"arguments,omitempty"`
}

// PromptMessage is one turn produced by expanding a prompt template.
type PromptMessage struct {
	Role    string      `json:"role"`
	Content ContentItem `json:"content"`
}

type PromptGetResult struct {
	Description string          `json:"description,omitempty"`
	Messages    []PromptMessage `json:"messages"`
}

// ResourcesListParams/Result, ResourceReadParams/Result.
type ResourcesListParams struct {
	Cursor Cursor `json:"cursor,omitempty"`
}

type ResourcesListResult struct {
	Resources  []ResourceDescriptor `json:"resources"`
	NextCursor Cursor               `json:"nextCursor,omitempty"`
}

type ResourceReadParams struct {
	URI string `json:"uri"`
}

type ResourceReadResult struct {
	Contents []ContentItem `json:"contents"`
}

type ResourceTemplatesListResult struct {
	ResourceTemplates []ResourceTemplate `json:"resourceTemplates"`
}

type ResourceSubscribeParams struct {
	URI string `json:"uri"`
}

// CompletionCompleteParams/Result.
type CompletionReference struct {
	Type string `json:"type"` // "ref/prompt" | "ref/resource"
	Name string `json:"name,omitempty"`
	URI  string `json:"uri,omitempty"`
}

type CompletionArgument struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

type CompletionCompleteParams struct {
	Ref      CompletionReference `json:"ref"`
	Argument CompletionArgument  `json:"argument"`
}

type CompletionValues struct {
	Values  []string `json:"values"`
	Total   int      `json:"total,omitempty"`
	HasMore bool     `json:"hasMore,omitempty"`
}

type CompletionCompleteResult struct {
	Completion CompletionValues `json:"completion"`
}

// LoggingSetLevelParams.
type LoggingSetLevelParams struct {
	Level string `json:"level"`
}

// LogMessageParams is the payload of notifications/message.
type LogMessageParams struct {
	Level  string `json:"level"`
	Logger string `json:"logger,omitempty"`
	Data   any    `json:"data"`
}

// ProgressParams is the payload of notifications/progress.
type ProgressParams struct {
	ProgressToken string  `json:"progressToken"`
	Progress      float64 `json:"progress"`
	Total         float64 `json:"total,omitempty"`
	Message       string  `json:"message,omitempty"`
}

// CancelledParams is the payload of notifications/cancelled.
type CancelledParams struct {
	RequestID ID     `json:"requestId"`
	Reason    string `json:"reason,omitempty"`
}

// SamplingMessage and SamplingCreateMessage{Params,Result} model the
// server->client sampling/createMessage exchange.
type SamplingMessage struct {
	Role    string      `json:"role"`
	Content ContentItem `json:"content"`
}

type ModelPreferences struct {
	Hints                []map[string]string `json:"hints,omitempty"`
	CostPriority         float64              `json:"costPriority,omitempty"`
	SpeedPriority        float64              `json:"speedPriority,omitempty"`
	IntelligencePriority float64              `json:"intelligencePriority,omitempty"`
}

type SamplingCreateMessageParams struct {
	Messages         []SamplingMessage `json:"messages"`
	ModelPreferences *ModelPreferences `json:"modelPreferences,omitempty"`
	SystemPrompt     string            `json:"systemPrompt,omitempty"`
	MaxTokens        int               `json:"maxTokens,omitempty"`
}

type SamplingCreateMessageResult struct {
	Role       string      `json:"role"`
	Content    ContentItem `json:"content"`
	Model      string      `json:"model"`
	StopReason string      `json:"stopReason,omitempty"`
}
