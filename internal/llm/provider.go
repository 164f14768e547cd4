package llm

import (
	"context"
)

// Message roles understood by every provider
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleDeveloper = "developer"
)

// Stream event types passed to a StreamCallback
const (
	StreamEventTextDelta = "text_delta"
	StreamEventHeartbeat = "heartbeat"
	StreamEventCompleted = "completed"
)

// Provider defines the interface for LLM providers.
// Generate honours OutputSchema when set; GenerateStream is plain text only.
type Provider interface {
	// Generate runs a single request and returns the full output text
	Generate(ctx context.Context, request *GenerationRequest) (*GenerationResponse, error)

	// GenerateStream runs a request and reports every text delta to callback.
	// A callback error aborts the stream and is returned unchanged.
	GenerateStream(ctx context.Context, request *GenerationRequest, callback StreamCallback) (*GenerationResponse, error)

	// Name returns the provider name (e.g., "openai", "gemini")
	Name() string
}

// Message is one role-tagged entry of the conversation sent to the model
type Message struct {
	Role    string
	Content string
}

// GenerationRequest contains all parameters needed for generation
type GenerationRequest struct {
	Model         string
	Messages      []Message
	ReasoningMode string
	SystemPrompt  string
	// Structured output schema; nil means free text
	OutputSchema *OutputSchema
}

// OutputSchema defines the expected JSON output structure
type OutputSchema struct {
	Name        string
	Description string
	Schema      map[string]any // JSON Schema object
}

// Usage is the provider-neutral token count of one generation
type Usage struct {
	InputTokens     int64 `json:"input_tokens"`
	OutputTokens    int64 `json:"output_tokens"`
	ReasoningTokens int64 `json:"reasoning_tokens"`
	TotalTokens     int64 `json:"total_tokens"`
}

// GenerationResponse contains the result from the LLM
type GenerationResponse struct {
	RawOutput string `json:"-"` // Raw text output, JSON when OutputSchema was set
	Usage     Usage  `json:"usage"`
}

// StreamCallback is called for each streaming event
type StreamCallback func(event StreamEvent) error

// StreamEvent represents one update during streaming
type StreamEvent struct {
	Type    string         `json:"type"`
	Message string         `json:"message,omitempty"`
	Data    map[string]any `json:"data,omitempty"`
}
