// Package llms provides normalized LLM provider adapters for the
// OpenAI-compatible and Gemini chat APIs.
package llms

import "context"

// Message roles used in provider conversations
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleTool      = "tool"
)

// Finish reasons normalized across providers
const (
	FinishStop      = "stop"
	FinishToolCalls = "tool_calls"
	FinishLength    = "length"
)

// Message is one turn of a provider conversation
type Message struct {
	Role       string     `json:"role"`
	Content    string     `json:"content"`
	ToolCalls  []ToolCall `json:"tool_calls,omitempty"`
	ToolCallID string     `json:"tool_call_id,omitempty"`
	Name       string     `json:"name,omitempty"`
}

// ToolCall is a provider's request to invoke a tool
type ToolCall struct {
	ID       string       `json:"id"`
	Type     string       `json:"type"`
	Function FunctionCall `json:"function"`
}

// FunctionCall carries the tool name and raw JSON arguments
type FunctionCall struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

// Usage reports token consumption for one request
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Completion is the normalized result of a chat request
type Completion struct {
	Role         string     `json:"role"`
	Content      string     `json:"content"`
	ToolCalls    []ToolCall `json:"tool_calls,omitempty"`
	FinishReason string     `json:"finish_reason"`
	Usage        Usage      `json:"usage"`
}

// HasToolCalls reports whether the model requested tool invocations
func (c *Completion) HasToolCalls() bool {
	return len(c.ToolCalls) > 0
}

// ToolDefinition describes a callable tool for function calling.
// Parameters is a JSON-schema object.
type ToolDefinition struct {
	Name        string
	Description string
	Parameters  map[string]interface{}
}

// Options tunes a single chat request
type Options struct {
	Temperature float64
	MaxTokens   int
	// ForceJSON asks the provider for a JSON object response where supported
	ForceJSON bool
}

// Provider is the normalized chat contract every adapter implements
type Provider interface {
	// Chat sends a conversation and returns the normalized completion
	Chat(ctx context.Context, messages []Message, tools []ToolDefinition, opts *Options) (*Completion, error)

	// Name returns the provider type (openai, deepseek, gemini, ...)
	Name() string

	// Model returns the configured model identifier
	Model() string

	// Close releases provider resources
	Close() error
}
