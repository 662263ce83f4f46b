package engine

import (
	"context"
	"fmt"
)

// MessageRole represents the role of a chat message.
type MessageRole string

const (
	RoleSystem    MessageRole = "system"
	RoleUser      MessageRole = "user"
	RoleAssistant MessageRole = "assistant"
	RoleTool      MessageRole = "tool"
)

// ChatMessage is the provider-agnostic message we pass around.
type ChatMessage struct {
	Role    MessageRole
	Content string
	// Name holds the tool call ID for tool messages.
	Name string
	// ToolCalls made by this assistant message. Providers need them echoed
	// back when the tool results are sent.
	ToolCalls []ToolCall
}

// Validate checks if the ChatMessage is valid.
func (m ChatMessage) Validate() error {
	switch m.Role {
	case RoleSystem, RoleUser, RoleAssistant, RoleTool:
	default:
		return fmt.Errorf("invalid message role: %s", m.Role)
	}
	if m.Role == RoleTool && m.Name == "" {
		return fmt.Errorf("tool messages must have a Name field")
	}
	return nil
}

// Usage holds token accounting returned by providers.
type Usage struct {
	Prompt     int
	Completion int
	Total      int
}

// Add accumulates o into u.
func (u *Usage) Add(o Usage) {
	u.Prompt += o.Prompt
	u.Completion += o.Completion
	u.Total += o.Total
}

// UsageField is one named counter.
type UsageField struct {
	Name  string
	Value int
}

// Fields returns the counters in display order.
func (u Usage) Fields() []UsageField {
	return []UsageField{
		{Name: "prompt_tokens", Value: u.Prompt},
		{Name: "completion_tokens", Value: u.Completion},
		{Name: "total_tokens", Value: u.Total},
	}
}

// ToolCall represents a function/tool the assistant requested.
type ToolCall struct {
	ID   string
	Name string
	Args map[string]any
	// Error is set by the provider when the arguments could not be decoded.
	Error string
}

// LLMResponse is a normalized result of one chat call.
type LLMResponse struct {
	Assistant    ChatMessage
	ToolCalls    []ToolCall
	Usage        Usage
	FinishReason string // "stop" | "length" | "tool_calls" | "content_filter"
}

// LLMClient abstracts the chosen SDK (OpenAI, Anthropic, etc.)
type LLMClient interface {
	Chat(ctx context.Context, model string, messages []ChatMessage, toolSchemas []ToolSchema, opts ChatOptions) (LLMResponse, error)
}

// ChatOptions keeps knobs forwarded to the SDK.
type ChatOptions struct {
	Temperature     float32
	MaxOutputTokens int
	ToolChoice      ToolChoice
	RetryConfig     *RetryConfig // nil = use defaults
}

// ToolChoice controls whether the model may, must or must not call tools.
type ToolChoice string

const (
	ToolChoiceAuto     ToolChoice = "auto"
	ToolChoiceNone     ToolChoice = "none"
	ToolChoiceRequired ToolChoice = "required"
)

// ParseToolChoice validates a configured tool choice. Empty means auto.
func ParseToolChoice(s string) (ToolChoice, error) {
	switch ToolChoice(s) {
	case "", ToolChoiceAuto:
		return ToolChoiceAuto, nil
	case ToolChoiceNone, ToolChoiceRequired:
		return ToolChoice(s), nil
	}
	return "", fmt.Errorf("invalid tool choice %q (supported: auto, none, required)", s)
}

// ToolSchema is the JSON schema the provider expects for function calling.
type ToolSchema struct {
	Name        string
	Description string
	JSONSchema  string
	Retryable   bool
}
