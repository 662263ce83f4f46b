package providers

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ChamsBouzaiene/ytchat/internal/engine"

	anthropic "github.com/liushuangls/go-anthropic/v2"
)

// AnthropicClient implements engine.LLMClient on top of the Anthropic SDK.
type AnthropicClient struct {
	client *anthropic.Client
}

// NewAnthropicClient creates a new Anthropic client for the engine.
func NewAnthropicClient(apiKey string) (*AnthropicClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("anthropic: api key is required")
	}
	return &AnthropicClient{client: anthropic.NewClient(apiKey)}, nil
}

// toAnthropicMessages splits out the system prompt and converts the rest.
// Consecutive tool results are folded into one user message as the API expects.
func toAnthropicMessages(messages []engine.ChatMessage) ([]anthropic.MessageSystemPart, []anthropic.Message) {
	var system []anthropic.MessageSystemPart
	var out []anthropic.Message
	var openToolCalls bool

	for _, msg := range messages {
		switch msg.Role {
		case engine.RoleSystem:
			system = append(system, anthropic.MessageSystemPart{Type: "text", Text: msg.Content})
			openToolCalls = false
		case engine.RoleUser:
			out = append(out, anthropic.Message{
				Role:    anthropic.RoleUser,
				Content: []anthropic.MessageContent{anthropic.NewTextMessageContent(msg.Content)},
			})
			openToolCalls = false
		case engine.RoleAssistant:
			var content []anthropic.MessageContent
			if msg.Content != "" && msg.Content != " " {
				content = append(content, anthropic.NewTextMessageContent(msg.Content))
			}
			for _, tc := range msg.ToolCalls {
				argsJSON, _ := json.Marshal(tc.Args)
				content = append(content, anthropic.NewToolUseMessageContent(tc.ID, tc.Name, json.RawMessage(argsJSON)))
			}
			out = append(out, anthropic.Message{Role: anthropic.RoleAssistant, Content: content})
			openToolCalls = len(msg.ToolCalls) > 0
		case engine.RoleTool:
			if !openToolCalls {
				continue
			}
			content := msg.Content
			if content == "" {
				content = "{}"
			}
			result := anthropic.NewToolResultMessageContent(msg.Name, content, false)
			if n := len(out); n > 0 && out[n-1].Role == anthropic.RoleUser && isToolResultMessage(out[n-1]) {
				out[n-1].Content = append(out[n-1].Content, result)
				continue
			}
			out = append(out, anthropic.Message{
				Role:    anthropic.RoleUser,
				Content: []anthropic.MessageContent{result},
			})
		}
	}
	return system, out
}

func isToolResultMessage(m anthropic.Message) bool {
	return len(m.Content) > 0 && m.Content[0].Type == anthropic.MessagesContentTypeToolResult
}

// Chat implements engine.LLMClient.
func (c *AnthropicClient) Chat(ctx context.Context, modelName string, messages []engine.ChatMessage, toolSchemas []engine.ToolSchema, opts engine.ChatOptions) (engine.LLMResponse, error) {
	system, msgs := toAnthropicMessages(messages)

	var toolDefs []anthropic.ToolDefinition
	for _, ts := range toolSchemas {
		var schemaObj map[string]any
		if err := json.Unmarshal([]byte(ts.JSONSchema), &schemaObj); err != nil {
			return engine.LLMResponse{}, fmt.Errorf("invalid tool schema JSON for %s: %w", ts.Name, err)
		}
		toolDefs = append(toolDefs, anthropic.ToolDefinition{
			Name:        ts.Name,
			Description: ts.Description,
			InputSchema: schemaObj,
		})
	}

	maxTokens := 4096
	if opts.MaxOutputTokens > 0 {
		maxTokens = opts.MaxOutputTokens
	}
	temperature := float32(0.1)
	if opts.Temperature > 0 {
		temperature = opts.Temperature
	}

	req := anthropic.MessagesRequest{
		Model:       anthropic.Model(modelName),
		Messages:    msgs,
		MaxTokens:   maxTokens,
		Temperature: &temperature,
	}
	if len(system) > 0 {
		req.MultiSystem = system
	}
	if len(toolDefs) > 0 {
		req.Tools = toolDefs
		if opts.ToolChoice == engine.ToolChoiceRequired {
			req.ToolChoice = &anthropic.ToolChoice{Type: "any"}
		}
	}

	resp, err := c.client.CreateMessages(ctx, req)
	if err != nil {
		httpStatus, retryAfter := extractErrorMetadata(err)
		return engine.LLMResponse{}, engine.WrapLLMError(err, httpStatus, retryAfter)
	}

	var text string
	var toolCalls []engine.ToolCall
	for _, block := range resp.Content {
		switch block.Type {
		case anthropic.MessagesContentTypeText:
			if block.Text != nil {
				text += *block.Text
			}
		case anthropic.MessagesContentTypeToolUse:
			if block.MessageContentToolUse == nil || block.ID == "" || block.Name == "" {
				continue
			}
			call := engine.ToolCall{ID: block.ID, Name: block.Name, Args: map[string]any{}}
			if len(block.Input) > 0 {
				if err := json.Unmarshal(block.Input, &call.Args); err != nil {
					call.Error = fmt.Sprintf("arguments are not a JSON object: %v", err)
				}
			}
			toolCalls = append(toolCalls, call)
		}
	}

	finishReason := "stop"
	switch {
	case len(toolCalls) > 0:
		finishReason = "tool_calls"
	case resp.StopReason == anthropic.MessagesStopReasonMaxTokens:
		finishReason = "length"
	}

	return engine.LLMResponse{
		Assistant: engine.ChatMessage{
			Role:      engine.RoleAssistant,
			Content:   text,
			ToolCalls: toolCalls,
		},
		ToolCalls: toolCalls,
		Usage: engine.Usage{
			Prompt:     resp.Usage.InputTokens,
			Completion: resp.Usage.OutputTokens,
			Total:      resp.Usage.InputTokens + resp.Usage.OutputTokens,
		},
		FinishReason: finishReason,
	}, nil
}
