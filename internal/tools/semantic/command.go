// Package semantic holds prompt-backed tools that answer with a single LLM call.
package semantic

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/ChamsBouzaiene/ytchat/internal/engine"
	"github.com/ChamsBouzaiene/ytchat/internal/prompts"
)

// Plugin is the name the command generator is grouped under.
const Plugin = "ytdlp_command"

// CommandGenerator turns a video request into a yt-dlp command line.
type CommandGenerator struct {
	llm      engine.LLMClient
	model    string
	registry *prompts.PromptRegistry
}

// NewCommandGenerator uses the default prompt registry when registry is nil.
func NewCommandGenerator(llm engine.LLMClient, model string, registry *prompts.PromptRegistry) *CommandGenerator {
	if registry == nil {
		registry = prompts.DefaultRegistry()
	}
	return &CommandGenerator{llm: llm, model: model, registry: registry}
}

// Generate renders the ytdlp_command prompt for arg and returns the model's
// command line.
func (g *CommandGenerator) Generate(ctx context.Context, arg string) (string, error) {
	arg = strings.TrimSpace(arg)
	if arg == "" {
		return "", errors.New("arg is empty")
	}

	prompt, err := prompts.Render(g.registry, prompts.YtdlpCommandID, map[string]string{"arg": arg})
	if err != nil {
		return "", err
	}

	resp, err := g.llm.Chat(ctx, g.model, []engine.ChatMessage{
		{Role: engine.RoleUser, Content: prompt},
	}, nil, engine.ChatOptions{
		MaxOutputTokens: 256,
		Temperature:     0,
	})
	if err != nil {
		return "", fmt.Errorf("failed to generate yt-dlp command: %w", err)
	}
	return cleanCommand(resp.Assistant.Content), nil
}

// cleanCommand strips the markdown fences models like to wrap commands in.
func cleanCommand(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```")
		if i := strings.IndexByte(s, '\n'); i >= 0 {
			s = s[i+1:]
		}
		s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	}
	return strings.TrimSpace(strings.Trim(s, "`"))
}

// NewCommandTool exposes the generator as the ytdlp_command_generator tool.
func NewCommandTool(g *CommandGenerator) engine.Tool {
	return engine.Tool{
		Name:        "ytdlp_command_generator",
		Description: "Generate a yt-dlp command line for a video or playlist URL and a description of what to download.",
		SchemaJSON:  `{"type":"object","properties":{"arg":{"type":"string","minLength":1,"description":"The URL and what the user wants, e.g. 'https://youtu.be/x audio only as mp3'"}},"required":["arg"]}`,
		Fn: func(ctx context.Context, args map[string]any) (string, error) {
			arg, _ := args["arg"].(string)
			return g.Generate(ctx, arg)
		},
		Retryable: true,
		Plugin:    Plugin,
	}
}
