package engine

import (
	"fmt"
	"strings"
)

// AgentBuilder helps construct an Agent with a fluent API.
type AgentBuilder struct {
	llm      LLMClient
	tools    ToolRegistry
	model    string
	settings ExecutionSettings
	hooks    Hooks
}

// NewAgentBuilder creates a new agent builder with default settings.
func NewAgentBuilder() *AgentBuilder {
	return &AgentBuilder{
		model:    "gpt-4o-mini",
		settings: DefaultExecutionSettings(),
	}
}

// WithModel sets the model name.
func (b *AgentBuilder) WithModel(model string) *AgentBuilder {
	b.model = model
	return b
}

// WithLLM sets the LLM client.
func (b *AgentBuilder) WithLLM(llm LLMClient) *AgentBuilder {
	b.llm = llm
	return b
}

// WithToolRegistry sets the full tool registry. Plugin filtering is applied at Build.
func (b *AgentBuilder) WithToolRegistry(reg ToolRegistry) *AgentBuilder {
	b.tools = reg
	return b
}

// WithSettings replaces the execution settings.
func (b *AgentBuilder) WithSettings(s ExecutionSettings) *AgentBuilder {
	b.settings = s
	return b
}

// WithMaxSteps sets the maximum number of steps.
func (b *AgentBuilder) WithMaxSteps(maxSteps int) *AgentBuilder {
	b.settings.MaxSteps = maxSteps
	return b
}

// WithAutoInvoke toggles automatic tool invocation.
func (b *AgentBuilder) WithAutoInvoke(auto bool) *AgentBuilder {
	b.settings.FunctionCall.AutoInvoke = auto
	return b
}

// WithPlugins restricts the tools offered to the model.
func (b *AgentBuilder) WithPlugins(plugins ...string) *AgentBuilder {
	b.settings.FunctionCall.IncludedPlugins = plugins
	return b
}

// WithRetryConfig sets the retry configuration.
func (b *AgentBuilder) WithRetryConfig(retryConfig *RetryConfig) *AgentBuilder {
	b.settings.RetryConfig = retryConfig
	return b
}

// WithHooks sets custom hooks.
func (b *AgentBuilder) WithHooks(hooks Hooks) *AgentBuilder {
	b.hooks = hooks
	return b
}

// Build constructs the Agent instance.
func (b *AgentBuilder) Build() (*Agent, error) {
	if b.llm == nil {
		return nil, fmt.Errorf("LLM client not configured: use WithLLM")
	}
	if b.tools == nil {
		return nil, fmt.Errorf("tools not configured: use WithToolRegistry")
	}
	if b.model == "" {
		return nil, fmt.Errorf("model not configured: use WithModel")
	}

	tools := b.tools.FilterByPlugins(b.settings.FunctionCall.IncludedPlugins)
	if missing := missingPlugins(b.tools, b.settings.FunctionCall.IncludedPlugins); len(missing) > 0 {
		return nil, fmt.Errorf("unknown plugins: %s (available: %s)",
			strings.Join(missing, ", "), strings.Join(b.tools.Plugins(), ", "))
	}

	settings := b.settings
	if settings.MaxSteps <= 0 {
		settings.MaxSteps = DefaultMaxSteps
	}
	if settings.ToolChoice == "" {
		settings.ToolChoice = ToolChoiceAuto
	}

	hooks := b.hooks
	if hooks == nil {
		hooks = Hooks{NopHook{}}
	}

	return &Agent{
		llm:      b.llm,
		tools:    tools,
		model:    b.model,
		settings: settings,
		hooks:    hooks,
	}, nil
}

func missingPlugins(reg ToolRegistry, wanted []string) []string {
	known := make(map[string]bool)
	for _, p := range reg.Plugins() {
		known[p] = true
	}
	var missing []string
	for _, p := range wanted {
		if !known[p] {
			missing = append(missing, p)
		}
	}
	return missing
}
