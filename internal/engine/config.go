package engine

import "time"

// FunctionCallBehavior decides what happens when the model asks for tools.
type FunctionCallBehavior struct {
	// AutoInvoke runs requested tools and feeds their results back to the
	// model. When false the tool calls are handed back to the caller.
	AutoInvoke bool
	// IncludedPlugins limits the tools offered to the model. Empty offers all.
	IncludedPlugins []string
}

// ExecutionSettings holds the per-agent request knobs.
type ExecutionSettings struct {
	ToolChoice      ToolChoice
	FunctionCall    FunctionCallBehavior
	MaxSteps        int
	MaxOutputTokens int
	Temperature     float32
	RetryConfig     *RetryConfig
}

// DefaultMaxSteps bounds the tool loop for a single user turn.
const DefaultMaxSteps = 8

// DefaultExecutionSettings mirrors the REPL defaults: automatic tool
// invocation with every plugin visible.
func DefaultExecutionSettings() ExecutionSettings {
	retry := DefaultRetryConfig()
	return ExecutionSettings{
		ToolChoice:      ToolChoiceAuto,
		FunctionCall:    FunctionCallBehavior{AutoInvoke: true},
		MaxSteps:        DefaultMaxSteps,
		MaxOutputTokens: 2048,
		RetryConfig:     &retry,
	}
}

// chatOptions converts the settings into per-call options.
func (s ExecutionSettings) chatOptions() ChatOptions {
	return ChatOptions{
		Temperature:     s.Temperature,
		MaxOutputTokens: s.MaxOutputTokens,
		ToolChoice:      s.ToolChoice,
		RetryConfig:     s.RetryConfig,
	}
}

// DefaultRetryConfig returns sensible default retry policies.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		LLMPolicy: RetryPolicy{
			MaxRetries:   3,
			InitialDelay: 1 * time.Second,
			MaxDelay:     30 * time.Second,
			Multiplier:   2.0,
			Jitter:       true,
		},
		ToolPolicy: RetryPolicy{
			MaxRetries:   2,
			InitialDelay: 2 * time.Second,
			MaxDelay:     20 * time.Second,
			Multiplier:   2.0,
			Jitter:       true,
		},
	}
}
