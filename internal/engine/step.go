package engine

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sourcegraph/conc/pool"
)

// maxParallelTools bounds concurrent tool executions within one step.
const maxParallelTools = 4

// getRetryConfig returns the retry configuration, using defaults if not provided.
func getRetryConfig(opts ChatOptions) *RetryConfig {
	if opts.RetryConfig != nil {
		return opts.RetryConfig
	}
	defaultConfig := DefaultRetryConfig()
	return &defaultConfig
}

// handleRetryExhaustion notifies hooks if the error indicates retries were exhausted.
func handleRetryExhaustion(ctx context.Context, hooks Hooks, st *State, err error) {
	if IsRetryExhausted(err) {
		hooks.OnRetryExhausted(ctx, st, err)
	}
}

// toolResult represents the result of executing a tool call.
type toolResult struct {
	content string
	err     error
	call    ToolCall
}

// checkToolCalls rejects calls whose arguments are malformed before any tool runs.
// Unknown tool names pass through and are reported back to the model.
func checkToolCalls(calls []ToolCall, reg ToolRegistry) error {
	for _, c := range calls {
		if c.Error != "" {
			return &ToolArgumentError{ToolName: c.Name, Reason: c.Error}
		}
		t, ok := reg[c.Name]
		if !ok {
			continue
		}
		if err := t.ValidateArgs(c.Args); err != nil {
			return err
		}
	}
	return nil
}

// executeToolsWithRetry runs tool calls on a bounded pool and returns results in call order.
// Hook calls from the pool are serialized so hooks may touch st.
func executeToolsWithRetry(ctx context.Context, calls []ToolCall, reg ToolRegistry, retryConfig *RetryConfig, hooks Hooks, st *State) []toolResult {
	results := make([]toolResult, len(calls))
	p := pool.New().WithMaxGoroutines(maxParallelTools)

	var hookMu sync.Mutex
	emit := func(fn func()) {
		hookMu.Lock()
		defer hookMu.Unlock()
		fn()
	}

	for i, call := range calls {
		p.Go(func() {
			if err := ctx.Err(); err != nil {
				results[i] = toolResult{err: err, call: call}
				return
			}

			emit(func() { hooks.OnToolCall(ctx, st, call) })
			res, err := RetryToolCall(ctx, retryConfig.ToolPolicy, call, reg,
				func(attempt int, delay time.Duration, retryErr error) {
					emit(func() {
						hooks.OnRetryAttempt(ctx, st, attempt, retryConfig.ToolPolicy.MaxRetries, delay, retryErr)
					})
				},
			)
			emit(func() { handleRetryExhaustion(ctx, hooks, st, err) })
			results[i] = toolResult{content: res, err: err, call: call}
		})
	}

	p.Wait()
	return results
}

func executeTool(ctx context.Context, call ToolCall, reg ToolRegistry) (string, error) {
	t, ok := reg[call.Name]
	if !ok {
		return "", fmt.Errorf("tool not found: %s (available tools: %v)", call.Name, reg.Names())
	}

	if err := t.ValidateArgs(call.Args); err != nil {
		return "", err
	}

	result, err := t.Fn(ctx, call.Args)
	if err != nil {
		return "", fmt.Errorf("execution failed for tool %s: %w", call.Name, err)
	}

	return result, nil
}

// callLLMWithRetry calls the LLM with retry logic and returns the response.
func callLLMWithRetry(ctx context.Context, llm LLMClient, model string, msgs []ChatMessage, schemas []ToolSchema, opts ChatOptions, retryConfig *RetryConfig, hooks Hooks, st *State) (LLMResponse, error) {
	resp, err := RetryLLMCall(ctx, retryConfig.LLMPolicy, llm, model, msgs, schemas, opts,
		func(attempt int, delay time.Duration, retryErr error) {
			hooks.OnRetryAttempt(ctx, st, attempt, retryConfig.LLMPolicy.MaxRetries, delay, retryErr)
		},
	)
	if err != nil {
		handleRetryExhaustion(ctx, hooks, st, err)
		return LLMResponse{}, err
	}
	return resp, nil
}

// processLLMResponse records usage and appends the assistant message.
func processLLMResponse(ctx context.Context, resp LLMResponse, st *State, hooks Hooks) {
	st.Totals.Add(resp.Usage)
	hooks.OnAfterLLM(ctx, st, resp)

	assistantMsg := resp.Assistant
	assistantMsg.Role = RoleAssistant
	assistantMsg.ToolCalls = resp.ToolCalls
	st.Append(assistantMsg)
}

// executeToolCalls executes tool calls and appends their results to history.
// Tool failures become "ERROR: ..." tool messages; malformed arguments abort.
func executeToolCalls(ctx context.Context, calls []ToolCall, reg ToolRegistry, retryConfig *RetryConfig, hooks Hooks, st *State) error {
	if len(calls) == 0 {
		return nil
	}
	if err := checkToolCalls(calls, reg); err != nil {
		return err
	}

	for _, o := range executeToolsWithRetry(ctx, calls, reg, retryConfig, hooks, st) {
		if o.err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			o.content = "ERROR: " + o.err.Error()
		}
		// Providers match tool messages to calls by ID.
		toolCallID := o.call.ID
		if toolCallID == "" {
			toolCallID = o.call.Name
		}
		st.Append(ChatMessage{Role: RoleTool, Name: toolCallID, Content: o.content})
		hooks.OnToolResult(ctx, st, o.call, o.content, o.err)
	}
	return nil
}

func stepOnce(ctx context.Context, llm LLMClient, reg ToolRegistry, st *State, hooks Hooks, settings ExecutionSettings) error {
	hooks.OnStepStart(ctx, st)

	opts := settings.chatOptions()
	retryConfig := getRetryConfig(opts)

	var toolSchemas []ToolSchema
	if settings.ToolChoice != ToolChoiceNone {
		toolSchemas = reg.Schemas()
	}
	msgs := append([]ChatMessage(nil), st.History...)

	hooks.OnBeforeLLM(ctx, st, msgs, toolSchemas)

	resp, err := callLLMWithRetry(ctx, llm, st.Model, msgs, toolSchemas, opts, retryConfig, hooks, st)
	if err != nil {
		return WrapWithContext(err, st, "llm_call", "")
	}

	processLLMResponse(ctx, resp, st, hooks)

	if len(resp.ToolCalls) == 0 {
		st.Done = true
		return nil
	}

	if !settings.FunctionCall.AutoInvoke {
		st.Pending = append([]ToolCall(nil), resp.ToolCalls...)
		st.Done = true
		return nil
	}

	if err := executeToolCalls(ctx, resp.ToolCalls, reg, retryConfig, hooks, st); err != nil {
		return WrapWithContext(err, st, "tool_execution", "")
	}

	return nil
}
