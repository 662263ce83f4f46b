package engine

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"time"
)

// RetryPolicy defines retry behavior for a specific operation type.
type RetryPolicy struct {
	MaxRetries   int // 0 = no retries
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
	Jitter       bool
}

// RetryConfig holds separate retry policies for LLM and tool calls.
type RetryConfig struct {
	LLMPolicy  RetryPolicy
	ToolPolicy RetryPolicy
}

// maybeRetryCap bounds retries for errors classified as RetryClassMaybe.
const maybeRetryCap = 2

// RetryableFunc is a function that can be retried.
type RetryableFunc[T any] func(ctx context.Context) (T, error)

// RetryWithPolicy executes fn until it succeeds, a non-retryable error occurs
// or the policy runs out of attempts.
func RetryWithPolicy[T any](
	ctx context.Context,
	policy RetryPolicy,
	fn RetryableFunc[T],
	classifyError func(error) RetryClass,
	onRetry func(attempt int, delay time.Duration, err error),
) (T, error) {
	var zero T

	for attempt := 0; ; attempt++ {
		result, err := fn(ctx)
		if err == nil {
			return result, nil
		}

		class := classifyError(err)
		if class == RetryClassNonRetryable {
			return zero, err
		}
		if attempt >= policy.MaxRetries {
			if policy.MaxRetries == 0 {
				return zero, err
			}
			return zero, NewRetryExhaustedError(err, attempt, policy.MaxRetries, false)
		}
		if class == RetryClassMaybe && attempt >= maybeRetryCap {
			return zero, NewRetryExhaustedError(err, attempt, maybeRetryCap, true)
		}

		delay := calculateDelay(policy, attempt, err)
		if onRetry != nil {
			onRetry(attempt+1, delay, err)
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return zero, fmt.Errorf("context cancelled during retry: %w", ctx.Err())
		case <-timer.C:
		}
	}
}

// calculateDelay computes the delay for a retry attempt.
// A Retry-After hint wins over the exponential schedule, capped at MaxDelay.
func calculateDelay(policy RetryPolicy, attempt int, err error) time.Duration {
	if retryAfter := ExtractRetryAfter(err); retryAfter > 0 {
		return min(retryAfter, policy.MaxDelay)
	}

	delay := float64(policy.InitialDelay) * math.Pow(policy.Multiplier, float64(attempt))
	if delay > float64(policy.MaxDelay) {
		delay = float64(policy.MaxDelay)
	}

	// 0-20% jitter
	if policy.Jitter {
		delay += rand.Float64() * 0.2 * delay
	}

	return time.Duration(delay)
}

// RetryLLMCall wraps an LLM call with retry logic.
func RetryLLMCall(
	ctx context.Context,
	policy RetryPolicy,
	llm LLMClient,
	model string,
	messages []ChatMessage,
	toolSchemas []ToolSchema,
	opts ChatOptions,
	onRetry func(attempt int, delay time.Duration, err error),
) (LLMResponse, error) {
	return RetryWithPolicy(
		ctx,
		policy,
		func(ctx context.Context) (LLMResponse, error) {
			return llm.Chat(ctx, model, messages, toolSchemas, opts)
		},
		ClassifyLLMError,
		onRetry,
	)
}

// RetryToolCall wraps a tool call with retry logic. Tools not marked
// Retryable run exactly once.
func RetryToolCall(
	ctx context.Context,
	policy RetryPolicy,
	call ToolCall,
	reg ToolRegistry,
	onRetry func(attempt int, delay time.Duration, err error),
) (string, error) {
	tool, ok := reg[call.Name]
	if !ok {
		return "", fmt.Errorf("tool not found: %s (available tools: %v)", call.Name, reg.Names())
	}
	if !tool.Retryable {
		policy = RetryPolicy{}
	}

	return RetryWithPolicy(
		ctx,
		policy,
		func(ctx context.Context) (string, error) {
			return executeTool(ctx, call, reg)
		},
		func(err error) RetryClass {
			return ClassifyToolError(err, tool.Retryable)
		},
		onRetry,
	)
}
