package engine

import (
	"context"
	"time"
)

// Hooks fans every event out to its members in order. The engine never calls
// one Hooks value from two goroutines at once.
type Hooks []Hook

func (hs Hooks) each(fn func(Hook)) {
	for _, h := range hs {
		fn(h)
	}
}

func (hs Hooks) OnStepStart(ctx context.Context, st *State) {
	hs.each(func(h Hook) { h.OnStepStart(ctx, st) })
}
func (hs Hooks) OnBeforeLLM(ctx context.Context, st *State, m []ChatMessage, schemas []ToolSchema) {
	hs.each(func(h Hook) { h.OnBeforeLLM(ctx, st, m, schemas) })
}
func (hs Hooks) OnAfterLLM(ctx context.Context, st *State, r LLMResponse) {
	hs.each(func(h Hook) { h.OnAfterLLM(ctx, st, r) })
}
func (hs Hooks) OnToolCall(ctx context.Context, st *State, c ToolCall) {
	hs.each(func(h Hook) { h.OnToolCall(ctx, st, c) })
}
func (hs Hooks) OnToolResult(ctx context.Context, st *State, c ToolCall, s string, e error) {
	hs.each(func(h Hook) { h.OnToolResult(ctx, st, c, s, e) })
}
func (hs Hooks) OnDone(ctx context.Context, st *State) {
	hs.each(func(h Hook) { h.OnDone(ctx, st) })
}
func (hs Hooks) OnRetryAttempt(ctx context.Context, st *State, attempt int, maxAttempts int, delay time.Duration, err error) {
	hs.each(func(h Hook) { h.OnRetryAttempt(ctx, st, attempt, maxAttempts, delay, err) })
}
func (hs Hooks) OnRetryExhausted(ctx context.Context, st *State, err error) {
	hs.each(func(h Hook) { h.OnRetryExhausted(ctx, st, err) })
}
