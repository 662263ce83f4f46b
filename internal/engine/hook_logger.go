package engine

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// LoggerHook writes engine events to a zerolog logger.
type LoggerHook struct{ L zerolog.Logger }

// NewLoggerHook tags every event with the given session ID.
func NewLoggerHook(l zerolog.Logger, sessionID string) LoggerHook {
	return LoggerHook{L: l.With().Str("component", "engine").Str("session", sessionID).Logger()}
}

func (h LoggerHook) OnStepStart(_ context.Context, st *State) {
	h.L.Debug().Int("step", st.Step).Msg("step start")
}

func (h LoggerHook) OnBeforeLLM(_ context.Context, st *State, msgs []ChatMessage, toolSchemas []ToolSchema) {
	h.L.Debug().
		Int("step", st.Step).
		Str("model", st.Model).
		Int("messages", len(msgs)).
		Int("tools", len(toolSchemas)).
		Msg("llm request")
}

func (h LoggerHook) OnAfterLLM(_ context.Context, st *State, r LLMResponse) {
	h.L.Debug().
		Str("finish", r.FinishReason).
		Int("tool_calls", len(r.ToolCalls)).
		Int("prompt_tokens", r.Usage.Prompt).
		Int("completion_tokens", r.Usage.Completion).
		Int("cumulative_tokens", st.Totals.Total).
		Msg("llm response")
}

func (h LoggerHook) OnToolCall(_ context.Context, _ *State, c ToolCall) {
	h.L.Info().Str("tool", c.Name).Str("call_id", c.ID).Interface("args", c.Args).Msg("tool call")
}

func (h LoggerHook) OnToolResult(_ context.Context, _ *State, c ToolCall, result string, err error) {
	if err != nil {
		h.L.Warn().Err(err).Str("tool", c.Name).Msg("tool failed")
		return
	}
	preview := result
	if len(preview) > 200 {
		preview = preview[:200] + "..."
	}
	h.L.Info().Str("tool", c.Name).Str("result", preview).Msg("tool result")
}

func (h LoggerHook) OnDone(_ context.Context, st *State) {
	h.L.Debug().Int("steps", st.Step).Int("total_tokens", st.Totals.Total).Msg("done")
}

func (h LoggerHook) OnRetryAttempt(_ context.Context, st *State, attempt int, maxAttempts int, delay time.Duration, err error) {
	st.Retries++
	h.L.Warn().Err(err).Int("attempt", attempt).Int("max", maxAttempts).Dur("delay", delay).Msg("retrying")
}

func (h LoggerHook) OnRetryExhausted(_ context.Context, _ *State, err error) {
	h.L.Error().Err(err).Msg("retries exhausted")
}
