package engine

import (
	"context"
	"fmt"
)

// Run drives the model until it answers without tool calls, the step limit
// is reached or an error occurs. st is modified in place.
//
// Step counting: steps increment only on successful completion. Retries
// are tracked separately.
func Run(ctx context.Context, llm LLMClient, reg ToolRegistry, st *State, hooks Hooks, settings ExecutionSettings) error {
	st.Step = 0
	if st.MaxSteps <= 0 {
		st.MaxSteps = DefaultMaxSteps
	}

	for st.Step < st.MaxSteps && !st.Done {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("execution cancelled: %w", err)
		}

		if err := stepOnce(ctx, llm, reg, st, hooks, settings); err != nil {
			return err
		}
		st.Step++
	}

	if !st.Done {
		return &StepLimitError{MaxSteps: st.MaxSteps}
	}
	hooks.OnDone(ctx, st)
	return nil
}
