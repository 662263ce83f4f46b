package engine

import (
	"context"
	"fmt"
)

// Reply is the outcome of one user turn.
type Reply struct {
	Message ChatMessage
	Usage   Usage
	Steps   int
	// PendingToolCalls is set when auto-invocation is off and the model
	// asked for tools.
	PendingToolCalls []ToolCall
}

// Agent answers chat turns, invoking tools as the model requests them.
type Agent struct {
	llm      LLMClient
	tools    ToolRegistry
	model    string
	settings ExecutionSettings
	hooks    Hooks
}

// Reply runs one exchange over a private copy of history. Intermediate
// assistant and tool messages stay inside the exchange; only the final
// assistant message is returned.
func (a *Agent) Reply(ctx context.Context, history []ChatMessage) (Reply, error) {
	for i, m := range history {
		if err := m.Validate(); err != nil {
			return Reply{}, fmt.Errorf("history message %d: %w", i, err)
		}
	}

	st := &State{
		History:  append([]ChatMessage(nil), history...),
		Model:    a.model,
		MaxSteps: a.settings.MaxSteps,
	}

	err := Run(ctx, a.llm, a.tools, st, a.hooks, a.settings)
	reply := Reply{Usage: st.Totals, Steps: st.Step, PendingToolCalls: st.Pending}
	if err != nil {
		return reply, err
	}

	msg, ok := st.LastAssistant()
	if !ok {
		return reply, fmt.Errorf("model returned no assistant message")
	}
	reply.Message = msg
	return reply, nil
}

// Model returns the model name requests are sent to.
func (a *Agent) Model() string { return a.model }

// Tools returns the tools visible to the model.
func (a *Agent) Tools() ToolRegistry { return a.tools }

// Settings returns the execution settings in effect.
func (a *Agent) Settings() ExecutionSettings { return a.settings }

// SetLLM replaces the agent's LLM client and model name.
func (a *Agent) SetLLM(client LLMClient, modelName string) {
	a.llm = client
	a.model = modelName
}
