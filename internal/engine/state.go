package engine

// State is the working copy of one exchange.
type State struct {
	History  []ChatMessage
	Step     int // increments only on success
	Retries  int
	Done     bool // true once the model answers without tool calls
	Model    string
	MaxSteps int
	Totals   Usage
	// Pending holds tool calls returned to the caller instead of executed.
	Pending []ToolCall
}

func (s *State) Append(msg ChatMessage) { s.History = append(s.History, msg) }

// LastAssistant returns the most recent assistant message.
func (s *State) LastAssistant() (ChatMessage, bool) {
	for i := len(s.History) - 1; i >= 0; i-- {
		if s.History[i].Role == RoleAssistant {
			return s.History[i], true
		}
	}
	return ChatMessage{}, false
}
