// Package session holds the chat turn log the REPL drives.
//
// The log always starts with the single system turn. The turn at index 1,
// once present, carries the current video reference and is the only turn
// that is ever rewritten in place.
package session

import (
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/ChamsBouzaiene/ytchat/internal/engine"
)

// Role identifies who produced a turn.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleSystem, RoleUser, RoleAssistant:
		return true
	}
	return false
}

// ErrNoVideoReference is returned when the video reference slot has not been filled yet.
var ErrNoVideoReference = errors.New("session has no video reference turn")

// videoRefIndex is the position of the current video reference turn.
const videoRefIndex = 1

// Turn is one entry in the conversation.
type Turn struct {
	Role    Role
	Content string
}

// Record is the serialized shape of a Turn.
type Record struct {
	Role    Role   `json:"role" yaml:"role"`
	Content string `json:"content" yaml:"content"`
}

// Session is an ordered turn log. It is not safe for concurrent use.
type Session struct {
	ID    string
	turns []Turn
}

// New creates a session holding only the system turn.
func New(systemPrompt string) *Session {
	return &Session{
		ID:    uuid.New().String(),
		turns: []Turn{{Role: RoleSystem, Content: systemPrompt}},
	}
}

// Append adds a user or assistant turn at the end of the log.
func (s *Session) Append(role Role, content string) error {
	switch role {
	case RoleUser, RoleAssistant:
	case RoleSystem:
		return fmt.Errorf("cannot append a second system turn")
	default:
		return fmt.Errorf("unknown role %q", role)
	}
	s.turns = append(s.turns, Turn{Role: role, Content: content})
	return nil
}

// Reset drops everything except the system turn and starts over with ref
// as the video reference.
func (s *Session) Reset(ref string) {
	s.turns = []Turn{s.turns[0], {Role: RoleUser, Content: ref}}
}

// ReplaceCurrentVideo rewrites the video reference turn in place.
// All other turns are left untouched.
func (s *Session) ReplaceCurrentVideo(ref string) error {
	if len(s.turns) <= videoRefIndex {
		return ErrNoVideoReference
	}
	s.turns[videoRefIndex].Content = ref
	return nil
}

// CurrentVideo returns the video reference, if one has been set.
func (s *Session) CurrentVideo() (string, bool) {
	if len(s.turns) <= videoRefIndex {
		return "", false
	}
	return s.turns[videoRefIndex].Content, true
}

// Len returns the number of turns.
func (s *Session) Len() int { return len(s.turns) }

// Turns returns a copy of the turn log.
func (s *Session) Turns() []Turn {
	out := make([]Turn, len(s.turns))
	copy(out, s.turns)
	return out
}

// Records returns the turn log in its serialized form.
func (s *Session) Records() []Record {
	out := make([]Record, len(s.turns))
	for i, t := range s.turns {
		out[i] = Record{Role: t.Role, Content: t.Content}
	}
	return out
}

// Messages converts the turn log into provider-agnostic chat messages.
func (s *Session) Messages() []engine.ChatMessage {
	out := make([]engine.ChatMessage, len(s.turns))
	for i, t := range s.turns {
		out[i] = engine.ChatMessage{Role: engine.MessageRole(t.Role), Content: t.Content}
	}
	return out
}

// FromRecords rebuilds a session from serialized records.
// The first record must be the only system record.
func FromRecords(records []Record) (*Session, error) {
	if len(records) == 0 || records[0].Role != RoleSystem {
		return nil, fmt.Errorf("history must start with a system turn")
	}
	s := New(records[0].Content)
	for i, r := range records[1:] {
		if !r.Role.Valid() {
			return nil, fmt.Errorf("record %d: unknown role %q", i+1, r.Role)
		}
		if err := s.Append(r.Role, r.Content); err != nil {
			return nil, fmt.Errorf("record %d: %w", i+1, err)
		}
	}
	return s, nil
}
