// Package command recognises the fixed set of REPL control commands.
package command

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/ChamsBouzaiene/ytchat/internal/session"
)

// VideoPrompt is shown whenever a new video reference is needed.
const VideoPrompt = "Please provide a youtube video URL: "

// Outcome tells the driver what happened to an input line.
type Outcome int

const (
	// NotHandled means the line is ordinary chat input.
	NotHandled Outcome = iota
	// Handled means the line was a command and the loop should continue.
	Handled
	// Terminate means the loop should stop.
	Terminate
)

// Kind identifies a recognised command.
type Kind string

const (
	KindNone        Kind = ""
	KindExit        Kind = "exit"
	KindReset       Kind = "reset"
	KindChangeVideo Kind = "change_video"
)

var table = map[string]Kind{
	"exit":         KindExit,
	"quit":         KindExit,
	"bye":          KindExit,
	"goodbye":      KindExit,
	"reset":        KindReset,
	"change video": KindChangeVideo,
}

// Classify maps a raw input line to a command kind.
// Matching ignores surrounding whitespace and letter case.
func Classify(input string) Kind {
	return table[strings.ToLower(strings.TrimSpace(input))]
}

// Prompter reads one line of user input after showing a prompt.
type Prompter interface {
	ReadLine(prompt string) (string, error)
}

// Interpreter applies commands to a session.
type Interpreter struct {
	sess   *session.Session
	prompt Prompter
	out    io.Writer
}

// NewInterpreter creates an interpreter bound to a session.
func NewInterpreter(sess *session.Session, prompt Prompter, out io.Writer) *Interpreter {
	return &Interpreter{sess: sess, prompt: prompt, out: out}
}

// Handle interprets one input line. Errors come only from reading the
// follow-up video reference; an io.EOF there is passed through unchanged.
func (in *Interpreter) Handle(ctx context.Context, input string) (Outcome, error) {
	if err := ctx.Err(); err != nil {
		return NotHandled, err
	}

	switch Classify(input) {
	case KindExit:
		fmt.Fprintln(in.out, "Goodbye!")
		return Terminate, nil

	case KindReset:
		ref, err := in.prompt.ReadLine(VideoPrompt)
		if err != nil {
			return Handled, err
		}
		in.sess.Reset(ref)
		return Handled, nil

	case KindChangeVideo:
		ref, err := in.prompt.ReadLine(VideoPrompt)
		if err != nil {
			return Handled, err
		}
		if err := in.sess.ReplaceCurrentVideo(ref); err != nil {
			if errors.Is(err, session.ErrNoVideoReference) {
				fmt.Fprintln(in.out, "No video is set yet, use \"reset\" to start with a new video.")
				return Handled, nil
			}
			return Handled, err
		}
		return Handled, nil
	}

	return NotHandled, nil
}
