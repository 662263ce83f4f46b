// Package repl runs the interactive chat loop.
package repl

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/rs/zerolog"

	"github.com/ChamsBouzaiene/ytchat/internal/command"
	"github.com/ChamsBouzaiene/ytchat/internal/engine"
	"github.com/ChamsBouzaiene/ytchat/internal/session"
)

// TurnPrompt asks for the next instruction.
const TurnPrompt = "What do you want to do?: "

// Assistant answers one exchange over the conversation so far.
type Assistant interface {
	Reply(ctx context.Context, history []engine.ChatMessage) (engine.Reply, error)
}

// Config holds what the driver shows and where it saves the transcript.
type Config struct {
	SystemPrompt string
	HistoryPath  string
	// Plugins are listed at startup.
	Plugins []string
}

// Driver coordinates input, commands, the assistant and transcript persistence.
type Driver struct {
	reader    *LineReader
	out       io.Writer
	assistant Assistant
	cfg       Config
	styles    styles
	log       zerolog.Logger
}

// New creates a driver reading from in and writing to out.
func New(in io.Reader, out io.Writer, a Assistant, cfg Config, log zerolog.Logger) *Driver {
	if cfg.HistoryPath == "" {
		cfg.HistoryPath = session.DefaultHistoryPath
	}
	st := newStyles(out)
	return &Driver{
		reader:    NewLineReader(in, out, st.prompt),
		out:       out,
		assistant: a,
		cfg:       cfg,
		styles:    st,
		log:       log.With().Str("component", "repl").Logger(),
	}
}

// Run drives the conversation until an exit command, end of input or an
// error. The transcript is saved in every case; a save failure is returned
// alongside any loop error.
func (d *Driver) Run(ctx context.Context) (err error) {
	sess := session.New(d.cfg.SystemPrompt)
	d.reader.Bind(ctx)
	d.log.Info().Str("session", sess.ID).Msg("chat started")

	defer func() {
		fmt.Fprintf(d.out, "Please check the %q file for the chat history\n", d.cfg.HistoryPath)
		if saveErr := session.SaveHistory(d.cfg.HistoryPath, sess); saveErr != nil {
			d.log.Error().Err(saveErr).Str("path", d.cfg.HistoryPath).Msg("saving chat history failed")
			err = errors.Join(err, saveErr)
			return
		}
		d.log.Info().Str("session", sess.ID).Int("turns", sess.Len()).Str("path", d.cfg.HistoryPath).Msg("chat history saved")
	}()

	err = d.loop(ctx, sess)
	if err != nil {
		fmt.Fprintln(d.out, d.styles.err.Render("An error occurred: "+err.Error()))
		d.log.Error().Err(err).Str("session", sess.ID).Msg("chat aborted")
	}
	return err
}

func (d *Driver) loop(ctx context.Context, sess *session.Session) error {
	fmt.Fprintf(d.out, "included_plugins: %s\n", strings.Join(d.cfg.Plugins, ", "))

	ref, err := d.reader.ReadLine(command.VideoPrompt)
	if errors.Is(err, io.EOF) {
		return nil
	}
	if err != nil {
		return err
	}
	if err := sess.Append(session.RoleUser, ref); err != nil {
		return err
	}

	interp := command.NewInterpreter(sess, d.reader, d.out)
	for {
		line, err := d.reader.ReadLine(TurnPrompt)
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		if strings.TrimSpace(line) == "" {
			continue
		}

		outcome, err := interp.Handle(ctx, line)
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		switch outcome {
		case command.Terminate:
			return nil
		case command.Handled:
			d.log.Debug().Str("command", string(command.Classify(line))).Msg("command handled")
			continue
		}

		if err := d.exchange(ctx, sess, line); err != nil {
			return err
		}
	}
}

// exchange sends one user turn and records the assistant's answer.
func (d *Driver) exchange(ctx context.Context, sess *session.Session, line string) error {
	if err := sess.Append(session.RoleUser, line); err != nil {
		return err
	}

	reply, err := d.assistant.Reply(ctx, sess.Messages())
	if err != nil {
		return err
	}

	text := reply.Message.Content
	if err := sess.Append(session.RoleAssistant, text); err != nil {
		return err
	}

	fmt.Fprintln(d.out, d.styles.aiLabel.Render("AI:")+" "+text)
	for _, c := range reply.PendingToolCalls {
		fmt.Fprintln(d.out, d.styles.pending.Render("pending tool call: "+formatToolCall(c)))
	}
	fmt.Fprintln(d.out, d.styles.usage.Render(formatUsage(reply.Usage)))
	fmt.Fprintln(d.out)

	d.log.Debug().
		Int("steps", reply.Steps).
		Int("total_tokens", reply.Usage.Total).
		Int("pending_tool_calls", len(reply.PendingToolCalls)).
		Msg("exchange done")
	return nil
}

// LineReader prints a prompt and reads one line. It implements command.Prompter.
type LineReader struct {
	r     *bufio.Reader
	out   io.Writer
	style lipgloss.Style
	ctx   context.Context
}

type readResult struct {
	line string
	err  error
}

// NewLineReader wraps in; prompts are written to out.
func NewLineReader(in io.Reader, out io.Writer, style lipgloss.Style) *LineReader {
	return &LineReader{r: bufio.NewReader(in), out: out, style: style, ctx: context.Background()}
}

// Bind makes ctx interrupt pending reads.
func (l *LineReader) Bind(ctx context.Context) {
	l.ctx = ctx
}

// ReadLine returns the next line without its line ending. A final line
// without a newline is still returned; io.EOF is returned only when no
// input is left. A cancelled context interrupts a pending read.
func (l *LineReader) ReadLine(prompt string) (string, error) {
	fmt.Fprint(l.out, l.style.Render(prompt))

	ch := make(chan readResult, 1)
	go func() {
		line, err := l.r.ReadString('\n')
		ch <- readResult{line: line, err: err}
	}()

	var res readResult
	select {
	case <-l.ctx.Done():
		fmt.Fprintln(l.out)
		return "", l.ctx.Err()
	case res = <-ch:
	}
	if res.err != nil && !(errors.Is(res.err, io.EOF) && res.line != "") {
		return "", res.err
	}
	return strings.TrimRight(res.line, "\r\n"), nil
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
