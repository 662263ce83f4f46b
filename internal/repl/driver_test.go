package repl

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ChamsBouzaiene/ytchat/internal/engine"
	"github.com/ChamsBouzaiene/ytchat/internal/session"
)

type fakeAssistant struct {
	replies []engine.Reply
	err     error
	seen    [][]engine.ChatMessage
}

func (f *fakeAssistant) Reply(_ context.Context, history []engine.ChatMessage) (engine.Reply, error) {
	f.seen = append(f.seen, history)
	if f.err != nil {
		return engine.Reply{}, f.err
	}
	r := f.replies[0]
	f.replies = f.replies[1:]
	return r, nil
}

func reply(text string, prompt, completion int) engine.Reply {
	return engine.Reply{
		Message: engine.ChatMessage{Role: engine.RoleAssistant, Content: text},
		Usage:   engine.Usage{Prompt: prompt, Completion: completion, Total: prompt + completion},
		Steps:   1,
	}
}

func run(t *testing.T, input string, a Assistant) (string, *session.Session, error) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "chat_history.json")
	var out bytes.Buffer
	d := New(strings.NewReader(input), &out, a, Config{
		SystemPrompt: "sys",
		HistoryPath:  path,
		Plugins:      []string{"weather", "youtube_dl"},
	}, zerolog.Nop())
	err := d.Run(context.Background())

	saved, loadErr := session.LoadHistory(path)
	require.NoError(t, loadErr, "history must be saved in every case")
	return out.String(), saved, err
}

func TestRunExchangeAndExit(t *testing.T) {
	a := &fakeAssistant{replies: []engine.Reply{reply("Downloaded to a.mp3", 10, 5)}}
	out, saved, err := run(t, "https://youtu.be/x\n\ndownload audio\nexit\n", a)
	require.NoError(t, err)

	assert.Contains(t, out, "included_plugins: weather, youtube_dl")
	assert.Contains(t, out, "AI: Downloaded to a.mp3")
	assert.Contains(t, out, "usage: prompt_tokens: 10, completion_tokens: 5, total_tokens: 15")
	assert.Contains(t, out, "Goodbye!")
	assert.Contains(t, out, "file for the chat history")

	require.Len(t, a.seen, 1)
	assert.Len(t, a.seen[0], 3)
	assert.Equal(t, "download audio", a.seen[0][2].Content)

	assert.Equal(t, []session.Record{
		{Role: session.RoleSystem, Content: "sys"},
		{Role: session.RoleUser, Content: "https://youtu.be/x"},
		{Role: session.RoleUser, Content: "download audio"},
		{Role: session.RoleAssistant, Content: "Downloaded to a.mp3"},
	}, saved.Records())
}

func TestRunEOFWithoutFarewell(t *testing.T) {
	a := &fakeAssistant{replies: []engine.Reply{reply("ok", 1, 1)}}
	out, saved, err := run(t, "https://youtu.be/x\nwhat is the title", a)
	require.NoError(t, err)
	assert.NotContains(t, out, "Goodbye!")
	assert.Equal(t, 4, saved.Len())
}

func TestRunEOFBeforeVideo(t *testing.T) {
	_, saved, err := run(t, "", &fakeAssistant{})
	require.NoError(t, err)
	assert.Equal(t, 1, saved.Len())
}

func TestRunCommands(t *testing.T) {
	a := &fakeAssistant{replies: []engine.Reply{reply("ok", 1, 1)}}
	input := strings.Join([]string{
		"https://youtu.be/a",
		"hello",
		"change video",
		"https://youtu.be/b",
		"reset",
		"https://youtu.be/c",
		"QUIT",
	}, "\n") + "\n"
	_, saved, err := run(t, input, a)
	require.NoError(t, err)

	assert.Equal(t, []session.Record{
		{Role: session.RoleSystem, Content: "sys"},
		{Role: session.RoleUser, Content: "https://youtu.be/c"},
	}, saved.Records())
}

func TestRunAssistantError(t *testing.T) {
	boom := errors.New("rate limited")
	out, saved, err := run(t, "https://youtu.be/x\ndownload\n", &fakeAssistant{err: boom})
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, out, "An error occurred: rate limited")
	assert.Contains(t, out, "file for the chat history")
	assert.Equal(t, 3, saved.Len(), "the user turn is kept")
}

func TestRunPendingToolCalls(t *testing.T) {
	r := reply("", 2, 3)
	r.PendingToolCalls = []engine.ToolCall{{ID: "c1", Name: "download", Args: map[string]any{"video_url": "u", "options_json": "{}"}}}
	out, _, err := run(t, "https://youtu.be/x\ndownload\nbye\n", &fakeAssistant{replies: []engine.Reply{r}})
	require.NoError(t, err)
	assert.Contains(t, out, "pending tool call: download(options_json={}, video_url=u)")
}

func TestRunSaveError(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "file")
	require.NoError(t, os.WriteFile(blocker, nil, 0o644))

	var out bytes.Buffer
	d := New(strings.NewReader("exit\n"), &out, &fakeAssistant{}, Config{
		HistoryPath: filepath.Join(blocker, "history.json"),
	}, zerolog.Nop())
	assert.Error(t, d.Run(context.Background()))
}

func TestLineReader(t *testing.T) {
	var out bytes.Buffer
	lr := NewLineReader(strings.NewReader("one\r\ntwo"), &out, newStyles(&out).prompt)

	got, err := lr.ReadLine("> ")
	require.NoError(t, err)
	assert.Equal(t, "one", got)

	got, err = lr.ReadLine("> ")
	require.NoError(t, err)
	assert.Equal(t, "two", got)

	_, err = lr.ReadLine("> ")
	assert.Error(t, err)
	assert.Contains(t, out.String(), ">")
}

func TestRunCancelledWhileReading(t *testing.T) {
	pr, pw := io.Pipe()
	defer pw.Close()

	path := filepath.Join(t.TempDir(), "chat_history.json")
	var out bytes.Buffer
	d := New(pr, &out, &fakeAssistant{}, Config{HistoryPath: path}, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := d.Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)

	_, statErr := os.Stat(path)
	assert.NoError(t, statErr)
}
