package session

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleSession(t *testing.T) *Session {
	t.Helper()
	s := New("You are a video assistant.")
	require.NoError(t, s.Append(RoleUser, "https://www.youtube.com/watch?v=abc"))
	require.NoError(t, s.Append(RoleUser, "télécharge l'audio <mp3> & merci"))
	require.NoError(t, s.Append(RoleAssistant, "動画をダウンロードしました"))
	return s
}

func TestSaveHistoryJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "chat_history.json")
	s := sampleSession(t)

	require.NoError(t, SaveHistory(path, s))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	text := string(data)

	// Non-ASCII and HTML-sensitive characters stay literal.
	assert.Contains(t, text, "télécharge l'audio <mp3> & merci")
	assert.Contains(t, text, "動画をダウンロードしました")
	assert.NotContains(t, text, `\u`)

	// Four-space indentation.
	assert.True(t, strings.HasPrefix(text, "[\n    {\n        \"role\": \"system\""), text)

	var records []Record
	require.NoError(t, json.Unmarshal(data, &records))
	assert.Equal(t, s.Records(), records)
}

func TestSaveHistoryYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.yaml")
	s := sampleSession(t)

	require.NoError(t, SaveHistory(path, s))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "role: system")

	loaded, err := LoadHistory(path)
	require.NoError(t, err)
	assert.Equal(t, s.Records(), loaded.Records())
}

func TestHistoryRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "chat_history.json")
	s := sampleSession(t)
	require.NoError(t, s.ReplaceCurrentVideo("https://youtu.be/xyz"))

	require.NoError(t, SaveHistory(path, s))
	loaded, err := LoadHistory(path)
	require.NoError(t, err)

	assert.Equal(t, s.Records(), loaded.Records())
	ref, ok := loaded.CurrentVideo()
	require.True(t, ok)
	assert.Equal(t, "https://youtu.be/xyz", ref)
}

func TestLoadHistoryErrors(t *testing.T) {
	dir := t.TempDir()

	_, err := LoadHistory(filepath.Join(dir, "missing.json"))
	assert.Error(t, err)

	bad := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte("{not json"), 0644))
	_, err = LoadHistory(bad)
	assert.Error(t, err)

	noSystem := filepath.Join(dir, "nosys.json")
	require.NoError(t, os.WriteFile(noSystem, []byte(`[{"role":"user","content":"hi"}]`), 0644))
	_, err = LoadHistory(noSystem)
	assert.Error(t, err)
}
