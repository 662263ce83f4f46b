package logging

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPerSinkLevels(t *testing.T) {
	var console bytes.Buffer
	path := filepath.Join(t.TempDir(), "logs", "ytchat.log")

	log, closer, err := New(Options{
		Console:      &console,
		ConsoleLevel: "warn",
		NoColor:      true,
		File:         path,
		FileLevel:    "debug",
	})
	require.NoError(t, err)

	log.Debug().Str("k", "v").Msg("debug event")
	log.Warn().Msg("warn event")
	require.NoError(t, closer.Close())

	assert.NotContains(t, console.String(), "debug event")
	assert.Contains(t, console.String(), "warn event")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 2)

	var first map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &first))
	assert.Equal(t, "debug", first["level"])
	assert.Equal(t, "v", first["k"])
	assert.Contains(t, first, "time")
}

func TestConsoleOnly(t *testing.T) {
	var console bytes.Buffer
	log, closer, err := New(Options{Console: &console, NoColor: true})
	require.NoError(t, err)
	defer closer.Close()

	log.Debug().Msg("hidden")
	log.Info().Msg("shown")
	assert.NotContains(t, console.String(), "hidden")
	assert.Contains(t, console.String(), "shown")
}

func TestRotation(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ytchat.log")
	require.NoError(t, os.WriteFile(path, bytes.Repeat([]byte("x"), 2<<20), 0o644))

	_, closer, err := New(Options{Console: &bytes.Buffer{}, File: path, MaxSizeMB: 1})
	require.NoError(t, err)
	require.NoError(t, closer.Close())

	st, err := os.Stat(path + ".1")
	require.NoError(t, err)
	assert.Equal(t, int64(2<<20), st.Size())

	st, err = os.Stat(path)
	require.NoError(t, err)
	assert.Zero(t, st.Size())
}

func TestParseLevel(t *testing.T) {
	l, err := ParseLevel("", zerolog.InfoLevel)
	require.NoError(t, err)
	assert.Equal(t, zerolog.InfoLevel, l)

	l, err = ParseLevel("WARNING", zerolog.InfoLevel)
	require.NoError(t, err)
	assert.Equal(t, zerolog.WarnLevel, l)

	_, err = ParseLevel("loud", zerolog.InfoLevel)
	assert.Error(t, err)

	_, _, err = New(Options{ConsoleLevel: "loud"})
	assert.Error(t, err)
}
