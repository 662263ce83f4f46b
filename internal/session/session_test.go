package session

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ChamsBouzaiene/ytchat/internal/engine"
)

func TestNew(t *testing.T) {
	s := New("be helpful")

	require.Equal(t, 1, s.Len())
	assert.Equal(t, []Record{{Role: RoleSystem, Content: "be helpful"}}, s.Records())
	assert.NotEmpty(t, s.ID)

	_, ok := s.CurrentVideo()
	assert.False(t, ok)
}

func TestAppend(t *testing.T) {
	s := New("sys")
	require.NoError(t, s.Append(RoleUser, "https://youtu.be/a"))
	require.NoError(t, s.Append(RoleUser, "download audio"))
	require.NoError(t, s.Append(RoleAssistant, "done"))

	assert.Equal(t, []Record{
		{Role: RoleSystem, Content: "sys"},
		{Role: RoleUser, Content: "https://youtu.be/a"},
		{Role: RoleUser, Content: "download audio"},
		{Role: RoleAssistant, Content: "done"},
	}, s.Records())

	assert.Error(t, s.Append(RoleSystem, "again"))
	assert.Error(t, s.Append(Role("tool"), "x"))
	assert.Equal(t, 4, s.Len())
}

func TestReset(t *testing.T) {
	s := New("sys")
	require.NoError(t, s.Append(RoleUser, "https://youtu.be/a"))
	require.NoError(t, s.Append(RoleUser, "q"))
	require.NoError(t, s.Append(RoleAssistant, "a"))

	s.Reset("https://youtu.be/b")

	assert.Equal(t, []Record{
		{Role: RoleSystem, Content: "sys"},
		{Role: RoleUser, Content: "https://youtu.be/b"},
	}, s.Records())

	// Resetting a fresh session also yields exactly two turns.
	fresh := New("sys")
	fresh.Reset("u")
	assert.Equal(t, 2, fresh.Len())
}

func TestReplaceCurrentVideo(t *testing.T) {
	s := New("sys")
	require.NoError(t, s.Append(RoleUser, "https://youtu.be/a"))
	require.NoError(t, s.Append(RoleUser, "q1"))
	require.NoError(t, s.Append(RoleAssistant, "a1"))
	before := s.Records()

	require.NoError(t, s.ReplaceCurrentVideo("https://youtu.be/b"))

	after := s.Records()
	require.Len(t, after, len(before))
	for i := range after {
		if i == 1 {
			assert.Equal(t, "https://youtu.be/b", after[i].Content)
			assert.Equal(t, RoleUser, after[i].Role)
			continue
		}
		assert.Equal(t, before[i], after[i], "turn %d changed", i)
	}

	ref, ok := s.CurrentVideo()
	require.True(t, ok)
	assert.Equal(t, "https://youtu.be/b", ref)
}

func TestReplaceCurrentVideoWithoutReference(t *testing.T) {
	s := New("sys")
	err := s.ReplaceCurrentVideo("https://youtu.be/b")
	assert.ErrorIs(t, err, ErrNoVideoReference)
	assert.Equal(t, 1, s.Len())
}

func TestMessages(t *testing.T) {
	s := New("sys")
	require.NoError(t, s.Append(RoleUser, "u"))
	require.NoError(t, s.Append(RoleAssistant, "a"))

	msgs := s.Messages()
	assert.Equal(t, []engine.ChatMessage{
		{Role: engine.RoleSystem, Content: "sys"},
		{Role: engine.RoleUser, Content: "u"},
		{Role: engine.RoleAssistant, Content: "a"},
	}, msgs)

	// Mutating the returned slice must not leak back into the session.
	msgs[1].Content = "changed"
	assert.Equal(t, "u", s.Records()[1].Content)
}

func TestFromRecords(t *testing.T) {
	s, err := FromRecords([]Record{
		{Role: RoleSystem, Content: "sys"},
		{Role: RoleUser, Content: "u"},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, s.Len())

	_, err = FromRecords(nil)
	assert.Error(t, err)

	_, err = FromRecords([]Record{{Role: RoleUser, Content: "u"}})
	assert.Error(t, err)

	_, err = FromRecords([]Record{{Role: RoleSystem}, {Role: "robot", Content: "x"}})
	assert.Error(t, err)

	_, err = FromRecords([]Record{{Role: RoleSystem}, {Role: RoleSystem}})
	assert.Error(t, err)
}
