package providers

import (
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ChamsBouzaiene/ytchat/internal/engine"
)

func clearProviderEnv(t *testing.T) {
	t.Helper()
	t.Setenv("LLM_PROVIDER", "")
	for _, p := range registry {
		t.Setenv(p.envPrefix+"_API_KEY", "")
		t.Setenv(p.envPrefix+"_MODEL", "")
		t.Setenv(p.envPrefix+"_BASE_URL", "")
	}
}

func TestResolve(t *testing.T) {
	t.Run("defaults to openai from env", func(t *testing.T) {
		clearProviderEnv(t)
		t.Setenv("OPENAI_API_KEY", "sk-test")

		got, err := Resolve(Settings{})
		require.NoError(t, err)
		assert.Equal(t, Settings{Provider: "openai", Model: "gpt-4o-mini", APIKey: "sk-test"}, got)
	})

	t.Run("explicit settings win over env", func(t *testing.T) {
		clearProviderEnv(t)
		t.Setenv("OPENAI_API_KEY", "sk-env")
		t.Setenv("OPENAI_MODEL", "gpt-env")

		got, err := Resolve(Settings{Provider: "OpenAI", Model: "gpt-4o", APIKey: "sk-cfg"})
		require.NoError(t, err)
		assert.Equal(t, "openai", got.Provider)
		assert.Equal(t, "gpt-4o", got.Model)
		assert.Equal(t, "sk-cfg", got.APIKey)
	})

	t.Run("compatible provider gets default base url", func(t *testing.T) {
		clearProviderEnv(t)
		t.Setenv("DEEPSEEK_API_KEY", "k")

		got, err := Resolve(Settings{Provider: "deepseek"})
		require.NoError(t, err)
		assert.Equal(t, "https://api.deepseek.com/v1", got.BaseURL)
		assert.Equal(t, "deepseek-chat", got.Model)
	})

	t.Run("local provider needs no key", func(t *testing.T) {
		clearProviderEnv(t)
		t.Setenv("LLM_PROVIDER", "ollama")

		got, err := Resolve(Settings{})
		require.NoError(t, err)
		assert.Equal(t, "ollama", got.APIKey)
		assert.Equal(t, "http://localhost:11434/v1", got.BaseURL)
	})

	t.Run("missing key", func(t *testing.T) {
		clearProviderEnv(t)
		_, err := Resolve(Settings{Provider: "anthropic"})
		assert.EqualError(t, err, "ANTHROPIC_API_KEY not set")
	})

	t.Run("unknown provider", func(t *testing.T) {
		clearProviderEnv(t)
		_, err := Resolve(Settings{Provider: "clippy"})
		assert.ErrorContains(t, err, "unknown LLM provider: clippy")
	})
}

func TestNewLLMClient(t *testing.T) {
	clearProviderEnv(t)

	client, model, err := NewLLMClient(Settings{Provider: "anthropic", APIKey: "k"})
	require.NoError(t, err)
	assert.IsType(t, &AnthropicClient{}, client)
	assert.Equal(t, "claude-3-5-sonnet-latest", model)

	client, model, err = NewLLMClient(Settings{Provider: "groq", APIKey: "k", Model: "m"})
	require.NoError(t, err)
	assert.IsType(t, &OpenAIClient{}, client)
	assert.Equal(t, "m", model)
}

func TestExtractErrorMetadata(t *testing.T) {
	status, retryAfter := extractErrorMetadata(errors.New("error, status code: 429, message: slow down, Retry-After: 12"))
	assert.Equal(t, http.StatusTooManyRequests, status)
	assert.Equal(t, "12", retryAfter)

	status, retryAfter = extractErrorMetadata(errors.New("boom"))
	assert.Zero(t, status)
	assert.Empty(t, retryAfter)
}

func TestToOpenAIMessages(t *testing.T) {
	msgs := toOpenAIMessages([]engine.ChatMessage{
		{Role: engine.RoleSystem, Content: "sys"},
		{Role: engine.RoleTool, Name: "orphan", Content: "dropped"},
		{Role: engine.RoleUser, Content: "hi"},
		{Role: engine.RoleAssistant, ToolCalls: []engine.ToolCall{{ID: "c1", Name: "download", Args: map[string]any{"a": 1}}}},
		{Role: engine.RoleTool, Name: "c1", Content: ""},
	})

	require.Len(t, msgs, 4)
	assert.Equal(t, "system", msgs[0].Role)
	assert.Equal(t, "user", msgs[1].Role)
	assert.Equal(t, " ", msgs[2].Content)
	require.Len(t, msgs[2].ToolCalls, 1)
	assert.JSONEq(t, `{"a":1}`, msgs[2].ToolCalls[0].Function.Arguments)
	assert.Equal(t, "c1", msgs[3].ToolCallID)
	assert.Equal(t, "{}", msgs[3].Content)
}

func TestToAnthropicMessagesFoldsToolResults(t *testing.T) {
	system, msgs := toAnthropicMessages([]engine.ChatMessage{
		{Role: engine.RoleSystem, Content: "sys"},
		{Role: engine.RoleUser, Content: "hi"},
		{Role: engine.RoleAssistant, ToolCalls: []engine.ToolCall{
			{ID: "a", Name: "x", Args: map[string]any{}},
			{ID: "b", Name: "y", Args: map[string]any{}},
		}},
		{Role: engine.RoleTool, Name: "a", Content: "1"},
		{Role: engine.RoleTool, Name: "b", Content: "2"},
	})

	require.Len(t, system, 1)
	require.Len(t, msgs, 3)
	assert.Len(t, msgs[2].Content, 2)
}
