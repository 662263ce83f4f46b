package providers

import (
	"fmt"
	"net/http"
	"os"
	"sort"
	"strings"

	"github.com/ChamsBouzaiene/ytchat/internal/engine"
)

// Settings selects and configures a provider. Empty fields fall back to
// the provider's environment variables, then to built-in defaults.
type Settings struct {
	Provider string
	Model    string
	APIKey   string
	BaseURL  string
}

// providerSpec describes one supported provider.
type providerSpec struct {
	envPrefix    string
	defaultModel string
	defaultURL   string
	// localKey is used when no key is configured; local servers accept anything.
	localKey  string
	anthropic bool
}

var registry = map[string]providerSpec{
	"openai":    {envPrefix: "OPENAI", defaultModel: "gpt-4o-mini"},
	"anthropic": {envPrefix: "ANTHROPIC", defaultModel: "claude-3-5-sonnet-latest", anthropic: true},
	"kimi":      {envPrefix: "KIMI", defaultModel: "kimi-k2-250711", defaultURL: "https://ark.ap-southeast.bytepluses.com/api/v3"},
	"gemini":    {envPrefix: "GEMINI", defaultModel: "gemini-1.5-flash", defaultURL: "https://generativelanguage.googleapis.com/v1beta/openai"},
	"lmstudio":  {envPrefix: "LMSTUDIO", defaultModel: "local-model", defaultURL: "http://localhost:1234/v1", localKey: "lm-studio"},
	"ollama":    {envPrefix: "OLLAMA", defaultModel: "llama3.1", defaultURL: "http://localhost:11434/v1", localKey: "ollama"},
	"glm":       {envPrefix: "GLM", defaultModel: "glm-4-plus", defaultURL: "https://open.bigmodel.cn/api/paas/v4"},
	"minimax":   {envPrefix: "MINIMAX", defaultModel: "abab6.5s-chat", defaultURL: "https://api.minimax.chat/v1"},
	"deepseek":  {envPrefix: "DEEPSEEK", defaultModel: "deepseek-chat", defaultURL: "https://api.deepseek.com/v1"},
	"groq":      {envPrefix: "GROQ", defaultModel: "llama-3.1-70b-versatile", defaultURL: "https://api.groq.com/openai/v1"},
}

// Supported returns the sorted provider names.
func Supported() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Resolve fills empty settings from the environment and defaults.
func Resolve(s Settings) (Settings, error) {
	if s.Provider == "" {
		s.Provider = os.Getenv("LLM_PROVIDER")
	}
	if s.Provider == "" {
		s.Provider = "openai"
	}
	s.Provider = strings.ToLower(s.Provider)

	p, ok := registry[s.Provider]
	if !ok {
		return s, fmt.Errorf("unknown LLM provider: %s (supported: %s)", s.Provider, strings.Join(Supported(), ", "))
	}

	if s.APIKey == "" {
		s.APIKey = os.Getenv(p.envPrefix + "_API_KEY")
	}
	if s.APIKey == "" {
		s.APIKey = p.localKey
	}
	if s.APIKey == "" {
		return s, fmt.Errorf("%s_API_KEY not set", p.envPrefix)
	}

	if s.Model == "" {
		s.Model = os.Getenv(p.envPrefix + "_MODEL")
	}
	if s.Model == "" {
		s.Model = p.defaultModel
	}

	if s.BaseURL == "" && !p.anthropic {
		s.BaseURL = os.Getenv(p.envPrefix + "_BASE_URL")
	}
	if s.BaseURL == "" {
		s.BaseURL = p.defaultURL
	}
	return s, nil
}

// NewLLMClient creates the configured client and returns it with the resolved model name.
func NewLLMClient(s Settings) (engine.LLMClient, string, error) {
	resolved, err := Resolve(s)
	if err != nil {
		return nil, "", err
	}

	if registry[resolved.Provider].anthropic {
		client, err := NewAnthropicClient(resolved.APIKey)
		if err != nil {
			return nil, "", fmt.Errorf("failed to create Anthropic client: %w", err)
		}
		return client, resolved.Model, nil
	}

	client, err := NewOpenAIClient(resolved.APIKey, resolved.BaseURL)
	if err != nil {
		return nil, "", fmt.Errorf("failed to create %s client: %w", resolved.Provider, err)
	}
	return client, resolved.Model, nil
}

// statusMarkers maps fragments found in SDK error text to HTTP status codes.
var statusMarkers = []struct {
	fragment string
	status   int
}{
	{"429", http.StatusTooManyRequests},
	{"500", http.StatusInternalServerError},
	{"502", http.StatusBadGateway},
	{"503", http.StatusServiceUnavailable},
	{"504", http.StatusGatewayTimeout},
	{"401", http.StatusUnauthorized},
	{"403", http.StatusForbidden},
	{"400", http.StatusBadRequest},
	{"402", http.StatusPaymentRequired},
}

// extractErrorMetadata pulls an HTTP status and Retry-After hint out of an SDK error.
func extractErrorMetadata(err error) (int, string) {
	if err == nil {
		return 0, ""
	}

	errStr := err.Error()
	var httpStatus int
	for _, m := range statusMarkers {
		if strings.Contains(errStr, m.fragment) {
			httpStatus = m.status
			break
		}
	}

	var retryAfter string
	lower := strings.ToLower(errStr)
	for _, marker := range []string{"retry-after", "retry after"} {
		idx := strings.Index(lower, marker)
		if idx == -1 {
			continue
		}
		parts := strings.Fields(strings.TrimLeft(errStr[idx+len(marker):], ": "))
		if len(parts) > 0 {
			retryAfter = parts[0]
		}
		break
	}

	return httpStatus, retryAfter
}
