// Package config loads ytchat settings from defaults, an optional YAML
// config file and YTCHAT_ environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/ChamsBouzaiene/ytchat/internal/engine"
	"github.com/ChamsBouzaiene/ytchat/internal/providers"
	"github.com/ChamsBouzaiene/ytchat/internal/sandbox"
	"github.com/ChamsBouzaiene/ytchat/internal/session"
	"github.com/ChamsBouzaiene/ytchat/internal/ytdlp"
)

// EnvPrefix namespaces environment overrides, e.g. YTCHAT_LLM_MODEL.
const EnvPrefix = "YTCHAT"

// Config stores all configuration of the application.
type Config struct {
	LLM     LLMConfig     `mapstructure:"llm"`
	Chat    ChatConfig    `mapstructure:"chat"`
	Log     LogConfig     `mapstructure:"log"`
	Ytdlp   YtdlpConfig   `mapstructure:"ytdlp"`
	Sandbox SandboxConfig `mapstructure:"sandbox"`

	// File is the config file that was read, empty when none was found.
	File string `mapstructure:"-"`
}

// LLMConfig selects the chat provider. Empty fields fall back to the
// provider's own environment variables.
type LLMConfig struct {
	Provider        string  `mapstructure:"provider"`
	Model           string  `mapstructure:"model"`
	APIKey          string  `mapstructure:"api_key"`
	BaseURL         string  `mapstructure:"base_url"`
	Temperature     float32 `mapstructure:"temperature"`
	MaxOutputTokens int     `mapstructure:"max_output_tokens"`
}

// ChatConfig controls the REPL and the function-calling loop.
type ChatConfig struct {
	MaxSteps     int      `mapstructure:"max_steps"`
	AutoInvoke   bool     `mapstructure:"auto_invoke"`
	ToolChoice   string   `mapstructure:"tool_choice"`
	Plugins      []string `mapstructure:"plugins"`
	HistoryPath  string   `mapstructure:"history_path"`
	SystemPrompt string   `mapstructure:"system_prompt"`
}

// LogConfig configures the console and file sinks.
type LogConfig struct {
	Level     string `mapstructure:"level"`
	FileLevel string `mapstructure:"file_level"`
	File      string `mapstructure:"file"`
	MaxSizeMB int    `mapstructure:"max_size_mb"`
}

// YtdlpConfig configures the yt-dlp client and its info cache.
type YtdlpConfig struct {
	Binary      string        `mapstructure:"binary"`
	DownloadDir string        `mapstructure:"download_dir"`
	InfoDir     string        `mapstructure:"info_dir"`
	CachePath   string        `mapstructure:"cache_path"`
	CacheTTL    time.Duration `mapstructure:"cache_ttl"`
	Timeout     time.Duration `mapstructure:"timeout"`
}

// SandboxConfig selects where yt-dlp runs.
type SandboxConfig struct {
	Mode   string `mapstructure:"mode"`
	Image  string `mapstructure:"image"`
	CPU    string `mapstructure:"cpu"`
	Memory string `mapstructure:"memory"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("llm.provider", "")
	v.SetDefault("llm.model", "")
	v.SetDefault("llm.api_key", "")
	v.SetDefault("llm.base_url", "")
	v.SetDefault("llm.temperature", 0.0)
	v.SetDefault("llm.max_output_tokens", 2048)

	v.SetDefault("chat.max_steps", engine.DefaultMaxSteps)
	v.SetDefault("chat.auto_invoke", true)
	v.SetDefault("chat.tool_choice", string(engine.ToolChoiceAuto))
	v.SetDefault("chat.plugins", []string{})
	v.SetDefault("chat.history_path", session.DefaultHistoryPath)
	v.SetDefault("chat.system_prompt", "")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.file_level", "debug")
	v.SetDefault("log.file", filepath.Join("logs", "ytchat.log"))
	v.SetDefault("log.max_size_mb", 10)

	yd := ytdlp.DefaultConfig()
	v.SetDefault("ytdlp.binary", yd.Binary)
	v.SetDefault("ytdlp.download_dir", yd.DownloadDir)
	v.SetDefault("ytdlp.info_dir", yd.InfoDir)
	v.SetDefault("ytdlp.cache_path", filepath.Join(".ytchat", "info.db"))
	v.SetDefault("ytdlp.cache_ttl", yd.CacheTTL)
	v.SetDefault("ytdlp.timeout", yd.Timeout)

	sb := sandbox.DefaultConfig()
	v.SetDefault("sandbox.mode", string(sb.Mode))
	v.SetDefault("sandbox.image", sb.Image)
	v.SetDefault("sandbox.cpu", sb.CPU)
	v.SetDefault("sandbox.memory", sb.Memory)
}

// Load reads configuration. With an empty path it searches for config.yaml
// in the working directory and the user config dir; a missing file is not
// an error. An explicit path must exist.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if dir, err := UserConfigDir(); err == nil {
			v.AddConfigPath(dir)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file %s: %w", describe(path), err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config %s: %w", describe(v.ConfigFileUsed()), err)
	}
	cfg.File = v.ConfigFileUsed()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", describe(cfg.File), err)
	}
	return &cfg, nil
}

func describe(path string) string {
	if path == "" {
		return "(defaults)"
	}
	return path
}

// UserConfigDir is where a user-wide config.yaml is looked up.
func UserConfigDir() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user config dir: %w", err)
	}
	return filepath.Join(dir, "ytchat"), nil
}

// Validate checks the values that have a closed set of choices.
func (c *Config) Validate() error {
	if _, err := engine.ParseToolChoice(c.Chat.ToolChoice); err != nil {
		return err
	}
	if _, err := sandbox.ParseMode(c.Sandbox.Mode); err != nil {
		return err
	}
	if c.Chat.MaxSteps < 0 {
		return fmt.Errorf("chat.max_steps must not be negative, got %d", c.Chat.MaxSteps)
	}
	if strings.TrimSpace(c.Chat.HistoryPath) == "" {
		return errors.New("chat.history_path must not be empty")
	}
	return nil
}

// ProviderSettings returns the provider selection for providers.NewLLMClient.
func (c *Config) ProviderSettings() providers.Settings {
	return providers.Settings{
		Provider: c.LLM.Provider,
		Model:    c.LLM.Model,
		APIKey:   c.LLM.APIKey,
		BaseURL:  c.LLM.BaseURL,
	}
}

// ExecutionSettings returns the function-calling settings for the engine.
func (c *Config) ExecutionSettings() engine.ExecutionSettings {
	s := engine.DefaultExecutionSettings()
	choice, _ := engine.ParseToolChoice(c.Chat.ToolChoice)
	s.ToolChoice = choice
	s.FunctionCall.AutoInvoke = c.Chat.AutoInvoke
	s.FunctionCall.IncludedPlugins = append([]string(nil), c.Chat.Plugins...)
	if c.Chat.MaxSteps > 0 {
		s.MaxSteps = c.Chat.MaxSteps
	}
	if c.LLM.MaxOutputTokens > 0 {
		s.MaxOutputTokens = c.LLM.MaxOutputTokens
	}
	s.Temperature = c.LLM.Temperature
	return s
}

// YtdlpClientConfig returns the yt-dlp client settings.
func (c *Config) YtdlpClientConfig() ytdlp.Config {
	return ytdlp.Config{
		Binary:      c.Ytdlp.Binary,
		DownloadDir: c.Ytdlp.DownloadDir,
		InfoDir:     c.Ytdlp.InfoDir,
		CacheTTL:    c.Ytdlp.CacheTTL,
		Timeout:     c.Ytdlp.Timeout,
	}
}

// SandboxRunnerConfig returns the sandbox settings for the yt-dlp runner.
func (c *Config) SandboxRunnerConfig() sandbox.Config {
	mode, _ := sandbox.ParseMode(c.Sandbox.Mode)
	return sandbox.Config{
		Mode:       mode,
		Image:      c.Sandbox.Image,
		CPU:        c.Sandbox.CPU,
		Memory:     c.Sandbox.Memory,
		CmdTimeout: c.Ytdlp.Timeout,
		Binary:     c.Ytdlp.Binary,
	}
}
