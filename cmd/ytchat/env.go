package main

import (
	"context"
	"fmt"
	"io"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/ChamsBouzaiene/ytchat/internal/config"
	"github.com/ChamsBouzaiene/ytchat/internal/engine"
	"github.com/ChamsBouzaiene/ytchat/internal/logging"
	"github.com/ChamsBouzaiene/ytchat/internal/providers"
	"github.com/ChamsBouzaiene/ytchat/internal/sandbox"
	"github.com/ChamsBouzaiene/ytchat/internal/ytdlp"
)

// needs selects which collaborators prepareRuntimeEnv builds.
type needs int

const (
	needLLM needs = 1 << iota
	needVideo
)

// Swapped in tests.
var (
	newLLMClient = providers.NewLLMClient
	newRunner    = sandbox.NewRunner
)

type runtimeEnv struct {
	Config *config.Config
	Log    zerolog.Logger
	RunID  string

	LLM   engine.LLMClient
	Model string
	Video *ytdlp.Client

	logCloser io.Closer
	cache     *ytdlp.Cache
}

func (r *runtimeEnv) Close() {
	if r.cache != nil {
		if err := r.cache.Close(); err != nil {
			r.Log.Warn().Err(err).Msg("closing info cache failed")
		}
	}
	if r.logCloser != nil {
		_ = r.logCloser.Close()
	}
}

// prepareRuntimeEnv loads config and logging, then builds the requested
// collaborators. On error everything opened so far is closed.
func prepareRuntimeEnv(ctx context.Context, opts *rootOptions, n needs) (env *runtimeEnv, err error) {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return nil, err
	}

	consoleLevel := cfg.Log.Level
	if opts.verbose {
		consoleLevel = "debug"
	}
	log, closer, err := logging.New(logging.Options{
		Console:      opts.stderr,
		ConsoleLevel: consoleLevel,
		File:         cfg.Log.File,
		FileLevel:    cfg.Log.FileLevel,
		MaxSizeMB:    cfg.Log.MaxSizeMB,
	})
	if err != nil {
		return nil, err
	}

	runID := uuid.NewString()
	env = &runtimeEnv{
		Config:    cfg,
		Log:       log.With().Str("run", runID).Logger(),
		RunID:     runID,
		logCloser: closer,
	}
	defer func() {
		if err != nil {
			env.Close()
			env = nil
		}
	}()

	if cfg.File != "" {
		env.Log.Debug().Str("path", cfg.File).Msg("config loaded")
	}

	if n&needLLM != 0 {
		llm, model, err := newLLMClient(cfg.ProviderSettings())
		if err != nil {
			return env, fmt.Errorf("failed to create LLM client: %w", err)
		}
		env.LLM, env.Model = llm, model
	}

	if n&needVideo != 0 {
		runner, err := newRunner(ctx, cfg.SandboxRunnerConfig(), env.Log)
		if err != nil {
			return env, fmt.Errorf("failed to create yt-dlp runner: %w", err)
		}
		if cfg.Ytdlp.CachePath != "" {
			cache, err := ytdlp.OpenCache(ctx, cfg.Ytdlp.CachePath)
			if err != nil {
				return env, err
			}
			env.cache = cache
			if ttl := cfg.Ytdlp.CacheTTL; ttl > 0 {
				if n, err := cache.Purge(ctx, ttl); err != nil {
					env.Log.Warn().Err(err).Msg("purging info cache failed")
				} else if n > 0 {
					env.Log.Debug().Int64("rows", n).Msg("expired info purged")
				}
			}
		}
		env.Video = ytdlp.New(runner, env.cache, cfg.YtdlpClientConfig(), env.Log)
	}

	return env, nil
}
