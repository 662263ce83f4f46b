package sandbox

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Mode represents the sandbox execution mode.
type Mode string

const (
	// ModeDocker runs commands in a Docker container.
	ModeDocker Mode = "docker"
	// ModeHost runs commands directly on the host.
	ModeHost Mode = "host"
	// ModeAuto prefers the host binary and falls back to Docker.
	ModeAuto Mode = "auto"
)

// DefaultImage ships yt-dlp together with ffmpeg.
const DefaultImage = "jauderho/yt-dlp:latest"

const defaultCmdTimeout = 10 * time.Minute

// ParseMode accepts host, docker or auto in any case. Empty means auto.
func ParseMode(s string) (Mode, error) {
	switch m := Mode(strings.ToLower(strings.TrimSpace(s))); m {
	case "":
		return ModeAuto, nil
	case ModeDocker, ModeHost, ModeAuto:
		return m, nil
	default:
		return "", fmt.Errorf("unknown sandbox mode %q (want host, docker or auto)", s)
	}
}

// Config holds configuration for sandbox execution.
type Config struct {
	Mode       Mode
	Image      string        // Docker image, DefaultImage when empty
	CPU        string        // CPU limit, e.g. "2"
	Memory     string        // Memory limit, e.g. "1g"
	CmdTimeout time.Duration // Default command timeout
	// Binary is looked up on PATH in auto mode.
	Binary string
}

// DefaultConfig returns a config in auto mode for the yt-dlp binary.
func DefaultConfig() Config {
	return Config{
		Mode:       ModeAuto,
		Image:      DefaultImage,
		CPU:        "2",
		Memory:     "1g",
		CmdTimeout: defaultCmdTimeout,
		Binary:     "yt-dlp",
	}
}

func (c Config) timeout(t time.Duration) time.Duration {
	if t > 0 {
		return t
	}
	if c.CmdTimeout > 0 {
		return c.CmdTimeout
	}
	return defaultCmdTimeout
}

// lookPath and dockerProbe are swapped in tests.
var (
	lookPath    = exec.LookPath
	dockerProbe = func(ctx context.Context, cfg Config) (Runner, error) { return NewDockerRunner(ctx, cfg) }
)

// NewRunner creates the runner selected by cfg.Mode.
//
// Docker mode fails when no daemon is reachable. Auto mode uses the host when
// cfg.Binary is on PATH, otherwise Docker when a daemon answers, otherwise the
// host again so the failure surfaces when the command runs.
func NewRunner(ctx context.Context, cfg Config, log zerolog.Logger) (Runner, error) {
	log = log.With().Str("component", "sandbox").Logger()

	switch cfg.Mode {
	case ModeHost:
		return &HostRunner{config: cfg}, nil

	case ModeDocker:
		r, err := dockerProbe(ctx, cfg)
		if err != nil {
			return nil, err
		}
		return r, nil

	case ModeAuto, "":
		if cfg.Binary != "" {
			if path, err := lookPath(cfg.Binary); err == nil {
				log.Debug().Str("binary", path).Msg("using host executor")
				return &HostRunner{config: cfg}, nil
			}
		}
		r, err := dockerProbe(ctx, cfg)
		if err == nil {
			log.Debug().Str("image", cfg.Image).Msg("using docker executor")
			return r, nil
		}
		log.Warn().Err(err).Str("binary", cfg.Binary).Msg("binary not on PATH and docker unavailable, using host executor")
		return &HostRunner{config: cfg}, nil

	default:
		return nil, fmt.Errorf("unknown runner mode: %s", cfg.Mode)
	}
}
