// Package ytdlp drives the yt-dlp executable: it extracts video metadata,
// caches it and downloads videos with model-supplied options.
package ytdlp

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/ChamsBouzaiene/ytchat/internal/keypath"
	"github.com/ChamsBouzaiene/ytchat/internal/sandbox"
)

// Config holds the client settings.
type Config struct {
	Binary      string
	DownloadDir string
	InfoDir     string
	CacheTTL    time.Duration
	Timeout     time.Duration
}

// DefaultConfig mirrors the config file defaults.
func DefaultConfig() Config {
	return Config{
		Binary:      "yt-dlp",
		DownloadDir: "downloads",
		InfoDir:     "url_info",
		CacheTTL:    time.Hour,
		Timeout:     10 * time.Minute,
	}
}

// Client runs yt-dlp through a sandbox runner.
type Client struct {
	runner sandbox.Runner
	cache  *Cache
	cfg    Config
	log    zerolog.Logger

	// extracting is keyed by URL so concurrent lookups share one yt-dlp run.
	extracting singleflight.Group
}

// New creates a client. cache may be nil to disable caching.
func New(runner sandbox.Runner, cache *Cache, cfg Config, log zerolog.Logger) *Client {
	def := DefaultConfig()
	if cfg.Binary == "" {
		cfg.Binary = def.Binary
	}
	if cfg.DownloadDir == "" {
		cfg.DownloadDir = def.DownloadDir
	}
	return &Client{
		runner: runner,
		cache:  cache,
		cfg:    cfg,
		log:    log.With().Str("component", "ytdlp").Logger(),
	}
}

// Info returns the metadata yt-dlp extracts for url without downloading it.
// Results are cached and also dumped to <InfoDir>/<id>.json. Callers share
// the returned map and must not modify it.
func (c *Client) Info(ctx context.Context, url string) (map[string]any, error) {
	url = strings.TrimSpace(url)
	if url == "" {
		return nil, errors.New("video url is empty")
	}

	v, err, shared := c.extracting.Do(url, func() (any, error) {
		return c.info(ctx, url)
	})
	if err != nil {
		return nil, err
	}
	if shared {
		c.log.Debug().Str("url", url).Msg("info extraction shared")
	}
	return v.(map[string]any), nil
}

func (c *Client) info(ctx context.Context, url string) (map[string]any, error) {
	if c.cache != nil {
		info, ok, err := c.cache.Get(ctx, url, c.cfg.CacheTTL)
		if err != nil {
			c.log.Warn().Err(err).Str("url", url).Msg("info cache read failed")
		} else if ok {
			c.log.Debug().Str("url", url).Msg("info cache hit")
			return info, nil
		}
	}

	start := time.Now()
	args := []string{"--dump-single-json", "--skip-download", "--no-warnings", "--", url}
	res, err := c.run(ctx, "info", args)
	if err != nil {
		return nil, err
	}

	info, err := decodeInfo([]byte(res.Stdout))
	if err != nil {
		return nil, fmt.Errorf("parse yt-dlp info for %s: %w", url, err)
	}
	id, _ := info["id"].(string)
	c.log.Debug().Str("url", url).Str("video_id", id).Dur("elapsed", time.Since(start)).Msg("info extracted")

	if c.cache != nil {
		if err := c.cache.Put(ctx, url, id, info); err != nil {
			c.log.Warn().Err(err).Str("url", url).Msg("info cache write failed")
		}
	}
	if c.cfg.InfoDir != "" && id != "" {
		if err := writeInfoFile(c.cfg.InfoDir, id, info); err != nil {
			c.log.Warn().Err(err).Str("video_id", id).Msg("info dump failed")
		}
	}
	return info, nil
}

// VideoInfo resolves path inside the info of url. The bool is false when the
// path does not exist.
func (c *Client) VideoInfo(ctx context.Context, url string, path keypath.Path) (any, bool, error) {
	info, err := c.Info(ctx, url)
	if err != nil {
		return nil, false, err
	}
	v, ok := keypath.Resolve(info, path)
	return v, ok, nil
}

// Download fetches url with the given JSON options and returns the host path
// of the final file.
func (c *Client) Download(ctx context.Context, url, optionsJSON string) (string, error) {
	optArgs, err := ParseOptions(optionsJSON)
	if err != nil {
		return "", err
	}
	if _, err := c.Info(ctx, url); err != nil {
		return "", err
	}

	if err := os.MkdirAll(c.cfg.DownloadDir, 0o755); err != nil {
		return "", fmt.Errorf("create download dir: %w", err)
	}

	args := append(optArgs,
		"--no-simulate",
		"--no-progress",
		"--print", "after_move:filepath",
		"--", strings.TrimSpace(url),
	)
	c.log.Info().Str("url", url).Strs("args", optArgs).Msg("download started")

	res, err := c.run(ctx, "download", args)
	if err != nil {
		return "", err
	}

	line := lastLine(res.Stdout)
	if line == "" {
		return "", fmt.Errorf("yt-dlp reported no output file for %s", url)
	}
	path := sandbox.HostPath(c.runner, c.cfg.DownloadDir, line)
	c.log.Info().Str("url", url).Str("path", path).Msg("download finished")
	return path, nil
}

func (c *Client) run(ctx context.Context, op string, args []string) (sandbox.Result, error) {
	if err := os.MkdirAll(c.cfg.DownloadDir, 0o755); err != nil {
		return sandbox.Result{}, fmt.Errorf("create download dir: %w", err)
	}
	res, err := c.runner.RunCmd(ctx, c.cfg.DownloadDir, c.cfg.Binary, args, c.cfg.Timeout)
	if err != nil {
		return res, fmt.Errorf("yt-dlp %s: %w", op, err)
	}
	if res.Code != 0 {
		return res, &CommandError{Op: op, Code: res.Code, Stderr: res.Stderr}
	}
	return res, nil
}

func decodeInfo(data []byte) (map[string]any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var info map[string]any
	if err := dec.Decode(&info); err != nil {
		return nil, err
	}
	if info == nil {
		return nil, errors.New("info is not a JSON object")
	}
	return info, nil
}

// writeInfoFile dumps info as indented JSON with non-ASCII text kept literal.
func writeInfoFile(dir, id string, info map[string]any) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(info); err != nil {
		return err
	}
	name := strings.NewReplacer("/", "_", "\\", "_").Replace(id) + ".json"
	return os.WriteFile(filepath.Join(dir, name), bytes.TrimRight(buf.Bytes(), "\n"), 0o644)
}

func lastLine(s string) string {
	lines := strings.Split(s, "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		if l := strings.TrimSpace(lines[i]); l != "" {
			return l
		}
	}
	return ""
}
