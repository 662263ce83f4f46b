// Package video exposes yt-dlp downloads and metadata lookups as the
// youtube_dl plugin.
package video

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/ChamsBouzaiene/ytchat/internal/engine"
	"github.com/ChamsBouzaiene/ytchat/internal/keypath"
)

// Plugin is the name the youtube_dl tools are grouped under.
const Plugin = "youtube_dl"

// Client is the part of ytdlp.Client the tools need.
type Client interface {
	Download(ctx context.Context, url, optionsJSON string) (string, error)
	VideoInfo(ctx context.Context, url string, path keypath.Path) (any, bool, error)
}

// NewDownloadTool creates the download tool.
func NewDownloadTool(c Client) engine.Tool {
	return engine.Tool{
		Name: "download",
		Description: `Download a video with yt-dlp and return the path of the saved file.

options_json is a JSON object of yt-dlp options, for example
{"format": "bestaudio", "outtmpl": "%(title)s.%(ext)s", "postprocessors": [{"key": "FFmpegExtractAudio", "preferredcodec": "mp3"}]}.
Use "{}" for the defaults.`,
		SchemaJSON: `{"type":"object","properties":{"video_url":{"type":"string","minLength":1,"description":"URL of the video or playlist"},"options_json":{"type":"string","description":"yt-dlp options as a JSON object string"}},"required":["video_url"]}`,
		Fn: func(ctx context.Context, args map[string]any) (string, error) {
			url, _ := args["video_url"].(string)
			opts, _ := args["options_json"].(string)

			path, err := c.Download(ctx, strings.TrimSpace(url), opts)
			if err != nil {
				return "", err
			}
			return encode(map[string]string{"path": path})
		},
		Plugin: Plugin,
	}
}

// NewVideoInfoTool creates the get_video_info tool. A missing key yields null.
func NewVideoInfoTool(c Client) engine.Tool {
	return engine.Tool{
		Name: "get_video_info",
		Description: `Get information about a video, such as its title, duration, formats or subtitles.

nested_key selects part of the info: a key such as "title", an index, or a list
such as ["formats", 0, "format_id"]. Omit it to get everything. Returns null when
the key does not exist.`,
		SchemaJSON: `{"type":"object","properties":{"video_url":{"type":"string","minLength":1},"nested_key":{"oneOf":[{"type":"string"},{"type":"integer"},{"type":"array","items":{"type":["string","integer"]}},{"type":"null"}]}},"required":["video_url"]}`,
		Fn: func(ctx context.Context, args map[string]any) (string, error) {
			url, _ := args["video_url"].(string)

			v, ok, err := c.VideoInfo(ctx, strings.TrimSpace(url), keypath.ParsePath(args["nested_key"]))
			if err != nil {
				return "", err
			}
			if !ok {
				return "null", nil
			}
			return encode(v)
		},
		Retryable: true,
		Plugin:    Plugin,
	}
}

func encode(v any) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return "", fmt.Errorf("encode result: %w", err)
	}
	return strings.TrimRight(buf.String(), "\n"), nil
}
