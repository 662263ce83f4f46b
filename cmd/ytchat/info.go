package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/ChamsBouzaiene/ytchat/internal/keypath"
)

func newInfoCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "info URL [KEY...]",
		Short: "Print video info, or the value at a nested key",
		Long: `Print the info yt-dlp extracts for URL as JSON.

Each KEY selects one level deeper; integer keys index lists:
  ytchat info https://youtu.be/ID title
  ytchat info https://youtu.be/ID formats 0 format_id

A missing key prints null.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInfo(cmd.Context(), root, args[0], args[1:])
		},
	}
}

func runInfo(ctx context.Context, root *rootOptions, url string, keys []string) error {
	env, err := prepareRuntimeEnv(ctx, root, needVideo)
	if err != nil {
		return err
	}
	defer env.Close()

	v, ok, err := env.Video.VideoInfo(ctx, url, parseKeys(keys))
	if err != nil {
		return err
	}
	if !ok {
		fmt.Fprintln(root.stdout, "null")
		return nil
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode info: %w", err)
	}
	_, err = root.stdout.Write(buf.Bytes())
	return err
}

// parseKeys turns command-line keys into a path; integers become indices.
func parseKeys(keys []string) keypath.Path {
	path := make(keypath.Path, 0, len(keys))
	for _, k := range keys {
		if n, err := strconv.Atoi(k); err == nil {
			path = append(path, n)
			continue
		}
		path = append(path, k)
	}
	return path
}
