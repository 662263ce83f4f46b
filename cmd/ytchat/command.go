package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"regexp"

	"github.com/spf13/cobra"

	"github.com/ChamsBouzaiene/ytchat/internal/prompts"
	"github.com/ChamsBouzaiene/ytchat/internal/repl"
	"github.com/ChamsBouzaiene/ytchat/internal/tools/semantic"
)

const (
	urlPrompt  = "Enter the youtube video URL or playlist URL: "
	invalidURL = "Invalid youtube URL, please enter a valid youtube video URL or playlist URL"
)

var youtubeURLRe = regexp.MustCompile(`(https?://)?(www\.youtube\.com|youtu\.?be)/.+$`)

func newCommandCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "command",
		Short: "Generate a yt-dlp command line for a YouTube URL",
		Long: `Ask for a YouTube video or playlist URL and print a yt-dlp command
for it, generated by the configured model. The command is printed, not run.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runCommand(cmd.Context(), root)
		},
	}
}

func runCommand(ctx context.Context, root *rootOptions) error {
	env, err := prepareRuntimeEnv(ctx, root, needLLM)
	if err != nil {
		return err
	}
	defer env.Close()

	url, err := readYoutubeURL(ctx, root.stdin, root.stdout)
	if err != nil {
		return err
	}

	gen := semantic.NewCommandGenerator(env.LLM, env.Model, prompts.DefaultRegistry())
	line, err := gen.Generate(ctx, url)
	if err != nil {
		return err
	}
	env.Log.Debug().Str("url", url).Str("command", line).Msg("command generated")
	fmt.Fprintln(root.stdout, line)
	return nil
}

// readYoutubeURL prompts until the input looks like a YouTube URL.
func readYoutubeURL(ctx context.Context, in io.Reader, out io.Writer) (string, error) {
	lr := repl.NewLineReader(in, out, repl.PromptStyle(out))
	lr.Bind(ctx)
	for {
		line, err := lr.ReadLine(urlPrompt)
		if errors.Is(err, io.EOF) {
			return "", errors.New("no URL given")
		}
		if err != nil {
			return "", err
		}
		if youtubeURLRe.MatchString(line) {
			return line, nil
		}
		fmt.Fprintln(out, invalidURL)
	}
}
