package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var (
	version = "dev"
	commit  = "unknown"
)

// rootOptions are the persistent flags shared by every subcommand.
type rootOptions struct {
	configPath string
	verbose    bool

	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
}

// reportedError marks an error the command already showed to the user.
type reportedError struct{ err error }

func (e reportedError) Error() string { return e.err.Error() }
func (e reportedError) Unwrap() error { return e.err }

// Execute runs the CLI and returns the process exit code.
func Execute() int {
	// .env is optional
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	return run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr)
}

func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	cmd := newRootCmd(&rootOptions{stdin: stdin, stdout: stdout, stderr: stderr})
	cmd.SetArgs(args)
	cmd.SetIn(stdin)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	if err := cmd.ExecuteContext(ctx); err != nil {
		var reported reportedError
		if !errors.As(err, &reported) {
			fmt.Fprintf(stderr, "Error: %v\n", err)
		}
		return 1
	}
	return 0
}

func newRootCmd(opts *rootOptions) *cobra.Command {
	chat := &chatOptions{root: opts}

	cmd := &cobra.Command{
		Use:   "ytchat",
		Short: "Chat with an assistant that downloads videos with yt-dlp",
		Long: `ytchat is a chat assistant for downloading videos with yt-dlp.

Give it a video or playlist URL, then describe what you want:
"audio only as mp3", "the 720p version with English subtitles",
"what is the duration?". The assistant picks yt-dlp options and runs
the download for you.

Commands inside the chat:
  reset          start over with a new video
  change video   switch to another video, keeping the conversation
  exit           leave (also quit, bye, goodbye)`,
		Version:       fmt.Sprintf("%s (commit: %s)", version, commit),
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return chat.run(cmd.Context())
		},
	}

	cmd.PersistentFlags().StringVar(&opts.configPath, "config", "", "Path to a config file (default: ./config.yaml or the user config dir)")
	cmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "Enable debug logging on the console")
	chat.bindFlags(cmd)

	cmd.SetVersionTemplate(`{{printf "%s\n" .Version}}`)
	cmd.AddCommand(newChatCmd(opts), newCommandCmd(opts), newInfoCmd(opts))
	return cmd
}
