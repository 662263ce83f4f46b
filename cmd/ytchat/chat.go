package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/ChamsBouzaiene/ytchat/internal/engine"
	"github.com/ChamsBouzaiene/ytchat/internal/prompts"
	"github.com/ChamsBouzaiene/ytchat/internal/repl"
	"github.com/ChamsBouzaiene/ytchat/internal/tools"
	"github.com/ChamsBouzaiene/ytchat/internal/tools/semantic"
)

type chatOptions struct {
	root         *rootOptions
	historyPath  string
	noAutoInvoke bool
	plugins      []string
}

func (o *chatOptions) bindFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&o.historyPath, "history", "", "Where to save the chat transcript (.json, .yaml or .yml)")
	cmd.Flags().BoolVar(&o.noAutoInvoke, "no-auto-invoke", false, "Show requested tool calls instead of running them")
	cmd.Flags().StringSliceVar(&o.plugins, "plugins", nil, "Plugins to enable (default: all); one of youtube_dl, weather, ytdlp_command")
}

func newChatCmd(root *rootOptions) *cobra.Command {
	o := &chatOptions{root: root}
	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Start the interactive chat (default)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return o.run(cmd.Context())
		},
	}
	o.bindFlags(cmd)
	return cmd
}

func (o *chatOptions) run(ctx context.Context) error {
	env, err := prepareRuntimeEnv(ctx, o.root, needLLM|needVideo)
	if err != nil {
		return err
	}
	defer env.Close()

	cfg := env.Config
	if o.historyPath != "" {
		cfg.Chat.HistoryPath = o.historyPath
	}
	if o.noAutoInvoke {
		cfg.Chat.AutoInvoke = false
	}
	if len(o.plugins) > 0 {
		cfg.Chat.Plugins = o.plugins
	}

	reg, err := tools.NewToolRegistry(tools.Deps{
		Video:    env.Video,
		Commands: semantic.NewCommandGenerator(env.LLM, env.Model, prompts.DefaultRegistry()),
	}, cfg.Chat.Plugins)
	if err != nil {
		return err
	}

	systemPrompt := cfg.Chat.SystemPrompt
	if systemPrompt == "" {
		p, err := prompts.DefaultRegistry().GetLatest(prompts.VideoDownloadID)
		if err != nil {
			return err
		}
		systemPrompt = p.Content
	}

	agent, err := engine.NewAgentBuilder().
		WithModel(env.Model).
		WithLLM(env.LLM).
		WithToolRegistry(reg).
		WithSettings(cfg.ExecutionSettings()).
		WithHooks(engine.Hooks{engine.NewLoggerHook(env.Log, env.RunID)}).
		Build()
	if err != nil {
		return err
	}

	env.Log.Info().
		Str("model", env.Model).
		Strs("plugins", reg.Plugins()).
		Bool("auto_invoke", cfg.Chat.AutoInvoke).
		Msg("assistant ready")

	driver := repl.New(o.root.stdin, o.root.stdout, agent, repl.Config{
		SystemPrompt: systemPrompt,
		HistoryPath:  cfg.Chat.HistoryPath,
		Plugins:      reg.Plugins(),
	}, env.Log)
	if err := driver.Run(ctx); err != nil {
		return reportedError{err}
	}
	return nil
}
