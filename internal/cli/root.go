// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/jeranaias/llmchat/internal/config"
)

// Version is set at build time with -ldflags.
var Version = "dev"

const rootLongDesc string = `Chat with a model served by a local Ollama server.

Each message is sent as a single-turn request to /api/chat; the streamed
reply is shown once it is complete. Sending the same text twice in a row
is ignored.

Runs a full-screen interface when attached to a terminal and a plain
line-mode prompt otherwise (or with --plain).

Examples:
  llmchat
  llmchat --model mistral
  echo "why is the sky blue?" | llmchat
  llmchat ask "summarize RFC 2119 in one line"`

const rootShortDesc string = "Minimal chat client for a local Ollama server"

// rootOptions holds the persistent flags and the config they resolve to.
type rootOptions struct {
	configPath string
	model      string
	endpoint   string
	plain      bool
	debug      bool

	cfg *config.Config
}

// overrides returns the flag values that win over file and environment.
func (o *rootOptions) overrides() config.Overrides {
	return config.Overrides{Model: o.model, Endpoint: o.endpoint, Debug: o.debug}
}

// load resolves the config: file, environment, then flags.
func (o *rootOptions) load() error {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return err
	}
	o.overrides().Apply(cfg)
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid flags: %w", err)
	}
	o.cfg = cfg
	return nil
}

// resolvedConfigPath returns --config or the default location.
func (o *rootOptions) resolvedConfigPath() (string, error) {
	if o.configPath != "" {
		return o.configPath, nil
	}
	return config.DefaultPath()
}

// NewRootCmd builds the llmchat command tree.
func NewRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:           "llmchat",
		Short:         rootShortDesc,
		Long:          rootLongDesc,
		Version:       Version,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			configureColors()
			if skipsConfig(cmd) {
				return nil
			}
			return opts.load()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runChat(cmd, opts)
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&opts.configPath, "config", "", "Path to config file (default ~/.llmchat/config.toml)")
	flags.StringVarP(&opts.model, "model", "m", "", "Model to chat with")
	flags.StringVar(&opts.endpoint, "url", "", "Ollama server URL")
	flags.BoolVar(&opts.plain, "plain", false, "Use the plain line-mode interface")
	flags.BoolVar(&opts.debug, "debug", false, "Enable debug logging")

	cmd.AddCommand(
		newAskCmd(opts),
		newModelsCmd(opts),
		newStatusCmd(opts),
		newHistoryCmd(opts),
		newConfigCmd(opts),
	)
	return cmd
}

// skipsConfig reports whether cmd manages the config file itself and must
// work even when the current file is invalid.
func skipsConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations["skipConfig"] == "true" {
			return true
		}
	}
	return false
}

// Execute runs the root command with interrupt handling and returns the
// process exit code.
func Execute() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cmd := NewRootCmd()
	if err := cmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(cmd.ErrOrStderr(), ErrorStyle.Render("Error: "+err.Error()))
		return 1
	}
	return 0
}

// runChat picks the interface: the full-screen UI when both ends are
// terminals, the plain prompt otherwise.
func runChat(cmd *cobra.Command, opts *rootOptions) error {
	interactive := isTerminalReader(cmd.InOrStdin()) && isTerminalWriter(cmd.OutOrStdout())
	if interactive && !opts.plain {
		return runTUI(cmd.Context(), opts)
	}
	return runPlain(cmd.Context(), cmd.InOrStdin(), cmd.OutOrStdout(), cmd.ErrOrStderr(), opts.cfg, interactive)
}
