// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/spf13/cobra"
)

const askLongDesc string = `Send one message and print the reply.

The message is taken from the arguments, or from stdin when there are
none. The reply is rendered as markdown when stdout is a terminal and
markdown is enabled in the config.

Examples:
  llmchat ask "what is a monad?"
  git diff | llmchat ask -m qwen2.5-coder`

const askShortDesc string = "Ask a single question"

type askCommander struct {
	opts *rootOptions
	raw  bool
}

func newAskCmd(opts *rootOptions) *cobra.Command {
	cmder := &askCommander{opts: opts}

	cmd := &cobra.Command{
		Use:   "ask [message...]",
		Short: askShortDesc,
		Long:  askLongDesc,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmder.run(cmd.Context(), cmd, args)
		},
	}

	cmd.Flags().BoolVar(&cmder.raw, "raw", false, "Print the reply without markdown rendering")
	return cmd
}

func (c *askCommander) run(ctx context.Context, cmd *cobra.Command, args []string) error {
	message := strings.Join(args, " ")
	if message == "" {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return fmt.Errorf("failed to read message from stdin: %w", err)
		}
		message = strings.TrimSpace(string(data))
	}
	if message == "" {
		return errors.New("no message given")
	}

	a, err := newApp(ctx, c.opts.cfg, false)
	if err != nil {
		return err
	}
	defer a.Close()

	ch, _ := a.surface.Submit(message)
	var entryErr error
	select {
	case res := <-ch:
		a.surface.Complete(res)
		entryErr = res.Err
	case <-ctx.Done():
		return ctx.Err()
	}
	if entryErr != nil {
		return entryErr
	}

	reply, _ := a.surface.LastReply()
	out := cmd.OutOrStdout()
	if !c.raw && c.opts.cfg.UI.Markdown && isTerminalWriter(out) {
		reply = renderMarkdown(reply, c.opts.cfg.UI.WordWrap)
	}
	fmt.Fprintln(out, reply)
	return nil
}

// renderMarkdown renders text for the terminal, returning it unchanged if
// glamour fails.
func renderMarkdown(text string, wrap int) string {
	width := GetTerminalWidth()
	if wrap > 0 && wrap < width {
		width = wrap
	}
	renderer, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return text
	}
	out, err := renderer.Render(text)
	if err != nil {
		return text
	}
	return strings.TrimRight(out, "\n")
}
