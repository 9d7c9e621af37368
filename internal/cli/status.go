// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jeranaias/llmchat/internal/ollama"
)

func newStatusCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Check that the server is reachable",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			client := ollama.NewClient(opts.cfg.Endpoint)

			if err := client.CheckRunning(cmd.Context()); err != nil {
				fmt.Fprintf(out, "%s %s\n", StatusIndicator(false), client.BaseURL())
				return fmt.Errorf("server not reachable: %w", err)
			}
			fmt.Fprintf(out, "%s %s\n", StatusIndicator(true), client.BaseURL())
			fmt.Fprintf(out, "model: %s\n", opts.cfg.Model)
			return nil
		},
	}
}
