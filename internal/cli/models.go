// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"fmt"
	"sort"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/jeranaias/llmchat/internal/ollama"
)

const modelsShortDesc string = "List models installed on the server"

func newModelsCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:     "models",
		Aliases: []string{"list"},
		Short:   modelsShortDesc,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runModels(cmd.Context(), cmd, opts)
		},
	}
}

func runModels(ctx context.Context, cmd *cobra.Command, opts *rootOptions) error {
	client := ollama.NewClient(opts.cfg.Endpoint)
	models, err := client.ListModels(ctx)
	if err != nil {
		return fmt.Errorf("could not list models: %w", err)
	}

	out := cmd.OutOrStdout()
	if len(models) == 0 {
		fmt.Fprintln(out, "No models installed. Pull one with: ollama pull "+opts.cfg.Model)
		return nil
	}

	sort.Slice(models, func(i, j int) bool { return models[i].Name < models[j].Name })

	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tPARAMS\tQUANT\tSIZE\tMODIFIED\t")
	for _, m := range models {
		marker := ""
		if m.Name == opts.cfg.Model {
			marker = "*"
		}
		fmt.Fprintf(tw, "%s%s\t%s\t%s\t%s\t%s\t\n",
			m.Name, marker,
			dash(m.Details.ParameterSize),
			dash(m.Details.QuantizationLevel),
			humanize.Bytes(uint64(m.Size)),
			humanize.Time(m.ModifiedAt),
		)
	}
	return tw.Flush()
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
