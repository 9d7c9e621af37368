// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/jeranaias/llmchat/internal/export"
	"github.com/jeranaias/llmchat/internal/storage"
	"github.com/jeranaias/llmchat/internal/util"
)

const historyLongDesc string = `Print recorded transcript entries, oldest first.

History is recorded only when [history] enabled = true in the config.

Examples:
  llmchat history
  llmchat history --limit 100
  llmchat history --sessions
  llmchat history --prune 1000
  llmchat history --export md --output chat.md
  llmchat history --export html --session 1a2b3c4d`

type historyCommander struct {
	opts     *rootOptions
	limit    int
	sessions bool
	prune    int
	format   string
	session  string
	output   string
}

func newHistoryCmd(opts *rootOptions) *cobra.Command {
	cmder := &historyCommander{opts: opts}

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recorded chat history",
		Long:  historyLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmder.run(cmd.Context(), cmd)
		},
	}

	cmd.Flags().IntVarP(&cmder.limit, "limit", "n", 20, "Number of entries (or sessions) to show, 0 for all")
	cmd.Flags().BoolVar(&cmder.sessions, "sessions", false, "List sessions instead of entries")
	cmd.Flags().IntVar(&cmder.prune, "prune", -1, "Keep only the newest N entries")
	cmd.Flags().StringVar(&cmder.format, "export", "", "Export a session as "+strings.Join(export.Formats, ", "))
	cmd.Flags().StringVar(&cmder.session, "session", "", "Session ID or prefix to export (default: latest)")
	cmd.Flags().StringVarP(&cmder.output, "output", "o", "", "Export destination file (default: stdout)")
	return cmd
}

func (c *historyCommander) run(ctx context.Context, cmd *cobra.Command) error {
	out := cmd.OutOrStdout()

	path, err := c.opts.cfg.HistoryPath()
	if err != nil {
		return err
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		fmt.Fprintln(out, "No history recorded.")
		return nil
	}

	store, err := storage.Open(path)
	if err != nil {
		return fmt.Errorf("could not open history %s: %w", path, err)
	}
	defer store.Close()

	switch {
	case c.prune >= 0:
		removed, err := store.Prune(ctx, c.prune)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "Removed %d entries.\n", removed)
		return nil
	case c.format != "":
		return c.exportSession(ctx, cmd, store)
	case c.sessions:
		return c.printSessions(ctx, cmd, store)
	default:
		return c.printEntries(ctx, cmd, store)
	}
}

func (c *historyCommander) printEntries(ctx context.Context, cmd *cobra.Command, store *storage.HistoryStore) error {
	records, err := store.Recent(ctx, c.limit)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if len(records) == 0 {
		fmt.Fprintln(out, "No history recorded.")
		return nil
	}

	width := GetTerminalWidth() - 30
	for _, r := range records {
		label := AssistantStyle.Render(r.Label + ":")
		text := util.TruncateWidth(util.FirstLine(r.Content), width)
		switch {
		case r.Role == "user":
			label = UserStyle.Render(r.Label + ":")
		case r.IsError:
			text = ErrorStyle.Render(text)
		}
		fmt.Fprintf(out, "%s %s %s\n", DimStyle.Render(r.CreatedAt.Format("2006-01-02 15:04")), label, text)
	}
	return nil
}

func (c *historyCommander) printSessions(ctx context.Context, cmd *cobra.Command, store *storage.HistoryStore) error {
	sessions, err := store.Sessions(ctx, c.limit)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if len(sessions) == 0 {
		fmt.Fprintln(out, "No history recorded.")
		return nil
	}

	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "SESSION\tENTRIES\tLAST\tFIRST MESSAGE\t")
	for _, s := range sessions {
		fmt.Fprintf(tw, "%s\t%d\t%s\t%s\t\n", s.ID[:8], s.EntryCount, humanize.Time(s.UpdatedAt), s.Preview)
	}
	return tw.Flush()
}

func (c *historyCommander) exportSession(ctx context.Context, cmd *cobra.Command, store *storage.HistoryStore) error {
	exp, err := export.ForFormat(c.format, nil)
	if err != nil {
		return err
	}

	id, records, err := store.SessionRecords(ctx, c.session)
	if err != nil {
		return err
	}
	transcript := &export.Transcript{SessionID: id, Records: records}

	if c.output == "" {
		content, err := exp.Export(transcript)
		if err != nil {
			return err
		}
		_, err = cmd.OutOrStdout().Write(content)
		return err
	}

	if err := export.ExportToFile(transcript, exp, c.output); err != nil {
		return err
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "Exported %d entries to %s\n", len(records), c.output)
	return nil
}
