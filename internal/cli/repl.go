// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/peterh/liner"

	"github.com/jeranaias/llmchat/internal/config"
	"github.com/jeranaias/llmchat/internal/model"
	"github.com/jeranaias/llmchat/internal/surface"
	"github.com/jeranaias/llmchat/internal/worker"
)

// =============================================================================
// LINE INPUT
// =============================================================================

// lineReader reads one line of user input per call. io.EOF ends the
// session.
type lineReader interface {
	ReadLine(prompt string) (string, error)
	Close()
}

// linerReader provides history and line editing on a terminal.
type linerReader struct {
	line        *liner.State
	historyFile string
}

func newLinerReader() *linerReader {
	line := liner.NewLiner()
	line.SetCtrlCAborts(true)

	r := &linerReader{line: line}
	if dir, err := config.ConfigDir(); err == nil {
		r.historyFile = filepath.Join(dir, "input_history")
		if f, err := os.Open(r.historyFile); err == nil {
			_, _ = line.ReadHistory(f)
			f.Close()
		}
	}
	return r
}

func (r *linerReader) ReadLine(prompt string) (string, error) {
	input, err := r.line.Prompt(prompt)
	if err != nil {
		if errors.Is(err, liner.ErrPromptAborted) {
			return "", io.EOF
		}
		return "", err
	}
	if strings.TrimSpace(input) != "" {
		r.line.AppendHistory(input)
	}
	return input, nil
}

// Close saves history with owner-only permissions and restores the
// terminal.
func (r *linerReader) Close() {
	if r.historyFile != "" {
		if err := os.MkdirAll(filepath.Dir(r.historyFile), 0700); err == nil {
			if f, err := os.OpenFile(r.historyFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600); err == nil {
				_, _ = r.line.WriteHistory(f)
				f.Close()
			}
		}
	}
	r.line.Close()
}

// scanReader reads piped input without prompts.
type scanReader struct {
	scanner *bufio.Scanner
}

func newScanReader(in io.Reader) *scanReader {
	s := bufio.NewScanner(in)
	s.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	return &scanReader{scanner: s}
}

func (r *scanReader) ReadLine(string) (string, error) {
	if r.scanner.Scan() {
		return r.scanner.Text(), nil
	}
	if err := r.scanner.Err(); err != nil {
		return "", err
	}
	return "", io.EOF
}

func (r *scanReader) Close() {}

// =============================================================================
// PLAIN REPL
// =============================================================================

// quitCommands end the plain session.
var quitCommands = map[string]bool{"/quit": true, "/exit": true}

// runPlain runs the line-mode chat. Each accepted line starts one turn; the
// reply is printed when the turn's terminal event arrives.
func runPlain(ctx context.Context, in io.Reader, out, errOut io.Writer, cfg *config.Config, interactive bool) error {
	a, err := newApp(ctx, cfg, false)
	if err != nil {
		return err
	}
	defer a.Close()

	var reader lineReader
	if interactive {
		reader = newLinerReader()
		fmt.Fprintln(out, TitleStyle.Render("llmchat")+DimStyle.Render(" · "+cfg.Model+" · /quit to exit"))
	} else {
		reader = newScanReader(in)
	}
	defer reader.Close()

	r := &repl{surface: a.surface, reader: reader, out: out, errOut: errOut, interactive: interactive}
	return r.loop(ctx)
}

type repl struct {
	surface     *surface.Surface
	reader      lineReader
	out         io.Writer
	errOut      io.Writer
	interactive bool
}

func (r *repl) loop(ctx context.Context) error {
	for {
		if ctx.Err() != nil {
			return nil
		}

		input, err := r.reader.ReadLine(UserStyle.Render(surface.UserLabel + "> "))
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return fmt.Errorf("failed to read input: %w", err)
		}

		if quitCommands[strings.TrimSpace(input)] {
			return nil
		}

		ch, ok := r.surface.Submit(input)
		if !ok {
			if r.interactive {
				fmt.Fprintln(r.errOut, DimStyle.Render("(same as the previous message, not sent)"))
			}
			continue
		}

		if r.interactive {
			fmt.Fprint(r.errOut, WarningStyle.Render("Generating..."))
		}

		var res worker.Result
		select {
		case res = <-ch:
		case <-ctx.Done():
			if r.interactive {
				fmt.Fprintln(r.errOut)
			}
			return nil
		}

		if r.interactive {
			// Clear the busy indicator.
			fmt.Fprint(r.errOut, "\r\033[K")
		}
		r.print(r.surface.Complete(res))
	}
}

func (r *repl) print(e model.Entry) {
	if e.Kind == model.EntryError {
		fmt.Fprintln(r.out, AssistantStyle.Render(e.Label+":")+" "+ErrorStyle.Render(e.Text))
		return
	}
	fmt.Fprintln(r.out, AssistantStyle.Render(e.Label+":")+" "+e.Text)
}
