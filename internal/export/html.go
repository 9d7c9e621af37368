// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"bytes"
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	gmhtml "github.com/yuin/goldmark/renderer/html"

	"github.com/jeranaias/llmchat/internal/storage"
)

// =============================================================================
// HTML EXPORTER
// =============================================================================

// HTMLExporter exports transcripts to a standalone HTML page with
// embedded CSS. Entry bodies are rendered as markdown; raw HTML inside
// them is dropped.
type HTMLExporter struct {
	options *Options
	md      goldmark.Markdown
}

// NewHTMLExporter creates a new HTML exporter.
func NewHTMLExporter(opts *Options) *HTMLExporter {
	if opts == nil {
		opts = DefaultOptions()
	}
	return &HTMLExporter{
		options: opts,
		md: goldmark.New(
			goldmark.WithExtensions(extension.GFM),
			goldmark.WithRendererOptions(gmhtml.WithHardWraps()),
		),
	}
}

// Export converts a transcript to HTML.
func (e *HTMLExporter) Export(t *Transcript) ([]byte, error) {
	if err := t.validate(); err != nil {
		return nil, err
	}

	theme := e.options.Theme
	if theme != "light" {
		theme = "dark"
	}

	var sb strings.Builder
	sb.WriteString("<!DOCTYPE html>\n<html lang=\"en\">\n<head>\n")
	sb.WriteString("    <meta charset=\"UTF-8\">\n")
	sb.WriteString("    <meta name=\"viewport\" content=\"width=device-width, initial-scale=1.0\">\n")
	sb.WriteString(fmt.Sprintf("    <title>%s</title>\n", html.EscapeString(t.Title())))
	sb.WriteString("    <meta name=\"generator\" content=\"llmchat\">\n")
	sb.WriteString(css)
	sb.WriteString("</head>\n")
	sb.WriteString(fmt.Sprintf("<body class=\"%s-theme\">\n<div class=\"container\">\n", theme))

	if e.options.IncludeMetadata {
		sb.WriteString(e.renderHeader(t))
	}

	sb.WriteString("<main class=\"conversation\">\n")
	for _, r := range t.Records {
		msg, err := e.renderRecord(r)
		if err != nil {
			return nil, err
		}
		sb.WriteString(msg)
	}
	sb.WriteString("</main>\n</div>\n</body>\n</html>\n")

	return []byte(sb.String()), nil
}

// FileExtension returns the file extension for HTML.
func (e *HTMLExporter) FileExtension() string {
	return ".html"
}

// MimeType returns the MIME type for HTML.
func (e *HTMLExporter) MimeType() string {
	return "text/html"
}

// =============================================================================
// RENDERING FUNCTIONS
// =============================================================================

func (e *HTMLExporter) renderHeader(t *Transcript) string {
	var sb strings.Builder
	sb.WriteString("<header class=\"header\">\n")
	sb.WriteString(fmt.Sprintf("  <h1>%s</h1>\n", html.EscapeString(t.Title())))
	sb.WriteString("  <div class=\"metadata\">\n")
	if m := t.Model(); m != "" {
		sb.WriteString(fmt.Sprintf("    <span><strong>Model:</strong> %s</span>\n", html.EscapeString(m)))
	}
	sb.WriteString(fmt.Sprintf("    <span><strong>Started:</strong> %s</span>\n", t.StartedAt().Format(time.RFC1123)))
	sb.WriteString(fmt.Sprintf("    <span><strong>Entries:</strong> %d</span>\n", len(t.Records)))
	sb.WriteString("  </div>\n</header>\n")
	return sb.String()
}

func (e *HTMLExporter) renderRecord(r storage.Record) (string, error) {
	class := r.Role
	if r.IsError {
		class = "error"
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("<div class=\"message %s-message\">\n", html.EscapeString(class)))
	sb.WriteString("  <div class=\"message-header\">\n")
	sb.WriteString(fmt.Sprintf("    <span class=\"role-label\">%s</span>\n", html.EscapeString(roleLabel(r))))
	if e.options.IncludeTimestamps {
		sb.WriteString(fmt.Sprintf("    <span class=\"timestamp\">%s</span>\n", r.CreatedAt.Format("15:04:05")))
	}
	sb.WriteString("  </div>\n")
	sb.WriteString("  <div class=\"message-content\">\n")

	if r.Role == "user" || r.IsError {
		sb.WriteString(fmt.Sprintf("<pre class=\"plain\">%s</pre>\n", html.EscapeString(r.Content)))
	} else {
		var buf bytes.Buffer
		if err := e.md.Convert([]byte(r.Content), &buf); err != nil {
			return "", fmt.Errorf("render entry %s: %w", r.ID, err)
		}
		sb.Write(buf.Bytes())
	}

	sb.WriteString("  </div>\n</div>\n")
	return sb.String(), nil
}

// =============================================================================
// EMBEDDED CSS
// =============================================================================

const css = `    <style>
        * { margin: 0; padding: 0; box-sizing: border-box; }
        .dark-theme {
            --bg: #1a1b26; --bg-alt: #24283b; --text: #c0caf5; --muted: #565f89;
            --border: #414868; --user: #7aa2f7; --assistant: #bb9af7; --error: #f7768e;
        }
        .light-theme {
            --bg: #f5f5f5; --bg-alt: #ffffff; --text: #24292f; --muted: #6e7781;
            --border: #d0d7de; --user: #0969da; --assistant: #8250df; --error: #cf222e;
        }
        body { background: var(--bg); color: var(--text); line-height: 1.6;
               font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", Roboto, sans-serif; }
        .container { max-width: 900px; margin: 0 auto; padding: 2rem 1rem; }
        .header { border-bottom: 1px solid var(--border); margin-bottom: 1.5rem; padding-bottom: 1rem; }
        .metadata { color: var(--muted); display: flex; gap: 1.5rem; flex-wrap: wrap; font-size: 0.9rem; }
        .message { background: var(--bg-alt); border: 1px solid var(--border); border-radius: 8px;
                   margin-bottom: 1rem; padding: 1rem; }
        .message-header { display: flex; justify-content: space-between; margin-bottom: 0.5rem; }
        .user-message .role-label { color: var(--user); font-weight: bold; }
        .assistant-message .role-label { color: var(--assistant); font-weight: bold; }
        .error-message { border-color: var(--error); }
        .error-message .role-label, .error-message pre { color: var(--error); font-weight: bold; }
        .timestamp { color: var(--muted); font-size: 0.85rem; }
        .message-content p { margin-bottom: 0.5rem; }
        pre { white-space: pre-wrap; font-family: "SF Mono", "Fira Code", monospace; }
        .message-content pre:not(.plain) { background: var(--bg); padding: 0.75rem; border-radius: 6px; overflow-x: auto; }
        code { font-family: "SF Mono", "Fira Code", monospace; }
    </style>
`
