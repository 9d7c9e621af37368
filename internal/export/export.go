// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jeranaias/llmchat/internal/storage"
	"github.com/jeranaias/llmchat/internal/util"
)

// ErrEmpty is returned when a transcript has no entries.
var ErrEmpty = errors.New("transcript has no entries")

// TitleWidth is the display width of a transcript title.
const TitleWidth = 60

// =============================================================================
// EXPORT INTERFACE
// =============================================================================

// Exporter renders a transcript in one output format.
type Exporter interface {
	// Export renders the transcript and returns the content.
	Export(t *Transcript) ([]byte, error)

	// FileExtension returns the file extension, e.g. ".md".
	FileExtension() string

	// MimeType returns the MIME type of the output.
	MimeType() string
}

// =============================================================================
// TRANSCRIPT
// =============================================================================

// Transcript is one recorded session, oldest entry first.
type Transcript struct {
	SessionID string
	Records   []storage.Record
}

// Title is the first user message, collapsed to one line.
func (t *Transcript) Title() string {
	for _, r := range t.Records {
		if r.Role == "user" {
			if s := strings.Join(strings.Fields(r.Content), " "); s != "" {
				return util.TruncateWidth(s, TitleWidth)
			}
		}
	}
	return "Chat session"
}

// Model is the label of the last reply, which is the model that produced it.
func (t *Transcript) Model() string {
	for i := len(t.Records) - 1; i >= 0; i-- {
		if t.Records[i].Role != "user" {
			return t.Records[i].Label
		}
	}
	return ""
}

// StartedAt is the time of the first entry.
func (t *Transcript) StartedAt() time.Time {
	if len(t.Records) == 0 {
		return time.Time{}
	}
	return t.Records[0].CreatedAt
}

// UpdatedAt is the time of the last entry.
func (t *Transcript) UpdatedAt() time.Time {
	if len(t.Records) == 0 {
		return time.Time{}
	}
	return t.Records[len(t.Records)-1].CreatedAt
}

func (t *Transcript) validate() error {
	if t == nil {
		return errors.New("transcript is nil")
	}
	if len(t.Records) == 0 {
		return ErrEmpty
	}
	return nil
}

// =============================================================================
// EXPORT OPTIONS
// =============================================================================

// Options configures export behavior.
type Options struct {
	// IncludeMetadata adds a header with the session, model and dates.
	IncludeMetadata bool

	// IncludeTimestamps adds a time to every entry.
	IncludeTimestamps bool

	// Theme for HTML export ("light" or "dark").
	Theme string
}

// DefaultOptions returns default export options.
func DefaultOptions() *Options {
	return &Options{
		IncludeMetadata:   true,
		IncludeTimestamps: true,
		Theme:             "dark",
	}
}

// =============================================================================
// EXPORT FUNCTIONS
// =============================================================================

// Formats lists the names accepted by ForFormat.
var Formats = []string{"md", "json", "html"}

// ForFormat returns the exporter for a format name.
func ForFormat(format string, opts *Options) (Exporter, error) {
	switch strings.ToLower(format) {
	case "md", "markdown":
		return NewMarkdownExporter(opts), nil
	case "json":
		return NewJSONExporter(opts), nil
	case "html":
		return NewHTMLExporter(opts), nil
	default:
		return nil, fmt.Errorf("unknown export format %q, must be one of: %s", format, strings.Join(Formats, ", "))
	}
}

// ExportToFile renders t with exporter and writes it to path atomically.
func ExportToFile(t *Transcript, exporter Exporter, path string) error {
	content, err := exporter.Export(t)
	if err != nil {
		return fmt.Errorf("export failed: %w", err)
	}
	if err := util.AtomicWriteFile(path, content, 0644, 0755); err != nil {
		return fmt.Errorf("write file: %w", err)
	}
	return nil
}

// DefaultFilename builds "chat_<session>_<timestamp><ext>".
func DefaultFilename(t *Transcript, exporter Exporter) string {
	id := t.SessionID
	if len(id) > 8 {
		id = id[:8]
	}
	if id == "" {
		id = "session"
	}
	return fmt.Sprintf("chat_%s_%s%s", sanitizeFilename(id), t.UpdatedAt().Format("20060102_150405"), exporter.FileExtension())
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// sanitizeFilename replaces characters that are invalid in filenames.
func sanitizeFilename(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch {
		case strings.ContainsRune(`/\:*?"<>|`, r):
			b.WriteRune('-')
		case r == ' ' || r == '\t' || r == '\n' || r == '\r':
			b.WriteRune('_')
		case r < 32 || r == 127:
			b.WriteRune('-')
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

// roleLabel returns the heading for an entry.
func roleLabel(r storage.Record) string {
	switch {
	case r.Role == "user":
		return "You"
	case r.IsError:
		return "Error"
	case r.Label != "":
		return r.Label
	default:
		return "Assistant"
	}
}
