// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"encoding/json"
	"time"
)

// =============================================================================
// JSON EXPORTER
// =============================================================================

// JSONExporter exports transcripts to JSON. Every entry is included
// regardless of options.
type JSONExporter struct {
	options *Options
}

// NewJSONExporter creates a new JSON exporter.
func NewJSONExporter(opts *Options) *JSONExporter {
	if opts == nil {
		opts = DefaultOptions()
	}
	return &JSONExporter{options: opts}
}

type jsonTranscript struct {
	Session   string      `json:"session"`
	Model     string      `json:"model,omitempty"`
	StartedAt time.Time   `json:"started_at"`
	UpdatedAt time.Time   `json:"updated_at"`
	Entries   []jsonEntry `json:"entries"`
}

type jsonEntry struct {
	ID        string    `json:"id"`
	TurnID    string    `json:"turn_id,omitempty"`
	Role      string    `json:"role"`
	Label     string    `json:"label"`
	Content   string    `json:"content"`
	IsError   bool      `json:"is_error,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Export converts a transcript to indented JSON.
func (e *JSONExporter) Export(t *Transcript) ([]byte, error) {
	if err := t.validate(); err != nil {
		return nil, err
	}

	out := jsonTranscript{
		Session:   t.SessionID,
		Model:     t.Model(),
		StartedAt: t.StartedAt(),
		UpdatedAt: t.UpdatedAt(),
		Entries:   make([]jsonEntry, len(t.Records)),
	}
	for i, r := range t.Records {
		out.Entries[i] = jsonEntry{
			ID:        r.ID,
			TurnID:    r.TurnID,
			Role:      r.Role,
			Label:     r.Label,
			Content:   r.Content,
			IsError:   r.IsError,
			CreatedAt: r.CreatedAt,
		}
	}
	return json.MarshalIndent(out, "", "  ")
}

// FileExtension returns the file extension for JSON.
func (e *JSONExporter) FileExtension() string {
	return ".json"
}

// MimeType returns the MIME type for JSON.
func (e *JSONExporter) MimeType() string {
	return "application/json"
}
