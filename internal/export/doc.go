// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package export renders recorded chat sessions to files.
//
// # Supported Formats
//
//   - md: Markdown with YAML frontmatter
//   - json: Machine-readable, every field of every entry
//   - html: Standalone page with embedded CSS
//
// # Usage
//
//	id, recs, err := store.SessionRecords(ctx, prefix)
//	if err != nil {
//	    return err
//	}
//	exp, err := export.ForFormat("md", nil)
//	if err != nil {
//	    return err
//	}
//	err = export.ExportToFile(&export.Transcript{SessionID: id, Records: recs}, exp, "chat.md")
package export
