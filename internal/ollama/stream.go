// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package ollama

import (
	"bufio"
	"bytes"
	"encoding/json"
	"io"
	"time"
)

// =============================================================================
// STREAM READER
// =============================================================================

// StreamReader decodes a newline-delimited JSON body one line at a time.
// Unlike a lenient reader it never skips a malformed line: the first one
// ends the stream with a DecodeError.
type StreamReader struct {
	reader *bufio.Reader
	line   int
	done   bool
	err    error
}

// NewStreamReader creates a new stream reader from an io.Reader.
func NewStreamReader(r io.Reader) *StreamReader {
	return &StreamReader{reader: bufio.NewReader(r)}
}

// Next returns the next chunk. It returns io.EOF after the chunk reporting
// done=true has been returned. A body that ends before that yields a
// TransportError wrapping ErrStreamTruncated, and a line carrying an
// "error" field yields a TransportError with the server's message. Once
// Next returns an error, every later call returns the same error.
func (s *StreamReader) Next() (StreamChunk, error) {
	if s.err != nil {
		return StreamChunk{}, s.err
	}
	if s.done {
		return StreamChunk{}, io.EOF
	}

	for {
		raw, readErr := s.reader.ReadBytes('\n')
		if readErr != nil && readErr != io.EOF {
			s.err = &TransportError{Message: "failed reading response body", Cause: readErr}
			return StreamChunk{}, s.err
		}

		if len(raw) > 0 {
			s.line++
		}

		// Blank lines carry no chunk.
		trimmed := bytes.TrimSpace(raw)
		if len(trimmed) == 0 {
			if readErr == io.EOF {
				s.err = &TransportError{Message: "incomplete response", Cause: ErrStreamTruncated}
				return StreamChunk{}, s.err
			}
			continue
		}

		var line chatLine
		if err := json.Unmarshal(trimmed, &line); err != nil {
			s.err = &DecodeError{Line: s.line, Cause: err}
			return StreamChunk{}, s.err
		}
		if line.Error != "" {
			s.err = &TransportError{Message: line.Error}
			return StreamChunk{}, s.err
		}

		chunk := StreamChunk{
			Content: line.Message.Content,
			Done:    line.Done,
		}
		if line.Done {
			chunk.Model = line.Model
			chunk.DoneReason = line.DoneReason
			chunk.TotalDuration = time.Duration(line.TotalDuration)
			chunk.EvalDuration = time.Duration(line.EvalDuration)
			chunk.PromptTokens = line.PromptEvalCount
			chunk.CompletionTokens = line.EvalCount
			s.done = true
		}
		return chunk, nil
	}
}

// Lines returns the number of lines consumed so far.
func (s *StreamReader) Lines() int {
	return s.line
}
