// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package ollama

import (
	"errors"
	"fmt"
	"net/http"
)

// =============================================================================
// ERROR TYPES
// =============================================================================

// TransportError reports a failed exchange with the inference server: the
// connection could not be made, the server answered with a non-200 status,
// the server reported an error inside the stream, or the body ended
// before the final chunk.
type TransportError struct {
	// StatusCode is the HTTP status, or 0 when no response was received.
	StatusCode int
	Message    string
	Cause      error
}

func (e *TransportError) Error() string {
	msg := e.Message
	if e.StatusCode != 0 {
		msg = fmt.Sprintf("%s (status %d %s)", msg, e.StatusCode, http.StatusText(e.StatusCode))
	}
	if e.Cause != nil {
		return msg + ": " + e.Cause.Error()
	}
	return msg
}

func (e *TransportError) Unwrap() error {
	return e.Cause
}

// DecodeError reports a line of the streamed body that is not valid JSON.
type DecodeError struct {
	// Line is the 1-based line number within the response body.
	Line  int
	Cause error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("failed to parse JSON response on line %d: %v", e.Line, e.Cause)
}

func (e *DecodeError) Unwrap() error {
	return e.Cause
}

// ErrStreamTruncated is the cause attached when the body ends without a
// chunk reporting done=true.
var ErrStreamTruncated = errors.New("stream ended before completion")

// =============================================================================
// HELPERS
// =============================================================================

// IsTransport reports whether err is (or wraps) a TransportError.
func IsTransport(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}

// IsDecode reports whether err is (or wraps) a DecodeError.
func IsDecode(err error) bool {
	var de *DecodeError
	return errors.As(err, &de)
}

// StatusCode extracts the HTTP status from a TransportError, or 0.
func StatusCode(err error) int {
	var te *TransportError
	if errors.As(err, &te) {
		return te.StatusCode
	}
	return 0
}
