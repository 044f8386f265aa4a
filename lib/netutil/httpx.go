// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package netutil classifies connection errors and reads HTTP error
// bodies for the signaling client and server.
//
// Connection error helpers (IsExpectedCloseError) separate a peer hanging
// up from a real failure, for both raw sockets and websocket close frames.
package netutil

import (
	"io"
	"strings"
)

// MaxErrorBodySize bounds ErrorBody reads. Error bodies are one-line
// diagnostics; anything longer is truncated.
const MaxErrorBodySize int64 = 4 << 10

// ErrorBody reads an HTTP error response body and returns it, trimmed, for
// diagnostic error messages. Read errors are ignored: a partial or empty body
// is still useful in an error message. A nil body returns "".
func ErrorBody(body io.Reader) string {
	if body == nil {
		return ""
	}
	data, _ := io.ReadAll(io.LimitReader(body, MaxErrorBodySize))
	return strings.TrimSpace(string(data))
}
