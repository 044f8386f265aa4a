// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package signaling

import "context"

// Signaler exchanges Messages with one remote peer. The production
// implementation is a websocket client of WebSocketServer; tests use
// MemoryPair.
//
// Send and Receive may be called from different goroutines. Neither may
// be called concurrently with itself.
type Signaler interface {
	// Send delivers message to the remote peer. It blocks until the
	// message is handed to the transport or ctx is done.
	Send(ctx context.Context, message Message) error

	// Receive blocks until a message arrives, ctx is done, or the
	// signaling path closes, in which case the error wraps ErrClosed.
	Receive(ctx context.Context) (Message, error)

	// Close releases the transport. Pending Receive calls return
	// ErrClosed.
	Close() error
}
