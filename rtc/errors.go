// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package rtc

import (
	"errors"

	"github.com/bureau-foundation/rtcrelay/relay"
)

// Status errors returned to the host. None of them are fatal: the host
// can inspect them with errors.Is and carry on with the next tick.
var (
	// ErrUnconfigured is returned when an operation needs a native
	// connection or channel and the object is not bound to one (never
	// initialized, or already closed).
	ErrUnconfigured = errors.New("not bound to an active connection")

	// ErrUnavailable is returned by DataChannel.GetPacket when no
	// packet is queued.
	ErrUnavailable = relay.ErrUnavailable

	// ErrInvalidParameter is returned for configuration, session
	// descriptions, or candidates that fail validation.
	ErrInvalidParameter = errors.New("invalid parameter")

	// ErrClosed is returned when the Runtime has been stopped.
	ErrClosed = errors.New("runtime stopped")
)
