// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package rtc

import (
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/pion/webrtc/v4"

	"github.com/bureau-foundation/rtcrelay/relay"
)

// MaxPacketSize is the advisory payload size reported to the host. The
// engine fragments larger messages over SCTP, so it is not enforced.
const MaxPacketSize = 1200

// DataChannel is the host-facing wrapper of one pion data channel.
// Inbound messages are copied off pion's goroutine into a PacketRelay
// and read by the host with GetPacket.
//
// Every method must be called from the host goroutine.
type DataChannel struct {
	runtime *Runtime
	handle  Handle
	channel *webrtc.DataChannel
	logger  *slog.Logger

	packets   relay.PacketRelay
	writeMode WriteMode
	closed    atomic.Bool
}

// bindChannel wraps a pion data channel and registers it so message
// callbacks can find it.
func (r *Runtime) bindChannel(native *webrtc.DataChannel) *DataChannel {
	channel := &DataChannel{
		runtime: r,
		channel: native,
		logger:  r.logger.With("label", native.Label()),
	}
	channel.handle = r.channels.Register(channel)

	handle := channel.handle
	native.OnMessage(func(message webrtc.DataChannelMessage) {
		owner, ok := r.channels.Lookup(handle)
		if !ok {
			return
		}
		owner.packets.Push(message.Data, message.IsString)
	})
	native.OnOpen(func() {
		if owner, ok := r.channels.Lookup(handle); ok {
			owner.logger.Debug("data channel open")
		}
	})
	native.OnClose(func() {
		if owner, ok := r.channels.Lookup(handle); ok {
			owner.logger.Debug("data channel closed by engine")
		}
	})
	return channel
}

// Poll reports whether the channel is still bound. Inbound packets are
// queued as they arrive, so there is nothing else to pump.
func (c *DataChannel) Poll() error {
	if c.closed.Load() {
		return ErrUnconfigured
	}
	return nil
}

// GetPacket returns the next inbound packet. The returned slice is
// owned by the channel and valid only until the next GetPacket or
// Close; copy it to keep it. Returns ErrUnavailable when no packet is
// queued.
func (c *DataChannel) GetPacket() ([]byte, error) {
	if c.closed.Load() {
		return nil, ErrUnconfigured
	}
	return c.packets.Next()
}

// WasStringPacket reports whether the packet last returned by GetPacket
// was sent as text.
func (c *DataChannel) WasStringPacket() bool {
	return c.packets.WasString()
}

// AvailablePacketCount returns the number of queued inbound packets.
func (c *DataChannel) AvailablePacketCount() int {
	return c.packets.Available()
}

// MaxPacketSize returns the advisory maximum payload size.
func (c *DataChannel) MaxPacketSize() int {
	return MaxPacketSize
}

// PutPacket sends data as one message, framed according to the write
// mode.
func (c *DataChannel) PutPacket(data []byte) error {
	if c.closed.Load() {
		return ErrUnconfigured
	}
	var err error
	if c.writeMode == WriteModeText {
		err = c.channel.SendText(string(data))
	} else {
		err = c.channel.Send(data)
	}
	if err != nil {
		return fmt.Errorf("sending on data channel %q: %w", c.channel.Label(), err)
	}
	return nil
}

// SetWriteMode selects text or binary framing for PutPacket.
func (c *DataChannel) SetWriteMode(mode WriteMode) {
	c.writeMode = mode
}

// WriteMode returns the current write mode.
func (c *DataChannel) WriteMode() WriteMode {
	return c.writeMode
}

// ReadyState returns the native channel state, or ChannelStateClosed
// once the channel has been closed locally.
func (c *DataChannel) ReadyState() ChannelState {
	if c.closed.Load() {
		return ChannelStateClosed
	}
	return channelStateFromPion(c.channel.ReadyState())
}

func (c *DataChannel) Label() string    { return c.channel.Label() }
func (c *DataChannel) Ordered() bool    { return c.channel.Ordered() }
func (c *DataChannel) Protocol() string { return c.channel.Protocol() }
func (c *DataChannel) Negotiated() bool { return c.channel.Negotiated() }

// ID returns the SCTP stream identifier, or -1 before one is assigned.
func (c *DataChannel) ID() int {
	return optionalUint16(c.channel.ID())
}

// MaxPacketLifeTime returns the partial-reliability lifetime in
// milliseconds, or -1 when unset.
func (c *DataChannel) MaxPacketLifeTime() int {
	return optionalUint16(c.channel.MaxPacketLifeTime())
}

// MaxRetransmits returns the partial-reliability retransmit limit, or
// -1 when unset.
func (c *DataChannel) MaxRetransmits() int {
	return optionalUint16(c.channel.MaxRetransmits())
}

// BufferedAmount returns the number of bytes queued for sending.
func (c *DataChannel) BufferedAmount() int {
	return int(c.channel.BufferedAmount())
}

// Close closes the native channel and discards queued packets. Close is
// idempotent.
func (c *DataChannel) Close() {
	if c.closed.Load() {
		return
	}
	c.runtime.channels.Release(c.handle)
	c.closeNative()
}

// closeNative is shared with Runtime.Stop, which has already released
// the handle.
func (c *DataChannel) closeNative() {
	if c.closed.Swap(true) {
		return
	}
	c.packets.Close()
	if err := c.channel.Close(); err != nil {
		c.logger.Debug("closing data channel failed", "error", err)
	}
}

func optionalUint16(value *uint16) int {
	if value == nil {
		return -1
	}
	return int(*value)
}
