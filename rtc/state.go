// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package rtc

import "github.com/pion/webrtc/v4"

// ConnectionState is the host-facing peer connection state.
type ConnectionState int

const (
	ConnectionStateNew ConnectionState = iota
	ConnectionStateConnecting
	ConnectionStateConnected
	ConnectionStateDisconnected
	ConnectionStateFailed
	ConnectionStateClosed
)

func (s ConnectionState) String() string {
	switch s {
	case ConnectionStateNew:
		return "new"
	case ConnectionStateConnecting:
		return "connecting"
	case ConnectionStateConnected:
		return "connected"
	case ConnectionStateDisconnected:
		return "disconnected"
	case ConnectionStateFailed:
		return "failed"
	case ConnectionStateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

func connectionStateFromPion(state webrtc.PeerConnectionState) ConnectionState {
	switch state {
	case webrtc.PeerConnectionStateNew:
		return ConnectionStateNew
	case webrtc.PeerConnectionStateConnecting:
		return ConnectionStateConnecting
	case webrtc.PeerConnectionStateConnected:
		return ConnectionStateConnected
	case webrtc.PeerConnectionStateDisconnected:
		return ConnectionStateDisconnected
	case webrtc.PeerConnectionStateFailed:
		return ConnectionStateFailed
	default:
		return ConnectionStateClosed
	}
}

// ChannelState is the host-facing data channel ready state.
type ChannelState int

const (
	ChannelStateConnecting ChannelState = iota
	ChannelStateOpen
	ChannelStateClosing
	ChannelStateClosed
)

func (s ChannelState) String() string {
	switch s {
	case ChannelStateConnecting:
		return "connecting"
	case ChannelStateOpen:
		return "open"
	case ChannelStateClosing:
		return "closing"
	case ChannelStateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

func channelStateFromPion(state webrtc.DataChannelState) ChannelState {
	switch state {
	case webrtc.DataChannelStateConnecting:
		return ChannelStateConnecting
	case webrtc.DataChannelStateOpen:
		return ChannelStateOpen
	case webrtc.DataChannelStateClosing:
		return ChannelStateClosing
	default:
		return ChannelStateClosed
	}
}

// WriteMode selects how PutPacket frames outgoing messages.
type WriteMode int

const (
	// WriteModeBinary sends packets as binary messages. This is the
	// default.
	WriteModeBinary WriteMode = iota

	// WriteModeText sends packets as UTF-8 text messages.
	WriteModeText
)

func (m WriteMode) String() string {
	if m == WriteModeText {
		return "text"
	}
	return "binary"
}
