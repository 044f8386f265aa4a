// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package rtc binds a single-threaded host to the pion WebRTC engine.
//
// A [Runtime] owns the pion API and two handle registries. Each
// [PeerConnection] and [DataChannel] the host creates is registered
// under a fresh [Handle]; pion callbacks capture only the handle and
// resolve it before touching any state, so a callback that fires after
// Close or Runtime.Stop finds nothing and returns.
//
// pion raises events on its own goroutines. They are never delivered
// there. A PeerConnection queues them in a [relay.SignalRelay] and
// emits them to the host's [relay.Emitter] from within Poll:
//
//	session_description_created(type, sdp)
//	ice_candidate_created(mid, index, candidate)
//	data_channel_received(*DataChannel)
//	connection_state_changed(ConnectionState)
//
// Inbound data channel messages are copied into a [relay.PacketRelay]
// and read with GetPacket. The returned slice stays valid until the
// next GetPacket or Close on the same channel.
//
// Session descriptions and ICE candidates are parsed with pion/sdp and
// pion/ice before they reach the engine, so malformed input from the
// signaling path fails with [ErrInvalidParameter].
//
// pion's internal logging is routed to the host's slog.Logger through
// [LoggerFactory], with the pion subsystem in the "scope" attribute.
package rtc
