// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Rtcrelay-peer is a line-oriented chat client built on the rtc
// package. It joins a room on an rtcrelay-signal server, negotiates a
// WebRTC connection with the other member of the room, and exchanges
// chat messages over a data channel.
//
// The peer runs a fixed-rate tick loop (peer.tick_interval, 16ms by
// default) that owns the connection: every pion callback is queued and
// handled on the next tick. Lines read from stdin are sent as CBOR chat
// messages; received messages are printed to stdout.
//
// Exactly one member of a room runs with --offer. It creates the data
// channel and sends the offer once the other member has joined; the
// other member answers. When the remote member leaves, the connection
// is reset and the next member to join is connected.
package main
