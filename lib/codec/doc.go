// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package codec provides the CBOR encoding used for application
// packets on data channels.
//
// rtcrelay uses two serialization formats with a clear boundary:
//
//   - JSON for signaling messages and configuration files, which
//     browsers and operators read.
//   - CBOR for packets between peers, where compact binary framing
//     matters and both ends are rtcrelay hosts.
//
// The encoder uses Core Deterministic Encoding (RFC 8949 §4.2): sorted
// map keys, smallest integer encoding, no indefinite-length items. The
// decoder bounds array, map, and nesting sizes because packets come
// from a remote peer.
//
//	data, err := codec.MarshalPacket(message, rtc.MaxPacketSize)
//	err = codec.Unmarshal(packet, &message)
//
// [ChatMessage] is the packet type of the rtcrelay-peer chat channel.
// Types that are only ever sent as packets use `cbor` struct tags.
package codec
