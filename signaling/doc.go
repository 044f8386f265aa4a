// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package signaling carries session descriptions and ICE candidates
// between two peers before their WebRTC connection exists.
//
// A host turns the session_description_created and
// ice_candidate_created signals raised by an rtc.PeerConnection into
// [Message] values and sends them through a [Signaler]; messages
// received from the other side are applied with SetRemoteDescription
// and AddICECandidate.
//
// Two implementations exist. [MemoryPair] connects two in-process
// signalers for tests. [WebSocketServer] relays JSON messages between
// the members of a named room (at most two), and [DialWebSocket]
// connects a client to it.
//
// Room membership is announced with hello messages. A joining client
// first receives hello with To set to its own assigned ID, then one
// hello per member already present with From set to that member. The
// members already present receive hello with From set to the newcomer.
// When a member disconnects the others receive bye.
package signaling
