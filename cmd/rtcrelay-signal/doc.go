// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Rtcrelay-signal is the websocket signaling server for rtcrelay
// peers. Peers connect to the configured path with a ?room= query
// parameter; each room holds two peers, and every offer, answer, and
// ICE candidate one peer sends is relayed to the other.
//
// Configuration comes from --config, else RTCRELAY_CONFIG, else the
// built-in defaults. --listen overrides the configured address.
//
// The server exits cleanly on SIGINT or SIGTERM: the HTTP listener
// is shut down and every connected peer is disconnected.
package main
