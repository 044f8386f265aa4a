// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package codec

import "fmt"

// ChatMessage is the application packet exchanged by rtcrelay-peer
// over its chat data channel.
type ChatMessage struct {
	// From is the sender's nickname.
	From string `cbor:"from"`

	// Sequence increases by one per message from a sender, starting
	// at 1. Receivers use it to detect loss on unreliable channels.
	Sequence uint64 `cbor:"seq"`

	// SentUnixMilli is the sender's wall clock at send time.
	SentUnixMilli int64 `cbor:"sent"`

	Text string `cbor:"text"`
}

// DecodeChat decodes one chat packet. A packet without a sequence
// number is rejected.
func DecodeChat(data []byte) (ChatMessage, error) {
	var message ChatMessage
	if err := Unmarshal(data, &message); err != nil {
		return ChatMessage{}, fmt.Errorf("decoding chat packet: %w", err)
	}
	if message.Sequence == 0 {
		return ChatMessage{}, fmt.Errorf("decoding chat packet: missing sequence")
	}
	return message, nil
}
