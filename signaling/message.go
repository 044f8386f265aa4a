// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package signaling

import (
	"errors"
	"fmt"
)

// MessageType identifies the payload of a Message.
type MessageType string

const (
	TypeOffer     MessageType = "offer"
	TypeAnswer    MessageType = "answer"
	TypeCandidate MessageType = "candidate"

	// TypeHello and TypeBye are generated by the relay, never by
	// clients.
	TypeHello MessageType = "hello"
	TypeBye   MessageType = "bye"
)

var (
	// ErrClosed is returned by Send and Receive once either end of the
	// signaling path has closed.
	ErrClosed = errors.New("signaler closed")

	// ErrRoomFull is returned by DialWebSocket when the room already
	// has two members.
	ErrRoomFull = errors.New("signaling room full")

	// ErrInvalidMessage is returned for messages with an unknown type
	// or a missing required field.
	ErrInvalidMessage = errors.New("invalid signaling message")
)

// Message is one signaling exchange, encoded as a JSON object on the
// wire.
type Message struct {
	Type MessageType `json:"type"`

	// SDP is set for offer and answer.
	SDP string `json:"sdp,omitempty"`

	// Mid, Index and Candidate are set for candidate. An empty
	// Candidate marks the end of candidates.
	Mid       string `json:"mid,omitempty"`
	Index     int    `json:"index,omitempty"`
	Candidate string `json:"candidate,omitempty"`

	// From is stamped by the relay with the sender's peer ID. To
	// optionally restricts delivery to one peer.
	From string `json:"from,omitempty"`
	To   string `json:"to,omitempty"`
}

// DescriptionMessage builds an offer or answer message from the
// arguments of a session_description_created signal.
func DescriptionMessage(sdpType, sdp string) (Message, error) {
	message := Message{Type: MessageType(sdpType), SDP: sdp}
	if message.Type != TypeOffer && message.Type != TypeAnswer {
		return Message{}, fmt.Errorf("%w: session description type %q", ErrInvalidMessage, sdpType)
	}
	return message, message.Validate()
}

// CandidateMessage builds a candidate message from the arguments of an
// ice_candidate_created signal.
func CandidateMessage(mid string, index int, candidate string) Message {
	return Message{Type: TypeCandidate, Mid: mid, Index: index, Candidate: candidate}
}

// Validate checks that the type is known and that offers and answers
// carry an SDP body.
func (m Message) Validate() error {
	switch m.Type {
	case TypeOffer, TypeAnswer:
		if m.SDP == "" {
			return fmt.Errorf("%w: %s without sdp", ErrInvalidMessage, m.Type)
		}
	case TypeCandidate, TypeHello, TypeBye:
	default:
		return fmt.Errorf("%w: unknown type %q", ErrInvalidMessage, m.Type)
	}
	if m.Index < 0 {
		return fmt.Errorf("%w: negative m-line index %d", ErrInvalidMessage, m.Index)
	}
	return nil
}
