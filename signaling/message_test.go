// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package signaling

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestMessage_Validate(t *testing.T) {
	tests := []struct {
		name    string
		message Message
		valid   bool
	}{
		{"offer", Message{Type: TypeOffer, SDP: "v=0"}, true},
		{"answer", Message{Type: TypeAnswer, SDP: "v=0"}, true},
		{"candidate", CandidateMessage("0", 0, "candidate:1 1 udp 1 192.0.2.1 5000 typ host"), true},
		{"end of candidates", CandidateMessage("0", 0, ""), true},
		{"offer without sdp", Message{Type: TypeOffer}, false},
		{"unknown type", Message{Type: "rollback"}, false},
		{"empty type", Message{}, false},
		{"negative index", CandidateMessage("0", -1, ""), false},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			err := test.message.Validate()
			if test.valid && err != nil {
				t.Errorf("Validate() = %v, want nil", err)
			}
			if !test.valid && !errors.Is(err, ErrInvalidMessage) {
				t.Errorf("Validate() = %v, want ErrInvalidMessage", err)
			}
		})
	}
}

func TestDescriptionMessage(t *testing.T) {
	message, err := DescriptionMessage("answer", "v=0")
	if err != nil {
		t.Fatalf("DescriptionMessage: %v", err)
	}
	if message.Type != TypeAnswer || message.SDP != "v=0" {
		t.Errorf("message = %+v, want answer with sdp", message)
	}
	if _, err := DescriptionMessage("pranswer", "v=0"); !errors.Is(err, ErrInvalidMessage) {
		t.Errorf("DescriptionMessage(pranswer) = %v, want ErrInvalidMessage", err)
	}
}

func TestMessage_WireFormat(t *testing.T) {
	data, err := json.Marshal(CandidateMessage("0", 1, "candidate:x"))
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	const want = `{"type":"candidate","mid":"0","index":1,"candidate":"candidate:x"}`
	if string(data) != want {
		t.Errorf("wire format = %s, want %s", data, want)
	}
}
