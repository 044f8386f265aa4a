// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package signaling

import (
	"context"
	"errors"
	"testing"
	"time"
)

func receiveOrFail(t *testing.T, signaler Signaler) Message {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	message, err := signaler.Receive(ctx)
	if err != nil {
		t.Fatalf("Receive: %v", err)
	}
	return message
}

func TestMemoryPair_HelloAndRelay(t *testing.T) {
	alpha, beta := MemoryPair()
	defer alpha.Close()
	defer beta.Close()

	self := receiveOrFail(t, alpha)
	if self.Type != TypeHello || self.To != alpha.ID() || self.From != "" {
		t.Errorf("first hello = %+v, want hello addressed to self", self)
	}
	peer := receiveOrFail(t, alpha)
	if peer.Type != TypeHello || peer.From != beta.ID() {
		t.Errorf("second hello = %+v, want hello from beta", peer)
	}
	receiveOrFail(t, beta)
	receiveOrFail(t, beta)

	offer := Message{Type: TypeOffer, SDP: "v=0"}
	if err := alpha.Send(context.Background(), offer); err != nil {
		t.Fatalf("Send: %v", err)
	}
	got := receiveOrFail(t, beta)
	if got.Type != TypeOffer || got.SDP != "v=0" || got.From != alpha.ID() {
		t.Errorf("received %+v, want offer from alpha", got)
	}
}

func TestMemoryPair_RejectsInvalid(t *testing.T) {
	alpha, beta := MemoryPair()
	defer alpha.Close()
	defer beta.Close()

	if err := alpha.Send(context.Background(), Message{Type: "bogus"}); !errors.Is(err, ErrInvalidMessage) {
		t.Errorf("Send = %v, want ErrInvalidMessage", err)
	}
}

func TestMemoryPair_CloseDrainsThenFails(t *testing.T) {
	alpha, beta := MemoryPair()
	receiveOrFail(t, beta)
	receiveOrFail(t, beta)

	if err := alpha.Send(context.Background(), CandidateMessage("0", 0, "")); err != nil {
		t.Fatalf("Send: %v", err)
	}
	alpha.Close()
	alpha.Close()

	if got := receiveOrFail(t, beta); got.Type != TypeCandidate {
		t.Errorf("first after close = %+v, want the candidate sent before close", got)
	}
	if got := receiveOrFail(t, beta); got.Type != TypeBye || got.From != alpha.ID() {
		t.Errorf("second after close = %+v, want bye from alpha", got)
	}
	if _, err := beta.Receive(context.Background()); !errors.Is(err, ErrClosed) {
		t.Errorf("Receive after drain = %v, want ErrClosed", err)
	}
	if err := beta.Send(context.Background(), CandidateMessage("0", 0, "")); !errors.Is(err, ErrClosed) {
		t.Errorf("Send to closed peer = %v, want ErrClosed", err)
	}
	if _, err := alpha.Receive(context.Background()); !errors.Is(err, ErrClosed) {
		t.Errorf("Receive on closed end = %v, want ErrClosed", err)
	}
}

func TestMemoryPair_ReceiveHonorsContext(t *testing.T) {
	alpha, beta := MemoryPair()
	defer alpha.Close()
	defer beta.Close()
	receiveOrFail(t, alpha)
	receiveOrFail(t, alpha)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := alpha.Receive(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("Receive = %v, want context.Canceled", err)
	}
}
