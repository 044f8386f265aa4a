// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package signaling

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// Compile-time interface check.
var _ Signaler = (*MemorySignaler)(nil)

const memoryInboxSize = 64

// MemorySignaler is an in-process Signaler for tests. The two ends
// returned by MemoryPair deliver to each other through buffered
// channels and announce themselves with the same hello and bye
// messages WebSocketServer generates.
type MemorySignaler struct {
	id    string
	peer  *MemorySignaler
	inbox chan Message

	done      chan struct{}
	closeOnce sync.Once
}

// MemoryPair returns two connected signalers. Each starts with hello
// messages naming itself and the other end already queued.
func MemoryPair() (*MemorySignaler, *MemorySignaler) {
	first := newMemorySignaler()
	second := newMemorySignaler()
	first.peer, second.peer = second, first

	for _, end := range []*MemorySignaler{first, second} {
		end.inbox <- Message{Type: TypeHello, To: end.id}
		end.inbox <- Message{Type: TypeHello, From: end.peer.id, To: end.id}
	}
	return first, second
}

func newMemorySignaler() *MemorySignaler {
	return &MemorySignaler{
		id:    uuid.NewString(),
		inbox: make(chan Message, memoryInboxSize),
		done:  make(chan struct{}),
	}
}

// ID returns the peer ID stamped into the From field of sent messages.
func (s *MemorySignaler) ID() string {
	return s.id
}

func (s *MemorySignaler) Send(ctx context.Context, message Message) error {
	if err := message.Validate(); err != nil {
		return err
	}
	message.From = s.id

	select {
	case <-s.done:
		return ErrClosed
	case <-s.peer.done:
		return fmt.Errorf("%w: peer closed", ErrClosed)
	default:
	}

	select {
	case s.peer.inbox <- message:
		return nil
	case <-s.done:
		return ErrClosed
	case <-s.peer.done:
		return fmt.Errorf("%w: peer closed", ErrClosed)
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Receive returns queued messages, including any the peer sent before
// closing, before reporting ErrClosed. After this end is closed it
// reports ErrClosed at once.
func (s *MemorySignaler) Receive(ctx context.Context) (Message, error) {
	select {
	case <-s.done:
		return Message{}, ErrClosed
	default:
	}

	select {
	case message := <-s.inbox:
		return message, nil
	default:
	}

	select {
	case message := <-s.inbox:
		return message, nil
	case <-s.done:
		return Message{}, ErrClosed
	case <-s.peer.done:
		select {
		case message := <-s.inbox:
			return message, nil
		default:
			return Message{}, fmt.Errorf("%w: peer closed", ErrClosed)
		}
	case <-ctx.Done():
		return Message{}, ctx.Err()
	}
}

// Close closes this end and queues bye for the peer. Close is
// idempotent.
func (s *MemorySignaler) Close() error {
	s.closeOnce.Do(func() {
		select {
		case s.peer.inbox <- Message{Type: TypeBye, From: s.id}:
		default:
		}
		close(s.done)
	})
	return nil
}
