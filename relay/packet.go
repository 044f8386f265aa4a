// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package relay

import (
	"errors"
)

// ErrUnavailable is returned by PacketRelay.Next when no packet is
// queued. It is a normal condition, not a failure.
var ErrUnavailable = errors.New("no packet available")

// Packet is one complete inbound message.
type Packet struct {
	Data []byte

	// IsString records whether the sender marked the message as text.
	IsString bool
}

// PacketRelay queues inbound packets from engine callbacks and hands
// them to the consumer one at a time.
//
// The consumer side (Next, WasString) is not synchronized: it must only
// be used from the single consumer goroutine.
type PacketRelay struct {
	queue Queue[Packet]

	// current is owned by the consumer goroutine.
	current Packet
}

// Push copies data into a new packet and enqueues it. The caller keeps
// ownership of data. Safe to call from any goroutine. Returns false if
// the relay has been closed.
func (r *PacketRelay) Push(data []byte, isString bool) bool {
	copied := make([]byte, len(data))
	copy(copied, data)
	return r.queue.Enqueue(Packet{Data: copied, IsString: isString})
}

// Next dequeues the head packet into the current slot and returns its
// bytes without copying. The slice is valid until the next call to Next
// or Close. Returns ErrUnavailable when nothing is queued.
func (r *PacketRelay) Next() ([]byte, error) {
	packet, ok := r.queue.Pop()
	if !ok {
		return nil, ErrUnavailable
	}
	r.current = packet
	return r.current.Data, nil
}

// WasString reports whether the packet most recently returned by Next
// was sent as text.
func (r *PacketRelay) WasString() bool {
	return r.current.IsString
}

// Available returns the number of packets waiting to be read.
func (r *PacketRelay) Available() int {
	return r.queue.Len()
}

// Close discards queued packets and the current slot.
func (r *PacketRelay) Close() {
	r.queue.Close()
	r.current = Packet{}
}
