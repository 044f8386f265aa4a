// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package relay moves work items from producer goroutines to a single
// consumer that runs them on its own schedule.
//
// The producers are callback goroutines owned by a networking engine
// (pion/webrtc invokes OnICECandidate, OnDataChannel, OnMessage and
// friends on its own internal goroutines). The consumer is a host loop
// that calls a Poll method once per tick and must observe every event
// synchronously, in order, on its own goroutine.
//
// [Queue] is the generic mechanism: an unbounded FIFO guarded by one
// mutex per instance. Producers call [Queue.Enqueue] from any
// goroutine. The consumer calls [Queue.Drain], which pops one item at a
// time and releases the lock before running the dispatch function, so
// a slow or re-entrant dispatch never blocks producers and never
// deadlocks against the queue's own lock. [Queue.Close] is one-way: it
// discards everything still queued, and later enqueues are ignored.
//
// Two specialisations sit on top:
//
//   - [SignalRelay] carries [Signal] items (a name plus up to three
//     arguments) and dispatches them to an [Emitter].
//   - [PacketRelay] carries [Packet] items (one complete inbound
//     message) and exposes them through [PacketRelay.Next], which keeps
//     the most recently dequeued packet in a single consumer-owned slot.
//     The returned bytes stay valid until the next call to Next or
//     Close.
//
// Dispatch order is the order in which producers acquired the lock.
// Two producers racing to enqueue may be delivered in either order, but
// every item is delivered exactly once unless the queue is closed first.
package relay
