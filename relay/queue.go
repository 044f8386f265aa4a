// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package relay

import (
	"errors"
	"sync"
)

// Queue is an unbounded, mutex-guarded FIFO. Enqueue may be called
// from any number of goroutines; Pop and Drain must only be called from
// the single consumer goroutine. The zero value is an open, empty
// queue.
type Queue[T any] struct {
	mu     sync.Mutex
	items  []T
	head   int
	closed bool
}

// Enqueue appends item to the tail of the queue. It returns false, and
// the item is dropped, only if the queue has been closed.
func (q *Queue[T]) Enqueue(item T) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return false
	}
	q.items = append(q.items, item)
	return true
}

// Pop removes and returns the head of the queue. The second result is
// false when the queue is empty or closed.
func (q *Queue[T]) Pop() (T, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.popLocked()
}

// popLocked must be called with q.mu held.
func (q *Queue[T]) popLocked() (T, bool) {
	var zero T
	if q.head >= len(q.items) {
		return zero, false
	}
	item := q.items[q.head]
	q.items[q.head] = zero
	q.head++

	// Reclaim the consumed prefix once it dominates the backing array,
	// so a queue that never fully empties does not grow without bound.
	if q.head == len(q.items) {
		q.items = q.items[:0]
		q.head = 0
	} else if q.head >= 32 && q.head*2 >= len(q.items) {
		remaining := copy(q.items, q.items[q.head:])
		clear(q.items[remaining:])
		q.items = q.items[:remaining]
		q.head = 0
	}
	return item, true
}

// Drain pops and dispatches items until the queue is observed empty.
// The lock is released before each call to dispatch. Items enqueued
// while the drain is running, including by dispatch itself, are
// delivered by the same drain.
//
// An error from dispatch does not stop the drain. All dispatch errors
// are joined and returned once the queue is empty. The int result is
// the number of items dispatched. Draining a closed queue dispatches
// nothing and returns (0, nil).
func (q *Queue[T]) Drain(dispatch func(T) error) (int, error) {
	var errs []error
	dispatched := 0
	for {
		q.mu.Lock()
		item, ok := q.popLocked()
		q.mu.Unlock()
		if !ok {
			break
		}

		dispatched++
		if err := dispatch(item); err != nil {
			errs = append(errs, err)
		}
	}
	return dispatched, errors.Join(errs...)
}

// Len returns the number of queued items.
func (q *Queue[T]) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items) - q.head
}

// Close discards every queued item and stops accepting new ones. Close
// is idempotent.
func (q *Queue[T]) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.closed = true
	clear(q.items)
	q.items = nil
	q.head = 0
}

// Closed reports whether Close has been called.
func (q *Queue[T]) Closed() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.closed
}
