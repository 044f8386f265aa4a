// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package rtc

import "sync"

// Handle identifies an owner registered with a Registry. Handles are
// never reused, so a stale handle can never resolve to a newer owner.
type Handle uint64

// Registry maps stable handles to owners. Engine callbacks capture a
// Handle rather than a pointer to their owner and resolve it with
// Lookup before doing any work; once the owner releases its handle,
// late callbacks find nothing and return.
//
// Registry is safe for concurrent use.
type Registry[T any] struct {
	mu     sync.Mutex
	next   Handle
	owners map[Handle]T
}

// Register stores owner under a fresh handle.
func (r *Registry[T]) Register(owner T) Handle {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.owners == nil {
		r.owners = make(map[Handle]T)
	}
	r.next++
	r.owners[r.next] = owner
	return r.next
}

// Lookup returns the owner registered under handle, if it is still live.
func (r *Registry[T]) Lookup(handle Handle) (T, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	owner, ok := r.owners[handle]
	return owner, ok
}

// Release removes handle. Releasing an unknown or already released
// handle is a no-op.
func (r *Registry[T]) Release(handle Handle) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.owners, handle)
}

// ReleaseAll removes every handle and returns the owners that were
// live, in no particular order.
func (r *Registry[T]) ReleaseAll() []T {
	r.mu.Lock()
	defer r.mu.Unlock()

	owners := make([]T, 0, len(r.owners))
	for handle, owner := range r.owners {
		owners = append(owners, owner)
		delete(r.owners, handle)
	}
	return owners
}

// Len returns the number of live handles.
func (r *Registry[T]) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.owners)
}
