// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package relay

import (
	"fmt"
)

// MaxSignalArgs is the largest number of arguments a Signal can carry.
const MaxSignalArgs = 3

// Signal is a named notification with a fixed, ordered argument list.
// The arguments are opaque to the relay; producers must pass values
// that are safe to hand to another goroutine (copies, not buffers owned
// by the engine).
type Signal struct {
	Name string
	Args []any
}

// NewSignal builds a Signal. It panics if more than MaxSignalArgs
// arguments are given, since that is a programming error at the call
// site rather than a runtime condition.
func NewSignal(name string, args ...any) Signal {
	if len(args) > MaxSignalArgs {
		panic(fmt.Sprintf("relay: signal %q has %d arguments, at most %d are allowed", name, len(args), MaxSignalArgs))
	}
	copied := make([]any, len(args))
	copy(copied, args)
	return Signal{Name: name, Args: copied}
}

// Emitter receives dispatched signals on the consumer goroutine.
type Emitter interface {
	EmitSignal(name string, args ...any) error
}

// EmitterFunc adapts a function to the Emitter interface.
type EmitterFunc func(name string, args ...any) error

// EmitSignal calls f(name, args...).
func (f EmitterFunc) EmitSignal(name string, args ...any) error {
	return f(name, args...)
}

// SignalRelay queues signals from engine callbacks and emits them when
// the owner polls.
type SignalRelay struct {
	queue Queue[Signal]
}

// Queue enqueues a signal. Safe to call from any goroutine. Returns
// false if the relay has been closed.
func (r *SignalRelay) Queue(name string, args ...any) bool {
	return r.queue.Enqueue(NewSignal(name, args...))
}

// Dispatch emits every queued signal to emitter, in order, with exactly
// the arguments it was queued with. Errors returned by the emitter are
// joined and returned after all queued signals have been emitted.
func (r *SignalRelay) Dispatch(emitter Emitter) error {
	_, err := r.queue.Drain(func(signal Signal) error {
		if err := emitter.EmitSignal(signal.Name, signal.Args...); err != nil {
			return fmt.Errorf("emitting %s: %w", signal.Name, err)
		}
		return nil
	})
	return err
}

// Len returns the number of signals waiting for dispatch.
func (r *SignalRelay) Len() int {
	return r.queue.Len()
}

// Close discards queued signals. Later calls to Queue are ignored.
func (r *SignalRelay) Close() {
	r.queue.Close()
}
