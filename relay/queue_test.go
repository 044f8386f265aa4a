// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package relay

import (
	"errors"
	"runtime"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/pion/transport/v3/test"

	"github.com/bureau-foundation/rtcrelay/lib/testutil"
)

func TestQueue_FIFO(t *testing.T) {
	var queue Queue[string]
	for _, item := range []string{"a", "b", "c"} {
		if !queue.Enqueue(item) {
			t.Fatalf("Enqueue(%q) = false on open queue", item)
		}
	}

	var got []string
	count, err := queue.Drain(func(item string) error {
		got = append(got, item)
		return nil
	})
	if err != nil {
		t.Fatalf("Drain error: %v", err)
	}
	if count != 3 {
		t.Errorf("Drain count = %d, want 3", count)
	}
	want := []string{"a", "b", "c"}
	for index := range want {
		if index >= len(got) || got[index] != want[index] {
			t.Fatalf("dispatched %v, want %v", got, want)
		}
	}
}

func TestQueue_NoLossNoDuplicates(t *testing.T) {
	for _, total := range []int{0, 1, 7, 100, 1000} {
		var queue Queue[int]
		for index := 0; index < total; index++ {
			queue.Enqueue(index)
		}

		// Consume across several calls: a few single pops, then drains.
		seen := make(map[int]int)
		for pops := 0; pops < 3; pops++ {
			if item, ok := queue.Pop(); ok {
				seen[item]++
			}
		}
		for queue.Len() > 0 {
			queue.Drain(func(item int) error {
				seen[item]++
				return nil
			})
		}

		if len(seen) != total {
			t.Errorf("total=%d: delivered %d distinct items", total, len(seen))
		}
		for item, times := range seen {
			if times != 1 {
				t.Errorf("total=%d: item %d delivered %d times", total, item, times)
			}
		}
	}
}

func TestQueue_DrainContinuesAfterDispatchError(t *testing.T) {
	var queue Queue[int]
	for index := 0; index < 5; index++ {
		queue.Enqueue(index)
	}

	errOdd := errors.New("odd item")
	var delivered []int
	count, err := queue.Drain(func(item int) error {
		delivered = append(delivered, item)
		if item%2 == 1 {
			return errOdd
		}
		return nil
	})

	if count != 5 || len(delivered) != 5 {
		t.Fatalf("count = %d, delivered = %v, want all 5 items", count, delivered)
	}
	if !errors.Is(err, errOdd) {
		t.Errorf("Drain error = %v, want it to wrap %v", err, errOdd)
	}
	if queue.Len() != 0 {
		t.Errorf("Len after drain = %d, want 0", queue.Len())
	}
}

func TestQueue_ReentrantEnqueueDuringDrain(t *testing.T) {
	var queue Queue[int]
	queue.Enqueue(1)

	var delivered []int
	queue.Drain(func(item int) error {
		delivered = append(delivered, item)
		// The lock must not be held here, otherwise this deadlocks.
		if item < 3 {
			queue.Enqueue(item + 1)
		}
		return nil
	})

	if len(delivered) != 3 || delivered[0] != 1 || delivered[2] != 3 {
		t.Errorf("delivered = %v, want [1 2 3]", delivered)
	}
}

func TestQueue_DispatchClosesQueue(t *testing.T) {
	var queue Queue[int]
	for index := 0; index < 4; index++ {
		queue.Enqueue(index)
	}

	var delivered []int
	count, err := queue.Drain(func(item int) error {
		delivered = append(delivered, item)
		if item == 1 {
			queue.Close()
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Drain error: %v", err)
	}
	if count != 2 {
		t.Errorf("count = %d, want 2 (items after close are discarded)", count)
	}
	if !queue.Closed() {
		t.Error("queue should report closed")
	}
}

func TestQueue_CloseDiscards(t *testing.T) {
	var queue Queue[Signal]
	for index := 0; index < 5; index++ {
		queue.Enqueue(NewSignal("tick", index))
	}
	queue.Close()

	count, err := queue.Drain(func(Signal) error {
		t.Error("dispatch called on closed queue")
		return nil
	})
	if count != 0 || err != nil {
		t.Errorf("Drain on closed queue = (%d, %v), want (0, nil)", count, err)
	}
	if queue.Enqueue(NewSignal("late")) {
		t.Error("Enqueue after Close = true, want false")
	}
	if queue.Len() != 0 {
		t.Errorf("Len after Close = %d, want 0", queue.Len())
	}

	// Close is idempotent.
	queue.Close()
}

func TestQueue_PopEmpty(t *testing.T) {
	var queue Queue[int]
	if item, ok := queue.Pop(); ok {
		t.Errorf("Pop on empty queue = (%d, true), want (0, false)", item)
	}
}

func TestQueue_CompactionPreservesOrder(t *testing.T) {
	// Interleave enqueues and pops so the queue never empties and the
	// consumed prefix gets reclaimed several times.
	var queue Queue[int]
	next := 0
	expected := 0
	for round := 0; round < 200; round++ {
		for index := 0; index < 3; index++ {
			queue.Enqueue(next)
			next++
		}
		for index := 0; index < 2; index++ {
			item, ok := queue.Pop()
			if !ok {
				t.Fatalf("round %d: Pop returned nothing", round)
			}
			if item != expected {
				t.Fatalf("round %d: Pop = %d, want %d", round, item, expected)
			}
			expected++
		}
	}
	if queue.Len() != next-expected {
		t.Errorf("Len = %d, want %d", queue.Len(), next-expected)
	}
}

type stressItem struct {
	producer int
	sequence uint64
	local    int
}

// TestQueue_ConcurrentProducers enqueues from several goroutines while
// the consumer drains concurrently. Every item carries a globally unique
// sequence number; the delivered set must be gap-free and
// duplicate-free, and each producer's own items must stay in order.
func TestQueue_ConcurrentProducers(t *testing.T) {
	defer test.CheckRoutines(t)()
	limit := test.TimeOut(30 * time.Second)
	defer limit.Stop()

	const producers = 8
	const perProducer = 5000
	const total = producers * perProducer

	var queue Queue[stressItem]
	var sequence atomic.Uint64
	var waitGroup sync.WaitGroup

	for producer := 0; producer < producers; producer++ {
		waitGroup.Add(1)
		go func(producer int) {
			defer waitGroup.Done()
			for local := 0; local < perProducer; local++ {
				queue.Enqueue(stressItem{
					producer: producer,
					sequence: sequence.Add(1) - 1,
					local:    local,
				})
				if local%64 == 0 {
					runtime.Gosched()
				}
			}
		}(producer)
	}

	seen := make([]bool, total)
	lastLocal := make([]int, producers)
	for index := range lastLocal {
		lastLocal[index] = -1
	}
	delivered := 0
	for delivered < total {
		queue.Drain(func(item stressItem) error {
			if item.sequence >= total {
				t.Errorf("sequence %d out of range", item.sequence)
				return nil
			}
			if seen[item.sequence] {
				t.Errorf("sequence %d delivered twice", item.sequence)
			}
			seen[item.sequence] = true
			if item.local != lastLocal[item.producer]+1 {
				t.Errorf("producer %d: got local %d after %d", item.producer, item.local, lastLocal[item.producer])
			}
			lastLocal[item.producer] = item.local
			delivered++
			return nil
		})
		runtime.Gosched()
	}
	waitGroup.Wait()

	for sequenceNumber, ok := range seen {
		if !ok {
			t.Errorf("sequence %d never delivered", sequenceNumber)
		}
	}
	if queue.Len() != 0 {
		t.Errorf("Len after stress = %d, want 0", queue.Len())
	}
}

// TestQueue_ProducerNotBlockedByDispatch verifies the lock is released
// while dispatch runs: a producer can enqueue while the consumer is
// parked inside a dispatch call.
func TestQueue_ProducerNotBlockedByDispatch(t *testing.T) {
	var queue Queue[int]
	queue.Enqueue(0)

	inDispatch := make(chan struct{})
	release := make(chan struct{})
	enqueued := make(chan struct{})

	go func() {
		<-inDispatch
		queue.Enqueue(1)
		close(enqueued)
	}()

	done := make(chan int)
	go func() {
		count, _ := queue.Drain(func(item int) error {
			if item == 0 {
				close(inDispatch)
				<-release
			}
			return nil
		})
		done <- count
	}()

	testutil.RequireClosed(t, enqueued, 5*time.Second, "producer blocked while dispatch was running")
	close(release)

	count := testutil.RequireReceive(t, done, 5*time.Second, "waiting for Drain to finish")
	if count != 2 {
		t.Errorf("Drain count = %d, want 2", count)
	}
}
