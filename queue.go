// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package pe

import (
	"code.hybscloud.com/atomix"
	"code.hybscloud.com/spin"
)

// InputQueue is the bounded FIFO that backs one compute stream's submission
// path (spec §3 InputQueue, §4.B). It is adapted from the teacher's
// FAA-based MPSC queue (mpsc.go): producers use a fetch-and-add to blindly
// claim a slot (SCQ-style), which lets concurrent Enqueue callers on the
// same stream make progress without a mutex, whether or not Config sets
// MultiThreadSubmission. A single-producer stream degenerates to the same
// algorithm with contention factor one, so there is no separate SPSC path.
//
// Capacity n costs 2n physical slots; Push is lock-free from every producer,
// Peek/PopAlways are consumer-only and assume exactly one worker goroutine
// drains the queue, matching the engine's single-worker admission loop.
type InputQueue struct {
	_        pad
	head     atomix.Uint64 // consumer (worker) index
	_        pad
	tail     atomix.Uint64 // producer index, claimed via FAA
	_        pad
	buffer   []inputSlot
	capacity uint64 // n, usable capacity
	size     uint64 // 2n, physical slot count
	mask     uint64 // 2n - 1
}

type inputSlot struct {
	cycle atomix.Uint64
	data  OperationDescriptor
	_     padShort
}

// newInputQueue creates a queue with the given capacity, rounded up to the
// next power of 2. The multiProducer flag is accepted for call-site
// symmetry with the teacher's Options-driven construction but no longer
// changes the algorithm: the FAA claim path is safe for any number of
// concurrent producers.
func newInputQueue(capacity int, multiProducer bool) *InputQueue {
	_ = multiProducer
	if capacity < 2 {
		capacity = 2
	}
	n := uint64(roundToPow2(capacity))
	size := n * 2

	q := &InputQueue{
		buffer:   make([]inputSlot, size),
		capacity: n,
		size:     size,
		mask:     size - 1,
	}
	for i := uint64(0); i < size; i++ {
		q.buffer[i].cycle.StoreRelaxed(i / n)
	}
	return q
}

// Push adds a descriptor to the queue. Safe for any number of concurrent
// producers. Returns ErrWouldBlock if the queue is full; the caller is
// responsible for backoff/retry.
func (q *InputQueue) Push(d OperationDescriptor) error {
	sw := spin.Wait{}
	for {
		tail := q.tail.LoadAcquire()
		head := q.head.LoadRelaxed()
		if tail >= head+q.capacity {
			return ErrWouldBlock
		}

		myTail := q.tail.AddAcqRel(1) - 1
		slot := &q.buffer[myTail&q.mask]
		expectedCycle := myTail / q.capacity

		slotCycle := slot.cycle.LoadAcquire()
		if slotCycle == expectedCycle {
			slot.data = d
			slot.cycle.StoreRelease(expectedCycle + 1)
			return nil
		}
		if int64(slotCycle) < int64(expectedCycle) {
			return ErrWouldBlock
		}
		sw.Once()
	}
}

// Peek returns the descriptor at the head of the queue without removing
// it, or (nil, false) if the queue is empty. Consumer-only.
func (q *InputQueue) Peek() (OperationDescriptor, bool) {
	head := q.head.LoadRelaxed()
	cycle := head / q.capacity
	slot := &q.buffer[head&q.mask]

	if slot.cycle.LoadAcquire() != cycle+1 {
		return nil, false
	}
	return slot.data, true
}

// PopAlways removes the element most recently returned by a successful
// Peek. The caller must have just called Peek and observed a non-nil
// result; calling PopAlways without a preceding successful Peek is
// undefined. Consumer-only.
func (q *InputQueue) PopAlways() {
	head := q.head.LoadRelaxed()
	slot := &q.buffer[head&q.mask]
	slot.data = nil
	nextEnqCycle := (head + q.size) / q.capacity
	slot.cycle.StoreRelease(nextEnqCycle)
	q.head.StoreRelaxed(head + 1)
}

// Cap returns the queue's usable capacity (rounded up to a power of 2).
func (q *InputQueue) Cap() int {
	return int(q.capacity)
}
