// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package pe

import (
	"sync"

	"code.hybscloud.com/atomix"
)

// streamSlot pairs a published compute-stream key with its input queue.
type streamSlot struct {
	key   StreamKey
	queue *InputQueue
}

// StreamRegistry locates (or creates) the InputQueue for a compute-stream
// key (spec §4.C). It is a fixed-capacity array so the worker's acquire-load
// of numInputStreams always observes a prefix of fully-initialized slots;
// the array itself never reallocates or removes entries, which is what
// makes the optional per-caller StreamCache below sound.
type StreamRegistry struct {
	slots           []streamSlot
	numInputStreams atomix.Uint64 // published count; release-store on grow
	addQueueMu      sync.Mutex
	inputQueueCap   int
	multiProducer   bool
	debug           bool
}

func newStreamRegistry(numStreams, inputQueueCap int, multiProducer, debug bool) *StreamRegistry {
	return &StreamRegistry{
		slots:         make([]streamSlot, numStreams),
		inputQueueCap: inputQueueCap,
		multiProducer: multiProducer,
		debug:         debug,
	}
}

// published returns the number of fully-initialized slots, observed with
// acquire semantics (§4.C).
func (r *StreamRegistry) published() int {
	return int(r.numInputStreams.LoadAcquire())
}

// Lookup performs the baseline linear scan over the published prefix.
func (r *StreamRegistry) Lookup(key StreamKey) (*InputQueue, bool) {
	n := r.published()
	for i := 0; i < n; i++ {
		if r.slots[i].key == key {
			return r.slots[i].queue, true
		}
	}
	return nil, false
}

// GetOrCreate returns the queue for key, creating it if absent. Mirrors the
// source's enqueue growth path: re-check under the add-queue mutex in case
// another goroutine already added it, write the slot, then publish the
// count with a release store so the worker's acquire-load only ever sees
// complete slots.
func (r *StreamRegistry) GetOrCreate(key StreamKey) *InputQueue {
	if q, ok := r.Lookup(key); ok {
		return q
	}

	r.addQueueMu.Lock()
	defer r.addQueueMu.Unlock()

	// Re-check: another goroutine may have added it while we waited for
	// the lock.
	n := r.published()
	for i := 0; i < n; i++ {
		if r.slots[i].key == key {
			return r.slots[i].queue
		}
	}

	if n >= len(r.slots) {
		if r.debug {
			fatalConfiguration("trying to create more progress engine streams than supported (max %d)", len(r.slots))
		}
		// Release builds: undefined to add more (§4.C). Panic is still
		// the safest undefined behavior available in Go.
		fatalConfiguration("exceeded stream capacity (max %d)", len(r.slots))
	}

	q := newInputQueue(r.inputQueueCap, r.multiProducer)
	r.slots[n] = streamSlot{key: key, queue: q}
	r.numInputStreams.StoreRelease(uint64(n + 1))
	return q
}

// StreamCache is an explicit per-caller cache from compute-stream key to its
// queue, skipping the registry scan entirely on a hit.
//
// Go has no implicit thread-local storage the way the source's
// thread_local std::unordered_map gives each progress-engine caller
// thread its own cache transparently. This repo makes that ownership
// explicit instead: a goroutine that wants the fast path constructs one
// StreamCache (via [NewStreamCache]) and reuses it across its own
// Enqueue calls. The cache never holds the only reference to a queue —
// the registry's array does — so a StreamCache can be discarded at any
// time without leaking queue state.
type StreamCache struct {
	m map[StreamKey]*InputQueue
}

// NewStreamCache creates an empty per-caller stream cache.
func NewStreamCache() *StreamCache {
	return &StreamCache{m: make(map[StreamKey]*InputQueue)}
}

func (c *StreamCache) get(key StreamKey) (*InputQueue, bool) {
	if c == nil {
		return nil, false
	}
	q, ok := c.m[key]
	return q, ok
}

func (c *StreamCache) put(key StreamKey, q *InputQueue) {
	if c == nil {
		return
	}
	c.m[key] = q
}
