// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package pe

import (
	"fmt"
	"io"
	"sync"

	"code.hybscloud.com/atomix"
	"github.com/kylosus/aluminum-pe/topology"
	"k8s.io/klog/v2"
)

// Engine is the progress engine: it owns the per-stream input queues, the
// single worker goroutine that drives admitted descriptors through the
// pipeline, and the CPU affinity that worker goroutine is bound to.
//
// An Engine is a long-lived, process-wide object with an explicit
// Run/Stop lifecycle (spec §9 "Global engine state"); it is not safe to
// copy after construction.
type Engine struct {
	cfg      *Config
	registry *StreamRegistry

	// coreToBind is computed once at construction (spec §4.A) and
	// consulted by the worker at startup.
	coreToBind int

	// Worker-exclusive state (spec §3 "owned and mutated only by the
	// worker"). Touched from exactly one goroutine once the worker has
	// started, so it needs no synchronization of its own.
	runQueues  *runQueues
	numBounded int

	stopFlag    atomix.Bool
	startedFlag atomix.Bool
	doingStart  atomix.Bool

	startupMu   sync.Mutex
	startupCond *sync.Cond
	wg          sync.WaitGroup
}

// NewEngine constructs an Engine from cfg. This runs the topology binder's
// version check and collective bitmap exchange (spec §4.A), so it may
// block briefly on the local communicator's AllGatherUint64 and may panic
// with a FatalConfiguration error on a topology version mismatch; every
// other binder failure is logged and results in an unbound worker.
func NewEngine(cfg *Config) *Engine {
	if cfg == nil {
		cfg = NewConfig(64)
	}
	cfg.validate()

	binder := &topology.Binder{LoadedVersion: cfg.TopologyVersion}
	core, err := binder.Init(cfg.communicator(), cfg.DeviceCPUSet)
	if err != nil {
		fatalConfiguration("topology version check failed: %v", err)
	}

	registry := newStreamRegistry(cfg.NumStreams, cfg.InputQueueCapacity, cfg.MultiThreadSubmission, cfg.Debug)
	if cfg.DefaultStream != nil {
		registry.GetOrCreate(cfg.DefaultStream)
	}

	e := &Engine{
		cfg:        cfg,
		registry:   registry,
		coreToBind: core,
		runQueues:  newRunQueues(),
	}
	e.startupCond = sync.NewCond(&e.startupMu)
	return e
}

// Enqueue routes d to the input queue for its compute stream, lazily
// creating the queue if this is the stream's first submission (spec
// §4.D). It never blocks on the worker and never yields; it returns
// ErrWouldBlock only if the stream's input queue is full.
//
// cache, if non-nil, is consulted and updated as a fast-path lookup (spec
// §4.C); pass the same *StreamCache across calls from one goroutine to
// benefit from it, or nil to always use the registry's published-prefix
// scan.
func (e *Engine) Enqueue(d OperationDescriptor, cache *StreamCache) error {
	if e.cfg.StartOnDemand && !e.startedFlag.LoadAcquire() {
		e.Run()
	}

	key := d.ComputeStream()
	q, ok := cache.get(key)
	if !ok {
		q = e.registry.GetOrCreate(key)
		cache.put(key, q)
	}
	return q.Push(d)
}

// DumpState writes, per compute stream, each pipeline stage's size and
// the name/description of every descriptor it currently holds (spec §6
// "Observability").
//
// DumpState reads worker-exclusive state directly and is explicitly
// unsafe to call concurrently with a running worker; it exists for
// diagnostic use (e.g. after Stop, or from a debugger) only.
func (e *Engine) DumpState(w io.Writer) {
	klog.V(4).Infof("pe: dumping state for %d streams", len(e.runQueues.entries))
	for _, entry := range e.runQueues.entries {
		fmt.Fprintf(w, "Pipelined run queue for stream %v:\n", entry.stream)
		for stage, l := range entry.pipeline.stages {
			fmt.Fprintf(w, "Stage %d run queue (%d):\n", stage, l.Len())
			i := 0
			for el := l.Front(); el != nil; el = el.Next() {
				pe := el.Value.(*pipelineEntry)
				fmt.Fprintf(w, "%d: %s %s\n", i, pe.desc.Name(), pe.desc.Description())
				i++
			}
		}
	}
}
