// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package pe

import (
	"time"

	"github.com/kylosus/aluminum-pe/topology"
	"k8s.io/klog/v2"
)

// runLoop is the worker's entry point (spec §4.E). It runs on its own
// goroutine for the lifetime of the engine: pin to the selected core, mark
// started, then spin admitting and advancing descriptors until Stop is
// observed. There is no wait or sleep inside this loop (spec §5
// "Suspension points: None inside the worker").
func (e *Engine) runLoop() {
	defer e.wg.Done()

	if err := topology.Bind(e.coreToBind, e.cfg.DeviceCPUSet); err != nil {
		klog.Warningf("pe: rank %d: failed to bind progress thread: %v", e.cfg.LocalRank, err)
	}

	e.startupMu.Lock()
	e.startedFlag.StoreRelease(true)
	e.startupMu.Unlock()
	e.startupCond.Broadcast()

	for !e.stopFlag.LoadAcquire() {
		e.admit()
		e.advance()
	}
}

// admit implements spec §4.E phase 1.
func (e *Engine) admit() {
	n := e.registry.published()
	clock := e.cfg.clock()
	for i := 0; i < n; i++ {
		q := e.registry.slots[i].queue
		d, ok := q.Peek()
		if !ok {
			continue
		}

		admit := false
		switch d.RunType() {
		case Unbounded:
			admit = true
		case Bounded:
			pipeline, exists := e.runQueues.get(d.ComputeStream())
			if e.numBounded < e.cfg.MaxConcurrentBounded || !exists || pipeline.stages[0].Len() == 0 {
				admit = true
			}
		}
		if !admit {
			continue
		}

		pipeline := e.runQueues.getOrCreate(d.ComputeStream(), e.cfg.PipelineStages)
		entry := &pipelineEntry{desc: d, startTime: clock()}
		pipeline.stages[0].PushBack(entry)
		d.Start()
		e.cfg.trace().RecordStart(d)
		q.PopAlways()
		if d.RunType() == Bounded {
			e.numBounded++
		}
	}
}

// advance implements spec §4.E phase 2, including the paused_for_advance
// head-of-line pause and re-walk promotion.
func (e *Engine) advance() {
	for _, rq := range e.runQueues.entries {
		pipeline := rq.pipeline
		for stage := 0; stage < len(pipeline.stages); stage++ {
			e.advanceStage(pipeline, stage)
		}
	}
}

func (e *Engine) advanceStage(pipeline *Pipeline, stage int) {
	l := pipeline.stages[stage]
	clock := e.cfg.clock()

	for el := l.Front(); el != nil; {
		entry := el.Value.(*pipelineEntry)
		next := el.Next()

		if entry.pausedForAdvance {
			el = next
			continue
		}

		switch action := entry.desc.Step(); action {
		case Continue:
			if e.cfg.HangCheck && !entry.hangReported {
				tolerance := 10*time.Second + time.Duration(e.cfg.LocalRank)*time.Second
				if clock().Sub(entry.startTime) > tolerance {
					klog.Warningf("pe: rank %d: possible hang: name=%q stream=%v run_type=%v",
						e.cfg.LocalRank, entry.desc.Name(), entry.desc.ComputeStream(), entry.desc.RunType())
					entry.hangReported = true
				}
			}
			el = next

		case Advance:
			if stage+1 >= len(pipeline.stages) {
				fatalConfiguration("trying to advance pipeline stage too far (stage %d of %d)", stage, len(pipeline.stages))
			}
			if el == l.Front() {
				pipeline.stages[stage+1].PushBack(entry)
				removed := el
				el = next
				l.Remove(removed)
			} else {
				entry.pausedForAdvance = true
				el = next
			}

		case Complete:
			if entry.desc.RunType() == Bounded {
				e.numBounded--
			}
			e.cfg.trace().RecordDone(entry.desc)
			removed := el
			el = next
			l.Remove(removed)

		default:
			invariantViolation("unknown action %v returned from Step", action)
		}
	}

	// Re-walk: promote a run of paused heads now that the stage's main
	// walk is done (spec §4.E step 2).
	for {
		front := l.Front()
		if front == nil {
			break
		}
		entry := front.Value.(*pipelineEntry)
		if !entry.pausedForAdvance {
			break
		}
		entry.pausedForAdvance = false
		pipeline.stages[stage+1].PushBack(entry)
		l.Remove(front)
	}
}
