// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package pe

import (
	"container/list"
	"time"
)

// pipelineEntry is the worker-exclusive bookkeeping for one admitted
// descriptor (spec §3 "mutable bookkeeping owned by the worker only").
type pipelineEntry struct {
	desc             OperationDescriptor
	pausedForAdvance bool
	startTime        time.Time
	hangReported     bool
}

// Pipeline is a compute stream's ordered K-stage array (spec §3 Pipeline).
// Each stage is a container/list.List rather than a slice: Advance only
// ever removes from the head of a stage, but Complete may remove from any
// position, so O(1) arbitrary erase matters. This mirrors
// original_source/src/progress.cpp's use of std::list<AlState*> for the
// identical reason.
type Pipeline struct {
	stages []*list.List // len == Config.PipelineStages
}

func newPipeline(numStages int) *Pipeline {
	p := &Pipeline{stages: make([]*list.List, numStages)}
	for i := range p.stages {
		p.stages[i] = list.New()
	}
	return p
}

// runQueueEntry pairs a compute stream with its pipeline in the order the
// stream was first admitted.
type runQueueEntry struct {
	stream   StreamKey
	pipeline *Pipeline
}

// runQueues is the worker-exclusive mapping from compute stream to
// pipeline (spec §3 "run_queues"). It is an insertion-ordered slice rather
// than a Go map: spec §9 leaves iteration order over this collection an
// open question but notes "if deterministic fairness is required, use an
// insertion-ordered container" — this repo takes that option so that
// worker-tick fairness across streams doesn't depend on map iteration
// order, which Go deliberately randomizes.
type runQueues struct {
	entries []runQueueEntry
	index   map[StreamKey]int
}

func newRunQueues() *runQueues {
	return &runQueues{index: make(map[StreamKey]int)}
}

func (r *runQueues) get(stream StreamKey) (*Pipeline, bool) {
	i, ok := r.index[stream]
	if !ok {
		return nil, false
	}
	return r.entries[i].pipeline, true
}

func (r *runQueues) getOrCreate(stream StreamKey, numStages int) *Pipeline {
	if p, ok := r.get(stream); ok {
		return p
	}
	p := newPipeline(numStages)
	r.index[stream] = len(r.entries)
	r.entries = append(r.entries, runQueueEntry{stream: stream, pipeline: p})
	return p
}
