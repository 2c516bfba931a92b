// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package pe

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptedOp is a test OperationDescriptor whose Step results are fixed in
// advance, with every call recorded for order assertions.
type scriptedOp struct {
	stream  StreamKey
	runType RunType
	script  []Action
	pos     int
	started bool

	order *[]string
	name  string
}

func (o *scriptedOp) ComputeStream() StreamKey { return o.stream }
func (o *scriptedOp) RunType() RunType         { return o.runType }
func (o *scriptedOp) Start()                   { o.started = true }
func (o *scriptedOp) Name() string             { return o.name }
func (o *scriptedOp) Description() string      { return "scripted test op " + o.name }

func (o *scriptedOp) Step() Action {
	a := o.script[o.pos]
	o.pos++
	if a == Complete && o.order != nil {
		*o.order = append(*o.order, o.name)
	}
	return a
}

func newTestEngine(numStreams, pipelineStages, maxConcurrentBounded int) *Engine {
	cfg := NewConfig(numStreams).
		WithPipelineStages(pipelineStages).
		WithMaxConcurrentBounded(maxConcurrentBounded)
	return NewEngine(cfg)
}

// drainOnce runs admit+advance until every pipeline is empty or iterations
// is exhausted, returning how many iterations it took.
func drainOnce(e *Engine, iterations int) int {
	for i := 0; i < iterations; i++ {
		e.admit()
		e.advance()
		empty := true
		for _, entry := range e.runQueues.entries {
			for _, stage := range entry.pipeline.stages {
				if stage.Len() > 0 {
					empty = false
				}
			}
		}
		if empty {
			return i + 1
		}
	}
	return iterations
}

// TestSingleStreamContinueContinueComplete is scenario S1.
func TestSingleStreamContinueContinueComplete(t *testing.T) {
	e := newTestEngine(4, 3, 8)
	cache := NewStreamCache()

	var completed []string
	ops := []*scriptedOp{
		{stream: "s", runType: Unbounded, script: []Action{Continue, Continue, Complete}, order: &completed, name: "op0"},
		{stream: "s", runType: Unbounded, script: []Action{Continue, Continue, Complete}, order: &completed, name: "op1"},
		{stream: "s", runType: Unbounded, script: []Action{Continue, Continue, Complete}, order: &completed, name: "op2"},
	}
	for _, op := range ops {
		require.NoError(t, e.Enqueue(op, cache))
	}

	drainOnce(e, 20)

	assert.Equal(t, []string{"op0", "op1", "op2"}, completed)
	assert.Equal(t, 0, e.numBounded)
	pipeline, ok := e.runQueues.get("s")
	require.True(t, ok)
	for _, stage := range pipeline.stages {
		assert.Equal(t, 0, stage.Len())
	}
	for _, op := range ops {
		assert.True(t, op.started)
	}
}

// TestTwoOperationsSameStreamIntraStreamOrder is scenario S2: d1 advances
// through every stage before d2, queued on the same stream, is allowed to
// pass it.
func TestTwoOperationsSameStreamIntraStreamOrder(t *testing.T) {
	e := newTestEngine(4, 3, 8)
	cache := NewStreamCache()

	d1 := &scriptedOp{stream: "sa", runType: Unbounded, script: []Action{Advance, Advance, Complete}, name: "d1"}
	d2 := &scriptedOp{stream: "sa", runType: Unbounded, script: []Action{Continue, Continue, Continue}, name: "d2"}

	require.NoError(t, e.Enqueue(d1, cache))
	require.NoError(t, e.Enqueue(d2, cache))

	// Two admission passes (admit takes at most one descriptor per input
	// queue per pass) put both into stage 0, d1 at the head.
	e.admit()
	e.admit()
	p, ok := e.runQueues.get("sa")
	require.True(t, ok)
	require.Equal(t, 2, p.stages[0].Len())
	assert.Same(t, d1, p.stages[0].Front().Value.(*pipelineEntry).desc)

	// advance walks the stages in ascending order within one call, so d1
	// is promoted to stage 1, stepped there, promoted to stage 2 and
	// completes in this single call; d2 stays at stage 0 head throughout.
	e.advance()
	assert.Equal(t, 1, p.stages[0].Len())
	assert.Equal(t, 0, p.stages[1].Len())
	assert.Same(t, d2, p.stages[0].Front().Value.(*pipelineEntry).desc)
	assert.Equal(t, 3, d1.pos, "d1 consumed Advance, Advance, Complete in one advance call")

	e.advance()
	assert.Equal(t, 0, p.stages[1].Len())
	assert.Equal(t, 0, p.stages[2].Len())

	e.advance()
	assert.Equal(t, 0, p.stages[2].Len(), "d1 must have completed and left the pipeline")
	assert.Equal(t, 1, p.stages[0].Len(), "d2 never left stage 0 while d1 was still in flight")
}

// TestBoundedCapEmptyFirstStageBypass is scenario S3.
func TestBoundedCapEmptyFirstStageBypass(t *testing.T) {
	e := newTestEngine(4, 2, 1)
	cache := NewStreamCache()

	d1 := &scriptedOp{stream: "x", runType: Bounded, script: []Action{Continue}, name: "d1"}
	d2 := &scriptedOp{stream: "y", runType: Bounded, script: []Action{Continue}, name: "d2"}
	require.NoError(t, e.Enqueue(d1, cache))
	require.NoError(t, e.Enqueue(d2, cache))

	e.admit()

	px, ok := e.runQueues.get("x")
	require.True(t, ok)
	py, ok := e.runQueues.get("y")
	require.True(t, ok)
	assert.Equal(t, 1, px.stages[0].Len(), "d1 admitted under the cap")
	assert.Equal(t, 1, py.stages[0].Len(), "d2 admitted via the empty-first-stage bypass despite the cap of 1")
	assert.Equal(t, 2, e.numBounded)
}

func TestBoundedCapHoldsSecondOpOnSameStream(t *testing.T) {
	e := newTestEngine(4, 2, 1)
	cache := NewStreamCache()

	d1 := &scriptedOp{stream: "x", runType: Bounded, script: []Action{Continue, Continue, Continue}, name: "d1"}
	d2 := &scriptedOp{stream: "x", runType: Bounded, script: []Action{Continue}, name: "d2"}
	require.NoError(t, e.Enqueue(d1, cache))
	require.NoError(t, e.Enqueue(d2, cache))

	// The first pass admits d1; the second pass sees d2 at the head of the
	// input queue with the cap reached and stage 0 occupied by d1.
	e.admit()
	e.admit()

	px, ok := e.runQueues.get("x")
	require.True(t, ok)
	assert.Equal(t, 1, px.stages[0].Len(), "only d1 admitted; d2 held in its input queue")
	assert.Equal(t, 1, e.numBounded)

	_, peeked := e.registry.GetOrCreate("x").Peek()
	assert.True(t, peeked, "d2 is still sitting in the input queue, not the pipeline")
}

// TestPausedForAdvancePromotedOnReWalk is scenario S4: tail requests
// Advance while head is still Continue-ing, so tail must wait behind the
// head for FIFO order; once head itself advances, the paused tail is
// promoted in that same advanceStage call via the re-walk, not the next
// worker iteration.
func TestPausedForAdvancePromotedOnReWalk(t *testing.T) {
	e := newTestEngine(4, 3, 8)
	cache := NewStreamCache()

	head := &scriptedOp{stream: "z", runType: Unbounded, script: []Action{Continue, Advance}, name: "head"}
	tail := &scriptedOp{stream: "z", runType: Unbounded, script: []Action{Advance}, name: "tail"}
	require.NoError(t, e.Enqueue(head, cache))
	require.NoError(t, e.Enqueue(tail, cache))

	e.admit()
	e.admit()
	p, ok := e.runQueues.get("z")
	require.True(t, ok)
	require.Equal(t, 2, p.stages[0].Len())
	require.Same(t, head, p.stages[0].Front().Value.(*pipelineEntry).desc)

	// First iteration: head continues, tail (not at the head) requests
	// Advance and is parked instead of jumping ahead of head.
	e.advanceStage(p, 0)
	require.Equal(t, 2, p.stages[0].Len(), "tail stays in stage 0, merely paused")
	tailEntry := p.stages[0].Back().Value.(*pipelineEntry)
	assert.Same(t, tail, tailEntry.desc)
	assert.True(t, tailEntry.pausedForAdvance)
	assert.Equal(t, 0, p.stages[1].Len())

	// Second iteration: head finally advances and leaves stage 0; the
	// re-walk then promotes the paused tail in this same call.
	e.advanceStage(p, 0)

	assert.Equal(t, 0, p.stages[0].Len(), "both promoted by the end of this advanceStage call")
	assert.Equal(t, 2, p.stages[1].Len())
	assert.Same(t, head, p.stages[1].Front().Value.(*pipelineEntry).desc, "head was promoted first, by the main walk")
	assert.Same(t, tail, p.stages[1].Back().Value.(*pipelineEntry).desc, "tail was promoted second, by the re-walk")
}

func TestEnqueueWouldBlockWhenInputQueueFull(t *testing.T) {
	eng := NewEngine(NewConfig(4).WithInputQueueCapacity(2))
	cache := NewStreamCache()

	for i := 0; i < 2; i++ {
		op := &scriptedOp{stream: "full", runType: Unbounded, script: []Action{Continue}, name: "op"}
		require.NoError(t, eng.Enqueue(op, cache))
	}
	op := &scriptedOp{stream: "full", runType: Unbounded, script: []Action{Continue}, name: "overflow"}
	err := eng.Enqueue(op, cache)
	require.Error(t, err)
	assert.True(t, IsWouldBlock(err))
}

func TestInvariantViolationOnUnknownAction(t *testing.T) {
	e := newTestEngine(4, 3, 8)
	cache := NewStreamCache()
	op := &scriptedOp{stream: "bad", runType: Unbounded, script: []Action{Action(99)}, name: "bad"}
	require.NoError(t, e.Enqueue(op, cache))
	e.admit()

	assert.Panics(t, func() { e.advance() })
}

func TestFatalConfigurationOnAdvancePastLastStage(t *testing.T) {
	e := newTestEngine(4, 1, 8)
	cache := NewStreamCache()
	op := &scriptedOp{stream: "last", runType: Unbounded, script: []Action{Advance}, name: "last"}
	require.NoError(t, e.Enqueue(op, cache))
	e.admit()

	assert.Panics(t, func() { e.advance() })
}
