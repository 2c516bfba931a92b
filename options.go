// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package pe

import (
	"time"

	"github.com/kylosus/aluminum-pe/topology"
)

// Config configures engine construction. It generalizes the teacher's
// Options/Builder fluent pattern (options.go) to the tunables spec §6
// documents as compile-time constants: since Go has no equivalent of a
// build-time #define for a library consumer, they become validated struct
// fields with documented defaults instead.
type Config struct {
	// NumStreams bounds the number of distinct compute streams this
	// engine can track (AL_PE_NUM_STREAMS). Exceeding it is a
	// configuration error that panics (FatalConfiguration) whether or not
	// Debug is set.
	NumStreams int
	// PipelineStages is the pipeline depth K (AL_PE_NUM_PIPELINE_STAGES).
	PipelineStages int
	// MaxConcurrentBounded caps in-flight Bounded operations
	// (AL_PE_NUM_CONCURRENT_OPS), except for the empty-first-stage
	// bypass rule.
	MaxConcurrentBounded int
	// InputQueueCapacity is each per-stream InputQueue's ring buffer
	// size, rounded up to a power of 2.
	InputQueueCapacity int

	// StartOnDemand makes the first Enqueue call start the worker
	// automatically instead of requiring an explicit Run.
	StartOnDemand bool
	// MultiThreadSubmission documents that concurrent Enqueue calls are
	// expected on the same compute stream. It has no effect on queue
	// synchronization: InputQueue's claim-and-publish algorithm is already
	// safe for any number of concurrent producers, with or without this
	// flag set.
	MultiThreadSubmission bool
	// HangCheck enables the observational hang-detection diagnostic.
	HangCheck bool
	// Debug selects the debug-build panic message for configuration errors
	// detectable only at runtime, such as exceeding NumStreams. Those
	// errors panic with or without Debug.
	Debug bool

	// DefaultStream, when non-nil, is pre-registered as
	// request_queues[0] at construction time, the way
	// AL_PE_ADD_DEFAULT_STREAM does in the source. Zero value (nil)
	// disables this.
	DefaultStream StreamKey

	// LocalRank is this process's rank among co-located processes. Used
	// for the hang-check tolerance (10s + LocalRank, spec §4.E) and in the
	// worker's diagnostic log lines; the topology offset uses
	// Communicator's LocalRank instead.
	LocalRank int
	// Communicator is the local sub-communicator used for the topology
	// binder's collective bitmap exchange. Defaults to
	// topology.LoopbackCommunicator{} (single process) if nil.
	Communicator topology.LocalCommunicator
	// DeviceCPUSet, when non-zero, is used as the starting CPU set for
	// topology binding instead of the current thread's affinity mask
	// (the GPU-bound case in spec §4.A step 1).
	DeviceCPUSet topology.Bitmap
	// TopologyVersion is the loaded topology backend's version string,
	// checked against topology.CompiledVersion at construction. Empty
	// means "assume it matches" (no backend to check against).
	TopologyVersion string

	// Trace, when non-nil, receives start/done notifications for every
	// admitted descriptor (spec §6 "trace-start/trace-done hooks").
	Trace TraceHook

	// Clock is the wall-clock "now()" hook spec §6 lists as an optional
	// runtime capability, used for hang-detection elapsed-time checks.
	// Defaults to time.Now; tests substitute a controllable clock.
	Clock func() time.Time
}

// NewConfig creates a Config with the given stream capacity and the
// documented defaults for every other tunable: PipelineStages=3,
// MaxConcurrentBounded=8, InputQueueCapacity=256.
func NewConfig(numStreams int) *Config {
	return &Config{
		NumStreams:           numStreams,
		PipelineStages:       3,
		MaxConcurrentBounded: 8,
		InputQueueCapacity:   256,
		TopologyVersion:      topology.CompiledVersion,
	}
}

// WithPipelineStages sets the pipeline depth K.
func (c *Config) WithPipelineStages(k int) *Config {
	c.PipelineStages = k
	return c
}

// WithMaxConcurrentBounded sets the global cap on in-flight Bounded
// operations.
func (c *Config) WithMaxConcurrentBounded(n int) *Config {
	c.MaxConcurrentBounded = n
	return c
}

// WithInputQueueCapacity sets each per-stream input queue's capacity.
func (c *Config) WithInputQueueCapacity(n int) *Config {
	c.InputQueueCapacity = n
	return c
}

// WithStartOnDemand enables lazy worker startup on first Enqueue.
func (c *Config) WithStartOnDemand() *Config {
	c.StartOnDemand = true
	return c
}

// WithMultiThreadSubmission sets MultiThreadSubmission, documenting that
// multiple goroutines Enqueue onto the same compute stream. It does not
// change queue synchronization (see MultiThreadSubmission).
func (c *Config) WithMultiThreadSubmission() *Config {
	c.MultiThreadSubmission = true
	return c
}

// WithHangCheck enables the observational hang-detection diagnostic.
func (c *Config) WithHangCheck() *Config {
	c.HangCheck = true
	return c
}

// WithDebug sets Debug, selecting the debug-build panic message for
// runtime-detectable configuration errors.
func (c *Config) WithDebug() *Config {
	c.Debug = true
	return c
}

// WithDefaultStream pre-registers key as the engine's first input queue.
func (c *Config) WithDefaultStream(key StreamKey) *Config {
	c.DefaultStream = key
	return c
}

// WithLocalRank sets this process's rank among co-located processes.
func (c *Config) WithLocalRank(rank int) *Config {
	c.LocalRank = rank
	return c
}

// WithCommunicator sets the local sub-communicator used for topology
// binding.
func (c *Config) WithCommunicator(comm topology.LocalCommunicator) *Config {
	c.Communicator = comm
	return c
}

// WithDeviceCPUSet sets the starting CPU set for topology binding,
// overriding current-thread affinity discovery.
func (c *Config) WithDeviceCPUSet(cpuset topology.Bitmap) *Config {
	c.DeviceCPUSet = cpuset
	return c
}

// WithTopologyVersion sets the loaded topology backend's version string.
func (c *Config) WithTopologyVersion(v string) *Config {
	c.TopologyVersion = v
	return c
}

// WithTrace sets the trace hook invoked on admission and completion.
func (c *Config) WithTrace(hook TraceHook) *Config {
	c.Trace = hook
	return c
}

// validate panics via fatalConfiguration on any tunable combination that
// cannot form a working engine.
func (c *Config) validate() {
	if c.NumStreams < 1 {
		fatalConfiguration("NumStreams must be >= 1, got %d", c.NumStreams)
	}
	if c.PipelineStages < 1 {
		fatalConfiguration("PipelineStages must be >= 1, got %d", c.PipelineStages)
	}
	if c.MaxConcurrentBounded < 0 {
		fatalConfiguration("MaxConcurrentBounded must be >= 0, got %d", c.MaxConcurrentBounded)
	}
	if c.InputQueueCapacity < 2 {
		fatalConfiguration("InputQueueCapacity must be >= 2, got %d", c.InputQueueCapacity)
	}
}

func (c *Config) communicator() topology.LocalCommunicator {
	if c.Communicator != nil {
		return c.Communicator
	}
	return topology.LoopbackCommunicator{}
}

func (c *Config) trace() TraceHook {
	if c.Trace != nil {
		return c.Trace
	}
	return NoopTraceHook{}
}

func (c *Config) clock() func() time.Time {
	if c.Clock != nil {
		return c.Clock
	}
	return time.Now
}

// WithClock overrides the wall-clock hook used for hang detection.
func (c *Config) WithClock(clock func() time.Time) *Config {
	c.Clock = clock
	return c
}
