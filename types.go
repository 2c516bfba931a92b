// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package pe

import "fmt"

// StreamKey identifies a logical compute stream. Operations sharing one key
// must be admitted, advanced, and completed in submission order.
type StreamKey any

// RunType classifies whether an operation counts against the engine's
// global concurrency cap.
type RunType int

const (
	// Unbounded operations are always admitted; they never count against
	// MaxConcurrentBounded.
	Unbounded RunType = iota
	// Bounded operations count against MaxConcurrentBounded, except when
	// the empty-first-stage bypass rule applies (see worker.go).
	Bounded
)

func (rt RunType) String() string {
	switch rt {
	case Unbounded:
		return "unbounded"
	case Bounded:
		return "bounded"
	default:
		return fmt.Sprintf("RunType(%d)", int(rt))
	}
}

// Action is the cooperative step result an OperationDescriptor reports back
// to the worker loop.
type Action int

const (
	// Continue leaves the descriptor in place; it will be stepped again
	// on the next worker iteration.
	Continue Action = iota
	// Advance requests promotion to the next pipeline stage. Promotion
	// only happens once the descriptor reaches the head of its stage, to
	// preserve per-stream FIFO order.
	Advance
	// Complete signals the descriptor is done; the worker retires and
	// destroys it.
	Complete
)

func (a Action) String() string {
	switch a {
	case Continue:
		return "continue"
	case Advance:
		return "advance"
	case Complete:
		return "complete"
	default:
		return fmt.Sprintf("Action(%d)", int(a))
	}
}

// OperationDescriptor is the capability set the engine requires of an
// in-flight collective operation. It is opaque otherwise: the engine never
// inspects what kind of collective it is.
//
// Ownership: the submitter owns a descriptor until it is handed to
// [Engine.Enqueue]; after that the engine owns it exclusively until
// Complete, at which point the worker destroys its reference. Descriptors
// must not be reused across two Enqueue calls.
type OperationDescriptor interface {
	// ComputeStream returns the compute stream this operation belongs to.
	// Must be stable for the lifetime of the descriptor.
	ComputeStream() StreamKey

	// RunType reports whether this operation is Bounded or Unbounded.
	RunType() RunType

	// Start is called exactly once, after the descriptor enters the
	// first pipeline stage and before the first Step call.
	Start()

	// Step cooperatively advances the operation by one increment. Step
	// must never block: it either makes progress, requests promotion via
	// Advance, signals Complete, or returns Continue to be retried on the
	// next worker iteration.
	Step() Action

	// Name is a short human-readable identifier used by DumpState.
	Name() string

	// Description is a longer human-readable summary used by DumpState.
	Description() string
}
