// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package pe implements the asynchronous progress engine of a GPU-aware
// collective-communication library.
//
// User goroutines submit descriptors of in-flight collective operations
// (allreduce, broadcast, ...) from many GPU compute streams. A dedicated
// worker goroutine drives each descriptor through a small, bounded
// pipeline of cooperative steps until completion, without blocking the
// submitter and while respecting per-stream ordering.
//
// The engine is built from three pieces:
//
//   - a lock-light submission path ([Engine.Enqueue]) that maps a compute
//     stream to a per-stream [InputQueue];
//   - the worker's main loop: admission control over Bounded vs Unbounded
//     operations, a per-stream multi-stage [Pipeline], and cooperative
//     [OperationDescriptor.Step] dispatch;
//   - the worker's CPU affinity negotiation (package topology) across
//     co-located processes, so each process's worker lands on a distinct,
//     topologically appropriate core.
//
// The engine never touches the concrete collective state machines, the
// GPU runtime, or the MPI transport: it only sees an [OperationDescriptor]
// and a topology.LocalCommunicator.
//
// # Quick start
//
//	cfg := pe.NewConfig(256).
//		WithPipelineStages(3).
//		WithMaxConcurrentBounded(8)
//	eng := pe.NewEngine(cfg)
//	eng.Run()
//	defer eng.Stop()
//
//	cache := pe.NewStreamCache() // optional per-goroutine fast path
//	if err := eng.Enqueue(myAllreduceState, cache); err != nil {
//		// ErrWouldBlock: this stream's input queue is full, back off.
//	}
//
// # Submission contract
//
// Enqueue never blocks on the worker and never yields. The per-stream
// InputQueue's claim-and-publish algorithm tolerates any number of
// concurrent producers on its own, so Config.MultiThreadSubmission does
// not change how Enqueue is synchronized; it exists to document, at the
// call site, that a stream is intentionally shared by multiple submitting
// goroutines rather than left to accidentally overlapping single-writer
// assumptions elsewhere in the caller's code.
//
// # Ordering
//
// Descriptors sharing one compute stream are admitted, advanced through
// every pipeline stage, and completed strictly in submission order.
// Across streams, no ordering is guaranteed.
package pe
