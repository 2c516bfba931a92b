// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package pe

import (
	"code.hybscloud.com/iox"
	"github.com/gomlx/exceptions"
)

// ErrWouldBlock indicates an input queue enqueue cannot proceed immediately
// because the queue is full. It is a control flow signal, not a failure:
// the caller should retry (with backoff) rather than propagate it.
//
// This is an alias for [iox.ErrWouldBlock] for ecosystem consistency with
// the rest of the lock-free queue stack this engine is built on.
var ErrWouldBlock = iox.ErrWouldBlock

// IsWouldBlock reports whether err indicates the operation would block.
func IsWouldBlock(err error) bool {
	return iox.IsWouldBlock(err)
}

// IsSemantic reports whether err is a control flow signal rather than a
// genuine failure.
func IsSemantic(err error) bool {
	return iox.IsSemantic(err)
}

// fatalConfiguration panics with an exceptions-wrapped error for conditions
// that §7 classifies as FatalConfiguration: topology library version
// mismatch, pipeline advancement past the last stage, double-stop, and
// exceeding stream capacity. These abort the engine; nothing
// in this package recovers from them, so an uncaught panic in the worker
// goroutine crashes the process, matching the source implementation's use
// of a thrown exception from the progress thread.
func fatalConfiguration(format string, args ...any) {
	exceptions.Panicf("pe: fatal configuration: "+format, args...)
}

// invariantViolation panics for an unrecognized Action returned by Step.
// Always a bug in the caller's OperationDescriptor implementation.
func invariantViolation(format string, args ...any) {
	exceptions.Panicf("pe: invariant violation: "+format, args...)
}
