// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package pe

import (
	"github.com/google/uuid"
	"k8s.io/klog/v2"
)

// TraceHook receives admission and completion notifications for every
// descriptor the worker processes (spec §6 "trace-start/trace-done
// hooks"). Implementations must not block: they run inline on the worker
// goroutine.
type TraceHook interface {
	// RecordStart is called once, right after Start(), when a descriptor
	// is admitted into the first pipeline stage.
	RecordStart(d OperationDescriptor)
	// RecordDone is called once, when a descriptor's Step returns
	// Complete, before it is destroyed.
	RecordDone(d OperationDescriptor)
}

// NoopTraceHook discards every notification. It is the default when
// Config.Trace is nil.
type NoopTraceHook struct{}

// RecordStart implements TraceHook by doing nothing.
func (NoopTraceHook) RecordStart(OperationDescriptor) {}

// RecordDone implements TraceHook by doing nothing.
func (NoopTraceHook) RecordDone(OperationDescriptor) {}

// LogTraceHook logs admission and completion at klog.V(3), tagging each
// span with a UUID so a start/done pair can be correlated in log output
// without exposing the descriptor's address.
type LogTraceHook struct {
	spans map[OperationDescriptor]uuid.UUID
}

// NewLogTraceHook creates a TraceHook that logs through klog.
func NewLogTraceHook() *LogTraceHook {
	return &LogTraceHook{spans: make(map[OperationDescriptor]uuid.UUID)}
}

// RecordStart logs admission and mints a correlation id for this span.
func (h *LogTraceHook) RecordStart(d OperationDescriptor) {
	id := uuid.New()
	h.spans[d] = id
	klog.V(3).Infof("pe: span %s start name=%q desc=%q stream=%v", id, d.Name(), d.Description(), d.ComputeStream())
}

// RecordDone logs completion and forgets the span's correlation id.
func (h *LogTraceHook) RecordDone(d OperationDescriptor) {
	id, ok := h.spans[d]
	if !ok {
		id = uuid.Nil
	} else {
		delete(h.spans, d)
	}
	klog.V(3).Infof("pe: span %s done name=%q", id, d.Name())
}
