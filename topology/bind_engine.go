// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package topology

import (
	"k8s.io/klog/v2"
)

// CompiledVersion is the topology backend version this package was built
// against, standing in for HWLOC_API_VERSION in the source. A real
// hwloc/topology cgo binding would report its own runtime version to
// compare against this constant.
const CompiledVersion = "2.11"

// Binder runs the CPU affinity negotiation described in spec §4.A: it
// determines a starting CPU set, exchanges it with co-located processes,
// computes an offset, and picks a distinct core.
type Binder struct {
	// LoadedVersion is the topology backend's reported version. Left
	// empty, it is treated as matching CompiledVersion (no backend to
	// version-check against on platforms without one wired up).
	LoadedVersion string
}

// Init runs steps 1-4 of spec §4.A and returns the core to bind, or -1 if
// binding should be skipped. Only the version-check failure is fatal (a
// non-nil error); every other failure is logged and reported as -1,
// matching "the engine must remain functional" in spec §4.A.
//
// deviceCPUSet, when non-zero, is used as the starting CPU set in place of
// the current thread's affinity mask (the AL_HAS_CUDA branch of
// get_hwloc_cpuset in the source: a GPU-bound worker prefers the CPUs
// local to its device over its own current binding).
func (b *Binder) Init(comm LocalCommunicator, deviceCPUSet Bitmap) (int, error) {
	loaded := b.LoadedVersion
	if loaded == "" {
		loaded = CompiledVersion
	}
	if err := CheckVersion(loaded, CompiledVersion); err != nil {
		return -1, err
	}

	cpuset := deviceCPUSet
	if cpuset.IsZero() {
		var err error
		cpuset, err = CurrentCPUSet()
		if err != nil {
			klog.Warningf("topology: rank %d: could not get starting cpuset (%v); not binding progress thread", comm.LocalRank(), err)
			return -1, nil
		}
	}
	if cpuset.IsZero() {
		klog.Warningf("topology: rank %d: starting cpuset is empty; not binding progress thread", comm.LocalRank())
		return -1, nil
	}

	bitmaps, err := exchangeBitmaps(comm, cpuset)
	if err != nil {
		klog.Warningf("topology: rank %d: bitmap exchange failed (%v); not binding progress thread", comm.LocalRank(), err)
		return -1, nil
	}
	offset := ComputeOffset(bitmaps, comm.LocalRank())

	core, ok := PickCore(cpuset, offset)
	if !ok {
		klog.Warningf("topology: rank %d: computed offset %d but cpuset has only %d cores; not binding progress thread",
			comm.LocalRank(), offset, len(cpuset.Cores()))
		return -1, nil
	}
	return core, nil
}

// Bind implements spec §4.A step 5: reload the starting CPU set and bind
// the calling thread to the coreToBind-th core inside it. Called from the
// worker at startup, not from Init, since the worker (not whoever
// constructed the engine) is the thread that must end up bound.
func Bind(coreToBind int, deviceCPUSet Bitmap) error {
	if coreToBind < 0 {
		return nil
	}
	cpuset := deviceCPUSet
	if cpuset.IsZero() {
		var err error
		cpuset, err = CurrentCPUSet()
		if err != nil {
			return err
		}
	}
	cores := cpuset.Cores()
	if coreToBind >= len(cores) {
		return ErrUnsupportedPlatform
	}
	return BindThread(cores[coreToBind])
}

// exchangeBitmaps implements spec §4.A step 2: an all-gather of lengths
// followed by a variable-length all-gather of the words, producing one
// bitmap per local rank in local-rank order.
func exchangeBitmaps(comm LocalCommunicator, cpuset Bitmap) ([]Bitmap, error) {
	words := cpuset.ToWords()
	gathered, err := comm.AllGatherUint64(words)
	if err != nil {
		return nil, err
	}
	bitmaps := make([]Bitmap, len(gathered))
	for i, w := range gathered {
		bitmaps[i] = FromWords(w)
	}
	return bitmaps, nil
}
