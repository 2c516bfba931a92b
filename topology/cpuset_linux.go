// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

//go:build linux

package topology

import (
	"fmt"
	"runtime"

	"golang.org/x/sys/unix"
)

// CurrentCPUSet returns the calling OS thread's current affinity mask,
// standing in for spec §4.A step 1's "query the thread's current CPU
// binding" (the NUMA-node widening step from the source's
// get_hwloc_cpuset is not available without an hwloc-equivalent topology
// library in this stack; a caller that supplies Config.DeviceCPUSet
// bypasses this path entirely for the GPU-bound case, matching
// AL_HAS_CUDA's branch).
func CurrentCPUSet() (Bitmap, error) {
	var set unix.CPUSet
	if err := unix.SchedGetaffinity(0, &set); err != nil {
		return Bitmap{}, fmt.Errorf("topology: sched_getaffinity: %w", err)
	}
	var b Bitmap
	for cpu := 0; cpu < runtime.NumCPU()*4; cpu++ {
		if set.IsSet(cpu) {
			b.Set(cpu)
		}
	}
	return b, nil
}

// BindThread binds the calling OS thread (not the process) to a single
// CPU, matching HWLOC_CPUBIND_THREAD scope in spec §4.A step 5. It calls
// runtime.LockOSThread first so the binding sticks to the goroutine that
// requested it.
func BindThread(cpu int) error {
	runtime.LockOSThread()
	var set unix.CPUSet
	set.Zero()
	set.Set(cpu)
	if err := unix.SchedSetaffinity(0, &set); err != nil {
		return fmt.Errorf("topology: sched_setaffinity(cpu=%d): %w", cpu, err)
	}
	return nil
}
