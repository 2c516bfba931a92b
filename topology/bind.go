// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package topology

import (
	"fmt"
	"strconv"
	"strings"
)

// ComputeOffset implements spec §4.A step 3: S is the set of local ranks r
// such that r == self or bitmaps[r] equals bitmaps[self]; the offset is
// self's zero-based position within the sorted-by-rank enumeration of S.
//
// Processes with identical CPU sets are assumed to want to share that set
// and are ordered by rank; processes with different sets are assumed
// disjoint and each anchor their own group at offset 0.
func ComputeOffset(bitmaps []Bitmap, self int) int {
	offset := 0
	for r := 0; r < self; r++ {
		if bitmaps[r].Equal(bitmaps[self]) {
			offset++
		}
	}
	return offset
}

// PickCore implements spec §4.A step 4: within cpuset's natural ordering,
// return the ordinal position (count-offset-1), counting from the end so
// the assignment biases toward cores less likely to already host user
// work. This is a pure position, not an absolute CPU id — matching
// original_source's core_to_bind, which is later re-resolved against a
// freshly reloaded CPU set (hwloc_get_obj_inside_cpuset_by_type) rather
// than used as an id directly. ok is false when offset >= count (not
// enough cores to give every co-located process a distinct one), in which
// case the caller must skip binding.
func PickCore(cpuset Bitmap, offset int) (position int, ok bool) {
	count := len(cpuset.Cores())
	if offset >= count {
		return 0, false
	}
	return count - offset - 1, true
}

// CheckVersion implements the source's check_hwloc_api_version: the loaded
// topology backend's version must match the version this binary was built
// against at major.minor granularity. A mismatch is a FatalConfiguration
// condition in the engine (spec §7); CheckVersion itself just reports it.
func CheckVersion(loaded, compiled string) error {
	lMaj, lMin, err := majorMinor(loaded)
	if err != nil {
		return fmt.Errorf("topology: invalid loaded version %q: %w", loaded, err)
	}
	cMaj, cMin, err := majorMinor(compiled)
	if err != nil {
		return fmt.Errorf("topology: invalid compiled version %q: %w", compiled, err)
	}
	if lMaj != cMaj || lMin != cMin {
		return fmt.Errorf("topology: loaded version %s does not match compiled version %s", loaded, compiled)
	}
	return nil
}

func majorMinor(v string) (major, minor int, err error) {
	parts := strings.SplitN(v, ".", 3)
	if len(parts) < 2 {
		return 0, 0, fmt.Errorf("expected major.minor[.patch], got %q", v)
	}
	major, err = strconv.Atoi(parts[0])
	if err != nil {
		return 0, 0, err
	}
	minor, err = strconv.Atoi(parts[1])
	if err != nil {
		return 0, 0, err
	}
	return major, minor, nil
}
