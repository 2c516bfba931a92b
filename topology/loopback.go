// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package topology

// LoopbackCommunicator is a LocalCommunicator of size 1: it trivially
// returns the caller's own bitmap. This is the default communicator for a
// single-process engine, keeping the topology binder usable without a real
// MPI local sub-communicator.
type LoopbackCommunicator struct{}

// LocalRank always returns 0 for a loopback communicator.
func (LoopbackCommunicator) LocalRank() int { return 0 }

// LocalSize always returns 1 for a loopback communicator.
func (LoopbackCommunicator) LocalSize() int { return 1 }

// AllGatherUint64 returns local unchanged as the sole entry.
func (LoopbackCommunicator) AllGatherUint64(local []uint64) ([][]uint64, error) {
	out := make([]uint64, len(local))
	copy(out, local)
	return [][]uint64{out}, nil
}
