// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package topology

// LocalCommunicator is the external collaborator spec §6 calls "a local
// sub-communicator over co-located processes and an all-gather primitive
// over unsigned-integer arrays". The concrete MPI transport is out of
// scope for this engine (spec §1 Non-goals/external collaborators); this
// interface is the entire surface the topology binder needs from it.
type LocalCommunicator interface {
	// LocalRank returns this process's rank within the set of processes
	// co-located on the same node.
	LocalRank() int
	// LocalSize returns the number of co-located processes.
	LocalSize() int
	// AllGatherUint64 exchanges variable-length uint64 slices across the
	// local communicator, returning one slice per local rank in
	// local-rank order. This folds spec §4.A step 2's two-phase exchange
	// (all-gather of lengths, then a variable-length all-gather of the
	// words) into one call so a caller cannot skip the length exchange.
	AllGatherUint64(local []uint64) ([][]uint64, error)
}
