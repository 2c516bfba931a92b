// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package topology

import "sync"

// channelBarrier coordinates one round of an all-gather among goroutines
// standing in for co-located MPI ranks, the way
// other_examples/sanderblue-algorithms__ring_all_reduce.go coordinates
// ring participants: each participant contributes its chunk, then blocks
// until every other participant has too.
type channelBarrier struct {
	mu            sync.Mutex
	cond          *sync.Cond
	size          int
	round         int
	arrived       int
	contributions [][]uint64
}

func newChannelBarrier(size int) *channelBarrier {
	b := &channelBarrier{size: size, contributions: make([][]uint64, size)}
	b.cond = sync.NewCond(&b.mu)
	return b
}

// ChannelCommunicator is a LocalCommunicator for goroutines standing in for
// co-located ranks within a single process, used to exercise the
// multi-rank topology offset logic in tests without a real MPI local
// sub-communicator (which is out of scope per spec §1).
type ChannelCommunicator struct {
	rank    int
	barrier *channelBarrier
}

// NewChannelCommunicators creates size ChannelCommunicators sharing one
// exchange barrier, one per simulated local rank.
func NewChannelCommunicators(size int) []*ChannelCommunicator {
	b := newChannelBarrier(size)
	comms := make([]*ChannelCommunicator, size)
	for i := range comms {
		comms[i] = &ChannelCommunicator{rank: i, barrier: b}
	}
	return comms
}

// LocalRank returns this communicator's simulated local rank.
func (c *ChannelCommunicator) LocalRank() int { return c.rank }

// LocalSize returns the number of simulated local ranks.
func (c *ChannelCommunicator) LocalSize() int { return c.barrier.size }

// AllGatherUint64 blocks until all local ranks have contributed for this
// round, then returns every rank's contribution in rank order.
func (c *ChannelCommunicator) AllGatherUint64(local []uint64) ([][]uint64, error) {
	b := c.barrier
	b.mu.Lock()
	defer b.mu.Unlock()

	myRound := b.round
	b.contributions[c.rank] = append([]uint64(nil), local...)
	b.arrived++

	if b.arrived == b.size {
		b.arrived = 0
		b.round++
		b.cond.Broadcast()
	} else {
		for b.round == myRound {
			b.cond.Wait()
		}
	}

	result := make([][]uint64, b.size)
	for i, v := range b.contributions {
		result[i] = append([]uint64(nil), v...)
	}
	return result, nil
}
