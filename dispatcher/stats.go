// Copyright (c) 2026, The OTNS Authors.
// All rights reserved.
//
// Redistribution and use in source and binary forms, with or without
// modification, are permitted provided that the following conditions are met:
// 1. Redistributions of source code must retain the above copyright
//    notice, this list of conditions and the following disclaimer.
// 2. Redistributions in binary form must reproduce the above copyright
//    notice, this list of conditions and the following disclaimer in the
//    documentation and/or other materials provided with the distribution.
// 3. Neither the name of the copyright holder nor the
//    names of its contributors may be used to endorse or promote products
//    derived from this software without specific prior written permission.
//
// THIS SOFTWARE IS PROVIDED BY THE COPYRIGHT HOLDERS AND CONTRIBUTORS "AS IS"
// AND ANY EXPRESS OR IMPLIED WARRANTIES, INCLUDING, BUT NOT LIMITED TO, THE
// IMPLIED WARRANTIES OF MERCHANTABILITY AND FITNESS FOR A PARTICULAR PURPOSE
// ARE DISCLAIMED. IN NO EVENT SHALL THE COPYRIGHT HOLDER OR CONTRIBUTORS BE
// LIABLE FOR ANY DIRECT, INDIRECT, INCIDENTAL, SPECIAL, EXEMPLARY, OR
// CONSEQUENTIAL DAMAGES (INCLUDING, BUT NOT LIMITED TO, PROCUREMENT OF
// SUBSTITUTE GOODS OR SERVICES; LOSS OF USE, DATA, OR PROFITS; OR BUSINESS
// INTERRUPTION) HOWEVER CAUSED AND ON ANY THEORY OF LIABILITY, WHETHER IN
// CONTRACT, STRICT LIABILITY, OR TORT (INCLUDING NEGLIGENCE OR OTHERWISE)
// ARISING IN ANY WAY OUT OF THE USE OF THIS SOFTWARE, EVEN IF ADVISED OF THE
// POSSIBILITY OF SUCH DAMAGE.

package dispatcher

import (
	"sync/atomic"

	"github.com/openthread/ot-rfbroker/topology"
	. "github.com/openthread/ot-rfbroker/types"
)

type stageCounters struct {
	samples        atomic.Uint64
	blocks         atomic.Uint64
	droppedBlocks  atomic.Uint64
	droppedSamples atomic.Uint64
	reconnects     atomic.Uint64
	connected      atomic.Bool
}

func (c *stageCounters) addBlock(n int) {
	c.blocks.Add(1)
	c.samples.Add(uint64(n))
}

// addDropped counts a block of n samples that could not be delivered and returns the number of
// dropped blocks so far.
func (c *stageCounters) addDropped(n int) uint64 {
	c.droppedSamples.Add(uint64(n))
	return c.droppedBlocks.Add(1)
}

// addDiscarded counts samples thrown away without a block being lost.
func (c *stageCounters) addDiscarded(n int) {
	c.droppedSamples.Add(uint64(n))
}

func (c *stageCounters) addReconnect() {
	c.reconnects.Add(1)
}

func (c *stageCounters) setConnected(v bool) {
	c.connected.Store(v)
}

// StageStats is a snapshot of the counters of one stage. Samples and Blocks count what the stage
// emitted (for sinks: what was delivered to the socket).
type StageStats struct {
	Id             topology.StageId
	Name           string
	Kind           topology.Kind
	Endpoint       Endpoint
	Samples        uint64
	Blocks         uint64
	DroppedBlocks  uint64
	DroppedSamples uint64
	Reconnects     uint64
	Connected      bool
}

// Stats returns a snapshot of all stage counters, in stage id order.
func (d *Dispatcher) Stats() []StageStats {
	d.mu.Lock()
	stages := append([]*stage(nil), d.stages...)
	d.mu.Unlock()

	res := make([]StageStats, 0, len(stages))
	for _, s := range stages {
		res = append(res, StageStats{
			Id:             s.Id,
			Name:           s.Name,
			Kind:           s.Kind,
			Endpoint:       s.Endpoint,
			Samples:        s.stats.samples.Load(),
			Blocks:         s.stats.blocks.Load(),
			DroppedBlocks:  s.stats.droppedBlocks.Load(),
			DroppedSamples: s.stats.droppedSamples.Load(),
			Reconnects:     s.stats.reconnects.Load(),
			Connected:      s.stats.connected.Load(),
		})
	}
	return res
}

// StatsOf returns the counters of the stage with the given name.
func (d *Dispatcher) StatsOf(name string) (StageStats, bool) {
	for _, st := range d.Stats() {
		if st.Name == name {
			return st, true
		}
	}
	return StageStats{}, false
}
