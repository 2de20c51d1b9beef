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
	"context"

	"github.com/openthread/ot-rfbroker/logger"
)

// adder holds the samples of each input that have no counterpart on the other input yet.
type adder struct {
	pending    [2]block
	open       [2]bool
	maxPending int
	discarded  int
}

func newAdder(maxPending int) *adder {
	return &adder{
		open:       [2]bool{true, true},
		maxPending: maxPending,
	}
}

// push appends samples of input port and returns the sums that became available.
func (a *adder) push(port int, b block) block {
	other := 1 - port
	a.pending[port] = append(a.pending[port], b...)
	sum := a.takeCommon()
	if !a.open[other] {
		// nothing will ever match what is left on this input
		a.discard(port)
	}
	return sum
}

// takeCommon removes the common prefix of both pending buffers and returns its element-wise sum.
func (a *adder) takeCommon() block {
	n := len(a.pending[0])
	if len(a.pending[1]) < n {
		n = len(a.pending[1])
	}
	if n == 0 {
		return nil
	}

	sum := make(block, n)
	for i := range sum {
		sum[i] = a.pending[0][i] + a.pending[1][i]
	}
	for port := range a.pending {
		rest := a.pending[port][n:]
		if len(rest) == 0 {
			a.pending[port] = nil
		} else {
			a.pending[port] = append(block(nil), rest...)
		}
	}
	return sum
}

func (a *adder) close(port int) {
	a.open[port] = false
	a.discard(1 - port)
}

func (a *adder) discard(port int) {
	a.discarded += len(a.pending[port])
	a.pending[port] = nil
}

// readable returns whether input port should be read. An input that ran too far ahead of the
// other one is not read until the other catches up.
func (a *adder) readable(port int) bool {
	if !a.open[port] {
		return false
	}
	return len(a.pending[port]) <= a.maxPending || !a.open[1-port]
}

// runAdd sums its two inputs sample by sample, aligned by sample index.
func (d *Dispatcher) runAdd(ctx context.Context, s *stage, maxPending int) error {
	defer s.closeOutputs()

	a := newAdder(maxPending)
	for a.open[0] || a.open[1] {
		var in [2]chan block
		for port := range in {
			if a.readable(port) {
				in[port] = s.inputs[port]
			}
		}

		var port int
		var b block
		var ok bool
		select {
		case b, ok = <-in[0]:
			port = 0
		case b, ok = <-in[1]:
			port = 1
		case <-ctx.Done():
			return ctx.Err()
		}

		if !ok {
			a.close(port)
			continue
		}
		if sum := a.push(port, b); len(sum) > 0 {
			if err := s.emit(ctx, sum); err != nil {
				return err
			}
		}
	}

	if a.discarded > 0 {
		s.stats.addDiscarded(a.discarded)
		logger.Debugf("stage %s: %d unmatched samples discarded", s.Name, a.discarded)
	}
	return nil
}
