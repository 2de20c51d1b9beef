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
	"math"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/time/rate"

	"github.com/openthread/ot-rfbroker/logger"
	"github.com/openthread/ot-rfbroker/topology"
	"github.com/openthread/ot-rfbroker/transport"
)

// connectWarnInterval is the number of failed connect attempts between two warnings.
const connectWarnInterval = 100

// throttleBurstDuration is the amount of samples a throttle may release at once, in time.
const throttleBurstDuration = 10 * time.Millisecond

// runStage runs one stage until its inputs are exhausted (or, for sources, until intake stops).
// ctx is cancelled when any stage fails.
func (d *Dispatcher) runStage(ctx context.Context, intakeCtx context.Context, s *stage) error {
	switch s.Kind {
	case topology.StageSource:
		return d.runSource(ctx, intakeCtx, s)
	case topology.StageSink:
		return d.runSink(ctx, s)
	case topology.StageThrottle:
		return d.runThrottle(ctx, s)
	case topology.StageScale:
		return d.runScale(ctx, s)
	case topology.StageAdd:
		return d.runAdd(ctx, s, d.cfg.MaxPendingSamples)
	default:
		return errors.Errorf("stage %s: unsupported kind %s", s.Name, s.Kind)
	}
}

// emit sends b to every output of s, in output order.
func (s *stage) emit(ctx context.Context, b block) error {
	s.stats.addBlock(len(b))
	for _, out := range s.outputs {
		select {
		case out <- b:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

func (s *stage) closeOutputs() {
	for _, out := range s.outputs {
		close(out)
	}
}

// receive returns the next block of input 0, or false when the input is exhausted.
func (s *stage) receive(ctx context.Context) (block, bool, error) {
	select {
	case b, ok := <-s.inputs[0]:
		return b, ok, nil
	case <-ctx.Done():
		return nil, false, ctx.Err()
	}
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return true
	case <-ctx.Done():
		return false
	}
}

// runSource connects to the stage endpoint and forwards every received block. A failed connect
// or receive is retried every socket timeout until intake stops.
func (d *Dispatcher) runSource(ctx context.Context, intakeCtx context.Context, s *stage) error {
	defer s.closeOutputs()

	for intakeCtx.Err() == nil {
		rcv := d.connectSource(intakeCtx, s)
		if rcv == nil {
			break
		}
		s.stats.setConnected(true)

		err := d.forward(ctx, intakeCtx, s, rcv)
		s.stats.setConnected(false)
		_ = rcv.Close()

		if ctx.Err() != nil {
			return ctx.Err()
		}
		if intakeCtx.Err() != nil {
			break
		}
		logger.Infof("stage %s: %s lost (%v), reconnecting", s.Name, s.Endpoint, err)
		s.stats.addReconnect()
		if !sleepCtx(intakeCtx, s.Timeout) {
			break
		}
	}
	return nil
}

func (d *Dispatcher) connectSource(intakeCtx context.Context, s *stage) transport.Receiver {
	for attempt := 1; ; attempt++ {
		rcv, err := d.cfg.Transport.Connect(intakeCtx, s.Endpoint, stageOptions(s))
		if err == nil {
			logger.Debugf("stage %s: connected to %s", s.Name, s.Endpoint)
			return rcv
		}
		if attempt%connectWarnInterval == 1 {
			logger.Warnf("stage %s: %v (attempt %d)", s.Name, err, attempt)
		}
		if !sleepCtx(intakeCtx, s.Timeout) {
			return nil
		}
	}
}

func (d *Dispatcher) forward(ctx context.Context, intakeCtx context.Context, s *stage, rcv transport.Receiver) error {
	for {
		b, err := rcv.Recv(intakeCtx)
		if err != nil {
			return err
		}
		if len(b) == 0 {
			continue
		}
		if err = s.emit(ctx, b); err != nil {
			return err
		}
	}
}

// runSink sends every block of its input to the bound socket. Blocks that cannot be delivered
// within the socket timeout are dropped and counted.
func (d *Dispatcher) runSink(ctx context.Context, s *stage) error {
	defer func() {
		if s.capture != nil {
			if err := s.capture.Close(); err != nil {
				logger.Warnf("stage %s: capture close failed: %v", s.Name, err)
			}
		}
		if s.sender != nil {
			_ = s.sender.Close()
		}
	}()

	for {
		b, ok, err := s.receive(ctx)
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}

		if s.capture != nil {
			if err = s.capture.AppendSamples(b); err != nil {
				logger.Errorf("stage %s: capture disabled: %v", s.Name, err)
				_ = s.capture.Close()
				s.capture = nil
			}
		}

		err = s.sender.Send(ctx, b)
		switch {
		case err == nil:
			s.stats.addBlock(len(b))
		case errors.Is(err, transport.ErrClosed):
			return errors.Wrapf(err, "stage %s", s.Name)
		case ctx.Err() != nil:
			return ctx.Err()
		default:
			if s.stats.addDropped(len(b)) == 1 {
				logger.Warnf("stage %s: dropping blocks: %v", s.Name, err)
			} else {
				logger.Tracef("stage %s: dropped block: %v", s.Name, err)
			}
		}
	}
}

// throttleBurst returns the largest number of samples a throttle releases at once.
func throttleBurst(sampleRate float64) int {
	burst := int(math.Ceil(sampleRate / float64(time.Second/throttleBurstDuration)))
	if burst < 1 {
		burst = 1
	}
	return burst
}

// runThrottle forwards blocks no faster than the stage sample rate.
func (d *Dispatcher) runThrottle(ctx context.Context, s *stage) error {
	defer s.closeOutputs()

	burst := throttleBurst(s.SampleRate)
	limiter := rate.NewLimiter(rate.Limit(s.SampleRate), burst)

	for {
		b, ok, err := s.receive(ctx)
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}

		for n := len(b); n > 0; {
			step := n
			if step > burst {
				step = burst
			}
			if err = limiter.WaitN(ctx, step); err != nil {
				return err
			}
			n -= step
		}
		if err = s.emit(ctx, b); err != nil {
			return err
		}
	}
}

// runScale multiplies every sample by the stage factor. A factor of exactly 1 forwards blocks as is.
func (d *Dispatcher) runScale(ctx context.Context, s *stage) error {
	defer s.closeOutputs()

	factor := float32(s.Factor)
	for {
		b, ok, err := s.receive(ctx)
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}

		out := b
		if s.Factor != 1.0 {
			out = make(block, len(b))
			for i, v := range b {
				out[i] = complex(real(v)*factor, imag(v)*factor)
			}
		}
		if err = s.emit(ctx, out); err != nil {
			return err
		}
	}
}
