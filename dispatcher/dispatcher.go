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

// Package dispatcher runs a topology: every stage as its own goroutine, connected by buffered
// channels that carry immutable sample blocks.
package dispatcher

import (
	"context"
	"sync"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/openthread/ot-rfbroker/capture"
	"github.com/openthread/ot-rfbroker/logger"
	"github.com/openthread/ot-rfbroker/topology"
	"github.com/openthread/ot-rfbroker/transport"
	. "github.com/openthread/ot-rfbroker/types"
)

// block is a run of samples. Blocks are never modified once sent on a connection, so one block
// may be shared by all outputs of a stage.
type block = []complex64

type stage struct {
	topology.Stage
	inputs  []chan block
	outputs []chan block
	stats   stageCounters

	sender  transport.Sender
	capture capture.File
}

type Dispatcher struct {
	cfg    Config
	stages []*stage
	conns  []topology.Connection

	mu        sync.Mutex
	started   bool
	stopOnce  sync.Once
	startTime time.Time

	intakeCancel context.CancelFunc
	abort        context.CancelFunc
	done         chan struct{}
	err          error
}

func NewDispatcher(cfg *Config) *Dispatcher {
	logger.AssertNotNil(cfg.Transport)
	if cfg.MaxPendingSamples <= 0 {
		cfg.MaxPendingSamples = DefaultMaxPendingSamples
	}
	return &Dispatcher{
		cfg:  *cfg,
		done: make(chan struct{}),
	}
}

// AddStage registers a stage. Stage ids must be added in order, starting at 0.
func (d *Dispatcher) AddStage(s topology.Stage) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.started {
		return errors.Errorf("dispatcher already started")
	}
	if int(s.Id) != len(d.stages) {
		return errors.Errorf("stage %s: expected id %d, got %d", s.Name, len(d.stages), s.Id)
	}
	d.stages = append(d.stages, &stage{
		Stage:  s,
		inputs: make([]chan block, s.Kind.NumInputs()),
	})
	return nil
}

func (d *Dispatcher) Connect(c topology.Connection) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.started {
		return errors.Errorf("dispatcher already started")
	}
	if !d.validId(c.From) || !d.validId(c.To) {
		return errors.Errorf("connection %d -> %d: unknown stage", c.From, c.To)
	}
	from, to := d.stages[c.From], d.stages[c.To]
	if !from.Kind.HasOutput() {
		return errors.Errorf("stage %s has no output", from.Name)
	}
	if c.Port < 0 || c.Port >= len(to.inputs) {
		return errors.Errorf("stage %s has no input %d", to.Name, c.Port)
	}
	if to.inputs[c.Port] != nil {
		return errors.Errorf("stage %s input %d already connected", to.Name, c.Port)
	}

	ch := make(chan block, d.cfg.queueDepth())
	to.inputs[c.Port] = ch
	from.outputs = append(from.outputs, ch)
	d.conns = append(d.conns, c)
	return nil
}

func (d *Dispatcher) validId(id topology.StageId) bool {
	return id >= 0 && int(id) < len(d.stages)
}

// Start binds all sinks and starts every stage. If any sink fails to bind, the sinks bound so far
// are closed and the TransportError is returned. Sources connect in the background.
func (d *Dispatcher) Start(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.started {
		return errors.Errorf("dispatcher already started")
	}
	for _, s := range d.stages {
		for port, in := range s.inputs {
			if in == nil {
				return errors.Errorf("stage %s input %d not connected", s.Name, port)
			}
		}
	}

	if err := d.bindSinks(ctx); err != nil {
		d.closeSinks()
		return err
	}
	d.openCaptures()

	runCtx, abort := context.WithCancel(context.Background())
	group, groupCtx := errgroup.WithContext(runCtx)
	intakeCtx, intakeCancel := context.WithCancel(groupCtx)

	d.abort = abort
	d.intakeCancel = intakeCancel
	d.started = true
	d.startTime = time.Now()

	for _, s := range d.stages {
		group.Go(func() error {
			err := d.runStage(groupCtx, intakeCtx, s)
			if err != nil {
				logger.Errorf("stage %s failed: %v", s.Name, err)
			}
			return err
		})
	}

	go func() {
		err := group.Wait()
		d.closeSinks()
		d.mu.Lock()
		d.err = err
		d.mu.Unlock()
		abort()
		close(d.done)
		logger.Debugf("dispatcher exit.")
	}()

	logger.Infof("dispatcher started: %d stages, %d connections, transport %s", len(d.stages), len(d.conns), d.cfg.Transport.Name())
	return nil
}

func (d *Dispatcher) bindSinks(ctx context.Context) error {
	for _, s := range d.stages {
		if s.Kind != topology.StageSink {
			continue
		}
		sender, err := d.cfg.Transport.Bind(ctx, s.Endpoint, stageOptions(s))
		if err != nil {
			if !IsTransportError(err) {
				err = NewTransportError("bind", s.Endpoint, err)
			}
			return err
		}
		s.sender = sender
	}
	return nil
}

func (d *Dispatcher) closeSinks() {
	for _, s := range d.stages {
		if s.sender != nil {
			if err := s.sender.Close(); err != nil {
				logger.Debugf("stage %s: close failed: %v", s.Name, err)
			}
			s.sender = nil
		}
	}
}

func (d *Dispatcher) openCaptures() {
	if d.cfg.CaptureFormat == capture.FormatOff {
		return
	}
	for _, s := range d.stages {
		if s.Kind != topology.StageSink {
			continue
		}
		fn := capture.FileName(d.cfg.CaptureDir, s.Name, d.cfg.CaptureFormat)
		f, err := capture.NewFile(fn, d.cfg.CaptureFormat)
		if err != nil {
			logger.Errorf("stage %s: capture disabled: %v", s.Name, err)
			continue
		}
		s.capture = f
	}
}

func stageOptions(s *stage) transport.Options {
	return transport.Options{
		Timeout:       s.Timeout,
		HighWaterMark: s.HighWaterMark,
	}
}

// Stop halts intake at all sources and blocks until every queued block has passed through the
// stages and all sockets are closed. A stage failure during the drain is returned as DrainError.
// Stop before Start does nothing.
func (d *Dispatcher) Stop() error {
	d.mu.Lock()
	started := d.started
	d.mu.Unlock()
	if !started {
		return nil
	}

	d.stopOnce.Do(func() {
		logger.Debugf("dispatcher stopping ...")
		d.intakeCancel()
	})
	<-d.done

	if err := d.Err(); err != nil {
		return NewDrainError(err)
	}
	return nil
}

// Abort stops all stages at once, discarding queued blocks.
func (d *Dispatcher) Abort() {
	d.mu.Lock()
	abort := d.abort
	d.mu.Unlock()
	if abort != nil {
		abort()
	}
}

// Done is closed when all stages have exited, after Stop or after a stage failure.
func (d *Dispatcher) Done() <-chan struct{} {
	return d.done
}

// Err returns the first stage failure, nil while running or after a clean stop.
func (d *Dispatcher) Err() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.err == nil || errors.Is(d.err, context.Canceled) {
		return nil
	}
	return d.err
}

func (d *Dispatcher) Uptime() time.Duration {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.started {
		return 0
	}
	return time.Since(d.startTime)
}

func (d *Dispatcher) NumStages() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.stages)
}

func (d *Dispatcher) NumConnections() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.conns)
}
