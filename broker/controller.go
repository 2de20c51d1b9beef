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

// Package broker controls the lifecycle of a running topology.
package broker

import (
	"context"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/openthread/ot-rfbroker/logger"
	"github.com/openthread/ot-rfbroker/progctx"
	"github.com/openthread/ot-rfbroker/topology"
)

type State int

const (
	StateCreated State = iota
	StateRunning
	StateStopping
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateCreated:
		return "CREATED"
	case StateRunning:
		return "RUNNING"
	case StateStopping:
		return "STOPPING"
	case StateStopped:
		return "STOPPED"
	default:
		return "UNKNOWN"
	}
}

// Engine executes a topology. dispatcher.Dispatcher is the production engine.
type Engine interface {
	AddStage(s topology.Stage) error
	Connect(c topology.Connection) error
	Start(ctx context.Context) error
	Stop() error
	// Done is closed when the engine has exited, either after Stop or on its own failure.
	Done() <-chan struct{}
	// Err returns the failure that made the engine exit on its own.
	Err() error
}

type Controller struct {
	ctx    *progctx.ProgCtx
	topo   *topology.Topology
	engine Engine

	mu        sync.Mutex
	state     State
	stopped   chan struct{}
	stopErr   error
	listeners []func(State)
	startTime time.Time
}

// NewController creates a controller in state CREATED. Cancelling ctx requests a stop of Run.
func NewController(ctx *progctx.ProgCtx, topo *topology.Topology, engine Engine) *Controller {
	logger.AssertNotNil(topo)
	logger.AssertNotNil(engine)
	return &Controller{
		ctx:     ctx,
		topo:    topo,
		engine:  engine,
		state:   StateCreated,
		stopped: make(chan struct{}),
	}
}

// OnStateChange registers a listener called synchronously on every state transition.
func (c *Controller) OnStateChange(f func(State)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.listeners = append(c.listeners, f)
}

func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *Controller) Topology() *topology.Topology {
	return c.topo
}

// Uptime returns the time since the controller entered RUNNING.
func (c *Controller) Uptime() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.startTime.IsZero() {
		return 0
	}
	return time.Since(c.startTime)
}

// setState must be called with c.mu held; listeners are called after it is released.
func (c *Controller) setState(s State) []func(State) {
	logger.Debugf("broker state %s -> %s", c.state, s)
	c.state = s
	return append([]func(State){}, c.listeners...)
}

func notify(listeners []func(State), s State) {
	for _, f := range listeners {
		f(s)
	}
}

// Start hands the topology to the engine and starts it. If the engine fails to start, the
// controller ends in STOPPED and the error (usually a TransportError) is returned.
func (c *Controller) Start() error {
	c.mu.Lock()
	if c.state != StateCreated {
		st := c.state
		c.mu.Unlock()
		return errors.Errorf("cannot start broker in state %s", st)
	}

	err := c.load()
	if err == nil {
		err = c.engine.Start(c.ctx)
	}

	if err != nil {
		c.stopErr = err
		listeners := c.setState(StateStopped)
		close(c.stopped)
		c.mu.Unlock()
		notify(listeners, StateStopped)
		return err
	}

	c.startTime = time.Now()
	listeners := c.setState(StateRunning)
	c.mu.Unlock()

	logger.Infof("broker running: %d gNBs, %d stages", len(c.topo.BaseStations), c.topo.NumStages())
	notify(listeners, StateRunning)
	return nil
}

func (c *Controller) load() error {
	for _, s := range c.topo.Stages() {
		if err := c.engine.AddStage(s); err != nil {
			return errors.Wrapf(err, "add stage %s", s.Name)
		}
	}
	for _, conn := range c.topo.Connections() {
		if err := c.engine.Connect(conn); err != nil {
			return errors.Wrapf(err, "connect %d -> %d", conn.From, conn.To)
		}
	}
	return nil
}

// Stop halts intake and blocks until the engine has drained. Calls while STOPPING or STOPPED wait
// for the first stop to complete and return its result; a never started controller goes
// straight to STOPPED.
func (c *Controller) Stop() error {
	c.mu.Lock()
	switch c.state {
	case StateCreated:
		listeners := c.setState(StateStopped)
		close(c.stopped)
		c.mu.Unlock()
		notify(listeners, StateStopped)
		return nil
	case StateStopping, StateStopped:
		c.mu.Unlock()
		<-c.stopped
		return c.stopResult()
	}

	listeners := c.setState(StateStopping)
	c.mu.Unlock()
	notify(listeners, StateStopping)

	logger.Infof("stopping broker ...")
	err := c.engine.Stop()
	if err != nil {
		logger.Errorf("broker drain failed: %v", err)
	}

	c.mu.Lock()
	c.stopErr = err
	listeners = c.setState(StateStopped)
	close(c.stopped)
	c.mu.Unlock()

	notify(listeners, StateStopped)
	logger.Infof("broker stopped")
	return err
}

func (c *Controller) stopResult() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stopErr
}

// Stopped is closed when the controller reached STOPPED.
func (c *Controller) Stopped() <-chan struct{} {
	return c.stopped
}

// Run starts the broker and blocks until a stop is requested through the context or the engine
// fails by itself, then stops it. A requested stop returns nil (or the drain failure), an engine
// failure returns that failure.
func (c *Controller) Run() error {
	if err := c.Start(); err != nil {
		return err
	}

	select {
	case <-c.ctx.Done():
		logger.Debugf("broker stop requested: %v", c.ctx.Reason())
		return c.Stop()
	case <-c.engine.Done():
		err := c.engine.Err()
		if err != nil {
			logger.Errorf("broker failed: %v", err)
		}
		_ = c.Stop()
		return err
	}
}
