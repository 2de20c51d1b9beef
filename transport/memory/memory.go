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

// Package memory implements the broker transport in process. Endpoints are matched by their
// string form, so a peer reaches a bound sender by connecting to the exact same endpoint.
package memory

import (
	"context"
	"sync"

	"github.com/pkg/errors"

	"github.com/openthread/ot-rfbroker/transport"
	. "github.com/openthread/ot-rfbroker/types"
)

const DefaultQueueDepth = 64

var errAddressInUse = errors.New("address already in use")

// Hub is an in-process network of endpoints.
type Hub struct {
	mu       sync.Mutex
	pipes    map[string]*pipe
	failBind map[string]error
}

func NewHub() *Hub {
	return &Hub{
		pipes:    map[string]*pipe{},
		failBind: map[string]error{},
	}
}

func (h *Hub) Name() string {
	return "memory"
}

// FailBind makes every later Bind on ep fail with err.
func (h *Hub) FailBind(ep Endpoint, err error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.failBind[ep.String()] = err
}

// pipe is the queue behind one endpoint. It exists from the first Bind or Connect until its
// sender is closed.
type pipe struct {
	queue  chan []complex64
	bound  bool
	closed chan struct{}
}

func (h *Hub) getPipe(ep Endpoint, depth int) *pipe {
	p := h.pipes[ep.String()]
	if p == nil {
		if depth <= 0 {
			depth = DefaultQueueDepth
		}
		p = &pipe{
			queue:  make(chan []complex64, depth),
			closed: make(chan struct{}),
		}
		h.pipes[ep.String()] = p
	}
	return p
}

func (h *Hub) Bind(ctx context.Context, ep Endpoint, opts transport.Options) (transport.Sender, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if err := h.failBind[ep.String()]; err != nil {
		return nil, NewTransportError("bind", ep, err)
	}
	p := h.getPipe(ep, opts.HighWaterMark)
	if p.bound {
		return nil, NewTransportError("bind", ep, errAddressInUse)
	}
	p.bound = true
	return &sender{hub: h, ep: ep, pipe: p, opts: opts}, nil
}

func (h *Hub) Connect(ctx context.Context, ep Endpoint, opts transport.Options) (transport.Receiver, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return &receiver{pipe: h.getPipe(ep, opts.HighWaterMark), closed: make(chan struct{})}, nil
}

type sender struct {
	hub  *Hub
	ep   Endpoint
	pipe *pipe
	opts transport.Options
	once sync.Once
}

// Send blocks while the endpoint queue is full, for at most the configured timeout.
func (s *sender) Send(ctx context.Context, samples []complex64) error {
	select {
	case <-s.pipe.closed:
		return transport.ErrClosed
	default:
	}

	if s.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.opts.Timeout)
		defer cancel()
	}

	select {
	case s.pipe.queue <- samples:
		return nil
	case <-s.pipe.closed:
		return transport.ErrClosed
	case <-ctx.Done():
		return errors.Wrapf(ctx.Err(), "send to %s", s.ep)
	}
}

func (s *sender) Close() error {
	s.once.Do(func() {
		s.hub.mu.Lock()
		if s.hub.pipes[s.ep.String()] == s.pipe {
			delete(s.hub.pipes, s.ep.String())
		}
		s.hub.mu.Unlock()
		close(s.pipe.closed)
	})
	return nil
}

type receiver struct {
	pipe   *pipe
	closed chan struct{}
	once   sync.Once
}

// Recv returns queued blocks first; ErrClosed once the sender is gone and the queue is empty.
func (r *receiver) Recv(ctx context.Context) ([]complex64, error) {
	select {
	case samples := <-r.pipe.queue:
		return samples, nil
	default:
	}

	select {
	case samples := <-r.pipe.queue:
		return samples, nil
	case <-r.pipe.closed:
		select {
		case samples := <-r.pipe.queue:
			return samples, nil
		default:
			return nil, transport.ErrClosed
		}
	case <-r.closed:
		return nil, transport.ErrClosed
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (r *receiver) Close() error {
	r.once.Do(func() {
		close(r.closed)
	})
	return nil
}
