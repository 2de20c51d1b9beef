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

// Package zmq implements the broker transport over ZeroMQ PUSH/PULL sockets, carrying raw
// GNU Radio complex samples without tags.
package zmq

import (
	"context"
	"sync"
	"time"

	"github.com/go-zeromq/zmq4"
	"github.com/pkg/errors"

	"github.com/openthread/ot-rfbroker/logger"
	"github.com/openthread/ot-rfbroker/transport"
	. "github.com/openthread/ot-rfbroker/types"
)

// DefaultQueueDepth is the number of messages buffered per socket when no high water mark is set.
const DefaultQueueDepth = 64

func queueDepth(hwm int) int {
	if hwm > 0 {
		return hwm
	}
	return DefaultQueueDepth
}

type Transport struct{}

func New() *Transport {
	return &Transport{}
}

func (t *Transport) Name() string {
	return "zmq"
}

// Bind listens with a PUSH socket on ep. Blocks are queued to a writer goroutine, which is where
// the socket may block while no peer is connected.
func (t *Transport) Bind(ctx context.Context, ep Endpoint, opts transport.Options) (transport.Sender, error) {
	sctx, cancel := context.WithCancel(context.Background())
	sock := zmq4.NewPush(sctx, zmq4.WithTimeout(opts.Timeout))
	if err := sock.Listen(ep.String()); err != nil {
		_ = sock.Close()
		cancel()
		return nil, NewTransportError("bind", ep, err)
	}

	s := &sender{
		ep:      ep,
		sock:    sock,
		cancel:  cancel,
		timeout: opts.Timeout,
		queue:   make(chan []byte, queueDepth(opts.HighWaterMark)),
		done:    make(chan struct{}),
	}
	go s.writer(sctx)
	logger.Debugf("zmq: PUSH bound on %s", ep)
	return s, nil
}

// Connect dials ep with a PULL socket. Decoded blocks are queued by a reader goroutine.
func (t *Transport) Connect(ctx context.Context, ep Endpoint, opts transport.Options) (transport.Receiver, error) {
	sctx, cancel := context.WithCancel(context.Background())
	sock := zmq4.NewPull(sctx, zmq4.WithTimeout(opts.Timeout), zmq4.WithDialerRetry(opts.Timeout))
	if err := sock.Dial(ep.String()); err != nil {
		_ = sock.Close()
		cancel()
		return nil, NewTransportError("connect", ep, err)
	}

	r := &receiver{
		ep:     ep,
		sock:   sock,
		cancel: cancel,
		queue:  make(chan []complex64, queueDepth(opts.HighWaterMark)),
		errc:   make(chan error, 1),
		done:   make(chan struct{}),
	}
	go r.reader(sctx)
	logger.Debugf("zmq: PULL connected to %s", ep)
	return r, nil
}

type sender struct {
	ep        Endpoint
	sock      zmq4.Socket
	cancel    context.CancelFunc
	timeout   time.Duration
	queue     chan []byte
	done      chan struct{}
	closeOnce sync.Once

	// mu is held for reading while a block is queued, so Close cannot close the queue under it.
	mu     sync.RWMutex
	closed bool

	errMu sync.Mutex
	err   error
}

func (s *sender) writer(ctx context.Context) {
	defer close(s.done)
	for {
		select {
		case <-ctx.Done():
			return
		case buf, ok := <-s.queue:
			if !ok {
				return
			}
			if err := s.sock.Send(zmq4.NewMsg(buf)); err != nil {
				if ctx.Err() != nil {
					return
				}
				logger.Debugf("zmq: send on %s failed: %v", s.ep, err)
				s.errMu.Lock()
				s.err = err
				s.errMu.Unlock()
			}
		}
	}
}

// Send queues one block. It fails when the queue stays full for the socket timeout.
func (s *sender) Send(ctx context.Context, samples []complex64) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return transport.ErrClosed
	}

	s.errMu.Lock()
	lastErr := s.err
	s.err = nil
	s.errMu.Unlock()
	if lastErr != nil {
		return NewTransportError("send", s.ep, lastErr)
	}

	buf := EncodeSamples(nil, samples)
	timer := time.NewTimer(s.timeout)
	defer timer.Stop()

	select {
	case s.queue <- buf:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return errors.Errorf("send queue of %s full for %v", s.ep, s.timeout)
	case <-s.done:
		return transport.ErrClosed
	}
}

// Close flushes queued blocks for at most the socket timeout, then closes the socket.
func (s *sender) Close() error {
	var err error
	s.closeOnce.Do(func() {
		s.mu.Lock()
		s.closed = true
		s.mu.Unlock()

		close(s.queue)
		select {
		case <-s.done:
		case <-time.After(s.timeout):
			logger.Debugf("zmq: %s closed with unsent blocks", s.ep)
		}
		s.cancel()
		err = s.sock.Close()
	})
	return err
}

type receiver struct {
	ep        Endpoint
	sock      zmq4.Socket
	cancel    context.CancelFunc
	queue     chan []complex64
	errc      chan error
	done      chan struct{}
	closeOnce sync.Once
	decoder   Decoder
}

func (r *receiver) reader(ctx context.Context) {
	defer close(r.done)
	for {
		msg, err := r.sock.Recv()
		if err != nil {
			if ctx.Err() == nil {
				r.errc <- NewTransportError("recv", r.ep, err)
			}
			return
		}

		for _, frame := range msg.Frames {
			samples := r.decoder.Decode(frame)
			if len(samples) == 0 {
				continue
			}
			select {
			case r.queue <- samples:
			case <-ctx.Done():
				return
			}
		}
	}
}

func (r *receiver) Recv(ctx context.Context) ([]complex64, error) {
	select {
	case samples := <-r.queue:
		return samples, nil
	default:
	}

	select {
	case samples := <-r.queue:
		return samples, nil
	case err := <-r.errc:
		return nil, err
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-r.done:
		return nil, transport.ErrClosed
	}
}

func (r *receiver) Close() error {
	var err error
	r.closeOnce.Do(func() {
		r.cancel()
		err = r.sock.Close()
		<-r.done
	})
	return err
}
