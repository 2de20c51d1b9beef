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

// Package transport defines how sample streams enter and leave the broker. The dispatcher only
// talks to these interfaces; transport/zmq implements them over ZeroMQ PUSH/PULL sockets and
// transport/memory in process.
package transport

import (
	"context"
	"time"

	"github.com/pkg/errors"

	. "github.com/openthread/ot-rfbroker/types"
)

// ErrClosed is returned by operations on a closed sender or receiver, and by Recv once the
// bound peer of a receiver went away for good.
var ErrClosed = errors.New("transport closed")

// Options are the socket parameters taken from the configuration.
type Options struct {
	Timeout       time.Duration
	HighWaterMark int
}

// Sender pushes sample blocks to whoever connects to its bound endpoint.
type Sender interface {
	// Send delivers one block. It must not retain or modify samples after it returns.
	Send(ctx context.Context, samples []complex64) error
	Close() error
}

// Receiver pulls sample blocks from a connected endpoint.
type Receiver interface {
	// Recv blocks until a block is available, ctx is done or the receiver fails.
	Recv(ctx context.Context) ([]complex64, error)
	Close() error
}

type Transport interface {
	Name() string
	// Bind binds a sender on ep. A failure is reported as a TransportError.
	Bind(ctx context.Context, ep Endpoint, opts Options) (Sender, error)
	// Connect connects a receiver to ep. A failure is reported as a TransportError.
	Connect(ctx context.Context, ep Endpoint, opts Options) (Receiver, error)
}
