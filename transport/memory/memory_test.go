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

package memory

import (
	"context"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openthread/ot-rfbroker/transport"
	. "github.com/openthread/ot-rfbroker/types"
)

var testOpts = transport.Options{Timeout: 20 * time.Millisecond, HighWaterMark: 2}

func TestSendRecv(t *testing.T) {
	ctx := context.Background()
	hub := NewHub()
	ep := NewTcpEndpoint("0.0.0.0", 2100)

	rcv, err := hub.Connect(ctx, ep, testOpts)
	require.NoError(t, err)
	snd, err := hub.Bind(ctx, ep, testOpts)
	require.NoError(t, err)

	require.NoError(t, snd.Send(ctx, []complex64{1, 2}))
	require.NoError(t, snd.Send(ctx, []complex64{3}))
	assert.Error(t, snd.Send(ctx, []complex64{4}), "queue full")

	samples, err := rcv.Recv(ctx)
	require.NoError(t, err)
	assert.Equal(t, []complex64{1, 2}, samples)

	require.NoError(t, snd.Close())
	samples, err = rcv.Recv(ctx)
	require.NoError(t, err)
	assert.Equal(t, []complex64{3}, samples)

	_, err = rcv.Recv(ctx)
	assert.Equal(t, transport.ErrClosed, err)
}

func TestBindTwice(t *testing.T) {
	ctx := context.Background()
	hub := NewHub()
	ep := NewTcpEndpoint("0.0.0.0", 2001)

	snd, err := hub.Bind(ctx, ep, testOpts)
	require.NoError(t, err)
	_, err = hub.Bind(ctx, ep, testOpts)
	assert.True(t, IsTransportError(err))

	require.NoError(t, snd.Close())
	_, err = hub.Bind(ctx, ep, testOpts)
	assert.NoError(t, err)
}

func TestFailBind(t *testing.T) {
	hub := NewHub()
	ep := NewTcpEndpoint("0.0.0.0", 2200)
	hub.FailBind(ep, errors.New("permission denied"))

	_, err := hub.Bind(context.Background(), ep, testOpts)
	assert.True(t, IsTransportError(err))
}

func TestRecvCancel(t *testing.T) {
	hub := NewHub()
	rcv, err := hub.Connect(context.Background(), NewTcpEndpoint("127.0.0.1", 2000), testOpts)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err = rcv.Recv(ctx)
	assert.Equal(t, context.DeadlineExceeded, err)

	require.NoError(t, rcv.Close())
	_, err = rcv.Recv(context.Background())
	assert.Equal(t, transport.ErrClosed, err)
}
