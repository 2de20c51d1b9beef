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

package types

import (
	"fmt"
	"net"
	"strconv"
)

const TcpScheme = "tcp"

// Endpoint is a socket address derived from base station/device ids. It is recomputed on every
// topology build and never persisted.
type Endpoint struct {
	Scheme string
	Host   string
	Port   int
}

func NewTcpEndpoint(host string, port int) Endpoint {
	return Endpoint{
		Scheme: TcpScheme,
		Host:   host,
		Port:   port,
	}
}

// HostPort returns the "host:port" part, with IPv6 hosts bracketed.
func (ep Endpoint) HostPort() string {
	return net.JoinHostPort(ep.Host, strconv.Itoa(ep.Port))
}

// String returns the endpoint in "scheme://host:port" form as used by ZeroMQ.
func (ep Endpoint) String() string {
	scheme := ep.Scheme
	if scheme == "" {
		scheme = TcpScheme
	}
	return fmt.Sprintf("%s://%s", scheme, ep.HostPort())
}

func (ep Endpoint) IsZero() bool {
	return ep.Host == "" && ep.Port == 0
}
