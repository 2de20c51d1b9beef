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

import "time"

// BaseStationId identifies a base station (gNB). Valid ids start at 1.
type BaseStationId = int

// DeviceId identifies a device (UE) within its base station. Valid ids start at 1.
type DeviceId = int

const (
	InvalidBaseStationId BaseStationId = 0
	InvalidDeviceId      DeviceId      = 0
)

// Sample is one complex baseband sample, laid out like GNU Radio's gr_complex.
type Sample = complex64

// Direction of a link leg.
type Direction int

const (
	Downlink Direction = iota
	Uplink
)

func (d Direction) String() string {
	switch d {
	case Downlink:
		return "dl"
	case Uplink:
		return "ul"
	default:
		return "unknown"
	}
}

// MinSocketRetryInterval is the lower bound for connect retries when the socket timeout is configured as 0.
const MinSocketRetryInterval = 10 * time.Millisecond

// SocketTimeout converts a socket timeout in milliseconds into a duration usable as a retry interval.
func SocketTimeout(ms int) time.Duration {
	d := time.Duration(ms) * time.Millisecond
	if d < MinSocketRetryInterval {
		return MinSocketRetryInterval
	}
	return d
}
